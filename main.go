package main

import (
	"context"
	"log"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"eyedash/adapters/excel"
	"eyedash/adapters/postgres"
	"eyedash/domain/table"
	"eyedash/internal/config"
	"eyedash/internal/datastore"
	"eyedash/internal/session"
	"eyedash/ports"
	"eyedash/ui"
)

// sessionStore picks postgres-backed sessions when DATABASE_URL is set,
// falling back to in-process memory otherwise.
func sessionStore(cfg *config.Config) (ports.SessionStore, func(), error) {
	if cfg.Database.URL == "" {
		log.Println("No DATABASE_URL configured, using in-memory sessions")
		return session.NewMemoryStore(), func() {}, nil
	}

	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		return nil, nil, err
	}
	repo := postgres.NewSessionRepository(db)
	if err := repo.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, nil, err
	}
	log.Println("Using postgres-backed sessions")
	return repo, func() { db.Close() }, nil
}

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	store, closeStore, err := sessionStore(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize session store: %v", err)
	}
	defer closeStore()

	sessions := session.NewManager(store, cfg.Session.TTL)
	tables := datastore.NewStore(func(path string) (*table.Table, error) {
		return excel.NewDataReader(path).ReadTable()
	})

	app, err := ui.NewApp(cfg, tables, sessions)
	if err != nil {
		log.Fatalf("Failed to initialize dashboard server: %v", err)
	}

	// Hourly sweep of idle sessions.
	go func() {
		for {
			time.Sleep(time.Hour)
			if err := sessions.Prune(context.Background()); err != nil {
				log.Printf("session prune failed: %v", err)
			}
		}
	}()

	log.Fatal(app.Start())
}
