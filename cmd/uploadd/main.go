// Command uploadd runs the token-guarded workbook upload service.
package main

import (
	"log"

	"github.com/joho/godotenv"

	"eyedash/internal/config"
	"eyedash/upload"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.LoadUpload()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	srv := upload.NewServer(cfg)
	log.Fatal(srv.Start())
}
