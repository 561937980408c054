// Package ui serves the reporting dashboards: one route per registered
// page, rendering metric cards, charts and sex-wise tables from the
// filtered spreadsheet data.
package ui

import (
	"embed"
	"fmt"
	"html/template"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"eyedash/internal/config"
	"eyedash/internal/datastore"
	"eyedash/internal/pages"
	"eyedash/internal/session"
)

//go:embed templates/* static/*
var embeddedFiles embed.FS

// App represents the dashboard application
type App struct {
	router    *chi.Mux
	cfg       *config.Config
	store     *datastore.Store
	sessions  *session.Manager
	templates *template.Template
}

// NewApp wires the dashboard server around the table cache and session
// manager.
func NewApp(cfg *config.Config, store *datastore.Store, sessions *session.Manager) (*App, error) {
	funcMap := template.FuncMap{
		"add": func(a, b int) int { return a + b },
		"pct": func(f float64) string { return fmt.Sprintf("%.1f%%", f) },
		"pvalue": func(p float64) string {
			if p < 0.001 {
				return "< 0.001"
			}
			return fmt.Sprintf("%.3f", p)
		},
	}
	templates, err := template.New("").Funcs(funcMap).ParseFS(embeddedFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	app := &App{
		router:    chi.NewRouter(),
		cfg:       cfg,
		store:     store,
		sessions:  sessions,
		templates: templates,
	}

	app.setupMiddleware()
	app.setupRoutes()

	return app, nil
}

// setupMiddleware configures HTTP middleware
func (a *App) setupMiddleware() {
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Compress(5))

	staticFS := http.FileServer(http.FS(embeddedFiles))
	a.router.Handle("/static/*", http.StripPrefix("/", staticFS))
}

// setupRoutes configures the application routes
func (a *App) setupRoutes() {
	a.router.Get("/", a.handleIndex)
	a.router.Get("/dash/{page}", a.handleDashboard)
	a.router.Post("/dash/{page}/filters", a.handleFilters)
	a.router.Post("/dash/{page}/clear", a.handleClear)
	a.router.Get("/dash/{page}/export.csv", a.handleExport)
}

// Start starts the HTTP server
func (a *App) Start() error {
	addr := ":" + a.cfg.Server.Port
	log.Printf("Starting dashboard server on %s", addr)
	return http.ListenAndServe(addr, a.router)
}

// Handler exposes the router, used by httptest.
func (a *App) Handler() http.Handler {
	return a.router
}

// lookupPage resolves the {page} URL parameter against the registry.
func lookupPage(r *http.Request) (*pages.Page, bool) {
	return pages.Lookup(chi.URLParam(r, "page"))
}

func (a *App) renderTemplate(w http.ResponseWriter, templateName string, data interface{}) {
	w.Header().Set("Content-Type", "text/html")
	if err := a.templates.ExecuteTemplate(w, templateName, data); err != nil {
		log.Printf("Template error: %v", err)
		http.Error(w, "Template error", http.StatusInternalServerError)
	}
}
