package web

import (
	"context"
	"embed"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/defzzd/learning-journal/internal/auth"
	"github.com/defzzd/learning-journal/internal/database"
	"github.com/defzzd/learning-journal/internal/web/handlers"
	"github.com/defzzd/learning-journal/internal/web/middleware"
)

//go:embed templates/*
var templatesFS embed.FS

// Server represents the web server
type Server struct {
	db        *database.DB
	addr      string
	router    *chi.Mux
	templates map[string]*template.Template
	gate      *auth.Gate
	sessions  *auth.SessionManager
	handlers  *handlers.Handlers
}

// NewServer creates a new web server
func NewServer(db *database.DB, gate *auth.Gate, sessions *auth.SessionManager, addr string) *Server {
	s := &Server{
		db:       db,
		addr:     addr,
		router:   chi.NewRouter(),
		gate:     gate,
		sessions: sessions,
	}

	s.loadTemplates()
	s.setupRoutes()

	return s
}

// Router returns the configured HTTP handler
func (s *Server) Router() http.Handler {
	return s.router
}

// templateFuncMap returns the common template functions
func templateFuncMap() template.FuncMap {
	return template.FuncMap{
		"formatTime": func(t time.Time) string {
			return t.UTC().Format("2006-01-02 15:04")
		},
	}
}

// loadTemplates loads all HTML templates.
// Each page template is parsed with the base template.
func (s *Server) loadTemplates() {
	s.templates = make(map[string]*template.Template)
	funcMap := templateFuncMap()

	pageTemplates := []string{
		"index.html",
		"login.html",
	}

	for _, page := range pageTemplates {
		tmpl, err := template.New("").Funcs(funcMap).ParseFS(templatesFS,
			"templates/base.html",
			"templates/"+page,
		)
		if err != nil {
			log.Fatal().Err(err).Str("template", page).Msg("Failed to parse template")
		}
		s.templates[page] = tmpl
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	r := s.router

	// Global middleware. RequestScope is innermost so every handler sees the
	// request's database scope and teardown runs at the single chokepoint.
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))
	r.Use(middleware.RequestScope(s.db))

	h := handlers.New(s.templates, s.gate, s.sessions)
	s.handlers = h

	// Public routes
	r.Get("/", h.Handle(h.Index))
	r.Get("/login", h.Handle(h.LoginPage))
	r.Post("/login", h.Handle(h.LoginSubmit))
	r.Get("/logout", h.Handle(h.Logout))

	// Write routes (admin session required)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireLogin(s.sessions))
		r.Post("/add", h.Handle(h.AddEntry))
		r.Get("/edit/{id}", h.Handle(h.EditEntry))
		r.Post("/submit/{id}", h.Handle(h.SubmitEntry))
	})
}

// Start starts the web server and blocks until ctx is cancelled or the
// server fails.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:    s.addr,
		Handler: s.router,
		// ReadTimeout is for reading request body
		ReadTimeout: 15 * time.Second,
		// Chi middleware timeout (60s) protects request handling
		WriteTimeout: 0,
		// IdleTimeout for keep-alive connections between requests
		IdleTimeout: 120 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.addr).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errChan:
		return err
	}
}
