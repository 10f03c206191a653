package handlers

import (
	"errors"
	"html/template"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/defzzd/learning-journal/internal/auth"
	"github.com/defzzd/learning-journal/internal/database"
)

// Handlers contains all HTTP handlers. Database access goes through the
// request scope in the context, never through a handle held here.
type Handlers struct {
	templates map[string]*template.Template
	gate      *auth.Gate
	sessions  *auth.SessionManager
}

// New creates a new Handlers instance
func New(templates map[string]*template.Template, gate *auth.Gate, sessions *auth.SessionManager) *Handlers {
	return &Handlers{
		templates: templates,
		gate:      gate,
		sessions:  sessions,
	}
}

// PageData contains common data for all pages
type PageData struct {
	Title       string
	LoggedIn    bool
	Entries     []database.Entry
	Editing     bool
	Entry       *database.Entry
	LoginFailed bool
}

// Handle adapts an error-returning handler. A returned error is recorded on
// the request scope, where teardown classifies it for the commit/rollback
// decision, and is translated to a response: lookup misses become 404,
// everything else a generic 500.
func (h *Handlers) Handle(fn func(http.ResponseWriter, *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := fn(w, r)
		if err == nil {
			return
		}

		if scope := database.ScopeFrom(r.Context()); scope != nil {
			scope.Fail(err)
		}

		if errors.Is(err, database.ErrNotFound) {
			log.Debug().Err(err).Str("path", r.URL.Path).Msg("Not found")
			http.NotFound(w, r)
			return
		}

		log.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("Request failed")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// render renders a page template with common data filled in
func (h *Handlers) render(w http.ResponseWriter, r *http.Request, name string, data PageData) {
	if data.Title == "" {
		data.Title = "Learning Journal"
	}
	data.LoggedIn = h.sessions.LoggedIn(r)

	tmpl, ok := h.templates[name]
	if !ok {
		log.Error().Str("template", name).Msg("Template not found")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "base", data); err != nil {
		log.Error().Err(err).Str("template", name).Msg("Failed to render template")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// redirect redirects to a URL
func (h *Handlers) redirect(w http.ResponseWriter, r *http.Request, url string) {
	http.Redirect(w, r, url, http.StatusFound)
}
