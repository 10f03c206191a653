package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/defzzd/learning-journal/internal/database"
)

// Index renders the full entry listing, newest first
func (h *Handlers) Index(w http.ResponseWriter, r *http.Request) error {
	scope := database.ScopeFrom(r.Context())

	entries, err := scope.AllEntries(r.Context())
	if err != nil {
		return err
	}

	h.render(w, r, "index.html", PageData{Entries: entries})
	return nil
}

// AddEntry creates a new entry from the submitted form and redirects home.
// The insert rides the request transaction; the commit happens at teardown.
func (h *Handlers) AddEntry(w http.ResponseWriter, r *http.Request) error {
	scope := database.ScopeFrom(r.Context())

	title := r.FormValue("title")
	text := r.FormValue("text")

	if err := scope.WriteEntry(r.Context(), title, text); err != nil {
		return err
	}

	h.redirect(w, r, "/")
	return nil
}

// EditEntry renders the listing in editing mode with the form pre-filled
// from the targeted entry
func (h *Handlers) EditEntry(w http.ResponseWriter, r *http.Request) error {
	scope := database.ScopeFrom(r.Context())

	id, err := entryID(r)
	if err != nil {
		return err
	}

	entry, err := scope.Entry(r.Context(), id)
	if err != nil {
		return err
	}

	entries, err := scope.AllEntries(r.Context())
	if err != nil {
		return err
	}

	h.render(w, r, "index.html", PageData{
		Entries: entries,
		Editing: true,
		Entry:   entry,
	})
	return nil
}

// SubmitEntry overwrites the targeted entry's title and text and redirects
// home. The creation timestamp is left untouched.
func (h *Handlers) SubmitEntry(w http.ResponseWriter, r *http.Request) error {
	scope := database.ScopeFrom(r.Context())

	id, err := entryID(r)
	if err != nil {
		return err
	}

	title := r.FormValue("title")
	text := r.FormValue("text")

	if err := scope.UpdateEntry(r.Context(), title, text, id); err != nil {
		return err
	}

	h.redirect(w, r, "/")
	return nil
}

// entryID parses the {id} route parameter. A non-numeric id cannot match
// any entry, so it reads as a lookup miss.
func entryID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: entry %q", database.ErrNotFound, raw)
	}
	return id, nil
}
