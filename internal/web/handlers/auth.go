package handlers

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/defzzd/learning-journal/internal/auth"
)

// LoginPage renders the login form
func (h *Handlers) LoginPage(w http.ResponseWriter, r *http.Request) error {
	if h.sessions.LoggedIn(r) {
		h.redirect(w, r, "/")
		return nil
	}

	h.render(w, r, "login.html", PageData{Title: "Log In"})
	return nil
}

// LoginSubmit verifies the submitted credentials. A credential failure is
// handled entirely here with a generic message; it never reaches teardown
// as a database-classified error.
func (h *Handlers) LoginSubmit(w http.ResponseWriter, r *http.Request) error {
	username := r.FormValue("username")
	password := r.FormValue("password")

	if err := h.gate.VerifyCredentials(username, password); err != nil {
		if errors.Is(err, auth.ErrBadCredentials) {
			log.Info().Str("remote", r.RemoteAddr).Msg("Failed login attempt")
			h.render(w, r, "login.html", PageData{Title: "Log In", LoginFailed: true})
			return nil
		}
		return err
	}

	if err := h.sessions.Login(w); err != nil {
		return err
	}

	log.Info().Str("username", username).Msg("Admin logged in")
	h.redirect(w, r, "/")
	return nil
}

// Logout clears the session and redirects home. Safe to call when not
// logged in.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) error {
	h.sessions.Logout(w)
	h.redirect(w, r, "/")
	return nil
}
