package web

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/evcraddock/devmate/internal/auth"
	"github.com/evcraddock/devmate/internal/session"
)

var formValidator = validator.New()

type loginData struct {
	Identity session.Identity
	Error    string
	Form     loginForm
}

// loginForm is the pasted token plus identity fields for tokens that do not
// carry them as claims.
type loginForm struct {
	Token     string `validate:"required"`
	UserID    string
	Username  string
	AvatarURL string `validate:"omitempty,url"`
}

// handleLoginPage renders the login form, or goes to the profile when a
// session already exists.
func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if _, err := s.sessions.Validate(r); err == nil {
		http.Redirect(w, r, "/profile", http.StatusSeeOther)
		return
	}
	s.render(w, http.StatusOK, "login.html", loginData{})
}

// handleLoginSubmit stores the bearer token in a new session.
func (s *Server) handleLoginSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	form := loginForm{
		Token:     strings.TrimSpace(r.FormValue("token")),
		UserID:    strings.TrimSpace(r.FormValue("user_id")),
		Username:  strings.TrimSpace(r.FormValue("username")),
		AvatarURL: strings.TrimSpace(r.FormValue("avatar_url")),
	}
	form.Token = strings.TrimPrefix(form.Token, "Bearer ")

	if err := formValidator.Struct(form); err != nil {
		msg := "Token is required"
		if form.Token != "" {
			msg = "Avatar URL must be a valid URL"
		}
		s.render(w, http.StatusUnprocessableEntity, "login.html", loginData{Error: msg, Form: form})
		return
	}

	claims, err := auth.IdentityFromToken(form.Token)
	if err != nil {
		slog.Warn("reading token claims", "err", err)
		s.render(w, http.StatusUnprocessableEntity, "login.html", loginData{Error: "Token is not a valid JWT", Form: form})
		return
	}
	identity := auth.MergeIdentity(claims, session.Identity{
		UserID:    form.UserID,
		Username:  form.Username,
		AvatarURL: form.AvatarURL,
	})
	if identity.UserID == "" {
		s.render(w, http.StatusUnprocessableEntity, "login.html", loginData{Error: "User ID is required for this token", Form: form})
		return
	}

	if _, err := s.sessions.Create(w, form.Token, identity); err != nil {
		slog.Error("creating session", "err", err)
		s.render(w, http.StatusInternalServerError, "login.html", loginData{Error: "Login failed. Please try again.", Form: form})
		return
	}

	slog.Info("user signed in", "user_id", identity.UserID)
	http.Redirect(w, r, "/profile", http.StatusSeeOther)
}

// handleLogout destroys the session.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Destroy(w, r); err != nil {
		slog.Error("destroying session", "err", err)
	}
	redirect(w, r, "/login")
}
