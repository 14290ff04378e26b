package web

import (
	"log/slog"
	"net/http"

	"github.com/evcraddock/devmate/internal/apperror"
	"github.com/evcraddock/devmate/internal/auth"
	"github.com/evcraddock/devmate/internal/profile"
	"github.com/evcraddock/devmate/internal/session"
)

type profilePageData struct {
	Identity    session.Identity
	Headline    string
	Role        string
	NewPostURL  string
	PostListURL string
	Notice      string
	Editing     bool
	Username    string
	AvatarURL   string
	TechStack   []string
	Options     []techOption
	Error       string
}

type techOption struct {
	profile.TechItem
	Selected bool
}

func (s *Server) profileEditor(r *http.Request) (*auth.Record, *profile.Editor) {
	rec := auth.RecordFrom(r.Context())
	return rec, profile.New(rec.Session(s.sessions), rec.TechStack)
}

func (s *Server) profileData(e *profile.Editor, errMsg string) profilePageData {
	opts := make([]techOption, 0, len(profile.TechStack))
	for _, item := range profile.TechStack {
		opts = append(opts, techOption{TechItem: item, Selected: e.Selected(item.Value)})
	}

	return profilePageData{
		Identity:    e.Identity(),
		Headline:    e.Headline(),
		Role:        profile.Role,
		NewPostURL:  s.cfg.NewPostURL,
		PostListURL: s.cfg.PostListURL,
		Editing:     e.Editing(),
		Username:    e.Username(),
		AvatarURL:   e.AvatarURL(),
		TechStack:   e.TechStack(),
		Options:     opts,
		Error:       errMsg,
	}
}

func (s *Server) renderProfile(w http.ResponseWriter, r *http.Request, status int, e *profile.Editor, errMsg string) {
	data := s.profileData(e, errMsg)
	if isHTMX(r) {
		s.renderPartial(w, "profile-card", data)
		return
	}
	s.render(w, status, "profile.html", data)
}

// handleProfile renders the profile in view mode, with any pending notice.
func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	_, e := s.profileEditor(r)
	data := s.profileData(e, "")
	data.Notice = s.takeFlash(w, r)
	if isHTMX(r) {
		s.renderPartial(w, "profile-card", data)
		return
	}
	s.render(w, http.StatusOK, "profile.html", data)
}

// handleProfileEdit renders the profile in edit mode.
func (s *Server) handleProfileEdit(w http.ResponseWriter, r *http.Request) {
	_, e := s.profileEditor(r)
	e.EnterEditMode()
	s.renderProfile(w, r, http.StatusOK, e, "")
}

// handleProfileCancel discards the drafts.
func (s *Server) handleProfileCancel(w http.ResponseWriter, r *http.Request) {
	_, e := s.profileEditor(r)
	e.CancelEdit()
	if isHTMX(r) {
		s.renderPartial(w, "profile-card", s.profileData(e, ""))
		return
	}
	http.Redirect(w, r, "/profile", http.StatusSeeOther)
}

// handleProfileTech toggles a tech stack item. Drafts posted alongside are
// kept so the edit form survives the round trip.
func (s *Server) handleProfileTech(w http.ResponseWriter, r *http.Request) {
	rec, e := s.profileEditor(r)

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	e.EnterEditMode()
	if _, ok := r.Form["username"]; ok {
		e.SetUsername(r.FormValue("username"))
	}
	if _, ok := r.Form["avatar_url"]; ok {
		e.SetAvatarURL(r.FormValue("avatar_url"))
	}

	if err := e.ToggleTechStackItem(r.FormValue("item")); err != nil {
		s.renderProfile(w, r, apperror.HTTPStatus(err), e, err.Error())
		return
	}

	if err := s.sessions.SetTechStack(rec.ID, e.TechStack()); err != nil {
		slog.Error("saving tech stack", "err", err)
		s.renderProfile(w, r, http.StatusInternalServerError, e, "Failed to save the tech stack.")
		return
	}

	s.renderProfile(w, r, http.StatusOK, e, "")
}

// handleProfileSave commits the drafts and returns to view mode.
func (s *Server) handleProfileSave(w http.ResponseWriter, r *http.Request) {
	_, e := s.profileEditor(r)

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	e.EnterEditMode()
	e.SetUsername(r.FormValue("username"))
	e.SetAvatarURL(r.FormValue("avatar_url"))

	if err := e.SaveProfile(r.Context()); err != nil {
		slog.Error("saving profile", "err", err)
		s.renderProfile(w, r, http.StatusInternalServerError, e, "Failed to save the profile.")
		return
	}

	if isHTMX(r) {
		s.renderPartial(w, "profile-card", s.profileData(e, ""))
		return
	}
	http.Redirect(w, r, "/profile", http.StatusSeeOther)
}
