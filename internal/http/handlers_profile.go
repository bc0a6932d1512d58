package http

import (
	"net/http"

	"brankas/internal/core"
	"brankas/internal/services"
)

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.svc.Profiles.Profile(r.Context(), userID(r.Context()))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var in services.ProfileInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.fail(w, r, err)
		return
	}
	for _, field := range []*string{in.FullName, in.Phone, in.Location} {
		if field != nil {
			*field = sanitizeInput(*field)
		}
	}
	p, err := s.svc.Profiles.UpdateProfile(r.Context(), userID(r.Context()), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// handleUploadAvatar replaces the user's avatar image.
func (s *Server) handleUploadAvatar(w http.ResponseWriter, r *http.Request) {
	f, err := formFile(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	defer f.body.Close()

	p, err := s.svc.Profiles.UploadAvatar(r.Context(), userID(r.Context()), f.name, f.contentType, f.body)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	st, err := s.svc.Profiles.Settings(r.Context(), userID(r.Context()))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var in services.SettingsInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.fail(w, r, err)
		return
	}
	st, err := s.svc.Profiles.UpdateSettings(r.Context(), userID(r.Context()), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// handleDashboard returns the page-load view for ?period= (default monthly).
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	p, err := core.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	d, err := s.svc.Dashboard.Get(r.Context(), userID(r.Context()), p)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}
