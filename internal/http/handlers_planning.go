package http

import (
	"net/http"

	"brankas/internal/core"
)

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := s.svc.Planning.Goals(r.Context(), userID(r.Context()))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, goals)
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	var g core.Goal
	if err := decodeJSON(w, r, &g); err != nil {
		s.fail(w, r, err)
		return
	}
	g.Name = sanitizeInput(g.Name)
	g.Description = sanitizeInput(g.Description)
	saved, err := s.svc.Planning.CreateGoal(r.Context(), userID(r.Context()), g)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var g core.Goal
	if err := decodeJSON(w, r, &g); err != nil {
		s.fail(w, r, err)
		return
	}
	g.Name = sanitizeInput(g.Name)
	g.Description = sanitizeInput(g.Description)
	saved, err := s.svc.Planning.UpdateGoal(r.Context(), userID(r.Context()), id, g)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.svc.Planning.DeleteGoal(r.Context(), userID(r.Context()), id); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListDebts(w http.ResponseWriter, r *http.Request) {
	debts, err := s.svc.Planning.Debts(r.Context(), userID(r.Context()))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, debts)
}

func (s *Server) handleCreateDebt(w http.ResponseWriter, r *http.Request) {
	var d core.Debt
	if err := decodeJSON(w, r, &d); err != nil {
		s.fail(w, r, err)
		return
	}
	d.Name = sanitizeInput(d.Name)
	d.Description = sanitizeInput(d.Description)
	saved, err := s.svc.Planning.CreateDebt(r.Context(), userID(r.Context()), d)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleUpdateDebt(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var d core.Debt
	if err := decodeJSON(w, r, &d); err != nil {
		s.fail(w, r, err)
		return
	}
	d.Name = sanitizeInput(d.Name)
	d.Description = sanitizeInput(d.Description)
	saved, err := s.svc.Planning.UpdateDebt(r.Context(), userID(r.Context()), id, d)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) handleDeleteDebt(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.svc.Planning.DeleteDebt(r.Context(), userID(r.Context()), id); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
