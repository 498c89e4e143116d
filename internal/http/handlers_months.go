package http

import (
	"net/http"

	"budgify/internal/core"
)

func (s *Server) handleListMonths(w http.ResponseWriter, r *http.Request) {
	months, err := s.svc.ListMonths(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if months == nil {
		months = []core.Month{}
	}
	NewJSONResponse().Field("months", months).Write(w)
}

// handleCreateMonth opens a month. The body is optional; without a key the
// current month is created.
func (s *Server) handleCreateMonth(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Key any `json:"key"`
	}
	if err := NewRequestBodyParser(w, r).Decode(&body, true); err != nil {
		writeError(w, r, err)
		return
	}
	key, err := stringValue("key", body.Key)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if key != "" {
		if _, err := core.ParseMonthKey(key); err != nil {
			writeError(w, r, err)
			return
		}
	}

	view, err := s.svc.CreateMonth(r.Context(), userID(r), key)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.recordMutation()
	NewJSONResponse().Status(http.StatusCreated).Body(view).Write(w)
}

func (s *Server) handleGetMonth(w http.ResponseWriter, r *http.Request) {
	view, err := s.svc.GetMonth(r.Context(), userID(r), r.PathValue("key"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(view).Write(w)
}

func (s *Server) handleMonthSummary(w http.ResponseWriter, r *http.Request) {
	view, err := s.svc.GetMonth(r.Context(), userID(r), r.PathValue("key"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(map[string]any{
		"key":     view.Month.Key,
		"summary": view.Summary,
		"history": view.History,
	}).Write(w)
}

// handleReplaceMonth stores the body as the full content of the month. The
// month may be sent bare or wrapped as {"month": {...}}.
func (s *Server) handleReplaceMonth(w http.ResponseWriter, r *http.Request) {
	raw, err := NewRequestBodyParser(w, r).Object()
	if err != nil {
		writeError(w, r, err)
		return
	}
	if inner, ok := raw["month"].(map[string]any); ok && len(raw) == 1 {
		raw = inner
	}

	view, err := s.svc.ReplaceMonth(r.Context(), userID(r), r.PathValue("key"), raw)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.recordMutation()
	NewJSONResponse().Body(view).Write(w)
}

func (s *Server) handleDeleteMonth(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if _, err := core.ParseMonthKey(key); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.svc.DeleteMonth(r.Context(), userID(r), key); err != nil {
		writeError(w, r, err)
		return
	}
	s.recordMutation()
	NoContent().Write(w)
}

// handleDuplicateMonth copies the month into {"to"}, or into the next month
// when the body is empty.
func (s *Server) handleDuplicateMonth(w http.ResponseWriter, r *http.Request) {
	var body struct {
		To any `json:"to"`
	}
	if err := NewRequestBodyParser(w, r).Decode(&body, true); err != nil {
		writeError(w, r, err)
		return
	}
	to, err := stringValue("to", body.To)
	if err != nil {
		writeError(w, r, err)
		return
	}

	view, err := s.svc.DuplicateMonth(r.Context(), userID(r), r.PathValue("key"), to)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.recordMutation()
	NewJSONResponse().Status(http.StatusCreated).Body(view).Write(w)
}

func (s *Server) handleSetCarryOver(w http.ResponseWriter, r *http.Request) {
	raw, err := NewRequestBodyParser(w, r).Object()
	if err != nil {
		writeError(w, r, err)
		return
	}
	value, ok := raw["carryOver"]
	if !ok {
		writeError(w, r, &core.ValidationError{Field: "carryOver", Reason: "is required"})
		return
	}

	view, err := s.svc.SetCarryOver(r.Context(), userID(r), r.PathValue("key"), value)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.recordMutation()
	NewJSONResponse().Body(view).Write(w)
}
