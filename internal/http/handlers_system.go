package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"conti/internal/core"
	applog "conti/internal/log"
)

// GET /healthz
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"anomalies": len(s.household.Store().Anomalies()),
	})
}

// GET /readyz
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Not ready", applog.FieldError, err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

type userRequest struct {
	User string `json:"user"`
}

// PUT /api/preferences/user
func (s *Server) handleSetCurrentUser(w http.ResponseWriter, r *http.Request) {
	var in userRequest
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	p, err := s.household.Names().Parse(in.User)
	if err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}
	err = s.household.SetCurrentUser(r.Context(), p)
	writeResult(w, r, http.StatusOK, map[string]string{"user": s.household.Names().Name(p)}, err)
}

type themeRequest struct {
	Theme core.Theme `json:"theme"`
}

// PUT /api/preferences/theme
func (s *Server) handleSetTheme(w http.ResponseWriter, r *http.Request) {
	var in themeRequest
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	err := s.household.SetTheme(r.Context(), in.Theme)
	writeResult(w, r, http.StatusOK, in, err)
}

// GET /api/export
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	doc := s.household.Export()
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename()))
	if err := doc.Encode(w); err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Export failed",
			applog.FieldOperation, applog.OpExport, applog.FieldError, err)
	}
}

