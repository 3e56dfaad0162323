package http

import (
	"net/http"
	"strings"

	"conti/internal/budget"
	"conti/internal/core"
	"conti/internal/report"
	"conti/internal/services"
)

// GET /api/reports/{month}?user=all|<name>
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	month, err := monthParam(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	filter, err := report.ParseUserFilter(s.household.Names(), r.URL.Query().Get("user"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	writeData(w, http.StatusOK, s.household.Report(month, filter))
}

type budgetStatusResponse struct {
	Month    core.Month      `json:"month"`
	Statuses []budget.Status `json:"statuses"`
	Alerts   []budget.Status `json:"alerts"`
}

// GET /api/budgets/{month}?owner=<name>
func (s *Server) handleBudgetStatus(w http.ResponseWriter, r *http.Request) {
	month, err := monthParam(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	var owner core.Person
	if v := strings.TrimSpace(r.URL.Query().Get("owner")); v != "" {
		if owner, err = s.household.Names().Parse(v); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
	}
	statuses := s.household.BudgetStatus(month, owner)
	writeData(w, http.StatusOK, budgetStatusResponse{Month: month, Statuses: statuses, Alerts: budget.Alerts(statuses)})
}

// PUT /api/budgets
func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	var in services.BudgetInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	b, err := s.household.SetBudget(r.Context(), in)
	writeResult(w, r, http.StatusOK, b, err)
}
