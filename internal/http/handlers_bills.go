package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"conti/internal/core"
	"conti/internal/services"
)

// GET /api/fixed-bills
func (s *Server) handleListFixedBills(w http.ResponseWriter, r *http.Request) {
	bills := s.household.Store().Snapshot().FixedBills
	if bills == nil {
		bills = []core.FixedBill{}
	}
	writeData(w, http.StatusOK, bills)
}

// POST /api/fixed-bills
func (s *Server) handleAddFixedBill(w http.ResponseWriter, r *http.Request) {
	var in services.FixedBillInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	in.Description = sanitizeInput(in.Description)
	f, err := s.household.AddFixedBill(r.Context(), in)
	writeResult(w, r, http.StatusCreated, f, err)
}

// DELETE /api/fixed-bills/{id}
func (s *Server) handleRemoveFixedBill(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	_, err := s.household.RemoveFixedBill(r.Context(), id)
	if err == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeResult(w, r, http.StatusOK, map[string]string{"id": id}, err)
}

// GET /api/fixed-bills/due
func (s *Server) handleDueFixedBills(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, s.household.DueFixedBills())
}

// GET /api/bills/pending
func (s *Server) handlePendingBills(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, s.household.PendingBills())
}
