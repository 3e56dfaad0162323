package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"conti/internal/services"
)

// GET /api/transactions?month=YYYY-MM&q=term
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	month, err := monthQuery(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	term := sanitizeInput(r.URL.Query().Get("q"))
	writeData(w, http.StatusOK, s.household.List(month, term))
}

// POST /api/transactions
func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var in services.TransactionInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	in.Description = sanitizeInput(in.Description)
	t, err := s.household.CreateTransaction(r.Context(), in)
	writeResult(w, r, http.StatusCreated, t, err)
}

type quickRequest struct {
	Text string `json:"text"`
}

// POST /api/transactions/quick
func (s *Server) handleQuickAdd(w http.ResponseWriter, r *http.Request) {
	var in quickRequest
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	t, err := s.household.QuickAdd(r.Context(), sanitizeInput(in.Text))
	writeResult(w, r, http.StatusCreated, t, err)
}

// POST /api/transactions/{id}/pay
func (s *Server) handlePay(w http.ResponseWriter, r *http.Request) {
	s.changeStatus(w, r, s.household.Pay)
}

// POST /api/transactions/{id}/unpay
func (s *Server) handleUnpay(w http.ResponseWriter, r *http.Request) {
	s.changeStatus(w, r, s.household.Unpay)
}

type statusChange func(ctx context.Context, id string) (bool, error)

func (s *Server) changeStatus(w http.ResponseWriter, r *http.Request, change statusChange) {
	id := chi.URLParam(r, "id")
	found, err := change(r.Context(), id)
	if !found && err == nil {
		writeError(w, r, http.StatusNotFound, "transaction not found: "+id)
		return
	}
	t, _ := s.household.Store().Transaction(id)
	writeResult(w, r, http.StatusOK, t, err)
}

// POST /api/transactions/{id}/duplicate
func (s *Server) handleDuplicate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	t, found, err := s.household.Duplicate(r.Context(), id)
	if !found && err == nil {
		writeError(w, r, http.StatusNotFound, "transaction not found: "+id)
		return
	}
	writeResult(w, r, http.StatusCreated, t, err)
}

// DELETE /api/transactions/{id}
//
// Deleting an unknown id succeeds, so retries are harmless.
func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	_, err := s.household.Delete(r.Context(), id)
	if err == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeResult(w, r, http.StatusOK, map[string]string{"id": id}, err)
}
