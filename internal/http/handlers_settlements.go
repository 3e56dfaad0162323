package http

import (
	"net/http"

	"conti/internal/core"
)

// GET /api/settlements/{month}
func (s *Server) handlePreviewSettlement(w http.ResponseWriter, r *http.Request) {
	month, err := monthParam(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	writeData(w, http.StatusOK, s.household.PreviewSettlement(month))
}

// POST /api/settlements/{month}
func (s *Server) handleConfirmSettlement(w http.ResponseWriter, r *http.Request) {
	month, err := monthParam(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	rec, err := s.household.ConfirmSettlement(r.Context(), month)
	writeResult(w, r, http.StatusCreated, rec, err)
}

// GET /api/settlements
func (s *Server) handleSettlementHistory(w http.ResponseWriter, r *http.Request) {
	all := s.household.Settlements()
	if all == nil {
		all = []core.Settlement{}
	}
	writeData(w, http.StatusOK, all)
}
