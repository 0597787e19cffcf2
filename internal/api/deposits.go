package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"lamassu-dca-go/internal/store"
)

type createDepositRequest struct {
	ClientId string `json:"client_id"`
	Amount   int64  `json:"amount"` // integer minor units
	Currency string `json:"currency"`
	Notes    string `json:"notes"`
}

type updateDepositRequest struct {
	Amount   *int64  `json:"amount"`
	Currency *string `json:"currency"`
	Notes    *string `json:"notes"`
}

func (s *Service) listDeposits(w http.ResponseWriter, r *http.Request) {
	deposits, err := s.ledger.GetDeposits(r.Context(), r.URL.Query().Get("client_id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, deposits)
}

func (s *Service) createDeposit(w http.ResponseWriter, r *http.Request) {
	var req createDepositRequest
	if !decodeBody(w, r, &req) {
		return
	}

	deposit, err := s.ledger.CreateDeposit(r.Context(), store.CreateDepositParams{
		ClientId: req.ClientId,
		Amount:   req.Amount,
		Currency: req.Currency,
		Notes:    req.Notes,
	})
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, deposit)
}

func (s *Service) getDeposit(w http.ResponseWriter, r *http.Request) {
	deposit, err := s.ledger.GetDeposit(r.Context(), chi.URLParam(r, "depositId"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, deposit)
}

// updateDeposit edits a pending deposit; confirmed deposits are immutable.
func (s *Service) updateDeposit(w http.ResponseWriter, r *http.Request) {
	var req updateDepositRequest
	if !decodeBody(w, r, &req) {
		return
	}

	deposit, err := s.ledger.GetDeposit(r.Context(), chi.URLParam(r, "depositId"))
	if err != nil {
		writeStoreError(w, err)
		return
	}

	if req.Amount != nil {
		deposit.Amount = *req.Amount
	}
	if req.Currency != nil {
		deposit.Currency = *req.Currency
	}
	if req.Notes != nil {
		deposit.Notes = *req.Notes
	}

	if err := s.ledger.UpdateDeposit(r.Context(), deposit); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, deposit)
}

func (s *Service) confirmDeposit(w http.ResponseWriter, r *http.Request) {
	deposit, err := s.ledger.ConfirmDeposit(r.Context(), chi.URLParam(r, "depositId"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, deposit)
}
