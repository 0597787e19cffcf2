package api

import (
	"errors"
	"net/http"

	"github.com/shopspring/decimal"

	"lamassu-dca-go/internal/models"
	"lamassu-dca-go/internal/poller"
	"lamassu-dca-go/internal/store"
)

type testTransactionRequest struct {
	FiatAmount    int64           `json:"fiat_amount"`
	CryptoAmount  int64           `json:"crypto_amount"`
	CommissionPct decimal.Decimal `json:"commission_pct"`
	DiscountPct   decimal.Decimal `json:"discount_pct"`
	CryptoCode    string          `json:"crypto_code"`
	FiatCode      string          `json:"fiat_code"`
}

// triggerPoll runs a poll cycle now. A poll already in progress is not an
// error; the caller is told and nothing is queued.
func (s *Service) triggerPoll(w http.ResponseWriter, r *http.Request) {
	result, err := s.poller.Poll(r.Context())
	if err != nil {
		if errors.Is(err, poller.ErrAlreadyPolling) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "already_polling"})
			return
		}
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Service) testConnection(w http.ResponseWriter, r *http.Request) {
	detail, err := s.poller.TestConnection(r.Context())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeJSON(w, http.StatusBadGateway, map[string]any{"ok": false, "detail": detail})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "detail": detail})
}

// testTransaction pushes a synthetic transaction through the same pipeline
// real polled transactions take, payments included.
func (s *Service) testTransaction(w http.ResponseWriter, r *http.Request) {
	var req testTransactionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ptx, err := s.poller.RunTestTransaction(r.Context(), models.RemoteTransaction{
		FiatAmount:    req.FiatAmount,
		CryptoAmount:  req.CryptoAmount,
		CommissionPct: req.CommissionPct,
		DiscountPct:   req.DiscountPct,
		CryptoCode:    req.CryptoCode,
		FiatCode:      req.FiatCode,
	})
	if err != nil {
		if errors.Is(err, poller.ErrAlreadyPolling) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ptx)
}
