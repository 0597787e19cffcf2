package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

func (s *Service) listTransactions(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	transactions, err := s.ledger.GetProcessedTransactions(r.Context(), limit, offset)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, transactions)
}

func (s *Service) getTransaction(w http.ResponseWriter, r *http.Request) {
	transaction, err := s.ledger.GetProcessedTransaction(r.Context(), chi.URLParam(r, "externalId"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, transaction)
}

func (s *Service) listDistributions(w http.ResponseWriter, r *http.Request) {
	externalId := chi.URLParam(r, "externalId")
	if _, err := s.ledger.GetProcessedTransaction(r.Context(), externalId); err != nil {
		writeStoreError(w, err)
		return
	}
	distributions, err := s.ledger.GetDistributionsByTransaction(r.Context(), externalId)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, distributions)
}
