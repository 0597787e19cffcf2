/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"lamassu-dca-go/internal/models"
	"lamassu-dca-go/internal/store"
)

type createClientRequest struct {
	UserId         string            `json:"user_id"`
	WalletId       string            `json:"wallet_id"`
	Username       string            `json:"username"`
	Mode           models.ClientMode `json:"mode"`
	DailyLimitSats int64             `json:"daily_limit_sats"`
}

type updateClientRequest struct {
	WalletId       *string              `json:"wallet_id"`
	Username       *string              `json:"username"`
	Mode           *models.ClientMode   `json:"mode"`
	DailyLimitSats *int64               `json:"daily_limit_sats"`
	Status         *models.ClientStatus `json:"status"`
}

func (s *Service) listClients(w http.ResponseWriter, r *http.Request) {
	clients, err := s.ledger.GetClients(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}

	views := make([]models.ClientWithBalance, 0, len(clients))
	for _, client := range clients {
		balance, err := s.ledger.ComputeBalance(r.Context(), client.Id)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		views = append(views, models.ClientWithBalance{
			DcaClient:        client,
			TotalDeposits:    balance.TotalDeposits,
			TotalPayments:    balance.TotalPayments,
			RemainingBalance: balance.RemainingBalance,
		})
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Service) createClient(w http.ResponseWriter, r *http.Request) {
	var req createClientRequest
	if !decodeBody(w, r, &req) {
		return
	}

	client, err := s.ledger.CreateClient(r.Context(), store.CreateClientParams{
		UserId:         req.UserId,
		WalletId:       req.WalletId,
		Username:       req.Username,
		Mode:           req.Mode,
		DailyLimitSats: req.DailyLimitSats,
	})
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, client)
}

func (s *Service) getClient(w http.ResponseWriter, r *http.Request) {
	client, err := s.ledger.GetClient(r.Context(), chi.URLParam(r, "clientId"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	balance, err := s.ledger.ComputeBalance(r.Context(), client.Id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.ClientWithBalance{
		DcaClient:        *client,
		TotalDeposits:    balance.TotalDeposits,
		TotalPayments:    balance.TotalPayments,
		RemainingBalance: balance.RemainingBalance,
	})
}

// updateClient applies a partial update; absent fields keep their value.
func (s *Service) updateClient(w http.ResponseWriter, r *http.Request) {
	var req updateClientRequest
	if !decodeBody(w, r, &req) {
		return
	}

	client, err := s.ledger.GetClient(r.Context(), chi.URLParam(r, "clientId"))
	if err != nil {
		writeStoreError(w, err)
		return
	}

	if req.WalletId != nil {
		client.WalletId = *req.WalletId
	}
	if req.Username != nil {
		client.Username = *req.Username
	}
	if req.Mode != nil {
		client.Mode = *req.Mode
	}
	if req.DailyLimitSats != nil {
		client.DailyLimitSats = *req.DailyLimitSats
	}
	if req.Status != nil {
		client.Status = *req.Status
	}

	if err := s.ledger.UpdateClient(r.Context(), client); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, client)
}

func (s *Service) listClientDeposits(w http.ResponseWriter, r *http.Request) {
	clientId := chi.URLParam(r, "clientId")
	if _, err := s.ledger.GetClient(r.Context(), clientId); err != nil {
		writeStoreError(w, err)
		return
	}
	deposits, err := s.ledger.GetDeposits(r.Context(), clientId)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, deposits)
}
