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
	"errors"
	"net/http"

	"lamassu-dca-go/internal/models"
	"lamassu-dca-go/internal/store"
)

type saveConfigRequest struct {
	Host               string `json:"host"`
	Port               int    `json:"port"`
	DatabaseName       string `json:"database_name"`
	Username           string `json:"username"`
	Password           string `json:"password"`
	UseSSHTunnel       bool   `json:"use_ssh_tunnel"`
	SSHHost            string `json:"ssh_host"`
	SSHPort            int    `json:"ssh_port"`
	SSHUsername        string `json:"ssh_username"`
	SSHPassword        string `json:"ssh_password"`
	SSHPrivateKey      string `json:"ssh_private_key"`
	SourceWalletId     string `json:"source_wallet_id"`
	CommissionWalletId string `json:"commission_wallet_id"`
}

func (s *Service) getRemoteConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.ledger.GetActiveRemoteConfig(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg.View())
}

// saveRemoteConfig replaces the active configuration. Credentials are
// write-only: they are accepted here, never returned, and an empty
// credential field keeps the previously stored value so operators can edit
// connection settings without re-entering secrets.
func (s *Service) saveRemoteConfig(w http.ResponseWriter, r *http.Request) {
	var req saveConfigRequest
	if !decodeBody(w, r, &req) {
		return
	}

	cfg := &models.RemoteConfig{
		Host:               req.Host,
		Port:               req.Port,
		DatabaseName:       req.DatabaseName,
		Username:           req.Username,
		Password:           req.Password,
		UseSSHTunnel:       req.UseSSHTunnel,
		SSHHost:            req.SSHHost,
		SSHPort:            req.SSHPort,
		SSHUsername:        req.SSHUsername,
		SSHPassword:        req.SSHPassword,
		SSHPrivateKey:      req.SSHPrivateKey,
		SourceWalletId:     req.SourceWalletId,
		CommissionWalletId: req.CommissionWalletId,
	}

	existing, err := s.ledger.GetActiveRemoteConfig(r.Context())
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		writeStoreError(w, err)
		return
	}
	if existing != nil {
		if cfg.Password == "" {
			cfg.Password = existing.Password
		}
		if cfg.SSHPassword == "" {
			cfg.SSHPassword = existing.SSHPassword
		}
		if cfg.SSHPrivateKey == "" {
			cfg.SSHPrivateKey = existing.SSHPrivateKey
		}
	}

	saved, err := s.ledger.SaveRemoteConfig(r.Context(), cfg)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, saved.View())
}
