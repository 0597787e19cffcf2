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

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"lamassu-dca-go/internal/models"
	"lamassu-dca-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SaveRemoteConfig stores a new active configuration, deactivating any
// previous one so at most one row is active. Saving is append-only: poll
// timestamps start fresh on the new row.
func (s *Service) SaveRemoteConfig(ctx context.Context, cfg *models.RemoteConfig) (*models.RemoteConfig, error) {
	if cfg.Host == "" || cfg.Port <= 0 || cfg.DatabaseName == "" || cfg.Username == "" {
		return nil, fmt.Errorf("host, port, database_name and username are required")
	}
	if cfg.UseSSHTunnel {
		if cfg.SSHHost == "" || cfg.SSHUsername == "" {
			return nil, fmt.Errorf("ssh_host and ssh_username are required when the tunnel is enabled")
		}
		if cfg.SSHPassword == "" && cfg.SSHPrivateKey == "" {
			return nil, fmt.Errorf("ssh tunnel requires a private key or a password")
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, queryDeactivateConfigs); err != nil {
		return nil, fmt.Errorf("failed to deactivate previous config: %w", err)
	}

	configId := uuid.New().String()
	sshPort := cfg.SSHPort
	if sshPort == 0 {
		sshPort = 22
	}
	_, err = tx.ExecContext(ctx, queryInsertConfig,
		configId, cfg.Host, cfg.Port, cfg.DatabaseName, cfg.Username, cfg.Password,
		cfg.UseSSHTunnel, cfg.SSHHost, sshPort, cfg.SSHUsername, cfg.SSHPassword, cfg.SSHPrivateKey,
		cfg.SourceWalletId, cfg.CommissionWalletId)
	if err != nil {
		return nil, fmt.Errorf("failed to insert config: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit config: %w", err)
	}

	zap.L().Info("Remote configuration saved",
		zap.String("config_id", configId),
		zap.String("host", cfg.Host),
		zap.Bool("use_ssh_tunnel", cfg.UseSSHTunnel))

	return s.GetActiveRemoteConfig(ctx)
}

func (s *Service) GetActiveRemoteConfig(ctx context.Context) (*models.RemoteConfig, error) {
	var cfg models.RemoteConfig
	var lastPoll, lastSuccess, lastTest sql.NullTime
	err := s.db.QueryRowContext(ctx, queryGetActiveConfig).Scan(
		&cfg.Id, &cfg.Host, &cfg.Port, &cfg.DatabaseName, &cfg.Username, &cfg.Password,
		&cfg.UseSSHTunnel, &cfg.SSHHost, &cfg.SSHPort,
		&cfg.SSHUsername, &cfg.SSHPassword, &cfg.SSHPrivateKey,
		&cfg.SourceWalletId, &cfg.CommissionWalletId,
		&lastPoll, &lastSuccess, &cfg.LastTestOk, &cfg.LastTestDetail,
		&lastTest, &cfg.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan config: %w", err)
	}

	if lastPoll.Valid {
		cfg.LastPollTime = &lastPoll.Time
	}
	if lastSuccess.Valid {
		cfg.LastSuccessfulPoll = &lastSuccess.Time
	}
	if lastTest.Valid {
		cfg.LastTestTime = &lastTest.Time
	}
	return &cfg, nil
}

func (s *Service) UpdatePollStart(ctx context.Context, configId string, at time.Time) error {
	return s.execConfigUpdate(ctx, queryUpdatePollStart, at.UTC(), configId)
}

func (s *Service) UpdatePollSuccess(ctx context.Context, configId string, at time.Time) error {
	return s.execConfigUpdate(ctx, queryUpdatePollSuccess, at.UTC(), configId)
}

func (s *Service) UpdateTestResult(ctx context.Context, configId string, ok bool, detail string) error {
	return s.execConfigUpdate(ctx, queryUpdateTestResult, ok, detail, configId)
}

func (s *Service) execConfigUpdate(ctx context.Context, query string, args ...any) error {
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update config: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return store.ErrNotFound
	}
	return nil
}
