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

	"lamassu-dca-go/internal/models"
	"lamassu-dca-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func validateClientFields(mode models.ClientMode, dailyLimitSats int64) error {
	switch mode {
	case models.ModeFixed:
		if dailyLimitSats <= 0 {
			return fmt.Errorf("%w: fixed mode requires a positive daily limit", store.ErrInvalidState)
		}
	case models.ModeProportional:
		if dailyLimitSats != 0 {
			return fmt.Errorf("%w: daily limit is only valid in fixed mode", store.ErrInvalidState)
		}
	default:
		return fmt.Errorf("%w: unknown client mode %q", store.ErrInvalidState, mode)
	}
	return nil
}

func (s *Service) CreateClient(ctx context.Context, params store.CreateClientParams) (*models.DcaClient, error) {
	if params.UserId == "" || params.WalletId == "" {
		return nil, fmt.Errorf("user_id and wallet_id are required")
	}
	if err := validateClientFields(params.Mode, params.DailyLimitSats); err != nil {
		return nil, err
	}

	clientId := uuid.New().String()
	_, err := s.db.ExecContext(ctx, queryInsertClient,
		clientId, params.UserId, params.WalletId, params.Username,
		string(params.Mode), params.DailyLimitSats, string(models.ClientActive))
	if err != nil {
		return nil, fmt.Errorf("failed to insert client: %w", err)
	}

	zap.L().Info("DCA client registered",
		zap.String("client_id", clientId),
		zap.String("user_id", params.UserId),
		zap.String("mode", string(params.Mode)))

	return s.GetClient(ctx, clientId)
}

func (s *Service) UpdateClient(ctx context.Context, client *models.DcaClient) error {
	if err := validateClientFields(client.Mode, client.DailyLimitSats); err != nil {
		return err
	}
	if client.Status != models.ClientActive && client.Status != models.ClientInactive {
		return fmt.Errorf("%w: unknown client status %q", store.ErrInvalidState, client.Status)
	}

	result, err := s.db.ExecContext(ctx, queryUpdateClient,
		client.WalletId, client.Username, string(client.Mode),
		client.DailyLimitSats, string(client.Status), client.Id)
	if err != nil {
		return fmt.Errorf("failed to update client: %w", err)
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

func (s *Service) GetClient(ctx context.Context, clientId string) (*models.DcaClient, error) {
	return s.scanClient(s.db.QueryRowContext(ctx, queryGetClient, clientId))
}

func (s *Service) GetClientByUserId(ctx context.Context, userId string) (*models.DcaClient, error) {
	return s.scanClient(s.db.QueryRowContext(ctx, queryGetClientByUserId, userId))
}

func (s *Service) scanClient(row *sql.Row) (*models.DcaClient, error) {
	var c models.DcaClient
	var mode, status string
	err := row.Scan(&c.Id, &c.UserId, &c.WalletId, &c.Username, &mode,
		&c.DailyLimitSats, &status, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan client: %w", err)
	}
	c.Mode = models.ClientMode(mode)
	c.Status = models.ClientStatus(status)
	return &c, nil
}

func (s *Service) GetClients(ctx context.Context) ([]models.DcaClient, error) {
	return s.queryClients(ctx, queryGetClients)
}

func (s *Service) GetActiveClients(ctx context.Context) ([]models.DcaClient, error) {
	return s.queryClients(ctx, queryGetActiveClients)
}

func (s *Service) queryClients(ctx context.Context, query string) ([]models.DcaClient, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query clients: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var clients []models.DcaClient
	for rows.Next() {
		var c models.DcaClient
		var mode, status string
		if err := rows.Scan(&c.Id, &c.UserId, &c.WalletId, &c.Username, &mode,
			&c.DailyLimitSats, &status, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		c.Mode = models.ClientMode(mode)
		c.Status = models.ClientStatus(status)
		clients = append(clients, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating client rows: %w", err)
	}
	return clients, nil
}
