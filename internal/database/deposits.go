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

func (s *Service) CreateDeposit(ctx context.Context, params store.CreateDepositParams) (*models.Deposit, error) {
	if params.Amount <= 0 {
		return nil, fmt.Errorf("%w: deposit amount must be positive", store.ErrInvalidState)
	}
	if params.Currency == "" {
		return nil, fmt.Errorf("currency is required")
	}
	if _, err := s.GetClient(ctx, params.ClientId); err != nil {
		return nil, err
	}

	depositId := uuid.New().String()
	_, err := s.db.ExecContext(ctx, queryInsertDeposit,
		depositId, params.ClientId, params.Amount, params.Currency, params.Notes)
	if err != nil {
		return nil, fmt.Errorf("failed to insert deposit: %w", err)
	}

	zap.L().Info("Deposit recorded",
		zap.String("deposit_id", depositId),
		zap.String("client_id", params.ClientId),
		zap.Int64("amount", params.Amount),
		zap.String("currency", params.Currency))

	return s.GetDeposit(ctx, depositId)
}

// UpdateDeposit edits a pending deposit. Confirmed deposits are immutable.
func (s *Service) UpdateDeposit(ctx context.Context, deposit *models.Deposit) error {
	if deposit.Amount <= 0 {
		return fmt.Errorf("%w: deposit amount must be positive", store.ErrInvalidState)
	}

	result, err := s.db.ExecContext(ctx, queryUpdateDeposit,
		deposit.Amount, deposit.Currency, deposit.Notes, deposit.Id)
	if err != nil {
		return fmt.Errorf("failed to update deposit: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		existing, err := s.GetDeposit(ctx, deposit.Id)
		if err != nil {
			return err
		}
		if existing.Status == models.DepositConfirmed {
			return fmt.Errorf("%w: deposit %s is already confirmed", store.ErrInvalidState, deposit.Id)
		}
		return store.ErrNotFound
	}
	return nil
}

func (s *Service) GetDeposit(ctx context.Context, depositId string) (*models.Deposit, error) {
	var d models.Deposit
	var status string
	err := s.db.QueryRowContext(ctx, queryGetDeposit, depositId).
		Scan(&d.Id, &d.ClientId, &d.Amount, &d.Currency, &status, &d.Notes, &d.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan deposit: %w", err)
	}
	d.Status = models.DepositStatus(status)
	return &d, nil
}

// GetDeposits lists deposits, optionally filtered by client.
func (s *Service) GetDeposits(ctx context.Context, clientId string) ([]models.Deposit, error) {
	var rows *sql.Rows
	var err error
	if clientId == "" {
		rows, err = s.db.QueryContext(ctx, queryGetAllDeposits)
	} else {
		rows, err = s.db.QueryContext(ctx, queryGetDepositsByClient, clientId)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query deposits: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var deposits []models.Deposit
	for rows.Next() {
		var d models.Deposit
		var status string
		if err := rows.Scan(&d.Id, &d.ClientId, &d.Amount, &d.Currency, &status, &d.Notes, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan deposit: %w", err)
		}
		d.Status = models.DepositStatus(status)
		deposits = append(deposits, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating deposit rows: %w", err)
	}
	return deposits, nil
}

// ConfirmDeposit transitions a deposit pending -> confirmed exactly once.
// A second confirmation attempt fails with ErrInvalidState and mutates nothing.
func (s *Service) ConfirmDeposit(ctx context.Context, depositId string) (*models.Deposit, error) {
	result, err := s.db.ExecContext(ctx, queryConfirmDeposit, depositId)
	if err != nil {
		return nil, fmt.Errorf("failed to confirm deposit: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		existing, err := s.GetDeposit(ctx, depositId)
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: deposit %s is already %s", store.ErrInvalidState, depositId, existing.Status)
	}

	zap.L().Info("Deposit confirmed", zap.String("deposit_id", depositId))
	return s.GetDeposit(ctx, depositId)
}
