package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"lamassu-dca-go/internal/models"
	"lamassu-dca-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RecordProcessedTransaction claims the external id and stores the economics.
// The UNIQUE index on external_id makes this the idempotency barrier: a second
// attempt for the same external id fails with ErrDuplicateTransaction.
func (s *Service) RecordProcessedTransaction(ctx context.Context, ptx *models.ProcessedTransaction) error {
	var existingId string
	err := s.db.QueryRowContext(ctx, queryCheckTransactionProcessed, ptx.ExternalId).Scan(&existingId)
	if err == nil {
		zap.L().Warn("Duplicate external transaction id detected, skipping",
			zap.String("external_id", ptx.ExternalId),
			zap.String("existing_id", existingId))
		return fmt.Errorf("%w: external_id %s already processed", store.ErrDuplicateTransaction, ptx.ExternalId)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to check for processed transaction: %w", err)
	}

	if ptx.Id == "" {
		ptx.Id = uuid.New().String()
	}
	_, err = s.db.ExecContext(ctx, queryInsertProcessedTransaction,
		ptx.Id, ptx.ExternalId, ptx.FiatAmount, ptx.CryptoAmount,
		ptx.CommissionPct.String(), ptx.DiscountPct.String(), ptx.EffectiveCommission.String(),
		ptx.CommissionSats, ptx.BaseSats, ptx.ExchangeRate.String(),
		ptx.CryptoCode, ptx.FiatCode, ptx.DeviceId, ptx.TransactionTime, ptx.ProcessedAt)
	if err != nil {
		return fmt.Errorf("failed to insert processed transaction: %w", err)
	}

	zap.L().Info("Remote transaction recorded",
		zap.String("external_id", ptx.ExternalId),
		zap.Int64("crypto_amount", ptx.CryptoAmount),
		zap.Int64("commission_sats", ptx.CommissionSats),
		zap.Int64("base_sats", ptx.BaseSats))
	return nil
}

func (s *Service) UpdateDistributionStats(ctx context.Context, externalId string, clientsCount int, totalSats int64) error {
	result, err := s.db.ExecContext(ctx, queryUpdateDistributionStats, clientsCount, totalSats, externalId)
	if err != nil {
		return fmt.Errorf("failed to update distribution stats: %w", err)
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

func (s *Service) IsTransactionProcessed(ctx context.Context, externalId string) (bool, error) {
	var id string
	err := s.db.QueryRowContext(ctx, queryCheckTransactionProcessed, externalId).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check processed transaction: %w", err)
	}
	return true, nil
}

func (s *Service) GetProcessedTransactions(ctx context.Context, limit, offset int) ([]models.ProcessedTransaction, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, queryGetProcessedTransactions, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query processed transactions: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var transactions []models.ProcessedTransaction
	for rows.Next() {
		ptx, err := scanProcessedTransaction(rows.Scan)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, *ptx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction rows: %w", err)
	}
	return transactions, nil
}

func (s *Service) GetProcessedTransaction(ctx context.Context, externalId string) (*models.ProcessedTransaction, error) {
	row := s.db.QueryRowContext(ctx, queryGetProcessedTransaction, externalId)
	ptx, err := scanProcessedTransaction(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return ptx, nil
}

func scanProcessedTransaction(scan func(dest ...any) error) (*models.ProcessedTransaction, error) {
	var ptx models.ProcessedTransaction
	var commissionPct, discountPct, effective, rate string
	err := scan(&ptx.Id, &ptx.ExternalId, &ptx.FiatAmount, &ptx.CryptoAmount,
		&commissionPct, &discountPct, &effective, &ptx.CommissionSats, &ptx.BaseSats, &rate,
		&ptx.DistributionsTotalSats, &ptx.ClientsCount,
		&ptx.CryptoCode, &ptx.FiatCode, &ptx.DeviceId,
		&ptx.TransactionTime, &ptx.ProcessedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan processed transaction: %w", err)
	}

	for _, f := range []struct {
		dst *decimal.Decimal
		src string
	}{
		{&ptx.CommissionPct, commissionPct},
		{&ptx.DiscountPct, discountPct},
		{&ptx.EffectiveCommission, effective},
		{&ptx.ExchangeRate, rate},
	} {
		v, err := decimal.NewFromString(f.src)
		if err != nil {
			return nil, fmt.Errorf("failed to parse decimal %q: %w", f.src, err)
		}
		*f.dst = v
	}
	return &ptx, nil
}
