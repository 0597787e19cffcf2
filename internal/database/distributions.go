package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"lamassu-dca-go/internal/models"
	"lamassu-dca-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ComputeBalance derives a client's balance inside one database transaction so
// it never observes a half-applied distribution.
func (s *Service) ComputeBalance(ctx context.Context, clientId string) (*models.ClientBalance, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	balance, err := computeBalanceTx(ctx, tx, clientId)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit balance read: %w", err)
	}
	return balance, nil
}

func computeBalanceTx(ctx context.Context, tx *sql.Tx, clientId string) (*models.ClientBalance, error) {
	var totalDeposits, totalPayments int64
	if err := tx.QueryRowContext(ctx, querySumConfirmedDeposits, clientId).Scan(&totalDeposits); err != nil {
		return nil, fmt.Errorf("failed to sum deposits: %w", err)
	}
	if err := tx.QueryRowContext(ctx, querySumChargedDistributions, clientId).Scan(&totalPayments); err != nil {
		return nil, fmt.Errorf("failed to sum distributions: %w", err)
	}
	return &models.ClientBalance{
		ClientId:         clientId,
		TotalDeposits:    totalDeposits,
		TotalPayments:    totalPayments,
		RemainingBalance: totalDeposits - totalPayments,
	}, nil
}

// SatsDistributedToday sums pending+confirmed sats sent to a client since the
// start of the current UTC day, for fixed-mode daily limits.
func (s *Service) SatsDistributedToday(ctx context.Context, clientId string, now time.Time) (int64, error) {
	dayStart := now.UTC().Truncate(24 * time.Hour)
	var total int64
	err := s.db.QueryRowContext(ctx, querySumSatsDistributedSince, clientId, dayStart).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum sats distributed today: %w", err)
	}
	return total, nil
}

// ReserveAndRecordDistribution atomically re-checks the client's remaining
// balance and inserts the pending distribution row in one unit of work. This
// is the sole write path that can decrease a remaining balance, which closes
// the race between overlapping polls allocating to the same client.
func (s *Service) ReserveAndRecordDistribution(ctx context.Context, params store.ReserveDistributionParams) (*models.Distribution, error) {
	if params.AmountSats <= 0 || params.AmountFiat < 0 {
		return nil, fmt.Errorf("%w: invalid distribution amounts", store.ErrInvalidState)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	balance, err := computeBalanceTx(ctx, tx, params.ClientId)
	if err != nil {
		return nil, err
	}
	if params.AmountFiat > balance.RemainingBalance {
		return nil, fmt.Errorf("%w: charge %d exceeds remaining balance %d for client %s",
			store.ErrInsufficientBalance, params.AmountFiat, balance.RemainingBalance, params.ClientId)
	}

	distributionId := uuid.New().String()
	now := time.Now().UTC()
	_, err = tx.ExecContext(ctx, queryInsertDistribution,
		distributionId, params.ExternalId, params.ClientId,
		params.AmountSats, params.AmountFiat, params.ExchangeRate.String(), now)
	if err != nil {
		return nil, fmt.Errorf("failed to insert distribution: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit distribution: %w", err)
	}

	zap.L().Info("Distribution reserved",
		zap.String("distribution_id", distributionId),
		zap.String("client_id", params.ClientId),
		zap.String("external_id", params.ExternalId),
		zap.Int64("amount_sats", params.AmountSats),
		zap.Int64("amount_fiat", params.AmountFiat))

	return &models.Distribution{
		Id:           distributionId,
		ExternalId:   params.ExternalId,
		ClientId:     params.ClientId,
		AmountSats:   params.AmountSats,
		AmountFiat:   params.AmountFiat,
		ExchangeRate: params.ExchangeRate,
		Status:       models.DistributionPending,
		CreatedAt:    now,
	}, nil
}

func (s *Service) UpdateDistributionStatus(ctx context.Context, distributionId string, status models.DistributionStatus, detail string) error {
	result, err := s.db.ExecContext(ctx, queryUpdateDistributionStatus, string(status), detail, distributionId)
	if err != nil {
		return fmt.Errorf("failed to update distribution status: %w", err)
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

func (s *Service) GetDistributionsByTransaction(ctx context.Context, externalId string) ([]models.Distribution, error) {
	rows, err := s.db.QueryContext(ctx, queryGetDistributionsByTransaction, externalId)
	if err != nil {
		return nil, fmt.Errorf("failed to query distributions: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var distributions []models.Distribution
	for rows.Next() {
		var d models.Distribution
		var status, rateStr string
		if err := rows.Scan(&d.Id, &d.ExternalId, &d.ClientId, &d.AmountSats, &d.AmountFiat,
			&rateStr, &status, &d.Detail, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan distribution: %w", err)
		}
		d.Status = models.DistributionStatus(status)
		d.ExchangeRate, err = decimal.NewFromString(rateStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse exchange rate %q: %w", rateStr, err)
		}
		distributions = append(distributions, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating distribution rows: %w", err)
	}
	return distributions, nil
}
