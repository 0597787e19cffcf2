package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"lamassu-dca-go/internal/models"
	"lamassu-dca-go/internal/store"
)

func sampleProcessedTransaction(externalId string) *models.ProcessedTransaction {
	return &models.ProcessedTransaction{
		ExternalId:          externalId,
		FiatAmount:          50000,
		CryptoAmount:        1000000,
		CommissionPct:       decimal.RequireFromString("0.05"),
		DiscountPct:         decimal.RequireFromString("20"),
		EffectiveCommission: decimal.RequireFromString("0.04"),
		CommissionSats:      40000,
		BaseSats:            960000,
		ExchangeRate:        decimal.RequireFromString("19.2"),
		CryptoCode:          "BTC",
		FiatCode:            "EUR",
		DeviceId:            "atm-1",
		TransactionTime:     time.Now().UTC().Add(-time.Hour),
		ProcessedAt:         time.Now().UTC(),
	}
}

func TestRecordProcessedTransaction_DuplicateExternalId(t *testing.T) {
	service := setupTestService(t)
	ctx := context.Background()

	if err := service.RecordProcessedTransaction(ctx, sampleProcessedTransaction("tx-1")); err != nil {
		t.Fatalf("First RecordProcessedTransaction failed: %v", err)
	}

	err := service.RecordProcessedTransaction(ctx, sampleProcessedTransaction("tx-1"))
	if !errors.Is(err, store.ErrDuplicateTransaction) {
		t.Fatalf("Expected ErrDuplicateTransaction, got %v", err)
	}

	transactions, err := service.GetProcessedTransactions(ctx, 10, 0)
	if err != nil {
		t.Fatalf("GetProcessedTransactions failed: %v", err)
	}
	if len(transactions) != 1 {
		t.Errorf("Expected exactly one recorded transaction, got %d", len(transactions))
	}
}

func TestGetProcessedTransaction_RoundTripsEconomics(t *testing.T) {
	service := setupTestService(t)
	ctx := context.Background()

	original := sampleProcessedTransaction("tx-2")
	if err := service.RecordProcessedTransaction(ctx, original); err != nil {
		t.Fatalf("RecordProcessedTransaction failed: %v", err)
	}

	stored, err := service.GetProcessedTransaction(ctx, "tx-2")
	if err != nil {
		t.Fatalf("GetProcessedTransaction failed: %v", err)
	}
	if stored.CommissionSats != 40000 || stored.BaseSats != 960000 {
		t.Errorf("Sats mismatch: commission %d, base %d", stored.CommissionSats, stored.BaseSats)
	}
	if !stored.EffectiveCommission.Equal(original.EffectiveCommission) {
		t.Errorf("Effective commission mismatch: %s", stored.EffectiveCommission)
	}
	if !stored.ExchangeRate.Equal(original.ExchangeRate) {
		t.Errorf("Exchange rate mismatch: %s", stored.ExchangeRate)
	}
}

func TestIsTransactionProcessed(t *testing.T) {
	service := setupTestService(t)
	ctx := context.Background()

	processed, err := service.IsTransactionProcessed(ctx, "tx-3")
	if err != nil {
		t.Fatalf("IsTransactionProcessed failed: %v", err)
	}
	if processed {
		t.Error("Expected tx-3 to be unprocessed")
	}

	if err := service.RecordProcessedTransaction(ctx, sampleProcessedTransaction("tx-3")); err != nil {
		t.Fatalf("RecordProcessedTransaction failed: %v", err)
	}

	processed, err = service.IsTransactionProcessed(ctx, "tx-3")
	if err != nil {
		t.Fatalf("IsTransactionProcessed failed: %v", err)
	}
	if !processed {
		t.Error("Expected tx-3 to be processed")
	}
}

func TestUpdateDistributionStats(t *testing.T) {
	service := setupTestService(t)
	ctx := context.Background()

	if err := service.RecordProcessedTransaction(ctx, sampleProcessedTransaction("tx-4")); err != nil {
		t.Fatalf("RecordProcessedTransaction failed: %v", err)
	}
	if err := service.UpdateDistributionStats(ctx, "tx-4", 3, 960000); err != nil {
		t.Fatalf("UpdateDistributionStats failed: %v", err)
	}

	stored, err := service.GetProcessedTransaction(ctx, "tx-4")
	if err != nil {
		t.Fatalf("GetProcessedTransaction failed: %v", err)
	}
	if stored.ClientsCount != 3 || stored.DistributionsTotalSats != 960000 {
		t.Errorf("Stats mismatch: clients %d, total %d", stored.ClientsCount, stored.DistributionsTotalSats)
	}

	if err := service.UpdateDistributionStats(ctx, "missing", 1, 1); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound for unknown external id, got %v", err)
	}
}
