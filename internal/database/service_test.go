package database

import (
	"context"
	"testing"
	"time"

	"lamassu-dca-go/internal/models"
	"lamassu-dca-go/internal/store"
)

func setupTestService(t *testing.T) *Service {
	t.Helper()

	service, err := NewService(context.Background(), models.DatabaseConfig{
		Path:         ":memory:",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		PingTimeout:  5 * time.Second,
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(service.Close)
	return service
}

func createTestClient(t *testing.T, service *Service, userId string, mode models.ClientMode, dailyLimit int64) *models.DcaClient {
	t.Helper()

	client, err := service.CreateClient(context.Background(), store.CreateClientParams{
		UserId:         userId,
		WalletId:       "wallet-" + userId,
		Username:       userId,
		Mode:           mode,
		DailyLimitSats: dailyLimit,
	})
	if err != nil {
		t.Fatalf("Failed to create test client: %v", err)
	}
	return client
}

func confirmTestDeposit(t *testing.T, service *Service, clientId string, amount int64) *models.Deposit {
	t.Helper()

	ctx := context.Background()
	deposit, err := service.CreateDeposit(ctx, store.CreateDepositParams{
		ClientId: clientId,
		Amount:   amount,
		Currency: "EUR",
	})
	if err != nil {
		t.Fatalf("Failed to create test deposit: %v", err)
	}
	confirmed, err := service.ConfirmDeposit(ctx, deposit.Id)
	if err != nil {
		t.Fatalf("Failed to confirm test deposit: %v", err)
	}
	return confirmed
}
