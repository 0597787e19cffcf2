package database

import (
	"context"
	"errors"
	"testing"

	"lamassu-dca-go/internal/models"
	"lamassu-dca-go/internal/store"
)

func TestCreateClient_ModeValidation(t *testing.T) {
	service := setupTestService(t)
	ctx := context.Background()

	// Fixed mode needs a positive daily limit.
	_, err := service.CreateClient(ctx, store.CreateClientParams{
		UserId: "bob", WalletId: "w", Mode: models.ModeFixed,
	})
	if !errors.Is(err, store.ErrInvalidState) {
		t.Fatalf("Expected ErrInvalidState for fixed mode without limit, got %v", err)
	}

	// Proportional mode must not carry one.
	_, err = service.CreateClient(ctx, store.CreateClientParams{
		UserId: "bob", WalletId: "w", Mode: models.ModeProportional, DailyLimitSats: 1000,
	})
	if !errors.Is(err, store.ErrInvalidState) {
		t.Fatalf("Expected ErrInvalidState for proportional mode with limit, got %v", err)
	}
}

func TestCreateClient_DuplicateUserId(t *testing.T) {
	service := setupTestService(t)
	createTestClient(t, service, "alice", models.ModeProportional, 0)

	_, err := service.CreateClient(context.Background(), store.CreateClientParams{
		UserId: "alice", WalletId: "other-wallet", Mode: models.ModeProportional,
	})
	if err == nil {
		t.Fatal("Expected duplicate user_id to be rejected")
	}
}

func TestGetActiveClients_ExcludesInactive(t *testing.T) {
	service := setupTestService(t)
	ctx := context.Background()

	createTestClient(t, service, "alice", models.ModeProportional, 0)
	bob := createTestClient(t, service, "bob", models.ModeFixed, 50000)

	bob.Status = models.ClientInactive
	if err := service.UpdateClient(ctx, bob); err != nil {
		t.Fatalf("UpdateClient failed: %v", err)
	}

	active, err := service.GetActiveClients(ctx)
	if err != nil {
		t.Fatalf("GetActiveClients failed: %v", err)
	}
	if len(active) != 1 || active[0].UserId != "alice" {
		t.Errorf("Expected only alice active, got %+v", active)
	}

	all, err := service.GetClients(ctx)
	if err != nil {
		t.Fatalf("GetClients failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("Expected two clients in total, got %d", len(all))
	}
}

func TestGetClientByUserId(t *testing.T) {
	service := setupTestService(t)
	created := createTestClient(t, service, "alice", models.ModeProportional, 0)

	found, err := service.GetClientByUserId(context.Background(), "alice")
	if err != nil {
		t.Fatalf("GetClientByUserId failed: %v", err)
	}
	if found.Id != created.Id {
		t.Errorf("Expected client %s, got %s", created.Id, found.Id)
	}

	if _, err := service.GetClientByUserId(context.Background(), "nobody"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}
