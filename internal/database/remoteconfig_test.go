package database

import (
	"context"
	"testing"
	"time"

	"lamassu-dca-go/internal/models"
)

func sampleRemoteConfig() *models.RemoteConfig {
	return &models.RemoteConfig{
		Host:           "10.0.0.5",
		Port:           5432,
		DatabaseName:   "lamassu",
		Username:       "lamassu_ro",
		Password:       "secret",
		SourceWalletId: "source-wallet",
	}
}

func TestSaveRemoteConfig_ReplacesActiveRow(t *testing.T) {
	service := setupTestService(t)
	ctx := context.Background()

	first, err := service.SaveRemoteConfig(ctx, sampleRemoteConfig())
	if err != nil {
		t.Fatalf("First SaveRemoteConfig failed: %v", err)
	}

	second := sampleRemoteConfig()
	second.Host = "10.0.0.6"
	saved, err := service.SaveRemoteConfig(ctx, second)
	if err != nil {
		t.Fatalf("Second SaveRemoteConfig failed: %v", err)
	}

	if saved.Id == first.Id {
		t.Error("Expected a new config row, got the same id")
	}
	active, err := service.GetActiveRemoteConfig(ctx)
	if err != nil {
		t.Fatalf("GetActiveRemoteConfig failed: %v", err)
	}
	if active.Host != "10.0.0.6" {
		t.Errorf("Expected active host 10.0.0.6, got %s", active.Host)
	}
	if active.LastPollTime != nil || active.LastSuccessfulPoll != nil {
		t.Error("Expected a fresh config row to have no poll timestamps")
	}
}

func TestSaveRemoteConfig_TunnelRequiresCredentials(t *testing.T) {
	service := setupTestService(t)

	cfg := sampleRemoteConfig()
	cfg.UseSSHTunnel = true
	cfg.SSHHost = "bastion"
	cfg.SSHUsername = "ops"

	if _, err := service.SaveRemoteConfig(context.Background(), cfg); err == nil {
		t.Fatal("Expected error for tunnel without key or password")
	}

	cfg.SSHPassword = "hunter2"
	saved, err := service.SaveRemoteConfig(context.Background(), cfg)
	if err != nil {
		t.Fatalf("SaveRemoteConfig with password failed: %v", err)
	}
	if saved.SSHPort != 22 {
		t.Errorf("Expected SSH port default 22, got %d", saved.SSHPort)
	}
}

func TestPollTimestamps(t *testing.T) {
	service := setupTestService(t)
	ctx := context.Background()

	saved, err := service.SaveRemoteConfig(ctx, sampleRemoteConfig())
	if err != nil {
		t.Fatalf("SaveRemoteConfig failed: %v", err)
	}

	pollStart := time.Now().UTC().Truncate(time.Second)
	if err := service.UpdatePollStart(ctx, saved.Id, pollStart); err != nil {
		t.Fatalf("UpdatePollStart failed: %v", err)
	}

	cfg, err := service.GetActiveRemoteConfig(ctx)
	if err != nil {
		t.Fatalf("GetActiveRemoteConfig failed: %v", err)
	}
	if cfg.LastPollTime == nil {
		t.Fatal("Expected last_poll_time to be set")
	}
	if cfg.LastSuccessfulPoll != nil {
		t.Error("Expected last_successful_poll to remain unset after a start stamp")
	}

	if err := service.UpdatePollSuccess(ctx, saved.Id, pollStart); err != nil {
		t.Fatalf("UpdatePollSuccess failed: %v", err)
	}
	cfg, err = service.GetActiveRemoteConfig(ctx)
	if err != nil {
		t.Fatalf("GetActiveRemoteConfig failed: %v", err)
	}
	if cfg.LastSuccessfulPoll == nil {
		t.Fatal("Expected last_successful_poll to be set")
	}
	if !cfg.LastSuccessfulPoll.Equal(pollStart) {
		t.Errorf("Expected cursor %v, got %v", pollStart, *cfg.LastSuccessfulPoll)
	}
}

func TestUpdateTestResult(t *testing.T) {
	service := setupTestService(t)
	ctx := context.Background()

	saved, err := service.SaveRemoteConfig(ctx, sampleRemoteConfig())
	if err != nil {
		t.Fatalf("SaveRemoteConfig failed: %v", err)
	}

	if err := service.UpdateTestResult(ctx, saved.Id, true, "ok: 42 cash-out rows"); err != nil {
		t.Fatalf("UpdateTestResult failed: %v", err)
	}

	cfg, err := service.GetActiveRemoteConfig(ctx)
	if err != nil {
		t.Fatalf("GetActiveRemoteConfig failed: %v", err)
	}
	if !cfg.LastTestOk || cfg.LastTestDetail != "ok: 42 cash-out rows" {
		t.Errorf("Test result not stored: ok=%v detail=%q", cfg.LastTestOk, cfg.LastTestDetail)
	}
	if cfg.LastTestTime == nil {
		t.Error("Expected last_test_time to be set")
	}
}
