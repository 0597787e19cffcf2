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
	"fmt"

	"lamassu-dca-go/internal/models"
	"lamassu-dca-go/internal/store"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// Compile-time check: *Service must satisfy store.LedgerStore.
var _ store.LedgerStore = (*Service)(nil)

type Service struct {
	db *sql.DB
}

func NewService(ctx context.Context, cfg models.DatabaseConfig) (*Service, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}
	if cfg.MaxOpenConns <= 0 {
		return nil, fmt.Errorf("max open connections must be positive, got %d", cfg.MaxOpenConns)
	}
	if cfg.PingTimeout <= 0 {
		return nil, fmt.Errorf("ping timeout must be positive, got %v", cfg.PingTimeout)
	}

	zap.L().Info("Opening SQLite database", zap.String("file", cfg.Path))
	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=1000")
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, cerr
		}
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	service := &Service{db: db}
	if err := service.initSchema(); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, cerr
		}
		return nil, fmt.Errorf("unable to initialize schema: %w", err)
	}

	zap.L().Info("Ledger database initialized successfully")
	return service, nil
}

func (s *Service) Close() {
	if err := s.db.Close(); err != nil {
		zap.L().Warn("Failed to close database connection", zap.Error(err))
	}
}

func (s *Service) initSchema() error {
	schema := `
	-- Registered DCA clients
	CREATE TABLE IF NOT EXISTS dca_clients (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL UNIQUE,
		wallet_id TEXT NOT NULL,
		username TEXT NOT NULL,
		mode TEXT NOT NULL CHECK (mode IN ('fixed', 'proportional')),
		daily_limit_sats INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'active',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_dca_clients_status ON dca_clients(status);

	-- Fiat deposits funding client balances (integer minor units)
	CREATE TABLE IF NOT EXISTS deposits (
		id TEXT PRIMARY KEY,
		client_id TEXT NOT NULL REFERENCES dca_clients(id),
		amount INTEGER NOT NULL CHECK (amount > 0),
		currency TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		notes TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_deposits_client ON deposits(client_id, status);

	-- Remote ATM transactions after processing (append-only audit trail)
	CREATE TABLE IF NOT EXISTS processed_transactions (
		id TEXT PRIMARY KEY,
		external_id TEXT NOT NULL UNIQUE,
		fiat_amount INTEGER NOT NULL,
		crypto_amount INTEGER NOT NULL,
		commission_pct TEXT NOT NULL,
		discount_pct TEXT NOT NULL,
		effective_commission TEXT NOT NULL,
		commission_sats INTEGER NOT NULL,
		base_sats INTEGER NOT NULL,
		exchange_rate TEXT NOT NULL,
		distributions_total_sats INTEGER NOT NULL DEFAULT 0,
		clients_count INTEGER NOT NULL DEFAULT 0,
		crypto_code TEXT,
		fiat_code TEXT,
		device_id TEXT,
		transaction_time TIMESTAMP,
		processed_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_processed_external_id ON processed_transactions(external_id);
	CREATE INDEX IF NOT EXISTS idx_processed_tx_time ON processed_transactions(transaction_time);

	-- Per-client slices of processed transactions (append-only)
	CREATE TABLE IF NOT EXISTS distributions (
		id TEXT PRIMARY KEY,
		external_id TEXT NOT NULL,
		client_id TEXT NOT NULL REFERENCES dca_clients(id),
		amount_sats INTEGER NOT NULL,
		amount_fiat INTEGER NOT NULL,
		exchange_rate TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		detail TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_distributions_external ON distributions(external_id);
	CREATE INDEX IF NOT EXISTS idx_distributions_client ON distributions(client_id, status, created_at);

	-- Lamassu connection settings, at most one active row
	CREATE TABLE IF NOT EXISTS lamassu_config (
		id TEXT PRIMARY KEY,
		host TEXT NOT NULL,
		port INTEGER NOT NULL,
		database_name TEXT NOT NULL,
		username TEXT NOT NULL,
		password TEXT,
		use_ssh_tunnel INTEGER NOT NULL DEFAULT 0,
		ssh_host TEXT,
		ssh_port INTEGER,
		ssh_username TEXT,
		ssh_password TEXT,
		ssh_private_key TEXT,
		source_wallet_id TEXT,
		commission_wallet_id TEXT,
		last_poll_time TIMESTAMP,
		last_successful_poll TIMESTAMP,
		last_test_ok INTEGER NOT NULL DEFAULT 0,
		last_test_detail TEXT,
		last_test_time TIMESTAMP,
		active INTEGER NOT NULL DEFAULT 1,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	`

	_, err := s.db.Exec(schema)
	return err
}
