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

package lamassu

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"lamassu-dca-go/internal/models"
)

// queryCompletedCashOuts selects fully dispensed cash-out transactions newer
// than the cursor, oldest first so the cursor only ever moves forward.
// Numerics are cast to text and parsed on our side; fiat is converted to
// integer minor units in SQL.
const queryCompletedCashOuts = `
	SELECT id::text,
	       ROUND(fiat * 100)::bigint,
	       crypto_atoms::bigint,
	       COALESCE(commission_percentage, 0)::text,
	       COALESCE(discount, 0)::text,
	       crypto_code,
	       fiat_code,
	       COALESCE(device_id, ''),
	       confirmed_at
	FROM cash_out_txs
	WHERE status IN ('confirmed', 'authorized')
	  AND dispense = 't'
	  AND dispense_confirmed = 't'
	  AND confirmed_at > $1
	ORDER BY confirmed_at ASC`

const queryCountCashOuts = `SELECT count(*) FROM cash_out_txs`

// Connector reads completed transactions from a Lamassu server's Postgres
// database, optionally through an SSH tunnel. Connections are opened per
// operation and torn down afterwards; the remote database is never written.
type Connector struct {
	cfg          *models.RemoteConfig
	dialTimeout  time.Duration
	queryTimeout time.Duration
}

func NewConnector(cfg *models.RemoteConfig, pollerCfg models.PollerConfig) *Connector {
	return &Connector{
		cfg:          cfg,
		dialTimeout:  pollerCfg.DialTimeout,
		queryTimeout: pollerCfg.QueryTimeout,
	}
}

// connect opens a Postgres connection, routing through the SSH tunnel when
// one is configured. The returned closer tears down both.
func (c *Connector) connect(ctx context.Context) (*pgx.Conn, func(), error) {
	connConfig, err := pgx.ParseConfig("")
	if err != nil {
		return nil, nil, connErr("config", err)
	}
	connConfig.Host = c.cfg.Host
	connConfig.Port = uint16(c.cfg.Port)
	connConfig.Database = c.cfg.DatabaseName
	connConfig.User = c.cfg.Username
	connConfig.Password = c.cfg.Password
	connConfig.ConnectTimeout = c.dialTimeout

	var tunnel *sshTunnel
	if c.cfg.UseSSHTunnel {
		tunnel, err = dialTunnel(c.cfg, c.dialTimeout)
		if err != nil {
			return nil, nil, connErr("ssh dial", err)
		}
		connConfig.DialFunc = func(ctx context.Context, network, addr string) (net.Conn, error) {
			return tunnel.Dial(network, addr)
		}
	}

	conn, err := pgx.ConnectConfig(ctx, connConfig)
	if err != nil {
		if tunnel != nil {
			tunnel.Close()
		}
		return nil, nil, connErr("connect", err)
	}

	closer := func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := conn.Close(closeCtx); err != nil {
			zap.L().Warn("Failed to close remote connection", zap.Error(err))
		}
		if tunnel != nil {
			if err := tunnel.Close(); err != nil {
				zap.L().Warn("Failed to close ssh tunnel", zap.Error(err))
			}
		}
	}
	return conn, closer, nil
}

// TestConnection verifies end-to-end reachability of the remote database and
// returns the measured round-trip latency and the cash-out row count.
func (c *Connector) TestConnection(ctx context.Context) (time.Duration, int64, error) {
	start := time.Now()
	conn, closer, err := c.connect(ctx)
	if err != nil {
		return 0, 0, err
	}
	defer closer()

	queryCtx, cancel := context.WithTimeout(ctx, c.queryTimeout)
	defer cancel()

	var count int64
	if err := conn.QueryRow(queryCtx, queryCountCashOuts).Scan(&count); err != nil {
		return 0, 0, connErr("query", err)
	}
	return time.Since(start), count, nil
}

// FetchTransactionsSince returns completed cash-out transactions confirmed
// after the given cursor, ordered oldest first.
func (c *Connector) FetchTransactionsSince(ctx context.Context, since time.Time) ([]models.RemoteTransaction, error) {
	conn, closer, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer closer()

	queryCtx, cancel := context.WithTimeout(ctx, c.queryTimeout)
	defer cancel()

	rows, err := conn.Query(queryCtx, queryCompletedCashOuts, since.UTC())
	if err != nil {
		return nil, connErr("query", err)
	}
	defer rows.Close()

	var transactions []models.RemoteTransaction
	for rows.Next() {
		var tx models.RemoteTransaction
		var commissionStr, discountStr string
		if err := rows.Scan(&tx.ExternalId, &tx.FiatAmount, &tx.CryptoAmount,
			&commissionStr, &discountStr, &tx.CryptoCode, &tx.FiatCode,
			&tx.DeviceId, &tx.TransactionTime); err != nil {
			return nil, connErr("scan", err)
		}
		if tx.CommissionPct, err = decimal.NewFromString(commissionStr); err != nil {
			return nil, connErr("scan", fmt.Errorf("bad commission %q: %w", commissionStr, err))
		}
		if tx.DiscountPct, err = decimal.NewFromString(discountStr); err != nil {
			return nil, connErr("scan", fmt.Errorf("bad discount %q: %w", discountStr, err))
		}
		transactions = append(transactions, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, connErr("query", err)
	}

	zap.L().Debug("Fetched remote transactions",
		zap.Int("count", len(transactions)),
		zap.Time("since", since))
	return transactions, nil
}
