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

package poller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"lamassu-dca-go/internal/dca"
	"lamassu-dca-go/internal/models"
	"lamassu-dca-go/internal/payments"
	"lamassu-dca-go/internal/store"
)

// ErrAlreadyPolling signals that a poll is in progress and the request was
// dropped rather than queued. It is an expected condition, not a failure.
var ErrAlreadyPolling = errors.New("poll already in progress")

// RemoteSource reads transactions from the operator's database.
type RemoteSource interface {
	TestConnection(ctx context.Context) (time.Duration, int64, error)
	FetchTransactionsSince(ctx context.Context, since time.Time) ([]models.RemoteTransaction, error)
}

// ConnectorFactory builds a RemoteSource for the active configuration. The
// factory runs on every poll so configuration changes take effect without a
// restart.
type ConnectorFactory func(cfg *models.RemoteConfig) RemoteSource

// Poller drives the fetch-and-distribute cycle. At most one cycle runs at a
// time: scheduled and manual polls share a non-blocking gate, and whichever
// arrives second is dropped.
type Poller struct {
	ledger         store.LedgerStore
	dispatcher     *payments.Dispatcher
	newConnector   ConnectorFactory
	fallbackWindow time.Duration

	mu sync.Mutex
}

func NewPoller(ledger store.LedgerStore, dispatcher *payments.Dispatcher, factory ConnectorFactory, cfg models.PollerConfig) *Poller {
	fallback := cfg.FallbackWindow
	if fallback <= 0 {
		fallback = 24 * time.Hour
	}
	return &Poller{
		ledger:         ledger,
		dispatcher:     dispatcher,
		newConnector:   factory,
		fallbackWindow: fallback,
	}
}

// PollResult summarizes one completed poll.
type PollResult struct {
	Processed int `json:"processed"`
	Skipped   int `json:"skipped"`
	Fetched   int `json:"fetched"`
}

// Poll fetches transactions confirmed since the last successful poll and
// distributes each one. The attempt is stamped before fetching; the success
// cursor advances only after every fetched transaction has been handled, so
// a failed poll re-reads the same window and idempotency filters the rows
// already processed.
func (p *Poller) Poll(ctx context.Context) (*PollResult, error) {
	if !p.mu.TryLock() {
		return nil, ErrAlreadyPolling
	}
	defer p.mu.Unlock()

	cfg, err := p.ledger.GetActiveRemoteConfig(ctx)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("no active remote configuration: %w", err)
		}
		return nil, err
	}

	startedAt := time.Now().UTC()
	if err := p.ledger.UpdatePollStart(ctx, cfg.Id, startedAt); err != nil {
		return nil, fmt.Errorf("failed to stamp poll start: %w", err)
	}

	since := startedAt.Add(-p.fallbackWindow)
	if cfg.LastSuccessfulPoll != nil {
		since = *cfg.LastSuccessfulPoll
	}

	transactions, err := p.newConnector(cfg).FetchTransactionsSince(ctx, since)
	if err != nil {
		zap.L().Error("Poll fetch failed", zap.Error(err))
		return nil, err
	}

	result := &PollResult{Fetched: len(transactions)}
	for _, tx := range transactions {
		ptx, err := p.processTransaction(ctx, cfg, tx)
		if err != nil {
			if errors.Is(err, store.ErrDuplicateTransaction) {
				result.Skipped++
				continue
			}
			// Leave the cursor where it is so the next poll retries this row.
			return nil, fmt.Errorf("failed to process transaction %s: %w", tx.ExternalId, err)
		}
		if ptx == nil {
			result.Skipped++
			continue
		}
		result.Processed++
	}

	if err := p.ledger.UpdatePollSuccess(ctx, cfg.Id, startedAt); err != nil {
		return nil, fmt.Errorf("failed to stamp poll success: %w", err)
	}

	zap.L().Info("Poll completed",
		zap.Int("fetched", result.Fetched),
		zap.Int("processed", result.Processed),
		zap.Int("skipped", result.Skipped),
		zap.Time("since", since))
	return result, nil
}

// processTransaction runs the full pipeline for one remote transaction:
// economics, idempotent audit record, allocation, dispatch, stats. A nil
// result with nil error means the row was not distributable and was skipped.
// Payment failures do not fail the pipeline; they land as failed rows.
func (p *Poller) processTransaction(ctx context.Context, cfg *models.RemoteConfig, tx models.RemoteTransaction) (*models.ProcessedTransaction, error) {
	if tx.CryptoAmount <= 0 || tx.FiatAmount <= 0 {
		zap.L().Warn("Skipping transaction with non-positive amounts",
			zap.String("external_id", tx.ExternalId),
			zap.Int64("crypto_amount", tx.CryptoAmount),
			zap.Int64("fiat_amount", tx.FiatAmount))
		return nil, nil
	}

	econ := dca.CalculateEconomics(tx.FiatAmount, tx.CryptoAmount, tx.CommissionPct, tx.DiscountPct)
	ptx := &models.ProcessedTransaction{
		ExternalId:          tx.ExternalId,
		FiatAmount:          tx.FiatAmount,
		CryptoAmount:        tx.CryptoAmount,
		CommissionPct:       tx.CommissionPct,
		DiscountPct:         tx.DiscountPct,
		EffectiveCommission: econ.EffectiveCommission,
		CommissionSats:      econ.CommissionSats,
		BaseSats:            econ.BaseSats,
		ExchangeRate:        econ.ExchangeRate,
		CryptoCode:          tx.CryptoCode,
		FiatCode:            tx.FiatCode,
		DeviceId:            tx.DeviceId,
		TransactionTime:     tx.TransactionTime,
		ProcessedAt:         time.Now().UTC(),
	}
	if err := p.ledger.RecordProcessedTransaction(ctx, ptx); err != nil {
		return nil, err
	}

	states, wallets, err := p.clientStates(ctx, econ, ptx.ProcessedAt)
	if err != nil {
		return nil, err
	}

	allocations := dca.Allocate(econ.BaseSats, states)
	dispatched := p.dispatcher.Dispatch(ctx, cfg, ptx, allocations, wallets)
	if err := p.ledger.UpdateDistributionStats(ctx, ptx.ExternalId, dispatched.ClientsCount, dispatched.TotalSats); err != nil {
		zap.L().Error("Failed to update distribution stats",
			zap.String("external_id", ptx.ExternalId), zap.Error(err))
	}
	ptx.ClientsCount = dispatched.ClientsCount
	ptx.DistributionsTotalSats = dispatched.TotalSats

	if err := p.dispatcher.ForwardCommission(ctx, cfg, ptx); err != nil {
		zap.L().Warn("Commission forwarding failed, distributions unaffected",
			zap.String("external_id", ptx.ExternalId), zap.Error(err))
	}

	zap.L().Info("Transaction distributed",
		zap.String("external_id", ptx.ExternalId),
		zap.Int64("base_sats", econ.BaseSats),
		zap.Int("clients", dispatched.ClientsCount),
		zap.Int64("total_sats", dispatched.TotalSats),
		zap.Int("failures", dispatched.Failures))
	return ptx, nil
}

// clientStates snapshots every active client's capacity at the transaction's
// exchange rate, plus the sats already sent today for fixed-mode limits.
func (p *Poller) clientStates(ctx context.Context, econ dca.Economics, now time.Time) ([]dca.ClientState, map[string]string, error) {
	clients, err := p.ledger.GetActiveClients(ctx)
	if err != nil {
		return nil, nil, err
	}

	states := make([]dca.ClientState, 0, len(clients))
	wallets := make(map[string]string, len(clients))
	for _, client := range clients {
		balance, err := p.ledger.ComputeBalance(ctx, client.Id)
		if err != nil {
			return nil, nil, err
		}

		state := dca.ClientState{
			ClientId:       client.Id,
			Mode:           client.Mode,
			DailyLimitSats: client.DailyLimitSats,
			CapacitySats:   dca.SatsEquivalent(balance.RemainingBalance, econ.ExchangeRate),
		}
		if client.Mode == models.ModeFixed {
			distributed, err := p.ledger.SatsDistributedToday(ctx, client.Id, now)
			if err != nil {
				return nil, nil, err
			}
			state.DistributedTodaySats = distributed
		}
		states = append(states, state)
		wallets[client.Id] = client.WalletId
	}
	return states, wallets, nil
}

// TestConnection verifies the active configuration end to end and records
// the outcome on the configuration row.
func (p *Poller) TestConnection(ctx context.Context) (string, error) {
	cfg, err := p.ledger.GetActiveRemoteConfig(ctx)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", fmt.Errorf("no active remote configuration: %w", err)
		}
		return "", err
	}

	latency, count, err := p.newConnector(cfg).TestConnection(ctx)
	if err != nil {
		detail := err.Error()
		if updateErr := p.ledger.UpdateTestResult(ctx, cfg.Id, false, detail); updateErr != nil {
			zap.L().Error("Failed to record test result", zap.Error(updateErr))
		}
		return detail, err
	}

	detail := fmt.Sprintf("ok: %d cash-out rows, %s round trip", count, latency.Round(time.Millisecond))
	if err := p.ledger.UpdateTestResult(ctx, cfg.Id, true, detail); err != nil {
		zap.L().Error("Failed to record test result", zap.Error(err))
	}
	return detail, nil
}

// RunTestTransaction pushes a synthetic transaction through the exact same
// pipeline a polled transaction takes, real payments included. It shares
// the poll gate so it never interleaves with a running poll.
func (p *Poller) RunTestTransaction(ctx context.Context, tx models.RemoteTransaction) (*models.ProcessedTransaction, error) {
	if !p.mu.TryLock() {
		return nil, ErrAlreadyPolling
	}
	defer p.mu.Unlock()

	cfg, err := p.ledger.GetActiveRemoteConfig(ctx)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("no active remote configuration: %w", err)
		}
		return nil, err
	}

	if tx.ExternalId == "" {
		tx.ExternalId = "test-" + uuid.New().String()
	}
	if tx.TransactionTime.IsZero() {
		tx.TransactionTime = time.Now().UTC()
	}

	ptx, err := p.processTransaction(ctx, cfg, tx)
	if err != nil {
		return nil, err
	}
	if ptx == nil {
		return nil, fmt.Errorf("%w: test transaction amounts must be positive", store.ErrInvalidState)
	}
	return ptx, nil
}
