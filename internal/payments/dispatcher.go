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

package payments

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"lamassu-dca-go/internal/dca"
	"lamassu-dca-go/internal/models"
	"lamassu-dca-go/internal/store"
)

// Dispatcher turns allocations into ledger reservations and Lightning
// payments. Every payment is charged against the client's fiat balance
// before it is sent; a failed send releases the charge but keeps the row.
type Dispatcher struct {
	ledger   store.LedgerStore
	payments Client
}

func NewDispatcher(ledger store.LedgerStore, payments Client) *Dispatcher {
	return &Dispatcher{ledger: ledger, payments: payments}
}

// DispatchResult summarizes one transaction's fan-out.
type DispatchResult struct {
	ClientsCount int
	TotalSats    int64
	Failures     int
}

// Dispatch processes each allocation independently: reserve the fiat charge,
// create an invoice on the client's wallet, pay it from the source wallet,
// then confirm or fail the distribution row. One client's failure never
// blocks the others. Wallets maps client id to wallet id.
func (d *Dispatcher) Dispatch(ctx context.Context, cfg *models.RemoteConfig, ptx *models.ProcessedTransaction, allocations []dca.Allocation, wallets map[string]string) DispatchResult {
	var result DispatchResult
	for _, allocation := range allocations {
		walletId, ok := wallets[allocation.ClientId]
		if !ok {
			zap.L().Error("No wallet known for allocated client, skipping",
				zap.String("client_id", allocation.ClientId),
				zap.String("external_id", ptx.ExternalId))
			result.Failures++
			continue
		}

		amountFiat := dca.FiatEquivalent(allocation.AmountSats, ptx.ExchangeRate)
		distribution, err := d.ledger.ReserveAndRecordDistribution(ctx, store.ReserveDistributionParams{
			ClientId:     allocation.ClientId,
			ExternalId:   ptx.ExternalId,
			AmountSats:   allocation.AmountSats,
			AmountFiat:   amountFiat,
			ExchangeRate: ptx.ExchangeRate,
		})
		if err != nil {
			if errors.Is(err, store.ErrInsufficientBalance) {
				zap.L().Warn("Balance changed since allocation, skipping client",
					zap.String("client_id", allocation.ClientId),
					zap.String("external_id", ptx.ExternalId))
			} else {
				zap.L().Error("Failed to reserve distribution",
					zap.String("client_id", allocation.ClientId),
					zap.Error(err))
			}
			result.Failures++
			continue
		}
		result.ClientsCount++
		result.TotalSats += allocation.AmountSats

		memo := fmt.Sprintf("DCA %d sats at cost %d %s (tx %s)",
			allocation.AmountSats, amountFiat, ptx.FiatCode, ptx.ExternalId)
		if err := d.send(ctx, cfg.SourceWalletId, walletId, allocation.AmountSats, memo, distribution.Id); err != nil {
			result.Failures++
		}
	}
	return result
}

// send moves sats from the source wallet to the destination wallet and
// records the outcome on the distribution row.
func (d *Dispatcher) send(ctx context.Context, sourceWalletId, destWalletId string, amountSats int64, memo, distributionId string) error {
	invoice, err := d.payments.CreateInvoice(ctx, destWalletId, amountSats, memo)
	if err != nil {
		return d.failDistribution(ctx, distributionId, err)
	}

	paymentHash, err := d.payments.PayInvoice(ctx, sourceWalletId, invoice.PaymentRequest)
	if err != nil {
		return d.failDistribution(ctx, distributionId, err)
	}

	if err := d.ledger.UpdateDistributionStatus(ctx, distributionId, models.DistributionConfirmed, paymentHash); err != nil {
		zap.L().Error("Payment sent but confirmation write failed",
			zap.String("distribution_id", distributionId),
			zap.String("payment_hash", paymentHash),
			zap.Error(err))
		return err
	}

	zap.L().Info("Distribution paid",
		zap.String("distribution_id", distributionId),
		zap.Int64("amount_sats", amountSats),
		zap.String("payment_hash", paymentHash))
	return nil
}

func (d *Dispatcher) failDistribution(ctx context.Context, distributionId string, cause error) error {
	zap.L().Error("Distribution payment failed",
		zap.String("distribution_id", distributionId),
		zap.Error(cause))
	if err := d.ledger.UpdateDistributionStatus(ctx, distributionId, models.DistributionFailed, cause.Error()); err != nil {
		zap.L().Error("Failed to mark distribution failed",
			zap.String("distribution_id", distributionId),
			zap.Error(err))
	}
	return cause
}

// ForwardCommission moves the commission cut of a transaction from the
// source wallet to the commission wallet. A failure here is logged and
// returned but does not affect client distributions.
func (d *Dispatcher) ForwardCommission(ctx context.Context, cfg *models.RemoteConfig, ptx *models.ProcessedTransaction) error {
	if cfg.CommissionWalletId == "" || ptx.CommissionSats <= 0 {
		return nil
	}

	memo := fmt.Sprintf("Commission for tx %s", ptx.ExternalId)
	invoice, err := d.payments.CreateInvoice(ctx, cfg.CommissionWalletId, ptx.CommissionSats, memo)
	if err != nil {
		zap.L().Error("Failed to create commission invoice",
			zap.String("external_id", ptx.ExternalId), zap.Error(err))
		return err
	}
	paymentHash, err := d.payments.PayInvoice(ctx, cfg.SourceWalletId, invoice.PaymentRequest)
	if err != nil {
		zap.L().Error("Failed to forward commission",
			zap.String("external_id", ptx.ExternalId), zap.Error(err))
		return err
	}

	zap.L().Info("Commission forwarded",
		zap.String("external_id", ptx.ExternalId),
		zap.Int64("commission_sats", ptx.CommissionSats),
		zap.String("payment_hash", paymentHash))
	return nil
}
