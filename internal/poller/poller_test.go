package poller

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lamassu-dca-go/internal/database"
	"lamassu-dca-go/internal/models"
	"lamassu-dca-go/internal/payments"
	"lamassu-dca-go/internal/store"
)

type fakeSource struct {
	mu       sync.Mutex
	txs      []models.RemoteTransaction
	fetchErr error
	blockOn  chan struct{}
	fetches  int
	lastSince time.Time
}

func (f *fakeSource) TestConnection(ctx context.Context) (time.Duration, int64, error) {
	return time.Millisecond, int64(len(f.txs)), f.fetchErr
}

func (f *fakeSource) FetchTransactionsSince(ctx context.Context, since time.Time) ([]models.RemoteTransaction, error) {
	if f.blockOn != nil {
		<-f.blockOn
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	f.lastSince = since
	return f.txs, f.fetchErr
}

type sentPayment struct {
	WalletId   string
	AmountSats int64
	Memo       string
}

type fakePayments struct {
	mu          sync.Mutex
	sent        []sentPayment
	invoices    map[string]sentPayment
	failWallets map[string]bool
	seq         int
}

func newFakePayments() *fakePayments {
	return &fakePayments{invoices: make(map[string]sentPayment), failWallets: make(map[string]bool)}
}

func (f *fakePayments) CreateInvoice(ctx context.Context, walletId string, amountSats int64, memo string) (*payments.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWallets[walletId] {
		return nil, &payments.PaymentError{Op: "create invoice", WalletId: walletId, Err: fmt.Errorf("wallet unavailable")}
	}
	f.seq++
	bolt11 := fmt.Sprintf("lnbc-test-%d", f.seq)
	f.invoices[bolt11] = sentPayment{WalletId: walletId, AmountSats: amountSats, Memo: memo}
	return &payments.Invoice{PaymentHash: fmt.Sprintf("hash-%d", f.seq), PaymentRequest: bolt11}, nil
}

func (f *fakePayments) PayInvoice(ctx context.Context, walletId, bolt11 string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	invoice, ok := f.invoices[bolt11]
	if !ok {
		return "", &payments.PaymentError{Op: "pay invoice", WalletId: walletId, Err: fmt.Errorf("unknown invoice")}
	}
	f.sent = append(f.sent, invoice)
	return "paid-" + bolt11, nil
}

func (f *fakePayments) sentTo(walletId string) []sentPayment {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []sentPayment
	for _, s := range f.sent {
		if s.WalletId == walletId {
			out = append(out, s)
		}
	}
	return out
}

func newTestLedger(t *testing.T) *database.Service {
	t.Helper()
	svc, err := database.NewService(context.Background(), models.DatabaseConfig{
		Path:         ":memory:",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		PingTimeout:  5 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(svc.Close)
	return svc
}

func seedConfig(t *testing.T, ledger store.LedgerStore) *models.RemoteConfig {
	t.Helper()
	cfg, err := ledger.SaveRemoteConfig(context.Background(), &models.RemoteConfig{
		Host:               "10.0.0.5",
		Port:               5432,
		DatabaseName:       "lamassu",
		Username:           "lamassu_ro",
		Password:           "secret",
		SourceWalletId:     "source-wallet",
		CommissionWalletId: "commission-wallet",
	})
	require.NoError(t, err)
	return cfg
}

func seedClient(t *testing.T, ledger store.LedgerStore, userId, walletId string, mode models.ClientMode, dailyLimit, balanceFiat int64) *models.DcaClient {
	t.Helper()
	ctx := context.Background()
	client, err := ledger.CreateClient(ctx, store.CreateClientParams{
		UserId:         userId,
		WalletId:       walletId,
		Username:       userId,
		Mode:           mode,
		DailyLimitSats: dailyLimit,
	})
	require.NoError(t, err)

	if balanceFiat > 0 {
		deposit, err := ledger.CreateDeposit(ctx, store.CreateDepositParams{
			ClientId: client.Id,
			Amount:   balanceFiat,
			Currency: "EUR",
		})
		require.NoError(t, err)
		_, err = ledger.ConfirmDeposit(ctx, deposit.Id)
		require.NoError(t, err)
	}
	return client
}

func newTestPoller(ledger store.LedgerStore, source *fakeSource, backend *fakePayments) *Poller {
	dispatcher := payments.NewDispatcher(ledger, backend)
	factory := func(cfg *models.RemoteConfig) RemoteSource { return source }
	return NewPoller(ledger, dispatcher, factory, models.PollerConfig{FallbackWindow: 24 * time.Hour})
}

func sampleTransaction(externalId string) models.RemoteTransaction {
	return models.RemoteTransaction{
		ExternalId:      externalId,
		FiatAmount:      50000,   // 500.00 EUR
		CryptoAmount:    1000000, // 1M sats gross
		CommissionPct:   decimal.RequireFromString("0.05"),
		DiscountPct:     decimal.RequireFromString("20"),
		CryptoCode:      "BTC",
		FiatCode:        "EUR",
		DeviceId:        "atm-1",
		TransactionTime: time.Now().UTC().Add(-time.Minute),
	}
}

func TestPollDistributesTransaction(t *testing.T) {
	ledger := newTestLedger(t)
	seedConfig(t, ledger)
	client := seedClient(t, ledger, "alice", "wallet-alice", models.ModeProportional, 0, 100000)

	source := &fakeSource{txs: []models.RemoteTransaction{sampleTransaction("tx-1")}}
	backend := newFakePayments()
	p := newTestPoller(ledger, source, backend)

	ctx := context.Background()
	result, err := p.Poll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Fetched)
	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 0, result.Skipped)

	// Economics: effective 0.04, commission 40000, base 960000, rate 19.2.
	ptx, err := ledger.GetProcessedTransaction(ctx, "tx-1")
	require.NoError(t, err)
	assert.Equal(t, int64(40000), ptx.CommissionSats)
	assert.Equal(t, int64(960000), ptx.BaseSats)
	assert.Equal(t, 1, ptx.ClientsCount)
	assert.Equal(t, int64(960000), ptx.DistributionsTotalSats)

	distributions, err := ledger.GetDistributionsByTransaction(ctx, "tx-1")
	require.NoError(t, err)
	require.Len(t, distributions, 1)
	assert.Equal(t, client.Id, distributions[0].ClientId)
	assert.Equal(t, int64(960000), distributions[0].AmountSats)
	assert.Equal(t, int64(50000), distributions[0].AmountFiat)
	assert.Equal(t, models.DistributionConfirmed, distributions[0].Status)

	balance, err := ledger.ComputeBalance(ctx, client.Id)
	require.NoError(t, err)
	assert.Equal(t, int64(50000), balance.RemainingBalance)

	require.Len(t, backend.sentTo("wallet-alice"), 1)
	assert.Equal(t, int64(960000), backend.sentTo("wallet-alice")[0].AmountSats)
	require.Len(t, backend.sentTo("commission-wallet"), 1)
	assert.Equal(t, int64(40000), backend.sentTo("commission-wallet")[0].AmountSats)

	cfg, err := ledger.GetActiveRemoteConfig(ctx)
	require.NoError(t, err)
	require.NotNil(t, cfg.LastPollTime)
	require.NotNil(t, cfg.LastSuccessfulPoll)
}

func TestPollSkipsAlreadyProcessed(t *testing.T) {
	ledger := newTestLedger(t)
	seedConfig(t, ledger)
	seedClient(t, ledger, "alice", "wallet-alice", models.ModeProportional, 0, 1000000)

	source := &fakeSource{txs: []models.RemoteTransaction{sampleTransaction("tx-1")}}
	backend := newFakePayments()
	p := newTestPoller(ledger, source, backend)

	ctx := context.Background()
	_, err := p.Poll(ctx)
	require.NoError(t, err)

	// The fake returns the same row again, as a real overlap window would.
	result, err := p.Poll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Processed)
	assert.Equal(t, 1, result.Skipped)

	distributions, err := ledger.GetDistributionsByTransaction(ctx, "tx-1")
	require.NoError(t, err)
	assert.Len(t, distributions, 1)
	assert.Len(t, backend.sentTo("wallet-alice"), 1)
}

func TestPollGateDropsConcurrentRequest(t *testing.T) {
	ledger := newTestLedger(t)
	seedConfig(t, ledger)

	release := make(chan struct{})
	source := &fakeSource{blockOn: release}
	p := newTestPoller(ledger, source, newFakePayments())

	done := make(chan error, 1)
	go func() {
		_, err := p.Poll(context.Background())
		done <- err
	}()

	// Wait for the first poll to take the gate.
	require.Eventually(t, func() bool {
		_, err := p.Poll(context.Background())
		return err == ErrAlreadyPolling
	}, 2*time.Second, 10*time.Millisecond)

	close(release)
	require.NoError(t, <-done)
}

func TestPollFailedPaymentReleasesCharge(t *testing.T) {
	ledger := newTestLedger(t)
	seedConfig(t, ledger)
	client := seedClient(t, ledger, "alice", "wallet-alice", models.ModeProportional, 0, 100000)

	source := &fakeSource{txs: []models.RemoteTransaction{sampleTransaction("tx-1")}}
	backend := newFakePayments()
	backend.failWallets["wallet-alice"] = true
	p := newTestPoller(ledger, source, backend)

	ctx := context.Background()
	result, err := p.Poll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)

	distributions, err := ledger.GetDistributionsByTransaction(ctx, "tx-1")
	require.NoError(t, err)
	require.Len(t, distributions, 1)
	assert.Equal(t, models.DistributionFailed, distributions[0].Status)
	assert.NotEmpty(t, distributions[0].Detail)

	// The failed row releases its fiat charge.
	balance, err := ledger.ComputeBalance(ctx, client.Id)
	require.NoError(t, err)
	assert.Equal(t, int64(100000), balance.RemainingBalance)
}

func TestPollSplitsFixedAndProportional(t *testing.T) {
	ledger := newTestLedger(t)
	seedConfig(t, ledger)
	fixed := seedClient(t, ledger, "bob", "wallet-bob", models.ModeFixed, 100000, 1000000)
	seedClient(t, ledger, "alice", "wallet-alice", models.ModeProportional, 0, 1000000)

	source := &fakeSource{txs: []models.RemoteTransaction{sampleTransaction("tx-1")}}
	backend := newFakePayments()
	p := newTestPoller(ledger, source, backend)

	ctx := context.Background()
	_, err := p.Poll(ctx)
	require.NoError(t, err)

	distributions, err := ledger.GetDistributionsByTransaction(ctx, "tx-1")
	require.NoError(t, err)
	require.Len(t, distributions, 2)

	var total int64
	for _, d := range distributions {
		total += d.AmountSats
		if d.ClientId == fixed.Id {
			assert.Equal(t, int64(100000), d.AmountSats, "fixed client takes its daily limit first")
		}
	}
	assert.Equal(t, int64(960000), total)
}

func TestPollNoActiveConfig(t *testing.T) {
	ledger := newTestLedger(t)
	p := newTestPoller(ledger, &fakeSource{}, newFakePayments())

	_, err := p.Poll(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestPollUsesFallbackWindowOnFirstRun(t *testing.T) {
	ledger := newTestLedger(t)
	seedConfig(t, ledger)

	source := &fakeSource{}
	p := newTestPoller(ledger, source, newFakePayments())

	_, err := p.Poll(context.Background())
	require.NoError(t, err)

	elapsed := time.Since(source.lastSince)
	assert.InDelta(t, (24 * time.Hour).Seconds(), elapsed.Seconds(), 60)
}

func TestRunTestTransactionUsesSamePipeline(t *testing.T) {
	ledger := newTestLedger(t)
	seedConfig(t, ledger)
	client := seedClient(t, ledger, "alice", "wallet-alice", models.ModeProportional, 0, 100000)

	backend := newFakePayments()
	p := newTestPoller(ledger, &fakeSource{}, backend)

	ctx := context.Background()
	ptx, err := p.RunTestTransaction(ctx, models.RemoteTransaction{
		FiatAmount:    10000,
		CryptoAmount:  200000,
		CommissionPct: decimal.RequireFromString("0.03"),
		FiatCode:      "EUR",
		CryptoCode:    "BTC",
	})
	require.NoError(t, err)
	assert.Contains(t, ptx.ExternalId, "test-")
	assert.Equal(t, int64(194000), ptx.BaseSats)

	distributions, err := ledger.GetDistributionsByTransaction(ctx, ptx.ExternalId)
	require.NoError(t, err)
	require.Len(t, distributions, 1)
	assert.Equal(t, client.Id, distributions[0].ClientId)
	assert.Equal(t, models.DistributionConfirmed, distributions[0].Status)
	require.Len(t, backend.sentTo("wallet-alice"), 1)
}

func TestTestConnectionRecordsResult(t *testing.T) {
	ledger := newTestLedger(t)
	seedConfig(t, ledger)

	p := newTestPoller(ledger, &fakeSource{txs: []models.RemoteTransaction{sampleTransaction("tx-1")}}, newFakePayments())

	ctx := context.Background()
	detail, err := p.TestConnection(ctx)
	require.NoError(t, err)
	assert.Contains(t, detail, "ok")

	cfg, err := ledger.GetActiveRemoteConfig(ctx)
	require.NoError(t, err)
	assert.True(t, cfg.LastTestOk)
	assert.Equal(t, detail, cfg.LastTestDetail)
	require.NotNil(t, cfg.LastTestTime)
}
