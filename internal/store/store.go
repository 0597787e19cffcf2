package store

import (
	"context"
	"errors"
	"time"

	"lamassu-dca-go/internal/models"

	"github.com/shopspring/decimal"
)

// Sentinel errors shared across all backend implementations.
var (
	ErrDuplicateTransaction = errors.New("duplicate transaction")
	ErrInsufficientBalance  = errors.New("insufficient balance")
	ErrInvalidState         = errors.New("invalid state transition")
	ErrNotFound             = errors.New("record not found")
)

// CreateClientParams contains the parameters for registering a DCA client.
type CreateClientParams struct {
	UserId         string
	WalletId       string
	Username       string
	Mode           models.ClientMode
	DailyLimitSats int64
}

// CreateDepositParams contains the parameters for recording a fiat deposit.
type CreateDepositParams struct {
	ClientId string
	Amount   int64
	Currency string
	Notes    string
}

// ReserveDistributionParams is the single balance-decreasing write. The
// remaining balance is re-checked and the pending row inserted in one unit
// of work.
type ReserveDistributionParams struct {
	ClientId     string
	ExternalId   string
	AmountSats   int64
	AmountFiat   int64
	ExchangeRate decimal.Decimal
}

// LedgerStore defines the contract the durable ledger backend must satisfy.
type LedgerStore interface {
	// --- Clients ---
	CreateClient(ctx context.Context, params CreateClientParams) (*models.DcaClient, error)
	UpdateClient(ctx context.Context, client *models.DcaClient) error
	GetClient(ctx context.Context, clientId string) (*models.DcaClient, error)
	GetClientByUserId(ctx context.Context, userId string) (*models.DcaClient, error)
	GetClients(ctx context.Context) ([]models.DcaClient, error)
	GetActiveClients(ctx context.Context) ([]models.DcaClient, error)

	// --- Deposits ---
	CreateDeposit(ctx context.Context, params CreateDepositParams) (*models.Deposit, error)
	UpdateDeposit(ctx context.Context, deposit *models.Deposit) error
	GetDeposit(ctx context.Context, depositId string) (*models.Deposit, error)
	GetDeposits(ctx context.Context, clientId string) ([]models.Deposit, error)
	ConfirmDeposit(ctx context.Context, depositId string) (*models.Deposit, error)

	// --- Balances ---
	ComputeBalance(ctx context.Context, clientId string) (*models.ClientBalance, error)
	SatsDistributedToday(ctx context.Context, clientId string, now time.Time) (int64, error)

	// --- Distributions ---
	ReserveAndRecordDistribution(ctx context.Context, params ReserveDistributionParams) (*models.Distribution, error)
	UpdateDistributionStatus(ctx context.Context, distributionId string, status models.DistributionStatus, detail string) error
	GetDistributionsByTransaction(ctx context.Context, externalId string) ([]models.Distribution, error)

	// --- Processed transactions ---
	RecordProcessedTransaction(ctx context.Context, tx *models.ProcessedTransaction) error
	UpdateDistributionStats(ctx context.Context, externalId string, clientsCount int, totalSats int64) error
	IsTransactionProcessed(ctx context.Context, externalId string) (bool, error)
	GetProcessedTransactions(ctx context.Context, limit, offset int) ([]models.ProcessedTransaction, error)
	GetProcessedTransaction(ctx context.Context, externalId string) (*models.ProcessedTransaction, error)

	// --- Remote configuration ---
	SaveRemoteConfig(ctx context.Context, cfg *models.RemoteConfig) (*models.RemoteConfig, error)
	GetActiveRemoteConfig(ctx context.Context) (*models.RemoteConfig, error)
	UpdatePollStart(ctx context.Context, configId string, at time.Time) error
	UpdatePollSuccess(ctx context.Context, configId string, at time.Time) error
	UpdateTestResult(ctx context.Context, configId string, ok bool, detail string) error

	// --- Lifecycle ---
	Close()
}
