package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ClientMode controls how a client's share of a distribution is computed.
type ClientMode string

const (
	ModeFixed        ClientMode = "fixed"
	ModeProportional ClientMode = "proportional"
)

// ClientStatus marks whether a client participates in distributions.
type ClientStatus string

const (
	ClientActive   ClientStatus = "active"
	ClientInactive ClientStatus = "inactive"
)

// DcaClient represents a registered DCA recipient.
type DcaClient struct {
	Id             string       `db:"id" json:"id"`
	UserId         string       `db:"user_id" json:"user_id"`
	WalletId       string       `db:"wallet_id" json:"wallet_id"`
	Username       string       `db:"username" json:"username"`
	Mode           ClientMode   `db:"mode" json:"mode"`
	DailyLimitSats int64        `db:"daily_limit_sats" json:"daily_limit_sats"` // fixed mode only, 0 otherwise
	Status         ClientStatus `db:"status" json:"status"`
	CreatedAt      time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time    `db:"updated_at" json:"updated_at"`
}

// DepositStatus is the lifecycle state of a fiat deposit.
type DepositStatus string

const (
	DepositPending   DepositStatus = "pending"
	DepositConfirmed DepositStatus = "confirmed"
)

// Deposit is a fiat deposit funding a client's DCA balance.
// Amount is in integer minor currency units.
type Deposit struct {
	Id        string        `db:"id" json:"id"`
	ClientId  string        `db:"client_id" json:"client_id"`
	Amount    int64         `db:"amount" json:"amount"`
	Currency  string        `db:"currency" json:"currency"`
	Status    DepositStatus `db:"status" json:"status"`
	Notes     string        `db:"notes" json:"notes,omitempty"`
	CreatedAt time.Time     `db:"created_at" json:"created_at"`
}

// ProcessedTransaction is the audit record for one remote ATM transaction
// after commission economics and distribution fan-out.
type ProcessedTransaction struct {
	Id                     string          `db:"id" json:"id"`
	ExternalId             string          `db:"external_id" json:"external_id"`
	FiatAmount             int64           `db:"fiat_amount" json:"fiat_amount"`
	CryptoAmount           int64           `db:"crypto_amount" json:"crypto_amount"`
	CommissionPct          decimal.Decimal `db:"commission_pct" json:"commission_pct"`
	DiscountPct            decimal.Decimal `db:"discount_pct" json:"discount_pct"`
	EffectiveCommission    decimal.Decimal `db:"effective_commission" json:"effective_commission"`
	CommissionSats         int64           `db:"commission_sats" json:"commission_sats"`
	BaseSats               int64           `db:"base_sats" json:"base_sats"`
	ExchangeRate           decimal.Decimal `db:"exchange_rate" json:"exchange_rate"` // sats per fiat minor unit
	DistributionsTotalSats int64           `db:"distributions_total_sats" json:"distributions_total_sats"`
	ClientsCount           int             `db:"clients_count" json:"clients_count"`
	CryptoCode             string          `db:"crypto_code" json:"crypto_code"`
	FiatCode               string          `db:"fiat_code" json:"fiat_code"`
	DeviceId               string          `db:"device_id" json:"device_id"`
	TransactionTime        time.Time       `db:"transaction_time" json:"transaction_time"`
	ProcessedAt            time.Time       `db:"processed_at" json:"processed_at"`
}

// DistributionStatus is the lifecycle state of one outbound payment.
type DistributionStatus string

const (
	DistributionPending   DistributionStatus = "pending"
	DistributionConfirmed DistributionStatus = "confirmed"
	DistributionFailed    DistributionStatus = "failed"
)

// Distribution is one client's slice of a processed transaction.
// Pending rows hold their fiat reservation; a failed row releases the fiat
// charge but stays in the audit trail until an operator reconciles it.
type Distribution struct {
	Id           string             `db:"id" json:"id"`
	ExternalId   string             `db:"external_id" json:"external_id"`
	ClientId     string             `db:"client_id" json:"client_id"`
	AmountSats   int64              `db:"amount_sats" json:"amount_sats"`
	AmountFiat   int64              `db:"amount_fiat" json:"amount_fiat"`
	ExchangeRate decimal.Decimal    `db:"exchange_rate" json:"exchange_rate"`
	Status       DistributionStatus `db:"status" json:"status"`
	Detail       string             `db:"detail" json:"detail,omitempty"`
	CreatedAt    time.Time          `db:"created_at" json:"created_at"`
}

// ClientBalance is the derived balance view for a client.
// TotalPayments counts pending and confirmed distributions, so a reservation
// is charged the moment it is written.
type ClientBalance struct {
	ClientId         string `db:"client_id"`
	TotalDeposits    int64  `db:"total_deposits"`
	TotalPayments    int64  `db:"total_payments"`
	RemainingBalance int64  `db:"remaining_balance"`
}
