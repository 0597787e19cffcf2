package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RemoteTransaction is one completed cash-out row read from the Lamassu
// operational database. Rows are owned by the ATM operator and never mutated.
type RemoteTransaction struct {
	ExternalId      string
	FiatAmount      int64 // fiat dispensed, integer minor units
	CryptoAmount    int64 // sats, commission included
	CommissionPct   decimal.Decimal
	DiscountPct     decimal.Decimal
	CryptoCode      string
	FiatCode        string
	DeviceId        string
	TransactionTime time.Time
}

// RemoteConfig holds the connection settings for the Lamassu database plus
// the wallet routing for distributions. At most one row is active.
type RemoteConfig struct {
	Id                 string     `db:"id"`
	Host               string     `db:"host"`
	Port               int        `db:"port"`
	DatabaseName       string     `db:"database_name"`
	Username           string     `db:"username"`
	Password           string     `db:"password"`
	UseSSHTunnel       bool       `db:"use_ssh_tunnel"`
	SSHHost            string     `db:"ssh_host"`
	SSHPort            int        `db:"ssh_port"`
	SSHUsername        string     `db:"ssh_username"`
	SSHPassword        string     `db:"ssh_password"`
	SSHPrivateKey      string     `db:"ssh_private_key"`
	SourceWalletId     string     `db:"source_wallet_id"`
	CommissionWalletId string     `db:"commission_wallet_id"`
	LastPollTime       *time.Time `db:"last_poll_time"`
	LastSuccessfulPoll *time.Time `db:"last_successful_poll"`
	LastTestOk         bool       `db:"last_test_ok"`
	LastTestDetail     string     `db:"last_test_detail"`
	LastTestTime       *time.Time `db:"last_test_time"`
	UpdatedAt          time.Time  `db:"updated_at"`
}
