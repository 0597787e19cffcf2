package models

import "time"

// ClientWithBalance is the client list view, balances recomputed per request.
type ClientWithBalance struct {
	DcaClient
	TotalDeposits    int64 `json:"total_deposits"`
	TotalPayments    int64 `json:"total_payments"`
	RemainingBalance int64 `json:"remaining_balance"`
}

// RemoteConfigView is the read surface for RemoteConfig. Credentials are
// write-only: the view carries presence flags, never the stored values.
type RemoteConfigView struct {
	Id                 string     `json:"id"`
	Host               string     `json:"host"`
	Port               int        `json:"port"`
	DatabaseName       string     `json:"database_name"`
	Username           string     `json:"username"`
	HasPassword        bool       `json:"has_password"`
	UseSSHTunnel       bool       `json:"use_ssh_tunnel"`
	SSHHost            string     `json:"ssh_host"`
	SSHPort            int        `json:"ssh_port"`
	SSHUsername        string     `json:"ssh_username"`
	HasSSHPassword     bool       `json:"has_ssh_password"`
	HasSSHPrivateKey   bool       `json:"has_ssh_private_key"`
	SourceWalletId     string     `json:"source_wallet_id"`
	CommissionWalletId string     `json:"commission_wallet_id"`
	LastPollTime       *time.Time `json:"last_poll_time"`
	LastSuccessfulPoll *time.Time `json:"last_successful_poll"`
	LastTestOk         bool       `json:"last_test_ok"`
	LastTestDetail     string     `json:"last_test_detail"`
	LastTestTime       *time.Time `json:"last_test_time"`
}

// View redacts credentials for the admin read surface.
func (c *RemoteConfig) View() RemoteConfigView {
	return RemoteConfigView{
		Id:                 c.Id,
		Host:               c.Host,
		Port:               c.Port,
		DatabaseName:       c.DatabaseName,
		Username:           c.Username,
		HasPassword:        c.Password != "",
		UseSSHTunnel:       c.UseSSHTunnel,
		SSHHost:            c.SSHHost,
		SSHPort:            c.SSHPort,
		SSHUsername:        c.SSHUsername,
		HasSSHPassword:     c.SSHPassword != "",
		HasSSHPrivateKey:   c.SSHPrivateKey != "",
		SourceWalletId:     c.SourceWalletId,
		CommissionWalletId: c.CommissionWalletId,
		LastPollTime:       c.LastPollTime,
		LastSuccessfulPoll: c.LastSuccessfulPoll,
		LastTestOk:         c.LastTestOk,
		LastTestDetail:     c.LastTestDetail,
		LastTestTime:       c.LastTestTime,
	}
}
