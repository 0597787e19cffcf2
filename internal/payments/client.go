package payments

import (
	"context"
	"fmt"
)

// Invoice is a Lightning invoice created on a destination wallet.
type Invoice struct {
	PaymentHash    string
	PaymentRequest string
}

// PaymentError wraps a failure talking to the payment backend, tagged with
// the operation and wallet so one client's failure can be reported without
// ambiguity.
type PaymentError struct {
	Op       string
	WalletId string
	Err      error
}

func (e *PaymentError) Error() string {
	return fmt.Sprintf("payment %s (wallet %s): %v", e.Op, e.WalletId, e.Err)
}

func (e *PaymentError) Unwrap() error {
	return e.Err
}

// Client is the payment backend contract. Wallet ids double as the backend's
// per-wallet API keys.
type Client interface {
	// CreateInvoice creates an invoice for amountSats on the destination wallet.
	CreateInvoice(ctx context.Context, walletId string, amountSats int64, memo string) (*Invoice, error)
	// PayInvoice pays a bolt11 invoice from the given wallet and returns the
	// payment hash.
	PayInvoice(ctx context.Context, walletId, bolt11 string) (string, error)
}
