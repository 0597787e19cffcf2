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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"lamassu-dca-go/internal/models"
)

// LNbits talks to an LNbits instance over its REST API. Internal transfers
// between wallets on the same instance settle without touching the network.
type LNbits struct {
	baseURL string
	client  *http.Client
}

func NewLNbits(cfg models.LNbitsConfig) *LNbits {
	return &LNbits{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: cfg.RequestTimeout},
	}
}

type lnbitsPaymentRequest struct {
	Out    bool   `json:"out"`
	Amount int64  `json:"amount,omitempty"`
	Memo   string `json:"memo,omitempty"`
	Unit   string `json:"unit,omitempty"`
	Bolt11 string `json:"bolt11,omitempty"`
}

type lnbitsPaymentResponse struct {
	PaymentHash    string `json:"payment_hash"`
	PaymentRequest string `json:"payment_request"`
	Bolt11         string `json:"bolt11"`
	Detail         string `json:"detail"`
}

func (l *LNbits) CreateInvoice(ctx context.Context, walletId string, amountSats int64, memo string) (*Invoice, error) {
	resp, err := l.post(ctx, walletId, lnbitsPaymentRequest{
		Out:    false,
		Amount: amountSats,
		Memo:   memo,
		Unit:   "sat",
	})
	if err != nil {
		return nil, &PaymentError{Op: "create invoice", WalletId: walletId, Err: err}
	}

	bolt11 := resp.PaymentRequest
	if bolt11 == "" {
		bolt11 = resp.Bolt11
	}
	if bolt11 == "" || resp.PaymentHash == "" {
		return nil, &PaymentError{Op: "create invoice", WalletId: walletId,
			Err: fmt.Errorf("response missing payment_request or payment_hash")}
	}
	return &Invoice{PaymentHash: resp.PaymentHash, PaymentRequest: bolt11}, nil
}

func (l *LNbits) PayInvoice(ctx context.Context, walletId, bolt11 string) (string, error) {
	resp, err := l.post(ctx, walletId, lnbitsPaymentRequest{
		Out:    true,
		Bolt11: bolt11,
	})
	if err != nil {
		return "", &PaymentError{Op: "pay invoice", WalletId: walletId, Err: err}
	}
	if resp.PaymentHash == "" {
		return "", &PaymentError{Op: "pay invoice", WalletId: walletId,
			Err: fmt.Errorf("response missing payment_hash")}
	}
	return resp.PaymentHash, nil
}

func (l *LNbits) post(ctx context.Context, walletKey string, payload lnbitsPaymentRequest) (*lnbitsPaymentResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		l.baseURL+"/api/v1/payments", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", walletKey)

	httpResp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		if err := httpResp.Body.Close(); err != nil {
			zap.L().Warn("Failed to close response body", zap.Error(err))
		}
	}()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var resp lnbitsPaymentResponse
	if err := json.Unmarshal(respBody, &resp); err != nil && httpResp.StatusCode < 300 {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if httpResp.StatusCode >= 300 {
		detail := resp.Detail
		if detail == "" {
			detail = string(respBody)
		}
		return nil, fmt.Errorf("status %d: %s", httpResp.StatusCode, detail)
	}
	return &resp, nil
}
