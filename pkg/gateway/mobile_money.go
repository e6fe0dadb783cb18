package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/angelmondragon/partsdealer-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/partsdealer-backend/pkg/errors"
)

const (
	chargePath               = "v1/charges"
	responseBodyLimit  int64 = 1024
	statusAccepted           = "accepted"
	defaultHTTPTimeout       = 30 * time.Second
)

var errBaseURLRequired = errors.New("mobile money base url is required")

// MobileMoney talks to a mobile-money aggregator over JSON/HTTP.
type MobileMoney struct {
	httpClient      *http.Client
	baseURL         string
	apiKey          string
	merchantAccount string
}

// Option configures optional MobileMoney behavior.
type Option func(*MobileMoney)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(m *MobileMoney) {
		if client != nil {
			m.httpClient = client
		}
	}
}

// WithMerchantAccount sets the collecting account sent with each charge.
func WithMerchantAccount(account string) Option {
	return func(m *MobileMoney) {
		m.merchantAccount = strings.TrimSpace(account)
	}
}

// NewMobileMoney builds the adapter for the aggregator at baseURL.
func NewMobileMoney(baseURL, apiKey string, opts ...Option) (*MobileMoney, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, errBaseURLRequired
	}
	m := &MobileMoney{
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		baseURL:    trimmed,
		apiKey:     strings.TrimSpace(apiKey),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m, nil
}

func (m *MobileMoney) Name() string { return config.PaymentProviderMobileMoney }

type chargeRequest struct {
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
	Payer           string `json:"payer"`
	MerchantAccount string `json:"merchant_account,omitempty"`
	Reference       string `json:"reference"`
}

type chargeResponse struct {
	Status        string `json:"status"`
	TransactionID string `json:"transaction_id"`
	Reason        string `json:"reason"`
}

// Submit posts the charge. 2xx responses carry the verdict in the body; 402 and
// 422 are treated as rejections so their reason reaches the payment record.
func (m *MobileMoney) Submit(ctx context.Context, req SubmitRequest) (SubmitResult, error) {
	if m == nil {
		return SubmitResult{}, pkgerrors.New(pkgerrors.CodeDependency, "mobile money gateway not configured")
	}
	if req.AmountCents <= 0 {
		return SubmitResult{}, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	if strings.TrimSpace(req.DestinationAccount) == "" {
		return SubmitResult{}, pkgerrors.New(pkgerrors.CodeValidation, "destination account is required")
	}

	payload, err := json.Marshal(chargeRequest{
		Amount:          req.AmountCents,
		Currency:        strings.ToUpper(req.Currency),
		Payer:           req.DestinationAccount,
		MerchantAccount: m.merchantAccount,
		Reference:       req.Reference,
	})
	if err != nil {
		return SubmitResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal charge request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/%s", m.baseURL, chargePath), bytes.NewReader(payload))
	if err != nil {
		return SubmitResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build charge request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Idempotency-Key", req.Reference)
	if m.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+m.apiKey)
	}

	resp, err := m.httpClient.Do(httpReq)
	if err != nil {
		return SubmitResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute charge request")
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusPaymentRequired || resp.StatusCode == http.StatusUnprocessableEntity:
		var body chargeResponse
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyLimit))
		if err := json.Unmarshal(raw, &body); err != nil || body.Reason == "" {
			body.Reason = strings.TrimSpace(string(raw))
		}
		return SubmitResult{Accepted: false, Reason: body.Reason}, nil
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyLimit))
		return SubmitResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency,
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "charge request failed")
	}

	var body chargeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return SubmitResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode charge response")
	}
	if !strings.EqualFold(body.Status, statusAccepted) {
		reason := body.Reason
		if reason == "" {
			reason = fmt.Sprintf("charge %s", strings.ToLower(body.Status))
		}
		return SubmitResult{Accepted: false, Reason: reason}, nil
	}
	if body.TransactionID == "" {
		return SubmitResult{}, pkgerrors.New(pkgerrors.CodeDependency, "accepted charge missing transaction id")
	}
	return SubmitResult{Accepted: true, TransactionID: body.TransactionID}, nil
}
