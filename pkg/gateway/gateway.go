package gateway

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/partsdealer-backend/pkg/config"
	"github.com/angelmondragon/partsdealer-backend/pkg/logger"
	"github.com/angelmondragon/partsdealer-backend/pkg/square"
)

// SubmitRequest is a single charge against the external payment collaborator.
type SubmitRequest struct {
	AmountCents        int64
	Currency           string
	DestinationAccount string
	Reference          string
}

// SubmitResult reports whether the provider accepted the charge. A rejection is
// a successful call with Accepted=false and a Reason; transport failures are
// returned as errors.
type SubmitResult struct {
	Accepted      bool
	TransactionID string
	Reason        string
}

// Gateway submits payments to an external provider.
type Gateway interface {
	Name() string
	Submit(ctx context.Context, req SubmitRequest) (SubmitResult, error)
}

// New selects the configured provider.
func New(ctx context.Context, cfg *config.Config, logg *logger.Logger) (Gateway, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Payment.Provider)) {
	case config.PaymentProviderMobileMoney:
		return NewMobileMoney(cfg.MobileMoney.BaseURL, cfg.MobileMoney.APIKey,
			WithMerchantAccount(cfg.MobileMoney.MerchantAccount))
	case config.PaymentProviderSquare:
		client, err := square.NewClient(ctx, cfg.Square, logg)
		if err != nil {
			return nil, err
		}
		return NewSquare(client), nil
	default:
		return nil, fmt.Errorf("unsupported payment provider %q", cfg.Payment.Provider)
	}
}
