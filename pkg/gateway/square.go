package gateway

import (
	"context"
	"strings"

	sq "github.com/square/square-go-sdk"

	"github.com/angelmondragon/partsdealer-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/partsdealer-backend/pkg/errors"
	"github.com/angelmondragon/partsdealer-backend/pkg/square"
)

type squarePayments interface {
	CreatePayment(ctx context.Context, params square.PaymentCreateParams) (*sq.Payment, error)
}

// Square charges stored cards through the Square Payments API. The destination
// account is the card id (or nonce) Square issued for the payment method.
type Square struct {
	client squarePayments
}

func NewSquare(client squarePayments) *Square {
	return &Square{client: client}
}

func (s *Square) Name() string { return config.PaymentProviderSquare }

func (s *Square) Submit(ctx context.Context, req SubmitRequest) (SubmitResult, error) {
	if s == nil || s.client == nil {
		return SubmitResult{}, pkgerrors.New(pkgerrors.CodeDependency, "square gateway not configured")
	}
	payment, err := s.client.CreatePayment(ctx, square.PaymentCreateParams{
		AmountCents:    req.AmountCents,
		Currency:       req.Currency,
		SourceID:       req.DestinationAccount,
		IdempotencyKey: req.Reference,
		ReferenceID:    req.Reference,
	})
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodePaymentFailed) {
			return SubmitResult{Accepted: false, Reason: declineReason(err)}, nil
		}
		return SubmitResult{}, err
	}

	status := strings.ToUpper(deref(payment.GetStatus()))
	switch status {
	case "COMPLETED", "APPROVED":
		return SubmitResult{Accepted: true, TransactionID: deref(payment.GetID())}, nil
	default:
		return SubmitResult{Accepted: false, Reason: "square payment " + strings.ToLower(status)}, nil
	}
}

func declineReason(err error) string {
	if typed := pkgerrors.As(err); typed != nil {
		if details, ok := typed.Details().(map[string]string); ok && details["reason"] != "" {
			return details["reason"]
		}
		return typed.Message()
	}
	return err.Error()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
