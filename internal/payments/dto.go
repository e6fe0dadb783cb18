package payments

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/partsdealer-backend/pkg/db/models"
	"github.com/angelmondragon/partsdealer-backend/pkg/enums"
)

// CreateMethodInput is the payload for saving a payment method.
type CreateMethodInput struct {
	Type         enums.PaymentMethodType `json:"type" validate:"required,oneof=mobile_money card"`
	Provider     string                  `json:"provider" validate:"omitempty,max=64"`
	MobileNumber string                  `json:"mobile_number" validate:"required_if=Type mobile_money,omitempty,e164"`
	CardToken    string                  `json:"card_token" validate:"required_if=Type card,omitempty,max=255"`
	Label        string                  `json:"label" validate:"omitempty,max=100"`
	IsDefault    bool                    `json:"is_default"`
}

// ProcessInput describes one attempt to collect an order's amount.
type ProcessInput struct {
	OrderID         uuid.UUID
	BuyerID         uuid.UUID
	PaymentMethodID uuid.UUID
	AmountCents     int64
}

// FailureDetails accompanies PAYMENT_FAILED errors.
type FailureDetails struct {
	PaymentID uuid.UUID `json:"payment_id"`
	Provider  string    `json:"provider"`
	Reason    string    `json:"reason"`
}

// MethodView is the client representation of a saved payment method. Card
// tokens and phone numbers are masked.
type MethodView struct {
	ID           uuid.UUID               `json:"id"`
	Type         enums.PaymentMethodType `json:"type"`
	Provider     string                  `json:"provider"`
	MobileNumber *string                 `json:"mobile_number,omitempty"`
	CardLast4    *string                 `json:"card_last4,omitempty"`
	Label        *string                 `json:"label,omitempty"`
	IsDefault    bool                    `json:"is_default"`
	CreatedAt    time.Time               `json:"created_at"`
}

// PaymentView is the client representation of a payment attempt.
type PaymentView struct {
	ID              uuid.UUID                  `json:"id"`
	OrderID         uuid.UUID                  `json:"order_id"`
	PaymentMethodID uuid.UUID                  `json:"payment_method_id"`
	AmountCents     int64                      `json:"amount_cents"`
	Currency        string                     `json:"currency"`
	Provider        string                     `json:"provider"`
	Status          enums.PaymentAttemptStatus `json:"status"`
	TransactionID   *string                    `json:"transaction_id,omitempty"`
	ErrorMessage    *string                    `json:"error_message,omitempty"`
	CreatedAt       time.Time                  `json:"created_at"`
	UpdatedAt       time.Time                  `json:"updated_at"`
}

func NewMethodView(m models.PaymentMethod) MethodView {
	view := MethodView{
		ID:        m.ID,
		Type:      m.Type,
		Provider:  m.Provider,
		Label:     m.Label,
		IsDefault: m.IsDefault,
		CreatedAt: m.CreatedAt,
	}
	if m.MobileNumber != nil {
		masked := maskTail(*m.MobileNumber, 4)
		view.MobileNumber = &masked
	}
	if m.CardToken != nil {
		last4 := lastN(*m.CardToken, 4)
		view.CardLast4 = &last4
	}
	return view
}

func NewPaymentView(p models.Payment) PaymentView {
	return PaymentView{
		ID:              p.ID,
		OrderID:         p.OrderID,
		PaymentMethodID: p.PaymentMethodID,
		AmountCents:     p.AmountCents,
		Currency:        p.Currency,
		Provider:        p.Provider,
		Status:          p.Status,
		TransactionID:   p.TransactionID,
		ErrorMessage:    p.ErrorMessage,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

func maskTail(value string, keep int) string {
	if len(value) <= keep {
		return value
	}
	return strings.Repeat("*", len(value)-keep) + value[len(value)-keep:]
}

func lastN(value string, n int) string {
	if len(value) <= n {
		return value
	}
	return value[len(value)-n:]
}
