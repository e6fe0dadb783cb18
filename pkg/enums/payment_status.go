package enums

import "fmt"

// OrderPaymentStatus is the payment state summarised on the order row.
type OrderPaymentStatus string

const (
	OrderPaymentStatusUnpaid        OrderPaymentStatus = "unpaid"
	OrderPaymentStatusPaid          OrderPaymentStatus = "paid"
	OrderPaymentStatusRefundPending OrderPaymentStatus = "refund_pending"
)

var validOrderPaymentStatuses = []OrderPaymentStatus{
	OrderPaymentStatusUnpaid,
	OrderPaymentStatusPaid,
	OrderPaymentStatusRefundPending,
}

// String implements fmt.Stringer.
func (s OrderPaymentStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known OrderPaymentStatus.
func (s OrderPaymentStatus) IsValid() bool {
	for _, candidate := range validOrderPaymentStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseOrderPaymentStatus converts raw input into an OrderPaymentStatus.
func ParseOrderPaymentStatus(value string) (OrderPaymentStatus, error) {
	for _, candidate := range validOrderPaymentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order payment status %q", value)
}

// PaymentAttemptStatus is the lifecycle of a single payment attempt.
type PaymentAttemptStatus string

const (
	PaymentAttemptPending   PaymentAttemptStatus = "pending"
	PaymentAttemptSucceeded PaymentAttemptStatus = "succeeded"
	PaymentAttemptFailed    PaymentAttemptStatus = "failed"
)

var validPaymentAttemptStatuses = []PaymentAttemptStatus{
	PaymentAttemptPending,
	PaymentAttemptSucceeded,
	PaymentAttemptFailed,
}

// String implements fmt.Stringer.
func (s PaymentAttemptStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known PaymentAttemptStatus.
func (s PaymentAttemptStatus) IsValid() bool {
	for _, candidate := range validPaymentAttemptStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the attempt has finished.
func (s PaymentAttemptStatus) IsTerminal() bool {
	return s == PaymentAttemptSucceeded || s == PaymentAttemptFailed
}

// ParsePaymentAttemptStatus converts raw input into a PaymentAttemptStatus.
func ParsePaymentAttemptStatus(value string) (PaymentAttemptStatus, error) {
	for _, candidate := range validPaymentAttemptStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment attempt status %q", value)
}
