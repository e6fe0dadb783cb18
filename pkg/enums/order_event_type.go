package enums

// OrderEventType labels rows in the order audit trail.
type OrderEventType string

const (
	OrderEventCreated         OrderEventType = "order_created"
	OrderEventPaymentRecorded OrderEventType = "payment_recorded"
	OrderEventCanceled        OrderEventType = "order_canceled"
	OrderEventShippingUpdated OrderEventType = "shipping_updated"
)

// String implements fmt.Stringer.
func (e OrderEventType) String() string {
	return string(e)
}
