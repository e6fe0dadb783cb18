package models

import "github.com/google/uuid"

// ensureID assigns a v4 id when the caller did not set one. IDs are minted in
// the application so rows can be referenced before commit (outbox payloads,
// audit events) and so the same models run on sqlite in tests.
func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

// All returns every model owned by the service, in dependency order. Tests use
// it with AutoMigrate; production schema comes from the goose migrations.
func All() []any {
	return []any{
		&Dealer{},
		&Product{},
		&CartItem{},
		&PaymentMethod{},
		&Order{},
		&OrderItem{},
		&OrderEvent{},
		&Payment{},
		&DealerReview{},
		&OutboxEvent{},
	}
}
