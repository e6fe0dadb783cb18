package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/partsdealer-backend/pkg/db/models"
	"github.com/angelmondragon/partsdealer-backend/pkg/enums"
	"github.com/angelmondragon/partsdealer-backend/pkg/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:outbox_"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.OutboxEvent{}))
	return conn
}

func TestEmitWritesEnvelopeInsideTransaction(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	svc := NewService(repo, logger.Nop())
	orderID := uuid.New()

	err := db.Transaction(func(tx *gorm.DB) error {
		return svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventOrderCanceled,
			AggregateType: enums.AggregateOrder,
			AggregateID:   orderID,
			Actor:         &ActorRef{UserID: uuid.New(), Role: "buyer"},
			Data:          map[string]string{"reason": "duplicate"},
		})
	})
	require.NoError(t, err)

	rows, err := repo.FetchUnpublished(context.Background(), 10, 5)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, orderID, rows[0].AggregateID)

	var envelope PayloadEnvelope
	require.NoError(t, json.Unmarshal(rows[0].Payload, &envelope))
	require.Equal(t, 1, envelope.Version)
	require.JSONEq(t, `{"reason":"duplicate"}`, string(envelope.Data))
	require.Equal(t, "buyer", envelope.Actor.Role)
}

func TestEmitRolledBackWithTransaction(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	svc := NewService(repo, nil)

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   uuid.New(),
			Data:          map[string]int{"n": 1},
		}); err != nil {
			return err
		}
		return errors.New("abort")
	})
	require.Error(t, err)

	rows, err := repo.FetchUnpublished(context.Background(), 10, 0)
	require.NoError(t, err)
	require.Empty(t, rows)
}

func TestEmitRejectsUnknownTypes(t *testing.T) {
	svc := NewService(NewRepository(nil), nil)
	err := svc.Emit(context.Background(), &gorm.DB{}, DomainEvent{EventType: "nope", AggregateType: enums.AggregateOrder, AggregateID: uuid.New()})
	require.Error(t, err)
	require.Error(t, svc.Emit(context.Background(), nil, DomainEvent{}))
}

func TestMarkFailedAndPublished(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	row := models.OutboxEvent{
		EventType:     enums.EventPaymentFailed,
		AggregateType: enums.AggregatePayment,
		AggregateID:   uuid.New(),
		Payload:       json.RawMessage(`{}`),
	}
	require.NoError(t, repo.Insert(db, row))

	rows, err := repo.FetchUnpublished(ctx, 10, 2)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	id := rows[0].ID

	require.NoError(t, repo.MarkFailed(ctx, id, errors.New("topic unavailable")))
	require.NoError(t, repo.MarkFailed(ctx, id, errors.New("topic unavailable")))

	rows, err = repo.FetchUnpublished(ctx, 10, 2)
	require.NoError(t, err)
	require.Empty(t, rows, "rows at the attempt cap are skipped")

	require.NoError(t, repo.MarkPublished(ctx, id))
	rows, err = repo.FetchUnpublished(ctx, 10, 0)
	require.NoError(t, err)
	require.Empty(t, rows)
}
