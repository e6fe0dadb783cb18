package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/partsdealer-backend/pkg/db/dbtest"
	"github.com/angelmondragon/partsdealer-backend/pkg/db/models"
	"github.com/angelmondragon/partsdealer-backend/pkg/enums"
	"github.com/angelmondragon/partsdealer-backend/pkg/pagination"
)

func seedOrder(t *testing.T, conn *gorm.DB, buyer uuid.UUID, number string, status enums.OrderStatus, created time.Time, dealers ...uuid.UUID) models.Order {
	t.Helper()
	order := models.Order{
		OrderNumber:     number,
		BuyerID:         buyer,
		Status:          status,
		PaymentStatus:   enums.OrderPaymentStatusUnpaid,
		ShippingStatus:  enums.ShippingStatusPending,
		ShippingAddress: address(),
		ShippingMethod:  enums.ShippingMethodStandard,
		Currency:        "USD",
		CreatedAt:       created,
	}
	for _, dealer := range dealers {
		order.Items = append(order.Items, models.OrderItem{
			ProductID:      uuid.New(),
			DealerID:       dealer,
			ProductName:    "Brake pad",
			Quantity:       1,
			UnitPriceCents: 1000,
			TotalCents:     1000,
		})
		order.SubtotalCents += 1000
	}
	order.TotalCents = order.SubtotalCents
	require.NoError(t, conn.Create(&order).Error)
	return order
}

func ptr[T any](v T) *T {
	return &v
}

func TestRepositoryListBuyerOrdersFilters(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	buyer := uuid.New()
	base := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

	seedOrder(t, conn, buyer, "PD-20261001-AAAAAA", enums.OrderStatusPending, base, uuid.New())
	seedOrder(t, conn, buyer, "PD-20261002-BBBBBB", enums.OrderStatusShipped, base.Add(24*time.Hour), uuid.New())
	seedOrder(t, conn, buyer, "PD-20261003-CCCCCC", enums.OrderStatusPending, base.Add(48*time.Hour), uuid.New())
	seedOrder(t, conn, uuid.New(), "PD-20261003-DDDDDD", enums.OrderStatusPending, base, uuid.New())

	rows, next, err := repo.ListBuyerOrders(ctx, buyer, pagination.Params{}, OrderFilters{})
	require.NoError(t, err)
	require.Empty(t, next)
	require.Len(t, rows, 3)
	require.Equal(t, "PD-20261003-CCCCCC", rows[0].OrderNumber, "newest first")
	require.Len(t, rows[0].Items, 1)

	rows, _, err = repo.ListBuyerOrders(ctx, buyer, pagination.Params{}, OrderFilters{Status: ptr(enums.OrderStatusPending)})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	rows, _, err = repo.ListBuyerOrders(ctx, buyer, pagination.Params{}, OrderFilters{Query: "bbbb"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, enums.OrderStatusShipped, rows[0].Status)

	rows, _, err = repo.ListBuyerOrders(ctx, buyer, pagination.Params{}, OrderFilters{
		DateFrom: ptr(base.Add(time.Hour)),
		DateTo:   ptr(base.Add(47 * time.Hour)),
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "PD-20261002-BBBBBB", rows[0].OrderNumber)
}

func TestRepositoryListDealerOrdersProjectsItems(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	dealerA, dealerB := uuid.New(), uuid.New()
	base := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

	shared := seedOrder(t, conn, uuid.New(), "PD-20261001-AAAAAA", enums.OrderStatusPending, base, dealerA, dealerB, dealerB)
	seedOrder(t, conn, uuid.New(), "PD-20261001-BBBBBB", enums.OrderStatusPending, base.Add(time.Hour), dealerB)

	rows, _, err := repo.ListDealerOrders(ctx, dealerA, pagination.Params{}, OrderFilters{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, shared.ID, rows[0].ID)
	require.Len(t, rows[0].Items, 1)
	require.Equal(t, dealerA, rows[0].Items[0].DealerID)

	rows, _, err = repo.ListDealerOrders(ctx, dealerB, pagination.Params{Limit: 1}, OrderFilters{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "PD-20261001-BBBBBB", rows[0].OrderNumber)

	count, err := repo.CountDealerItems(ctx, shared.ID, dealerB)
	require.NoError(t, err)
	require.Equal(t, int64(2), count)
}

func TestRepositoryUpdateIfRequiresExpectedState(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	order := seedOrder(t, conn, uuid.New(), "PD-20261001-AAAAAA", enums.OrderStatusPending, time.Now().UTC(), uuid.New())

	stale := stateOf(&order)
	stale.Status = enums.OrderStatusConfirmed
	n, err := repo.UpdateIf(ctx, order.ID, stale, map[string]any{"status": enums.OrderStatusCanceled})
	require.NoError(t, err)
	require.Zero(t, n)

	n, err = repo.UpdateIf(ctx, order.ID, stateOf(&order), map[string]any{"status": enums.OrderStatusCanceled})
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	reloaded, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusCanceled, reloaded.Status)
	require.Len(t, reloaded.Items, 1)
}
