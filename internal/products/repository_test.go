package products

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/partsdealer-backend/pkg/db/dbtest"
	"github.com/angelmondragon/partsdealer-backend/pkg/db/models"
)

func seedProduct(t *testing.T, conn *gorm.DB, stock int, active bool) models.Product {
	t.Helper()
	p := models.Product{
		DealerID:      uuid.New(),
		SKU:           "BRK-" + uuid.NewString()[:6],
		Name:          "Brake pad",
		PriceCents:    1000,
		StockQuantity: stock,
		IsActive:      active,
	}
	require.NoError(t, conn.Create(&p).Error)
	return p
}

func TestDecrementStockGuardsQuantity(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	p := seedProduct(t, conn, 3, true)

	ok, err := repo.DecrementStock(ctx, p.ID, 2)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = repo.DecrementStock(ctx, p.ID, 2)
	require.NoError(t, err)
	require.False(t, ok, "only one unit left")

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, 1, got.StockQuantity)
}

func TestDecrementStockSkipsInactive(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	p := seedProduct(t, conn, 10, false)

	ok, err := repo.DecrementStock(context.Background(), p.ID, 1)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestIncrementStockAndListByIDs(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	a := seedProduct(t, conn, 0, true)
	b := seedProduct(t, conn, 4, true)

	require.NoError(t, repo.IncrementStock(ctx, a.ID, 2))

	byID, err := repo.ListByIDs(ctx, []uuid.UUID{a.ID, b.ID, uuid.New()})
	require.NoError(t, err)
	require.Len(t, byID, 2)
	require.Equal(t, 2, byID[a.ID].StockQuantity)
	require.Equal(t, 4, byID[b.ID].StockQuantity)

	empty, err := repo.ListByIDs(ctx, nil)
	require.NoError(t, err)
	require.Empty(t, empty)
}

func TestGetByIDNotFound(t *testing.T) {
	repo := NewRepository(dbtest.Open(t))
	_, err := repo.GetByID(context.Background(), uuid.New())
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
