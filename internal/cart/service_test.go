package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/partsdealer-backend/internal/products"
	"github.com/angelmondragon/partsdealer-backend/pkg/db/dbtest"
	"github.com/angelmondragon/partsdealer-backend/pkg/db/models"
	"github.com/angelmondragon/partsdealer-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/partsdealer-backend/pkg/errors"
	"github.com/angelmondragon/partsdealer-backend/pkg/types"
)

type fixture struct {
	svc  Service
	conn *gorm.DB
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	client, conn := dbtest.Client(t)
	svc, err := NewService(NewRepository(conn), products.NewRepository(conn), client)
	require.NoError(t, err)
	return fixture{svc: svc, conn: conn}
}

func (f fixture) product(t *testing.T, dealerID uuid.UUID, price int64, stock int) models.Product {
	t.Helper()
	p := models.Product{
		DealerID:      dealerID,
		SKU:           uuid.NewString()[:8],
		Name:          "Part " + uuid.NewString()[:4],
		PriceCents:    price,
		StockQuantity: stock,
		IsActive:      true,
	}
	require.NoError(t, f.conn.Create(&p).Error)
	return p
}

func (f fixture) setStock(t *testing.T, id uuid.UUID, stock int) {
	t.Helper()
	require.NoError(t, f.conn.Model(&models.Product{}).Where("id = ?", id).Update("stock_quantity", stock).Error)
}

func TestAddItemMergesRepeatedProduct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	buyer := uuid.New()
	p := f.product(t, uuid.New(), 1000, 5)

	_, err := f.svc.AddItem(ctx, buyer, AddItemInput{ProductID: p.ID, Quantity: 2})
	require.NoError(t, err)
	item, err := f.svc.AddItem(ctx, buyer, AddItemInput{ProductID: p.ID, Quantity: 3, SelectedOptions: types.SelectedOptions{"side": "left"}})
	require.NoError(t, err)
	require.Equal(t, 5, item.Quantity)

	var rows []models.CartItem
	require.NoError(t, f.conn.Where("buyer_id = ?", buyer).Find(&rows).Error)
	require.Len(t, rows, 1)
	require.Equal(t, 5, rows[0].Quantity)
	require.Equal(t, "left", rows[0].SelectedOptions["side"])
}

func TestAddItemRejectsCombinedQuantityOverStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	buyer := uuid.New()
	p := f.product(t, uuid.New(), 1000, 5)

	_, err := f.svc.AddItem(ctx, buyer, AddItemInput{ProductID: p.ID, Quantity: 4})
	require.NoError(t, err)

	_, err = f.svc.AddItem(ctx, buyer, AddItemInput{ProductID: p.ID, Quantity: 2})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock))
	require.Contains(t, pkgerrors.As(err).Message(), "only 1 more can be added")

	_, err = f.svc.AddItem(ctx, uuid.New(), AddItemInput{ProductID: p.ID, Quantity: 6})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock))
	details := pkgerrors.As(err).Details().(StockDetails)
	require.Equal(t, 5, details.AvailableQuantity)
}

func TestAddItemProductChecks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	buyer := uuid.New()

	_, err := f.svc.AddItem(ctx, buyer, AddItemInput{ProductID: uuid.New(), Quantity: 1})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeProductNotFound))

	inactive := f.product(t, uuid.New(), 1000, 5)
	require.NoError(t, f.conn.Model(&models.Product{}).Where("id = ?", inactive.ID).Update("is_active", false).Error)
	_, err = f.svc.AddItem(ctx, buyer, AddItemInput{ProductID: inactive.ID, Quantity: 1})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeProductUnavailable))

	empty := f.product(t, uuid.New(), 1000, 0)
	_, err = f.svc.AddItem(ctx, buyer, AddItemInput{ProductID: empty.ID, Quantity: 1})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeOutOfStock))

	_, err = f.svc.AddItem(ctx, buyer, AddItemInput{ProductID: empty.ID, Quantity: 0})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestUpdateQuantity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	buyer := uuid.New()
	p := f.product(t, uuid.New(), 1000, 5)
	item, err := f.svc.AddItem(ctx, buyer, AddItemInput{ProductID: p.ID, Quantity: 1})
	require.NoError(t, err)

	updated, err := f.svc.UpdateQuantity(ctx, buyer, item.ID, 4)
	require.NoError(t, err)
	require.Equal(t, 4, updated.Quantity)

	_, err = f.svc.UpdateQuantity(ctx, uuid.New(), item.ID, 2)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "other buyers cannot touch the line")

	_, err = f.svc.UpdateQuantity(ctx, buyer, item.ID, 0)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.UpdateQuantity(ctx, buyer, item.ID, 6)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock))
}

func TestRemoveAndClearAreIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	buyer := uuid.New()
	a := f.product(t, uuid.New(), 1000, 5)
	b := f.product(t, uuid.New(), 1000, 5)
	item, err := f.svc.AddItem(ctx, buyer, AddItemInput{ProductID: a.ID, Quantity: 1})
	require.NoError(t, err)
	_, err = f.svc.AddItem(ctx, buyer, AddItemInput{ProductID: b.ID, Quantity: 1})
	require.NoError(t, err)

	require.NoError(t, f.svc.RemoveItem(ctx, buyer, item.ID))
	require.NoError(t, f.svc.RemoveItem(ctx, buyer, item.ID))

	view, err := f.svc.GetCart(ctx, buyer)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)

	require.NoError(t, f.svc.Clear(ctx, buyer))
	require.NoError(t, f.svc.Clear(ctx, buyer))
	view, err = f.svc.GetCart(ctx, buyer)
	require.NoError(t, err)
	require.True(t, view.IsEmpty())
}

func TestGetCartGroupsByDealer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	buyer := uuid.New()
	dealerA, dealerB := uuid.New(), uuid.New()
	p := f.product(t, dealerA, 1000, 5)
	q := f.product(t, dealerB, 2500, 1)

	_, err := f.svc.AddItem(ctx, buyer, AddItemInput{ProductID: p.ID, Quantity: 2})
	require.NoError(t, err)
	_, err = f.svc.AddItem(ctx, buyer, AddItemInput{ProductID: q.ID, Quantity: 1})
	require.NoError(t, err)

	view, err := f.svc.GetCart(ctx, buyer)
	require.NoError(t, err)
	require.Equal(t, int64(4500), view.SubtotalCents)
	require.Equal(t, 3, view.ItemCount)
	require.Len(t, view.DealerGroups, 2)

	subtotals := map[uuid.UUID]int64{}
	for _, g := range view.DealerGroups {
		subtotals[g.DealerID] = g.SubtotalCents
	}
	require.Equal(t, int64(2000), subtotals[dealerA])
	require.Equal(t, int64(2500), subtotals[dealerB])
}

func TestGetCartUsesSalePrice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	buyer := uuid.New()
	p := f.product(t, uuid.New(), 1000, 5)
	sale := int64(800)
	require.NoError(t, f.conn.Model(&models.Product{}).Where("id = ?", p.ID).Update("sale_price_cents", sale).Error)

	_, err := f.svc.AddItem(ctx, buyer, AddItemInput{ProductID: p.ID, Quantity: 2})
	require.NoError(t, err)

	view, err := f.svc.GetCart(ctx, buyer)
	require.NoError(t, err)
	require.Equal(t, int64(800), view.Items[0].UnitPriceCents)
	require.Equal(t, int64(1600), view.Items[0].ItemTotalCents)
	require.Equal(t, int64(1600), view.SubtotalCents)
}

func TestValidateReportsLiveStockIssues(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	buyer := uuid.New()
	ok := f.product(t, uuid.New(), 1000, 5)
	short := f.product(t, uuid.New(), 1000, 5)
	gone := f.product(t, uuid.New(), 1000, 5)
	empty := f.product(t, uuid.New(), 1000, 5)

	for _, id := range []uuid.UUID{ok.ID, short.ID, gone.ID, empty.ID} {
		_, err := f.svc.AddItem(ctx, buyer, AddItemInput{ProductID: id, Quantity: 3})
		require.NoError(t, err)
	}

	valid, err := f.svc.Validate(ctx, buyer)
	require.NoError(t, err)
	require.True(t, valid.IsValid)
	require.Empty(t, valid.Issues)

	f.setStock(t, short.ID, 2)
	f.setStock(t, empty.ID, 0)
	require.NoError(t, f.conn.Model(&models.Product{}).Where("id = ?", gone.ID).Update("is_active", false).Error)

	result, err := f.svc.Validate(ctx, buyer)
	require.NoError(t, err)
	require.False(t, result.IsValid)
	require.Len(t, result.Issues, 3)

	byProduct := map[uuid.UUID]types.CartIssue{}
	for _, issue := range result.Issues {
		byProduct[issue.ProductID] = issue
	}
	require.Equal(t, enums.CartIssueInsufficientStock, byProduct[short.ID].Type)
	require.Equal(t, 2, byProduct[short.ID].AvailableQuantity)
	require.Equal(t, enums.CartIssueOutOfStock, byProduct[empty.ID].Type)
	require.Equal(t, enums.CartIssueProductUnavailable, byProduct[gone.ID].Type)

	view, err := f.svc.GetCart(ctx, buyer)
	require.NoError(t, err)
	require.Len(t, view.Items, 4, "validate never mutates the cart")
}

func TestIncrementAddsToStoredQuantity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	buyer := uuid.New()
	p := f.product(t, uuid.New(), 1000, 10)
	item, err := f.svc.AddItem(ctx, buyer, AddItemInput{ProductID: p.ID, Quantity: 2})
	require.NoError(t, err)

	// Two writers that both read quantity 2 before writing.
	repo := NewRepository(f.conn)
	require.NoError(t, repo.Increment(ctx, buyer, item.ID, 1, nil))
	require.NoError(t, repo.Increment(ctx, buyer, item.ID, 3, nil))

	stored, err := repo.FindByID(ctx, buyer, item.ID)
	require.NoError(t, err)
	require.Equal(t, 6, stored.Quantity)
}

func TestClearCheckedOutTxKeepsLinesAddedAfterSnapshot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	buyer := uuid.New()
	p := f.product(t, uuid.New(), 1000, 5)
	q := f.product(t, uuid.New(), 2500, 5)
	_, err := f.svc.AddItem(ctx, buyer, AddItemInput{ProductID: p.ID, Quantity: 2})
	require.NoError(t, err)

	snapshot, err := f.svc.GetCart(ctx, buyer)
	require.NoError(t, err)
	_, err = f.svc.AddItem(ctx, buyer, AddItemInput{ProductID: q.ID, Quantity: 1})
	require.NoError(t, err)

	require.NoError(t, f.conn.Transaction(func(tx *gorm.DB) error {
		return f.svc.ClearCheckedOutTx(ctx, tx, buyer, snapshot.Items)
	}))

	view, err := f.svc.GetCart(ctx, buyer)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	require.Equal(t, q.ID, view.Items[0].ProductID)
}

func TestClearCheckedOutTxRejectsChangedQuantity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	buyer := uuid.New()
	p := f.product(t, uuid.New(), 1000, 5)
	_, err := f.svc.AddItem(ctx, buyer, AddItemInput{ProductID: p.ID, Quantity: 2})
	require.NoError(t, err)

	snapshot, err := f.svc.GetCart(ctx, buyer)
	require.NoError(t, err)
	_, err = f.svc.AddItem(ctx, buyer, AddItemInput{ProductID: p.ID, Quantity: 1})
	require.NoError(t, err)

	err = f.conn.Transaction(func(tx *gorm.DB) error {
		return f.svc.ClearCheckedOutTx(ctx, tx, buyer, snapshot.Items)
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	view, err := f.svc.GetCart(ctx, buyer)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	require.Equal(t, 3, view.Items[0].Quantity)
}
