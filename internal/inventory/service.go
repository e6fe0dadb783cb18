package inventory

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/partsdealer-backend/internal/products"
	pkgerrors "github.com/angelmondragon/partsdealer-backend/pkg/errors"
)

// Line is a quantity of one product to take from or return to stock.
type Line struct {
	ProductID uuid.UUID
	Quantity  int
}

// Shortage is attached as details to stock errors so callers can show what is
// still purchasable.
type Shortage struct {
	ProductID         uuid.UUID `json:"product_id"`
	RequestedQuantity int       `json:"requested_quantity"`
	AvailableQuantity int       `json:"available_quantity"`
}

// Service moves stock for checkout and cancellation. Both operations run on
// the caller's transaction.
type Service interface {
	Reserve(ctx context.Context, tx *gorm.DB, lines []Line) error
	Release(ctx context.Context, tx *gorm.DB, lines []Line) error
}

type service struct {
	products products.Repository
}

func NewService(repo products.Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	return &service{products: repo}, nil
}

// Reserve decrements every line with a guarded UPDATE. The first line the
// guard rejects aborts the reservation with a stock error; the caller's
// rollback undoes the lines already taken. Lines are applied in product id
// order so concurrent checkouts lock rows in the same sequence.
func (s *service) Reserve(ctx context.Context, tx *gorm.DB, lines []Line) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "stock reservation requires a transaction")
	}
	repo := s.products.WithTx(tx)
	for _, line := range merge(lines) {
		if line.Quantity < 1 {
			return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
		}
		ok, err := repo.DecrementStock(ctx, line.ProductID, line.Quantity)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement stock")
		}
		if ok {
			continue
		}
		return s.shortage(ctx, repo, line)
	}
	return nil
}

// Release returns stock for each line.
func (s *service) Release(ctx context.Context, tx *gorm.DB, lines []Line) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "stock release requires a transaction")
	}
	repo := s.products.WithTx(tx)
	for _, line := range merge(lines) {
		if line.Quantity < 1 {
			continue
		}
		if err := repo.IncrementStock(ctx, line.ProductID, line.Quantity); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restock product")
		}
	}
	return nil
}

func (s *service) shortage(ctx context.Context, repo products.Repository, line Line) error {
	product, err := repo.GetByID(ctx, line.ProductID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	details := Shortage{ProductID: line.ProductID, RequestedQuantity: line.Quantity}
	switch {
	case product == nil || !product.IsActive:
		return pkgerrors.New(pkgerrors.CodeProductUnavailable, "product is no longer available").WithDetails(details)
	case product.StockQuantity <= 0:
		return pkgerrors.Newf(pkgerrors.CodeOutOfStock, "%s is out of stock", product.Name).WithDetails(details)
	default:
		details.AvailableQuantity = product.StockQuantity
		return pkgerrors.Newf(pkgerrors.CodeInsufficientStock, "only %d of %s available", product.StockQuantity, product.Name).WithDetails(details)
	}
}

func merge(lines []Line) []Line {
	totals := make(map[uuid.UUID]int, len(lines))
	for _, l := range lines {
		totals[l.ProductID] += l.Quantity
	}
	out := make([]Line, 0, len(totals))
	for id, qty := range totals {
		out = append(out, Line{ProductID: id, Quantity: qty})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID.String() < out[j].ProductID.String() })
	return out
}
