package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/partsdealer-backend/internal/products"
	"github.com/angelmondragon/partsdealer-backend/pkg/db"
	"github.com/angelmondragon/partsdealer-backend/pkg/db/models"
	"github.com/angelmondragon/partsdealer-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/partsdealer-backend/pkg/errors"
	"github.com/angelmondragon/partsdealer-backend/pkg/types"
)

const cartUniqueIndex = "ux_cart_items_buyer_product"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service manages a buyer's cart. Stock checks here are advisory; the
// authoritative check happens when checkout reserves stock.
type Service interface {
	AddItem(ctx context.Context, buyerID uuid.UUID, input AddItemInput) (*models.CartItem, error)
	UpdateQuantity(ctx context.Context, buyerID, itemID uuid.UUID, quantity int) (*models.CartItem, error)
	RemoveItem(ctx context.Context, buyerID, itemID uuid.UUID) error
	Clear(ctx context.Context, buyerID uuid.UUID) error
	ClearCheckedOutTx(ctx context.Context, tx *gorm.DB, buyerID uuid.UUID, lines []Line) error
	GetCart(ctx context.Context, buyerID uuid.UUID) (*View, error)
	Validate(ctx context.Context, buyerID uuid.UUID) (*Validation, error)
}

type service struct {
	repo     Repository
	products products.Repository
	tx       txRunner
}

// StockDetails accompanies stock errors raised while editing the cart.
type StockDetails struct {
	ProductID         uuid.UUID `json:"product_id"`
	RequestedQuantity int       `json:"requested_quantity"`
	AvailableQuantity int       `json:"available_quantity"`
	InCartQuantity    int       `json:"in_cart_quantity,omitempty"`
}

// NewService builds the cart service.
func NewService(repo Repository, productRepo products.Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if productRepo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, products: productRepo, tx: tx}, nil
}

// AddItem inserts a line or merges into the buyer's existing line for the
// product, checking the combined quantity against current stock.
func (s *service) AddItem(ctx context.Context, buyerID uuid.UUID, input AddItemInput) (*models.CartItem, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id is required")
	}
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if input.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	var result *models.CartItem
	// A concurrent first insert for the same product loses on the unique
	// index; the second pass then merges into the winner's row.
	for attempt := 0; attempt < 2; attempt++ {
		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			item, err := s.addItemTx(ctx, tx, buyerID, input)
			if err != nil {
				return err
			}
			result = item
			return nil
		})
		if err == nil {
			return result, nil
		}
		if attempt == 0 && isDuplicateLine(err) {
			continue
		}
		if pkgerrors.As(err) == nil {
			err = pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add cart item")
		}
		return nil, err
	}
	return nil, pkgerrors.New(pkgerrors.CodeConflict, "cart was modified concurrently; retry")
}

func isDuplicateLine(err error) bool {
	return db.IsUniqueViolation(err, cartUniqueIndex) || db.IsUniqueViolation(err, "cart_items.buyer_id")
}

func (s *service) addItemTx(ctx context.Context, tx *gorm.DB, buyerID uuid.UUID, input AddItemInput) (*models.CartItem, error) {
	product, err := s.loadPurchasable(ctx, s.products.WithTx(tx), input.ProductID)
	if err != nil {
		return nil, err
	}

	repo := s.repo.WithTx(tx)
	existing, err := repo.FindByProduct(ctx, buyerID, input.ProductID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
	}

	if existing == nil {
		if err := checkStock(product, input.Quantity, 0); err != nil {
			return nil, err
		}
		item := &models.CartItem{
			BuyerID:         buyerID,
			ProductID:       product.ID,
			DealerID:        product.DealerID,
			Quantity:        input.Quantity,
			SelectedOptions: input.SelectedOptions,
		}
		if err := repo.Create(ctx, item); err != nil {
			return nil, err
		}
		return item, nil
	}

	if err := checkStock(product, existing.Quantity+input.Quantity, existing.Quantity); err != nil {
		return nil, err
	}
	if err := repo.Increment(ctx, buyerID, existing.ID, input.Quantity, input.SelectedOptions); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
	}
	merged, err := repo.FindByID(ctx, buyerID, existing.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload cart item")
	}
	return merged, nil
}

func (s *service) UpdateQuantity(ctx context.Context, buyerID, itemID uuid.UUID, quantity int) (*models.CartItem, error) {
	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1; remove the item instead")
	}
	item, err := s.repo.FindByID(ctx, buyerID, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
	}
	product, err := s.loadPurchasable(ctx, s.products, item.ProductID)
	if err != nil {
		return nil, err
	}
	if err := checkStock(product, quantity, 0); err != nil {
		return nil, err
	}
	item.Quantity = quantity
	if err := s.repo.Update(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
	}
	return item, nil
}

func (s *service) RemoveItem(ctx context.Context, buyerID, itemID uuid.UUID) error {
	if err := s.repo.Delete(ctx, buyerID, itemID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart item")
	}
	return nil
}

func (s *service) Clear(ctx context.Context, buyerID uuid.UUID) error {
	if _, err := s.repo.DeleteByBuyer(ctx, buyerID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}

// ClearCheckedOutTx removes the lines a checkout snapshotted, inside the
// checkout transaction. Lines added afterwards stay in the cart; a line whose
// quantity moved since the snapshot fails the checkout with CONFLICT.
func (s *service) ClearCheckedOutTx(ctx context.Context, tx *gorm.DB, buyerID uuid.UUID, lines []Line) error {
	repo := s.repo.WithTx(tx)
	for _, line := range lines {
		n, err := repo.DeleteAtQuantity(ctx, buyerID, line.ID, line.Quantity)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear checked-out cart line")
		}
		if n == 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "cart changed during checkout; review it and retry").
				WithDetails(map[string]any{"cart_item_id": line.ID})
		}
	}
	return nil
}

func (s *service) GetCart(ctx context.Context, buyerID uuid.UUID) (*View, error) {
	items, byID, err := s.load(ctx, buyerID)
	if err != nil {
		return nil, err
	}

	view := &View{BuyerID: buyerID, Items: make([]Line, 0, len(items)), DealerGroups: []DealerGroup{}}
	groupIdx := map[uuid.UUID]int{}
	for _, item := range items {
		line := Line{
			ID:              item.ID,
			ProductID:       item.ProductID,
			DealerID:        item.DealerID,
			Quantity:        item.Quantity,
			SelectedOptions: item.SelectedOptions,
		}
		if product, ok := byID[item.ProductID]; ok {
			line.DealerID = product.DealerID
			line.ProductName = product.Name
			line.SKU = product.SKU
			line.PriceCents = product.PriceCents
			line.SalePriceCents = product.SalePriceCents
			line.UnitPriceCents = product.EffectivePriceCents()
			line.StockQuantity = product.StockQuantity
			line.Available = product.IsActive
			line.ItemTotalCents = line.UnitPriceCents * int64(item.Quantity)
		}

		view.Items = append(view.Items, line)
		view.ItemCount += line.Quantity
		view.SubtotalCents += line.ItemTotalCents

		idx, ok := groupIdx[line.DealerID]
		if !ok {
			idx = len(view.DealerGroups)
			groupIdx[line.DealerID] = idx
			view.DealerGroups = append(view.DealerGroups, DealerGroup{DealerID: line.DealerID})
		}
		view.DealerGroups[idx].Items = append(view.DealerGroups[idx].Items, line)
		view.DealerGroups[idx].SubtotalCents += line.ItemTotalCents
	}
	return view, nil
}

// Validate rechecks every line against live product state without touching
// the cart.
func (s *service) Validate(ctx context.Context, buyerID uuid.UUID) (*Validation, error) {
	items, byID, err := s.load(ctx, buyerID)
	if err != nil {
		return nil, err
	}

	result := &Validation{Issues: []types.CartIssue{}}
	for _, item := range items {
		issue := types.CartIssue{
			CartItemID:        item.ID,
			ProductID:         item.ProductID,
			RequestedQuantity: item.Quantity,
		}
		product, ok := byID[item.ProductID]
		switch {
		case !ok || !product.IsActive:
			issue.Type = enums.CartIssueProductUnavailable
			issue.Message = "product is no longer available"
		case product.StockQuantity <= 0:
			issue.Type = enums.CartIssueOutOfStock
			issue.Message = fmt.Sprintf("%s is out of stock", product.Name)
		case item.Quantity > product.StockQuantity:
			issue.Type = enums.CartIssueInsufficientStock
			issue.AvailableQuantity = product.StockQuantity
			issue.Message = fmt.Sprintf("only %d of %s available", product.StockQuantity, product.Name)
		default:
			continue
		}
		result.Issues = append(result.Issues, issue)
	}
	result.IsValid = len(result.Issues) == 0
	return result, nil
}

func (s *service) load(ctx context.Context, buyerID uuid.UUID) ([]models.CartItem, map[uuid.UUID]models.Product, error) {
	if buyerID == uuid.Nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id is required")
	}
	items, err := s.repo.ListByBuyer(ctx, buyerID)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cart items")
	}
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	byID, err := s.products.ListByIDs(ctx, ids)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart products")
	}
	return items, byID, nil
}

func (s *service) loadPurchasable(ctx context.Context, repo products.Repository, productID uuid.UUID) (*models.Product, error) {
	product, err := repo.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeProductNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeProductUnavailable, "product is not available for purchase")
	}
	return product, nil
}

// checkStock rejects quantity above current stock. inCart is what the buyer
// already holds, used to phrase how many more can be added.
func checkStock(product *models.Product, quantity, inCart int) error {
	if quantity <= product.StockQuantity {
		return nil
	}
	details := StockDetails{
		ProductID:         product.ID,
		RequestedQuantity: quantity,
		AvailableQuantity: product.StockQuantity,
		InCartQuantity:    inCart,
	}
	if product.StockQuantity <= 0 {
		return pkgerrors.Newf(pkgerrors.CodeOutOfStock, "%s is out of stock", product.Name).WithDetails(details)
	}
	if inCart > 0 {
		remaining := product.StockQuantity - inCart
		if remaining < 0 {
			remaining = 0
		}
		return pkgerrors.Newf(pkgerrors.CodeInsufficientStock,
			"you already have %d in your cart; only %d more can be added", inCart, remaining).WithDetails(details)
	}
	return pkgerrors.Newf(pkgerrors.CodeInsufficientStock, "only %d of %s available", product.StockQuantity, product.Name).WithDetails(details)
}
