package orders

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/partsdealer-backend/internal/cart"
	"github.com/angelmondragon/partsdealer-backend/internal/inventory"
	"github.com/angelmondragon/partsdealer-backend/internal/payments"
	"github.com/angelmondragon/partsdealer-backend/pkg/db"
	"github.com/angelmondragon/partsdealer-backend/pkg/db/models"
	"github.com/angelmondragon/partsdealer-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/partsdealer-backend/pkg/errors"
	"github.com/angelmondragon/partsdealer-backend/pkg/logger"
	"github.com/angelmondragon/partsdealer-backend/pkg/metrics"
	"github.com/angelmondragon/partsdealer-backend/pkg/outbox"
	"github.com/angelmondragon/partsdealer-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/partsdealer-backend/pkg/pagination"
	"github.com/angelmondragon/partsdealer-backend/pkg/pricing"
	"github.com/angelmondragon/partsdealer-backend/pkg/types"
)

const (
	orderNumberIndex     = "ux_orders_order_number"
	maxOrderNumberTries  = 3
	duplicateNumberMatch = "orders.order_number"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type cartSource interface {
	GetCart(ctx context.Context, buyerID uuid.UUID) (*cart.View, error)
	Validate(ctx context.Context, buyerID uuid.UUID) (*cart.Validation, error)
	ClearCheckedOutTx(ctx context.Context, tx *gorm.DB, buyerID uuid.UUID, lines []cart.Line) error
}

type paymentProcessor interface {
	GetUserPaymentMethod(ctx context.Context, userID, methodID uuid.UUID) (*models.PaymentMethod, error)
	ProcessPayment(ctx context.Context, input payments.ProcessInput) (*models.Payment, error)
}

type priceQuoter interface {
	Price(subtotalCents int64, method enums.ShippingMethod, discountCents int64) (pricing.Totals, error)
}

// Service turns carts into orders and drives their lifecycle.
type Service interface {
	CreateOrder(ctx context.Context, buyerID uuid.UUID, input CreateOrderInput) (*CreateOrderResult, error)
	CancelOrder(ctx context.Context, buyerID, orderID uuid.UUID, reason string) (*OrderDetail, error)
	UpdateShippingStatus(ctx context.Context, input ShippingUpdateInput) (*DealerOrderView, error)
	GetUserOrders(ctx context.Context, buyerID uuid.UUID, params pagination.Params, filters OrderFilters) (*types.Page[OrderSummary], error)
	GetDealerOrders(ctx context.Context, dealerID uuid.UUID, params pagination.Params, filters OrderFilters) (*types.Page[DealerOrderView], error)
	GetOrderByID(ctx context.Context, viewer Viewer, orderID uuid.UUID) (*OrderDetail, error)
	GetDealerOrder(ctx context.Context, dealerID, orderID uuid.UUID) (*DealerOrderView, error)
	ListEvents(ctx context.Context, viewer Viewer, orderID uuid.UUID) ([]EventView, error)
}

// ServiceParams groups dependencies for the orders service.
type ServiceParams struct {
	Repo              Repository
	Cart              cartSource
	Inventory         inventory.Service
	Payments          paymentProcessor
	Pricing           priceQuoter
	Outbox            outbox.Emitter
	TransactionRunner txRunner
	Metrics           *metrics.Marketplace
	Logger            *logger.Logger
	// NewOrderNumber overrides NewOrderNumber, mostly for tests.
	NewOrderNumber func(time.Time) string
}

type service struct {
	repo      Repository
	cart      cartSource
	inventory inventory.Service
	payments  paymentProcessor
	pricing   priceQuoter
	outbox    outbox.Emitter
	tx        txRunner
	metrics   *metrics.Marketplace
	logg      *logger.Logger
	newNumber func(time.Time) string
	now       func() time.Time
}

// NewService constructs the orders service.
func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Repo == nil:
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "orders repository required")
	case params.Cart == nil:
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart service required")
	case params.Inventory == nil:
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "inventory service required")
	case params.Payments == nil:
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payments service required")
	case params.Pricing == nil:
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "pricing calculator required")
	case params.Outbox == nil:
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "outbox emitter required")
	case params.TransactionRunner == nil:
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	newNumber := params.NewOrderNumber
	if newNumber == nil {
		newNumber = NewOrderNumber
	}
	return &service{
		repo:      params.Repo,
		cart:      params.Cart,
		inventory: params.Inventory,
		payments:  params.Payments,
		pricing:   params.Pricing,
		outbox:    params.Outbox,
		tx:        params.TransactionRunner,
		metrics:   params.Metrics,
		logg:      logg,
		newNumber: newNumber,
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

// CreateOrder checks out the buyer's whole cart. Stock is reserved, the order
// and its frozen lines are written, and the snapshotted lines leave the cart in one
// transaction; payment, when requested, runs after that commits.
func (s *service) CreateOrder(ctx context.Context, buyerID uuid.UUID, input CreateOrderInput) (*CreateOrderResult, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id is required")
	}
	if missing := input.ShippingAddress.MissingFields(); len(missing) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping address is incomplete").
			WithDetails(map[string][]string{"missing": missing})
	}
	method := input.ShippingMethod
	if method == "" {
		method = enums.ShippingMethodStandard
	}
	if !method.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "unknown shipping method %q", method)
	}
	if input.PaymentMethodID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment method is required")
	}
	if _, err := s.payments.GetUserPaymentMethod(ctx, buyerID, input.PaymentMethodID); err != nil {
		return nil, err
	}

	view, err := s.cart.GetCart(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	if view.IsEmpty() {
		return nil, s.reject(pkgerrors.New(pkgerrors.CodeEmptyCart, "cart is empty"))
	}
	validation, err := s.cart.Validate(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	if !validation.IsValid {
		return nil, s.reject(pkgerrors.New(pkgerrors.CodeInvalidCart, "cart has items that cannot be fulfilled").
			WithDetails(validation.Issues))
	}

	totals, err := s.pricing.Price(view.SubtotalCents, method, 0)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "price order")
	}

	var order *models.Order
	for attempt := 1; ; attempt++ {
		order = s.buildOrder(buyerID, input, method, totals, view)
		err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			return s.placeOrder(ctx, tx, order, view)
		})
		if err == nil {
			break
		}
		if isDuplicateNumber(err) && attempt < maxOrderNumberTries {
			s.logg.Warn(ctx, "order number collision; retrying")
			continue
		}
		if typed := pkgerrors.As(err); typed != nil {
			if isStockCode(typed.Code()) {
				s.metrics.CheckoutRejected(strings.ToLower(string(typed.Code())))
			}
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
	}

	s.metrics.OrderCreated()
	ctx = s.logg.WithOrderID(ctx, order.ID.String())
	s.logg.Info(ctx, "order created")

	result := &CreateOrderResult{Order: newOrderDetail(order)}
	if !input.PayNow {
		return result, nil
	}

	payment, err := s.payments.ProcessPayment(ctx, payments.ProcessInput{
		OrderID:         order.ID,
		BuyerID:         buyerID,
		PaymentMethodID: input.PaymentMethodID,
		AmountCents:     order.TotalCents,
	})
	if payment != nil {
		pv := payments.NewPaymentView(*payment)
		result.Payment = &pv
	}
	if err != nil {
		s.logg.Warn(ctx, "payment after checkout failed: "+err.Error())
		result.PaymentError = err
		return result, nil
	}
	if fresh, err := s.repo.FindByID(ctx, order.ID); err == nil {
		result.Order = newOrderDetail(fresh)
	}
	return result, nil
}

func (s *service) reject(err *pkgerrors.Error) error {
	s.metrics.CheckoutRejected(strings.ToLower(string(err.Code())))
	return err
}

func isStockCode(code pkgerrors.Code) bool {
	switch code {
	case pkgerrors.CodeInsufficientStock, pkgerrors.CodeOutOfStock, pkgerrors.CodeProductUnavailable:
		return true
	}
	return false
}

func isDuplicateNumber(err error) bool {
	return db.IsUniqueViolation(err, orderNumberIndex) || db.IsUniqueViolation(err, duplicateNumberMatch)
}

func (s *service) buildOrder(buyerID uuid.UUID, input CreateOrderInput, method enums.ShippingMethod, totals pricing.Totals, view *cart.View) *models.Order {
	now := s.now()
	paymentMethodID := input.PaymentMethodID
	order := &models.Order{
		OrderNumber:      s.newNumber(now),
		BuyerID:          buyerID,
		Status:           enums.OrderStatusPending,
		PaymentStatus:    enums.OrderPaymentStatusUnpaid,
		ShippingStatus:   enums.ShippingStatusPending,
		ShippingAddress:  input.ShippingAddress,
		ShippingMethod:   method,
		PaymentMethodID:  &paymentMethodID,
		Currency:         totals.Currency,
		SubtotalCents:    totals.SubtotalCents,
		ShippingFeeCents: totals.ShippingFeeCents,
		TaxCents:         totals.TaxCents,
		DiscountCents:    totals.DiscountCents,
		TotalCents:       totals.TotalCents,
		Items:            make([]models.OrderItem, 0, len(view.Items)),
	}
	if notes := strings.TrimSpace(input.Notes); notes != "" {
		order.Notes = &notes
	}
	for _, line := range view.Items {
		order.Items = append(order.Items, models.OrderItem{
			ProductID:      line.ProductID,
			DealerID:       line.DealerID,
			ProductName:    line.ProductName,
			Quantity:       line.Quantity,
			UnitPriceCents: line.UnitPriceCents,
			TotalCents:     line.UnitPriceCents * int64(line.Quantity),
		})
	}
	return order
}

func (s *service) placeOrder(ctx context.Context, tx *gorm.DB, order *models.Order, view *cart.View) error {
	lines := make([]inventory.Line, 0, len(order.Items))
	for _, item := range order.Items {
		lines = append(lines, inventory.Line{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	if err := s.inventory.Reserve(ctx, tx, lines); err != nil {
		return err
	}

	repo := s.repo.WithTx(tx)
	if err := repo.Create(ctx, order); err != nil {
		return err
	}
	if err := s.cart.ClearCheckedOutTx(ctx, tx, order.BuyerID, view.Items); err != nil {
		return err
	}

	to, toShipping := order.Status, order.ShippingStatus
	if err := repo.CreateEvent(ctx, &models.OrderEvent{
		OrderID:          order.ID,
		EventType:        enums.OrderEventCreated,
		ActorID:          &order.BuyerID,
		ActorRole:        enums.ActorRoleBuyer,
		ToStatus:         &to,
		ToShippingStatus: &toShipping,
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record order event")
	}

	dealers := make([]payloads.DealerSubtotal, 0, len(view.DealerGroups))
	for _, group := range view.DealerGroups {
		count := 0
		for _, line := range group.Items {
			count += line.Quantity
		}
		dealers = append(dealers, payloads.DealerSubtotal{
			DealerID:      group.DealerID,
			ItemCount:     count,
			SubtotalCents: group.SubtotalCents,
		})
	}
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         &outbox.ActorRef{UserID: order.BuyerID, Role: string(enums.ActorRoleBuyer)},
		Data: payloads.OrderCreatedEvent{
			OrderID:     order.ID,
			OrderNumber: order.OrderNumber,
			BuyerID:     order.BuyerID,
			TotalCents:  order.TotalCents,
			Currency:    order.Currency,
			Dealers:     dealers,
		},
		OccurredAt: s.now(),
	})
}

// CancelOrder cancels a pending or confirmed order, returns its stock, and
// requests a refund when it had been paid. Canceling an already canceled
// order returns it unchanged.
func (s *service) CancelOrder(ctx context.Context, buyerID, orderID uuid.UUID, reason string) (*OrderDetail, error) {
	reason = strings.TrimSpace(reason)
	var (
		result   *models.Order
		canceled bool
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := loadOrder(ctx, repo, orderID)
		if err != nil {
			return err
		}
		if order.BuyerID != buyerID {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		result = order
		if order.Status == enums.OrderStatusCanceled {
			return nil
		}
		if err := checkCancelable(order); err != nil {
			return err
		}

		prev := stateOf(order)
		now := s.now()
		updates := map[string]any{
			"status":      enums.OrderStatusCanceled,
			"canceled_at": now,
			"updated_at":  now,
		}
		if reason != "" {
			updates["cancellation_reason"] = reason
			order.CancellationReason = &reason
		}
		refund := order.PaymentStatus == enums.OrderPaymentStatusPaid
		if refund {
			updates["payment_status"] = enums.OrderPaymentStatusRefundPending
			order.PaymentStatus = enums.OrderPaymentStatusRefundPending
		}
		changed, err := repo.UpdateIf(ctx, order.ID, prev, updates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
		}
		if changed == 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "order was modified concurrently; retry")
		}
		order.Status = enums.OrderStatusCanceled
		order.CanceledAt = &now
		order.UpdatedAt = now

		lines := make([]inventory.Line, 0, len(order.Items))
		for _, item := range order.Items {
			lines = append(lines, inventory.Line{ProductID: item.ProductID, Quantity: item.Quantity})
		}
		if err := s.inventory.Release(ctx, tx, lines); err != nil {
			return err
		}

		from, to := prev.Status, order.Status
		event := &models.OrderEvent{
			OrderID:    order.ID,
			EventType:  enums.OrderEventCanceled,
			ActorID:    &buyerID,
			ActorRole:  enums.ActorRoleBuyer,
			FromStatus: &from,
			ToStatus:   &to,
		}
		if reason != "" {
			event.Note = &reason
		}
		if err := repo.CreateEvent(ctx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record order event")
		}

		actor := &outbox.ActorRef{UserID: buyerID, Role: string(enums.ActorRoleBuyer)}
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCanceled,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         actor,
			Data: payloads.OrderCanceledEvent{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				BuyerID:     order.BuyerID,
				PrevStatus:  string(prev.Status),
				Reason:      reason,
			},
			OccurredAt: now,
		}); err != nil {
			return err
		}
		if refund {
			if err := s.requestRefund(ctx, tx, repo, order, actor, reason); err != nil {
				return err
			}
		}
		canceled = true
		return nil
	})
	if err != nil {
		if pkgerrors.As(err) == nil {
			err = pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
		}
		return nil, err
	}
	if canceled {
		s.metrics.OrderCanceled()
		s.logg.Info(s.logg.WithOrderID(ctx, result.ID.String()), "order canceled")
	}
	return newOrderDetail(result), nil
}

func (s *service) requestRefund(ctx context.Context, tx *gorm.DB, repo Repository, order *models.Order, actor *outbox.ActorRef, reason string) error {
	payment, err := repo.LatestSucceededPayment(ctx, order.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeInternal, "paid order has no succeeded payment")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment for refund")
	}
	data := payloads.RefundRequestedEvent{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		PaymentID:   payment.ID,
		AmountCents: payment.AmountCents,
		Currency:    payment.Currency,
		Reason:      reason,
	}
	if payment.TransactionID != nil {
		data.TransactionID = *payment.TransactionID
	}
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventRefundRequested,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         actor,
		Data:          data,
		OccurredAt:    s.now(),
	})
}

// UpdateShippingStatus lets a dealer with lines on the order advance its
// shipping status.
func (s *service) UpdateShippingStatus(ctx context.Context, input ShippingUpdateInput) (*DealerOrderView, error) {
	if input.DealerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "dealer context missing")
	}
	var tracking *string
	if input.TrackingNumber != nil {
		if trimmed := strings.TrimSpace(*input.TrackingNumber); trimmed != "" {
			tracking = &trimmed
		}
	}

	var result *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := loadOrder(ctx, repo, input.OrderID)
		if err != nil {
			return err
		}
		owned, err := repo.CountDealerItems(ctx, order.ID, input.DealerID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check dealer items")
		}
		if owned == 0 {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order has no items from this dealer")
		}
		result = order

		plan, err := planShipping(order, input.Status)
		if err != nil {
			return err
		}
		trackingChanged := tracking != nil && (order.TrackingNumber == nil || *order.TrackingNumber != *tracking)
		if !plan.Changed && !trackingChanged {
			return nil
		}

		prev := stateOf(order)
		now := s.now()
		updates := map[string]any{
			"shipping_status": input.Status,
			"status":          plan.OrderStatus,
			"updated_at":      now,
		}
		if trackingChanged {
			updates["tracking_number"] = *tracking
			order.TrackingNumber = tracking
		}
		changed, err := repo.UpdateIf(ctx, order.ID, prev, updates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update shipping status")
		}
		if changed == 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "order was modified concurrently; retry")
		}
		order.ShippingStatus = input.Status
		order.Status = plan.OrderStatus
		order.UpdatedAt = now

		actorID := input.ActorUserID
		event := &models.OrderEvent{
			OrderID:            order.ID,
			EventType:          enums.OrderEventShippingUpdated,
			ActorRole:          enums.ActorRoleDealer,
			FromShippingStatus: &prev.ShippingStatus,
			ToShippingStatus:   &order.ShippingStatus,
			TrackingNumber:     order.TrackingNumber,
		}
		if actorID != uuid.Nil {
			event.ActorID = &actorID
		}
		if prev.Status != order.Status {
			event.FromStatus, event.ToStatus = &prev.Status, &order.Status
		}
		if err := repo.CreateEvent(ctx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record order event")
		}

		dealerID := input.DealerID
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventShippingStatusUpdated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: actorID, DealerID: &dealerID, Role: string(enums.ActorRoleDealer)},
			Data: payloads.ShippingStatusUpdatedEvent{
				OrderID:            order.ID,
				OrderNumber:        order.OrderNumber,
				DealerID:           dealerID,
				PrevShippingStatus: string(prev.ShippingStatus),
				ShippingStatus:     string(order.ShippingStatus),
				OrderStatus:        string(order.Status),
				TrackingNumber:     order.TrackingNumber,
			},
			OccurredAt: now,
		})
	})
	if err != nil {
		if pkgerrors.As(err) == nil {
			err = pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update shipping status")
		}
		return nil, err
	}
	return newDealerOrderView(result, input.DealerID), nil
}

func (s *service) GetUserOrders(ctx context.Context, buyerID uuid.UUID, params pagination.Params, filters OrderFilters) (*types.Page[OrderSummary], error) {
	rows, next, err := s.repo.ListBuyerOrders(ctx, buyerID, params, filters)
	if err != nil {
		return nil, listError(err)
	}
	page := &types.Page[OrderSummary]{Items: make([]OrderSummary, 0, len(rows)), NextCursor: next}
	for _, row := range rows {
		page.Items = append(page.Items, newOrderSummary(row))
	}
	return page, nil
}

func (s *service) GetDealerOrders(ctx context.Context, dealerID uuid.UUID, params pagination.Params, filters OrderFilters) (*types.Page[DealerOrderView], error) {
	rows, next, err := s.repo.ListDealerOrders(ctx, dealerID, params, filters)
	if err != nil {
		return nil, listError(err)
	}
	page := &types.Page[DealerOrderView]{Items: make([]DealerOrderView, 0, len(rows)), NextCursor: next}
	for i := range rows {
		page.Items = append(page.Items, *newDealerOrderView(&rows[i], dealerID))
	}
	return page, nil
}

func listError(err error) error {
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
}

// GetOrderByID returns the full order to its buyer or to an admin.
func (s *service) GetOrderByID(ctx context.Context, viewer Viewer, orderID uuid.UUID) (*OrderDetail, error) {
	order, err := loadOrder(ctx, s.repo, orderID)
	if err != nil {
		return nil, err
	}
	if !viewer.canSee(order) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return newOrderDetail(order), nil
}

func (s *service) GetDealerOrder(ctx context.Context, dealerID, orderID uuid.UUID) (*DealerOrderView, error) {
	order, err := loadOrder(ctx, s.repo, orderID)
	if err != nil {
		return nil, err
	}
	view := newDealerOrderView(order, dealerID)
	if len(view.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return view, nil
}

func (s *service) ListEvents(ctx context.Context, viewer Viewer, orderID uuid.UUID) ([]EventView, error) {
	if _, err := s.GetOrderByID(ctx, viewer, orderID); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListEvents(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list order events")
	}
	out := make([]EventView, 0, len(rows))
	for _, row := range rows {
		out = append(out, newEventView(row))
	}
	return out, nil
}

func loadOrder(ctx context.Context, repo Repository, orderID uuid.UUID) (*models.Order, error) {
	order, err := repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}
