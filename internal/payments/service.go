package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/partsdealer-backend/pkg/db/models"
	"github.com/angelmondragon/partsdealer-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/partsdealer-backend/pkg/errors"
	"github.com/angelmondragon/partsdealer-backend/pkg/gateway"
	"github.com/angelmondragon/partsdealer-backend/pkg/logger"
	"github.com/angelmondragon/partsdealer-backend/pkg/metrics"
	"github.com/angelmondragon/partsdealer-backend/pkg/outbox"
	"github.com/angelmondragon/partsdealer-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/partsdealer-backend/pkg/redis"
)

const (
	lockScope         = "payment"
	lockTTL           = time.Minute
	timeoutReason     = "payment gateway timeout"
	defaultRejectText = "payment rejected"
)

// Service saves buyer payment methods and runs payment attempts against the
// configured gateway.
type Service interface {
	CreatePaymentMethod(ctx context.Context, userID uuid.UUID, input CreateMethodInput) (*models.PaymentMethod, error)
	GetUserPaymentMethods(ctx context.Context, userID uuid.UUID) ([]models.PaymentMethod, error)
	GetUserPaymentMethod(ctx context.Context, userID, methodID uuid.UUID) (*models.PaymentMethod, error)
	// ProcessPayment returns the recorded attempt. A declined or failed
	// attempt is returned together with a PAYMENT_FAILED error.
	ProcessPayment(ctx context.Context, input ProcessInput) (*models.Payment, error)
	GetOrderPayments(ctx context.Context, buyerID, orderID uuid.UUID) ([]models.Payment, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type locker interface {
	Acquire(ctx context.Context, scope, id string, ttl time.Duration) (func(context.Context) error, error)
}

// ServiceParams groups dependencies for the payments service.
type ServiceParams struct {
	Repo              Repository
	Gateway           gateway.Gateway
	Outbox            outbox.Emitter
	TransactionRunner txRunner
	// Locker is optional; without it concurrent attempts rely on the
	// one-succeeded-payment-per-order index.
	Locker  locker
	Metrics *metrics.Marketplace
	Logger  *logger.Logger
	Timeout time.Duration
}

type service struct {
	repo    Repository
	gateway gateway.Gateway
	outbox  outbox.Emitter
	tx      txRunner
	locker  locker
	metrics *metrics.Marketplace
	logg    *logger.Logger
	timeout time.Duration
	now     func() time.Time
}

var validate = validator.New()

// NewService constructs the payments service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payments repository required")
	}
	if params.Gateway == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payment gateway required")
	}
	if params.Outbox == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "outbox emitter required")
	}
	if params.TransactionRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	if params.Timeout <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payment timeout must be positive")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		repo:    params.Repo,
		gateway: params.Gateway,
		outbox:  params.Outbox,
		tx:      params.TransactionRunner,
		locker:  params.Locker,
		metrics: params.Metrics,
		logg:    logg,
		timeout: params.Timeout,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

// CreatePaymentMethod saves a method for userID. The first method a user
// saves becomes the default; saving with IsDefault replaces the prior default.
func (s *service) CreatePaymentMethod(ctx context.Context, userID uuid.UUID, input CreateMethodInput) (*models.PaymentMethod, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	input.MobileNumber = strings.TrimSpace(input.MobileNumber)
	input.CardToken = strings.TrimSpace(input.CardToken)
	input.Label = strings.TrimSpace(input.Label)
	if err := validate.Struct(input); err != nil {
		return nil, methodValidationError(err)
	}

	method := &models.PaymentMethod{
		UserID:   userID,
		Type:     input.Type,
		Provider: strings.TrimSpace(input.Provider),
	}
	if method.Provider == "" {
		method.Provider = string(input.Type)
	}
	switch input.Type {
	case enums.PaymentMethodMobileMoney:
		method.MobileNumber = &input.MobileNumber
	case enums.PaymentMethodCard:
		method.CardToken = &input.CardToken
	}
	if input.Label != "" {
		method.Label = &input.Label
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		count, err := repo.CountMethods(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count payment methods")
		}
		method.IsDefault = input.IsDefault || count == 0
		if method.IsDefault && count > 0 {
			if err := repo.ClearDefaultMethods(ctx, userID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear default payment method")
			}
		}
		if err := repo.CreateMethod(ctx, method); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment method")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return method, nil
}

func methodValidationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method")
	}
	details := map[string]string{}
	for _, fe := range fieldErrs {
		details[strings.ToLower(fe.Field())] = fe.Tag()
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method").WithDetails(details)
}

func (s *service) GetUserPaymentMethods(ctx context.Context, userID uuid.UUID) ([]models.PaymentMethod, error) {
	methods, err := s.repo.ListMethods(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payment methods")
	}
	return methods, nil
}

func (s *service) GetUserPaymentMethod(ctx context.Context, userID, methodID uuid.UUID) (*models.PaymentMethod, error) {
	method, err := s.repo.FindMethod(ctx, userID, methodID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodePaymentMethodNotFound, "payment method not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment method")
	}
	return method, nil
}

func (s *service) GetOrderPayments(ctx context.Context, buyerID, orderID uuid.UUID) ([]models.Payment, error) {
	if _, err := s.loadBuyerOrder(ctx, s.repo, buyerID, orderID); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payments")
	}
	return rows, nil
}

func (s *service) loadBuyerOrder(ctx context.Context, repo Repository, buyerID, orderID uuid.UUID) (*models.Order, error) {
	order, err := repo.FindOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.BuyerID != buyerID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

// ProcessPayment records a pending attempt, calls the gateway outside any
// transaction, then settles the attempt and the order together.
func (s *service) ProcessPayment(ctx context.Context, input ProcessInput) (*models.Payment, error) {
	if input.AmountCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	method, err := s.GetUserPaymentMethod(ctx, input.BuyerID, input.PaymentMethodID)
	if err != nil {
		return nil, err
	}

	if s.locker != nil {
		release, err := s.locker.Acquire(ctx, lockScope, input.OrderID.String(), lockTTL)
		if err != nil {
			if errors.Is(err, redis.ErrLockHeld) {
				return nil, pkgerrors.New(pkgerrors.CodeConflict, "a payment for this order is already in progress")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire payment lock")
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				s.logg.Warn(ctx, "release payment lock: "+err.Error())
			}
		}()
	}

	order, err := s.loadBuyerOrder(ctx, s.repo, input.BuyerID, input.OrderID)
	if err != nil {
		return nil, err
	}
	if order.Status == enums.OrderStatusCanceled {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is canceled")
	}
	if order.PaymentStatus != enums.OrderPaymentStatusUnpaid {
		return nil, pkgerrors.Newf(pkgerrors.CodeStateConflict, "order payment status is %s", order.PaymentStatus)
	}

	payment := &models.Payment{
		OrderID:         order.ID,
		PaymentMethodID: method.ID,
		AmountCents:     input.AmountCents,
		Currency:        order.Currency,
		Provider:        s.gateway.Name(),
		Status:          enums.PaymentAttemptPending,
	}
	if err := s.repo.CreatePayment(ctx, payment); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record payment attempt")
	}
	ctx = s.logg.WithOrderID(ctx, order.ID.String())

	result, reason := s.submit(ctx, payment, method)
	if result.Accepted {
		txID := result.TransactionID
		payment.Status = enums.PaymentAttemptSucceeded
		payment.TransactionID = &txID
	} else {
		payment.Status = enums.PaymentAttemptFailed
		payment.ErrorMessage = &reason
	}

	// The gateway may have moved money; settle even if the caller went away.
	settleCtx := context.WithoutCancel(ctx)
	if err := s.tx.WithTx(settleCtx, func(tx *gorm.DB) error {
		return s.settle(settleCtx, tx, order, payment)
	}); err != nil {
		ctx = s.logg.WithField(ctx, "payment_id", payment.ID.String())
		s.logg.Error(ctx, "settle payment attempt", err)
		// Record the gateway outcome outside the failed transaction; the
		// order side needs reconciling by hand.
		if ferr := s.repo.FinishPayment(settleCtx, payment); ferr != nil {
			s.logg.Error(ctx, "payment attempt left pending; reconcile with provider", ferr)
		} else {
			s.logg.Warn(ctx, "payment attempt finished without order update; reconcile order")
		}
		if pkgerrors.As(err) == nil {
			err = pkgerrors.Wrap(pkgerrors.CodeDependency, err, "settle payment attempt")
		}
		return nil, err
	}
	s.metrics.PaymentAttempt(string(payment.Status))

	if payment.Status == enums.PaymentAttemptFailed {
		s.logg.Warn(ctx, "payment attempt failed: "+reason)
		return payment, pkgerrors.New(pkgerrors.CodePaymentFailed, reason).WithDetails(FailureDetails{
			PaymentID: payment.ID,
			Provider:  payment.Provider,
			Reason:    reason,
		})
	}
	s.logg.Info(ctx, "payment attempt succeeded")
	return payment, nil
}

func (s *service) submit(ctx context.Context, payment *models.Payment, method *models.PaymentMethod) (gateway.SubmitResult, string) {
	gctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	result, err := s.gateway.Submit(gctx, gateway.SubmitRequest{
		AmountCents:        payment.AmountCents,
		Currency:           payment.Currency,
		DestinationAccount: method.DestinationAccount(),
		Reference:          payment.ID.String(),
	})
	s.metrics.ObserveGateway(s.gateway.Name(), time.Since(start))

	switch {
	case err != nil && (errors.Is(err, context.DeadlineExceeded) || errors.Is(gctx.Err(), context.DeadlineExceeded)):
		return gateway.SubmitResult{}, timeoutReason
	case err != nil:
		s.logg.Error(ctx, "payment gateway call failed", err)
		if typed := pkgerrors.As(err); typed != nil {
			return gateway.SubmitResult{}, typed.Message()
		}
		return gateway.SubmitResult{}, err.Error()
	case !result.Accepted:
		reason := strings.TrimSpace(result.Reason)
		if reason == "" {
			reason = defaultRejectText
		}
		return result, reason
	}
	return result, ""
}

func (s *service) settle(ctx context.Context, tx *gorm.DB, order *models.Order, payment *models.Payment) error {
	repo := s.repo.WithTx(tx)
	if err := repo.FinishPayment(ctx, payment); err != nil {
		return err
	}

	event := &models.OrderEvent{
		OrderID:   order.ID,
		EventType: enums.OrderEventPaymentRecorded,
		ActorID:   &order.BuyerID,
		ActorRole: enums.ActorRoleBuyer,
	}
	statusEvent := payloads.PaymentStatusEvent{
		PaymentID:     payment.ID,
		OrderID:       order.ID,
		AmountCents:   payment.AmountCents,
		Currency:      payment.Currency,
		Provider:      payment.Provider,
		Status:        string(payment.Status),
		TransactionID: payment.TransactionID,
		ErrorMessage:  payment.ErrorMessage,
	}
	eventType := enums.EventPaymentFailed

	if payment.Status == enums.PaymentAttemptSucceeded {
		eventType = enums.EventPaymentSucceeded
		updated, err := repo.MarkOrderPaid(ctx, order.ID)
		if err != nil {
			return err
		}
		if updated == 0 {
			// Canceled while the gateway call was in flight: keep the money
			// trail and ask for it back.
			if err := s.requestRefund(ctx, tx, order, payment); err != nil {
				return err
			}
			note := "payment succeeded after cancellation; refund requested"
			event.Note = &note
		} else if order.Status == enums.OrderStatusPending {
			from, to := enums.OrderStatusPending, enums.OrderStatusConfirmed
			event.FromStatus, event.ToStatus = &from, &to
		}
	} else {
		note := fmt.Sprintf("payment failed: %s", *payment.ErrorMessage)
		event.Note = &note
	}

	if err := repo.CreateOrderEvent(ctx, event); err != nil {
		return err
	}
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregatePayment,
		AggregateID:   payment.ID,
		Actor:         &outbox.ActorRef{UserID: order.BuyerID, Role: string(enums.ActorRoleBuyer)},
		Data:          statusEvent,
		OccurredAt:    s.now(),
	})
}

func (s *service) requestRefund(ctx context.Context, tx *gorm.DB, order *models.Order, payment *models.Payment) error {
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventRefundRequested,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         &outbox.ActorRef{UserID: order.BuyerID, Role: string(enums.ActorRoleSystem)},
		Data: payloads.RefundRequestedEvent{
			OrderID:       order.ID,
			OrderNumber:   order.OrderNumber,
			PaymentID:     payment.ID,
			TransactionID: deref(payment.TransactionID),
			AmountCents:   payment.AmountCents,
			Currency:      payment.Currency,
			Reason:        "payment settled after order cancellation",
		},
		OccurredAt: s.now(),
	})
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
