package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/playhub/backend/internal/domain/shared"
	"github.com/playhub/backend/internal/domain/store"
	"go.uber.org/zap"
)

// ErrCartChanged is returned when reconciliation altered the cart right
// before checkout. Its details carry the adjustments.
var ErrCartChanged = shared.NewDomainError("CART_CHANGED", "Your cart changed since you last saw it. Please review it before checking out")

// ErrPaymentUnavailable is returned when the gateway could not start a payment
var ErrPaymentUnavailable = shared.NewDomainError("PAYMENT_UNAVAILABLE", "Payment could not be started. Please try again later")

// CheckoutService turns carts into orders
type CheckoutService struct {
	scope       TransactionScope
	cartRepo    store.CartRepository
	productRepo store.ProductRepository
	orderRepo   store.OrderRepository
	gateway     store.PaymentGateway
	idempotency shared.IdempotencyStore
	idemTTL     time.Duration
	events      shared.EventPublisher
	metrics     Metrics
	logger      *zap.Logger
	now         func() time.Time
}

// CheckoutDeps groups the collaborators of CheckoutService
type CheckoutDeps struct {
	Scope          TransactionScope
	CartRepo       store.CartRepository
	ProductRepo    store.ProductRepository
	OrderRepo      store.OrderRepository
	Gateway        store.PaymentGateway
	Idempotency    shared.IdempotencyStore
	IdempotencyTTL time.Duration
	Events         shared.EventPublisher
	Metrics        Metrics
	Logger         *zap.Logger
}

// NewCheckoutService creates a new checkout service
func NewCheckoutService(deps CheckoutDeps) *CheckoutService {
	ttl := deps.IdempotencyTTL
	if ttl <= 0 {
		ttl = shared.DefaultIdempotencyTTL
	}
	return &CheckoutService{
		scope:       deps.Scope,
		cartRepo:    deps.CartRepo,
		productRepo: deps.ProductRepo,
		orderRepo:   deps.OrderRepo,
		gateway:     deps.Gateway,
		idempotency: deps.Idempotency,
		idemTTL:     ttl,
		events:      deps.Events,
		metrics:     metricsOrNoop(deps.Metrics),
		logger:      deps.Logger,
		now:         time.Now,
	}
}

// Checkout places an order for the buyer's cart and starts its payment.
// The Idempotency-Key is held while the checkout runs and kept only when an
// order was placed; a rejected checkout can be resubmitted with the same key.
func (s *CheckoutService) Checkout(ctx context.Context, input CheckoutInput) (_ *OrderDTO, err error) {
	started := s.now()
	defer func() { s.metrics.ObserveCheckout(time.Since(started)) }()

	if input.IdempotencyKey != "" && s.idempotency != nil {
		key := fmt.Sprintf("checkout:%s:%s", input.BuyerID, input.IdempotencyKey)
		isNew, markErr := s.idempotency.MarkProcessed(ctx, key, s.idemTTL)
		switch {
		case markErr != nil:
			s.logger.Warn("Idempotency check failed, continuing checkout", zap.Error(markErr))
		case !isNew:
			return nil, shared.ErrDuplicateRequest.WithMessage("This checkout was already submitted")
		default:
			defer func() {
				if err != nil {
					releaseKey(ctx, s.idempotency, key, s.logger)
				}
			}()
		}
	}

	cart, products, adjustments, err := reconcileCart(ctx, s.cartRepo, s.productRepo, input.BuyerID, s.logger)
	if err != nil {
		return nil, err
	}
	if len(adjustments) > 0 {
		return nil, ErrCartChanged.WithDetails(map[string]any{
			"adjustments": adjustments,
			"cart":        toCartDTO(cart, products, adjustments),
		})
	}
	if cart.IsEmpty() {
		return nil, shared.ErrInvalidInput.WithMessage("Cart is empty")
	}

	now := s.now()
	order, err := store.NewOrderFromCart(store.GenerateOrderNumber(now), cart, products, input.ShippingAddress)
	if err != nil {
		return nil, err
	}

	// lock rows in a stable order so concurrent checkouts cannot deadlock
	lines := append([]store.CartItem(nil), cart.Items...)
	sort.Slice(lines, func(i, j int) bool {
		return lines[i].ProductID.String() < lines[j].ProductID.String()
	})

	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		for _, line := range lines {
			if err := repos.ProductRepo().DecrementStock(ctx, line.ProductID, line.Quantity); err != nil {
				return err
			}
		}
		if err := repos.OrderRepo().Create(ctx, order); err != nil {
			return err
		}
		cart.Clear()
		return repos.CartRepo().Save(ctx, cart)
	})
	if err != nil {
		if errors.Is(err, shared.ErrInsufficientStock) {
			s.logger.Info("Checkout lost a stock race", zap.String("buyer_id", input.BuyerID.String()))
		}
		return nil, err
	}
	s.metrics.OrderTransition(string(store.OrderStatusPending))

	s.logger.Info("Order placed",
		zap.String("order_id", order.ID.String()),
		zap.String("order_number", order.OrderNumber),
		zap.String("buyer_id", order.BuyerID.String()),
		zap.String("total", order.Total.String()))

	if err := s.startPayment(ctx, order, lines); err != nil {
		return nil, err
	}

	publishOrderEvents(ctx, s.events, s.logger, order)
	dto := ToOrderDTO(order)
	return &dto, nil
}

// startPayment creates the payment with the gateway. When that fails the order
// is cancelled, its units go back to stock and lines go back to the cart so
// the buyer can retry.
func (s *CheckoutService) startPayment(ctx context.Context, order *store.Order, lines []store.CartItem) error {
	resp, err := s.gateway.CreatePayment(ctx, &store.CreatePaymentRequest{
		OrderID:        order.ID,
		OrderNumber:    order.OrderNumber,
		BuyerID:        order.BuyerID,
		Amount:         order.Total,
		IdempotencyKey: order.ID.String(),
	})
	if err != nil {
		s.logger.Error("Failed to create payment",
			zap.String("order_id", order.ID.String()),
			zap.Error(err))
		if _, cancelErr := cancelAndRestock(ctx, s.scope, order.ID, "payment initialization failed", s.now(), lines); cancelErr != nil {
			s.logger.Error("Failed to roll back order after payment failure",
				zap.String("order_id", order.ID.String()),
				zap.Error(cancelErr))
		} else {
			s.metrics.OrderTransition(string(store.OrderStatusCancelled))
		}
		return ErrPaymentUnavailable
	}

	order.AttachPayment(s.gateway.Provider(), resp.Reference, resp.ClientSecret)
	if err := s.orderRepo.Update(ctx, order); err != nil {
		return err
	}
	if resp.Status != store.PaymentStatusSucceeded {
		return nil
	}
	// the gateway settled synchronously
	if err := order.MarkPaid(s.now()); err != nil {
		return err
	}
	if err := s.orderRepo.Update(ctx, order); err != nil {
		return err
	}
	s.metrics.OrderTransition(string(store.OrderStatusPaid))
	return nil
}

// cancelAndRestock cancels a pending order and returns its units to stock in
// one transaction. Non-empty restore lines are merged back into the buyer's
// cart in the same transaction. The returned order carries the cancellation event.
func cancelAndRestock(ctx context.Context, scope TransactionScope, orderID uuid.UUID, reason string, now time.Time, restore []store.CartItem) (*store.Order, error) {
	var cancelled *store.Order
	err := scope.Execute(ctx, func(repos TransactionalRepositories) error {
		order, err := repos.OrderRepo().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if err := order.Cancel(reason, now); err != nil {
			return err
		}
		if err := repos.OrderRepo().Update(ctx, order); err != nil {
			return err
		}
		for productID, qty := range order.Quantities() {
			if err := repos.ProductRepo().RestoreStock(ctx, productID, qty); err != nil {
				return err
			}
		}
		if len(restore) > 0 {
			cart, err := repos.CartRepo().FindByUserID(ctx, order.BuyerID)
			if err != nil {
				return err
			}
			cart.Restore(restore)
			if err := repos.CartRepo().Save(ctx, cart); err != nil {
				return err
			}
		}
		cancelled = order
		return nil
	})
	return cancelled, err
}

func publishOrderEvents(ctx context.Context, publisher shared.EventPublisher, logger *zap.Logger, order *store.Order) {
	events := order.PullDomainEvents()
	if publisher == nil || len(events) == 0 {
		return
	}
	if err := publisher.Publish(ctx, events...); err != nil {
		logger.Warn("Failed to publish order events",
			zap.String("order_id", order.ID.String()),
			zap.Error(err))
	}
}

func releaseKey(ctx context.Context, idempotency shared.IdempotencyStore, key string, logger *zap.Logger) {
	if err := idempotency.Release(ctx, key); err != nil {
		logger.Warn("Failed to release idempotency key",
			zap.String("key", key),
			zap.Error(err))
	}
}
