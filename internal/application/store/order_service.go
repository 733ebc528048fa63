package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/playhub/backend/internal/domain/shared"
	"github.com/playhub/backend/internal/domain/store"
	"go.uber.org/zap"
)

var errOrderNotFound = shared.ErrNotFound.WithMessage("Order not found")

// ErrInvalidWebhookSignature is returned for webhook calls that fail verification
var ErrInvalidWebhookSignature = shared.NewDomainError("INVALID_SIGNATURE", "Webhook signature verification failed")

// Cancel reasons recorded by the system
const (
	ReasonPaymentTimeout  = "payment timeout"
	ReasonPaymentFailed   = "payment failed"
	ReasonPaymentCanceled = "payment canceled"
)

// OrderService serves order history and order state changes
type OrderService struct {
	scope       TransactionScope
	orderRepo   store.OrderRepository
	gateway     store.PaymentGateway
	idempotency shared.IdempotencyStore
	idemTTL     time.Duration
	events      shared.EventPublisher
	metrics     Metrics
	logger      *zap.Logger
	now         func() time.Time
}

// OrderDeps groups the collaborators of OrderService
type OrderDeps struct {
	Scope          TransactionScope
	OrderRepo      store.OrderRepository
	Gateway        store.PaymentGateway
	Idempotency    shared.IdempotencyStore
	IdempotencyTTL time.Duration
	Events         shared.EventPublisher
	Metrics        Metrics
	Logger         *zap.Logger
}

// NewOrderService creates a new order service
func NewOrderService(deps OrderDeps) *OrderService {
	ttl := deps.IdempotencyTTL
	if ttl <= 0 {
		ttl = shared.DefaultIdempotencyTTL
	}
	return &OrderService{
		scope:       deps.Scope,
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

// ListMyOrders returns the orders placed by buyerID
func (s *OrderService) ListMyOrders(ctx context.Context, buyerID uuid.UUID, filter store.OrderFilter) ([]OrderDTO, int64, error) {
	if err := validateStatusFilter(filter.Status); err != nil {
		return nil, 0, err
	}
	orders, total, err := s.orderRepo.ListByBuyer(ctx, buyerID, filter)
	if err != nil {
		return nil, 0, err
	}
	return toOrderDTOs(orders), total, nil
}

// ListSales returns orders containing products of sellerID
func (s *OrderService) ListSales(ctx context.Context, sellerID uuid.UUID, filter store.OrderFilter) ([]OrderDTO, int64, error) {
	if err := validateStatusFilter(filter.Status); err != nil {
		return nil, 0, err
	}
	orders, total, err := s.orderRepo.ListBySeller(ctx, sellerID, filter)
	if err != nil {
		return nil, 0, err
	}
	return toOrderDTOs(orders), total, nil
}

// GetOrder returns an order visible to the actor
func (s *OrderService) GetOrder(ctx context.Context, actor Actor, id uuid.UUID) (*OrderDTO, error) {
	order, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin && !order.CanView(actor.UserID) {
		// do not reveal that the order exists
		return nil, errOrderNotFound
	}
	dto := ToOrderDTO(order)
	return &dto, nil
}

// CancelOrder lets the buyer cancel a pending order. Its units go back to stock.
func (s *OrderService) CancelOrder(ctx context.Context, actor Actor, id uuid.UUID, reason string) (*OrderDTO, error) {
	order, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.BuyerID != actor.UserID && !actor.IsAdmin {
		if order.CanView(actor.UserID) {
			return nil, shared.ErrForbidden.WithMessage("Only the buyer can cancel an order")
		}
		return nil, errOrderNotFound
	}
	if order.Status != store.OrderStatusPending {
		return nil, shared.ErrInvalidState.WithMessage("Only pending orders can be cancelled")
	}
	if reason == "" {
		reason = "cancelled by buyer"
	}

	cancelled, err := s.cancel(ctx, order, reason)
	if err != nil {
		return nil, err
	}
	dto := ToOrderDTO(cancelled)
	return &dto, nil
}

// FulfillOrder marks a paid order as delivered. Only the seller of every
// item or an admin may do this.
func (s *OrderService) FulfillOrder(ctx context.Context, actor Actor, id uuid.UUID) (*OrderDTO, error) {
	order, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin && !order.IsSoleSeller(actor.UserID) {
		if order.CanView(actor.UserID) {
			return nil, shared.ErrForbidden.WithMessage("Only the seller of every item can fulfill this order")
		}
		return nil, errOrderNotFound
	}
	if err := order.Fulfill(s.now()); err != nil {
		return nil, err
	}
	if err := s.orderRepo.Update(ctx, order); err != nil {
		return nil, err
	}
	s.metrics.OrderTransition(string(store.OrderStatusFulfilled))

	s.logger.Info("Order fulfilled",
		zap.String("order_id", order.ID.String()),
		zap.String("by", actor.UserID.String()))
	publishOrderEvents(ctx, s.events, s.logger, order)
	dto := ToOrderDTO(order)
	return &dto, nil
}

// HandlePaymentWebhook applies a signed gateway notification. Unknown orders,
// repeated event ids and irrelevant event types are acknowledged without effect.
// An event id is only remembered once the notification was applied, so a
// delivery that failed here is processed again when the gateway retries it.
func (s *OrderService) HandlePaymentWebhook(ctx context.Context, payload []byte, signature string) error {
	cb, err := s.gateway.VerifyCallback(ctx, payload, signature)
	if err != nil {
		if errors.Is(err, store.ErrInvalidSignature) {
			s.logger.Warn("Rejected payment webhook with invalid signature")
			return ErrInvalidWebhookSignature
		}
		return err
	}

	var key string
	if cb.EventID != "" && s.idempotency != nil {
		key = "webhook:" + cb.EventID
		isNew, err := s.idempotency.MarkProcessed(ctx, key, s.idemTTL)
		if err != nil {
			s.logger.Warn("Webhook idempotency check failed, processing anyway",
				zap.String("event_id", cb.EventID),
				zap.Error(err))
			key = ""
		} else if !isNew {
			s.logger.Debug("Duplicate payment webhook ignored", zap.String("event_id", cb.EventID))
			return nil
		}
	}

	if err := s.applyPaymentCallback(ctx, cb); err != nil {
		if key != "" {
			releaseKey(ctx, s.idempotency, key, s.logger)
		}
		return err
	}
	return nil
}

func (s *OrderService) applyPaymentCallback(ctx context.Context, cb *store.PaymentCallback) error {
	if cb.Status != store.PaymentStatusSucceeded && cb.Status != store.PaymentStatusFailed && cb.Status != store.PaymentStatusCanceled {
		s.logger.Debug("Ignoring payment webhook", zap.String("event_type", cb.EventType))
		return nil
	}

	order, err := s.findByCallback(ctx, cb)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("Payment webhook for unknown order",
				zap.String("event_id", cb.EventID),
				zap.String("reference", cb.Reference))
			return nil
		}
		return err
	}
	if order.Status != store.OrderStatusPending {
		s.logger.Info("Payment webhook for settled order ignored",
			zap.String("order_id", order.ID.String()),
			zap.String("status", string(order.Status)),
			zap.String("event_type", cb.EventType))
		return nil
	}

	switch cb.Status {
	case store.PaymentStatusSucceeded:
		if err := order.MarkPaid(s.now()); err != nil {
			return err
		}
		if err := s.orderRepo.Update(ctx, order); err != nil {
			return err
		}
		s.metrics.OrderTransition(string(store.OrderStatusPaid))
		s.logger.Info("Order paid",
			zap.String("order_id", order.ID.String()),
			zap.String("reference", cb.Reference))
		publishOrderEvents(ctx, s.events, s.logger, order)
	case store.PaymentStatusFailed:
		_, err = s.cancel(ctx, order, ReasonPaymentFailed)
	case store.PaymentStatusCanceled:
		_, err = s.cancel(ctx, order, ReasonPaymentCanceled)
	}
	return err
}

// ExpirePendingOrders cancels orders left unpaid for longer than ttl and
// returns how many were cancelled
func (s *OrderService) ExpirePendingOrders(ctx context.Context, ttl time.Duration, batchSize int) (int, error) {
	cutoff := s.now().Add(-ttl)
	orders, err := s.orderRepo.ListPendingCreatedBefore(ctx, cutoff, batchSize)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, order := range orders {
		if ctx.Err() != nil {
			return expired, ctx.Err()
		}
		if _, err := s.cancel(ctx, order, ReasonPaymentTimeout); err != nil {
			// a webhook may have settled it in the meantime
			if errors.Is(err, shared.ErrInvalidState) || errors.Is(err, shared.ErrConcurrencyConflict) {
				continue
			}
			s.logger.Error("Failed to expire order",
				zap.String("order_id", order.ID.String()),
				zap.Error(err))
			continue
		}
		expired++
	}
	if expired > 0 {
		s.logger.Info("Expired unpaid orders", zap.Int("count", expired))
	}
	return expired, nil
}

// cancel cancels and restocks order, closes its payment and publishes the event
func (s *OrderService) cancel(ctx context.Context, order *store.Order, reason string) (*store.Order, error) {
	cancelled, err := cancelAndRestock(ctx, s.scope, order.ID, reason, s.now(), nil)
	if err != nil {
		return nil, err
	}
	s.metrics.OrderTransition(string(store.OrderStatusCancelled))

	if cancelled.PaymentReference != "" && reason != ReasonPaymentCanceled {
		if err := s.gateway.ClosePayment(ctx, cancelled.PaymentReference); err != nil {
			s.logger.Warn("Failed to close payment of cancelled order",
				zap.String("order_id", cancelled.ID.String()),
				zap.Error(err))
		}
	}

	s.logger.Info("Order cancelled",
		zap.String("order_id", cancelled.ID.String()),
		zap.String("reason", reason))
	publishOrderEvents(ctx, s.events, s.logger, cancelled)
	return cancelled, nil
}

func (s *OrderService) findByCallback(ctx context.Context, cb *store.PaymentCallback) (*store.Order, error) {
	if cb.Reference != "" {
		order, err := s.orderRepo.FindByPaymentReference(ctx, s.gateway.Provider(), cb.Reference)
		if err == nil || !errors.Is(err, shared.ErrNotFound) {
			return order, err
		}
	}
	if cb.OrderID != uuid.Nil {
		return s.orderRepo.FindByID(ctx, cb.OrderID)
	}
	return nil, shared.ErrNotFound
}

func (s *OrderService) find(ctx context.Context, id uuid.UUID) (*store.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, errOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

func validateStatusFilter(status store.OrderStatus) error {
	if status != "" && !status.IsValid() {
		return shared.ErrInvalidInput.WithMessage("Unknown order status")
	}
	return nil
}
