package store

import (
	"github.com/google/uuid"
	"github.com/playhub/backend/internal/domain/shared"
	"github.com/playhub/backend/internal/domain/shared/valueobject"
)

// Event type constants
const (
	EventTypeOrderPlaced    = "OrderPlaced"
	EventTypeOrderPaid      = "OrderPaid"
	EventTypeOrderFulfilled = "OrderFulfilled"
	EventTypeOrderCancelled = "OrderCancelled"
)

// OrderEventPayload is shared by every order event
type OrderEventPayload struct {
	OrderID     uuid.UUID         `json:"order_id"`
	OrderNumber string            `json:"order_number"`
	BuyerID     uuid.UUID         `json:"buyer_id"`
	SellerIDs   []uuid.UUID       `json:"seller_ids"`
	Total       valueobject.Money `json:"total"`
}

func newOrderEventPayload(o *Order) OrderEventPayload {
	return OrderEventPayload{
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		BuyerID:     o.BuyerID,
		SellerIDs:   o.SellerIDs(),
		Total:       o.Total,
	}
}

// OrderPlacedEvent is published when checkout creates an order
type OrderPlacedEvent struct {
	shared.BaseDomainEvent
	OrderEventPayload
}

// NewOrderPlacedEvent creates a new OrderPlacedEvent
func NewOrderPlacedEvent(o *Order) *OrderPlacedEvent {
	return &OrderPlacedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypeOrderPlaced, AggregateTypeOrder, o.ID),
		OrderEventPayload: newOrderEventPayload(o),
	}
}

// OrderPaidEvent is published when the payment gateway confirms payment
type OrderPaidEvent struct {
	shared.BaseDomainEvent
	OrderEventPayload
}

// NewOrderPaidEvent creates a new OrderPaidEvent
func NewOrderPaidEvent(o *Order) *OrderPaidEvent {
	return &OrderPaidEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypeOrderPaid, AggregateTypeOrder, o.ID),
		OrderEventPayload: newOrderEventPayload(o),
	}
}

// OrderFulfilledEvent is published when the seller fulfills a paid order
type OrderFulfilledEvent struct {
	shared.BaseDomainEvent
	OrderEventPayload
}

// NewOrderFulfilledEvent creates a new OrderFulfilledEvent
func NewOrderFulfilledEvent(o *Order) *OrderFulfilledEvent {
	return &OrderFulfilledEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypeOrderFulfilled, AggregateTypeOrder, o.ID),
		OrderEventPayload: newOrderEventPayload(o),
	}
}

// OrderCancelledEvent is published when a pending order is cancelled
type OrderCancelledEvent struct {
	shared.BaseDomainEvent
	OrderEventPayload
	Reason string `json:"reason"`
}

// NewOrderCancelledEvent creates a new OrderCancelledEvent
func NewOrderCancelledEvent(o *Order) *OrderCancelledEvent {
	return &OrderCancelledEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypeOrderCancelled, AggregateTypeOrder, o.ID),
		OrderEventPayload: newOrderEventPayload(o),
		Reason:            o.CancelReason,
	}
}
