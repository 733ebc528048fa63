package store

import (
	"crypto/rand"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/playhub/backend/internal/domain/shared"
	"github.com/playhub/backend/internal/domain/shared/valueobject"
)

// AggregateTypeOrder is the aggregate type name used in domain events
const AggregateTypeOrder = "Order"

// OrderStatus represents the status of an order
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusFulfilled OrderStatus = "fulfilled"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// IsValid checks if the status is a valid OrderStatus
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPaid, OrderStatusFulfilled, OrderStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo checks if the status can move to target
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	switch s {
	case OrderStatusPending:
		return target == OrderStatusPaid || target == OrderStatusCancelled
	case OrderStatusPaid:
		return target == OrderStatusFulfilled
	}
	return false
}

// OrderItem is an immutable snapshot of a purchased product
type OrderItem struct {
	ProductID uuid.UUID
	SellerID  uuid.UUID
	Name      string
	Kind      ProductKind
	UnitPrice valueobject.Money
	Quantity  int
	Subtotal  valueobject.Money
}

// Order is a checked-out cart
type Order struct {
	shared.BaseAggregateRoot
	OrderNumber      string
	BuyerID          uuid.UUID
	Items            []OrderItem
	Total            valueobject.Money
	Status           OrderStatus
	ShippingAddress  *valueobject.ShippingAddress
	PaymentProvider  string
	PaymentReference string
	// ClientSecret is handed to the buyer once and never stored
	ClientSecret string
	PaidAt       *time.Time
	FulfilledAt  *time.Time
	CancelledAt  *time.Time
	CancelReason string
}

const orderNumberAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenerateOrderNumber returns a number of the form ORD-YYYYMMDD-XXXXXX
func GenerateOrderNumber(now time.Time) string {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		copy(buf, strings.ReplaceAll(uuid.NewString(), "-", ""))
	}
	for i, b := range buf {
		buf[i] = orderNumberAlphabet[int(b)%len(orderNumberAlphabet)]
	}
	return fmt.Sprintf("ORD-%s-%s", now.UTC().Format("20060102"), buf)
}

// NewOrderFromCart snapshots the cart lines into a pending order.
// The cart must already be reconciled against products.
func NewOrderFromCart(orderNumber string, cart *Cart, products map[uuid.UUID]*Product, address *valueobject.ShippingAddress) (*Order, error) {
	if cart.IsEmpty() {
		return nil, shared.ErrInvalidInput.WithMessage("Cart is empty")
	}

	currency := cart.Items[0].UnitPrice.Currency()
	total := valueobject.Zero(currency)
	items := make([]OrderItem, 0, len(cart.Items))
	needsShipping := false
	for _, line := range cart.Items {
		p, ok := products[line.ProductID]
		if !ok {
			return nil, shared.ErrNotFound.WithMessage("Product no longer exists")
		}
		if p.Kind == ProductKindPhysical {
			needsShipping = true
		}
		subtotal := line.UnitPrice.Times(line.Quantity)
		sum, err := total.Add(subtotal)
		if err != nil {
			return nil, err
		}
		total = sum
		items = append(items, OrderItem{
			ProductID: p.ID,
			SellerID:  p.SellerID,
			Name:      p.Name,
			Kind:      p.Kind,
			UnitPrice: line.UnitPrice,
			Quantity:  line.Quantity,
			Subtotal:  subtotal,
		})
	}

	var shipTo *valueobject.ShippingAddress
	if address != nil && !address.IsZero() {
		normalized := address.Normalize()
		if err := normalized.Validate(); err != nil {
			return nil, err
		}
		shipTo = &normalized
	}
	if needsShipping && shipTo == nil {
		return nil, shared.NewDomainError("SHIPPING_ADDRESS_REQUIRED", "A shipping address is required for physical items")
	}

	o := &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderNumber:       orderNumber,
		BuyerID:           cart.UserID,
		Items:             items,
		Total:             total,
		Status:            OrderStatusPending,
		ShippingAddress:   shipTo,
	}
	o.AddDomainEvent(NewOrderPlacedEvent(o))
	return o, nil
}

// AttachPayment records the gateway reference of the payment intent
func (o *Order) AttachPayment(provider, reference, clientSecret string) {
	o.PaymentProvider = provider
	o.PaymentReference = reference
	o.ClientSecret = clientSecret
	o.Touch()
	o.IncrementVersion()
}

// MarkPaid moves a pending order to paid
func (o *Order) MarkPaid(now time.Time) error {
	if !o.Status.CanTransitionTo(OrderStatusPaid) {
		return shared.ErrInvalidState.WithMessage(fmt.Sprintf("Cannot mark order paid in %s status", o.Status))
	}
	o.Status = OrderStatusPaid
	o.PaidAt = &now
	o.UpdatedAt = now
	o.IncrementVersion()
	o.AddDomainEvent(NewOrderPaidEvent(o))
	return nil
}

// Fulfill moves a paid order to fulfilled
func (o *Order) Fulfill(now time.Time) error {
	if !o.Status.CanTransitionTo(OrderStatusFulfilled) {
		return shared.ErrInvalidState.WithMessage(fmt.Sprintf("Cannot fulfill order in %s status", o.Status))
	}
	o.Status = OrderStatusFulfilled
	o.FulfilledAt = &now
	o.UpdatedAt = now
	o.IncrementVersion()
	o.AddDomainEvent(NewOrderFulfilledEvent(o))
	return nil
}

// Cancel moves a pending order to cancelled. The caller restocks the items.
func (o *Order) Cancel(reason string, now time.Time) error {
	if !o.Status.CanTransitionTo(OrderStatusCancelled) {
		return shared.ErrInvalidState.WithMessage(fmt.Sprintf("Cannot cancel order in %s status", o.Status))
	}
	reason = strings.TrimSpace(reason)
	if utf8.RuneCountInString(reason) > 500 {
		return shared.ErrInvalidInput.WithMessage("Cancel reason cannot exceed 500 characters")
	}
	o.Status = OrderStatusCancelled
	o.CancelReason = reason
	o.CancelledAt = &now
	o.UpdatedAt = now
	o.IncrementVersion()
	o.AddDomainEvent(NewOrderCancelledEvent(o))
	return nil
}

// SellerIDs returns the distinct sellers in the order
func (o *Order) SellerIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]bool)
	var ids []uuid.UUID
	for _, item := range o.Items {
		if !seen[item.SellerID] {
			seen[item.SellerID] = true
			ids = append(ids, item.SellerID)
		}
	}
	return ids
}

// HasSeller reports whether userID sells at least one item of the order
func (o *Order) HasSeller(userID uuid.UUID) bool {
	for _, item := range o.Items {
		if item.SellerID == userID {
			return true
		}
	}
	return false
}

// IsSoleSeller reports whether userID sells every item of the order
func (o *Order) IsSoleSeller(userID uuid.UUID) bool {
	if len(o.Items) == 0 {
		return false
	}
	for _, item := range o.Items {
		if item.SellerID != userID {
			return false
		}
	}
	return true
}

// CanView reports whether userID is the buyer or one of the sellers
func (o *Order) CanView(userID uuid.UUID) bool {
	return o.BuyerID == userID || o.HasSeller(userID)
}

// Quantities returns units per product, used for stock movements
func (o *Order) Quantities() map[uuid.UUID]int {
	q := make(map[uuid.UUID]int, len(o.Items))
	for _, item := range o.Items {
		q[item.ProductID] += item.Quantity
	}
	return q
}
