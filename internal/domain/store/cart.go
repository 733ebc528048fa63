package store

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/playhub/backend/internal/domain/shared"
	"github.com/playhub/backend/internal/domain/shared/valueobject"
)

const (
	MaxCartLines    = 50
	MaxLineQuantity = 99
)

// AdjustmentReason explains why reconciliation changed a cart line
type AdjustmentReason string

const (
	ReasonRemovedUnavailable AdjustmentReason = "removed_unavailable"
	ReasonQuantityReduced    AdjustmentReason = "quantity_reduced"
	ReasonPriceChanged       AdjustmentReason = "price_changed"
)

// CartAdjustment records one change made by Reconcile
type CartAdjustment struct {
	ProductID   uuid.UUID          `json:"product_id"`
	Reason      AdjustmentReason   `json:"reason"`
	OldQuantity int                `json:"old_quantity"`
	NewQuantity int                `json:"new_quantity"`
	OldPrice    *valueobject.Money `json:"old_price,omitempty"`
	NewPrice    *valueobject.Money `json:"new_price,omitempty"`
}

// CartItem is one product line in a cart
type CartItem struct {
	ProductID uuid.UUID
	Quantity  int
	UnitPrice valueobject.Money
	AddedAt   time.Time
}

// Subtotal returns unit price times quantity
func (i CartItem) Subtotal() valueobject.Money {
	return i.UnitPrice.Times(i.Quantity)
}

// Cart holds the products a user intends to buy. There is one cart per user.
type Cart struct {
	shared.BaseAggregateRoot
	UserID uuid.UUID
	Items  []CartItem
}

// NewCart creates an empty cart for userID
func NewCart(userID uuid.UUID) *Cart {
	return &Cart{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		UserID:            userID,
		Items:             []CartItem{},
	}
}

func (c *Cart) indexOf(productID uuid.UUID) int {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// Item returns the line for productID
func (c *Cart) Item(productID uuid.UUID) (CartItem, bool) {
	if i := c.indexOf(productID); i >= 0 {
		return c.Items[i], true
	}
	return CartItem{}, false
}

func (c *Cart) checkPurchasable(p *Product, quantity int) error {
	if p.IsOwnedBy(c.UserID) {
		return shared.ErrInvalidInput.WithMessage("You cannot buy your own product")
	}
	if !p.IsActive() {
		return shared.ErrInvalidState.WithMessage(fmt.Sprintf("Product %q is no longer available", p.Name))
	}
	if quantity > MaxLineQuantity {
		return shared.ErrInvalidInput.WithMessage(fmt.Sprintf("At most %d units per product", MaxLineQuantity))
	}
	if quantity > p.Stock {
		return shared.ErrInsufficientStock.WithMessage(
			fmt.Sprintf("Only %d of %q left in stock", p.Stock, p.Name)).
			WithDetails(map[string]any{"product_id": p.ID, "available": p.Stock, "requested": quantity})
	}
	for _, item := range c.Items {
		if item.ProductID != p.ID && item.UnitPrice.Currency() != p.Price.Currency() {
			return shared.ErrInvalidInput.WithMessage("All items in a cart must use the same currency")
		}
	}
	return nil
}

// AddItem adds quantity of p, merging with an existing line
func (c *Cart) AddItem(p *Product, quantity int, now time.Time) error {
	if quantity < 1 {
		return shared.ErrInvalidInput.WithMessage("Quantity must be at least 1")
	}
	idx := c.indexOf(p.ID)
	total := quantity
	if idx >= 0 {
		total += c.Items[idx].Quantity
	} else if len(c.Items) >= MaxCartLines {
		return shared.ErrInvalidInput.WithMessage(fmt.Sprintf("A cart can hold at most %d products", MaxCartLines))
	}
	if err := c.checkPurchasable(p, total); err != nil {
		return err
	}

	if idx >= 0 {
		c.Items[idx].Quantity = total
		c.Items[idx].UnitPrice = p.Price
	} else {
		c.Items = append(c.Items, CartItem{
			ProductID: p.ID,
			Quantity:  quantity,
			UnitPrice: p.Price,
			AddedAt:   now,
		})
	}
	c.Touch()
	return nil
}

// UpdateItem sets the quantity of an existing line; zero removes it
func (c *Cart) UpdateItem(p *Product, quantity int) error {
	if quantity < 0 {
		return shared.ErrInvalidInput.WithMessage("Quantity cannot be negative")
	}
	idx := c.indexOf(p.ID)
	if idx < 0 {
		return shared.ErrNotFound.WithMessage("Product is not in the cart")
	}
	if quantity == 0 {
		return c.RemoveItem(p.ID)
	}
	if err := c.checkPurchasable(p, quantity); err != nil {
		return err
	}
	c.Items[idx].Quantity = quantity
	c.Items[idx].UnitPrice = p.Price
	c.Touch()
	return nil
}

// RemoveItem deletes the line for productID
func (c *Cart) RemoveItem(productID uuid.UUID) error {
	idx := c.indexOf(productID)
	if idx < 0 {
		return shared.ErrNotFound.WithMessage("Product is not in the cart")
	}
	c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
	c.Touch()
	return nil
}

// Clear removes every line
func (c *Cart) Clear() {
	c.Items = []CartItem{}
	c.Touch()
}

// Restore merges lines taken out by a checkout that did not go through back
// into the cart. Quantities are capped per line; the next reconciliation
// settles stock and prices.
func (c *Cart) Restore(lines []CartItem) {
	for _, line := range lines {
		if i := c.indexOf(line.ProductID); i >= 0 {
			c.Items[i].Quantity = min(c.Items[i].Quantity+line.Quantity, MaxLineQuantity)
			continue
		}
		if len(c.Items) >= MaxCartLines {
			continue
		}
		c.Items = append(c.Items, line)
	}
	c.Touch()
}

// IsEmpty reports whether the cart has no lines
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// ProductIDs returns the ids of all products in the cart
func (c *Cart) ProductIDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(c.Items))
	for i, item := range c.Items {
		ids[i] = item.ProductID
	}
	return ids
}

// ItemCount returns the total number of units
func (c *Cart) ItemCount() int {
	n := 0
	for _, item := range c.Items {
		n += item.Quantity
	}
	return n
}

// Total sums the line subtotals. An empty cart totals zero in the default currency.
func (c *Cart) Total() valueobject.Money {
	if len(c.Items) == 0 {
		return valueobject.Zero(valueobject.DefaultCurrency)
	}
	total := valueobject.Zero(c.Items[0].UnitPrice.Currency())
	for _, item := range c.Items {
		if sum, err := total.Add(item.Subtotal()); err == nil {
			total = sum
		}
	}
	return total
}

// Reconcile brings every line in line with the current product state.
// Lines whose product is gone, archived or out of stock are removed,
// quantities above stock are reduced and price snapshots are refreshed.
// It returns what changed; an empty result means the cart was already consistent.
func (c *Cart) Reconcile(products map[uuid.UUID]*Product) []CartAdjustment {
	var adjustments []CartAdjustment
	kept := c.Items[:0]
	for _, item := range c.Items {
		p, ok := products[item.ProductID]
		if !ok || !p.IsAvailable() {
			adjustments = append(adjustments, CartAdjustment{
				ProductID:   item.ProductID,
				Reason:      ReasonRemovedUnavailable,
				OldQuantity: item.Quantity,
				NewQuantity: 0,
			})
			continue
		}
		if item.Quantity > p.Stock {
			adjustments = append(adjustments, CartAdjustment{
				ProductID:   item.ProductID,
				Reason:      ReasonQuantityReduced,
				OldQuantity: item.Quantity,
				NewQuantity: p.Stock,
			})
			item.Quantity = p.Stock
		}
		if !item.UnitPrice.Equals(p.Price) {
			oldPrice, newPrice := item.UnitPrice, p.Price
			adjustments = append(adjustments, CartAdjustment{
				ProductID:   item.ProductID,
				Reason:      ReasonPriceChanged,
				OldQuantity: item.Quantity,
				NewQuantity: item.Quantity,
				OldPrice:    &oldPrice,
				NewPrice:    &newPrice,
			})
			item.UnitPrice = p.Price
		}
		kept = append(kept, item)
	}
	c.Items = kept
	if len(adjustments) > 0 {
		c.Touch()
	}
	return adjustments
}
