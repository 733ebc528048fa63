package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/playhub/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// StoreItemSort orders the public storefront listing
type StoreItemSort string

const (
	SortNewest     StoreItemSort = "newest"
	SortPriceAsc   StoreItemSort = "price_asc"
	SortPriceDesc  StoreItemSort = "price_desc"
	SortBestSeller StoreItemSort = "best_selling"
)

// StoreItemFilter filters active products for the storefront
type StoreItemFilter struct {
	shared.Filter
	Category string
	Kind     ProductKind
	SellerID *uuid.UUID
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	InStock  bool
	Sort     StoreItemSort
}

// ProductRepository defines the interface for product persistence
type ProductRepository interface {
	Create(ctx context.Context, product *Product) error

	// Update saves the product when its stored version equals product.Version-1.
	// A mismatch yields shared.ErrConcurrencyConflict.
	Update(ctx context.Context, product *Product) error

	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*Product, error)

	// ListActive returns storefront items
	ListActive(ctx context.Context, filter StoreItemFilter) ([]*Product, int64, error)

	// ListBySeller returns a seller's products, archived ones included when asked
	ListBySeller(ctx context.Context, sellerID uuid.UUID, includeArchived bool, filter shared.Filter) ([]*Product, int64, error)

	// DecrementStock removes qty units only when at least qty are in stock,
	// and adds them to sold_count. Otherwise it fails with shared.ErrInsufficientStock.
	DecrementStock(ctx context.Context, productID uuid.UUID, qty int) error

	// RestoreStock puts qty units back and subtracts them from sold_count
	RestoreStock(ctx context.Context, productID uuid.UUID, qty int) error

	// Categories lists the distinct categories of active products
	Categories(ctx context.Context) ([]string, error)
}

// CartRepository defines the interface for cart persistence
type CartRepository interface {
	// FindByUserID returns the user's cart or an empty new cart
	FindByUserID(ctx context.Context, userID uuid.UUID) (*Cart, error)

	// Save replaces the stored lines with the cart's lines
	Save(ctx context.Context, cart *Cart) error
}

// OrderFilter filters order listings
type OrderFilter struct {
	shared.Filter
	Status OrderStatus
}

// OrderRepository defines the interface for order persistence
type OrderRepository interface {
	Create(ctx context.Context, order *Order) error

	// Update saves status and payment fields with an optimistic version check
	Update(ctx context.Context, order *Order) error

	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	FindByPaymentReference(ctx context.Context, provider, reference string) (*Order, error)

	ListByBuyer(ctx context.Context, buyerID uuid.UUID, filter OrderFilter) ([]*Order, int64, error)

	// ListBySeller returns orders containing at least one of the seller's products
	ListBySeller(ctx context.Context, sellerID uuid.UUID, filter OrderFilter) ([]*Order, int64, error)

	// ListPendingCreatedBefore returns pending orders created before cutoff, oldest first
	ListPendingCreatedBefore(ctx context.Context, cutoff time.Time, limit int) ([]*Order, error)
}
