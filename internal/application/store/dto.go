package store

import (
	"time"

	"github.com/google/uuid"
	"github.com/playhub/backend/internal/domain/shared/valueobject"
	"github.com/playhub/backend/internal/domain/store"
	"github.com/shopspring/decimal"
)

// Actor is the authenticated caller of a store operation
type Actor struct {
	UserID  uuid.UUID
	IsAdmin bool
}

// ProductDTO is the API view of a product
type ProductDTO struct {
	ID          uuid.UUID         `json:"id"`
	SellerID    uuid.UUID         `json:"seller_id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Category    string            `json:"category"`
	Kind        string            `json:"kind"`
	Price       valueobject.Money `json:"price"`
	Stock       int               `json:"stock"`
	InStock     bool              `json:"in_stock"`
	Images      []string          `json:"images"`
	Tags        []string          `json:"tags"`
	Status      string            `json:"status"`
	SoldCount   int               `json:"sold_count"`
	Version     int               `json:"version"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// ToProductDTO converts a domain product to its API view
func ToProductDTO(p *store.Product) ProductDTO {
	images := p.Images
	if images == nil {
		images = []string{}
	}
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	return ProductDTO{
		ID:          p.ID,
		SellerID:    p.SellerID,
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		Kind:        string(p.Kind),
		Price:       p.Price,
		Stock:       p.Stock,
		InStock:     p.IsAvailable(),
		Images:      images,
		Tags:        tags,
		Status:      string(p.Status),
		SoldCount:   p.SoldCount,
		Version:     p.Version,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func toProductDTOs(products []*store.Product) []ProductDTO {
	out := make([]ProductDTO, len(products))
	for i, p := range products {
		out[i] = ToProductDTO(p)
	}
	return out
}

// CreateProductInput carries the fields of a new product
type CreateProductInput struct {
	Name        string
	Description string
	Category    string
	Kind        string
	Price       decimal.Decimal
	Currency    string
	Stock       int
	Images      []string
	Tags        []string
}

// UpdateProductInput carries optional product changes. When Version is set
// the update fails with a concurrency conflict unless it matches.
type UpdateProductInput struct {
	Name        *string
	Description *string
	Category    *string
	Price       *decimal.Decimal
	Images      *[]string
	Tags        *[]string
	Version     *int
}

// CartLineDTO is one cart line joined with the current product state
type CartLineDTO struct {
	ProductID uuid.UUID         `json:"product_id"`
	Name      string            `json:"name"`
	Image     string            `json:"image,omitempty"`
	Kind      string            `json:"kind"`
	SellerID  uuid.UUID         `json:"seller_id"`
	Quantity  int               `json:"quantity"`
	UnitPrice valueobject.Money `json:"unit_price"`
	Subtotal  valueobject.Money `json:"subtotal"`
	Stock     int               `json:"stock"`
	AddedAt   time.Time         `json:"added_at"`
}

// CartDTO is the API view of a cart
type CartDTO struct {
	UserID      uuid.UUID              `json:"user_id"`
	Items       []CartLineDTO          `json:"items"`
	ItemCount   int                    `json:"item_count"`
	Total       valueobject.Money      `json:"total"`
	Adjustments []store.CartAdjustment `json:"adjustments"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

func toCartDTO(cart *store.Cart, products map[uuid.UUID]*store.Product, adjustments []store.CartAdjustment) *CartDTO {
	if adjustments == nil {
		adjustments = []store.CartAdjustment{}
	}
	lines := make([]CartLineDTO, 0, len(cart.Items))
	for _, item := range cart.Items {
		line := CartLineDTO{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Subtotal:  item.Subtotal(),
			AddedAt:   item.AddedAt,
		}
		if p, ok := products[item.ProductID]; ok {
			line.Name = p.Name
			line.Kind = string(p.Kind)
			line.SellerID = p.SellerID
			line.Stock = p.Stock
			if len(p.Images) > 0 {
				line.Image = p.Images[0]
			}
		}
		lines = append(lines, line)
	}
	return &CartDTO{
		UserID:      cart.UserID,
		Items:       lines,
		ItemCount:   cart.ItemCount(),
		Total:       cart.Total(),
		Adjustments: adjustments,
		UpdatedAt:   cart.UpdatedAt,
	}
}

// OrderItemDTO is one purchased line
type OrderItemDTO struct {
	ProductID uuid.UUID         `json:"product_id"`
	SellerID  uuid.UUID         `json:"seller_id"`
	Name      string            `json:"name"`
	Kind      string            `json:"kind"`
	UnitPrice valueobject.Money `json:"unit_price"`
	Quantity  int               `json:"quantity"`
	Subtotal  valueobject.Money `json:"subtotal"`
}

// OrderDTO is the API view of an order
type OrderDTO struct {
	ID               uuid.UUID                    `json:"id"`
	OrderNumber      string                       `json:"order_number"`
	BuyerID          uuid.UUID                    `json:"buyer_id"`
	Items            []OrderItemDTO               `json:"items"`
	Total            valueobject.Money            `json:"total"`
	Status           string                       `json:"status"`
	ShippingAddress  *valueobject.ShippingAddress `json:"shipping_address,omitempty"`
	PaymentProvider  string                       `json:"payment_provider,omitempty"`
	PaymentReference string                       `json:"payment_reference,omitempty"`
	ClientSecret     string                       `json:"client_secret,omitempty"`
	PaidAt           *time.Time                   `json:"paid_at,omitempty"`
	FulfilledAt      *time.Time                   `json:"fulfilled_at,omitempty"`
	CancelledAt      *time.Time                   `json:"cancelled_at,omitempty"`
	CancelReason     string                       `json:"cancel_reason,omitempty"`
	Version          int                          `json:"version"`
	CreatedAt        time.Time                    `json:"created_at"`
	UpdatedAt        time.Time                    `json:"updated_at"`
}

// ToOrderDTO converts a domain order to its API view
func ToOrderDTO(o *store.Order) OrderDTO {
	items := make([]OrderItemDTO, len(o.Items))
	for i, item := range o.Items {
		items[i] = OrderItemDTO{
			ProductID: item.ProductID,
			SellerID:  item.SellerID,
			Name:      item.Name,
			Kind:      string(item.Kind),
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			Subtotal:  item.Subtotal,
		}
	}
	return OrderDTO{
		ID:               o.ID,
		OrderNumber:      o.OrderNumber,
		BuyerID:          o.BuyerID,
		Items:            items,
		Total:            o.Total,
		Status:           string(o.Status),
		ShippingAddress:  o.ShippingAddress,
		PaymentProvider:  o.PaymentProvider,
		PaymentReference: o.PaymentReference,
		ClientSecret:     o.ClientSecret,
		PaidAt:           o.PaidAt,
		FulfilledAt:      o.FulfilledAt,
		CancelledAt:      o.CancelledAt,
		CancelReason:     o.CancelReason,
		Version:          o.Version,
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
	}
}

func toOrderDTOs(orders []*store.Order) []OrderDTO {
	out := make([]OrderDTO, len(orders))
	for i, o := range orders {
		out[i] = ToOrderDTO(o)
	}
	return out
}

// CheckoutInput starts a checkout of the buyer's cart
type CheckoutInput struct {
	BuyerID         uuid.UUID
	ShippingAddress *valueobject.ShippingAddress
	IdempotencyKey  string
}
