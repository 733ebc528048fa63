package handler

import (
	"github.com/playhub/backend/internal/domain/shared/valueobject"
	"github.com/playhub/backend/internal/interfaces/http/dto"
	"github.com/shopspring/decimal"
)

// StoreItemQuery holds storefront query parameters. Prices stay strings so
// they can be parsed as decimals.
type StoreItemQuery struct {
	dto.ListRequest
	Category string `form:"category" binding:"max=50"`
	Kind     string `form:"kind" binding:"omitempty,oneof=physical digital"`
	SellerID string `form:"seller_id" binding:"omitempty,uuid"`
	MinPrice string `form:"min_price"`
	MaxPrice string `form:"max_price"`
	InStock  bool   `form:"in_stock"`
	Sort     string `form:"sort" binding:"omitempty,oneof=newest price_asc price_desc best_selling"`
}

// CreateProductRequest represents the request body for a new product
type CreateProductRequest struct {
	Name        string          `json:"name" binding:"required,min=1,max=120"`
	Description string          `json:"description" binding:"max=5000"`
	Category    string          `json:"category" binding:"max=50"`
	Kind        string          `json:"kind" binding:"required,oneof=physical digital"`
	Price       decimal.Decimal `json:"price"`
	Currency    string          `json:"currency" binding:"omitempty,len=3"`
	Stock       int             `json:"stock" binding:"gte=0"`
	Images      []string        `json:"images" binding:"max=10,dive,url"`
	Tags        []string        `json:"tags" binding:"max=10,dive,min=1,max=30"`
}

// UpdateProductRequest represents the request body for product changes.
// When version is present it must match the stored version.
type UpdateProductRequest struct {
	Name        *string          `json:"name" binding:"omitempty,min=1,max=120"`
	Description *string          `json:"description" binding:"omitempty,max=5000"`
	Category    *string          `json:"category" binding:"omitempty,max=50"`
	Price       *decimal.Decimal `json:"price"`
	Images      *[]string        `json:"images" binding:"omitempty,max=10,dive,url"`
	Tags        *[]string        `json:"tags" binding:"omitempty,max=10,dive,min=1,max=30"`
	Version     *int             `json:"version" binding:"omitempty,min=1"`
}

// AdjustStockRequest changes stock by a signed delta
type AdjustStockRequest struct {
	Delta int `json:"delta" binding:"required"`
}

// MyProductsQuery holds query parameters for the seller's product list
type MyProductsQuery struct {
	dto.ListRequest
	IncludeArchived bool `form:"include_archived"`
}

// CartItemRequest adds a product to the cart
type CartItemRequest struct {
	ProductID string `json:"product_id" binding:"required,uuid"`
	Quantity  int    `json:"quantity" binding:"required,min=1,max=99"`
}

// UpdateCartItemRequest sets a line's quantity; zero removes the line
type UpdateCartItemRequest struct {
	Quantity *int `json:"quantity" binding:"required,min=0,max=99"`
}

// ShippingAddressRequest is the shipping address supplied at checkout
type ShippingAddressRequest struct {
	Name       string `json:"name" binding:"required,max=100"`
	Line1      string `json:"line1" binding:"required,max=200"`
	Line2      string `json:"line2" binding:"max=200"`
	City       string `json:"city" binding:"required,max=100"`
	State      string `json:"state" binding:"max=100"`
	PostalCode string `json:"postal_code" binding:"required,max=20"`
	Country    string `json:"country" binding:"required,iso3166_1_alpha2"`
	Phone      string `json:"phone" binding:"max=30"`
}

func (r *ShippingAddressRequest) toValueObject() *valueobject.ShippingAddress {
	if r == nil {
		return nil
	}
	return &valueobject.ShippingAddress{
		Name:       r.Name,
		Line1:      r.Line1,
		Line2:      r.Line2,
		City:       r.City,
		State:      r.State,
		PostalCode: r.PostalCode,
		Country:    r.Country,
		Phone:      r.Phone,
	}
}

// CheckoutRequest represents the request body for checkout. Digital-only
// carts may omit the address.
type CheckoutRequest struct {
	ShippingAddress *ShippingAddressRequest `json:"shipping_address"`
}

// OrderListQuery holds query parameters for order listings
type OrderListQuery struct {
	dto.ListRequest
	Status string `form:"status" binding:"omitempty,oneof=pending paid fulfilled cancelled"`
}

// CancelOrderRequest represents the request body for order cancellation
type CancelOrderRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}
