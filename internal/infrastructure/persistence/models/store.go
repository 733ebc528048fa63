package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/playhub/backend/internal/domain/shared/valueobject"
	"github.com/playhub/backend/internal/domain/store"
	"github.com/shopspring/decimal"
)

// ProductModel is the persistence model for the Product aggregate.
type ProductModel struct {
	AggregateModel
	SellerID    uuid.UUID           `gorm:"type:uuid;not null;index"`
	Name        string              `gorm:"type:varchar(120);not null"`
	Description string              `gorm:"type:text"`
	Category    string              `gorm:"type:varchar(50);index"`
	Kind        store.ProductKind   `gorm:"type:varchar(20);not null"`
	Price       decimal.Decimal     `gorm:"type:numeric(14,2);not null"`
	Currency    string              `gorm:"type:varchar(3);not null;default:'USD'"`
	Stock       int                 `gorm:"not null;default:0"`
	Images      pq.StringArray      `gorm:"type:text[]"`
	Tags        pq.StringArray      `gorm:"type:text[]"`
	Status      store.ProductStatus `gorm:"type:varchar(20);not null;default:'active';index"`
	SoldCount   int                 `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product.
func (m *ProductModel) ToDomain() *store.Product {
	return &store.Product{
		BaseAggregateRoot: m.ToAggregateRoot(),
		SellerID:          m.SellerID,
		Name:              m.Name,
		Description:       m.Description,
		Category:          m.Category,
		Kind:              m.Kind,
		Price:             valueobject.RestoreMoney(m.Price, valueobject.Currency(m.Currency)),
		Stock:             m.Stock,
		Images:            nonNil(m.Images),
		Tags:              nonNil(m.Tags),
		Status:            m.Status,
		SoldCount:         m.SoldCount,
	}
}

// FromDomain populates the persistence model from a domain Product.
func (m *ProductModel) FromDomain(p *store.Product) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.SellerID = p.SellerID
	m.Name = p.Name
	m.Description = p.Description
	m.Category = p.Category
	m.Kind = p.Kind
	m.Price = p.Price.Amount()
	m.Currency = p.Price.Currency().String()
	m.Stock = p.Stock
	m.Images = pq.StringArray(nonNil(p.Images))
	m.Tags = pq.StringArray(nonNil(p.Tags))
	m.Status = p.Status
	m.SoldCount = p.SoldCount
}

// ProductModelFromDomain creates a new persistence model from a domain Product.
func ProductModelFromDomain(p *store.Product) *ProductModel {
	m := &ProductModel{}
	m.FromDomain(p)
	return m
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

// CartModel stores a user's cart; lines live in a JSON column.
type CartModel struct {
	AggregateModel
	UserID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	Items  string    `gorm:"type:jsonb;not null;default:'[]'"`
}

// TableName returns the table name for GORM
func (CartModel) TableName() string {
	return "carts"
}

type cartItemJSON struct {
	ProductID uuid.UUID         `json:"product_id"`
	Quantity  int               `json:"quantity"`
	UnitPrice valueobject.Money `json:"unit_price"`
	AddedAt   time.Time         `json:"added_at"`
}

// ToDomain converts the persistence model to a domain Cart.
func (m *CartModel) ToDomain() (*store.Cart, error) {
	var raw []cartItemJSON
	if m.Items != "" {
		if err := json.Unmarshal([]byte(m.Items), &raw); err != nil {
			return nil, fmt.Errorf("decode cart %s items: %w", m.ID, err)
		}
	}
	items := make([]store.CartItem, 0, len(raw))
	for _, r := range raw {
		items = append(items, store.CartItem{
			ProductID: r.ProductID,
			Quantity:  r.Quantity,
			UnitPrice: r.UnitPrice,
			AddedAt:   r.AddedAt,
		})
	}
	return &store.Cart{
		BaseAggregateRoot: m.ToAggregateRoot(),
		UserID:            m.UserID,
		Items:             items,
	}, nil
}

// CartModelFromDomain creates a new persistence model from a domain Cart.
func CartModelFromDomain(c *store.Cart) (*CartModel, error) {
	raw := make([]cartItemJSON, 0, len(c.Items))
	for _, item := range c.Items {
		raw = append(raw, cartItemJSON{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			AddedAt:   item.AddedAt,
		})
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	m := &CartModel{UserID: c.UserID, Items: string(data)}
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	return m, nil
}

// OrderModel is the persistence model for the Order aggregate.
type OrderModel struct {
	AggregateModel
	OrderNumber      string                       `gorm:"type:varchar(32);not null;uniqueIndex"`
	BuyerID          uuid.UUID                    `gorm:"type:uuid;not null;index"`
	TotalAmount      decimal.Decimal              `gorm:"type:numeric(14,2);not null"`
	Currency         string                       `gorm:"type:varchar(3);not null"`
	Status           store.OrderStatus            `gorm:"type:varchar(20);not null;index"`
	ShippingAddress  *valueobject.ShippingAddress `gorm:"type:jsonb"`
	PaymentProvider  string                       `gorm:"type:varchar(20)"`
	PaymentReference string                       `gorm:"type:varchar(255);index"`
	PaidAt           *time.Time
	FulfilledAt      *time.Time
	CancelledAt      *time.Time
	CancelReason     string           `gorm:"type:varchar(500)"`
	Items            []OrderItemModel `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// OrderItemModel is one line of an order.
type OrderItemModel struct {
	ID        uuid.UUID         `gorm:"type:uuid;primaryKey"`
	OrderID   uuid.UUID         `gorm:"type:uuid;not null;index"`
	ProductID uuid.UUID         `gorm:"type:uuid;not null;index"`
	SellerID  uuid.UUID         `gorm:"type:uuid;not null;index"`
	Name      string            `gorm:"type:varchar(120);not null"`
	Kind      store.ProductKind `gorm:"type:varchar(20);not null"`
	UnitPrice decimal.Decimal   `gorm:"type:numeric(14,2);not null"`
	Quantity  int               `gorm:"not null"`
	Subtotal  decimal.Decimal   `gorm:"type:numeric(14,2);not null"`
	Currency  string            `gorm:"type:varchar(3);not null"`
}

// TableName returns the table name for GORM
func (OrderItemModel) TableName() string {
	return "order_items"
}

// ToDomain converts the persistence model to a domain Order.
// Items must have been preloaded.
func (m *OrderModel) ToDomain() *store.Order {
	currency := valueobject.Currency(m.Currency)
	items := make([]store.OrderItem, 0, len(m.Items))
	for _, it := range m.Items {
		items = append(items, store.OrderItem{
			ProductID: it.ProductID,
			SellerID:  it.SellerID,
			Name:      it.Name,
			Kind:      it.Kind,
			UnitPrice: valueobject.RestoreMoney(it.UnitPrice, currency),
			Quantity:  it.Quantity,
			Subtotal:  valueobject.RestoreMoney(it.Subtotal, currency),
		})
	}
	var address *valueobject.ShippingAddress
	if m.ShippingAddress != nil && !m.ShippingAddress.IsZero() {
		a := *m.ShippingAddress
		address = &a
	}
	return &store.Order{
		BaseAggregateRoot: m.ToAggregateRoot(),
		OrderNumber:       m.OrderNumber,
		BuyerID:           m.BuyerID,
		Items:             items,
		Total:             valueobject.RestoreMoney(m.TotalAmount, currency),
		Status:            m.Status,
		ShippingAddress:   address,
		PaymentProvider:   m.PaymentProvider,
		PaymentReference:  m.PaymentReference,
		PaidAt:            m.PaidAt,
		FulfilledAt:       m.FulfilledAt,
		CancelledAt:       m.CancelledAt,
		CancelReason:      m.CancelReason,
	}
}

// OrderModelFromDomain creates a new persistence model, lines included.
func OrderModelFromDomain(o *store.Order) *OrderModel {
	m := &OrderModel{
		OrderNumber:      o.OrderNumber,
		BuyerID:          o.BuyerID,
		TotalAmount:      o.Total.Amount(),
		Currency:         o.Total.Currency().String(),
		Status:           o.Status,
		ShippingAddress:  o.ShippingAddress,
		PaymentProvider:  o.PaymentProvider,
		PaymentReference: o.PaymentReference,
		PaidAt:           o.PaidAt,
		FulfilledAt:      o.FulfilledAt,
		CancelledAt:      o.CancelledAt,
		CancelReason:     o.CancelReason,
	}
	m.FromDomainAggregateRoot(o.BaseAggregateRoot)
	m.Items = make([]OrderItemModel, 0, len(o.Items))
	for _, it := range o.Items {
		m.Items = append(m.Items, OrderItemModel{
			ID:        uuid.New(),
			OrderID:   o.ID,
			ProductID: it.ProductID,
			SellerID:  it.SellerID,
			Name:      it.Name,
			Kind:      it.Kind,
			UnitPrice: it.UnitPrice.Amount(),
			Quantity:  it.Quantity,
			Subtotal:  it.Subtotal.Amount(),
			Currency:  m.Currency,
		})
	}
	return m
}

