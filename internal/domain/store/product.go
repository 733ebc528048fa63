package store

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/playhub/backend/internal/domain/shared"
	"github.com/playhub/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// AggregateTypeProduct is the aggregate type name used in domain events
const AggregateTypeProduct = "Product"

// ProductKind distinguishes shipped goods from downloads and codes
type ProductKind string

const (
	ProductKindPhysical ProductKind = "physical"
	ProductKindDigital  ProductKind = "digital"
)

// IsValid checks if the kind is known
func (k ProductKind) IsValid() bool {
	return k == ProductKindPhysical || k == ProductKindDigital
}

// ProductStatus represents the lifecycle status of a product
type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "active"
	ProductStatusArchived ProductStatus = "archived"
)

const (
	MaxProductImages = 10
	MaxProductTags   = 10
)

// Product is an item a seller offers on the storefront
type Product struct {
	shared.BaseAggregateRoot
	SellerID    uuid.UUID
	Name        string
	Description string
	Category    string
	Kind        ProductKind
	Price       valueobject.Money
	Stock       int
	Images      []string
	Tags        []string
	Status      ProductStatus
	SoldCount   int
}

// ProductInput carries the fields of a new product
type ProductInput struct {
	Name        string
	Description string
	Category    string
	Kind        ProductKind
	Price       decimal.Decimal
	Currency    string
	Stock       int
	Images      []string
	Tags        []string
}

// NewProduct creates an active product owned by sellerID
func NewProduct(sellerID uuid.UUID, in ProductInput) (*Product, error) {
	if sellerID == uuid.Nil {
		return nil, shared.ErrInvalidInput.WithMessage("Seller is required")
	}
	if in.Kind == "" {
		in.Kind = ProductKindPhysical
	}
	if !in.Kind.IsValid() {
		return nil, shared.NewDomainError("INVALID_PRODUCT_KIND", fmt.Sprintf("Unknown product kind %q", in.Kind))
	}
	if in.Stock < 0 {
		return nil, shared.ErrInvalidInput.WithMessage("Stock cannot be negative")
	}
	currency, err := valueobject.ParseCurrency(in.Currency)
	if err != nil {
		return nil, err
	}
	price, err := newPrice(in.Price, currency)
	if err != nil {
		return nil, err
	}

	p := &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		SellerID:          sellerID,
		Kind:              in.Kind,
		Price:             price,
		Stock:             in.Stock,
		Status:            ProductStatusActive,
	}
	if err := p.setDetails(in.Name, in.Description, in.Category); err != nil {
		return nil, err
	}
	if err := p.setImages(in.Images); err != nil {
		return nil, err
	}
	if err := p.setTags(in.Tags); err != nil {
		return nil, err
	}
	return p, nil
}

// ProductUpdate carries optional changes; nil fields are left unchanged
type ProductUpdate struct {
	Name        *string
	Description *string
	Category    *string
	Price       *decimal.Decimal
	Images      *[]string
	Tags        *[]string
}

// Update applies the non-nil fields. Archived products cannot be edited.
func (p *Product) Update(upd ProductUpdate) error {
	if p.Status == ProductStatusArchived {
		return shared.ErrInvalidState.WithMessage("Archived products cannot be edited")
	}
	next := *p
	name, desc, cat := p.Name, p.Description, p.Category
	if upd.Name != nil {
		name = *upd.Name
	}
	if upd.Description != nil {
		desc = *upd.Description
	}
	if upd.Category != nil {
		cat = *upd.Category
	}
	if err := next.setDetails(name, desc, cat); err != nil {
		return err
	}
	if upd.Price != nil {
		price, err := newPrice(*upd.Price, p.Price.Currency())
		if err != nil {
			return err
		}
		next.Price = price
	}
	if upd.Images != nil {
		if err := next.setImages(*upd.Images); err != nil {
			return err
		}
	}
	if upd.Tags != nil {
		if err := next.setTags(*upd.Tags); err != nil {
			return err
		}
	}

	p.Name, p.Description, p.Category = next.Name, next.Description, next.Category
	p.Price = next.Price
	p.Images = next.Images
	p.Tags = next.Tags
	p.Touch()
	p.IncrementVersion()
	return nil
}

// AdjustStock adds delta (which may be negative) to the stock
func (p *Product) AdjustStock(delta int) error {
	if p.Stock+delta < 0 {
		return shared.ErrInsufficientStock.WithMessage(
			fmt.Sprintf("Stock of %q cannot go below zero (current %d, change %d)", p.Name, p.Stock, delta))
	}
	p.Stock += delta
	p.Touch()
	p.IncrementVersion()
	return nil
}

// AddImage appends an image URL
func (p *Product) AddImage(imageURL string) error {
	return p.setImages(append(append([]string(nil), p.Images...), imageURL))
}

// Archive hides the product from the storefront
func (p *Product) Archive() error {
	if p.Status == ProductStatusArchived {
		return shared.ErrInvalidState.WithMessage("Product is already archived")
	}
	p.Status = ProductStatusArchived
	p.Touch()
	p.IncrementVersion()
	return nil
}

// IsActive reports whether the product is listed
func (p *Product) IsActive() bool {
	return p.Status == ProductStatusActive
}

// IsAvailable reports whether the product can be bought right now
func (p *Product) IsAvailable() bool {
	return p.IsActive() && p.Stock > 0
}

// IsOwnedBy reports whether userID is the seller
func (p *Product) IsOwnedBy(userID uuid.UUID) bool {
	return p.SellerID == userID
}

func (p *Product) setDetails(name, description, category string) error {
	name = strings.TrimSpace(name)
	description = strings.TrimSpace(description)
	category = strings.ToLower(strings.TrimSpace(category))

	if n := utf8.RuneCountInString(name); n < 1 || n > 120 {
		return shared.NewDomainError("INVALID_PRODUCT_NAME", "Product name must be 1 to 120 characters")
	}
	if utf8.RuneCountInString(description) > 5000 {
		return shared.NewDomainError("INVALID_PRODUCT_DESCRIPTION", "Description cannot exceed 5000 characters")
	}
	if utf8.RuneCountInString(category) > 50 {
		return shared.NewDomainError("INVALID_CATEGORY", "Category cannot exceed 50 characters")
	}
	p.Name, p.Description, p.Category = name, description, category
	return nil
}

func (p *Product) setImages(images []string) error {
	if len(images) > MaxProductImages {
		return shared.ErrInvalidInput.WithMessage(fmt.Sprintf("A product can have at most %d images", MaxProductImages))
	}
	out := make([]string, 0, len(images))
	for _, img := range images {
		img = strings.TrimSpace(img)
		u, err := url.Parse(img)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return shared.ErrInvalidInput.WithMessage("Product images must be http or https URLs")
		}
		out = append(out, img)
	}
	p.Images = out
	return nil
}

func (p *Product) setTags(tags []string) error {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" || seen[tag] {
			continue
		}
		if utf8.RuneCountInString(tag) > 30 {
			return shared.ErrInvalidInput.WithMessage("Tags cannot exceed 30 characters")
		}
		seen[tag] = true
		out = append(out, tag)
	}
	if len(out) > MaxProductTags {
		return shared.ErrInvalidInput.WithMessage(fmt.Sprintf("A product can have at most %d tags", MaxProductTags))
	}
	p.Tags = out
	return nil
}

func newPrice(amount decimal.Decimal, currency valueobject.Currency) (valueobject.Money, error) {
	if !amount.IsPositive() {
		return valueobject.Money{}, shared.NewDomainError("INVALID_PRICE", "Price must be greater than zero")
	}
	if !amount.Equal(amount.Round(currency.Places())) {
		return valueobject.Money{}, shared.NewDomainError("INVALID_PRICE",
			fmt.Sprintf("Price in %s can have at most %d decimal places", currency, currency.Places()))
	}
	return valueobject.NewMoney(amount, currency)
}
