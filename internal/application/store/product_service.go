// Package store implements the storefront: seller products, carts, checkout,
// orders and payment callbacks.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/playhub/backend/internal/application/upload"
	"github.com/playhub/backend/internal/domain/shared"
	"github.com/playhub/backend/internal/domain/store"
	"go.uber.org/zap"
)

var errProductNotFound = shared.ErrNotFound.WithMessage("Product not found")

// ProductService manages seller products and the public storefront
type ProductService struct {
	productRepo store.ProductRepository
	uploads     *upload.Service
	logger      *zap.Logger
}

// NewProductService creates a new product service
func NewProductService(productRepo store.ProductRepository, uploads *upload.Service, logger *zap.Logger) *ProductService {
	return &ProductService{
		productRepo: productRepo,
		uploads:     uploads,
		logger:      logger,
	}
}

// ListStoreItems returns active products matching filter
func (s *ProductService) ListStoreItems(ctx context.Context, filter store.StoreItemFilter) ([]ProductDTO, int64, error) {
	if filter.MinPrice != nil && filter.MaxPrice != nil && filter.MinPrice.GreaterThan(*filter.MaxPrice) {
		return nil, 0, shared.ErrInvalidInput.WithMessage("min_price cannot exceed max_price")
	}
	if filter.Kind != "" && !filter.Kind.IsValid() {
		return nil, 0, shared.ErrInvalidInput.WithMessage("Unknown product kind")
	}
	products, total, err := s.productRepo.ListActive(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return toProductDTOs(products), total, nil
}

// GetStoreItem returns an active product. Archived products are not found.
func (s *ProductService) GetStoreItem(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	p, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsActive() {
		return nil, errProductNotFound
	}
	dto := ToProductDTO(p)
	return &dto, nil
}

// Categories lists the categories in use on the storefront
func (s *ProductService) Categories(ctx context.Context) ([]string, error) {
	return s.productRepo.Categories(ctx)
}

// CreateProduct lists a new product for sellerID
func (s *ProductService) CreateProduct(ctx context.Context, sellerID uuid.UUID, input CreateProductInput) (*ProductDTO, error) {
	p, err := store.NewProduct(sellerID, store.ProductInput{
		Name:        input.Name,
		Description: input.Description,
		Category:    input.Category,
		Kind:        store.ProductKind(input.Kind),
		Price:       input.Price,
		Currency:    input.Currency,
		Stock:       input.Stock,
		Images:      input.Images,
		Tags:        input.Tags,
	})
	if err != nil {
		return nil, err
	}
	if err := s.productRepo.Create(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Info("Product created",
		zap.String("product_id", p.ID.String()),
		zap.String("seller_id", sellerID.String()))
	dto := ToProductDTO(p)
	return &dto, nil
}

// UpdateProduct edits a product of sellerID
func (s *ProductService) UpdateProduct(ctx context.Context, sellerID, id uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	p, err := s.findOwned(ctx, sellerID, id)
	if err != nil {
		return nil, err
	}
	if input.Version != nil && *input.Version != p.Version {
		return nil, shared.ErrConcurrencyConflict.WithDetails(map[string]any{
			"expected_version": *input.Version,
			"current_version":  p.Version,
		})
	}
	if err := p.Update(store.ProductUpdate{
		Name:        input.Name,
		Description: input.Description,
		Category:    input.Category,
		Price:       input.Price,
		Images:      input.Images,
		Tags:        input.Tags,
	}); err != nil {
		return nil, err
	}
	if err := s.productRepo.Update(ctx, p); err != nil {
		return nil, err
	}
	dto := ToProductDTO(p)
	return &dto, nil
}

// AdjustStock adds delta to the stock of a product of sellerID
func (s *ProductService) AdjustStock(ctx context.Context, sellerID, id uuid.UUID, delta int) (*ProductDTO, error) {
	if delta == 0 {
		return nil, shared.ErrInvalidInput.WithMessage("Stock change cannot be zero")
	}
	p, err := s.findOwned(ctx, sellerID, id)
	if err != nil {
		return nil, err
	}
	if err := p.AdjustStock(delta); err != nil {
		return nil, err
	}
	if err := s.productRepo.Update(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Info("Product stock adjusted",
		zap.String("product_id", p.ID.String()),
		zap.Int("delta", delta),
		zap.Int("stock", p.Stock))
	dto := ToProductDTO(p)
	return &dto, nil
}

// ArchiveProduct removes a product of sellerID from the storefront
func (s *ProductService) ArchiveProduct(ctx context.Context, sellerID, id uuid.UUID) (*ProductDTO, error) {
	p, err := s.findOwned(ctx, sellerID, id)
	if err != nil {
		return nil, err
	}
	if err := p.Archive(); err != nil {
		return nil, err
	}
	if err := s.productRepo.Update(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Info("Product archived", zap.String("product_id", p.ID.String()))
	dto := ToProductDTO(p)
	return &dto, nil
}

// ListMyProducts returns the products of sellerID
func (s *ProductService) ListMyProducts(ctx context.Context, sellerID uuid.UUID, includeArchived bool, filter shared.Filter) ([]ProductDTO, int64, error) {
	products, total, err := s.productRepo.ListBySeller(ctx, sellerID, includeArchived, filter)
	if err != nil {
		return nil, 0, err
	}
	return toProductDTOs(products), total, nil
}

// GetProduct returns a product; only its seller sees it once archived
func (s *ProductService) GetProduct(ctx context.Context, userID, id uuid.UUID) (*ProductDTO, error) {
	p, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsActive() && !p.IsOwnedBy(userID) {
		return nil, errProductNotFound
	}
	dto := ToProductDTO(p)
	return &dto, nil
}

// CreateProductImageUpload returns a presigned upload for a product image
func (s *ProductService) CreateProductImageUpload(ctx context.Context, sellerID, id uuid.UUID, contentType string) (*upload.Ticket, error) {
	p, err := s.findOwned(ctx, sellerID, id)
	if err != nil {
		return nil, err
	}
	if len(p.Images) >= store.MaxProductImages {
		return nil, shared.ErrInvalidInput.WithMessage("A product can have at most 10 images")
	}
	return s.uploads.CreateUpload(ctx, upload.ScopeProduct, p.ID, contentType)
}

// AttachProductImage adds an uploaded image to a product
func (s *ProductService) AttachProductImage(ctx context.Context, sellerID, id uuid.UUID, key string) (*ProductDTO, error) {
	p, err := s.findOwned(ctx, sellerID, id)
	if err != nil {
		return nil, err
	}
	url, err := s.uploads.Confirm(ctx, upload.ScopeProduct, p.ID, key)
	if err != nil {
		return nil, err
	}
	if err := p.AddImage(url); err != nil {
		return nil, err
	}
	if err := s.productRepo.Update(ctx, p); err != nil {
		return nil, err
	}
	dto := ToProductDTO(p)
	return &dto, nil
}

func (s *ProductService) find(ctx context.Context, id uuid.UUID) (*store.Product, error) {
	p, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, errProductNotFound
		}
		return nil, err
	}
	return p, nil
}

func (s *ProductService) findOwned(ctx context.Context, sellerID, id uuid.UUID) (*store.Product, error) {
	p, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsOwnedBy(sellerID) {
		return nil, shared.ErrForbidden.WithMessage("You can only manage your own products")
	}
	return p, nil
}
