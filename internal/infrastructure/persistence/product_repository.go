package persistence

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/playhub/backend/internal/domain/shared"
	"github.com/playhub/backend/internal/domain/store"
	"github.com/playhub/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormProductRepository implements store.ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// storefrontOrder maps a storefront sort to its ORDER BY clause
var storefrontOrder = map[store.StoreItemSort]string{
	store.SortNewest:     "created_at DESC",
	store.SortPriceAsc:   "price ASC, created_at DESC",
	store.SortPriceDesc:  "price DESC, created_at DESC",
	store.SortBestSeller: "sold_count DESC, created_at DESC",
}

// Create inserts a new product
func (r *GormProductRepository) Create(ctx context.Context, product *store.Product) error {
	return translateError(r.db.WithContext(ctx).Create(models.ProductModelFromDomain(product)).Error)
}

// Update saves the product when the stored version is product.Version-1
func (r *GormProductRepository) Update(ctx context.Context, product *store.Product) error {
	result := r.db.WithContext(ctx).
		Model(&models.ProductModel{}).
		Where("id = ? AND version = ?", product.ID, product.Version-1).
		Select("*").
		Omit("id", "created_at").
		Updates(models.ProductModelFromDomain(product))
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// FindByID finds a product by ID, archived ones included
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*store.Product, error) {
	var model models.ProductModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByIDs returns the products that exist among ids
func (r *GormProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*store.Product, error) {
	if len(ids) == 0 {
		return []*store.Product{}, nil
	}
	var rows []models.ProductModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	return toProducts(rows), nil
}

// ListActive returns active products matching the storefront filter
func (r *GormProductRepository) ListActive(ctx context.Context, filter store.StoreItemFilter) ([]*store.Product, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ProductModel{}).
		Where("status = ?", store.ProductStatusActive)

	if term := strings.TrimSpace(filter.Search); term != "" {
		pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
		query = query.Where("(LOWER(name) LIKE ? ESCAPE '\\' OR LOWER(description) LIKE ? ESCAPE '\\')", pattern, pattern)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Kind != "" {
		query = query.Where("kind = ?", filter.Kind)
	}
	if filter.SellerID != nil {
		query = query.Where("seller_id = ?", *filter.SellerID)
	}
	if filter.MinPrice != nil {
		query = query.Where("price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		query = query.Where("price <= ?", *filter.MaxPrice)
	}
	if filter.InStock {
		query = query.Where("stock > 0")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order, ok := storefrontOrder[filter.Sort]
	if !ok {
		order = storefrontOrder[store.SortNewest]
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = shared.DefaultFilter().PageSize
	}

	var rows []models.ProductModel
	if err := query.Order(order).Limit(pageSize).Offset(filter.Offset()).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return toProducts(rows), total, nil
}

// ListBySeller returns the seller's products
func (r *GormProductRepository) ListBySeller(ctx context.Context, sellerID uuid.UUID, includeArchived bool, filter shared.Filter) ([]*store.Product, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ProductModel{}).Where("seller_id = ?", sellerID)
	if !includeArchived {
		query = query.Where("status = ?", store.ProductStatusActive)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.ProductModel
	if err := paginate(query, filter, ProductSortFields, "created_at").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return toProducts(rows), total, nil
}

// DecrementStock removes qty units with a guarded update so concurrent
// checkouts can never oversell
func (r *GormProductRepository) DecrementStock(ctx context.Context, productID uuid.UUID, qty int) error {
	if qty <= 0 {
		return shared.ErrInvalidInput.WithMessage("Quantity must be positive")
	}
	result := r.db.WithContext(ctx).
		Model(&models.ProductModel{}).
		Where("id = ? AND status = ? AND stock >= ?", productID, store.ProductStatusActive, qty).
		UpdateColumns(map[string]any{
			"stock":      gorm.Expr("stock - ?", qty),
			"sold_count": gorm.Expr("sold_count + ?", qty),
			"version":    gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrInsufficientStock.WithDetails(map[string]any{"product_id": productID.String()})
	}
	return nil
}

// RestoreStock puts qty units back after a cancelled order
func (r *GormProductRepository) RestoreStock(ctx context.Context, productID uuid.UUID, qty int) error {
	if qty <= 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.ProductModel{}).
		Where("id = ?", productID).
		UpdateColumns(map[string]any{
			"stock":      gorm.Expr("stock + ?", qty),
			"sold_count": gorm.Expr("CASE WHEN sold_count >= ? THEN sold_count - ? ELSE 0 END", qty, qty),
			"version":    gorm.Expr("version + 1"),
		}).Error
}

// Categories lists the distinct non-empty categories of active products
func (r *GormProductRepository) Categories(ctx context.Context) ([]string, error) {
	var categories []string
	err := r.db.WithContext(ctx).Model(&models.ProductModel{}).
		Where("status = ? AND category <> ''", store.ProductStatusActive).
		Distinct().
		Order("category").
		Pluck("category", &categories).Error
	return categories, err
}

func toProducts(rows []models.ProductModel) []*store.Product {
	products := make([]*store.Product, len(rows))
	for i := range rows {
		products[i] = rows[i].ToDomain()
	}
	return products
}

var _ store.ProductRepository = (*GormProductRepository)(nil)
