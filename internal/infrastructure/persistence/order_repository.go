package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/playhub/backend/internal/domain/shared"
	"github.com/playhub/backend/internal/domain/store"
	"github.com/playhub/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormOrderRepository implements store.OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// Create inserts the order and its lines
func (r *GormOrderRepository) Create(ctx context.Context, order *store.Order) error {
	return translateError(r.db.WithContext(ctx).Create(models.OrderModelFromDomain(order)).Error)
}

// Update saves the order header. Lines are immutable after creation.
func (r *GormOrderRepository) Update(ctx context.Context, order *store.Order) error {
	model := models.OrderModelFromDomain(order)
	model.Items = nil
	result := r.db.WithContext(ctx).
		Model(&models.OrderModel{}).
		Where("id = ? AND version = ?", order.ID, order.Version-1).
		Select("*").
		Omit("id", "created_at", "order_number", "buyer_id", "Items").
		Updates(model)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// FindByID finds an order by ID with its lines
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*store.Order, error) {
	var model models.OrderModel
	if err := r.db.WithContext(ctx).Preload("Items").First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByPaymentReference finds the order paid through the given gateway reference
func (r *GormOrderRepository) FindByPaymentReference(ctx context.Context, provider, reference string) (*store.Order, error) {
	if reference == "" {
		return nil, shared.ErrNotFound
	}
	var model models.OrderModel
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("payment_provider = ? AND payment_reference = ?", provider, reference).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// ListByBuyer returns the buyer's orders
func (r *GormOrderRepository) ListByBuyer(ctx context.Context, buyerID uuid.UUID, filter store.OrderFilter) ([]*store.Order, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.OrderModel{}).Where("buyer_id = ?", buyerID)
	return r.list(query, filter)
}

// ListBySeller returns orders with at least one line sold by sellerID
func (r *GormOrderRepository) ListBySeller(ctx context.Context, sellerID uuid.UUID, filter store.OrderFilter) ([]*store.Order, int64, error) {
	db := r.db.WithContext(ctx)
	sub := db.Model(&models.OrderItemModel{}).Select("order_id").Where("seller_id = ?", sellerID)
	query := db.Model(&models.OrderModel{}).Where("id IN (?)", sub)
	return r.list(query, filter)
}

func (r *GormOrderRepository) list(query *gorm.DB, filter store.OrderFilter) ([]*store.Order, int64, error) {
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.OrderModel
	if err := paginate(query, filter.Filter, OrderSortFields, "created_at").
		Preload("Items").
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return toOrders(rows), total, nil
}

// ListPendingCreatedBefore returns stale pending orders, oldest first
func (r *GormOrderRepository) ListPendingCreatedBefore(ctx context.Context, cutoff time.Time, limit int) ([]*store.Order, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []models.OrderModel
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("status = ? AND created_at < ?", store.OrderStatusPending, cutoff).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toOrders(rows), nil
}

func toOrders(rows []models.OrderModel) []*store.Order {
	orders := make([]*store.Order, len(rows))
	for i := range rows {
		orders[i] = rows[i].ToDomain()
	}
	return orders
}

var _ store.OrderRepository = (*GormOrderRepository)(nil)
