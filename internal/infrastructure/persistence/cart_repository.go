package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/playhub/backend/internal/domain/store"
	"github.com/playhub/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCartRepository implements store.CartRepository using GORM
type GormCartRepository struct {
	db *gorm.DB
}

// NewGormCartRepository creates a new GormCartRepository
func NewGormCartRepository(db *gorm.DB) *GormCartRepository {
	return &GormCartRepository{db: db}
}

// FindByUserID returns the stored cart, or a new empty one that is not yet saved
func (r *GormCartRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*store.Cart, error) {
	var model models.CartModel
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return store.NewCart(userID), nil
	}
	if err != nil {
		return nil, err
	}
	return model.ToDomain()
}

// Save upserts the cart keyed by its owner
func (r *GormCartRepository) Save(ctx context.Context, cart *store.Cart) error {
	model, err := models.CartModelFromDomain(cart)
	if err != nil {
		return err
	}
	model.UpdatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"items", "updated_at"}),
	}).Create(model).Error
}

var _ store.CartRepository = (*GormCartRepository)(nil)
