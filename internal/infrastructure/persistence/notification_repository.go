package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/playhub/backend/internal/domain/notification"
	"github.com/playhub/backend/internal/domain/shared"
	"github.com/playhub/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

const notificationBatchSize = 200

// GormNotificationRepository implements notification.Repository using GORM
type GormNotificationRepository struct {
	db *gorm.DB
}

// NewGormNotificationRepository creates a new GormNotificationRepository
func NewGormNotificationRepository(db *gorm.DB) *GormNotificationRepository {
	return &GormNotificationRepository{db: db}
}

// Create inserts a notification
func (r *GormNotificationRepository) Create(ctx context.Context, n *notification.Notification) error {
	return translateError(r.db.WithContext(ctx).Create(models.NotificationModelFromDomain(n)).Error)
}

// CreateBatch inserts notifications in chunks
func (r *GormNotificationRepository) CreateBatch(ctx context.Context, ns []*notification.Notification) error {
	if len(ns) == 0 {
		return nil
	}
	rows := make([]*models.NotificationModel, len(ns))
	for i, n := range ns {
		rows[i] = models.NotificationModelFromDomain(n)
	}
	return translateError(r.db.WithContext(ctx).CreateInBatches(rows, notificationBatchSize).Error)
}

// FindByID finds a notification by ID
func (r *GormNotificationRepository) FindByID(ctx context.Context, id uuid.UUID) (*notification.Notification, error) {
	var model models.NotificationModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// ListByRecipient returns the recipient's notifications, newest first
func (r *GormNotificationRepository) ListByRecipient(ctx context.Context, recipientID uuid.UUID, filter notification.Filter) ([]*notification.Notification, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.NotificationModel{}).Where("recipient_id = ?", recipientID)
	if filter.UnreadOnly {
		query = query.Where("read_at IS NULL")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.NotificationModel
	if err := paginate(query, filter.Filter, NotificationSortFields, "created_at").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	list := make([]*notification.Notification, len(rows))
	for i := range rows {
		list[i] = rows[i].ToDomain()
	}
	return list, total, nil
}

// CountUnread counts unread notifications
func (r *GormNotificationRepository) CountUnread(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.NotificationModel{}).
		Where("recipient_id = ? AND read_at IS NULL", recipientID).
		Count(&count).Error
	return count, err
}

// MarkRead sets read_at once; marking an already read notification is a no-op
func (r *GormNotificationRepository) MarkRead(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.NotificationModel{}).
		Where("id = ? AND read_at IS NULL", id).
		UpdateColumn("read_at", at).Error
}

// MarkAllRead marks every unread notification of the recipient
func (r *GormNotificationRepository) MarkAllRead(ctx context.Context, recipientID uuid.UUID, at time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.NotificationModel{}).
		Where("recipient_id = ? AND read_at IS NULL", recipientID).
		UpdateColumn("read_at", at)
	return result.RowsAffected, result.Error
}

// Delete removes a notification
func (r *GormNotificationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.NotificationModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeleteReadBefore purges read notifications created before cutoff
func (r *GormNotificationRepository) DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("read_at IS NOT NULL AND created_at < ?", cutoff).
		Delete(&models.NotificationModel{})
	return result.RowsAffected, result.Error
}

var _ notification.Repository = (*GormNotificationRepository)(nil)
