package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/playhub/backend/internal/domain/chat"
	"github.com/playhub/backend/internal/domain/shared"
	"github.com/playhub/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormConversationRepository implements chat.ConversationRepository using GORM
type GormConversationRepository struct {
	db *gorm.DB
}

// NewGormConversationRepository creates a new GormConversationRepository
func NewGormConversationRepository(db *gorm.DB) *GormConversationRepository {
	return &GormConversationRepository{db: db}
}

// FindOrCreate returns the conversation of conv's participant pair, storing conv
// when there is none. Losing an insert race falls back to the winner's row.
func (r *GormConversationRepository) FindOrCreate(ctx context.Context, conv *chat.Conversation) (*chat.Conversation, bool, error) {
	pairKey := conv.PairKey()
	if existing, err := r.findByPairKey(ctx, pairKey); err == nil {
		return existing, false, nil
	} else if !errors.Is(err, shared.ErrNotFound) {
		return nil, false, err
	}

	err := r.db.WithContext(ctx).Create(models.ConversationModelFromDomain(conv)).Error
	if err == nil {
		return conv, true, nil
	}
	if errors.Is(translateError(err), shared.ErrAlreadyExists) {
		existing, findErr := r.findByPairKey(ctx, pairKey)
		if findErr != nil {
			return nil, false, findErr
		}
		return existing, false, nil
	}
	return nil, false, err
}

func (r *GormConversationRepository) findByPairKey(ctx context.Context, pairKey string) (*chat.Conversation, error) {
	var model models.ConversationModel
	if err := r.db.WithContext(ctx).
		Preload("Participants").
		Where("pair_key = ?", pairKey).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByID finds a conversation with its participants
func (r *GormConversationRepository) FindByID(ctx context.Context, id uuid.UUID) (*chat.Conversation, error) {
	var model models.ConversationModel
	if err := r.db.WithContext(ctx).Preload("Participants").First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// ListByParticipant returns userID's conversations, most recent activity first
func (r *GormConversationRepository) ListByParticipant(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]*chat.Conversation, int64, error) {
	db := r.db.WithContext(ctx)
	mine := db.Model(&models.ConversationParticipantModel{}).Select("conversation_id").Where("user_id = ?", userID)
	query := db.Model(&models.ConversationModel{}).Where("id IN (?)", mine)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = shared.DefaultFilter().PageSize
	}
	var rows []models.ConversationModel
	if err := query.
		Preload("Participants").
		Order("COALESCE(last_message_at, created_at) DESC").
		Limit(pageSize).
		Offset(filter.Offset()).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	convs := make([]*chat.Conversation, len(rows))
	for i := range rows {
		convs[i] = rows[i].ToDomain()
	}
	return convs, total, nil
}

// UpdateLastMessage stores the preview of the latest message
func (r *GormConversationRepository) UpdateLastMessage(ctx context.Context, conv *chat.Conversation) error {
	result := r.db.WithContext(ctx).
		Model(&models.ConversationModel{}).
		Where("id = ?", conv.ID).
		Updates(map[string]any{
			"last_message_preview":   conv.LastMessagePreview,
			"last_message_sender_id": conv.LastMessageSenderID,
			"last_message_at":        conv.LastMessageAt,
			"updated_at":             time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// MarkRead moves the participant's read marker forward; older marks are ignored
func (r *GormConversationRepository) MarkRead(ctx context.Context, conversationID, userID uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.ConversationParticipantModel{}).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Where("last_read_at IS NULL OR last_read_at < ?", at).
		UpdateColumn("last_read_at", at).Error
}

var _ chat.ConversationRepository = (*GormConversationRepository)(nil)

// GormMessageRepository implements chat.MessageRepository using GORM
type GormMessageRepository struct {
	db *gorm.DB
}

// NewGormMessageRepository creates a new GormMessageRepository
func NewGormMessageRepository(db *gorm.DB) *GormMessageRepository {
	return &GormMessageRepository{db: db}
}

// Create inserts a message
func (r *GormMessageRepository) Create(ctx context.Context, msg *chat.Message) error {
	return translateError(r.db.WithContext(ctx).Create(models.MessageModelFromDomain(msg)).Error)
}

// ListBefore returns a page of history, newest first. The cursor is the
// (created_at, id) pair of the previous page's oldest message.
func (r *GormMessageRepository) ListBefore(ctx context.Context, conversationID uuid.UUID, before *chat.MessageCursor, limit int) ([]*chat.Message, error) {
	if limit <= 0 {
		limit = 50
	}
	query := r.db.WithContext(ctx).Where("conversation_id = ?", conversationID)
	if before != nil {
		query = query.Where("(created_at < ? OR (created_at = ? AND id < ?))",
			before.CreatedAt, before.CreatedAt, before.ID)
	}
	var rows []models.MessageModel
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	msgs := make([]*chat.Message, len(rows))
	for i := range rows {
		msgs[i] = rows[i].ToDomain()
	}
	return msgs, nil
}

// CountUnread counts messages from other participants newer than since
func (r *GormMessageRepository) CountUnread(ctx context.Context, conversationID, userID uuid.UUID, since *time.Time) (int64, error) {
	query := r.db.WithContext(ctx).Model(&models.MessageModel{}).
		Where("conversation_id = ? AND sender_id <> ?", conversationID, userID)
	if since != nil {
		query = query.Where("created_at > ?", *since)
	}
	var count int64
	err := query.Count(&count).Error
	return count, err
}

var _ chat.MessageRepository = (*GormMessageRepository)(nil)
