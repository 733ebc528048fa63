package mongodb

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/playhub/backend/internal/domain/chat"
	"github.com/playhub/backend/internal/domain/shared"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ConversationRepository implements chat.ConversationRepository on MongoDB
type ConversationRepository struct {
	coll *mongo.Collection
}

// NewConversationRepository creates a new ConversationRepository
func NewConversationRepository(db *mongo.Database) *ConversationRepository {
	return &ConversationRepository{coll: db.Collection(conversationsCollection)}
}

// FindOrCreate returns the conversation of conv's pair, inserting conv when
// there is none. The unique pair_key index settles concurrent inserts.
func (r *ConversationRepository) FindOrCreate(ctx context.Context, conv *chat.Conversation) (*chat.Conversation, bool, error) {
	pairKey := conv.PairKey()
	existing, err := r.findOne(ctx, bson.M{"pair_key": pairKey})
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, false, err
	}

	if _, err := r.coll.InsertOne(ctx, conversationFromDomain(conv)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			existing, err := r.findOne(ctx, bson.M{"pair_key": pairKey})
			return existing, false, err
		}
		return nil, false, err
	}
	return conv, true, nil
}

// FindByID finds a conversation by id
func (r *ConversationRepository) FindByID(ctx context.Context, id uuid.UUID) (*chat.Conversation, error) {
	return r.findOne(ctx, bson.M{"_id": id.String()})
}

// ListByParticipant returns userID's conversations, most recent activity first
func (r *ConversationRepository) ListByParticipant(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]*chat.Conversation, int64, error) {
	query := bson.M{"participant_ids": userID.String()}
	total, err := r.coll.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = shared.DefaultFilter().PageSize
	}
	opts := options.Find().
		SetSort(bsonD("activity_at", -1, "_id", 1)).
		SetSkip(int64(filter.Offset())).
		SetLimit(int64(pageSize))
	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	var docs []ConversationDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, 0, err
	}
	convs := make([]*chat.Conversation, len(docs))
	for i := range docs {
		convs[i] = docs[i].toDomain()
	}
	return convs, total, nil
}

// UpdateLastMessage stores the preview of the latest message
func (r *ConversationRepository) UpdateLastMessage(ctx context.Context, conv *chat.Conversation) error {
	set := bson.M{
		"last_message_preview": conv.LastMessagePreview,
		"updated_at":           msTime(time.Now()),
	}
	if conv.LastMessageAt != nil {
		set["last_message_at"] = msTime(*conv.LastMessageAt)
		set["activity_at"] = msTime(*conv.LastMessageAt)
	}
	if conv.LastMessageSenderID != nil {
		set["last_message_sender_id"] = conv.LastMessageSenderID.String()
	}
	result, err := r.coll.UpdateByID(ctx, conv.ID.String(), bson.M{"$set": set})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// MarkRead moves the participant's read marker forward; $max ignores older marks
func (r *ConversationRepository) MarkRead(ctx context.Context, conversationID, userID uuid.UUID, at time.Time) error {
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": conversationID.String(), "participants.user_id": userID.String()},
		bson.M{"$max": bson.M{"participants.$.last_read_at": msTime(at)}},
	)
	return err
}

func (r *ConversationRepository) findOne(ctx context.Context, query bson.M) (*chat.Conversation, error) {
	var doc ConversationDocument
	if err := r.coll.FindOne(ctx, query).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return doc.toDomain(), nil
}

var _ chat.ConversationRepository = (*ConversationRepository)(nil)

// MessageRepository implements chat.MessageRepository on MongoDB
type MessageRepository struct {
	coll *mongo.Collection
}

// NewMessageRepository creates a new MessageRepository
func NewMessageRepository(db *mongo.Database) *MessageRepository {
	return &MessageRepository{coll: db.Collection(messagesCollection)}
}

// Create inserts a message
func (r *MessageRepository) Create(ctx context.Context, msg *chat.Message) error {
	msg.CreatedAt = msTime(msg.CreatedAt)
	if _, err := r.coll.InsertOne(ctx, messageFromDomain(msg)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// ListBefore returns a page of history, newest first, paging on (created_at, _id)
func (r *MessageRepository) ListBefore(ctx context.Context, conversationID uuid.UUID, before *chat.MessageCursor, limit int) ([]*chat.Message, error) {
	if limit <= 0 {
		limit = 50
	}
	query := bson.M{"conversation_id": conversationID.String()}
	if before != nil {
		at := msTime(before.CreatedAt)
		query["$or"] = bson.A{
			bson.M{"created_at": bson.M{"$lt": at}},
			bson.M{"created_at": at, "_id": bson.M{"$lt": before.ID.String()}},
		}
	}
	opts := options.Find().
		SetSort(bsonD("created_at", -1, "_id", -1)).
		SetLimit(int64(limit))
	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	var docs []MessageDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	msgs := make([]*chat.Message, len(docs))
	for i := range docs {
		msgs[i] = docs[i].toDomain()
	}
	return msgs, nil
}

// CountUnread counts messages from other participants newer than since
func (r *MessageRepository) CountUnread(ctx context.Context, conversationID, userID uuid.UUID, since *time.Time) (int64, error) {
	query := bson.M{
		"conversation_id": conversationID.String(),
		"sender_id":       bson.M{"$ne": userID.String()},
	}
	if since != nil {
		query["created_at"] = bson.M{"$gt": *since}
	}
	return r.coll.CountDocuments(ctx, query)
}

var _ chat.MessageRepository = (*MessageRepository)(nil)
