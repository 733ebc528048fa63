package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/playhub/backend/internal/domain/shared"
	"github.com/playhub/backend/internal/domain/social"
	"github.com/playhub/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormFollowRepository implements social.FollowRepository using GORM
type GormFollowRepository struct {
	db *gorm.DB
}

// NewGormFollowRepository creates a new GormFollowRepository
func NewGormFollowRepository(db *gorm.DB) *GormFollowRepository {
	return &GormFollowRepository{db: db}
}

// Create inserts the edge and bumps both counters. A concurrent duplicate
// insert loses on the primary key and leaves the counters alone.
func (r *GormFollowRepository) Create(ctx context.Context, follow *social.Follow) (bool, error) {
	created := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(models.FollowModelFromDomain(follow))
		if result.Error != nil {
			return translateError(result.Error)
		}
		if result.RowsAffected == 0 {
			return nil
		}
		created = true
		if err := tx.Model(&models.UserModel{}).
			Where("id = ?", follow.FollowerID).
			UpdateColumn("following_count", gorm.Expr("following_count + 1")).Error; err != nil {
			return err
		}
		return tx.Model(&models.UserModel{}).
			Where("id = ?", follow.FolloweeID).
			UpdateColumn("follower_count", gorm.Expr("follower_count + 1")).Error
	})
	if err != nil {
		return false, err
	}
	return created, nil
}

// Delete removes the edge and decrements both counters without going below zero
func (r *GormFollowRepository) Delete(ctx context.Context, followerID, followeeID uuid.UUID) (bool, error) {
	deleted := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
			Delete(&models.FollowModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		deleted = true
		if err := tx.Model(&models.UserModel{}).
			Where("id = ?", followerID).
			UpdateColumn("following_count", gorm.Expr("CASE WHEN following_count > 0 THEN following_count - 1 ELSE 0 END")).Error; err != nil {
			return err
		}
		return tx.Model(&models.UserModel{}).
			Where("id = ?", followeeID).
			UpdateColumn("follower_count", gorm.Expr("CASE WHEN follower_count > 0 THEN follower_count - 1 ELSE 0 END")).Error
	})
	if err != nil {
		return false, err
	}
	return deleted, nil
}

// Exists reports whether followerID follows followeeID
func (r *GormFollowRepository) Exists(ctx context.Context, followerID, followeeID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.FollowModel{}).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Count(&count).Error
	return count > 0, err
}

// FollowingSet returns the subset of candidates that followerID follows
func (r *GormFollowRepository) FollowingSet(ctx context.Context, followerID uuid.UUID, candidates []uuid.UUID) (map[uuid.UUID]bool, error) {
	set := make(map[uuid.UUID]bool, len(candidates))
	if len(candidates) == 0 || followerID == uuid.Nil {
		return set, nil
	}
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&models.FollowModel{}).
		Where("follower_id = ? AND followee_id IN ?", followerID, candidates).
		Pluck("followee_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

// ListFollowers returns who follows userID, newest first
func (r *GormFollowRepository) ListFollowers(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]social.Follow, int64, error) {
	return r.list(ctx, "followee_id = ?", userID, filter)
}

// ListFollowing returns who userID follows, newest first
func (r *GormFollowRepository) ListFollowing(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]social.Follow, int64, error) {
	return r.list(ctx, "follower_id = ?", userID, filter)
}

func (r *GormFollowRepository) list(ctx context.Context, cond string, userID uuid.UUID, filter shared.Filter) ([]social.Follow, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.FollowModel{}).Where(cond, userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	filter.OrderBy, filter.OrderDir = "created_at", "desc"
	var rows []models.FollowModel
	if err := paginate(query, filter, map[string]bool{"created_at": true}, "created_at").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	follows := make([]social.Follow, len(rows))
	for i := range rows {
		follows[i] = rows[i].ToDomain()
	}
	return follows, total, nil
}

// FollowerIDsAfter returns up to limit follower ids greater than after, ordered by id
func (r *GormFollowRepository) FollowerIDsAfter(ctx context.Context, userID, after uuid.UUID, limit int) ([]uuid.UUID, error) {
	if limit <= 0 {
		limit = 500
	}
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&models.FollowModel{}).
		Where("followee_id = ? AND follower_id > ?", userID, after).
		Order("follower_id ASC").
		Limit(limit).
		Pluck("follower_id", &ids).Error
	return ids, err
}

var _ social.FollowRepository = (*GormFollowRepository)(nil)
