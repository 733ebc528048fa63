package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/playhub/backend/internal/domain/shared"
	"github.com/playhub/backend/internal/domain/stream"
	"github.com/playhub/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStreamRepository implements stream.Repository using GORM
type GormStreamRepository struct {
	db *gorm.DB
}

// NewGormStreamRepository creates a new GormStreamRepository
func NewGormStreamRepository(db *gorm.DB) *GormStreamRepository {
	return &GormStreamRepository{db: db}
}

// Create inserts a new stream
func (r *GormStreamRepository) Create(ctx context.Context, s *stream.Stream) error {
	return translateError(r.db.WithContext(ctx).Create(models.StreamModelFromDomain(s)).Error)
}

// audienceColumns are written by RecordJoin, RecordLeave and IncrementLikes
// without a version bump
var audienceColumns = []string{"current_viewers", "peak_viewers", "total_views", "unique_viewers", "like_count"}

// Update saves the stream when the stored version is s.Version-1.
// Audience counters never go backwards here: once the stream has ended they
// are raised to s's values at most, and s is refreshed with what was stored.
func (r *GormStreamRepository) Update(ctx context.Context, s *stream.Stream) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.StreamModel{}).
			Where("id = ? AND version = ?", s.ID, s.Version-1).
			Select("*").
			Omit(append([]string{"id", "created_at", "streamer_id"}, audienceColumns...)...).
			Updates(models.StreamModelFromDomain(s))
		if result.Error != nil {
			return translateError(result.Error)
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}
		if s.Status != stream.StatusEnded {
			return nil
		}

		err := tx.Model(&models.StreamModel{}).
			Where("id = ?", s.ID).
			UpdateColumns(map[string]any{
				"current_viewers": 0,
				"peak_viewers":    atLeast("peak_viewers", s.PeakViewers),
				"total_views":     atLeast("total_views", s.TotalViews),
				"unique_viewers":  atLeast("unique_viewers", s.UniqueViewers),
				"like_count":      atLeast("like_count", s.LikeCount),
			}).Error
		if err != nil {
			return err
		}

		var stored models.StreamModel
		if err := tx.Select(audienceColumns).First(&stored, "id = ?", s.ID).Error; err != nil {
			return translateError(err)
		}
		s.CurrentViewers = 0
		s.PeakViewers = stored.PeakViewers
		s.TotalViews = stored.TotalViews
		s.UniqueViewers = stored.UniqueViewers
		s.LikeCount = stored.LikeCount
		return nil
	})
}

// atLeast keeps column unless v is larger
func atLeast(column string, v int64) clause.Expr {
	return gorm.Expr("CASE WHEN "+column+" < ? THEN ? ELSE "+column+" END", v, v)
}

// FindByID finds a stream by ID
func (r *GormStreamRepository) FindByID(ctx context.Context, id uuid.UUID) (*stream.Stream, error) {
	var model models.StreamModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindLiveByStreamer returns the streamer's live stream
func (r *GormStreamRepository) FindLiveByStreamer(ctx context.Context, streamerID uuid.UUID) (*stream.Stream, error) {
	var model models.StreamModel
	if err := r.db.WithContext(ctx).
		Where("streamer_id = ? AND status = ?", streamerID, stream.StatusLive).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// List returns streams matching the filter. Live streams default to the
// biggest audience first.
func (r *GormStreamRepository) List(ctx context.Context, filter stream.Filter) ([]*stream.Stream, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.StreamModel{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.StreamerID != nil {
		query = query.Where("streamer_id = ?", *filter.StreamerID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	defaultSort := "created_at"
	if filter.Status == stream.StatusLive {
		defaultSort = "current_viewers"
	}
	var rows []models.StreamModel
	if err := paginate(query, filter.Filter, StreamSortFields, defaultSort).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	streams := make([]*stream.Stream, len(rows))
	for i := range rows {
		streams[i] = rows[i].ToDomain()
	}
	return streams, total, nil
}

// RecordJoin counts a view and raises the peak in the same statement
func (r *GormStreamRepository) RecordJoin(ctx context.Context, id uuid.UUID, counts stream.ViewerCounts) error {
	current := max(counts.Current, 0)
	result := r.db.WithContext(ctx).
		Model(&models.StreamModel{}).
		Where("id = ? AND status = ?", id, stream.StatusLive).
		UpdateColumns(map[string]any{
			"total_views":     gorm.Expr("total_views + 1"),
			"current_viewers": current,
			"peak_viewers":    gorm.Expr("CASE WHEN peak_viewers < ? THEN ? ELSE peak_viewers END", current, current),
			"unique_viewers":  gorm.Expr("CASE WHEN unique_viewers < ? THEN ? ELSE unique_viewers END", counts.Unique, counts.Unique),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrInvalidState.WithMessage("Stream is not live")
	}
	return nil
}

// RecordLeave stores the audience size after a viewer left
func (r *GormStreamRepository) RecordLeave(ctx context.Context, id uuid.UUID, counts stream.ViewerCounts) error {
	return r.db.WithContext(ctx).
		Model(&models.StreamModel{}).
		Where("id = ? AND status = ?", id, stream.StatusLive).
		UpdateColumn("current_viewers", max(counts.Current, 0)).Error
}

// IncrementLikes adds a like to a live stream
func (r *GormStreamRepository) IncrementLikes(ctx context.Context, id uuid.UUID) (int64, error) {
	var likes int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.StreamModel{}).
			Where("id = ? AND status = ?", id, stream.StatusLive).
			UpdateColumn("like_count", gorm.Expr("like_count + 1"))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrInvalidState.WithMessage("Only live streams can be liked")
		}
		return tx.Model(&models.StreamModel{}).
			Select("like_count").
			Where("id = ?", id).
			Scan(&likes).Error
	})
	return likes, err
}

// ListLiveStartedBefore returns live streams that started before cutoff
func (r *GormStreamRepository) ListLiveStartedBefore(ctx context.Context, cutoff time.Time, limit int) ([]*stream.Stream, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []models.StreamModel
	err := r.db.WithContext(ctx).
		Where("status = ? AND started_at < ?", stream.StatusLive, cutoff).
		Order("started_at ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	streams := make([]*stream.Stream, len(rows))
	for i := range rows {
		streams[i] = rows[i].ToDomain()
	}
	return streams, nil
}

var _ stream.Repository = (*GormStreamRepository)(nil)
