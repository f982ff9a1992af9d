package persistent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"social-scheduler/services/calendar/internal/entity"
	"social-scheduler/services/calendar/internal/model"

	"gorm.io/gorm"
)

// mergeResultSQL writes one platform entry under publish_result.results in a
// single statement, leaving sibling entries untouched.
const mergeResultSQL = `jsonb_set(
	COALESCE(publish_result, '{}'::jsonb) || jsonb_build_object('results', COALESCE(publish_result->'results', '{}'::jsonb)),
	ARRAY['results', ?::text],
	?::jsonb,
	true)`

type ScheduledPostRepository interface {
	Create(ctx context.Context, post *entity.ScheduledPost) error
	GetByID(ctx context.Context, userID, id string) (*entity.ScheduledPost, error)
	ListByUser(ctx context.Context, userID string) ([]entity.ScheduledPost, error)
	MergePlatformResult(ctx context.Context, userID, id string, platform entity.Platform, result entity.PlatformResult) error
	Delete(ctx context.Context, userID, id string) error
}

type scheduledPostRepository struct {
	db *gorm.DB
}

func NewScheduledPostRepository(db *gorm.DB) ScheduledPostRepository {
	return &scheduledPostRepository{db: db}
}

func (r *scheduledPostRepository) Create(ctx context.Context, post *entity.ScheduledPost) error {
	postModel := ToScheduledPostModel(post)
	if err := r.db.WithContext(ctx).Create(postModel).Error; err != nil {
		return err
	}
	*post = *ToScheduledPostEntity(postModel)
	return nil
}

func (r *scheduledPostRepository) GetByID(ctx context.Context, userID, id string) (*entity.ScheduledPost, error) {
	var postModel model.ScheduledPostModel
	if err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&postModel).Error; err != nil {
		return nil, translate(err)
	}
	return ToScheduledPostEntity(&postModel), nil
}

func (r *scheduledPostRepository) ListByUser(ctx context.Context, userID string) ([]entity.ScheduledPost, error) {
	var postModels []model.ScheduledPostModel
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at ASC").Find(&postModels).Error; err != nil {
		return nil, err
	}

	posts := make([]entity.ScheduledPost, len(postModels))
	for i := range postModels {
		posts[i] = *ToScheduledPostEntity(&postModels[i])
	}
	return posts, nil
}

func (r *scheduledPostRepository) MergePlatformResult(ctx context.Context, userID, id string, platform entity.Platform, result entity.PlatformResult) error {
	payload, err := json.Marshal(ToPlatformResultModel(result))
	if err != nil {
		return fmt.Errorf("failed to encode platform result: %w", err)
	}

	res := r.db.WithContext(ctx).Model(&model.ScheduledPostModel{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]interface{}{
			"publish_result": gorm.Expr(mergeResultSQL, string(platform), string(payload)),
			"updated_at":     time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *scheduledPostRepository) Delete(ctx context.Context, userID, id string) error {
	res := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&model.ScheduledPostModel{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
