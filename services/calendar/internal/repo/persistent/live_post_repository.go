package persistent

import (
	"context"
	"fmt"
	"time"

	"social-scheduler/services/calendar/internal/entity"
	"social-scheduler/services/calendar/internal/model"

	"gorm.io/gorm"
)

var urlColumns = map[entity.Platform]string{
	entity.PlatformLinkedIn: "linkedin_url",
	entity.PlatformX:        "twitter_url",
	entity.PlatformFacebook: "facebook_url",
}

type LivePostRepository interface {
	Create(ctx context.Context, post *entity.LivePost) error
	GetByID(ctx context.Context, userID, id string) (*entity.LivePost, error)
	ListByUser(ctx context.Context, userID string) ([]entity.LivePost, error)
	SetPlatformURL(ctx context.Context, userID, id string, platform entity.Platform, url string) error
	Delete(ctx context.Context, userID, id string) error
	// Promote creates post and removes the scheduled post scheduledID in one transaction.
	Promote(ctx context.Context, userID, scheduledID string, post *entity.LivePost) error
}

type livePostRepository struct {
	db *gorm.DB
}

func NewLivePostRepository(db *gorm.DB) LivePostRepository {
	return &livePostRepository{db: db}
}

func (r *livePostRepository) Create(ctx context.Context, post *entity.LivePost) error {
	postModel := ToLivePostModel(post)
	if err := r.db.WithContext(ctx).Create(postModel).Error; err != nil {
		return err
	}
	*post = *ToLivePostEntity(postModel)
	return nil
}

func (r *livePostRepository) GetByID(ctx context.Context, userID, id string) (*entity.LivePost, error) {
	var postModel model.LivePostModel
	if err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&postModel).Error; err != nil {
		return nil, translate(err)
	}
	return ToLivePostEntity(&postModel), nil
}

func (r *livePostRepository) ListByUser(ctx context.Context, userID string) ([]entity.LivePost, error) {
	var postModels []model.LivePostModel
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at ASC").Find(&postModels).Error; err != nil {
		return nil, err
	}

	posts := make([]entity.LivePost, len(postModels))
	for i := range postModels {
		posts[i] = *ToLivePostEntity(&postModels[i])
	}
	return posts, nil
}

func (r *livePostRepository) SetPlatformURL(ctx context.Context, userID, id string, platform entity.Platform, url string) error {
	column, ok := urlColumns[platform]
	if !ok {
		return fmt.Errorf("no url column for platform %q", platform)
	}

	res := r.db.WithContext(ctx).Model(&model.LivePostModel{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]interface{}{
			column:       url,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *livePostRepository) Delete(ctx context.Context, userID, id string) error {
	res := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&model.LivePostModel{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *livePostRepository) Promote(ctx context.Context, userID, scheduledID string, post *entity.LivePost) error {
	postModel := ToLivePostModel(post)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(postModel).Error; err != nil {
			return err
		}

		res := tx.Where("id = ? AND user_id = ?", scheduledID, userID).Delete(&model.ScheduledPostModel{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}

	*post = *ToLivePostEntity(postModel)
	return nil
}
