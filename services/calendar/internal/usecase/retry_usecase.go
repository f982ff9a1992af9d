package usecase

import (
	"context"
	"errors"
	"fmt"

	"social-scheduler/pkg/logger"
	"social-scheduler/pkg/queue"
	"social-scheduler/services/calendar/internal/entity"
	"social-scheduler/services/calendar/internal/repo/persistent"
	"social-scheduler/services/calendar/internal/repo/webapi"
	"social-scheduler/services/calendar/internal/retrystate"
)

type RetryInput struct {
	PostID   string
	Platform string
	Source   string
}

type RetryOutcome struct {
	PostID   string          `json:"postId"`
	Platform entity.Platform `json:"platform"`
	URL      string          `json:"url"`
	// Posts is the snapshot re-read after the result was persisted.
	Posts entity.Snapshot `json:"posts"`
}

type RetryUseCase interface {
	Retry(ctx context.Context, userID string, input RetryInput) (*RetryOutcome, error)
	RetryStatus(ctx context.Context, userID, postID, platform string) (retrystate.State, error)
}

type retryUseCase struct {
	scheduledRepo persistent.ScheduledPostRepository
	liveRepo      persistent.LivePostRepository
	publisher     webapi.Publisher
	tracker       retrystate.Tracker
	tasks         TaskPublisher
	metrics       *Metrics
	logger        *logger.Logger
}

func NewRetryUseCase(
	scheduledRepo persistent.ScheduledPostRepository,
	liveRepo persistent.LivePostRepository,
	publisher webapi.Publisher,
	tracker retrystate.Tracker,
	tasks TaskPublisher,
	metrics *Metrics,
	logger *logger.Logger,
) RetryUseCase {
	return &retryUseCase{
		scheduledRepo: scheduledRepo,
		liveRepo:      liveRepo,
		publisher:     publisher,
		tracker:       tracker,
		tasks:         tasks,
		metrics:       metrics,
		logger:        logger,
	}
}

// publishable is the part of a stored post a retry needs.
type publishable struct {
	content  string
	mediaURL string
	postType string
}

// Retry republishes one post to one platform. Ownership is checked before
// the pair key is touched. The durable write completes before the key is
// marked succeeded; on any failure the key returns to idle and nothing is
// persisted.
func (uc *retryUseCase) Retry(ctx context.Context, userID string, input RetryInput) (*RetryOutcome, error) {
	platform, ok := entity.NormalizePlatform(input.Platform)
	if !ok || !platform.Retryable() {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedPlatform, input.Platform)
	}
	source, ok := entity.ParseSource(input.Source)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSource, input.Source)
	}

	post, err := uc.load(ctx, userID, input.PostID, source)
	if err != nil {
		return nil, err
	}

	attempt, err := uc.tracker.Begin(ctx, retrystate.Key(input.PostID, platform))
	if err != nil {
		if errors.Is(err, retrystate.ErrInFlight) {
			uc.metrics.retry(string(platform), "in_flight")
			return nil, ErrRetryInProgress
		}
		return nil, fmt.Errorf("failed to start retry: %w", err)
	}

	log := uc.logger.WithFields(map[string]interface{}{"post_id": input.PostID, "platform": string(platform), "source": string(source)})
	log.Info("[RETRY] Started for user=%s", userID)

	url, err := uc.attempt(ctx, userID, input.PostID, platform, source, post)
	if err != nil {
		if resetErr := uc.tracker.Reset(ctx, attempt); resetErr != nil {
			log.Error("[RETRY] Failed to reset state: %v", resetErr)
		}
		uc.metrics.retry(string(platform), "failure")
		log.Warn("[RETRY] Failed: %v", err)
		if errors.Is(err, ErrPublishFailed) {
			sendTask(ctx, uc.tasks, uc.logger, queue.Task{
				Type:     queue.TaskRetryFailed,
				UserID:   userID,
				PostID:   input.PostID,
				Platform: string(platform),
				Error:    err.Error(),
				Priority: 5,
			})
		}
		return nil, err
	}

	if err := uc.tracker.Succeed(ctx, attempt, url); err != nil {
		// Durable data already holds the URL; the overlay is only cosmetic.
		log.Error("[RETRY] Failed to mark succeeded: %v", err)
	}
	uc.metrics.retry(string(platform), "success")
	log.Info("[RETRY] Succeeded url=%s", url)

	sendTask(ctx, uc.tasks, uc.logger, queue.Task{
		Type:     queue.TaskRetrySucceeded,
		UserID:   userID,
		PostID:   input.PostID,
		Platform: string(platform),
		URL:      url,
		Priority: 3,
	})

	return &RetryOutcome{
		PostID:   input.PostID,
		Platform: platform,
		URL:      url,
		Posts:    fetchSnapshot(ctx, uc.scheduledRepo, uc.liveRepo, uc.logger, userID),
	}, nil
}

func (uc *retryUseCase) attempt(ctx context.Context, userID, postID string, platform entity.Platform, source entity.Source, post *publishable) (string, error) {
	result, err := uc.publisher.Publish(ctx, webapi.PublishRequest{
		UserID:    userID,
		Platforms: []string{string(platform)},
		Content:   post.content,
		MediaURL:  post.mediaURL,
		PostType:  post.postType,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPublishFailed, err)
	}

	outcome, ok := result.Results[platform]
	if !ok || !outcome.Succeeded() {
		reason := "no url returned"
		if ok && outcome.Error != "" {
			reason = outcome.Error
		}
		return "", fmt.Errorf("%w: %s", ErrPublishFailed, reason)
	}

	switch source {
	case entity.SourceScheduledPosts:
		err = uc.scheduledRepo.MergePlatformResult(ctx, userID, postID, platform, entity.PlatformResult{
			Status: entity.ResultStatusSuccess,
			URL:    outcome.URL,
		})
	case entity.SourceLivePosts:
		err = uc.liveRepo.SetPlatformURL(ctx, userID, postID, platform, outcome.URL)
	}
	if errors.Is(err, persistent.ErrNotFound) {
		return "", ErrPostNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to persist retry result: %w", err)
	}
	return outcome.URL, nil
}

func (uc *retryUseCase) load(ctx context.Context, userID, postID string, source entity.Source) (*publishable, error) {
	switch source {
	case entity.SourceLivePosts:
		post, err := uc.liveRepo.GetByID(ctx, userID, postID)
		if errors.Is(err, persistent.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load post: %w", err)
		}
		return &publishable{content: post.Content, mediaURL: post.MediaURL, postType: post.PostType}, nil
	default:
		post, err := uc.scheduledRepo.GetByID(ctx, userID, postID)
		if errors.Is(err, persistent.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load post: %w", err)
		}
		return &publishable{content: post.Content, mediaURL: post.MediaURL, postType: post.PostType}, nil
	}
}

// RetryStatus reads the ephemeral state of one pair key of a post the user
// owns in either collection.
func (uc *retryUseCase) RetryStatus(ctx context.Context, userID, postID, platform string) (retrystate.State, error) {
	p, ok := entity.NormalizePlatform(platform)
	if !ok || !p.Retryable() {
		return retrystate.State{}, fmt.Errorf("%w: %q", ErrUnsupportedPlatform, platform)
	}

	if _, err := uc.load(ctx, userID, postID, entity.SourceScheduledPosts); err != nil {
		if !errors.Is(err, ErrPostNotFound) {
			return retrystate.State{}, err
		}
		if _, err := uc.load(ctx, userID, postID, entity.SourceLivePosts); err != nil {
			return retrystate.State{}, err
		}
	}

	return uc.tracker.Get(ctx, retrystate.Key(postID, p))
}
