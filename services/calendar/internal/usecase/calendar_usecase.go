package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"social-scheduler/pkg/logger"
	"social-scheduler/pkg/queue"
	"social-scheduler/pkg/s3"
	"social-scheduler/services/calendar/internal/aggregate"
	"social-scheduler/services/calendar/internal/entity"
	"social-scheduler/services/calendar/internal/repo/persistent"
	"social-scheduler/services/calendar/internal/repo/webapi"
)

type ScheduleInput struct {
	Title       string
	Content     string
	Platforms   []string
	ScheduledAt time.Time
	MediaURL    string
	PostType    string
}

type PostInput struct {
	Title     string
	Content   string
	Platforms []string
	MediaURL  string
	PostType  string
}

type CalendarUseCase interface {
	FetchPosts(ctx context.Context, userID string) entity.Snapshot
	PostsForDate(ctx context.Context, userID string, date entity.Date) entity.DayPosts
	LivePostsForDate(ctx context.Context, userID string, date entity.Date) []entity.PostView
	Day(ctx context.Context, userID string, date entity.Date) entity.CalendarDay
	DaysWithPosts(ctx context.Context, userID string, year int, month time.Month) []int
	Schedule(ctx context.Context, userID string, input ScheduleInput) (*entity.ScheduledPost, error)
	DeletePost(ctx context.Context, userID, postID string, source entity.Source) error
	PublishNow(ctx context.Context, userID, postID string) (*entity.LivePost, error)
	PostNow(ctx context.Context, userID string, input PostInput) (*entity.LivePost, error)
	UploadMedia(ctx context.Context, userID, filename, contentType string, file io.Reader) (string, error)
}

type calendarUseCase struct {
	scheduledRepo persistent.ScheduledPostRepository
	liveRepo      persistent.LivePostRepository
	publisher     webapi.Publisher
	media         MediaStore
	tasks         TaskPublisher
	aggregator    *aggregate.Aggregator
	metrics       *Metrics
	logger        *logger.Logger
	now           func() time.Time
}

// NewCalendarUseCase wires the calendar operations. media and tasks may be nil:
// uploads are then refused and notifications skipped.
func NewCalendarUseCase(
	scheduledRepo persistent.ScheduledPostRepository,
	liveRepo persistent.LivePostRepository,
	publisher webapi.Publisher,
	media MediaStore,
	tasks TaskPublisher,
	aggregator *aggregate.Aggregator,
	metrics *Metrics,
	logger *logger.Logger,
) CalendarUseCase {
	return &calendarUseCase{
		scheduledRepo: scheduledRepo,
		liveRepo:      liveRepo,
		publisher:     publisher,
		media:         media,
		tasks:         tasks,
		aggregator:    aggregator,
		metrics:       metrics,
		logger:        logger,
		now:           time.Now,
	}
}

// FetchPosts loads both collections for userID. A failing collection is
// logged and comes back empty.
func (uc *calendarUseCase) FetchPosts(ctx context.Context, userID string) entity.Snapshot {
	return fetchSnapshot(ctx, uc.scheduledRepo, uc.liveRepo, uc.logger, userID)
}

func (uc *calendarUseCase) PostsForDate(ctx context.Context, userID string, date entity.Date) entity.DayPosts {
	return uc.aggregator.PostsForDate(uc.FetchPosts(ctx, userID), date)
}

func (uc *calendarUseCase) LivePostsForDate(ctx context.Context, userID string, date entity.Date) []entity.PostView {
	return uc.aggregator.LivePostsForDate(uc.FetchPosts(ctx, userID), date)
}

func (uc *calendarUseCase) Day(ctx context.Context, userID string, date entity.Date) entity.CalendarDay {
	snap := uc.FetchPosts(ctx, userID)
	return entity.CalendarDay{
		Date:     date.String(),
		Upcoming: uc.aggregator.PostsForDate(snap, date).Upcoming,
		Live:     uc.aggregator.LivePostsForDate(snap, date),
	}
}

func (uc *calendarUseCase) DaysWithPosts(ctx context.Context, userID string, year int, month time.Month) []int {
	return uc.aggregator.DaysWithPosts(uc.FetchPosts(ctx, userID), year, month)
}

func (uc *calendarUseCase) Schedule(ctx context.Context, userID string, input ScheduleInput) (*entity.ScheduledPost, error) {
	platforms, err := validatePlatforms(input.Platforms)
	if err != nil {
		return nil, err
	}
	if input.Content == "" && input.MediaURL == "" {
		return nil, fmt.Errorf("%w: content or media is required", ErrInvalidPost)
	}
	if input.ScheduledAt.IsZero() {
		return nil, fmt.Errorf("%w: scheduled time is required", ErrInvalidPost)
	}

	scheduledAt := input.ScheduledAt.UTC()
	post := &entity.ScheduledPost{
		UserID:      userID,
		Title:       input.Title,
		Content:     input.Content,
		Platforms:   platforms,
		ScheduledAt: &scheduledAt,
		Status:      entity.StatusPending,
		MediaURL:    input.MediaURL,
		PostType:    postType(input.PostType, input.MediaURL),
	}
	if err := uc.scheduledRepo.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to create scheduled post: %w", err)
	}

	uc.logger.Info("[SCHEDULE] user=%s post=%s at=%s platforms=%v", userID, post.ID, scheduledAt.Format(time.RFC3339), platforms)
	return post, nil
}

// DeletePost removes a post the user owns. Uploaded media no other post of the
// user still references is removed from storage afterwards.
func (uc *calendarUseCase) DeletePost(ctx context.Context, userID, postID string, source entity.Source) error {
	var (
		mediaURL string
		err      error
	)
	switch source {
	case entity.SourceScheduledPosts:
		var post *entity.ScheduledPost
		if post, err = uc.scheduledRepo.GetByID(ctx, userID, postID); err == nil {
			mediaURL = post.MediaURL
			err = uc.scheduledRepo.Delete(ctx, userID, postID)
		}
	case entity.SourceLivePosts:
		var post *entity.LivePost
		if post, err = uc.liveRepo.GetByID(ctx, userID, postID); err == nil {
			mediaURL = post.MediaURL
			err = uc.liveRepo.Delete(ctx, userID, postID)
		}
	default:
		return ErrInvalidSource
	}
	if errors.Is(err, persistent.ErrNotFound) {
		return ErrPostNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}

	uc.cleanupMedia(ctx, userID, mediaURL)
	return nil
}

func (uc *calendarUseCase) cleanupMedia(ctx context.Context, userID, mediaURL string) {
	if uc.media == nil || mediaURL == "" {
		return
	}
	key, ok := s3.MediaKeyFromURL(mediaURL)
	if !ok || !strings.HasPrefix(key, "media/"+userID+"/") {
		return
	}

	snap := uc.FetchPosts(ctx, userID)
	for _, p := range snap.Scheduled {
		if p.MediaURL == mediaURL {
			return
		}
	}
	for _, p := range snap.Live {
		if p.MediaURL == mediaURL {
			return
		}
	}

	if err := uc.media.DeleteFile(ctx, key); err != nil {
		uc.logger.Warn("[DELETE] user=%s failed to remove media %s: %v", userID, key, err)
		return
	}
	uc.logger.Info("[DELETE] user=%s removed media %s", userID, key)
}

// PublishNow sends a pending scheduled post to all of its platforms. When at
// least one platform succeeds the post moves to livePosts under the same id.
func (uc *calendarUseCase) PublishNow(ctx context.Context, userID, postID string) (*entity.LivePost, error) {
	scheduled, err := uc.scheduledRepo.GetByID(ctx, userID, postID)
	if errors.Is(err, persistent.ErrNotFound) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load post: %w", err)
	}
	if scheduled.Status == entity.StatusPublished {
		return nil, ErrAlreadyPublished
	}

	live, err := uc.publish(ctx, userID, PostInput{
		Title:     scheduled.Title,
		Content:   scheduled.Content,
		Platforms: entity.PlatformStrings(scheduled.Platforms),
		MediaURL:  scheduled.MediaURL,
		PostType:  scheduled.PostType,
	})
	if err != nil {
		return nil, err
	}

	live.ID = scheduled.ID
	if err := uc.liveRepo.Promote(ctx, userID, scheduled.ID, live); err != nil {
		uc.logger.Error("[PUBLISH] post=%s published but not recorded: %v", scheduled.ID, err)
		return nil, fmt.Errorf("failed to record published post: %w", err)
	}

	uc.notifyPublished(ctx, live)
	return live, nil
}

func (uc *calendarUseCase) PostNow(ctx context.Context, userID string, input PostInput) (*entity.LivePost, error) {
	live, err := uc.publish(ctx, userID, input)
	if err != nil {
		return nil, err
	}

	if err := uc.liveRepo.Create(ctx, live); err != nil {
		uc.logger.Error("[PUBLISH] user=%s published but not recorded: %v", userID, err)
		return nil, fmt.Errorf("failed to record published post: %w", err)
	}

	uc.notifyPublished(ctx, live)
	return live, nil
}

func (uc *calendarUseCase) UploadMedia(ctx context.Context, userID, filename, contentType string, file io.Reader) (string, error) {
	if uc.media == nil {
		return "", errors.New("media storage is not configured")
	}
	if contentType == "" {
		contentType = "image/jpeg"
	}

	url, err := uc.media.UploadFile(ctx, s3.MediaKey(userID, filename), file, contentType)
	if err != nil {
		return "", fmt.Errorf("failed to upload media: %w", err)
	}
	return url, nil
}

// publish calls the publish API for input and builds the live post from the
// platforms that succeeded. No success at all is ErrPublishFailed.
func (uc *calendarUseCase) publish(ctx context.Context, userID string, input PostInput) (*entity.LivePost, error) {
	platforms, err := validatePlatforms(input.Platforms)
	if err != nil {
		return nil, err
	}
	if input.Content == "" && input.MediaURL == "" {
		return nil, fmt.Errorf("%w: content or media is required", ErrInvalidPost)
	}

	result, err := uc.publisher.Publish(ctx, webapi.PublishRequest{
		UserID:    userID,
		Platforms: entity.PlatformStrings(platforms),
		Content:   input.Content,
		MediaURL:  input.MediaURL,
		PostType:  postType(input.PostType, input.MediaURL),
	})
	if err != nil {
		for _, p := range platforms {
			uc.metrics.publish(string(p), "error")
		}
		uc.notify(ctx, queue.Task{Type: queue.TaskPublishFailed, UserID: userID, Error: err.Error(), Priority: 5})
		return nil, fmt.Errorf("%w: %v", ErrPublishFailed, err)
	}

	publishedAt := uc.now().UTC()
	live := &entity.LivePost{
		UserID:      userID,
		Title:       input.Title,
		Content:     input.Content,
		Platforms:   platforms,
		MediaURL:    input.MediaURL,
		PostType:    postType(input.PostType, input.MediaURL),
		PublishedAt: &publishedAt,
	}

	succeeded := 0
	for _, p := range platforms {
		r, ok := result.Results[p]
		if !ok || !r.Succeeded() {
			uc.metrics.publish(string(p), "failure")
			continue
		}
		// Only platforms with a URL field on the live post count as published.
		if !live.SetURL(p, r.URL) {
			uc.logger.Warn("[PUBLISH] user=%s %s accepted the post but its link cannot be recorded", userID, p)
			uc.metrics.publish(string(p), "unrecorded")
			continue
		}
		succeeded++
		uc.metrics.publish(string(p), "success")
	}
	if succeeded == 0 {
		uc.notify(ctx, queue.Task{Type: queue.TaskPublishFailed, UserID: userID, Error: "no platform accepted the post", Priority: 5})
		return nil, fmt.Errorf("%w: no platform accepted the post", ErrPublishFailed)
	}
	return live, nil
}

func (uc *calendarUseCase) notifyPublished(ctx context.Context, live *entity.LivePost) {
	urls := make(map[string]string)
	for _, p := range live.Platforms {
		if url := live.URL(p); url != "" {
			urls[string(p)] = url
		}
	}
	uc.notify(ctx, queue.Task{Type: queue.TaskPostPublished, UserID: live.UserID, PostID: live.ID, URLs: urls, Priority: 3})
}

func (uc *calendarUseCase) notify(ctx context.Context, task queue.Task) {
	sendTask(ctx, uc.tasks, uc.logger, task)
}

func fetchSnapshot(ctx context.Context, scheduledRepo persistent.ScheduledPostRepository, liveRepo persistent.LivePostRepository, log *logger.Logger, userID string) entity.Snapshot {
	snap := entity.Snapshot{
		Scheduled: []entity.ScheduledPost{},
		Live:      []entity.LivePost{},
	}

	scheduled, err := scheduledRepo.ListByUser(ctx, userID)
	if err != nil {
		log.Error("[FETCH] Failed to load scheduled posts for user=%s: %v", userID, err)
	} else if scheduled != nil {
		snap.Scheduled = scheduled
	}

	live, err := liveRepo.ListByUser(ctx, userID)
	if err != nil {
		log.Error("[FETCH] Failed to load live posts for user=%s: %v", userID, err)
	} else if live != nil {
		snap.Live = live
	}

	return snap
}

func sendTask(ctx context.Context, tasks TaskPublisher, log *logger.Logger, task queue.Task) {
	if tasks == nil {
		return
	}
	if err := tasks.PublishTask(ctx, task); err != nil {
		log.Warn("[NOTIFY] Failed to enqueue %s for user=%s: %v", task.Type, task.UserID, err)
	}
}

// validatePlatforms canonicalizes raw names. Unknown names and an empty
// selection are rejected.
func validatePlatforms(raw []string) ([]entity.Platform, error) {
	for _, r := range raw {
		if _, ok := entity.NormalizePlatform(r); !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnsupportedPlatform, r)
		}
	}
	platforms := entity.NormalizePlatforms(raw)
	if len(platforms) == 0 {
		return nil, fmt.Errorf("%w: at least one platform is required", ErrInvalidPost)
	}
	return platforms, nil
}

func postType(requested, mediaURL string) string {
	if requested != "" {
		return requested
	}
	if mediaURL != "" {
		return "image"
	}
	return "text"
}
