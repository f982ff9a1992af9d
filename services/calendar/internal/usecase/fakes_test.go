package usecase

import (
	"context"
	"errors"
	"io"
	"sync"

	"social-scheduler/pkg/queue"
	"social-scheduler/services/calendar/internal/entity"
	"social-scheduler/services/calendar/internal/repo/persistent"
	"social-scheduler/services/calendar/internal/repo/webapi"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// memStore keeps both collections in memory and merges platform results
// field by field, like the jsonb_set update does.
type memStore struct {
	mu        sync.Mutex
	scheduled map[string]entity.ScheduledPost
	live      map[string]entity.LivePost
	listErr   error
}

func newMemStore() *memStore {
	return &memStore{
		scheduled: make(map[string]entity.ScheduledPost),
		live:      make(map[string]entity.LivePost),
	}
}

func (s *memStore) scheduledRepo() persistent.ScheduledPostRepository { return &memScheduled{s} }
func (s *memStore) liveRepo() persistent.LivePostRepository { return &memLive{s} }

type memScheduled struct{ s *memStore }

func (r *memScheduled) Create(_ context.Context, post *entity.ScheduledPost) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if post.ID == "" {
		post.ID = uuid.New().String()
	}
	r.s.scheduled[post.ID] = *post
	return nil
}

func (r *memScheduled) GetByID(_ context.Context, userID, id string) (*entity.ScheduledPost, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	post, ok := r.s.scheduled[id]
	if !ok || post.UserID != userID {
		return nil, persistent.ErrNotFound
	}
	return &post, nil
}

func (r *memScheduled) ListByUser(_ context.Context, userID string) ([]entity.ScheduledPost, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.listErr != nil {
		return nil, r.s.listErr
	}
	var out []entity.ScheduledPost
	for _, p := range r.s.scheduled {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *memScheduled) MergePlatformResult(_ context.Context, userID, id string, platform entity.Platform, result entity.PlatformResult) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	post, ok := r.s.scheduled[id]
	if !ok || post.UserID != userID {
		return persistent.ErrNotFound
	}

	merged := &entity.PublishResult{Results: map[entity.Platform]entity.PlatformResult{}}
	if post.PublishResult != nil {
		merged.Success = post.PublishResult.Success
		for k, v := range post.PublishResult.Results {
			merged.Results[k] = v
		}
	}
	merged.Results[platform] = result
	post.PublishResult = merged
	r.s.scheduled[id] = post
	return nil
}

func (r *memScheduled) Delete(_ context.Context, userID, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	post, ok := r.s.scheduled[id]
	if !ok || post.UserID != userID {
		return persistent.ErrNotFound
	}
	delete(r.s.scheduled, id)
	return nil
}

type memLive struct{ s *memStore }

func (r *memLive) Create(_ context.Context, post *entity.LivePost) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if post.ID == "" {
		post.ID = uuid.New().String()
	}
	r.s.live[post.ID] = *post
	return nil
}

func (r *memLive) GetByID(_ context.Context, userID, id string) (*entity.LivePost, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	post, ok := r.s.live[id]
	if !ok || post.UserID != userID {
		return nil, persistent.ErrNotFound
	}
	return &post, nil
}

func (r *memLive) ListByUser(_ context.Context, userID string) ([]entity.LivePost, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.listErr != nil {
		return nil, r.s.listErr
	}
	var out []entity.LivePost
	for _, p := range r.s.live {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *memLive) SetPlatformURL(_ context.Context, userID, id string, platform entity.Platform, url string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	post, ok := r.s.live[id]
	if !ok || post.UserID != userID {
		return persistent.ErrNotFound
	}
	post.SetURL(platform, url)
	r.s.live[id] = post
	return nil
}

func (r *memLive) Delete(_ context.Context, userID, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	post, ok := r.s.live[id]
	if !ok || post.UserID != userID {
		return persistent.ErrNotFound
	}
	delete(r.s.live, id)
	return nil
}

func (r *memLive) Promote(_ context.Context, userID, scheduledID string, post *entity.LivePost) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	scheduled, ok := r.s.scheduled[scheduledID]
	if !ok || scheduled.UserID != userID {
		return persistent.ErrNotFound
	}
	delete(r.s.scheduled, scheduledID)
	r.s.live[post.ID] = *post
	return nil
}

type publisherFunc func(ctx context.Context, req webapi.PublishRequest) (*entity.PublishResult, error)

func (f publisherFunc) Publish(ctx context.Context, req webapi.PublishRequest) (*entity.PublishResult, error) {
	return f(ctx, req)
}

// succeedWith answers every request with one URL per requested platform.
func succeedWith(urls map[entity.Platform]string) publisherFunc {
	return func(_ context.Context, req webapi.PublishRequest) (*entity.PublishResult, error) {
		result := &entity.PublishResult{Success: true, Results: map[entity.Platform]entity.PlatformResult{}}
		for _, raw := range req.Platforms {
			p, _ := entity.NormalizePlatform(raw)
			if url, ok := urls[p]; ok {
				result.Results[p] = entity.PlatformResult{Status: entity.ResultStatusSuccess, URL: url}
			} else {
				result.Results[p] = entity.PlatformResult{Status: "error", Error: "rejected"}
			}
		}
		return result, nil
	}
}

type MockTaskPublisher struct {
	mock.Mock
}

func (m *MockTaskPublisher) PublishTask(ctx context.Context, task queue.Task) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

type MockMediaStore struct {
	mock.Mock
}

func (m *MockMediaStore) UploadFile(ctx context.Context, key string, file io.Reader, contentType string) (string, error) {
	args := m.Called(ctx, key, file, contentType)
	return args.String(0), args.Error(1)
}

func (m *MockMediaStore) DeleteFile(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

var errStoreDown = errors.New("connection refused")
