package persistent

import (
	"social-scheduler/services/calendar/internal/entity"
	"social-scheduler/services/calendar/internal/model"

	"github.com/lib/pq"
)

func ToScheduledPostEntity(m *model.ScheduledPostModel) *entity.ScheduledPost {
	if m == nil {
		return nil
	}

	return &entity.ScheduledPost{
		ID:            m.ID,
		UserID:        m.UserID,
		Title:         m.Title,
		Content:       m.Content,
		Platforms:     entity.NormalizePlatforms(m.Platforms),
		ScheduledAt:   m.ScheduledAt,
		Status:        entity.PostStatus(m.Status),
		MediaURL:      m.MediaURL,
		PostType:      m.PostType,
		PublishResult: ToPublishResultEntity(m.PublishResult),
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func ToScheduledPostModel(e *entity.ScheduledPost) *model.ScheduledPostModel {
	if e == nil {
		return nil
	}

	return &model.ScheduledPostModel{
		ID:            e.ID,
		UserID:        e.UserID,
		Title:         e.Title,
		Content:       e.Content,
		Platforms:     pq.StringArray(entity.PlatformStrings(e.Platforms)),
		ScheduledAt:   e.ScheduledAt,
		Status:        string(e.Status),
		MediaURL:      e.MediaURL,
		PostType:      e.PostType,
		PublishResult: ToPublishResultModel(e.PublishResult),
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}

func ToLivePostEntity(m *model.LivePostModel) *entity.LivePost {
	if m == nil {
		return nil
	}

	return &entity.LivePost{
		ID:          m.ID,
		UserID:      m.UserID,
		Title:       m.Title,
		Content:     m.Content,
		Platforms:   entity.NormalizePlatforms(m.Platforms),
		MediaURL:    m.MediaURL,
		PostType:    m.PostType,
		PublishedAt: m.PublishedAt,
		LinkedInURL: m.LinkedInURL,
		TwitterURL:  m.TwitterURL,
		FacebookURL: m.FacebookURL,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func ToLivePostModel(e *entity.LivePost) *model.LivePostModel {
	if e == nil {
		return nil
	}

	return &model.LivePostModel{
		ID:          e.ID,
		UserID:      e.UserID,
		Title:       e.Title,
		Content:     e.Content,
		Platforms:   pq.StringArray(entity.PlatformStrings(e.Platforms)),
		MediaURL:    e.MediaURL,
		PostType:    e.PostType,
		PublishedAt: e.PublishedAt,
		LinkedInURL: e.LinkedInURL,
		TwitterURL:  e.TwitterURL,
		FacebookURL: e.FacebookURL,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

// ToPublishResultEntity canonicalizes result keys. When both "twitter" and
// "x" were recorded, a successful entry wins.
func ToPublishResultEntity(m *model.PublishResultJSON) *entity.PublishResult {
	if m == nil {
		return nil
	}

	result := &entity.PublishResult{
		Success: m.Success,
		Results: make(map[entity.Platform]entity.PlatformResult, len(m.Results)),
	}
	for key, r := range m.Results {
		platform, _ := entity.NormalizePlatform(key)
		if existing, ok := result.Results[platform]; ok && existing.Succeeded() {
			continue
		}
		result.Results[platform] = entity.PlatformResult{
			Status: r.Status,
			URL:    r.URL,
			Error:  r.Error,
		}
	}
	return result
}

func ToPublishResultModel(e *entity.PublishResult) *model.PublishResultJSON {
	if e == nil {
		return nil
	}

	result := &model.PublishResultJSON{
		Success: e.Success,
		Results: make(map[string]model.PlatformResultJSON, len(e.Results)),
	}
	for platform, r := range e.Results {
		result.Results[string(platform)] = ToPlatformResultModel(r)
	}
	return result
}

func ToPlatformResultModel(e entity.PlatformResult) model.PlatformResultJSON {
	return model.PlatformResultJSON{
		Status: e.Status,
		URL:    e.URL,
		Error:  e.Error,
	}
}
