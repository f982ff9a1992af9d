package entity

import "time"

type PostStatus string

const (
	StatusPending   PostStatus = "pending"
	StatusPublished PostStatus = "published"
)

// Source names the collection a post was read from.
type Source string

const (
	SourceScheduledPosts Source = "scheduledPosts"
	SourceLivePosts      Source = "livePosts"
)

func ParseSource(raw string) (Source, bool) {
	switch Source(raw) {
	case SourceScheduledPosts, SourceLivePosts:
		return Source(raw), true
	case "":
		return SourceScheduledPosts, true
	}
	return "", false
}

const ResultStatusSuccess = "success"

// PlatformResult is the outcome of one platform publish attempt.
type PlatformResult struct {
	Status string `json:"status"`
	URL    string `json:"url,omitempty"`
	Error  string `json:"error,omitempty"`
}

func (r PlatformResult) Succeeded() bool {
	return r.Status == ResultStatusSuccess && r.URL != ""
}

// PublishResult is recorded on a scheduled post once a publish attempt happened.
type PublishResult struct {
	Success bool                        `json:"success"`
	Results map[Platform]PlatformResult `json:"results"`
}

// URL returns the success URL recorded for p, or "".
func (r *PublishResult) URL(p Platform) string {
	if r == nil {
		return ""
	}
	if res, ok := r.Results[p]; ok && res.Status == ResultStatusSuccess {
		return res.URL
	}
	return ""
}

type ScheduledPost struct {
	ID            string         `json:"id"`
	UserID        string         `json:"userId"`
	Title         string         `json:"title,omitempty"`
	Content       string         `json:"content,omitempty"`
	Platforms     []Platform     `json:"platforms"`
	ScheduledAt   *time.Time     `json:"scheduledAt,omitempty"`
	Status        PostStatus     `json:"status"`
	MediaURL      string         `json:"mediaUrl,omitempty"`
	PostType      string         `json:"postType,omitempty"`
	PublishResult *PublishResult `json:"publishResult,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

type LivePost struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	Title       string     `json:"title,omitempty"`
	Content     string     `json:"content,omitempty"`
	Platforms   []Platform `json:"platforms"`
	MediaURL    string     `json:"mediaUrl,omitempty"`
	PostType    string     `json:"postType,omitempty"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
	LinkedInURL string     `json:"linkedInUrl,omitempty"`
	TwitterURL  string     `json:"twitterUrl,omitempty"`
	FacebookURL string     `json:"facebookUrl,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// URL returns the flat URL field tracked for p.
func (p *LivePost) URL(platform Platform) string {
	switch platform {
	case PlatformLinkedIn:
		return p.LinkedInURL
	case PlatformX:
		return p.TwitterURL
	case PlatformFacebook:
		return p.FacebookURL
	}
	return ""
}

// SetURL fills the flat URL field for platform. It reports false for
// platforms without a field, whose URL is dropped.
func (p *LivePost) SetURL(platform Platform, url string) bool {
	switch platform {
	case PlatformLinkedIn:
		p.LinkedInURL = url
	case PlatformX:
		p.TwitterURL = url
	case PlatformFacebook:
		p.FacebookURL = url
	default:
		return false
	}
	return true
}

// Snapshot is the in-memory copy of both collections for one user.
type Snapshot struct {
	Scheduled []ScheduledPost `json:"scheduledPosts"`
	Live      []LivePost      `json:"livePosts"`
}
