package entity

import "time"

// PostView is the read-only projection the calendar renders. It is never persisted.
type PostView struct {
	ID              string     `json:"id"`
	Source          Source     `json:"source"`
	Platform        Platform   `json:"platform"`
	Platforms       []Platform `json:"platforms"`
	Title           string     `json:"title,omitempty"`
	Content         string     `json:"content,omitempty"`
	MediaURL        string     `json:"mediaUrl,omitempty"`
	PostType        string     `json:"postType,omitempty"`
	Status          PostStatus `json:"status,omitempty"`
	ScheduledAt     *time.Time `json:"scheduledAt,omitempty"`
	PublishedAt     *time.Time `json:"publishedAt,omitempty"`
	LinkedInURL     string     `json:"linkedInUrl,omitempty"`
	TwitterURL      string     `json:"twitterUrl,omitempty"`
	FacebookURL     string     `json:"facebookUrl,omitempty"`
	FailedPlatforms []Platform `json:"failedPlatforms"`
}

// DayPosts partitions the scheduled posts of one day.
type DayPosts struct {
	Upcoming []PostView `json:"upcoming"`
	Live     []PostView `json:"live"`
}

// CalendarDay is the full view of one day: pending posts and everything published.
type CalendarDay struct {
	Date     string     `json:"date"`
	Upcoming []PostView `json:"upcoming"`
	Live     []PostView `json:"live"`
}
