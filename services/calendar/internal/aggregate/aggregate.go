// Package aggregate builds the calendar views from a snapshot of the
// scheduledPosts and livePosts collections.
//
// Every function here is pure: it reads the snapshot, never mutates it and
// never fails. Records that cannot be placed on a day (no usable timestamp)
// are left out of the day views instead of failing the whole computation.
package aggregate

import (
	"sort"
	"time"

	"social-scheduler/services/calendar/internal/entity"
)

type Aggregator struct {
	loc *time.Location
}

// New returns an Aggregator that buckets timestamps by calendar day in loc.
// A nil loc means the process local zone.
func New(loc *time.Location) *Aggregator {
	if loc == nil {
		loc = time.Local
	}
	return &Aggregator{loc: loc}
}

func (a *Aggregator) Location() *time.Location {
	return a.loc
}

// PostsForDate partitions the scheduled posts falling on date into upcoming
// (anything not yet published, ascending by scheduledAt) and live
// (status published, remapped to the live shape, newest first).
func (a *Aggregator) PostsForDate(snap entity.Snapshot, date entity.Date) entity.DayPosts {
	day := entity.DayPosts{
		Upcoming: []entity.PostView{},
		Live:     []entity.PostView{},
	}

	for i := range snap.Scheduled {
		post := &snap.Scheduled[i]
		if !date.Contains(post.ScheduledAt, a.loc) {
			continue
		}
		if post.Status == entity.StatusPublished {
			day.Live = append(day.Live, scheduledLiveView(post))
		} else {
			day.Upcoming = append(day.Upcoming, upcomingView(post))
		}
	}

	sort.SliceStable(day.Upcoming, func(i, j int) bool {
		return day.Upcoming[i].ScheduledAt.Before(*day.Upcoming[j].ScheduledAt)
	})
	sortNewestFirst(day.Live)

	return day
}

// LivePostsForDate merges live posts published on date with the published
// scheduled posts of that day. An id present in both keeps the livePosts
// entry. The result is ordered by publishedAt, newest first; ties keep merge order.
func (a *Aggregator) LivePostsForDate(snap entity.Snapshot, date entity.Date) []entity.PostView {
	merged := make([]entity.PostView, 0, len(snap.Live))
	for i := range snap.Live {
		post := &snap.Live[i]
		if !date.Contains(post.PublishedAt, a.loc) {
			continue
		}
		merged = append(merged, liveView(post))
	}
	merged = append(merged, a.PostsForDate(snap, date).Live...)

	result := dedupeByID(merged)
	sortNewestFirst(result)
	return result
}

// DaysWithPosts lists, ascending, the days of year/month holding at least one
// scheduled post, whatever its status.
func (a *Aggregator) DaysWithPosts(snap entity.Snapshot, year int, month time.Month) []int {
	seen := make(map[int]bool)
	for i := range snap.Scheduled {
		at := snap.Scheduled[i].ScheduledAt
		if at == nil || at.IsZero() {
			continue
		}
		d := entity.DateOf(*at, a.loc)
		if d.Year == year && d.Month == month {
			seen[d.Day] = true
		}
	}

	days := make([]int, 0, len(seen))
	for day := range seen {
		days = append(days, day)
	}
	sort.Ints(days)
	return days
}

// FailedPlatforms returns the selected platforms lacking a success URL, in
// selection order. Platforms without a tracked URL field are never reported.
func FailedPlatforms(platforms []entity.Platform, urlFor func(entity.Platform) string) []entity.Platform {
	failed := []entity.Platform{}
	seen := make(map[entity.Platform]bool)
	for _, p := range platforms {
		if !p.Retryable() || seen[p] {
			continue
		}
		seen[p] = true
		if urlFor(p) == "" {
			failed = append(failed, p)
		}
	}
	return failed
}

// PrimaryPlatform is the display platform: the first selected one, or linkedin.
func PrimaryPlatform(platforms []entity.Platform) entity.Platform {
	if len(platforms) == 0 {
		return entity.DefaultPlatform
	}
	return platforms[0]
}

func upcomingView(post *entity.ScheduledPost) entity.PostView {
	return entity.PostView{
		ID:              post.ID,
		Source:          entity.SourceScheduledPosts,
		Platform:        PrimaryPlatform(post.Platforms),
		Platforms:       copyPlatforms(post.Platforms),
		Title:           post.Title,
		Content:         post.Content,
		MediaURL:        post.MediaURL,
		PostType:        post.PostType,
		Status:          post.Status,
		ScheduledAt:     post.ScheduledAt,
		FailedPlatforms: []entity.Platform{},
	}
}

func scheduledLiveView(post *entity.ScheduledPost) entity.PostView {
	view := upcomingView(post)
	view.PublishedAt = post.ScheduledAt
	view.LinkedInURL = post.PublishResult.URL(entity.PlatformLinkedIn)
	view.TwitterURL = post.PublishResult.URL(entity.PlatformX)
	view.FacebookURL = post.PublishResult.URL(entity.PlatformFacebook)
	view.FailedPlatforms = FailedPlatforms(post.Platforms, post.PublishResult.URL)
	return view
}

func liveView(post *entity.LivePost) entity.PostView {
	return entity.PostView{
		ID:              post.ID,
		Source:          entity.SourceLivePosts,
		Platform:        PrimaryPlatform(post.Platforms),
		Platforms:       copyPlatforms(post.Platforms),
		Title:           post.Title,
		Content:         post.Content,
		MediaURL:        post.MediaURL,
		PostType:        post.PostType,
		Status:          entity.StatusPublished,
		PublishedAt:     post.PublishedAt,
		LinkedInURL:     post.LinkedInURL,
		TwitterURL:      post.TwitterURL,
		FacebookURL:     post.FacebookURL,
		FailedPlatforms: FailedPlatforms(post.Platforms, post.URL),
	}
}

func dedupeByID(views []entity.PostView) []entity.PostView {
	seen := make(map[string]bool, len(views))
	out := make([]entity.PostView, 0, len(views))
	for _, v := range views {
		if seen[v.ID] {
			continue
		}
		seen[v.ID] = true
		out = append(out, v)
	}
	return out
}

func sortNewestFirst(views []entity.PostView) {
	sort.SliceStable(views, func(i, j int) bool {
		return publishedUnix(views[i]) > publishedUnix(views[j])
	})
}

func publishedUnix(v entity.PostView) int64 {
	if v.PublishedAt == nil {
		return 0
	}
	return v.PublishedAt.UnixNano()
}

func copyPlatforms(in []entity.Platform) []entity.Platform {
	out := make([]entity.Platform, len(in))
	copy(out, in)
	return out
}
