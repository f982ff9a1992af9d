// Command seed fills the calendar of one user with demo posts around today:
// pending posts, a scheduled post published with one failed platform and a
// live post.
package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"social-scheduler/pkg/config"
	"social-scheduler/pkg/database"
	"social-scheduler/pkg/logger"
	"social-scheduler/services/calendar/internal/entity"
	"social-scheduler/services/calendar/internal/repo/persistent"
)

func main() {
	var userID string
	flag.StringVar(&userID, "user", "", "user to seed (default DEFAULT_USER_ID)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}
	if userID == "" {
		userID = cfg.DefaultUserID
	}

	log := logger.New()
	if userID == "" {
		log.Error("No user to seed: pass -user or set DEFAULT_USER_ID")
		return
	}

	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Error("Failed to connect to database: %v", err)
		panic(err)
	}

	scheduledRepo := persistent.NewScheduledPostRepository(db)
	liveRepo := persistent.NewLivePostRepository(db)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := seed(ctx, scheduledRepo, liveRepo, userID, time.Now().In(cfg.Location()), log); err != nil {
		log.Error("Failed to seed database: %v", err)
		panic(err)
	}

	log.Info("Database seeded successfully!")
}

func seed(ctx context.Context, scheduledRepo persistent.ScheduledPostRepository, liveRepo persistent.LivePostRepository, userID string, now time.Time, log *logger.Logger) error {
	existing, err := scheduledRepo.ListByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to list scheduled posts: %w", err)
	}
	if len(existing) > 0 {
		log.Info("User %s already has %d scheduled posts, skipping", userID, len(existing))
		return nil
	}

	scheduled, live := fixtures(userID, now)
	for i := range scheduled {
		if err := scheduledRepo.Create(ctx, &scheduled[i]); err != nil {
			return fmt.Errorf("failed to create scheduled post %q: %w", scheduled[i].Title, err)
		}
		log.Info("Created scheduled post: %s (%s)", scheduled[i].Title, scheduled[i].Status)
	}
	for i := range live {
		if err := liveRepo.Create(ctx, &live[i]); err != nil {
			return fmt.Errorf("failed to create live post %q: %w", live[i].Title, err)
		}
		log.Info("Created live post: %s", live[i].Title)
	}
	return nil
}

func fixtures(userID string, now time.Time) ([]entity.ScheduledPost, []entity.LivePost) {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	at := func(days, hour int) *time.Time {
		t := day.AddDate(0, 0, days).Add(time.Duration(hour) * time.Hour)
		return &t
	}

	scheduled := []entity.ScheduledPost{
		{
			UserID:      userID,
			Title:       "Product launch teaser",
			Content:     "Something new ships next week. Stay tuned.",
			Platforms:   []entity.Platform{entity.PlatformLinkedIn, entity.PlatformX},
			ScheduledAt: at(0, 17),
			Status:      entity.StatusPending,
			PostType:    "text",
		},
		{
			UserID:      userID,
			Title:       "Customer story",
			Content:     "How a small team cut their release time in half.",
			Platforms:   []entity.Platform{entity.PlatformFacebook},
			ScheduledAt: at(2, 10),
			Status:      entity.StatusPending,
			PostType:    "text",
		},
		{
			UserID:      userID,
			Title:       "Morning update",
			Content:     "Our weekly changelog is out.",
			Platforms:   []entity.Platform{entity.PlatformLinkedIn, entity.PlatformX},
			ScheduledAt: at(0, 9),
			Status:      entity.StatusPublished,
			PostType:    "text",
			PublishResult: &entity.PublishResult{
				Success: true,
				Results: map[entity.Platform]entity.PlatformResult{
					entity.PlatformLinkedIn: {Status: entity.ResultStatusSuccess, URL: "https://www.linkedin.com/feed/update/urn:li:share:demo"},
					entity.PlatformX:        {Status: "failed", Error: "rate limit exceeded"},
				},
			},
		},
	}

	live := []entity.LivePost{
		{
			UserID:      userID,
			Title:       "Hiring announcement",
			Content:     "We are hiring backend engineers.",
			Platforms:   []entity.Platform{entity.PlatformX, entity.PlatformFacebook},
			PublishedAt: at(-1, 14),
			PostType:    "text",
			TwitterURL:  "https://x.com/demo/status/1",
		},
	}

	return scheduled, live
}
