package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

type ScheduledPostModel struct {
	ID            string             `gorm:"type:uuid;primary_key" json:"id"`
	UserID        string             `gorm:"type:varchar(128);not null;index" json:"user_id"`
	Title         string             `gorm:"type:varchar(255)" json:"title"`
	Content       string             `gorm:"type:text" json:"content"`
	Platforms     pq.StringArray     `gorm:"type:text[];not null" json:"platforms"`
	ScheduledAt   *time.Time         `gorm:"index" json:"scheduled_at"`
	Status        string             `gorm:"type:varchar(32);default:'pending'" json:"status"`
	MediaURL      string             `gorm:"type:varchar(1000)" json:"media_url"`
	PostType      string             `gorm:"type:varchar(32)" json:"post_type"`
	PublishResult *PublishResultJSON `gorm:"type:jsonb" json:"publish_result"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
	DeletedAt     gorm.DeletedAt     `gorm:"index" json:"-"`
}

func (ScheduledPostModel) TableName() string {
	return "scheduled_posts"
}

func (p *ScheduledPostModel) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}

type LivePostModel struct {
	ID          string         `gorm:"type:uuid;primary_key" json:"id"`
	UserID      string         `gorm:"type:varchar(128);not null;index" json:"user_id"`
	Title       string         `gorm:"type:varchar(255)" json:"title"`
	Content     string         `gorm:"type:text" json:"content"`
	Platforms   pq.StringArray `gorm:"type:text[];not null" json:"platforms"`
	MediaURL    string         `gorm:"type:varchar(1000)" json:"media_url"`
	PostType    string         `gorm:"type:varchar(32)" json:"post_type"`
	PublishedAt *time.Time     `gorm:"index" json:"published_at"`
	LinkedInURL string         `gorm:"column:linkedin_url;type:varchar(1000)" json:"linkedin_url"`
	TwitterURL  string         `gorm:"column:twitter_url;type:varchar(1000)" json:"twitter_url"`
	FacebookURL string         `gorm:"column:facebook_url;type:varchar(1000)" json:"facebook_url"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (LivePostModel) TableName() string {
	return "live_posts"
}

func (p *LivePostModel) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}

// PlatformResultJSON is one entry of publish_result.results. Keys of the
// results object are platform names exactly as the publish API returned them.
type PlatformResultJSON struct {
	Status string `json:"status"`
	URL    string `json:"url,omitempty"`
	Error  string `json:"error,omitempty"`
}

// PublishResultJSON maps the publish_result jsonb column.
type PublishResultJSON struct {
	Success bool                          `json:"success"`
	Results map[string]PlatformResultJSON `json:"results"`
}

func (p PublishResultJSON) Value() (driver.Value, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (p *PublishResultJSON) Scan(value interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*p = PublishResultJSON{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported publish_result type %T", value)
	}
	return json.Unmarshal(raw, p)
}
