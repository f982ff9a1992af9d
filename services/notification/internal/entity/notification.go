package entity

// Notification represents a notification sent to a user
type Notification struct {
	UserID    string            `json:"user_id"`
	Title     string            `json:"title"`
	Message   string            `json:"message"`
	Type      string            `json:"type"`
	Data      map[string]string `json:"data,omitempty"`
	CreatedAt string            `json:"created_at"`
}

// PostID is the post the notification refers to, if any.
func (n Notification) PostID() string {
	return n.Data["post_id"]
}
