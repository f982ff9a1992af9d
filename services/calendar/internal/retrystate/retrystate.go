// Package retrystate tracks the ephemeral per (post, platform) retry state
// that drives UI affordances. It is never the durable source of truth.
package retrystate

import (
	"context"
	"errors"
	"fmt"

	"social-scheduler/services/calendar/internal/entity"

	"github.com/google/uuid"
)

var (
	// ErrInFlight is returned by Begin when the key already has a running retry.
	ErrInFlight = errors.New("retry already in flight")
	// ErrSuperseded is returned by Succeed and Reset when the attempt no longer
	// owns the key, because its marker expired and a newer attempt began.
	ErrSuperseded = errors.New("retry attempt superseded")
)

type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseInFlight  Phase = "in_flight"
	PhaseSucceeded Phase = "succeeded"
)

type State struct {
	Phase Phase  `json:"phase"`
	URL   string `json:"url,omitempty"`
}

// Attempt identifies one in-flight retry of a key.
type Attempt struct {
	Key   string
	Token string
}

// Tracker implements idle -> in-flight -> {succeeded | idle} per key.
// Different keys never block each other. Succeed and Reset only move the key
// while the attempt still holds it.
type Tracker interface {
	Begin(ctx context.Context, key string) (Attempt, error)
	Succeed(ctx context.Context, attempt Attempt, url string) error
	Reset(ctx context.Context, attempt Attempt) error
	Get(ctx context.Context, key string) (State, error)
}

// Key builds the pair key "<postID>_<platform>" from a canonical platform.
func Key(postID string, platform entity.Platform) string {
	return fmt.Sprintf("%s_%s", postID, platform)
}

func newAttempt(key string) Attempt {
	return Attempt{Key: key, Token: uuid.NewString()}
}
