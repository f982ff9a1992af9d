package retrystate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix      = "retry:"
	inFlightPrefix = "in_flight:"
	succeededTag   = "succeeded:"
	// DefaultInFlightTTL applies when NewRedisTracker gets no in-flight TTL.
	DefaultInFlightTTL = 2 * time.Minute
)

// beginScript marks the key in flight unless it already is. A previous
// success is overwritten.
var beginScript = redis.NewScript(`
local current = redis.call("GET", KEYS[1])
if current and string.sub(current, 1, #ARGV[1]) == ARGV[1] then
	return 0
end
redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
return 1
`)

// finishScript replaces or deletes the marker only while it still belongs to
// the attempt. An empty ARGV[2] deletes; ARGV[3] is the TTL in ms, 0 for none.
var finishScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) ~= ARGV[1] then
	return 0
end
if ARGV[2] == "" then
	redis.call("DEL", KEYS[1])
elseif tonumber(ARGV[3]) > 0 then
	redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
else
	redis.call("SET", KEYS[1], ARGV[2])
end
return 1
`)

// RedisTracker shares retry state between calendar replicas.
type RedisTracker struct {
	client      *redis.Client
	inFlightTTL time.Duration
	ttl         time.Duration
}

// NewRedisTracker expires in-flight markers after inFlightTTL, which must
// outlast the publish call they guard, and keeps succeeded markers for ttl;
// a zero ttl means no expiry.
func NewRedisTracker(client *redis.Client, inFlightTTL, ttl time.Duration) *RedisTracker {
	if inFlightTTL <= 0 {
		inFlightTTL = DefaultInFlightTTL
	}
	return &RedisTracker{client: client, inFlightTTL: inFlightTTL, ttl: ttl}
}

func (t *RedisTracker) Begin(ctx context.Context, key string) (Attempt, error) {
	attempt := newAttempt(key)
	acquired, err := beginScript.Run(ctx, t.client, []string{keyPrefix + key},
		inFlightPrefix, inFlightPrefix+attempt.Token, t.inFlightTTL.Milliseconds()).Int()
	if err != nil {
		return Attempt{}, fmt.Errorf("failed to mark retry in flight: %w", err)
	}
	if acquired == 0 {
		return Attempt{}, ErrInFlight
	}
	return attempt, nil
}

func (t *RedisTracker) Succeed(ctx context.Context, attempt Attempt, url string) error {
	if err := t.finish(ctx, attempt, succeededTag+url, t.ttl); err != nil {
		return fmt.Errorf("failed to store retry success: %w", err)
	}
	return nil
}

func (t *RedisTracker) Reset(ctx context.Context, attempt Attempt) error {
	if err := t.finish(ctx, attempt, "", 0); err != nil {
		return fmt.Errorf("failed to reset retry state: %w", err)
	}
	return nil
}

func (t *RedisTracker) finish(ctx context.Context, attempt Attempt, value string, ttl time.Duration) error {
	swapped, err := finishScript.Run(ctx, t.client, []string{keyPrefix + attempt.Key},
		inFlightPrefix+attempt.Token, value, ttl.Milliseconds()).Int()
	if err != nil {
		return err
	}
	if swapped == 0 {
		return ErrSuperseded
	}
	return nil
}

func (t *RedisTracker) Get(ctx context.Context, key string) (State, error) {
	value, err := t.client.Get(ctx, keyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return State{Phase: PhaseIdle}, nil
	}
	if err != nil {
		return State{}, fmt.Errorf("failed to read retry state: %w", err)
	}
	return parseState(value), nil
}

func parseState(value string) State {
	if strings.HasPrefix(value, inFlightPrefix) {
		return State{Phase: PhaseInFlight}
	}
	if url, ok := strings.CutPrefix(value, succeededTag); ok {
		return State{Phase: PhaseSucceeded, URL: url}
	}
	return State{Phase: PhaseIdle}
}
