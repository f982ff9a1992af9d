package webapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"social-scheduler/pkg/logger"
	"social-scheduler/services/calendar/internal/entity"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/circuitbreaker"
)

var (
	ErrMalformedResponse  = errors.New("malformed publish response")
	ErrPublishUnavailable = errors.New("publish endpoint unavailable")
)

type PublishRequest struct {
	UserID    string   `json:"userId"`
	Platforms []string `json:"platforms"`
	Content   string   `json:"content,omitempty"`
	MediaURL  string   `json:"mediaUrl,omitempty"`
	PostType  string   `json:"postType,omitempty"`
}

type publishResponse struct {
	Success bool                             `json:"success"`
	Results map[string]entity.PlatformResult `json:"results"`
}

// Publisher posts content to the social platforms through the publish API.
type Publisher interface {
	Publish(ctx context.Context, req PublishRequest) (*entity.PublishResult, error)
}

type PublishClient struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	executor   failsafe.Executor[*http.Response]
	logger     *logger.Logger
}

// DefaultTimeout bounds a publish call when no positive timeout is given.
const DefaultTimeout = 30 * time.Second

// NewPublishClient calls POST <baseURL>/publish. Every call is bounded by
// timeout and guarded by a circuit breaker. Calls are never retried
// automatically: a repeated publish would create duplicate social posts.
func NewPublishClient(baseURL string, timeout time.Duration, log *logger.Logger) *PublishClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	breaker := circuitbreaker.NewBuilder[*http.Response]().
		WithFailureThresholdRatio(5, 10).
		WithDelay(15 * time.Second).
		WithSuccessThreshold(1).
		HandleIf(func(resp *http.Response, err error) bool {
			if err != nil {
				return true
			}
			return resp != nil && resp.StatusCode >= 500
		}).
		OnStateChanged(func(event circuitbreaker.StateChangedEvent) {
			log.Warn("[PUBLISH] Circuit breaker %v -> %v", event.OldState, event.NewState)
		}).
		Build()

	return &PublishClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		timeout:    timeout,
		executor:   failsafe.With(breaker),
		logger:     log,
	}
}

// Timeout is the upper bound of one Publish call.
func (c *PublishClient) Timeout() time.Duration {
	return c.timeout
}

func (c *PublishClient) Publish(ctx context.Context, req PublishRequest) (*entity.PublishResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode publish request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.executor.WithContext(ctx).Get(func() (*http.Response, error) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/publish", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("Content-Type", "application/json")
		return c.httpClient.Do(httpReq)
	})
	if err != nil {
		if errors.Is(err, circuitbreaker.ErrOpen) {
			return nil, ErrPublishUnavailable
		}
		return nil, fmt.Errorf("publish request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read publish response: %w", err)
	}

	var decoded publishResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		if resp.StatusCode >= 300 {
			return nil, fmt.Errorf("publish endpoint returned status %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	c.logger.Debug("[PUBLISH] user=%s platforms=%v status=%d success=%t", req.UserID, req.Platforms, resp.StatusCode, decoded.Success)
	return toPublishResult(decoded), nil
}

// toPublishResult canonicalizes platform keys of the response.
func toPublishResult(resp publishResponse) *entity.PublishResult {
	result := &entity.PublishResult{
		Success: resp.Success,
		Results: make(map[entity.Platform]entity.PlatformResult, len(resp.Results)),
	}
	for key, r := range resp.Results {
		platform, _ := entity.NormalizePlatform(key)
		if existing, ok := result.Results[platform]; ok && existing.Succeeded() {
			continue
		}
		result.Results[platform] = r
	}
	return result
}
