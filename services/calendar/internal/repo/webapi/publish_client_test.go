package webapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"social-scheduler/pkg/logger"
	"social-scheduler/services/calendar/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishClient_SendsSinglePlatformRequest(t *testing.T) {
	var got PublishRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/publish", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"results":{"twitter":{"status":"success","url":"https://x/1"}}}`))
	}))
	defer server.Close()

	client := NewPublishClient(server.URL+"/", time.Second, logger.Discard())
	result, err := client.Publish(context.Background(), PublishRequest{
		UserID:    "user-1",
		Platforms: []string{"x"},
		Content:   "hello",
		MediaURL:  "https://cdn/img.png",
		PostType:  "image",
	})
	require.NoError(t, err)

	assert.Equal(t, "user-1", got.UserID)
	assert.Equal(t, []string{"x"}, got.Platforms)
	assert.Equal(t, "https://cdn/img.png", got.MediaURL)

	assert.True(t, result.Success)
	assert.Equal(t, "https://x/1", result.URL(entity.PlatformX))
}

func TestPublishClient_ReportsPlatformFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"results":{"linkedin":{"status":"error","error":"token expired"}}}`))
	}))
	defer server.Close()

	result, err := NewPublishClient(server.URL, time.Second, logger.Discard()).
		Publish(context.Background(), PublishRequest{UserID: "u", Platforms: []string{"linkedin"}})
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Empty(t, result.URL(entity.PlatformLinkedIn))
	assert.Equal(t, "token expired", result.Results[entity.PlatformLinkedIn].Error)
}

func TestPublishClient_MalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>oops</html>`))
	}))
	defer server.Close()

	_, err := NewPublishClient(server.URL, time.Second, logger.Discard()).
		Publish(context.Background(), PublishRequest{UserID: "u", Platforms: []string{"x"}})
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestPublishClient_ServerErrorWithoutBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := NewPublishClient(server.URL, time.Second, logger.Discard()).
		Publish(context.Background(), PublishRequest{UserID: "u", Platforms: []string{"x"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestPublishClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	start := time.Now()
	_, err := NewPublishClient(server.URL, 50*time.Millisecond, logger.Discard()).
		Publish(context.Background(), PublishRequest{UserID: "u", Platforms: []string{"x"}})
	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestNewPublishClient_NonPositiveTimeoutIsBounded(t *testing.T) {
	assert.Equal(t, DefaultTimeout, NewPublishClient("http://publish", 0, logger.Discard()).Timeout())
	assert.Equal(t, DefaultTimeout, NewPublishClient("http://publish", -time.Second, logger.Discard()).Timeout())
	assert.Equal(t, time.Second, NewPublishClient("http://publish", time.Second, logger.Discard()).Timeout())
}

func TestPublishClient_CircuitOpensAfterRepeatedFailures(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewPublishClient(server.URL, time.Second, logger.Discard())
	var err error
	for i := 0; i < 15; i++ {
		_, err = client.Publish(context.Background(), PublishRequest{UserID: "u", Platforms: []string{"x"}})
	}

	assert.ErrorIs(t, err, ErrPublishUnavailable)
	assert.Less(t, calls.Load(), int32(15))
}

func TestToPublishResult_CanonicalizesKeys(t *testing.T) {
	result := toPublishResult(publishResponse{
		Success: true,
		Results: map[string]entity.PlatformResult{
			"LinkedIn": {Status: "success", URL: "https://li/1"},
			"Twitter":  {Status: "success", URL: "https://x/1"},
		},
	})

	assert.Equal(t, "https://li/1", result.URL(entity.PlatformLinkedIn))
	assert.Equal(t, "https://x/1", result.URL(entity.PlatformX))
}
