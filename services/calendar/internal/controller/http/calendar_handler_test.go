package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"social-scheduler/pkg/logger"
	"social-scheduler/services/calendar/internal/entity"
	"social-scheduler/services/calendar/internal/retrystate"
	"social-scheduler/services/calendar/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockCalendarUseCase is a mock implementation of CalendarUseCase
type MockCalendarUseCase struct {
	mock.Mock
}

func (m *MockCalendarUseCase) FetchPosts(ctx context.Context, userID string) entity.Snapshot {
	args := m.Called(ctx, userID)
	return args.Get(0).(entity.Snapshot)
}

func (m *MockCalendarUseCase) PostsForDate(ctx context.Context, userID string, date entity.Date) entity.DayPosts {
	args := m.Called(ctx, userID, date)
	return args.Get(0).(entity.DayPosts)
}

func (m *MockCalendarUseCase) LivePostsForDate(ctx context.Context, userID string, date entity.Date) []entity.PostView {
	args := m.Called(ctx, userID, date)
	return args.Get(0).([]entity.PostView)
}

func (m *MockCalendarUseCase) Day(ctx context.Context, userID string, date entity.Date) entity.CalendarDay {
	args := m.Called(ctx, userID, date)
	return args.Get(0).(entity.CalendarDay)
}

func (m *MockCalendarUseCase) DaysWithPosts(ctx context.Context, userID string, year int, month time.Month) []int {
	args := m.Called(ctx, userID, year, month)
	return args.Get(0).([]int)
}

func (m *MockCalendarUseCase) Schedule(ctx context.Context, userID string, input usecase.ScheduleInput) (*entity.ScheduledPost, error) {
	args := m.Called(ctx, userID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ScheduledPost), args.Error(1)
}

func (m *MockCalendarUseCase) DeletePost(ctx context.Context, userID, postID string, source entity.Source) error {
	args := m.Called(ctx, userID, postID, source)
	return args.Error(0)
}

func (m *MockCalendarUseCase) PublishNow(ctx context.Context, userID, postID string) (*entity.LivePost, error) {
	args := m.Called(ctx, userID, postID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.LivePost), args.Error(1)
}

func (m *MockCalendarUseCase) PostNow(ctx context.Context, userID string, input usecase.PostInput) (*entity.LivePost, error) {
	args := m.Called(ctx, userID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.LivePost), args.Error(1)
}

func (m *MockCalendarUseCase) UploadMedia(ctx context.Context, userID, filename, contentType string, file io.Reader) (string, error) {
	args := m.Called(ctx, userID, filename, contentType, file)
	return args.String(0), args.Error(1)
}

// MockRetryUseCase is a mock implementation of RetryUseCase
type MockRetryUseCase struct {
	mock.Mock
}

func (m *MockRetryUseCase) Retry(ctx context.Context, userID string, input usecase.RetryInput) (*usecase.RetryOutcome, error) {
	args := m.Called(ctx, userID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.RetryOutcome), args.Error(1)
}

func (m *MockRetryUseCase) RetryStatus(ctx context.Context, userID, postID, platform string) (retrystate.State, error) {
	args := m.Called(ctx, userID, postID, platform)
	return args.Get(0).(retrystate.State), args.Error(1)
}

const testUser = "user-123"

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func setupHandler() (*gin.Engine, *MockCalendarUseCase, *MockRetryUseCase) {
	calendarUC := new(MockCalendarUseCase)
	retryUC := new(MockRetryUseCase)
	handler := NewCalendarHandler(calendarUC, retryUC, logger.Discard())

	router := setupTestRouter()
	router.Use(func(c *gin.Context) {
		c.Set("user_id", testUser)
		c.Next()
	})
	RegisterRoutes(router.Group(""), handler)
	return router, calendarUC, retryUC
}

func perform(router *gin.Engine, method, path string, body io.Reader) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	router.ServeHTTP(w, req)
	return w
}

func TestGetCalendarDay_Success(t *testing.T) {
	router, calendarUC, _ := setupHandler()
	date := entity.NewDate(2026, time.October, 17)
	published := time.Date(2026, time.October, 17, 10, 0, 0, 0, time.UTC)

	calendarUC.On("Day", mock.Anything, testUser, date).Return(entity.CalendarDay{
		Date:     "2026-10-17",
		Upcoming: []entity.PostView{},
		Live: []entity.PostView{{
			ID:              "p1",
			Source:          entity.SourceScheduledPosts,
			Platform:        entity.PlatformLinkedIn,
			PublishedAt:     &published,
			LinkedInURL:     "https://li/1",
			FailedPlatforms: []entity.Platform{entity.PlatformX},
		}},
	})

	w := perform(router, http.MethodGet, "/calendar/2026-10-17", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	live := response["live"].([]interface{})
	require.Len(t, live, 1)
	first := live[0].(map[string]interface{})
	assert.Equal(t, "https://li/1", first["linkedInUrl"])
	assert.Equal(t, []interface{}{"x"}, first["failedPlatforms"])
	calendarUC.AssertExpectations(t)
}

func TestGetCalendarDay_InvalidDate(t *testing.T) {
	router, calendarUC, _ := setupHandler()

	w := perform(router, http.MethodGet, "/calendar/17-10-2026", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	calendarUC.AssertNotCalled(t, "Day", mock.Anything, mock.Anything, mock.Anything)
}

func TestGetLivePosts(t *testing.T) {
	router, calendarUC, _ := setupHandler()
	date := entity.NewDate(2026, time.October, 17)
	calendarUC.On("LivePostsForDate", mock.Anything, testUser, date).Return([]entity.PostView{})

	w := perform(router, http.MethodGet, "/calendar/2026-10-17/live", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"date":"2026-10-17","live":[]}`, w.Body.String())
}

func TestGetDaysWithPosts(t *testing.T) {
	router, calendarUC, _ := setupHandler()
	calendarUC.On("DaysWithPosts", mock.Anything, testUser, 2026, time.October).Return([]int{3, 17})

	w := perform(router, http.MethodGet, "/months/2026/10/days", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"year":2026,"month":10,"days":[3,17]}`, w.Body.String())

	w = perform(router, http.MethodGet, "/months/2026/13/days", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetPosts(t *testing.T) {
	router, calendarUC, _ := setupHandler()
	calendarUC.On("FetchPosts", mock.Anything, testUser).Return(entity.Snapshot{
		Scheduled: []entity.ScheduledPost{},
		Live:      []entity.LivePost{},
	})

	w := perform(router, http.MethodGet, "/posts", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"scheduledPosts":[],"livePosts":[]}`, w.Body.String())
}

func TestSchedulePost(t *testing.T) {
	router, calendarUC, _ := setupHandler()
	at := time.Date(2026, time.October, 20, 9, 0, 0, 0, time.UTC)

	calendarUC.On("Schedule", mock.Anything, testUser, usecase.ScheduleInput{
		Content:     "hello",
		Platforms:   []string{"linkedin", "twitter"},
		ScheduledAt: at,
	}).Return(&entity.ScheduledPost{ID: "s1", Status: entity.StatusPending}, nil)

	body := `{"content":"hello","platforms":["linkedin","twitter"],"scheduledAt":"2026-10-20T09:00:00Z"}`
	w := perform(router, http.MethodPost, "/posts", bytes.NewBufferString(body))

	assert.Equal(t, http.StatusCreated, w.Code)
	calendarUC.AssertExpectations(t)
}

func TestSchedulePost_ValidationErrors(t *testing.T) {
	router, calendarUC, _ := setupHandler()

	w := perform(router, http.MethodPost, "/posts", bytes.NewBufferString(`{"content":"hello"}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	calendarUC.On("Schedule", mock.Anything, testUser, mock.Anything).
		Return(nil, fmt.Errorf("%w: %q", usecase.ErrUnsupportedPlatform, "myspace"))
	w = perform(router, http.MethodPost, "/posts", bytes.NewBufferString(`{"content":"x","platforms":["myspace"],"scheduledAt":"2026-10-20T09:00:00Z"}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeletePost(t *testing.T) {
	router, calendarUC, _ := setupHandler()
	calendarUC.On("DeletePost", mock.Anything, testUser, "l1", entity.SourceLivePosts).Return(nil)
	calendarUC.On("DeletePost", mock.Anything, testUser, "gone", entity.SourceScheduledPosts).Return(usecase.ErrPostNotFound)

	assert.Equal(t, http.StatusOK, perform(router, http.MethodDelete, "/posts/l1?source=livePosts", nil).Code)
	assert.Equal(t, http.StatusNotFound, perform(router, http.MethodDelete, "/posts/gone", nil).Code)
	assert.Equal(t, http.StatusBadRequest, perform(router, http.MethodDelete, "/posts/x?source=drafts", nil).Code)
	calendarUC.AssertExpectations(t)
}

func TestPublishNow(t *testing.T) {
	router, calendarUC, _ := setupHandler()
	calendarUC.On("PublishNow", mock.Anything, testUser, "s1").Return(&entity.LivePost{ID: "s1", LinkedInURL: "https://li/5"}, nil)
	calendarUC.On("PublishNow", mock.Anything, testUser, "s2").Return(nil, fmt.Errorf("%w: no platform accepted the post", usecase.ErrPublishFailed))
	calendarUC.On("PublishNow", mock.Anything, testUser, "p1").Return(nil, usecase.ErrAlreadyPublished)

	assert.Equal(t, http.StatusOK, perform(router, http.MethodPost, "/posts/s1/publish", nil).Code)
	assert.Equal(t, http.StatusBadGateway, perform(router, http.MethodPost, "/posts/s2/publish", nil).Code)
	assert.Equal(t, http.StatusConflict, perform(router, http.MethodPost, "/posts/p1/publish", nil).Code)
}

func TestPostNow(t *testing.T) {
	router, calendarUC, _ := setupHandler()
	calendarUC.On("PostNow", mock.Anything, testUser, usecase.PostInput{Content: "now", Platforms: []string{"x"}}).
		Return(&entity.LivePost{ID: "l9", TwitterURL: "https://x/9"}, nil)

	w := perform(router, http.MethodPost, "/publish", bytes.NewBufferString(`{"content":"now","platforms":["x"]}`))

	assert.Equal(t, http.StatusCreated, w.Code)
	calendarUC.AssertExpectations(t)
}

func TestUploadMedia(t *testing.T) {
	router, calendarUC, _ := setupHandler()
	calendarUC.On("UploadMedia", mock.Anything, testUser, "photo.png", mock.Anything, mock.Anything).
		Return("https://cdn/media/user-123/abc.png", nil)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "photo.png")
	require.NoError(t, err)
	part.Write([]byte("png-bytes"))
	writer.Close()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/media", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"mediaUrl":"https://cdn/media/user-123/abc.png"}`, w.Body.String())
}

func TestUploadMedia_MissingFile(t *testing.T) {
	router, _, _ := setupHandler()

	w := perform(router, http.MethodPost, "/media", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRetryPlatform_Success(t *testing.T) {
	router, _, retryUC := setupHandler()
	retryUC.On("Retry", mock.Anything, testUser, usecase.RetryInput{PostID: "p1", Platform: "twitter", Source: "scheduledPosts"}).
		Return(&usecase.RetryOutcome{PostID: "p1", Platform: entity.PlatformX, URL: "https://x/1"}, nil)

	w := perform(router, http.MethodPost, "/posts/p1/retry", bytes.NewBufferString(`{"platform":"twitter","source":"scheduledPosts"}`))

	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "https://x/1", response["url"])
	assert.Equal(t, "x", response["platform"])
	retryUC.AssertExpectations(t)
}

func TestRetryPlatform_ErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"in flight", usecase.ErrRetryInProgress, http.StatusConflict},
		{"publish failed", fmt.Errorf("%w: rejected", usecase.ErrPublishFailed), http.StatusBadGateway},
		{"not found", usecase.ErrPostNotFound, http.StatusNotFound},
		{"bad platform", usecase.ErrUnsupportedPlatform, http.StatusBadRequest},
		{"bad source", usecase.ErrInvalidSource, http.StatusBadRequest},
		{"unexpected", fmt.Errorf("db gone"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router, _, retryUC := setupHandler()
			retryUC.On("Retry", mock.Anything, testUser, mock.Anything).Return(nil, tc.err)

			w := perform(router, http.MethodPost, "/posts/p1/retry", bytes.NewBufferString(`{"platform":"x"}`))
			assert.Equal(t, tc.status, w.Code)
		})
	}
}

func TestRetryPlatform_MissingPlatform(t *testing.T) {
	router, _, retryUC := setupHandler()

	w := perform(router, http.MethodPost, "/posts/p1/retry", bytes.NewBufferString(`{}`))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	retryUC.AssertNotCalled(t, "Retry", mock.Anything, mock.Anything, mock.Anything)
}

func TestGetRetryStatus(t *testing.T) {
	router, _, retryUC := setupHandler()
	retryUC.On("RetryStatus", mock.Anything, testUser, "p1", "x").
		Return(retrystate.State{Phase: retrystate.PhaseSucceeded, URL: "https://x/1"}, nil)

	w := perform(router, http.MethodGet, "/posts/p1/retry/x", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"phase":"succeeded","url":"https://x/1"}`, w.Body.String())
}

func TestGetRetryStatus_NotOwner(t *testing.T) {
	router, _, retryUC := setupHandler()
	retryUC.On("RetryStatus", mock.Anything, testUser, "p9", "x").
		Return(retrystate.State{}, usecase.ErrPostNotFound)

	w := perform(router, http.MethodGet, "/posts/p9/retry/x", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NotContains(t, w.Body.String(), "phase")
}
