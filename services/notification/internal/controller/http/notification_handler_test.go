package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"social-scheduler/pkg/jwt"
	"social-scheduler/pkg/logger"
	"social-scheduler/pkg/queue"
	"social-scheduler/services/notification/internal/entity"
	"social-scheduler/services/notification/internal/usecase"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockNotificationUseCase is a mock implementation of NotificationUseCase
type MockNotificationUseCase struct {
	mock.Mock
}

func (m *MockNotificationUseCase) SendNotification(ctx context.Context, notification *entity.Notification) error {
	args := m.Called(ctx, notification)
	return args.Error(0)
}

func (m *MockNotificationUseCase) GetNotifications(ctx context.Context, userID string, limit, offset int) ([]entity.Notification, int64, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]entity.Notification), args.Get(1).(int64), args.Error(2)
}

func (m *MockNotificationUseCase) DeleteNotificationByPostID(ctx context.Context, userID, postID string) (int, error) {
	args := m.Called(ctx, userID, postID)
	return args.Int(0), args.Error(1)
}

func (m *MockNotificationUseCase) Subscribe(ctx context.Context, userID string) (*usecase.Subscription, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.Subscription), args.Error(1)
}

func (m *MockNotificationUseCase) HandleTask(ctx context.Context, task queue.Task) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

const testSecret = "test-secret"

func setupNotificationTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func withUser(userID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID != "" {
			c.Set("user_id", userID)
		}
		c.Next()
	}
}

func routerFor(handler *NotificationHandler, userID string) *gin.Engine {
	router := setupNotificationTestRouter()
	router.Use(withUser(userID))
	router.GET("/notifications", handler.GetNotifications)
	router.DELETE("/notifications/:post_id", handler.DeleteNotificationByPostID)
	router.GET("/notifications/ws", handler.HandleWebSocket)
	return router
}

func TestGetNotifications_Unauthorized(t *testing.T) {
	handler := NewNotificationHandler(new(MockNotificationUseCase), logger.Discard(), jwt.NewService(testSecret))
	router := routerFor(handler, "")

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/notifications", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Contains(t, response["error"], "Unauthorized")
}

func TestGetNotifications_Success(t *testing.T) {
	uc := new(MockNotificationUseCase)
	handler := NewNotificationHandler(uc, logger.Discard(), jwt.NewService(testSecret))
	router := routerFor(handler, "u1")

	notifications := []entity.Notification{
		{UserID: "u1", Title: "Retry succeeded", Type: queue.TaskRetrySucceeded, Data: map[string]string{"post_id": "p1"}},
	}
	uc.On("GetNotifications", mock.Anything, "u1", 10, 5).Return(notifications, int64(6), nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/notifications?limit=10&offset=5", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Notifications []entity.Notification `json:"notifications"`
		Count         int                   `json:"count"`
		Total         int64                 `json:"total"`
		Offset        int                   `json:"offset"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, 1, response.Count)
	assert.Equal(t, int64(6), response.Total)
	assert.Equal(t, 5, response.Offset)
	assert.Equal(t, "p1", response.Notifications[0].PostID())
	uc.AssertExpectations(t)
}

func TestGetNotifications_InvalidPagingFallsBack(t *testing.T) {
	uc := new(MockNotificationUseCase)
	handler := NewNotificationHandler(uc, logger.Discard(), jwt.NewService(testSecret))
	router := routerFor(handler, "u1")

	uc.On("GetNotifications", mock.Anything, "u1", 50, 0).Return([]entity.Notification{}, int64(0), nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/notifications?limit=500&offset=-1", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	uc.AssertExpectations(t)
}

func TestGetNotifications_StoreError(t *testing.T) {
	uc := new(MockNotificationUseCase)
	handler := NewNotificationHandler(uc, logger.Discard(), jwt.NewService(testSecret))
	router := routerFor(handler, "u1")

	uc.On("GetNotifications", mock.Anything, "u1", 50, 0).Return(nil, int64(0), errors.New("redis down"))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/notifications", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "redis down")
}

func TestDeleteNotificationByPostID(t *testing.T) {
	uc := new(MockNotificationUseCase)
	handler := NewNotificationHandler(uc, logger.Discard(), jwt.NewService(testSecret))
	router := routerFor(handler, "u1")

	uc.On("DeleteNotificationByPostID", mock.Anything, "u1", "p1").Return(2, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("DELETE", "/notifications/p1", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Notification deleted","deleted":2}`, w.Body.String())
}

func TestDeleteNotificationByPostID_Unauthorized(t *testing.T) {
	uc := new(MockNotificationUseCase)
	handler := NewNotificationHandler(uc, logger.Discard(), jwt.NewService(testSecret))
	router := routerFor(handler, "")

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("DELETE", "/notifications/p1", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	uc.AssertNotCalled(t, "DeleteNotificationByPostID", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleWebSocket_TokenRequired(t *testing.T) {
	handler := NewNotificationHandler(new(MockNotificationUseCase), logger.Discard(), jwt.NewService(testSecret))
	router := routerFor(handler, "")

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/notifications/ws", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/notifications/ws?token=garbage", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHandleWebSocket_SubscribeFailure(t *testing.T) {
	uc := new(MockNotificationUseCase)
	handler := NewNotificationHandler(uc, logger.Discard(), jwt.NewService(testSecret))
	router := routerFor(handler, "u1")

	uc.On("Subscribe", mock.Anything, "u1").Return(nil, errors.New("redis down"))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/notifications/ws", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHandleWebSocket_StreamsNotifications(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	jwtService := jwt.NewService(testSecret)
	uc := usecase.NewNotificationUseCase(client, logger.Discard())
	handler := NewNotificationHandler(uc, logger.Discard(), jwtService)

	server := httptest.NewServer(routerFor(handler, ""))
	defer server.Close()

	token, err := jwtService.GenerateToken("u1", "user")
	require.NoError(t, err)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/notifications/ws?token=" + token
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)

	// The subscription is confirmed before the upgrade completes.
	require.NoError(t, uc.HandleTask(context.Background(), queue.Task{
		Type:     queue.TaskRetrySucceeded,
		UserID:   "u1",
		PostID:   "p1",
		Platform: "linkedin",
		URL:      "https://li/1",
	}))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	messageType, payload, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.TextMessage, messageType)

	var received entity.Notification
	require.NoError(t, json.Unmarshal(payload, &received))
	assert.Equal(t, "Your post is now live on LinkedIn.", received.Message)
	assert.Equal(t, "https://li/1", received.Data["url"])
}
