package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"social-scheduler/pkg/logger"
	"social-scheduler/services/calendar/internal/entity"
	"social-scheduler/services/calendar/internal/usecase"

	"github.com/gin-gonic/gin"
)

const maxMediaSize = 10 << 20

type CalendarHandler struct {
	calendarUseCase usecase.CalendarUseCase
	retryUseCase    usecase.RetryUseCase
	logger          *logger.Logger
}

func NewCalendarHandler(calendarUseCase usecase.CalendarUseCase, retryUseCase usecase.RetryUseCase, logger *logger.Logger) *CalendarHandler {
	return &CalendarHandler{
		calendarUseCase: calendarUseCase,
		retryUseCase:    retryUseCase,
		logger:          logger,
	}
}

type SchedulePostRequest struct {
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Platforms   []string  `json:"platforms" binding:"required,min=1"`
	ScheduledAt time.Time `json:"scheduledAt" binding:"required"`
	MediaURL    string    `json:"mediaUrl"`
	PostType    string    `json:"postType"`
}

type PostNowRequest struct {
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	Platforms []string `json:"platforms" binding:"required,min=1"`
	MediaURL  string   `json:"mediaUrl"`
	PostType  string   `json:"postType"`
}

type RetryRequest struct {
	Platform string `json:"platform" binding:"required"`
	Source   string `json:"source"`
}

// GetPosts godoc
// @Summary      Fetch posts
// @Description  Both collections of the current user. A store failure yields empty lists.
// @Tags         posts
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  entity.Snapshot
// @Router       /posts [get]
func (h *CalendarHandler) GetPosts(c *gin.Context) {
	userID := c.GetString("user_id")
	c.JSON(http.StatusOK, h.calendarUseCase.FetchPosts(c.Request.Context(), userID))
}

// GetCalendarDay godoc
// @Summary      Posts of one day
// @Description  Upcoming scheduled posts and everything published on the given day
// @Tags         calendar
// @Produce      json
// @Security     BearerAuth
// @Param        date path string true "Day as YYYY-MM-DD"
// @Success      200  {object}  entity.CalendarDay
// @Failure      400  {object}  map[string]string
// @Router       /calendar/{date} [get]
func (h *CalendarHandler) GetCalendarDay(c *gin.Context) {
	date, err := entity.ParseDate(c.Param("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, h.calendarUseCase.Day(c.Request.Context(), c.GetString("user_id"), date))
}

// GetLivePosts godoc
// @Summary      Live posts of one day
// @Description  Published posts of the day, newest first, with their failed platforms
// @Tags         calendar
// @Produce      json
// @Security     BearerAuth
// @Param        date path string true "Day as YYYY-MM-DD"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Router       /calendar/{date}/live [get]
func (h *CalendarHandler) GetLivePosts(c *gin.Context) {
	date, err := entity.ParseDate(c.Param("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	live := h.calendarUseCase.LivePostsForDate(c.Request.Context(), c.GetString("user_id"), date)
	c.JSON(http.StatusOK, gin.H{
		"date": date.String(),
		"live": live,
	})
}

// GetDaysWithPosts godoc
// @Summary      Days with posts
// @Description  Days of the month holding at least one scheduled post
// @Tags         calendar
// @Produce      json
// @Security     BearerAuth
// @Param        year  path int true "Year"
// @Param        month path int true "Month (1-12)"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Router       /months/{year}/{month}/days [get]
func (h *CalendarHandler) GetDaysWithPosts(c *gin.Context) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil || year < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid year"})
		return
	}
	month, err := strconv.Atoi(c.Param("month"))
	if err != nil || month < 1 || month > 12 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid month"})
		return
	}

	days := h.calendarUseCase.DaysWithPosts(c.Request.Context(), c.GetString("user_id"), year, time.Month(month))
	c.JSON(http.StatusOK, gin.H{
		"year":  year,
		"month": month,
		"days":  days,
	})
}

// SchedulePost godoc
// @Summary      Schedule a post
// @Tags         posts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body SchedulePostRequest true "Post to schedule"
// @Success      201  {object}  entity.ScheduledPost
// @Failure      400  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /posts [post]
func (h *CalendarHandler) SchedulePost(c *gin.Context) {
	var req SchedulePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	post, err := h.calendarUseCase.Schedule(c.Request.Context(), c.GetString("user_id"), usecase.ScheduleInput{
		Title:       req.Title,
		Content:     req.Content,
		Platforms:   req.Platforms,
		ScheduledAt: req.ScheduledAt,
		MediaURL:    req.MediaURL,
		PostType:    req.PostType,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, post)
}

// DeletePost godoc
// @Summary      Delete a post
// @Tags         posts
// @Produce      json
// @Security     BearerAuth
// @Param        id     path  string true  "Post ID"
// @Param        source query string false "scheduledPosts (default) or livePosts"
// @Success      200  {object}  map[string]string
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /posts/{id} [delete]
func (h *CalendarHandler) DeletePost(c *gin.Context) {
	source, ok := entity.ParseSource(c.Query("source"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid source"})
		return
	}

	if err := h.calendarUseCase.DeletePost(c.Request.Context(), c.GetString("user_id"), c.Param("id"), source); err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Post deleted"})
}

// PublishNow godoc
// @Summary      Publish a scheduled post now
// @Tags         posts
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Post ID"
// @Success      200  {object}  entity.LivePost
// @Failure      404  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /posts/{id}/publish [post]
func (h *CalendarHandler) PublishNow(c *gin.Context) {
	live, err := h.calendarUseCase.PublishNow(c.Request.Context(), c.GetString("user_id"), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, live)
}

// PostNow godoc
// @Summary      Publish new content immediately
// @Tags         posts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body PostNowRequest true "Content to publish"
// @Success      201  {object}  entity.LivePost
// @Failure      400  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /publish [post]
func (h *CalendarHandler) PostNow(c *gin.Context) {
	var req PostNowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	live, err := h.calendarUseCase.PostNow(c.Request.Context(), c.GetString("user_id"), usecase.PostInput{
		Title:     req.Title,
		Content:   req.Content,
		Platforms: req.Platforms,
		MediaURL:  req.MediaURL,
		PostType:  req.PostType,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, live)
}

// UploadMedia godoc
// @Summary      Upload media
// @Description  Stores an image and returns the URL to use as mediaUrl
// @Tags         media
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        file formData file true "Image file"
// @Success      201  {object}  map[string]string
// @Failure      400  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /media [post]
func (h *CalendarHandler) UploadMedia(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File is required"})
		return
	}
	if file.Size > maxMediaSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File exceeds 10MB"})
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read file"})
		return
	}
	defer src.Close()

	url, err := h.calendarUseCase.UploadMedia(c.Request.Context(), c.GetString("user_id"), file.Filename, file.Header.Get("Content-Type"), src)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"mediaUrl": url})
}

// RetryPlatform godoc
// @Summary      Retry one platform
// @Description  Republishes a post to a single platform and records the URL on success
// @Tags         retry
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path string       true "Post ID"
// @Param        request body RetryRequest true "Platform and source collection"
// @Success      200  {object}  usecase.RetryOutcome
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /posts/{id}/retry [post]
func (h *CalendarHandler) RetryPlatform(c *gin.Context) {
	var req RetryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	outcome, err := h.retryUseCase.Retry(c.Request.Context(), c.GetString("user_id"), usecase.RetryInput{
		PostID:   c.Param("id"),
		Platform: req.Platform,
		Source:   req.Source,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, outcome)
}

// GetRetryStatus godoc
// @Summary      Retry state
// @Description  idle, in_flight or succeeded with the URL
// @Tags         retry
// @Produce      json
// @Security     BearerAuth
// @Param        id       path string true "Post ID"
// @Param        platform path string true "Platform"
// @Success      200  {object}  retrystate.State
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /posts/{id}/retry/{platform} [get]
func (h *CalendarHandler) GetRetryStatus(c *gin.Context) {
	state, err := h.retryUseCase.RetryStatus(c.Request.Context(), c.GetString("user_id"), c.Param("id"), c.Param("platform"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, state)
}

func (h *CalendarHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, usecase.ErrPostNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, usecase.ErrRetryInProgress), errors.Is(err, usecase.ErrAlreadyPublished):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, usecase.ErrUnsupportedPlatform),
		errors.Is(err, usecase.ErrInvalidSource),
		errors.Is(err, usecase.ErrInvalidPost):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, usecase.ErrPublishFailed):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		h.logger.Error("[CALENDAR HANDLER] %s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
