package http

import "github.com/gin-gonic/gin"

func RegisterRoutes(r *gin.RouterGroup, h *CalendarHandler) {
	r.GET("/posts", h.GetPosts)
	r.POST("/posts", h.SchedulePost)
	r.DELETE("/posts/:id", h.DeletePost)
	r.POST("/posts/:id/publish", h.PublishNow)
	r.POST("/posts/:id/retry", h.RetryPlatform)
	r.GET("/posts/:id/retry/:platform", h.GetRetryStatus)
	r.POST("/publish", h.PostNow)
	r.POST("/media", h.UploadMedia)

	r.GET("/calendar/:date", h.GetCalendarDay)
	r.GET("/calendar/:date/live", h.GetLivePosts)
	r.GET("/months/:year/:month/days", h.GetDaysWithPosts)
}
