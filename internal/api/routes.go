package api

import "github.com/gin-gonic/gin"

// NewRouter builds the gin engine serving the JSON API under /api/v1
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", h.Health)

		v1.POST("/posterior", h.UpdateAll)
		v1.POST("/posterior/:method", h.UpdateOne)
		v1.POST("/samples", h.Samples)
		v1.POST("/compare", h.Compare)

		v1.POST("/runs", h.CreateRun)
		v1.GET("/runs", h.ListRuns)
		v1.GET("/runs/:id", h.GetRun)
		if h.events != nil {
			v1.GET("/events", h.events.HandleSSE)
		}
	}

	return r
}
