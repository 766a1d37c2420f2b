package routes

import (
	"piview/internal/supervisor/api/handler"
	"piview/pkg/middleware"

	"github.com/gin-gonic/gin"
)

func AddHealthRoutes(r *gin.Engine, handler handler.HealthHandler, m middleware.RateLimitMiddleware) {
	r.GET("/health", m.Limit(), handler.GetHealth())
	r.HEAD("/health", m.Limit(), handler.GetHealth())
	r.GET("/metrics", m.Limit(), handler.GetMetrics())
}
