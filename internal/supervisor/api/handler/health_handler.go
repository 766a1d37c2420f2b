package handler

import (
	"net/http"
	"time"

	"piview/internal/supervisor/model"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type SnapshotSource interface {
	Snapshot() model.HealthRecord
}

type HealthHandler interface {
	GetHealth() gin.HandlerFunc
	GetMetrics() gin.HandlerFunc
}

type healthHandler struct {
	source  SnapshotSource
	metrics http.Handler
	logger  *zap.Logger
}

// StatusCode maps a status to the HTTP code load balancers and probes act on.
func StatusCode(s model.Status) int {
	if s >= model.StatusFailing {
		return http.StatusServiceUnavailable
	}
	return http.StatusOK
}

func (h *healthHandler) GetHealth() gin.HandlerFunc {
	return func(c *gin.Context) {
		rec := h.source.Snapshot()
		code := StatusCode(rec.Status)
		if code != http.StatusOK {
			h.logger.Debug("health endpoint reporting unavailable",
				zap.String("status", rec.Status.String()),
				zap.String("client", c.ClientIP()),
			)
		}
		c.JSON(code, rec)
	}
}

func (h *healthHandler) GetMetrics() gin.HandlerFunc {
	return gin.WrapH(h.metrics)
}

func NewHealthHandler(source SnapshotSource, gatherer prometheus.Gatherer, logger *zap.Logger) HealthHandler {
	return &healthHandler{
		source: source,
		metrics: promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{
			ErrorLog:      zap.NewStdLog(logger),
			ErrorHandling: promhttp.ContinueOnError,
			Timeout:       5 * time.Second,
		}),
		logger: logger,
	}
}
