package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type RateLimitMiddleware interface {
	Limit() gin.HandlerFunc
}

type rateLimitMiddleware struct {
	limiter *rate.Limiter
}

// Limit rejects requests above the shared rate with 429. One limiter serves
// every client: the endpoint is polled by a handful of monitors, and a
// misbehaving one must not starve the rest of the process.
func (m *rateLimitMiddleware) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !m.limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"message": "rate limit exceeded",
			})
			return
		}
		c.Next()
	}
}

// NewRateLimitMiddleware allows rps requests per second with a burst of
// twice that. A non-positive rps disables limiting.
func NewRateLimitMiddleware(rps int) RateLimitMiddleware {
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	return &rateLimitMiddleware{
		limiter: rate.NewLimiter(limit, 2*rps),
	}
}

type RequestObserver interface {
	Observe(method, path, status string, elapsed time.Duration)
}

// Observe reports every finished request to o, labelled with the route
// pattern rather than the raw path.
func Observe(o RequestObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		o.Observe(c.Request.Method, path, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
