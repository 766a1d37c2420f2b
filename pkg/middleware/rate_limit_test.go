package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestNewRateLimitMiddleware(t *testing.T) {
	m := NewRateLimitMiddleware(1)

	assert.NotNil(t, m)
	assert.Implements(t, (*RateLimitMiddleware)(nil), m)
}

func TestLimit(t *testing.T) {
	testCases := []struct {
		name        string
		rps         int
		requests    int
		expectedOK  int
		expected429 int
	}{
		{
			name:       "Within burst",
			rps:        5,
			requests:   10,
			expectedOK: 10,
		},
		{
			name:        "Over burst",
			rps:         1,
			requests:    5,
			expectedOK:  2,
			expected429: 3,
		},
		{
			name:       "Disabled",
			rps:        0,
			requests:   100,
			expectedOK: 100,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gin.SetMode(gin.TestMode)
			router := gin.New()
			router.GET("/test", NewRateLimitMiddleware(tc.rps).Limit(), func(ctx *gin.Context) {
				ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
			})

			counts := map[int]int{}
			for i := 0; i < tc.requests; i++ {
				w := httptest.NewRecorder()
				router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
				counts[w.Code]++
				if w.Code == http.StatusTooManyRequests {
					assert.JSONEq(t, `{"message":"rate limit exceeded"}`, w.Body.String())
				}
			}
			assert.Equal(t, tc.expectedOK, counts[http.StatusOK])
			assert.Equal(t, tc.expected429, counts[http.StatusTooManyRequests])
		})
	}
}

type observation struct {
	method, path, status string
}

type recordingObserver struct {
	mu  sync.Mutex
	obs []observation
}

func (r *recordingObserver) Observe(method, path, status string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.obs = append(r.obs, observation{method, path, status})
}

func TestObserve(t *testing.T) {
	gin.SetMode(gin.TestMode)
	o := &recordingObserver{}
	router := gin.New()
	router.Use(Observe(o))
	router.GET("/items/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for _, path := range []string{"/items/7", "/missing"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, []observation{
		{"GET", "/items/:id", "204"},
		{"GET", "unmatched", "404"},
	}, o.obs)
}
