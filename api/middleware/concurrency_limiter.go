package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/anoixa/dicom-portal/api/common"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"
)

// ConcurrencyLimiter 限制同时进行的上传数，避免大文件同时落盘或上传到对象存储
type ConcurrencyLimiter struct {
	sem *semaphore.Weighted
	max int64
}

// NewConcurrencyLimiter 并发限制器
func NewConcurrencyLimiter(maxConcurrency int64) *ConcurrencyLimiter {
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}
	return &ConcurrencyLimiter{
		sem: semaphore.NewWeighted(maxConcurrency),
		max: maxConcurrency,
	}
}

// Middleware 无空位时立即返回 503
func (cl *ConcurrencyLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cl.sem.TryAcquire(1) {
			cl.reject(c, 0)
			return
		}
		defer cl.sem.Release(1)

		c.Next()
	}
}

// MiddlewareWithBlock 最多排队 timeout，超时返回 503
func (cl *ConcurrencyLimiter) MiddlewareWithBlock(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		if err := cl.sem.Acquire(ctx, 1); err != nil {
			cl.reject(c, time.Since(start))
			return
		}
		defer cl.sem.Release(1)

		c.Next()
	}
}

func (cl *ConcurrencyLimiter) reject(c *gin.Context, waited time.Duration) {
	log.Warn().
		Str("request_id", c.GetString(common.RequestIDKey)).
		Int64("max_concurrency", cl.max).
		Dur("waited", waited).
		Msg("upload rejected, too many concurrent uploads")

	c.Header("Retry-After", "5")
	common.RespondErrorAbort(c, http.StatusServiceUnavailable, "Too many uploads in progress, please try again later")
}
