package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/vaxdrive-console/pkg/response"
)

const cacheHitKey = "cache_hit"

// WithResponseMeta initialises response metadata storage. Envelopes written
// afterwards carry processing_time_ms.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(response.StartKey, time.Now())
		response.Meta(c)
		c.Next()
	}
}

// SetCacheHit records cache hit information for the current response.
func SetCacheHit(c *gin.Context, hit bool) {
	response.Meta(c)[cacheHitKey] = hit
}
