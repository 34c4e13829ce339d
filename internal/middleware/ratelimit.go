package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimit meters requests with a token bucket. Applied to the AI-backed
// routes to protect the generative-AI quota; requestsPerMin is the refill
// rate, burst the bucket size. Single-user system, so one shared bucket.
func RateLimit(requestsPerMin float64, burst int) gin.HandlerFunc {
	limiter := rate.NewLimiter(rate.Limit(requestsPerMin/60.0), burst)

	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded, try again shortly",
			})
			return
		}
		c.Next()
	}
}
