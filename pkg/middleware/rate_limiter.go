package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// RateLimiterConfig limits request rates per client IP.
//
// Rate uses the limiter format, e.g. "100-M" (100/minute) or "10-S".
// SkipPaths are prefix-matched; the SOS start and track endpoints belong
// there; an emergency must never be throttled.
type RateLimiterConfig struct {
	Rate      string   `json:"rate"`
	SkipPaths []string `json:"skip_paths"`
}

// RateLimiter builds the gin middleware backed by an in-memory store.
func RateLimiter(cfg RateLimiterConfig) (gin.HandlerFunc, error) {
	rate, err := limiter.NewRateFromFormatted(cfg.Rate)
	if err != nil {
		return nil, err
	}
	lim := limiter.New(memory.NewStore(), rate)

	return func(c *gin.Context) {
		for _, p := range cfg.SkipPaths {
			if strings.HasPrefix(c.Request.URL.Path, p) {
				c.Next()
				return
			}
		}
		lctx, err := lim.Get(c.Request.Context(), c.ClientIP())
		if err != nil {
			c.Next() // limiter trouble must not take the API down
			return
		}
		if lctx.Reached {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}, nil
}
