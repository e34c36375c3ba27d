package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const submissionWindow = 24 * time.Hour

type Counter interface {
	Incr(ctx context.Context, id string, window time.Duration) (int64, time.Duration, error)
}

// SubmissionLimit caps how many complaints one citizen may file per window. Other roles
// pass through. A nil counter or a non-positive limit disables the check.
func SubmissionLimit(counter Counter, limit int, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if counter == nil || limit <= 0 {
			c.Next()
			return
		}

		principal, ok := MustPrincipal(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
			return
		}
		if !principal.IsCitizen() {
			c.Next()
			return
		}

		count, ttl, err := counter.Incr(c.Request.Context(), principal.UserID.String(), submissionWindow)
		if err != nil {
			// the quota is advisory; a redis outage must not block filing
			log.Warn().Err(err).Str("user_id", principal.UserID.String()).Msg("submission limit check failed")
			c.Next()
			return
		}

		if count > int64(limit) {
			c.Header("Retry-After", formatSeconds(ttl))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"retry_after": int64(math.Ceil(ttl.Seconds())),
			})
			return
		}

		c.Next()
	}
}

func formatSeconds(d time.Duration) string {
	return strconv.FormatInt(int64(math.Ceil(d.Seconds())), 10)
}
