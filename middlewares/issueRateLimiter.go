package middlewares

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// IssueWindow is the span the issue creation limit applies to.
const IssueWindow = 24 * time.Hour

// Counter is the subset of the redis client the limiter needs.
type Counter interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	TTL(ctx context.Context, key string) *redis.DurationCmd
}

// IssueRateLimiter allows each user limit issue creations per IssueWindow.
// It must run after AuthMiddleware.
func IssueRateLimiter(rdb Counter, queuePrefix string, limit int, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := ActorFrom(c)
		if actor == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
			c.Abort()
			return
		}

		ctx := c.Request.Context()

		// Create individual key for each user
		userKey := queuePrefix + ":" + strconv.FormatInt(actor.UserID, 10)

		// Increment user's count with TTL
		count, err := rdb.Incr(ctx, userKey).Result()
		if err != nil {
			log.Error().Err(err).Str("key", userKey).Msg("redis error incrementing count")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "redis error incrementing count"})
			c.Abort()
			return
		}

		// A key without an expiry is new, or an earlier Expire failed
		ttl, err := rdb.TTL(ctx, userKey).Result()
		if err != nil {
			log.Error().Err(err).Str("key", userKey).Msg("redis error reading TTL")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "redis error reading TTL"})
			c.Abort()
			return
		}
		if ttl < 0 {
			if err := rdb.Expire(ctx, userKey, IssueWindow).Err(); err != nil {
				log.Error().Err(err).Str("key", userKey).Msg("redis error setting TTL")
				c.JSON(http.StatusInternalServerError, gin.H{"error": "redis error setting TTL"})
				c.Abort()
				return
			}
			ttl = IssueWindow
		}

		if count > int64(limit) {
			log.Warn().Int64("user_id", actor.UserID).Int64("count", count).Msg("issue rate limit exceeded")
			c.Header("Retry-After", strconv.Itoa(int(ttl.Seconds())))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"retry_after": ttl.Seconds(),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
