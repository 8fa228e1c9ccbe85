package middlewares

import (
	"net/http"
	"strings"

	"citysnap-be/models"
	"citysnap-be/services"
	authUtils "citysnap-be/utils"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Context keys set by the auth middlewares.
const (
	UserIDKey = "user_id"
	RoleKey   = "role"
)

func bearer(c *gin.Context) string {
	authHeader := c.Request.Header.Get("Authorization")
	// Extracting token from "Bearer <token>" format
	if strings.HasPrefix(authHeader, "Bearer ") {
		return authHeader[7:]
	}
	return authHeader
}

// AuthMiddleware rejects requests without a valid token and stores the
// caller's id and role in the context.
func AuthMiddleware(secret string, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearer(c)
		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "No authorization token provided"})
			c.Abort()
			return
		}

		claims, err := authUtils.ParseToken(tokenString, secret)
		if err != nil {
			log.Debug().Err(err).Msg("token validation failed")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization token"})
			c.Abort()
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(RoleKey, claims.Role)
		c.Next()
	}
}

// OptionalAuth identifies the caller when a valid token is sent and lets
// anonymous requests through. An invalid token is treated as anonymous.
func OptionalAuth(secret string, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString := bearer(c); tokenString != "" {
			claims, err := authUtils.ParseToken(tokenString, secret)
			if err != nil {
				log.Debug().Err(err).Msg("ignoring invalid token on public route")
			} else {
				c.Set(UserIDKey, claims.UserID)
				c.Set(RoleKey, claims.Role)
			}
		}
		c.Next()
	}
}

// RequireRole lets through only callers holding one of roles. It must run
// after AuthMiddleware.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := ActorFrom(c)
		if actor == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
			c.Abort()
			return
		}
		for _, r := range roles {
			if actor.Role == r {
				c.Next()
				return
			}
		}
		c.JSON(http.StatusForbidden, gin.H{"error": "You are not authorized to perform this action"})
		c.Abort()
	}
}

// ActorFrom returns the authenticated caller, or nil for an anonymous one.
func ActorFrom(c *gin.Context) *services.Actor {
	rawID, ok := c.Get(UserIDKey)
	if !ok {
		return nil
	}
	id, ok := rawID.(int64)
	if !ok {
		return nil
	}
	role, _ := c.Get(RoleKey)
	r, _ := role.(models.Role)
	return &services.Actor{UserID: id, Role: r}
}
