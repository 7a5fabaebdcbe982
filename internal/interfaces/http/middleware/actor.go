package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/oms/backend/internal/infrastructure/logger"
)

const (
	// ActorHeader carries the staff identity performing the request
	ActorHeader = "X-Actor"
	// ActorKey is the gin context key for the resolved actor
	ActorKey = "actor"
	// DefaultActor is recorded when no identity header is present
	DefaultActor = "api"
)

// Actor resolves the acting staff identity from the X-Actor header and
// stores it in the gin context and the request context, so downstream
// logging and audit fields can attribute the action.
func Actor() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := strings.TrimSpace(c.GetHeader(ActorHeader))
		if actor == "" {
			actor = DefaultActor
		}
		c.Set(ActorKey, actor)

		ctx, _ := logger.WithActor(c.Request.Context(), logger.GetGinLogger(c), actor)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// GetActor returns the actor resolved by the Actor middleware
func GetActor(c *gin.Context) string {
	if actor := c.GetString(ActorKey); actor != "" {
		return actor
	}
	return DefaultActor
}
