package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oms/backend/internal/interfaces/http/dto"
)

// BodyLimit returns a middleware that limits request body size. Bulk
// purchase requests carry order id lists, so the limit has to leave
// headroom for the largest allowed batch.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			requestID := c.GetString("request_id")
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge,
				dto.NewErrorResponseWithRequestID("REQUEST_TOO_LARGE",
					"Request body exceeds maximum allowed size", requestID))
			return
		}

		// Wrap the body with a limited reader for streaming requests
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
