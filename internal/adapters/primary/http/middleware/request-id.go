package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"betting-model-service/internal/core/domain"
)

const headerRequestID = "X-Request-ID"

func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(headerRequestID)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		c.Set("request_id", requestID)
		c.Header(headerRequestID, requestID)

		// Thread the id through the request context so the audit trail can
		// correlate lifecycle mutations with requests.
		ctx := domain.WithRequestID(c.Request.Context(), requestID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
