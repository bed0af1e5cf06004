package api

import (
	"ecomindsx/internal/infrastructure/logging"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader は、リクエストIDを受け渡すヘッダー名です
const RequestIDHeader = "X-Request-ID"

// requestIDMiddleware は、リクエストIDを引き継ぐか新たに採番します
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(logging.RequestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}
