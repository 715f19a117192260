package response

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ContextKeyRequestID is the Gin context key the envelope metadata
// reads the request id from.
const ContextKeyRequestID = "request_id"

// RequestIDMiddleware stamps every request with an id and echoes it in
// the X-Request-ID response header. A caller-supplied id is kept so a
// frontend can correlate its own traces with server logs.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(ContextKeyRequestID, id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}
