package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"streetfood-backend/internal/shared/server/respond"
	"streetfood-backend/internal/shared/telemetry"
)

// Recovery turns a handler panic into the standard error envelope. The
// request id is echoed in details so a report can be matched to the log line.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			reqID := RequestIDFromContext(c)
			fields := map[string]any{
				"request_id": reqID,
				"error":      fmt.Sprint(rec),
				"stack":      string(debug.Stack()),
				"method":     c.Request.Method,
				"path":       c.Request.URL.Path,
				"route":      c.FullPath(),
			}
			if area := c.GetString("area"); area != "" {
				fields["area"] = area
			}
			telemetry.Error("panic", fields)
			if c.Writer.Written() {
				c.Abort()
				return
			}
			respond.Error(c, http.StatusInternalServerError, "internal", "Unexpected server error",
				map[string]string{"request_id": reqID})
		}()
		c.Next()
	}
}
