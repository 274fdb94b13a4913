package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// JSON writes payload with status. Answers depend on the knowledge document
// and the inference reply, so intermediaries must not cache them.
func JSON(c *gin.Context, status int, payload interface{}) {
	c.Header("Cache-Control", "no-store")
	c.JSON(status, payload)
}

// OK writes a 200 OK JSON response.
func OK(c *gin.Context, payload interface{}) {
	JSON(c, http.StatusOK, payload)
}

// Unavailable writes a 503 carrying a readiness report.
func Unavailable(c *gin.Context, payload interface{}) {
	c.Header("Retry-After", "30")
	JSON(c, http.StatusServiceUnavailable, payload)
}
