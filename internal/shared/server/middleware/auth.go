package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"streetfood-backend/internal/shared/server/respond"
)

// AdminToken guards operator routes. With no token configured the routes are
// open in dev and disabled elsewhere.
func AdminToken(token, env string) gin.HandlerFunc {
	token = strings.TrimSpace(token)
	return func(c *gin.Context) {
		if token == "" {
			if env == "dev" {
				c.Next()
				return
			}
			respond.Error(c, http.StatusForbidden, "forbidden", "admin routes are disabled", nil)
			return
		}

		presented := strings.TrimSpace(c.GetHeader("X-Admin-Token"))
		if presented == "" {
			authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
			if strings.HasPrefix(authHeader, "Bearer ") {
				presented = strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
			}
		}
		if presented == "" || subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid admin token", nil)
			return
		}
		c.Next()
	}
}
