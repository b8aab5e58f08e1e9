package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mindharbor/wellness-platform/internal/auth"
	"github.com/mindharbor/wellness-platform/internal/common"
)

const UserIDKey = "user_id"

// AuthRequired validates the bearer token and stores the user id in the
// gin context. Browsers cannot set headers on websocket dials, so a
// `token` query parameter is accepted as a fallback.
func AuthRequired(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := ""
		if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
			tokenStr = strings.TrimPrefix(h, "Bearer ")
		}
		if tokenStr == "" {
			tokenStr = c.Query("token")
		}
		if tokenStr == "" {
			common.Fail(c, http.StatusUnauthorized, 40101, "missing token")
			c.Abort()
			return
		}

		uid, err := auth.ParseJWT(tokenStr, secret)
		if err != nil {
			common.Fail(c, http.StatusUnauthorized, 40102, "invalid token")
			c.Abort()
			return
		}

		c.Set(UserIDKey, uid)
		c.Next()
	}
}
