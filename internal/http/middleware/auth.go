package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/atendezap/go-whats-backend/internal/domain"
	"github.com/atendezap/go-whats-backend/internal/services"
)

const (
	// operatorIDKey holds the authenticated operator's username in the Gin
	// context; operatorRoleKey holds their role.
	operatorIDKey   = "operatorID"
	operatorRoleKey = "operatorRole"
)

// RequireAuth validates the Bearer token on protected routes and stores the
// operator identity in the Gin context for logging and role checks.
func RequireAuth(auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			abortUnauthorized(c, "missing bearer token")
			return
		}

		claims, err := auth.ParseToken(strings.TrimSpace(token))
		if err != nil {
			abortUnauthorized(c, "invalid or expired token")
			return
		}

		c.Set(operatorIDKey, claims.Username)
		c.Set(operatorRoleKey, claims.Role)
		c.Next()
	}
}

// RequireAdmin allows only operators with the admin role through. Must run
// after RequireAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, _ := c.Get(operatorRoleKey)
		if asString(role) != domain.OperatorRoleAdmin {
			rid, _ := c.Get(requestIDKey)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"request_id": asString(rid),
				"code":       "forbidden",
				"message":    "admin role required",
			})
			return
		}
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, msg string) {
	rid, _ := c.Get(requestIDKey)
	c.Header("WWW-Authenticate", `Bearer realm="api"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"request_id": asString(rid),
		"code":       "unauthorized",
		"message":    msg,
	})
}
