package middleware

import (
	"net/http"
	"strings"

	"github.com/Domenick1991/travelbook/internal/auth"
	"github.com/gin-gonic/gin"
)

const (
	userIDKey = "user_id"
	emailKey  = "email"
	roleKey   = "role"
)

// JWTAuth rejects anonymous callers before they reach booking operations.
func JWTAuth(manager *auth.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if !strings.HasPrefix(h, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
			return
		}
		claims, err := manager.ParseToken(strings.TrimPrefix(h, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(userIDKey, claims.UserID)
		c.Set(emailKey, claims.Email)
		c.Set(roleKey, claims.Role)
		c.Next()
	}
}

func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		role, _ := c.Get(roleKey)
		name, _ := role.(string)
		if _, ok := allowed[name]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

// UserID returns the authenticated user id set by JWTAuth.
func UserID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(userIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}

// Email returns the authenticated user's email, when present.
func Email(c *gin.Context) string {
	v, ok := c.Get(emailKey)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}
