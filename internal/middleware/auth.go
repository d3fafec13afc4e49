package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"supportchat/internal/auth"
	"supportchat/internal/config"
	"supportchat/pkg/contextkeys"
)

// AuthMiddleware validates the bearer token and stores the identity in the
// gin context. Websocket upgrades may carry the token in a query parameter
// instead, since browsers cannot set headers on WebSocket handshakes.
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := ""

		authHeader := c.GetHeader("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			tokenStr = strings.TrimPrefix(authHeader, "Bearer ")
		} else {
			tokenStr = c.Query("token")
		}

		if tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header missing or invalid"})
			return
		}

		claims, err := auth.ParseToken(cfg, tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		c.Set(contextkeys.UserIDKey, claims.UserID)
		c.Set(contextkeys.UserName, claims.Name)
		c.Set(contextkeys.IsStaffKey, claims.IsStaff)
		c.Next()
	}
}

// StaffOnly rejects requests from non-staff identities.
func StaffOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		isStaff, exists := c.Get(contextkeys.IsStaffKey)
		if !exists {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access denied: no identity"})
			return
		}
		if staff, ok := isStaff.(bool); !ok || !staff {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access denied: staff only"})
			return
		}
		c.Next()
	}
}

// CurrentUserID reads the authenticated user id from the gin context.
func CurrentUserID(c *gin.Context) uint {
	if v, exists := c.Get(contextkeys.UserIDKey); exists {
		if id, ok := v.(uint); ok {
			return id
		}
	}
	return 0
}

// CurrentUserName reads the authenticated display name from the gin context.
func CurrentUserName(c *gin.Context) string {
	if v, exists := c.Get(contextkeys.UserName); exists {
		if name, ok := v.(string); ok {
			return name
		}
	}
	return ""
}

// CurrentIsStaff reports whether the authenticated identity is staff.
func CurrentIsStaff(c *gin.Context) bool {
	if v, exists := c.Get(contextkeys.IsStaffKey); exists {
		if staff, ok := v.(bool); ok {
			return staff
		}
	}
	return false
}
