package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"attendbot/internal/attendance"
)

const callerKey = "caller"

// OwnerAuth enforces bearer JWT tokens signed with HS256 and stores the caller in the gin context.
func OwnerAuth(signingKey, issuer string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authz := c.GetHeader("Authorization")
		if authz == "" || !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		tokenStr := strings.TrimSpace(authz[len("bearer "):])
		claims, err := Parse(tokenStr, signingKey, issuer)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(callerKey, attendance.Caller{ID: claims.Subject, DisplayName: claims.Name})
		c.Next()
	}
}

// CallerFrom returns the caller stored by OwnerAuth.
func CallerFrom(c *gin.Context) (attendance.Caller, bool) {
	v, ok := c.Get(callerKey)
	if !ok {
		return attendance.Caller{}, false
	}
	caller, ok := v.(attendance.Caller)
	return caller, ok
}
