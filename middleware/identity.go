package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const userKey = "trainerd-user"

// UserIdentity extracts the caller's identity from the trusted header set by
// the auth proxy in front of the API, and rejects requests without it.
// Handlers read the identity back through UserFrom.
func UserIdentity(header string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := c.GetHeader(header)
		if user == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Missing " + header + " header",
			})
			return
		}
		c.Set(userKey, user)
		c.Next()
	}
}

// UserFrom returns the identity stored by UserIdentity, or "" when the
// middleware is not installed.
func UserFrom(c *gin.Context) string {
	return c.GetString(userKey)
}
