package actions

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// Identify resolves the caller from the X-User-ID header set by the upstream
// gateway. The gateway terminates authentication, so the header is trusted.
func (actions *Actions) Identify() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("X-User-ID")
		if header != "" {
			userID, err := strconv.ParseUint(header, 10, 64)
			if err != nil {
				abortWithError(c, BadRequest, "Invalid user id header")
				return
			}
			c.Set("auth_user_id", userID)
		}
		c.Next()
	}
}

// RequireUser rejects requests that carry no caller identity
func (actions *Actions) RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := getUserID(c); !ok {
			abortWithError(c, Unauthorized, "Authentication required")
			return
		}
		c.Next()
	}
}
