package auth

import "github.com/gin-gonic/gin"

const (
	ctxUserID  = "userID"
	ctxIsAdmin = "isAdmin"

	ctxQueryToken = "acceptQueryToken"
)

// GetUserID returns the authenticated user's ID or empty string.
func GetUserID(c *gin.Context) string {
	if v, ok := c.Get(ctxUserID); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// SetUserID stores the authenticated user's ID on the request context.
func SetUserID(c *gin.Context, userID string) {
	c.Set(ctxUserID, userID)
}

// SetAdmin records the caller's role once it has been loaded from storage.
func SetAdmin(c *gin.Context, isAdmin bool) {
	c.Set(ctxIsAdmin, isAdmin)
}

// IsAdmin reports whether the authenticated user holds the ADMIN role.
func IsAdmin(c *gin.Context) bool {
	return c.GetBool(ctxIsAdmin)
}
