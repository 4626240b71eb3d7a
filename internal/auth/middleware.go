package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/smartroom-backend/internal/pkg/response"
)

// UserLoader resolves the account behind a verified token and reports whether it is an admin.
// Returning an error rejects the request with that error's status.
type UserLoader func(ctx context.Context, userID string) (isAdmin bool, err error)

// AuthRequired is a Gin middleware that validates JWT from Authorization: Bearer <token>.
// Routes that run AcceptQueryToken first also accept the access_token query parameter.
func AuthRequired(jwtManager *JWTManager, loaders ...UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "missing or malformed Authorization header",
			})
			return
		}

		claims, err := jwtManager.ParseAndValidate(tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid or expired token",
			})
			return
		}

		SetUserID(c, claims.UserID)

		for _, load := range loaders {
			isAdmin, err := load(c.Request.Context(), claims.UserID)
			if err != nil {
				response.Error(c, err)
				c.Abort()
				return
			}
			SetAdmin(c, isAdmin)
		}

		c.Next()
	}
}

// AcceptQueryToken lets the following AuthRequired read the token from the
// access_token query parameter. Browsers cannot attach headers to an EventSource,
// so only streaming routes should use it.
func AcceptQueryToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ctxQueryToken, true)
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		if q := c.Query("access_token"); q != "" && c.GetBool(ctxQueryToken) {
			return q, true
		}
		return "", false
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
