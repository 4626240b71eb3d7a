package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nekogravitycat/smartroom-backend/internal/auth"
	"github.com/nekogravitycat/smartroom-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/smartroom-backend/internal/user"
)

var errAccountGone = apperror.New(http.StatusUnauthorized, "account no longer exists")

// LoadUser resolves the token's account on every request, so role changes and
// revoked approvals take effect without waiting for the token to expire.
func LoadUser(userService user.Service) auth.UserLoader {
	return func(ctx context.Context, userID string) (bool, error) {
		u, err := userService.GetByID(ctx, userID)
		if err != nil {
			if errors.Is(err, user.ErrNotFound) {
				return false, errAccountGone
			}
			return false, err
		}
		if u.Status != user.StatusApproved {
			return false, user.ErrNotApproved
		}
		return u.IsAdmin(), nil
	}
}

// RequireAdmin ensures the authenticated user holds the ADMIN role.
// It MUST be used after auth.AuthRequired with LoadUser.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !auth.IsAdmin(c) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden: admin access required"})
			return
		}
		c.Next()
	}
}

// RequestLogger logs one line per request with a generated request id.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header("X-Request-ID", requestID)

		c.Next()

		fields := []zap.Field{
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if userID := auth.GetUserID(c); userID != "" {
			fields = append(fields, zap.String("user_id", userID))
		}

		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			logger.Error("request completed", fields...)
		case status >= http.StatusBadRequest:
			logger.Warn("request completed", fields...)
		default:
			logger.Info("request completed", fields...)
		}
	}
}
