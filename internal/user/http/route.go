package http

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all user-related routes (including Auth).
func RegisterRoutes(g *gin.RouterGroup, h *UserHandler, authMiddleware, adminMiddleware gin.HandlerFunc) {
	// Public Routes
	authGroup := g.Group("/auth")
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
	}

	// Authenticated Routes
	meGroup := g.Group("/me")
	meGroup.Use(authMiddleware)
	{
		meGroup.GET("", h.Me)
		meGroup.PATCH("", h.UpdateMe)
		meGroup.POST("/avatar", h.UploadAvatar)
	}

	// Admin Routes
	usersGroup := g.Group("/users")
	usersGroup.Use(authMiddleware, adminMiddleware)
	{
		usersGroup.GET("", h.List)
		usersGroup.GET("/:id", h.Get)
		usersGroup.POST("/:id/approve", h.Approve)
		usersGroup.POST("/:id/reject", h.Reject)
		usersGroup.POST("/:id/promote", h.Promote)
		usersGroup.POST("/:id/revoke", h.Revoke)
		usersGroup.DELETE("/:id", h.Delete)
	}
}
