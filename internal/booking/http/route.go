package http

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers booking and schedule routes.
func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware, adminMiddleware gin.HandlerFunc) {
	group := g.Group("/bookings")

	// === Authenticated Routes ===
	group.Use(authMiddleware)
	{
		group.GET("", h.List)                        // List bookings (own unless admin)
		group.POST("", h.Create)                     // Submit a booking request
		group.GET("/checkouts", h.Checkouts)         // Completed bookings with a video
		group.GET("/:id", h.Get)                     // Get booking details
		group.GET("/:id/summary", h.Summary)         // Plain-text booking sheet
		group.POST("/:id/cancel", h.Cancel)          // Cancel an approved booking
		group.POST("/:id/checkout", h.Checkout)      // Complete with session video
		group.DELETE("/:id", h.Delete)               // Schedule deletion
		group.POST("/:id/undo-delete", h.UndoDelete) // Abort a scheduled deletion
	}

	// === Admin Routes ===
	{
		group.GET("/export", adminMiddleware, h.Export)            // CSV export
		group.POST("/:id/approve", adminMiddleware, h.Approve)     // Approve a pending booking
		group.POST("/:id/reject", adminMiddleware, h.Reject)       // Reject a pending booking
		group.PUT("/:id/video", adminMiddleware, h.ReplaceVideo)   // Replace checkout video
		group.DELETE("/:id/video", adminMiddleware, h.RemoveVideo) // Remove checkout video
	}

	schedule := g.Group("/schedule")
	schedule.Use(authMiddleware)
	{
		schedule.GET("/daily", h.Daily) // Per-room timelines for a day
		schedule.GET("/month", h.Month) // Available room count per day
	}

	g.GET("/rooms/:id/timeline", authMiddleware, h.Timeline) // Hourly timeline of one room
}
