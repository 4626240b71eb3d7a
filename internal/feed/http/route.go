package http

import (
	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/smartroom-backend/internal/auth"
)

// RegisterRoutes registers the change stream.
func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware gin.HandlerFunc) {
	g.GET("/changes", auth.AcceptQueryToken(), authMiddleware, h.Stream) // EventSource passes ?access_token=
}
