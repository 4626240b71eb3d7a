package http

import "github.com/gin-gonic/gin"

// RegisterRoutes registers blob download routes. HEAD is served alongside GET
// so video players can check size and range support before streaming.
func RegisterRoutes(g gin.IRouter, h *Handler, authMiddleware gin.HandlerFunc) {
	files := g.Group("/files", authMiddleware)
	{
		files.GET("/:id", h.ServeFile)
		files.HEAD("/:id", h.ServeFile)
		files.GET("/:id/thumbnail", h.ServeThumbnail)
	}
}
