package http

import (
	"io"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/smartroom-backend/internal/feed"
)

const keepAliveInterval = 25 * time.Second

type Handler struct {
	hub *feed.Hub
}

func NewHandler(hub *feed.Hub) *Handler {
	return &Handler{hub: hub}
}

// Stream sends change events as Server-Sent Events until the client disconnects.
// The event name is the resource; the data is the JSON encoded event.
func (h *Handler) Stream(c *gin.Context) {
	sub := h.hub.Subscribe()
	defer h.hub.Unsubscribe(sub)

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.SSEvent("ready", gin.H{"channel": feed.Channel})
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case e, ok := <-sub.C:
			if !ok {
				return false
			}
			c.SSEvent(string(e.Resource), e)
			return true
		case <-ticker.C:
			c.SSEvent("ping", time.Now().Unix())
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
