package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/smartroom-backend/internal/auth"
	"github.com/nekogravitycat/smartroom-backend/internal/booking"
	"github.com/nekogravitycat/smartroom-backend/internal/dashboard"
	"github.com/nekogravitycat/smartroom-backend/internal/pkg/response"
)

type StatsResponse struct {
	ApprovedBookings int `json:"approved_bookings"`
	PendingBookings  int `json:"pending_bookings"`
	ApprovedUsers    int `json:"approved_users"`
	PendingUsers     int `json:"pending_users"`
}

type Handler struct {
	service *dashboard.Service
}

func NewHandler(service *dashboard.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Stats(c *gin.Context) {
	actor := booking.Actor{UserID: auth.GetUserID(c), IsAdmin: auth.IsAdmin(c)}

	st, err := h.service.Stats(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, StatsResponse{
		ApprovedBookings: st.ApprovedBookings,
		PendingBookings:  st.PendingBookings,
		ApprovedUsers:    st.ApprovedUsers,
		PendingUsers:     st.PendingUsers,
	})
}

// RegisterRoutes registers admin dashboard routes.
func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware, adminMiddleware gin.HandlerFunc) {
	g.GET("/admin/stats", authMiddleware, adminMiddleware, h.Stats)
}
