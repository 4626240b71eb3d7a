package http

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/smartroom-backend/internal/auth"
	"github.com/nekogravitycat/smartroom-backend/internal/booking"
	"github.com/nekogravitycat/smartroom-backend/internal/file"
	fileHttp "github.com/nekogravitycat/smartroom-backend/internal/file/http"
	"github.com/nekogravitycat/smartroom-backend/internal/pkg/request"
	"github.com/nekogravitycat/smartroom-backend/internal/pkg/response"
	roomHttp "github.com/nekogravitycat/smartroom-backend/internal/room/http"
)

type Handler struct {
	service      booking.Service
	fileHandler  *fileHttp.Handler
	maxVideoSize int64
}

func NewHandler(service booking.Service, fileHandler *fileHttp.Handler, maxVideoSize int64) *Handler {
	return &Handler{
		service:      service,
		fileHandler:  fileHandler,
		maxVideoSize: maxVideoSize,
	}
}

func actorOf(c *gin.Context) booking.Actor {
	return booking.Actor{UserID: auth.GetUserID(c), IsAdmin: auth.IsAdmin(c)}
}

func (h *Handler) response(b *booking.Booking) BookingResponse {
	return NewBookingResponse(b, h.service.DeletePending(b.ID))
}

func (h *Handler) bookingResponses(bookings []*booking.Booking) []BookingResponse {
	items := make([]BookingResponse, len(bookings))
	for i, b := range bookings {
		items[i] = h.response(b)
	}
	return items
}

func (h *Handler) optionalResponse(b *booking.Booking) *BookingResponse {
	if b == nil {
		return nil
	}
	r := h.response(b)
	return &r
}

func (h *Handler) List(c *gin.Context) {
	var req ListBookingsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}
	if err := req.Validate(); err != nil {
		response.Error(c, err)
		return
	}

	filter := booking.Filter{
		UserID:    req.UserID,
		RoomID:    req.RoomID,
		Statuses:  req.statuses(),
		StartTime: req.StartTimeFrom,
		EndTime:   req.StartTimeTo,
		Page:      req.Page,
		PageSize:  req.PageSize,
		SortBy:    req.SortBy,
		SortOrder: req.Order(),
	}

	bookings, total, err := h.service.List(c.Request.Context(), filter, actorOf(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, response.NewPageResponse(h.bookingResponses(bookings), req.Page, req.PageSize, total))
}

func (h *Handler) Create(c *gin.Context) {
	var body CreateBookingRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	req := booking.CreateRequest{
		Actor:                actorOf(c),
		RoomID:               body.RoomID,
		Date:                 body.Date,
		StartClock:           body.StartTime,
		EndClock:             body.EndTime,
		Title:                body.Title,
		InvestigatorID:       body.InvestigatorID,
		SecondInvestigatorID: body.SecondInvestigatorID,
		InterrogatedName:     body.InterrogatedName,
		Offenses:             body.Offenses,
		Description:          body.Description,
		IsRecorded:           body.IsRecorded,
		PhoneNumber:          body.PhoneNumber,
	}
	if body.Type != "" {
		t := booking.Type(body.Type)
		req.Type = &t
	}

	b, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, h.response(b))
}

func (h *Handler) Get(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	b, err := h.service.GetByID(c.Request.Context(), uri.ID, actorOf(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, h.response(b))
}

func (h *Handler) Approve(c *gin.Context) {
	h.changeStatus(c, h.service.Approve)
}

func (h *Handler) Reject(c *gin.Context) {
	h.changeStatus(c, h.service.Reject)
}

func (h *Handler) Cancel(c *gin.Context) {
	h.changeStatus(c, h.service.Cancel)
}

func (h *Handler) changeStatus(c *gin.Context, fn func(context.Context, string, booking.Actor) (*booking.Booking, error)) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	b, err := fn(c.Request.Context(), uri.ID, actorOf(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, h.response(b))
}

// Checkout completes the booking in progress. The request carries the session video
// in the "video" form field; the upload is rolled back if the transition fails.
func (h *Handler) Checkout(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}
	actor := actorOf(c)

	// Fail fast before accepting a large upload.
	if err := h.service.CanCheckout(c.Request.Context(), uri.ID, actor); err != nil {
		response.Error(c, err)
		return
	}

	var updated *booking.Booking
	h.fileHandler.HandleFileUpload(c, fileHttp.FileUploadConfig{
		FormFieldName: "video",
		MaxSizeBytes:  h.maxVideoSize,
		AllowedTypes:  file.VideoTypes,
		AfterUpload: func(ctx context.Context, fileID string) error {
			b, err := h.service.Checkout(ctx, uri.ID, fileID, actor)
			updated = b
			return err
		},
		Respond: func(c *gin.Context, _ *file.File) {
			c.JSON(http.StatusOK, h.response(updated))
		},
	})
}

// ReplaceVideo swaps the video of a completed booking.
func (h *Handler) ReplaceVideo(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}
	actor := actorOf(c)

	var updated *booking.Booking
	h.fileHandler.HandleFileUpload(c, fileHttp.FileUploadConfig{
		FormFieldName: "video",
		MaxSizeBytes:  h.maxVideoSize,
		AllowedTypes:  file.VideoTypes,
		AfterUpload: func(ctx context.Context, fileID string) error {
			b, err := h.service.SetVideo(ctx, uri.ID, &fileID, actor)
			updated = b
			return err
		},
		Respond: func(c *gin.Context, _ *file.File) {
			c.JSON(http.StatusOK, h.response(updated))
		},
	})
}

func (h *Handler) RemoveVideo(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	b, err := h.service.SetVideo(c.Request.Context(), uri.ID, nil, actorOf(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, h.response(b))
}

// Delete schedules removal and answers 202 with the undo window.
func (h *Handler) Delete(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	p, err := h.service.Delete(c.Request.Context(), uri.ID, actorOf(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusAccepted, PendingDeleteResponse{ID: uri.ID, Token: p.Token, FireAt: p.FireAt})
}

func (h *Handler) UndoDelete(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	if err := h.service.Undo(c.Request.Context(), uri.ID, actorOf(c)); err != nil {
		response.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Checkouts is the gallery of recorded sessions.
func (h *Handler) Checkouts(c *gin.Context) {
	bookings, err := h.service.Checkouts(c.Request.Context(), actorOf(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	items := h.bookingResponses(bookings)
	c.JSON(http.StatusOK, response.NewListResponse(items))
}

func (h *Handler) Summary(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}
	ctx := c.Request.Context()

	b, err := h.service.GetByID(ctx, uri.ID, actorOf(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	names, err := h.service.RoomNames(ctx)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, SummaryResponse{
		ID:   b.ID,
		Text: booking.Summary(b, names[b.RoomID], h.service.Location()),
	})
}

// Export downloads every booking matching the list filters as CSV.
func (h *Handler) Export(c *gin.Context) {
	var req ListBookingsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}
	if err := req.Validate(); err != nil {
		response.Error(c, err)
		return
	}
	ctx := c.Request.Context()

	bookings, _, err := h.service.List(ctx, booking.Filter{
		UserID:    req.UserID,
		RoomID:    req.RoomID,
		Statuses:  req.statuses(),
		StartTime: req.StartTimeFrom,
		EndTime:   req.StartTimeTo,
		SortBy:    "start_time",
		SortOrder: "ASC",
	}, actorOf(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	names, err := h.service.RoomNames(ctx)
	if err != nil {
		response.Error(c, err)
		return
	}

	var buf bytes.Buffer
	if err := booking.WriteCSV(&buf, bookings, names, h.service.Location()); err != nil {
		response.Error(c, err)
		return
	}

	filename := fmt.Sprintf("bookings-%s.csv", h.service.Now().In(h.service.Location()).Format("2006-01-02"))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func (h *Handler) Timeline(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}
	var q DateRequest
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}

	tl, err := h.service.Timeline(c.Request.Context(), uri.ID, q.Date)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, h.newTimelineResponse(tl))
}

func (h *Handler) Daily(c *gin.Context) {
	var q DateRequest
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}

	days, err := h.service.Daily(c.Request.Context(), q.Date)
	if err != nil {
		response.Error(c, err)
		return
	}

	rooms := make([]RoomDayResponse, len(days))
	for i, d := range days {
		rooms[i] = RoomDayResponse{
			Room:     roomHttp.NewResponse(d.Room),
			Current:  h.optionalResponse(d.Current),
			Reserved: h.optionalResponse(d.Reserved),
			Timeline: h.newTimelineResponse(d.Timeline),
		}
	}

	c.JSON(http.StatusOK, DailyScheduleResponse{
		Date:           q.Date,
		AvailableRooms: booking.ScheduleAvailability(days),
		Rooms:          rooms,
	})
}

func (h *Handler) Month(c *gin.Context) {
	var q MonthRequest
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}
	m, err := time.Parse("2006-01", q.Month)
	if err != nil {
		response.BadRequest(c, "invalid month", err)
		return
	}

	days, err := h.service.Month(c.Request.Context(), m.Year(), m.Month())
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]DayAvailabilityResponse, len(days))
	for i, d := range days {
		items[i] = DayAvailabilityResponse{Date: d.Date, Available: d.Available, Total: d.Total}
	}
	c.JSON(http.StatusOK, items)
}
