package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/smartroom-backend/internal/file"
	fileHttp "github.com/nekogravitycat/smartroom-backend/internal/file/http"
	"github.com/nekogravitycat/smartroom-backend/internal/pkg/request"
	"github.com/nekogravitycat/smartroom-backend/internal/pkg/response"
	"github.com/nekogravitycat/smartroom-backend/internal/room"
)

const maxRoomImageSize = 10 << 20

type Handler struct {
	service     room.Service
	fileHandler *fileHttp.Handler
}

func NewHandler(service room.Service, fileHandler *fileHttp.Handler) *Handler {
	return &Handler{
		service:     service,
		fileHandler: fileHandler,
	}
}

func (h *Handler) List(c *gin.Context) {
	var req ListRoomsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}

	filter := room.Filter{
		LocationType: room.LocationType(req.LocationType),
		IsAvailable:  req.IsAvailable,
		Search:       strings.TrimSpace(req.Search),
		Page:         req.Page,
		PageSize:     req.PageSize,
		SortBy:       req.SortBy,
		SortOrder:    req.Order(),
	}

	rooms, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]RoomResponse, len(rooms))
	for i, r := range rooms {
		items[i] = NewResponse(r)
	}

	c.JSON(http.StatusOK, response.NewPageResponse(items, req.Page, req.PageSize, total))
}

func (h *Handler) Create(c *gin.Context) {
	var body CreateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	// New rooms are bookable unless stated otherwise.
	isAvailable := true
	if body.IsAvailable != nil {
		isAvailable = *body.IsAvailable
	}

	res, err := h.service.Create(c.Request.Context(), room.CreateRequest{
		Name:         body.Name,
		Capacity:     body.Capacity,
		Equipment:    body.Equipment,
		Description:  body.Description,
		LocationType: room.LocationType(body.LocationType),
		IsAvailable:  isAvailable,
		IsRecorded:   body.IsRecorded,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, NewResponse(res))
}

func (h *Handler) Get(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	res, err := h.service.GetByID(c.Request.Context(), req.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewResponse(res))
}

func (h *Handler) Update(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	var body UpdateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	req := room.UpdateRequest{
		Name:        body.Name,
		Capacity:    body.Capacity,
		Equipment:   body.Equipment,
		Description: body.Description,
		IsAvailable: body.IsAvailable,
		IsRecorded:  body.IsRecorded,
	}
	if body.LocationType != nil {
		lt := room.LocationType(*body.LocationType)
		req.LocationType = &lt
	}

	res, err := h.service.Update(c.Request.Context(), uri.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewResponse(res))
}

// UploadImage replaces the room picture. The previous image file is left in place.
func (h *Handler) UploadImage(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	if _, err := h.service.GetByID(c.Request.Context(), uri.ID); err != nil {
		response.Error(c, err)
		return
	}

	var updated *room.Room
	h.fileHandler.HandleFileUpload(c, fileHttp.FileUploadConfig{
		FormFieldName: "image",
		MaxSizeBytes:  maxRoomImageSize,
		AllowedTypes:  file.ImageTypes,
		Thumbnail:     true,
		AfterUpload: func(ctx context.Context, fileID string) error {
			r, err := h.service.Update(ctx, uri.ID, room.UpdateRequest{ImageFileID: &fileID})
			updated = r
			return err
		},
		Respond: func(c *gin.Context, _ *file.File) {
			c.JSON(http.StatusOK, NewResponse(updated))
		},
	})
}

func (h *Handler) Delete(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	if err := h.service.Delete(c.Request.Context(), req.ID); err != nil {
		response.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
