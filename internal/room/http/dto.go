package http

import (
	"time"

	"github.com/nekogravitycat/smartroom-backend/internal/file"
	"github.com/nekogravitycat/smartroom-backend/internal/pkg/request"
	"github.com/nekogravitycat/smartroom-backend/internal/room"
)

type ListRoomsRequest struct {
	request.ListParams
	LocationType string `form:"location_type" binding:"omitempty,oneof=PRISON YAMAR"`
	IsAvailable  *bool  `form:"is_available"`
	Search       string `form:"q"`
	SortBy       string `form:"sort_by" binding:"omitempty,oneof=name capacity created_at"`
}

type RoomResponse struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Capacity     int               `json:"capacity"`
	Equipment    []string          `json:"equipment"`
	ImageURL     *string           `json:"image_url"`
	ThumbnailURL *string           `json:"thumbnail_url"`
	Description  string            `json:"description"`
	LocationType room.LocationType `json:"location_type"`
	IsAvailable  bool              `json:"is_available"`
	IsRecorded   bool              `json:"is_recorded"`
	CreatedAt    time.Time         `json:"created_at"`
}

func NewResponse(r *room.Room) RoomResponse {
	var thumb *string
	if r.ImageFileID != nil {
		t := file.ThumbnailURL(*r.ImageFileID)
		thumb = &t
	}
	equipment := r.Equipment
	if equipment == nil {
		equipment = []string{}
	}

	return RoomResponse{
		ID:           r.ID,
		Name:         r.Name,
		Capacity:     r.Capacity,
		Equipment:    equipment,
		ImageURL:     file.OptionalURL(r.ImageFileID),
		ThumbnailURL: thumb,
		Description:  r.Description,
		LocationType: r.LocationType,
		IsAvailable:  r.IsAvailable,
		IsRecorded:   r.IsRecorded,
		CreatedAt:    r.CreatedAt,
	}
}

type CreateRequest struct {
	Name         string   `json:"name" binding:"required,max=100"`
	Capacity     int      `json:"capacity" binding:"min=0,max=1000"`
	Equipment    []string `json:"equipment" binding:"omitempty,max=50,dive,max=100"`
	Description  string   `json:"description" binding:"max=2000"`
	LocationType string   `json:"location_type" binding:"required,oneof=PRISON YAMAR"`
	IsAvailable  *bool    `json:"is_available"`
	IsRecorded   bool     `json:"is_recorded"`
}

type UpdateRequest struct {
	Name         *string   `json:"name" binding:"omitempty,max=100"`
	Capacity     *int      `json:"capacity" binding:"omitempty,min=0,max=1000"`
	Equipment    *[]string `json:"equipment" binding:"omitempty,max=50,dive,max=100"`
	Description  *string   `json:"description" binding:"omitempty,max=2000"`
	LocationType *string   `json:"location_type" binding:"omitempty,oneof=PRISON YAMAR"`
	IsAvailable  *bool     `json:"is_available"`
	IsRecorded   *bool     `json:"is_recorded"`
}
