package http

import (
	"time"

	"github.com/nekogravitycat/smartroom-backend/internal/booking"
	"github.com/nekogravitycat/smartroom-backend/internal/file"
	"github.com/nekogravitycat/smartroom-backend/internal/pkg/request"
	roomHttp "github.com/nekogravitycat/smartroom-backend/internal/room/http"
)

// colorBuckets is the size of the client palette bookings are spread over.
const colorBuckets = 24

// ListBookingsRequest defines query parameters for listing bookings.
type ListBookingsRequest struct {
	request.ListParams
	RoomID        string     `form:"room_id" binding:"omitempty,uuid"`
	UserID        string     `form:"user_id" binding:"omitempty,uuid"`
	Status        []string   `form:"status" binding:"omitempty,dive,oneof=PENDING APPROVED REJECTED CANCELLED COMPLETED"`
	StartTimeFrom *time.Time `form:"start_time_from" time_format:"2006-01-02T15:04:05Z07:00"`
	StartTimeTo   *time.Time `form:"start_time_to" time_format:"2006-01-02T15:04:05Z07:00"`
	SortBy        string     `form:"sort_by" binding:"omitempty,oneof=start_time end_time created_at status"`
}

// Validate performs custom validation for ListBookingsRequest.
func (r *ListBookingsRequest) Validate() error {
	if r.StartTimeFrom != nil && r.StartTimeTo != nil {
		if r.StartTimeFrom.After(*r.StartTimeTo) {
			return booking.ErrInvalidTimeRange
		}
	}
	return nil
}

func (r *ListBookingsRequest) statuses() []booking.Status {
	out := make([]booking.Status, 0, len(r.Status))
	for _, s := range r.Status {
		out = append(out, booking.Status(s))
	}
	return out
}

type BookingResponse struct {
	ID                   string         `json:"id"`
	RoomID               string         `json:"room_id"`
	UserID               string         `json:"user_id"`
	UserName             string         `json:"user_name"`
	Title                string         `json:"title"`
	InvestigatorID       string         `json:"investigator_id"`
	SecondInvestigatorID string         `json:"second_investigator_id"`
	InterrogatedName     string         `json:"interrogated_name"`
	Offenses             string         `json:"offenses"`
	Type                 *booking.Type  `json:"type"`
	Description          string         `json:"description"`
	StartTime            time.Time      `json:"start_time"`
	EndTime              time.Time      `json:"end_time"`
	Status               booking.Status `json:"status"`
	IsRecorded           bool           `json:"is_recorded"`
	PhoneNumber          *string        `json:"phone_number"`
	CheckoutVideoURL     *string        `json:"checkout_video_url"`
	Color                int            `json:"color"`
	Deleting             bool           `json:"deleting"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
}

func NewBookingResponse(b *booking.Booking, deleting bool) BookingResponse {
	return BookingResponse{
		ID:                   b.ID,
		RoomID:               b.RoomID,
		UserID:               b.UserID,
		UserName:             b.UserName,
		Title:                b.Title,
		InvestigatorID:       b.InvestigatorID,
		SecondInvestigatorID: b.SecondInvestigatorID,
		InterrogatedName:     b.InterrogatedName,
		Offenses:             b.Offenses,
		Type:                 b.Type,
		Description:          b.Description,
		StartTime:            b.StartTime,
		EndTime:              b.EndTime,
		Status:               b.Status,
		IsRecorded:           b.IsRecorded,
		PhoneNumber:          b.PhoneNumber,
		CheckoutVideoURL:     file.OptionalURL(b.CheckoutVideoID),
		Color:                booking.ColorIndex(b.ID, colorBuckets),
		Deleting:             deleting,
		CreatedAt:            b.CreatedAt,
		UpdatedAt:            b.UpdatedAt,
	}
}

type CreateBookingRequest struct {
	RoomID               string `json:"room_id" binding:"required,uuid"`
	Date                 string `json:"date" binding:"required,datetime=2006-01-02"`
	StartTime            string `json:"start_time" binding:"omitempty,datetime=15:04"`
	EndTime              string `json:"end_time" binding:"omitempty,datetime=15:04"`
	Title                string `json:"title" binding:"required,max=200"`
	InvestigatorID       string `json:"investigator_id" binding:"required,max=50"`
	SecondInvestigatorID string `json:"second_investigator_id" binding:"max=50"`
	InterrogatedName     string `json:"interrogated_name" binding:"required,max=200"`
	Offenses             string `json:"offenses" binding:"required,max=2000"`
	Type                 string `json:"type" binding:"omitempty,oneof=TESTIMONY INVESTIGATION"`
	Description          string `json:"description" binding:"max=2000"`
	IsRecorded           bool   `json:"is_recorded"`
	PhoneNumber          string `json:"phone_number" binding:"max=30"`
}

// PendingDeleteResponse is returned while a delete can still be undone.
type PendingDeleteResponse struct {
	ID     string    `json:"id"`
	Token  string    `json:"token"`
	FireAt time.Time `json:"fire_at"`
}

type OccupantResponse struct {
	BookingID string         `json:"booking_id"`
	Title     string         `json:"title"`
	Status    booking.Status `json:"status"`
	IsStart   bool           `json:"is_start"`
	Color     int            `json:"color"`
}

type SlotResponse struct {
	Hour      int                `json:"hour"`
	Occupants []OccupantResponse `json:"occupants"`
}

type TimelineResponse struct {
	RoomID   string            `json:"room_id"`
	Date     string            `json:"date"`
	Slots    []SlotResponse    `json:"slots"`
	Bookings []BookingResponse `json:"bookings"`
}

func (h *Handler) newTimelineResponse(tl booking.Timeline) TimelineResponse {
	slots := make([]SlotResponse, len(tl.Slots))
	for i, s := range tl.Slots {
		occupants := make([]OccupantResponse, len(s.Occupants))
		for j, o := range s.Occupants {
			occupants[j] = OccupantResponse{
				BookingID: o.Booking.ID,
				Title:     o.Booking.Title,
				Status:    o.Booking.Status,
				IsStart:   o.IsStart,
				Color:     booking.ColorIndex(o.Booking.ID, colorBuckets),
			}
		}
		slots[i] = SlotResponse{Hour: s.Hour, Occupants: occupants}
	}

	return TimelineResponse{
		RoomID:   tl.RoomID,
		Date:     tl.Date,
		Slots:    slots,
		Bookings: h.bookingResponses(tl.Bookings),
	}
}

type RoomDayResponse struct {
	Room     roomHttp.RoomResponse `json:"room"`
	Current  *BookingResponse      `json:"current"`
	Reserved *BookingResponse      `json:"reserved"`
	Timeline TimelineResponse      `json:"timeline"`
}

type DailyScheduleResponse struct {
	Date           string            `json:"date"`
	AvailableRooms int               `json:"available_rooms"`
	Rooms          []RoomDayResponse `json:"rooms"`
}

type DayAvailabilityResponse struct {
	Date      string `json:"date"`
	Available int    `json:"available"`
	Total     int    `json:"total"`
}

type MonthRequest struct {
	Month string `form:"month" binding:"required,datetime=2006-01"`
}

type DateRequest struct {
	Date string `form:"date" binding:"required,datetime=2006-01-02"`
}

type SummaryResponse struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}
