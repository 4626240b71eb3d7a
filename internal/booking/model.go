package booking

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/smartroom-backend/internal/pkg/apperror"
)

var (
	ErrNotFound          = apperror.New(http.StatusNotFound, "booking not found")
	ErrTimeConflict      = apperror.New(http.StatusConflict, "time slot already booked")
	ErrApprovalConflict  = apperror.New(http.StatusConflict, "another approved booking overlaps this time slot")
	ErrInvalidTimeRange  = apperror.New(http.StatusBadRequest, "end time must be after start time")
	ErrStartTimePast     = apperror.New(http.StatusBadRequest, "cannot create booking in the past")
	ErrBeyondHorizon     = apperror.New(http.StatusBadRequest, "bookings can only be made for today, or for tomorrow from 08:00")
	ErrInvalidInput      = apperror.New(http.StatusBadRequest, "invalid input parameters")
	ErrRoomNotFound      = apperror.New(http.StatusNotFound, "room not found")
	ErrRoomUnavailable   = apperror.New(http.StatusConflict, "room is not available for booking")
	ErrPermissionDenied  = apperror.New(http.StatusForbidden, "permission denied")
	ErrInvalidTransition = apperror.New(http.StatusConflict, "booking status does not allow this action")
	ErrCheckoutWindow    = apperror.New(http.StatusConflict, "checkout is only possible while the booking is in progress")
	ErrVideoRequired     = apperror.New(http.StatusBadRequest, "a checkout video is required")
	ErrNothingToUndo     = apperror.New(http.StatusGone, "delete can no longer be undone")
	ErrDeletePending     = apperror.New(http.StatusConflict, "booking is already scheduled for deletion")
	ErrShuttingDown      = apperror.New(http.StatusServiceUnavailable, "server is shutting down")
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
	StatusCancelled Status = "CANCELLED"
	StatusCompleted Status = "COMPLETED"
)

// Occupying reports whether a booking in this status blocks overlapping requests.
func (s Status) Occupying() bool {
	return s == StatusPending || s == StatusApproved
}

// Terminal reports whether only deletion is possible from this status.
func (s Status) Terminal() bool {
	return s == StatusRejected || s == StatusCancelled || s == StatusCompleted
}

func (s Status) Valid() bool {
	return s.Occupying() || s.Terminal()
}

type Type string

const (
	TypeTestimony     Type = "TESTIMONY"
	TypeInvestigation Type = "INVESTIGATION"
)

func (t Type) Valid() bool {
	return t == TypeTestimony || t == TypeInvestigation
}

// Booking is a request to use a room for [StartTime, EndTime).
// RoomID and UserID are weak references; UserName is a snapshot taken at creation.
type Booking struct {
	ID                   string
	RoomID               string
	UserID               string
	UserName             string
	Title                string // investigator name
	InvestigatorID       string
	SecondInvestigatorID string
	InterrogatedName     string
	Offenses             string
	Type                 *Type
	Description          string
	StartTime            time.Time
	EndTime              time.Time
	Status               Status
	IsRecorded           bool
	CheckoutVideoID      *string
	PhoneNumber          *string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Window returns the booking's half-open time window.
func (b *Booking) Window() Window {
	return Window{Start: b.StartTime, End: b.EndTime}
}

type Filter struct {
	UserID    string
	RoomID    string
	Statuses  []Status
	StartTime *time.Time // bookings ending after this time
	EndTime   *time.Time // bookings starting before this time
	HasVideo  *bool
	Page      int
	PageSize  int // 0 = no limit
	SortBy    string
	SortOrder string
}
