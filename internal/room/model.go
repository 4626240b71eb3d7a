package room

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/smartroom-backend/internal/pkg/apperror"
)

var (
	ErrNotFound            = apperror.New(http.StatusNotFound, "room not found")
	ErrEmptyName           = apperror.New(http.StatusBadRequest, "name cannot be empty")
	ErrInvalidCapacity     = apperror.New(http.StatusBadRequest, "capacity must not be negative")
	ErrInvalidLocationType = apperror.New(http.StatusBadRequest, "location_type must be PRISON or YAMAR")
)

type LocationType string

const (
	LocationPrison LocationType = "PRISON"
	LocationYamar  LocationType = "YAMAR"
)

func (t LocationType) Valid() bool {
	return t == LocationPrison || t == LocationYamar
}

// Room is a bookable interrogation or testimony room.
type Room struct {
	ID           string
	Name         string
	Capacity     int
	Equipment    []string
	ImageFileID  *string
	Description  string
	LocationType LocationType
	IsAvailable  bool
	IsRecorded   bool
	CreatedAt    time.Time
}

// Filter defines parameters for listing rooms. PageSize 0 returns every match.
type Filter struct {
	LocationType LocationType
	IsAvailable  *bool
	Search       string
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}
