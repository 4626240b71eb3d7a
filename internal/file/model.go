package file

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/smartroom-backend/internal/pkg/apperror"
)

var (
	ErrNotFound             = apperror.New(http.StatusNotFound, "file not found")
	ErrThumbnailUnavailable = apperror.New(http.StatusNotFound, "thumbnail not available for this file")
	ErrFileTooLarge         = apperror.New(http.StatusRequestEntityTooLarge, "file is too large")
	ErrUnsupportedType      = apperror.New(http.StatusUnsupportedMediaType, "unsupported file type")
	ErrEmptyFile            = apperror.New(http.StatusBadRequest, "file is empty")
)

// Checkout recordings are accepted as MP4, QuickTime (MOV) or WebM.
var VideoTypes = []string{"video/mp4", "video/quicktime", "video/webm"}

// Room images and avatars.
var ImageTypes = []string{"image/jpeg", "image/png"}

// File represents a stored upload.
type File struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	Filename      string    `json:"filename"`
	StoragePath   string    `json:"-"`
	ThumbnailPath *string   `json:"-"`
	ContentType   string    `json:"content_type"`
	Size          int64     `json:"size"`
	CreatedAt     time.Time `json:"created_at"`
}

// FileURL returns the public URL for accessing a file by its ID.
func FileURL(id string) string {
	return "/v1/files/" + id
}

// ThumbnailURL returns the public URL for accessing a file's thumbnail by its ID.
func ThumbnailURL(id string) string {
	return "/v1/files/" + id + "/thumbnail"
}

// OptionalURL maps a nullable file reference to its URL.
func OptionalURL(id *string) *string {
	if id == nil {
		return nil
	}
	u := FileURL(*id)
	return &u
}
