package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nekogravitycat/smartroom-backend/internal/auth"
	"github.com/nekogravitycat/smartroom-backend/internal/file"
	"github.com/nekogravitycat/smartroom-backend/internal/pkg/response"
)

// FileUploadConfig defines the configuration for generic file uploads
type FileUploadConfig struct {
	FormFieldName string                                         // The name of the form field containing the file (default: "file")
	MaxSizeBytes  int64                                          // The maximum file size in bytes (0 = no limit)
	AllowedTypes  []string                                       // The list of allowed MIME types (empty = allow all)
	Thumbnail     bool                                           // Generate a JPEG thumbnail, content must be an image
	AfterUpload   func(ctx context.Context, fileID string) error // Called after successful file upload (optional)
	Respond       func(c *gin.Context, f *file.File)             // Writes the success response (optional, default FileUploadResponse)
}

// HandleFileUpload is a generic reusable handler for file uploads.
// It handles file upload, optional after-upload hook, and rollback on hook failure.
func (h *Handler) HandleFileUpload(c *gin.Context, config FileUploadConfig) {
	userID := auth.GetUserID(c)

	fieldName := config.FormFieldName
	if fieldName == "" {
		fieldName = "file"
	}

	fileHeader, err := c.FormFile(fieldName)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fieldName + " is required"})
		return
	}
	if config.MaxSizeBytes > 0 && fileHeader.Size > config.MaxSizeBytes {
		response.Error(c, file.ErrFileTooLarge)
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		response.Error(c, err)
		return
	}
	defer src.Close()

	f, err := h.fileService.Upload(c.Request.Context(), file.UploadInput{
		Filename:     fileHeader.Filename,
		Content:      src,
		UserID:       userID,
		MaxSizeBytes: config.MaxSizeBytes,
		AllowedTypes: config.AllowedTypes,
		Thumbnail:    config.Thumbnail,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	// After upload hook (e.g., update entity reference)
	if config.AfterUpload != nil {
		if err := config.AfterUpload(c.Request.Context(), f.ID); err != nil {
			// Rollback: delete file from storage and DB
			if delErr := h.fileService.Delete(context.WithoutCancel(c.Request.Context()), f.ID); delErr != nil {
				h.logger.Warn("failed to roll back upload", zap.String("file_id", f.ID), zap.Error(delErr))
			}
			response.Error(c, err)
			return
		}
	}

	if config.Respond != nil {
		config.Respond(c, f)
		return
	}

	var thumbURL *string
	if f.ThumbnailPath != nil {
		t := file.ThumbnailURL(f.ID)
		thumbURL = &t
	}

	c.JSON(http.StatusOK, FileUploadResponse{
		Message:      "file uploaded successfully",
		FileID:       f.ID,
		URL:          file.FileURL(f.ID),
		ThumbnailURL: thumbURL,
	})
}
