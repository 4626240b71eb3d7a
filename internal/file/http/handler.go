package http

import (
	"io"
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nekogravitycat/smartroom-backend/internal/file"
	"github.com/nekogravitycat/smartroom-backend/internal/pkg/response"
)

type Handler struct {
	fileService file.Service
	logger      *zap.Logger
}

func NewHandler(fileService file.Service, logger *zap.Logger) *Handler {
	return &Handler{
		fileService: fileService,
		logger:      logger,
	}
}

// ServeFile serves the file content by ID.
// Seekable storage streams go through http.ServeContent so video players can use range requests.
func (h *Handler) ServeFile(c *gin.Context) {
	var req ServeFileRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.BadRequest(c, "invalid file id", err)
		return
	}
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}

	stream, fileInfo, err := h.fileService.Download(c.Request.Context(), req.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer stream.Close()

	c.Header("Content-Type", fileInfo.ContentType)
	disposition := "inline"
	if req.Download {
		disposition = "attachment"
	}
	c.Header("Content-Disposition", contentDisposition(disposition, fileInfo.Filename))

	if rs, ok := stream.(io.ReadSeeker); ok {
		http.ServeContent(c.Writer, c.Request, fileInfo.Filename, fileInfo.CreatedAt, rs)
		return
	}

	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, stream); err != nil {
		h.logger.Debug("file stream interrupted", zap.String("file_id", req.ID), zap.Error(err))
	}
}

// ServeThumbnail serves the thumbnail image by file ID.
func (h *Handler) ServeThumbnail(c *gin.Context) {
	var req ServeFileRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.BadRequest(c, "invalid file id", err)
		return
	}

	stream, fileInfo, err := h.fileService.DownloadThumbnail(c.Request.Context(), req.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer stream.Close()

	// Thumbnails are always JPEG
	c.Header("Content-Type", "image/jpeg")
	c.Header("Content-Disposition", contentDisposition("inline", fileInfo.Filename+"_thumb.jpg"))

	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, stream); err != nil {
		h.logger.Debug("thumbnail stream interrupted", zap.String("file_id", req.ID), zap.Error(err))
	}
}

// contentDisposition quotes non-ASCII names (Hebrew file names are common) per RFC 2231.
func contentDisposition(kind, filename string) string {
	if v := mime.FormatMediaType(kind, map[string]string{"filename": filename}); v != "" {
		return v
	}
	return kind
}
