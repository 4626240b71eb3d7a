package file

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nekogravitycat/smartroom-backend/internal/pkg/storage"
)

// sniffLen is how many leading bytes are inspected to detect the content type.
const sniffLen = 3072

const (
	thumbnailBox     = 400
	thumbnailQuality = 80
)

// UploadInput describes a single upload. Content is read exactly once.
type UploadInput struct {
	Filename     string
	Content      io.Reader
	UserID       string
	MaxSizeBytes int64    // 0 = no limit
	AllowedTypes []string // empty = allow all
	Thumbnail    bool     // generate a JPEG thumbnail; content must be an image
}

type Service interface {
	Upload(ctx context.Context, in UploadInput) (*File, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*File, error)
	Download(ctx context.Context, id string) (io.ReadCloser, *File, error)
	DownloadThumbnail(ctx context.Context, id string) (io.ReadCloser, *File, error)
}

type service struct {
	repo    Repository
	storage storage.Storage
	thumbs  *storage.Thumbnailer
	logger  *zap.Logger
	now     func() time.Time
}

func NewService(repo Repository, store storage.Storage, logger *zap.Logger) Service {
	return &service{
		repo:    repo,
		storage: store,
		thumbs:  storage.NewThumbnailer(thumbnailBox, thumbnailQuality),
		logger:  logger,
		now:     time.Now,
	}
}

func (s *service) Upload(ctx context.Context, in UploadInput) (*File, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(in.Content, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read file content: %w", err)
	}
	head = head[:n]
	if n == 0 {
		return nil, ErrEmptyFile
	}

	mtype := mimetype.Detect(head)
	if len(in.AllowedTypes) > 0 && !mimetype.EqualsAny(mtype.String(), in.AllowedTypes...) {
		return nil, ErrUnsupportedType
	}

	content := io.MultiReader(bytes.NewReader(head), in.Content)
	if in.MaxSizeBytes > 0 {
		content = io.LimitReader(content, in.MaxSizeBytes+1)
	}

	// Thumbnails need the whole image in memory; everything else is streamed.
	var imageBytes []byte
	if in.Thumbnail {
		imageBytes, err = io.ReadAll(content)
		if err != nil {
			return nil, fmt.Errorf("failed to read file content: %w", err)
		}
		if in.MaxSizeBytes > 0 && int64(len(imageBytes)) > in.MaxSizeBytes {
			return nil, ErrFileTooLarge
		}
		content = bytes.NewReader(imageBytes)
	}

	ext := strings.ToLower(filepath.Ext(in.Filename))
	if ext == "" {
		ext = mtype.Extension()
	}

	fileID := uuid.New().String()
	shard := fileID[:2]
	storagePath := fmt.Sprintf("upload/%s/%s%s", shard, fileID, ext)

	size, err := s.storage.Save(ctx, storagePath, content)
	if err != nil {
		return nil, fmt.Errorf("failed to save file to storage: %w", err)
	}
	if in.MaxSizeBytes > 0 && size > in.MaxSizeBytes {
		_ = s.storage.Delete(ctx, storagePath)
		return nil, ErrFileTooLarge
	}

	var thumbnailPath *string
	if in.Thumbnail {
		thumbReader, err := s.thumbs.Make(bytes.NewReader(imageBytes))
		if err != nil {
			_ = s.storage.Delete(ctx, storagePath)
			return nil, ErrUnsupportedType
		}
		tPath := fmt.Sprintf("upload/%s/%s_thumb.jpg", shard, fileID)
		if _, err := s.storage.Save(ctx, tPath, thumbReader); err != nil {
			s.logger.Warn("failed to save thumbnail", zap.String("file_id", fileID), zap.Error(err))
		} else {
			thumbnailPath = &tPath
		}
	}

	f := &File{
		ID:            fileID,
		UserID:        in.UserID,
		Filename:      filepath.Base(in.Filename),
		StoragePath:   storagePath,
		ThumbnailPath: thumbnailPath,
		ContentType:   mtype.String(),
		Size:          size,
		CreatedAt:     s.now().UTC(),
	}

	if err := s.repo.Create(ctx, f); err != nil {
		s.removeBlobs(ctx, f)
		return nil, err
	}

	s.logger.Info("file uploaded",
		zap.String("file_id", f.ID),
		zap.String("content_type", f.ContentType),
		zap.Int64("size", f.Size),
	)
	return f, nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	f, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.removeBlobs(ctx, f)
	return nil
}

// removeBlobs is best effort; orphaned blobs are only logged.
func (s *service) removeBlobs(ctx context.Context, f *File) {
	if err := s.storage.Delete(ctx, f.StoragePath); err != nil {
		s.logger.Warn("failed to delete file from storage", zap.String("file_id", f.ID), zap.Error(err))
	}
	if f.ThumbnailPath != nil {
		if err := s.storage.Delete(ctx, *f.ThumbnailPath); err != nil {
			s.logger.Warn("failed to delete thumbnail from storage", zap.String("file_id", f.ID), zap.Error(err))
		}
	}
}

func (s *service) Get(ctx context.Context, id string) (*File, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) Download(ctx context.Context, id string) (io.ReadCloser, *File, error) {
	f, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	stream, err := s.storage.Get(ctx, f.StoragePath)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("failed to retrieve file from storage: %w", err)
	}

	return stream, f, nil
}

func (s *service) DownloadThumbnail(ctx context.Context, id string) (io.ReadCloser, *File, error) {
	f, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	if f.ThumbnailPath == nil {
		return nil, nil, ErrThumbnailUnavailable
	}

	stream, err := s.storage.Get(ctx, *f.ThumbnailPath)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, ErrThumbnailUnavailable
		}
		return nil, nil, fmt.Errorf("failed to retrieve thumbnail from storage: %w", err)
	}

	return stream, f, nil
}
