package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"contractreview-backend/config"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
)

var (
	ErrNotFound    = errors.New("stored file not found")
	ErrInvalidPath = errors.New("invalid storage path")
	ErrTooLarge    = errors.New("stored file exceeds size limit")
)

// Storage stores uploaded contracts and exported drafts
type Storage interface {
	// Upload stores a file and returns the storage path
	Upload(ctx context.Context, fileID uuid.UUID, filename string, data io.Reader) (string, error)

	// Download retrieves a file by storage path
	Download(ctx context.Context, storagePath string) (io.ReadCloser, error)

	// Delete removes a file by storage path
	Delete(ctx context.Context, storagePath string) error
}

const (
	TypeLocal = "local"
	TypeS3    = "s3"
)

// NewStorage creates the backend selected by cfg.Type
func NewStorage(ctx context.Context, cfg config.StorageConfig) (Storage, error) {
	switch cfg.Type {
	case TypeLocal, "":
		return NewLocalStorage(cfg.LocalPath)
	case TypeS3:
		if cfg.Bucket == "" {
			return nil, eris.New("AWS_S3_BUCKET is required for S3 storage")
		}
		return NewS3Storage(ctx, cfg)
	default:
		return nil, eris.Errorf("unknown storage type: %s", cfg.Type)
	}
}

// ReadText downloads a stored file as a string, refusing files over limit
// bytes.
func ReadText(ctx context.Context, s Storage, storagePath string, limit int64) (string, error) {
	rc, err := s.Download(ctx, storagePath)
	if err != nil {
		return "", err
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, limit+1))
	if err != nil {
		return "", eris.Wrapf(err, "failed to read %s", storagePath)
	}
	if int64(len(data)) > limit {
		return "", eris.Wrapf(ErrTooLarge, "%s is larger than %d bytes", storagePath, limit)
	}
	return string(data), nil
}

var unsafeName = strings.NewReplacer(" ", "_", "/", "_", "\\", "_", "..", "_")

// generateStoragePath generates a unique storage path for a file
func generateStoragePath(fileID uuid.UUID, filename string) string {
	filename = filepath.Base(filename)
	ext := filepath.Ext(filename)
	baseName := unsafeName.Replace(strings.TrimSuffix(filename, ext))
	id := fileID.String()
	return fmt.Sprintf("%s/%s_%s%s", id[:2], id, baseName, ext)
}

// ContentType maps a filename to the MIME type stored alongside it
func ContentType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt":
		return "text/plain"
	case ".md":
		return "text/markdown"
	case ".html", ".htm":
		return "text/html"
	case ".json":
		return "application/json"
	case ".pdf":
		return "application/pdf"
	case ".doc":
		return "application/msword"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	default:
		return "application/octet-stream"
	}
}
