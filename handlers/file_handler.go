package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"contractreview-backend/cache"
	"contractreview-backend/extraction"
	"contractreview-backend/models"
	"contractreview-backend/repository"
	"contractreview-backend/service"
	"contractreview-backend/storage"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FileHandler handles HTTP requests for contract file operations
type FileHandler struct {
	files            service.FileStore
	storage          storage.Storage
	logger           *zap.Logger
	maxFileSize      int64
	allowedMimeTypes map[string]bool
}

// NewFileHandler creates a new file handler
func NewFileHandler(files service.FileStore, st storage.Storage, logger *zap.Logger) *FileHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileHandler{
		files:       files,
		storage:     st,
		logger:      logger,
		maxFileSize: 5 * 1024 * 1024, // 5MB
		allowedMimeTypes: map[string]bool{
			"text/plain":    true,
			"text/markdown": true,
			"text/html":     true,
		},
	}
}

// UploadFile handles POST /api/files
func (h *FileHandler) UploadFile(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondError(c, http.StatusBadRequest, "MISSING_FILE", "File is required")
		return
	}

	if fileHeader.Size > h.maxFileSize {
		respondError(c, http.StatusBadRequest, "FILE_TOO_LARGE",
			fmt.Sprintf("File size exceeds maximum of %d bytes", h.maxFileSize))
		return
	}

	mimeType := fileHeader.Header.Get("Content-Type")
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = storage.ContentType(fileHeader.Filename)
	}
	if !h.allowedMimeTypes[mimeType] {
		respondError(c, http.StatusBadRequest, "INVALID_FILE_TYPE",
			"File type not allowed. Allowed types: TXT, MD, HTML")
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "FILE_OPEN_ERROR", err.Error())
		return
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "FILE_READ_ERROR", err.Error())
		return
	}

	ctx := c.Request.Context()
	fileID := uuid.New()

	storagePath, err := h.storage.Upload(ctx, fileID, fileHeader.Filename, bytes.NewReader(data))
	if err != nil {
		respondError(c, http.StatusInternalServerError, "UPLOAD_FAILED", fmt.Sprintf("Failed to upload file: %v", err))
		return
	}

	text := string(data)
	record := &models.ContractFile{
		Filename:    fileHeader.Filename,
		MimeType:    mimeType,
		Size:        fileHeader.Size,
		StoragePath: storagePath,
	}

	// HTML uploads keep a plain text copy for analysis
	if mimeType == "text/html" {
		text = extraction.PlainText(text)
		textPath, err := h.storage.Upload(ctx, fileID, textName(fileHeader.Filename), strings.NewReader(text))
		if err != nil {
			h.cleanup(c, storagePath)
			respondError(c, http.StatusInternalServerError, "UPLOAD_FAILED", fmt.Sprintf("Failed to store extracted text: %v", err))
			return
		}
		record.TextPath = &textPath
	}
	record.ContentHash = cache.Fingerprint(text)

	if err := h.files.Create(ctx, record); err != nil {
		h.cleanup(c, storagePath)
		if record.TextPath != nil {
			h.cleanup(c, *record.TextPath)
		}
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", fmt.Sprintf("Failed to save file record: %v", err))
		return
	}

	respondOK(c, http.StatusCreated, record)
}

func textName(filename string) string {
	if i := strings.LastIndex(filename, "."); i > 0 {
		filename = filename[:i]
	}
	return filename + ".txt"
}

func (h *FileHandler) cleanup(c *gin.Context, storagePath string) {
	if err := h.storage.Delete(c.Request.Context(), storagePath); err != nil {
		h.logger.Warn("failed to clean up stored file", zap.String("path", storagePath), zap.Error(err))
	}
}

func (h *FileHandler) lookup(c *gin.Context) (*models.ContractFile, bool) {
	id, ok := parseID(c, "file")
	if !ok {
		return nil, false
	}

	file, err := h.files.GetByID(c.Request.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		respondError(c, http.StatusNotFound, "FILE_NOT_FOUND", "File not found")
		return nil, false
	}
	if err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", err.Error())
		return nil, false
	}
	return file, true
}

// GetFile handles GET /api/files/:id
func (h *FileHandler) GetFile(c *gin.Context) {
	file, ok := h.lookup(c)
	if !ok {
		return
	}
	respondOK(c, http.StatusOK, file)
}

// DownloadFile handles GET /api/files/:id/download
func (h *FileHandler) DownloadFile(c *gin.Context) {
	file, ok := h.lookup(c)
	if !ok {
		return
	}

	rc, err := h.storage.Download(c.Request.Context(), file.StoragePath)
	if errors.Is(err, storage.ErrNotFound) {
		respondError(c, http.StatusNotFound, "FILE_NOT_FOUND", "Stored file is missing")
		return
	}
	if err != nil {
		respondError(c, http.StatusInternalServerError, "DOWNLOAD_FAILED", err.Error())
		return
	}
	defer rc.Close()

	c.DataFromReader(http.StatusOK, file.Size, file.MimeType, rc, map[string]string{
		"Content-Disposition": fmt.Sprintf(`attachment; filename="%s"`, file.Filename),
	})
}

// DeleteFile handles DELETE /api/files/:id
func (h *FileHandler) DeleteFile(c *gin.Context) {
	file, ok := h.lookup(c)
	if !ok {
		return
	}

	if err := h.files.Delete(c.Request.Context(), file.ID); err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", err.Error())
		return
	}
	h.cleanup(c, file.StoragePath)
	if file.TextPath != nil {
		h.cleanup(c, *file.TextPath)
	}

	respondOK(c, http.StatusOK, gin.H{"id": file.ID})
}
