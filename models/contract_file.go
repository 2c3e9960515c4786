package models

import (
	"time"

	"github.com/google/uuid"
)

// ContractFile represents an uploaded contract document
type ContractFile struct {
	ID          uuid.UUID `json:"id"`
	Filename    string    `json:"filename"`
	MimeType    string    `json:"mime_type"`
	Size        int64     `json:"size"`
	StoragePath string    `json:"storage_path"`

	// TextPath points at the extracted plain text copy used for analysis
	TextPath    *string   `json:"text_path,omitempty"`
	ContentHash string    `json:"content_hash"`
	CreatedAt   time.Time `json:"created_at"`
}
