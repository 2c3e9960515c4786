package repository

import (
	"context"

	"contractreview-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ContractFileRepository handles database operations for uploaded contracts
type ContractFileRepository struct {
	db *pgxpool.Pool
}

// NewContractFileRepository creates a new contract file repository
func NewContractFileRepository(db *pgxpool.Pool) *ContractFileRepository {
	return &ContractFileRepository{db: db}
}

// Create creates a new contract file record
func (r *ContractFileRepository) Create(ctx context.Context, file *models.ContractFile) error {
	query := `
		INSERT INTO contract_files (filename, mime_type, size, storage_path, text_path, content_hash)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := r.db.QueryRow(
		ctx, query,
		file.Filename,
		file.MimeType,
		file.Size,
		file.StoragePath,
		file.TextPath,
		file.ContentHash,
	).Scan(&file.ID, &file.CreatedAt)

	return wrapErr(err, "insert contract file")
}

// GetByID retrieves a contract file by ID
func (r *ContractFileRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ContractFile, error) {
	file := &models.ContractFile{}
	query := `
		SELECT id, filename, mime_type, size, storage_path, text_path, content_hash, created_at
		FROM contract_files
		WHERE id = $1`

	err := r.db.QueryRow(ctx, query, id).Scan(
		&file.ID,
		&file.Filename,
		&file.MimeType,
		&file.Size,
		&file.StoragePath,
		&file.TextPath,
		&file.ContentHash,
		&file.CreatedAt,
	)
	if err != nil {
		return nil, wrapErr(err, "select contract file")
	}

	return file, nil
}

// Delete deletes a contract file record
func (r *ContractFileRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM contract_files WHERE id = $1`
	_, err := r.db.Exec(ctx, query, id)
	return wrapErr(err, "delete contract file")
}
