package deliverables

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const deliverableColumns = `id, request_id, file_name, storage_key, size_bytes, mime_type, uploaded_by, created_at`

// Create inserts a deliverable row.
func (r *PGRepo) Create(ctx context.Context, d Deliverable) error {
	const query = `
INSERT INTO deliverables (id, request_id, file_name, storage_key, size_bytes, mime_type, uploaded_by, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.DB.ExecContext(ctx, query,
		d.ID,
		d.RequestID,
		d.FileName,
		d.StorageKey,
		d.SizeBytes,
		d.MimeType,
		d.UploadedBy,
		d.CreatedAt,
	)
	return err
}

// GetByID returns one deliverable.
func (r *PGRepo) GetByID(ctx context.Context, id string) (Deliverable, error) {
	const query = `
SELECT ` + deliverableColumns + `
FROM deliverables
WHERE id = $1
LIMIT 1`
	var d Deliverable
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&d.ID,
		&d.RequestID,
		&d.FileName,
		&d.StorageKey,
		&d.SizeBytes,
		&d.MimeType,
		&d.UploadedBy,
		&d.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Deliverable{}, ErrNotFound
	}
	if err != nil {
		return Deliverable{}, err
	}
	return d, nil
}

// ListByRequest returns a request's deliverables, newest first.
func (r *PGRepo) ListByRequest(ctx context.Context, requestID string) ([]Deliverable, error) {
	const query = `
SELECT ` + deliverableColumns + `
FROM deliverables
WHERE request_id = $1
ORDER BY created_at DESC`
	rows, err := r.DB.QueryContext(ctx, query, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Deliverable
	for rows.Next() {
		var d Deliverable
		if err := rows.Scan(
			&d.ID,
			&d.RequestID,
			&d.FileName,
			&d.StorageKey,
			&d.SizeBytes,
			&d.MimeType,
			&d.UploadedBy,
			&d.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// CountByRequest returns the number of deliverables attached to a request.
func (r *PGRepo) CountByRequest(ctx context.Context, requestID string) (int, error) {
	const query = `SELECT COUNT(*) FROM deliverables WHERE request_id = $1`
	var count int
	if err := r.DB.QueryRowContext(ctx, query, requestID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

var _ Repo = (*PGRepo)(nil)
