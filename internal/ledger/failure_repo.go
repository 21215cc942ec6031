package ledger

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/JeanPierreLessa/WallClub-backend-sub002/internal/domain"
)

// FailureRepo records transactions a batch run could not value, for retry
// and dead-letter handling.
type FailureRepo struct {
	db *sql.DB
}

func NewFailureRepo(db *sql.DB) *FailureRepo {
	return &FailureRepo{db: db}
}

func (r *FailureRepo) Insert(f *domain.ProcessingFailure) error {
	_, err := r.db.Exec(
		`INSERT OR REPLACE INTO processing_failures
		(id, nsu, store_id, batch_id, type, description, detected_at)
		VALUES (?,?,?,?,?,?,?)`,
		f.ID, f.NSU, nullable(f.StoreID), f.BatchID, string(f.Type),
		f.Description, f.DetectedAt.Format(time.RFC3339),
	)
	return err
}

func (r *FailureRepo) ListByBatch(batchID string) ([]domain.ProcessingFailure, error) {
	rows, err := r.db.Query(
		`SELECT id, nsu, store_id, batch_id, type, description, detected_at
		FROM processing_failures WHERE batch_id = ? ORDER BY detected_at`,
		batchID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanFailures(rows)
}

func (r *FailureRepo) ListRecent(limit int) ([]domain.ProcessingFailure, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.Query(
		`SELECT id, nsu, store_id, batch_id, type, description, detected_at
		FROM processing_failures ORDER BY detected_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanFailures(rows)
}

func scanFailures(rows *sql.Rows) ([]domain.ProcessingFailure, error) {
	var failures []domain.ProcessingFailure
	for rows.Next() {
		var f domain.ProcessingFailure
		var ftype, detected string
		var storeID sql.NullString
		if err := rows.Scan(&f.ID, &f.NSU, &storeID, &f.BatchID, &ftype, &f.Description, &detected); err != nil {
			return nil, err
		}
		f.Type = domain.FailureType(ftype)
		f.StoreID = storeID.String
		t, err := time.Parse(time.RFC3339, detected)
		if err != nil {
			return nil, fmt.Errorf("detected_at %q: %w", detected, err)
		}
		f.DetectedAt = t
		failures = append(failures, f)
	}
	return failures, rows.Err()
}
