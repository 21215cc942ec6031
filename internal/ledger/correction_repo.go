package ledger

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/JeanPierreLessa/WallClub-backend-sub002/internal/domain"
)

// CorrectionRepo stores the financial-correction inputs contributed by the
// payout ledger, one optional row per NSU.
type CorrectionRepo struct {
	db *sql.DB
}

func NewCorrectionRepo(db *sql.DB) *CorrectionRepo {
	return &CorrectionRepo{db: db}
}

func (r *CorrectionRepo) Upsert(c *domain.Correction) error {
	_, err := r.db.Exec(
		`INSERT INTO corrections (nsu, paid_value, paid_scheduled_date, supplemental_value, updated_at)
		VALUES (?,?,?,?,?)
		ON CONFLICT(nsu) DO UPDATE SET
		 paid_value=excluded.paid_value,
		 paid_scheduled_date=excluded.paid_scheduled_date,
		 supplemental_value=excluded.supplemental_value,
		 updated_at=excluded.updated_at`,
		c.NSU, c.PaidValue.String(), nullable(c.PaidScheduledDate),
		c.SupplementalValue.String(), time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

func (r *CorrectionRepo) BulkUpsert(corrections []domain.Correction) (int, error) {
	stored := 0
	for i := range corrections {
		if err := r.Upsert(&corrections[i]); err != nil {
			return stored, fmt.Errorf("correction %s: %w", corrections[i].NSU, err)
		}
		stored++
	}
	return stored, nil
}

// GetByNSU returns the correction for an NSU, or the zero correction when no
// row exists: absent corrections default to zero/empty by contract.
func (r *CorrectionRepo) GetByNSU(nsu string) (domain.Correction, error) {
	corr := domain.Correction{
		NSU:               nsu,
		PaidValue:         decimal.Zero,
		SupplementalValue: decimal.Zero,
	}

	var paid, supplemental string
	var schedDate sql.NullString
	err := r.db.QueryRow(
		"SELECT paid_value, paid_scheduled_date, supplemental_value FROM corrections WHERE nsu = ?",
		nsu,
	).Scan(&paid, &schedDate, &supplemental)
	if err == sql.ErrNoRows {
		return corr, nil
	}
	if err != nil {
		return corr, err
	}

	if corr.PaidValue, err = decimal.NewFromString(paid); err != nil {
		return corr, fmt.Errorf("paid_value %q: %w", paid, err)
	}
	if corr.SupplementalValue, err = decimal.NewFromString(supplemental); err != nil {
		return corr, fmt.Errorf("supplemental_value %q: %w", supplemental, err)
	}
	corr.PaidScheduledDate = schedDate.String
	return corr, nil
}
