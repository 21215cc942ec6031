package ledger

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/JeanPierreLessa/WallClub-backend-sub002/internal/domain"
)

// TransactionRepo stores the raw acquirer records as ingested from the
// extract, one row per NSU.
type TransactionRepo struct {
	db *sql.DB
}

func NewTransactionRepo(db *sql.DB) *TransactionRepo {
	return &TransactionRepo{db: db}
}

func (r *TransactionRepo) Count() (int, error) {
	var n int
	err := r.db.QueryRow("SELECT COUNT(*) FROM transactions").Scan(&n)
	return n, err
}

// BatchExistsByHash checks whether an extract with the given file hash has
// already been ingested (idempotency check).
func (r *TransactionRepo) BatchExistsByHash(hash string) (bool, error) {
	var n int
	err := r.db.QueryRow(
		"SELECT COUNT(*) FROM extract_batches WHERE file_hash = ?", hash,
	).Scan(&n)
	return n > 0, err
}

func (r *TransactionRepo) InsertBatch(id, source, hash string, recordCount int, ingestedAt time.Time) error {
	_, err := r.db.Exec(
		`INSERT INTO extract_batches (id, source, file_hash, record_count, ingested_at)
		VALUES (?,?,?,?,?)`,
		id, source, hash, recordCount, ingestedAt.Format(time.RFC3339),
	)
	return err
}

// BulkUpsert stores raw records, replacing any previous row for the same
// NSU (re-delivered extracts carry the freshest acquirer view).
func (r *TransactionRepo) BulkUpsert(records []domain.TransactionRecord, batchID string) (int, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT OR REPLACE INTO transactions
		(nsu, store_id, store_name, channel_id, channel_name, reference_instant,
		 brand, purchase_type, installments, gross_value, original_value,
		 split_value, gross_per_installment, membership_id, admin_fee_pct,
		 monthly_fee_pct, approval_status, payment_status, cancellation_date,
		 scheduled_payment_date, batch_id, ingested_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
	)
	if err != nil {
		return 0, fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	stored := 0
	for i := range records {
		rec := &records[i]
		_, err := stmt.Exec(
			rec.NSU, rec.StoreID, rec.StoreName, rec.ChannelID, rec.ChannelName,
			rec.ReferenceInstant, rec.Brand, string(rec.PurchaseType), rec.Installments,
			rec.GrossValue.String(), rec.OriginalValue.String(),
			rec.SplitValue.String(), rec.GrossPerInstallment.String(),
			nullable(rec.MembershipID), rec.AdminFeePct.String(), rec.MonthlyFeePct.String(),
			rec.ApprovalStatusDesc, nullable(rec.PaymentStatusDesc),
			nullable(rec.CancellationDate), nullable(rec.ScheduledPaymentDate),
			batchID, now,
		)
		if err != nil {
			return stored, fmt.Errorf("upsert record %d (nsu %s): %w", i, rec.NSU, err)
		}
		stored++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return stored, nil
}

func (r *TransactionRepo) GetByNSU(nsu string) (*domain.TransactionRecord, error) {
	row := r.db.QueryRow(
		`SELECT nsu, store_id, store_name, channel_id, channel_name,
		 reference_instant, brand, purchase_type, installments, gross_value,
		 original_value, split_value, gross_per_installment, membership_id,
		 admin_fee_pct, monthly_fee_pct, approval_status, payment_status,
		 cancellation_date, scheduled_payment_date
		FROM transactions WHERE nsu = ?`, nsu,
	)
	rec, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return rec, err
}

// ListByNSUs loads the raw records for a set of NSUs, used by the recompute
// job.
func (r *TransactionRepo) ListByNSUs(nsus []string) ([]domain.TransactionRecord, error) {
	var records []domain.TransactionRecord
	for _, nsu := range nsus {
		rec, err := r.GetByNSU(nsu)
		if err != nil {
			return nil, fmt.Errorf("load nsu %s: %w", nsu, err)
		}
		if rec != nil {
			records = append(records, *rec)
		}
	}
	return records, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*domain.TransactionRecord, error) {
	var rec domain.TransactionRecord
	var purchaseType string
	var gross, original, split, grossPerInst, adminFee, monthlyFee string
	var membership, payStatus, cancelDate, schedDate sql.NullString

	err := row.Scan(
		&rec.NSU, &rec.StoreID, &rec.StoreName, &rec.ChannelID, &rec.ChannelName,
		&rec.ReferenceInstant, &rec.Brand, &purchaseType, &rec.Installments,
		&gross, &original, &split, &grossPerInst, &membership,
		&adminFee, &monthlyFee, &rec.ApprovalStatusDesc, &payStatus,
		&cancelDate, &schedDate,
	)
	if err != nil {
		return nil, err
	}

	rec.PurchaseType = domain.PurchaseType(purchaseType)
	if rec.GrossValue, err = decimal.NewFromString(gross); err != nil {
		return nil, fmt.Errorf("gross_value %q: %w", gross, err)
	}
	if rec.OriginalValue, err = decimal.NewFromString(original); err != nil {
		return nil, fmt.Errorf("original_value %q: %w", original, err)
	}
	if rec.SplitValue, err = decimal.NewFromString(split); err != nil {
		return nil, fmt.Errorf("split_value %q: %w", split, err)
	}
	if rec.GrossPerInstallment, err = decimal.NewFromString(grossPerInst); err != nil {
		return nil, fmt.Errorf("gross_per_installment %q: %w", grossPerInst, err)
	}
	if rec.AdminFeePct, err = decimal.NewFromString(adminFee); err != nil {
		return nil, fmt.Errorf("admin_fee_pct %q: %w", adminFee, err)
	}
	if rec.MonthlyFeePct, err = decimal.NewFromString(monthlyFee); err != nil {
		return nil, fmt.Errorf("monthly_fee_pct %q: %w", monthlyFee, err)
	}
	rec.MembershipID = membership.String
	rec.PaymentStatusDesc = payStatus.String
	rec.CancellationDate = cancelDate.String
	rec.ScheduledPaymentDate = schedDate.String

	return &rec, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
