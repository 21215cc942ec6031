package ledger

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/JeanPierreLessa/WallClub-backend-sub002/internal/domain"
)

// SettlementRepo persists SettlementResult rows keyed by NSU. The full field
// set travels as JSON; the columns used for filtering and the idempotent
// payment date are broken out.
type SettlementRepo struct {
	db *sql.DB
}

func NewSettlementRepo(db *sql.DB) *SettlementRepo {
	return &SettlementRepo{db: db}
}

// Upsert writes a settlement result. Every field is overwritten except
// payment_date, which is preserved once present: the upsert keeps the stored
// value and ignores the incoming one.
func (r *SettlementRepo) Upsert(res *domain.SettlementResult) error {
	payload, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal result %s: %w", res.NSU, err)
	}

	var finalValue any
	if res.FinalValue.Valid {
		finalValue = res.FinalValue.Decimal.String()
	}

	_, err = r.db.Exec(
		`INSERT INTO settlements
		(nsu, store_id, store_name, mode, purchase_type, brand, plan,
		 reference_date, final_value, cashback_value, receivable_status,
		 classification, approval, payment_date, result_json, computed_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(nsu) DO UPDATE SET
		 store_id=excluded.store_id,
		 store_name=excluded.store_name,
		 mode=excluded.mode,
		 purchase_type=excluded.purchase_type,
		 brand=excluded.brand,
		 plan=excluded.plan,
		 reference_date=excluded.reference_date,
		 final_value=excluded.final_value,
		 cashback_value=excluded.cashback_value,
		 receivable_status=excluded.receivable_status,
		 classification=excluded.classification,
		 approval=excluded.approval,
		 payment_date=CASE
		   WHEN settlements.payment_date IS NOT NULL AND settlements.payment_date != ''
		   THEN settlements.payment_date
		   ELSE excluded.payment_date
		 END,
		 result_json=excluded.result_json,
		 computed_at=excluded.computed_at`,
		res.NSU, res.StoreID, res.StoreName, string(res.Mode),
		string(res.PurchaseType), res.Brand, res.Plan,
		res.ReferenceDate.Format(time.RFC3339), finalValue,
		res.CashbackValue.String(), string(res.ReceivableStatus),
		string(res.Classification), string(res.Approval),
		nullable(res.PaymentDate), string(payload),
		res.ComputedAt.Format(time.RFC3339),
	)
	return err
}

// GetByNSU loads one settlement result. The payment_date column is
// authoritative over the JSON payload, since the column is what the upsert
// preserves.
func (r *SettlementRepo) GetByNSU(nsu string) (*domain.SettlementResult, error) {
	var payload string
	var payDate sql.NullString
	err := r.db.QueryRow(
		"SELECT result_json, payment_date FROM settlements WHERE nsu = ?", nsu,
	).Scan(&payload, &payDate)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var res domain.SettlementResult
	if err := json.Unmarshal([]byte(payload), &res); err != nil {
		return nil, fmt.Errorf("unmarshal result %s: %w", nsu, err)
	}
	res.PaymentDate = payDate.String
	return &res, nil
}

// PriorPaymentDate implements the prior-result lookup the calculator uses
// for the idempotent payment-date field. "" means no prior value.
func (r *SettlementRepo) PriorPaymentDate(nsu string) (string, error) {
	var payDate sql.NullString
	err := r.db.QueryRow(
		"SELECT payment_date FROM settlements WHERE nsu = ?", nsu,
	).Scan(&payDate)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return payDate.String, nil
}

// PendingNSUs lists transactions whose settlement is still pending, for the
// periodic recompute job.
func (r *SettlementRepo) PendingNSUs(limit int) ([]string, error) {
	if limit <= 0 {
		limit = 500
	}
	rows, err := r.db.Query(
		`SELECT nsu FROM settlements WHERE receivable_status = ?
		 ORDER BY reference_date ASC LIMIT ?`,
		string(domain.ReceivablePending), limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var nsus []string
	for rows.Next() {
		var nsu string
		if err := rows.Scan(&nsu); err != nil {
			return nil, err
		}
		nsus = append(nsus, nsu)
	}
	return nsus, rows.Err()
}

// SettlementFilter narrows List results.
type SettlementFilter struct {
	StoreID          string
	Mode             string
	ReceivableStatus string
	Approval         string
	From             *time.Time
	To               *time.Time
	Page             int
	Limit            int
}

// List returns matching settlement results, newest reference date first,
// plus the total match count for pagination.
func (r *SettlementRepo) List(f SettlementFilter) ([]domain.SettlementResult, int, error) {
	where, args := buildSettlementWhere(f)

	var total int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM settlements"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Page <= 0 {
		f.Page = 1
	}
	offset := (f.Page - 1) * f.Limit

	q := "SELECT result_json, payment_date FROM settlements" + where +
		" ORDER BY reference_date DESC LIMIT ? OFFSET ?"
	args = append(args, f.Limit, offset)

	rows, err := r.db.Query(q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var results []domain.SettlementResult
	for rows.Next() {
		var payload string
		var payDate sql.NullString
		if err := rows.Scan(&payload, &payDate); err != nil {
			return nil, 0, err
		}
		var res domain.SettlementResult
		if err := json.Unmarshal([]byte(payload), &res); err != nil {
			return nil, 0, fmt.Errorf("unmarshal: %w", err)
		}
		res.PaymentDate = payDate.String
		results = append(results, res)
	}
	return results, total, rows.Err()
}

func buildSettlementWhere(f SettlementFilter) (string, []any) {
	var clauses []string
	var args []any

	if f.StoreID != "" {
		clauses = append(clauses, "store_id = ?")
		args = append(args, f.StoreID)
	}
	if f.Mode != "" {
		clauses = append(clauses, "mode = ?")
		args = append(args, f.Mode)
	}
	if f.ReceivableStatus != "" {
		clauses = append(clauses, "receivable_status = ?")
		args = append(args, f.ReceivableStatus)
	}
	if f.Approval != "" {
		clauses = append(clauses, "approval = ?")
		args = append(args, f.Approval)
	}
	if f.From != nil {
		clauses = append(clauses, "reference_date >= ?")
		args = append(args, f.From.Format(time.RFC3339))
	}
	if f.To != nil {
		clauses = append(clauses, "reference_date <= ?")
		args = append(args, f.To.Format(time.RFC3339))
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// StatusSummary aggregates settlement rows for the dashboard.
type StatusSummary struct {
	Total      int            `json:"total"`
	ByStatus   map[string]int `json:"by_status"`
	ByApproval map[string]int `json:"by_approval"`
	ByMode     map[string]int `json:"by_mode"`
}

func (r *SettlementRepo) Summary() (*StatusSummary, error) {
	s := &StatusSummary{
		ByStatus:   map[string]int{},
		ByApproval: map[string]int{},
		ByMode:     map[string]int{},
	}

	if err := r.db.QueryRow("SELECT COUNT(*) FROM settlements").Scan(&s.Total); err != nil {
		return nil, err
	}

	group := func(column string, into map[string]int) error {
		rows, err := r.db.Query(
			"SELECT " + column + ", COUNT(*) FROM settlements GROUP BY " + column,
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var key string
			var n int
			if err := rows.Scan(&key, &n); err != nil {
				return err
			}
			into[key] = n
		}
		return rows.Err()
	}

	if err := group("receivable_status", s.ByStatus); err != nil {
		return nil, err
	}
	if err := group("approval", s.ByApproval); err != nil {
		return nil, err
	}
	if err := group("mode", s.ByMode); err != nil {
		return nil, err
	}
	return s, nil
}
