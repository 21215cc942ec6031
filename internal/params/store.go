// Package params implements the versioned parameter and plan stores the
// valuation engine resolves against.
package params

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/JeanPierreLessa/WallClub-backend-sub002/internal/domain"
)

// CreateTables ensures the parameter and plan tables exist.
func CreateTables(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS parameters (
			family TEXT NOT NULL,
			number INTEGER NOT NULL,
			store_id TEXT NOT NULL,
			plan INTEGER NOT NULL DEFAULT 0,
			mode TEXT NOT NULL DEFAULT '',
			valid_from DATETIME NOT NULL,
			value TEXT NOT NULL,
			PRIMARY KEY (family, number, store_id, plan, mode, valid_from)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_parameters_lookup
			ON parameters(family, number, store_id)`,

		`CREATE TABLE IF NOT EXISTS plans (
			purchase_type TEXT NOT NULL,
			brand TEXT NOT NULL DEFAULT '',
			mode TEXT NOT NULL DEFAULT '',
			min_installments INTEGER NOT NULL,
			max_installments INTEGER NOT NULL,
			plan INTEGER NOT NULL,
			PRIMARY KEY (purchase_type, brand, mode, min_installments, max_installments)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}
	return nil
}

// Store resolves versioned parameters against the parameters table. A plan
// of 0 and an empty mode act as wildcards; the most specific match with the
// newest valid_from on or before the as-of date wins.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Resolve implements valuation.ParameterResolver. An unconfigured parameter
// resolves to an invalid NullDecimal, never an error.
func (s *Store) Resolve(family domain.ParamFamily, number int, storeID string, asOf time.Time, plan int, mode domain.Mode) (decimal.NullDecimal, error) {
	var value string
	err := s.db.QueryRow(
		`SELECT value FROM parameters
		WHERE family = ? AND number = ? AND store_id = ?
		  AND plan IN (?, 0) AND mode IN (?, '')
		  AND valid_from <= ?
		ORDER BY plan DESC, mode DESC, valid_from DESC
		LIMIT 1`,
		string(family), number, storeID, plan, string(mode),
		asOf.Format(time.RFC3339),
	).Scan(&value)
	if err == sql.ErrNoRows {
		return decimal.NullDecimal{}, nil
	}
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("resolve %s/%d: %w", family, number, err)
	}

	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("parameter %s/%d value %q: %w", family, number, value, err)
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}, nil
}

// Put inserts one parameter version. Used by seeds and tests.
func (s *Store) Put(family domain.ParamFamily, number int, storeID string, plan int, mode domain.Mode, validFrom time.Time, value decimal.Decimal) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO parameters
		(family, number, store_id, plan, mode, valid_from, value)
		VALUES (?,?,?,?,?,?,?)`,
		string(family), number, storeID, plan, string(mode),
		validFrom.Format(time.RFC3339), value.String(),
	)
	return err
}

// Plans maps a transaction's commercial shape to a plan id.
type Plans struct {
	db *sql.DB
}

func NewPlans(db *sql.DB) *Plans {
	return &Plans{db: db}
}

// ResolvePlan implements valuation.PlanResolver. A brand-specific row beats
// the brand wildcard; no configured plan resolves to 0.
func (p *Plans) ResolvePlan(purchaseType domain.PurchaseType, installments int, brand string, mode domain.Mode) (int, error) {
	var plan int
	err := p.db.QueryRow(
		`SELECT plan FROM plans
		WHERE purchase_type = ? AND mode IN (?, '')
		  AND brand IN (?, '')
		  AND min_installments <= ? AND max_installments >= ?
		ORDER BY brand DESC, mode DESC
		LIMIT 1`,
		string(purchaseType), string(mode), brand, installments, installments,
	).Scan(&plan)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("resolve plan: %w", err)
	}
	return plan, nil
}

// Put inserts one plan row. Used by seeds and tests.
func (p *Plans) Put(purchaseType domain.PurchaseType, brand string, mode domain.Mode, minInstallments, maxInstallments, plan int) error {
	_, err := p.db.Exec(
		`INSERT OR REPLACE INTO plans
		(purchase_type, brand, mode, min_installments, max_installments, plan)
		VALUES (?,?,?,?,?,?)`,
		string(purchaseType), brand, string(mode), minInstallments, maxInstallments, plan,
	)
	return err
}
