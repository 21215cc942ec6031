package valuation

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/JeanPierreLessa/WallClub-backend-sub002/internal/domain"
)

// ParameterResolver resolves one versioned numeric parameter for a store at
// a point in time, under a plan and processing mode. An unset parameter is
// reported as an invalid NullDecimal, never as an error.
type ParameterResolver interface {
	Resolve(family domain.ParamFamily, number int, storeID string, asOf time.Time, plan int, mode domain.Mode) (decimal.NullDecimal, error)
}

// PlanResolver maps a transaction's commercial shape to the plan id used as
// a parameter lookup key. A shape with no configured plan resolves to 0.
type PlanResolver interface {
	ResolvePlan(purchaseType domain.PurchaseType, installments int, brand string, mode domain.Mode) (int, error)
}

// PriorResultReader is a point lookup against the settlement ledger, used
// only for the idempotent payment-date field. It returns "" when no prior
// result exists or the prior result has no payment date.
type PriorResultReader interface {
	PriorPaymentDate(nsu string) (string, error)
}

// Fatal input errors: the record is rejected and nothing is persisted.
var (
	ErrMissingRequiredField = errors.New("missing required transaction field")
	ErrBadReferenceInstant  = errors.New("unparseable reference instant")
)

// CascadeError wraps an unexpected failure inside the formula cascade. It
// carries the transaction id and the output fields still null at the point
// of failure so the ingestion layer can log and dead-letter the record.
type CascadeError struct {
	NSU        string
	NullFields []string
	Err        error
}

func (e *CascadeError) Error() string {
	return fmt.Sprintf("valuation cascade failed for nsu %s (null fields: %s): %v",
		e.NSU, strings.Join(e.NullFields, ","), e.Err)
}

func (e *CascadeError) Unwrap() error { return e.Err }
