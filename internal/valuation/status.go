package valuation

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/JeanPierreLessa/WallClub-backend-sub002/internal/domain"
)

// statusInput is everything the classifier looks at. It is a pure function
// of current field values; no state is carried between invocations.
type statusInput struct {
	pending   bool
	cancelled bool
	// expected settlement date; dateOK is false when it could not be parsed.
	expected time.Time
	dateOK   bool
	// reference is "today" for deadline comparisons.
	reference time.Time
	// owed is the contractual amount including cashback; received is what
	// was actually received so far.
	owed     decimal.Decimal
	received decimal.Decimal
}

// classify derives the payment/receivable classification from date and value
// comparisons.
func classify(in statusInput) domain.Classification {
	if !in.dateOK {
		return domain.ClassDateError
	}
	if in.cancelled || !in.owed.IsPositive() {
		return domain.ClassDoNotPay
	}

	onOrBeforeDeadline := !in.reference.After(in.expected)

	if in.pending {
		if onOrBeforeDeadline {
			return domain.ClassScheduledReceipt
		}
		return domain.ClassPending
	}

	delta := in.received.Sub(in.owed)
	switch {
	case delta.IsZero():
		if onOrBeforeDeadline {
			return domain.ClassOnTime
		}
		return domain.ClassReceivedLate
	case delta.IsPositive():
		if onOrBeforeDeadline {
			return domain.ClassReceivedOverOnTime
		}
		return domain.ClassReceivedOverLate
	default:
		if onOrBeforeDeadline {
			return domain.ClassPayableWithinDeadline
		}
		return domain.ClassPayableLate
	}
}

// approvalFor maps each classification to the three-way approval outcome.
// DateError always requires a manual look, as does any overpayment.
func approvalFor(c domain.Classification) domain.Approval {
	switch c {
	case domain.ClassOnTime, domain.ClassScheduledReceipt,
		domain.ClassPayableWithinDeadline, domain.ClassDoNotPay:
		return domain.ApprovalApproved
	case domain.ClassPending, domain.ClassReceivedLate, domain.ClassPayableLate:
		return domain.ApprovalNotApproved
	default:
		return domain.ApprovalManualReview
	}
}

// inferReceivableStatus reads the acquirer's payment-status description.
// Anything that does not affirmatively say "paid" counts as pending.
func inferReceivableStatus(desc string) domain.ReceivableStatus {
	d := strings.ToLower(strings.TrimSpace(desc))
	if d == "pago" || d == "paid" || strings.HasPrefix(d, "pago ") {
		return domain.ReceivablePaid
	}
	return domain.ReceivablePending
}
