package domain

import "github.com/shopspring/decimal"

// PurchaseType is the acquirer's instrument classification for a transaction.
type PurchaseType string

const (
	PurchaseDebit  PurchaseType = "DEBIT"
	PurchaseCredit PurchaseType = "CREDIT"
	PurchasePix    PurchaseType = "PIX"
)

// Mode selects between loyalty ("Club") and plain ("Normal") processing.
// Club mode is active whenever the transaction carries a membership id.
type Mode string

const (
	ModeClub   Mode = "Club"
	ModeNormal Mode = "Normal"
)

// TransactionRecord is one raw acquirer transaction as delivered in the
// settlement extract. It is immutable input to the valuation engine.
//
// ReferenceInstant is kept as the raw extract string ("dd/mm/yyyy hh:mm:ss");
// parsing it is a calculator responsibility and an unparseable value is a
// fatal input error.
type TransactionRecord struct {
	NSU         string `json:"nsu"`
	StoreID     string `json:"store_id"`
	StoreName   string `json:"store_name"`
	ChannelID   string `json:"channel_id"`
	ChannelName string `json:"channel_name"`

	ReferenceInstant string       `json:"reference_instant"`
	Brand            string       `json:"brand"`
	PurchaseType     PurchaseType `json:"purchase_type"`
	Installments     int          `json:"installments"`

	GrossValue          decimal.Decimal `json:"gross_value"`
	OriginalValue       decimal.Decimal `json:"original_value"`
	SplitValue          decimal.Decimal `json:"split_value"`
	GrossPerInstallment decimal.Decimal `json:"gross_per_installment"`

	// Membership id; non-empty switches the record into Club mode.
	MembershipID string `json:"membership_id,omitempty"`

	// Acquirer-reported fee percentages, echoed into the result as-is.
	AdminFeePct   decimal.Decimal `json:"admin_fee_pct"`
	MonthlyFeePct decimal.Decimal `json:"monthly_fee_pct"`

	ApprovalStatusDesc   string `json:"approval_status_desc"`
	PaymentStatusDesc    string `json:"payment_status_desc,omitempty"`
	CancellationDate     string `json:"cancellation_date,omitempty"`
	ScheduledPaymentDate string `json:"scheduled_payment_date,omitempty"`
}

// Mode classifies the record by membership presence.
func (t *TransactionRecord) Mode() Mode {
	if t.MembershipID != "" {
		return ModeClub
	}
	return ModeNormal
}

// Correction carries financial-correction inputs contributed by a separate
// ledger, keyed by NSU. All fields default to zero/empty when no correction
// row exists for the transaction.
type Correction struct {
	NSU string `json:"nsu"`

	// Amount already paid out for this transaction.
	PaidValue decimal.Decimal `json:"paid_value"`
	// Date a payout was already scheduled for, "dd/mm/yyyy", may be empty.
	PaidScheduledDate string `json:"paid_scheduled_date,omitempty"`
	// Supplemental amount owed on top of the calculated value.
	SupplementalValue decimal.Decimal `json:"supplemental_value"`
}
