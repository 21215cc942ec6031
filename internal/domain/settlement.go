package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Variant is a two-branch output: the base calculation, the adjusted
// calculation after subtracting what was already received, and their
// difference. Both branches are kept; neither overwrites the other.
type Variant struct {
	Base     decimal.Decimal `json:"base"`
	Adjusted decimal.Decimal `json:"adjusted"`
	Delta    decimal.Decimal `json:"delta"`
}

// SettlementResult is the full set of derived fields for one acquirer
// transaction: every monetary and status output the platform needs to
// reconcile what it owes or receives for the transaction.
//
// Monetary fields are quantized to 2 decimal places, percentage fields to 4,
// counts to 0. Fields typed decimal.NullDecimal carry the deliberate
// null-propagation of the legacy engine: null means "not configured", which
// is distinct from a configured zero.
//
// A result is persisted keyed by NSU and may be recomputed when parameters
// change or the payment status advances. PaymentDate is the one idempotent
// field: once persisted non-empty it is copied forward verbatim and never
// recomputed.
type SettlementResult struct {
	// Identity and input echo.
	NSU              string       `json:"nsu"`
	StoreID          string       `json:"store_id"`
	StoreName        string       `json:"store_name"`
	ChannelID        string       `json:"channel_id"`
	ChannelName      string       `json:"channel_name"`
	Brand            string       `json:"brand"`
	PurchaseType     PurchaseType `json:"purchase_type"`
	Mode             Mode         `json:"mode"`
	MembershipID     string       `json:"membership_id,omitempty"`
	Plan             int          `json:"plan"`
	ReferenceDate    time.Time    `json:"reference_date"`
	CancellationDate string       `json:"cancellation_date,omitempty"`

	GrossValue          decimal.Decimal `json:"gross_value"`
	OriginalValue       decimal.Decimal `json:"original_value"`
	SplitValue          decimal.Decimal `json:"split_value"`
	GrossPerInstallment decimal.Decimal `json:"gross_per_installment"`
	AdminFeePct         decimal.Decimal `json:"admin_fee_pct"`
	MonthlyFeePct       decimal.Decimal `json:"monthly_fee_pct"`

	// Installment figures. InstallmentCount is quantized to 0 places.
	InstallmentCount     decimal.Decimal     `json:"installment_count"`
	InstallmentThreshold decimal.Decimal     `json:"installment_threshold"`
	InstallmentValue     decimal.NullDecimal `json:"installment_value"`
	NetPerInstallment    decimal.NullDecimal `json:"net_per_installment"`

	// Discount chain (Club only; zero in Normal mode). An unset discount
	// parameter propagates null through every derived field here.
	DiscountPct       decimal.NullDecimal `json:"discount_pct"`
	DiscountValue     decimal.NullDecimal `json:"discount_value"`
	DiscountValueCopy decimal.NullDecimal `json:"discount_value_copy"`
	NetValue          decimal.NullDecimal `json:"net_value"`

	// Commission chain (unset parameter falls back to zero).
	CommissionPct   decimal.Decimal `json:"commission_pct"`
	CommissionValue decimal.Decimal `json:"commission_value"`

	// FinalValue is the basis for installment splitting and the wall split.
	FinalValue decimal.NullDecimal `json:"final_value"`

	// Secondary fee cascade. Each pair mirrors one store parameter: the
	// quantized percentage and the applied amount. Null percentage implies
	// null amount. The PIX-variant amounts replace the generic ones on PIX
	// transactions, where the generic amounts force to zero.
	AnticipationPct        decimal.NullDecimal `json:"anticipation_pct"`
	AnticipationValue      decimal.NullDecimal `json:"anticipation_value"`
	PlatformFeePct         decimal.NullDecimal `json:"platform_fee_pct"`
	PlatformFeeValue       decimal.NullDecimal `json:"platform_fee_value"`
	PlatformFeePixValue    decimal.NullDecimal `json:"platform_fee_pix_value"`
	ProcessingFeePct       decimal.NullDecimal `json:"processing_fee_pct"`
	ProcessingFeeValue     decimal.NullDecimal `json:"processing_fee_value"`
	ProcessingFeePixValue  decimal.NullDecimal `json:"processing_fee_pix_value"`
	GatewayFeePct          decimal.NullDecimal `json:"gateway_fee_pct"`
	GatewayFeeValue        decimal.NullDecimal `json:"gateway_fee_value"`
	GatewayFeePixValue     decimal.NullDecimal `json:"gateway_fee_pix_value"`
	MarketingFeePct        decimal.NullDecimal `json:"marketing_fee_pct"`
	MarketingFeeValue      decimal.NullDecimal `json:"marketing_fee_value"`
	InsuranceFeePct        decimal.NullDecimal `json:"insurance_fee_pct"`
	InsuranceFeeValue      decimal.NullDecimal `json:"insurance_fee_value"`
	ChargebackReservePct   decimal.NullDecimal `json:"chargeback_reserve_pct"`
	ChargebackReserveValue decimal.NullDecimal `json:"chargeback_reserve_value"`
	AcquirerCostPct        decimal.NullDecimal `json:"acquirer_cost_pct"`
	AcquirerCostValue      decimal.NullDecimal `json:"acquirer_cost_value"`
	TechFeePct             decimal.NullDecimal `json:"tech_fee_pct"`
	TechFeeValue           decimal.NullDecimal `json:"tech_fee_value"`
	RoyaltyPct             decimal.NullDecimal `json:"royalty_pct"`
	RoyaltyValue           decimal.NullDecimal `json:"royalty_value"`
	AdjustmentPct          decimal.NullDecimal `json:"adjustment_pct"`
	AdjustmentValue        decimal.NullDecimal `json:"adjustment_value"`

	// Loyalty-sharing split (Club only, zeroed in Normal mode). Avg is the
	// installment-weighted average percentage; the Variant holds the base
	// amount, the amount after subtracting what was already received, and
	// the delta between the two.
	DiscountSharePct   decimal.Decimal `json:"discount_share_pct"`
	DiscountShareAvg   decimal.Decimal `json:"discount_share_avg"`
	DiscountShare      Variant         `json:"discount_share"`
	LevelBonusPct      decimal.Decimal `json:"level_bonus_pct"`
	CommissionSharePct decimal.Decimal `json:"commission_share_pct"`
	CommissionShareAvg decimal.Decimal `json:"commission_share_avg"`
	CommissionShare    Variant         `json:"commission_share"`
	MemberFundPct      decimal.Decimal `json:"member_fund_pct"`
	MemberFundAvg      decimal.Decimal `json:"member_fund_avg"`
	MemberFund         Variant         `json:"member_fund"`

	// Client fee.
	ClientFeePct   decimal.Decimal `json:"client_fee_pct"`
	ClientFeeValue decimal.Decimal `json:"client_fee_value"`

	// Cashback. Schedule is "Sem cashback", "Agendado", or a concrete
	// "dd/mm/yyyy" payout Friday.
	CashbackValue    decimal.Decimal `json:"cashback_value"`
	CashbackSchedule string          `json:"cashback_schedule"`

	// Correction inputs echoed from the corrections ledger.
	PaidValue         decimal.Decimal `json:"paid_value"`
	PaidScheduledDate string          `json:"paid_scheduled_date,omitempty"`
	SupplementalValue decimal.Decimal `json:"supplemental_value"`

	// Status classification.
	ReceivableStatus       ReceivableStatus `json:"receivable_status"`
	Classification         Classification   `json:"classification"`
	Approval               Approval         `json:"approval"`
	ApprovalStatusInput    string           `json:"approval_status_input"`
	ExpectedSettlementDate string           `json:"expected_settlement_date"`
	OwedValue              decimal.Decimal  `json:"owed_value"`
	ReceivedValue          decimal.Decimal  `json:"received_value"`
	ReceivedDelta          decimal.Decimal  `json:"received_delta"`

	// Effective financing cost, formatted with 2 decimal places. Nil when
	// not applicable or when the formatted value would exceed 20 characters.
	CET *string `json:"cet,omitempty"`

	// PaymentDate is idempotent: preserved verbatim once persisted.
	PaymentDate string `json:"payment_date,omitempty"`

	ComputedAt time.Time `json:"computed_at"`
}
