package domain

import "github.com/shopspring/decimal"

// ParamFamily identifies one of the three versioned parameter tables.
type ParamFamily string

const (
	// FamilyStore holds per-store commercial parameters.
	FamilyStore ParamFamily = "walletcenter"
	// FamilyWall holds the loyalty-sharing split parameters.
	FamilyWall ParamFamily = "wall"
	// FamilyClientFee holds the client fee parameters.
	FamilyClientFee ParamFamily = "clientef2"
)

// Store-family parameter numbers. The numbering is the legacy parameter
// table's; the constant names document what each number configures.
const (
	ParamInstallmentThreshold = 1  // installment count a plan must exceed for the discount to apply
	ParamAnticipationPct      = 5  // receivable-anticipation fee
	ParamDiscountPct          = 7  // Club purchase discount
	ParamCommissionPct        = 10 // platform commission
	ParamPlatformFeePct       = 12
	ParamProcessingFeePct     = 13
	ParamGatewayFeePct        = 14
	ParamMarketingFeePct      = 17
	ParamInsuranceFeePct      = 18
	ParamChargebackReservePct = 20
	ParamAcquirerCostPct      = 21
	ParamTechFeePct           = 23
	ParamRoyaltyPct           = 25
	ParamAdjustmentPct        = 27
)

// Wall-family parameter numbers (loyalty sharing).
const (
	WallDiscountShare   = 1 // member share of the purchase discount
	WallLevelBonus      = 3 // hierarchy level bonus (informational copy)
	WallCommissionShare = 4 // member share of the commission
	WallMemberFund      = 6 // membership fund contribution
)

// Client-fee-family parameter numbers.
const (
	ClientFeePct = 2
)

// ParamKey addresses one parameter inside a family.
type ParamKey struct {
	Family ParamFamily
	Number int
}

// Parameters is the sparse set of parameter values resolved for one
// transaction (store, reference date, plan, mode). A key that is absent or
// carries an invalid NullDecimal means "not configured"; whether that turns
// into zero or null downstream is each output field's own contract.
type Parameters map[ParamKey]decimal.NullDecimal

// Get returns the resolved value for (family, number). Missing keys come
// back as an invalid NullDecimal.
func (p Parameters) Get(family ParamFamily, number int) decimal.NullDecimal {
	return p[ParamKey{Family: family, Number: number}]
}

// Set stores a concrete value, mainly useful in tests and seeds.
func (p Parameters) Set(family ParamFamily, number int, v decimal.Decimal) {
	p[ParamKey{Family: family, Number: number}] = decimal.NullDecimal{Decimal: v, Valid: true}
}
