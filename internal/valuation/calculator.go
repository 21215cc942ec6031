// Package valuation implements the settlement value calculation engine: it
// derives, from one raw acquirer transaction plus the merchant/plan fee
// parameters in force, the full set of monetary and status fields needed to
// reconcile what the platform owes or receives for that transaction.
package valuation

import (
	"fmt"
	"log/slog"
	"reflect"
	"time"

	"github.com/shopspring/decimal"

	"github.com/JeanPierreLessa/WallClub-backend-sub002/internal/domain"
	"github.com/JeanPierreLessa/WallClub-backend-sub002/pkg/logging"
)

var (
	one = decimal.NewFromInt(1)
	two = decimal.NewFromInt(2)
)

// Calculator derives a SettlementResult from a TransactionRecord. It has no
// internal state beyond its collaborators and is safe for concurrent use,
// one call per transaction id.
type Calculator struct {
	params ParameterResolver
	plans  PlanResolver
	prior  PriorResultReader

	// now supplies "today" for cashback scheduling and deadline checks;
	// overridable in tests.
	now func() time.Time
	log *slog.Logger
}

// NewCalculator wires the engine to its collaborators.
func NewCalculator(params ParameterResolver, plans PlanResolver, prior PriorResultReader) *Calculator {
	return &Calculator{
		params: params,
		plans:  plans,
		prior:  prior,
		now:    time.Now,
		log:    logging.Component("valuation"),
	}
}

var storeParamNumbers = []int{
	domain.ParamInstallmentThreshold,
	domain.ParamAnticipationPct,
	domain.ParamDiscountPct,
	domain.ParamCommissionPct,
	domain.ParamPlatformFeePct,
	domain.ParamProcessingFeePct,
	domain.ParamGatewayFeePct,
	domain.ParamMarketingFeePct,
	domain.ParamInsuranceFeePct,
	domain.ParamChargebackReservePct,
	domain.ParamAcquirerCostPct,
	domain.ParamTechFeePct,
	domain.ParamRoyaltyPct,
	domain.ParamAdjustmentPct,
}

var wallParamNumbers = []int{
	domain.WallDiscountShare,
	domain.WallLevelBonus,
	domain.WallCommissionShare,
	domain.WallMemberFund,
}

// ResolveParameters collects every parameter the cascade can reference,
// resolved for the transaction's store, reference date, plan and mode.
// Unset parameters are simply absent from the returned set.
func (c *Calculator) ResolveParameters(storeID string, asOf time.Time, plan int, mode domain.Mode) (domain.Parameters, error) {
	p := make(domain.Parameters)

	resolve := func(family domain.ParamFamily, numbers []int) error {
		for _, n := range numbers {
			v, err := c.params.Resolve(family, n, storeID, asOf, plan, mode)
			if err != nil {
				return fmt.Errorf("resolve %s/%d: %w", family, n, err)
			}
			if v.Valid {
				p[domain.ParamKey{Family: family, Number: n}] = v
			}
		}
		return nil
	}

	if err := resolve(domain.FamilyStore, storeParamNumbers); err != nil {
		return nil, err
	}
	if err := resolve(domain.FamilyWall, wallParamNumbers); err != nil {
		return nil, err
	}
	if err := resolve(domain.FamilyClientFee, []int{domain.ClientFeePct}); err != nil {
		return nil, err
	}
	return p, nil
}

// Calculate values one transaction. Missing required fields and an
// unparseable reference instant are fatal; any unexpected failure inside the
// cascade is caught once here, logged with the NSU and the fields still null
// at that point, and returned as a CascadeError. A partial result is never
// returned.
func (c *Calculator) Calculate(rec *domain.TransactionRecord, corr domain.Correction) (result *domain.SettlementResult, err error) {
	if verr := validateRequired(rec); verr != nil {
		return nil, verr
	}

	ref, err := ParseReferenceInstant(rec.ReferenceInstant)
	if err != nil {
		return nil, err
	}

	mode := rec.Mode()
	plan, err := c.plans.ResolvePlan(rec.PurchaseType, rec.Installments, rec.Brand, mode)
	if err != nil {
		return nil, fmt.Errorf("resolve plan for nsu %s: %w", rec.NSU, err)
	}

	params, err := c.ResolveParameters(rec.StoreID, ref, plan, mode)
	if err != nil {
		return nil, fmt.Errorf("nsu %s: %w", rec.NSU, err)
	}

	priorDate, err := c.prior.PriorPaymentDate(rec.NSU)
	if err != nil {
		return nil, fmt.Errorf("prior result for nsu %s: %w", rec.NSU, err)
	}

	res := &domain.SettlementResult{
		NSU:                 rec.NSU,
		StoreID:             rec.StoreID,
		StoreName:           rec.StoreName,
		ChannelID:           rec.ChannelID,
		ChannelName:         rec.ChannelName,
		Brand:               rec.Brand,
		PurchaseType:        rec.PurchaseType,
		Mode:                mode,
		MembershipID:        rec.MembershipID,
		Plan:                plan,
		ReferenceDate:       ref,
		CancellationDate:    rec.CancellationDate,
		GrossValue:          Quantize(rec.GrossValue, PlacesMoney),
		OriginalValue:       Quantize(rec.OriginalValue, PlacesMoney),
		SplitValue:          Quantize(rec.SplitValue, PlacesMoney),
		GrossPerInstallment: Quantize(rec.GrossPerInstallment, PlacesMoney),
		AdminFeePct:         Quantize(rec.AdminFeePct, PlacesPercent),
		MonthlyFeePct:       Quantize(rec.MonthlyFeePct, PlacesPercent),
		ApprovalStatusInput: rec.ApprovalStatusDesc,
		ComputedAt:          c.now(),
	}

	defer func() {
		if r := recover(); r != nil {
			nulls := nullFields(res)
			c.log.Error("cascade failure",
				"nsu", rec.NSU, "panic", r, "null_fields", nulls)
			result = nil
			err = &CascadeError{NSU: rec.NSU, NullFields: nulls, Err: fmt.Errorf("%v", r)}
		}
	}()

	c.cascade(res, rec, corr, params, ref, priorDate)
	return res, nil
}

// cascade runs the formula graph in dependency order.
func (c *Calculator) cascade(
	res *domain.SettlementResult,
	rec *domain.TransactionRecord,
	corr domain.Correction,
	params domain.Parameters,
	ref time.Time,
	priorDate string,
) {
	mode := res.Mode
	orig := rec.OriginalValue
	instCount := decimal.NewFromInt(int64(rec.Installments))
	isPix := rec.PurchaseType == domain.PurchasePix

	res.InstallmentCount = Quantize(rec.Installments, PlacesCount)

	// Installment threshold (store param 1): unset falls back to zero, which
	// makes every installment count exceed it.
	threshold := orZero(params.Get(domain.FamilyStore, domain.ParamInstallmentThreshold)).Round(PlacesCount)
	res.InstallmentThreshold = threshold
	overThreshold := instCount.GreaterThan(threshold)

	// Discount chain. Club only; in Normal mode the percentage is forced to a
	// concrete zero. An unset Club discount stays null and propagates null
	// through every derived field: "not configured" is not "zero".
	discountPct := nd(decimal.Zero)
	if mode == domain.ModeClub {
		discountPct = params.Get(domain.FamilyStore, domain.ParamDiscountPct)
	}
	res.DiscountPct = quantizeNull(discountPct, PlacesPercent)
	res.DiscountValue = quantizeNull(mulNull(discountPct, orig), PlacesMoney)
	res.DiscountValueCopy = res.DiscountValue

	// Net value. DEBIT passes the original value through untouched. Above the
	// installment threshold the discount applies; at or below it the original
	// value passes through.
	var netRaw decimal.NullDecimal
	switch {
	case rec.PurchaseType == domain.PurchaseDebit:
		netRaw = nd(orig)
	case overThreshold:
		if discountPct.Valid {
			netRaw = nd(orig.Mul(one.Sub(discountPct.Decimal)))
		} else {
			netRaw = null
		}
	default:
		netRaw = nd(orig)
	}
	res.NetValue = quantizeNull(netRaw, PlacesMoney)

	// Commission: unset falls back to zero; PIX has no commission.
	commissionPct := orZero(params.Get(domain.FamilyStore, domain.ParamCommissionPct))
	if isPix {
		commissionPct = decimal.Zero
	}
	res.CommissionPct = Quantize(commissionPct, PlacesPercent)
	res.CommissionValue = Quantize(orig.Mul(commissionPct), PlacesMoney)

	// Final value, the basis for installment splitting and the wall split.
	// CREDIT mirrors the net-value threshold branch, with the at-or-below
	// case discounted by the commission instead of the purchase discount.
	var finalRaw decimal.NullDecimal
	switch rec.PurchaseType {
	case domain.PurchaseDebit:
		finalRaw = nd(orig)
	case domain.PurchasePix:
		finalRaw = netRaw
	default:
		if overThreshold {
			finalRaw = netRaw
		} else {
			finalRaw = nd(orig.Mul(one.Sub(commissionPct)))
		}
	}
	res.FinalValue = quantizeNull(finalRaw, PlacesMoney)

	// Per-installment values. Club mode divides the unrounded final value so
	// the quotient does not compound the rounding of an already-rounded
	// final value.
	if finalRaw.Valid {
		if mode == domain.ModeClub {
			res.InstallmentValue = nd(finalRaw.Decimal.Div(instCount).Round(PlacesMoney))
		} else {
			res.InstallmentValue = nd(res.FinalValue.Decimal.Div(instCount).Round(PlacesMoney))
		}
	}
	if netRaw.Valid {
		res.NetPerInstallment = nd(netRaw.Decimal.Div(instCount).Round(PlacesMoney))
	}

	c.feeCascade(res, params, nd(orig), netRaw, isPix)
	c.wallSplit(res, params, corr, instCount, finalRaw, mode)

	// Client fee (clientef2 family), Club only, fail-soft to zero.
	clientPct := decimal.Zero
	if mode == domain.ModeClub {
		clientPct = orZero(params.Get(domain.FamilyClientFee, domain.ClientFeePct))
	}
	res.ClientFeePct = Quantize(clientPct, PlacesPercent)
	res.ClientFeeValue = Quantize(orig.Mul(clientPct), PlacesMoney)

	// Cashback: the member-facing sum of the fee-linked amounts. Zero means
	// no cashback; otherwise it pays out on the Friday on/after the
	// reference date, shown as "Agendado" while that Friday is still ahead.
	cashback := res.DiscountShare.Base.Add(res.CommissionShare.Base).Add(res.ClientFeeValue)
	res.CashbackValue = Quantize(cashback, PlacesMoney)
	switch {
	case res.CashbackValue.IsZero():
		res.CashbackSchedule = domain.CashbackNone
	default:
		friday := NextFriday(ref)
		if friday.After(c.now()) {
			res.CashbackSchedule = domain.CashbackScheduled
		} else {
			res.CashbackSchedule = FormatDate(friday)
		}
	}

	// Correction inputs echoed onto the result.
	res.PaidValue = Quantize(corr.PaidValue, PlacesMoney)
	res.PaidScheduledDate = corr.PaidScheduledDate
	res.SupplementalValue = Quantize(corr.SupplementalValue, PlacesMoney)

	c.classifyStatus(res, rec, corr, finalRaw, cashback, ref)
	c.effectiveCost(res, rec, instCount)

	// Payment date is idempotent: a previously persisted value is copied
	// forward verbatim and never recomputed.
	if priorDate != "" {
		res.PaymentDate = priorDate
	} else if res.ReceivableStatus == domain.ReceivablePaid {
		if corr.PaidScheduledDate != "" {
			res.PaymentDate = corr.PaidScheduledDate
		} else {
			res.PaymentDate = res.ExpectedSettlementDate
		}
	}
}

// feeCascade derives the secondary fee pairs. Each store parameter yields a
// quantized percentage copy and an applied amount; a null percentage makes
// the amount null, and an amount whose base is null is itself null. The
// platform/processing/gateway fees have a PIX variant computed on the net
// value; on PIX transactions the generic credit-branch amounts (and the
// anticipation fee) force to zero.
func (c *Calculator) feeCascade(res *domain.SettlementResult, params domain.Parameters, origBase, netBase decimal.NullDecimal, isPix bool) {
	pair := func(number int, base decimal.NullDecimal) (decimal.NullDecimal, decimal.NullDecimal) {
		p := params.Get(domain.FamilyStore, number)
		if !p.Valid {
			return null, null
		}
		if !base.Valid {
			return quantizeNull(p, PlacesPercent), null
		}
		return quantizeNull(p, PlacesPercent), nd(p.Decimal.Mul(base.Decimal).Round(PlacesMoney))
	}

	zeroIfSet := func(v decimal.NullDecimal) decimal.NullDecimal {
		if !v.Valid {
			return null
		}
		return nd(decimal.Zero)
	}

	res.AnticipationPct, res.AnticipationValue = pair(domain.ParamAnticipationPct, origBase)
	res.PlatformFeePct, res.PlatformFeeValue = pair(domain.ParamPlatformFeePct, origBase)
	res.ProcessingFeePct, res.ProcessingFeeValue = pair(domain.ParamProcessingFeePct, origBase)
	res.GatewayFeePct, res.GatewayFeeValue = pair(domain.ParamGatewayFeePct, netBase)
	res.MarketingFeePct, res.MarketingFeeValue = pair(domain.ParamMarketingFeePct, netBase)
	res.InsuranceFeePct, res.InsuranceFeeValue = pair(domain.ParamInsuranceFeePct, netBase)
	res.ChargebackReservePct, res.ChargebackReserveValue = pair(domain.ParamChargebackReservePct, origBase)
	res.AcquirerCostPct, res.AcquirerCostValue = pair(domain.ParamAcquirerCostPct, origBase)
	res.TechFeePct, res.TechFeeValue = pair(domain.ParamTechFeePct, origBase)
	res.RoyaltyPct, res.RoyaltyValue = pair(domain.ParamRoyaltyPct, origBase)
	res.AdjustmentPct, res.AdjustmentValue = pair(domain.ParamAdjustmentPct, origBase)

	if isPix {
		_, res.PlatformFeePixValue = pair(domain.ParamPlatformFeePct, netBase)
		_, res.ProcessingFeePixValue = pair(domain.ParamProcessingFeePct, netBase)
		_, res.GatewayFeePixValue = pair(domain.ParamGatewayFeePct, netBase)
		res.AnticipationValue = zeroIfSet(res.AnticipationValue)
		res.PlatformFeeValue = zeroIfSet(res.PlatformFeeValue)
		res.ProcessingFeeValue = zeroIfSet(res.ProcessingFeeValue)
		res.GatewayFeeValue = zeroIfSet(res.GatewayFeeValue)
	} else {
		res.PlatformFeePixValue = zeroIfSet(res.PlatformFeePct)
		res.ProcessingFeePixValue = zeroIfSet(res.ProcessingFeePct)
		res.GatewayFeePixValue = zeroIfSet(res.GatewayFeePct)
	}
}

// wallSplit derives the loyalty-sharing amounts. Each wall parameter is
// averaged over the installment plan, avg = p * (1 + n) / 2, and applied to
// the final value. The adjusted branch subtracts what was already received;
// both branches and their delta are kept. Everything is zero in Normal mode,
// and an unset wall parameter fails soft to zero.
func (c *Calculator) wallSplit(res *domain.SettlementResult, params domain.Parameters, corr domain.Correction, instCount decimal.Decimal, finalRaw decimal.NullDecimal, mode domain.Mode) {
	zeroVariant := domain.Variant{Base: decimal.Zero, Adjusted: decimal.Zero, Delta: decimal.Zero}

	split := func(number int) (decimal.Decimal, decimal.Decimal, domain.Variant) {
		if mode != domain.ModeClub {
			return decimal.Zero, decimal.Zero, zeroVariant
		}
		p := orZero(params.Get(domain.FamilyWall, number))
		avg := p.Mul(one.Add(instCount)).Div(two)
		base := avg.Mul(orZero(finalRaw)).Round(PlacesMoney)
		adjusted := base.Sub(corr.PaidValue).Round(PlacesMoney)
		return Quantize(p, PlacesPercent), Quantize(avg, PlacesPercent), domain.Variant{
			Base:     base,
			Adjusted: adjusted,
			Delta:    base.Sub(adjusted),
		}
	}

	res.DiscountSharePct, res.DiscountShareAvg, res.DiscountShare = split(domain.WallDiscountShare)
	res.CommissionSharePct, res.CommissionShareAvg, res.CommissionShare = split(domain.WallCommissionShare)
	res.MemberFundPct, res.MemberFundAvg, res.MemberFund = split(domain.WallMemberFund)

	res.LevelBonusPct = decimal.Zero
	if mode == domain.ModeClub {
		res.LevelBonusPct = Quantize(orZero(params.Get(domain.FamilyWall, domain.WallLevelBonus)), PlacesPercent)
	}
}

// classifyStatus fills the receivable status, classification and approval
// outcome from date and value comparisons.
func (c *Calculator) classifyStatus(res *domain.SettlementResult, rec *domain.TransactionRecord, corr domain.Correction, finalRaw decimal.NullDecimal, cashback decimal.Decimal, ref time.Time) {
	res.ReceivableStatus = inferReceivableStatus(rec.PaymentStatusDesc)

	expected := ref.AddDate(0, 0, 1)
	dateOK := true
	if rec.ScheduledPaymentDate != "" {
		t, perr := ParseDate(rec.ScheduledPaymentDate)
		if perr != nil {
			dateOK = false
		} else {
			expected = t
		}
		res.ExpectedSettlementDate = rec.ScheduledPaymentDate
	} else {
		res.ExpectedSettlementDate = FormatDate(expected)
	}

	owed := orZero(finalRaw).Add(cashback).Add(corr.SupplementalValue)
	received := corr.PaidValue

	cls := classify(statusInput{
		pending:   res.ReceivableStatus == domain.ReceivablePending,
		cancelled: rec.CancellationDate != "",
		expected:  expected,
		dateOK:    dateOK,
		reference: c.now(),
		owed:      owed,
		received:  received,
	})
	res.Classification = cls
	res.Approval = approvalFor(cls)

	res.OwedValue = Quantize(owed, PlacesMoney)
	res.ReceivedValue = Quantize(received, PlacesMoney)
	res.ReceivedDelta = Quantize(received.Sub(owed), PlacesMoney)
}

// effectiveCost fills the CET field for financed credit: the effective
// monthly rate implied by paying the gross value in installments against the
// original cash price. Only computed when the financing markup is actually
// positive (gross above original).
func (c *Calculator) effectiveCost(res *domain.SettlementResult, rec *domain.TransactionRecord, instCount decimal.Decimal) {
	if rec.PurchaseType != domain.PurchaseCredit || rec.Installments <= 1 {
		return
	}
	if !rec.GrossValue.GreaterThan(rec.OriginalValue) {
		return
	}
	pmt := rec.GrossPerInstallment
	if pmt.IsZero() {
		pmt = rec.GrossValue.Div(instCount)
	}
	res.CET = FormatCET(EffectiveCost(pmt, rec.OriginalValue, rec.Installments))
}

func validateRequired(rec *domain.TransactionRecord) error {
	switch {
	case rec.NSU == "":
		return fmt.Errorf("%w: nsu", ErrMissingRequiredField)
	case rec.ReferenceInstant == "":
		return fmt.Errorf("%w: reference instant", ErrMissingRequiredField)
	case rec.PurchaseType != domain.PurchaseDebit &&
		rec.PurchaseType != domain.PurchaseCredit &&
		rec.PurchaseType != domain.PurchasePix:
		return fmt.Errorf("%w: purchase type %q", ErrMissingRequiredField, rec.PurchaseType)
	case rec.Installments < 1:
		return fmt.Errorf("%w: installment count %d", ErrMissingRequiredField, rec.Installments)
	case !rec.OriginalValue.IsPositive():
		return fmt.Errorf("%w: original value", ErrMissingRequiredField)
	case !rec.GrossValue.IsPositive():
		return fmt.Errorf("%w: gross value", ErrMissingRequiredField)
	}
	return nil
}

// nullFields lists the NullDecimal output fields still null, for cascade
// failure diagnostics.
func nullFields(res *domain.SettlementResult) []string {
	var names []string
	v := reflect.ValueOf(res).Elem()
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		if nd, ok := v.Field(i).Interface().(decimal.NullDecimal); ok && !nd.Valid {
			names = append(names, t.Field(i).Name)
		}
	}
	return names
}
