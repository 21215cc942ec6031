package valuation

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/JeanPierreLessa/WallClub-backend-sub002/internal/domain"
)

// stubResolver serves parameters from an in-memory set, ignoring the lookup
// dimensions; tests configure exactly the values a scenario needs.
type stubResolver struct {
	params domain.Parameters
}

func (s *stubResolver) Resolve(family domain.ParamFamily, number int, _ string, _ time.Time, _ int, _ domain.Mode) (decimal.NullDecimal, error) {
	return s.params.Get(family, number), nil
}

type mockPlans struct{ mock.Mock }

func (m *mockPlans) ResolvePlan(pt domain.PurchaseType, installments int, brand string, mode domain.Mode) (int, error) {
	args := m.Called(pt, installments, brand, mode)
	return args.Int(0), args.Error(1)
}

type mockPrior struct{ mock.Mock }

func (m *mockPrior) PriorPaymentDate(nsu string) (string, error) {
	args := m.Called(nsu)
	return args.String(0), args.Error(1)
}

// testNow is a Monday; reference instants in the tests fall in the week
// before so their payout Friday is already in the past.
var testNow = time.Date(2025, 10, 20, 12, 0, 0, 0, time.UTC)

func newTestCalculator(params domain.Parameters, priorDate string) *Calculator {
	plans := &mockPlans{}
	plans.On("ResolvePlan", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(42, nil)

	prior := &mockPrior{}
	prior.On("PriorPaymentDate", mock.Anything).Return(priorDate, nil)

	c := NewCalculator(&stubResolver{params: params}, plans, prior)
	c.now = func() time.Time { return testNow }
	return c
}

func creditClubRecord() *domain.TransactionRecord {
	return &domain.TransactionRecord{
		NSU:                 "123456789",
		StoreID:             "S001",
		StoreName:           "Loja Centro",
		ChannelID:           "C01",
		ChannelName:         "POS",
		ReferenceInstant:    "15/10/2025 10:00:00",
		Brand:               "VISA",
		PurchaseType:        domain.PurchaseCredit,
		Installments:        3,
		GrossValue:          decimal.RequireFromString("90"),
		OriginalValue:       decimal.RequireFromString("90"),
		GrossPerInstallment: decimal.RequireFromString("30"),
		MembershipID:        "M777",
	}
}

func requireDec(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.True(t, got.Equal(decimal.RequireFromString(want)),
		"got %s, want %s", got, want)
}

func TestCalculateInstallmentDiscountScenario(t *testing.T) {
	params := make(domain.Parameters)
	params.Set(domain.FamilyStore, domain.ParamDiscountPct, decimal.RequireFromString("0.10"))
	params.Set(domain.FamilyStore, domain.ParamInstallmentThreshold, decimal.NewFromInt(1))

	c := newTestCalculator(params, "")
	res, err := c.Calculate(creditClubRecord(), domain.Correction{})
	require.NoError(t, err)

	assert.Equal(t, domain.ModeClub, res.Mode)
	assert.Equal(t, 42, res.Plan)
	require.True(t, res.DiscountValue.Valid)
	requireDec(t, "9.00", res.DiscountValue.Decimal)
	require.True(t, res.NetValue.Valid)
	requireDec(t, "81.00", res.NetValue.Decimal)
	require.True(t, res.InstallmentValue.Valid)
	requireDec(t, "27.00", res.InstallmentValue.Decimal)
	requireDec(t, "3", res.InstallmentCount)
}

func TestCalculateDebitPassesOriginalThrough(t *testing.T) {
	params := make(domain.Parameters)
	params.Set(domain.FamilyStore, domain.ParamDiscountPct, decimal.RequireFromString("0.10"))

	rec := creditClubRecord()
	rec.PurchaseType = domain.PurchaseDebit
	rec.Installments = 1
	rec.OriginalValue = decimal.RequireFromString("55.55")
	rec.GrossValue = rec.OriginalValue

	c := newTestCalculator(params, "")
	res, err := c.Calculate(rec, domain.Correction{})
	require.NoError(t, err)

	// Net value ignores the discount parameter entirely for debit.
	require.True(t, res.NetValue.Valid)
	requireDec(t, "55.55", res.NetValue.Decimal)
	require.True(t, res.FinalValue.Valid)
	requireDec(t, "55.55", res.FinalValue.Decimal)
}

func TestCalculateNormalModeZeroesClubFields(t *testing.T) {
	params := make(domain.Parameters)
	params.Set(domain.FamilyStore, domain.ParamDiscountPct, decimal.RequireFromString("0.10"))
	params.Set(domain.FamilyWall, domain.WallDiscountShare, decimal.RequireFromString("0.01"))
	params.Set(domain.FamilyWall, domain.WallCommissionShare, decimal.RequireFromString("0.005"))
	params.Set(domain.FamilyClientFee, domain.ClientFeePct, decimal.RequireFromString("0.01"))

	rec := creditClubRecord()
	rec.MembershipID = "" // Normal mode

	c := newTestCalculator(params, "")
	res, err := c.Calculate(rec, domain.Correction{})
	require.NoError(t, err)

	assert.Equal(t, domain.ModeNormal, res.Mode)
	require.True(t, res.DiscountPct.Valid)
	assert.True(t, res.DiscountPct.Decimal.IsZero())
	require.True(t, res.DiscountValue.Valid)
	assert.True(t, res.DiscountValue.Decimal.IsZero())
	assert.True(t, res.DiscountSharePct.IsZero())
	assert.True(t, res.DiscountShare.Base.IsZero())
	assert.True(t, res.CommissionShare.Base.IsZero())
	assert.True(t, res.MemberFund.Base.IsZero())
	assert.True(t, res.ClientFeeValue.IsZero())
	assert.True(t, res.CashbackValue.IsZero())
	assert.Equal(t, domain.CashbackNone, res.CashbackSchedule)
}

func TestCalculatePixForcesCreditFeeFieldsToZero(t *testing.T) {
	params := make(domain.Parameters)
	params.Set(domain.FamilyStore, domain.ParamDiscountPct, decimal.RequireFromString("0.10"))
	params.Set(domain.FamilyStore, domain.ParamCommissionPct, decimal.RequireFromString("0.05"))
	params.Set(domain.FamilyStore, domain.ParamPlatformFeePct, decimal.RequireFromString("0.02"))
	params.Set(domain.FamilyStore, domain.ParamAnticipationPct, decimal.RequireFromString("0.03"))

	rec := creditClubRecord()
	rec.Brand = "PIX"
	rec.PurchaseType = domain.PurchasePix
	rec.Installments = 1
	rec.OriginalValue = decimal.RequireFromString("100")
	rec.GrossValue = rec.OriginalValue

	c := newTestCalculator(params, "")
	res, err := c.Calculate(rec, domain.Correction{})
	require.NoError(t, err)

	// Final value follows the PIX/net-value path.
	require.True(t, res.NetValue.Valid)
	requireDec(t, "90.00", res.NetValue.Decimal)
	require.True(t, res.FinalValue.Valid)
	requireDec(t, "90.00", res.FinalValue.Decimal)

	// Credit-branch fee fields force to zero; the PIX variants carry the
	// amounts, computed on the net value.
	assert.True(t, res.CommissionPct.IsZero())
	assert.True(t, res.CommissionValue.IsZero())
	require.True(t, res.AnticipationValue.Valid)
	assert.True(t, res.AnticipationValue.Decimal.IsZero())
	require.True(t, res.PlatformFeeValue.Valid)
	assert.True(t, res.PlatformFeeValue.Decimal.IsZero())
	require.True(t, res.PlatformFeePixValue.Valid)
	requireDec(t, "1.80", res.PlatformFeePixValue.Decimal)
}

func TestCalculateNullPropagation(t *testing.T) {
	// Discount parameter unset: the whole discount chain is null, while the
	// commission chain (a different parameter) stays concrete.
	params := make(domain.Parameters)
	params.Set(domain.FamilyStore, domain.ParamInstallmentThreshold, decimal.NewFromInt(1))
	params.Set(domain.FamilyStore, domain.ParamCommissionPct, decimal.RequireFromString("0.05"))

	c := newTestCalculator(params, "")
	res, err := c.Calculate(creditClubRecord(), domain.Correction{})
	require.NoError(t, err)

	assert.False(t, res.DiscountPct.Valid)
	assert.False(t, res.DiscountValue.Valid)
	assert.False(t, res.DiscountValueCopy.Valid)
	assert.False(t, res.NetValue.Valid)
	assert.False(t, res.FinalValue.Valid)
	assert.False(t, res.InstallmentValue.Valid)
	assert.Nil(t, res.CET)

	requireDec(t, "0.0500", res.CommissionPct)
	requireDec(t, "4.50", res.CommissionValue)
}

func TestCalculateWallSplitAndCashback(t *testing.T) {
	params := make(domain.Parameters)
	params.Set(domain.FamilyWall, domain.WallDiscountShare, decimal.RequireFromString("0.01"))
	params.Set(domain.FamilyWall, domain.WallCommissionShare, decimal.RequireFromString("0.005"))
	params.Set(domain.FamilyWall, domain.WallMemberFund, decimal.RequireFromString("0.002"))
	params.Set(domain.FamilyClientFee, domain.ClientFeePct, decimal.RequireFromString("0.01"))

	rec := creditClubRecord()
	rec.PurchaseType = domain.PurchaseDebit // final value = original, keeps numbers flat
	rec.OriginalValue = decimal.RequireFromString("100")
	rec.GrossValue = rec.OriginalValue

	corr := domain.Correction{PaidValue: decimal.RequireFromString("0.50")}

	c := newTestCalculator(params, "")
	res, err := c.Calculate(rec, corr)
	require.NoError(t, err)

	// avg = 0.01 * (1+3)/2 = 0.02; base = 0.02 * 100 = 2.00
	requireDec(t, "0.0200", res.DiscountShareAvg)
	requireDec(t, "2.00", res.DiscountShare.Base)
	requireDec(t, "1.50", res.DiscountShare.Adjusted)
	requireDec(t, "0.50", res.DiscountShare.Delta)

	requireDec(t, "1.00", res.CommissionShare.Base)
	requireDec(t, "0.40", res.MemberFund.Base)
	requireDec(t, "1.00", res.ClientFeeValue)

	// cashback = 2.00 + 1.00 + 1.00
	requireDec(t, "4.00", res.CashbackValue)
	// Reference Friday (17/10) is already behind the pinned clock, so the
	// schedule is the concrete date.
	assert.Equal(t, "17/10/2025", res.CashbackSchedule)
}

func TestCalculateCashbackStillAhead(t *testing.T) {
	params := make(domain.Parameters)
	params.Set(domain.FamilyWall, domain.WallDiscountShare, decimal.RequireFromString("0.01"))

	rec := creditClubRecord()
	rec.PurchaseType = domain.PurchaseDebit
	rec.ReferenceInstant = "22/10/2025 09:00:00" // Friday 24/10 is after the pinned clock

	c := newTestCalculator(params, "")
	res, err := c.Calculate(rec, domain.Correction{})
	require.NoError(t, err)

	assert.False(t, res.CashbackValue.IsZero())
	assert.Equal(t, domain.CashbackScheduled, res.CashbackSchedule)
}

func TestCalculateCETForFinancedCredit(t *testing.T) {
	params := make(domain.Parameters)
	params.Set(domain.FamilyStore, domain.ParamDiscountPct, decimal.RequireFromString("0.10"))
	params.Set(domain.FamilyStore, domain.ParamInstallmentThreshold, decimal.NewFromInt(1))

	// Gross equals the original cash price: no financing markup, no CET.
	c := newTestCalculator(params, "")
	res, err := c.Calculate(creditClubRecord(), domain.Correction{})
	require.NoError(t, err)
	assert.Nil(t, res.CET)

	// 3 x 30.00 gross against a 75.00 cash price is a real markup.
	rec := creditClubRecord()
	rec.OriginalValue = decimal.RequireFromString("75")
	res, err = c.Calculate(rec, domain.Correction{})
	require.NoError(t, err)
	require.NotNil(t, res.CET)
	assert.LessOrEqual(t, len(*res.CET), 20)
}

func TestCalculateDeterminism(t *testing.T) {
	params := make(domain.Parameters)
	params.Set(domain.FamilyStore, domain.ParamDiscountPct, decimal.RequireFromString("0.10"))
	params.Set(domain.FamilyStore, domain.ParamCommissionPct, decimal.RequireFromString("0.05"))
	params.Set(domain.FamilyWall, domain.WallDiscountShare, decimal.RequireFromString("0.01"))

	c := newTestCalculator(params, "")
	first, err := c.Calculate(creditClubRecord(), domain.Correction{})
	require.NoError(t, err)
	second, err := c.Calculate(creditClubRecord(), domain.Correction{})
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestCalculatePaymentDatePreserved(t *testing.T) {
	params := make(domain.Parameters)

	rec := creditClubRecord()
	rec.PaymentStatusDesc = "Pago"
	rec.ScheduledPaymentDate = "30/11/2025"

	c := newTestCalculator(params, "25/10/2025")
	res, err := c.Calculate(rec, domain.Correction{})
	require.NoError(t, err)

	// The prior value wins over anything current parameters would produce.
	assert.Equal(t, "25/10/2025", res.PaymentDate)
}

func TestCalculatePaymentDateFresh(t *testing.T) {
	params := make(domain.Parameters)

	rec := creditClubRecord()
	rec.PaymentStatusDesc = "Pago"

	corr := domain.Correction{PaidScheduledDate: "18/10/2025"}

	c := newTestCalculator(params, "")
	res, err := c.Calculate(rec, corr)
	require.NoError(t, err)
	assert.Equal(t, "18/10/2025", res.PaymentDate)

	// Still pending: no payment date yet.
	rec.PaymentStatusDesc = ""
	res, err = c.Calculate(rec, domain.Correction{})
	require.NoError(t, err)
	assert.Empty(t, res.PaymentDate)
}

func TestCalculateCascadePanicReturnsCascadeError(t *testing.T) {
	c := newTestCalculator(make(domain.Parameters), "")

	// First clock read stamps ComputedAt; a later read happens mid-cascade,
	// where a panic must surface as a CascadeError, not escape.
	calls := 0
	c.now = func() time.Time {
		calls++
		if calls > 1 {
			panic("clock gone")
		}
		return testNow
	}

	res, err := c.Calculate(creditClubRecord(), domain.Correction{})
	assert.Nil(t, res)

	var cerr *CascadeError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "123456789", cerr.NSU)
	assert.NotEmpty(t, cerr.NullFields, "fields still null at failure time")
	// Discount parameter was never configured, so its chain is among them.
	assert.Contains(t, cerr.NullFields, "NetValue")
}

func TestCalculateFatalInputs(t *testing.T) {
	c := newTestCalculator(make(domain.Parameters), "")

	rec := creditClubRecord()
	rec.NSU = ""
	_, err := c.Calculate(rec, domain.Correction{})
	assert.ErrorIs(t, err, ErrMissingRequiredField)

	rec = creditClubRecord()
	rec.Installments = 0
	_, err = c.Calculate(rec, domain.Correction{})
	assert.ErrorIs(t, err, ErrMissingRequiredField)

	rec = creditClubRecord()
	rec.ReferenceInstant = "2025-10-15T10:00:00Z"
	_, err = c.Calculate(rec, domain.Correction{})
	assert.ErrorIs(t, err, ErrBadReferenceInstant)
}

func TestCalculatePlanResolverReceivesShape(t *testing.T) {
	plans := &mockPlans{}
	plans.On("ResolvePlan", domain.PurchaseCredit, 3, "VISA", domain.ModeClub).Return(7, nil)
	prior := &mockPrior{}
	prior.On("PriorPaymentDate", "123456789").Return("", nil)

	c := NewCalculator(&stubResolver{params: make(domain.Parameters)}, plans, prior)
	c.now = func() time.Time { return testNow }

	res, err := c.Calculate(creditClubRecord(), domain.Correction{})
	require.NoError(t, err)
	assert.Equal(t, 7, res.Plan)
	plans.AssertExpectations(t)
	prior.AssertExpectations(t)
}
