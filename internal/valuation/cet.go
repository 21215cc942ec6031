package valuation

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// maxCETLen caps the formatted CET string. A longer rendering is emitted as
// null rather than truncated; legacy behavior, kept as observed.
const maxCETLen = 20

// EffectiveCost solves for the effective monthly financing rate implied by
// splitting principal into n equal installments of installmentValue:
//
//	sum_{k=1..n} installmentValue / (1+i)^k = principal
//
// The result is the rate as a percentage. It returns null when the inputs
// imply no financing markup (total repaid does not exceed the principal) or
// do not describe an installment plan.
func EffectiveCost(installmentValue, principal decimal.Decimal, n int) decimal.NullDecimal {
	if n <= 0 || !principal.IsPositive() || !installmentValue.IsPositive() {
		return null
	}
	pmt, _ := installmentValue.Float64()
	pv, _ := principal.Float64()
	if pmt*float64(n) <= pv {
		return null
	}

	// Present value of the annuity at rate i, minus the principal.
	// Strictly decreasing in i, so bisection converges.
	f := func(i float64) float64 {
		return pmt*(1-math.Pow(1+i, -float64(n)))/i - pv
	}

	lo, hi := 1e-9, 10.0
	if f(hi) > 0 {
		return null
	}
	for k := 0; k < 200; k++ {
		mid := (lo + hi) / 2
		if f(mid) > 0 {
			lo = mid
		} else {
			hi = mid
		}
	}

	return nd(decimal.NewFromFloat((lo + hi) / 2 * 100))
}

// FormatCET renders the effective-cost rate with 2 decimal places. A null
// rate, or a rendering longer than 20 characters, yields nil.
func FormatCET(rate decimal.NullDecimal) *string {
	if !rate.Valid {
		return nil
	}
	s := fmt.Sprintf("%s%%", rate.Decimal.Round(PlacesMoney).StringFixed(PlacesMoney))
	if len(s) > maxCETLen {
		return nil
	}
	return &s
}
