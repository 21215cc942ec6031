package valuation

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Observed precisions across the engine: 0 for counts, 2 for money, 4 for
// percentages.
const (
	PlacesCount   int32 = 0
	PlacesMoney   int32 = 2
	PlacesPercent int32 = 4
)

// Quantize converts a numeric input losslessly to a Decimal and rounds it
// half-away-from-zero to the given number of places. It is the single source
// of truth for numeric formatting in the engine.
//
// A nil input must never reach this helper: callers decide null propagation
// before calling. Nil (or an invalid NullDecimal, or an unsupported type) is
// a programming error and panics.
func Quantize(v any, places int32) decimal.Decimal {
	switch x := v.(type) {
	case decimal.Decimal:
		return x.Round(places)
	case decimal.NullDecimal:
		if !x.Valid {
			panic("quantize: null decimal input")
		}
		return x.Decimal.Round(places)
	case int:
		return decimal.NewFromInt(int64(x)).Round(places)
	case int32:
		return decimal.NewFromInt(int64(x)).Round(places)
	case int64:
		return decimal.NewFromInt(x).Round(places)
	case float64:
		return decimal.NewFromFloat(x).Round(places)
	case string:
		d, err := decimal.NewFromString(x)
		if err != nil {
			panic(fmt.Sprintf("quantize: bad numeric string %q: %v", x, err))
		}
		return d.Round(places)
	case nil:
		panic("quantize: nil input")
	default:
		panic(fmt.Sprintf("quantize: unsupported input type %T", v))
	}
}

// null is the invalid NullDecimal, the engine's representation of "not
// configured".
var null = decimal.NullDecimal{}

// nd wraps a concrete decimal as a valid NullDecimal.
func nd(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

// quantizeNull quantizes a nullable value, propagating null.
func quantizeNull(v decimal.NullDecimal, places int32) decimal.NullDecimal {
	if !v.Valid {
		return null
	}
	return nd(v.Decimal.Round(places))
}

// mulNull multiplies a nullable factor by a concrete one, propagating null.
func mulNull(a decimal.NullDecimal, b decimal.Decimal) decimal.NullDecimal {
	if !a.Valid {
		return null
	}
	return nd(a.Decimal.Mul(b))
}

// orZero collapses "not configured" to zero, the fail-soft default for most
// cascade parameters.
func orZero(v decimal.NullDecimal) decimal.Decimal {
	if !v.Valid {
		return decimal.Zero
	}
	return v.Decimal
}
