package engine

import (
	"github.com/shopspring/decimal"

	types "github.com/yungbote/aleator-backend/internal/domain"
)

// ValidateWeights checks the standing weighted-choice invariant: at least two
// entries, none outside [0,100], summing to 100 within the granularity's
// tolerance.
func ValidateWeights(weights []decimal.Decimal, g types.Granularity) error {
	if !g.Valid() {
		return Validationf("granularity must be 0, 1 or 2, got %d", g)
	}
	if len(weights) < 2 {
		return Validationf("a weighted-choice decision needs at least 2 choices, got %d", len(weights))
	}
	sum := decimal.Zero
	for i, w := range weights {
		if w.IsNegative() || w.GreaterThan(types.Hundred) {
			return Validationf("weight %d must be between 0 and 100, got %s", i, w.String())
		}
		sum = sum.Add(w)
	}
	if sum.Sub(types.Hundred).Abs().GreaterThan(g.Tolerance()) {
		return Validationf("weights must sum to 100, got %s", sum.String())
	}
	return nil
}

// ValidateProbability checks a binary probability: within [0,100] and
// expressed at the decision's granularity.
func ValidateProbability(p decimal.Decimal, g types.Granularity) error {
	if !g.Valid() {
		return Validationf("granularity must be 0, 1 or 2, got %d", g)
	}
	if p.IsNegative() || p.GreaterThan(types.Hundred) {
		return Validationf("probability must be between 0 and 100, got %s", p.String())
	}
	if !g.Round(p).Equal(p) {
		return Validationf("probability %s has more than %d decimal places", p.String(), g)
	}
	return nil
}

// ProbabilityRange is the legal range of an adjusted binary probability.
func ProbabilityRange(g types.Granularity) (decimal.Decimal, decimal.Decimal) {
	unit := g.Unit()
	return unit, types.Hundred.Sub(unit)
}

// WeightRange is the legal range of an adjusted choice weight.
func WeightRange(g types.Granularity) (decimal.Decimal, decimal.Decimal) {
	return g.Unit(), types.Hundred
}

// AdjustProbability moves a binary probability to value, clamped to the legal
// range. The "no" side is implied as 100 minus the result. The bool reports
// whether anything changed.
func AdjustProbability(p, value decimal.Decimal, g types.Granularity) (decimal.Decimal, bool, error) {
	if err := ValidateProbability(p, g); err != nil {
		return p, false, err
	}
	lo, hi := ProbabilityRange(g)
	next := clamp(g.Round(value), lo, hi)
	if next.Equal(p) {
		return p, false, nil
	}
	return next, true, nil
}

// Redistribute sets weights[target] to value (clamped) and moves the other
// entries by the opposite amount, proportionally to their current share, so
// the set keeps summing to 100. The input slice is never modified. When the
// move is not possible the original weights come back with applied=false.
//
// Rounding residue goes to the first non-target entry. This deliberately
// differs from clamping that entry at 0 and dropping the rest: when the entry
// would go negative it is floored at 0 and the remainder carries to the next
// non-target entry, so the sum stays exactly 100.
func Redistribute(weights []decimal.Decimal, target int, value decimal.Decimal, g types.Granularity) ([]decimal.Decimal, bool, error) {
	if err := ValidateWeights(weights, g); err != nil {
		return weights, false, err
	}
	if target < 0 || target >= len(weights) {
		return weights, false, Validationf("target index %d out of range", target)
	}

	out := make([]decimal.Decimal, len(weights))
	copy(out, weights)

	lo, hi := WeightRange(g)
	next := clamp(g.Round(value), lo, hi)
	delta := next.Sub(weights[target])
	if delta.IsZero() {
		return out, false, nil
	}

	others := decimal.Zero
	for i, w := range weights {
		if i != target {
			others = others.Add(w)
		}
	}
	// The others absorb -delta; they may not be pushed below zero together.
	if others.Sub(delta).IsNegative() {
		return out, false, nil
	}

	out[target] = next
	if others.IsPositive() {
		for i, w := range weights {
			if i == target {
				continue
			}
			share := delta.Mul(w).Div(others)
			out[i] = floorZero(w.Sub(share).Round(types.WeightScale))
		}
	} else {
		each := delta.Neg().Div(decimal.NewFromInt(int64(len(weights) - 1)))
		for i := range weights {
			if i != target {
				out[i] = floorZero(each.Round(types.WeightScale))
			}
		}
	}

	sum := decimal.Zero
	for _, w := range out {
		sum = sum.Add(w)
	}
	// Rounding residue lands on the first non-target entry. An entry that
	// would go below zero is floored and the remainder moves to the next one.
	residual := types.Hundred.Sub(sum)
	for i := range out {
		if residual.IsZero() {
			break
		}
		if i == target {
			continue
		}
		adjusted := out[i].Add(residual)
		if adjusted.IsNegative() {
			residual = adjusted
			out[i] = decimal.Zero
			continue
		}
		out[i] = adjusted
		residual = decimal.Zero
	}
	return out, true, nil
}

func clamp(v, lo, hi decimal.Decimal) decimal.Decimal {
	if v.LessThan(lo) {
		return lo
	}
	if v.GreaterThan(hi) {
		return hi
	}
	return v
}

func floorZero(v decimal.Decimal) decimal.Decimal {
	if v.IsNegative() {
		return decimal.Zero
	}
	return v
}
