package engine

import (
	"math/rand/v2"

	"github.com/shopspring/decimal"

	types "github.com/yungbote/aleator-backend/internal/domain"
)

// Source yields uniform floats in [0,1). *rand.Rand satisfies it.
type Source interface {
	Float64() float64
}

type globalSource struct{}

func (globalSource) Float64() float64 { return rand.Float64() }

// DefaultSource draws from the runtime's ChaCha8 generator, which is safe for
// concurrent use.
func DefaultSource() Source { return globalSource{} }

// NewSeededSource is deterministic for a given seed. Not safe for concurrent
// use.
func NewSeededSource(seed uint64) Source {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

type Entry struct {
	Label  string
	Weight decimal.Decimal
}

// Sample picks one entry with probability weight/100. Entries are walked in
// the given order and the first whose running total reaches r wins, so ties at
// a boundary go to the earlier entry. Zero-weight entries are never picked.
// If drift leaves r above every running total, the last positive entry wins.
func Sample(src Source, entries []Entry) (string, error) {
	if len(entries) == 0 {
		return "", Validationf("nothing to sample from")
	}
	r := decimal.NewFromFloat(src.Float64()).Mul(types.Hundred)

	last := -1
	cumulative := decimal.Zero
	for i, e := range entries {
		if !e.Weight.IsPositive() {
			continue
		}
		last = i
		cumulative = cumulative.Add(e.Weight)
		if cumulative.GreaterThanOrEqual(r) {
			return e.Label, nil
		}
	}
	if last < 0 {
		return "", Validationf("all weights are zero")
	}
	return entries[last].Label, nil
}

// SampleBinary resolves a yes/no decision with P(yes) = p/100.
func SampleBinary(src Source, p decimal.Decimal) (string, error) {
	return Sample(src, []Entry{
		{Label: types.OutcomeYes, Weight: p},
		{Label: types.OutcomeNo, Weight: types.Hundred.Sub(p)},
	})
}

// SampleSnapshot resolves a decision from the odds in s.
func SampleSnapshot(src Source, kind types.Kind, s types.Snapshot) (string, error) {
	switch kind {
	case types.KindBinary:
		if s.Probability == nil {
			return "", Validationf("binary snapshot has no probability")
		}
		return SampleBinary(src, *s.Probability)
	case types.KindWeightedChoice:
		entries := make([]Entry, 0, len(s.Weights))
		for _, w := range s.Weights {
			entries = append(entries, Entry{Label: w.Name, Weight: w.Weight})
		}
		return Sample(src, entries)
	default:
		return "", Validationf("unknown decision kind %q", kind)
	}
}
