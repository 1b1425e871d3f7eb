package engine

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	types "github.com/yungbote/aleator-backend/internal/domain"
)

// Adjustment is one explicit increment/decrement (Delta) or numeric entry
// (Value) on a single entry. ChoiceID selects the entry of a weighted-choice
// decision and is ignored for binary ones, where the target is always the
// "yes" probability.
type Adjustment struct {
	ChoiceID uuid.UUID
	Delta    *decimal.Decimal
	Value    *decimal.Decimal
}

// ResolveDraft checks a client-held draft against d and returns it in d's
// display order with choice names filled in. A nil draft resolves to the
// committed baseline.
func ResolveDraft(d *types.Decision, draft *types.Snapshot) (types.Snapshot, error) {
	if d == nil {
		return types.Snapshot{}, NotFoundf("decision not found")
	}
	if draft == nil {
		return d.Baseline(), nil
	}
	switch d.Kind {
	case types.KindBinary:
		if draft.Probability == nil {
			return types.Snapshot{}, Validationf("draft for a binary decision needs a probability")
		}
		p := *draft.Probability
		if err := ValidateProbability(p, d.Granularity); err != nil {
			return types.Snapshot{}, err
		}
		return types.Snapshot{Probability: &p}, nil
	case types.KindWeightedChoice:
		byID := make(map[uuid.UUID]decimal.Decimal, len(draft.Weights))
		for _, w := range draft.Weights {
			if _, dup := byID[w.ChoiceID]; dup {
				return types.Snapshot{}, Validationf("choice %s appears twice in draft", w.ChoiceID)
			}
			byID[w.ChoiceID] = w.Weight.Round(types.WeightScale)
		}
		if len(byID) != len(d.Choices) {
			return types.Snapshot{}, Validationf("draft must provide a weight for every choice")
		}
		out := types.Snapshot{Weights: make([]types.ChoiceWeight, 0, len(d.Choices))}
		weights := make([]decimal.Decimal, 0, len(d.Choices))
		for _, c := range d.Choices {
			w, ok := byID[c.ID]
			if !ok {
				return types.Snapshot{}, Validationf("draft is missing choice %s", c.ID)
			}
			out.Weights = append(out.Weights, types.ChoiceWeight{ChoiceID: c.ID, Name: c.Name, Weight: w})
			weights = append(weights, w)
		}
		if err := ValidateWeights(weights, d.Granularity); err != nil {
			return types.Snapshot{}, err
		}
		return out, nil
	default:
		return types.Snapshot{}, Validationf("unknown decision kind %q", d.Kind)
	}
}

// AdjustDraft applies adj on top of draft (or the committed baseline when
// draft is nil) and returns the new draft. Nothing is persisted. applied is
// false when the adjustment was a no-op or was rejected because it would push
// the other entries below zero.
func AdjustDraft(d *types.Decision, draft *types.Snapshot, adj Adjustment) (types.Snapshot, bool, error) {
	if (adj.Delta == nil) == (adj.Value == nil) {
		return types.Snapshot{}, false, Validationf("exactly one of delta or value is required")
	}
	current, err := ResolveDraft(d, draft)
	if err != nil {
		return types.Snapshot{}, false, err
	}

	switch d.Kind {
	case types.KindBinary:
		if current.Probability == nil {
			return types.Snapshot{}, false, Validationf("binary decision has no probability")
		}
		p := *current.Probability
		next, applied, err := AdjustProbability(p, targetValue(p, adj), d.Granularity)
		if err != nil {
			return current, false, err
		}
		return types.Snapshot{Probability: &next}, applied, nil
	default:
		idx := -1
		weights := make([]decimal.Decimal, len(current.Weights))
		for i, w := range current.Weights {
			weights[i] = w.Weight
			if w.ChoiceID == adj.ChoiceID {
				idx = i
			}
		}
		if idx < 0 {
			return current, false, NotFoundf("choice %s not found", adj.ChoiceID)
		}
		next, applied, err := Redistribute(weights, idx, targetValue(weights[idx], adj), d.Granularity)
		if err != nil {
			return current, false, err
		}
		out := types.Snapshot{Weights: make([]types.ChoiceWeight, len(current.Weights))}
		for i, w := range current.Weights {
			w.Weight = next[i]
			out.Weights[i] = w
		}
		return out, applied, nil
	}
}

func targetValue(current decimal.Decimal, adj Adjustment) decimal.Decimal {
	if adj.Value != nil {
		return *adj.Value
	}
	return current.Add(*adj.Delta)
}
