package engine

import (
	"math/rand/v2"
	"testing"

	"github.com/shopspring/decimal"

	types "github.com/yungbote/aleator-backend/internal/domain"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decs(vals ...string) []decimal.Decimal {
	out := make([]decimal.Decimal, len(vals))
	for i, v := range vals {
		out[i] = dec(v)
	}
	return out
}

func sum(ws []decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, w := range ws {
		total = total.Add(w)
	}
	return total
}

func assertWeights(t *testing.T, got []decimal.Decimal, want ...string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d weights, want %d", len(got), len(want))
	}
	for i := range want {
		if !got[i].Equal(dec(want[i])) {
			t.Fatalf("weight %d: got %s want %s (all: %v)", i, got[i], want[i], got)
		}
	}
}

func TestRedistributeProportional(t *testing.T) {
	in := decs("40", "35", "25")
	out, applied, err := Redistribute(in, 0, dec("50"), types.GranularityWhole)
	if err != nil {
		t.Fatalf("Redistribute: %v", err)
	}
	if !applied {
		t.Fatalf("expected adjustment to apply")
	}
	// 35:25 keeps its 7:5 ratio, rounded to hundredths.
	assertWeights(t, out, "50", "29.17", "20.83")
	if !sum(out).Equal(types.Hundred) {
		t.Fatalf("sum = %s", sum(out))
	}
	assertWeights(t, in, "40", "35", "25")
}

func TestRedistributeDecrease(t *testing.T) {
	out, applied, err := Redistribute(decs("50", "30", "20"), 0, dec("40"), types.GranularityWhole)
	if err != nil || !applied {
		t.Fatalf("Redistribute: applied=%v err=%v", applied, err)
	}
	assertWeights(t, out, "40", "36", "24")
}

func TestRedistributeResidualGoesToFirstOther(t *testing.T) {
	out, applied, err := Redistribute(decs("10", "30", "30", "30"), 3, dec("20"), types.GranularityWhole)
	if err != nil || !applied {
		t.Fatalf("Redistribute: applied=%v err=%v", applied, err)
	}
	// 11.43 + 34.29 + 34.29 + 20 overshoots by 0.01; index 0 absorbs it.
	assertWeights(t, out, "11.42", "34.29", "34.29", "20")
	if !sum(out).Equal(types.Hundred) {
		t.Fatalf("sum = %s", sum(out))
	}
}

func TestRedistributeResidualNeverTouchesTarget(t *testing.T) {
	out, _, err := Redistribute(decs("30", "30", "30", "10"), 0, dec("40"), types.GranularityWhole)
	if err != nil {
		t.Fatalf("Redistribute: %v", err)
	}
	if !out[0].Equal(dec("40")) {
		t.Fatalf("target moved to %s", out[0])
	}
	if !sum(out).Equal(types.Hundred) {
		t.Fatalf("sum = %s", sum(out))
	}
}

func TestRedistributeResidualSkipsEmptyEntry(t *testing.T) {
	out, applied, err := Redistribute(decs("10", "0", "30", "30", "30"), 0, dec("20"), types.GranularityHundredth)
	if err != nil || !applied {
		t.Fatalf("Redistribute: applied=%v err=%v", applied, err)
	}
	assertWeights(t, out, "20", "0", "26.66", "26.67", "26.67")
}

func TestRedistributeEvenSpreadWhenOthersAreEmpty(t *testing.T) {
	out, applied, err := Redistribute(decs("100", "0", "0"), 0, dec("90"), types.GranularityWhole)
	if err != nil || !applied {
		t.Fatalf("Redistribute: applied=%v err=%v", applied, err)
	}
	assertWeights(t, out, "90", "5", "5")
}

func TestRedistributeClampsTarget(t *testing.T) {
	cases := []struct {
		name  string
		g     types.Granularity
		value string
		want  []string
	}{
		{"below minimum whole", types.GranularityWhole, "-5", []string{"1", "59.4", "39.6"}},
		{"below minimum hundredth", types.GranularityHundredth, "0", []string{"0.01", "59.99", "40"}},
		{"above maximum", types.GranularityWhole, "140", []string{"100", "0", "0"}},
		{"rounded to granularity", types.GranularityTenth, "12.345", []string{"12.3", "52.62", "35.08"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, applied, err := Redistribute(decs("10", "54", "36"), 0, dec(tc.value), tc.g)
			if err != nil || !applied {
				t.Fatalf("Redistribute: applied=%v err=%v", applied, err)
			}
			assertWeights(t, out, tc.want...)
			if !sum(out).Equal(types.Hundred) {
				t.Fatalf("sum = %s", sum(out))
			}
		})
	}
}

func TestRedistributeNoChange(t *testing.T) {
	in := decs("60", "40")
	out, applied, err := Redistribute(in, 1, dec("40"), types.GranularityWhole)
	if err != nil {
		t.Fatalf("Redistribute: %v", err)
	}
	if applied {
		t.Fatalf("expected no-op")
	}
	assertWeights(t, out, "60", "40")
}

func TestRedistributeRejectsPushingOthersBelowZero(t *testing.T) {
	// 99.95 is within whole-percent tolerance, but moving the target to 100
	// would need the other entry to go negative.
	in := decs("49.95", "50")
	out, applied, err := Redistribute(in, 0, dec("100"), types.GranularityWhole)
	if err != nil {
		t.Fatalf("Redistribute: %v", err)
	}
	if applied {
		t.Fatalf("expected rejection")
	}
	assertWeights(t, out, "49.95", "50")
}

func TestRedistributeValidation(t *testing.T) {
	cases := []struct {
		name    string
		weights []decimal.Decimal
		target  int
		g       types.Granularity
	}{
		{"single entry", decs("100"), 0, types.GranularityWhole},
		{"does not sum to 100", decs("50", "40"), 0, types.GranularityWhole},
		{"negative entry", decs("110", "-10"), 0, types.GranularityWhole},
		{"bad granularity", decs("50", "50"), 0, types.Granularity(3)},
		{"target out of range", decs("50", "50"), 2, types.GranularityWhole},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := Redistribute(tc.weights, tc.target, dec("10"), tc.g)
			if !IsKind(err, KindValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestRedistributeRandomWalkKeepsInvariant(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	for _, g := range []types.Granularity{types.GranularityWhole, types.GranularityTenth, types.GranularityHundredth} {
		weights := decs("20", "20", "20", "20", "20")
		unit := g.Unit()
		for step := 0; step < 2000; step++ {
			target := rng.IntN(len(weights))
			var next decimal.Decimal
			if rng.IntN(4) == 0 {
				next = decimal.NewFromFloat(rng.Float64() * 110).Sub(dec("5"))
			} else {
				steps := decimal.NewFromInt(int64(rng.IntN(21) - 10))
				next = weights[target].Add(unit.Mul(steps))
			}
			out, _, err := Redistribute(weights, target, next, g)
			if err != nil {
				t.Fatalf("g=%d step %d: %v (weights %v)", g, step, err, weights)
			}
			for i, w := range out {
				if w.IsNegative() {
					t.Fatalf("g=%d step %d: weight %d negative: %v", g, step, i, out)
				}
			}
			if sum(out).Sub(types.Hundred).Abs().GreaterThan(g.Tolerance()) {
				t.Fatalf("g=%d step %d: sum drifted to %s", g, step, sum(out))
			}
			weights = out
		}
	}
}

func TestAdjustProbability(t *testing.T) {
	p := dec("67")
	for i := 0; i < 3; i++ {
		next, applied, err := AdjustProbability(p, p.Add(dec("1")), types.GranularityWhole)
		if err != nil || !applied {
			t.Fatalf("AdjustProbability: applied=%v err=%v", applied, err)
		}
		p = next
	}
	if !p.Equal(dec("70")) {
		t.Fatalf("got %s, want 70", p)
	}

	cases := []struct {
		name  string
		p     string
		value string
		g     types.Granularity
		want  string
	}{
		{"upper clamp whole", "99", "100", types.GranularityWhole, "99"},
		{"lower clamp whole", "3", "-2", types.GranularityWhole, "1"},
		{"upper clamp hundredth", "99.5", "100", types.GranularityHundredth, "99.99"},
		{"lower clamp hundredth", "0.5", "0", types.GranularityHundredth, "0.01"},
		{"rounds to tenth", "50", "33.37", types.GranularityTenth, "33.4"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, _, err := AdjustProbability(dec(tc.p), dec(tc.value), tc.g)
			if err != nil {
				t.Fatalf("AdjustProbability: %v", err)
			}
			if !got.Equal(dec(tc.want)) {
				t.Fatalf("got %s want %s", got, tc.want)
			}
		})
	}

	if _, applied, _ := AdjustProbability(dec("99"), dec("120"), types.GranularityWhole); applied {
		t.Fatalf("clamped no-op should not report applied")
	}
	if _, _, err := AdjustProbability(dec("101"), dec("50"), types.GranularityWhole); !IsKind(err, KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestValidateProbabilityGranularity(t *testing.T) {
	cases := []struct {
		p  string
		g  types.Granularity
		ok bool
	}{
		{"67", types.GranularityWhole, true},
		{"67.00", types.GranularityWhole, true},
		{"67.5", types.GranularityWhole, false},
		{"67.5", types.GranularityTenth, true},
		{"67.25", types.GranularityTenth, false},
		{"67.25", types.GranularityHundredth, true},
		{"67.255", types.GranularityHundredth, false},
	}
	for _, tc := range cases {
		err := ValidateProbability(dec(tc.p), tc.g)
		if tc.ok && err != nil {
			t.Fatalf("ValidateProbability(%s, %d): %v", tc.p, tc.g, err)
		}
		if !tc.ok && !IsKind(err, KindValidation) {
			t.Fatalf("ValidateProbability(%s, %d) = %v, want validation error", tc.p, tc.g, err)
		}
	}
}
