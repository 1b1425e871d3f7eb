package engine

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	types "github.com/yungbote/aleator-backend/internal/domain"
)

var epoch = time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)

func confirmedRolls(followed ...bool) []*types.Roll {
	out := make([]*types.Roll, 0, len(followed))
	for i, f := range followed {
		f := f
		p := dec("50").Add(dec(string(rune('0' + i%10))))
		at := epoch.Add(time.Duration(i) * 24 * time.Hour)
		confirmedAt := at.Add(time.Hour)
		out = append(out, &types.Roll{
			ID:          uuid.New(),
			Outcome:     types.OutcomeYes,
			Snapshot:    datatypes.NewJSONType(types.Snapshot{Probability: &p}),
			Followed:    &f,
			CreatedAt:   at,
			ConfirmedAt: &confirmedAt,
		})
	}
	return out
}

func TestRate(t *testing.T) {
	cases := []struct{ followed, confirmed, want int }{
		{0, 0, 0},
		{3, 4, 75},
		{1, 2, 50},
		{2, 3, 67},
		{1, 3, 33},
		{1, 8, 13},
		{5, 5, 100},
	}
	for _, tc := range cases {
		if got := Rate(tc.followed, tc.confirmed); got != tc.want {
			t.Fatalf("Rate(%d,%d) = %d, want %d", tc.followed, tc.confirmed, got, tc.want)
		}
	}
}

func TestAnalyzeRunningRate(t *testing.T) {
	a := Analyze(confirmedRolls(true, false, true, true), AnalyticsOptions{Now: epoch})
	if a.Rate != 75 {
		t.Fatalf("rate = %d, want 75", a.Rate)
	}
	if len(a.Timeline) != 4 {
		t.Fatalf("timeline has %d points", len(a.Timeline))
	}
	wantRunning := []int{100, 50, 67, 75}
	for i, p := range a.Timeline {
		if p.RunningRate != wantRunning[i] {
			t.Fatalf("point %d running rate = %d, want %d", i+1, p.RunningRate, wantRunning[i])
		}
		if p.Index != i+1 || p.Label != "#"+string(rune('1'+i)) {
			t.Fatalf("point %d: index=%d label=%q", i+1, p.Index, p.Label)
		}
	}
	if a.Timeline[1].Snapshot.Probability == nil || !a.Timeline[1].Snapshot.Probability.Equal(dec("51")) {
		t.Fatalf("point 2 snapshot = %+v", a.Timeline[1].Snapshot)
	}
}

func TestAnalyzeIgnoresPendingRolls(t *testing.T) {
	rolls := confirmedRolls(true, false)
	rolls = append(rolls, &types.Roll{ID: uuid.New(), Outcome: types.OutcomeNo, CreatedAt: epoch.Add(72 * time.Hour)})
	a := Analyze(rolls, AnalyticsOptions{Now: epoch})
	if a.TotalRolls != 3 || a.Confirmed != 2 || a.Pending != 1 || a.Followed != 1 {
		t.Fatalf("counts = %+v", a)
	}
	if a.Rate != 50 || len(a.Timeline) != 2 {
		t.Fatalf("rate=%d points=%d", a.Rate, len(a.Timeline))
	}
}

func TestAnalyzeNoConfirmedRolls(t *testing.T) {
	a := Analyze(nil, AnalyticsOptions{})
	if a.Rate != 0 || len(a.Timeline) != 0 {
		t.Fatalf("unexpected analytics: %+v", a)
	}
}

func TestAnalyzeBoundsTimeline(t *testing.T) {
	followed := make([]bool, 12)
	for i := range followed {
		followed[i] = i%2 == 0
	}
	rolls := confirmedRolls(followed...)

	a := Analyze(rolls, AnalyticsOptions{Now: epoch})
	if len(a.Timeline) != DefaultTimelinePoints {
		t.Fatalf("got %d points", len(a.Timeline))
	}
	if a.Timeline[0].Index != 3 || a.Timeline[0].Label != "#3" {
		t.Fatalf("first point = %+v", a.Timeline[0])
	}
	// Running rate still counts the rolls that fell off the window.
	if a.Timeline[0].RunningRate != 67 {
		t.Fatalf("first point running rate = %d", a.Timeline[0].RunningRate)
	}
	if a.Rate != 50 {
		t.Fatalf("rate = %d", a.Rate)
	}

	small := Analyze(rolls, AnalyticsOptions{Points: 3, Now: epoch})
	if len(small.Timeline) != 3 || small.Timeline[0].Index != 10 {
		t.Fatalf("custom bound: %+v", small.Timeline)
	}
}

func TestAnalyzeFullHistoryUsesRelativeLabels(t *testing.T) {
	followed := make([]bool, 12)
	rolls := confirmedRolls(followed...)
	now := epoch.Add(30 * 24 * time.Hour)

	a := Analyze(rolls, AnalyticsOptions{Full: true, Now: now})
	if len(a.Timeline) != 12 {
		t.Fatalf("got %d points", len(a.Timeline))
	}
	for _, p := range a.Timeline {
		if !strings.HasSuffix(p.Label, "ago") {
			t.Fatalf("expected relative label, got %q", p.Label)
		}
	}

	short := Analyze(rolls[:4], AnalyticsOptions{Full: true, Now: now})
	if short.Timeline[0].Label != "#1" {
		t.Fatalf("full history within bound should keep sequence labels, got %q", short.Timeline[0].Label)
	}
}
