package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yungbote/aleator-backend/internal/data/repos"
	"github.com/yungbote/aleator-backend/internal/data/repos/testutil"
	types "github.com/yungbote/aleator-backend/internal/domain"
	"github.com/yungbote/aleator-backend/internal/engine"
	"github.com/yungbote/aleator-backend/internal/pkg/dbctx"
)

type fixedSource float64

func (f fixedSource) Float64() float64 { return float64(f) }

func newStore(t *testing.T) (*DecisionStore, repos.DecisionRepo, repos.WeightHistoryRepo) {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	decisions := repos.NewDecisionRepo(db, log)
	history := repos.NewWeightHistoryRepo(db, log)
	return NewDecisionStore(db, log, decisions, repos.NewRollRepo(db, log), history), decisions, history
}

func TestDecisionStoreLifecycle(t *testing.T) {
	s, decisions, history := newStore(t)
	ctx := context.Background()
	d := testutil.SeedBinaryDecision(t, ctx, s.db, uuid.New(), "67")

	now := time.Now().UTC().Truncate(time.Second)
	clock := func() time.Time { return now }
	e := engine.New(s, engine.WithSource(fixedSource(0.5)), engine.WithClock(clock))

	p := decimal.NewFromInt(70)
	roll, err := e.Roll(ctx, d.ID, &types.Snapshot{Probability: &p})
	if err != nil {
		t.Fatalf("Roll: %v", err)
	}
	if roll.Outcome != types.OutcomeYes || !roll.UsedDraft {
		t.Fatalf("unexpected roll %+v", roll)
	}
	if _, err := e.Roll(ctx, d.ID, nil); !engine.IsKind(err, engine.KindConflict) {
		t.Fatalf("second roll: expected conflict, got %v", err)
	}

	pending, err := e.PendingRoll(ctx, d.ID)
	if err != nil || pending == nil || pending.ID != roll.ID {
		t.Fatalf("PendingRoll: %+v, %v", pending, err)
	}

	if _, err := e.Confirm(ctx, d.ID, roll.ID, true); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if _, err := e.Confirm(ctx, d.ID, roll.ID, true); !engine.IsKind(err, engine.KindNotFound) {
		t.Fatalf("second confirm: expected not_found, got %v", err)
	}

	got, err := decisions.GetByID(dbctx.Context{Ctx: ctx}, d.ID)
	if err != nil || !got.Binary.Probability.Equal(p) {
		t.Fatalf("committed probability = %v, %v", got, err)
	}
	rows, err := history.ListByDecision(dbctx.Context{Ctx: ctx}, d.ID, 0)
	if err != nil || len(rows) != 1 || rows[0].RollID == nil || *rows[0].RollID != roll.ID {
		t.Fatalf("history = %+v, %v", rows, err)
	}

	a, err := e.Analytics(ctx, d.ID, engine.AnalyticsOptions{})
	if err != nil || a.Rate != 100 || a.Confirmed != 1 {
		t.Fatalf("Analytics: %+v, %v", a, err)
	}
}

func TestDecisionStoreUnfollowedKeepsWeights(t *testing.T) {
	s, decisions, history := newStore(t)
	ctx := context.Background()
	d := testutil.SeedWeightedDecision(t, ctx, s.db, uuid.New(), "40", "35", "25")
	e := engine.New(s, engine.WithSource(fixedSource(0.1)))

	v := decimal.NewFromInt(50)
	draft, _, err := e.AdjustDraft(ctx, d.ID, nil, engine.Adjustment{ChoiceID: d.Choices[0].ID, Value: &v})
	if err != nil {
		t.Fatalf("AdjustDraft: %v", err)
	}
	roll, err := e.Roll(ctx, d.ID, &draft)
	if err != nil {
		t.Fatalf("Roll: %v", err)
	}
	if roll.Outcome != "A" {
		t.Fatalf("outcome = %s", roll.Outcome)
	}
	if _, err := e.Confirm(ctx, d.ID, roll.ID, false); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	got, _ := decisions.GetByID(dbctx.Context{Ctx: ctx}, d.ID)
	if !got.Baseline().Equal(d.Baseline()) {
		t.Fatalf("baseline changed after unfollowed roll: %+v", got.Baseline())
	}
	if rows, _ := history.ListByDecision(dbctx.Context{Ctx: ctx}, d.ID, 0); len(rows) != 0 {
		t.Fatalf("unexpected history rows: %d", len(rows))
	}
}

func TestDecisionStoreCooldown(t *testing.T) {
	s, _, _ := newStore(t)
	ctx := context.Background()
	d := testutil.SeedBinaryDecision(t, ctx, s.db, uuid.New(), "50")
	if err := s.db.Model(d).Update("cooldown_seconds", 3600).Error; err != nil {
		t.Fatalf("set cooldown: %v", err)
	}

	now := time.Now().UTC().Truncate(time.Second)
	e := engine.New(s, engine.WithSource(fixedSource(0.5)), engine.WithClock(func() time.Time { return now }))
	roll, err := e.Roll(ctx, d.ID, nil)
	if err != nil {
		t.Fatalf("Roll: %v", err)
	}
	if _, err := e.Confirm(ctx, d.ID, roll.ID, true); err != nil {
		t.Fatalf("Confirm: %v", err)
	}

	now = now.Add(59 * time.Minute)
	if _, err := e.Roll(ctx, d.ID, nil); !engine.IsKind(err, engine.KindCooldown) {
		t.Fatalf("expected cooldown, got %v", err)
	}
	now = now.Add(time.Minute)
	if _, err := e.Roll(ctx, d.ID, nil); err != nil {
		t.Fatalf("roll after cooldown: %v", err)
	}
}

func TestDecisionStoreConcurrentRolls(t *testing.T) {
	s, _, _ := newStore(t)
	ctx := context.Background()
	d := testutil.SeedBinaryDecision(t, ctx, s.db, uuid.New(), "50")
	e := engine.New(s)

	const n = 8
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.Roll(ctx, d.ID, nil)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	ok := 0
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case !engine.IsKind(err, engine.KindConflict):
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 {
		t.Fatalf("%d rolls succeeded, want 1", ok)
	}
	rolls, err := s.ListRolls(ctx, d.ID)
	if err != nil || len(rolls) != 1 {
		t.Fatalf("ListRolls: %d, %v", len(rolls), err)
	}
}

func TestDecisionStoreMissingDecision(t *testing.T) {
	s, _, _ := newStore(t)
	e := engine.New(s)
	if _, err := e.Roll(context.Background(), uuid.New(), nil); !engine.IsKind(err, engine.KindNotFound) {
		t.Fatalf("expected not_found, got %v", err)
	}
}
