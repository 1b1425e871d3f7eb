package decisions

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/aleator-backend/internal/data/repos/testutil"
	types "github.com/yungbote/aleator-backend/internal/domain"
	"github.com/yungbote/aleator-backend/internal/pkg/dbctx"
)

func TestRollRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	repo := NewRollRepo(db, testutil.Logger(t))
	owner := uuid.New()
	d := testutil.SeedBinaryDecision(t, ctx, tx, owner, "50")
	other := testutil.SeedBinaryDecision(t, ctx, tx, owner, "50")

	base := time.Now().UTC().Add(-time.Hour).Truncate(time.Second)
	first := testutil.SeedRoll(t, ctx, tx, d, testutil.PtrBool(true), base)
	second := testutil.SeedRoll(t, ctx, tx, d, testutil.PtrBool(false), base.Add(10*time.Minute))
	pending := testutil.SeedRoll(t, ctx, tx, d, nil, base.Add(20*time.Minute))

	got, err := repo.GetPending(dbc, d.ID)
	if err != nil || got == nil || got.ID != pending.ID {
		t.Fatalf("GetPending: %+v, %v", got, err)
	}
	if none, err := repo.GetPending(dbc, other.ID); err != nil || none != nil {
		t.Fatalf("GetPending on idle decision: %+v, %v", none, err)
	}
	last, err := repo.GetLastConfirmed(dbc, d.ID)
	if err != nil || last == nil || last.ID != second.ID {
		t.Fatalf("GetLastConfirmed: %+v, %v", last, err)
	}

	// A second unconfirmed roll violates the one-pending index.
	dup := &types.Roll{DecisionID: d.ID, Outcome: types.OutcomeNo, CreatedAt: base.Add(30 * time.Minute)}
	sp := tx.SavePoint("dup")
	if _, err := repo.Create(dbc, dup); !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Fatalf("Create second pending: expected duplicate key, got %v", err)
	}
	sp.RollbackTo("dup")

	ok, err := repo.ConfirmPending(dbc, d.ID, pending.ID, true, base.Add(25*time.Minute))
	if err != nil || !ok {
		t.Fatalf("ConfirmPending: %v, %v", ok, err)
	}
	if ok, err := repo.ConfirmPending(dbc, d.ID, pending.ID, false, base.Add(26*time.Minute)); err != nil || ok {
		t.Fatalf("ConfirmPending twice: %v, %v", ok, err)
	}
	if ok, err := repo.ConfirmPending(dbc, other.ID, first.ID, true, base); err != nil || ok {
		t.Fatalf("ConfirmPending under wrong decision: %v, %v", ok, err)
	}
	confirmed, err := repo.GetByID(dbc, d.ID, pending.ID)
	if err != nil || confirmed.State() != types.FollowFollowed || confirmed.ConfirmedAt == nil {
		t.Fatalf("GetByID after confirm: %+v, %v", confirmed, err)
	}

	list, err := repo.ListByDecision(dbc, d.ID)
	if err != nil || len(list) != 3 {
		t.Fatalf("ListByDecision: %d, %v", len(list), err)
	}
	if list[0].ID != first.ID || list[2].ID != pending.ID {
		t.Fatalf("ListByDecision: not oldest first")
	}
	if !list[0].Snapshot.Data().Probability.Equal(d.Binary.Probability) {
		t.Fatalf("snapshot did not round-trip: %+v", list[0].Snapshot.Data())
	}

	counts, err := repo.CountsByDecision(dbc, []uuid.UUID{d.ID, other.ID})
	if err != nil {
		t.Fatalf("CountsByDecision: %v", err)
	}
	if c := counts[d.ID]; c.Total != 3 || c.Confirmed != 3 || c.Followed != 2 {
		t.Fatalf("CountsByDecision: %+v", c)
	}
	if _, ok := counts[other.ID]; ok {
		t.Fatalf("CountsByDecision: unexpected entry for decision without rolls")
	}

	if n, err := repo.CountByOwner(dbc, owner); err != nil || n != 3 {
		t.Fatalf("CountByOwner: %d, %v", n, err)
	}
	if n, err := repo.CountCreatedSince(dbc, base.Add(5*time.Minute)); err != nil || n < 2 {
		t.Fatalf("CountCreatedSince: %d, %v", n, err)
	}
	if n, err := repo.CountActiveOwnersSince(dbc, base.Add(-time.Minute)); err != nil || n < 1 {
		t.Fatalf("CountActiveOwnersSince: %d, %v", n, err)
	}
}

func TestWeightHistoryRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	repo := NewWeightHistoryRepo(db, testutil.Logger(t))
	d := testutil.SeedWeightedDecision(t, ctx, tx, uuid.New(), "50", "50")

	now := time.Now().UTC().Truncate(time.Second)
	rows := []*types.WeightHistory{
		{DecisionID: d.ID, ChoiceID: testutil.PtrUUID(d.Choices[0].ID), Value: d.Choices[0].Weight, ChangedAt: now.Add(-time.Hour)},
		{DecisionID: d.ID, ChoiceID: testutil.PtrUUID(d.Choices[1].ID), Value: d.Choices[1].Weight, ChangedAt: now},
	}
	if _, err := repo.Create(dbc, rows); err != nil {
		t.Fatalf("Create: %v", err)
	}
	got, err := repo.ListByDecision(dbc, d.ID, 0)
	if err != nil || len(got) != 2 {
		t.Fatalf("ListByDecision: %d, %v", len(got), err)
	}
	if *got[0].ChoiceID != d.Choices[1].ID {
		t.Fatalf("ListByDecision: expected newest first")
	}
	limited, err := repo.ListByDecision(dbc, d.ID, 1)
	if err != nil || len(limited) != 1 {
		t.Fatalf("ListByDecision limit: %d, %v", len(limited), err)
	}
}
