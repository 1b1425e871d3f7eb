package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/aleator-backend/internal/domain"
)

func SeedBinaryDecision(tb testing.TB, ctx context.Context, tx *gorm.DB, ownerID uuid.UUID, probability string) *types.Decision {
	tb.Helper()
	id := uuid.New()
	d := &types.Decision{
		ID:          id,
		OwnerUserID: ownerID,
		Title:       "binary",
		Kind:        types.KindBinary,
		Granularity: types.GranularityWhole,
		Binary: &types.BinaryParameters{
			DecisionID:  id,
			Probability: decimal.RequireFromString(probability),
			YesLabel:    "Yes",
			NoLabel:     "No",
		},
	}
	if err := tx.WithContext(ctx).Create(d).Error; err != nil {
		tb.Fatalf("seed binary decision: %v", err)
	}
	return d
}

func SeedWeightedDecision(tb testing.TB, ctx context.Context, tx *gorm.DB, ownerID uuid.UUID, weights ...string) *types.Decision {
	tb.Helper()
	id := uuid.New()
	d := &types.Decision{
		ID:          id,
		OwnerUserID: ownerID,
		Title:       "weighted",
		Kind:        types.KindWeightedChoice,
		Granularity: types.GranularityWhole,
	}
	for i, w := range weights {
		d.Choices = append(d.Choices, &types.WeightedChoice{
			ID:           uuid.New(),
			DecisionID:   id,
			Name:         string(rune('A' + i)),
			Weight:       decimal.RequireFromString(w),
			DisplayOrder: i,
		})
	}
	if err := tx.WithContext(ctx).Create(d).Error; err != nil {
		tb.Fatalf("seed weighted decision: %v", err)
	}
	return d
}

// SeedRoll inserts a roll; followed nil leaves it pending.
func SeedRoll(tb testing.TB, ctx context.Context, tx *gorm.DB, d *types.Decision, followed *bool, at time.Time) *types.Roll {
	tb.Helper()
	r := &types.Roll{
		ID:         uuid.New(),
		DecisionID: d.ID,
		Outcome:    types.OutcomeYes,
		Snapshot:   datatypes.NewJSONType(d.Baseline()),
		Followed:   followed,
		CreatedAt:  at,
	}
	if followed != nil {
		confirmed := at.Add(time.Minute)
		r.ConfirmedAt = &confirmed
	}
	if err := tx.WithContext(ctx).Create(r).Error; err != nil {
		tb.Fatalf("seed roll: %v", err)
	}
	return r
}

func PtrBool(v bool) *bool { return &v }

func PtrUUID(v uuid.UUID) *uuid.UUID { return &v }
