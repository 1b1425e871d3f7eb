package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	types "github.com/yungbote/aleator-backend/internal/domain"
	"github.com/yungbote/aleator-backend/internal/engine"
	apperrors "github.com/yungbote/aleator-backend/internal/pkg/errors"
)

func TestDecisionServiceCreateAndList(t *testing.T) {
	h := newHarness(t, Limits{}, fixedSource(0.5))
	owner := uuid.New()
	ctx := asUser(owner)

	first, err := h.decisions.Create(ctx, CreateDecisionInput{Title: " Gym ", Kind: types.KindBinary, Probability: ptrDec("67")})
	if err != nil {
		t.Fatalf("Create binary: %v", err)
	}
	if first.Title != "Gym" || first.Binary.YesLabel != "Yes" || first.DisplayOrder != 0 {
		t.Fatalf("unexpected decision %+v", first)
	}
	second, err := h.decisions.Create(ctx, weightedInput("40", "35", "25"))
	if err != nil {
		t.Fatalf("Create weighted: %v", err)
	}
	if second.DisplayOrder != 1 || len(second.Choices) != 3 {
		t.Fatalf("unexpected decision %+v", second)
	}

	list, err := h.decisions.List(ctx)
	if err != nil || len(list) != 2 || list[0].ID != first.ID {
		t.Fatalf("List: %+v, %v", list, err)
	}
	if others, _ := h.decisions.List(asUser(uuid.New())); len(others) != 0 {
		t.Fatalf("another owner sees %d decisions", len(others))
	}
	if _, err := h.decisions.Get(asUser(uuid.New()), first.ID); !engine.IsKind(err, engine.KindNotFound) {
		t.Fatalf("Get by non-owner: %v", err)
	}

	history, err := h.decisions.History(ctx, second.ID, 0)
	if err != nil || len(history) != 3 {
		t.Fatalf("History after create: %d, %v", len(history), err)
	}
}

func TestDecisionServiceCreateValidation(t *testing.T) {
	h := newHarness(t, Limits{}, fixedSource(0.5))
	ctx := asUser(uuid.New())
	cases := []struct {
		name string
		in   CreateDecisionInput
	}{
		{"missing title", CreateDecisionInput{Kind: types.KindBinary, Probability: ptrDec("50")}},
		{"unknown kind", CreateDecisionInput{Title: "x", Kind: "coin"}},
		{"binary without probability", CreateDecisionInput{Title: "x", Kind: types.KindBinary}},
		{"probability above 100", CreateDecisionInput{Title: "x", Kind: types.KindBinary, Probability: ptrDec("101")}},
		{"negative cooldown", CreateDecisionInput{Title: "x", Kind: types.KindBinary, Probability: ptrDec("50"), CooldownSeconds: -1}},
		{"bad granularity", CreateDecisionInput{Title: "x", Kind: types.KindBinary, Probability: ptrDec("50"), Granularity: 4}},
		{"one choice", weightedInput("100")},
		{"weights off", weightedInput("50", "40")},
		{"zero weight", weightedInput("100", "0")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := h.decisions.Create(ctx, tc.in); !engine.IsKind(err, engine.KindValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}

	dup := weightedInput("50", "50")
	dup.Choices[1].Name = "A"
	if _, err := h.decisions.Create(ctx, dup); !engine.IsKind(err, engine.KindValidation) {
		t.Fatalf("duplicate names: %v", err)
	}
	if _, err := h.decisions.Create(context.Background(), weightedInput("50", "50")); !errors.Is(err, apperrors.ErrUnauthorized) {
		t.Fatalf("no request user: %v", err)
	}
}

func TestDecisionServiceLimit(t *testing.T) {
	h := newHarness(t, Limits{MaxDecisionsPerUser: 2}, fixedSource(0.5))
	ctx := asUser(uuid.New())
	for i := 0; i < 2; i++ {
		if _, err := h.decisions.Create(ctx, weightedInput("50", "50")); err != nil {
			t.Fatalf("Create %d: %v", i, err)
		}
	}
	_, err := h.decisions.Create(ctx, weightedInput("50", "50"))
	if !engine.IsKind(err, engine.KindValidation) || !isLimitError(err) {
		t.Fatalf("expected limit error, got %v", err)
	}
}

func TestDecisionServiceUpdate(t *testing.T) {
	h := newHarness(t, Limits{}, fixedSource(0.5))
	ctx := asUser(uuid.New())
	d, err := h.decisions.Create(ctx, weightedInput("40", "35", "25"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	title := "Lunch"
	name := "pasta"
	cooldown := int64(3600)
	updated, err := h.decisions.Update(ctx, d.ID, UpdateDecisionInput{
		Title:           &title,
		CooldownSeconds: &cooldown,
		Choices: []ChoiceUpdate{
			{ID: d.Choices[0].ID, Name: &name, Weight: ptrDec("50")},
			{ID: d.Choices[1].ID, Weight: ptrDec("30")},
			{ID: d.Choices[2].ID, Weight: ptrDec("20")},
		},
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Title != "Lunch" || updated.CooldownSeconds != 3600 || updated.Choices[0].Name != "pasta" {
		t.Fatalf("unexpected update %+v", updated)
	}
	if !updated.Choices[0].Weight.Equal(dec("50")) || !updated.Choices[2].Weight.Equal(dec("20")) {
		t.Fatalf("weights not applied: %+v", updated.Baseline())
	}
	history, _ := h.decisions.History(ctx, d.ID, 0)
	if len(history) != 6 {
		t.Fatalf("history rows = %d, want 6", len(history))
	}

	partial := UpdateDecisionInput{Choices: []ChoiceUpdate{{ID: d.Choices[0].ID, Weight: ptrDec("60")}}}
	if _, err := h.decisions.Update(ctx, d.ID, partial); !engine.IsKind(err, engine.KindValidation) {
		t.Fatalf("partial weight edit: %v", err)
	}
	if _, err := h.decisions.Update(ctx, d.ID, UpdateDecisionInput{Probability: ptrDec("50")}); !engine.IsKind(err, engine.KindValidation) {
		t.Fatalf("probability on weighted decision: %v", err)
	}
	if _, err := h.decisions.Update(asUser(uuid.New()), d.ID, UpdateDecisionInput{Title: &title}); !engine.IsKind(err, engine.KindNotFound) {
		t.Fatalf("update by non-owner: %v", err)
	}
}

func TestDecisionServiceRenameKeepsNamesUnique(t *testing.T) {
	h := newHarness(t, Limits{}, fixedSource(0.9))
	ctx := asUser(uuid.New())
	d, err := h.decisions.Create(ctx, weightedInput("40", "35", "25"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	clash := " A "
	_, err = h.decisions.Update(ctx, d.ID, UpdateDecisionInput{Choices: []ChoiceUpdate{{ID: d.Choices[2].ID, Name: &clash}}})
	if !engine.IsKind(err, engine.KindValidation) {
		t.Fatalf("rename onto an existing name: %v", err)
	}
	both := "x"
	_, err = h.decisions.Update(ctx, d.ID, UpdateDecisionInput{Choices: []ChoiceUpdate{
		{ID: d.Choices[0].ID, Name: &both},
		{ID: d.Choices[1].ID, Name: &both},
	}})
	if !engine.IsKind(err, engine.KindValidation) {
		t.Fatalf("two choices renamed alike: %v", err)
	}
	got, _ := h.decisions.Get(ctx, d.ID)
	for i, want := range []string{"a", "b", "c"} {
		if got.Choices[i].Name != want {
			t.Fatalf("choice %d renamed to %q by a rejected update", i, got.Choices[i].Name)
		}
	}

	// Swapping two names in one update is fine.
	a, b := "b", "a"
	swapped, err := h.decisions.Update(ctx, d.ID, UpdateDecisionInput{Choices: []ChoiceUpdate{
		{ID: d.Choices[0].ID, Name: &a},
		{ID: d.Choices[1].ID, Name: &b},
	}})
	if err != nil {
		t.Fatalf("swap names: %v", err)
	}
	if swapped.Choices[0].Name != "b" || swapped.Choices[1].Name != "a" {
		t.Fatalf("swap not applied: %q %q", swapped.Choices[0].Name, swapped.Choices[1].Name)
	}

	// r=0.9 lands on the last choice; its outcome must name only that choice.
	r, err := h.rolls.Roll(ctx, d.ID, nil)
	if err != nil {
		t.Fatalf("Roll: %v", err)
	}
	if r.Outcome != "c" {
		t.Fatalf("outcome = %q, want c", r.Outcome)
	}
}

func TestDecisionServiceBinaryGranularity(t *testing.T) {
	h := newHarness(t, Limits{}, fixedSource(0.5))
	ctx := asUser(uuid.New())

	in := CreateDecisionInput{Title: "Run", Kind: types.KindBinary, Probability: ptrDec("67.5")}
	if _, err := h.decisions.Create(ctx, in); !engine.IsKind(err, engine.KindValidation) {
		t.Fatalf("67.5 at whole-percent granularity: %v", err)
	}
	in.Granularity = types.GranularityTenth
	d, err := h.decisions.Create(ctx, in)
	if err != nil {
		t.Fatalf("Create at tenth granularity: %v", err)
	}

	whole := types.GranularityWhole
	if _, err := h.decisions.Update(ctx, d.ID, UpdateDecisionInput{Granularity: &whole}); !engine.IsKind(err, engine.KindValidation) {
		t.Fatalf("coarsening past the committed probability: %v", err)
	}
	updated, err := h.decisions.Update(ctx, d.ID, UpdateDecisionInput{Granularity: &whole, Probability: ptrDec("68")})
	if err != nil {
		t.Fatalf("coarsen with a new probability: %v", err)
	}
	if updated.Granularity != types.GranularityWhole || !updated.Binary.Probability.Equal(dec("68")) {
		t.Fatalf("unexpected update %+v", updated.Binary)
	}
	if _, err := h.decisions.Update(ctx, d.ID, UpdateDecisionInput{Probability: ptrDec("68.25")}); !engine.IsKind(err, engine.KindValidation) {
		t.Fatalf("off-granularity edit: %v", err)
	}
}

func TestDecisionServiceReorderAndDelete(t *testing.T) {
	h := newHarness(t, Limits{}, fixedSource(0.5))
	ctx := asUser(uuid.New())
	a, _ := h.decisions.Create(ctx, weightedInput("50", "50"))
	b, _ := h.decisions.Create(ctx, weightedInput("50", "50"))

	list, err := h.decisions.Reorder(ctx, []uuid.UUID{b.ID, a.ID})
	if err != nil || list[0].ID != b.ID {
		t.Fatalf("Reorder: %+v, %v", list, err)
	}
	if _, err := h.decisions.Reorder(ctx, []uuid.UUID{b.ID}); !engine.IsKind(err, engine.KindValidation) {
		t.Fatalf("incomplete order: %v", err)
	}
	if _, err := h.decisions.Reorder(ctx, []uuid.UUID{b.ID, b.ID}); !engine.IsKind(err, engine.KindValidation) {
		t.Fatalf("duplicate order: %v", err)
	}

	if err := h.decisions.Delete(asUser(uuid.New()), a.ID); !engine.IsKind(err, engine.KindNotFound) {
		t.Fatalf("delete by non-owner: %v", err)
	}
	if err := h.decisions.Delete(ctx, a.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := h.decisions.Get(ctx, a.ID); !engine.IsKind(err, engine.KindNotFound) {
		t.Fatalf("Get after delete: %v", err)
	}
}
