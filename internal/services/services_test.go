package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/yungbote/aleator-backend/internal/data/repos"
	"github.com/yungbote/aleator-backend/internal/data/repos/testutil"
	"github.com/yungbote/aleator-backend/internal/data/store"
	types "github.com/yungbote/aleator-backend/internal/domain"
	"github.com/yungbote/aleator-backend/internal/engine"
	"github.com/yungbote/aleator-backend/internal/observability"
	"github.com/yungbote/aleator-backend/internal/pkg/ctxutil"
	apperrors "github.com/yungbote/aleator-backend/internal/pkg/errors"
)

type fixedSource float64

func (f fixedSource) Float64() float64 { return float64(f) }

type harness struct {
	db        *gorm.DB
	decisions DecisionService
	rolls     RollService
	analytics AnalyticsService
	stats     StatsService
	metrics   *observability.Metrics
}

func newHarness(t *testing.T, limits Limits, src engine.Source) *harness {
	t.Helper()
	if !testutil.Isolated() {
		t.Skip("service tests commit real transactions; run against the private sqlite database")
	}
	db := testutil.DB(t)
	log := testutil.Logger(t)
	decisionRepo := repos.NewDecisionRepo(db, log)
	rollRepo := repos.NewRollRepo(db, log)
	historyRepo := repos.NewWeightHistoryRepo(db, log)
	st := store.NewDecisionStore(db, log, decisionRepo, rollRepo, historyRepo)
	eng := engine.New(st, engine.WithSource(src), engine.WithLogger(log))
	metrics := observability.NewMetrics()
	return &harness{
		metrics:   metrics,
		db:        db,
		decisions: NewDecisionService(db, log, decisionRepo, historyRepo, limits),
		rolls:     NewRollService(log, eng, decisionRepo, rollRepo, limits, metrics),
		analytics: NewAnalyticsService(log, eng, decisionRepo, rollRepo, limits),
		stats:     NewStatsService(log, decisionRepo, rollRepo, nil, 0),
	}
}

func asUser(id uuid.UUID) context.Context {
	return ctxutil.WithRequestData(context.Background(), &ctxutil.RequestData{UserID: id})
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func ptrDec(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func weightedInput(weights ...string) CreateDecisionInput {
	in := CreateDecisionInput{Title: "Dinner", Kind: types.KindWeightedChoice}
	for i, w := range weights {
		in.Choices = append(in.Choices, ChoiceInput{Name: string(rune('a' + i)), Weight: dec(w)})
	}
	return in
}

func isLimitError(err error) bool {
	return errors.Is(err, apperrors.ErrLimitReached)
}
