package decisions

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/aleator-backend/internal/domain"
	"github.com/yungbote/aleator-backend/internal/pkg/dbctx"
	"github.com/yungbote/aleator-backend/internal/pkg/logger"
)

type WeightHistoryRepo interface {
	Create(dbc dbctx.Context, rows []*types.WeightHistory) ([]*types.WeightHistory, error)
	// ListByDecision returns newest first, at most limit rows when limit > 0.
	ListByDecision(dbc dbctx.Context, decisionID uuid.UUID, limit int) ([]*types.WeightHistory, error)
}

type weightHistoryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewWeightHistoryRepo(db *gorm.DB, baseLog *logger.Logger) WeightHistoryRepo {
	return &weightHistoryRepo{db: db, log: baseLog.With("repo", "WeightHistoryRepo")}
}

func (r *weightHistoryRepo) Create(dbc dbctx.Context, rows []*types.WeightHistory) ([]*types.WeightHistory, error) {
	if len(rows) == 0 {
		return []*types.WeightHistory{}, nil
	}
	if err := dbc.DB(r.db).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *weightHistoryRepo) ListByDecision(dbc dbctx.Context, decisionID uuid.UUID, limit int) ([]*types.WeightHistory, error) {
	var out []*types.WeightHistory
	q := dbc.DB(r.db).
		Where("decision_id = ?", decisionID).
		Order("changed_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
