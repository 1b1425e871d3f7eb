package decisions

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/aleator-backend/internal/domain"
	"github.com/yungbote/aleator-backend/internal/pkg/dbctx"
	"github.com/yungbote/aleator-backend/internal/pkg/logger"
)

// RollCounts is the per-decision tally used by overview analytics.
type RollCounts struct {
	DecisionID uuid.UUID
	Total      int64
	Confirmed  int64
	Followed   int64
}

type RollRepo interface {
	Create(dbc dbctx.Context, roll *types.Roll) (*types.Roll, error)
	GetByID(dbc dbctx.Context, decisionID, rollID uuid.UUID) (*types.Roll, error)
	GetPending(dbc dbctx.Context, decisionID uuid.UUID) (*types.Roll, error)
	GetLastConfirmed(dbc dbctx.Context, decisionID uuid.UUID) (*types.Roll, error)
	// ConfirmPending flips a pending roll to confirmed. It reports false when
	// the roll does not exist or was already confirmed.
	ConfirmPending(dbc dbctx.Context, decisionID, rollID uuid.UUID, followed bool, at time.Time) (bool, error)
	ListByDecision(dbc dbctx.Context, decisionID uuid.UUID) ([]*types.Roll, error)
	CountsByDecision(dbc dbctx.Context, decisionIDs []uuid.UUID) (map[uuid.UUID]RollCounts, error)
	CountByOwner(dbc dbctx.Context, ownerUserID uuid.UUID) (int64, error)
	CountAll(dbc dbctx.Context) (int64, error)
	CountCreatedSince(dbc dbctx.Context, since time.Time) (int64, error)
	CountActiveOwnersSince(dbc dbctx.Context, since time.Time) (int64, error)
}

type rollRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRollRepo(db *gorm.DB, baseLog *logger.Logger) RollRepo {
	return &rollRepo{db: db, log: baseLog.With("repo", "RollRepo")}
}

func (r *rollRepo) Create(dbc dbctx.Context, roll *types.Roll) (*types.Roll, error) {
	if err := dbc.DB(r.db).Create(roll).Error; err != nil {
		return nil, err
	}
	return roll, nil
}

func (r *rollRepo) first(db *gorm.DB) (*types.Roll, error) {
	var roll types.Roll
	if err := db.Limit(1).Find(&roll).Error; err != nil {
		return nil, err
	}
	if roll.ID == uuid.Nil {
		return nil, nil
	}
	return &roll, nil
}

func (r *rollRepo) GetByID(dbc dbctx.Context, decisionID, rollID uuid.UUID) (*types.Roll, error) {
	return r.first(dbc.DB(r.db).Where("id = ? AND decision_id = ?", rollID, decisionID))
}

func (r *rollRepo) GetPending(dbc dbctx.Context, decisionID uuid.UUID) (*types.Roll, error) {
	return r.first(dbc.DB(r.db).
		Where("decision_id = ? AND followed IS NULL", decisionID).
		Order("created_at DESC"))
}

func (r *rollRepo) GetLastConfirmed(dbc dbctx.Context, decisionID uuid.UUID) (*types.Roll, error) {
	return r.first(dbc.DB(r.db).
		Where("decision_id = ? AND followed IS NOT NULL", decisionID).
		Order("confirmed_at DESC"))
}

func (r *rollRepo) ConfirmPending(dbc dbctx.Context, decisionID, rollID uuid.UUID, followed bool, at time.Time) (bool, error) {
	res := dbc.DB(r.db).
		Model(&types.Roll{}).
		Where("id = ? AND decision_id = ? AND followed IS NULL", rollID, decisionID).
		Updates(map[string]interface{}{
			"followed":     followed,
			"confirmed_at": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *rollRepo) ListByDecision(dbc dbctx.Context, decisionID uuid.UUID) ([]*types.Roll, error) {
	var out []*types.Roll
	if err := dbc.DB(r.db).
		Where("decision_id = ?", decisionID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *rollRepo) CountsByDecision(dbc dbctx.Context, decisionIDs []uuid.UUID) (map[uuid.UUID]RollCounts, error) {
	out := make(map[uuid.UUID]RollCounts, len(decisionIDs))
	if len(decisionIDs) == 0 {
		return out, nil
	}
	var rows []RollCounts
	err := dbc.DB(r.db).
		Model(&types.Roll{}).
		Select(`decision_id,
			COUNT(*) AS total,
			COUNT(followed) AS confirmed,
			SUM(CASE WHEN followed THEN 1 ELSE 0 END) AS followed`).
		Where("decision_id IN ?", decisionIDs).
		Group("decision_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.DecisionID] = row
	}
	return out, nil
}

func (r *rollRepo) CountByOwner(dbc dbctx.Context, ownerUserID uuid.UUID) (int64, error) {
	var count int64
	err := dbc.DB(r.db).
		Model(&types.Roll{}).
		Joins("JOIN decision ON decision.id = roll.decision_id").
		Where("decision.owner_user_id = ?", ownerUserID).
		Count(&count).Error
	return count, err
}

func (r *rollRepo) CountAll(dbc dbctx.Context) (int64, error) {
	var count int64
	err := dbc.DB(r.db).Model(&types.Roll{}).Count(&count).Error
	return count, err
}

func (r *rollRepo) CountCreatedSince(dbc dbctx.Context, since time.Time) (int64, error) {
	var count int64
	err := dbc.DB(r.db).
		Model(&types.Roll{}).
		Where("created_at >= ?", since).
		Count(&count).Error
	return count, err
}

func (r *rollRepo) CountActiveOwnersSince(dbc dbctx.Context, since time.Time) (int64, error) {
	var count int64
	err := dbc.DB(r.db).
		Model(&types.Roll{}).
		Joins("JOIN decision ON decision.id = roll.decision_id").
		Where("roll.created_at >= ?", since).
		Distinct("decision.owner_user_id").
		Count(&count).Error
	return count, err
}
