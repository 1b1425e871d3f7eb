package decisions

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/aleator-backend/internal/domain"
	"github.com/yungbote/aleator-backend/internal/pkg/dbctx"
	"github.com/yungbote/aleator-backend/internal/pkg/logger"
)

type DecisionRepo interface {
	Create(dbc dbctx.Context, d *types.Decision) (*types.Decision, error)
	// GetByID preloads parameters and choices; nil, nil when missing.
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Decision, error)
	// LockByID takes a row lock on the decision for the rest of dbc.Tx.
	LockByID(dbc dbctx.Context, id uuid.UUID) (bool, error)
	ListByOwner(dbc dbctx.Context, ownerUserID uuid.UUID) ([]*types.Decision, error)
	CountByOwner(dbc dbctx.Context, ownerUserID uuid.UUID) (int64, error)
	MaxDisplayOrder(dbc dbctx.Context, ownerUserID uuid.UUID) (int, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	UpdateBinary(dbc dbctx.Context, decisionID uuid.UUID, updates map[string]interface{}) error
	UpdateChoice(dbc dbctx.Context, decisionID, choiceID uuid.UUID, updates map[string]interface{}) error
	SetDisplayOrder(dbc dbctx.Context, ownerUserID uuid.UUID, orderedIDs []uuid.UUID) error
	// Delete removes the decision with its parameters, choices, rolls and
	// history. It reports false when nothing matched.
	Delete(dbc dbctx.Context, ownerUserID, id uuid.UUID) (bool, error)
	CountAll(dbc dbctx.Context) (int64, error)
	CountCreatedSince(dbc dbctx.Context, since time.Time) (int64, error)
	CountDistinctOwners(dbc dbctx.Context) (int64, error)
}

type decisionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDecisionRepo(db *gorm.DB, baseLog *logger.Logger) DecisionRepo {
	return &decisionRepo{db: db, log: baseLog.With("repo", "DecisionRepo")}
}

func orderedChoices(db *gorm.DB) *gorm.DB {
	return db.Order("display_order ASC")
}

func (r *decisionRepo) Create(dbc dbctx.Context, d *types.Decision) (*types.Decision, error) {
	if d == nil {
		return nil, errors.New("nil decision")
	}
	if err := dbc.DB(r.db).Create(d).Error; err != nil {
		return nil, err
	}
	return d, nil
}

func (r *decisionRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Decision, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var d types.Decision
	err := dbc.DB(r.db).
		Preload("Binary").
		Preload("Choices", orderedChoices).
		Where("id = ?", id).
		Limit(1).
		Find(&d).Error
	if err != nil {
		return nil, err
	}
	if d.ID == uuid.Nil {
		return nil, nil
	}
	return &d, nil
}

func (r *decisionRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (bool, error) {
	var ids []uuid.UUID
	err := dbc.DB(r.db).
		Model(&types.Decision{}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		Pluck("id", &ids).Error
	if err != nil {
		return false, err
	}
	return len(ids) > 0, nil
}

func (r *decisionRepo) ListByOwner(dbc dbctx.Context, ownerUserID uuid.UUID) ([]*types.Decision, error) {
	var out []*types.Decision
	if ownerUserID == uuid.Nil {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Preload("Binary").
		Preload("Choices", orderedChoices).
		Where("owner_user_id = ?", ownerUserID).
		Order("display_order ASC").
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *decisionRepo) CountByOwner(dbc dbctx.Context, ownerUserID uuid.UUID) (int64, error) {
	var count int64
	err := dbc.DB(r.db).
		Model(&types.Decision{}).
		Where("owner_user_id = ?", ownerUserID).
		Count(&count).Error
	return count, err
}

func (r *decisionRepo) MaxDisplayOrder(dbc dbctx.Context, ownerUserID uuid.UUID) (int, error) {
	var max sql.NullInt64
	row := dbc.DB(r.db).
		Model(&types.Decision{}).
		Where("owner_user_id = ?", ownerUserID).
		Select("MAX(display_order)").
		Row()
	if err := row.Scan(&max); err != nil {
		return 0, err
	}
	if !max.Valid {
		return -1, nil
	}
	return int(max.Int64), nil
}

func (r *decisionRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	return dbc.DB(r.db).
		Model(&types.Decision{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *decisionRepo) UpdateBinary(dbc dbctx.Context, decisionID uuid.UUID, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	return dbc.DB(r.db).
		Model(&types.BinaryParameters{}).
		Where("decision_id = ?", decisionID).
		Updates(updates).Error
}

func (r *decisionRepo) UpdateChoice(dbc dbctx.Context, decisionID, choiceID uuid.UUID, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	return dbc.DB(r.db).
		Model(&types.WeightedChoice{}).
		Where("id = ? AND decision_id = ?", choiceID, decisionID).
		Updates(updates).Error
}

func (r *decisionRepo) SetDisplayOrder(dbc dbctx.Context, ownerUserID uuid.UUID, orderedIDs []uuid.UUID) error {
	now := time.Now().UTC()
	for i, id := range orderedIDs {
		if err := dbc.DB(r.db).
			Model(&types.Decision{}).
			Where("id = ? AND owner_user_id = ?", id, ownerUserID).
			Updates(map[string]interface{}{"display_order": i, "updated_at": now}).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *decisionRepo) Delete(dbc dbctx.Context, ownerUserID, id uuid.UUID) (bool, error) {
	deleted := false
	run := func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND owner_user_id = ?", id, ownerUserID).Delete(&types.Decision{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		deleted = true
		for _, model := range []interface{}{&types.BinaryParameters{}, &types.WeightedChoice{}, &types.Roll{}, &types.WeightHistory{}} {
			if err := tx.Where("decision_id = ?", id).Delete(model).Error; err != nil {
				return err
			}
		}
		return nil
	}
	db := dbc.DB(r.db)
	var err error
	if dbc.Tx != nil {
		err = run(db)
	} else {
		err = db.Transaction(run)
	}
	return deleted, err
}

func (r *decisionRepo) CountAll(dbc dbctx.Context) (int64, error) {
	var count int64
	err := dbc.DB(r.db).Model(&types.Decision{}).Count(&count).Error
	return count, err
}

func (r *decisionRepo) CountCreatedSince(dbc dbctx.Context, since time.Time) (int64, error) {
	var count int64
	err := dbc.DB(r.db).
		Model(&types.Decision{}).
		Where("created_at >= ?", since).
		Count(&count).Error
	return count, err
}

func (r *decisionRepo) CountDistinctOwners(dbc dbctx.Context) (int64, error) {
	var count int64
	err := dbc.DB(r.db).
		Model(&types.Decision{}).
		Distinct("owner_user_id").
		Count(&count).Error
	return count, err
}
