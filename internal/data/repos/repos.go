package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/aleator-backend/internal/data/repos/decisions"
	"github.com/yungbote/aleator-backend/internal/pkg/logger"
)

type DecisionRepo = decisions.DecisionRepo
type RollRepo = decisions.RollRepo
type WeightHistoryRepo = decisions.WeightHistoryRepo

type RollCounts = decisions.RollCounts

func NewDecisionRepo(db *gorm.DB, baseLog *logger.Logger) DecisionRepo {
	return decisions.NewDecisionRepo(db, baseLog)
}
func NewRollRepo(db *gorm.DB, baseLog *logger.Logger) RollRepo {
	return decisions.NewRollRepo(db, baseLog)
}
func NewWeightHistoryRepo(db *gorm.DB, baseLog *logger.Logger) WeightHistoryRepo {
	return decisions.NewWeightHistoryRepo(db, baseLog)
}
