package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/aleator-backend/internal/data/repos"
	"github.com/yungbote/aleator-backend/internal/pkg/logger"
)

type Repos struct {
	Decision      repos.DecisionRepo
	Roll          repos.RollRepo
	WeightHistory repos.WeightHistoryRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Decision:      repos.NewDecisionRepo(db, log),
		Roll:          repos.NewRollRepo(db, log),
		WeightHistory: repos.NewWeightHistoryRepo(db, log),
	}
}
