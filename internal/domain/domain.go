package domain

import (
	"github.com/yungbote/aleator-backend/internal/domain/decisions"
)

const (
	KindBinary         = decisions.KindBinary
	KindWeightedChoice = decisions.KindWeightedChoice

	GranularityWhole     = decisions.GranularityWhole
	GranularityTenth     = decisions.GranularityTenth
	GranularityHundredth = decisions.GranularityHundredth

	WeightScale = decisions.WeightScale

	OutcomeYes = decisions.OutcomeYes
	OutcomeNo  = decisions.OutcomeNo

	FollowPending     = decisions.FollowPending
	FollowFollowed    = decisions.FollowFollowed
	FollowNotFollowed = decisions.FollowNotFollowed
)

var Hundred = decisions.Hundred

type Kind = decisions.Kind
type Granularity = decisions.Granularity
type FollowThrough = decisions.FollowThrough

type Decision = decisions.Decision
type BinaryParameters = decisions.BinaryParameters
type WeightedChoice = decisions.WeightedChoice
type Roll = decisions.Roll
type Snapshot = decisions.Snapshot
type ChoiceWeight = decisions.ChoiceWeight
type WeightHistory = decisions.WeightHistory
type SiteStats = decisions.SiteStats
