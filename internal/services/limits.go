package services

import "github.com/yungbote/aleator-backend/internal/engine"

const (
	DefaultMaxDecisionsPerUser = 100
	DefaultMaxRollsPerUser     = 1_000_000
)

// Limits are per-owner quotas and presentation bounds.
type Limits struct {
	MaxDecisionsPerUser int64
	MaxRollsPerUser     int64
	TimelinePoints      int
}

func (l Limits) withDefaults() Limits {
	if l.MaxDecisionsPerUser <= 0 {
		l.MaxDecisionsPerUser = DefaultMaxDecisionsPerUser
	}
	if l.MaxRollsPerUser <= 0 {
		l.MaxRollsPerUser = DefaultMaxRollsPerUser
	}
	if l.TimelinePoints <= 0 {
		l.TimelinePoints = engine.DefaultTimelinePoints
	}
	return l
}
