package decisions

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	OutcomeYes = "yes"
	OutcomeNo  = "no"
)

type FollowThrough string

const (
	FollowPending     FollowThrough = "pending"
	FollowFollowed    FollowThrough = "followed"
	FollowNotFollowed FollowThrough = "not_followed"
)

// ChoiceWeight is one entry of a weighted-choice snapshot.
type ChoiceWeight struct {
	ChoiceID uuid.UUID       `json:"choice_id"`
	Name     string          `json:"name"`
	Weight   decimal.Decimal `json:"weight"`
}

// Snapshot holds the odds a roll was drawn with: Probability for binary
// decisions, Weights (display order) for weighted-choice decisions.
type Snapshot struct {
	Probability *decimal.Decimal `json:"probability,omitempty"`
	Weights     []ChoiceWeight   `json:"weights,omitempty"`
}

func (s Snapshot) Equal(o Snapshot) bool {
	if (s.Probability == nil) != (o.Probability == nil) {
		return false
	}
	if s.Probability != nil && !s.Probability.Equal(*o.Probability) {
		return false
	}
	if len(s.Weights) != len(o.Weights) {
		return false
	}
	for i := range s.Weights {
		if s.Weights[i].ChoiceID != o.Weights[i].ChoiceID || !s.Weights[i].Weight.Equal(o.Weights[i].Weight) {
			return false
		}
	}
	return true
}

type Roll struct {
	ID          uuid.UUID                    `gorm:"type:uuid;primaryKey" json:"id"`
	DecisionID  uuid.UUID                    `gorm:"type:uuid;not null;index" json:"decision_id"`
	Outcome     string                       `gorm:"column:outcome;size:100;not null" json:"outcome"`
	Snapshot    datatypes.JSONType[Snapshot] `gorm:"column:snapshot" json:"snapshot"`
	UsedDraft   bool                         `gorm:"column:used_draft;not null;default:false" json:"used_draft"`
	Followed    *bool                        `gorm:"column:followed" json:"followed"`
	ConfirmedAt *time.Time                   `gorm:"column:confirmed_at;index" json:"confirmed_at,omitempty"`
	CreatedAt   time.Time                    `gorm:"not null;index" json:"created_at"`
}

func (Roll) TableName() string { return "roll" }

func (r *Roll) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// MarshalJSON adds the derived follow-through state.
func (r Roll) MarshalJSON() ([]byte, error) {
	type plain Roll
	return json.Marshal(struct {
		plain
		State FollowThrough `json:"state"`
	}{plain(r), r.State()})
}

func (r *Roll) State() FollowThrough {
	switch {
	case r == nil || r.Followed == nil:
		return FollowPending
	case *r.Followed:
		return FollowFollowed
	default:
		return FollowNotFollowed
	}
}

func (r *Roll) Confirmed() bool {
	return r != nil && r.Followed != nil
}

// WeightHistory records every committed change of a probability (ChoiceID
// nil) or of a choice weight.
type WeightHistory struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	DecisionID uuid.UUID       `gorm:"type:uuid;not null;index" json:"decision_id"`
	ChoiceID   *uuid.UUID      `gorm:"type:uuid;index" json:"choice_id,omitempty"`
	Value      decimal.Decimal `gorm:"column:value;type:numeric(5,2);not null" json:"value"`
	RollID     *uuid.UUID      `gorm:"type:uuid" json:"roll_id,omitempty"`
	ChangedAt  time.Time       `gorm:"not null;index" json:"changed_at"`
}

func (WeightHistory) TableName() string { return "weight_history" }

func (h *WeightHistory) BeforeCreate(tx *gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}
