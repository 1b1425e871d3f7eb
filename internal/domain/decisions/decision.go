package decisions

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Kind string

const (
	KindBinary         Kind = "binary"
	KindWeightedChoice Kind = "weighted_choice"
)

func (k Kind) Valid() bool {
	return k == KindBinary || k == KindWeightedChoice
}

// Granularity is the number of decimal places odds are expressed in (0, 1 or 2).
type Granularity int

const (
	GranularityWhole     Granularity = 0
	GranularityTenth     Granularity = 1
	GranularityHundredth Granularity = 2
)

// WeightScale is the storage precision of every weight and probability.
const WeightScale = 2

var Hundred = decimal.NewFromInt(100)

func (g Granularity) Valid() bool {
	return g >= GranularityWhole && g <= GranularityHundredth
}

// Unit is the smallest adjustable step, 10^-g.
func (g Granularity) Unit() decimal.Decimal {
	return decimal.New(1, -int32(g))
}

// Tolerance is how far a weight sum may drift from 100 and still be accepted.
func (g Granularity) Tolerance() decimal.Decimal {
	return decimal.New(1, -int32(g)-1)
}

func (g Granularity) Round(v decimal.Decimal) decimal.Decimal {
	return v.Round(int32(g))
}

type Decision struct {
	ID              uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerUserID     uuid.UUID   `gorm:"type:uuid;not null;index" json:"owner_user_id"`
	Title           string      `gorm:"column:title;size:200;not null" json:"title"`
	Kind            Kind        `gorm:"column:kind;size:32;not null" json:"kind"`
	CooldownSeconds int64       `gorm:"column:cooldown_seconds;not null;default:0" json:"cooldown_seconds"`
	Granularity     Granularity `gorm:"column:granularity;not null;default:0" json:"granularity"`
	DisplayOrder    int         `gorm:"column:display_order;not null;default:0;index" json:"display_order"`

	Binary  *BinaryParameters `gorm:"foreignKey:DecisionID;constraint:OnDelete:CASCADE" json:"binary,omitempty"`
	Choices []*WeightedChoice `gorm:"foreignKey:DecisionID;constraint:OnDelete:CASCADE" json:"choices,omitempty"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (Decision) TableName() string { return "decision" }

func (d *Decision) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

func (d *Decision) Cooldown() time.Duration {
	if d == nil || d.CooldownSeconds <= 0 {
		return 0
	}
	return time.Duration(d.CooldownSeconds) * time.Second
}

// Baseline is the committed probability or weights, in display order.
func (d *Decision) Baseline() Snapshot {
	if d == nil {
		return Snapshot{}
	}
	switch d.Kind {
	case KindBinary:
		if d.Binary == nil {
			return Snapshot{}
		}
		p := d.Binary.Probability
		return Snapshot{Probability: &p}
	default:
		out := Snapshot{Weights: make([]ChoiceWeight, 0, len(d.Choices))}
		for _, c := range d.Choices {
			out.Weights = append(out.Weights, ChoiceWeight{ChoiceID: c.ID, Name: c.Name, Weight: c.Weight})
		}
		return out
	}
}

type BinaryParameters struct {
	DecisionID  uuid.UUID       `gorm:"type:uuid;primaryKey" json:"-"`
	Probability decimal.Decimal `gorm:"column:probability;type:numeric(5,2);not null" json:"probability"`
	YesLabel    string          `gorm:"column:yes_label;size:100;not null" json:"yes_label"`
	NoLabel     string          `gorm:"column:no_label;size:100;not null" json:"no_label"`
}

func (BinaryParameters) TableName() string { return "binary_parameters" }

type WeightedChoice struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	DecisionID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"-"`
	Name         string          `gorm:"column:name;size:100;not null" json:"name"`
	Weight       decimal.Decimal `gorm:"column:weight;type:numeric(5,2);not null" json:"weight"`
	DisplayOrder int             `gorm:"column:display_order;not null;default:0" json:"display_order"`
}

func (WeightedChoice) TableName() string { return "weighted_choice" }

func (c *WeightedChoice) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
