package engine

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	types "github.com/yungbote/aleator-backend/internal/domain"
)

const DefaultTimelinePoints = 10

type TimelinePoint struct {
	Index       int            `json:"index"`
	Label       string         `json:"label"`
	RollID      uuid.UUID      `json:"roll_id"`
	Outcome     string         `json:"outcome"`
	Followed    bool           `json:"followed"`
	Snapshot    types.Snapshot `json:"snapshot"`
	RunningRate int            `json:"running_rate"`
	ConfirmedAt time.Time      `json:"confirmed_at"`
}

type Analytics struct {
	Rate       int             `json:"follow_through_rate"`
	TotalRolls int             `json:"total_rolls"`
	Confirmed  int             `json:"confirmed_rolls"`
	Followed   int             `json:"followed_rolls"`
	Pending    int             `json:"pending_rolls"`
	Timeline   []TimelinePoint `json:"timeline"`
}

type AnalyticsOptions struct {
	// Points bounds the timeline; <= 0 means DefaultTimelinePoints.
	Points int
	// Full returns every confirmed roll instead of the last Points.
	Full bool
	// Now anchors relative labels.
	Now time.Time
}

// Rate is followed/confirmed as a whole percent, rounded half up.
func Rate(followed, confirmed int) int {
	if confirmed <= 0 {
		return 0
	}
	return (followed*200 + confirmed) / (2 * confirmed)
}

// Analyze derives follow-through statistics from a decision's rolls, which
// must be in creation order. It never mutates its input.
func Analyze(rolls []*types.Roll, opts AnalyticsOptions) Analytics {
	points := opts.Points
	if points <= 0 {
		points = DefaultTimelinePoints
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	out := Analytics{TotalRolls: len(rolls)}
	all := make([]TimelinePoint, 0, len(rolls))
	for _, r := range rolls {
		if !r.Confirmed() {
			out.Pending++
			continue
		}
		out.Confirmed++
		if *r.Followed {
			out.Followed++
		}
		at := r.CreatedAt
		if r.ConfirmedAt != nil {
			at = *r.ConfirmedAt
		}
		all = append(all, TimelinePoint{
			Index:       out.Confirmed,
			RollID:      r.ID,
			Outcome:     r.Outcome,
			Followed:    *r.Followed,
			Snapshot:    r.Snapshot.Data(),
			RunningRate: Rate(out.Followed, out.Confirmed),
			ConfirmedAt: at,
		})
	}
	out.Rate = Rate(out.Followed, out.Confirmed)

	relative := opts.Full && len(all) > points
	if !opts.Full && len(all) > points {
		all = all[len(all)-points:]
	}
	for i := range all {
		if relative {
			all[i].Label = humanize.RelTime(all[i].ConfirmedAt, now, "ago", "from now")
		} else {
			all[i].Label = fmt.Sprintf("#%d", all[i].Index)
		}
	}
	out.Timeline = all
	return out
}
