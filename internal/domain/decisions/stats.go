package decisions

import "time"

// SiteStats are site-wide totals shown on the public landing page.
type SiteStats struct {
	TotalDecisions    int64     `json:"total_decisions"`
	TotalRolls        int64     `json:"total_rolls"`
	TotalOwners       int64     `json:"total_owners"`
	DecisionsToday    int64     `json:"decisions_today"`
	RollsToday        int64     `json:"rolls_today"`
	ActiveOwnersToday int64     `json:"active_owners_today"`
	GeneratedAt       time.Time `json:"generated_at"`
}
