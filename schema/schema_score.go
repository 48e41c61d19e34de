package schema

import "time"

// MemberEffort is the per-member accumulation produced by aggregation.
type MemberEffort struct {
	MemberID       string  `json:"member_id"`
	WeightedEffort float64 `json:"weighted_effort"`
	RawLines       float64 `json:"raw_lines"` // (added+deleted) * filter weight
	CommitCount    int     `json:"commit_count"`
	ChunkCount     int     `json:"chunk_count"`
	FailedChunks   int     `json:"failed_chunks"`
}

// TeamAggregate carries everything the scorer and penalty rules consume.
type TeamAggregate struct {
	TeamID      string                   `json:"team_id"`
	TeamSize    int                      `json:"team_size"`
	Efforts     map[string]*MemberEffort `json:"efforts"`
	WindowStart time.Time                `json:"window_start"` // first productive commit
	WindowEnd   time.Time                `json:"window_end"`   // last productive commit

	// EffortEvents is the weighted effort attached to each productive commit
	// time, used for temporal spread and the late-work penalty.
	EffortEvents []EffortEvent `json:"effort_events"`

	// Rating quality counters for the low-confidence penalty.
	RatingCount        int `json:"rating_count"`
	LowConfidenceCount int `json:"low_confidence_count"`
	FailedRatingCount  int `json:"failed_rating_count"`

	Filter FilterSummary `json:"filter"`
}

// EffortEvent is a slice of weighted effort at one commit timestamp.
type EffortEvent struct {
	MemberID string    `json:"member_id"`
	At       time.Time `json:"at"`
	Effort   float64   `json:"effort"`
}

// Contributors returns the number of members with any weighted effort or
// raw lines.
func (a *TeamAggregate) Contributors() int {
	n := 0
	for _, e := range a.Efforts {
		if e.WeightedEffort > 0 || e.RawLines > 0 || e.CommitCount > 0 {
			n++
		}
	}
	return n
}

// TotalEffort returns the sum of weighted effort across members.
func (a *TeamAggregate) TotalEffort() float64 {
	var total float64
	for _, e := range a.Efforts {
		total += e.WeightedEffort
	}
	return total
}

// TopEffortShare returns the largest member share of total weighted effort,
// or 0 when there is no effort at all.
func (a *TeamAggregate) TopEffortShare() float64 {
	total := a.TotalEffort()
	if total == 0 {
		return 0
	}
	var top float64
	for _, e := range a.Efforts {
		if e.WeightedEffort > top {
			top = e.WeightedEffort
		}
	}
	return top / total
}

// ScoreComponents holds the component scores, each 0-100 or nil when the
// component is not applicable for the team.
type ScoreComponents struct {
	EffortBalance   *float64 `json:"effort_balance"`
	LoCBalance      *float64 `json:"loc_balance"`
	TemporalSpread  *float64 `json:"temporal_spread"`
	OwnershipSpread *float64 `json:"ownership_spread"`
	PairProgramming *float64 `json:"pair_programming"`
}

// Active returns the component -> value map for non-nil components.
func (c *ScoreComponents) Active() map[Component]float64 {
	active := make(map[Component]float64)
	if c.EffortBalance != nil {
		active[EffortBalanceComponent] = *c.EffortBalance
	}
	if c.LoCBalance != nil {
		active[LoCBalanceComponent] = *c.LoCBalance
	}
	if c.TemporalSpread != nil {
		active[TemporalSpreadComponent] = *c.TemporalSpread
	}
	if c.OwnershipSpread != nil {
		active[OwnershipSpreadComponent] = *c.OwnershipSpread
	}
	if c.PairProgramming != nil {
		active[PairProgrammingComponent] = *c.PairProgramming
	}
	return active
}

// Penalty is one applied multiplicative penalty.
type Penalty struct {
	Tag        PenaltyTag `json:"tag"`
	Multiplier float64    `json:"multiplier"`
	Reason     string     `json:"reason"`
}

// CompositeScore is the final scoring record for one team.
type CompositeScore struct {
	Final             float64         `json:"final"` // always in [0,100]
	Base              float64         `json:"base"`
	PenaltyMultiplier float64         `json:"penalty_multiplier"`
	Penalties         []Penalty       `json:"penalties"`
	Components        ScoreComponents `json:"components"`
	Tag               ScoreTag        `json:"tag,omitempty"`
	Filter            FilterSummary   `json:"filter"`
}

// AnomalyFlag is a display-only warning, excluded from the CQI.
// Claimed is the heuristic stage's percentage; Verified is the exact value
// recomputed by the verifier. Only verified flags are ever published.
type AnomalyFlag struct {
	Kind     AnomalyKind `json:"kind"`
	Claimed  float64     `json:"claimed"`
	Verified float64     `json:"verified"`
	Detail   string      `json:"detail,omitempty"`
}

// PairSession is one scheduled paired-session date with per-member attendance.
type PairSession struct {
	Date     time.Time       `json:"date"` // calendar day, midnight UTC
	Attended map[string]bool `json:"attended"`
}

// TeamAttendance is the scheduled paired-session calendar for a team.
type TeamAttendance struct {
	TeamID   string        `json:"team_id"`
	Sessions []PairSession `json:"sessions"`
}

// TeamResult is everything produced for one team in a run.
type TeamResult struct {
	TeamID      string             `json:"team_id"`
	TeamName    string             `json:"team_name"`
	Attribution *AttributionResult `json:"attribution,omitempty"`
	Decisions   []FilterDecision   `json:"decisions,omitempty"`
	Score       *CompositeScore    `json:"score,omitempty"`
	Anomalies   []AnomalyFlag      `json:"anomalies,omitempty"`
	Err         string             `json:"error,omitempty"` // non-empty when the team's analysis failed
	Duration    time.Duration      `json:"duration"`
}

// RunProgress is the single serialized progress record for a course-wide run.
type RunProgress struct {
	ID             int64     `json:"id"`
	CourseID       string    `json:"course_id"`
	State          RunState  `json:"state"`
	TeamsTotal     int       `json:"teams_total"`
	TeamsCompleted int       `json:"teams_completed"`
	TeamsFailed    int       `json:"teams_failed"`
	StartedAt      time.Time `json:"started_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	FinishedAt     time.Time `json:"finished_at,omitempty"`
}

// Float returns a pointer to v, for optional score components.
func Float(v float64) *float64 {
	return &v
}
