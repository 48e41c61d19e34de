package schema

// Rating is the externally produced quality judgment for one chunk.
// Effort, complexity and novelty are on a 0-10 scale; confidence is 0-1.
type Rating struct {
	ChunkID    string  `json:"chunk_id"`
	Effort     float64 `json:"effort"`
	Complexity float64 `json:"complexity"`
	Novelty    float64 `json:"novelty"`
	Confidence float64 `json:"confidence"`
	Label      string  `json:"label,omitempty"`
	Failed     bool    `json:"failed,omitempty"` // rating call failed; chunk degrades to zero effort
}

// QualityMultiplier converts complexity and novelty into the effort
// multiplier used by aggregation: 0.5 + 0.3*(complexity/10) + 0.2*(novelty/10).
func (r *Rating) QualityMultiplier() float64 {
	return 0.5 + 0.3*(r.Complexity/10.0) + 0.2*(r.Novelty/10.0)
}

// FilterDecision is the pre-filter classification for one commit.
type FilterDecision struct {
	SHA     string        `json:"sha"`
	Outcome FilterOutcome `json:"outcome"`
	Reason  FilterReason  `json:"reason,omitempty"`
	Weight  float64       `json:"weight"` // 1.0 kept, 0.5 reduced, 0 excluded
}

// FilterSummary aggregates filter decisions for reporting and penalties.
type FilterSummary struct {
	Total    int                  `json:"total"`
	Kept     int                  `json:"kept"`
	Reduced  int                  `json:"reduced"`
	Excluded int                  `json:"excluded"`
	ByReason map[FilterReason]int `json:"by_reason,omitempty"`
}

// ExcludedRatio returns the share of raw commits removed by the pre-filter.
func (s *FilterSummary) ExcludedRatio() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Excluded) / float64(s.Total)
}

// SummarizeFilterDecisions folds a decision list into a FilterSummary.
func SummarizeFilterDecisions(decisions []FilterDecision) FilterSummary {
	summary := FilterSummary{ByReason: make(map[FilterReason]int)}
	for _, d := range decisions {
		summary.Total++
		switch d.Outcome {
		case KeptOutcome:
			summary.Kept++
		case ReducedOutcome:
			summary.Reduced++
			summary.ByReason[d.Reason]++
		case ExcludedOutcome:
			summary.Excluded++
			summary.ByReason[d.Reason]++
		}
	}
	return summary
}
