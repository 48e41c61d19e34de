package core

import (
	"fmt"
	"math"
	"time"

	"github.com/courselab/teamscope/internal/contract"
	"github.com/courselab/teamscope/schema"
)

// PenaltyRule is one tagged penalty policy. Evaluate returns the multiplier
// and human-readable reason when the rule fires. Rules are pure predicates
// over aggregate data and compose by multiplicative fold, so application
// order cannot change the outcome.
type PenaltyRule struct {
	Tag      schema.PenaltyTag
	Evaluate func(aggregate *schema.TeamAggregate) (float64, string, bool)
}

// DefaultPenaltyRules returns the standard rule set. The solo-development
// and severe-imbalance tiers are collapsed into one ranked rule so a team
// is never penalized twice for the same imbalance.
func DefaultPenaltyRules() []PenaltyRule {
	return []PenaltyRule{
		imbalanceRule(),
		trivialRatioRule(),
		lowConfidenceRule(),
		lateWorkRule(),
	}
}

// imbalanceRule penalizes effort concentration. The tiers are mutually
// exclusive: the solo tier wins when both thresholds are crossed.
func imbalanceRule() PenaltyRule {
	return PenaltyRule{
		Tag: schema.SoloDevelopmentPenalty,
		Evaluate: func(aggregate *schema.TeamAggregate) (float64, string, bool) {
			share := aggregate.TopEffortShare()
			switch {
			case share > contract.SoloShareThreshold:
				return contract.SoloMultiplier,
					fmt.Sprintf("top contributor holds %.0f%% of weighted effort", share*100), true
			case share > contract.SevereShareThreshold:
				return contract.SevereMultiplier,
					fmt.Sprintf("top contributor holds %.0f%% of weighted effort", share*100), true
			}
			return 0, "", false
		},
	}
}

// trivialRatioRule penalizes histories dominated by pre-filter exclusions.
func trivialRatioRule() PenaltyRule {
	return PenaltyRule{
		Tag: schema.HighTrivialPenalty,
		Evaluate: func(aggregate *schema.TeamAggregate) (float64, string, bool) {
			ratio := aggregate.Filter.ExcludedRatio()
			if ratio > contract.TrivialRatio {
				return contract.TrivialMultiplier,
					fmt.Sprintf("%.0f%% of raw commits excluded by the pre-filter", ratio*100), true
			}
			return 0, "", false
		},
	}
}

// lowConfidenceRule penalizes teams whose ratings the collaborator was
// unsure about.
func lowConfidenceRule() PenaltyRule {
	return PenaltyRule{
		Tag: schema.LowConfidencePenalty,
		Evaluate: func(aggregate *schema.TeamAggregate) (float64, string, bool) {
			if aggregate.RatingCount == 0 {
				return 0, "", false
			}
			ratio := float64(aggregate.LowConfidenceCount) / float64(aggregate.RatingCount)
			if ratio > contract.LowConfidenceRatio {
				return contract.LowConfidenceMult,
					fmt.Sprintf("%.0f%% of ratings below the confidence threshold", ratio*100), true
			}
			return 0, "", false
		},
	}
}

// lateWorkRule penalizes piling the bulk of the effort into the end of the
// project window.
func lateWorkRule() PenaltyRule {
	return PenaltyRule{
		Tag: schema.LateWorkPenalty,
		Evaluate: func(aggregate *schema.TeamAggregate) (float64, string, bool) {
			ratio := lateEffortShare(aggregate, contract.LateWindowFraction)
			if ratio > contract.LateWorkRatio {
				return contract.LateWorkMultiplier,
					fmt.Sprintf("%.0f%% of weighted effort in the final %.0f%% of the window",
						ratio*100, contract.LateWindowFraction*100), true
			}
			return 0, "", false
		},
	}
}

// lateEffortShare returns the share of weighted effort falling within the
// final fraction of the project time window. Zero-length windows and zero
// total effort both resolve to 0.
func lateEffortShare(aggregate *schema.TeamAggregate, fraction float64) float64 {
	span := aggregate.WindowEnd.Sub(aggregate.WindowStart)
	if span <= 0 {
		return 0
	}
	cutoff := aggregate.WindowEnd.Add(-time.Duration(float64(span) * fraction))

	var total, late float64
	for _, ev := range aggregate.EffortEvents {
		total += ev.Effort
		if !ev.At.Before(cutoff) {
			late += ev.Effort
		}
	}
	if total == 0 {
		return 0
	}
	return late / total
}

// ComputeComposite combines the component scores with configured weights
// and folds in the penalty multipliers to yield the final CQI.
//
// Terminal outcomes bypass the formula: a single contributor scores 0, a
// team with zero productive commits scores 0, and a team whose rating
// collaborator was unreachable falls back to LoC balance alone.
func ComputeComposite(
	cfg *contract.Config,
	aggregate *schema.TeamAggregate,
	components schema.ScoreComponents,
	rules []PenaltyRule,
	raterDown bool,
) *schema.CompositeScore {
	score := &schema.CompositeScore{
		PenaltyMultiplier: 1.0,
		Components:        components,
		Filter:            aggregate.Filter,
	}

	// --- 1. Terminal Outcomes ---
	// A one-member roster can never collaborate, regardless of other inputs.
	if aggregate.TeamSize < 2 {
		score.Tag = schema.NoCollaborationTag
		return score
	}
	if aggregate.Filter.Kept+aggregate.Filter.Reduced == 0 {
		score.Tag = schema.NothingToScoreTag
		return score
	}
	if aggregate.Contributors() < 2 {
		score.Tag = schema.NoCollaborationTag
		return score
	}

	weights := cfg.Weights
	if raterDown {
		// Degraded analysis: effort-derived components are meaningless
		// without ratings, so all weight moves to LoC balance.
		score.Tag = schema.DegradedAnalysisTag
		weights = map[schema.Component]float64{schema.LoCBalanceComponent: 1.0}
	}

	// --- 2. Weighted Base over Active Components ---
	active := components.Active()
	var weightSum, base float64
	for component, value := range active {
		w := weights[component]
		weightSum += w
		base += w * value
	}
	if weightSum > 0 {
		base /= weightSum // renormalize over the active set
	}
	score.Base = base

	// --- 3. Multiplicative Penalty Fold ---
	for _, rule := range rules {
		multiplier, reason, applied := rule.Evaluate(aggregate)
		if !applied {
			continue
		}
		tag := rule.Tag
		if tag == schema.SoloDevelopmentPenalty && multiplier == contract.SevereMultiplier {
			tag = schema.SevereImbalancePenalty
		}
		score.Penalties = append(score.Penalties, schema.Penalty{
			Tag:        tag,
			Multiplier: multiplier,
			Reason:     reason,
		})
		score.PenaltyMultiplier *= multiplier
	}

	score.Final = clamp(base*score.PenaltyMultiplier, 0, 100)
	return score
}

// clamp bounds v to [lo, hi].
func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
