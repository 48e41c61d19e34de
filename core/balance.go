package core

import (
	"math"
	"sort"
	"time"

	"github.com/courselab/teamscope/schema"
)

// weekBucket is the fixed partition size for temporal spread.
const weekBucket = 7 * 24 * time.Hour

// ownershipAuthorCap limits how many distinct authors a file can credit.
const ownershipAuthorCap = 4

// ComputeComponents computes all four statistical components plus the
// optional pair-programming score. Every component resolves degenerate
// input to its documented constant; none may produce NaN or Infinity.
func ComputeComponents(
	aggregate *schema.TeamAggregate,
	attribution *schema.AttributionResult,
	attendance *schema.TeamAttendance,
	significantCommits int,
	mandatorySessions int,
) schema.ScoreComponents {
	efforts := make([]float64, 0, len(aggregate.Efforts))
	lines := make([]float64, 0, len(aggregate.Efforts))
	for _, id := range sortedMemberIDs(aggregate.Efforts) {
		e := aggregate.Efforts[id]
		efforts = append(efforts, e.WeightedEffort)
		lines = append(lines, e.RawLines)
	}

	return schema.ScoreComponents{
		EffortBalance:   schema.Float(balanceScore(efforts)),
		LoCBalance:      schema.Float(balanceScore(lines)),
		TemporalSpread:  schema.Float(temporalSpread(aggregate)),
		OwnershipSpread: ownershipSpread(attribution, aggregate.TeamSize, significantCommits),
		PairProgramming: VerifyPairProgramming(attribution, attendance, aggregate.TeamSize, mandatorySessions),
	}
}

// balanceScore converts a per-member value vector into 100*(1-Gini).
// Degenerate cases resolve to 0: a single contributor has no balance to
// measure, and an all-zero vector carries no evidence either way. Claiming
// 100 for either would read as a perfect score for undefined input.
func balanceScore(values []float64) float64 {
	if len(values) < 2 || sum(values) == 0 {
		return 0
	}
	return 100.0 * (1.0 - gini(values))
}

// gini calculates the Gini coefficient for a set of values.
// The Gini coefficient measures inequality in a distribution, ranging from
// 0 (perfect equality) to 1 (perfect inequality). Callers must guard the
// degenerate cases; this helper returns 0 for them.
func gini(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}

	total := sum(values)
	if total == 0 {
		return 0
	}

	var diffSum float64
	for i := range n {
		for j := range n {
			diffSum += math.Abs(values[i] - values[j])
		}
	}

	g := diffSum / (2 * float64(n) * total)
	return math.Min(math.Max(g, 0), 1) // clamp to [0,1]
}

// temporalSpread partitions the active date range into fixed 7-day buckets
// and scores the evenness of weighted effort across them. The score is
// 100*(1-min(CV/2,1)) where CV is the coefficient of variation. A window of
// at most one week is a single bucket with CV 0, scoring 100. Zero total
// effort carries no evidence and scores 0.
func temporalSpread(aggregate *schema.TeamAggregate) float64 {
	if len(aggregate.EffortEvents) == 0 {
		return 0
	}

	span := aggregate.WindowEnd.Sub(aggregate.WindowStart)
	numBuckets := int(span/weekBucket) + 1
	if numBuckets <= 1 {
		return 100
	}

	buckets := make([]float64, numBuckets)
	for _, ev := range aggregate.EffortEvents {
		idx := int(ev.At.Sub(aggregate.WindowStart) / weekBucket)
		if idx < 0 {
			idx = 0
		}
		if idx >= numBuckets {
			idx = numBuckets - 1
		}
		buckets[idx] += ev.Effort
	}

	mean := sum(buckets) / float64(numBuckets)
	if mean == 0 {
		return 0
	}
	var variance float64
	for _, b := range buckets {
		variance += (b - mean) * (b - mean)
	}
	variance /= float64(numBuckets)
	cv := math.Sqrt(variance) / mean

	return 100.0 * (1.0 - math.Min(cv/2.0, 1.0))
}

// ownershipSpread scores how widely members share significant files. A file
// is significant once enough commits touch it; each contributes its distinct
// member count capped at min(teamSize, 4). With no significant files the
// component is not computable and returns nil, which drops it from the
// weighted base rather than inventing a value.
func ownershipSpread(attribution *schema.AttributionResult, teamSize, significantCommits int) *float64 {
	type fileStat struct {
		commits int
		members map[string]bool
	}
	files := make(map[string]*fileStat)
	for _, ac := range attribution.Commits {
		if ac.Resolution != schema.MemberResolution {
			continue
		}
		for _, f := range ac.Commit.Files {
			stat := files[f.Path]
			if stat == nil {
				stat = &fileStat{members: make(map[string]bool)}
				files[f.Path] = stat
			}
			stat.commits++
			stat.members[ac.MemberID] = true
		}
	}

	authorCap := min(teamSize, ownershipAuthorCap)
	if authorCap < 1 {
		authorCap = 1
	}

	var significant, cappedSum int
	for _, stat := range files {
		if stat.commits < significantCommits {
			continue
		}
		significant++
		cappedSum += min(len(stat.members), authorCap)
	}
	if significant == 0 {
		return nil
	}

	score := 100.0 * float64(cappedSum) / float64(significant*authorCap)
	return schema.Float(score)
}

// sortedMemberIDs returns effort map keys in stable order.
func sortedMemberIDs(efforts map[string]*schema.MemberEffort) []string {
	ids := make([]string, 0, len(efforts))
	for id := range efforts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// sum adds up a float slice.
func sum(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}
