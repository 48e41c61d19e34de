package core

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/courselab/teamscope/schema"
)

// Anomaly thresholds. All shares are strict (>).
const (
	lateDumpWindowFraction = 0.20
	lateDumpShare          = 0.50
	soloCommitShare        = 0.70
	inactiveGapShare       = 0.50
	unevenBucketShare      = 0.50
	unevenMinWeeks         = 3
)

// AnomalyEvidence is the raw timeline the detector runs on. It is built
// from attribution output alone; anomaly detection never sees scores.
type AnomalyEvidence struct {
	CommitTimes    []time.Time    // member-attributed commits, sorted ascending
	CommitsByOwner map[string]int // member ID -> commit count
	WindowStart    time.Time
	WindowEnd      time.Time
}

// BuildAnomalyEvidence extracts the detector's evidence from an attribution
// map.
func BuildAnomalyEvidence(attribution *schema.AttributionResult) *AnomalyEvidence {
	evidence := &AnomalyEvidence{CommitsByOwner: make(map[string]int)}
	for _, ac := range attribution.Commits {
		if ac.Resolution != schema.MemberResolution {
			continue
		}
		evidence.CommitTimes = append(evidence.CommitTimes, ac.Commit.Timestamp)
		evidence.CommitsByOwner[ac.MemberID]++
	}
	sort.Slice(evidence.CommitTimes, func(i, j int) bool {
		return evidence.CommitTimes[i].Before(evidence.CommitTimes[j])
	})
	if len(evidence.CommitTimes) > 0 {
		evidence.WindowStart = evidence.CommitTimes[0]
		evidence.WindowEnd = evidence.CommitTimes[len(evidence.CommitTimes)-1]
	}
	return evidence
}

// ProposeAnomalies is the heuristic stage. It suggests candidate flags with
// a claimed supporting percentage using cheap approximations (sampled
// timeline, integer shortcuts). Its numeric claims are never published:
// every candidate passes through VerifyAnomalies first.
func ProposeAnomalies(evidence *AnomalyEvidence) []schema.AnomalyFlag {
	n := len(evidence.CommitTimes)
	if n == 0 {
		return nil
	}
	var candidates []schema.AnomalyFlag

	// Sample roughly 25 commits to approximate the late share.
	step := max(n/25, 1)
	var sampled, lateSampled int
	cutoff := lateCutoff(evidence)
	for i := 0; i < n; i += step {
		sampled++
		if !evidence.CommitTimes[i].Before(cutoff) {
			lateSampled++
		}
	}
	if lateShare := float64(lateSampled) / float64(sampled); lateShare > lateDumpShare {
		candidates = append(candidates, schema.AnomalyFlag{
			Kind:    schema.LateDumpAnomaly,
			Claimed: 100 * lateShare,
		})
	}

	// Rough dominance check against the owner counts.
	var top int
	for _, count := range evidence.CommitsByOwner {
		if count > top {
			top = count
		}
	}
	if topShare := float64(top) / float64(n); topShare > soloCommitShare {
		candidates = append(candidates, schema.AnomalyFlag{
			Kind:    schema.SoloDevelopmentAnomaly,
			Claimed: 100 * topShare,
		})
	}

	// Gap scan over the sampled timeline only.
	span := evidence.WindowEnd.Sub(evidence.WindowStart)
	if span > 0 {
		var maxGap time.Duration
		for i := step; i < n; i += step {
			if gap := evidence.CommitTimes[i].Sub(evidence.CommitTimes[i-step]); gap > maxGap {
				maxGap = gap
			}
		}
		if gapShare := float64(maxGap) / float64(span); gapShare > inactiveGapShare {
			candidates = append(candidates, schema.AnomalyFlag{
				Kind:    schema.InactivePeriodAnomaly,
				Claimed: 100 * gapShare,
			})
		}
	}

	// Bursty clustering: does any week hold most of the sampled commits?
	if share, weeks := topWeekShare(evidence.CommitTimes, evidence.WindowStart, step); weeks >= unevenMinWeeks && share > unevenBucketShare {
		candidates = append(candidates, schema.AnomalyFlag{
			Kind:    schema.UnevenDistributionAnomaly,
			Claimed: 100 * share,
		})
	}

	return candidates
}

// VerifyAnomalies is the deterministic stage. For every candidate it
// recomputes the supporting percentage from exact counts, then confirms the
// flag with the corrected number or discards it when the exact value no
// longer crosses the threshold.
func VerifyAnomalies(candidates []schema.AnomalyFlag, evidence *AnomalyEvidence) []schema.AnomalyFlag {
	n := len(evidence.CommitTimes)
	if n == 0 {
		return nil
	}
	var confirmed []schema.AnomalyFlag

	for _, candidate := range candidates {
		var exact float64
		var threshold float64
		var detail string

		switch candidate.Kind {
		case schema.LateDumpAnomaly:
			exact = exactLateShare(evidence)
			threshold = lateDumpShare
			detail = fmt.Sprintf("%.0f%% of commits in the final %.0f%% of the window",
				100*exact, 100*lateDumpWindowFraction)
		case schema.SoloDevelopmentAnomaly:
			exact = exactTopOwnerShare(evidence)
			threshold = soloCommitShare
			detail = fmt.Sprintf("one contributor authored %.0f%% of commits", 100*exact)
		case schema.InactivePeriodAnomaly:
			exact = exactMaxGapShare(evidence)
			threshold = inactiveGapShare
			detail = fmt.Sprintf("longest inactivity spans %.0f%% of the project duration", 100*exact)
		case schema.UnevenDistributionAnomaly:
			share, weeks := topWeekShare(evidence.CommitTimes, evidence.WindowStart, 1)
			if weeks < unevenMinWeeks {
				continue
			}
			exact = share
			threshold = unevenBucketShare
			detail = fmt.Sprintf("%.0f%% of commits land in a single week", 100*exact)
		default:
			continue
		}

		if exact <= threshold {
			continue // heuristic overclaimed; drop the flag
		}
		confirmed = append(confirmed, schema.AnomalyFlag{
			Kind:     candidate.Kind,
			Claimed:  candidate.Claimed,
			Verified: math.Round(1000*100*exact) / 1000,
			Detail:   detail,
		})
	}
	return confirmed
}

// DetectAnomalies runs both stages. Only verified flags are returned.
func DetectAnomalies(attribution *schema.AttributionResult) []schema.AnomalyFlag {
	evidence := BuildAnomalyEvidence(attribution)
	return VerifyAnomalies(ProposeAnomalies(evidence), evidence)
}

// lateCutoff returns the timestamp where the final window fraction begins.
func lateCutoff(evidence *AnomalyEvidence) time.Time {
	span := evidence.WindowEnd.Sub(evidence.WindowStart)
	return evidence.WindowEnd.Add(-time.Duration(float64(span) * lateDumpWindowFraction))
}

// exactLateShare recomputes the late-commit share from every commit.
func exactLateShare(evidence *AnomalyEvidence) float64 {
	if len(evidence.CommitTimes) == 0 {
		return 0
	}
	cutoff := lateCutoff(evidence)
	var late int
	for _, t := range evidence.CommitTimes {
		if !t.Before(cutoff) {
			late++
		}
	}
	return float64(late) / float64(len(evidence.CommitTimes))
}

// exactTopOwnerShare recomputes the dominant contributor's commit share.
func exactTopOwnerShare(evidence *AnomalyEvidence) float64 {
	if len(evidence.CommitTimes) == 0 {
		return 0
	}
	var top int
	for _, count := range evidence.CommitsByOwner {
		if count > top {
			top = count
		}
	}
	return float64(top) / float64(len(evidence.CommitTimes))
}

// exactMaxGapShare recomputes the largest inter-commit gap share.
func exactMaxGapShare(evidence *AnomalyEvidence) float64 {
	span := evidence.WindowEnd.Sub(evidence.WindowStart)
	if span <= 0 || len(evidence.CommitTimes) < 2 {
		return 0
	}
	var maxGap time.Duration
	for i := 1; i < len(evidence.CommitTimes); i++ {
		if gap := evidence.CommitTimes[i].Sub(evidence.CommitTimes[i-1]); gap > maxGap {
			maxGap = gap
		}
	}
	return float64(maxGap) / float64(span)
}

// topWeekShare buckets commits (optionally strided for the heuristic pass)
// into 7-day weeks and returns the top bucket's share plus the week count.
func topWeekShare(times []time.Time, start time.Time, step int) (float64, int) {
	if len(times) == 0 || step < 1 {
		return 0, 0
	}
	buckets := make(map[int]int)
	var total int
	for i := 0; i < len(times); i += step {
		idx := int(times[i].Sub(start) / weekBucket)
		buckets[idx]++
		total++
	}
	var top int
	maxIdx := 0
	for idx, count := range buckets {
		if count > top {
			top = count
		}
		if idx > maxIdx {
			maxIdx = idx
		}
	}
	return float64(top) / float64(total), maxIdx + 1
}
