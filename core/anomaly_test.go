package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courselab/teamscope/schema"
)

func anomalyAttribution(commits ...schema.AttributedCommit) *schema.AttributionResult {
	return &schema.AttributionResult{Commits: commits}
}

func memberCommitAt(memberID string, at time.Time) schema.AttributedCommit {
	return attributedMember(memberID, schema.CommitRecord{
		SHA:       memberID + at.Format("20060102150405"),
		Timestamp: at,
	})
}

func TestDetectAnomaliesEmptyHistory(t *testing.T) {
	assert.Nil(t, DetectAnomalies(anomalyAttribution()))
}

func TestDetectAnomaliesHealthyTeam(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var commits []schema.AttributedCommit
	// Both members commit steadily every other day for six weeks.
	for day := 0; day < 42; day += 2 {
		commits = append(commits, memberCommitAt("alice", start.AddDate(0, 0, day)))
		commits = append(commits, memberCommitAt("bob", start.AddDate(0, 0, day).Add(3*time.Hour)))
	}

	assert.Empty(t, DetectAnomalies(anomalyAttribution(commits...)))
}

func TestDetectAnomaliesLateDump(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 40)
	var commits []schema.AttributedCommit
	// A few early commits, then the bulk lands in the final days.
	commits = append(commits, memberCommitAt("alice", start))
	commits = append(commits, memberCommitAt("bob", start.AddDate(0, 0, 14)))
	for i := 0; i < 8; i++ {
		commits = append(commits, memberCommitAt("alice", end.Add(-time.Duration(i)*time.Hour)))
		commits = append(commits, memberCommitAt("bob", end.Add(-time.Duration(i)*time.Hour-30*time.Minute)))
	}

	flags := DetectAnomalies(anomalyAttribution(commits...))

	found := findAnomaly(flags, schema.LateDumpAnomaly)
	require.NotNil(t, found)
	// 16 of 18 commits in the final fifth of the window.
	assert.InDelta(t, 88.889, found.Verified, 0.01)
	assert.NotEmpty(t, found.Detail)
}

func TestDetectAnomaliesSoloDevelopment(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var commits []schema.AttributedCommit
	for day := 0; day < 9; day++ {
		commits = append(commits, memberCommitAt("alice", start.AddDate(0, 0, day)))
	}
	commits = append(commits, memberCommitAt("bob", start.AddDate(0, 0, 9)))

	flags := DetectAnomalies(anomalyAttribution(commits...))

	found := findAnomaly(flags, schema.SoloDevelopmentAnomaly)
	require.NotNil(t, found)
	assert.InDelta(t, 90.0, found.Verified, 0.01)
}

func TestDetectAnomaliesInactivePeriod(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	commits := []schema.AttributedCommit{
		memberCommitAt("alice", start),
		memberCommitAt("bob", start.AddDate(0, 0, 1)),
		// A 30-day dead zone inside a 40-day window.
		memberCommitAt("alice", start.AddDate(0, 0, 31)),
		memberCommitAt("bob", start.AddDate(0, 0, 40)),
	}

	flags := DetectAnomalies(anomalyAttribution(commits...))

	found := findAnomaly(flags, schema.InactivePeriodAnomaly)
	require.NotNil(t, found)
	assert.InDelta(t, 75.0, found.Verified, 0.01)
}

// TestVerifyAnomaliesDiscardsOverclaim pins the two-stage contract: a
// candidate whose exact recomputation lands under the threshold is dropped,
// and confirmed flags carry the corrected percentage.
func TestVerifyAnomaliesDiscardsOverclaim(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var commits []schema.AttributedCommit
	// 6 of 10 commits by alice: above no threshold (60% <= 70%).
	for day := 0; day < 6; day++ {
		commits = append(commits, memberCommitAt("alice", start.AddDate(0, 0, day)))
	}
	for day := 6; day < 10; day++ {
		commits = append(commits, memberCommitAt("bob", start.AddDate(0, 0, day)))
	}
	evidence := BuildAnomalyEvidence(anomalyAttribution(commits...))

	candidates := []schema.AnomalyFlag{
		{Kind: schema.SoloDevelopmentAnomaly, Claimed: 95},
	}

	assert.Empty(t, VerifyAnomalies(candidates, evidence))
}

func TestVerifyAnomaliesCorrectsClaim(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var commits []schema.AttributedCommit
	for day := 0; day < 8; day++ {
		commits = append(commits, memberCommitAt("alice", start.AddDate(0, 0, day)))
	}
	for day := 8; day < 10; day++ {
		commits = append(commits, memberCommitAt("bob", start.AddDate(0, 0, day)))
	}
	evidence := BuildAnomalyEvidence(anomalyAttribution(commits...))

	candidates := []schema.AnomalyFlag{
		{Kind: schema.SoloDevelopmentAnomaly, Claimed: 95},
	}
	confirmed := VerifyAnomalies(candidates, evidence)

	require.Len(t, confirmed, 1)
	assert.Equal(t, 95.0, confirmed[0].Claimed)
	assert.InDelta(t, 80.0, confirmed[0].Verified, 0.01)
}

func findAnomaly(flags []schema.AnomalyFlag, kind schema.AnomalyKind) *schema.AnomalyFlag {
	for i := range flags {
		if flags[i].Kind == kind {
			return &flags[i]
		}
	}
	return nil
}
