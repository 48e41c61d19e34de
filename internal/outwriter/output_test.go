package outwriter

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courselab/teamscope/internal/contract"
	"github.com/courselab/teamscope/schema"
)

func outputConfig() *contract.Config {
	return &contract.Config{
		Output:    schema.TextOut,
		Precision: 1,
		Width:     120,
		Workers:   4,
		Backend:   schema.SQLiteBackend,
	}
}

func sampleResults() []schema.TeamResult {
	return []schema.TeamResult{
		{
			TeamID:   "team-a",
			TeamName: "The Compilers",
			Attribution: &schema.AttributionResult{
				Commits: []schema.AttributedCommit{
					{
						Commit: schema.CommitRecord{
							SHA:       "abcdef0123456789",
							Timestamp: time.Date(2026, 3, 2, 14, 30, 0, 0, time.UTC),
							Message:   "implement parser",
						},
						Resolution: schema.MemberResolution,
						MemberID:   "alice",
						Source:     schema.EmailSource,
					},
					{
						Commit: schema.CommitRecord{
							SHA:       "fedcba9876543210",
							Timestamp: time.Date(2026, 3, 3, 9, 0, 0, 0, time.UTC),
							Message:   "tune scheduler",
						},
						Resolution: schema.MemberResolution,
						MemberID:   "bob",
						Source:     schema.AnchorSource,
					},
				},
				Members: 2,
			},
			Score: &schema.CompositeScore{
				Final:             82.5,
				Base:              82.5,
				PenaltyMultiplier: 1.0,
				Components: schema.ScoreComponents{
					EffortBalance: schema.Float(85),
					LoCBalance:    schema.Float(80),
				},
				Filter: schema.FilterSummary{Total: 10, Kept: 9, Excluded: 1},
			},
		},
		{
			TeamID: "team-b",
			Err:    "cannot read history for team team-b: not a git repository",
		},
	}
}

func TestWriteResultsTable(t *testing.T) {
	var buf bytes.Buffer
	cfg := outputConfig()

	err := writeResultsTable(sampleResults(), cfg, createFloatFormatter(cfg.Precision), 2*time.Second, &buf)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "The Compilers")
	assert.Contains(t, out, "82.5")
	assert.Contains(t, out, contract.HealthyValue)
	assert.Contains(t, out, "analysis failed")
	assert.Contains(t, out, "Scored 1 teams, 1 failed")
	assert.Contains(t, out, "Result backend: sqlite")
}

func TestWriteResultsTableDetail(t *testing.T) {
	var buf bytes.Buffer
	cfg := outputConfig()
	cfg.Detail = true

	results := sampleResults()
	results[0].Score.Penalties = []schema.Penalty{
		{Tag: schema.HighTrivialPenalty, Multiplier: 0.85, Reason: "60% of raw commits excluded by the pre-filter"},
	}

	err := writeResultsTable(results, cfg, createFloatFormatter(cfg.Precision), time.Second, &buf)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "=== The Compilers ===")
	assert.Contains(t, out, "penalty high_trivial_ratio x0.85")
	assert.Contains(t, out, "not applicable") // temporal, ownership, pairing
	assert.Contains(t, out, "Filter: 10 total, 9 kept, 0 reduced, 1 excluded")
	assert.Contains(t, out, "Failed: cannot read history")
}

func TestWriteResultsJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeResultsJSON(&buf, sampleResults()))

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 2)

	assert.Equal(t, float64(1), decoded[0]["rank"])
	assert.Equal(t, contract.HealthyValue, decoded[0]["label"])
	assert.Equal(t, "team-a", decoded[0]["team_id"])

	assert.Equal(t, float64(2), decoded[1]["rank"])
	assert.NotContains(t, decoded[1], "label")
	assert.Contains(t, decoded[1]["error"], "not a git repository")
}

func TestWriteAttributionTable(t *testing.T) {
	var buf bytes.Buffer
	results := sampleResults()

	require.NoError(t, writeAttributionTable(&results[0], &buf))

	out := buf.String()
	assert.Contains(t, out, "abcdef01") // SHAs render shortened
	assert.Contains(t, out, "alice")
	assert.Contains(t, out, "anchor")
	assert.Contains(t, out, "Attributed 2 commits: 2 member, 0 orphan, 0 template")
}

func TestWriteAttributionTableNoData(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeAttributionTable(&schema.TeamResult{TeamID: "team-x"}, &buf))
	assert.Contains(t, buf.String(), "No attribution data for team team-x")
}

func TestWriteRunsTable(t *testing.T) {
	var buf bytes.Buffer
	cfg := outputConfig()
	runs := []schema.RunProgress{
		{
			ID:             3,
			CourseID:       "cs101",
			State:          schema.RunningRun,
			TeamsTotal:     8,
			TeamsCompleted: 5,
			StartedAt:      time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		},
		{
			ID:             2,
			CourseID:       "cs101",
			State:          schema.DoneRun,
			TeamsTotal:     8,
			TeamsCompleted: 8,
			TeamsFailed:    1,
			StartedAt:      time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
			FinishedAt:     time.Date(2026, 3, 1, 9, 5, 0, 0, time.UTC),
		},
	}

	require.NoError(t, writeRunsTable(runs, cfg, &buf))

	out := buf.String()
	assert.Contains(t, out, "running")
	assert.Contains(t, out, "done")
	assert.Contains(t, out, "2026-03-01 09:05:00")
}

func TestWriteRunsTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	cfg := outputConfig()
	cfg.CourseID = "cs101"

	require.NoError(t, writeRunsTable(nil, cfg, &buf))
	assert.Contains(t, buf.String(), "No runs recorded for course cs101")
}

func TestTruncateName(t *testing.T) {
	assert.Equal(t, "short", truncateName("short", 10))
	assert.Equal(t, "exactly-te", truncateName("exactly-te", 10))
	assert.Equal(t, "a-very-...", truncateName("a-very-long-team-name", 10))
	assert.Equal(t, "ab", truncateName("abcdef", 2))
}

func TestGetMaxTableNameWidth(t *testing.T) {
	cfg := outputConfig()

	cfg.Width = 200
	assert.Equal(t, 40, getMaxTableNameWidth(cfg)) // capped

	cfg.Width = 55
	assert.Equal(t, 10, getMaxTableNameWidth(cfg)) // floored

	cfg.Width = 80
	assert.Equal(t, 30, getMaxTableNameWidth(cfg))

	cfg.Detail = true
	cfg.Width = 80
	assert.Equal(t, 10, getMaxTableNameWidth(cfg))
}
