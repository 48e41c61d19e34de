package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courselab/teamscope/schema"
)

func sessionOn(day time.Time) schema.PairSession {
	return schema.PairSession{Date: day}
}

func memberCommitOn(memberID string, day time.Time, hour int) schema.AttributedCommit {
	return attributedMember(memberID, schema.CommitRecord{
		SHA:       memberID + day.Format("20060102"),
		Timestamp: day.Add(time.Duration(hour) * time.Hour),
	})
}

func TestVerifyPairProgrammingNotApplicable(t *testing.T) {
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	attribution := &schema.AttributionResult{
		Commits: []schema.AttributedCommit{memberCommitOn("alice", day, 10)},
	}
	attendance := &schema.TeamAttendance{TeamID: "team-1", Sessions: []schema.PairSession{sessionOn(day)}}

	tests := []struct {
		name       string
		attendance *schema.TeamAttendance
		teamSize   int
		mandatory  int
	}{
		{"three member team", attendance, 3, 6},
		{"single member", attendance, 1, 6},
		{"no mandatory sessions", attendance, 2, 0},
		{"no attendance data", nil, 2, 6},
		{"empty schedule", &schema.TeamAttendance{TeamID: "team-1"}, 2, 6},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Nil(t, VerifyPairProgramming(attribution, test.attendance, test.teamSize, test.mandatory))
		})
	}
}

func TestVerifyPairProgrammingCredit(t *testing.T) {
	d1 := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	d2 := d1.AddDate(0, 0, 7)
	d3 := d1.AddDate(0, 0, 14)

	attribution := &schema.AttributionResult{
		Commits: []schema.AttributedCommit{
			// Both members active on the first session day.
			memberCommitOn("alice", d1, 10),
			memberCommitOn("bob", d1, 14),
			// Only alice on the second.
			memberCommitOn("alice", d2, 9),
			// Nobody on the third; orphan activity does not count.
			{Commit: schema.CommitRecord{SHA: "o1", Timestamp: d3.Add(11 * time.Hour)}, Resolution: schema.OrphanResolution},
		},
	}
	attendance := &schema.TeamAttendance{
		TeamID:   "team-1",
		Sessions: []schema.PairSession{sessionOn(d1), sessionOn(d2), sessionOn(d3)},
	}

	// Credit 1.0 + 0.5 + 0 over 2 mandatory sessions.
	score := VerifyPairProgramming(attribution, attendance, 2, 2)
	require.NotNil(t, score)
	assert.InDelta(t, 75.0, *score, 1e-9)
}

// TestVerifyPairProgrammingRespectsAbsence pins that a commit counts toward
// session credit only when the schedule does not mark its author absent.
func TestVerifyPairProgrammingRespectsAbsence(t *testing.T) {
	d1 := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	d2 := d1.AddDate(0, 0, 7)

	attribution := &schema.AttributionResult{
		Commits: []schema.AttributedCommit{
			memberCommitOn("alice", d1, 10),
			memberCommitOn("bob", d1, 14),
			memberCommitOn("alice", d2, 9),
			memberCommitOn("bob", d2, 15),
		},
	}
	attendance := &schema.TeamAttendance{
		TeamID: "team-1",
		Sessions: []schema.PairSession{
			// Both present and both committed: full credit.
			{Date: d1, Attended: map[string]bool{"alice": true, "bob": true}},
			// Bob marked absent; his commit that day earns nothing.
			{Date: d2, Attended: map[string]bool{"alice": true, "bob": false}},
		},
	}

	// Credit 1.0 + 0.5 over 2 mandatory sessions.
	score := VerifyPairProgramming(attribution, attendance, 2, 2)
	require.NotNil(t, score)
	assert.InDelta(t, 75.0, *score, 1e-9)
}

func TestVerifyPairProgrammingCapsAtFull(t *testing.T) {
	d1 := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	d2 := d1.AddDate(0, 0, 7)

	attribution := &schema.AttributionResult{
		Commits: []schema.AttributedCommit{
			memberCommitOn("alice", d1, 10),
			memberCommitOn("bob", d1, 11),
			memberCommitOn("alice", d2, 10),
			memberCommitOn("bob", d2, 11),
		},
	}
	attendance := &schema.TeamAttendance{
		TeamID:   "team-1",
		Sessions: []schema.PairSession{sessionOn(d1), sessionOn(d2)},
	}

	// Two full-credit sessions against one mandatory session still caps at 100.
	score := VerifyPairProgramming(attribution, attendance, 2, 1)
	require.NotNil(t, score)
	assert.InDelta(t, 100.0, *score, 1e-9)
}
