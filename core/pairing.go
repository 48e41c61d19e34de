package core

import (
	"math"
	"time"

	"github.com/courselab/teamscope/schema"
)

// pairTeamSize is the only team size pair-programming verification covers.
const pairTeamSize = 2

// Session credit values.
const (
	fullCredit = 1.0
	halfCredit = 0.5
)

// VerifyPairProgramming cross-checks commit activity against scheduled
// joint sessions. It applies only to two-member teams with at least one
// scheduled session; for everyone else the result is nil (not applicable),
// which is distinct from a zero score.
//
// A member participates in a session by committing on that UTC calendar day
// while the schedule does not mark them absent. Full credit when both
// members participated, half when exactly one did, zero otherwise. The
// score is min(100, 100*credit/mandatorySessions); exceeding the mandatory
// count does not exceed 100.
func VerifyPairProgramming(
	attribution *schema.AttributionResult,
	attendance *schema.TeamAttendance,
	teamSize int,
	mandatorySessions int,
) *float64 {
	if teamSize != pairTeamSize || mandatorySessions <= 0 {
		return nil
	}
	if attendance == nil || len(attendance.Sessions) == 0 {
		return nil
	}

	// Index which members committed on which calendar day.
	commitDays := make(map[string]map[string]bool) // day -> member set
	for _, ac := range attribution.Commits {
		if ac.Resolution != schema.MemberResolution {
			continue
		}
		day := calendarDay(ac.Commit.Timestamp)
		if commitDays[day] == nil {
			commitDays[day] = make(map[string]bool)
		}
		commitDays[day][ac.MemberID] = true
	}

	var credit float64
	for _, session := range attendance.Sessions {
		participants := 0
		for member := range commitDays[calendarDay(session.Date)] {
			if present, recorded := session.Attended[member]; recorded && !present {
				continue // committed remotely while marked absent
			}
			participants++
		}
		switch {
		case participants >= pairTeamSize:
			credit += fullCredit
		case participants == 1:
			credit += halfCredit
		}
	}

	score := math.Min(100, 100*credit/float64(mandatorySessions))
	return schema.Float(score)
}

// calendarDay collapses a timestamp to its UTC calendar day.
func calendarDay(t time.Time) string {
	return t.UTC().Format(time.DateOnly)
}
