// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"
	"errors"

	"github.com/courselab/teamscope/schema"
)

// GitClient defines the necessary operations for commit-graph analysis.
// This allows the core logic to be tested without needing a real git executable.
type GitClient interface {
	// GetRepoRoot returns the absolute path to the root of the Git repository
	// containing the given context path.
	GetRepoRoot(ctx context.Context, contextPath string) (string, error)

	// GetCommitGraph returns every commit reachable from any ref, with parent
	// edges, per-file numstat churn and subject lines. Order is not specified;
	// callers must sort for determinism.
	GetCommitGraph(ctx context.Context, repoPath string) ([]schema.CommitRecord, error)

	// GetSemanticLineCounts returns added+deleted line counts per commit under
	// a whitespace-insensitive diff, keyed by SHA. Used by the FORMAT_ONLY rule.
	GetSemanticLineCounts(ctx context.Context, repoPath string) (map[string]int, error)
}

// ErrRaterUnavailable signals that the rating collaborator cannot be reached
// at all. A team-wide rating outage degrades that team's analysis to
// LoC-balance-only scoring; it is not a fatal error.
var ErrRaterUnavailable = errors.New("rating collaborator unavailable")

// Rater is the external per-chunk quality-rating collaborator. The model
// itself is out of scope; implementations adapt a concrete service (or a
// test double) to this interface.
type Rater interface {
	// RateChunk rates a single chunk. A failed call returns an error; the
	// caller records a zero-effort error chunk and continues.
	RateChunk(ctx context.Context, chunk *schema.CommitChunk) (schema.Rating, error)
}

// AttendanceSource supplies the paired-session schedule for a team.
type AttendanceSource interface {
	TeamAttendance(team *schema.Team) (*schema.TeamAttendance, error)
}

// ErrRunActive is returned when a second run is started for a course that
// already has an active run. Callers must fail fast, not retry.
var ErrRunActive = errors.New("an analysis run is already active for this course")

// ResultStore persists run progress and per-team results.
// The progress record is single-writer: only the run that claimed it via
// BeginRun may update it.
type ResultStore interface {
	// BeginRun claims the progress record for a course. It returns
	// ErrRunActive if another run is still in the running state.
	BeginRun(courseID string, teamsTotal int) (int64, error)

	// RecordTeamResult persists one finished team and bumps the progress
	// counters.
	RecordTeamResult(runID int64, result *schema.TeamResult) error

	// EndRun finalizes the progress record with a terminal state.
	EndRun(runID int64, state schema.RunState) error

	// ListRuns returns progress records for a course, newest first.
	ListRuns(courseID string, limit int) ([]schema.RunProgress, error)

	// Close releases the underlying storage handle.
	Close() error
}
