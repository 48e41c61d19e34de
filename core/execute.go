package core

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/courselab/teamscope/internal/attendance"
	"github.com/courselab/teamscope/internal/contract"
	"github.com/courselab/teamscope/internal/iostore"
	"github.com/courselab/teamscope/internal/outwriter"
	"github.com/courselab/teamscope/internal/rater"
	"github.com/courselab/teamscope/schema"
)

// ExecuteAnalyze runs the course-wide analysis and prints results.
// It serves as the main entry point for the 'analyze' command.
func ExecuteAnalyze(ctx context.Context, cfg *contract.Config) error {
	start := time.Now()

	roster, err := contract.LoadRoster(cfg.RosterPath)
	if err != nil {
		return err
	}

	// Ctrl-C cancels between team units; finished teams are kept.
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	chunkRater := buildRater(ctx, cfg)

	store, err := iostore.NewResultStore(cfg.Backend, cfg.DBConnect)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	client := contract.NewLocalGitClient()
	// Attendance paths in the roster resolve relative to the roster file.
	attendanceSrc := &attendance.CSVSource{BaseDir: filepath.Dir(cfg.RosterPath)}

	results, runErr := RunCourseAnalysis(ctx, cfg, client, chunkRater, attendanceSrc, store, roster)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}

	duration := time.Since(start)
	if err := outwriter.NewOutWriter().WriteResults(results, cfg, duration); err != nil {
		return err
	}
	return runErr
}

// ExecuteAttribution analyzes a single team and prints the per-commit
// attribution breakdown without rating or scoring.
func ExecuteAttribution(ctx context.Context, cfg *contract.Config, teamID string) error {
	roster, err := contract.LoadRoster(cfg.RosterPath)
	if err != nil {
		return err
	}
	team := findTeam(roster, teamID)
	if team == nil {
		return fmt.Errorf("team %q not found in roster %s", teamID, cfg.RosterPath)
	}

	client := contract.NewLocalGitClient()
	commits, err := readHistory(ctx, client, team.RepoPath)
	if err != nil {
		return fmt.Errorf("cannot read history for team %s: %w", team.ID, err)
	}

	result := &schema.TeamResult{
		TeamID:      team.ID,
		TeamName:    team.Name,
		Attribution: Attribute(commits, team.Anchors, team),
	}
	return outwriter.NewOutWriter().WriteAttribution(result, cfg)
}

// ExecuteCheck validates the roster and verifies that every team repository
// is readable. It fails with a non-zero exit for broken setups, which makes
// it usable as a pre-run gate.
func ExecuteCheck(ctx context.Context, cfg *contract.Config) error {
	roster, err := contract.LoadRoster(cfg.RosterPath)
	if err != nil {
		return err
	}

	client := contract.NewLocalGitClient()
	var broken int
	for i := range roster.Teams {
		team := &roster.Teams[i]
		if _, err := client.GetRepoRoot(ctx, team.RepoPath); err != nil {
			contract.LogWarn(fmt.Sprintf("Team %s repository check failed", team.ID), err)
			broken++
		}
	}
	if broken > 0 {
		return fmt.Errorf("%d of %d team repositories are not readable", broken, len(roster.Teams))
	}
	fmt.Printf("Roster OK: %d teams, all repositories readable\n", len(roster.Teams))
	return nil
}

// ExecuteRuns lists past run records for the configured course.
func ExecuteRuns(cfg *contract.Config, limit int) error {
	store, err := iostore.NewResultStore(cfg.Backend, cfg.DBConnect)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	runs, err := store.ListRuns(cfg.CourseID, limit)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteRuns(runs, cfg)
}

// buildRater constructs the Gemini adapter, degrading to nil when the key is
// missing so teams still get LoC-only scoring.
func buildRater(ctx context.Context, cfg *contract.Config) contract.Rater {
	chunkRater, err := rater.NewGeminiRater(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		contract.LogWarn("Rating disabled, scores degrade to LoC balance", err)
		return nil
	}
	return chunkRater
}

func findTeam(roster *contract.Roster, teamID string) *schema.Team {
	for i := range roster.Teams {
		if roster.Teams[i].ID == teamID {
			return &roster.Teams[i]
		}
	}
	return nil
}
