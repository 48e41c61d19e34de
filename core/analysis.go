package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/courselab/teamscope/internal/contract"
	"github.com/courselab/teamscope/schema"
)

// AnalyzeTeam runs the full pipeline for one team: walk -> filter -> rate ->
// aggregate -> score. Stages are strictly sequential within a team. A
// broken or missing repository fails this team only; the error lands in the
// result rather than aborting the batch.
func AnalyzeTeam(
	ctx context.Context,
	cfg *contract.Config,
	client contract.GitClient,
	rater contract.Rater,
	attendanceSrc contract.AttendanceSource,
	team *schema.Team,
) *schema.TeamResult {
	started := time.Now()
	result := &schema.TeamResult{TeamID: team.ID, TeamName: team.Name}
	defer func() { result.Duration = time.Since(started) }()

	// --- 1. History Read ---
	commits, err := readHistory(ctx, client, team.RepoPath)
	if err != nil {
		result.Err = fmt.Sprintf("cannot read history for team %s: %v", team.ID, err)
		return result
	}

	// --- 2. Attribution Walk ---
	attribution := Attribute(commits, team.Anchors, team)
	result.Attribution = attribution

	// --- 3. Pre-Filter ---
	memberCommits := memberCommitRecords(attribution)
	decisions := ClassifyCommits(memberCommits)
	result.Decisions = decisions

	// --- 4. Chunking and External Rating ---
	chunks := BuildChunks(team.ID, attribution, decisions, cfg.ChunkGap, cfg.ChunkMaxCommits)
	ratings, raterDown := rateChunks(ctx, cfg, rater, chunks)

	// --- 5. Aggregation ---
	aggregate := AggregateEffort(team, chunks, ratings, decisions, cfg.ConfidenceThreshold)

	// --- 6. Scoring ---
	attendance := loadAttendance(attendanceSrc, team)
	components := ComputeComponents(aggregate, attribution, attendance, cfg.SignificantCommits, cfg.MandatorySessions)
	result.Score = ComputeComposite(cfg, aggregate, components, DefaultPenaltyRules(), raterDown)

	// --- 7. Anomaly Flags (display only) ---
	result.Anomalies = DetectAnomalies(attribution)

	return result
}

// readHistory fetches and orders the commit graph, merging in the
// whitespace-insensitive counts the FORMAT_ONLY rule needs.
func readHistory(ctx context.Context, client contract.GitClient, repoPath string) ([]schema.CommitRecord, error) {
	commits, err := client.GetCommitGraph(ctx, repoPath)
	if err != nil {
		return nil, err
	}
	semantic, err := client.GetSemanticLineCounts(ctx, repoPath)
	if err != nil {
		return nil, err
	}
	for i := range commits {
		if count, ok := semantic[commits[i].SHA]; ok {
			commits[i].SemanticLines = count
		} else {
			// No -w entry means no diff survived; fall back to raw churn so
			// the commit is not misread as format-only.
			commits[i].SemanticLines = commits[i].LinesChanged()
		}
	}
	sort.Slice(commits, func(i, j int) bool {
		if !commits[i].Timestamp.Equal(commits[j].Timestamp) {
			return commits[i].Timestamp.Before(commits[j].Timestamp)
		}
		return commits[i].SHA < commits[j].SHA
	})
	return commits, nil
}

// memberCommitRecords extracts the member-attributed commits in order.
// Orphan and template commits are never rated or counted.
func memberCommitRecords(attribution *schema.AttributionResult) []schema.CommitRecord {
	var commits []schema.CommitRecord
	for _, ac := range attribution.Commits {
		if ac.Resolution == schema.MemberResolution {
			commits = append(commits, ac.Commit)
		}
	}
	return commits
}

// rateChunks calls the external rating collaborator with bounded per-team
// concurrency and a per-call timeout. A failed or timed-out call degrades
// only its chunk; the chunk is recorded as a zero-effort failure. The
// second return value reports a team-wide rating outage.
func rateChunks(
	ctx context.Context,
	cfg *contract.Config,
	rater contract.Rater,
	chunks []*schema.CommitChunk,
) (map[string]schema.Rating, bool) {
	ratings := make(map[string]schema.Rating, len(chunks))
	if len(chunks) == 0 || rater == nil {
		return ratings, rater == nil && len(chunks) > 0
	}

	chunkCh := make(chan *schema.CommitChunk, len(chunks))
	ratingCh := make(chan schema.Rating, len(chunks))
	var unavailable sync.Once
	var raterDown bool

	var wg sync.WaitGroup
	for range cfg.RatingWorkers {
		wg.Go(func() {
			for chunk := range chunkCh {
				callCtx, cancel := context.WithTimeout(ctx, cfg.RatingTimeout)
				rating, err := rater.RateChunk(callCtx, chunk)
				cancel()
				if err != nil {
					if errors.Is(err, contract.ErrRaterUnavailable) {
						unavailable.Do(func() { raterDown = true })
					} else {
						contract.LogWarn(fmt.Sprintf("Rating failed for chunk %s", chunk.ID), err)
					}
					rating = schema.Rating{ChunkID: chunk.ID, Failed: true}
				}
				rating.ChunkID = chunk.ID
				ratingCh <- rating
			}
		})
	}

	for _, chunk := range chunks {
		chunkCh <- chunk
	}
	close(chunkCh)
	wg.Wait()
	close(ratingCh)

	var failed int
	for rating := range ratingCh {
		if rating.Failed {
			failed++
		}
		ratings[rating.ChunkID] = rating
	}
	// Every chunk failing is indistinguishable from an unreachable
	// collaborator; both degrade the team to LoC-balance scoring.
	if failed == len(chunks) {
		raterDown = true
	}
	return ratings, raterDown
}

// loadAttendance fetches the paired-session schedule, tolerating teams
// without one.
func loadAttendance(src contract.AttendanceSource, team *schema.Team) *schema.TeamAttendance {
	if src == nil {
		return nil
	}
	attendance, err := src.TeamAttendance(team)
	if err != nil {
		contract.LogWarn(fmt.Sprintf("No attendance schedule for team %s", team.ID), err)
		return nil
	}
	return attendance
}

// RunCourseAnalysis processes every team in the roster with a bounded
// worker pool. Team pipelines are fully independent; the only shared state
// is the progress record, updated by the single collector goroutine below.
// Cancellation is cooperative and takes effect between whole-team units:
// results already computed are preserved and persisted.
func RunCourseAnalysis(
	ctx context.Context,
	cfg *contract.Config,
	client contract.GitClient,
	rater contract.Rater,
	attendanceSrc contract.AttendanceSource,
	store contract.ResultStore,
	roster *contract.Roster,
) ([]schema.TeamResult, error) {
	runID, err := store.BeginRun(cfg.CourseID, len(roster.Teams))
	if err != nil {
		// ErrRunActive surfaces here; a second concurrent run must fail
		// fast instead of corrupting the progress record.
		return nil, err
	}

	teamCh := make(chan *schema.Team, len(roster.Teams))
	resultCh := make(chan *schema.TeamResult, len(roster.Teams))

	var wg sync.WaitGroup
	for range cfg.Workers {
		wg.Go(func() {
			for team := range teamCh {
				if ctx.Err() != nil {
					continue // drain without starting new teams
				}
				resultCh <- AnalyzeTeam(ctx, cfg, client, rater, attendanceSrc, team)
			}
		})
	}

	for i := range roster.Teams {
		teamCh <- &roster.Teams[i]
	}
	close(teamCh)

	// Single-writer discipline: only this goroutine touches the progress
	// record while workers run.
	done := make(chan struct{})
	var results []schema.TeamResult
	go func() {
		defer close(done)
		for result := range resultCh {
			results = append(results, *result)
			if err := store.RecordTeamResult(runID, result); err != nil {
				contract.LogWarn(fmt.Sprintf("Cannot persist result for team %s", result.TeamID), err)
			}
		}
	}()

	wg.Wait()
	close(resultCh)
	<-done

	sort.Slice(results, func(i, j int) bool { return results[i].TeamID < results[j].TeamID })

	state := schema.DoneRun
	if ctx.Err() != nil {
		state = schema.CancelledRun
	}
	if err := store.EndRun(runID, state); err != nil {
		contract.LogWarn("Cannot finalize run progress", err)
	}
	if ctx.Err() != nil {
		return results, fmt.Errorf("run cancelled after %d of %d teams: %w", len(results), len(roster.Teams), ctx.Err())
	}
	return results, nil
}
