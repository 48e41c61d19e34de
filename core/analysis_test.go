package core

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courselab/teamscope/internal/contract"
	"github.com/courselab/teamscope/internal/iostore"
	"github.com/courselab/teamscope/internal/rater"
	"github.com/courselab/teamscope/schema"
)

// fakeGitClient serves canned commit graphs keyed by repo path.
type fakeGitClient struct {
	graphs   map[string][]schema.CommitRecord
	semantic map[string]map[string]int
	err      error
}

var _ contract.GitClient = &fakeGitClient{}

func (f *fakeGitClient) GetRepoRoot(_ context.Context, contextPath string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return contextPath, nil
}

func (f *fakeGitClient) GetCommitGraph(_ context.Context, repoPath string) ([]schema.CommitRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.graphs[repoPath], nil
}

func (f *fakeGitClient) GetSemanticLineCounts(_ context.Context, repoPath string) (map[string]int, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.semantic[repoPath], nil
}

func analysisConfig() *contract.Config {
	return &contract.Config{
		CourseID:            "cs101",
		Workers:             2,
		RatingWorkers:       1,
		RatingTimeout:       time.Second,
		Weights:             schema.DefaultWeights(),
		SignificantCommits:  3,
		ConfidenceThreshold: 0.5,
		ChunkGap:            30 * time.Minute,
		ChunkMaxCommits:     10,
	}
}

func productiveCommit(sha, email string, hour, added int) schema.CommitRecord {
	return schema.CommitRecord{
		SHA:         sha,
		AuthorEmail: email,
		Timestamp:   walkBase.Add(time.Duration(hour) * time.Hour),
		Message:     "implement feature " + sha,
		Files:       []schema.FileChange{{Path: "src/" + sha + ".go", Added: added}},
		LinesAdded:  added,
	}
}

func fakeRepo(team *schema.Team, commits []schema.CommitRecord) *fakeGitClient {
	semantic := make(map[string]int, len(commits))
	for _, c := range commits {
		semantic[c.SHA] = c.LinesAdded + c.LinesDeleted
	}
	return &fakeGitClient{
		graphs:   map[string][]schema.CommitRecord{team.RepoPath: commits},
		semantic: map[string]map[string]int{team.RepoPath: semantic},
	}
}

func TestRateChunks(t *testing.T) {
	cfg := analysisConfig()
	chunk := func(id string) *schema.CommitChunk {
		return &schema.CommitChunk{
			ID:      id,
			TeamID:  "team-1",
			Commits: []schema.CommitRecord{{SHA: id, Timestamp: walkBase}},
		}
	}

	t.Run("no chunks", func(t *testing.T) {
		ratings, raterDown := rateChunks(context.Background(), cfg, &rater.MockRater{}, nil)
		assert.Empty(t, ratings)
		assert.False(t, raterDown)
	})

	t.Run("nil rater with work pending", func(t *testing.T) {
		_, raterDown := rateChunks(context.Background(), cfg, nil, []*schema.CommitChunk{chunk("c1")})
		assert.True(t, raterDown)
	})

	t.Run("successful ratings", func(t *testing.T) {
		mock := &rater.MockRater{
			Ratings: map[string]schema.Rating{
				"c1": {Effort: 7, Complexity: 5, Novelty: 3, Confidence: 0.8},
			},
			Fallback: schema.Rating{Effort: 4, Complexity: 4, Novelty: 4, Confidence: 0.6},
		}
		ratings, raterDown := rateChunks(context.Background(), cfg, mock, []*schema.CommitChunk{chunk("c1"), chunk("c2")})

		assert.False(t, raterDown)
		require.Len(t, ratings, 2)
		assert.Equal(t, 7.0, ratings["c1"].Effort)
		assert.Equal(t, 4.0, ratings["c2"].Effort)
		assert.Equal(t, 2, mock.Calls)
	})

	t.Run("unreachable collaborator", func(t *testing.T) {
		mock := &rater.MockRater{Err: contract.ErrRaterUnavailable}
		ratings, raterDown := rateChunks(context.Background(), cfg, mock, []*schema.CommitChunk{chunk("c1")})

		assert.True(t, raterDown)
		require.Len(t, ratings, 1)
		assert.True(t, ratings["c1"].Failed)
	})

	t.Run("every chunk failing degrades the team", func(t *testing.T) {
		mock := &rater.MockRater{Err: errors.New("quota exhausted")}
		_, raterDown := rateChunks(context.Background(), cfg, mock, []*schema.CommitChunk{chunk("c1"), chunk("c2")})
		assert.True(t, raterDown)
	})
}

func TestAnalyzeTeam(t *testing.T) {
	team := makeTeam()
	team.RepoPath = "/repos/team-1"
	commits := []schema.CommitRecord{
		productiveCommit("a1", "alice@school.edu", 0, 50),
		productiveCommit("a2", "alice@school.edu", 24, 60),
		productiveCommit("b1", "bob@school.edu", 2, 40),
		productiveCommit("b2", "bob@school.edu", 26, 70),
	}
	client := fakeRepo(team, commits)
	mock := &rater.MockRater{Fallback: schema.Rating{Effort: 6, Complexity: 5, Novelty: 5, Confidence: 0.9}}

	result := AnalyzeTeam(context.Background(), analysisConfig(), client, mock, nil, team)

	assert.Empty(t, result.Err)
	assert.Equal(t, "team-1", result.TeamID)
	require.NotNil(t, result.Attribution)
	assert.Equal(t, 4, result.Attribution.Members)
	require.Len(t, result.Decisions, 4)
	require.NotNil(t, result.Score)
	assert.Equal(t, schema.NormalScoreTag, result.Score.Tag)
	assert.Greater(t, result.Score.Final, 0.0)
	assert.Greater(t, result.Duration, time.Duration(0))
}

// TestAnalyzeTeamBalancedHistoryScoresFull runs the composed pipeline over a
// clean 50/50 split sustained across four weeks: every statistical component
// lands at 100 and no penalty fires, so the CQI is a full score.
func TestAnalyzeTeamBalancedHistoryScoresFull(t *testing.T) {
	team := makeTeam()
	team.RepoPath = "/repos/team-1"

	// One commit per member per week, identical churn, four weeks.
	var commits []schema.CommitRecord
	for week := range 4 {
		base := week * 7 * 24
		commits = append(commits,
			productiveCommit(fmt.Sprintf("a%d", week), "alice@school.edu", base, 40),
			productiveCommit(fmt.Sprintf("b%d", week), "bob@school.edu", base+12, 40),
		)
	}
	client := fakeRepo(team, commits)
	mock := &rater.MockRater{Fallback: schema.Rating{Effort: 6, Complexity: 5, Novelty: 5, Confidence: 0.9}}

	result := AnalyzeTeam(context.Background(), analysisConfig(), client, mock, nil, team)

	require.Empty(t, result.Err)
	require.NotNil(t, result.Score)
	assert.Equal(t, schema.NormalScoreTag, result.Score.Tag)
	assert.Empty(t, result.Score.Penalties)
	assert.InDelta(t, 100.0, result.Score.Final, 1e-6)
}

// TestAnalyzeTeamDominantContributorCollapsesScore runs the composed pipeline
// over a history where one member holds 95% of the effort: the solo tier
// fires and drags the CQI into the critical band.
func TestAnalyzeTeamDominantContributorCollapsesScore(t *testing.T) {
	team := makeTeam()
	team.RepoPath = "/repos/team-1"

	var commits []schema.CommitRecord
	for i := range 19 {
		commits = append(commits,
			productiveCommit(fmt.Sprintf("a%d", i), "alice@school.edu", i*24, 40))
	}
	commits = append(commits, productiveCommit("b0", "bob@school.edu", 12, 40))
	client := fakeRepo(team, commits)
	mock := &rater.MockRater{Fallback: schema.Rating{Effort: 6, Complexity: 5, Novelty: 5, Confidence: 0.9}}

	result := AnalyzeTeam(context.Background(), analysisConfig(), client, mock, nil, team)

	require.Empty(t, result.Err)
	require.NotNil(t, result.Score)
	assert.Equal(t, schema.NormalScoreTag, result.Score.Tag)

	require.Len(t, result.Score.Penalties, 1)
	assert.Equal(t, schema.SoloDevelopmentPenalty, result.Score.Penalties[0].Tag)
	assert.InDelta(t, contract.SoloMultiplier, result.Score.Penalties[0].Multiplier, 1e-9)

	assert.GreaterOrEqual(t, result.Score.Final, 10.0)
	assert.LessOrEqual(t, result.Score.Final, 20.0)
}

func TestAnalyzeTeamUnreadableRepo(t *testing.T) {
	team := makeTeam()
	team.RepoPath = "/repos/missing"
	client := &fakeGitClient{err: errors.New("not a git repository")}

	result := AnalyzeTeam(context.Background(), analysisConfig(), client, nil, nil, team)

	assert.Contains(t, result.Err, "cannot read history for team team-1")
	assert.Nil(t, result.Score)
}

func courseRoster(teams ...*schema.Team) *contract.Roster {
	roster := &contract.Roster{Course: "cs101"}
	for _, team := range teams {
		roster.Teams = append(roster.Teams, *team)
	}
	return roster
}

func TestRunCourseAnalysis(t *testing.T) {
	teamA := makeTeam()
	teamA.ID, teamA.RepoPath = "team-a", "/repos/team-a"
	teamB := makeTeam()
	teamB.ID, teamB.RepoPath = "team-b", "/repos/team-b"

	commits := []schema.CommitRecord{
		productiveCommit("a1", "alice@school.edu", 0, 50),
		productiveCommit("b1", "bob@school.edu", 2, 40),
	}
	client := &fakeGitClient{
		graphs: map[string][]schema.CommitRecord{
			"/repos/team-a": commits,
			"/repos/team-b": commits,
		},
		semantic: map[string]map[string]int{
			"/repos/team-a": {"a1": 50, "b1": 40},
			"/repos/team-b": {"a1": 50, "b1": 40},
		},
	}
	mock := &rater.MockRater{Fallback: schema.Rating{Effort: 6, Complexity: 5, Novelty: 5, Confidence: 0.9}}
	store := iostore.NewMockResultStore()

	results, err := RunCourseAnalysis(context.Background(), analysisConfig(), client, mock, nil, store, courseRoster(teamA, teamB))

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "team-a", results[0].TeamID)
	assert.Equal(t, "team-b", results[1].TeamID)

	run := store.Runs[1]
	require.NotNil(t, run)
	assert.Equal(t, schema.DoneRun, run.State)
	assert.Equal(t, 2, run.TeamsCompleted)
	assert.Equal(t, 0, run.TeamsFailed)
	assert.Len(t, store.Results[1], 2)
}

func TestRunCourseAnalysisFailsFastOnActiveRun(t *testing.T) {
	store := iostore.NewMockResultStore()
	_, err := store.BeginRun("cs101", 1)
	require.NoError(t, err)

	team := makeTeam()
	results, err := RunCourseAnalysis(context.Background(), analysisConfig(), &fakeGitClient{}, nil, nil, store, courseRoster(team))

	assert.Nil(t, results)
	assert.ErrorIs(t, err, contract.ErrRunActive)
}

func TestRunCourseAnalysisCancellation(t *testing.T) {
	team := makeTeam()
	team.RepoPath = "/repos/team-1"
	store := iostore.NewMockResultStore()

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // cancelled before any team starts

	results, err := RunCourseAnalysis(ctx, analysisConfig(), &fakeGitClient{}, nil, nil, store, courseRoster(team))

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, results)

	run := store.Runs[1]
	require.NotNil(t, run)
	assert.Equal(t, schema.CancelledRun, run.State)
}
