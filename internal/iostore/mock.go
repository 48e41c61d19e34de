package iostore

import (
	"sync"
	"time"

	"github.com/courselab/teamscope/internal/contract"
	"github.com/courselab/teamscope/schema"
)

// MockResultStore is an in-memory ResultStore for tests.
type MockResultStore struct {
	mu      sync.Mutex
	nextID  int64
	Runs    map[int64]*schema.RunProgress
	Results map[int64][]schema.TeamResult

	BeginErr  error
	RecordErr error
}

var _ contract.ResultStore = &MockResultStore{} // Compile-time check

func NewMockResultStore() *MockResultStore {
	return &MockResultStore{
		Runs:    make(map[int64]*schema.RunProgress),
		Results: make(map[int64][]schema.TeamResult),
	}
}

func (m *MockResultStore) BeginRun(courseID string, teamsTotal int) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.BeginErr != nil {
		return 0, m.BeginErr
	}
	for _, run := range m.Runs {
		if run.CourseID == courseID && run.State == schema.RunningRun {
			return 0, contract.ErrRunActive
		}
	}
	m.nextID++
	m.Runs[m.nextID] = &schema.RunProgress{
		ID:         m.nextID,
		CourseID:   courseID,
		State:      schema.RunningRun,
		TeamsTotal: teamsTotal,
		StartedAt:  time.Now().UTC(),
	}
	return m.nextID, nil
}

func (m *MockResultStore) RecordTeamResult(runID int64, result *schema.TeamResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.RecordErr != nil {
		return m.RecordErr
	}
	m.Results[runID] = append(m.Results[runID], *result)
	if run, ok := m.Runs[runID]; ok {
		run.TeamsCompleted++
		if result.Err != "" {
			run.TeamsFailed++
		}
		run.UpdatedAt = time.Now().UTC()
	}
	return nil
}

func (m *MockResultStore) EndRun(runID int64, state schema.RunState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if run, ok := m.Runs[runID]; ok {
		run.State = state
		run.FinishedAt = time.Now().UTC()
	}
	return nil
}

func (m *MockResultStore) ListRuns(courseID string, limit int) ([]schema.RunProgress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var runs []schema.RunProgress
	for id := m.nextID; id > 0 && len(runs) < limit; id-- {
		if run, ok := m.Runs[id]; ok && run.CourseID == courseID {
			runs = append(runs, *run)
		}
	}
	return runs, nil
}

func (m *MockResultStore) Close() error { return nil }
