package rater

import (
	"context"

	"github.com/courselab/teamscope/internal/contract"
	"github.com/courselab/teamscope/schema"
)

// MockRater returns canned ratings keyed by chunk ID. Chunks without an
// entry get Fallback. Err, when set, is returned for every call.
type MockRater struct {
	Ratings  map[string]schema.Rating
	Fallback schema.Rating
	Err      error
	Calls    int
}

var _ contract.Rater = &MockRater{}

func (m *MockRater) RateChunk(_ context.Context, chunk *schema.CommitChunk) (schema.Rating, error) {
	m.Calls++
	if m.Err != nil {
		return schema.Rating{}, m.Err
	}
	if rating, ok := m.Ratings[chunk.ID]; ok {
		rating.ChunkID = chunk.ID
		return rating, nil
	}
	rating := m.Fallback
	rating.ChunkID = chunk.ID
	return rating, nil
}
