package core

import (
	"sort"
	"time"

	"github.com/courselab/teamscope/schema"
)

// BuildChunks bundles a member's rapid commit bursts into chunks for rating.
// Commits are grouped when authored by the same member, separated by at most
// the configured gap, and sharing the same filter weight (so a chunk has one
// well-defined weight). Excluded commits never reach a chunk.
func BuildChunks(
	teamID string,
	attribution *schema.AttributionResult,
	decisions []schema.FilterDecision,
	gap time.Duration,
	maxCommits int,
) []*schema.CommitChunk {
	weights := make(map[string]float64, len(decisions))
	for _, d := range decisions {
		weights[d.SHA] = d.Weight
	}

	byMember := attribution.ByMember()
	memberIDs := make([]string, 0, len(byMember))
	for id := range byMember {
		memberIDs = append(memberIDs, id)
	}
	sort.Strings(memberIDs)

	var chunks []*schema.CommitChunk
	for _, memberID := range memberIDs {
		commits := byMember[memberID]
		sort.Slice(commits, func(i, j int) bool {
			ti, tj := commits[i].Commit.Timestamp, commits[j].Commit.Timestamp
			if !ti.Equal(tj) {
				return ti.Before(tj)
			}
			return commits[i].Commit.SHA < commits[j].Commit.SHA
		})

		var current *schema.CommitChunk
		for _, ac := range commits {
			weight, rated := weights[ac.Commit.SHA]
			if !rated || weight == 0 {
				continue
			}
			if current != nil && !extendsChunk(current, &ac.Commit, weight, gap, maxCommits) {
				chunks = append(chunks, current)
				current = nil
			}
			if current == nil {
				current = &schema.CommitChunk{
					TeamID:       teamID,
					MemberID:     memberID,
					FilterWeight: weight,
				}
			}
			current.Commits = append(current.Commits, ac.Commit)
			current.LinesAdded += ac.Commit.LinesAdded
			current.LinesDeleted += ac.Commit.LinesDeleted
			current.ID = ac.Commit.SHA // last commit identifies the chunk
		}
		if current != nil {
			chunks = append(chunks, current)
		}
	}
	return chunks
}

// extendsChunk reports whether a commit continues the current burst.
func extendsChunk(chunk *schema.CommitChunk, c *schema.CommitRecord, weight float64, gap time.Duration, maxCommits int) bool {
	if weight != chunk.FilterWeight {
		return false
	}
	if maxCommits > 0 && len(chunk.Commits) >= maxCommits {
		return false
	}
	last := chunk.Commits[len(chunk.Commits)-1]
	return c.Timestamp.Sub(last.Timestamp) <= gap
}

// AggregateEffort folds per-chunk ratings into per-member totals and the
// timeline events consumed by the scorers. A failed rating degrades its
// chunk to zero weighted effort but the chunk's commits still count toward
// commit totals and raw lines.
func AggregateEffort(
	team *schema.Team,
	chunks []*schema.CommitChunk,
	ratings map[string]schema.Rating,
	decisions []schema.FilterDecision,
	confidenceThreshold float64,
) *schema.TeamAggregate {
	aggregate := &schema.TeamAggregate{
		TeamID:   team.ID,
		TeamSize: team.Size(),
		Efforts:  make(map[string]*schema.MemberEffort),
		Filter:   schema.SummarizeFilterDecisions(decisions),
	}
	for _, m := range team.Members {
		aggregate.Efforts[m.ID] = &schema.MemberEffort{MemberID: m.ID}
	}

	for _, chunk := range chunks {
		effort := aggregate.Efforts[chunk.MemberID]
		if effort == nil {
			effort = &schema.MemberEffort{MemberID: chunk.MemberID}
			aggregate.Efforts[chunk.MemberID] = effort
		}
		effort.ChunkCount++
		effort.CommitCount += len(chunk.Commits)
		effort.RawLines += float64(chunk.LinesAdded+chunk.LinesDeleted) * chunk.FilterWeight

		extendWindow(aggregate, chunk)

		rating, ok := ratings[chunk.ID]
		if !ok || rating.Failed {
			effort.FailedChunks++
			aggregate.FailedRatingCount++
			continue
		}
		aggregate.RatingCount++
		if rating.Confidence < confidenceThreshold {
			aggregate.LowConfidenceCount++
		}

		weighted := rating.Effort * rating.QualityMultiplier() * chunk.FilterWeight
		effort.WeightedEffort += weighted

		// Spread the chunk's effort evenly across its commits so temporal
		// analysis sees the real activity times, not just chunk boundaries.
		perCommit := weighted / float64(len(chunk.Commits))
		for _, c := range chunk.Commits {
			aggregate.EffortEvents = append(aggregate.EffortEvents, schema.EffortEvent{
				MemberID: chunk.MemberID,
				At:       c.Timestamp,
				Effort:   perCommit,
			})
		}
	}

	sort.Slice(aggregate.EffortEvents, func(i, j int) bool {
		ei, ej := aggregate.EffortEvents[i], aggregate.EffortEvents[j]
		if !ei.At.Equal(ej.At) {
			return ei.At.Before(ej.At)
		}
		return ei.MemberID < ej.MemberID
	})
	return aggregate
}

// extendWindow widens the team's active window to cover a chunk.
func extendWindow(aggregate *schema.TeamAggregate, chunk *schema.CommitChunk) {
	start, end := chunk.Start(), chunk.End()
	if aggregate.WindowStart.IsZero() || start.Before(aggregate.WindowStart) {
		aggregate.WindowStart = start
	}
	if end.After(aggregate.WindowEnd) {
		aggregate.WindowEnd = end
	}
}
