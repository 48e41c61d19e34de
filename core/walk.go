package core

import (
	"sort"
	"time"

	"github.com/courselab/teamscope/schema"
)

// Attribute produces the total attribution map for a team's commit DAG.
// It is a pure function of its inputs: same commits + same anchors + same
// mappings always yield the same map.
//
// Push anchors record only the last commit of a push, so intermediate
// commits are recovered by walking parent edges backward from every anchor.
// Conflicts between anchors resolve by nearest-anchor-in-history precedence:
// anchors are processed in commit-timestamp order and an attributed commit
// is never reassigned.
func Attribute(commits []schema.CommitRecord, anchors []schema.PushAnchor, team *schema.Team) *schema.AttributionResult {
	bySHA := make(map[string]*schema.CommitRecord, len(commits))
	for i := range commits {
		bySHA[commits[i].SHA] = &commits[i]
	}

	resolver := NewIdentityResolver(team.RegisteredEmails(), team.EmailOverrides)
	attributed := make(map[string]schema.AttributedCommit, len(commits))

	// --- 1. Anchor Resolution and Mapping Learning ---
	// All anchor commits are attributed first so that every learned mapping
	// is available to every subsequent walk, regardless of anchor order.
	ordered := orderAnchors(anchors, bySHA)
	for _, a := range ordered {
		commit := bySHA[a.SHA]
		if _, done := attributed[a.SHA]; done {
			continue
		}
		attributed[a.SHA] = schema.AttributedCommit{
			Commit:     *commit,
			Resolution: schema.MemberResolution,
			MemberID:   a.MemberID,
			Source:     schema.AnchorSource,
		}
		resolver.Learn(commit.AuthorEmail, a.MemberID)
	}

	// --- 2. Backward Walks from Every Anchor ---
	// Each walk stops at commits already attributed by a closer/earlier
	// anchor, giving closure over all anchors combined.
	for _, a := range ordered {
		walkFromAnchor(bySHA, resolver, attributed, a.SHA)
	}

	// --- 3. Direct Resolution for Unanchored History ---
	// A commit whose raw email matches a registered member is attributed
	// even with zero anchors present.
	rest := make([]string, 0, len(commits))
	for _, c := range commits {
		if _, done := attributed[c.SHA]; !done {
			rest = append(rest, c.SHA)
		}
	}
	sortSHAsByTime(rest, bySHA)
	for _, sha := range rest {
		attributed[sha] = resolveCommit(bySHA[sha], resolver)
	}

	// --- 4. Template Prefix Detection ---
	markTemplatePrefix(bySHA, attributed, team.TemplateEmails)

	return buildResult(commits, attributed, resolver)
}

// orderAnchors sorts anchors by their commit timestamp (then SHA) and drops
// anchors whose commit is absent from the graph.
func orderAnchors(anchors []schema.PushAnchor, bySHA map[string]*schema.CommitRecord) []schema.PushAnchor {
	ordered := make([]schema.PushAnchor, 0, len(anchors))
	for _, a := range anchors {
		if _, ok := bySHA[a.SHA]; ok {
			ordered = append(ordered, a)
		}
	}
	sort.Slice(ordered, func(i, j int) bool {
		ti, tj := bySHA[ordered[i].SHA].Timestamp, bySHA[ordered[j].SHA].Timestamp
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return ordered[i].SHA < ordered[j].SHA
	})
	return ordered
}

// walkFromAnchor traverses parent edges backward from one anchor, resolving
// every commit not yet attributed. Every anchor commit is attributed before
// any walk starts, so a walk that reaches one stops there and a walked
// commit always goes through the resolver.
func walkFromAnchor(
	bySHA map[string]*schema.CommitRecord,
	resolver *IdentityResolver,
	attributed map[string]schema.AttributedCommit,
	anchorSHA string,
) {
	anchor, ok := bySHA[anchorSHA]
	if !ok {
		return
	}
	queue := append([]string(nil), anchor.Parents...)
	for len(queue) > 0 {
		sha := queue[0]
		queue = queue[1:]

		commit, ok := bySHA[sha]
		if !ok {
			continue // shallow or corrupt history edge
		}
		if _, done := attributed[sha]; done {
			continue
		}

		attributed[sha] = resolveCommit(commit, resolver)
		queue = append(queue, commit.Parents...)
	}
}

// resolveCommit applies the resolver to one commit, yielding member or orphan.
func resolveCommit(commit *schema.CommitRecord, resolver *IdentityResolver) schema.AttributedCommit {
	if memberID, source, ok := resolver.Resolve(commit.AuthorEmail); ok {
		return schema.AttributedCommit{
			Commit:     *commit,
			Resolution: schema.MemberResolution,
			MemberID:   memberID,
			Source:     source,
		}
	}
	return schema.AttributedCommit{
		Commit:     *commit,
		Resolution: schema.OrphanResolution,
	}
}

// markTemplatePrefix reclassifies a contiguous orphan prefix of history as
// template. The prefix must predate any member's first commit and share a
// course-staff/template identity. When no template emails are configured,
// the author of the earliest root commit is auto-detected as the candidate.
func markTemplatePrefix(
	bySHA map[string]*schema.CommitRecord,
	attributed map[string]schema.AttributedCommit,
	templateEmails []string,
) {
	firstMember := firstMemberTime(attributed)

	templates := make(map[string]bool, len(templateEmails))
	for _, e := range templateEmails {
		templates[normalizeEmail(e)] = true
	}
	if len(templates) == 0 {
		if email, ok := detectTemplateAuthor(bySHA, attributed, firstMember); ok {
			templates[email] = true
		}
	}
	if len(templates) == 0 {
		return
	}

	// A commit joins the prefix only if every parent already did, so the
	// template region stays contiguous from the root.
	shas := make([]string, 0, len(attributed))
	for sha := range attributed {
		shas = append(shas, sha)
	}
	sortSHAsByTime(shas, bySHA)

	inPrefix := make(map[string]bool)
	for _, sha := range shas {
		ac := attributed[sha]
		if ac.Resolution != schema.OrphanResolution {
			continue
		}
		if !templates[normalizeEmail(ac.Commit.AuthorEmail)] {
			continue
		}
		if firstMember != nil && !ac.Commit.Timestamp.Before(*firstMember) {
			continue
		}
		contiguous := true
		for _, parent := range ac.Commit.Parents {
			if _, known := bySHA[parent]; known && !inPrefix[parent] {
				contiguous = false
				break
			}
		}
		if !contiguous {
			continue
		}
		inPrefix[sha] = true
		ac.Resolution = schema.TemplateResolution
		attributed[sha] = ac
	}
}

// detectTemplateAuthor returns the author email of the earliest root commit
// when that author is unresolved and predates all member activity.
func detectTemplateAuthor(
	bySHA map[string]*schema.CommitRecord,
	attributed map[string]schema.AttributedCommit,
	firstMember *time.Time,
) (string, bool) {
	var roots []string
	for sha, commit := range bySHA {
		if len(commit.Parents) == 0 {
			roots = append(roots, sha)
		}
	}
	sortSHAsByTime(roots, bySHA)
	for _, sha := range roots {
		ac, ok := attributed[sha]
		if !ok || ac.Resolution != schema.OrphanResolution {
			continue
		}
		if firstMember != nil && !ac.Commit.Timestamp.Before(*firstMember) {
			continue
		}
		return normalizeEmail(ac.Commit.AuthorEmail), true
	}
	return "", false
}

// firstMemberTime returns the timestamp of the earliest member-attributed
// commit, or nil when no commit resolved to a member.
func firstMemberTime(attributed map[string]schema.AttributedCommit) *time.Time {
	var first *time.Time
	for _, ac := range attributed {
		if ac.Resolution != schema.MemberResolution {
			continue
		}
		ts := ac.Commit.Timestamp
		if first == nil || ts.Before(*first) {
			first = &ts
		}
	}
	return first
}

// sortSHAsByTime sorts SHAs by (commit timestamp, SHA) for reproducible
// iteration. SHAs absent from the graph sort last.
func sortSHAsByTime(shas []string, bySHA map[string]*schema.CommitRecord) {
	sort.Slice(shas, func(i, j int) bool {
		ci, iok := bySHA[shas[i]]
		cj, jok := bySHA[shas[j]]
		if iok != jok {
			return iok
		}
		if iok && jok && !ci.Timestamp.Equal(cj.Timestamp) {
			return ci.Timestamp.Before(cj.Timestamp)
		}
		return shas[i] < shas[j]
	})
}

// buildResult orders the attribution map and tallies outcome counts.
func buildResult(
	commits []schema.CommitRecord,
	attributed map[string]schema.AttributedCommit,
	resolver *IdentityResolver,
) *schema.AttributionResult {
	result := &schema.AttributionResult{
		Commits: make([]schema.AttributedCommit, 0, len(attributed)),
		Learned: resolver.Learned(),
	}
	ordered := make([]string, 0, len(commits))
	for _, c := range commits {
		ordered = append(ordered, c.SHA)
	}
	bySHA := make(map[string]*schema.CommitRecord, len(commits))
	for i := range commits {
		bySHA[commits[i].SHA] = &commits[i]
	}
	sortSHAsByTime(ordered, bySHA)

	for _, sha := range ordered {
		ac, ok := attributed[sha]
		if !ok {
			continue
		}
		result.Commits = append(result.Commits, ac)
		switch ac.Resolution {
		case schema.MemberResolution:
			result.Members++
		case schema.OrphanResolution:
			result.Orphans++
		case schema.TemplateResolution:
			result.Template++
		}
	}
	return result
}
