package schema

import "time"

// FileChange records the per-file churn of one commit, as reported by numstat.
type FileChange struct {
	Path        string `json:"path"`
	Added       int    `json:"added"`
	Deleted     int    `json:"deleted"`
	RenamedFrom string `json:"renamed_from,omitempty"` // set for rename/copy entries
}

// CommitRecord is one commit as read from history. Immutable once read.
type CommitRecord struct {
	SHA           string       `json:"sha"`
	AuthorEmail   string       `json:"author_email"` // raw identity, may match nobody
	Timestamp     time.Time    `json:"timestamp"`
	Message       string       `json:"message"` // subject line only
	Parents       []string     `json:"parents"`
	Files         []FileChange `json:"files"`
	LinesAdded    int          `json:"lines_added"`
	LinesDeleted  int          `json:"lines_deleted"`
	SemanticLines int          `json:"semantic_lines"` // added+deleted under a whitespace-insensitive diff
}

// LinesChanged returns the total churn of the commit.
func (c *CommitRecord) LinesChanged() int {
	return c.LinesAdded + c.LinesDeleted
}

// PushAnchor binds a platform identity to the final commit of one push event.
// Anchors are the only directly-trusted identity evidence.
type PushAnchor struct {
	MemberID string `json:"member_id" yaml:"member"`
	SHA      string `json:"sha" yaml:"sha"`
}

// Member is one registered student on a team.
type Member struct {
	ID     string   `json:"id" yaml:"id"`
	Name   string   `json:"name" yaml:"name"`
	Emails []string `json:"emails" yaml:"emails"`
}

// Team is one student team under analysis.
type Team struct {
	ID             string            `json:"id" yaml:"id"`
	Name           string            `json:"name" yaml:"name"`
	RepoPath       string            `json:"repo_path" yaml:"repo"`
	Members        []Member          `json:"members" yaml:"members"`
	Anchors        []PushAnchor      `json:"anchors" yaml:"anchors"`
	EmailOverrides map[string]string `json:"email_overrides,omitempty" yaml:"email_overrides"` // raw email -> member ID
	AttendanceFile string            `json:"attendance_file,omitempty" yaml:"attendance"`
	TemplateEmails []string          `json:"template_emails,omitempty" yaml:"template_emails"` // known course-staff identities
}

// Size returns the number of registered members.
func (t *Team) Size() int {
	return len(t.Members)
}

// RegisteredEmails returns the raw-email -> member-ID map for all members.
func (t *Team) RegisteredEmails() map[string]string {
	emails := make(map[string]string)
	for _, m := range t.Members {
		for _, e := range m.Emails {
			emails[e] = m.ID
		}
	}
	return emails
}

// AttributedCommit is a CommitRecord plus its resolution outcome.
type AttributedCommit struct {
	Commit     CommitRecord      `json:"commit"`
	Resolution Resolution        `json:"resolution"`
	MemberID   string            `json:"member_id,omitempty"` // set iff Resolution == member
	Source     AttributionSource `json:"source,omitempty"`
}

// AttributionResult is the total attribution map produced by one walk.
type AttributionResult struct {
	Commits  []AttributedCommit `json:"commits"` // ordered by (timestamp, sha) for reproducibility
	Learned  map[string]string  `json:"learned"` // raw email -> member ID, learned from anchors
	Members  int                `json:"members"` // commits resolved to a member
	Orphans  int                `json:"orphans"`
	Template int                `json:"template"`
}

// ByMember groups member-resolved commits by member ID.
func (r *AttributionResult) ByMember() map[string][]AttributedCommit {
	grouped := make(map[string][]AttributedCommit)
	for _, ac := range r.Commits {
		if ac.Resolution == MemberResolution {
			grouped[ac.MemberID] = append(grouped[ac.MemberID], ac)
		}
	}
	return grouped
}

// CommitChunk is one or more commits grouped for a single external rating.
type CommitChunk struct {
	ID           string         `json:"id"` // SHA of the last commit in the chunk
	TeamID       string         `json:"team_id"`
	MemberID     string         `json:"member_id"`
	Commits      []CommitRecord `json:"commits"` // chronological
	LinesAdded   int            `json:"lines_added"`
	LinesDeleted int            `json:"lines_deleted"`
	FilterWeight float64        `json:"filter_weight"` // shared by every commit in the chunk
}

// Start returns the timestamp of the first commit in the chunk.
func (c *CommitChunk) Start() time.Time {
	if len(c.Commits) == 0 {
		return time.Time{}
	}
	return c.Commits[0].Timestamp
}

// End returns the timestamp of the last commit in the chunk.
func (c *CommitChunk) End() time.Time {
	if len(c.Commits) == 0 {
		return time.Time{}
	}
	return c.Commits[len(c.Commits)-1].Timestamp
}
