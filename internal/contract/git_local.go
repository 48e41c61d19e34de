package contract

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/courselab/teamscope/schema"
)

// commitDelimiter marks the start of a commit entry in log output.
const commitDelimiter = "--"

// LocalGitClient implements the GitClient interface by executing the
// local 'git' binary installed on the machine.
type LocalGitClient struct{}

var _ GitClient = &LocalGitClient{} // Compile-time check

// NewLocalGitClient creates a new instance of the local Git client.
func NewLocalGitClient() *LocalGitClient {
	return &LocalGitClient{}
}

// run executes a git command and returns its stdout output.
func (c *LocalGitClient) run(_ context.Context, repoPath string, args ...string) ([]byte, error) {
	fullArgs := append([]string{"-C", repoPath}, args...)
	cmd := exec.Command("git", fullArgs...)
	out, err := cmd.Output()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		stderr := strings.TrimSpace(string(exitErr.Stderr))
		return nil, fmt.Errorf("git command failed in %q: %s. If this is not a Git repository, verify the path or run 'git init'", repoPath, stderr)
	} else if err != nil {
		return nil, fmt.Errorf("git command failed: %w. Ensure Git is installed and available on your PATH", err)
	}
	return out, nil
}

// GetRepoRoot implements the GitClient interface.
func (c *LocalGitClient) GetRepoRoot(ctx context.Context, contextPath string) (string, error) {
	out, err := c.run(ctx, contextPath, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// GetCommitGraph implements the GitClient interface. It reads every commit
// reachable from any ref, including parent edges and per-file churn.
func (c *LocalGitClient) GetCommitGraph(ctx context.Context, repoPath string) ([]schema.CommitRecord, error) {
	args := []string{
		"log", "--all",
		"--numstat",
		"--date=iso-strict",
		"--pretty=format:" + commitDelimiter + "%H|%P|%ae|%ad|%s",
	}
	out, err := c.run(ctx, repoPath, args...)
	if err != nil {
		return nil, err
	}
	return ParseCommitGraph(string(out))
}

// GetSemanticLineCounts implements the GitClient interface. It re-reads the
// log under a whitespace-insensitive diff so that commits whose entire churn
// is whitespace report zero semantic lines.
func (c *LocalGitClient) GetSemanticLineCounts(ctx context.Context, repoPath string) (map[string]int, error) {
	args := []string{
		"log", "--all", "-w",
		"--numstat",
		"--pretty=format:" + commitDelimiter + "%H",
	}
	out, err := c.run(ctx, repoPath, args...)
	if err != nil {
		return nil, err
	}
	return ParseSemanticCounts(string(out)), nil
}

// ParseCommitGraph parses `git log --all --numstat` output with the
// --<sha>|<parents>|<email>|<date>|<subject> pretty format into commit records.
func ParseCommitGraph(raw string) ([]schema.CommitRecord, error) {
	var commits []schema.CommitRecord
	var current *schema.CommitRecord

	for line := range strings.SplitSeq(raw, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.HasPrefix(line, commitDelimiter) && strings.Contains(line, "|") {
			if current != nil {
				commits = append(commits, *current)
			}
			record, err := parseCommitHeader(strings.TrimPrefix(line, commitDelimiter))
			if err != nil {
				return nil, err
			}
			current = record
			continue
		}
		if current == nil || strings.TrimSpace(line) == "" {
			continue
		}
		if change, ok := parseNumstatLine(line); ok {
			current.Files = append(current.Files, change)
			current.LinesAdded += change.Added
			current.LinesDeleted += change.Deleted
		}
	}
	if current != nil {
		commits = append(commits, *current)
	}
	return commits, nil
}

// parseCommitHeader parses "<sha>|<parents>|<email>|<date>|<subject>".
func parseCommitHeader(header string) (*schema.CommitRecord, error) {
	parts := strings.SplitN(header, "|", 5)
	if len(parts) < 5 {
		return nil, fmt.Errorf("malformed commit header %q", header)
	}
	ts, err := time.Parse(time.RFC3339, parts[3])
	if err != nil {
		return nil, fmt.Errorf("malformed commit date in header %q: %w", header, err)
	}
	var parents []string
	if trimmed := strings.TrimSpace(parts[1]); trimmed != "" {
		parents = strings.Fields(trimmed)
	}
	return &schema.CommitRecord{
		SHA:         parts[0],
		Parents:     parents,
		AuthorEmail: strings.ToLower(strings.TrimSpace(parts[2])),
		Timestamp:   ts,
		Message:     parts[4],
	}, nil
}

// parseNumstatLine parses one "added\tdeleted\tpath" numstat line.
// Binary files report "-" counts and contribute zero churn.
func parseNumstatLine(line string) (schema.FileChange, bool) {
	parts := strings.SplitN(line, "\t", 3)
	if len(parts) != 3 {
		return schema.FileChange{}, false
	}
	added := parseNumstatCount(parts[0])
	deleted := parseNumstatCount(parts[1])
	path, renamedFrom := parseNumstatPath(parts[2])
	if path == "" {
		return schema.FileChange{}, false
	}
	return schema.FileChange{
		Path:        path,
		Added:       added,
		Deleted:     deleted,
		RenamedFrom: renamedFrom,
	}, true
}

// parseNumstatCount parses a numstat count, treating "-" (binary) as zero.
func parseNumstatCount(s string) int {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return 0
	}
	var n int
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}

// parseNumstatPath resolves rename notation. Git reports renames either as
// "old => new" or with a braced segment like "dir/{old => new}/file.go".
func parseNumstatPath(raw string) (path string, renamedFrom string) {
	raw = strings.TrimSpace(raw)
	if !strings.Contains(raw, " => ") {
		return raw, ""
	}

	if open := strings.Index(raw, "{"); open >= 0 {
		closing := strings.Index(raw, "}")
		if closing > open {
			inner := raw[open+1 : closing]
			innerParts := strings.SplitN(inner, " => ", 2)
			if len(innerParts) == 2 {
				prefix, suffix := raw[:open], raw[closing+1:]
				oldPath := cleanRenamePath(prefix + innerParts[0] + suffix)
				newPath := cleanRenamePath(prefix + innerParts[1] + suffix)
				return newPath, oldPath
			}
		}
	}

	parts := strings.SplitN(raw, " => ", 2)
	return cleanRenamePath(parts[1]), cleanRenamePath(parts[0])
}

// cleanRenamePath collapses the double slashes left by empty rename segments.
func cleanRenamePath(p string) string {
	for strings.Contains(p, "//") {
		p = strings.ReplaceAll(p, "//", "/")
	}
	return strings.TrimPrefix(p, "/")
}

// ParseSemanticCounts parses whitespace-insensitive numstat output keyed by
// the --<sha> delimiter lines.
func ParseSemanticCounts(raw string) map[string]int {
	counts := make(map[string]int)
	var currentSHA string

	for line := range strings.SplitSeq(raw, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.HasPrefix(line, commitDelimiter) && !strings.Contains(line, "\t") {
			currentSHA = strings.TrimPrefix(line, commitDelimiter)
			counts[currentSHA] = 0
			continue
		}
		if currentSHA == "" || strings.TrimSpace(line) == "" {
			continue
		}
		if change, ok := parseNumstatLine(line); ok {
			counts[currentSHA] += change.Added + change.Deleted
		}
	}
	return counts
}
