//go:build integration

// Package integration contains integration tests for teamscope.
// These tests are excluded from normal test runs due to build tags.
// To run these tests: go test -tags integration ./integration
package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestAttributionVerification builds a throwaway git repository with known
// authorship and checks the attribution command's counts against git itself.
func TestAttributionVerification(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}

	dir := t.TempDir()
	repoDir := filepath.Join(dir, "repo")
	require.NoError(t, os.MkdirAll(repoDir, 0o755))

	runGit(t, repoDir, nil, "init")
	commitAs(t, repoDir, "Alice", "alice@school.edu", "add parser")
	commitAs(t, repoDir, "Alice", "alice@school.edu", "extend parser with ranges")
	commitAs(t, repoDir, "Bob", "bob@school.edu", "add scheduler")
	commitAs(t, repoDir, "Stranger", "stranger@nowhere", "drive-by change")

	rosterPath := filepath.Join(dir, "roster.yaml")
	roster := fmt.Sprintf(`course: cs101
teams:
  - id: team-1
    repo: %s
    members:
      - id: alice
        emails: ["alice@school.edu"]
      - id: bob
        emails: ["bob@school.edu"]
`, repoDir)
	require.NoError(t, os.WriteFile(rosterPath, []byte(roster), 0o644))

	// Build teamscope binary
	binaryPath := filepath.Join(dir, "teamscope")
	buildCmd := exec.Command("go", "build", "-o", binaryPath, ".")
	buildCmd.Dir = ".." // Project root
	require.NoError(t, buildCmd.Run())

	cmd := exec.Command(binaryPath, "attribution", "team-1",
		"--roster", rosterPath, "--output", "json")
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	require.NoError(t, cmd.Run())

	var attribution struct {
		Commits []struct {
			Resolution string `json:"resolution"`
			MemberID   string `json:"member_id"`
		} `json:"commits"`
		Members int `json:"members"`
		Orphans int `json:"orphans"`
	}
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &attribution))

	// Every commit git knows about must appear in the attribution map.
	countOut := runGit(t, repoDir, nil, "rev-list", "--all", "--count")
	gitCount, err := strconv.Atoi(strings.TrimSpace(countOut))
	require.NoError(t, err)
	assert.Len(t, attribution.Commits, gitCount)

	assert.Equal(t, 3, attribution.Members)
	assert.Equal(t, 1, attribution.Orphans)

	byMember := make(map[string]int)
	for _, c := range attribution.Commits {
		if c.Resolution == "member" {
			byMember[c.MemberID]++
		}
	}
	assert.Equal(t, 2, byMember["alice"])
	assert.Equal(t, 1, byMember["bob"])
}

// commitAs writes a file change and commits it under the given identity.
func commitAs(t *testing.T, repoDir, name, email, message string) {
	t.Helper()
	path := filepath.Join(repoDir, strings.ReplaceAll(message, " ", "-")+".txt")
	require.NoError(t, os.WriteFile(path, []byte(message+"\n"), 0o644))

	env := []string{
		"GIT_AUTHOR_NAME=" + name,
		"GIT_AUTHOR_EMAIL=" + email,
		"GIT_COMMITTER_NAME=" + name,
		"GIT_COMMITTER_EMAIL=" + email,
	}
	runGit(t, repoDir, env, "add", ".")
	runGit(t, repoDir, env, "commit", "-m", message)
}

// runGit runs a git command in the repo and returns its stdout.
func runGit(t *testing.T, repoDir string, extraEnv []string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = repoDir
	cmd.Env = append(os.Environ(), extraEnv...)
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %s: %s", strings.Join(args, " "), string(out))
	return string(out)
}
