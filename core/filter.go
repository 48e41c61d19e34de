package core

import (
	"regexp"
	"strings"

	"github.com/courselab/teamscope/schema"
)

// Filter weights per outcome.
const (
	keptWeight    = 1.0
	reducedWeight = 0.5
)

// Message patterns for the pre-filter rules.
var (
	mergeOrRevertPattern = regexp.MustCompile(`(?i)^(merge\s|merged\s|revert\s|revert")`)

	formattingMessagePattern = regexp.MustCompile(
		`(?i)\b(format|formatting|reformat|prettier|gofmt|fmt|lint|linting|style|indent|whitespace)\b`)

	trivialMessagePattern = regexp.MustCompile(
		`(?i)^(wip|fix|fixes|typo|typos|lint|format|formatting|cleanup|clean up|minor|update|updates|misc|stuff|test|tests|asdf|temp|initial commit|first commit|\.+)[.!]*$`)

	botAuthorPattern = regexp.MustCompile(`(?i)(\[bot\]|dependabot|renovate|github-actions|noreply\.github)`)
)

// generatedPathMarkers lists lock files and generated/build-output paths.
// A commit touching only these paths is never worth rating.
var generatedPathMarkers = []string{
	// Dependency lock files
	"cargo.lock",
	"go.sum",
	"package-lock.json",
	"yarn.lock",
	"pnpm-lock.yaml",
	"composer.lock",
	"poetry.lock",
	"uv.lock",
	"gemfile.lock",

	// Minified assets
	".min.js", ".min.css",

	// Build output directories
	"dist/", "build/", "out/", "target/", "bin/", "node_modules/",
	"__pycache__/", ".idea/", ".vscode/",
}

// vendoredPathMarkers flags bulk third-party imports that keep reduced weight.
var vendoredPathMarkers = []string{"vendor/", "third_party/", "thirdparty/", "libs/", "external/"}

// MASS_REFORMAT thresholds.
const (
	massReformatMinFiles = 10
	massReformatAvgLines = 5.0
)

// VENDORED_BULK thresholds.
const (
	vendoredBulkMinLines = 1000
	vendoredBulkShare    = 0.5
)

// renameOnlyMaxLines is the churn ceiling for a pure rename/copy commit.
const renameOnlyMaxLines = 2

// ClassifyCommit classifies one commit before costly external rating.
// Exclusion rules are evaluated independently and combined by OR; the first
// matching rule supplies the reason code. Reduction rules only run when no
// exclusion fired. There is no second filtering pass after rating: a kept
// commit rated low simply contributes little weighted effort.
func ClassifyCommit(c *schema.CommitRecord) schema.FilterDecision {
	if reason, excluded := exclusionReason(c); excluded {
		return schema.FilterDecision{SHA: c.SHA, Outcome: schema.ExcludedOutcome, Reason: reason, Weight: 0}
	}
	if reason, reduced := reductionReason(c); reduced {
		return schema.FilterDecision{SHA: c.SHA, Outcome: schema.ReducedOutcome, Reason: reason, Weight: reducedWeight}
	}
	return schema.FilterDecision{SHA: c.SHA, Outcome: schema.KeptOutcome, Reason: schema.ReasonProductive, Weight: keptWeight}
}

// ClassifyCommits classifies a commit list, preserving order.
func ClassifyCommits(commits []schema.CommitRecord) []schema.FilterDecision {
	decisions := make([]schema.FilterDecision, 0, len(commits))
	for i := range commits {
		decisions = append(decisions, ClassifyCommit(&commits[i]))
	}
	return decisions
}

// exclusionReason checks the exclusion rules in a fixed order so that the
// reported reason is stable across runs.
func exclusionReason(c *schema.CommitRecord) (schema.FilterReason, bool) {
	switch {
	case isEmpty(c):
		return schema.ReasonEmpty, true
	case isMergeOrRevert(c):
		return schema.ReasonMergeOrRevert, true
	case isRenameOnly(c):
		return schema.ReasonRenameOnly, true
	case isFormatOnly(c):
		return schema.ReasonFormatOnly, true
	case isMassReformat(c):
		return schema.ReasonMassReformat, true
	case isGeneratedOnly(c):
		return schema.ReasonGeneratedFiles, true
	case isTrivialMessage(c):
		return schema.ReasonTrivialMessage, true
	}
	return "", false
}

// reductionReason checks the reduced-weight rules.
func reductionReason(c *schema.CommitRecord) (schema.FilterReason, bool) {
	if isVendoredBulk(c) {
		return schema.ReasonVendoredBulk, true
	}
	return "", false
}

// isEmpty matches commits with zero net lines changed.
func isEmpty(c *schema.CommitRecord) bool {
	return c.LinesChanged() == 0
}

// isMergeOrRevert matches merge/revert message prefixes.
func isMergeOrRevert(c *schema.CommitRecord) bool {
	return mergeOrRevertPattern.MatchString(strings.TrimSpace(c.Message))
}

// isRenameOnly matches pure rename/copy commits with at most 2 lines changed.
func isRenameOnly(c *schema.CommitRecord) bool {
	if len(c.Files) == 0 || c.LinesChanged() > renameOnlyMaxLines {
		return false
	}
	for _, f := range c.Files {
		if f.RenamedFrom == "" {
			return false
		}
	}
	return true
}

// isFormatOnly matches commits whose whitespace-insensitive diff collapses
// to zero semantic change.
func isFormatOnly(c *schema.CommitRecord) bool {
	return c.LinesChanged() > 0 && c.SemanticLines == 0
}

// isMassReformat matches wide, shallow commits with a formatting-flavored
// message: at least 10 files touched with under 5 average lines per file.
func isMassReformat(c *schema.CommitRecord) bool {
	if len(c.Files) < massReformatMinFiles {
		return false
	}
	avg := float64(c.LinesChanged()) / float64(len(c.Files))
	return avg < massReformatAvgLines && formattingMessagePattern.MatchString(c.Message)
}

// isGeneratedOnly matches commits where every touched path is a recognized
// lock file or generated/build-output path.
func isGeneratedOnly(c *schema.CommitRecord) bool {
	if len(c.Files) == 0 {
		return false
	}
	for _, f := range c.Files {
		if !isGeneratedPath(f.Path) {
			return false
		}
	}
	return true
}

// isGeneratedPath checks a single path against the generated-path markers.
func isGeneratedPath(path string) bool {
	lowered := strings.ToLower(path)
	base := lowered
	if idx := strings.LastIndex(lowered, "/"); idx >= 0 {
		base = lowered[idx+1:]
	}
	for _, marker := range generatedPathMarkers {
		switch {
		case strings.HasSuffix(marker, "/"):
			if strings.HasPrefix(lowered, marker) || strings.Contains(lowered, "/"+marker) {
				return true
			}
		case strings.HasPrefix(marker, "."):
			if strings.HasSuffix(lowered, marker) {
				return true
			}
		default:
			if base == marker {
				return true
			}
		}
	}
	return false
}

// isTrivialMessage matches the curated trivial-message list plus
// bot-authored commits.
func isTrivialMessage(c *schema.CommitRecord) bool {
	if botAuthorPattern.MatchString(c.AuthorEmail) {
		return true
	}
	return trivialMessagePattern.MatchString(strings.TrimSpace(c.Message))
}

// isVendoredBulk matches large wholesale imports under vendored directories.
// These are real work to integrate but not line-for-line effort, so they
// keep half weight instead of being dropped.
func isVendoredBulk(c *schema.CommitRecord) bool {
	if c.LinesChanged() < vendoredBulkMinLines {
		return false
	}
	var vendoredLines int
	for _, f := range c.Files {
		lowered := strings.ToLower(f.Path)
		for _, marker := range vendoredPathMarkers {
			if strings.HasPrefix(lowered, marker) || strings.Contains(lowered, "/"+marker) {
				vendoredLines += f.Added + f.Deleted
				break
			}
		}
	}
	return float64(vendoredLines) > vendoredBulkShare*float64(c.LinesChanged())
}
