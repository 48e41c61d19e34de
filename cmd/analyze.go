package cmd

import (
	"github.com/spf13/cobra"

	"github.com/courselab/teamscope/core"
	"github.com/courselab/teamscope/internal/contract"
)

// analyzeCmd runs the full course-wide analysis.
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Attribute, filter, rate and score every team in the roster.",
	Long: `Run the full collaboration analysis for every team in the roster.

For each team this:
- Reads the team repository's commit graph
- Attributes commits to members via push anchors, registered emails and overrides
- Filters out empty, merge, formatting-only and other non-productive commits
- Rates commit chunks with the external rating model
- Computes balance, temporal, ownership and pairing components
- Applies penalties and produces a 0-100 collaboration quality index

Teams are processed concurrently; one broken repository fails only that team.
Press Ctrl-C to cancel between teams; finished results are kept and persisted.

Examples:
  # Analyze every team with the default roster
  teamscope analyze

  # Full breakdown per team, eight teams at a time
  teamscope analyze --detail --workers 8

  # Machine-readable output for a grading pipeline
  teamscope analyze --output json --output-file results.json

  # Run without any database
  teamscope analyze --backend none`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetup,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteAnalyze(rootCtx, cfg); err != nil {
			contract.LogFatal("Cannot run analysis", err)
		}
	},
}
