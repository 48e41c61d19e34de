package cmd

import (
	"github.com/spf13/cobra"

	"github.com/courselab/teamscope/core"
	"github.com/courselab/teamscope/internal/contract"
)

// checkCmd validates the roster and team repositories.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the roster and verify every team repository is readable.",
	Long: `Validate the course setup before a graded run.

Checks:
- The roster parses and has no duplicate team or member IDs
- Push anchors and email overrides reference known members
- Every team repository path resolves to a readable git repository

Fails with a non-zero exit code when any check fails, so it can gate an
automated grading pipeline.

Examples:
  teamscope check
  teamscope check --roster courses/spring/roster.yaml`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetup,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteCheck(rootCtx, cfg); err != nil {
			contract.LogFatal("Setup check failed", err)
		}
	},
}
