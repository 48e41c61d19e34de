package cmd

import (
	"github.com/spf13/cobra"

	"github.com/courselab/teamscope/core"
	"github.com/courselab/teamscope/internal/contract"
)

// attributionCmd inspects commit attribution for one team.
var attributionCmd = &cobra.Command{
	Use:   "attribution <team-id>",
	Short: "Show how each commit in a team repository was attributed.",
	Long: `Attribute a single team's commits and print the per-commit breakdown
without rating or scoring.

Each commit is resolved to a member (via push anchors, registered emails,
instructor overrides or anchor-learned mappings), marked as template
history, or left as an orphan. Orphans are expected for unregistered
emails and never abort the analysis.

Useful for:
- Debugging why a commit landed on the wrong member
- Checking push-anchor coverage before a graded run
- Explaining an attribution decision to a student

Examples:
  # Inspect one team
  teamscope attribution team-07

  # Machine-readable breakdown
  teamscope attribution team-07 --output json`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetup,
	Run: func(_ *cobra.Command, args []string) {
		if err := core.ExecuteAttribution(rootCtx, cfg, args[0]); err != nil {
			contract.LogFatal("Cannot run attribution", err)
		}
	},
}
