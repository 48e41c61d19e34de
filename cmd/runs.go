package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/courselab/teamscope/core"
	"github.com/courselab/teamscope/internal/contract"
)

// runsCmd lists past analysis runs for a course.
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List past analysis runs for the configured course.",
	Long: `Show the progress records of past analysis runs, newest first.

Each record carries the run state (running, done, error, cancelled) and the
team counters, so an interrupted run is easy to spot.

Examples:
  teamscope runs
  teamscope runs --course cs240 --limit 5`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetup,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteRuns(cfg, viper.GetInt("limit")); err != nil {
			contract.LogFatal("Cannot list runs", err)
		}
	},
}
