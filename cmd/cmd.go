// Package cmd defines the command-line interface for teamscope.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/courselab/teamscope/internal/contract"
	"github.com/courselab/teamscope/schema"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(attributionCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(versionCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().StringP("roster", "r", "roster.yaml", "Path to the course roster YAML file")
	rootCmd.PersistentFlags().String("course", "", "Course identifier for run tracking")
	rootCmd.PersistentFlags().Int("workers", contract.DefaultWorkers, "Number of concurrent team pipelines")
	rootCmd.PersistentFlags().Int("rating-workers", contract.DefaultRatingWorkers, "Number of concurrent rating calls per team")
	rootCmd.PersistentFlags().String("rating-timeout", "30s", "Timeout per rating call")
	rootCmd.PersistentFlags().String("chunk-gap", "30m", "Max gap between commits bundled into one rating chunk")
	rootCmd.PersistentFlags().Int("significant-commits", contract.DefaultSignificantCommits, "Minimum commits for a file to count toward ownership spread")
	rootCmd.PersistentFlags().Int("mandatory-sessions", contract.DefaultSessions, "Number of mandatory paired sessions for two-member teams")
	rootCmd.PersistentFlags().Float64("confidence-threshold", contract.DefaultConfidenceThreshold, "Rating confidence below which a rating counts as low-confidence")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or json")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().Bool("detail", false, "Print per-team component and penalty breakdown")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("backend", string(schema.SQLiteBackend), "Result backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("gemini-api-key", "", "API key for the Gemini rating model")
	rootCmd.PersistentFlags().String("gemini-model", "", "Gemini model name for chunk rating")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of runsCmd to Viper
	runsCmd.Flags().IntP("limit", "l", 10, "Number of runs to display")
	if err := viper.BindPFlags(runsCmd.Flags()); err != nil {
		contract.LogFatal("Error binding runs flags", err)
	}

	// Bind all flags of migrateCmd to Viper
	migrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(migrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding migrate flags", err)
	}
}
