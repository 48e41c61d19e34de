package contract

import (
	"fmt"
	"math"
	"time"

	"github.com/courselab/teamscope/schema"
)

// Default values for configuration.
const (
	DefaultWorkers       = 4
	DefaultRatingWorkers = 2
	DefaultRatingTimeout = 30 * time.Second
	DefaultPrecision     = 1
	DefaultChunkGap      = 30 * time.Minute
	DefaultChunkMax      = 10
	DefaultSessions      = 6

	// DefaultSignificantCommits is the minimum commit count for a file to
	// count toward ownership spread.
	DefaultSignificantCommits = 3

	// DefaultConfidenceThreshold is the rating confidence below which a
	// rating counts toward the low-confidence penalty.
	DefaultConfidenceThreshold = 0.5
)

// Penalty thresholds and multipliers. Thresholds are strict (>).
const (
	SoloShareThreshold   = 0.85
	SoloMultiplier       = 0.25
	SevereShareThreshold = 0.70
	SevereMultiplier     = 0.70
	TrivialRatio         = 0.50
	TrivialMultiplier    = 0.85
	LowConfidenceRatio   = 0.40
	LowConfidenceMult    = 0.90
	LateWorkRatio        = 0.50
	LateWindowFraction   = 0.20
	LateWorkMultiplier   = 0.85
)

// Config holds the validated runtime configuration for a run.
// Fields that need complex parsing (durations, weights, enums) are set by
// ProcessAndValidate after flags, env and config file are merged.
type Config struct {
	CourseID   string
	RosterPath string

	Workers       int           // concurrent team pipelines
	RatingWorkers int           // concurrent rating calls within one team
	RatingTimeout time.Duration // per rating call

	Weights             map[schema.Component]float64
	SignificantCommits  int
	MandatorySessions   int
	ConfidenceThreshold float64

	ChunkGap        time.Duration // max gap between commits bundled into one chunk
	ChunkMaxCommits int

	Backend   schema.DatabaseBackend
	DBConnect string

	Output     schema.OutputMode
	OutputFile string
	Precision  int
	Width      int
	Color      bool
	Detail     bool

	GeminiAPIKey string
	GeminiModel  string
}

// ConfigRawInput holds the raw inputs from flags, env and config file.
// Viper unmarshals into this struct before validation.
type ConfigRawInput struct {
	Course              string             `mapstructure:"course"`
	Roster              string             `mapstructure:"roster"`
	Workers             int                `mapstructure:"workers"`
	RatingWorkers       int                `mapstructure:"rating-workers"`
	RatingTimeoutStr    string             `mapstructure:"rating-timeout"`
	Weights             map[string]float64 `mapstructure:"weights"`
	SignificantCommits  int                `mapstructure:"significant-commits"`
	MandatorySessions   int                `mapstructure:"mandatory-sessions"`
	ConfidenceThreshold float64            `mapstructure:"confidence-threshold"`
	ChunkGapStr         string             `mapstructure:"chunk-gap"`
	Backend             string             `mapstructure:"backend"`
	DBConnect           string             `mapstructure:"db-connect"`
	Output              string             `mapstructure:"output"`
	OutputFile          string             `mapstructure:"output-file"`
	Precision           int                `mapstructure:"precision"`
	Width               int                `mapstructure:"width"`
	Color               string             `mapstructure:"color"`
	Detail              bool               `mapstructure:"detail"`
	GeminiAPIKey        string             `mapstructure:"gemini-api-key"`
	GeminiModel         string             `mapstructure:"gemini-model"`
}

// ProcessAndValidate performs all complex parsing and validation on the raw
// inputs and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	// --- 1. Workers Validation ---
	if input.Workers <= 0 {
		return fmt.Errorf("workers must be greater than 0 (received %d)", input.Workers)
	}
	cfg.Workers = input.Workers

	if input.RatingWorkers <= 0 {
		return fmt.Errorf("rating-workers must be greater than 0 (received %d)", input.RatingWorkers)
	}
	cfg.RatingWorkers = input.RatingWorkers

	// --- 2. Duration Parsing ---
	cfg.RatingTimeout = DefaultRatingTimeout
	if input.RatingTimeoutStr != "" {
		d, err := time.ParseDuration(input.RatingTimeoutStr)
		if err != nil || d <= 0 {
			return fmt.Errorf("invalid rating-timeout '%s'. must be a positive Go duration like 30s", input.RatingTimeoutStr)
		}
		cfg.RatingTimeout = d
	}

	cfg.ChunkGap = DefaultChunkGap
	if input.ChunkGapStr != "" {
		d, err := time.ParseDuration(input.ChunkGapStr)
		if err != nil || d <= 0 {
			return fmt.Errorf("invalid chunk-gap '%s'. must be a positive Go duration like 30m", input.ChunkGapStr)
		}
		cfg.ChunkGap = d
	}
	cfg.ChunkMaxCommits = DefaultChunkMax

	// --- 3. Weights Validation ---
	cfg.Weights = schema.DefaultWeights()
	if len(input.Weights) > 0 {
		weights := make(map[schema.Component]float64)
		var sum float64
		for name, w := range input.Weights {
			component := schema.Component(name)
			if !validComponent(component) {
				return fmt.Errorf("unknown weight component '%s'", name)
			}
			if w < 0 {
				return fmt.Errorf("weight for '%s' must be non-negative (received %v)", name, w)
			}
			weights[component] = w
			sum += w
		}
		if sum <= 0 {
			return fmt.Errorf("component weights must sum to a positive value")
		}
		// Normalize so configured weights sum to 1 over the full set.
		for component := range weights {
			weights[component] /= sum
		}
		cfg.Weights = weights
	}

	// --- 4. Threshold Validation ---
	cfg.SignificantCommits = input.SignificantCommits
	if cfg.SignificantCommits < 1 {
		return fmt.Errorf("significant-commits must be at least 1 (received %d)", input.SignificantCommits)
	}

	cfg.MandatorySessions = input.MandatorySessions
	if cfg.MandatorySessions < 0 {
		return fmt.Errorf("mandatory-sessions cannot be negative (received %d)", input.MandatorySessions)
	}

	cfg.ConfidenceThreshold = input.ConfidenceThreshold
	if cfg.ConfidenceThreshold < 0 || cfg.ConfidenceThreshold > 1 || math.IsNaN(cfg.ConfidenceThreshold) {
		return fmt.Errorf("confidence-threshold must be within [0,1] (received %v)", input.ConfidenceThreshold)
	}

	// --- 5. Output and Precision Validation ---
	if input.Precision < 1 || input.Precision > 2 {
		return fmt.Errorf("precision must be 1 or 2 (received %d)", input.Precision)
	}
	cfg.Precision = input.Precision
	cfg.Width = input.Width
	cfg.Detail = input.Detail
	cfg.OutputFile = input.OutputFile

	cfg.Output = schema.OutputMode(input.Output)
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text or json", input.Output)
	}

	colorOn, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid color setting: %w", err)
	}
	cfg.Color = colorOn

	// --- 6. Backend Validation ---
	cfg.Backend = schema.DatabaseBackend(input.Backend)
	if _, ok := schema.ValidResultBackends[cfg.Backend]; !ok {
		return fmt.Errorf("invalid backend '%s'. must be sqlite, mysql, postgresql or none", input.Backend)
	}
	cfg.DBConnect = input.DBConnect

	// --- 7. Roster and Course ---
	cfg.RosterPath = input.Roster
	cfg.CourseID = input.Course
	if cfg.CourseID == "" {
		cfg.CourseID = "default"
	}

	cfg.GeminiAPIKey = input.GeminiAPIKey
	cfg.GeminiModel = input.GeminiModel
	if cfg.GeminiModel == "" {
		cfg.GeminiModel = "gemini-1.5-flash"
	}

	return nil
}

// validComponent reports whether the component name is known.
func validComponent(c schema.Component) bool {
	for _, known := range schema.AllComponents {
		if c == known {
			return true
		}
	}
	return false
}
