package schema

// Custom string types for type safety.
type (
	// Resolution is the attribution outcome for a single commit.
	Resolution string

	// AttributionSource says which rule attributed a commit to a member.
	AttributionSource string

	// FilterOutcome is the pre-filter classification of a commit.
	FilterOutcome string

	// FilterReason is the rule that produced a filter decision.
	FilterReason string

	// Component identifies one of the score components.
	Component string

	// PenaltyTag identifies a penalty rule.
	PenaltyTag string

	// ScoreTag marks a terminal scoring outcome that bypassed the formula.
	ScoreTag string

	// AnomalyKind identifies a display-only warning flag.
	AnomalyKind string

	// RunState is the coarse state of a course-wide analysis run.
	RunState string

	// DatabaseBackend represents the database backend for result storage.
	DatabaseBackend string

	// OutputMode represents the format of the output.
	OutputMode string
)

// Attribution outcomes. Every commit reachable from an anchor lands in
// exactly one of these.
const (
	MemberResolution   Resolution = "member"
	OrphanResolution   Resolution = "orphan"
	TemplateResolution Resolution = "template"
)

// Attribution sources, in resolution-order precedence.
const (
	AnchorSource   AttributionSource = "anchor"   // the commit is a push anchor
	EmailSource    AttributionSource = "email"    // raw email matches a registered member email
	OverrideSource AttributionSource = "override" // manually curated raw-email override
	LearnedSource  AttributionSource = "learned"  // mapping learned during the walk
	NoSource       AttributionSource = ""         // orphan or template
)

// Pre-filter outcomes.
const (
	KeptOutcome     FilterOutcome = "kept"
	ReducedOutcome  FilterOutcome = "reduced"
	ExcludedOutcome FilterOutcome = "excluded"
)

// Filter reasons for excluded commits.
const (
	ReasonEmpty          FilterReason = "EMPTY"
	ReasonMergeOrRevert  FilterReason = "MERGE_OR_REVERT"
	ReasonRenameOnly     FilterReason = "RENAME_ONLY"
	ReasonFormatOnly     FilterReason = "FORMAT_ONLY"
	ReasonMassReformat   FilterReason = "MASS_REFORMAT"
	ReasonGeneratedFiles FilterReason = "GENERATED_FILES"
	ReasonTrivialMessage FilterReason = "TRIVIAL_MESSAGE"
)

// Filter reasons for reduced-weight commits.
const (
	ReasonVendoredBulk FilterReason = "VENDORED_BULK"
)

// ReasonProductive is the empty reason attached to kept commits.
const ReasonProductive FilterReason = ""

// Score components.
const (
	EffortBalanceComponent   Component = "effort_balance"
	LoCBalanceComponent      Component = "loc_balance"
	TemporalSpreadComponent  Component = "temporal_spread"
	OwnershipSpreadComponent Component = "ownership_spread"
	PairProgrammingComponent Component = "pair_programming"
)

// Penalty tags.
const (
	SoloDevelopmentPenalty PenaltyTag = "solo_development"
	SevereImbalancePenalty PenaltyTag = "severe_imbalance"
	HighTrivialPenalty     PenaltyTag = "high_trivial_ratio"
	LowConfidencePenalty   PenaltyTag = "low_confidence"
	LateWorkPenalty        PenaltyTag = "late_work"
)

// Terminal scoring outcomes.
const (
	NormalScoreTag        ScoreTag = ""
	NoCollaborationTag    ScoreTag = "no collaboration possible"
	NothingToScoreTag     ScoreTag = "nothing to score"
	DegradedAnalysisTag   ScoreTag = "degraded analysis"
)

// Anomaly kinds.
const (
	LateDumpAnomaly           AnomalyKind = "LATE_DUMP"
	SoloDevelopmentAnomaly    AnomalyKind = "SOLO_DEVELOPMENT"
	InactivePeriodAnomaly     AnomalyKind = "INACTIVE_PERIOD"
	UnevenDistributionAnomaly AnomalyKind = "UNEVEN_DISTRIBUTION"
)

// Run states for a course-wide analysis run.
const (
	IdleRun      RunState = "idle"
	RunningRun   RunState = "running"
	DoneRun      RunState = "done"
	ErrorRun     RunState = "error"
	CancelledRun RunState = "cancelled"
)

// All result-store backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// All output modes supported.
const (
	TextOut OutputMode = "text" // default
	JSONOut OutputMode = "json"
)

// ValidResultBackends lists all valid result-store backends.
var ValidResultBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	TextOut: {},
	JSONOut: {},
}

// AllComponents lists the score components in display order.
var AllComponents = []Component{
	EffortBalanceComponent,
	LoCBalanceComponent,
	TemporalSpreadComponent,
	OwnershipSpreadComponent,
	PairProgrammingComponent,
}

// DefaultWeights returns the default component weight map. Weights are
// renormalized at scoring time over whichever components are active for a
// given team, so they only need to sum to 1 for the full set.
func DefaultWeights() map[Component]float64 {
	return map[Component]float64{
		EffortBalanceComponent:   0.30,
		LoCBalanceComponent:      0.20,
		TemporalSpreadComponent:  0.20,
		OwnershipSpreadComponent: 0.15,
		PairProgrammingComponent: 0.15,
	}
}
