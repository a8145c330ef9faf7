// Package log defines standard attribute keys for the subset-regression pipeline.
//
// Keys follow a hierarchical naming convention (e.g. "model.id", "data.samples") so
// that log analysis can filter by family, stage and diagnostic.

package log

// Model context.
const (
	// ModelIDKey identifies a regression model by its subset and transform.
	// Examples: "identity[0,2]", "stack(identity[0]+log[1,2])"
	ModelIDKey = "model.id"

	// TransformKey names the feature transform of a model family.
	// Standard values: "identity", "square", "cube", "log"
	TransformKey = "model.transform"

	// ModelHashKey carries the 64-bit hash of the model ID as hex.
	ModelHashKey = "model.hash"

	// ReportKey carries a whole evaluation report as a nested object.
	ReportKey = "model.report"

	// SubsetSizeKey records how many explanatory variables a model uses.
	SubsetSizeKey = "model.subset_size"

	// FamilySizeKey records how many models a family holds.
	FamilySizeKey = "model.family_size"

	// ComponentKey identifies which package is logging.
	// Examples: "linear", "ensemble", "pipeline"
	ComponentKey = "component"
)

// Pipeline context.
const (
	// RunIDKey correlates every record of one pipeline run.
	RunIDKey = "pipeline.run_id"

	// StageKey names the pipeline stage.
	StageKey = "pipeline.stage"

	// WorkersKey records the evaluation concurrency.
	WorkersKey = "pipeline.workers"

	// DurationMsKey records the execution time of a stage in milliseconds.
	DurationMsKey = "perf.duration_ms"
)

// Data shape.
const (
	// SamplesKey indicates the number of observations.
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of explanatory variables.
	FeaturesKey = "data.features"

	// TrainSamplesKey and TestSamplesKey record the split.
	TrainSamplesKey = "data.train_samples"
	TestSamplesKey  = "data.test_samples"

	// SourceKey names a data source (file path or label).
	SourceKey = "data.source"
)

// Diagnostics and metrics.
const (
	R2ScoreKey         = "metrics.r2_score"
	RMSEKey            = "metrics.rmse"
	DurbinWatsonKey    = "diag.durbin_watson"
	GoldfeldQuandtKey  = "diag.goldfeld_quandt"
	FarrarGlauberKey   = "diag.farrar_glauber"
	AutoCorrelationKey = "diag.autocorrelation"
	HeteroscedasticKey = "diag.heteroscedastic"
	MultiCollinearKey  = "diag.multicollinear"
	ModelsKey          = "selection.models"
	UnfitKey           = "selection.unfit"
	TopKey             = "selection.top"
	PairsKey           = "ensemble.pairs"
	SkippedPairsKey    = "ensemble.skipped_pairs"
	ForecastRowsKey    = "ensemble.forecast_rows"
)

// Error context.
const (
	// ErrorKindKey carries the errors.Kind of a failure.
	ErrorKindKey = "error.kind"
)

// Standard stage values.
const (
	StageLoad     = "load"
	StageSplit    = "split"
	StageFamilies = "families"
	StageEvaluate = "evaluate"
	StageSelect   = "select"
	StageEnsemble = "ensemble"
	StageForecast = "forecast"
)
