// Package log defines standard attribute keys for ingestion operations.
//
// Using the same keys in every stage keeps the log file greppable: every
// record of a run carries the stage, and data-shape records use the
// "data.*" keys.

package log

// Pipeline Context
// These attributes identify which stage of the pipeline emitted a record.
const (
	// ComponentKey identifies which package is logging.
	// Examples: "dataset", "preprocessing", "modelselection"
	ComponentKey = "ingest.component"

	// StageKey indicates the pipeline stage.
	// Standard values: "load", "preprocess", "split", "save"
	StageKey = "ingest.stage"
)

// Data Shape
// These attributes describe the data flowing through a stage.
const (
	// SourceKey is the URL or path the dataset was read from.
	SourceKey = "data.source"

	// PathKey is a filesystem path written or read by a stage.
	PathKey = "data.path"

	// RowsKey is the number of rows in a table.
	RowsKey = "data.rows"

	// ColumnsKey lists the column names of a table.
	ColumnsKey = "data.columns"

	// TrainRowsKey and TestRowsKey are the partition sizes after a split.
	TrainRowsKey = "data.train_rows"
	TestRowsKey  = "data.test_rows"

	// EncodingKey is the character encoding used to decode the input.
	EncodingKey = "data.encoding"
)

// Configuration
const (
	// TestSizeKey records the fraction of rows assigned to the test subset.
	TestSizeKey = "config.test_size"

	// RandomSeedKey records the random seed for reproducibility.
	RandomSeedKey = "config.random_seed"

	// StratifyKey names the column used for stratification, if any.
	StratifyKey = "config.stratify"

	// ConfigFileKey is the YAML file the parameters were read from.
	ConfigFileKey = "config.file"
)

// Performance
const (
	// DurationMsKey records the execution time of a stage in milliseconds.
	DurationMsKey = "perf.duration_ms"
)

// Error Context
const (
	// ErrorTypeKey categorizes the error encountered.
	// Examples: "ParseError", "MissingColumnError", "IOError"
	ErrorTypeKey = "error.type"
)

// Standard attribute values.
const (
	StageLoad       = "load"
	StagePreprocess = "preprocess"
	StageSplit      = "split"
	StageSave       = "save"
	StageConfig     = "config"
)
