// Package pipeline runs the data ingestion stages in order:
// load, preprocess, split, save.
package pipeline

import (
	"context"
	"net/http"
	"time"

	"github.com/go-gota/gota/dataframe"

	"github.com/YuminosukeSato/dataingest/config"
	"github.com/YuminosukeSato/dataingest/dataset"
	"github.com/YuminosukeSato/dataingest/modelselection"
	"github.com/YuminosukeSato/dataingest/pkg/errors"
	"github.com/YuminosukeSato/dataingest/pkg/log"
	"github.com/YuminosukeSato/dataingest/preprocessing"
	"github.com/YuminosukeSato/dataingest/report"
)

// Ingestion wires the stages together. The zero value is not usable; call New.
type Ingestion struct {
	Config  config.Config
	Logger  log.Logger
	Cleaner preprocessing.Transformer

	// HTTPClient fetches URL sources. Nil means http.DefaultClient.
	HTTPClient *http.Client
}

// Result describes a successful run.
type Result struct {
	Paths     dataset.Paths
	TrainRows int
	TestRows  int
	Train     report.Summary
	Test      report.Summary
}

// New returns an Ingestion whose cleaner is built from cfg.Preprocessing.
func New(cfg config.Config, logger log.Logger) *Ingestion {
	if logger == nil {
		logger = log.Nop()
	}
	return &Ingestion{
		Config:  cfg,
		Logger:  logger.With(log.ComponentKey, "pipeline"),
		Cleaner: preprocessing.NewColumnCleaner(cfg.Preprocessing.DropColumns, cfg.Preprocessing.Rename),
	}
}

// Run executes every stage once. The first failing stage stops the run and
// its error is returned wrapped in a *errors.StageError. Files written before
// a failure are left in place.
func (p *Ingestion) Run(ctx context.Context) (res Result, err error) {
	start := time.Now()
	defer func() {
		if err != nil {
			p.Logger.Error("Failed to complete the data ingestion process", err, log.ErrorTypeKey, errorType(err))
		}
	}()

	raw, err := p.load(ctx)
	if err != nil {
		return Result{}, errors.NewStageError(log.StageLoad, err)
	}
	clean, err := p.preprocess(raw)
	if err != nil {
		return Result{}, errors.NewStageError(log.StagePreprocess, err)
	}
	train, test, err := p.split(clean)
	if err != nil {
		return Result{}, errors.NewStageError(log.StageSplit, err)
	}
	paths, err := p.save(train, test)
	if err != nil {
		return Result{}, errors.NewStageError(log.StageSave, err)
	}

	res = Result{
		Paths:     paths,
		TrainRows: train.Nrow(),
		TestRows:  test.Nrow(),
	}
	res.Train, res.Test = p.summarize(train, test)

	p.Logger.Info("Data ingestion completed",
		log.TrainRowsKey, res.TrainRows,
		log.TestRowsKey, res.TestRows,
		log.PathKey, paths.Dir,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return res, nil
}

func (p *Ingestion) load(ctx context.Context) (df dataframe.DataFrame, err error) {
	defer errors.Recover(&err, log.StageLoad)
	cfg := p.Config.DataIngestion
	logger := p.Logger.With(log.StageKey, log.StageLoad)

	enc, err := dataset.ParseEncoding(cfg.Encoding)
	if err != nil {
		logger.Error("Unexpected error occurred while loading the data", err)
		return dataframe.DataFrame{}, errors.NewValidationError("data_ingestion.encoding", err.Error(), cfg.Encoding)
	}
	opts := []dataset.LoadOption{
		dataset.WithEncoding(enc),
		dataset.WithTimeout(cfg.FetchTimeout),
		dataset.WithLogger(logger),
	}
	if p.HTTPClient != nil {
		opts = append(opts, dataset.WithHTTPClient(p.HTTPClient))
	}

	df, err = dataset.Load(ctx, cfg.Source, opts...)
	if err != nil {
		var parseErr *errors.ParseError
		if errors.As(err, &parseErr) {
			logger.Error("Failed to parse the CSV file", err, log.SourceKey, cfg.Source)
		} else {
			logger.Error("Unexpected error occurred while loading the data", err, log.SourceKey, cfg.Source)
		}
		return dataframe.DataFrame{}, err
	}
	logger.Debug("Data loaded successfully",
		log.SourceKey, cfg.Source,
		log.EncodingKey, cfg.Encoding,
		log.RowsKey, df.Nrow(),
		log.ColumnsKey, df.Names(),
	)
	return df, nil
}

func (p *Ingestion) preprocess(df dataframe.DataFrame) (out dataframe.DataFrame, err error) {
	defer errors.Recover(&err, log.StagePreprocess)
	logger := p.Logger.With(log.StageKey, log.StagePreprocess)

	out, err = p.Cleaner.Transform(df)
	if err != nil {
		var mce *errors.MissingColumnError
		if errors.As(err, &mce) {
			logger.Error("Missing column in the dataframe", err)
		} else {
			logger.Error("Unexpected error during preprocessing", err)
		}
		return dataframe.DataFrame{}, err
	}
	logger.Debug("Data preprocessing completed successfully", log.ColumnsKey, out.Names())
	return out, nil
}

func (p *Ingestion) split(df dataframe.DataFrame) (train, test dataframe.DataFrame, err error) {
	defer errors.Recover(&err, log.StageSplit)
	cfg := p.Config.DataIngestion
	logger := p.Logger.With(log.StageKey, log.StageSplit)

	opts := modelselection.SplitOptions{TestSize: cfg.TestSize, Seed: cfg.RandomState}
	if cfg.Stratify {
		opts.Stratify = p.Config.Preprocessing.TargetColumn
	}
	train, test, err = modelselection.TrainTestSplit(df, opts)
	if err != nil {
		logger.Error("Failed to split the data", err,
			log.TestSizeKey, cfg.TestSize,
			log.RowsKey, df.Nrow(),
		)
		return dataframe.DataFrame{}, dataframe.DataFrame{}, err
	}
	logger.Debug("Data split completed",
		log.TestSizeKey, cfg.TestSize,
		log.RandomSeedKey, cfg.RandomState,
		log.StratifyKey, opts.Stratify,
		log.TrainRowsKey, train.Nrow(),
		log.TestRowsKey, test.Nrow(),
	)
	return train, test, nil
}

func (p *Ingestion) save(train, test dataframe.DataFrame) (paths dataset.Paths, err error) {
	defer errors.Recover(&err, log.StageSave)
	logger := p.Logger.With(log.StageKey, log.StageSave)

	paths, err = dataset.Save(train, test, p.Config.DataIngestion.DataPath)
	if err != nil {
		logger.Error("Unexpected error occurred while saving the data", err)
		return dataset.Paths{}, err
	}
	logger.Debug("Train and Test data successfully saved", log.PathKey, paths.Dir)
	return paths, nil
}

// summarize is best effort: a missing label or text column only skips that
// part of the report, and a failing subset is logged and left empty.
func (p *Ingestion) summarize(train, test dataframe.DataFrame) (report.Summary, report.Summary) {
	names := map[string]bool{}
	for _, n := range train.Names() {
		names[n] = true
	}
	labelCol, textCol := p.Config.Preprocessing.TargetColumn, p.Config.Preprocessing.TextColumn
	if !names[labelCol] {
		labelCol = ""
	}
	if !names[textCol] {
		textCol = ""
	}

	var out [2]report.Summary
	for i, part := range []struct {
		name string
		df   dataframe.DataFrame
	}{{"train", train}, {"test", test}} {
		var s report.Summary
		err := errors.SafeExecute("summarize", func() (err error) {
			s, err = report.Summarize(part.name, part.df, labelCol, textCol)
			return err
		})
		if err != nil {
			p.Logger.Warn("Could not summarize subset", err, "subset", part.name)
			continue
		}
		s.Log(p.Logger)
		out[i] = s
	}
	return out[0], out[1]
}

func errorType(err error) string {
	var (
		parseErr   *errors.ParseError
		missingErr *errors.MissingColumnError
		ioErr      *errors.IOError
		validErr   *errors.ValidationError
		valueErr   *errors.ValueError
		panicErr   *errors.PanicError
	)
	switch {
	case errors.As(err, &panicErr):
		return "PanicError"
	case errors.As(err, &parseErr):
		return "ParseError"
	case errors.As(err, &missingErr):
		return "MissingColumnError"
	case errors.As(err, &ioErr):
		return "IOError"
	case errors.As(err, &validErr):
		return "ValidationError"
	case errors.As(err, &valueErr):
		return "ValueError"
	case errors.Is(err, errors.ErrEmptyData):
		return "EmptyData"
	default:
		return "Unknown"
	}
}
