// Package dataingest is the first stage of a text classification pipeline:
// it fetches a labelled CSV dataset, keeps the label and text columns, and
// writes a reproducible train/test split for the stages that follow.
//
// # Packages
//
//   - config: parameters from defaults, a YAML file, DATAINGEST_* variables and flags
//   - dataset: CSV loading from a URL or path, and writing the partitions
//   - preprocessing: column cleanup (drop the empty columns, rename v1/v2)
//   - modelselection: seeded, optionally stratified train/test split
//   - report: class balance and text length of each subset
//   - pipeline: runs load, preprocess, split and save in order
//   - pkg/log, pkg/errors: structured logging and the error taxonomy
//
// # Quick Start
//
//	cfg, err := config.Load("params.yaml", logger)
//	if err != nil {
//	    return err
//	}
//	res, err := pipeline.New(cfg, logger).Run(ctx)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(res.Paths.Train, res.Paths.Test)
//
// Or from the command line:
//
//	dataingest run --source ./spam.csv --data-path ./data --test-size 0.2 --seed 2
//
// With the defaults this writes ./data/raw/train.csv and ./data/raw/test.csv
// and appends the run's log to ./logs/data_ingestion.log.
package dataingest
