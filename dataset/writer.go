package dataset

import (
	"bufio"
	"os"
	"path/filepath"

	"github.com/go-gota/gota/dataframe"

	"github.com/YuminosukeSato/dataingest/pkg/errors"
)

// RawDir is the subdirectory of the data path that receives the partitions.
const RawDir = "raw"

// Output file names inside RawDir.
const (
	TrainFile = "train.csv"
	TestFile  = "test.csv"
)

// Paths lists the files written by Save.
type Paths struct {
	Dir   string
	Train string
	Test  string
}

// Save writes train and test as CSV (header, no index column) to
// dataPath/raw/train.csv and dataPath/raw/test.csv, creating the directory
// if needed. Files already written are left in place when a later write fails.
func Save(train, test dataframe.DataFrame, dataPath string) (Paths, error) {
	dir := filepath.Join(dataPath, RawDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Paths{}, errors.NewIOError("mkdir", dir, err)
	}

	paths := Paths{
		Dir:   dir,
		Train: filepath.Join(dir, TrainFile),
		Test:  filepath.Join(dir, TestFile),
	}
	if err := WriteCSV(train, paths.Train); err != nil {
		return Paths{}, err
	}
	if err := WriteCSV(test, paths.Test); err != nil {
		return Paths{}, err
	}
	return paths, nil
}

// WriteCSV writes df to path, replacing any existing file.
func WriteCSV(df dataframe.DataFrame, path string) (err error) {
	if df.Err != nil {
		return errors.Wrapf(df.Err, "write %s", path)
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.NewIOError("create", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.NewIOError("close", path, cerr)
		}
	}()

	w := bufio.NewWriter(f)
	if err := df.WriteCSV(w, dataframe.WriteHeader(true)); err != nil {
		return errors.NewIOError("write", path, err)
	}
	if err := w.Flush(); err != nil {
		return errors.NewIOError("flush", path, err)
	}
	return nil
}
