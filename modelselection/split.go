// Package modelselection partitions a table into train and test subsets.
package modelselection

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"github.com/go-gota/gota/dataframe"

	"github.com/YuminosukeSato/dataingest/pkg/errors"
)

// SplitOptions configures TrainTestSplit.
type SplitOptions struct {
	// TestSize is the fraction of rows assigned to the test subset, in (0, 1).
	TestSize float64
	// Seed makes the shuffle reproducible.
	Seed uint64
	// Stratify names a column whose class proportions are kept in both subsets.
	// Empty disables stratification.
	Stratify string
}

// TrainTestSplit shuffles the rows of df and splits them into train and test.
// The same options on the same input always produce the same partitions.
func TrainTestSplit(df dataframe.DataFrame, opts SplitOptions) (train, test dataframe.DataFrame, err error) {
	if df.Err != nil {
		return dataframe.DataFrame{}, dataframe.DataFrame{}, errors.Wrap(df.Err, "TrainTestSplit")
	}

	var trainIdx, testIdx []int
	if opts.Stratify != "" {
		col := df.Col(opts.Stratify)
		if col.Err != nil {
			return dataframe.DataFrame{}, dataframe.DataFrame{}, errors.NewMissingColumnError("stratify", opts.Stratify)
		}
		trainIdx, testIdx, err = StratifiedShuffleSplit(col.Records(), opts.TestSize, opts.Seed)
	} else {
		trainIdx, testIdx, err = ShuffleSplit(df.Nrow(), opts.TestSize, opts.Seed)
	}
	if err != nil {
		return dataframe.DataFrame{}, dataframe.DataFrame{}, err
	}

	train = df.Subset(trainIdx)
	if train.Err != nil {
		return dataframe.DataFrame{}, dataframe.DataFrame{}, errors.Wrap(train.Err, "TrainTestSplit: train subset")
	}
	test = df.Subset(testIdx)
	if test.Err != nil {
		return dataframe.DataFrame{}, dataframe.DataFrame{}, errors.Wrap(test.Err, "TrainTestSplit: test subset")
	}
	return train, test, nil
}

// SplitSizes returns the number of train and test rows for n samples:
// the test side gets ceil(testSize*n) rows, the train side the rest.
func SplitSizes(n int, testSize float64) (nTrain, nTest int, err error) {
	if math.IsNaN(testSize) || testSize <= 0 || testSize >= 1 {
		return 0, 0, errors.NewValidationError("test_size", "must be in (0, 1)", testSize)
	}
	if n <= 0 {
		return 0, 0, errors.Wrap(errors.ErrEmptyData, "split")
	}
	nTest = int(math.Ceil(testSize * float64(n)))
	nTrain = n - nTest
	if nTrain <= 0 || nTest <= 0 {
		return 0, 0, errors.NewValueError("split",
			fmt.Sprintf("with n_samples=%d and test_size=%g one of the subsets would be empty", n, testSize))
	}
	return nTrain, nTest, nil
}

// ShuffleSplit returns row indices for a random train/test partition of n rows.
// The test indices are the first ceil(testSize*n) entries of a permutation
// drawn from a PCG source seeded with seed.
func ShuffleSplit(n int, testSize float64, seed uint64) (trainIdx, testIdx []int, err error) {
	_, nTest, err := SplitSizes(n, testSize)
	if err != nil {
		return nil, nil, err
	}

	r := rand.New(rand.NewPCG(seed, seed))
	perm := r.Perm(n)
	testIdx = append([]int(nil), perm[:nTest]...)
	trainIdx = append([]int(nil), perm[nTest:]...)
	return trainIdx, testIdx, nil
}

// StratifiedShuffleSplit is ShuffleSplit keeping the class proportions of
// labels in both subsets. Each class contributes round(nTest*share) test rows,
// with leftover rows going to the classes with the largest remainders.
func StratifiedShuffleSplit(labels []string, testSize float64, seed uint64) (trainIdx, testIdx []int, err error) {
	n := len(labels)
	nTrain, nTest, err := SplitSizes(n, testSize)
	if err != nil {
		return nil, nil, err
	}

	// Group indices by class
	classIndices := make(map[string][]int)
	for i, label := range labels {
		classIndices[label] = append(classIndices[label], i)
	}
	classes := make([]string, 0, len(classIndices))
	for label, idx := range classIndices {
		if len(idx) < 2 {
			return nil, nil, errors.NewValueError("stratify",
				fmt.Sprintf("class %q has only 1 member, at least 2 are required", label))
		}
		classes = append(classes, label)
	}
	sort.Strings(classes)
	if nTest < len(classes) || nTrain < len(classes) {
		return nil, nil, errors.NewValueError("stratify",
			fmt.Sprintf("each subset needs at least one row per class (%d classes)", len(classes)))
	}

	alloc := allocate(classes, classIndices, n, nTest)

	r := rand.New(rand.NewPCG(seed, seed))
	testIdx = make([]int, 0, nTest)
	trainIdx = make([]int, 0, nTrain)
	for i, label := range classes {
		indices := append([]int(nil), classIndices[label]...)
		r.Shuffle(len(indices), func(a, b int) {
			indices[a], indices[b] = indices[b], indices[a]
		})
		testIdx = append(testIdx, indices[:alloc[i]]...)
		trainIdx = append(trainIdx, indices[alloc[i]:]...)
	}

	// Interleave classes so neither subset is grouped by label
	r.Shuffle(len(testIdx), func(a, b int) { testIdx[a], testIdx[b] = testIdx[b], testIdx[a] })
	r.Shuffle(len(trainIdx), func(a, b int) { trainIdx[a], trainIdx[b] = trainIdx[b], trainIdx[a] })
	return trainIdx, testIdx, nil
}

// allocate distributes nTest rows over classes proportionally to their size
// using the largest remainder method. Every class keeps at least one row on
// each side.
func allocate(classes []string, classIndices map[string][]int, n, nTest int) []int {
	type share struct {
		class     int
		remainder float64
	}
	alloc := make([]int, len(classes))
	shares := make([]share, len(classes))
	total := 0
	for i, label := range classes {
		size := len(classIndices[label])
		exact := float64(nTest) * float64(size) / float64(n)
		alloc[i] = int(math.Floor(exact))
		if alloc[i] < 1 {
			alloc[i] = 1
		}
		if alloc[i] > size-1 {
			alloc[i] = size - 1
		}
		shares[i] = share{class: i, remainder: exact - float64(alloc[i])}
		total += alloc[i]
	}

	sort.SliceStable(shares, func(a, b int) bool {
		return shares[a].remainder > shares[b].remainder
	})
	for total < nTest {
		moved := false
		for _, s := range shares {
			if total == nTest {
				break
			}
			if alloc[s.class] < len(classIndices[classes[s.class]])-1 {
				alloc[s.class]++
				total++
				moved = true
			}
		}
		if !moved {
			break
		}
	}
	for total > nTest {
		moved := false
		for i := len(shares) - 1; i >= 0 && total > nTest; i-- {
			c := shares[i].class
			if alloc[c] > 1 {
				alloc[c]--
				total--
				moved = true
			}
		}
		if !moved {
			break
		}
	}
	return alloc
}
