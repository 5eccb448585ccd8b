// Package report summarizes the partitions produced by a split so a run's log
// shows the class balance and text length profile of each subset.
package report

import (
	"sort"
	"unicode/utf8"

	"github.com/go-gota/gota/dataframe"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/dataingest/core/parallel"
	"github.com/YuminosukeSato/dataingest/pkg/errors"
	"github.com/YuminosukeSato/dataingest/pkg/log"
)

// LabelShare is the frequency of one class in a subset.
type LabelShare struct {
	Label      string
	Count      int
	Proportion float64
}

// Summary describes one subset.
type Summary struct {
	Name string
	Rows int
	// Labels is sorted by descending count, then by label.
	Labels []LabelShare
	// TextLenMean and TextLenStd are the mean and sample standard deviation
	// of the text column's length in characters. Std is 0 for fewer than two rows.
	TextLenMean float64
	TextLenStd  float64
}

// Summarize computes a Summary of df. An empty labelCol or textCol skips
// that part of the summary.
func Summarize(name string, df dataframe.DataFrame, labelCol, textCol string) (Summary, error) {
	if df.Err != nil {
		return Summary{}, errors.Wrapf(df.Err, "summarize %s", name)
	}
	s := Summary{Name: name, Rows: df.Nrow()}

	if labelCol != "" {
		col := df.Col(labelCol)
		if col.Err != nil {
			return Summary{}, errors.NewMissingColumnError("summarize", labelCol)
		}
		s.Labels = labelShares(col.Records())
	}

	if textCol != "" && s.Rows > 0 {
		col := df.Col(textCol)
		if col.Err != nil {
			return Summary{}, errors.NewMissingColumnError("summarize", textCol)
		}
		texts := col.Records()
		lengths := make([]float64, len(texts))
		parallel.For(len(texts), parallel.DefaultThreshold, func(start, end int) {
			for i := start; i < end; i++ {
				lengths[i] = float64(utf8.RuneCountInString(texts[i]))
			}
		})
		if len(lengths) > 1 {
			s.TextLenMean, s.TextLenStd = stat.MeanStdDev(lengths, nil)
		} else {
			s.TextLenMean = stat.Mean(lengths, nil)
		}
		if err := errors.CheckScalar("summarize "+name, s.TextLenMean); err != nil {
			return Summary{}, err
		}
		if err := errors.CheckScalar("summarize "+name, s.TextLenStd); err != nil {
			return Summary{}, err
		}
	}
	return s, nil
}

func labelShares(labels []string) []LabelShare {
	counts := make(map[string]int)
	for _, l := range labels {
		counts[l]++
	}
	shares := make([]LabelShare, 0, len(counts))
	for label, count := range counts {
		shares = append(shares, LabelShare{
			Label:      label,
			Count:      count,
			Proportion: errors.SafeDivide(float64(count), float64(len(labels))),
		})
	}
	sort.Slice(shares, func(i, j int) bool {
		if shares[i].Count != shares[j].Count {
			return shares[i].Count > shares[j].Count
		}
		return shares[i].Label < shares[j].Label
	})
	return shares
}

// Proportion returns the share of label in the subset, 0 when absent.
func (s Summary) Proportion(label string) float64 {
	for _, l := range s.Labels {
		if l.Label == label {
			return l.Proportion
		}
	}
	return 0
}

// Log writes the summary as a single debug record.
func (s Summary) Log(logger log.Logger) {
	args := []any{
		"subset", s.Name,
		log.RowsKey, s.Rows,
		"text.len_mean", s.TextLenMean,
		"text.len_std", s.TextLenStd,
	}
	for _, l := range s.Labels {
		args = append(args, "label."+l.Label, l.Proportion)
	}
	logger.Debug("Subset summary", args...)
}
