// Package dataset reads the raw CSV into a gota DataFrame and writes the
// train/test partitions back to disk.
//
// Every cell is loaded as a string exactly as it appears in the file: no type
// detection and no NaN substitution, so a load/save round trip preserves the
// text column byte for byte. UTF-8 input must be valid UTF-8; a file in
// another character set is refused with a ParseError rather than rewritten,
// and needs WithEncoding.
package dataset

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"
	"unicode/utf8"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"golang.org/x/text/encoding"

	"github.com/YuminosukeSato/dataingest/pkg/errors"
	"github.com/YuminosukeSato/dataingest/pkg/log"
)

// LoadOption configures Load and ReadCSV.
type LoadOption func(*loadOptions)

type loadOptions struct {
	encoding encoding.Encoding
	client   *http.Client
	timeout  time.Duration
	logger   log.Logger
}

// WithEncoding decodes the input from enc before parsing. See ParseEncoding.
func WithEncoding(enc encoding.Encoding) LoadOption {
	return func(o *loadOptions) {
		o.encoding = enc
	}
}

// WithHTTPClient replaces http.DefaultClient for URL sources.
func WithHTTPClient(c *http.Client) LoadOption {
	return func(o *loadOptions) {
		o.client = c
	}
}

// WithTimeout bounds a URL download. Zero means no timeout.
func WithTimeout(d time.Duration) LoadOption {
	return func(o *loadOptions) {
		o.timeout = d
	}
}

// WithLogger sets the logger for fetch diagnostics and data warnings.
// Without one, warnings go to errors.Warn.
func WithLogger(l log.Logger) LoadOption {
	return func(o *loadOptions) {
		o.logger = l
	}
}

func newLoadOptions(opts []LoadOption) loadOptions {
	o := loadOptions{
		client: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// warn reports a data warning through the injected logger, falling back to
// the process-wide warning hook.
func (o loadOptions) warn(msg string, w *errors.DataWarning) {
	if o.logger == nil {
		errors.Warn(w)
		return
	}
	o.logger.Warn(msg, w, log.SourceKey, w.Source)
}

// IsURL reports whether source should be fetched over HTTP.
func IsURL(source string) bool {
	u, err := url.Parse(source)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Load reads the CSV at source, an http(s) URL or a filesystem path.
//
// A bare quote inside an unquoted field is kept as a literal character.
//
// Errors:
//   - *errors.ParseError for malformed CSV (a quoted field left open, rows wider
//     than the header) and for invalid UTF-8 when no other encoding is set
//   - *errors.IOError for unreadable paths, failed downloads and non-2xx responses;
//     a missing file satisfies errors.IsNotFound
//   - errors.ErrEmptyData when the input has a header but no rows
func Load(ctx context.Context, source string, opts ...LoadOption) (dataframe.DataFrame, error) {
	o := newLoadOptions(opts)
	if IsURL(source) {
		return fetch(ctx, source, o)
	}

	f, err := os.Open(source)
	if err != nil {
		return dataframe.DataFrame{}, errors.NewIOError("open", source, err)
	}
	defer f.Close()
	return readCSV(f, source, o)
}

// ReadCSV parses CSV from r. source is only used in error messages.
func ReadCSV(r io.Reader, source string, opts ...LoadOption) (dataframe.DataFrame, error) {
	return readCSV(r, source, newLoadOptions(opts))
}

func fetch(ctx context.Context, source string, o loadOptions) (dataframe.DataFrame, error) {
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return dataframe.DataFrame{}, errors.NewIOError("fetch", source, err)
	}
	if o.logger != nil {
		o.logger.Debug("Fetching dataset", log.SourceKey, source)
	}
	resp, err := o.client.Do(req)
	if err != nil {
		return dataframe.DataFrame{}, errors.NewIOError("fetch", source, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return dataframe.DataFrame{}, errors.NewIOError("fetch", source, errors.ErrNotFound)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return dataframe.DataFrame{}, errors.NewIOError("fetch", source, fmt.Errorf("unexpected status: %s", resp.Status))
	}
	return readCSV(resp.Body, source, o)
}

func readCSV(r io.Reader, source string, o loadOptions) (dataframe.DataFrame, error) {
	data, err := io.ReadAll(decodeReader(r, o.encoding))
	if err != nil {
		return dataframe.DataFrame{}, errors.NewIOError("read", source, err)
	}
	checkUTF8 := isUTF8(o.encoding)

	cr := csv.NewReader(bytes.NewReader(data))
	// Row width is checked against the header below so short rows can be padded.
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err == io.EOF {
		return dataframe.DataFrame{}, errors.Wrapf(errors.ErrEmptyData, "load %s", source)
	}
	if err != nil {
		return dataframe.DataFrame{}, csvError(source, err)
	}
	if checkUTF8 {
		if err := validUTF8(cr, header, source); err != nil {
			return dataframe.DataFrame{}, err
		}
	}
	lastLine, lastCol := cr.FieldPos(len(header) - 1)
	header = normalizeHeader(header)

	records := [][]string{header}
	padded, firstPadded := 0, 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return dataframe.DataFrame{}, csvError(source, err)
		}
		line, _ := cr.FieldPos(0)
		if len(rec) > len(header) {
			return dataframe.DataFrame{}, errors.NewParseError(source, line,
				fmt.Errorf("expected %d fields, saw %d", len(header), len(rec)))
		}
		if checkUTF8 {
			if err := validUTF8(cr, rec, source); err != nil {
				return dataframe.DataFrame{}, err
			}
		}
		lastLine, lastCol = cr.FieldPos(len(rec) - 1)
		if len(rec) < len(header) {
			if padded == 0 {
				firstPadded = line
			}
			padded++
			rec = append(rec, make([]string, len(header)-len(rec))...)
		}
		records = append(records, rec)
	}

	// With lazy quotes an unclosed quoted field swallows the rest of the
	// input, so it can only be the last field read.
	if unterminatedQuote(data, lastLine, lastCol) {
		return dataframe.DataFrame{}, errors.NewParseError(source, lastLine, csv.ErrQuote)
	}
	if len(records) == 1 {
		return dataframe.DataFrame{}, errors.Wrapf(errors.ErrEmptyData, "load %s", source)
	}
	if padded > 0 {
		o.warn("Short rows padded with empty values", errors.NewDataWarning(source, firstPadded,
			fmt.Sprintf("%d row(s) had fewer fields than the header and were padded with empty values", padded)))
	}

	df := dataframe.LoadRecords(records,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(nil),
	)
	if df.Err != nil {
		return dataframe.DataFrame{}, errors.NewParseError(source, 0, df.Err)
	}
	return df, nil
}

func validUTF8(cr *csv.Reader, rec []string, source string) error {
	for i, field := range rec {
		if !utf8.ValidString(field) {
			line, _ := cr.FieldPos(i)
			return errors.NewParseError(source, line,
				fmt.Errorf("field %d is not valid UTF-8; set the encoding (for example latin-1)", i+1))
		}
	}
	return nil
}

// unterminatedQuote reports whether the field starting at line:col of data
// opens a quoted field that is never closed before the end of the input.
func unterminatedQuote(data []byte, line, col int) bool {
	off := 0
	for l := 1; l < line; l++ {
		i := bytes.IndexByte(data[off:], '\n')
		if i < 0 {
			return false
		}
		off += i + 1
	}
	off += col - 1
	if off < 0 || off >= len(data) || data[off] != '"' {
		return false
	}
	rest := bytes.TrimRight(data[off+1:], "\r\n")
	// A closed field ends in an odd run of quotes: escaped pairs plus the closing one.
	run := len(rest) - len(bytes.TrimRight(rest, `"`))
	return run%2 == 0
}

func csvError(source string, err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return errors.NewParseError(source, pe.Line, pe.Err)
	}
	return errors.NewIOError("read", source, err)
}

// normalizeHeader names blank header cells "Unnamed: <position>" and suffixes
// repeated names with ".1", ".2", ... so every column is addressable by name.
func normalizeHeader(header []string) []string {
	out := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, name := range header {
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		if n, dup := seen[name]; dup {
			seen[name] = n + 1
			name = fmt.Sprintf("%s.%d", name, n+1)
		} else {
			seen[name] = 0
		}
		out[i] = name
	}
	return out
}
