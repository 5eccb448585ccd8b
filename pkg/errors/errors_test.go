package errors

import (
	"fmt"
	"io/fs"
	"strings"
	"testing"
)

func TestNewParseError(t *testing.T) {
	tests := []struct {
		name    string
		line    int
		wantMsg string
	}{
		{
			name:    "with line",
			line:    7,
			wantMsg: "dataingest: parse spam.csv (line 7): bad quote",
		},
		{
			name:    "without line",
			line:    0,
			wantMsg: "dataingest: parse spam.csv: bad quote",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewParseError("spam.csv", tt.line, fmt.Errorf("bad quote"))

			if err.Error() != tt.wantMsg {
				t.Errorf("Error() = %v, want %v", err.Error(), tt.wantMsg)
			}

			// スタックトレースの存在確認
			formatted := fmt.Sprintf("%+v", err)
			if !strings.Contains(formatted, "errors_test.go") {
				t.Error("Expected stack trace to contain test file name")
			}

			var parseErr *ParseError
			if !As(err, &parseErr) {
				t.Error("Error should be castable to *ParseError")
			}
		})
	}
}

func TestNewMissingColumnError(t *testing.T) {
	err := NewMissingColumnError("drop", "Unnamed: 2", "Unnamed: 4")

	want := `dataingest: drop: missing column(s) "Unnamed: 2", "Unnamed: 4"`
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var colErr *MissingColumnError
	if !As(err, &colErr) {
		t.Fatal("Error should be castable to *MissingColumnError")
	}
	if len(colErr.Columns) != 2 {
		t.Errorf("Columns = %v, want 2 entries", colErr.Columns)
	}
}

func TestNewIOError(t *testing.T) {
	err := NewIOError("open", "/nope.csv", fs.ErrNotExist)

	if !IsNotFound(err) {
		t.Error("Expected IsNotFound to see through IOError")
	}

	var ioErr *IOError
	if !As(err, &ioErr) {
		t.Error("Error should be castable to *IOError")
	}
	if ioErr.Path != "/nope.csv" {
		t.Errorf("Path = %q", ioErr.Path)
	}
}

func TestNewValidationError(t *testing.T) {
	err := NewValidationError("test_size", "must be in (0, 1)", 1.5)

	want := "dataingest: validation failed for parameter 'test_size': must be in (0, 1) (got: 1.5)"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}
}

func TestStageErrorChaining(t *testing.T) {
	base := NewMissingColumnError("rename", "v1")
	err := NewStageError("preprocess", Wrap(base, "clean columns"))

	if !strings.Contains(err.Error(), "preprocess") {
		t.Error("Expected stage name in message")
	}

	var colErr *MissingColumnError
	if !As(err, &colErr) {
		t.Error("Expected MissingColumnError in chain")
	}

	// スタックトレースの確認（詳細表示）
	formatted := fmt.Sprintf("%+v", base)
	if !strings.Contains(formatted, "errors_test.go") {
		t.Error("Expected detailed error to contain stack trace")
	}
}

func TestWrapfAndIs(t *testing.T) {
	wrapped := Wrapf(ErrEmptyData, "load %s", "spam.csv")

	if !Is(wrapped, ErrEmptyData) {
		t.Error("Expected Is(wrapped, ErrEmptyData) to be true")
	}
	if !strings.Contains(wrapped.Error(), "load spam.csv") {
		t.Error("Expected wrapped error to contain wrapping message")
	}
}

func TestWarn_RoutesToZerologFunc(t *testing.T) {
	var got []error
	SetZerologWarnFunc(func(w error) { got = append(got, w) })
	defer SetZerologWarnFunc(nil)

	Warn(NewDataWarning("spam.csv", 3, "row padded"))

	if len(got) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(got))
	}
	if got[0].Error() != "spam.csv:3: row padded" {
		t.Errorf("unexpected warning text %q", got[0].Error())
	}
}

func TestSetWarningHandler(t *testing.T) {
	var got []error
	SetWarningHandler(func(w error) { got = append(got, w) })
	Warn(NewDataWarning("spam.csv", 0, "row padded"))
	SetWarningHandler(nil)

	if len(got) != 1 || got[0].Error() != "spam.csv: row padded" {
		t.Fatalf("unexpected warnings %v", got)
	}

	warningMutex.Lock()
	restored := warningHandler != nil
	warningMutex.Unlock()
	if !restored {
		t.Error("SetWarningHandler(nil) should restore the default handler")
	}
}

func TestSafeDivideAndCheckScalar(t *testing.T) {
	if SafeDivide(1, 0) != 0 {
		t.Error("SafeDivide by zero should return 0")
	}
	if SafeDivide(3, 4) != 0.75 {
		t.Error("SafeDivide(3, 4) should be 0.75")
	}
	if err := CheckScalar("mean", 1.5); err != nil {
		t.Errorf("unexpected error %v", err)
	}
	var valErr *ValueError
	if !As(CheckScalar("mean", SafeDivide(0, 1)/SafeDivide(0, 1)), &valErr) {
		t.Error("NaN should produce a ValueError")
	}
}
