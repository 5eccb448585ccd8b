package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `v1,v2,,,
ham,Go until jurong point,,,
ham,Ok lar... Joking wif u oni...,,,
spam,Free entry in 2 a wkly comp to win FA Cup final tkts,,,
ham,U dun say so early hor... U c already then say...,,,
ham,"Nah I don't think he goes to usf, he lives around here though",,,
spam,FreeMsg Hey there darling it's been 3 week's now,,,
ham,Even my brother is not like to speak with me,,,
ham,As per your request 'Melle Melle' has been set as your callertune,,,
spam,WINNER!! As a valued network customer you have been selected,,,
ham,I'm gonna be home soon and i don't want to talk about this stuff anymore,,,
`

// workspace writes the sample CSV and points the log directory into a temp dir.
func workspace(t *testing.T) (dir, src string) {
	t.Helper()
	dir = t.TempDir()
	src = filepath.Join(dir, "spam.csv")
	require.NoError(t, os.WriteFile(src, []byte(sample), 0o644))
	t.Setenv("DATAINGEST_LOGGING_DIR", filepath.Join(dir, "logs"))
	return dir, src
}

func countLines(b []byte) int {
	return bytes.Count(b, []byte("\n"))
}

func TestRun(t *testing.T) {
	for _, sub := range [][]string{{"run"}, {}} {
		t.Run(strings.Join(append([]string{"dataingest"}, sub...), " "), func(t *testing.T) {
			dir, src := workspace(t)
			dataPath := filepath.Join(dir, "data")
			var out bytes.Buffer

			args := append(sub, "--source", src, "--data-path", dataPath, "--test-size", "0.2", "--seed", "2")
			code := execute(context.Background(), args, &out)
			require.Equal(t, 0, code, out.String())

			train, err := os.ReadFile(filepath.Join(dataPath, "raw", "train.csv"))
			require.NoError(t, err)
			test, err := os.ReadFile(filepath.Join(dataPath, "raw", "test.csv"))
			require.NoError(t, err)
			assert.Equal(t, 9, countLines(train))
			assert.Equal(t, 3, countLines(test))
			assert.True(t, strings.HasPrefix(string(train), "target,text\n"))

			logFile, err := os.ReadFile(filepath.Join(dir, "logs", "data_ingestion.log"))
			require.NoError(t, err)
			assert.Contains(t, string(logFile), "data_ingestion - DEBUG - Data loaded successfully")
			assert.Contains(t, out.String(), "Train and Test data successfully saved")
		})
	}
}

func TestRun_ConfigFile(t *testing.T) {
	dir, src := workspace(t)
	dataPath := filepath.Join(dir, "out")
	params := filepath.Join(dir, "params.yaml")
	require.NoError(t, os.WriteFile(params, []byte(
		"data_ingestion:\n  source: "+src+"\n  data_path: "+dataPath+"\n  test_size: 0.3\n"), 0o644))

	var out bytes.Buffer
	code := execute(context.Background(), []string{"run", "--config", params}, &out)
	require.Equal(t, 0, code, out.String())

	test, err := os.ReadFile(filepath.Join(dataPath, "raw", "test.csv"))
	require.NoError(t, err)
	assert.Equal(t, 4, countLines(test))
}

func TestRun_Failures(t *testing.T) {
	tests := []struct {
		name string
		args func(dir, src string) []string
		want string
	}{
		{
			name: "missing source",
			args: func(dir, _ string) []string {
				return []string{"run", "--source", filepath.Join(dir, "nope.csv"), "--data-path", dir}
			},
			want: "nope.csv",
		},
		{
			name: "missing config file",
			args: func(dir, _ string) []string {
				return []string{"run", "--config", filepath.Join(dir, "params.yaml")}
			},
			want: "params.yaml",
		},
		{
			name: "invalid test size",
			args: func(dir, src string) []string {
				return []string{"run", "--source", src, "--data-path", dir, "--test-size", "1.5"}
			},
			want: "test_size",
		},
		{
			name: "unexpected argument",
			args: func(string, string) []string { return []string{"run", "extra"} },
			want: "unknown command",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir, src := workspace(t)
			var out bytes.Buffer

			code := execute(context.Background(), tt.args(dir, src), &out)
			assert.Equal(t, 1, code)
			assert.Contains(t, out.String(), "Error: ")
			assert.Contains(t, out.String(), tt.want)
		})
	}
}

func TestConfigCommand(t *testing.T) {
	dir, _ := workspace(t)
	var out bytes.Buffer

	code := execute(context.Background(), []string{"config", "--test-size", "0.35", "--data-path", dir}, &out)
	require.Equal(t, 0, code, out.String())
	assert.Contains(t, out.String(), "test_size: 0.35")
	assert.Contains(t, out.String(), "data_path: "+dir)
	assert.Contains(t, out.String(), "v2: text")
}
