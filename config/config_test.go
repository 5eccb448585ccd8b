package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/dataingest/pkg/errors"
	"github.com/YuminosukeSato/dataingest/pkg/log"
)

func writeYAML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "params.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	logger, _ := log.NewTestLogger(log.LevelDebug)

	cfg, err := Load("", logger)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.True(t, logger.ContainsMessage("Parameters retrieved"))
}

func TestLoad_File(t *testing.T) {
	path := writeYAML(t, `
data_ingestion:
  test_size: 0.3
  random_state: 42
  fetch_timeout: 5s
preprocessing:
  rename:
    label: target
logging:
  level: info
`)

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, 0.3, cfg.DataIngestion.TestSize)
	assert.Equal(t, uint64(42), cfg.DataIngestion.RandomState)
	assert.Equal(t, 5*time.Second, cfg.DataIngestion.FetchTimeout)
	assert.Equal(t, map[string]string{"label": "target"}, cfg.Preprocessing.Rename)
	assert.Equal(t, "info", cfg.Logging.Level)

	// 未指定の値はデフォルトのまま
	assert.Equal(t, DefaultSource, cfg.DataIngestion.Source)
	assert.Equal(t, "./data", cfg.DataIngestion.DataPath)
	assert.Equal(t, []string{"Unnamed: 2", "Unnamed: 3", "Unnamed: 4"}, cfg.Preprocessing.DropColumns)
}

func TestLoad_RenameKeepsCase(t *testing.T) {
	path := writeYAML(t, `
preprocessing:
  drop_columns: []
  rename:
    V1: target
    "Unnamed: 2": extra
    v2: text
`)

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"V1": "target", "Unnamed: 2": "extra", "v2": "text"}, cfg.Preprocessing.Rename)
	assert.Empty(t, cfg.Preprocessing.DropColumns)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		path    func(t *testing.T) string
		check   func(t *testing.T, err error)
		wantLog string
	}{
		{
			name: "missing file",
			path: func(t *testing.T) string { return filepath.Join(t.TempDir(), "missing.yaml") },
			check: func(t *testing.T, err error) {
				assert.True(t, errors.IsNotFound(err))
			},
			wantLog: "File not found",
		},
		{
			name: "malformed yaml",
			path: func(t *testing.T) string { return writeYAML(t, "data_ingestion: [\n  test_size: 0.2\n") },
			check: func(t *testing.T, err error) {
				var pe *errors.ParseError
				assert.True(t, errors.As(err, &pe))
			},
			wantLog: "YAML error",
		},
		{
			name: "out of range test size",
			path: func(t *testing.T) string { return writeYAML(t, "data_ingestion:\n  test_size: 1.5\n") },
			check: func(t *testing.T, err error) {
				var ve *errors.ValidationError
				require.True(t, errors.As(err, &ve))
				assert.Equal(t, "data_ingestion.test_size", ve.ParamName)
			},
			wantLog: "Invalid parameters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := log.NewTestLogger(log.LevelDebug)
			_, err := Load(tt.path(t), logger)
			require.Error(t, err)
			tt.check(t, err)
			assert.True(t, logger.ContainsMessage(tt.wantLog))
			assert.True(t, logger.ContainsField(log.StageKey, log.StageConfig))
		})
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("DATAINGEST_DATA_INGESTION_TEST_SIZE", "0.25")
	t.Setenv("DATAINGEST_LOGGING_LEVEL", "warn")

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, 0.25, cfg.DataIngestion.TestSize)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestBindFlags(t *testing.T) {
	path := writeYAML(t, "data_ingestion:\n  test_size: 0.3\n  data_path: ./from-file\n")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Float64("test-size", 0.2, "")
	flags.String("data-path", "./data", "")
	require.NoError(t, flags.Parse([]string{"--test-size", "0.4"}))

	v := New()
	require.NoError(t, BindFlags(v, flags, map[string]string{
		"test-size": "data_ingestion.test_size",
		"data-path": "data_ingestion.data_path",
	}))
	cfg, err := LoadInto(v, path, nil)
	require.NoError(t, err)

	assert.Equal(t, 0.4, cfg.DataIngestion.TestSize)
	// 指定されなかったフラグはファイルの値を上書きしない
	assert.Equal(t, "./from-file", cfg.DataIngestion.DataPath)

	err = BindFlags(New(), flags, map[string]string{"nope": "x"})
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(c *Config)
		wantParam string
	}{
		{name: "zero test size", mutate: func(c *Config) { c.DataIngestion.TestSize = 0 }, wantParam: "data_ingestion.test_size"},
		{name: "empty source", mutate: func(c *Config) { c.DataIngestion.Source = " " }, wantParam: "data_ingestion.source"},
		{name: "empty data path", mutate: func(c *Config) { c.DataIngestion.DataPath = "" }, wantParam: "data_ingestion.data_path"},
		{name: "negative timeout", mutate: func(c *Config) { c.DataIngestion.FetchTimeout = -time.Second }, wantParam: "data_ingestion.fetch_timeout"},
		{name: "unknown encoding", mutate: func(c *Config) { c.DataIngestion.Encoding = "ebcdic" }, wantParam: "data_ingestion.encoding"},
		{
			name:      "empty rename target",
			mutate:    func(c *Config) { c.Preprocessing.Rename = map[string]string{"v1": ""} },
			wantParam: "preprocessing.rename",
		},
		{
			name:      "rename collision",
			mutate:    func(c *Config) { c.Preprocessing.Rename = map[string]string{"v1": "x", "v2": "x"} },
			wantParam: "preprocessing.rename",
		},
		{
			name: "stratify without target",
			mutate: func(c *Config) {
				c.DataIngestion.Stratify = true
				c.Preprocessing.TargetColumn = ""
			},
			wantParam: "preprocessing.target_column",
		},
		{name: "unknown log level", mutate: func(c *Config) { c.Logging.Level = "loud" }, wantParam: "logging.level"},
	}

	require.NoError(t, Default().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			var ve *errors.ValidationError
			require.True(t, errors.As(err, &ve), "got %v", err)
			assert.Equal(t, tt.wantParam, ve.ParamName)
		})
	}
}

func TestConfig_YAML(t *testing.T) {
	out, err := Default().YAML()
	require.NoError(t, err)
	assert.Contains(t, string(out), "test_size: 0.2")
	assert.Contains(t, string(out), "random_state: 2")
	assert.Contains(t, string(out), "v1: target")
}
