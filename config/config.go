// Package config holds every tunable parameter of the ingestion pipeline.
//
// Parameters come from, in increasing precedence: built-in defaults, an
// optional YAML file, DATAINGEST_* environment variables and command-line
// flags bound by the CLI. The YAML layout is
//
//	data_ingestion:
//	  source: https://example.com/spam.csv
//	  test_size: 0.2
//	  random_state: 2
//	  data_path: ./data
//	preprocessing:
//	  drop_columns: ["Unnamed: 2", "Unnamed: 3", "Unnamed: 4"]
//	  rename: {v1: target, v2: text}
//	logging:
//	  dir: logs
//	  level: debug
package config

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/dataingest/dataset"
	"github.com/YuminosukeSato/dataingest/pkg/errors"
	"github.com/YuminosukeSato/dataingest/pkg/log"
)

// EnvPrefix is prepended to environment overrides, e.g.
// DATAINGEST_DATA_INGESTION_TEST_SIZE=0.3.
const EnvPrefix = "DATAINGEST"

// DefaultSource is the public SMS spam dataset the pipeline was built for.
const DefaultSource = "https://raw.githubusercontent.com/varshith-mohan/ML-Pipeline/refs/heads/main/spam.csv"

// Config is the single source of pipeline parameters.
type Config struct {
	DataIngestion DataIngestion `mapstructure:"data_ingestion" yaml:"data_ingestion"`
	Preprocessing Preprocessing `mapstructure:"preprocessing" yaml:"preprocessing"`
	Logging       Logging       `mapstructure:"logging" yaml:"logging"`
}

// DataIngestion configures loading, splitting and saving.
type DataIngestion struct {
	// Source is an http(s) URL or a local path to the CSV file.
	Source string `mapstructure:"source" yaml:"source"`
	// TestSize is the fraction of rows assigned to the test subset, in (0, 1).
	TestSize float64 `mapstructure:"test_size" yaml:"test_size"`
	// RandomState seeds the shuffle so splits are reproducible.
	RandomState uint64 `mapstructure:"random_state" yaml:"random_state"`
	// DataPath is the output root; files land in DataPath/raw.
	DataPath string `mapstructure:"data_path" yaml:"data_path"`
	// Encoding of the input: utf-8, latin-1 or windows-1252.
	Encoding string `mapstructure:"encoding" yaml:"encoding"`
	// FetchTimeout bounds a URL download. Zero disables the timeout.
	FetchTimeout time.Duration `mapstructure:"fetch_timeout" yaml:"fetch_timeout"`
	// Stratify keeps the label proportions of Preprocessing's target column in both subsets.
	Stratify bool `mapstructure:"stratify" yaml:"stratify"`
}

// Preprocessing configures the column cleanup.
type Preprocessing struct {
	DropColumns []string          `mapstructure:"drop_columns" yaml:"drop_columns"`
	Rename      map[string]string `mapstructure:"rename" yaml:"rename"`
	// TargetColumn is the label column after renaming; used by stratification and the report.
	TargetColumn string `mapstructure:"target_column" yaml:"target_column"`
	// TextColumn is the free-text column after renaming; used by the report.
	TextColumn string `mapstructure:"text_column" yaml:"text_column"`
}

// Logging configures the console and file sinks.
type Logging struct {
	Name  string `mapstructure:"name" yaml:"name"`
	Dir   string `mapstructure:"dir" yaml:"dir"`
	File  string `mapstructure:"file" yaml:"file"`
	Level string `mapstructure:"level" yaml:"level"`
}

// Default returns the documented defaults.
func Default() Config {
	return Config{
		DataIngestion: DataIngestion{
			Source:       DefaultSource,
			TestSize:     0.2,
			RandomState:  2,
			DataPath:     "./data",
			Encoding:     "utf-8",
			FetchTimeout: 30 * time.Second,
		},
		Preprocessing: Preprocessing{
			DropColumns:  []string{"Unnamed: 2", "Unnamed: 3", "Unnamed: 4"},
			Rename:       map[string]string{"v1": "target", "v2": "text"},
			TargetColumn: "target",
			TextColumn:   "text",
		},
		Logging: Logging{
			Name:  "data_ingestion",
			Dir:   "logs",
			File:  "data_ingestion.log",
			Level: "debug",
		},
	}
}

// New returns a viper instance primed with the defaults and environment
// overrides. The CLI binds its flags onto it before calling Decode.
func New() *viper.Viper {
	v := viper.New()
	d := Default()
	v.SetDefault("data_ingestion.source", d.DataIngestion.Source)
	v.SetDefault("data_ingestion.test_size", d.DataIngestion.TestSize)
	v.SetDefault("data_ingestion.random_state", d.DataIngestion.RandomState)
	v.SetDefault("data_ingestion.data_path", d.DataIngestion.DataPath)
	v.SetDefault("data_ingestion.encoding", d.DataIngestion.Encoding)
	v.SetDefault("data_ingestion.fetch_timeout", d.DataIngestion.FetchTimeout)
	v.SetDefault("data_ingestion.stratify", d.DataIngestion.Stratify)
	v.SetDefault("preprocessing.drop_columns", d.Preprocessing.DropColumns)
	v.SetDefault("preprocessing.target_column", d.Preprocessing.TargetColumn)
	v.SetDefault("preprocessing.text_column", d.Preprocessing.TextColumn)
	v.SetDefault("logging.name", d.Logging.Name)
	v.SetDefault("logging.dir", d.Logging.Dir)
	v.SetDefault("logging.file", d.Logging.File)
	v.SetDefault("logging.level", d.Logging.Level)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// ReadFile merges the YAML file at path into v. A missing file yields an
// IOError wrapping fs.ErrNotExist; malformed YAML yields a ParseError.
func ReadFile(v *viper.Viper, path string) error {
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		var parseErr viper.ConfigParseError
		if errors.As(err, &parseErr) {
			return errors.NewParseError(path, 0, parseErr.Unwrap())
		}
		return errors.NewIOError("read config", path, err)
	}
	return nil
}

// BindFlags maps CLI flags onto config keys. Only flags the user actually
// set override file and environment values.
func BindFlags(v *viper.Viper, flags *pflag.FlagSet, keys map[string]string) error {
	for flag, key := range keys {
		f := flags.Lookup(flag)
		if f == nil {
			return errors.Newf("config: unknown flag %q", flag)
		}
		if err := v.BindPFlag(key, f); err != nil {
			return errors.Wrapf(err, "config: bind flag %q", flag)
		}
	}
	return nil
}

// Decode unmarshals v into a Config and validates it.
//
// viper folds map keys to lower case, so Decode cannot see upper-case column
// names in preprocessing.rename. LoadInto restores them from the file.
func Decode(v *viper.Viper) (Config, error) {
	return decode(v, nil)
}

func decode(v *viper.Viper, rename map[string]string) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errors.NewParseError("config", 0, err)
	}
	if rename != nil {
		cfg.Preprocessing.Rename = rename
	}
	// viper deep-merges map defaults with file values, so the rename default
	// is applied here to let a file replace it instead of extending it.
	if cfg.Preprocessing.Rename == nil {
		cfg.Preprocessing.Rename = Default().Preprocessing.Rename
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// fileRename reads preprocessing.rename from the YAML file with its keys as
// written. It returns nil when the file has no rename mapping.
func fileRename(path string) (map[string]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewIOError("read config", path, err)
	}
	var doc struct {
		Preprocessing struct {
			Rename map[string]string `yaml:"rename"`
		} `yaml:"preprocessing"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, errors.NewParseError(path, 0, err)
	}
	return doc.Preprocessing.Rename, nil
}

// Load reads parameters from the YAML file at path layered over the defaults.
// An empty path means defaults plus environment only.
func Load(path string, logger log.Logger) (Config, error) {
	return LoadInto(New(), path, logger)
}

// LoadInto is Load on a caller-prepared viper instance, typically one with
// CLI flags already bound. Failures are logged before being returned.
func LoadInto(v *viper.Viper, path string, logger log.Logger) (Config, error) {
	if logger == nil {
		logger = log.Nop()
	}
	logger = logger.With(log.StageKey, log.StageConfig)
	var rename map[string]string
	if path != "" {
		err := ReadFile(v, path)
		if err == nil {
			rename, err = fileRename(path)
		}
		if err != nil {
			var parseErr *errors.ParseError
			switch {
			case errors.IsNotFound(err):
				logger.Error("File not found", err, log.ConfigFileKey, path)
			case errors.As(err, &parseErr):
				logger.Error("YAML error", err, log.ConfigFileKey, path)
			default:
				logger.Error("Unexpected error", err, log.ConfigFileKey, path)
			}
			return Config{}, err
		}
	}
	cfg, err := decode(v, rename)
	if err != nil {
		logger.Error("Invalid parameters", err, log.ConfigFileKey, path)
		return Config{}, err
	}
	logger.Debug("Parameters retrieved", log.ConfigFileKey, path)
	return cfg, nil
}

// Validate checks parameter ranges and cross-field consistency.
func (c Config) Validate() error {
	d := c.DataIngestion
	if !(d.TestSize > 0 && d.TestSize < 1) {
		return errors.NewValidationError("data_ingestion.test_size", "must be in (0, 1)", d.TestSize)
	}
	if strings.TrimSpace(d.Source) == "" {
		return errors.NewValidationError("data_ingestion.source", "must not be empty", d.Source)
	}
	if strings.TrimSpace(d.DataPath) == "" {
		return errors.NewValidationError("data_ingestion.data_path", "must not be empty", d.DataPath)
	}
	if d.FetchTimeout < 0 {
		return errors.NewValidationError("data_ingestion.fetch_timeout", "must not be negative", d.FetchTimeout)
	}
	if _, err := dataset.ParseEncoding(d.Encoding); err != nil {
		return errors.NewValidationError("data_ingestion.encoding", err.Error(), d.Encoding)
	}

	seen := make(map[string]string, len(c.Preprocessing.Rename))
	for from, to := range c.Preprocessing.Rename {
		if to == "" {
			return errors.NewValidationError("preprocessing.rename", "target name must not be empty", from)
		}
		if prev, dup := seen[to]; dup {
			return errors.NewValidationError("preprocessing.rename", "columns "+prev+" and "+from+" map to the same name", to)
		}
		seen[to] = from
	}
	if d.Stratify && c.Preprocessing.TargetColumn == "" {
		return errors.NewValidationError("preprocessing.target_column", "required when stratify is enabled", "")
	}
	if _, err := log.ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	return nil
}

// YAML renders the effective configuration.
func (c Config) YAML() ([]byte, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return nil, errors.Wrap(err, "config: marshal")
	}
	return out, nil
}
