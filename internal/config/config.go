package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

const (
	// DefaultDBPath is the vocabulary database looked up in the working directory.
	DefaultDBPath     = "100_EN_real_estate.sqlite3"
	DefaultDriver     = "sqlite"
	DefaultSampleSize = 5
	DefaultLogLevel   = "info"

	// SampleSizeFlag is only registered by commands that sample word ids.
	SampleSizeFlag = "sample-size"

	// EnvPrefix scopes the environment variables read by Load, e.g. VOCABDB_DB.
	EnvPrefix = "VOCABDB_"
)

// Config holds the settings shared by the vocabdb commands.
type Config struct {
	DBPath     string `koanf:"db" validate:"required"`
	Driver     string `koanf:"driver" validate:"oneof=sqlite sqlite3"`
	SampleSize int    `koanf:"sample_size" validate:"min=1,max=100"`
	LogLevel   string `koanf:"log_level" validate:"oneof=debug info warn error"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		DBPath:     DefaultDBPath,
		Driver:     DefaultDriver,
		SampleSize: DefaultSampleSize,
		LogLevel:   DefaultLogLevel,
	}
}

// NewFlagSet registers the flags every command accepts.
func NewFlagSet(name string) *pflag.FlagSet {
	f := pflag.NewFlagSet(name, pflag.ContinueOnError)
	f.String("db", DefaultDBPath, "Path to the SQLite vocabulary database")
	f.String("driver", DefaultDriver, "SQLite driver: sqlite (pure Go) or sqlite3 (cgo)")
	f.String("log-level", DefaultLogLevel, "Log level: debug, info, warn or error")
	f.String("config", "", "Optional YAML config file")
	return f
}

// AddSampleSizeFlag registers --sample-size on f.
func AddSampleSizeFlag(f *pflag.FlagSet) {
	f.Int(SampleSizeFlag, DefaultSampleSize, "How many distinct word ids to sample")
}

// Load resolves the configuration from, in increasing priority: defaults,
// an optional YAML file, VOCABDB_* environment variables (a .env file in the
// working directory is honoured) and flags set explicitly on the command line.
func Load(f *pflag.FlagSet, args []string) (*Config, error) {
	if err := f.Parse(args); err != nil {
		return nil, fmt.Errorf("failed to parse flags: %w", err)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	k := koanf.New(".")

	cfgFile, _ := f.GetString("config")
	if cfgFile == "" {
		cfgFile = os.Getenv(EnvPrefix + "CONFIG")
	}
	if cfgFile != "" {
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", cfgFile, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	// Unchanged flags only fill keys that are still missing.
	if err := k.Load(posflag.ProviderWithFlag(f, ".", k, func(fl *pflag.Flag) (string, interface{}) {
		return flagKey(fl.Name), posflag.FlagVal(f, fl)
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to read flags: %w", err)
	}

	// sample_size belongs to checkdb; commands without the flag ignore it.
	if f.Lookup(SampleSizeFlag) == nil {
		k.Delete("sample_size")
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values against the struct's validate tags.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s fails %q (got %v)", fe.Field(), fe.Tag(), fe.Value()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// envKey maps VOCABDB_SAMPLE_SIZE to sample_size.
func envKey(s string) string {
	return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
}

// flagKey maps --sample-size to sample_size.
func flagKey(name string) string {
	return strings.ReplaceAll(name, "-", "_")
}
