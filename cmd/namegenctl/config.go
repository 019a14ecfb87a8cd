package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"namegen/internal/optim"
	"namegen/internal/platform"
	"namegen/internal/sampler"
	"namegen/internal/storage"
)

const (
	defaultConfigFile = "namegen.yaml"
	envPrefix         = "NAMEGEN_"
)

// Config is the merged CLI configuration.
type Config struct {
	DataDir           string  `koanf:"data_dir" yaml:"data_dir"`
	HiddenSize        int     `koanf:"hidden_size" yaml:"hidden_size"`
	LearningRate      float64 `koanf:"learning_rate" yaml:"learning_rate"`
	Iterations        int     `koanf:"iterations" yaml:"iterations"`
	ReportInterval    int     `koanf:"report_interval" yaml:"report_interval"`
	AveragingInterval int     `koanf:"averaging_interval" yaml:"averaging_interval"`
	Dropout           float64 `koanf:"dropout" yaml:"dropout"`
	Optimizer         string  `koanf:"optimizer" yaml:"optimizer"`
	Seed              int64   `koanf:"seed" yaml:"seed"`
	MaxLength         int     `koanf:"max_length" yaml:"max_length"`
	Store             string  `koanf:"store" yaml:"store"`
	DBPath            string  `koanf:"db_path" yaml:"db_path"`
	ArtifactsDir      string  `koanf:"artifacts_dir" yaml:"artifacts_dir"`
	ExportsDir        string  `koanf:"exports_dir" yaml:"exports_dir"`
	Verbose           bool    `koanf:"verbose" yaml:"verbose"`

	// ConfigFile is the file that was loaded, if any.
	ConfigFile string `koanf:"-" yaml:"-"`
}

func defaultConfig() Config {
	return Config{
		DataDir:           "data/names",
		HiddenSize:        platform.DefaultHiddenSize,
		LearningRate:      platform.DefaultLearningRate,
		Iterations:        platform.DefaultIterations,
		ReportInterval:    platform.DefaultReportInterval,
		AveragingInterval: platform.DefaultAveragingInterval,
		Dropout:           platform.DefaultDropout,
		Optimizer:         optim.NameSGD,
		Seed:              platform.DefaultSeed,
		MaxLength:         sampler.DefaultMaxLength,
		Store:             storage.DefaultStoreKind(),
		DBPath:            "namegen.db",
		ArtifactsDir:      "runs",
		ExportsDir:        "exports",
	}
}

func (c Config) asMap() map[string]interface{} {
	return map[string]interface{}{
		"data_dir":           c.DataDir,
		"hidden_size":        c.HiddenSize,
		"learning_rate":      c.LearningRate,
		"iterations":         c.Iterations,
		"report_interval":    c.ReportInterval,
		"averaging_interval": c.AveragingInterval,
		"dropout":            c.Dropout,
		"optimizer":          c.Optimizer,
		"seed":               c.Seed,
		"max_length":         c.MaxLength,
		"store":              c.Store,
		"db_path":            c.DBPath,
		"artifacts_dir":      c.ArtifactsDir,
		"exports_dir":        c.ExportsDir,
		"verbose":            c.Verbose,
	}
}

// loadConfig merges, from lowest to highest precedence: defaults, the YAML
// config file, NAMEGEN_* environment variables and explicitly set flags.
func loadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaultConfig().asMap(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if cfgFile == "" {
		if _, err := os.Stat(defaultConfigFile); err == nil {
			cfgFile = defaultConfigFile
		}
	}
	if cfgFile != "" {
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
		}
	}

	// NAMEGEN_HIDDEN_SIZE -> hidden_size
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.ConfigFile = cfgFile
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c Config) validate() error {
	if c.HiddenSize <= 0 {
		return fmt.Errorf("hidden_size must be > 0, got %d", c.HiddenSize)
	}
	if c.LearningRate <= 0 {
		return fmt.Errorf("learning_rate must be > 0, got %g", c.LearningRate)
	}
	if c.Iterations <= 0 {
		return fmt.Errorf("iterations must be > 0, got %d", c.Iterations)
	}
	if c.ReportInterval <= 0 || c.AveragingInterval <= 0 {
		return fmt.Errorf("report_interval and averaging_interval must be > 0")
	}
	if c.Dropout < 0 || c.Dropout >= 1 {
		return fmt.Errorf("dropout must be in [0,1), got %g", c.Dropout)
	}
	if c.MaxLength < 0 {
		return fmt.Errorf("max_length must be >= 0, got %d", c.MaxLength)
	}
	if _, err := optim.FromName(c.Optimizer); err != nil {
		return err
	}
	return nil
}

type configKey struct{}

type loggerKey struct{}

func getConfig(ctx context.Context) *Config {
	if c, ok := ctx.Value(configKey{}).(*Config); ok {
		return c
	}
	cfg := defaultConfig()
	return &cfg
}

func getLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.DiscardHandler)
}
