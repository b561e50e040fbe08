package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/linkfinder/pkg/linkfinder/internalerr"
	"github.com/cognicore/linkfinder/pkg/linkfinder/model/forest"
)

var ErrInvalidConfig = internalerr.ErrInvalidConfig

// Config is the linkfinder configuration file
type Config struct {
	Dataset   Dataset   `yaml:"dataset"`
	Artifacts Artifacts `yaml:"artifacts"`
	Training  Training  `yaml:"training"`
	Server    Server    `yaml:"server"`
	Log       Log       `yaml:"log"`
}

// Dataset selects where records are loaded from. Exactly one source is used,
// in the order SQLite, CSV, JSONL.
type Dataset struct {
	CSV    string `yaml:"csv"`
	JSONL  string `yaml:"jsonl"`
	SQLite string `yaml:"sqlite"`
}

// Artifacts selects where trained artifacts live. Bolt wins over Dir when set.
type Artifacts struct {
	Dir  string `yaml:"dir"`
	Bolt string `yaml:"bolt"`
}

// Training holds pipeline and forest parameters
type Training struct {
	Seed            uint64  `yaml:"seed"`
	SplitSeed       uint64  `yaml:"split_seed"`
	TestFraction    float64 `yaml:"test_fraction"`
	Trees           int     `yaml:"trees"`
	MaxDepth        int     `yaml:"max_depth"`
	MinSamplesSplit int     `yaml:"min_samples_split"`
	MinSamplesLeaf  int     `yaml:"min_samples_leaf"`
	MaxFeatures     int     `yaml:"max_features"`
}

// Server holds HTTP API settings
type Server struct {
	Addr string `yaml:"addr"`
}

// Log holds logging settings
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	def := forest.DefaultConfig()
	return Config{
		Dataset:   Dataset{CSV: "unique_urls.csv"},
		Artifacts: Artifacts{Dir: "artifacts"},
		Training: Training{
			Seed:            def.Seed,
			SplitSeed:       42,
			TestFraction:    0.2,
			Trees:           def.Trees,
			MinSamplesSplit: def.MinSamplesSplit,
			MinSamplesLeaf:  def.MinSamplesLeaf,
			MaxFeatures:     def.MaxFeatures,
		},
		Server: Server{Addr: ":8080"},
		Log:    Log{Level: "info", Format: "text"},
	}
}

// Load reads a YAML file over the defaults. An empty path returns Default().
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	if c.Dataset.CSV == "" && c.Dataset.JSONL == "" && c.Dataset.SQLite == "" {
		bad("dataset needs csv, jsonl or sqlite")
	}
	if c.Artifacts.Dir == "" && c.Artifacts.Bolt == "" {
		bad("artifacts needs dir or bolt")
	}
	t := c.Training
	if t.TestFraction < 0 || t.TestFraction >= 1 {
		bad("training.test_fraction %v outside [0, 1)", t.TestFraction)
	}
	if t.Trees < 0 || t.MaxDepth < 0 || t.MinSamplesSplit < 0 || t.MinSamplesLeaf < 0 || t.MaxFeatures < 0 {
		bad("training parameters must not be negative")
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		bad("log.format %q is not text or json", c.Log.Format)
	}
	return errors.Join(errs...)
}

// ForestConfig converts the training section to a forest.Config.
func (t Training) ForestConfig() forest.Config {
	return forest.Config{
		Trees:           t.Trees,
		MaxDepth:        t.MaxDepth,
		MinSamplesSplit: t.MinSamplesSplit,
		MinSamplesLeaf:  t.MinSamplesLeaf,
		MaxFeatures:     t.MaxFeatures,
		Seed:            t.Seed,
	}
}
