// Package config loads the YAML run configuration for the loader: which
// datasets to load and from where, the target store, and the metrics backend.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Dataset tags, in the order a run loads them.
const (
	DatasetAbtBuy = "abt_buy"
	DatasetCIKM16 = "cikm16"
	DatasetESCI   = "esci"
	DatasetWDC    = "wdc"
)

// Datasets lists every supported dataset tag in run order.
var Datasets = []string{DatasetAbtBuy, DatasetCIKM16, DatasetESCI, DatasetWDC}

// DefaultChunkSize bounds how many interaction-log rows are held in memory at once.
const DefaultChunkSize = 100_000

// Config is the top-level run configuration.
type Config struct {
	// Job names the run in logs and metrics.
	Job string `yaml:"job"`

	// LogMode is "dev" or "prod".
	LogMode string `yaml:"log_mode"`

	// Load selects datasets; order is irrelevant, runs always follow Datasets.
	Load []string `yaml:"load"`

	// ChunkSize is the interaction-log chunk size.
	ChunkSize int `yaml:"chunk_size"`

	Storage  StorageConfig            `yaml:"storage"`
	Metrics  MetricsConfig            `yaml:"metrics"`
	Datasets map[string]DatasetConfig `yaml:"datasets"`
}

// StorageConfig selects the backend the canonical tables live in.
type StorageConfig struct {
	Kind string `yaml:"kind"` // sqlite | postgres | mssql
	DSN  string `yaml:"dsn"`

	// EnsureSchema creates the canonical tables before loading. Defaults to true.
	EnsureSchema *bool `yaml:"ensure_schema"`
}

// MetricsConfig selects and configures the metrics backend.
type MetricsConfig struct {
	Backend        string        `yaml:"backend"` // none | pushgateway | datadog
	PushgatewayURL string        `yaml:"pushgateway_url"`
	Tags           []string      `yaml:"tags"`
	FlushEvery     time.Duration `yaml:"flush_every"`
}

// DatasetConfig locates one dataset's source directory.
type DatasetConfig struct {
	Dir     string  `yaml:"dir"`
	Options Options `yaml:"options"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Job:       "retailbench",
		LogMode:   "dev",
		ChunkSize: DefaultChunkSize,
		Storage: StorageConfig{
			Kind: "sqlite",
			DSN:  "file:db/retail_bench.sqlite",
		},
		Metrics: MetricsConfig{
			Backend:    "none",
			FlushEvery: 60 * time.Second,
		},
		Datasets: map[string]DatasetConfig{
			DatasetAbtBuy: {Dir: "data/abt_buy"},
			DatasetCIKM16: {Dir: "data/cikm16"},
			DatasetESCI:   {Dir: "data/esci"},
			DatasetWDC:    {Dir: "data/wdc"},
		},
	}
}

// Load reads the YAML file at path over Default. An empty path returns
// Default unchanged. Environment references in the DSN are expanded.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: decode %s: %w", path, err)
		}
	}
	cfg.Storage.DSN = os.ExpandEnv(cfg.Storage.DSN)
	return cfg, nil
}

// LoadEnv loads .env style files into the process environment. Missing files
// are skipped; with no arguments ".env" is tried.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("config: load env %s: %w", f, err)
		}
	}
	return nil
}

// Dataset returns the configuration for tag. An empty dir falls back to the
// default directory and the entry's options are kept.
func (c Config) Dataset(tag string) DatasetConfig {
	d, ok := c.Datasets[tag]
	if !ok {
		return Default().Datasets[tag]
	}
	if d.Dir == "" {
		d.Dir = Default().Datasets[tag].Dir
	}
	return d
}

// ShouldEnsureSchema reports whether the canonical tables are created before loading.
func (c Config) ShouldEnsureSchema() bool {
	return c.Storage.EnsureSchema == nil || *c.Storage.EnsureSchema
}
