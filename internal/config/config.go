// Package config loads the holomem CLI configuration from YAML and turns it
// into engine options, a blob store and resource limits.
package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"gopkg.in/yaml.v3"

	"github.com/hupe1980/holomem"
	"github.com/hupe1980/holomem/accumulator"
	"github.com/hupe1980/holomem/blobstore"
	miniostore "github.com/hupe1980/holomem/blobstore/minio"
	s3store "github.com/hupe1980/holomem/blobstore/s3"
	"github.com/hupe1980/holomem/cleanup"
	"github.com/hupe1980/holomem/hypervector"
	"github.com/hupe1980/holomem/resource"
	"github.com/hupe1980/holomem/snapshot"
)

// Store kinds.
const (
	StoreLocal  = "local"
	StoreMemory = "memory"
	StoreS3     = "s3"
	StoreMinIO  = "minio"
)

// Config holds all holomem CLI configuration.
type Config struct {
	// Engine tuning
	Engine EngineConfig `yaml:"engine"`

	// Snapshot encoding
	Snapshot SnapshotConfig `yaml:"snapshot"`

	// Where snapshots live
	Store StoreConfig `yaml:"store"`

	// Memory and IO limits
	Limits LimitsConfig `yaml:"limits"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// EngineConfig configures the orchestrator.
type EngineConfig struct {
	Dimension     int     `yaml:"dimension"`
	Seed          *int64  `yaml:"seed,omitempty"` // nil draws a random seed
	Threshold     float64 `yaml:"threshold"`
	TieBreak      string  `yaml:"tie_break"`  // zero, one, alternate, random
	Refinement    string  `yaml:"refinement"` // sharper, always, never
	DenoiseSteps  int     `yaml:"denoise_steps"`
	Order3        bool    `yaml:"order3"`
	DecodeWorkers int     `yaml:"decode_workers"` // 0 uses GOMAXPROCS
	CacheSize     int     `yaml:"cache_size"`
}

// SnapshotConfig configures snapshot encoding.
type SnapshotConfig struct {
	Name        string `yaml:"name"`
	Format      string `yaml:"format"`      // binary, json, go-json
	Compression string `yaml:"compression"` // none, lz4, zstd
	BlockSize   int    `yaml:"block_size"`
}

// StoreConfig selects and configures the blob store.
type StoreConfig struct {
	Kind string `yaml:"kind"` // local, memory, s3, minio

	// local
	Path string `yaml:"path"`

	// s3 and minio
	Bucket   string `yaml:"bucket"`
	Prefix   string `yaml:"prefix"`
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint"`

	// minio credentials; prefer HOLOMEM_MINIO_ACCESS_KEY / HOLOMEM_MINIO_SECRET_KEY
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// LimitsConfig bounds resource usage. Zero values mean unlimited.
type LimitsConfig struct {
	MemoryBytes     int64 `yaml:"memory_bytes"`
	IOBytesPerSec   int64 `yaml:"io_bytes_per_sec"`
	MaxConcurrentIO int64 `yaml:"max_concurrent_io"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error, off
	Format string `yaml:"format"` // text, json
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			Dimension:    hypervector.DefaultDimension,
			Threshold:    cleanup.DefaultThreshold,
			TieBreak:     accumulator.TieZero.String(),
			Refinement:   holomem.RefineIfSharper.String(),
			DenoiseSteps: holomem.DefaultDenoiseSteps,
			CacheSize:    cleanup.DefaultCacheSize,
		},
		Snapshot: SnapshotConfig{
			Name:        "holomem_brain.hdcs",
			Format:      snapshot.DefaultOptions.Format.String(),
			Compression: snapshot.DefaultOptions.Compression.String(),
		},
		Store: StoreConfig{
			Kind: StoreLocal,
			Path: ".holomem",
		},
		Logging: LoggingConfig{
			Level:  "off",
			Format: "text",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("HOLOMEM_MINIO_ACCESS_KEY"); v != "" {
		c.Store.AccessKey = v
	}
	if v := os.Getenv("HOLOMEM_MINIO_SECRET_KEY"); v != "" {
		c.Store.SecretKey = v
	}
	if v := os.Getenv("HOLOMEM_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if _, err := c.Options(); err != nil {
		return err
	}
	switch c.Store.Kind {
	case StoreLocal:
		if c.Store.Path == "" {
			return fmt.Errorf("store.path is required for the local store")
		}
	case StoreMemory:
	case StoreS3, StoreMinIO:
		if c.Store.Bucket == "" {
			return fmt.Errorf("store.bucket is required for the %s store", c.Store.Kind)
		}
		if c.Store.Kind == StoreMinIO && c.Store.Endpoint == "" {
			return fmt.Errorf("store.endpoint is required for the minio store")
		}
	default:
		return fmt.Errorf("unknown store kind %q", c.Store.Kind)
	}
	if c.Snapshot.Name == "" {
		return fmt.Errorf("snapshot.name is required")
	}
	return nil
}

// SnapshotOptions parses the snapshot section.
func (c *Config) SnapshotOptions() (snapshot.Options, error) {
	format, err := snapshot.ParseFormat(c.Snapshot.Format)
	if err != nil {
		return snapshot.Options{}, err
	}
	compression, err := snapshot.ParseCompression(c.Snapshot.Compression)
	if err != nil {
		return snapshot.Options{}, err
	}
	return snapshot.Options{Format: format, Compression: compression, BlockSize: c.Snapshot.BlockSize}, nil
}

// ResourceController builds a controller from the limits section, or nil
// when every limit is zero.
func (c *Config) ResourceController() *resource.Controller {
	l := c.Limits
	if l.MemoryBytes <= 0 && l.IOBytesPerSec <= 0 && l.MaxConcurrentIO <= 0 {
		return nil
	}
	return resource.NewController(resource.Config{
		MemoryLimitBytes:   l.MemoryBytes,
		IOLimitBytesPerSec: l.IOBytesPerSec,
		MaxConcurrentIO:    l.MaxConcurrentIO,
	})
}

// Logger builds the configured logger.
func (c *Config) Logger() (*holomem.Logger, error) {
	if strings.EqualFold(c.Logging.Level, "off") || c.Logging.Level == "" {
		return holomem.NoopLogger(), nil
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Logging.Level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", c.Logging.Level, err)
	}

	switch c.Logging.Format {
	case "", "text":
		return holomem.NewTextLogger(level), nil
	case "json":
		return holomem.NewJSONLogger(level), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", c.Logging.Format)
	}
}

// Options converts the configuration into orchestrator options.
func (c *Config) Options() ([]holomem.Option, error) {
	e := c.Engine

	tieBreak, err := accumulator.ParseTieBreak(e.TieBreak)
	if err != nil {
		return nil, err
	}
	refinement, err := holomem.ParseRefinement(e.Refinement)
	if err != nil {
		return nil, err
	}
	snapOpts, err := c.SnapshotOptions()
	if err != nil {
		return nil, err
	}
	logger, err := c.Logger()
	if err != nil {
		return nil, err
	}

	opts := []holomem.Option{
		holomem.WithDimension(e.Dimension),
		holomem.WithThreshold(e.Threshold),
		holomem.WithTieBreak(tieBreak),
		holomem.WithRefinement(refinement),
		holomem.WithDenoiseSteps(e.DenoiseSteps),
		holomem.WithOrder3(e.Order3),
		holomem.WithDecodeCacheSize(e.CacheSize),
		holomem.WithSnapshotOptions(snapOpts),
		holomem.WithLogger(logger),
	}
	if e.Seed != nil {
		opts = append(opts, holomem.WithSeed(*e.Seed))
	}
	if e.DecodeWorkers > 0 {
		opts = append(opts, holomem.WithDecodeWorkers(e.DecodeWorkers))
	}
	if rc := c.ResourceController(); rc != nil {
		opts = append(opts, holomem.WithResourceController(rc))
	}
	return opts, nil
}

// OpenStore connects to the configured blob store.
func (c *Config) OpenStore(ctx context.Context) (blobstore.Store, error) {
	s := c.Store
	switch s.Kind {
	case StoreLocal:
		return blobstore.NewLocalStore(s.Path), nil
	case StoreMemory:
		return blobstore.NewMemoryStore(), nil
	case StoreS3:
		var opts []s3store.Option
		if s.Prefix != "" {
			opts = append(opts, s3store.WithPrefix(s.Prefix))
		}
		if s.Region != "" {
			opts = append(opts, s3store.WithRegion(s.Region))
		}
		return s3store.New(ctx, s.Bucket, opts...)
	case StoreMinIO:
		client, err := minio.New(s.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(s.AccessKey, s.SecretKey, ""),
			Secure: s.UseSSL,
			Region: s.Region,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create minio client: %w", err)
		}
		return miniostore.NewStore(client, s.Bucket, s.Prefix), nil
	default:
		return nil, fmt.Errorf("unknown store kind %q", s.Kind)
	}
}
