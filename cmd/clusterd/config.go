package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration decodes go duration strings ("5m", "30s") from yaml.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Config is the clusterd configuration file.
type Config struct {
	Listen string `yaml:"listen"`

	Log struct {
		Level  string `yaml:"level"`  // debug, info, warn, error
		Format string `yaml:"format"` // text, json
	} `yaml:"log"`

	Dataset StorageConfig `yaml:"dataset"`
	Results ResultsConfig `yaml:"results"`

	Cache struct {
		TTL Duration `yaml:"ttl"`
	} `yaml:"cache"`

	Limits struct {
		LoadSlots     int64 `yaml:"load_slots"`
		ComputeSlots  int64 `yaml:"compute_slots"`
		IOBytesPerSec int64 `yaml:"io_bytes_per_sec"`
	} `yaml:"limits"`

	Compute struct {
		// RemoteEndpoint delegates clustering to an external service
		// when set; empty means in-process.
		RemoteEndpoint string `yaml:"remote_endpoint"`
		Seed           int64  `yaml:"seed"`
	} `yaml:"compute"`
}

// StorageConfig selects and configures a blob backend.
type StorageConfig struct {
	Backend string `yaml:"backend"` // local, s3, minio

	// Path is the root directory for the local backend.
	Path string `yaml:"path"`

	// Bucket and Prefix apply to the s3 and minio backends.
	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix"`

	// Endpoint, AccessKey, SecretKey and UseSSL apply to minio.
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// ResultsConfig selects the durable result backend. The blob backends
// reuse StorageConfig; badger is an embedded KV at Path.
type ResultsConfig struct {
	StorageConfig `yaml:",inline"`

	// Compression applies to blob backends: zstd, lz4, none.
	Compression string `yaml:"compression"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	var cfg Config
	cfg.Listen = ":8080"
	cfg.Log.Level = "info"
	cfg.Log.Format = "text"
	cfg.Dataset.Backend = "local"
	cfg.Dataset.Path = "./data"
	cfg.Results.Backend = "local"
	cfg.Results.Path = "./data"
	cfg.Results.Compression = "zstd"
	return cfg
}

// LoadConfig reads and validates a yaml config file, applying defaults
// for absent fields.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects unknown backend and option names early, before any
// store is dialed.
func (c Config) Validate() error {
	switch c.Dataset.Backend {
	case "local", "s3", "minio":
	default:
		return fmt.Errorf("unknown dataset backend %q", c.Dataset.Backend)
	}
	switch c.Results.Backend {
	case "local", "s3", "minio", "badger":
	default:
		return fmt.Errorf("unknown results backend %q", c.Results.Backend)
	}
	switch c.Results.Compression {
	case "", "none", "zstd", "lz4":
	default:
		return fmt.Errorf("unknown compression %q", c.Results.Compression)
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	return nil
}
