package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	LogLevel  string        `json:"log_level" yaml:"log_level"`
	API       APIConfig     `json:"api" yaml:"api"`
	Timezone  string        `json:"timezone" yaml:"timezone"`
	Sessions  EntityConfig  `json:"sessions" yaml:"sessions"`
	Stations  EntityConfig  `json:"stations" yaml:"stations"`
	Alarms    EntityConfig  `json:"alarms" yaml:"alarms"`
	Anomalies AnomalyConfig `json:"anomalies" yaml:"anomalies"`
	Storage   StorageConfig `json:"storage" yaml:"storage"`
	Retry     RetryConfig   `json:"retry" yaml:"retry"`
	Publish   PublishConfig `json:"publish" yaml:"publish"`
	Upload    UploadConfig  `json:"upload" yaml:"upload"`
	Status    StatusConfig  `json:"status" yaml:"status"`
}

type APIConfig struct {
	Endpoint string        `json:"endpoint" yaml:"endpoint"`
	Key      string        `json:"key" yaml:"key"`
	Secret   string        `json:"secret" yaml:"secret"`
	Timeout  time.Duration `json:"timeout" yaml:"timeout"`
}

// EntityConfig is the per-kind sync surface: where the ledger lives and how
// often its loop polls the remote API, in seconds.
type EntityConfig struct {
	DataPath   string `json:"data_path" yaml:"data_path"`
	UpdateFreq int    `json:"update_freq" yaml:"update_freq"`
}

// Interval returns the poll interval as a duration.
func (e EntityConfig) Interval() time.Duration {
	return time.Duration(e.UpdateFreq) * time.Second
}

type AnomalyConfig struct {
	DataPath string `json:"data_path" yaml:"data_path"`
}

type StorageConfig struct {
	Driver string `json:"driver" yaml:"driver"`
	DSN    string `json:"dsn" yaml:"dsn"`
}

type RetryConfig struct {
	MaxRetries      uint64        `json:"max_retries" yaml:"max_retries"`
	InitialInterval time.Duration `json:"initial_interval" yaml:"initial_interval"`
	MaxInterval     time.Duration `json:"max_interval" yaml:"max_interval"`
	CycleTimeout    time.Duration `json:"cycle_timeout" yaml:"cycle_timeout"`
}

type PublishConfig struct {
	Enabled bool     `json:"enabled" yaml:"enabled"`
	Brokers []string `json:"brokers" yaml:"brokers"`
	Topic   string   `json:"topic" yaml:"topic"`
}

type UploadConfig struct {
	Enabled    bool   `json:"enabled" yaml:"enabled"`
	Region     string `json:"region" yaml:"region"`
	Bucket     string `json:"bucket" yaml:"bucket"`
	Prefix     string `json:"prefix" yaml:"prefix"`
	UpdateFreq int    `json:"update_freq" yaml:"update_freq"`
}

// Interval returns the upload interval as a duration.
func (u UploadConfig) Interval() time.Duration {
	return time.Duration(u.UpdateFreq) * time.Second
}

// StatusConfig controls the read-only HTTP status API.
type StatusConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Addr    string `json:"addr" yaml:"addr"`
}

func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		API: APIConfig{
			Timeout: 60 * time.Second,
		},
		Timezone:  "America/Vancouver",
		Sessions:  EntityConfig{DataPath: "data/sessions.csv", UpdateFreq: 900},
		Stations:  EntityConfig{DataPath: "data/stations.csv", UpdateFreq: 86400},
		Alarms:    EntityConfig{DataPath: "data/alarms.csv", UpdateFreq: 900},
		Anomalies: AnomalyConfig{DataPath: "data/anomalies.csv"},
		Storage:   StorageConfig{Driver: "csv"},
		Retry: RetryConfig{
			MaxRetries:      4,
			InitialInterval: 2 * time.Second,
			MaxInterval:     1 * time.Minute,
			CycleTimeout:    10 * time.Minute,
		},
		Publish: PublishConfig{Enabled: false},
		Upload:  UploadConfig{Enabled: false, UpdateFreq: 21600},
		Status:  StatusConfig{Enabled: false, Addr: ":8484"},
	}
}

func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	trimmed := strings.TrimSpace(string(content))
	if len(trimmed) == 0 {
		return nil, errors.New("config file is empty")
	}
	cfg := DefaultConfig()
	var decodeErr error
	if looksLikeJSON(trimmed) {
		decodeErr = json.Unmarshal([]byte(trimmed), cfg)
	} else {
		decodeErr = yaml.Unmarshal([]byte(trimmed), cfg)
	}
	if decodeErr != nil {
		return nil, decodeErr
	}
	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func looksLikeJSON(s string) bool {
	for _, ch := range s {
		if ch == '{' || ch == '[' {
			return true
		}
		if ch > ' ' {
			return false
		}
	}
	return false
}

func applyDefaults(cfg *Config) {
	def := DefaultConfig()
	if cfg.LogLevel == "" {
		cfg.LogLevel = def.LogLevel
	}
	if cfg.Timezone == "" {
		cfg.Timezone = def.Timezone
	}
	if cfg.API.Timeout <= 0 {
		cfg.API.Timeout = def.API.Timeout
	}
	if cfg.Sessions.UpdateFreq <= 0 {
		cfg.Sessions.UpdateFreq = def.Sessions.UpdateFreq
	}
	if cfg.Stations.UpdateFreq <= 0 {
		cfg.Stations.UpdateFreq = def.Stations.UpdateFreq
	}
	if cfg.Alarms.UpdateFreq <= 0 {
		cfg.Alarms.UpdateFreq = def.Alarms.UpdateFreq
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = def.Storage.Driver
	}
	if cfg.Retry.MaxRetries == 0 {
		cfg.Retry.MaxRetries = def.Retry.MaxRetries
	}
	if cfg.Retry.InitialInterval <= 0 {
		cfg.Retry.InitialInterval = def.Retry.InitialInterval
	}
	if cfg.Retry.MaxInterval <= 0 {
		cfg.Retry.MaxInterval = def.Retry.MaxInterval
	}
	if cfg.Retry.CycleTimeout <= 0 {
		cfg.Retry.CycleTimeout = def.Retry.CycleTimeout
	}
	if cfg.Upload.UpdateFreq <= 0 {
		cfg.Upload.UpdateFreq = def.Upload.UpdateFreq
	}
	if cfg.Status.Addr == "" {
		cfg.Status.Addr = def.Status.Addr
	}
}

func Validate(cfg *Config) error {
	if cfg.API.Key == "" || cfg.API.Secret == "" {
		return errors.New("api.key and api.secret are required")
	}
	switch strings.ToLower(cfg.Storage.Driver) {
	case "csv":
		for name, path := range map[string]string{
			"sessions.data_path":  cfg.Sessions.DataPath,
			"stations.data_path":  cfg.Stations.DataPath,
			"alarms.data_path":    cfg.Alarms.DataPath,
			"anomalies.data_path": cfg.Anomalies.DataPath,
		} {
			if path == "" {
				return fmt.Errorf("%s required with the csv storage driver", name)
			}
		}
	case "sqlite", "postgres", "postgresql":
		if cfg.Storage.DSN == "" {
			return fmt.Errorf("storage.dsn required with the %s driver", cfg.Storage.Driver)
		}
	default:
		return fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
	}
	if cfg.Publish.Enabled {
		if len(cfg.Publish.Brokers) == 0 || cfg.Publish.Topic == "" {
			return errors.New("publish requires brokers and topic when enabled")
		}
	}
	if cfg.Upload.Enabled && cfg.Upload.Bucket == "" {
		return errors.New("upload.bucket required when upload.enabled is true")
	}
	return nil
}
