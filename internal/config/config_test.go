package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
api:
  key: k
  secret: s
sessions:
  update_freq: 60
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Sessions.Interval() != time.Minute {
		t.Fatalf("sessions interval: %s", cfg.Sessions.Interval())
	}
	if cfg.Alarms.UpdateFreq != 900 {
		t.Fatalf("alarm default freq: %d", cfg.Alarms.UpdateFreq)
	}
	if cfg.Timezone != "America/Vancouver" {
		t.Fatalf("timezone default: %s", cfg.Timezone)
	}
	if cfg.Storage.Driver != "csv" {
		t.Fatalf("storage driver default: %s", cfg.Storage.Driver)
	}
}

func TestLoadRejectsMissingCredentials(t *testing.T) {
	path := writeConfig(t, "log_level: debug\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestValidateStorageDriver(t *testing.T) {
	cfg := DefaultConfig()
	cfg.API.Key, cfg.API.Secret = "k", "s"
	cfg.Storage.Driver = "mongodb"
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected unsupported driver error")
	}
	cfg.Storage.Driver = "sqlite"
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected missing dsn error")
	}
	cfg.Storage.DSN = "file:cpsync.db"
	if err := Validate(cfg); err != nil {
		t.Fatalf("sqlite with dsn should validate: %v", err)
	}
}

func TestValidatePublishNeedsBrokers(t *testing.T) {
	cfg := DefaultConfig()
	cfg.API.Key, cfg.API.Secret = "k", "s"
	cfg.Publish.Enabled = true
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected publish validation error")
	}
}
