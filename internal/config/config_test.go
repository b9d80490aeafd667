package config

import "testing"

func TestLoadRequiresSessionSecret(t *testing.T) {
	configViper := NewViper()
	if _, err := Load(configViper); err == nil {
		t.Fatalf("expected missing session secret to fail validation")
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	configViper := NewViper()
	configViper.Set("session.secret", "test-secret")

	cfg, err := Load(configViper)
	if err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
	if cfg.HTTPAddress != defaultHTTPAddress {
		t.Fatalf("unexpected http address: %q", cfg.HTTPAddress)
	}
	if cfg.DatabasePath != defaultDatabasePath {
		t.Fatalf("unexpected database path: %q", cfg.DatabasePath)
	}
	if cfg.CORSOrigin != defaultCORSOrigin {
		t.Fatalf("unexpected cors origin: %q", cfg.CORSOrigin)
	}
	if cfg.LogLevel != defaultLogLevel {
		t.Fatalf("unexpected log level: %q", cfg.LogLevel)
	}
}

func TestLoadRejectsBlankOverrides(t *testing.T) {
	configViper := NewViper()
	configViper.Set("session.secret", "test-secret")
	configViper.Set("database.path", "   ")

	if _, err := Load(configViper); err == nil {
		t.Fatalf("expected blank database path to fail validation")
	}
}
