package config

import (
	"os"
	"testing"
)

func setEnv(t *testing.T, key, value string) {
	t.Helper()
	old, had := os.LookupEnv(key)
	os.Setenv(key, value)
	t.Cleanup(func() {
		if had {
			os.Setenv(key, old)
		} else {
			os.Unsetenv(key)
		}
	})
}

func TestLoad_Defaults(t *testing.T) {
	setEnv(t, "DATABASE_URL", "postgres://localhost/vitals_test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8000" {
		t.Errorf("Port = %q, want 8000", cfg.Port)
	}
	if cfg.DefaultWindowHours != 24 {
		t.Errorf("DefaultWindowHours = %d, want 24", cfg.DefaultWindowHours)
	}
	if cfg.MaxWindowHours != 744 {
		t.Errorf("MaxWindowHours = %d, want 744", cfg.MaxWindowHours)
	}
	if cfg.MaxQueryLimit != 5000 {
		t.Errorf("MaxQueryLimit = %d, want 5000", cfg.MaxQueryLimit)
	}
	if !cfg.IsDev() {
		t.Error("expected development mode by default")
	}
}

func TestLoad_MissingDatabaseURL(t *testing.T) {
	setEnv(t, "DATABASE_URL", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when DATABASE_URL is missing")
	}
}

func TestValidate_WindowBounds(t *testing.T) {
	cfg := &Config{
		DefaultWindowHours: 48,
		MaxWindowHours:     24,
		DefaultQueryLimit:  500,
		MaxQueryLimit:      5000,
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when default window exceeds maximum")
	}
}

func TestValidate_LimitBounds(t *testing.T) {
	cfg := &Config{
		DefaultWindowHours: 24,
		MaxWindowHours:     744,
		DefaultQueryLimit:  0,
		MaxQueryLimit:      5000,
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for zero default limit")
	}
}

func TestParseNameMap(t *testing.T) {
	cfg := &Config{PatientNames: "p-001=Ada Lovelace, p-002=Grace Hopper,, bogus"}
	names := cfg.ParseNameMap()
	if len(names) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(names))
	}
	if names["p-001"] != "Ada Lovelace" {
		t.Errorf("p-001 = %q, want Ada Lovelace", names["p-001"])
	}
	if names["p-002"] != "Grace Hopper" {
		t.Errorf("p-002 = %q, want Grace Hopper", names["p-002"])
	}
}

func TestParseGatewaySeed(t *testing.T) {
	cfg := &Config{GatewaySeed: "GW-AA-11=p-001"}
	seed := cfg.ParseGatewaySeed()
	if seed["GW-AA-11"] != "p-001" {
		t.Errorf("GW-AA-11 = %q, want p-001", seed["GW-AA-11"])
	}
}
