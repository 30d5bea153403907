package config

import (
	"strings"
	"testing"
)

func TestEnsureDSNPassthrough(t *testing.T) {
	t.Parallel()

	cfg := DBConfig{DSN: "postgres://u:p@localhost:5432/gaslink"}
	if err := cfg.ensureDSN(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DSN != "postgres://u:p@localhost:5432/gaslink" {
		t.Fatalf("dsn rewritten: %s", cfg.DSN)
	}
}

func TestEnsureDSNFromLegacyFields(t *testing.T) {
	t.Parallel()

	cfg := DBConfig{
		LegacyHost:     "db.internal",
		LegacyPort:     5432,
		LegacyUser:     "gaslink",
		LegacyPassword: "s3cret",
		LegacyName:     "gaslink",
		LegacySSLMode:  "require",
	}
	if err := cfg.ensureDSN(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, part := range []string{"postgres://", "db.internal:5432", "sslmode=require"} {
		if !strings.Contains(cfg.DSN, part) {
			t.Fatalf("dsn missing %q: %s", part, cfg.DSN)
		}
	}
}

func TestEnsureDSNMissingLegacyFields(t *testing.T) {
	t.Parallel()

	cfg := DBConfig{LegacyHost: "db.internal"}
	err := cfg.ensureDSN()
	if err == nil {
		t.Fatal("expected error for missing legacy fields")
	}
	if !strings.Contains(err.Error(), EnvDBUser) {
		t.Fatalf("error should name missing vars: %v", err)
	}
}

func TestAppConfigEnvHelpers(t *testing.T) {
	t.Parallel()

	if !(AppConfig{Env: "Dev"}).IsDev() {
		t.Fatal("expected IsDev for mixed case")
	}
	if (AppConfig{Env: "prod"}).IsDev() {
		t.Fatal("prod is not dev")
	}
	if !(AppConfig{Env: "PROD"}).IsProd() {
		t.Fatal("expected IsProd")
	}
}
