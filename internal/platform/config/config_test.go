package config

import (
	"os"
	"testing"
)

const (
	testEnvDatabaseURL  = "DATABASE_URL"
	testEnvTGAPIID      = "TELEGRAM_API_ID"
	testEnvTGAPIHash    = "TELEGRAM_API_HASH"
	testEnvSecretSalt   = "SECRET_SALT"
)

const (
	testDatabaseURL = "postgres://localhost/test"
	testTGAPIID     = "12345"
	testTGAPIHash   = "abcdef123456"
	testSecretSalt  = "test-salt"
	testErrLoad     = "Load() error = %v"
)

func setRequiredEnvVars(t *testing.T) {
	t.Helper()

	t.Setenv(testEnvDatabaseURL, testDatabaseURL)
	t.Setenv(testEnvTGAPIID, testTGAPIID)
	t.Setenv(testEnvTGAPIHash, testTGAPIHash)
	t.Setenv(testEnvSecretSalt, testSecretSalt)
}

func TestLoad_MissingRequired(t *testing.T) {
	os.Unsetenv(testEnvDatabaseURL)
	os.Unsetenv(testEnvTGAPIID)
	os.Unsetenv(testEnvTGAPIHash)
	os.Unsetenv(testEnvSecretSalt)

	_, err := Load()
	if err == nil {
		t.Error("expected error for missing required env vars")
	}
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnvVars(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf(testErrLoad, err)
	}

	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel default = %q, want info", cfg.LogLevel)
	}

	if cfg.PublicDashboardEnabled {
		t.Error("PublicDashboardEnabled default = true, want false")
	}

	if cfg.TGSessionPath != "./tg.session" {
		t.Errorf("TGSessionPath default = %q", cfg.TGSessionPath)
	}
}

func TestLoad_DefaultChannels(t *testing.T) {
	setRequiredEnvVars(t)
	t.Setenv("DEFAULT_CHANNELS", "chan_a,chan_b,chan_c")

	cfg, err := Load()
	if err != nil {
		t.Fatalf(testErrLoad, err)
	}

	want := []string{"chan_a", "chan_b", "chan_c"}
	if len(cfg.DefaultChannels) != len(want) {
		t.Fatalf("DefaultChannels = %v, want %v", cfg.DefaultChannels, want)
	}

	for i, v := range want {
		if cfg.DefaultChannels[i] != v {
			t.Errorf("DefaultChannels[%d] = %q, want %q", i, cfg.DefaultChannels[i], v)
		}
	}
}

func TestResolvedAsyncDSN_DerivedFromSync(t *testing.T) {
	setRequiredEnvVars(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf(testErrLoad, err)
	}

	want := "postgresql+asyncpg://localhost/test"
	if got := cfg.ResolvedAsyncDSN(); got != want {
		t.Errorf("ResolvedAsyncDSN() = %q, want %q", got, want)
	}
}

func TestResolvedAsyncDSN_ExplicitOverride(t *testing.T) {
	setRequiredEnvVars(t)
	t.Setenv("DATABASE_URL_ASYNC", "postgresql+asyncpg://other/test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf(testErrLoad, err)
	}

	want := "postgresql+asyncpg://other/test"
	if got := cfg.ResolvedAsyncDSN(); got != want {
		t.Errorf("ResolvedAsyncDSN() = %q, want %q", got, want)
	}
}
