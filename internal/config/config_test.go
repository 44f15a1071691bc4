package config_test

import (
	"testing"

	"github.com/SoftengPoliTo/manifest-producer/internal/config"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := config.Parse([]string{"/bin/ls"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.BinaryPath != "/bin/ls" || cfg.Depth != config.DefaultDepth || cfg.LogLevel != config.DefaultLogLevel {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestParseRejectsMissingPositional(t *testing.T) {
	if _, err := config.Parse([]string{"-depth", "5"}); err == nil {
		t.Fatal("expected an error when no binary path is given")
	}
}

func TestParseFlagOverridesEnv(t *testing.T) {
	t.Setenv("MANIFEST_OUT", "/from/env")
	cfg, err := config.Parse([]string{"-out", "/from/flag", "/bin/ls"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.OutDir != "/from/flag" {
		t.Fatalf("expected flag to win over env, got %q", cfg.OutDir)
	}
}

func TestParseEnvOverlayAppliesWhenFlagAtDefault(t *testing.T) {
	t.Setenv("MANIFEST_OUT", "/from/env")
	cfg, err := config.Parse([]string{"/bin/ls"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.OutDir != "/from/env" {
		t.Fatalf("expected the env overlay to apply, got %q", cfg.OutDir)
	}
}

func TestParseCheckIntegrityEnvOverlay(t *testing.T) {
	t.Setenv("MANIFEST_CHECK_INTEGRITY", "1")
	cfg, err := config.Parse([]string{"/bin/ls"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.CheckIntegrity {
		t.Fatal("expected MANIFEST_CHECK_INTEGRITY=1 to enable the integrity checker")
	}
}
