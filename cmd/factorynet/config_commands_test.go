package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"factorynet/internal/services"
)

func TestConfigValidatePrintsStoreAndQualityGate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, env.configPath)
	requireContains(t, out, env.cfg.StorePath())
	requireContains(t, out, "Quality gate")
	requireContains(t, out, "Min steps")
	requireContains(t, out, "Configuration valid")
}

func TestConfigInitWritesLoadableSample(t *testing.T) {
	setupCLITestEnv(t)
	t.Setenv("FACTORYNET_OUTPUT_DIR", "")
	home, err := os.UserHomeDir()
	if err != nil {
		t.Fatalf("home: %v", err)
	}

	target := filepath.Join(t.TempDir(), "nested", "config.toml")
	out, _, err := runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration to "+target)
	requireContains(t, out, filepath.Join(home, ".local", "share", "factorynet", "episodes", "episodes.db"))
	requireContains(t, out, "FN-ADAPTED-NNNNNN")
	requireContains(t, out, "95.0%")
	requireContains(t, out, "factorynet run")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("init over existing file: %v", err)
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}

	out, _, err = runCLI(t, []string{"config", "validate"}, target)
	if err != nil {
		t.Fatalf("validate sample: %v", err)
	}
	requireContains(t, out, "Configuration valid")
}
