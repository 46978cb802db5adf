package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"factorynet/internal/config"
	"factorynet/internal/episode"
	"factorynet/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	inputPath  string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, opts...)
	homeDir := filepath.Join(testsupport.BaseDir(cfg), "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)

	inputPath := filepath.Join(testsupport.BaseDir(cfg), "input", "cwru_bearing.jsonl")
	testsupport.WriteJSONL(t, inputPath, []episode.RawEpisode{
		testsupport.RawEpisode(t, "IR007_0"),
		testsupport.RawEpisode(t, "IR007_1"),
	}, "{not json")

	return &cliTestEnv{
		cfg:        cfg,
		configPath: testsupport.WriteConfigFile(t, cfg),
		inputPath:  inputPath,
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
