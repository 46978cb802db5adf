package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"factorynet/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Logging is quiet and Q&A generation is on so every stage runs.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.OutputDir = filepath.Join(base, "episodes")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Pipeline.GenerateQA = true
	cfgVal.Logging.Level = "error"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithDemoLimit turns on demo mode capped at limit episodes.
func WithDemoLimit(limit int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Pipeline.DemoMode = true
		b.cfg.Pipeline.DemoLimit = limit
	}
}

// WithoutFeatures disables per-channel feature extraction.
func WithoutFeatures() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Pipeline.ExtractFeatures = false
	}
}

// WithMinSteps overrides the validator's minimum step count.
func WithMinSteps(steps int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Quality.MinSteps = steps
	}
}

// WithMetricsTextfile writes run metrics under the temp directory.
func WithMetricsTextfile() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Metrics.Textfile = filepath.Join(b.baseDir, "metrics", "factorynet.prom")
	}
}

// WithEnsuredDirectories creates the configured directories up front.
func WithEnsuredDirectories() ConfigOption {
	return func(b *configBuilder) {
		if err := b.cfg.EnsureDirectories(); err != nil {
			b.t.Fatalf("ensure directories: %v", err)
		}
	}
}

// WriteConfigFile renders cfg-equivalent TOML for CLI tests and returns the
// path. Only the keys tests commonly override are written.
func WriteConfigFile(t testing.TB, cfg *config.Config) string {
	t.Helper()
	path := filepath.Join(BaseDir(cfg), "config.toml")
	body := "[paths]\n" +
		"output_dir = " + quote(cfg.Paths.OutputDir) + "\n" +
		"log_dir = " + quote(cfg.Paths.LogDir) + "\n\n" +
		"[pipeline]\n" +
		"generate_qa = " + boolString(cfg.Pipeline.GenerateQA) + "\n\n" +
		"[logging]\n" +
		"level = " + quote(cfg.Logging.Level) + "\n"
	if cfg.Metrics.Textfile != "" {
		body += "\n[metrics]\ntextfile = " + quote(cfg.Metrics.Textfile) + "\n"
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.OutputDir)
}

func quote(s string) string {
	return "'" + s + "'"
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
