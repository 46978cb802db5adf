package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains output and log directory configuration.
type Paths struct {
	OutputDir string `toml:"output_dir"`
	LogDir    string `toml:"log_dir"`
}

// Pipeline contains the per-run processing switches.
type Pipeline struct {
	ExtractFeatures  bool `toml:"extract_features"`
	GenerateQA       bool `toml:"generate_qa"`
	ValidateEpisodes bool `toml:"validate_episodes"`
	DemoMode         bool `toml:"demo_mode"`
	DemoLimit        int  `toml:"demo_limit"`
}

// Quality contains the validation gate thresholds.
type Quality struct {
	SensorCompletenessThreshold float64 `toml:"sensor_completeness_threshold"`
	LabelConfidenceThreshold    float64 `toml:"label_confidence_threshold"`
	MinSteps                    int     `toml:"min_steps"`
	MaxMissingRatio             float64 `toml:"max_missing_ratio"`
}

// Features contains vibration feature extraction tunables.
type Features struct {
	// Window is the FFT window applied before transform: hann, hamming, or none.
	Window string `toml:"window"`
	// FFTSize is the transform length; 0 selects the next power of two.
	FFTSize           int    `toml:"fft_size"`
	MaxSpectrumPoints int    `toml:"max_spectrum_points"`
	ToleranceBins     int    `toml:"tolerance_bins"`
	BearingType       string `toml:"bearing_type"`
}

// Normalizer contains episode identity settings.
type Normalizer struct {
	IDPrefix string `toml:"id_prefix"`
}

// QA contains template question generation settings.
type QA struct {
	QuestionsPerCategory int `toml:"questions_per_category"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Metrics contains run metrics export settings.
type Metrics struct {
	// Textfile is an optional Prometheus textfile path written after each run.
	Textfile string `toml:"textfile"`
}

// Config encapsulates all configuration values for factorynet.
//
// Configuration sections by subsystem:
//   - Paths: output store and log directories
//   - Pipeline: feature, Q&A, and validation switches plus demo mode
//   - Quality: validator thresholds
//   - Features: FFT window, size, spectrum cap, and bearing geometry
//   - Normalizer: episode ID prefix
//   - QA: template question counts
//   - Logging: log format and level
//   - Metrics: Prometheus textfile export
type Config struct {
	Paths      Paths      `toml:"paths"`
	Pipeline   Pipeline   `toml:"pipeline"`
	Quality    Quality    `toml:"quality"`
	Features   Features   `toml:"features"`
	Normalizer Normalizer `toml:"normalizer"`
	QA         QA         `toml:"qa"`
	Logging    Logging    `toml:"logging"`
	Metrics    Metrics    `toml:"metrics"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("factorynet.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the output and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.OutputDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// StorePath returns the SQLite database location inside the output directory.
func (c *Config) StorePath() string {
	return filepath.Join(c.Paths.OutputDir, "episodes.db")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
