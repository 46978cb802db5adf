package config

import (
	"errors"
	"fmt"
	"strings"

	"factorynet/internal/services"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	for _, check := range []func() error{
		c.validatePaths,
		c.validatePipeline,
		c.validateQuality,
		c.validateFeatures,
		c.validateQA,
		c.validateLogging,
	} {
		if err := check(); err != nil {
			return fmt.Errorf("%w: %w", services.ErrConfiguration, err)
		}
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		return errors.New("paths.output_dir must be set")
	}
	return nil
}

func (c *Config) validatePipeline() error {
	if c.Pipeline.DemoLimit < 0 {
		return errors.New("pipeline.demo_limit must be >= 0")
	}
	if c.Pipeline.DemoMode && c.Pipeline.DemoLimit == 0 {
		return errors.New("pipeline.demo_limit must be positive when pipeline.demo_mode is true")
	}
	return nil
}

func (c *Config) validateQuality() error {
	for _, bound := range []struct {
		key   string
		value float64
	}{
		{"quality.sensor_completeness_threshold", c.Quality.SensorCompletenessThreshold},
		{"quality.label_confidence_threshold", c.Quality.LabelConfidenceThreshold},
		{"quality.max_missing_ratio", c.Quality.MaxMissingRatio},
	} {
		if bound.value < 0 || bound.value > 1 {
			return fmt.Errorf("%s must be between 0 and 1", bound.key)
		}
	}
	if c.Quality.MinSteps < 0 {
		return errors.New("quality.min_steps must be >= 0")
	}
	return nil
}

func (c *Config) validateFeatures() error {
	switch c.Features.Window {
	case "hann", "hamming", "none":
	default:
		return fmt.Errorf("features.window: unsupported value %q (want hann, hamming, or none)", c.Features.Window)
	}
	if c.Features.FFTSize < 0 {
		return errors.New("features.fft_size must be >= 0")
	}
	if c.Features.MaxSpectrumPoints <= 0 {
		return errors.New("features.max_spectrum_points must be positive")
	}
	if c.Features.ToleranceBins < 0 {
		return errors.New("features.tolerance_bins must be >= 0")
	}
	return nil
}

func (c *Config) validateQA() error {
	if c.QA.QuestionsPerCategory <= 0 {
		return errors.New("qa.questions_per_category must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
