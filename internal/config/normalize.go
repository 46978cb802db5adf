package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeFeatures()
	c.normalizeNormalizer()
	c.normalizeLogging()
	return c.normalizeMetrics()
}

func (c *Config) normalizePaths() error {
	if value, ok := os.LookupEnv("FACTORYNET_OUTPUT_DIR"); ok && strings.TrimSpace(value) != "" {
		if strings.TrimSpace(c.Paths.OutputDir) == "" || c.Paths.OutputDir == defaultOutputDir {
			c.Paths.OutputDir = strings.TrimSpace(value)
		}
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	var err error
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) != "" {
		if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
			return fmt.Errorf("paths.log_dir: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeFeatures() {
	c.Features.Window = strings.ToLower(strings.TrimSpace(c.Features.Window))
	switch c.Features.Window {
	case "":
		c.Features.Window = defaultWindow
	case "rectangular", "boxcar":
		c.Features.Window = "none"
	}
	c.Features.BearingType = strings.TrimSpace(c.Features.BearingType)
	if c.Features.BearingType == "" {
		c.Features.BearingType = defaultBearingType
	}
}

func (c *Config) normalizeNormalizer() {
	c.Normalizer.IDPrefix = strings.TrimSpace(c.Normalizer.IDPrefix)
	if c.Normalizer.IDPrefix == "" {
		c.Normalizer.IDPrefix = defaultIDPrefix
	}
}

func (c *Config) normalizeLogging() {
	if value, ok := os.LookupEnv("FACTORYNET_LOG_LEVEL"); ok && strings.TrimSpace(value) != "" {
		c.Logging.Level = value
	}
	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if format == "" {
		format = defaultLogFormat
	}
	c.Logging.Format = format

	level := strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if level == "" {
		level = defaultLogLevel
	}
	if level == "warning" {
		level = "warn"
	}
	c.Logging.Level = level
}

func (c *Config) normalizeMetrics() error {
	if strings.TrimSpace(c.Metrics.Textfile) == "" {
		c.Metrics.Textfile = ""
		return nil
	}
	var err error
	if c.Metrics.Textfile, err = expandPath(c.Metrics.Textfile); err != nil {
		return fmt.Errorf("metrics.textfile: %w", err)
	}
	return nil
}
