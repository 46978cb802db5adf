// Package config loads, normalizes, and validates factorynet configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// FACTORYNET_OUTPUT_DIR and FACTORYNET_LOG_LEVEL. The Config type centralizes
// every knob the pipeline and CLI need: output locations, quality gate
// thresholds, feature extraction tunables, and logging.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
