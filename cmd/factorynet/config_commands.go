package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"factorynet/internal/config"
	"factorynet/internal/services"
)

func newConfigCommand() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Create or check the factorynet configuration",
		Long: `factorynet reads a TOML file from --config, ./factorynet.toml, or
~/.config/factorynet/config.toml. FACTORYNET_OUTPUT_DIR moves the episode
store and FACTORYNET_LOG_LEVEL overrides the log level.`,
	}
	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigValidateCommand())
	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a sample configuration",
		Long: `Write a sample configuration with the default episode store location,
the quality gate thresholds applied by the validator, and the feature
extraction settings. The written file is loaded back and summarized.`,
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			target, err := initTarget(targetPath)
			if err != nil {
				return err
			}
			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return services.Wrap(services.ErrValidation, "config", "init", target+" already exists (use --overwrite to replace it)", nil)
				} else if !errors.Is(err, fs.ErrNotExist) {
					return services.Wrap(services.ErrConfiguration, "config", "init", "check "+target, err)
				}
			}
			if err := config.CreateSample(target); err != nil {
				return services.Wrap(services.ErrConfiguration, "config", "init", "write sample", err)
			}

			cfg, _, _, err := config.Load(target)
			if err != nil {
				return services.Wrap(services.ErrConfiguration, "config", "init", "reload sample", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			writeConfigSummary(out, target, cfg)
			fmt.Fprintln(out, "Next: factorynet run <dataset> --input <file.jsonl>")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing configuration")
	return cmd
}

func newConfigValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load the configuration and print the effective settings",
		Long: `Load the configuration, apply environment overrides, create the output
and log directories, and print the store location and quality gate.`,
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, _ := cmd.Flags().GetString("config")
			cfg, resolved, exists, err := config.Load(strings.TrimSpace(path))
			if err != nil {
				return services.Wrap(services.ErrConfiguration, "config", "validate", "load", err)
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return services.Wrap(services.ErrConfiguration, "config", "validate", "ensure directories", err)
			}
			out := cmd.OutOrStdout()
			source := resolved
			if !exists {
				source = resolved + " (missing, defaults used)"
			}
			writeConfigSummary(out, source, cfg)
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}

// initTarget resolves --path, falling back to the per-user config location.
func initTarget(flag string) (string, error) {
	if target := strings.TrimSpace(flag); target != "" {
		expanded, err := config.ExpandPath(target)
		if err != nil {
			return "", services.Wrap(services.ErrConfiguration, "config", "init", "resolve --path", err)
		}
		return expanded, nil
	}
	target, err := config.DefaultConfigPath()
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, "config", "init", "default path", err)
	}
	return target, nil
}

func writeConfigSummary(out io.Writer, source string, cfg *config.Config) {
	q := cfg.Quality
	gate := "off"
	if cfg.Pipeline.ValidateEpisodes {
		gate = "on"
	}
	if cfg.Pipeline.DemoMode {
		gate += ", demo keeps invalid episodes (limit " + strconv.Itoa(cfg.Pipeline.DemoLimit) + ")"
	}
	rows := [][]string{
		{"Config file", source},
		{"Episode store", cfg.StorePath()},
		{"Log directory", orNone(cfg.Paths.LogDir)},
		{"Episode IDs", cfg.Normalizer.IDPrefix + "-NNNNNN"},
		{"Quality gate", gate},
		{"Min steps", strconv.Itoa(q.MinSteps)},
		{"Sensor completeness", percent(q.SensorCompletenessThreshold)},
		{"Label confidence", percent(q.LabelConfidenceThreshold)},
		{"Max missing ratio", percent(q.MaxMissingRatio)},
		{"Features", yesNo(cfg.Pipeline.ExtractFeatures) + " (" + cfg.Features.Window + ", bearing " + cfg.Features.BearingType + ")"},
		{"Metrics textfile", orNone(cfg.Metrics.Textfile)},
	}
	fmt.Fprintln(out, renderTable([]string{"Setting", "Value"}, rows, nil))
}

func percent(v float64) string {
	return strconv.FormatFloat(v*100, 'f', 1, 64) + "%"
}

func orNone(v string) string {
	if strings.TrimSpace(v) == "" {
		return "none"
	}
	return v
}
