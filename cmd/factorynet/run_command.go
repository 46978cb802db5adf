package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"factorynet/internal/adapters"
	"factorynet/internal/config"
	"factorynet/internal/logging"
	"factorynet/internal/pipeline"
	"factorynet/internal/services"
	"factorynet/internal/store"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var input string
	var adapterName string
	var demo bool
	var limit int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "run [dataset]",
		Short: "Adapt a dataset into the episode store",
		Long: "Read raw episodes through an adapter, normalize and validate them, generate Q&A pairs,\n" +
			"and save the results. The dataset name defaults to the input file name.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if strings.TrimSpace(input) == "" {
				return services.Wrap(services.ErrValidation, "cli", "run", "--input is required", nil)
			}
			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			var dataset string
			if len(args) == 1 {
				dataset = strings.TrimSpace(args[0])
			}
			adapter, err := adapters.DefaultRegistry().New(adapterName, adapters.Options{
				Input:   input,
				Dataset: dataset,
				Logger:  logger,
			})
			if err != nil {
				return err
			}
			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if health := adapter.HealthCheck(runCtx); !health.Ready {
				return services.Wrap(services.ErrExternal, "cli", "run",
					fmt.Sprintf("adapter %s not ready: %s", health.Name, health.Detail), nil)
			}
			if dataset == "" {
				dataset = adapter.Metadata().Name
			}

			opts := pipeline.OptionsFromConfig(cfg)
			if demo {
				opts.DemoMode = true
			}
			if limit > 0 {
				opts.DemoMode = true
				opts.DemoLimit = limit
			}

			stats, err := runDataset(runCtx, cfg, opts, dataset, adapter, logger)
			if err != nil {
				return err
			}
			if jsonOutput {
				if err := writeJSON(cmd, stats); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				fmt.Fprint(out, heading(out, "Run "+dataset))
				fmt.Fprintln(out, renderRunStats(stats))
			}
			if errors.Is(runCtx.Err(), context.Canceled) {
				return context.Canceled
			}
			if stats.StopReason == "source error" {
				return fmt.Errorf("run %s stopped early: %s", dataset, strings.Join(stats.Errors, "; "))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "Input file for the adapter")
	cmd.Flags().StringVarP(&adapterName, "adapter", "a", adapters.JSONLName, "Adapter used to read the input")
	cmd.Flags().BoolVar(&demo, "demo", false, "Run in demo mode: cap episodes and keep invalid ones")
	cmd.Flags().IntVar(&limit, "limit", 0, "Demo episode limit (implies --demo)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the run statistics as JSON")
	return cmd
}

// runDataset opens the store, runs the adapter's stream through the pipeline,
// and exports the run metrics when a textfile is configured.
func runDataset(ctx context.Context, cfg *config.Config, opts pipeline.Options, dataset string, adapter adapters.Adapter, logger *slog.Logger) (pipeline.Stats, error) {
	s, err := store.Open(ctx, cfg)
	if err != nil {
		return pipeline.Stats{}, err
	}
	defer s.Close()

	metrics := pipeline.NewMetrics()
	p, err := buildPipeline(cfg, opts, s, metrics, logger)
	if err != nil {
		return pipeline.Stats{}, err
	}
	stats := p.Run(ctx, dataset, adapter.Episodes(ctx))

	if path := strings.TrimSpace(cfg.Metrics.Textfile); path != "" {
		if err := metrics.WriteTextfile(path); err != nil {
			logging.WarnWithContext(logger, "metrics textfile not written", "metrics_export_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check metrics.textfile points to a writable location"),
			)
		}
	}
	return stats, nil
}

func renderRunStats(stats pipeline.Stats) string {
	rows := [][]string{
		{"Run ID", stats.RunID},
		{"Raw episodes", fmt.Sprintf("%d", stats.RawEpisodesProcessed)},
		{"Normalized", fmt.Sprintf("%d", stats.EpisodesNormalized)},
		{"Validated", fmt.Sprintf("%d", stats.EpisodesValidated)},
		{"Passed", fmt.Sprintf("%d", stats.EpisodesPassed)},
		{"Failed", fmt.Sprintf("%d", stats.EpisodesFailed)},
		{"Dropped", fmt.Sprintf("%d", stats.EpisodesDropped)},
		{"Saved", fmt.Sprintf("%d", stats.EpisodesSaved)},
		{"Q&A pairs", fmt.Sprintf("%d", stats.QAPairsGenerated)},
		{"Pass rate", fmt.Sprintf("%.1f%%", stats.PassRate())},
		{"Avg quality", fmt.Sprintf("%.3f", stats.AvgQualityScore)},
		{"Duration", stats.Duration().Round(time.Millisecond).String()},
	}
	if stats.StopReason != "" {
		rows = append(rows, []string{"Stopped", stats.StopReason})
	}
	if n := len(stats.Errors); n > 0 {
		rows = append(rows, []string{"Errors", fmt.Sprintf("%d", n)})
	}
	out := renderTable([]string{"Metric", "Value"}, rows, []columnAlignment{alignLeft, alignRight})
	for _, msg := range stats.Errors {
		out += "\n  " + msg
	}
	return out
}
