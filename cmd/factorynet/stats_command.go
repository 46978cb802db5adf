package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"factorynet/internal/config"
	"factorynet/internal/store"
)

func newStatsCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "stats [dataset]",
		Short: "Summarize stored episodes per dataset",
		Long:  "Summarize stored episodes for one dataset, or for every dataset in the store when none is given.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd.Context(), func(_ *config.Config, s *store.Store) error {
				datasets := args
				if len(datasets) == 0 {
					names, err := s.Datasets(cmd.Context())
					if err != nil {
						return err
					}
					datasets = names
				}
				all := make([]store.DatasetStats, 0, len(datasets))
				for _, name := range datasets {
					stats, err := s.DatasetStats(cmd.Context(), name)
					if err != nil {
						return err
					}
					all = append(all, stats)
				}
				if jsonOutput {
					return writeJSON(cmd, all)
				}
				out := cmd.OutOrStdout()
				if len(all) == 0 {
					fmt.Fprintln(out, "No datasets stored")
					return nil
				}
				for i, stats := range all {
					if i > 0 {
						fmt.Fprintln(out)
					}
					fmt.Fprint(out, heading(out, stats.Dataset))
					fmt.Fprintln(out, renderDatasetStats(stats))
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func renderDatasetStats(stats store.DatasetStats) string {
	summary := renderTable([]string{"Metric", "Value"}, [][]string{
		{"Episodes", strconv.Itoa(stats.Episodes)},
		{"Duration (s)", strconv.FormatFloat(stats.TotalDurationSeconds, 'f', 1, 64)},
		{"Q&A pairs", strconv.Itoa(stats.QAPairs)},
		{"Stored bytes", strconv.FormatInt(stats.StoredBytes, 10)},
	}, []columnAlignment{alignLeft, alignRight})
	if len(stats.FaultDistribution) == 0 {
		return summary
	}

	labels := make([]string, 0, len(stats.FaultDistribution))
	for label := range stats.FaultDistribution {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		ci, cj := stats.FaultDistribution[labels[i]], stats.FaultDistribution[labels[j]]
		if ci != cj {
			return ci > cj
		}
		return labels[i] < labels[j]
	})
	rows := make([][]string, 0, len(labels))
	for _, label := range labels {
		count := stats.FaultDistribution[label]
		share := float64(count) / float64(stats.Episodes) * 100
		rows = append(rows, []string{label, strconv.Itoa(count), fmt.Sprintf("%.1f%%", share)})
	}
	return summary + "\n" + renderTable([]string{"State", "Episodes", "Share"}, rows,
		[]columnAlignment{alignLeft, alignRight, alignRight})
}
