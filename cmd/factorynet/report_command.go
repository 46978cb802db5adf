package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"factorynet/internal/config"
	"factorynet/internal/store"
	"factorynet/internal/validation"
)

func newReportCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var showEpisodes bool

	cmd := &cobra.Command{
		Use:   "report <dataset>",
		Short: "Show the latest validation report for a dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd.Context(), func(_ *config.Config, s *store.Store) error {
				report, err := s.LoadValidationReport(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, report)
				}
				out := cmd.OutOrStdout()
				fmt.Fprint(out, heading(out, "Validation report: "+report.DatasetName))
				fmt.Fprintln(out, renderReportSummary(report))
				if counts := renderIssueCounts(report); counts != "" {
					fmt.Fprintln(out, counts)
				}
				if showEpisodes && len(report.EpisodeResults) > 0 {
					fmt.Fprintln(out, renderReportEpisodes(report.EpisodeResults))
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&showEpisodes, "episodes", false, "Include per-episode results")
	return cmd
}

func renderReportSummary(report validation.Report) string {
	return renderTable([]string{"Metric", "Value"}, [][]string{
		{"Generated", report.GeneratedAt.Format("2006-01-02 15:04:05Z07:00")},
		{"Episodes", strconv.Itoa(report.TotalEpisodes)},
		{"Valid", strconv.Itoa(report.ValidEpisodes)},
		{"Invalid", strconv.Itoa(report.InvalidEpisodes)},
		{"Pass rate", fmt.Sprintf("%.1f%%", report.PassRate)},
		{"Sensor completeness", fmt.Sprintf("%.3f", report.AvgSensorCompleteness)},
		{"Label confidence", fmt.Sprintf("%.3f", report.AvgLabelConfidence)},
		{"Quality score", fmt.Sprintf("%.3f", report.AvgQualityScore)},
	}, []columnAlignment{alignLeft, alignRight})
}

func renderIssueCounts(report validation.Report) string {
	var rows [][]string
	for _, group := range []struct {
		severity string
		counts   map[string]int
	}{
		{"ERROR", report.ErrorCounts},
		{"WARNING", report.WarningCounts},
	} {
		messages := make([]string, 0, len(group.counts))
		for msg := range group.counts {
			messages = append(messages, msg)
		}
		sort.Strings(messages)
		for _, msg := range messages {
			rows = append(rows, []string{group.severity, msg, strconv.Itoa(group.counts[msg])})
		}
	}
	if len(rows) == 0 {
		return ""
	}
	return renderTable([]string{"Severity", "Issue", "Count"}, rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight})
}

func renderReportEpisodes(results []validation.Result) string {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, []string{
			r.EpisodeID,
			yesNo(r.Valid),
			fmt.Sprintf("%.3f", r.QualityScore),
			strconv.Itoa(r.ErrorCount()),
			strconv.Itoa(r.WarningCount()),
		})
	}
	return renderTable([]string{"Episode", "Valid", "Quality", "Errors", "Warnings"}, rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight})
}
