package main

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"factorynet/internal/config"
	"factorynet/internal/episode"
	"factorynet/internal/store"
)

func newEpisodesCommand(ctx *commandContext) *cobra.Command {
	episodesCmd := &cobra.Command{
		Use:   "episodes",
		Short: "Inspect stored episodes",
	}
	episodesCmd.AddCommand(newEpisodesListCommand(ctx))
	episodesCmd.AddCommand(newEpisodesShowCommand(ctx))
	return episodesCmd
}

func newEpisodesListCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list [dataset]",
		Short: "List stored episodes, optionally for one dataset",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var dataset string
			if len(args) == 1 {
				dataset = strings.TrimSpace(args[0])
			}
			return ctx.withStore(cmd.Context(), func(_ *config.Config, s *store.Store) error {
				episodes, err := s.ListEpisodes(cmd.Context(), dataset)
				if err != nil {
					return err
				}
				if jsonOutput {
					if episodes == nil {
						episodes = []store.EpisodeSummary{}
					}
					return writeJSON(cmd, episodes)
				}
				out := cmd.OutOrStdout()
				if len(episodes) == 0 {
					fmt.Fprintln(out, "No episodes stored")
					return nil
				}
				rows := make([][]string, 0, len(episodes))
				for _, ep := range episodes {
					rows = append(rows, []string{
						ep.Dataset,
						ep.EpisodeID,
						ep.StateLabel,
						strconv.FormatFloat(ep.Severity, 'f', 2, 64),
						strconv.FormatFloat(ep.DurationSeconds, 'f', 2, 64),
						strconv.Itoa(ep.QAPairs),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Dataset", "Episode", "State", "Severity", "Seconds", "Q&A"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight},
				))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newEpisodesShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show <dataset> <episode-id>",
		Short: "Show one stored episode",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd.Context(), func(_ *config.Config, s *store.Store) error {
				ep, err := s.LoadEpisode(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, ep)
				}
				out := cmd.OutOrStdout()
				meta := ep.Metadata
				fmt.Fprint(out, heading(out, meta.EpisodeID))
				rows := [][]string{
					{"Dataset", meta.SourceDataset},
					{"Source file", meta.SourceFile},
					{"State", meta.State.Code + " (" + meta.State.Label + ")"},
					{"Severity", strconv.FormatFloat(meta.State.Severity, 'f', 2, 64)},
					{"Timesteps", strconv.Itoa(meta.NumTimesteps)},
					{"Duration", strconv.FormatFloat(meta.DurationSeconds, 'f', 3, 64) + "s"},
					{"Channels", strconv.Itoa(len(ep.Channels))},
					{"Features", yesNo(len(ep.Features) > 0)},
					{"Q&A pairs", strconv.Itoa(len(ep.QA))},
				}
				fmt.Fprintln(out, renderTable([]string{"Field", "Value"}, rows, nil))
				if len(ep.Features) > 0 {
					fmt.Fprint(out, heading(out, "Channel features"))
					fmt.Fprintln(out, renderTable(featureHeaders(), featureRows(ep), featureAligns()))
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the full episode as JSON")
	return cmd
}

// featureColumns are the scalar features shown by episodes show.
var featureColumns = []string{"rms", "peak", "crest_factor", "kurtosis", "dominant_frequency_hz"}

func featureHeaders() []string {
	return append([]string{"Channel"}, featureColumns...)
}

func featureAligns() []columnAlignment {
	aligns := []columnAlignment{alignLeft}
	for range featureColumns {
		aligns = append(aligns, alignRight)
	}
	return aligns
}

// featureRows lists channels in stored order, then any feature-only channels by name.
func featureRows(ep *store.StoredEpisode) [][]string {
	doc := episode.ScalarFeatures(ep.Features)
	names := make([]string, 0, len(doc))
	for _, ch := range ep.Channels {
		if _, ok := doc[ch.Name]; ok {
			names = append(names, ch.Name)
		}
	}
	var extra []string
	for name := range doc {
		if !slices.Contains(names, name) {
			extra = append(extra, name)
		}
	}
	slices.Sort(extra)
	names = append(names, extra...)

	rows := make([][]string, 0, len(names))
	for _, name := range names {
		row := []string{name}
		for _, col := range featureColumns {
			row = append(row, strconv.FormatFloat(doc[name][col], 'g', 4, 64))
		}
		rows = append(rows, row)
	}
	return rows
}
