package pipeline

import (
	"context"

	"factorynet/internal/episode"
	"factorynet/internal/validation"
)

// Source is a pull iterator over raw episodes. Next returns ok=false once
// the stream is exhausted. A non-nil error ends the stream.
type Source interface {
	Next(ctx context.Context) (raw episode.RawEpisode, ok bool, err error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) (episode.RawEpisode, bool, error)

func (f SourceFunc) Next(ctx context.Context) (episode.RawEpisode, bool, error) { return f(ctx) }

// SliceSource yields a fixed list of raw episodes.
func SliceSource(raws []episode.RawEpisode) Source {
	i := 0
	return SourceFunc(func(context.Context) (episode.RawEpisode, bool, error) {
		if i >= len(raws) {
			return episode.RawEpisode{}, false, nil
		}
		raw := raws[i]
		i++
		return raw, true, nil
	})
}

// QAPair is one generated question with its assessment tags.
type QAPair struct {
	Question          string   `json:"question"`
	Answer            string   `json:"answer"`
	QuestionType      string   `json:"question_type"`
	Difficulty        string   `json:"difficulty"`
	Criticality       string   `json:"criticality"`
	ExpertiseAreas    []string `json:"expertise_areas"`
	ContextRequired   bool     `json:"context_required"`
	ReasoningRequired bool     `json:"reasoning_required"`
}

// QAGenerator produces Q&A pairs for a normalized episode.
type QAGenerator interface {
	Generate(ctx context.Context, ep *episode.Episode) ([]QAPair, error)
}

// Storage persists episodes and reports. Both calls overwrite on repeated
// keys: (source_dataset, episode_id) for episodes and dataset for reports.
type Storage interface {
	SaveEpisode(ctx context.Context, ep *episode.Episode, qa []QAPair) error
	SaveValidationReport(ctx context.Context, report validation.Report, dataset string) error
}

// DatasetSource pairs a dataset name with its raw episode stream.
type DatasetSource struct {
	Name   string
	Source Source
}
