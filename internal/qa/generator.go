package qa

import (
	"context"
	"fmt"
	"hash/fnv"
	"slices"
	"strings"

	"factorynet/internal/episode"
	"factorynet/internal/pipeline"
	"factorynet/internal/services"
	"factorynet/internal/taxonomy"
)

// DefaultQuestionsPerCategory matches the [qa] section default.
const DefaultQuestionsPerCategory = 2

// Options tune template selection.
type Options struct {
	QuestionsPerCategory int
	// IncludeReasoning marks hard questions as requiring step-by-step
	// reasoning.
	IncludeReasoning bool
	// Categories restricts generation; nil means every category.
	Categories []string
}

// DefaultOptions returns two questions per category across all categories.
func DefaultOptions() Options {
	return Options{QuestionsPerCategory: DefaultQuestionsPerCategory, IncludeReasoning: true}
}

// TemplateGenerator builds Q&A pairs from an episode's labels, features, and
// operating conditions. It is stateless and safe for concurrent use.
type TemplateGenerator struct {
	opts Options
}

// New validates opts.
func New(opts Options) (*TemplateGenerator, error) {
	if opts.QuestionsPerCategory < 1 {
		return nil, services.Wrap(services.ErrConfiguration, "qa", "init",
			fmt.Sprintf("questions per category must be at least 1, got %d", opts.QuestionsPerCategory), nil)
	}
	for _, c := range opts.Categories {
		if _, ok := templates[c]; !ok {
			return nil, services.Wrap(services.ErrConfiguration, "qa", "init",
				fmt.Sprintf("unknown question category %q", c), nil)
		}
	}
	opts.Categories = slices.Clone(opts.Categories)
	return &TemplateGenerator{opts: opts}, nil
}

// Generate returns up to QuestionsPerCategory pairs per category. Templates
// whose inputs the episode lacks are skipped. Selection rotates through each
// category's templates by a hash of the episode ID, so the same episode
// always yields the same questions.
func (g *TemplateGenerator) Generate(ctx context.Context, ep *episode.Episode) ([]pipeline.QAPair, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if ep == nil {
		return nil, services.Wrap(services.ErrValidation, "qa", "generate", "episode is nil", nil)
	}
	f := deriveFacts(ep)
	offset := rotation(ep.EpisodeID)

	categories := g.opts.Categories
	if len(categories) == 0 {
		categories = Categories()
	}
	var pairs []pipeline.QAPair
	for _, category := range categories {
		var usable []template
		for _, t := range templates[category] {
			if t.needs(f) {
				usable = append(usable, t)
			}
		}
		n := min(g.opts.QuestionsPerCategory, len(usable))
		for i := range n {
			t := usable[(offset+i)%len(usable)]
			pairs = append(pairs, pipeline.QAPair{
				Question:          t.question(f),
				Answer:            t.answer(f),
				QuestionType:      category,
				Difficulty:        t.difficulty,
				Criticality:       t.criticality,
				ExpertiseAreas:    slices.Clone(t.expertise),
				ContextRequired:   true,
				ReasoningRequired: g.opts.IncludeReasoning && t.difficulty == DifficultyHard,
			})
		}
	}
	return pairs, nil
}

func deriveFacts(ep *episode.Episode) facts {
	fault, ok := taxonomy.FaultForState(ep.State.Code)
	if !ok {
		fault = episode.FaultUnknown
	}
	f := facts{
		fault:    fault,
		severity: severityFromScore(ep.State.Severity),
		location: sensorLocation(ep.ChannelNames),
		rpm:      ep.RPM,
		loadHP:   ep.LoadHP,
	}
	// The first declared channel with features is the primary one.
	for _, name := range ep.ChannelNames {
		if feat, ok := ep.Features[name]; ok {
			f.features = &feat
			break
		}
	}
	return f
}

// severityFromScore buckets a [0,1] severity score back into a grade.
func severityFromScore(score float64) episode.Severity {
	switch {
	case score >= 0.9:
		return episode.SeverityCritical
	case score >= 0.7:
		return episode.SeveritySevere
	case score >= 0.4:
		return episode.SeverityModerate
	case score > 0:
		return episode.SeverityMinor
	default:
		return episode.SeverityHealthy
	}
}

func sensorLocation(channels []string) string {
	for _, ch := range channels {
		lower := strings.ToLower(ch)
		if strings.HasSuffix(lower, "_fe") || strings.Contains(lower, "fan") {
			return "fan end"
		}
	}
	return "drive end"
}

func rotation(id string) int {
	h := fnv.New32a()
	h.Write([]byte(id))
	return int(h.Sum32() % 1024)
}
