package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"factorynet/internal/config"
	"factorynet/internal/episode"
	"factorynet/internal/logging"
	"factorynet/internal/services"
	"factorynet/internal/validation"
)

// Stage names used for logging, metrics, and error attribution.
const (
	StageNormalize = "normalize"
	StageValidate  = "validate"
	StageQA        = "qa"
	StageSave      = "save"
)

// Options toggles optional stages and demo mode.
type Options struct {
	ValidateEpisodes bool
	GenerateQA       bool
	// DemoMode caps the run at DemoLimit episodes and keeps invalid ones.
	DemoMode  bool
	DemoLimit int
}

// OptionsFromConfig maps the [pipeline] section onto Options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		ValidateEpisodes: cfg.Pipeline.ValidateEpisodes,
		GenerateQA:       cfg.Pipeline.GenerateQA,
		DemoMode:         cfg.Pipeline.DemoMode,
		DemoLimit:        cfg.Pipeline.DemoLimit,
	}
}

// Normalizer converts one raw episode. *normalizer.Normalizer satisfies it.
type Normalizer interface {
	Normalize(raw episode.RawEpisode, episodeID string) (*episode.Episode, error)
}

// SizedSource is a Source that knows how many episodes it holds. Used only
// for progress reporting.
type SizedSource interface {
	Source
	Total() int
}

// Dependencies are the collaborators a Pipeline drives. QA and Metrics are
// optional; Reports defaults to a generator over Validator.
type Dependencies struct {
	Normalizer Normalizer
	Validator  *validation.Validator
	Reports    *validation.ReportGenerator
	QA         QAGenerator
	Storage    Storage
	Metrics    *Metrics
	Logger     *slog.Logger
}

// Pipeline runs datasets through normalize, validate, Q&A, and save. It runs
// on the caller's goroutine and is not safe for concurrent Run calls.
type Pipeline struct {
	opts       Options
	normalizer Normalizer
	validator  *validation.Validator
	reports    *validation.ReportGenerator
	qa         QAGenerator
	storage    Storage
	metrics    *Metrics
	logger     *slog.Logger
}

// New checks that every enabled stage has a collaborator.
func New(opts Options, deps Dependencies) (*Pipeline, error) {
	if deps.Normalizer == nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "init", "normalizer is required", nil)
	}
	if deps.Storage == nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "init", "storage is required", nil)
	}
	if opts.ValidateEpisodes && deps.Validator == nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "init", "validator is required when validation is enabled", nil)
	}
	if opts.GenerateQA && deps.QA == nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "init", "Q&A generator is required when generation is enabled", nil)
	}
	if opts.DemoMode && opts.DemoLimit <= 0 {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "init", "demo limit must be positive in demo mode", nil)
	}
	reports := deps.Reports
	if reports == nil && deps.Validator != nil {
		reports = validation.NewReportGenerator(deps.Validator)
	}
	return &Pipeline{
		opts:       opts,
		normalizer: deps.Normalizer,
		validator:  deps.Validator,
		reports:    reports,
		qa:         deps.QA,
		storage:    deps.Storage,
		metrics:    deps.Metrics,
		logger:     logging.NewComponentLogger(deps.Logger, "pipeline"),
	}, nil
}

// episodeOutcome is what one processed episode contributed to the run.
type episodeOutcome struct {
	result *validation.Result
	saved  bool
}

// Run drains source for dataset and returns the run statistics. It never
// fails: per-episode errors, source errors, and cancellation are recorded in
// the returned Stats.
func (p *Pipeline) Run(ctx context.Context, dataset string, source Source) Stats {
	stats := Stats{
		DatasetName: dataset,
		RunID:       uuid.NewString(),
		StartedAt:   time.Now().UTC(),
	}
	ctx = services.WithRunID(services.WithDataset(ctx, dataset), stats.RunID)
	logger := logging.WithContext(ctx, p.logger)

	limit := 0
	if p.opts.DemoMode {
		limit = p.opts.DemoLimit
	}
	total := limit
	if sized, ok := source.(SizedSource); ok {
		if n := sized.Total(); n > 0 && (total == 0 || n < total) {
			total = n
		}
	}
	logger.Info("run started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.Bool("validate", p.opts.ValidateEpisodes),
		logging.Bool("generate_qa", p.opts.GenerateQA),
		logging.Bool("demo_mode", p.opts.DemoMode),
		logging.Int("limit", limit),
	)

	sampler := logging.NewProgressSampler(10, 100)
	var results, savedResults []validation.Result
	for limit == 0 || stats.RawEpisodesProcessed < limit {
		if err := ctx.Err(); err != nil {
			p.stopEarly(logger, &stats, fmt.Sprintf("cancelled: %v", err))
			break
		}
		raw, ok, err := source.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				p.stopEarly(logger, &stats, fmt.Sprintf("cancelled: %v", ctx.Err()))
				break
			}
			stats.Errors = append(stats.Errors, fmt.Sprintf("source: %v", err))
			p.stopEarly(logger, &stats, "source error")
			break
		}
		if !ok {
			break
		}

		stats.RawEpisodesProcessed++
		p.metrics.episode(dataset, outcomeProcessed)
		outcome, err := p.processEpisode(ctx, raw, &stats)
		if outcome.result != nil {
			results = append(results, *outcome.result)
			if outcome.saved {
				savedResults = append(savedResults, *outcome.result)
			}
		}
		if err != nil {
			stats.Errors = append(stats.Errors, fmt.Sprintf("%s: %v", raw.RawID, err))
		}

		if sampler.ShouldLog(stats.RawEpisodesProcessed, total) {
			logger.Info("processing progress",
				logging.String(logging.FieldEventType, "run_progress"),
				logging.Int("processed", stats.RawEpisodesProcessed),
				logging.Int("total", total),
				logging.Int("saved", stats.EpisodesSaved),
			)
		}
	}

	if n := float64(len(results)); n > 0 {
		var completeness, confidence, score float64
		for _, r := range results {
			completeness += r.SensorCompleteness
			confidence += r.LabelConfidence
			score += r.QualityScore
		}
		stats.AvgSensorCompleteness = completeness / n
		stats.AvgLabelConfidence = confidence / n
		stats.AvgQualityScore = score / n
	}

	if p.opts.ValidateEpisodes && len(savedResults) > 0 {
		report := p.reports.FromResults(savedResults, dataset)
		// The report is still written when the run was cancelled mid-stream.
		if err := p.storage.SaveValidationReport(context.WithoutCancel(ctx), report, dataset); err != nil {
			wrapped := services.Wrap(services.ErrExternal, "storage", "save validation report", dataset, err)
			stats.Errors = append(stats.Errors, fmt.Sprintf("validation report: %v", wrapped))
			logging.ErrorWithContext(logger, "validation report not saved", "report_failed",
				logging.Error(wrapped),
				logging.String(logging.FieldErrorHint, "check the output directory is writable"),
			)
		}
	}

	stats.CompletedAt = time.Now().UTC()
	p.metrics.runFinished(stats)
	p.logSummary(logger, stats)
	return stats
}

// RunMany runs each dataset in turn and keys the stats by dataset name.
func (p *Pipeline) RunMany(ctx context.Context, datasets []DatasetSource) map[string]Stats {
	out := make(map[string]Stats, len(datasets))
	for _, ds := range datasets {
		if ds.Source == nil {
			logging.WarnWithContext(p.logger, "dataset has no source; skipped", "dataset_skipped",
				logging.Dataset(ds.Name),
				logging.String(logging.FieldErrorHint, "check the adapter configuration for this dataset"),
			)
			continue
		}
		out[ds.Name] = p.Run(ctx, ds.Name, ds.Source)
	}
	return out
}

// processEpisode runs one raw episode through every enabled stage. Panics in
// collaborators are converted to errors attributed to the active stage.
func (p *Pipeline) processEpisode(ctx context.Context, raw episode.RawEpisode, stats *Stats) (outcome episodeOutcome, err error) {
	dataset := stats.DatasetName
	ctx = services.WithRawID(ctx, raw.RawID)
	stage := StageNormalize
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s: panic: %v", stage, r)
		}
		if err != nil {
			p.metrics.failure(dataset, stage, services.Kind(err))
			logging.WarnWithContext(logging.WithContext(services.WithStage(ctx, stage), p.logger),
				"episode failed", "episode_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, hintFor(stage)),
			)
		}
	}()

	started := time.Now()
	ep, err := p.normalizer.Normalize(raw, "")
	if err != nil {
		return outcome, err
	}
	p.metrics.observeStage(StageNormalize, time.Since(started))
	stats.EpisodesNormalized++
	p.metrics.episode(dataset, outcomeNormalized)
	ctx = services.WithEpisodeID(ctx, ep.EpisodeID)
	logger := logging.WithContext(ctx, p.logger)

	if p.opts.ValidateEpisodes {
		stage = StageValidate
		started = time.Now()
		result := p.validator.Validate(ep)
		p.metrics.observeStage(StageValidate, time.Since(started))
		outcome.result = &result
		stats.EpisodesValidated++
		if result.Valid {
			stats.EpisodesPassed++
			p.metrics.episode(dataset, outcomePassed)
		} else {
			stats.EpisodesFailed++
			p.metrics.episode(dataset, outcomeFailed)
			if !p.opts.DemoMode {
				stats.EpisodesDropped++
				p.metrics.episode(dataset, outcomeDropped)
				logger.Info("episode dropped by quality gate",
					logging.String(logging.FieldEventType, "episode_dropped"),
					logging.Int("error_issues", result.ErrorCount()),
					logging.Int("warning_issues", result.WarningCount()),
					logging.Float64("sensor_completeness", result.SensorCompleteness),
					logging.Float64("label_confidence", result.LabelConfidence),
				)
				return outcome, nil
			}
		}
	}

	var pairs []QAPair
	if p.opts.GenerateQA {
		stage = StageQA
		started = time.Now()
		pairs, err = p.qa.Generate(ctx, ep)
		if err != nil {
			return outcome, services.Wrap(services.ErrExternal, "qa", "generate", ep.EpisodeID, err)
		}
		p.metrics.observeStage(StageQA, time.Since(started))
		stats.QAPairsGenerated += len(pairs)
		p.metrics.qa(dataset, len(pairs))
	}

	stage = StageSave
	started = time.Now()
	if err := p.storage.SaveEpisode(ctx, ep, pairs); err != nil {
		return outcome, services.Wrap(services.ErrExternal, "storage", "save episode", ep.EpisodeID, err)
	}
	p.metrics.observeStage(StageSave, time.Since(started))
	stats.EpisodesSaved++
	p.metrics.episode(dataset, outcomeSaved)
	outcome.saved = true

	logger.Debug("episode saved",
		logging.String(logging.FieldEventType, "episode_saved"),
		logging.String("state_code", ep.State.Code),
		logging.Int("qa_pairs", len(pairs)),
	)
	return outcome, nil
}

func (p *Pipeline) stopEarly(logger *slog.Logger, stats *Stats, reason string) {
	stats.StopReason = reason
	logging.WarnWithContext(logger, "run stopped before source was exhausted", "run_stopped",
		logging.String("reason", reason),
		logging.Int("processed", stats.RawEpisodesProcessed),
		logging.String(logging.FieldErrorHint, "rerun the dataset; saved episodes are overwritten idempotently"),
	)
}

func (p *Pipeline) logSummary(logger *slog.Logger, stats Stats) {
	logger.Info("run complete",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.Duration("duration", stats.Duration()),
		logging.Int("raw_episodes_processed", stats.RawEpisodesProcessed),
		logging.Int("episodes_normalized", stats.EpisodesNormalized),
		logging.Int("episodes_passed", stats.EpisodesPassed),
		logging.Int("episodes_failed", stats.EpisodesFailed),
		logging.Int("episodes_dropped", stats.EpisodesDropped),
		logging.Int("episodes_saved", stats.EpisodesSaved),
		logging.Int("qa_pairs_generated", stats.QAPairsGenerated),
		logging.Float64("pass_rate", stats.PassRate()),
		logging.Int("error_count", len(stats.Errors)),
	)
	if len(stats.Errors) > 0 {
		logging.WarnWithContext(logger, "run completed with episode errors", "run_errors",
			logging.Int("error_count", len(stats.Errors)),
			logging.String("first_error", stats.Errors[0]),
			logging.String(logging.FieldErrorHint, "rerun with logging.level = \"debug\" for per-episode detail"),
		)
	}
}

func hintFor(stage string) string {
	switch stage {
	case StageNormalize:
		return "check the adapter output for empty or duplicate channels"
	case StageQA:
		return "check the Q&A generator configuration"
	case StageSave:
		return "check the output directory is writable and not locked by another run"
	default:
		return "check logs for details"
	}
}
