package main

import (
	"log/slog"

	"factorynet/internal/config"
	"factorynet/internal/features"
	"factorynet/internal/normalizer"
	"factorynet/internal/pipeline"
	"factorynet/internal/qa"
	"factorynet/internal/validation"
)

// buildPipeline assembles the stages the configuration enables around storage.
func buildPipeline(cfg *config.Config, opts pipeline.Options, storage pipeline.Storage, metrics *pipeline.Metrics, logger *slog.Logger) (*pipeline.Pipeline, error) {
	norm, err := normalizer.New(normalizer.Options{
		IDPrefix:        cfg.Normalizer.IDPrefix,
		ExtractFeatures: cfg.Pipeline.ExtractFeatures,
		BearingType:     cfg.Features.BearingType,
		Features: features.Options{
			Window:            features.Window(cfg.Features.Window),
			FFTSize:           cfg.Features.FFTSize,
			MaxSpectrumPoints: cfg.Features.MaxSpectrumPoints,
			ToleranceBins:     cfg.Features.ToleranceBins,
		},
	}, logger)
	if err != nil {
		return nil, err
	}

	validator, err := validation.New(validation.Thresholds{
		SensorCompleteness: cfg.Quality.SensorCompletenessThreshold,
		LabelConfidence:    cfg.Quality.LabelConfidenceThreshold,
		MinSteps:           cfg.Quality.MinSteps,
		MaxMissingRatio:    cfg.Quality.MaxMissingRatio,
	})
	if err != nil {
		return nil, err
	}

	deps := pipeline.Dependencies{
		Normalizer: norm,
		Validator:  validator,
		Storage:    storage,
		Metrics:    metrics,
		Logger:     logger,
	}
	if opts.GenerateQA {
		qaOpts := qa.DefaultOptions()
		qaOpts.QuestionsPerCategory = cfg.QA.QuestionsPerCategory
		generator, err := qa.New(qaOpts)
		if err != nil {
			return nil, err
		}
		deps.QA = generator
	}
	return pipeline.New(opts, deps)
}
