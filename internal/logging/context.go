package logging

import (
	"context"
	"log/slog"

	"factorynet/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldRunID is the standardized structured logging key for pipeline run identifiers.
	FieldRunID = "run_id"
	// FieldDataset is the standardized structured logging key for source dataset names.
	FieldDataset = "dataset"
	// FieldRawID is the standardized structured logging key for dataset-local episode identifiers.
	FieldRawID = "raw_id"
	// FieldEpisodeID is the standardized structured logging key for canonical episode identifiers.
	FieldEpisodeID = "episode_id"
	// FieldStage is the standardized structured logging key for pipeline stage names.
	FieldStage = "stage"
	// FieldEventType classifies a log record for filtering (episode_saved, run_complete, ...).
	FieldEventType = "event_type"
	// FieldErrorHint carries an operator-facing next step on WARN and ERROR records.
	FieldErrorHint = "error_hint"
	// FieldChannel names the sensor channel a record refers to.
	FieldChannel = "channel"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 5)
	if id, ok := services.RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	if dataset, ok := services.DatasetFromContext(ctx); ok {
		fields = append(fields, Dataset(dataset))
	}
	if raw, ok := services.RawIDFromContext(ctx); ok {
		fields = append(fields, RawID(raw))
	}
	if id, ok := services.EpisodeIDFromContext(ctx); ok {
		fields = append(fields, EpisodeID(id))
	}
	if stage, ok := services.StageFromContext(ctx); ok {
		fields = append(fields, Stage(stage))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	args := make([]any, len(fields))
	for i, f := range fields {
		args[i] = f
	}
	return logger.With(args...)
}
