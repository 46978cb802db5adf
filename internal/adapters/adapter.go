package adapters

import (
	"context"
	"log/slog"

	"factorynet/internal/pipeline"
)

// DatasetMetadata describes the dataset an adapter reads.
type DatasetMetadata struct {
	Name           string  `json:"name"`
	FullName       string  `json:"full_name"`
	Description    string  `json:"description"`
	SourceURL      string  `json:"source_url,omitempty"`
	License        string  `json:"license,omitempty"`
	FileFormat     string  `json:"file_format"`
	SamplingRateHz float64 `json:"sampling_rate_hz,omitempty"`
	MachineType    string  `json:"machine_type"`
	MachineCode    string  `json:"machine_code"`
}

// Adapter is one dataset reader.
type Adapter interface {
	Name() string
	Metadata() DatasetMetadata
	// Episodes returns a fresh stream over the adapter's input. Each call
	// starts from the beginning.
	Episodes(ctx context.Context) pipeline.Source
	HealthCheck(ctx context.Context) Health
}

// Options are the constructor inputs shared by every adapter.
type Options struct {
	// Input is the file or directory the adapter reads.
	Input string
	// Dataset overrides the source_dataset of emitted episodes when set.
	Dataset string
	Logger  *slog.Logger
}

// Health summarizes whether an adapter can read its input.
type Health struct {
	Name   string `json:"name"`
	Ready  bool   `json:"ready"`
	Detail string `json:"detail,omitempty"`
}

// Healthy constructs a ready Health record.
func Healthy(name string) Health {
	return Health{Name: name, Ready: true}
}

// Unhealthy constructs an unhealthy Health record with context detail.
func Unhealthy(name, detail string) Health {
	return Health{Name: name, Ready: false, Detail: detail}
}
