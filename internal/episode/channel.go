package episode

import (
	"fmt"
	"strings"

	"factorynet/internal/services"
)

// SensorChannel is one named, unit-tagged, uniformly sampled sequence.
type SensorChannel struct {
	ID             string    `json:"channel_id"`
	Name           string    `json:"name"`
	Unit           string    `json:"unit"`
	Samples        []float64 `json:"samples"`
	SamplingRateHz float64   `json:"sampling_rate_hz"`
}

// NewSensorChannel builds a validated channel that owns a copy of samples.
func NewSensorChannel(id, name, unit string, samples []float64, rateHz float64) (SensorChannel, error) {
	ch := SensorChannel{
		ID:             id,
		Name:           name,
		Unit:           unit,
		Samples:        append([]float64(nil), samples...),
		SamplingRateHz: rateHz,
	}
	if err := ch.Validate(); err != nil {
		return SensorChannel{}, err
	}
	return ch, nil
}

// Validate re-checks the construction invariants for channels built as literals
// or decoded from adapter input.
func (c SensorChannel) Validate() error {
	label := c.ID
	if label == "" {
		label = c.Name
	}
	if strings.TrimSpace(c.Name) == "" {
		return services.Wrap(services.ErrValidation, "channel", label, "channel name is required", nil)
	}
	if len(c.Samples) == 0 {
		return services.Wrap(services.ErrValidation, "channel", label, "channel has no data", nil)
	}
	if !(c.SamplingRateHz > 0) {
		return services.Wrap(services.ErrValidation, "channel", label, fmt.Sprintf("invalid sampling rate: %v", c.SamplingRateHz), nil)
	}
	return nil
}

// Duration returns the recording length implied by sample count and rate.
func (c SensorChannel) Duration() float64 {
	if c.SamplingRateHz <= 0 {
		return 0
	}
	return float64(len(c.Samples)) / c.SamplingRateHz
}
