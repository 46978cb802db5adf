package testsupport

import (
	"math"
	"math/rand/v2"
	"testing"

	"factorynet/internal/episode"
)

// Sine returns n samples of amplitude·sin(2π·freq·t) at rateHz.
func Sine(freq, rateHz float64, n int, amplitude float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = amplitude * math.Sin(2*math.Pi*freq*float64(i)/rateHz)
	}
	return out
}

// Noise returns n standard-normal samples from a fixed seed.
func Noise(seed uint64, n int) []float64 {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	out := make([]float64, n)
	for i := range out {
		out[i] = rng.NormFloat64()
	}
	return out
}

// SineChannel builds a validated acceleration channel.
func SineChannel(t testing.TB, name string, freq, rateHz float64, n int) episode.SensorChannel {
	t.Helper()
	ch, err := episode.NewSensorChannel(name, name, "g", Sine(freq, rateHz, n, 1), rateHz)
	if err != nil {
		t.Fatalf("build channel %s: %v", name, err)
	}
	return ch
}

// NoiseChannel builds a validated channel of Gaussian noise.
func NoiseChannel(t testing.TB, name string, seed uint64, rateHz float64, n int) episode.SensorChannel {
	t.Helper()
	ch, err := episode.NewSensorChannel(name, name, "g", Noise(seed, n), rateHz)
	if err != nil {
		t.Fatalf("build channel %s: %v", name, err)
	}
	return ch
}

// RawEpisode returns a one-second CWRU-style inner race recording with one
// drive-end channel at 12 kHz.
func RawEpisode(t testing.TB, rawID string) episode.RawEpisode {
	t.Helper()
	rpm := 1797.0
	load := 0.0
	raw := episode.RawEpisode{
		RawID:         rawID,
		SourceDataset: "cwru_bearing",
		SourceFile:    rawID + ".mat",
		Channels: []episode.SensorChannel{
			SineChannel(t, "vibration_de", 162, 12000, 12000),
		},
		FaultType:     episode.FaultInnerRace,
		FaultLocation: "drive_end",
		Severity:      episode.SeverityModerate,
		LoadHP:        &load,
		RPM:           &rpm,
	}
	raw.Metadata.Set("fault_diameter_in", episode.FloatValue(0.007))
	raw.Metadata.Set("sensor", episode.StringValue("DE"))
	return raw
}

// MalformedRawEpisode returns an episode whose only channel has no samples.
func MalformedRawEpisode(rawID string) episode.RawEpisode {
	return episode.RawEpisode{
		RawID:         rawID,
		SourceDataset: "cwru_bearing",
		SourceFile:    rawID + ".mat",
		Channels: []episode.SensorChannel{
			{ID: "vibration_de", Name: "vibration_de", Unit: "g", SamplingRateHz: 12000},
		},
		FaultType: episode.FaultNormal,
		Severity:  episode.SeverityHealthy,
	}
}
