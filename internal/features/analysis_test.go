package features_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"factorynet/internal/features"
)

func TestFaultFrequenciesFor6205(t *testing.T) {
	geom, ok := features.LookupBearing(" 6205 ")
	if !ok {
		t.Fatal("expected 6205 in catalog")
	}
	got := geom.FaultFrequencies(1797)
	shaft := 1797.0 / 60
	want := map[string]float64{
		"bpfo": 3.5848 * shaft,
		"bpfi": 5.4152 * shaft,
		"bsf":  2.3567 * shaft,
		"ftf":  0.3983 * shaft,
	}
	for name, value := range map[string]float64{"bpfo": got.BPFO, "bpfi": got.BPFI, "bsf": got.BSF, "ftf": got.FTF} {
		if math.Abs(value-want[name]) > 0.05 {
			t.Fatalf("%s = %v, want about %v", name, value, want[name])
		}
	}

	if zero := (features.BearingGeometry{NumBalls: 9}).FaultFrequencies(1797); zero != (features.FaultFrequencies{}) {
		t.Fatalf("degenerate geometry should yield zeros, got %+v", zero)
	}
}

func TestBearingCatalog(t *testing.T) {
	models := features.BearingModels()
	if len(models) != 3 || models[0] != "6205" || models[2] != "6208" {
		t.Fatalf("unexpected catalog: %v", models)
	}
	if _, ok := features.LookupBearing("9999"); ok {
		t.Fatal("unknown model should not resolve")
	}
	geom, _ := features.LookupBearing("6206")
	info := geom.Info("6206")
	if info.Type != "6206" || info.NumBalls != 9 || info.PitchDiameterMM != 46.64 {
		t.Fatalf("unexpected bearing info: %+v", info)
	}
}

func TestComputeStatistics(t *testing.T) {
	got := features.ComputeStatistics([]float64{1, 2, 3, 4})
	if got.Mean != 2.5 || got.Min != 1 || got.Max != 4 {
		t.Fatalf("unexpected statistics: %+v", got)
	}
	if math.Abs(got.Std-math.Sqrt(1.25)) > 1e-12 {
		t.Fatalf("std = %v, want population std", got.Std)
	}
	if math.Abs(got.RMS-math.Sqrt(7.5)) > 1e-12 {
		t.Fatalf("rms = %v", got.RMS)
	}
	if empty := features.ComputeStatistics(nil); empty != (features.Statistics{}) {
		t.Fatalf("expected zeros for empty input, got %+v", empty)
	}
}

func TestEnvelopeSpectrumRecoversModulation(t *testing.T) {
	const (
		rate    = 12000.0
		n       = 12000
		carrier = 3000.0
		mod     = 100.0
	)
	samples := make([]float64, n)
	for i := range samples {
		ts := float64(i) / rate
		samples[i] = (1 + 0.5*math.Cos(2*math.Pi*mod*ts)) * math.Cos(2*math.Pi*carrier*ts)
	}

	freqs, mags, err := features.EnvelopeSpectrum(samples, rate, 0, 0)
	if err != nil {
		t.Fatalf("EnvelopeSpectrum returned error: %v", err)
	}
	if len(freqs) != n/2+1 || len(mags) != n/2+1 {
		t.Fatalf("expected %d bins, got %d/%d", n/2+1, len(freqs), len(mags))
	}
	peak := 1
	for k := 2; k < len(mags); k++ {
		if mags[k] > mags[peak] {
			peak = k
		}
	}
	if math.Abs(freqs[peak]-mod) > 1 {
		t.Fatalf("envelope peak at %v Hz, want %v Hz", freqs[peak], mod)
	}
	if math.Abs(mags[peak]-0.25) > 0.02 {
		t.Fatalf("envelope peak magnitude = %v, want about 0.25", mags[peak])
	}
}

func TestEnvelopeSpectrumValidatesInput(t *testing.T) {
	if _, _, err := features.EnvelopeSpectrum([]float64{1, 2, 3}, 0, 0, 0); !errors.Is(err, features.ErrInvalidSamplingRate) {
		t.Fatalf("expected sampling rate error, got %v", err)
	}
	if _, _, err := features.EnvelopeSpectrum([]float64{1, math.NaN(), 3}, 100, 0, 0); !errors.Is(err, features.ErrNonFiniteSample) {
		t.Fatalf("expected non-finite error, got %v", err)
	}
	freqs, mags, err := features.EnvelopeSpectrum([]float64{1}, 100, 0, 0)
	if err != nil || freqs != nil || mags != nil {
		t.Fatalf("single sample should yield nothing, got %v %v %v", freqs, mags, err)
	}
}

func TestExtractBatchKeepsOrder(t *testing.T) {
	ext := newExtractor(t, features.DefaultOptions())
	signals := []features.Signal{
		{Name: "drive_end", Samples: sine(50, 1000, 1000, 1), RateHz: 1000},
		{Name: "fan_end", Samples: sine(120, 1000, 1000, 2), RateHz: 1000},
		{Name: "base", Samples: sine(200, 1000, 1000, 0.5), RateHz: 1000},
	}
	results, err := ext.ExtractBatch(context.Background(), signals, nil, nil)
	if err != nil {
		t.Fatalf("ExtractBatch returned error: %v", err)
	}
	if len(results) != len(signals) {
		t.Fatalf("expected %d results, got %d", len(signals), len(results))
	}
	for i, want := range []float64{50, 120, 200} {
		if results[i].Err != nil || results[i].Name != signals[i].Name {
			t.Fatalf("result %d = %+v", i, results[i])
		}
		if math.Abs(results[i].Features.DominantFrequencyHz-want) > 1 {
			t.Fatalf("result %d dominant = %v, want %v", i, results[i].Features.DominantFrequencyHz, want)
		}
	}
}

func TestExtractBatchIsolatesFailures(t *testing.T) {
	ext := newExtractor(t, features.DefaultOptions())
	signals := []features.Signal{
		{Name: "ok", Samples: sine(50, 1000, 100, 1), RateHz: 1000},
		{Name: "broken", Samples: []float64{1, math.Inf(-1)}, RateHz: 1000},
	}
	results, err := ext.ExtractBatch(context.Background(), signals, nil, nil)
	if err != nil {
		t.Fatalf("ExtractBatch returned error: %v", err)
	}
	if results[0].Err != nil {
		t.Fatalf("healthy signal failed: %v", results[0].Err)
	}
	if !errors.Is(results[1].Err, features.ErrNonFiniteSample) {
		t.Fatalf("expected non-finite error, got %v", results[1].Err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := ext.ExtractBatch(ctx, signals[:1], nil, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}
}
