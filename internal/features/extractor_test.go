package features_test

import (
	"encoding/json"
	"errors"
	"math"
	"math/rand/v2"
	"reflect"
	"testing"

	"factorynet/internal/episode"
	"factorynet/internal/features"
	"factorynet/internal/services"
)

func newExtractor(t *testing.T, opts features.Options) *features.Extractor {
	t.Helper()
	ext, err := features.New(opts)
	if err != nil {
		t.Fatalf("features.New returned error: %v", err)
	}
	return ext
}

func sine(freq, rate float64, n int, amplitude float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = amplitude * math.Sin(2*math.Pi*freq*float64(i)/rate)
	}
	return out
}

func TestExtractZeroSignal(t *testing.T) {
	ext := newExtractor(t, features.DefaultOptions())
	feat, err := ext.Extract(make([]float64, 2048), 12000, nil, nil)
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	for name, value := range map[string]float64{
		"rms":                feat.RMS,
		"peak":               feat.Peak,
		"crest_factor":       feat.CrestFactor,
		"kurtosis":           feat.Kurtosis,
		"skewness":           feat.Skewness,
		"dominant_frequency": feat.DominantFrequencyHz,
		"spectral_energy":    feat.SpectralEnergy,
	} {
		if value != 0 {
			t.Fatalf("%s = %v, want 0", name, value)
		}
	}
}

func TestExtractEmptySignal(t *testing.T) {
	ext := newExtractor(t, features.DefaultOptions())
	feat, err := ext.Extract(nil, 12000, nil, nil)
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if !reflect.DeepEqual(feat, episode.VibrationFeatures{}) {
		t.Fatalf("expected zero record, got %+v", feat)
	}
}

func TestExtractSinusoidDominantFrequency(t *testing.T) {
	const (
		rate = 1000.0
		freq = 50.0
		n    = 1000
	)
	for _, window := range []features.Window{features.WindowHann, features.WindowHamming, features.WindowNone} {
		t.Run(string(window), func(t *testing.T) {
			opts := features.DefaultOptions()
			opts.Window = window
			ext := newExtractor(t, opts)
			feat, err := ext.Extract(sine(freq, rate, n, 1), rate, nil, nil)
			if err != nil {
				t.Fatalf("Extract returned error: %v", err)
			}
			binWidth := rate / 1024
			if math.Abs(feat.DominantFrequencyHz-freq) > binWidth {
				t.Fatalf("dominant frequency %v not within %v of %v", feat.DominantFrequencyHz, binWidth, freq)
			}
			if math.Abs(feat.RMS-1/math.Sqrt2) > 1e-3 {
				t.Fatalf("rms = %v, want about %v", feat.RMS, 1/math.Sqrt2)
			}
			if math.Abs(feat.CrestFactor-math.Sqrt2) > 1e-2 {
				t.Fatalf("crest factor = %v, want about sqrt(2)", feat.CrestFactor)
			}
			if len(feat.FFTFrequencies) != 513 || len(feat.FFTMagnitudes) != 513 {
				t.Fatalf("expected 513 stored bins, got %d/%d", len(feat.FFTFrequencies), len(feat.FFTMagnitudes))
			}
		})
	}
}

func TestExtractIsPure(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	samples := make([]float64, 4096)
	for i := range samples {
		samples[i] = rng.NormFloat64()
	}
	before := append([]float64(nil), samples...)

	ext := newExtractor(t, features.DefaultOptions())
	rpm := 1797.0
	geom, _ := features.LookupBearing("6205")
	first, err := ext.Extract(samples, 12000, &rpm, &geom)
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	second, err := ext.Extract(samples, 12000, &rpm, &geom)
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatal("repeated extraction produced different output")
	}
	if !reflect.DeepEqual(samples, before) {
		t.Fatal("Extract mutated its input")
	}
}

func TestExtractGaussianKurtosisUsesPopulationConvention(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	samples := make([]float64, 50000)
	for i := range samples {
		samples[i] = rng.NormFloat64()
	}
	ext := newExtractor(t, features.DefaultOptions())
	feat, err := ext.Extract(samples, 12000, nil, nil)
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if math.Abs(feat.Kurtosis-3) > 0.15 {
		t.Fatalf("kurtosis = %v, want about 3", feat.Kurtosis)
	}
	if math.Abs(feat.Skewness) > 0.1 {
		t.Fatalf("skewness = %v, want about 0", feat.Skewness)
	}
	if math.Abs(feat.Mean) > 1e-9 {
		t.Fatalf("mean after DC removal = %v", feat.Mean)
	}
}

func TestExtractShortSignalSkipsSpectrum(t *testing.T) {
	ext := newExtractor(t, features.DefaultOptions())
	feat, err := ext.Extract([]float64{1, -1, 2, -2, 1, -1, 2, -2, 1, -1}, 100, nil, nil)
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if feat.RMS == 0 {
		t.Fatal("expected time-domain features")
	}
	if feat.SpectralEnergy != 0 || len(feat.FFTMagnitudes) != 0 {
		t.Fatal("expected no spectrum for ten samples")
	}
}

func TestExtractRejectsBadInput(t *testing.T) {
	ext := newExtractor(t, features.DefaultOptions())

	_, err := ext.Extract([]float64{1, math.NaN(), 3}, 100, nil, nil)
	if !errors.Is(err, features.ErrNonFiniteSample) || !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected non-finite sample error, got %v", err)
	}
	_, err = ext.Extract([]float64{1, math.Inf(1)}, 100, nil, nil)
	if !errors.Is(err, features.ErrNonFiniteSample) {
		t.Fatalf("expected non-finite sample error for Inf, got %v", err)
	}
	_, err = ext.Extract([]float64{1, 2, 3}, 0, nil, nil)
	if !errors.Is(err, features.ErrInvalidSamplingRate) {
		t.Fatalf("expected invalid sampling rate error, got %v", err)
	}
}

func TestExtractSpectrumSizing(t *testing.T) {
	samples := sine(60, 1000, 1000, 1)

	opts := features.DefaultOptions()
	opts.FFTSize = 256
	feat, err := newExtractor(t, opts).Extract(samples, 1000, nil, nil)
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if len(feat.FFTMagnitudes) != 129 {
		t.Fatalf("expected 129 bins for a 256-point transform, got %d", len(feat.FFTMagnitudes))
	}

	opts = features.DefaultOptions()
	opts.MaxSpectrumPoints = 50
	feat, err = newExtractor(t, opts).Extract(samples, 1000, nil, nil)
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if len(feat.FFTMagnitudes) != 50 {
		t.Fatalf("expected spectrum capped at 50 bins, got %d", len(feat.FFTMagnitudes))
	}
	if math.Abs(feat.DominantFrequencyHz-60) > 1000.0/1024 {
		t.Fatalf("dominant frequency should use the full spectrum, got %v", feat.DominantFrequencyHz)
	}
}

func TestExtractBearingAmplitudes(t *testing.T) {
	const rate = 12000.0
	rpm := 1800.0
	geom, ok := features.LookupBearing("6205")
	if !ok {
		t.Fatal("expected 6205 in catalog")
	}
	freqs := geom.FaultFrequencies(rpm)
	samples := sine(freqs.BPFI, rate, 12000, 1)

	ext := newExtractor(t, features.DefaultOptions())
	feat, err := ext.Extract(samples, rate, &rpm, &geom)
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if feat.BPFIAmplitude < 0.1 {
		t.Fatalf("expected strong BPFI amplitude, got %v", feat.BPFIAmplitude)
	}
	if feat.BPFIAmplitude < 10*feat.BPFOAmplitude {
		t.Fatalf("BPFI %v should dominate BPFO %v", feat.BPFIAmplitude, feat.BPFOAmplitude)
	}

	withoutSpeed, err := ext.Extract(samples, rate, nil, &geom)
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if withoutSpeed.BPFIAmplitude != 0 || withoutSpeed.BPFOAmplitude != 0 {
		t.Fatal("bearing amplitudes need rotational speed")
	}

	opts := features.DefaultOptions()
	opts.MaxSpectrumPoints = 10
	truncated, err := newExtractor(t, opts).Extract(samples, rate, &rpm, &geom)
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if truncated.BPFIAmplitude != 0 {
		t.Fatalf("fault frequency beyond stored spectrum should read 0, got %v", truncated.BPFIAmplitude)
	}
}

func TestNewRejectsInvalidOptions(t *testing.T) {
	cases := []features.Options{
		{Window: "kaiser"},
		{FFTSize: -1},
		{MaxSpectrumPoints: -5},
		{ToleranceBins: -1},
	}
	for _, opts := range cases {
		if _, err := features.New(opts); !errors.Is(err, services.ErrConfiguration) {
			t.Fatalf("New(%+v) = %v, want configuration error", opts, err)
		}
	}
	ext, err := features.New(features.Options{Window: "Rectangular"})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if ext.Options().Window != features.WindowNone || ext.Options().MaxSpectrumPoints != features.DefaultMaxSpectrumPoints {
		t.Fatalf("unexpected effective options: %+v", ext.Options())
	}
}

func TestExtractLargeFiniteSamplesStayFinite(t *testing.T) {
	ext := newExtractor(t, features.DefaultOptions())
	for _, amplitude := range []float64{1e200, math.MaxFloat64 / 2} {
		samples := make([]float64, 2048)
		for i := range samples {
			samples[i] = amplitude
			if i%2 == 1 {
				samples[i] = -amplitude
			}
		}
		feat, err := ext.Extract(samples, 12000, nil, nil)
		if err != nil {
			t.Fatalf("Extract(%g) returned error: %v", amplitude, err)
		}
		for name, value := range feat.Scalars() {
			if math.IsNaN(value) || math.IsInf(value, 0) {
				t.Fatalf("amplitude %g: %s = %v, want finite", amplitude, name, value)
			}
		}
		for k, m := range feat.FFTMagnitudes {
			if math.IsInf(float64(m), 0) || math.IsNaN(float64(m)) {
				t.Fatalf("amplitude %g: magnitude %d = %v", amplitude, k, m)
			}
		}
		if _, err := json.Marshal(feat); err != nil {
			t.Fatalf("amplitude %g: features do not encode: %v", amplitude, err)
		}
		if feat.CrestFactor < 0.99 || feat.CrestFactor > 1.01 {
			t.Fatalf("amplitude %g: square wave crest factor = %v, want 1", amplitude, feat.CrestFactor)
		}
	}

	small := sine(50, 1000, 1000, 1)
	large := sine(50, 1000, 1000, 1e200)
	a, _ := ext.Extract(small, 1000, nil, nil)
	b, _ := ext.Extract(large, 1000, nil, nil)
	if math.Abs(b.RMS/1e200-a.RMS) > 1e-9 || math.Abs(a.Kurtosis-b.Kurtosis) > 1e-9 {
		t.Fatalf("scaling changed shape features: %+v vs %+v", a.RMS, b.RMS)
	}
}
