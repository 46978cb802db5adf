package episode_test

import (
	"errors"
	"testing"

	"factorynet/internal/episode"
	"factorynet/internal/services"
)

func TestNewSensorChannelValidates(t *testing.T) {
	samples := []float64{1, 2, 3}
	ch, err := episode.NewSensorChannel("de", "drive_end", "g", samples, 12000)
	if err != nil {
		t.Fatalf("NewSensorChannel returned error: %v", err)
	}
	samples[0] = 99
	if ch.Samples[0] != 1 {
		t.Fatal("channel should own a copy of its samples")
	}

	cases := []struct {
		name    string
		samples []float64
		rate    float64
	}{
		{"empty", nil, 12000},
		{"zero rate", []float64{1}, 0},
		{"negative rate", []float64{1}, -5},
	}
	for _, tc := range cases {
		_, err := episode.NewSensorChannel("x", "x", "g", tc.samples, tc.rate)
		if !errors.Is(err, services.ErrValidation) {
			t.Fatalf("%s: expected validation error, got %v", tc.name, err)
		}
	}
}

func TestEffectiveDurationFallsBackToFirstChannel(t *testing.T) {
	raw := episode.RawEpisode{
		Channels: []episode.SensorChannel{
			{Name: "a", Samples: make([]float64, 6000), SamplingRateHz: 12000},
			{Name: "b", Samples: make([]float64, 48000), SamplingRateHz: 12000},
		},
	}
	if got := raw.EffectiveDuration(); got != 0.5 {
		t.Fatalf("EffectiveDuration = %v, want 0.5", got)
	}
	raw.DurationSeconds = 10
	if got := raw.EffectiveDuration(); got != 10 {
		t.Fatalf("stated duration should win, got %v", got)
	}
	if raw.NumSamples() != 54000 {
		t.Fatalf("NumSamples = %d", raw.NumSamples())
	}
}

func TestChecksumStableAndSensitive(t *testing.T) {
	build := func(last float64) episode.RawEpisode {
		samples := make([]float64, 500)
		samples[len(samples)-1] = last
		return episode.RawEpisode{
			RawID:         "97",
			SourceDataset: "cwru_bearing",
			Channels:      []episode.SensorChannel{{Name: "de", Samples: samples, SamplingRateHz: 12000}},
		}
	}
	a, b, c := build(1), build(1), build(2)
	if a.Checksum() != b.Checksum() {
		t.Fatal("identical episodes should share a checksum")
	}
	if a.Checksum() == c.Checksum() {
		t.Fatal("tail sample change should alter checksum")
	}
	if len(a.Checksum()) != 32 {
		t.Fatalf("expected hex md5, got %q", a.Checksum())
	}
}

func TestMetadataDocumentCountsSteps(t *testing.T) {
	ep := &episode.Episode{
		EpisodeID: "FN-ADAPTED-000001",
		Steps:     make([]episode.Step, 3),
		CauseCode: "C.tes.art",
		Features: map[string]episode.VibrationFeatures{
			"de": {RMS: 1.5, FFTMagnitudes: []float32{1}},
		},
	}
	doc := ep.MetadataDocument()
	if doc.NumTimesteps != 3 {
		t.Fatalf("NumTimesteps = %d", doc.NumTimesteps)
	}
	if doc.CauseCode == nil || *doc.CauseCode != "C.tes.art" {
		t.Fatalf("unexpected cause code: %v", doc.CauseCode)
	}
	if doc.ChannelNames == nil || doc.State.Symptoms == nil {
		t.Fatal("expected empty slices rather than nil for JSON output")
	}
	feats := ep.FeaturesDocument()
	if feats["de"]["rms"] != 1.5 {
		t.Fatalf("unexpected features document: %v", feats)
	}
	if _, ok := feats["de"]["fft_magnitudes"]; ok {
		t.Fatal("features document should omit the spectrum")
	}
}
