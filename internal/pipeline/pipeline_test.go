package pipeline_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"factorynet/internal/episode"
	"factorynet/internal/logging"
	"factorynet/internal/normalizer"
	"factorynet/internal/pipeline"
	"factorynet/internal/services"
	"factorynet/internal/testsupport"
	"factorynet/internal/validation"
)

type memoryStorage struct {
	episodes map[string]*episode.Episode
	qa       map[string][]pipeline.QAPair
	reports  map[string]validation.Report
	failOn   string
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{
		episodes: map[string]*episode.Episode{},
		qa:       map[string][]pipeline.QAPair{},
		reports:  map[string]validation.Report{},
	}
}

func (m *memoryStorage) SaveEpisode(_ context.Context, ep *episode.Episode, qa []pipeline.QAPair) error {
	if m.failOn != "" && strings.HasSuffix(ep.MachineInstance, m.failOn) {
		return errors.New("disk full")
	}
	key := ep.SourceDataset + "/" + ep.EpisodeID
	m.episodes[key] = ep
	m.qa[key] = qa
	return nil
}

func (m *memoryStorage) SaveValidationReport(_ context.Context, report validation.Report, dataset string) error {
	m.reports[dataset] = report
	return nil
}

type stubQA struct{}

func (stubQA) Generate(_ context.Context, ep *episode.Episode) ([]pipeline.QAPair, error) {
	return []pipeline.QAPair{
		{Question: "What fault is present?", Answer: ep.State.Label, QuestionType: "fault_identification"},
		{Question: "How severe is it?", Answer: "moderate", QuestionType: "severity_assessment"},
	}, nil
}

type panickingNormalizer struct{}

func (panickingNormalizer) Normalize(episode.RawEpisode, string) (*episode.Episode, error) {
	panic("index out of range")
}

func newPipeline(t *testing.T, opts pipeline.Options, storage pipeline.Storage, mutate ...func(*pipeline.Dependencies)) *pipeline.Pipeline {
	t.Helper()
	norm, err := normalizer.New(normalizer.DefaultOptions(), logging.NewNop())
	if err != nil {
		t.Fatalf("normalizer.New: %v", err)
	}
	v, err := validation.New(validation.DefaultThresholds())
	if err != nil {
		t.Fatalf("validation.New: %v", err)
	}
	deps := pipeline.Dependencies{
		Normalizer: norm,
		Validator:  v,
		QA:         stubQA{},
		Storage:    storage,
		Logger:     logging.NewNop(),
	}
	for _, fn := range mutate {
		fn(&deps)
	}
	p, err := pipeline.New(opts, deps)
	if err != nil {
		t.Fatalf("pipeline.New: %v", err)
	}
	return p
}

func defaultOptions() pipeline.Options {
	return pipeline.Options{ValidateEpisodes: true, GenerateQA: true}
}

func TestRunIsolatesMalformedEpisode(t *testing.T) {
	storage := newMemoryStorage()
	p := newPipeline(t, defaultOptions(), storage)

	source := pipeline.SliceSource([]episode.RawEpisode{
		testsupport.RawEpisode(t, "IR007_0"),
		testsupport.MalformedRawEpisode("broken"),
	})
	stats := p.Run(context.Background(), "cwru_bearing", source)

	if stats.RawEpisodesProcessed != 2 {
		t.Fatalf("raw processed = %d, want 2", stats.RawEpisodesProcessed)
	}
	if stats.EpisodesNormalized != 1 {
		t.Fatalf("normalized = %d, want 1", stats.EpisodesNormalized)
	}
	if len(stats.Errors) != 1 || !strings.HasPrefix(stats.Errors[0], "broken: ") {
		t.Fatalf("errors = %v", stats.Errors)
	}
	if stats.EpisodesSaved != 1 || stats.EpisodesPassed != 1 || stats.QAPairsGenerated != 2 {
		t.Fatalf("unexpected counters %+v", stats)
	}
	if stats.PassRate() != 100 {
		t.Fatalf("pass rate = %v", stats.PassRate())
	}
	if stats.RunID == "" || stats.CompletedAt.IsZero() {
		t.Fatalf("run identity not stamped: %+v", stats)
	}
	if _, ok := storage.episodes["cwru_bearing/FN-ADAPTED-000001"]; !ok {
		t.Fatalf("episode not stored: %v", storage.episodes)
	}
	report, ok := storage.reports["cwru_bearing"]
	if !ok || report.TotalEpisodes != 1 || report.ValidEpisodes != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestRunDropsInvalidEpisodesOutsideDemoMode(t *testing.T) {
	// The second channel covers a quarter of the reference length, so sensor
	// completeness lands well under the gate.
	gappy := episode.RawEpisode{
		RawID:         "gappy",
		SourceDataset: "cwru_bearing",
		Channels: []episode.SensorChannel{
			testsupport.SineChannel(t, "vibration_de", 30, 1000, 200),
			testsupport.SineChannel(t, "vibration_fe", 30, 1000, 50),
		},
		FaultType: episode.FaultNormal,
		Severity:  episode.SeverityHealthy,
	}

	storage := newMemoryStorage()
	stats := newPipeline(t, defaultOptions(), storage).Run(context.Background(), "cwru_bearing",
		pipeline.SliceSource([]episode.RawEpisode{gappy, testsupport.RawEpisode(t, "ok")}))
	if stats.EpisodesFailed != 1 || stats.EpisodesDropped != 1 || stats.EpisodesSaved != 1 {
		t.Fatalf("unexpected counters %+v", stats)
	}
	if len(stats.Errors) != 0 {
		t.Fatalf("dropped episodes are not errors: %v", stats.Errors)
	}
	if stats.PassRate() != 50 {
		t.Fatalf("pass rate = %v", stats.PassRate())
	}

	storage = newMemoryStorage()
	demo := defaultOptions()
	demo.DemoMode = true
	demo.DemoLimit = 5
	stats = newPipeline(t, demo, storage).Run(context.Background(), "cwru_bearing",
		pipeline.SliceSource([]episode.RawEpisode{gappy}))
	if stats.EpisodesDropped != 0 || stats.EpisodesSaved != 1 {
		t.Fatalf("demo mode should keep invalid episodes: %+v", stats)
	}
	if storage.reports["cwru_bearing"].InvalidEpisodes != 1 {
		t.Fatalf("report should include the invalid saved episode: %+v", storage.reports["cwru_bearing"])
	}
}

func TestRunHonoursDemoLimit(t *testing.T) {
	opts := pipeline.Options{DemoMode: true, DemoLimit: 2}
	pulled := 0
	source := pipeline.SourceFunc(func(context.Context) (episode.RawEpisode, bool, error) {
		pulled++
		raw := testsupport.RawEpisode(t, "endless")
		return raw, true, nil
	})
	storage := newMemoryStorage()
	stats := newPipeline(t, opts, storage).Run(context.Background(), "cwru_bearing", source)
	if stats.RawEpisodesProcessed != 2 || pulled != 2 {
		t.Fatalf("processed %d, pulled %d; want 2", stats.RawEpisodesProcessed, pulled)
	}
	if len(storage.reports) != 0 {
		t.Fatal("no report expected when validation is off")
	}
	if stats.EpisodesValidated != 0 || stats.QAPairsGenerated != 0 {
		t.Fatalf("disabled stages ran: %+v", stats)
	}
}

func TestRunRecoversFromPanics(t *testing.T) {
	storage := newMemoryStorage()
	p := newPipeline(t, defaultOptions(), storage, func(d *pipeline.Dependencies) {
		d.Normalizer = panickingNormalizer{}
	})
	stats := p.Run(context.Background(), "cwru_bearing",
		pipeline.SliceSource([]episode.RawEpisode{testsupport.RawEpisode(t, "p1"), testsupport.RawEpisode(t, "p2")}))
	if stats.RawEpisodesProcessed != 2 || len(stats.Errors) != 2 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if !strings.Contains(stats.Errors[0], "normalize: panic: index out of range") {
		t.Fatalf("panic not attributed: %q", stats.Errors[0])
	}
}

func TestRunRecordsStorageAndSourceErrors(t *testing.T) {
	storage := newMemoryStorage()
	storage.failOn = "_bad"
	calls := 0
	source := pipeline.SourceFunc(func(context.Context) (episode.RawEpisode, bool, error) {
		calls++
		switch calls {
		case 1:
			return testsupport.RawEpisode(t, "bad"), true, nil
		case 2:
			return testsupport.RawEpisode(t, "good"), true, nil
		default:
			return episode.RawEpisode{}, false, errors.New("truncated archive")
		}
	})
	stats := newPipeline(t, defaultOptions(), storage).Run(context.Background(), "cwru_bearing", source)
	if len(stats.Errors) != 2 {
		t.Fatalf("errors = %v", stats.Errors)
	}
	if !strings.Contains(stats.Errors[0], "disk full") {
		t.Fatalf("storage error missing: %q", stats.Errors[0])
	}
	if stats.Errors[1] != "source: truncated archive" || stats.StopReason != "source error" {
		t.Fatalf("source error not recorded: %v / %q", stats.Errors, stats.StopReason)
	}
	if stats.EpisodesSaved != 1 {
		t.Fatalf("saved = %d, want 1", stats.EpisodesSaved)
	}
}

func TestRunStopsOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	storage := newMemoryStorage()
	source := pipeline.SourceFunc(func(context.Context) (episode.RawEpisode, bool, error) {
		cancel()
		return testsupport.RawEpisode(t, "last"), true, nil
	})
	stats := newPipeline(t, defaultOptions(), storage).Run(ctx, "cwru_bearing", source)
	if stats.RawEpisodesProcessed != 1 {
		t.Fatalf("processed = %d, want 1", stats.RawEpisodesProcessed)
	}
	if !strings.HasPrefix(stats.StopReason, "cancelled") {
		t.Fatalf("stop reason = %q", stats.StopReason)
	}
	if _, ok := storage.reports["cwru_bearing"]; !ok {
		t.Fatal("report should still be written after cancellation")
	}
}

func TestRunManyAndMetrics(t *testing.T) {
	storage := newMemoryStorage()
	metrics := pipeline.NewMetrics()
	p := newPipeline(t, defaultOptions(), storage, func(d *pipeline.Dependencies) { d.Metrics = metrics })

	all := p.RunMany(context.Background(), []pipeline.DatasetSource{
		{Name: "cwru_bearing", Source: pipeline.SliceSource([]episode.RawEpisode{testsupport.RawEpisode(t, "a")})},
		{Name: "mafaulda", Source: pipeline.SliceSource([]episode.RawEpisode{testsupport.MalformedRawEpisode("b")})},
		{Name: "missing"},
	})
	if len(all) != 2 || all["cwru_bearing"].EpisodesSaved != 1 || len(all["mafaulda"].Errors) != 1 {
		t.Fatalf("unexpected run results %+v", all)
	}

	families, err := metrics.Registry().Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	found := map[string]bool{}
	for _, mf := range families {
		found[mf.GetName()] = true
	}
	for _, name := range []string{"factorynet_episodes_total", "factorynet_episode_errors_total", "factorynet_qa_pairs_total", "factorynet_run_duration_seconds"} {
		if !found[name] {
			t.Fatalf("metric %s not exported; got %v", name, found)
		}
	}

	path := filepath.Join(t.TempDir(), "metrics", "factorynet.prom")
	if err := metrics.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	if !strings.Contains(string(data), `factorynet_episodes_total{dataset="cwru_bearing",outcome="saved"} 1`) {
		t.Fatalf("textfile missing saved counter:\n%s", data)
	}
}

func TestStatsJSON(t *testing.T) {
	p := newPipeline(t, defaultOptions(), newMemoryStorage())
	stats := p.Run(context.Background(), "cwru_bearing",
		pipeline.SliceSource([]episode.RawEpisode{testsupport.RawEpisode(t, "a")}))
	data, err := json.Marshal(stats)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"run_id", "raw_episodes_processed", "episodes_saved", "pass_rate", "duration_seconds", "avg_quality_score", "errors"} {
		if _, ok := decoded[key]; !ok {
			t.Fatalf("stats JSON missing %q: %s", key, data)
		}
	}
	if decoded["pass_rate"] != float64(100) {
		t.Fatalf("pass_rate = %v", decoded["pass_rate"])
	}
}

func TestNewRequiresCollaborators(t *testing.T) {
	norm, _ := normalizer.New(normalizer.DefaultOptions(), nil)
	cases := []struct {
		opts pipeline.Options
		deps pipeline.Dependencies
	}{
		{pipeline.Options{}, pipeline.Dependencies{Storage: newMemoryStorage()}},
		{pipeline.Options{}, pipeline.Dependencies{Normalizer: norm}},
		{pipeline.Options{ValidateEpisodes: true}, pipeline.Dependencies{Normalizer: norm, Storage: newMemoryStorage()}},
		{pipeline.Options{GenerateQA: true}, pipeline.Dependencies{Normalizer: norm, Storage: newMemoryStorage()}},
		{pipeline.Options{DemoMode: true}, pipeline.Dependencies{Normalizer: norm, Storage: newMemoryStorage()}},
	}
	for i, tc := range cases {
		if _, err := pipeline.New(tc.opts, tc.deps); !errors.Is(err, services.ErrConfiguration) {
			t.Fatalf("case %d: expected configuration error, got %v", i, err)
		}
	}
}
