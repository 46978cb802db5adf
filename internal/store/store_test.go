package store_test

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"slices"
	"testing"

	"factorynet/internal/episode"
	"factorynet/internal/logging"
	"factorynet/internal/normalizer"
	"factorynet/internal/pipeline"
	"factorynet/internal/services"
	"factorynet/internal/store"
	"factorynet/internal/testsupport"
	"factorynet/internal/validation"
)

func normalized(t *testing.T, rawID string) *episode.Episode {
	t.Helper()
	n, err := normalizer.New(normalizer.DefaultOptions(), logging.NewNop())
	if err != nil {
		t.Fatalf("normalizer.New: %v", err)
	}
	ep, err := n.Normalize(testsupport.RawEpisode(t, rawID), "")
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	return ep
}

func TestOpenAppliesMigrations(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	s := testsupport.MustOpenStore(t, cfg)

	applied, err := s.AppliedMigrations(context.Background())
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}
	if !slices.Equal(applied, []string{"0001_episodes", "0002_validation_reports"}) {
		t.Fatalf("applied = %v", applied)
	}
	if s.Path() != cfg.StorePath() {
		t.Fatalf("path = %s, want %s", s.Path(), cfg.StorePath())
	}
}

func TestOpenHoldsProcessLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "episodes.db")
	first, err := store.OpenPath(context.Background(), path)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	if _, err := store.OpenPath(context.Background(), path); !errors.Is(err, store.ErrLocked) {
		t.Fatalf("second open should be locked out, got %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	again, err := store.OpenPath(context.Background(), path)
	if err != nil {
		t.Fatalf("reopen after close: %v", err)
	}
	defer again.Close()

	applied, _ := again.AppliedMigrations(context.Background())
	if len(applied) != 2 {
		t.Fatalf("migrations reapplied or lost: %v", applied)
	}
}

func TestSaveAndLoadEpisode(t *testing.T) {
	s := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	ep := normalized(t, "IR007_0")
	ep.Steps[5].Values["vibration_de"] = math.NaN()
	qa := []pipeline.QAPair{{Question: "What fault?", Answer: "Inner race", QuestionType: "fault_identification"}}
	if err := s.SaveEpisode(ctx, ep, qa); err != nil {
		t.Fatalf("SaveEpisode: %v", err)
	}

	got, err := s.LoadEpisode(ctx, "cwru_bearing", ep.EpisodeID)
	if err != nil {
		t.Fatalf("LoadEpisode: %v", err)
	}
	if got.Metadata.EpisodeID != ep.EpisodeID || got.Metadata.NumTimesteps != 12000 {
		t.Fatalf("metadata = %+v", got.Metadata)
	}
	if got.Metadata.State.Code != "S.flt.mec.wea.bea.inn" {
		t.Fatalf("state = %+v", got.Metadata.State)
	}
	if _, ok := got.Features["vibration_de"]; !ok {
		t.Fatalf("features not stored: %v", got.Features)
	}
	if got.Priors == nil || got.Priors.MachineType == "" {
		t.Fatalf("priors not stored: %+v", got.Priors)
	}
	if len(got.QA) != 1 || got.QA[0].Answer != "Inner race" {
		t.Fatalf("qa = %+v", got.QA)
	}
	if len(got.Channels) != 1 || len(got.Channels[0].Values) != 12000 {
		t.Fatalf("channels not stored aligned")
	}
	if got.Channels[0].Values[5] != nil {
		t.Fatal("NaN cell should be stored as null")
	}
	if v := got.Channels[0].Values[3]; v == nil || *v != ep.Steps[3].Values["vibration_de"] {
		t.Fatal("sample value did not round trip")
	}
	if got.Channels[0].Unit != "g" {
		t.Fatalf("unit = %q", got.Channels[0].Unit)
	}
	if got.Metadata.RawMetadata.Len() != 2 {
		t.Fatalf("raw metadata = %v", got.Metadata.RawMetadata.Keys())
	}
}

func TestSaveEpisodeUpserts(t *testing.T) {
	s := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	ep := normalized(t, "IR007_0")
	if err := s.SaveEpisode(ctx, ep, nil); err != nil {
		t.Fatalf("first save: %v", err)
	}
	ep.State.Label = "Relabelled"
	if err := s.SaveEpisode(ctx, ep, []pipeline.QAPair{{Question: "q", Answer: "a"}}); err != nil {
		t.Fatalf("second save: %v", err)
	}

	list, err := s.ListEpisodes(ctx, "cwru_bearing")
	if err != nil {
		t.Fatalf("ListEpisodes: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("upsert duplicated rows: %+v", list)
	}
	if list[0].StateLabel != "Relabelled" || list[0].QAPairs != 1 {
		t.Fatalf("row not updated: %+v", list[0])
	}

	other := normalized(t, "B007_0")
	other.SourceDataset = "mafaulda"
	other.EpisodeID = ep.EpisodeID
	if err := s.SaveEpisode(ctx, other, nil); err != nil {
		t.Fatalf("save other dataset: %v", err)
	}
	all, _ := s.ListEpisodes(ctx, "")
	if len(all) != 2 || all[0].Dataset != "cwru_bearing" || all[1].Dataset != "mafaulda" {
		t.Fatalf("same ID in another dataset should be a separate row: %+v", all)
	}
	datasets, _ := s.Datasets(ctx)
	if !slices.Equal(datasets, []string{"cwru_bearing", "mafaulda"}) {
		t.Fatalf("datasets = %v", datasets)
	}
}

func TestDatasetStats(t *testing.T) {
	s := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	for i, id := range []string{"FN-ADAPTED-000001", "FN-ADAPTED-000002", "FN-ADAPTED-000003"} {
		ep := normalized(t, id)
		ep.EpisodeID = id
		if i == 2 {
			ep.State.Label = "Normal"
		}
		if err := s.SaveEpisode(ctx, ep, nil); err != nil {
			t.Fatalf("save %s: %v", id, err)
		}
	}
	stats, err := s.DatasetStats(ctx, "cwru_bearing")
	if err != nil {
		t.Fatalf("DatasetStats: %v", err)
	}
	if stats.Episodes != 3 || stats.StoredBytes <= 0 {
		t.Fatalf("stats = %+v", stats)
	}
	if stats.FaultDistribution["Inner Race (drive_end)"] != 2 || stats.FaultDistribution["Normal"] != 1 {
		t.Fatalf("distribution = %v", stats.FaultDistribution)
	}
	if math.Abs(stats.TotalDurationSeconds-3) > 1e-9 {
		t.Fatalf("duration = %v", stats.TotalDurationSeconds)
	}

	empty, err := s.DatasetStats(ctx, "unknown")
	if err != nil || empty.Episodes != 0 || empty.FaultDistribution == nil {
		t.Fatalf("empty stats = %+v, %v", empty, err)
	}
}

func TestValidationReportUpsert(t *testing.T) {
	s := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	if _, err := s.LoadValidationReport(ctx, "cwru_bearing"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("missing report: %v", err)
	}

	v, err := validation.New(validation.DefaultThresholds())
	if err != nil {
		t.Fatalf("validation.New: %v", err)
	}
	gen := validation.NewReportGenerator(v)
	ep := normalized(t, "IR007_0")
	first := gen.Generate([]*episode.Episode{ep}, "cwru_bearing")
	if err := s.SaveValidationReport(ctx, first, "cwru_bearing"); err != nil {
		t.Fatalf("save: %v", err)
	}
	second := gen.Generate([]*episode.Episode{ep, normalized(t, "IR007_1")}, "cwru_bearing")
	if err := s.SaveValidationReport(ctx, second, "cwru_bearing"); err != nil {
		t.Fatalf("save again: %v", err)
	}

	got, err := s.LoadValidationReport(ctx, "cwru_bearing")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.TotalEpisodes != 2 || len(got.EpisodeResults) != 2 || got.PassRate != 100 {
		t.Fatalf("report = %+v", got)
	}
	if err := s.SaveValidationReport(ctx, validation.Report{}, ""); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("nameless report: %v", err)
	}
}

func TestSaveEpisodeRejectsIncompleteIdentity(t *testing.T) {
	s := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	if err := s.SaveEpisode(context.Background(), nil, nil); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("nil episode: %v", err)
	}
	if err := s.SaveEpisode(context.Background(), &episode.Episode{EpisodeID: "x"}, nil); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("missing dataset: %v", err)
	}
}

func TestPipelineWritesThroughStore(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	s := testsupport.MustOpenStore(t, cfg)
	n, _ := normalizer.New(normalizer.DefaultOptions(), nil)
	v, _ := validation.New(validation.DefaultThresholds())
	p, err := pipeline.New(pipeline.Options{ValidateEpisodes: true}, pipeline.Dependencies{
		Normalizer: n, Validator: v, Storage: s,
	})
	if err != nil {
		t.Fatalf("pipeline.New: %v", err)
	}
	stats := p.Run(context.Background(), "cwru_bearing", pipeline.SliceSource([]episode.RawEpisode{
		testsupport.RawEpisode(t, "a"), testsupport.RawEpisode(t, "b"),
	}))
	if stats.EpisodesSaved != 2 || len(stats.Errors) != 0 {
		t.Fatalf("stats = %+v", stats)
	}
	report, err := s.LoadValidationReport(context.Background(), "cwru_bearing")
	if err != nil || report.ValidEpisodes != 2 {
		t.Fatalf("report = %+v, %v", report, err)
	}
}
