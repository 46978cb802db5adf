package services_test

import (
	"context"
	"testing"

	"factorynet/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "run-1")
	ctx = services.WithDataset(ctx, "cwru_bearing")
	ctx = services.WithRawID(ctx, "97_DE")
	ctx = services.WithEpisodeID(ctx, "FN-ADAPTED-000001")
	ctx = services.WithStage(ctx, "normalize")

	if id, ok := services.RunIDFromContext(ctx); !ok || id != "run-1" {
		t.Fatalf("unexpected run id: %v %v", id, ok)
	}
	if ds, ok := services.DatasetFromContext(ctx); !ok || ds != "cwru_bearing" {
		t.Fatalf("unexpected dataset: %v %v", ds, ok)
	}
	if raw, ok := services.RawIDFromContext(ctx); !ok || raw != "97_DE" {
		t.Fatalf("unexpected raw id: %v %v", raw, ok)
	}
	if ep, ok := services.EpisodeIDFromContext(ctx); !ok || ep != "FN-ADAPTED-000001" {
		t.Fatalf("unexpected episode id: %v %v", ep, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "normalize" {
		t.Fatalf("unexpected stage: %v %v", stage, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithStage(ctx, "")
	ctx = services.WithRawID(ctx, "")
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("expected no stage value")
	}
	if _, ok := services.RawIDFromContext(ctx); ok {
		t.Fatal("expected no raw id value")
	}
}
