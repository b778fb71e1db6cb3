package services_test

import (
	"context"
	"testing"

	"gdcmeta/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "run-42")
	ctx = services.WithRecordID(ctx, "0003c9fa-6e97-4fc7-8405-be4be66bf914")
	ctx = services.WithStage(ctx, "legacy")
	ctx = services.WithWorkflow(ctx, "gen-recs")

	if id, ok := services.RunIDFromContext(ctx); !ok || id != "run-42" {
		t.Fatalf("unexpected run id: %v %v", id, ok)
	}
	if id, ok := services.RecordIDFromContext(ctx); !ok || id != "0003c9fa-6e97-4fc7-8405-be4be66bf914" {
		t.Fatalf("unexpected record id: %v %v", id, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "legacy" {
		t.Fatalf("unexpected stage: %v %v", stage, ok)
	}
	if wf, ok := services.WorkflowFromContext(ctx); !ok || wf != "gen-recs" {
		t.Fatalf("unexpected workflow: %v %v", wf, ok)
	}
}

func TestStageBlankPreservesContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithStage(ctx, "")
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("expected no stage value")
	}
	ctx = services.WithRunID(ctx, "")
	if _, ok := services.RunIDFromContext(ctx); ok {
		t.Fatal("expected no run id value")
	}
}
