package storage

import (
	"context"
	"testing"

	"dendron/internal/model"
)

func versioned() model.VersionedRecord {
	return model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion}
}

func TestMemoryStoreScapeSummaryRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	if _, ok, err := store.GetScapeSummary(ctx, "quadratic"); err != nil || ok {
		t.Fatalf("expected missing summary, got ok=%v err=%v", ok, err)
	}

	summary := model.ScapeSummary{
		VersionedRecord: versioned(),
		Name:            "quadratic",
		Description:     "test",
		BestFitness:     1.5,
		BestRunID:       "run-1",
		Runs:            2,
	}
	if err := store.SaveScapeSummary(ctx, summary); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, ok, err := store.GetScapeSummary(ctx, "quadratic")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if got != summary {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestMemoryStoreFitnessHistoryIsCopied(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	history := []float64{5, 3, 1}
	if err := store.SaveFitnessHistory(ctx, "run-1", history); err != nil {
		t.Fatalf("save: %v", err)
	}
	history[0] = 99

	got, ok, err := store.GetFitnessHistory(ctx, "run-1")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if got[0] != 5 {
		t.Fatal("store aliased the caller's history slice")
	}
	got[1] = 99
	again, _, _ := store.GetFitnessHistory(ctx, "run-1")
	if again[1] != 3 {
		t.Fatal("store returned an aliased history slice")
	}
}

func TestMemoryStoreChampionAndTop(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	champion := model.Individual{
		VersionedRecord: versioned(),
		Expression:      "(ADD 2 3)",
		Fitness:         0,
		NodeCount:       3,
		Depth:           1,
	}
	if err := store.SaveChampion(ctx, "run-1", champion); err != nil {
		t.Fatalf("save champion: %v", err)
	}
	got, ok, err := store.GetChampion(ctx, "run-1")
	if err != nil || !ok {
		t.Fatalf("get champion: ok=%v err=%v", ok, err)
	}
	if got != champion {
		t.Fatalf("champion mismatch: %+v", got)
	}

	top := []model.TopIndividualRecord{{Rank: 1, Fitness: 0, Individual: champion}}
	if err := store.SaveTopIndividuals(ctx, "run-1", top); err != nil {
		t.Fatalf("save top: %v", err)
	}
	gotTop, ok, err := store.GetTopIndividuals(ctx, "run-1")
	if err != nil || !ok {
		t.Fatalf("get top: ok=%v err=%v", ok, err)
	}
	if len(gotTop) != 1 || gotTop[0].Rank != 1 || gotTop[0].Individual != champion {
		t.Fatalf("top mismatch: %+v", gotTop)
	}
}

func TestMemoryStoreListRuns(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	if err := store.SaveFitnessHistory(ctx, "run-b", []float64{1}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.SaveChampion(ctx, "run-a", model.Individual{VersionedRecord: versioned()}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.SaveGenerationDiagnostics(ctx, "run-b", []model.GenerationDiagnostics{{Generation: 1}}); err != nil {
		t.Fatalf("save: %v", err)
	}

	runs, err := store.ListRuns(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 2 || runs[0] != "run-a" || runs[1] != "run-b" {
		t.Fatalf("runs: %v", runs)
	}
}

func TestMemoryStoreReset(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := store.SaveFitnessHistory(ctx, "run-1", []float64{1}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if _, ok, _ := store.GetFitnessHistory(ctx, "run-1"); ok {
		t.Fatal("reset left records behind")
	}
}
