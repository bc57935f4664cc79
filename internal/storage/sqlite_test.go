//go:build sqlite

package storage

import (
	"context"
	"path/filepath"
	"testing"

	"dendron/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "dendron.db"))
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStoreRoundTrips(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	summary := model.ScapeSummary{VersionedRecord: versioned(), Name: "quadratic", BestFitness: 2, Runs: 1}
	if err := store.SaveScapeSummary(ctx, summary); err != nil {
		t.Fatalf("save summary: %v", err)
	}
	gotSummary, ok, err := store.GetScapeSummary(ctx, "quadratic")
	if err != nil || !ok {
		t.Fatalf("get summary: ok=%v err=%v", ok, err)
	}
	if gotSummary != summary {
		t.Fatalf("summary mismatch: %+v", gotSummary)
	}

	if err := store.SaveFitnessHistory(ctx, "run-1", []float64{9, 4, 2}); err != nil {
		t.Fatalf("save history: %v", err)
	}
	history, ok, err := store.GetFitnessHistory(ctx, "run-1")
	if err != nil || !ok {
		t.Fatalf("get history: ok=%v err=%v", ok, err)
	}
	if len(history) != 3 || history[2] != 2 {
		t.Fatalf("history mismatch: %v", history)
	}

	champion := model.Individual{VersionedRecord: versioned(), Expression: "(ADD 2 3)", NodeCount: 3, Depth: 1}
	if err := store.SaveChampion(ctx, "run-1", champion); err != nil {
		t.Fatalf("save champion: %v", err)
	}
	gotChampion, ok, err := store.GetChampion(ctx, "run-1")
	if err != nil || !ok {
		t.Fatalf("get champion: ok=%v err=%v", ok, err)
	}
	if gotChampion != champion {
		t.Fatalf("champion mismatch: %+v", gotChampion)
	}
}

func TestSQLiteStoreUpsertsRunRecords(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	if err := store.SaveFitnessHistory(ctx, "run-1", []float64{5}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.SaveFitnessHistory(ctx, "run-1", []float64{5, 1}); err != nil {
		t.Fatalf("resave: %v", err)
	}
	history, ok, err := store.GetFitnessHistory(ctx, "run-1")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if len(history) != 2 || history[1] != 1 {
		t.Fatalf("history mismatch after upsert: %v", history)
	}
}

func TestSQLiteStoreListRunsAndReset(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	if err := store.SaveFitnessHistory(ctx, "run-b", []float64{1}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.SaveChampion(ctx, "run-a", model.Individual{VersionedRecord: versioned()}); err != nil {
		t.Fatalf("save: %v", err)
	}

	runs, err := store.ListRuns(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 2 || runs[0] != "run-a" || runs[1] != "run-b" {
		t.Fatalf("runs: %v", runs)
	}

	if err := store.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}
	runs, err = store.ListRuns(ctx)
	if err != nil {
		t.Fatalf("list after reset: %v", err)
	}
	if len(runs) != 0 {
		t.Fatalf("expected no runs after reset, got %v", runs)
	}
}

func TestSQLiteStoreRequiresInit(t *testing.T) {
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "dendron.db"))
	if _, _, err := store.GetChampion(context.Background(), "run-1"); err == nil {
		t.Fatal("expected error before Init")
	}
}
