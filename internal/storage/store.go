package storage

import (
	"context"

	"dendron/internal/model"
)

// Store persists run observability records: per-scape summaries and the
// per-run fitness history, diagnostics, leaderboard, and champion.
// Populations themselves are never persisted.
type Store interface {
	Init(ctx context.Context) error
	SaveScapeSummary(ctx context.Context, summary model.ScapeSummary) error
	GetScapeSummary(ctx context.Context, name string) (model.ScapeSummary, bool, error)
	SaveFitnessHistory(ctx context.Context, runID string, history []float64) error
	GetFitnessHistory(ctx context.Context, runID string) ([]float64, bool, error)
	SaveGenerationDiagnostics(ctx context.Context, runID string, diagnostics []model.GenerationDiagnostics) error
	GetGenerationDiagnostics(ctx context.Context, runID string) ([]model.GenerationDiagnostics, bool, error)
	SaveTopIndividuals(ctx context.Context, runID string, top []model.TopIndividualRecord) error
	GetTopIndividuals(ctx context.Context, runID string) ([]model.TopIndividualRecord, bool, error)
	SaveChampion(ctx context.Context, runID string, champion model.Individual) error
	GetChampion(ctx context.Context, runID string) (model.Individual, bool, error)
	ListRuns(ctx context.Context) ([]string, error)
}

// Resetter is implemented by stores that can drop all saved records.
type Resetter interface {
	Reset(ctx context.Context) error
}
