package storage

import (
	"context"
	"sort"
	"sync"

	"dendron/internal/model"
)

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	scapes      map[string]model.ScapeSummary
	history     map[string][]float64
	diagnostics map[string][]model.GenerationDiagnostics
	top         map[string][]model.TopIndividualRecord
	champions   map[string]model.Individual
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.scapes = make(map[string]model.ScapeSummary)
	s.history = make(map[string][]float64)
	s.diagnostics = make(map[string][]model.GenerationDiagnostics)
	s.top = make(map[string][]model.TopIndividualRecord)
	s.champions = make(map[string]model.Individual)
	return nil
}

func (s *MemoryStore) Reset(ctx context.Context) error {
	return s.Init(ctx)
}

func (s *MemoryStore) SaveScapeSummary(_ context.Context, summary model.ScapeSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.scapes[summary.Name] = summary
	return nil
}

func (s *MemoryStore) GetScapeSummary(_ context.Context, name string) (model.ScapeSummary, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary, ok := s.scapes[name]
	return summary, ok, nil
}

func (s *MemoryStore) SaveFitnessHistory(_ context.Context, runID string, history []float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history[runID] = append([]float64(nil), history...)
	return nil
}

func (s *MemoryStore) GetFitnessHistory(_ context.Context, runID string) ([]float64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.history[runID]
	if !ok {
		return nil, false, nil
	}
	return append([]float64(nil), history...), true, nil
}

func (s *MemoryStore) SaveGenerationDiagnostics(_ context.Context, runID string, diagnostics []model.GenerationDiagnostics) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := make([]model.GenerationDiagnostics, len(diagnostics))
	copy(copied, diagnostics)
	s.diagnostics[runID] = copied
	return nil
}

func (s *MemoryStore) GetGenerationDiagnostics(_ context.Context, runID string) ([]model.GenerationDiagnostics, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	diagnostics, ok := s.diagnostics[runID]
	if !ok {
		return nil, false, nil
	}
	copied := make([]model.GenerationDiagnostics, len(diagnostics))
	copy(copied, diagnostics)
	return copied, true, nil
}

func (s *MemoryStore) SaveTopIndividuals(_ context.Context, runID string, top []model.TopIndividualRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := make([]model.TopIndividualRecord, len(top))
	copy(copied, top)
	s.top[runID] = copied
	return nil
}

func (s *MemoryStore) GetTopIndividuals(_ context.Context, runID string) ([]model.TopIndividualRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	top, ok := s.top[runID]
	if !ok {
		return nil, false, nil
	}
	copied := make([]model.TopIndividualRecord, len(top))
	copy(copied, top)
	return copied, true, nil
}

func (s *MemoryStore) SaveChampion(_ context.Context, runID string, champion model.Individual) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.champions[runID] = champion
	return nil
}

func (s *MemoryStore) GetChampion(_ context.Context, runID string) (model.Individual, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	champion, ok := s.champions[runID]
	return champion, ok, nil
}

func (s *MemoryStore) ListRuns(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := map[string]struct{}{}
	for runID := range s.history {
		seen[runID] = struct{}{}
	}
	for runID := range s.diagnostics {
		seen[runID] = struct{}{}
	}
	for runID := range s.champions {
		seen[runID] = struct{}{}
	}
	runs := make([]string, 0, len(seen))
	for runID := range seen {
		runs = append(runs, runID)
	}
	sort.Strings(runs)
	return runs, nil
}
