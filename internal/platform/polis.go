package platform

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"

	"dendron/internal/evo"
	"dendron/internal/gp"
	"dendron/internal/model"
	"dendron/internal/scape"
	"dendron/internal/storage"
)

type Config struct {
	Store  storage.Store
	Scapes []scape.Scape
}

type EvolutionConfig struct {
	RunID            string
	ScapeName        string
	PopulationSize   int
	Generations      int
	FitnessGoal      float64
	EvaluationsLimit int
	EliteCount       int
	Workers          int
	Seed             int64

	// MinDepth and MaxDepth bound the ramped initial population.
	MinDepth int
	MaxDepth int

	MutationDepth     int
	MutationMethod    gp.Method
	MaxOffspringDepth int

	Selector      evo.Selector
	Postprocessor evo.FitnessPostprocessor

	Control  chan evo.MonitorCommand
	Observer func(evo.GenerationDiagnostics)
}

type EvolutionResult struct {
	RunID                 string
	BestByGeneration      []float64
	GenerationDiagnostics []model.GenerationDiagnostics
	Converged             bool
	Evaluations           int
	BestFinalFitness      float64
	Champion              *model.Individual
	Top                   []model.TopIndividualRecord
}

const topIndividualCount = 5

// Polis owns the platform state: the store, the registered scapes, and
// the control channels of active runs.
type Polis struct {
	store storage.Store

	mu      sync.RWMutex
	scapes  map[string]scape.Scape
	started bool
	runs    map[string]chan evo.MonitorCommand

	config Config
}

func NewPolis(cfg Config) *Polis {
	return &Polis{
		store:  cfg.Store,
		scapes: make(map[string]scape.Scape),
		runs:   make(map[string]chan evo.MonitorCommand),
		config: cfg,
	}
}

func (p *Polis) Init(ctx context.Context) error {
	if p.store == nil {
		return fmt.Errorf("store is required")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return nil
	}
	if err := p.store.Init(ctx); err != nil {
		return err
	}

	for i, s := range p.config.Scapes {
		if s == nil {
			p.scapes = make(map[string]scape.Scape)
			return fmt.Errorf("scape is nil at index %d", i)
		}
		name := s.Name()
		if name == "" {
			p.scapes = make(map[string]scape.Scape)
			return fmt.Errorf("scape name is required at index %d", i)
		}
		if _, exists := p.scapes[name]; exists {
			p.scapes = make(map[string]scape.Scape)
			return fmt.Errorf("duplicate scape: %s", name)
		}
		p.scapes[name] = s
	}

	p.started = true
	return nil
}

func (p *Polis) Reset(ctx context.Context) error {
	p.Stop()
	if resetter, ok := p.store.(storage.Resetter); ok {
		if err := resetter.Reset(ctx); err != nil {
			return err
		}
	}
	return p.Init(ctx)
}

func (p *Polis) RegisterScape(s scape.Scape) error {
	if s == nil {
		return fmt.Errorf("scape is nil")
	}
	name := s.Name()
	if name == "" {
		return fmt.Errorf("scape name is required")
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started {
		return fmt.Errorf("polis is not initialized")
	}
	p.scapes[name] = s
	return nil
}

func (p *Polis) GetScape(name string) (scape.Scape, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	s, ok := p.scapes[name]
	return s, ok
}

func (p *Polis) RegisteredScapes() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	names := make([]string, 0, len(p.scapes))
	for name := range p.scapes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (p *Polis) Started() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.started
}

// Stop signals every active run to stop and tears down platform state.
func (p *Polis) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, control := range p.runs {
		select {
		case control <- evo.CommandStop:
		default:
		}
	}
	p.started = false
	p.scapes = make(map[string]scape.Scape)
	p.runs = make(map[string]chan evo.MonitorCommand)
}

// RunEvolution seeds a ramped initial population on the named scape,
// runs the generational loop, and persists the run's observability
// records to the store.
func (p *Polis) RunEvolution(ctx context.Context, cfg EvolutionConfig) (EvolutionResult, error) {
	if cfg.ScapeName == "" {
		return EvolutionResult{}, fmt.Errorf("scape name is required")
	}
	if cfg.PopulationSize <= 0 {
		return EvolutionResult{}, fmt.Errorf("population size must be > 0")
	}
	if cfg.EliteCount <= 0 {
		cfg.EliteCount = 1
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.MinDepth <= 0 {
		cfg.MinDepth = 1
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = 4
	}
	if cfg.MaxDepth < cfg.MinDepth {
		return EvolutionResult{}, fmt.Errorf("max depth %d must be >= min depth %d", cfg.MaxDepth, cfg.MinDepth)
	}

	p.mu.RLock()
	targetScape, ok := p.scapes[cfg.ScapeName]
	started := p.started
	p.mu.RUnlock()

	if !started {
		return EvolutionResult{}, fmt.Errorf("polis is not initialized")
	}
	if !ok {
		return EvolutionResult{}, fmt.Errorf("scape not registered: %s", cfg.ScapeName)
	}

	runID := cfg.RunID
	if runID == "" {
		runID = fmt.Sprintf("evo:%s:%d", cfg.ScapeName, cfg.Seed)
	}
	control := cfg.Control
	if control == nil {
		control = make(chan evo.MonitorCommand, 16)
	}
	if err := p.registerRunControl(runID, control); err != nil {
		return EvolutionResult{}, err
	}
	defer p.unregisterRunControl(runID)

	ops, terms := targetScape.Vocabulary()
	initial, err := gp.RampedHalfAndHalf(ops, terms, cfg.MinDepth, cfg.MaxDepth, cfg.PopulationSize, rand.New(rand.NewSource(cfg.Seed)))
	if err != nil {
		return EvolutionResult{}, fmt.Errorf("seed initial population: %w", err)
	}

	monitor, err := evo.NewPopulationMonitor(evo.MonitorConfig{
		Scape:             targetScape,
		Selector:          cfg.Selector,
		Postprocessor:     cfg.Postprocessor,
		PopulationSize:    cfg.PopulationSize,
		EliteCount:        cfg.EliteCount,
		Generations:       cfg.Generations,
		FitnessGoal:       cfg.FitnessGoal,
		EvaluationsLimit:  cfg.EvaluationsLimit,
		MutationDepth:     cfg.MutationDepth,
		MutationMethod:    cfg.MutationMethod,
		MaxOffspringDepth: cfg.MaxOffspringDepth,
		Workers:           cfg.Workers,
		Seed:              cfg.Seed,
		Control:           control,
		Observer:          cfg.Observer,
	})
	if err != nil {
		return EvolutionResult{}, err
	}

	result, err := monitor.Run(ctx, initial)
	if err != nil {
		return EvolutionResult{}, err
	}

	out := EvolutionResult{
		RunID:                 runID,
		BestByGeneration:      result.BestByGeneration,
		GenerationDiagnostics: toModelDiagnostics(result.GenerationDiagnostics),
		Converged:             result.Converged,
		Evaluations:           result.Evaluations,
		BestFinalFitness:      math.NaN(),
	}
	if len(result.FinalPopulation) > 0 {
		out.BestFinalFitness = result.FinalPopulation[0].Fitness

		champion := toModelIndividual(result.FinalPopulation[0])
		out.Champion = &champion

		topCount := topIndividualCount
		if len(result.FinalPopulation) < topCount {
			topCount = len(result.FinalPopulation)
		}
		out.Top = make([]model.TopIndividualRecord, 0, topCount)
		for i := 0; i < topCount; i++ {
			out.Top = append(out.Top, model.TopIndividualRecord{
				Rank:       i + 1,
				Fitness:    model.Fitness(result.FinalPopulation[i].Fitness),
				Individual: toModelIndividual(result.FinalPopulation[i]),
			})
		}
	}

	if err := p.persistRun(ctx, cfg.ScapeName, out); err != nil {
		return EvolutionResult{}, err
	}
	return out, nil
}

func (p *Polis) persistRun(ctx context.Context, scapeName string, result EvolutionResult) error {
	if len(result.BestByGeneration) == 0 {
		return nil
	}

	if err := p.store.SaveFitnessHistory(ctx, result.RunID, result.BestByGeneration); err != nil {
		return err
	}
	if err := p.store.SaveGenerationDiagnostics(ctx, result.RunID, result.GenerationDiagnostics); err != nil {
		return err
	}
	if err := p.store.SaveTopIndividuals(ctx, result.RunID, result.Top); err != nil {
		return err
	}
	if result.Champion != nil {
		if err := p.store.SaveChampion(ctx, result.RunID, *result.Champion); err != nil {
			return err
		}
	}
	return p.updateScapeSummary(ctx, scapeName, result.RunID, result.BestFinalFitness)
}

func (p *Polis) updateScapeSummary(ctx context.Context, scapeName, runID string, fitness float64) error {
	summary, ok, err := p.store.GetScapeSummary(ctx, scapeName)
	if err != nil {
		return err
	}
	if !ok {
		summary = model.ScapeSummary{
			VersionedRecord: model.VersionedRecord{
				SchemaVersion: storage.CurrentSchemaVersion,
				CodecVersion:  storage.CurrentCodecVersion,
			},
			Name: scapeName,
		}
		if s, registered := p.GetScape(scapeName); registered {
			summary.Description = s.Description()
		}
	}

	improved := summary.Runs == 0 || betterScore(fitness, float64(summary.BestFitness))
	summary.Runs++
	if improved {
		summary.BestFitness = model.Fitness(fitness)
		summary.BestRunID = runID
	}
	return p.store.SaveScapeSummary(ctx, summary)
}

// betterScore is the lower-is-better comparison with non-finite scores
// losing to any finite one.
func betterScore(a, b float64) bool {
	aBad := math.IsNaN(a) || math.IsInf(a, 0)
	bBad := math.IsNaN(b) || math.IsInf(b, 0)
	if aBad || bBad {
		return bBad && !aBad
	}
	return a < b
}

func toModelIndividual(item evo.ScoredIndividual) model.Individual {
	return model.Individual{
		VersionedRecord: model.VersionedRecord{
			SchemaVersion: storage.CurrentSchemaVersion,
			CodecVersion:  storage.CurrentCodecVersion,
		},
		Expression: gp.Serialize(item.Tree),
		Fitness:    model.Fitness(item.Fitness),
		NodeCount:  item.Tree.Count(),
		Depth:      item.Tree.Depth(),
	}
}

func toModelDiagnostics(diags []evo.GenerationDiagnostics) []model.GenerationDiagnostics {
	out := make([]model.GenerationDiagnostics, 0, len(diags))
	for _, d := range diags {
		out = append(out, model.GenerationDiagnostics{
			Generation:     d.Generation,
			BestFitness:    model.Fitness(d.BestFitness),
			MeanFitness:    model.Fitness(d.MeanFitness),
			WorstFitness:   model.Fitness(d.WorstFitness),
			BestExpression: d.BestExpression,
			MeanNodeCount:  d.MeanNodeCount,
			MaxDepth:       d.MaxDepth,
			UnfitCount:     d.UnfitCount,
			Evaluations:    d.Evaluations,
		})
	}
	return out
}

func (p *Polis) PauseRun(runID string) error {
	return p.sendRunCommand(runID, evo.CommandPause)
}

func (p *Polis) ContinueRun(runID string) error {
	return p.sendRunCommand(runID, evo.CommandContinue)
}

func (p *Polis) StopRun(runID string) error {
	return p.sendRunCommand(runID, evo.CommandStop)
}

func (p *Polis) registerRunControl(runID string, control chan evo.MonitorCommand) error {
	if runID == "" {
		return fmt.Errorf("run id is required")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started {
		return fmt.Errorf("polis is not initialized")
	}
	if _, exists := p.runs[runID]; exists {
		return fmt.Errorf("run already active: %s", runID)
	}
	p.runs[runID] = control
	return nil
}

func (p *Polis) unregisterRunControl(runID string) {
	p.mu.Lock()
	delete(p.runs, runID)
	p.mu.Unlock()
}

func (p *Polis) sendRunCommand(runID string, cmd evo.MonitorCommand) error {
	if runID == "" {
		return fmt.Errorf("run id is required")
	}
	p.mu.RLock()
	control, ok := p.runs[runID]
	p.mu.RUnlock()
	if !ok {
		return fmt.Errorf("run not active: %s", runID)
	}
	select {
	case control <- cmd:
		return nil
	default:
		return fmt.Errorf("run control channel is full: %s", runID)
	}
}

// The record accessors read straight through to the store.
func (p *Polis) FitnessHistory(ctx context.Context, runID string) ([]float64, bool, error) {
	return p.store.GetFitnessHistory(ctx, runID)
}

func (p *Polis) GenerationDiagnostics(ctx context.Context, runID string) ([]model.GenerationDiagnostics, bool, error) {
	return p.store.GetGenerationDiagnostics(ctx, runID)
}

func (p *Polis) TopIndividuals(ctx context.Context, runID string) ([]model.TopIndividualRecord, bool, error) {
	return p.store.GetTopIndividuals(ctx, runID)
}

func (p *Polis) Champion(ctx context.Context, runID string) (model.Individual, bool, error) {
	return p.store.GetChampion(ctx, runID)
}

func (p *Polis) ScapeSummary(ctx context.Context, name string) (model.ScapeSummary, bool, error) {
	return p.store.GetScapeSummary(ctx, name)
}

func (p *Polis) Runs(ctx context.Context) ([]string, error) {
	return p.store.ListRuns(ctx)
}
