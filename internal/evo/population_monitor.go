package evo

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"

	"dendron/internal/gp"
	"dendron/internal/scape"
)

// MonitorCommand steers a running population monitor between
// generations.
type MonitorCommand int

const (
	CommandPause MonitorCommand = iota
	CommandContinue
	CommandStop
)

// ScoredIndividual pairs a candidate tree with its fitness. Lower is
// better; NaN and infinities mark an individual as unfit.
type ScoredIndividual struct {
	Tree    *gp.Node
	Fitness float64
}

type GenerationDiagnostics struct {
	Generation     int     `json:"generation"`
	BestFitness    float64 `json:"best_fitness"`
	MeanFitness    float64 `json:"mean_fitness"`
	WorstFitness   float64 `json:"worst_fitness"`
	BestExpression string  `json:"best_expression"`
	MeanNodeCount  float64 `json:"mean_node_count"`
	MaxDepth       int     `json:"max_depth"`
	UnfitCount     int     `json:"unfit_count"`
	Evaluations    int     `json:"evaluations"`
}

type RunResult struct {
	BestByGeneration      []float64
	GenerationDiagnostics []GenerationDiagnostics
	FinalPopulation       []ScoredIndividual
	Converged             bool
	Evaluations           int
}

const offspringAttempts = 16

type MonitorConfig struct {
	Scape         scape.Scape
	Selector      Selector
	Postprocessor FitnessPostprocessor

	PopulationSize int
	EliteCount     int
	// Generations caps the number of evaluated generations; zero means
	// run until convergence, a limit, or cancellation.
	Generations      int
	FitnessGoal      float64
	EvaluationsLimit int

	// MutationDepth bounds the replacement subtrees spliced in by
	// mutation; MaxOffspringDepth, when positive, caps whole offspring
	// and falls back to a parent clone after repeated oversized draws.
	MutationDepth     int
	MutationMethod    gp.Method
	MaxOffspringDepth int

	Workers int
	Seed    int64

	Control  <-chan MonitorCommand
	Observer func(GenerationDiagnostics)
}

// PopulationMonitor runs the generational loop: evaluate, rank, report,
// then rebuild the population from elites and mutated parents.
type PopulationMonitor struct {
	cfg   MonitorConfig
	rng   *rand.Rand
	ops   *gp.OperationSet
	terms *gp.TerminalSet
}

func NewPopulationMonitor(cfg MonitorConfig) (*PopulationMonitor, error) {
	if cfg.Scape == nil {
		return nil, fmt.Errorf("scape is required")
	}
	if cfg.PopulationSize <= 0 {
		return nil, fmt.Errorf("population size must be > 0")
	}
	if cfg.EliteCount <= 0 || cfg.EliteCount > cfg.PopulationSize {
		return nil, fmt.Errorf("elite count must be in [1, population size]")
	}
	if cfg.Generations < 0 {
		return nil, fmt.Errorf("generations must be >= 0")
	}
	if cfg.EvaluationsLimit < 0 {
		return nil, fmt.Errorf("evaluations limit must be >= 0")
	}
	if cfg.MaxOffspringDepth < 0 {
		return nil, fmt.Errorf("max offspring depth must be >= 0")
	}
	if cfg.MutationDepth <= 0 {
		cfg.MutationDepth = 4
	}
	if cfg.MaxOffspringDepth > 0 && cfg.MutationDepth > cfg.MaxOffspringDepth {
		return nil, fmt.Errorf("mutation depth %d exceeds max offspring depth %d", cfg.MutationDepth, cfg.MaxOffspringDepth)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Selector == nil {
		cfg.Selector = EliteSelector{}
	}
	if cfg.Postprocessor == nil {
		cfg.Postprocessor = NoopFitnessPostprocessor{}
	}

	ops, terms := cfg.Scape.Vocabulary()
	if err := gp.ValidateVocabulary(ops, terms); err != nil {
		return nil, fmt.Errorf("scape %s: %w", cfg.Scape.Name(), err)
	}

	return &PopulationMonitor{
		cfg:   cfg,
		rng:   rand.New(rand.NewSource(cfg.Seed)),
		ops:   ops,
		terms: terms,
	}, nil
}

// Run evaluates the initial population and evolves it until the fitness
// goal is reached, a configured limit trips, a stop command arrives, or
// ctx is cancelled. A stop command ends the run cleanly with the results
// so far; cancellation returns the context error.
func (m *PopulationMonitor) Run(ctx context.Context, initial []*gp.Node) (RunResult, error) {
	if len(initial) != m.cfg.PopulationSize {
		return RunResult{}, fmt.Errorf("initial population mismatch: got=%d want=%d", len(initial), m.cfg.PopulationSize)
	}
	for i, tree := range initial {
		if tree == nil {
			return RunResult{}, fmt.Errorf("initial population has nil tree at index %d", i)
		}
	}

	population := make([]*gp.Node, len(initial))
	copy(population, initial)

	result := RunResult{}
	for gen := 0; m.cfg.Generations == 0 || gen < m.cfg.Generations; gen++ {
		if err := ctx.Err(); err != nil {
			return RunResult{}, err
		}
		stopped, err := m.processControl(ctx)
		if err != nil {
			return RunResult{}, err
		}
		if stopped {
			break
		}

		scored, err := m.evaluatePopulation(ctx, population)
		if err != nil {
			return RunResult{}, err
		}
		result.Evaluations += len(scored)
		scored = m.cfg.Postprocessor.Process(scored)
		sortScored(scored)

		diag := summarizeGeneration(scored, gen+1, result.Evaluations)
		result.BestByGeneration = append(result.BestByGeneration, diag.BestFitness)
		result.GenerationDiagnostics = append(result.GenerationDiagnostics, diag)
		result.FinalPopulation = scored
		if m.cfg.Observer != nil {
			m.cfg.Observer(diag)
		}

		best := scored[0].Fitness
		if !isUnfit(best) && best <= m.cfg.FitnessGoal {
			result.Converged = true
			break
		}
		if m.cfg.EvaluationsLimit > 0 && result.Evaluations >= m.cfg.EvaluationsLimit {
			break
		}
		if m.cfg.Generations > 0 && gen+1 >= m.cfg.Generations {
			break
		}

		population, err = m.nextGeneration(ctx, scored)
		if err != nil {
			return RunResult{}, err
		}
	}

	return result, nil
}

func (m *PopulationMonitor) processControl(ctx context.Context) (bool, error) {
	if m.cfg.Control == nil {
		return false, nil
	}
	for {
		select {
		case cmd := <-m.cfg.Control:
			switch cmd {
			case CommandStop:
				return true, nil
			case CommandPause:
				paused := true
				for paused {
					select {
					case next := <-m.cfg.Control:
						switch next {
						case CommandStop:
							return true, nil
						case CommandContinue:
							paused = false
						}
					case <-ctx.Done():
						return false, ctx.Err()
					}
				}
			case CommandContinue:
			}
		default:
			return false, nil
		}
	}
}

func (m *PopulationMonitor) evaluatePopulation(ctx context.Context, population []*gp.Node) ([]ScoredIndividual, error) {
	type job struct {
		idx  int
		tree *gp.Node
	}
	type result struct {
		idx    int
		scored ScoredIndividual
		err    error
	}

	jobs := make(chan job)
	results := make(chan result, len(population))

	workerCount := m.cfg.Workers
	if workerCount > len(population) {
		workerCount = len(population)
	}

	var wg sync.WaitGroup
	wg.Add(workerCount)
	for w := 0; w < workerCount; w++ {
		go func() {
			defer wg.Done()
			for j := range jobs {
				if err := ctx.Err(); err != nil {
					results <- result{idx: j.idx, err: err}
					continue
				}
				fitness, err := m.cfg.Scape.Evaluate(j.tree)
				if err != nil {
					results <- result{idx: j.idx, err: err}
					continue
				}
				results <- result{idx: j.idx, scored: ScoredIndividual{Tree: j.tree, Fitness: fitness}}
			}
		}()
	}

	for i := range population {
		jobs <- job{idx: i, tree: population[i]}
	}
	close(jobs)

	wg.Wait()
	close(results)

	scored := make([]ScoredIndividual, len(population))
	for res := range results {
		if res.err != nil {
			return nil, res.err
		}
		scored[res.idx] = res.scored
	}
	return scored, nil
}

func (m *PopulationMonitor) nextGeneration(ctx context.Context, ranked []ScoredIndividual) ([]*gp.Node, error) {
	next := make([]*gp.Node, 0, m.cfg.PopulationSize)
	for i := 0; i < m.cfg.EliteCount; i++ {
		next = append(next, ranked[i].Tree.Clone())
	}

	for len(next) < m.cfg.PopulationSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		parent, err := m.cfg.Selector.PickParent(m.rng, ranked, m.cfg.EliteCount)
		if err != nil {
			return nil, err
		}
		child, err := m.offspring(parent.Tree)
		if err != nil {
			return nil, err
		}
		next = append(next, child)
	}
	return next, nil
}

// offspring mutates parent, retrying when an offspring depth cap is set
// and the mutant overshoots it. After offspringAttempts oversized draws
// the parent survives as a clone.
func (m *PopulationMonitor) offspring(parent *gp.Node) (*gp.Node, error) {
	for attempt := 0; attempt < offspringAttempts; attempt++ {
		child, err := gp.Mutate(parent, m.ops, m.terms, m.cfg.MutationDepth, m.cfg.MutationMethod, m.rng)
		if err != nil {
			return nil, err
		}
		if m.cfg.MaxOffspringDepth <= 0 || child.Depth() <= m.cfg.MaxOffspringDepth {
			return child, nil
		}
	}
	return parent.Clone(), nil
}

func summarizeGeneration(scored []ScoredIndividual, generation, evaluations int) GenerationDiagnostics {
	if len(scored) == 0 {
		return GenerationDiagnostics{Generation: generation, Evaluations: evaluations}
	}

	total := 0.0
	nodes := 0
	maxDepth := 0
	unfit := 0
	for _, item := range scored {
		if isUnfit(item.Fitness) {
			unfit++
		} else {
			total += item.Fitness
		}
		nodes += item.Tree.Count()
		if depth := item.Tree.Depth(); depth > maxDepth {
			maxDepth = depth
		}
	}

	mean := math.NaN()
	if fit := len(scored) - unfit; fit > 0 {
		mean = total / float64(fit)
	}
	return GenerationDiagnostics{
		Generation:     generation,
		BestFitness:    scored[0].Fitness,
		MeanFitness:    mean,
		WorstFitness:   scored[len(scored)-1].Fitness,
		BestExpression: gp.Serialize(scored[0].Tree),
		MeanNodeCount:  float64(nodes) / float64(len(scored)),
		MaxDepth:       maxDepth,
		UnfitCount:     unfit,
		Evaluations:    evaluations,
	}
}

// sortScored orders best-first: finite fitness ascending, NaN and
// infinities after every finite score. Unfit individuals therefore never
// land in the elite band while a fit one exists.
func sortScored(scored []ScoredIndividual) {
	sort.SliceStable(scored, func(i, j int) bool {
		return betterFitness(scored[i].Fitness, scored[j].Fitness)
	})
}

func betterFitness(a, b float64) bool {
	au, bu := isUnfit(a), isUnfit(b)
	if au || bu {
		return bu && !au
	}
	return a < b
}

func isUnfit(f float64) bool {
	return math.IsNaN(f) || math.IsInf(f, 0)
}
