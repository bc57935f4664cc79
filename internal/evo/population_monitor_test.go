package evo

import (
	"context"
	"math"
	"testing"
	"time"

	"dendron/internal/gp"
	"dendron/internal/scape"
)

// targetScape scores a variable-free tree by its distance to a fixed
// target value. Trees listed in nanOn score NaN instead.
type targetScape struct {
	target float64
	ops    *gp.OperationSet
	terms  *gp.TerminalSet
	nanOn  map[string]bool
}

func newTargetScape(t *testing.T, target float64) *targetScape {
	t.Helper()
	add, err := gp.NewBinaryOperation("ADD", func(a, b float64) float64 { return a + b })
	if err != nil {
		t.Fatalf("op: %v", err)
	}
	return &targetScape{
		target: target,
		ops:    gp.NewOperationSet(add),
		terms:  gp.NewTerminalSet(gp.NewConstant(2), gp.NewConstant(3)),
	}
}

func (s *targetScape) Name() string        { return "target" }
func (s *targetScape) Description() string { return "distance to a fixed value" }

func (s *targetScape) Vocabulary() (*gp.OperationSet, *gp.TerminalSet) {
	return s.ops, s.terms
}

func (s *targetScape) Evaluate(tree *gp.Node) (float64, error) {
	if s.nanOn[gp.Serialize(tree)] {
		return math.NaN(), nil
	}
	out, err := gp.Evaluate(tree, nil)
	if err != nil {
		return 0, err
	}
	return math.Abs(out - s.target), nil
}

func constLeaf(v float64) *gp.Node {
	return gp.NewLeaf(gp.NewConstant(v))
}

func initialConstants(values ...float64) []*gp.Node {
	out := make([]*gp.Node, 0, len(values))
	for _, v := range values {
		out = append(out, constLeaf(v))
	}
	return out
}

func TestNewPopulationMonitorValidation(t *testing.T) {
	s := newTargetScape(t, 5)

	cases := []struct {
		name string
		cfg  MonitorConfig
	}{
		{"missing scape", MonitorConfig{PopulationSize: 4, EliteCount: 1}},
		{"zero population", MonitorConfig{Scape: s, PopulationSize: 0, EliteCount: 1}},
		{"zero elites", MonitorConfig{Scape: s, PopulationSize: 4, EliteCount: 0}},
		{"elites above population", MonitorConfig{Scape: s, PopulationSize: 4, EliteCount: 5}},
		{"negative generations", MonitorConfig{Scape: s, PopulationSize: 4, EliteCount: 1, Generations: -1}},
		{"negative evaluations limit", MonitorConfig{Scape: s, PopulationSize: 4, EliteCount: 1, EvaluationsLimit: -1}},
		{"negative offspring depth", MonitorConfig{Scape: s, PopulationSize: 4, EliteCount: 1, MaxOffspringDepth: -1}},
		{"mutation depth above cap", MonitorConfig{Scape: s, PopulationSize: 4, EliteCount: 1, MutationDepth: 5, MaxOffspringDepth: 2}},
	}
	for _, tc := range cases {
		if _, err := NewPopulationMonitor(tc.cfg); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}

	if _, err := NewPopulationMonitor(MonitorConfig{Scape: s, PopulationSize: 4, EliteCount: 1, Generations: 3}); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
}

func TestRunRejectsPopulationMismatch(t *testing.T) {
	monitor, err := NewPopulationMonitor(MonitorConfig{
		Scape: newTargetScape(t, 5), PopulationSize: 4, EliteCount: 1, Generations: 1,
	})
	if err != nil {
		t.Fatalf("new monitor: %v", err)
	}
	if _, err := monitor.Run(context.Background(), initialConstants(2, 3)); err == nil {
		t.Fatal("expected error for undersized initial population")
	}
	if _, err := monitor.Run(context.Background(), []*gp.Node{constLeaf(2), nil, constLeaf(3), constLeaf(2)}); err == nil {
		t.Fatal("expected error for nil tree in initial population")
	}
}

func TestRunKeepsPopulationSizeInvariant(t *testing.T) {
	monitor, err := NewPopulationMonitor(MonitorConfig{
		Scape:          newTargetScape(t, 100),
		PopulationSize: 6,
		EliteCount:     2,
		Generations:    4,
		Seed:           51,
	})
	if err != nil {
		t.Fatalf("new monitor: %v", err)
	}

	result, err := monitor.Run(context.Background(), initialConstants(2, 3, 2, 3, 2, 3))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(result.FinalPopulation) != 6 {
		t.Fatalf("final population size: got %d want 6", len(result.FinalPopulation))
	}
	if len(result.BestByGeneration) != 4 {
		t.Fatalf("generations: got %d want 4", len(result.BestByGeneration))
	}
	if result.Evaluations != 24 {
		t.Fatalf("evaluations: got %d want 24", result.Evaluations)
	}
}

func TestRunElitismNeverWorsensBestFitness(t *testing.T) {
	monitor, err := NewPopulationMonitor(MonitorConfig{
		Scape:          newTargetScape(t, 1000),
		PopulationSize: 8,
		EliteCount:     2,
		Generations:    10,
		Workers:        4,
		Seed:           52,
	})
	if err != nil {
		t.Fatalf("new monitor: %v", err)
	}

	result, err := monitor.Run(context.Background(), initialConstants(2, 3, 2, 3, 2, 3, 2, 3))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	for i := 1; i < len(result.BestByGeneration); i++ {
		if result.BestByGeneration[i] > result.BestByGeneration[i-1] {
			t.Fatalf("best fitness worsened at generation %d: %v -> %v",
				i+1, result.BestByGeneration[i-1], result.BestByGeneration[i])
		}
	}
}

func TestRunConvergesOnPerfectIndividual(t *testing.T) {
	monitor, err := NewPopulationMonitor(MonitorConfig{
		Scape:          newTargetScape(t, 5),
		PopulationSize: 4,
		EliteCount:     1,
		Generations:    50,
		Seed:           53,
	})
	if err != nil {
		t.Fatalf("new monitor: %v", err)
	}

	add, ok := monitor.ops.Find("ADD")
	if !ok {
		t.Fatal("ADD not in vocabulary")
	}
	perfect, err := gp.NewInternal(add, constLeaf(2), constLeaf(3))
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	result, err := monitor.Run(context.Background(), []*gp.Node{constLeaf(2), perfect, constLeaf(3), constLeaf(2)})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !result.Converged {
		t.Fatal("expected convergence with a perfect individual in the initial population")
	}
	if len(result.BestByGeneration) != 1 {
		t.Fatalf("generations: got %d want 1", len(result.BestByGeneration))
	}
	if result.BestByGeneration[0] != 0 {
		t.Fatalf("best fitness: got %v want 0", result.BestByGeneration[0])
	}
	if got := result.GenerationDiagnostics[0].BestExpression; got != "(ADD 2 3)" {
		t.Fatalf("best expression: got %q", got)
	}
}

func TestRunHonorsEvaluationsLimit(t *testing.T) {
	monitor, err := NewPopulationMonitor(MonitorConfig{
		Scape:            newTargetScape(t, 100),
		PopulationSize:   4,
		EliteCount:       1,
		EvaluationsLimit: 8,
		Seed:             54,
	})
	if err != nil {
		t.Fatalf("new monitor: %v", err)
	}

	result, err := monitor.Run(context.Background(), initialConstants(2, 3, 2, 3))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(result.BestByGeneration) != 2 {
		t.Fatalf("generations: got %d want 2", len(result.BestByGeneration))
	}
	if result.Evaluations != 8 {
		t.Fatalf("evaluations: got %d want 8", result.Evaluations)
	}
	if result.Converged {
		t.Fatal("run must not report convergence at the evaluations limit")
	}
}

func TestRunReturnsContextError(t *testing.T) {
	monitor, err := NewPopulationMonitor(MonitorConfig{
		Scape: newTargetScape(t, 100), PopulationSize: 4, EliteCount: 1, Generations: 10,
	})
	if err != nil {
		t.Fatalf("new monitor: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := monitor.Run(ctx, initialConstants(2, 3, 2, 3)); err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRunStopCommandEndsCleanly(t *testing.T) {
	control := make(chan MonitorCommand, 1)
	control <- CommandStop

	monitor, err := NewPopulationMonitor(MonitorConfig{
		Scape:          newTargetScape(t, 100),
		PopulationSize: 4,
		EliteCount:     1,
		Generations:    10,
		Control:        control,
	})
	if err != nil {
		t.Fatalf("new monitor: %v", err)
	}

	result, err := monitor.Run(context.Background(), initialConstants(2, 3, 2, 3))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(result.BestByGeneration) != 0 {
		t.Fatalf("expected immediate stop before evaluation, got %d generations", len(result.BestByGeneration))
	}
}

func TestRunPauseContinueControl(t *testing.T) {
	control := make(chan MonitorCommand, 4)
	control <- CommandPause

	monitor, err := NewPopulationMonitor(MonitorConfig{
		Scape:          newTargetScape(t, 100),
		PopulationSize: 4,
		EliteCount:     1,
		Generations:    2,
		Control:        control,
	})
	if err != nil {
		t.Fatalf("new monitor: %v", err)
	}

	done := make(chan RunResult, 1)
	errs := make(chan error, 1)
	go func() {
		result, runErr := monitor.Run(context.Background(), initialConstants(2, 3, 2, 3))
		if runErr != nil {
			errs <- runErr
			return
		}
		done <- result
	}()

	select {
	case <-done:
		t.Fatal("expected run to pause before evaluating")
	case runErr := <-errs:
		t.Fatalf("run failed while paused: %v", runErr)
	case <-time.After(30 * time.Millisecond):
	}

	control <- CommandContinue
	select {
	case runErr := <-errs:
		t.Fatalf("run failed after continue: %v", runErr)
	case result := <-done:
		if len(result.BestByGeneration) != 2 {
			t.Fatalf("expected full run after continue, got %d generations", len(result.BestByGeneration))
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for run completion after continue")
	}
}

func TestRunRanksUnfitIndividualsLast(t *testing.T) {
	s := newTargetScape(t, 5)
	s.nanOn = map[string]bool{"3": true}

	monitor, err := NewPopulationMonitor(MonitorConfig{
		Scape: s, PopulationSize: 4, EliteCount: 1, Generations: 1, Seed: 55,
	})
	if err != nil {
		t.Fatalf("new monitor: %v", err)
	}

	result, err := monitor.Run(context.Background(), initialConstants(3, 2, 3, 2))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	final := result.FinalPopulation
	if math.IsNaN(final[0].Fitness) || math.IsNaN(final[1].Fitness) {
		t.Fatal("unfit individuals ranked ahead of fit ones")
	}
	if !math.IsNaN(final[2].Fitness) || !math.IsNaN(final[3].Fitness) {
		t.Fatalf("expected two NaN scores at the tail: %v %v", final[2].Fitness, final[3].Fitness)
	}
	if result.GenerationDiagnostics[0].UnfitCount != 2 {
		t.Fatalf("unfit count: got %d want 2", result.GenerationDiagnostics[0].UnfitCount)
	}
	if result.Converged {
		t.Fatal("NaN must never satisfy the fitness goal")
	}
}

func TestRunOffspringDepthCap(t *testing.T) {
	monitor, err := NewPopulationMonitor(MonitorConfig{
		Scape:             newTargetScape(t, 1000),
		PopulationSize:    6,
		EliteCount:        1,
		Generations:       8,
		MutationDepth:     2,
		MaxOffspringDepth: 2,
		Seed:              56,
	})
	if err != nil {
		t.Fatalf("new monitor: %v", err)
	}

	result, err := monitor.Run(context.Background(), initialConstants(2, 3, 2, 3, 2, 3))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	for _, item := range result.FinalPopulation {
		if depth := item.Tree.Depth(); depth > 2 {
			t.Fatalf("offspring depth %d exceeds cap 2: %s", depth, gp.Serialize(item.Tree))
		}
	}
}

func TestRunObserverSeesEveryGeneration(t *testing.T) {
	var seen []GenerationDiagnostics
	monitor, err := NewPopulationMonitor(MonitorConfig{
		Scape:          newTargetScape(t, 100),
		PopulationSize: 4,
		EliteCount:     1,
		Generations:    3,
		Seed:           57,
		Observer:       func(d GenerationDiagnostics) { seen = append(seen, d) },
	})
	if err != nil {
		t.Fatalf("new monitor: %v", err)
	}

	if _, err := monitor.Run(context.Background(), initialConstants(2, 3, 2, 3)); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(seen) != 3 {
		t.Fatalf("observed generations: got %d want 3", len(seen))
	}
	for i, d := range seen {
		if d.Generation != i+1 {
			t.Fatalf("generation number: got %d want %d", d.Generation, i+1)
		}
		if d.Evaluations != (i+1)*4 {
			t.Fatalf("cumulative evaluations at generation %d: got %d want %d", i+1, d.Evaluations, (i+1)*4)
		}
	}
}

func TestBetterFitnessOrdering(t *testing.T) {
	inf := math.Inf(1)
	nan := math.NaN()

	cases := []struct {
		a, b float64
		want bool
	}{
		{1, 2, true},
		{2, 1, false},
		{1, 1, false},
		{1, nan, true},
		{nan, 1, false},
		{1, inf, true},
		{-inf, 1, false},
		{nan, inf, false},
		{inf, nan, false},
	}
	for _, tc := range cases {
		if got := betterFitness(tc.a, tc.b); got != tc.want {
			t.Fatalf("betterFitness(%v, %v): got %v want %v", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestRunPropagatesScapeErrors(t *testing.T) {
	s := newTargetScape(t, 5)
	monitor, err := NewPopulationMonitor(MonitorConfig{
		Scape: s, PopulationSize: 2, EliteCount: 1, Generations: 1,
	})
	if err != nil {
		t.Fatalf("new monitor: %v", err)
	}

	x, err := gp.NewInputVariable("X")
	if err != nil {
		t.Fatalf("variable: %v", err)
	}
	if _, err := monitor.Run(context.Background(), []*gp.Node{gp.NewLeaf(x), constLeaf(2)}); err == nil {
		t.Fatal("expected evaluation error to abort the run")
	}
}

var _ scape.Scape = (*targetScape)(nil)
