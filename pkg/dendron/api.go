// Package dendron is the embedding API of the platform: a Client that
// owns a store and a polis, runs evolutionary searches on registered
// scapes, and reads back the artifacts and records a run leaves behind.
package dendron

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"dendron/internal/evo"
	"dendron/internal/gp"
	"dendron/internal/model"
	"dendron/internal/platform"
	"dendron/internal/scape"
	"dendron/internal/stats"
	"dendron/internal/storage"
)

const (
	defaultBenchmarksDir = "benchmarks"
	defaultExportsDir    = "exports"
	defaultDBPath        = "dendron.db"
)

type Options struct {
	StoreKind     string
	DBPath        string
	BenchmarksDir string
	ExportsDir    string
}

type Client struct {
	store storage.Store
	polis *platform.Polis

	storeKind     string
	benchmarksDir string
	exportsDir    string
}

type RunRequest struct {
	Scape                string
	Population           int
	Generations          int
	Seed                 int64
	Workers              int
	EliteCount           int
	FitnessGoal          float64
	EvaluationsLimit     int
	MinDepth             int
	MaxDepth             int
	MutationDepth        int
	MutationMethod       string
	MaxOffspringDepth    int
	Selection            string
	FitnessPostprocessor string
	ParsimonyPressure    float64
}

type RunSummary struct {
	RunID              string
	ArtifactsDir       string
	BestByGeneration   []float64
	FinalBestFitness   float64
	Converged          bool
	Evaluations        int
	ChampionExpression string
}

type RunsRequest struct {
	Limit int
}

type RunItem struct {
	RunID            string
	CreatedAtUTC     string
	Scape            string
	Seed             int64
	Population       int
	Generations      int
	Converged        bool
	Evaluations      int
	FinalBestFitness float64
}

type ExportRequest struct {
	RunID  string
	Latest bool
	OutDir string
}

type ExportSummary struct {
	RunID     string
	Directory string
}

type FitnessHistoryRequest struct {
	RunID  string
	Latest bool
	Limit  int
}

type DiagnosticsRequest struct {
	RunID  string
	Latest bool
	Limit  int
}

type TopIndividualsRequest struct {
	RunID  string
	Latest bool
	Limit  int
}

type ChampionRequest struct {
	RunID  string
	Latest bool
}

type ScapeInfo struct {
	Name        string
	Description string
}

type ScapeSummaryItem struct {
	Name        string
	Description string
	BestFitness float64
	BestRunID   string
	Runs        int
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	benchmarksDir := opts.BenchmarksDir
	if benchmarksDir == "" {
		benchmarksDir = defaultBenchmarksDir
	}
	exportsDir := opts.ExportsDir
	if exportsDir == "" {
		exportsDir = defaultExportsDir
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}

	return &Client{
		store:         store,
		storeKind:     storeKind,
		benchmarksDir: benchmarksDir,
		exportsDir:    exportsDir,
	}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

// Init brings up the store and registers the built-in scapes.
func (c *Client) Init(ctx context.Context) error {
	_, err := c.ensurePolis(ctx)
	return err
}

func (c *Client) RegisterScape(ctx context.Context, s scape.Scape) error {
	p, err := c.ensurePolis(ctx)
	if err != nil {
		return err
	}
	return p.RegisterScape(s)
}

func (c *Client) Scapes(ctx context.Context) ([]ScapeInfo, error) {
	p, err := c.ensurePolis(ctx)
	if err != nil {
		return nil, err
	}

	names := p.RegisteredScapes()
	out := make([]ScapeInfo, 0, len(names))
	for _, name := range names {
		s, ok := p.GetScape(name)
		if !ok {
			continue
		}
		out = append(out, ScapeInfo{Name: s.Name(), Description: s.Description()})
	}
	return out, nil
}

func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	if req.Scape == "" {
		req.Scape = "quadratic"
	}
	if req.Population <= 0 {
		req.Population = 50
	}
	if req.Generations < 0 {
		return RunSummary{}, errors.New("generations must be >= 0")
	}
	if req.Generations == 0 {
		req.Generations = 100
	}
	if req.Workers <= 0 {
		req.Workers = 4
	}
	if req.EliteCount <= 0 {
		req.EliteCount = req.Population / 5
		if req.EliteCount < 1 {
			req.EliteCount = 1
		}
	}
	if req.MinDepth <= 0 {
		req.MinDepth = 1
	}
	if req.MaxDepth <= 0 {
		req.MaxDepth = 4
	}
	if req.MutationDepth <= 0 {
		req.MutationDepth = 3
	}
	if req.MutationMethod == "" {
		req.MutationMethod = "grow"
	}
	if req.Selection == "" {
		req.Selection = "elite"
	}
	if req.FitnessPostprocessor == "" {
		req.FitnessPostprocessor = "none"
	}

	method, err := gp.ParseMethod(req.MutationMethod)
	if err != nil {
		return RunSummary{}, err
	}
	selector, err := selectionFromName(req.Selection)
	if err != nil {
		return RunSummary{}, err
	}
	postprocessor, err := postprocessorFromName(req.FitnessPostprocessor, req.ParsimonyPressure)
	if err != nil {
		return RunSummary{}, err
	}

	p, err := c.ensurePolis(ctx)
	if err != nil {
		return RunSummary{}, err
	}

	now := time.Now().UTC()
	runID := fmt.Sprintf("%s-%d-%d", req.Scape, req.Seed, now.Unix())

	result, err := p.RunEvolution(ctx, platform.EvolutionConfig{
		RunID:             runID,
		ScapeName:         req.Scape,
		PopulationSize:    req.Population,
		Generations:       req.Generations,
		FitnessGoal:       req.FitnessGoal,
		EvaluationsLimit:  req.EvaluationsLimit,
		EliteCount:        req.EliteCount,
		Workers:           req.Workers,
		Seed:              req.Seed,
		MinDepth:          req.MinDepth,
		MaxDepth:          req.MaxDepth,
		MutationDepth:     req.MutationDepth,
		MutationMethod:    method,
		MaxOffspringDepth: req.MaxOffspringDepth,
		Selector:          selector,
		Postprocessor:     postprocessor,
	})
	if err != nil {
		return RunSummary{}, err
	}

	runDir, err := stats.WriteRunArtifacts(c.benchmarksDir, stats.RunArtifacts{
		Config: stats.RunConfig{
			RunID:                runID,
			Scape:                req.Scape,
			PopulationSize:       req.Population,
			Generations:          req.Generations,
			FitnessGoal:          req.FitnessGoal,
			EvaluationsLimit:     req.EvaluationsLimit,
			EliteCount:           req.EliteCount,
			Workers:              req.Workers,
			Seed:                 req.Seed,
			MinDepth:             req.MinDepth,
			MaxDepth:             req.MaxDepth,
			MutationDepth:        req.MutationDepth,
			MutationMethod:       req.MutationMethod,
			MaxOffspringDepth:    req.MaxOffspringDepth,
			Selection:            req.Selection,
			FitnessPostprocessor: req.FitnessPostprocessor,
			StoreBackend:         c.storeKind,
		},
		BestByGeneration:      toFitnessSeries(result.BestByGeneration),
		GenerationDiagnostics: result.GenerationDiagnostics,
		FinalBestFitness:      model.Fitness(result.BestFinalFitness),
		Converged:             result.Converged,
		Evaluations:           result.Evaluations,
		TopIndividuals:        result.Top,
		Champion:              result.Champion,
	})
	if err != nil {
		return RunSummary{}, err
	}

	if err := stats.AppendRunIndex(c.benchmarksDir, stats.RunIndexEntry{
		RunID:            runID,
		Scape:            req.Scape,
		PopulationSize:   req.Population,
		Generations:      req.Generations,
		Seed:             req.Seed,
		Workers:          req.Workers,
		EliteCount:       req.EliteCount,
		Converged:        result.Converged,
		Evaluations:      result.Evaluations,
		FinalBestFitness: model.Fitness(result.BestFinalFitness),
		CreatedAtUTC:     now.Format(time.RFC3339Nano),
	}); err != nil {
		return RunSummary{}, err
	}

	summary := RunSummary{
		RunID:            runID,
		ArtifactsDir:     filepath.Clean(runDir),
		BestByGeneration: append([]float64(nil), result.BestByGeneration...),
		FinalBestFitness: result.BestFinalFitness,
		Converged:        result.Converged,
		Evaluations:      result.Evaluations,
	}
	if result.Champion != nil {
		summary.ChampionExpression = result.Champion.Expression
	}
	return summary, nil
}

func (c *Client) Runs(_ context.Context, req RunsRequest) ([]RunItem, error) {
	if req.Limit <= 0 {
		req.Limit = 20
	}

	entries, err := stats.ListRunIndex(c.benchmarksDir)
	if err != nil {
		return nil, err
	}
	if len(entries) > req.Limit {
		entries = entries[:req.Limit]
	}

	out := make([]RunItem, 0, len(entries))
	for _, e := range entries {
		out = append(out, RunItem{
			RunID:            e.RunID,
			CreatedAtUTC:     e.CreatedAtUTC,
			Scape:            e.Scape,
			Seed:             e.Seed,
			Population:       e.PopulationSize,
			Generations:      e.Generations,
			Converged:        e.Converged,
			Evaluations:      e.Evaluations,
			FinalBestFitness: float64(e.FinalBestFitness),
		})
	}
	return out, nil
}

func (c *Client) Export(_ context.Context, req ExportRequest) (ExportSummary, error) {
	runID, err := c.resolveRunID(req.RunID, req.Latest, "export")
	if err != nil {
		return ExportSummary{}, err
	}
	if req.OutDir == "" {
		req.OutDir = c.exportsDir
	}

	exportedDir, err := stats.ExportRunArtifacts(c.benchmarksDir, runID, req.OutDir)
	if err != nil {
		return ExportSummary{}, err
	}
	return ExportSummary{RunID: runID, Directory: filepath.Clean(exportedDir)}, nil
}

func (c *Client) FitnessHistory(ctx context.Context, req FitnessHistoryRequest) ([]float64, error) {
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}
	runID, err := c.resolveRunID(req.RunID, req.Latest, "fitness history")
	if err != nil {
		return nil, err
	}

	if _, err := c.ensurePolis(ctx); err != nil {
		return nil, err
	}
	history, ok, err := c.store.GetFitnessHistory(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("fitness history not found for run id: %s", runID)
	}
	if req.Limit > 0 && len(history) > req.Limit {
		history = history[:req.Limit]
	}
	return append([]float64(nil), history...), nil
}

func (c *Client) Diagnostics(ctx context.Context, req DiagnosticsRequest) ([]model.GenerationDiagnostics, error) {
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}
	runID, err := c.resolveRunID(req.RunID, req.Latest, "diagnostics")
	if err != nil {
		return nil, err
	}

	if _, err := c.ensurePolis(ctx); err != nil {
		return nil, err
	}
	diagnostics, ok, err := c.store.GetGenerationDiagnostics(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("diagnostics not found for run id: %s", runID)
	}
	if req.Limit > 0 && len(diagnostics) > req.Limit {
		diagnostics = diagnostics[:req.Limit]
	}
	out := make([]model.GenerationDiagnostics, len(diagnostics))
	copy(out, diagnostics)
	return out, nil
}

func (c *Client) TopIndividuals(ctx context.Context, req TopIndividualsRequest) ([]model.TopIndividualRecord, error) {
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}
	runID, err := c.resolveRunID(req.RunID, req.Latest, "top individuals")
	if err != nil {
		return nil, err
	}

	if _, err := c.ensurePolis(ctx); err != nil {
		return nil, err
	}
	top, ok, err := c.store.GetTopIndividuals(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("top individuals not found for run id: %s", runID)
	}
	if req.Limit > 0 && len(top) > req.Limit {
		top = top[:req.Limit]
	}
	out := make([]model.TopIndividualRecord, len(top))
	copy(out, top)
	return out, nil
}

func (c *Client) Champion(ctx context.Context, req ChampionRequest) (model.Individual, error) {
	runID, err := c.resolveRunID(req.RunID, req.Latest, "champion")
	if err != nil {
		return model.Individual{}, err
	}

	if _, err := c.ensurePolis(ctx); err != nil {
		return model.Individual{}, err
	}
	champion, ok, err := c.store.GetChampion(ctx, runID)
	if err != nil {
		return model.Individual{}, err
	}
	if !ok {
		return model.Individual{}, fmt.Errorf("champion not found for run id: %s", runID)
	}
	return champion, nil
}

func (c *Client) ScapeSummary(ctx context.Context, scapeName string) (ScapeSummaryItem, error) {
	if scapeName == "" {
		return ScapeSummaryItem{}, errors.New("scape name is required")
	}
	if _, err := c.ensurePolis(ctx); err != nil {
		return ScapeSummaryItem{}, err
	}
	summary, ok, err := c.store.GetScapeSummary(ctx, scapeName)
	if err != nil {
		return ScapeSummaryItem{}, err
	}
	if !ok {
		return ScapeSummaryItem{}, fmt.Errorf("scape summary not found: %s", scapeName)
	}
	return ScapeSummaryItem{
		Name:        summary.Name,
		Description: summary.Description,
		BestFitness: float64(summary.BestFitness),
		BestRunID:   summary.BestRunID,
		Runs:        summary.Runs,
	}, nil
}

// PauseRun, ContinueRun and StopRun steer a Run executing concurrently
// on the same client; each takes effect at the next generation boundary.
func (c *Client) PauseRun(runID string) error {
	if c.polis == nil {
		return errors.New("client is not initialized")
	}
	return c.polis.PauseRun(runID)
}

func (c *Client) ContinueRun(runID string) error {
	if c.polis == nil {
		return errors.New("client is not initialized")
	}
	return c.polis.ContinueRun(runID)
}

func (c *Client) StopRun(runID string) error {
	if c.polis == nil {
		return errors.New("client is not initialized")
	}
	return c.polis.StopRun(runID)
}

// resolveRunID maps the run-id/latest pair every read request carries to
// a concrete run id, preferring the newest index entry for latest.
func (c *Client) resolveRunID(runID string, latest bool, what string) (string, error) {
	if runID != "" && latest {
		return "", errors.New("use either run id or latest")
	}
	if runID != "" {
		return runID, nil
	}
	if !latest {
		return "", fmt.Errorf("%s requires run id or latest", what)
	}

	entries, err := stats.ListRunIndex(c.benchmarksDir)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "", errors.New("no runs available")
	}
	return entries[0].RunID, nil
}

func (c *Client) ensurePolis(ctx context.Context) (*platform.Polis, error) {
	if c.polis != nil {
		return c.polis, nil
	}

	builtins, err := scape.Builtins()
	if err != nil {
		return nil, err
	}
	p := platform.NewPolis(platform.Config{Store: c.store, Scapes: builtins})
	if err := p.Init(ctx); err != nil {
		return nil, err
	}
	c.polis = p
	return c.polis, nil
}

func toFitnessSeries(values []float64) []model.Fitness {
	out := make([]model.Fitness, len(values))
	for i, v := range values {
		out[i] = model.Fitness(v)
	}
	return out
}

func selectionFromName(name string) (evo.Selector, error) {
	switch name {
	case "elite":
		return evo.EliteSelector{}, nil
	case "tournament":
		return evo.TournamentSelector{PoolSize: 0, TournamentSize: 3}, nil
	default:
		return nil, fmt.Errorf("unsupported selection strategy: %s", name)
	}
}

func postprocessorFromName(name string, pressure float64) (evo.FitnessPostprocessor, error) {
	switch name {
	case "none":
		return evo.NoopFitnessPostprocessor{}, nil
	case "size_proportional":
		return evo.SizeProportionalPostprocessor{Pressure: pressure}, nil
	default:
		return nil, fmt.Errorf("unsupported fitness postprocessor: %s", name)
	}
}
