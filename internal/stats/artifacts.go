package stats

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"dendron/internal/model"
)

const runIndexFile = "run_index.json"

// RunConfig is the frozen copy of the parameters a run was launched
// with, written next to its artifacts so results stay reproducible.
type RunConfig struct {
	RunID                string  `json:"run_id"`
	Scape                string  `json:"scape"`
	PopulationSize       int     `json:"population_size"`
	Generations          int     `json:"generations"`
	FitnessGoal          float64 `json:"fitness_goal"`
	EvaluationsLimit     int     `json:"evaluations_limit"`
	EliteCount           int     `json:"elite_count"`
	Workers              int     `json:"workers"`
	Seed                 int64   `json:"seed"`
	MinDepth             int     `json:"min_depth"`
	MaxDepth             int     `json:"max_depth"`
	MutationDepth        int     `json:"mutation_depth"`
	MutationMethod       string  `json:"mutation_method"`
	MaxOffspringDepth    int     `json:"max_offspring_depth"`
	Selection            string  `json:"selection"`
	FitnessPostprocessor string  `json:"fitness_postprocessor"`
	StoreBackend         string  `json:"store_backend"`
}

type RunArtifacts struct {
	Config                RunConfig                     `json:"config"`
	BestByGeneration      []model.Fitness               `json:"best_by_generation"`
	GenerationDiagnostics []model.GenerationDiagnostics `json:"generation_diagnostics,omitempty"`
	FinalBestFitness      model.Fitness                 `json:"final_best_fitness"`
	Converged             bool                          `json:"converged"`
	Evaluations           int                           `json:"evaluations"`
	TopIndividuals        []model.TopIndividualRecord   `json:"top_individuals"`
	Champion              *model.Individual             `json:"champion,omitempty"`
}

type RunIndexEntry struct {
	RunID            string        `json:"run_id"`
	Scape            string        `json:"scape"`
	PopulationSize   int           `json:"population_size"`
	Generations      int           `json:"generations"`
	Seed             int64         `json:"seed"`
	Workers          int           `json:"workers"`
	EliteCount       int           `json:"elite_count"`
	Converged        bool          `json:"converged"`
	Evaluations      int           `json:"evaluations"`
	FinalBestFitness model.Fitness `json:"final_best_fitness"`
	CreatedAtUTC     string        `json:"created_at_utc"`
}

// WriteRunArtifacts lays the run's observability files down under
// baseDir/<run-id>/ and returns the run directory.
func WriteRunArtifacts(baseDir string, artifacts RunArtifacts) (string, error) {
	if artifacts.Config.RunID == "" {
		return "", fmt.Errorf("run id is required")
	}

	runDir := filepath.Join(baseDir, artifacts.Config.RunID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, "config.json"), artifacts.Config); err != nil {
		return "", err
	}
	history := map[string]any{
		"best_by_generation": artifacts.BestByGeneration,
		"final_best_fitness": artifacts.FinalBestFitness,
		"converged":          artifacts.Converged,
		"evaluations":        artifacts.Evaluations,
	}
	if err := writeJSON(filepath.Join(runDir, "fitness_history.json"), history); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, "generation_diagnostics.json"), artifacts.GenerationDiagnostics); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, "top_individuals.json"), artifacts.TopIndividuals); err != nil {
		return "", err
	}
	if artifacts.Champion != nil {
		if err := writeJSON(filepath.Join(runDir, "champion.json"), artifacts.Champion); err != nil {
			return "", err
		}
	}
	if err := WriteBenchmarkSeries(runDir, artifacts.BestByGeneration); err != nil {
		return "", err
	}

	return runDir, nil
}

func AppendRunIndex(baseDir string, entry RunIndexEntry) error {
	if entry.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return err
	}

	index, err := ListRunIndex(baseDir)
	if err != nil {
		return err
	}

	for i := range index {
		if index[i].RunID == entry.RunID {
			index[i] = entry
			return writeJSON(filepath.Join(baseDir, runIndexFile), index)
		}
	}

	index = append(index, entry)
	return writeJSON(filepath.Join(baseDir, runIndexFile), index)
}

// ListRunIndex returns index entries newest-first.
func ListRunIndex(baseDir string) ([]RunIndexEntry, error) {
	path := filepath.Join(baseDir, runIndexFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunIndexEntry{}, nil
		}
		return nil, err
	}

	var entries []RunIndexEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}

	type indexedEntry struct {
		entry RunIndexEntry
		idx   int
	}
	indexed := make([]indexedEntry, len(entries))
	for i := range entries {
		indexed[i] = indexedEntry{entry: entries[i], idx: i}
	}
	sort.Slice(indexed, func(i, j int) bool {
		if indexed[i].entry.CreatedAtUTC == indexed[j].entry.CreatedAtUTC {
			// Prefer later appended entries for equal timestamps.
			return indexed[i].idx > indexed[j].idx
		}
		return indexed[i].entry.CreatedAtUTC > indexed[j].entry.CreatedAtUTC
	})

	sorted := make([]RunIndexEntry, 0, len(indexed))
	for _, item := range indexed {
		sorted = append(sorted, item.entry)
	}
	return sorted, nil
}

func ReadRunConfig(baseDir, runID string) (RunConfig, bool, error) {
	path := filepath.Join(baseDir, runID, "config.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return RunConfig{}, false, nil
		}
		return RunConfig{}, false, err
	}

	var cfg RunConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return RunConfig{}, false, err
	}
	return cfg, true, nil
}

func ReadTopIndividuals(baseDir, runID string) ([]model.TopIndividualRecord, bool, error) {
	path := filepath.Join(baseDir, runID, "top_individuals.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var top []model.TopIndividualRecord
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, false, err
	}
	return top, true, nil
}

func ReadChampion(baseDir, runID string) (model.Individual, bool, error) {
	path := filepath.Join(baseDir, runID, "champion.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.Individual{}, false, nil
		}
		return model.Individual{}, false, err
	}

	var champion model.Individual
	if err := json.Unmarshal(data, &champion); err != nil {
		return model.Individual{}, false, err
	}
	return champion, true, nil
}

// ExportRunArtifacts copies a run's artifacts into outDir/<run-id>/.
func ExportRunArtifacts(baseDir, runID, outDir string) (string, error) {
	if runID == "" {
		return "", fmt.Errorf("run id is required")
	}

	src := filepath.Join(baseDir, runID)
	if _, err := os.Stat(src); err != nil {
		return "", err
	}

	dst := filepath.Join(outDir, runID)
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return "", err
	}

	required := []string{"config.json", "fitness_history.json", "generation_diagnostics.json", "top_individuals.json", "benchmark_series.csv"}
	for _, file := range required {
		if err := copyFile(filepath.Join(src, file), filepath.Join(dst, file)); err != nil {
			return "", err
		}
	}
	championPath := filepath.Join(src, "champion.json")
	if _, err := os.Stat(championPath); err == nil {
		if err := copyFile(championPath, filepath.Join(dst, "champion.json")); err != nil {
			return "", err
		}
	} else if !os.IsNotExist(err) {
		return "", err
	}

	return dst, nil
}

func WriteBenchmarkSeries(runDir string, bestByGeneration []model.Fitness) error {
	path := filepath.Join(runDir, "benchmark_series.csv")
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"generation", "best_fitness"}); err != nil {
		return err
	}
	for i, best := range bestByGeneration {
		if err := writer.Write([]string{
			strconv.Itoa(i + 1),
			strconv.FormatFloat(float64(best), 'f', -1, 64),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func ReadBenchmarkSeries(baseDir, runID string) ([]float64, bool, error) {
	path := filepath.Join(baseDir, runID, "benchmark_series.csv")
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return []float64{}, true, nil
		}
		return nil, false, err
	}
	if len(header) < 2 {
		return nil, false, fmt.Errorf("benchmark series header must have at least 2 columns")
	}

	series := make([]float64, 0, 128)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, false, err
		}
		if len(record) < 2 {
			return nil, false, fmt.Errorf("benchmark series row must have at least 2 columns")
		}
		value, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			return nil, false, err
		}
		series = append(series, value)
	}
	return series, true, nil
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
