package dendron

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	base := t.TempDir()
	client, err := New(Options{
		StoreKind:     "memory",
		BenchmarksDir: filepath.Join(base, "benchmarks"),
		ExportsDir:    filepath.Join(base, "exports"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestClientRunProducesArtifactsAndRecords(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	summary, err := client.Run(ctx, RunRequest{
		Scape:       "quadratic",
		Population:  8,
		Generations: 2,
		Seed:        42,
		Workers:     2,
	})
	require.NoError(t, err)
	require.NotEmpty(t, summary.RunID)
	assert.NotEmpty(t, summary.BestByGeneration)
	assert.LessOrEqual(t, len(summary.BestByGeneration), 2)
	assert.Equal(t, 8*len(summary.BestByGeneration), summary.Evaluations)
	assert.NotEmpty(t, summary.ChampionExpression)

	// Artifacts land under the benchmarks directory.
	for _, file := range []string{"config.json", "fitness_history.json", "benchmark_series.csv"} {
		_, err := os.Stat(filepath.Join(summary.ArtifactsDir, file))
		assert.NoError(t, err, file)
	}

	runs, err := client.Runs(ctx, RunsRequest{Limit: 5})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, summary.RunID, runs[0].RunID)
	assert.Equal(t, "quadratic", runs[0].Scape)

	history, err := client.FitnessHistory(ctx, FitnessHistoryRequest{RunID: summary.RunID})
	require.NoError(t, err)
	assert.Equal(t, summary.BestByGeneration, history)

	latestHistory, err := client.FitnessHistory(ctx, FitnessHistoryRequest{Latest: true})
	require.NoError(t, err)
	assert.Equal(t, history, latestHistory)

	diagnostics, err := client.Diagnostics(ctx, DiagnosticsRequest{RunID: summary.RunID})
	require.NoError(t, err)
	require.NotEmpty(t, diagnostics)
	assert.Equal(t, 1, diagnostics[0].Generation)

	top, err := client.TopIndividuals(ctx, TopIndividualsRequest{RunID: summary.RunID})
	require.NoError(t, err)
	require.NotEmpty(t, top)
	assert.Equal(t, 1, top[0].Rank)

	champion, err := client.Champion(ctx, ChampionRequest{RunID: summary.RunID})
	require.NoError(t, err)
	assert.Equal(t, summary.ChampionExpression, champion.Expression)

	scapeSummary, err := client.ScapeSummary(ctx, "quadratic")
	require.NoError(t, err)
	assert.Equal(t, 1, scapeSummary.Runs)
	assert.Equal(t, summary.RunID, scapeSummary.BestRunID)

	export, err := client.Export(ctx, ExportRequest{Latest: true})
	require.NoError(t, err)
	assert.Equal(t, summary.RunID, export.RunID)
	_, err = os.Stat(filepath.Join(export.Directory, "config.json"))
	assert.NoError(t, err)
}

func TestClientRunRejectsBadConfiguration(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	cases := []struct {
		name string
		req  RunRequest
	}{
		{"unknown scape", RunRequest{Scape: "maze", Population: 4, Generations: 1}},
		{"unknown selection", RunRequest{Selection: "roulette", Population: 4, Generations: 1}},
		{"unknown postprocessor", RunRequest{FitnessPostprocessor: "novelty", Population: 4, Generations: 1}},
		{"unknown mutation method", RunRequest{MutationMethod: "ramped", Population: 4, Generations: 1}},
		{"negative generations", RunRequest{Population: 4, Generations: -1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := client.Run(ctx, tc.req)
			assert.Error(t, err)
		})
	}
}

func TestClientReadRequestsRequireRunIDOrLatest(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	_, err := client.Export(ctx, ExportRequest{RunID: "run-1", Latest: true})
	assert.Error(t, err)

	_, err = client.Export(ctx, ExportRequest{})
	assert.Error(t, err)

	// Latest with an empty index has nothing to resolve against.
	_, err = client.FitnessHistory(ctx, FitnessHistoryRequest{Latest: true})
	assert.Error(t, err)

	_, err = client.Diagnostics(ctx, DiagnosticsRequest{RunID: "missing"})
	assert.Error(t, err)
}

func TestClientScapesListsBuiltins(t *testing.T) {
	client := newTestClient(t)

	scapes, err := client.Scapes(context.Background())
	require.NoError(t, err)

	names := make([]string, 0, len(scapes))
	for _, s := range scapes {
		names = append(names, s.Name)
		assert.NotEmpty(t, s.Description, s.Name)
	}
	assert.Equal(t, []string{"constant", "line", "quadratic"}, names)
}

func TestClientRunControlRequiresInit(t *testing.T) {
	client := newTestClient(t)

	assert.Error(t, client.PauseRun("run-1"))
	assert.Error(t, client.ContinueRun("run-1"))
	assert.Error(t, client.StopRun("run-1"))
}

func TestClientRejectsUnknownStoreKind(t *testing.T) {
	_, err := New(Options{StoreKind: "etcd"})
	assert.Error(t, err)
}

func TestSelectionAndPostprocessorNames(t *testing.T) {
	selector, err := selectionFromName("tournament")
	require.NoError(t, err)
	assert.Equal(t, "tournament", selector.Name())

	postprocessor, err := postprocessorFromName("size_proportional", 0.05)
	require.NoError(t, err)
	assert.NotNil(t, postprocessor)

	_, err = selectionFromName("rank")
	assert.Error(t, err)
	_, err = postprocessorFromName("parsimony", 0)
	assert.Error(t, err)
}
