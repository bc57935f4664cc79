package main

import (
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"dendron/pkg/dendron"
)

var runScapeFlag string
var runPopulationFlag int
var runGenerationsFlag int
var runSeedFlag int64
var runWorkersFlag int
var runElitesFlag int
var runGoalFlag float64
var runEvaluationsLimitFlag int
var runMinDepthFlag int
var runMaxDepthFlag int
var runMutationDepthFlag int
var runMutationMethodFlag string
var runMaxOffspringDepthFlag int
var runSelectionFlag string
var runPostprocessorFlag string
var runParsimonyPressureFlag float64

// runCmd represents the run command.
var runCmd = newRunCmd()

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run an evolutionary search on a scape",
		Long: `Run seeds a ramped half-and-half population on the chosen scape and
evolves it with elitism and subtree mutation until the fitness goal,
the generation or evaluation limit, or an interrupt ends the run.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			started := time.Now()
			summary, err := client.Run(cmd.Context(), dendron.RunRequest{
				Scape:                runScapeFlag,
				Population:           runPopulationFlag,
				Generations:          runGenerationsFlag,
				Seed:                 runSeedFlag,
				Workers:              runWorkersFlag,
				EliteCount:           runElitesFlag,
				FitnessGoal:          runGoalFlag,
				EvaluationsLimit:     runEvaluationsLimitFlag,
				MinDepth:             runMinDepthFlag,
				MaxDepth:             runMaxDepthFlag,
				MutationDepth:        runMutationDepthFlag,
				MutationMethod:       runMutationMethodFlag,
				MaxOffspringDepth:    runMaxOffspringDepthFlag,
				Selection:            runSelectionFlag,
				FitnessPostprocessor: runPostprocessorFlag,
				ParsimonyPressure:    runParsimonyPressureFlag,
			})
			if err != nil {
				return err
			}
			elapsed := time.Since(started).Round(time.Millisecond)

			slog.Info("run finished",
				"run_id", summary.RunID,
				"converged", summary.Converged,
				"evaluations", summary.Evaluations,
				"elapsed", elapsed,
			)

			cmd.Println("run id:       ", summary.RunID)
			cmd.Println("artifacts:    ", summary.ArtifactsDir)
			cmd.Println("generations:  ", humanize.Comma(int64(len(summary.BestByGeneration))))
			cmd.Println("evaluations:  ", humanize.Comma(int64(summary.Evaluations)))
			cmd.Println("best fitness: ", formatFitness(summary.FinalBestFitness))
			cmd.Println("converged:    ", summary.Converged)
			cmd.Println("elapsed:      ", elapsed)
			if summary.ChampionExpression != "" {
				cmd.Println("champion:     ", summary.ChampionExpression)
			}
			return nil
		},
	}

	configureRunFlags(cmd)

	return cmd
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func configureRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&runScapeFlag, "scape", "quadratic", "scape to evolve against")
	cmd.Flags().IntVar(&runPopulationFlag, "population", 50, "population size")
	cmd.Flags().IntVar(&runGenerationsFlag, "generations", 100, "maximum number of generations")
	cmd.Flags().Int64Var(&runSeedFlag, "seed", 0, "random seed")
	cmd.Flags().IntVarP(&runWorkersFlag, "workers", "w", 4, "parallel evaluation workers")
	cmd.Flags().IntVar(&runElitesFlag, "elites", 0, "elite count (default population/5)")
	cmd.Flags().Float64Var(&runGoalFlag, "goal", 0, "fitness goal; the run converges at or below it")
	cmd.Flags().IntVar(&runEvaluationsLimitFlag, "evaluations-limit", 0, "stop after this many evaluations (0 = unlimited)")
	cmd.Flags().IntVar(&runMinDepthFlag, "min-depth", 1, "minimum depth of initial trees")
	cmd.Flags().IntVar(&runMaxDepthFlag, "max-depth", 4, "maximum depth of initial trees")
	cmd.Flags().IntVar(&runMutationDepthFlag, "mutation-depth", 3, "depth cap of subtrees spliced in by mutation")
	cmd.Flags().StringVar(&runMutationMethodFlag, "mutation-method", "grow", "subtree generation method: grow|full")
	cmd.Flags().IntVar(&runMaxOffspringDepthFlag, "max-offspring-depth", 0, "depth cap of whole offspring (0 = uncapped)")
	cmd.Flags().StringVar(&runSelectionFlag, "selection", "elite", "parent selection: elite|tournament")
	cmd.Flags().StringVar(&runPostprocessorFlag, "postprocessor", "none", "fitness postprocessor: none|size_proportional")
	cmd.Flags().Float64Var(&runParsimonyPressureFlag, "parsimony-pressure", 0, "per-node fitness penalty for size_proportional")
}
