package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"dendron/pkg/dendron"
)

var storeKindFlag string
var dbPathFlag string
var benchmarksDirFlag string
var exportsDirFlag string
var verboseFlag bool
var logFileFlag string

const rootLongDescription = `Dendronctl evolves expression trees against registered scapes: it seeds
a random population, mutates it generation by generation, and keeps the
fitness history, diagnostics and best individuals of every run.

Fitness is a cost: lower is better, and a run converges once the best
individual's fitness drops to the configured goal.`

// rootCmd represents the base command when called without any subcommands.
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dendronctl",
		Short: "Tree-based genetic programming platform",
		Long:  rootLongDescription,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			configureLogger(viper.GetString(logFileFlagName), viper.GetBool(verboseFlagName))
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
		SilenceUsage: true,
	}
	configureRootFlags(cmd)
	return cmd
}

func configureRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&storeKindFlag, storeFlagName, viper.GetString(storeFlagName), "store backend: memory|sqlite")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(storeFlagName), storeFlagName)

	cmd.PersistentFlags().StringVar(&dbPathFlag, dbFlagName, viper.GetString(dbFlagName), "sqlite database path")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(dbFlagName), dbFlagName)

	cmd.PersistentFlags().StringVar(&benchmarksDirFlag, benchmarksFlagName, viper.GetString(benchmarksFlagName), "directory for run artifacts")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(benchmarksFlagName), benchmarksFlagName)

	cmd.PersistentFlags().StringVar(&exportsDirFlag, exportsFlagName, viper.GetString(exportsFlagName), "default directory for exported runs")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(exportsFlagName), exportsFlagName)

	cmd.PersistentFlags().BoolVarP(&verboseFlag, verboseFlagName, "v", viper.GetBool(verboseFlagName), "log at debug level")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(verboseFlagName), verboseFlagName)

	cmd.PersistentFlags().StringVar(&logFileFlag, logFileFlagName, viper.GetString(logFileFlagName), "log file path")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(logFileFlagName), logFileFlagName)
}

// bindFlagToConfig wires a Cobra flag to a Viper key so config/env values feed the flag.
func bindFlagToConfig(flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}

	cobra.CheckErr(viper.BindPFlag(key, flag))
}

func newClient() (*dendron.Client, error) {
	return dendron.New(dendron.Options{
		StoreKind:     viper.GetString(storeFlagName),
		DBPath:        viper.GetString(dbFlagName),
		BenchmarksDir: viper.GetString(benchmarksFlagName),
		ExportsDir:    viper.GetString(exportsFlagName),
	})
}

func formatFitness(value float64) string {
	return strconv.FormatFloat(value, 'g', 6, 64)
}

// Execute runs the root command. It is called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
