package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"dendron/pkg/dendron"
)

var fitnessRunFlag string
var fitnessLatestFlag bool
var fitnessLimitFlag int

// fitnessCmd represents the fitness command.
var fitnessCmd = newFitnessCmd()

func newFitnessCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fitness",
		Short: "Print the best fitness per generation for a run",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			history, err := client.FitnessHistory(cmd.Context(), dendron.FitnessHistoryRequest{
				RunID:  fitnessRunFlag,
				Latest: fitnessLatestFlag,
				Limit:  fitnessLimitFlag,
			})
			if err != nil {
				return err
			}

			for i, best := range history {
				cmd.Println(fmt.Sprintf("%4d  %s", i+1, formatFitness(best)))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&fitnessRunFlag, "run", "", "run id")
	cmd.Flags().BoolVar(&fitnessLatestFlag, "latest", false, "use the most recent run")
	cmd.Flags().IntVarP(&fitnessLimitFlag, "limit", "n", 0, "maximum generations to print (0 = all)")

	return cmd
}

func init() {
	rootCmd.AddCommand(fitnessCmd)
}
