package main

import (
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"dendron/pkg/dendron"
)

var diagnosticsRunFlag string
var diagnosticsLatestFlag bool
var diagnosticsLimitFlag int

// diagnosticsCmd represents the diagnostics command.
var diagnosticsCmd = newDiagnosticsCmd()

func newDiagnosticsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diagnostics",
		Short: "Show per-generation diagnostics for a run",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			diagnostics, err := client.Diagnostics(cmd.Context(), dendron.DiagnosticsRequest{
				RunID:  diagnosticsRunFlag,
				Latest: diagnosticsLatestFlag,
				Limit:  diagnosticsLimitFlag,
			})
			if err != nil {
				return err
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetHeader([]string{"Gen", "Best", "Mean", "Worst", "Unfit", "Nodes", "Depth", "Evals"})
			table.SetBorder(false)
			table.SetCenterSeparator("")
			for _, d := range diagnostics {
				table.Append([]string{
					fmt.Sprintf("%d", d.Generation),
					formatFitness(float64(d.BestFitness)),
					formatFitness(float64(d.MeanFitness)),
					formatFitness(float64(d.WorstFitness)),
					fmt.Sprintf("%d", d.UnfitCount),
					fmt.Sprintf("%.1f", d.MeanNodeCount),
					fmt.Sprintf("%d", d.MaxDepth),
					fmt.Sprintf("%d", d.Evaluations),
				})
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&diagnosticsRunFlag, "run", "", "run id")
	cmd.Flags().BoolVar(&diagnosticsLatestFlag, "latest", false, "use the most recent run")
	cmd.Flags().IntVarP(&diagnosticsLimitFlag, "limit", "n", 0, "maximum generations to show (0 = all)")

	return cmd
}

func init() {
	rootCmd.AddCommand(diagnosticsCmd)
}
