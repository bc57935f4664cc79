package main

import (
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"dendron/pkg/dendron"
)

var topRunFlag string
var topLatestFlag bool
var topLimitFlag int

// topCmd represents the top command.
var topCmd = newTopCmd()

func newTopCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "top",
		Short: "Show the best individuals of a run",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			top, err := client.TopIndividuals(cmd.Context(), dendron.TopIndividualsRequest{
				RunID:  topRunFlag,
				Latest: topLatestFlag,
				Limit:  topLimitFlag,
			})
			if err != nil {
				return err
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetHeader([]string{"Rank", "Fitness", "Nodes", "Depth", "Expression"})
			table.SetBorder(false)
			table.SetCenterSeparator("")
			table.SetColumnAlignment([]int{
				tablewriter.ALIGN_CENTER,
				tablewriter.ALIGN_CENTER,
				tablewriter.ALIGN_CENTER,
				tablewriter.ALIGN_CENTER,
				tablewriter.ALIGN_LEFT,
			})
			for _, record := range top {
				table.Append([]string{
					fmt.Sprintf("%d", record.Rank),
					formatFitness(float64(record.Fitness)),
					fmt.Sprintf("%d", record.Individual.NodeCount),
					fmt.Sprintf("%d", record.Individual.Depth),
					record.Individual.Expression,
				})
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&topRunFlag, "run", "", "run id")
	cmd.Flags().BoolVar(&topLatestFlag, "latest", false, "use the most recent run")
	cmd.Flags().IntVarP(&topLimitFlag, "limit", "n", 0, "maximum individuals to show (0 = all)")

	return cmd
}

func init() {
	rootCmd.AddCommand(topCmd)
}
