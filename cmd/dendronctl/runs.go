package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"dendron/pkg/dendron"
)

var runsLimitFlag int

// runsCmd represents the runs command.
var runsCmd = newRunsCmd()

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded runs, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			runs, err := client.Runs(cmd.Context(), dendron.RunsRequest{Limit: runsLimitFlag})
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				cmd.Println("no runs recorded")
				return nil
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetHeader([]string{"Run ID", "Created", "Scape", "Pop", "Gens", "Evals", "Best", "Converged"})
			table.SetBorder(false)
			table.SetCenterSeparator("")
			for _, run := range runs {
				table.Append([]string{
					run.RunID,
					formatCreatedAt(run.CreatedAtUTC),
					run.Scape,
					fmt.Sprintf("%d", run.Population),
					fmt.Sprintf("%d", run.Generations),
					humanize.Comma(int64(run.Evaluations)),
					formatFitness(run.FinalBestFitness),
					fmt.Sprintf("%t", run.Converged),
				})
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().IntVarP(&runsLimitFlag, "limit", "n", 20, "maximum entries to list")

	return cmd
}

func init() {
	rootCmd.AddCommand(runsCmd)
}

func formatCreatedAt(createdAtUTC string) string {
	created, err := time.Parse(time.RFC3339Nano, createdAtUTC)
	if err != nil {
		return createdAtUTC
	}
	return humanize.Time(created)
}
