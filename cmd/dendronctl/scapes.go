package main

import (
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// scapesCmd represents the scapes command.
var scapesCmd = newScapesCmd()

func newScapesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scapes",
		Short: "List registered scapes and their best observed fitness",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			scapes, err := client.Scapes(cmd.Context())
			if err != nil {
				return err
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetHeader([]string{"Name", "Description", "Best", "Runs"})
			table.SetBorder(false)
			table.SetCenterSeparator("")
			for _, s := range scapes {
				best := "-"
				runs := "0"
				if summary, err := client.ScapeSummary(cmd.Context(), s.Name); err == nil {
					best = formatFitness(summary.BestFitness)
					runs = fmt.Sprintf("%d", summary.Runs)
				}
				table.Append([]string{s.Name, s.Description, best, runs})
			}
			table.Render()
			return nil
		},
	}
}

func init() {
	rootCmd.AddCommand(scapesCmd)
}
