package main

import (
	"github.com/spf13/cobra"

	"dendron/pkg/dendron"
)

var exportRunFlag string
var exportLatestFlag bool
var exportOutFlag string

// exportCmd represents the export command.
var exportCmd = newExportCmd()

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Copy a run's artifacts to an output directory",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			summary, err := client.Export(cmd.Context(), dendron.ExportRequest{
				RunID:  exportRunFlag,
				Latest: exportLatestFlag,
				OutDir: exportOutFlag,
			})
			if err != nil {
				return err
			}

			cmd.Println("run id:   ", summary.RunID)
			cmd.Println("exported: ", summary.Directory)
			return nil
		},
	}

	cmd.Flags().StringVar(&exportRunFlag, "run", "", "run id")
	cmd.Flags().BoolVar(&exportLatestFlag, "latest", false, "export the most recent run")
	cmd.Flags().StringVarP(&exportOutFlag, "out", "o", "", "output directory (default exports dir)")

	return cmd
}

func init() {
	rootCmd.AddCommand(exportCmd)
}
