package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Print a summary line for every event of the input",
		RunE: func(cmd *cobra.Command, args []string) error {
			reader, err := openReader(cmd.Context(), configuration)
			if err != nil {
				return err
			}
			defer reader.Close()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "HepMC version %s\n", reader.Version())
			events, err := reader.AllEvents()
			if err != nil {
				return err
			}
			for _, evt := range events {
				fmt.Fprintln(out, evt)
			}
			fmt.Fprintf(out, "events: %d, skipped records: %d\n", len(events), len(reader.Skipped()))
			return nil
		},
	}
}
