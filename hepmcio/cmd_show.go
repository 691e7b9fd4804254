package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	hepmc "github.com/next-exp/hepmc_go/pkg"
	"github.com/next-exp/hepmc_go/pkg/store"
	"github.com/spf13/cobra"
)

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <event-number>",
		Short: "Print a stored event as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			number, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid event number %q: %w", args[0], err)
			}
			s, err := store.Open(configuration)
			if err != nil {
				return err
			}
			defer s.Close()

			evt, err := s.LoadEvent(cmd.Context(), number)
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(hepmc.EncodeDocument(evt), "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}
