package main

import (
	"errors"
	"fmt"
	"strings"

	hepmc "github.com/next-exp/hepmc_go/pkg"
	"github.com/spf13/cobra"
)

func newSelectCmd() *cobra.Command {
	var eventNumber int

	cmd := &cobra.Command{
		Use:   "select",
		Short: "List the stable particles above the pT cutoff and their ancestry",
		RunE: func(cmd *cobra.Command, args []string) error {
			reader, err := openReader(cmd.Context(), configuration)
			if err != nil {
				return err
			}
			defer reader.Close()

			var want *int
			if cmd.Flags().Changed("event") {
				want = &eventNumber
			}
			evt, err := findEvent(reader, want)
			if err != nil {
				return err
			}

			stable, ancestors, err := hepmc.InterestingParticles(evt, configuration.PtCutoff, configuration.DistanceThreshold)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, evt)
			for _, p := range stable {
				chain, err := hepmc.GetAncestors(p, configuration.DistanceThreshold)
				if err != nil {
					return err
				}
				names := make([]string, 0, len(chain)-1)
				for _, a := range chain[:len(chain)-1] {
					names = append(names, a.String())
				}
				fmt.Fprintf(out, "%v pid=%d cat=%s pt=%.3f ancestors=[%s]\n",
					p, p.PID, hepmc.Category(p.PID), p.Momentum.Pt(), strings.Join(names, " "))
			}
			fmt.Fprintf(out, "stable: %d, ancestors: %d\n", len(stable), len(ancestors))
			return nil
		},
	}
	cmd.Flags().IntVar(&eventNumber, "event", 0, "Event number to select (default: the first event)")
	return cmd
}

// findEvent returns the event with the given number, or the first event when
// number is nil.
func findEvent(reader *hepmc.Reader, number *int) (*hepmc.Event, error) {
	for {
		evt, err := reader.Next()
		if err != nil {
			return nil, err
		}
		if evt == nil {
			if number == nil {
				return nil, errors.New("input has no events")
			}
			return nil, fmt.Errorf("event %d not found in input", *number)
		}
		if number == nil || evt.Number == *number {
			return evt, nil
		}
	}
}
