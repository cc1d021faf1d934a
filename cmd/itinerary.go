package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/stintplan/pkg/export"
)

func newItineraryCmd() *cobra.Command {
	var member string
	c := &cobra.Command{
		Use:   "itinerary <solved.json>",
		Short: "Print every member's itinerary in local time",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sf, err := export.LoadSolved(args[0])
			if err != nil {
				return fmt.Errorf("load solved file: %w", err)
			}
			rep, err := export.BuildReport(sf)
			if err != nil {
				return err
			}
			if member != "" {
				if _, ok := rep.Itinerary[member]; !ok {
					return fmt.Errorf("no itinerary for %q", member)
				}
				for name := range rep.Itinerary {
					if name != member {
						delete(rep.Itinerary, name)
					}
				}
			}
			return export.WriteItineraries(cmd.OutOrStdout(), rep)
		},
	}
	c.Flags().StringVarP(&member, "member", "m", "", "only print this member")
	return c
}
