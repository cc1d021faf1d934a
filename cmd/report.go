package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kilianp07/stintplan/pkg/export"
)

func newReportCmd() *cobra.Command {
	var format string
	c := &cobra.Command{
		Use:   "report <solved.json> <out>",
		Short: "Render a solved schedule as xlsx, csv, txt, html, ics or json",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			f := export.FormatFromPath(args[1])
			if format != "" {
				if f, err = export.ParseFormat(format); err != nil {
					return err
				}
			}
			sf, err := export.LoadSolved(args[0])
			if err != nil {
				return fmt.Errorf("load solved file: %w", err)
			}
			out, err := os.Create(args[1])
			if err != nil {
				return err
			}
			defer func() {
				if cerr := out.Close(); err == nil {
					err = cerr
				}
			}()
			if err := export.Write(out, f, sf); err != nil {
				return fmt.Errorf("write %s report: %w", f, err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s report written to %s\n", f, args[1])
			return err
		},
	}
	c.Flags().StringVarP(&format, "format", "f", "", "xlsx, csv, txt, html, ics or json; follows the extension when empty")
	return c
}
