package cmd

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/kilianp07/stintplan/app"
	"github.com/kilianp07/stintplan/config"
	"github.com/kilianp07/stintplan/core/history"
)

func newHistoryCmd(loadConfig func() (*config.Config, error)) *cobra.Command {
	var (
		participant string
		since       time.Duration
	)
	c := &cobra.Command{
		Use:   "history",
		Short: "List archived planning runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if !cfg.History.Enabled() {
				return fmt.Errorf("run history is disabled, set history.backend")
			}
			svc, err := app.New(cfg)
			if err != nil {
				return err
			}
			defer closeService(svc)

			q := history.RunQuery{Participant: participant}
			if since > 0 {
				q.Start = time.Now().Add(-since)
			}
			runs, err := svc.History(cmd.Context(), q)
			if err != nil {
				return err
			}
			t := table.NewWriter()
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"Run", "Solved At (UTC)", "Race Start (UTC)", "Mode", "Status", "Duration", "Stints"})
			for _, r := range runs {
				t.AppendRow(table.Row{
					r.ID,
					r.Timestamp.UTC().Format(time.DateTime),
					r.RaceStart.UTC().Format(time.DateTime),
					r.Mode,
					r.Status,
					r.Duration.Round(time.Millisecond).String(),
					len(r.Schedule),
				})
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), t.Render())
			return err
		},
	}
	c.Flags().StringVarP(&participant, "participant", "p", "", "only runs involving this member")
	c.Flags().DurationVar(&since, "since", 0, "only runs solved within this duration")
	return c
}
