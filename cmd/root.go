package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/stintplan/app"
	"github.com/kilianp07/stintplan/config"
	"github.com/kilianp07/stintplan/infra/logger"
)

// NewRootCmd builds the stintplan command tree.
func NewRootCmd() *cobra.Command {
	var cfgPath string
	root := &cobra.Command{
		Use:           "stintplan",
		Short:         "Endurance race driver and spotter roster planner",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "configuration file (yaml or json); environment only when empty")

	loadConfig := func() (*config.Config, error) {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		return cfg, nil
	}
	root.AddCommand(
		newSolveCmd(loadConfig),
		newReportCmd(),
		newItineraryCmd(),
		newHistoryCmd(loadConfig),
	)
	return root
}

// Execute runs the CLI.
func Execute() error { return NewRootCmd().Execute() }

func closeService(svc *app.Service) {
	if err := svc.Close(); err != nil {
		logger.New("cli").Errorf("service close: %v", err)
	}
}
