package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/stintplan/app"
	"github.com/kilianp07/stintplan/config"
	"github.com/kilianp07/stintplan/pkg/export"
)

type solveFlags struct {
	output      string
	timeLimit   float64
	spotterMode string
	backend     string
	quiet       bool
}

func newSolveCmd(loadConfig func() (*config.Config, error)) *cobra.Command {
	var f solveFlags
	c := &cobra.Command{
		Use:   "solve [race-file]",
		Short: "Plan the race and write the solved schedule",
		Long: "Plan the race described by race-file (JSON or YAML, stdin when omitted or \"-\").\n" +
			"Without --output the solved file is written to stdout; with it the text report is printed instead.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runSolve(cmd, args, cfg, f)
		},
	}
	c.Flags().StringVarP(&f.output, "output", "o", "", "solved file to write")
	c.Flags().Float64Var(&f.timeLimit, "time-limit", 0, "solver time limit per round in seconds")
	c.Flags().StringVar(&f.spotterMode, "spotter-mode", "", "none, integrated or sequential")
	c.Flags().StringVar(&f.backend, "backend", "", "solver backend name")
	c.Flags().BoolVarP(&f.quiet, "quiet", "q", false, "do not print the report")
	return c
}

func readRace(cmd *cobra.Command, args []string) (*config.RaceFile, error) {
	if len(args) == 0 || args[0] == "-" {
		return config.DecodeRace(cmd.InOrStdin(), "")
	}
	return config.LoadRace(args[0])
}

func runSolve(cmd *cobra.Command, args []string, cfg *config.Config, f solveFlags) error {
	if f.timeLimit > 0 {
		cfg.Solver.TimeLimitSeconds = f.timeLimit
	}
	if f.spotterMode != "" {
		cfg.Solver.SpotterMode = f.spotterMode
	}
	if f.backend != "" {
		cfg.Solver.Backend.Type = f.backend
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	race, err := readRace(cmd, args)
	if err != nil {
		return fmt.Errorf("read race: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer closeService(svc)

	res, err := svc.Solve(ctx, race)
	if err != nil {
		return err
	}
	if f.output == "" {
		return export.WriteSolved(cmd.OutOrStdout(), res.Solved)
	}
	if err := writeSolvedFile(f.output, res.Solved); err != nil {
		return err
	}
	if f.quiet {
		return nil
	}
	rep, err := export.BuildReport(&res.Solved)
	if err != nil {
		return err
	}
	if err := export.WriteTXT(cmd.OutOrStdout(), rep); err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "\nSolved schedule written to %s (%s)\n", f.output, res.Plan.Status)
	return err
}

func writeSolvedFile(path string, sf export.SolvedFile) (err error) {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()
	return export.WriteSolved(out, sf)
}
