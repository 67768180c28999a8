package main

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vogtb/go-cellcalc/packages/config"
	"github.com/vogtb/go-cellcalc/packages/formula"
	"github.com/vogtb/go-cellcalc/packages/logging"
)

// app is the state shared by every subcommand once flags are parsed
type app struct {
	configPath string
	logLevel   string

	cfg    config.Config
	logger zerolog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "cellcalc",
		Short: "cellcalc evaluates spreadsheet cell formulas",
		Long: `cellcalc evaluates arithmetic cell formulas against a grid.

Commands:
  eval     Evaluate a formula, optionally against a grid file
  inspect  Print every pipeline stage of a formula
  run      Evaluate every cell of a grid file
  cell     Evaluate one cell of a grid file
  serve    Share a grid with websocket clients
`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "YAML configuration file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level, overrides the configuration")

	root.AddCommand(
		newEvalCmd(a),
		newInspectCmd(a),
		newRunCmd(a),
		newCellCmd(a),
		newServeCmd(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	logger, err := logging.New(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}

func (a *app) calculator(grid formula.Grid) *formula.Calculator {
	return formula.NewCalculator(grid,
		formula.WithLogger(logging.Component(a.logger, "calc")),
		formula.WithMaxReferenceDepth(a.cfg.Engine.MaxReferenceDepth),
		formula.WithMaxNestingDepth(a.cfg.Engine.MaxNestingDepth),
		formula.WithCycleDetection(a.cfg.Engine.DetectCycles),
	)
}
