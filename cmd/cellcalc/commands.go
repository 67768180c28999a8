package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vogtb/go-cellcalc/packages/formula"
	"github.com/vogtb/go-cellcalc/packages/grid"
)

func newEvalCmd(a *app) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "eval <formula>",
		Short: "Evaluate a formula, optionally against a grid file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sheet := grid.NewSheet()
			if file != "" {
				loaded, err := loadSheet(file, a.cfg.Import)
				if err != nil {
					return err
				}
				sheet = loaded
			}

			calc := a.calculator(sheet)
			value, err := calc.EvaluateFormula(args[0])
			if err != nil {
				fmt.Fprintln(cmd.OutOrStdout(), calc.Status())
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formula.FormatValue(value, a.cfg.Engine.Precision))
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "grid file (.csv or .xlsx) the formula's references read from")
	return cmd
}

func newInspectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <formula>",
		Short: "Print every pipeline stage of a formula and the cells it refers to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			refs, err := formula.References(args[0])
			if err != nil {
				return err
			}
			trace, err := formula.Inspect(args[0], a.cfg.Engine.MaxNestingDepth)
			printTrace(cmd.OutOrStdout(), trace, refs, err == nil)
			return err
		},
	}
}

func printTrace(w io.Writer, trace *formula.Trace, refs []formula.Coordinate, evaluated bool) {
	stage := func(name, value string) {
		fmt.Fprintf(w, "%-13s %s\n", name, value)
	}

	stage("input", trace.Input)
	if len(refs) > 0 {
		labels := make([]string, len(refs))
		for i, ref := range refs {
			labels[i] = ref.String()
		}
		stage("references", strings.Join(labels, " "))
	}
	if trace.Normalized != "" {
		stage("normalized", trace.Normalized)
	}
	if trace.Preprocessed != "" {
		stage("preprocessed", trace.Preprocessed)
	}
	if trace.Tokens != nil {
		stage("tokens", tokenValues(trace.Tokens))
	}
	if trace.Prefix != nil {
		stage("prefix", tokenValues(trace.Prefix))
	}
	if trace.Tree != nil {
		stage("tree", trace.Tree.String())
	}
	if evaluated {
		stage("value", formula.FormatNumber(trace.Value))
	}
}

func tokenValues(tokens []formula.Token) string {
	values := make([]string, len(tokens))
	for i, tok := range tokens {
		values[i] = tok.Value
	}
	return strings.Join(values, " ")
}

func newRunCmd(a *app) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "run <file>",
		Short: "Evaluate every cell of a grid file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sheet, err := loadSheet(args[0], a.cfg.Import)
			if err != nil {
				return err
			}

			results := grid.EvaluateAll(sheet, a.calculator(sheet))
			failed := grid.Failed(results)
			for _, r := range failed {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s: %v\n", r.Cell.Label(), formula.InvalidFormulaStatus, r.Err)
			}
			a.logger.Info().Str("file", args[0]).Int("cells", len(results)).Int("failed", len(failed)).Msg("grid evaluated")

			if out == "" {
				return grid.WriteCSV(cmd.OutOrStdout(), sheet, a.cfg.Engine.Precision)
			}
			return saveSheet(out, sheet, a.cfg.Engine.Precision)
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "write the evaluated grid to this file (.csv or .xlsx) instead of stdout")
	return cmd
}

func newCellCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "cell <file> <label>",
		Short: "Evaluate one cell of a grid file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			coord, err := formula.ParseCoordinate(args[1])
			if err != nil {
				return err
			}
			sheet, err := loadSheet(args[0], a.cfg.Import)
			if err != nil {
				return err
			}

			calc := a.calculator(sheet)
			value, err := calc.EvaluateCell(coord.Row, coord.Col)
			if err != nil {
				fmt.Fprintln(cmd.OutOrStdout(), calc.Status())
				return fmt.Errorf("%s: %w", coord, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), formula.FormatValue(value, a.cfg.Engine.Precision))
			return nil
		},
	}
}
