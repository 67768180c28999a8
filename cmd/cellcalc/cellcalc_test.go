package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vogtb/go-cellcalc/packages/formula"
	"github.com/vogtb/go-cellcalc/packages/grid"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func writeFile(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestEvalCommand(t *testing.T) {
	tests := []struct {
		formula string
		want    string
	}{
		{"2+3*4", "14"},
		{"pow(2,10)", "1024"},
		{"=1/3", "0.33"},
		{"-(2-2*3)*(42+2)", "176"},
		{"A1+1", "1"},
	}

	for _, tt := range tests {
		t.Run(tt.formula, func(t *testing.T) {
			out, _, err := execute(t, "eval", "--", tt.formula)
			if err != nil {
				t.Fatalf("eval failed: %v", err)
			}
			if strings.TrimSpace(out) != tt.want {
				t.Errorf("expected %s, got %q", tt.want, out)
			}
		})
	}
}

func TestEvalCommandFailure(t *testing.T) {
	out, _, err := execute(t, "eval", "1/0")
	if err == nil {
		t.Fatal("expected an error")
	}
	if !formula.IsKind(err, formula.ErrorKindDomain) {
		t.Errorf("expected a domain error, got %v", err)
	}
	if strings.TrimSpace(out) != formula.InvalidFormulaStatus {
		t.Errorf("expected the status line, got %q", out)
	}
}

func TestEvalCommandWithFile(t *testing.T) {
	path := writeFile(t, "grid.csv", "1,2\n3,4\n")

	out, _, err := execute(t, "eval", "--file", path, "A1+B2*A2")
	if err != nil {
		t.Fatalf("eval failed: %v", err)
	}
	if strings.TrimSpace(out) != "13" {
		t.Errorf("expected 13, got %q", out)
	}

	if _, _, err := execute(t, "eval", "--file", filepath.Join(t.TempDir(), "missing.csv"), "1"); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestInspectCommand(t *testing.T) {
	out, _, err := execute(t, "inspect", "--", "-2*3")
	if err != nil {
		t.Fatalf("inspect failed: %v", err)
	}
	for _, want := range []string{
		"input         -2*3",
		"normalized    ~2*3",
		"tokens        ~ 2 * 3",
		"prefix        * ~ 2 3",
		"tree          (* (~ 2) 3)",
		"value         -6",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in\n%s", want, out)
		}
	}
}

func TestInspectCommandStopsAtFailure(t *testing.T) {
	out, _, err := execute(t, "inspect", "sqrt(-4)")
	if !formula.IsKind(err, formula.ErrorKindDomain) {
		t.Fatalf("expected a domain error, got %v", err)
	}
	if !strings.Contains(out, "tree") || strings.Contains(out, "value") {
		t.Errorf("expected stages up to the tree only, got\n%s", out)
	}

	_, _, err = execute(t, "inspect", "A1+1")
	if !formula.IsKind(err, formula.ErrorKindReference) {
		t.Errorf("expected a reference error, got %v", err)
	}
}

func TestInspectCommandListsReferences(t *testing.T) {
	out, _, err := execute(t, "inspect", "A1+max(B2,AA10)")
	if !formula.IsKind(err, formula.ErrorKindReference) {
		t.Fatalf("expected a reference error, got %v", err)
	}
	if !strings.Contains(out, "references    A1 B2 AA10") {
		t.Errorf("expected the referenced cells, got\n%s", out)
	}

	out, _, err = execute(t, "inspect", "1+2")
	if err != nil {
		t.Fatalf("inspect failed: %v", err)
	}
	if strings.Contains(out, "references") {
		t.Errorf("expected no references line, got\n%s", out)
	}

	if _, _, err := execute(t, "inspect", "A0+1"); !formula.IsKind(err, formula.ErrorKindSyntax) {
		t.Errorf("expected a syntax error for row 0, got %v", err)
	}
}

func TestRunCommand(t *testing.T) {
	path := writeFile(t, "grid.csv", "2,A1*21\nB1/0,\n")

	out, errOut, err := execute(t, "run", path)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if out != "2,42\nB1/0,\n" {
		t.Errorf("unexpected output %q", out)
	}
	if !strings.Contains(errOut, "A2: "+formula.InvalidFormulaStatus) {
		t.Errorf("expected the failing cell on stderr, got %q", errOut)
	}
	if !strings.Contains(errOut, `"failed":1`) {
		t.Errorf("expected a summary log line, got %q", errOut)
	}
}

func TestRunCommandWritesXLSX(t *testing.T) {
	path := writeFile(t, "grid.csv", "2,A1*21\n")
	dest := filepath.Join(t.TempDir(), "out.xlsx")

	if _, _, err := execute(t, "run", path, "--out", dest); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	f, err := os.Open(dest)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer f.Close()
	sheet, err := grid.LoadXLSX(f, "")
	if err != nil {
		t.Fatalf("load output: %v", err)
	}
	cell, err := sheet.Get("B1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if cell.Text != "42" {
		t.Errorf("expected B1 to hold 42, got %q", cell.Text)
	}
}

func TestCellCommand(t *testing.T) {
	path := writeFile(t, "grid.csv", "2,A1*21\nB1/0,\n")

	out, _, err := execute(t, "cell", path, "B1")
	if err != nil {
		t.Fatalf("cell failed: %v", err)
	}
	if strings.TrimSpace(out) != "42" {
		t.Errorf("expected 42, got %q", out)
	}

	out, _, err = execute(t, "cell", path, "C9")
	if err != nil || strings.TrimSpace(out) != "0" {
		t.Errorf("expected a blank cell to be 0, got %q, %v", out, err)
	}

	out, _, err = execute(t, "cell", path, "A2")
	if err == nil || !strings.Contains(err.Error(), "A2") {
		t.Errorf("expected an error naming A2, got %v", err)
	}
	if strings.TrimSpace(out) != formula.InvalidFormulaStatus {
		t.Errorf("expected the status line, got %q", out)
	}

	if _, _, err := execute(t, "cell", path, "9Z"); err == nil {
		t.Error("expected an error for a bad label")
	}
}

func TestConfigAndFlags(t *testing.T) {
	cfgPath := writeFile(t, "cellcalc.yaml", "engine:\n  precision: 4\n")

	out, _, err := execute(t, "--config", cfgPath, "eval", "1/3")
	if err != nil {
		t.Fatalf("eval failed: %v", err)
	}
	if strings.TrimSpace(out) != "0.3333" {
		t.Errorf("expected 4 decimals, got %q", out)
	}

	if _, _, err := execute(t, "--log-level", "loud", "eval", "1"); err == nil {
		t.Error("expected an error for an unknown log level")
	}

	badCfg := writeFile(t, "bad.yaml", "engine:\n  depth: 3\n")
	if _, _, err := execute(t, "--config", badCfg, "eval", "1"); err == nil {
		t.Error("expected an error for an unknown config key")
	}
}
