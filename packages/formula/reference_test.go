package formula

import (
	"errors"
	"reflect"
	"testing"
)

func TestParseCoordinate(t *testing.T) {
	tests := []struct {
		label    string
		expected Coordinate
	}{
		{"A1", Coordinate{Row: 0, Col: 1}},
		{"B2", Coordinate{Row: 1, Col: 2}},
		{"Z10", Coordinate{Row: 9, Col: 26}},
		{"AA1", Coordinate{Row: 0, Col: 27}},
		{"AZ3", Coordinate{Row: 2, Col: 52}},
		{"BA1", Coordinate{Row: 0, Col: 53}},
		{"ZZ1", Coordinate{Row: 0, Col: 702}},
		{"AAA1", Coordinate{Row: 0, Col: 703}},
	}

	for _, tt := range tests {
		got, err := ParseCoordinate(tt.label)
		if err != nil {
			t.Errorf("ParseCoordinate(%q) failed: %v", tt.label, err)
			continue
		}
		if got != tt.expected {
			t.Errorf("ParseCoordinate(%q) = %+v, expected %+v", tt.label, got, tt.expected)
		}
		if got.String() != tt.label {
			t.Errorf("Coordinate(%+v).String() = %q, expected %q", got, got.String(), tt.label)
		}
	}
}

func TestParseCoordinateErrors(t *testing.T) {
	labels := []string{"", "A", "1", "A0", "a1", "1A", "A1B", "A-1"}
	for _, label := range labels {
		if _, err := ParseCoordinate(label); !IsKind(err, ErrorKindSyntax) {
			t.Errorf("ParseCoordinate(%q): expected syntax error, got %v", label, err)
		}
	}
}

func TestColumnLabelRoundTrip(t *testing.T) {
	for col := 1; col <= 1000; col++ {
		label := ColumnLabel(col)
		if got := ColumnIndex(label); got != col {
			t.Fatalf("ColumnIndex(ColumnLabel(%d)) = %d via %q", col, got, label)
		}
	}
	if ColumnLabel(0) != "" {
		t.Errorf("expected empty label for the header column, got %q", ColumnLabel(0))
	}
}

func TestResolveReferences(t *testing.T) {
	cells := map[Coordinate]float64{
		{Row: 0, Col: 1}: 1,
		{Row: 1, Col: 2}: 3,
		{Row: 0, Col: 27}: -2.5,
	}
	resolve := func(c Coordinate) (float64, error) {
		return cells[c], nil
	}

	tests := []struct {
		formula  string
		expected string
	}{
		{"A1+B2", "1+3"},
		{"AA1*2", "-2.5*2"},
		{"pow(A1,B2)", "pow(1,3)"},
		{"1+2", "1+2"},
		{"C9", "0"},
	}

	for _, tt := range tests {
		got, err := ResolveReferences(tt.formula, resolve)
		if err != nil {
			t.Errorf("ResolveReferences(%q) failed: %v", tt.formula, err)
			continue
		}
		if got != tt.expected {
			t.Errorf("ResolveReferences(%q) = %q, expected %q", tt.formula, got, tt.expected)
		}
	}
}

func TestResolveReferencesOrderAndErrors(t *testing.T) {
	var visited []string
	boom := errors.New("boom")
	resolve := func(c Coordinate) (float64, error) {
		visited = append(visited, c.String())
		if c.String() == "C1" {
			return 0, boom
		}
		return 1, nil
	}

	_, err := ResolveReferences("A1+B1+C1+D1", resolve)
	if !errors.Is(err, boom) {
		t.Fatalf("expected resolver error to propagate, got %v", err)
	}
	if !reflect.DeepEqual(visited, []string{"A1", "B1", "C1"}) {
		t.Errorf("expected left to right resolution stopping at the failure, got %v", visited)
	}

	if _, err := ResolveReferences("A0+1", resolve); !IsKind(err, ErrorKindSyntax) {
		t.Errorf("expected syntax error for row 0, got %v", err)
	}
}

func TestReferences(t *testing.T) {
	coords, err := References("A1+max(B2,AA10)")
	if err != nil {
		t.Fatalf("References failed: %v", err)
	}
	expected := []Coordinate{{Row: 0, Col: 1}, {Row: 1, Col: 2}, {Row: 9, Col: 27}}
	if !reflect.DeepEqual(coords, expected) {
		t.Errorf("expected %v, got %v", expected, coords)
	}
}
