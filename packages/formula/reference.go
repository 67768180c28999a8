package formula

import (
	"regexp"
	"strconv"
	"strings"
)

// referencePattern matches one or more uppercase letters followed by one
// or more digits
var referencePattern = regexp.MustCompile(`[A-Z]+[0-9]+`)

// Coordinate is a zero-based row paired with a one-based column, so "A1"
// is (0, 1). column 0 is the grid's row header column.
type Coordinate struct {
	Row int
	Col int
}

// String formats the coordinate back into its label
func (c Coordinate) String() string {
	return ColumnLabel(c.Col) + strconv.Itoa(c.Row+1)
}

// ParseCoordinate converts a label like "AA12" into a coordinate
func ParseCoordinate(label string) (Coordinate, error) {
	letterEnd := 0
	for letterEnd < len(label) && isUpper(label[letterEnd]) {
		letterEnd++
	}
	if letterEnd == 0 || letterEnd == len(label) {
		return Coordinate{}, newError(ErrorKindSyntax, "invalid cell label %q", label)
	}

	digits := label[letterEnd:]
	for i := 0; i < len(digits); i++ {
		if !isDigit(digits[i]) {
			return Coordinate{}, newError(ErrorKindSyntax, "invalid cell label %q", label)
		}
	}

	row, err := strconv.Atoi(digits)
	if err != nil || row < 1 {
		return Coordinate{}, newError(ErrorKindSyntax, "invalid row in cell label %q", label)
	}

	return Coordinate{Row: row - 1, Col: ColumnIndex(label[:letterEnd])}, nil
}

// ColumnIndex decodes Excel-style column letters with bijective base-26,
// A=1 ... Z=26, AA=27
func ColumnIndex(letters string) int {
	index := 0
	for i := 0; i < len(letters); i++ {
		index = index*26 + int(letters[i]-'A'+1)
	}
	return index
}

// ColumnLabel encodes a one-based column index into letters. returns ""
// for the header column and anything below it.
func ColumnLabel(col int) string {
	var letters []byte
	for col > 0 {
		rem := col % 26
		if rem == 0 {
			rem = 26
		}
		letters = append(letters, byte('A'+rem-1))
		col = (col - rem) / 26
	}

	// reverse, most significant letter first
	for i, j := 0, len(letters)-1; i < j; i, j = i+1, j-1 {
		letters[i], letters[j] = letters[j], letters[i]
	}
	return string(letters)
}

// ResolveFunc yields the numeric value of a referenced cell
type ResolveFunc func(Coordinate) (float64, error)

// ResolveReferences replaces every cell label in formula with the textual
// form of the number returned by resolve. labels are resolved left to right
// and the first error aborts the substitution.
func ResolveReferences(formula string, resolve ResolveFunc) (string, error) {
	matches := referencePattern.FindAllStringIndex(formula, -1)
	if len(matches) == 0 {
		return formula, nil
	}

	var b strings.Builder
	last := 0
	for _, m := range matches {
		coord, err := ParseCoordinate(formula[m[0]:m[1]])
		if err != nil {
			return "", err
		}
		value, err := resolve(coord)
		if err != nil {
			return "", err
		}
		b.WriteString(formula[last:m[0]])
		b.WriteString(FormatNumber(value))
		last = m[1]
	}
	b.WriteString(formula[last:])

	return b.String(), nil
}

// References lists the coordinates a formula refers to, in order of appearance
func References(formula string) ([]Coordinate, error) {
	labels := referencePattern.FindAllString(formula, -1)
	coords := make([]Coordinate, 0, len(labels))
	for _, label := range labels {
		coord, err := ParseCoordinate(label)
		if err != nil {
			return nil, err
		}
		coords = append(coords, coord)
	}
	return coords, nil
}
