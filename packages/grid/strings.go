package grid

// TextTable interns raw cell text with reference counting. spreadsheets
// repeat the same formulas and literals across many cells, so each
// distinct text is stored once and cells hold its ID.
type TextTable struct {
	ids    map[string]uint32
	texts  map[uint32]string
	counts map[uint32]int
	nextID uint32
}

// NewTextTable creates an empty table
func NewTextTable() *TextTable {
	return &TextTable{
		ids:    make(map[string]uint32),
		texts:  make(map[uint32]string),
		counts: make(map[uint32]int),
		nextID: 1, // 0 means no text
	}
}

// Intern returns the ID for s, adding a reference
func (tt *TextTable) Intern(s string) uint32 {
	if id, ok := tt.ids[s]; ok {
		tt.counts[id]++
		return id
	}

	id := tt.nextID
	tt.nextID++
	tt.ids[s] = id
	tt.texts[id] = s
	tt.counts[id] = 1
	return id
}

// Text returns the text for an ID
func (tt *TextTable) Text(id uint32) (string, bool) {
	s, ok := tt.texts[id]
	return s, ok
}

// Release drops one reference to id and forgets the text once nothing
// refers to it. returns true if the text was forgotten.
func (tt *TextTable) Release(id uint32) bool {
	s, ok := tt.texts[id]
	if !ok {
		return false
	}

	tt.counts[id]--
	if tt.counts[id] > 0 {
		return false
	}
	delete(tt.ids, s)
	delete(tt.texts, id)
	delete(tt.counts, id)
	return true
}

// Refs returns the number of cells referring to id
func (tt *TextTable) Refs(id uint32) int {
	return tt.counts[id]
}

// Len returns the number of distinct texts
func (tt *TextTable) Len() int {
	return len(tt.texts)
}
