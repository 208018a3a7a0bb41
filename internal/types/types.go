package types

// Table is one sheet loaded into memory. Every row is padded to len(Headers).
// HeaderRow is the 0-based sheet row the headers were read from.
type Table struct {
	Name      string
	Headers   []string
	Rows      [][]string
	HeaderRow int
}

// SheetRow converts a 0-based data row index into a 1-based sheet row.
func (t *Table) SheetRow(dataIdx int) int {
	return t.HeaderRow + dataIdx + 2
}

// ColumnIndex returns the 0-based index of the named header, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, h := range t.Headers {
		if h == name {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	out := &Table{
		Name:      t.Name,
		Headers:   append([]string(nil), t.Headers...),
		Rows:      make([][]string, len(t.Rows)),
		HeaderRow: t.HeaderRow,
	}
	for i, row := range t.Rows {
		out.Rows[i] = append([]string(nil), row...)
	}
	return out
}

type AbbreviationRow struct {
	Code        string
	Variation   string
	Description string
}

type MappingRow struct {
	Description    string
	ModelNumber    string
	ProductModelID string
}

// TranslationPair rewrites Source identifiers into Target identifiers.
type TranslationPair struct {
	Source string
	Target string
	Code   string
}

// ReplacementRecord locates one changed cell. Row and Column are 1-based
// sheet coordinates, so the first data row is Row 2.
type ReplacementRecord struct {
	Row        int
	Column     int
	ColumnName string
	OldValue   string
	NewValue   string
}

const (
	StageDescription = "description"
	StageIdentifier  = "identifier"
)

// Miss is a code that could not be resolved into an identifier.
type Miss struct {
	Variation   string
	Code        string
	Description string
	Stage       string
}

type Duplicates struct {
	Variation string
	Codes     []string
}

type ScanReport struct {
	KeyColumns     []string
	MatchedColumns []string
	MatchedSheets  []string
	Found          bool
}

type Progress struct {
	Stage    string
	Fraction float64
}

type RunResult struct {
	RunID        string
	OutputFile   string
	ReportFile   string
	Pairs        []TranslationPair
	Misses       []Miss
	Duplicates   []Duplicates
	Scan         ScanReport
	Replacements []ReplacementRecord
}
