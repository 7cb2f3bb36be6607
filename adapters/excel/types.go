package excel

// Table is a rectangular text table read from a CSV or XLSX file. Rows hold
// the data rows only, padded to the header width.
type Table struct {
	Headers []string
	Rows    [][]string
}

// NumRows returns the number of data rows
func (t *Table) NumRows() int {
	return len(t.Rows)
}

func (t *Table) columnIndex(name string) int {
	for i, h := range t.Headers {
		if h == name {
			return i
		}
	}
	return -1
}
