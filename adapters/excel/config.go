package excel

// ReaderConfig holds options for reading series out of a data file
type ReaderConfig struct {
	// Sheet is the XLSX worksheet to read; ignored for CSV
	Sheet string `json:"sheet" yaml:"sheet"`
	// SkipBlankRows drops rows with an empty cell in any selected column
	// instead of failing.
	SkipBlankRows bool `json:"skip_blank_rows" yaml:"skip_blank_rows"`
}

// DefaultReaderConfig reads Sheet1 and rejects blank cells
func DefaultReaderConfig() ReaderConfig {
	return ReaderConfig{Sheet: "Sheet1"}
}
