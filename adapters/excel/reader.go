package excel

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"infodyn/domain/core"
	"infodyn/internal"

	"github.com/xuri/excelize/v2"
)

// DataReader handles reading Excel and CSV files
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
	cfg      ReaderConfig
	logger   *internal.Logger
}

// NewDataReader creates a new data reader that handles both Excel and CSV files
func NewDataReader(filePath string, cfg ReaderConfig) *DataReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	if cfg.Sheet == "" {
		cfg.Sheet = DefaultReaderConfig().Sheet
	}
	return &DataReader{
		filePath: filePath,
		fileType: fileType,
		cfg:      cfg,
		logger:   internal.DefaultLogger.WithComponent("DataReader"),
	}
}

// SetLogger replaces the reader's logger
func (r *DataReader) SetLogger(l *internal.Logger) {
	r.logger = l.WithComponent("DataReader")
}

// ReadTable reads the header row and every data row of the file
func (r *DataReader) ReadTable() (*Table, error) {
	r.logger.Debug("Starting to read %s file: %s", r.fileType, r.filePath)

	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, core.NewNotFoundError(strings.ToUpper(r.fileType)+" file", r.filePath)
	}

	var (
		rows [][]string
		err  error
	)
	start := time.Now()
	switch r.fileType {
	case "csv":
		rows, err = r.readCSVRows()
	default:
		rows, err = r.readExcelRows()
	}
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, core.NewInvalidInputError("%s file must have a header row and at least one data row", strings.ToUpper(r.fileType))
	}

	table := buildTable(rows)
	r.logger.Debug("%s file read in %.2fms (%d columns, %d rows)",
		strings.ToUpper(r.fileType), float64(time.Since(start).Nanoseconds())/1e6, len(table.Headers), len(table.Rows))
	return table, nil
}

func (r *DataReader) readExcelRows() ([][]string, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(r.cfg.Sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", r.cfg.Sheet, err)
	}
	return rows, nil
}

func (r *DataReader) readCSVRows() ([][]string, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, core.NewInvalidInputError("malformed CSV file: %v", err)
	}
	return rows, nil
}

// buildTable trims cells and pads short rows, which XLSX produces when
// trailing cells are empty.
func buildTable(rows [][]string) *Table {
	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(h)
	}

	data := make([][]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		cells := make([]string, len(headers))
		for j := 0; j < len(row) && j < len(headers); j++ {
			cells[j] = strings.TrimSpace(row[j])
		}
		data = append(data, cells)
	}
	return &Table{Headers: headers, Rows: data}
}

// ReadSeries reads the named columns as a T x len(columns) series in file
// order. With no columns every column is read.
func (r *DataReader) ReadSeries(columns ...string) ([][]float64, error) {
	table, err := r.ReadTable()
	if err != nil {
		return nil, err
	}
	return table.Series(r.cfg.SkipBlankRows, columns...)
}

// Series converts the named columns to numbers. Blank cells fail unless
// skipBlank is set, in which case the whole row is dropped.
func (t *Table) Series(skipBlank bool, columns ...string) ([][]float64, error) {
	if len(columns) == 0 {
		columns = t.Headers
	}
	idx := make([]int, len(columns))
	for i, name := range columns {
		j := t.columnIndex(name)
		if j < 0 {
			return nil, core.NewInvalidInputError("column %q not found (have %s)", name, strings.Join(t.Headers, ", "))
		}
		idx[i] = j
	}

	series := make([][]float64, 0, len(t.Rows))
rows:
	for r, row := range t.Rows {
		values := make([]float64, len(idx))
		for i, j := range idx {
			cell := row[j]
			if cell == "" {
				if skipBlank {
					continue rows
				}
				return nil, core.NewInvalidInputError("row %d: blank cell in column %q", r+2, columns[i])
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, core.NewInvalidInputError("row %d: column %q value %q is not a finite number", r+2, columns[i], cell)
			}
			values[i] = v
		}
		series = append(series, values)
	}
	if len(series) == 0 {
		return nil, core.ErrNoObservations
	}
	return series, nil
}
