package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"goposterior/internal"

	"github.com/xuri/excelize/v2"
)

// Row maps a trimmed header to the trimmed cell text under it
type Row map[string]string

// Table is a header row plus the data rows below it
type Table struct {
	Headers []string
	Rows    []Row
}

type format string

const (
	formatCSV  format = "csv"
	formatXLSX format = "xlsx"
)

// TableReader loads a .csv or .xlsx file into a Table
type TableReader struct {
	path   string
	format format
	sheet  string
	logger *internal.Logger
}

// NewTableReader picks the format from the file extension; anything that is
// not .csv is opened as a workbook
func NewTableReader(path, sheet string) *TableReader {
	f := formatXLSX
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		f = formatCSV
	}
	return &TableReader{
		path:   path,
		format: f,
		sheet:  sheet,
		logger: internal.DefaultLogger.With("TableReader"),
	}
}

// ReadTable reads the whole file. Files with no data row are rejected.
func (r *TableReader) ReadTable(ctx context.Context) (*Table, error) {
	if _, err := os.Stat(r.path); err != nil {
		return nil, fmt.Errorf("%s file not found: %s: %w", r.format, r.path, err)
	}

	start := time.Now()
	var (
		records [][]string
		err     error
	)
	switch r.format {
	case formatCSV:
		records, err = r.csvRecords()
	default:
		records, err = r.sheetRecords()
	}
	if err != nil {
		return nil, err
	}
	r.logger.Debug("%s read in %.2fms (%d records)", r.path, float64(time.Since(start).Nanoseconds())/1e6, len(records))

	if len(records) < 2 {
		return nil, fmt.Errorf("%s needs a header row and at least one data row", r.path)
	}
	return toTable(ctx, records)
}

func (r *TableReader) csvRecords() ([][]string, error) {
	file, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	cr := csv.NewReader(file)
	// Exports often drop empty trailing cells
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV file: %w", err)
	}
	return records, nil
}

func (r *TableReader) sheetRecords() ([][]string, error) {
	wb, err := excelize.OpenFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer wb.Close()

	sheet := r.sheet
	if sheet == "" {
		sheets := wb.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook %s has no sheets", r.path)
		}
		sheet = sheets[0]
	}
	records, err := wb.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	return records, nil
}

func toTable(ctx context.Context, records [][]string) (*Table, error) {
	t := &Table{Headers: make([]string, len(records[0]))}
	for i, h := range records[0] {
		t.Headers[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	t.Rows = make([]Row, 0, len(records)-1)
	for i, rec := range records[1:] {
		if i%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		row := make(Row, len(t.Headers))
		for j, cell := range rec {
			if j < len(t.Headers) {
				row[t.Headers[j]] = strings.TrimSpace(cell)
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}
