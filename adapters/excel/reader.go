// Package excel reads the program's spreadsheet exports (Excel or CSV)
// into the domain table model, applying the load-time normalization the
// dashboards rely on: lowercased, trimmed column names and trimmed cells.
package excel

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"eyedash/domain/table"

	"github.com/xuri/excelize/v2"
)

// AllowedExtensions is the spreadsheet extension allow-list shared with
// the upload surface.
var AllowedExtensions = map[string]bool{
	".xls":  true,
	".xlsx": true,
	".xlsm": true,
	".xlsb": true,
}

// DataReader handles reading Excel and CSV files.
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
}

// NewDataReader creates a reader for either an Excel or a CSV file.
func NewDataReader(filePath string) *DataReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	return &DataReader{filePath: filePath, fileType: fileType}
}

// ReadTable reads the file into a normalized table.
func (r *DataReader) ReadTable() (*table.Table, error) {
	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s file not found: %s", strings.ToUpper(r.fileType), r.filePath)
	}

	switch r.fileType {
	case "csv":
		return r.readCSV()
	default:
		return r.readExcel()
	}
}

func (r *DataReader) readExcel() (*table.Table, error) {
	startTime := time.Now()
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	// First sheet, whatever it is named.
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("Excel file has no sheets: %s", r.filePath)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	log.Printf("[DataReader] Excel sheet %q read in %.2fms (%d rows)",
		sheets[0], float64(time.Since(startTime).Nanoseconds())/1e6, len(rows))

	if len(rows) < 1 {
		return nil, fmt.Errorf("Excel file must have at least a header row")
	}
	return r.buildTable(rows)
}

func (r *DataReader) readCSV() (*table.Table, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	if len(rows) < 1 {
		return nil, fmt.Errorf("CSV file must have at least a header row")
	}
	return r.buildTable(rows)
}

// buildTable converts raw string rows into the normalized table form.
func (r *DataReader) buildTable(rows [][]string) (*table.Table, error) {
	tbl := table.New(rows[0])
	if len(tbl.Columns()) == 0 {
		return nil, fmt.Errorf("no usable column headers in %s", r.filePath)
	}

	// Source positions of the kept headers; table.New drops blank and
	// duplicate headers, so raw cells must be realigned.
	srcIdx := make([]int, 0, len(tbl.Columns()))
	seen := make(map[string]bool)
	for i, h := range rows[0] {
		name := table.Normalize(h)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		srcIdx = append(srcIdx, i)
	}

	for _, row := range rows[1:] {
		cells := make([]table.Value, len(srcIdx))
		for j, src := range srcIdx {
			if src < len(row) {
				cells[j] = parseCell(row[src])
			}
		}
		tbl.AppendRow(cells)
	}

	log.Printf("[DataReader] %s file processed (%d columns, %d rows)",
		strings.ToUpper(r.fileType), len(tbl.Columns()), tbl.Len())
	return tbl, nil
}

// parseCell trims a raw cell and keeps numeric-looking values numeric.
// Blank cells become missing; date parsing is deferred to the filter
// layer, which knows the export's date spellings.
func parseCell(raw string) table.Value {
	s := strings.TrimSpace(raw)
	if s == "" {
		return table.Missing()
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return table.NewNumber(n)
	}
	return table.NewString(s)
}
