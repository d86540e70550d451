// Package tabular reads observation tables from CSV or XLSX files and writes
// enriched tables back out in either format.
package tabular

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"riskfusion/domain/core"
	"riskfusion/internal"

	"github.com/xuri/excelize/v2"
)

// Supported file types
const (
	FileTypeCSV  = "csv"
	FileTypeXLSX = "xlsx"
)

// SheetName is the worksheet read from and written to XLSX files
const SheetName = "Sheet1"

// Table is a header row plus string cells, one slice per data row. Every row
// has exactly len(Headers) cells.
type Table struct {
	Headers []string
	Rows    [][]string
}

// FileType infers the file type from the extension. Anything that is not
// .csv is treated as XLSX.
func FileType(path string) string {
	if strings.ToLower(filepath.Ext(path)) == ".csv" {
		return FileTypeCSV
	}
	return FileTypeXLSX
}

// Reader handles reading Excel and CSV files
type Reader struct {
	filePath string
	fileType string
	logger   *internal.Logger
}

// NewReader creates a reader for path
func NewReader(path string, logger *internal.Logger) *Reader {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Reader{filePath: path, fileType: FileType(path), logger: logger.With("DataReader")}
}

// Read loads the whole file. Header cells are trimmed; data cells are kept
// as written so ingestion can reject them.
func (r *Reader) Read() (*Table, error) {
	r.logger.Debug("Starting to read %s file: %s", r.fileType, r.filePath)

	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s file not found: %s", strings.ToUpper(r.fileType), r.filePath)
	}

	readStart := time.Now()
	var (
		rows [][]string
		err  error
	)
	switch r.fileType {
	case FileTypeCSV:
		rows, err = r.readCSV()
	default:
		rows, err = r.readExcel()
	}
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s file has no header row: %s", strings.ToUpper(r.fileType), r.filePath)
	}

	table, err := toTable(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", r.filePath, err)
	}
	r.logger.Info("%s file read in %v (%d columns, %d rows)",
		strings.ToUpper(r.fileType), time.Since(readStart), len(table.Headers), len(table.Rows))
	return table, nil
}

func (r *Reader) readExcel() ([][]string, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", SheetName, err)
	}
	return rows, nil
}

func (r *Reader) readCSV() ([][]string, error) {
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
	return rows, nil
}

// toTable splits off the header and pads short rows; spreadsheets drop
// trailing empty cells. Blank lines are skipped. A row with a non-blank cell
// past the last header is rejected.
func toTable(rows [][]string) (*Table, error) {
	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(h)
	}

	data := make([][]string, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		if len(row) > len(headers) && !isBlank(row[len(headers):]) {
			return nil, core.NewSchemaError("header", i,
				fmt.Sprintf("row has %d cells but the header has %d columns", len(row), len(headers)))
		}
		cells := make([]string, len(headers))
		copy(cells, row)
		data = append(data, cells)
	}
	return &Table{Headers: headers, Rows: data}, nil
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
