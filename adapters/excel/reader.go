package excel

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// Record is one data row keyed by normalized header. Empty cells are "".
type Record map[string]string

// SensorFile is a parsed export: headers in file order plus data rows.
type SensorFile struct {
	Headers []string
	Rows    []Record
}

// DataReader handles reading Excel and CSV sensor exports
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
	sheet    string
}

// NewDataReader creates a new data reader that handles both Excel and CSV files
func NewDataReader(filePath string) *DataReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	return &DataReader{filePath: filePath, fileType: fileType}
}

// WithSheet selects a worksheet by name. The first sheet is used otherwise.
func (r *DataReader) WithSheet(name string) *DataReader {
	r.sheet = name
	return r
}

// ReadData reads the file into normalized headers and string rows
func (r *DataReader) ReadData() (*SensorFile, error) {
	log.Printf("[DataReader] Starting to read %s file: %s", r.fileType, r.filePath)

	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s file not found: %s", strings.ToUpper(r.fileType), r.filePath)
	}

	switch r.fileType {
	case "csv":
		return r.readCSVData()
	case "xlsx":
		return r.readExcelData()
	default:
		return nil, fmt.Errorf("unsupported file type: %s", r.fileType)
	}
}

// readExcelData reads one worksheet into structured format
func (r *DataReader) readExcelData() (*SensorFile, error) {
	startTime := time.Now()
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheet := r.sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("Excel file has no worksheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	log.Printf("[DataReader] Sheet %s read in %.2fms (%d rows)", sheet, float64(time.Since(startTime).Nanoseconds())/1e6, len(rows))

	if len(rows) < 2 {
		return nil, fmt.Errorf("Excel file must have at least a header row and one data row")
	}

	return r.processRows(rows)
}

// readCSVData reads CSV data into structured format
func (r *DataReader) readCSVData() (*SensorFile, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	readStart := time.Now()
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	log.Printf("[DataReader] CSV file read in %.2fms (%d rows)", float64(time.Since(readStart).Nanoseconds())/1e6, len(rows))

	if len(rows) < 2 {
		return nil, fmt.Errorf("CSV file must have at least a header row and one data row")
	}

	return r.processRows(rows)
}

// processRows converts raw string rows into SensorFile format
func (r *DataReader) processRows(rows [][]string) (*SensorFile, error) {
	headerRow := rows[0]
	headers := make([]string, len(headerRow))
	seen := make(map[string]int, len(headerRow))
	for i, header := range headerRow {
		name := NormalizeHeader(header)
		if name == "" {
			return nil, fmt.Errorf("column %d has an empty header", i+1)
		}
		if prev, dup := seen[name]; dup {
			return nil, fmt.Errorf("columns %d and %d both normalize to %q", prev+1, i+1, name)
		}
		seen[name] = i
		headers[i] = name
	}

	dataRows := make([]Record, 0, len(rows)-1)
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if isBlank(row) {
			continue
		}
		rowData := make(Record, len(headers))
		for j, header := range headers {
			if j < len(row) {
				rowData[header] = strings.TrimSpace(row[j])
			} else {
				rowData[header] = ""
			}
		}
		dataRows = append(dataRows, rowData)
	}

	log.Printf("[DataReader] %s file processed (%d columns, %d rows)",
		strings.ToUpper(r.fileType), len(headers), len(dataRows))

	return &SensorFile{
		Headers: headers,
		Rows:    dataRows,
	}, nil
}

// NormalizeHeader trims a header and replaces spaces and dashes with underscores
func NormalizeHeader(header string) string {
	header = strings.TrimSpace(strings.TrimPrefix(header, "\ufeff"))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(header)
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
