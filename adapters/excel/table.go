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

// table is one loaded worksheet: a header row plus data rows, all cells
// trimmed. Matrix semantics (which column is the key, how cells parse) are
// applied by the callers.
type table struct {
	headers []string
	rows    [][]string
}

func (t *table) columnIndex(name string) int {
	for i, h := range t.headers {
		if strings.EqualFold(h, name) {
			return i
		}
	}
	return -1
}

// readTable reads a tabular file into memory. The format is chosen by
// extension: .xlsx via excelize (always Sheet1), .csv comma-separated,
// anything else tab-separated.
func readTable(path string) (*table, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("input file not found: %s", path)
	}

	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		rows, err = readExcelRows(path)
	case ".csv":
		rows, err = readDelimitedRows(path, ',')
	default:
		rows, err = readDelimitedRows(path, '\t')
	}
	if err != nil {
		return nil, err
	}

	if len(rows) < 2 {
		return nil, fmt.Errorf("%s must have at least a header row and one data row", path)
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(h)
	}
	data := make([][]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		trimmed := make([]string, len(row))
		for i, cell := range row {
			trimmed[i] = strings.TrimSpace(cell)
		}
		data = append(data, trimmed)
	}

	return &table{headers: headers, rows: data}, nil
}

func readExcelRows(path string) ([][]string, error) {
	startTime := time.Now()
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Sheet1")
	if err != nil {
		return nil, fmt.Errorf("failed to read Sheet1: %w", err)
	}
	log.Printf("[Loader] %s read in %.2fms (%d rows)",
		filepath.Base(path), float64(time.Since(startTime).Nanoseconds())/1e6, len(rows))
	return rows, nil
}

func readDelimitedRows(path string, comma rune) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.Comma = comma
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return rows, nil
}
