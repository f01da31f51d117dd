package baseline

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ReadColumn reads the named column of a CSV file with a header row.
// Blank cells are skipped; any other non-numeric cell is an error.
func ReadColumn(r io.Reader, column string) ([]float64, error) {
	cols, err := ReadColumns(r, column)
	if err != nil {
		return nil, err
	}
	return cols[0], nil
}

// ReadColumns reads several columns at once. Rows where any requested cell is
// blank are skipped so the columns stay paired.
func ReadColumns(r io.Reader, columns ...string) ([][]float64, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.New("empty CSV input")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	idx := make([]int, len(columns))
	for i, name := range columns {
		idx[i] = -1
		for j, h := range header {
			if strings.EqualFold(strings.TrimSpace(h), name) {
				idx[i] = j
				break
			}
		}
		if idx[i] < 0 {
			return nil, fmt.Errorf("column %q not found in header", name)
		}
	}

	out := make([][]float64, len(columns))
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("failed to read line %d: %w", line, err)
		}

		cells := make([]string, len(idx))
		blank := false
		for i, j := range idx {
			if j >= len(record) {
				blank = true
				break
			}
			cells[i] = strings.TrimSpace(record[j])
			if cells[i] == "" {
				blank = true
				break
			}
		}
		if blank {
			continue
		}

		for i, cell := range cells {
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d column %q: %q is not a number", line, columns[i], cell)
			}
			out[i] = append(out[i], v)
		}
	}

	return out, nil
}
