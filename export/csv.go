package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
)

var ErrNoRecords = errors.New("no records to export")

// WriteCSV writes a header row followed by rows. Every row must have as many
// fields as headers.
func WriteCSV(path string, headers []string, rows [][]string) error {
	if len(rows) == 0 {
		return ErrNoRecords
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(headers); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for i, row := range rows {
		if len(row) != len(headers) {
			return fmt.Errorf("row %d has %d fields, want %d", i, len(row), len(headers))
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write csv row %d: %w", i, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}

	return file.Close()
}
