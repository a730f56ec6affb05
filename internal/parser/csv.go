package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"

	"github.com/mobiusengine/leads-engine/internal/models"
)

// ParseCSV decodes a lead export CSV into raw rows keyed by the file's
// header names. Malformed lines are skipped so a single bad line does not
// sink the whole file; validation of the row contents happens later in the
// normalizer.
func ParseCSV(r io.Reader) ([]models.RawRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("file is empty")
		}
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	var rows []models.RawRow
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Printf("Skipping malformed CSV line: %v", err)
			continue
		}

		row := make(models.RawRow, len(header))
		for i, name := range header {
			if i < len(record) {
				row[name] = record[i]
			} else {
				row[name] = ""
			}
		}
		rows = append(rows, row)
	}

	return rows, nil
}
