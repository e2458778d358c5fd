package batch

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/segmentio/parquet-go"
)

var csvHeader = []string{
	"file", "analyzed", "sentences", "findings", "gender", "religion",
	"absolute", "other", "score", "level", "duration_ms", "error",
}

// WriteFile writes records to path in the format implied by its extension
func WriteFile(path string, records []Record) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	switch DetectFileFormat(path) {
	case FormatParquet:
		err = writeParquet(file, records)
	case FormatJSON:
		err = writeJSON(file, records)
	default:
		err = writeCSV(file, records)
	}

	if cerr := file.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("failed to close output file: %w", cerr)
	}
	return err
}

func writeParquet(file *os.File, records []Record) error {
	writer := parquet.NewGenericWriter[Record](file)
	if _, err := writer.Write(records); err != nil {
		return fmt.Errorf("failed to write Parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finish Parquet file: %w", err)
	}
	return nil
}

// writeJSON writes one JSON object per line
func writeJSON(file *os.File, records []Record) error {
	encoder := json.NewEncoder(file)
	for _, r := range records {
		if err := encoder.Encode(r); err != nil {
			return fmt.Errorf("failed to write JSON record: %w", err)
		}
	}
	return nil
}

func writeCSV(file *os.File, records []Record) error {
	w := csv.NewWriter(file)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, r := range records {
		row := []string{
			r.File,
			strconv.FormatBool(r.Analyzed),
			strconv.FormatInt(r.Sentences, 10),
			strconv.FormatInt(r.Findings, 10),
			strconv.FormatInt(r.Gender, 10),
			strconv.FormatInt(r.Religion, 10),
			strconv.FormatInt(r.Absolute, 10),
			strconv.FormatInt(r.Other, 10),
			strconv.FormatFloat(r.Score, 'f', 1, 64),
			r.Level,
			strconv.FormatFloat(r.DurationMS, 'f', 3, 64),
			r.Error,
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	w.Flush()
	return w.Error()
}
