package batch

import (
	"path/filepath"
	"strings"
	"time"
)

// Record is one scanned document as written to the output file
type Record struct {
	File       string  `csv:"file" parquet:"file" json:"file"`
	Analyzed   bool    `csv:"analyzed" parquet:"analyzed" json:"analyzed"`
	Sentences  int64   `csv:"sentences" parquet:"sentences" json:"sentences"`
	Findings   int64   `csv:"findings" parquet:"findings" json:"findings"`
	Gender     int64   `csv:"gender" parquet:"gender" json:"gender"`
	Religion   int64   `csv:"religion" parquet:"religion" json:"religion"`
	Absolute   int64   `csv:"absolute" parquet:"absolute" json:"absolute"`
	Other      int64   `csv:"other" parquet:"other" json:"other"`
	Score      float64 `csv:"score" parquet:"score" json:"score"`
	Level      string  `csv:"level" parquet:"level" json:"level"`
	DurationMS float64 `csv:"duration_ms" parquet:"duration_ms" json:"duration_ms"`
	Error      string  `csv:"error" parquet:"error" json:"error,omitempty"`
}

// Result summarises a batch run
type Result struct {
	TotalFiles int64         `json:"total_files"`
	ScannedOK  int64         `json:"scanned_ok"`
	Failed     int64         `json:"failed"`
	Flagged    int64         `json:"flagged"`
	Duration   time.Duration `json:"duration"`
	Errors     []string      `json:"errors,omitempty"`
}

// Config contains batch pipeline configuration
type Config struct {
	Workers        int           `yaml:"workers" mapstructure:"workers"`
	FileTimeout    time.Duration `yaml:"file_timeout" mapstructure:"file_timeout"`
	ProgressReport int           `yaml:"progress_report" mapstructure:"progress_report"`
}

// FileFormat represents supported output formats
type FileFormat string

const (
	FormatCSV     FileFormat = "csv"
	FormatParquet FileFormat = "parquet"
	FormatJSON    FileFormat = "jsonl"
)

// DetectFileFormat detects the output format from the file extension
func DetectFileFormat(filename string) FileFormat {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".parquet":
		return FormatParquet
	case ".json", ".jsonl", ".ndjson":
		return FormatJSON
	default:
		return FormatCSV
	}
}
