// Package batch scans many documents concurrently and exports one row per document.
package batch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/raaihank/bias-auditor/internal/audit"
	"go.uber.org/zap"
)

// Scanner scans one document on disk
type Scanner interface {
	ScanFile(ctx context.Context, path string) (*audit.Result, error)
}

// Pipeline fans documents out to a fixed pool of workers
type Pipeline struct {
	scanner Scanner
	config  Config
	logger  *zap.Logger
}

// NewPipeline creates a batch pipeline. Zero config values fall back to defaults.
func NewPipeline(scanner Scanner, config Config, logger *zap.Logger) *Pipeline {
	if config.Workers <= 0 {
		config.Workers = runtime.NumCPU()
	}
	if config.ProgressReport <= 0 {
		config.ProgressReport = 100
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{scanner: scanner, config: config, logger: logger}
}

// Collect expands directories into the supported documents beneath them.
// Files named explicitly are kept even when unsupported so their failure is reported.
func Collect(paths []string, supports func(name string) bool) ([]string, error) {
	var files []string
	seen := make(map[string]bool)
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", root, err)
		}
		if !info.IsDir() {
			add(root)
			continue
		}

		var found []string
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && supports(path) {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk %s: %w", root, err)
		}
		sort.Strings(found)
		for _, path := range found {
			add(path)
		}
	}

	return files, nil
}

// Run scans files and returns one record per file in input order
func (p *Pipeline) Run(ctx context.Context, files []string) ([]Record, *Result) {
	p.logger.Info("Starting batch scan",
		zap.Int("files", len(files)),
		zap.Int("workers", p.config.Workers))

	start := time.Now()
	records := make([]Record, len(files))
	jobs := make(chan int)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		done int
	)

	for w := 0; w < min(p.config.Workers, max(len(files), 1)); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				records[i] = p.scanOne(ctx, files[i])

				mu.Lock()
				done++
				if done%p.config.ProgressReport == 0 {
					p.logger.Info("Batch progress",
						zap.Int("done", done),
						zap.Int("total", len(files)),
						zap.Duration("elapsed", time.Since(start)))
				}
				mu.Unlock()
			}
		}()
	}

	for i := range files {
		if ctx.Err() != nil {
			records[i] = Record{File: files[i], Error: ctx.Err().Error()}
			continue
		}
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	result := summarize(records)
	result.Duration = time.Since(start)

	p.logger.Info("Batch scan completed",
		zap.Int64("total_files", result.TotalFiles),
		zap.Int64("scanned_ok", result.ScannedOK),
		zap.Int64("failed", result.Failed),
		zap.Int64("flagged", result.Flagged),
		zap.Duration("duration", result.Duration))

	return records, result
}

func (p *Pipeline) scanOne(ctx context.Context, path string) Record {
	if p.config.FileTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.FileTimeout)
		defer cancel()
	}

	result, err := p.scanner.ScanFile(ctx, path)
	if err != nil {
		p.logger.Warn("Failed to scan document", zap.String("file", path), zap.Error(err))
		return Record{File: path, Error: err.Error()}
	}
	return toRecord(path, result)
}

func toRecord(path string, result *audit.Result) Record {
	record := Record{
		File:       path,
		Analyzed:   result.Analyzed,
		Sentences:  int64(result.Report.Sentences),
		Findings:   int64(len(result.Report.Findings)),
		Score:      result.Report.Score,
		Level:      string(result.Report.Level),
		DurationMS: float64(result.Duration.Microseconds()) / 1000,
	}

	for category, n := range result.Report.CategoryCounts() {
		switch category {
		case "Gender":
			record.Gender += int64(n)
		case "Religion":
			record.Religion += int64(n)
		case "Absolute":
			record.Absolute += int64(n)
		default:
			record.Other += int64(n)
		}
	}
	return record
}

func summarize(records []Record) *Result {
	result := &Result{TotalFiles: int64(len(records))}
	for _, r := range records {
		if r.Error != "" {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %s", r.File, r.Error))
			continue
		}
		result.ScannedOK++
		if r.Findings > 0 {
			result.Flagged++
		}
	}
	return result
}
