// Package audit joins upload storage, text extraction, the bias scanner and
// the report cache into the scan operations served over HTTP and the CLI.
package audit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"time"

	"github.com/raaihank/bias-auditor/internal/bias"
	"github.com/raaihank/bias-auditor/internal/cache"
	"github.com/raaihank/bias-auditor/internal/extract"
	"github.com/raaihank/bias-auditor/internal/history"
	"github.com/raaihank/bias-auditor/internal/logger"
	"github.com/raaihank/bias-auditor/internal/metrics"
	"github.com/raaihank/bias-auditor/internal/upload"
	"github.com/raaihank/bias-auditor/internal/websocket"
	"go.uber.org/zap"
)

// Scan sources
const (
	SourceText   = "text"
	SourceUpload = "upload"
	SourceFile   = "file"
)

// ErrTextTooLong is returned when submitted text exceeds the configured limit
var ErrTextTooLong = errors.New("text exceeds length limit")

// Extractor turns a stored document into text
type Extractor interface {
	Supports(name string) bool
	Extract(ctx context.Context, path string) (string, error)
}

// Publisher receives scan events for live dashboards
type Publisher interface {
	BroadcastEvent(event websocket.Event)
}

// Recorder keeps a log of completed scans
type Recorder interface {
	Record(ctx context.Context, entry history.Entry) error
}

// Masker removes personal data from sentences before they are published
type Masker interface {
	Mask(text string) string
}

// Result is a scan report plus how it was produced
type Result struct {
	Report   bias.Report   `json:"report"`
	Analyzed bool          `json:"analyzed"`
	Cached   bool          `json:"cached"`
	Source   string        `json:"source"`
	Document string        `json:"document,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Options wires a Service. Cache, Metrics, Publisher, History and Masker may be nil.
// Published events carry up to Samples flagged sentences, and only when a Masker is set.
type Options struct {
	Scanner    *bias.Scanner
	Extractor  Extractor
	Store      *upload.Store
	Cache      cache.ReportCache
	Metrics    *metrics.Collector
	Publisher  Publisher
	History    Recorder
	Masker     Masker
	Samples    int
	Logger     *logger.Logger
	MaxTextLen int
}

// Service runs scans for every entry point
type Service struct {
	scanner    atomic.Pointer[bias.Scanner]
	extractor  Extractor
	store      *upload.Store
	cache      cache.ReportCache
	metrics    *metrics.Collector
	publisher  Publisher
	history    Recorder
	masker     Masker
	samples    int
	logger     *logger.Logger
	maxTextLen int

	totalScans    atomic.Int64
	totalFindings atomic.Int64
}

// New creates a Service
func New(opts Options) *Service {
	s := &Service{
		extractor:  opts.Extractor,
		store:      opts.Store,
		cache:      opts.Cache,
		metrics:    opts.Metrics,
		publisher:  opts.Publisher,
		history:    opts.History,
		masker:     opts.Masker,
		samples:    opts.Samples,
		logger:     opts.Logger,
		maxTextLen: opts.MaxTextLen,
	}
	if s.cache == nil {
		s.cache = cache.Noop{}
	}
	if s.logger == nil {
		s.logger = logger.Nop()
	}
	s.scanner.Store(opts.Scanner)
	return s
}

// SetScanner swaps the active scanner, e.g. after a dictionary reload
func (s *Service) SetScanner(scanner *bias.Scanner) {
	s.scanner.Store(scanner)
	s.logger.Info("Scanner dictionary replaced",
		zap.Int("categories", len(scanner.Dictionary())),
	)
}

// Dictionary returns the active dictionary
func (s *Service) Dictionary() bias.Dictionary {
	return s.scanner.Load().Dictionary()
}

// Totals returns the number of scans and findings since start
func (s *Service) Totals() (scans, findings int64) {
	return s.totalScans.Load(), s.totalFindings.Load()
}

// CacheStats returns the report cache statistics
func (s *Service) CacheStats() cache.Stats {
	return s.cache.Stats()
}

// ScanText scans raw text submitted by a client
func (s *Service) ScanText(ctx context.Context, text string) (*Result, error) {
	if s.maxTextLen > 0 && len(text) > s.maxTextLen {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrTextTooLong, len(text), s.maxTextLen)
	}
	return s.scan(ctx, SourceText, "", text), nil
}

// ScanUpload stores r, extracts its text, scans it and always deletes the stored file
func (s *Service) ScanUpload(ctx context.Context, filename string, r io.Reader) (*Result, error) {
	if !s.extractor.Supports(filename) {
		return nil, fmt.Errorf("%w: %s", extract.ErrUnsupportedFormat, filename)
	}

	file, err := s.store.Save(filename, r)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := s.store.Remove(file); err != nil {
			s.logger.Error("Failed to remove upload", zap.String("path", file.Path), zap.Error(err))
		}
	}()

	text, err := s.extractor.Extract(ctx, file.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to extract %s: %w", file.OriginalName, err)
	}

	return s.scan(ctx, SourceUpload, file.OriginalName, text), nil
}

// ScanFile scans a document already on disk without copying it
func (s *Service) ScanFile(ctx context.Context, path string) (*Result, error) {
	text, err := s.extractor.Extract(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to extract %s: %w", path, err)
	}
	return s.scan(ctx, SourceFile, path, text), nil
}

func (s *Service) scan(ctx context.Context, source, document, text string) *Result {
	start := time.Now()
	scanner := s.scanner.Load()
	log := s.logger
	if id := RequestID(ctx); id != "" {
		log = log.WithRequestID(id)
	}

	result := &Result{Source: source, Document: document}

	if strings.TrimSpace(text) == "" {
		result.Report = scanner.Scan("")
	} else {
		result.Analyzed = true
		result.Report, result.Cached = s.scanCached(ctx, log, scanner, text)
	}
	result.Duration = time.Since(start)

	s.totalScans.Add(1)
	s.totalFindings.Add(int64(len(result.Report.Findings)))

	if s.metrics != nil {
		s.metrics.ObserveScan(source, result.Report, result.Duration)
	}

	log.Info("Scan completed",
		zap.String("source", source),
		zap.Bool("analyzed", result.Analyzed),
		zap.Bool("cached", result.Cached),
		zap.Int("sentences", result.Report.Sentences),
		zap.Int("findings", len(result.Report.Findings)),
		zap.Float64("score", result.Report.Score),
		zap.String("level", string(result.Report.Level)),
		zap.Duration("duration", result.Duration),
	)

	s.publish(ctx, result)
	s.record(ctx, log, result)
	return result
}

func (s *Service) scanCached(ctx context.Context, log *logger.Logger, scanner *bias.Scanner, text string) (bias.Report, bool) {
	key := cache.Key(scanner.Fingerprint(), text)

	cached, found, err := s.cache.Get(ctx, key)
	if err != nil {
		log.Warn("Report cache lookup failed", zap.Error(err))
	}
	if s.metrics != nil {
		s.metrics.ObserveCache(found)
	}
	if found {
		return *cached, true
	}

	report := scanner.Scan(text)
	if err := s.cache.Set(ctx, key, &report); err != nil {
		log.Warn("Failed to cache report", zap.Error(err))
	}
	return report, false
}

func (s *Service) publish(ctx context.Context, result *Result) {
	if s.publisher == nil {
		return
	}

	requestID := RequestID(ctx)
	s.publisher.BroadcastEvent(websocket.Event{
		Type:      websocket.EventTypeScanCompleted,
		Timestamp: time.Now(),
		RequestID: requestID,
		Data: websocket.ScanCompletedEvent{
			RequestID:  requestID,
			Source:     result.Source,
			Document:   result.Document,
			Analyzed:   result.Analyzed,
			Cached:     result.Cached,
			Sentences:  result.Report.Sentences,
			Findings:   len(result.Report.Findings),
			Categories: result.Report.CategoryCounts(),
			Score:      result.Report.Score,
			Level:      result.Report.Level,
			Color:      result.Report.Color,
			DurationMS: float64(result.Duration.Microseconds()) / 1000,
			Samples:    s.maskedSamples(result.Report.Findings),
		},
	})
}

func (s *Service) record(ctx context.Context, log *logger.Logger, result *Result) {
	if s.history == nil {
		return
	}

	entry := history.NewEntry(RequestID(ctx), result.Source, result.Document, result.Analyzed, result.Cached, result.Report)
	if err := s.history.Record(ctx, entry); err != nil {
		log.Warn("Failed to record scan history", zap.Error(err))
	}
}

func (s *Service) maskedSamples(findings []bias.Finding) []websocket.FindingSample {
	if s.masker == nil || s.samples <= 0 || len(findings) == 0 {
		return nil
	}

	n := min(s.samples, len(findings))
	samples := make([]websocket.FindingSample, 0, n)
	for _, f := range findings[:n] {
		samples = append(samples, websocket.FindingSample{
			Category: f.Category,
			Word:     f.Word,
			Sentence: s.masker.Mask(f.Sentence),
		})
	}
	return samples
}
