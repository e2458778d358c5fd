package audit

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/raaihank/bias-auditor/internal/bias"
	"github.com/raaihank/bias-auditor/internal/cache"
	"github.com/raaihank/bias-auditor/internal/extract"
	"github.com/raaihank/bias-auditor/internal/history"
	"github.com/raaihank/bias-auditor/internal/metrics"
	"github.com/raaihank/bias-auditor/internal/upload"
	"github.com/raaihank/bias-auditor/internal/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []websocket.Event
}

func (p *recordingPublisher) BroadcastEvent(e websocket.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func newService(t *testing.T) (*Service, *upload.Store, *recordingPublisher) {
	t.Helper()
	store := upload.NewStore(filepath.Join(t.TempDir(), "uploads"), 1024)
	require.NoError(t, store.Init())

	pub := &recordingPublisher{}
	svc := New(Options{
		Scanner:    bias.MustDefault(),
		History:    history.NewMemoryStore(10),
		Extractor:  extract.NewRegistry(),
		Store:      store,
		Cache:      cache.NewMemoryCache(time.Minute, time.Minute),
		Metrics:    metrics.New(),
		Publisher:  pub,
		MaxTextLen: 200,
	})
	return svc, store, pub
}

func assertNoUploads(t *testing.T, store *upload.Store) {
	t.Helper()
	entries, err := os.ReadDir(store.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestScanTextUsesCache(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()
	text := "The man spoke. Nothing else was said here."

	first, err := svc.ScanText(ctx, text)
	require.NoError(t, err)
	assert.True(t, first.Analyzed)
	assert.False(t, first.Cached)
	assert.Len(t, first.Report.Findings, 1)
	assert.Equal(t, 50.0, first.Report.Score)

	second, err := svc.ScanText(ctx, text)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Report, second.Report)

	scans, findings := svc.Totals()
	assert.Equal(t, int64(2), scans)
	assert.Equal(t, int64(2), findings)
	assert.Equal(t, int64(1), svc.CacheStats().Hits)
}

func TestScanTextEmptyIsNotAnalyzed(t *testing.T) {
	svc, _, _ := newService(t)

	result, err := svc.ScanText(context.Background(), "  \n\t ")
	require.NoError(t, err)

	assert.False(t, result.Analyzed)
	assert.Equal(t, 0.0, result.Report.Score)
	assert.Equal(t, bias.LevelLow, result.Report.Level)
	assert.Empty(t, result.Report.Findings)
}

func TestScanTextTooLong(t *testing.T) {
	svc, _, _ := newService(t)

	_, err := svc.ScanText(context.Background(), strings.Repeat("a", 201))
	assert.ErrorIs(t, err, ErrTextTooLong)
}

func TestScanUploadRemovesFile(t *testing.T) {
	svc, store, pub := newService(t)
	ctx := WithRequestID(context.Background(), "req-42")

	result, err := svc.ScanUpload(ctx, "essay.txt", strings.NewReader("We never lose. The weather is fine today."))
	require.NoError(t, err)

	assert.Equal(t, SourceUpload, result.Source)
	assert.Equal(t, "essay.txt", result.Document)
	require.Len(t, result.Report.Findings, 1)
	assert.Equal(t, "We <mark>never</mark> lose.", result.Report.Findings[0].Text)
	assertNoUploads(t, store)

	require.Len(t, pub.events, 1)
	event := pub.events[0]
	assert.Equal(t, websocket.EventTypeScanCompleted, event.Type)
	assert.Equal(t, "req-42", event.RequestID)
	data := event.Data.(websocket.ScanCompletedEvent)
	assert.Equal(t, 1, data.Findings)
	assert.Equal(t, map[string]int{"Absolute": 1}, data.Categories)
}

type upperMasker struct{}

func (upperMasker) Mask(text string) string { return strings.ToUpper(text) }

func TestPublishedSamplesAreMasked(t *testing.T) {
	pub := &recordingPublisher{}
	svc := New(Options{
		Scanner:   bias.MustDefault(),
		Extractor: extract.NewRegistry(),
		Publisher: pub,
		Masker:    upperMasker{},
		Samples:   1,
	})

	_, err := svc.ScanText(context.Background(), "The man left. A woman stayed. None remained.")
	require.NoError(t, err)

	require.Len(t, pub.events, 1)
	data := pub.events[0].Data.(websocket.ScanCompletedEvent)
	assert.Equal(t, 3, data.Findings)
	assert.Equal(t, []websocket.FindingSample{{Category: "Gender", Word: "man", Sentence: "THE MAN LEFT."}}, data.Samples)
}

func TestPublishedSamplesNeedMasker(t *testing.T) {
	svc, _, pub := newService(t)

	_, err := svc.ScanText(context.Background(), "The man left the building.")
	require.NoError(t, err)

	require.Len(t, pub.events, 1)
	assert.Empty(t, pub.events[0].Data.(websocket.ScanCompletedEvent).Samples)
}

func TestScanUploadErrors(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		body     string
		want     error
	}{
		{name: "unsupported", filename: "sheet.xlsx", body: "x", want: extract.ErrUnsupportedFormat},
		{name: "unreadable", filename: "bad.txt", body: "\xff\xfe\xfd", want: extract.ErrUnreadable},
		{name: "empty", filename: "empty.txt", body: "", want: upload.ErrEmptyFile},
		{name: "too large", filename: "big.txt", body: strings.Repeat("a", 2048), want: upload.ErrTooLarge},
		{name: "broken pdf", filename: "fake.pdf", body: "not a pdf", want: extract.ErrUnreadable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store, _ := newService(t)

			_, err := svc.ScanUpload(context.Background(), tt.filename, strings.NewReader(tt.body))
			assert.ErrorIs(t, err, tt.want)
			assertNoUploads(t, store)
		})
	}
}

func TestScanFile(t *testing.T) {
	svc, _, _ := newService(t)
	path := filepath.Join(t.TempDir(), "doc.md")
	require.NoError(t, os.WriteFile(path, []byte("A christian choir sang. It was lovely."), 0o600))

	result, err := svc.ScanFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, SourceFile, result.Source)
	require.Len(t, result.Report.Findings, 1)
	assert.Equal(t, "Religion", result.Report.Findings[0].Category)

	// the caller's file is left in place
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestSetScannerChangesResults(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()
	text := "The elderly man crossed the road."

	before, err := svc.ScanText(ctx, text)
	require.NoError(t, err)
	require.Len(t, before.Report.Findings, 1)
	assert.Equal(t, "Gender", before.Report.Findings[0].Category)

	scanner, err := bias.NewScanner(bias.Dictionary{{Name: "Age", Words: []string{"elderly"}}})
	require.NoError(t, err)
	svc.SetScanner(scanner)

	after, err := svc.ScanText(ctx, text)
	require.NoError(t, err)
	assert.False(t, after.Cached)
	require.Len(t, after.Report.Findings, 1)
	assert.Equal(t, "Age", after.Report.Findings[0].Category)
	assert.Equal(t, "Age", svc.Dictionary()[0].Name)
}

func TestScansAreRecorded(t *testing.T) {
	store := history.NewMemoryStore(10)
	svc := New(Options{
		Scanner:   bias.MustDefault(),
		Extractor: extract.NewRegistry(),
		History:   store,
	})
	ctx := WithRequestID(context.Background(), "req-7")

	_, err := svc.ScanText(ctx, "All hindu families came. The road was long.")
	require.NoError(t, err)
	_, err = svc.ScanText(ctx, "")
	require.NoError(t, err)

	entries, err := store.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.False(t, entries[0].Analyzed)
	assert.Equal(t, "req-7", entries[1].RequestID)
	assert.Equal(t, SourceText, entries[1].Source)
	assert.Equal(t, 1, entries[1].Findings)
	assert.Equal(t, map[string]int{"Religion": 1}, entries[1].Categories)
	assert.Equal(t, 50.0, entries[1].Score)
}

func TestRequestIDContext(t *testing.T) {
	assert.Equal(t, "", RequestID(context.Background()))
	assert.Equal(t, "abc", RequestID(WithRequestID(context.Background(), "abc")))
}
