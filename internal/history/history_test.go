package history

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/raaihank/bias-auditor/internal/bias"
	"github.com/raaihank/bias-auditor/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func entry(doc string) Entry {
	return Entry{ID: doc, Document: doc, Source: "upload", Categories: map[string]int{"Gender": 1}}
}

func documents(entries []Entry) []string {
	docs := make([]string, 0, len(entries))
	for _, e := range entries {
		docs = append(docs, e.Document)
	}
	return docs
}

func TestMemoryStoreNewestFirst(t *testing.T) {
	store := NewMemoryStore(3)
	ctx := context.Background()

	got, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, got)

	for i := 1; i <= 5; i++ {
		require.NoError(t, store.Record(ctx, entry(fmt.Sprintf("doc-%d", i))))
	}

	got, err = store.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"doc-5", "doc-4", "doc-3"}, documents(got))

	got, err = store.Recent(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"doc-5", "doc-4"}, documents(got))
}

func TestMemoryStoreCopiesCategories(t *testing.T) {
	store := NewMemoryStore(2)
	ctx := context.Background()

	e := entry("a")
	require.NoError(t, store.Record(ctx, e))
	e.Categories["Gender"] = 99

	got, err := store.Recent(ctx, 1)
	require.NoError(t, err)
	got[0].Categories["Religion"] = 3

	again, err := store.Recent(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"Gender": 1}, again[0].Categories)
}

func TestNormalizeLimit(t *testing.T) {
	assert.Equal(t, DefaultLimit, normalizeLimit(0))
	assert.Equal(t, DefaultLimit, normalizeLimit(-4))
	assert.Equal(t, 7, normalizeLimit(7))
	assert.Equal(t, MaxLimit, normalizeLimit(MaxLimit+1))
}

func TestNewEntry(t *testing.T) {
	report := bias.MustDefault().Scan("The man spoke. Nothing else was said here.")
	e := NewEntry("req-1", "text", "", true, false, report)

	assert.NotEmpty(t, e.ID)
	assert.Equal(t, "req-1", e.RequestID)
	assert.Equal(t, 2, e.Sentences)
	assert.Equal(t, 1, e.Findings)
	assert.Equal(t, map[string]int{"Gender": 1}, e.Categories)
	assert.Equal(t, bias.LevelHigh, e.Level)
	assert.WithinDuration(t, time.Now(), e.CreatedAt, time.Minute)
}

func TestRowRoundTrip(t *testing.T) {
	e := NewEntry("req-2", "upload", "essay.pdf", true, true, bias.MustDefault().Scan("We never stop. Fine."))

	row, err := toRow(e)
	require.NoError(t, err)
	assert.JSONEq(t, `{"Absolute":1}`, string(row.Categories))

	back, err := fromRow(row)
	require.NoError(t, err)
	assert.Equal(t, e, back)

	empty, err := toRow(Entry{ID: "x"})
	require.NoError(t, err)
	assert.Equal(t, "{}", string(empty.Categories))
}

func TestMaskDatabaseURL(t *testing.T) {
	assert.Equal(t, "postgres://auditor:xxxxx@db:5432/audit", maskDatabaseURL("postgres://auditor:secret@db:5432/audit"))
	assert.Equal(t, "postgres://db:5432/audit", maskDatabaseURL("postgres://db:5432/audit"))
}

func TestFactory(t *testing.T) {
	store, err := New(config.HistoryConfig{Backend: "memory", Capacity: 5}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "memory", store.Backend())

	store, err = New(config.HistoryConfig{Backend: "none"}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, Noop{}, store)

	_, err = New(config.HistoryConfig{Backend: "mongo"}, zap.NewNop())
	assert.Error(t, err)
}
