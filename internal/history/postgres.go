package history

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/raaihank/bias-auditor/internal/bias"
	"github.com/raaihank/bias-auditor/internal/config"
	"go.uber.org/zap"
)

const schema = `
CREATE TABLE IF NOT EXISTS scan_history (
	id          UUID PRIMARY KEY,
	request_id  TEXT NOT NULL DEFAULT '',
	source      TEXT NOT NULL,
	document    TEXT NOT NULL DEFAULT '',
	analyzed    BOOLEAN NOT NULL,
	cached      BOOLEAN NOT NULL,
	sentences   INTEGER NOT NULL,
	findings    INTEGER NOT NULL,
	categories  JSONB NOT NULL DEFAULT '{}',
	score       DOUBLE PRECISION NOT NULL,
	level       TEXT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS scan_history_created_at_idx ON scan_history (created_at DESC);`

const insertEntry = `
	INSERT INTO scan_history (id, request_id, source, document, analyzed, cached, sentences, findings, categories, score, level, created_at)
	VALUES (:id, :request_id, :source, :document, :analyzed, :cached, :sentences, :findings, CAST(:categories AS JSONB), :score, :level, :created_at)`

const selectRecent = `
	SELECT id, request_id, source, document, analyzed, cached, sentences, findings, categories::text AS categories, score, level, created_at
	FROM scan_history
	ORDER BY created_at DESC
	LIMIT $1`

// entryRow is the database representation of an Entry
type entryRow struct {
	ID         string    `db:"id"`
	RequestID  string    `db:"request_id"`
	Source     string    `db:"source"`
	Document   string    `db:"document"`
	Analyzed   bool      `db:"analyzed"`
	Cached     bool      `db:"cached"`
	Sentences  int       `db:"sentences"`
	Findings   int       `db:"findings"`
	Categories string    `db:"categories"`
	Score      float64   `db:"score"`
	Level      string    `db:"level"`
	CreatedAt  time.Time `db:"created_at"`
}

// PostgresStore persists scan history in PostgreSQL
type PostgresStore struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewPostgresStore connects, configures the pool and creates the table if needed
func NewPostgresStore(cfg config.HistoryConfig, logger *zap.Logger) (*PostgresStore, error) {
	db, err := sqlx.Connect("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	store := &PostgresStore{db: db, logger: logger}

	if err := store.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize history store: %w", err)
	}

	logger.Info("History store initialized",
		zap.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
		zap.Int("max_open_conns", cfg.MaxOpenConns),
		zap.Int("max_idle_conns", cfg.MaxIdleConns))

	return store, nil
}

func (s *PostgresStore) initialize() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create scan_history table: %w", err)
	}
	return nil
}

// Record inserts one entry
func (s *PostgresStore) Record(ctx context.Context, entry Entry) error {
	row, err := toRow(entry)
	if err != nil {
		return err
	}

	if _, err := s.db.NamedExecContext(ctx, insertEntry, row); err != nil {
		s.logger.Error("Failed to record scan", zap.Error(err), zap.String("id", entry.ID))
		return fmt.Errorf("failed to record scan: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first
func (s *PostgresStore) Recent(ctx context.Context, limit int) ([]Entry, error) {
	var rows []entryRow
	if err := s.db.SelectContext(ctx, &rows, selectRecent, normalizeLimit(limit)); err != nil {
		return nil, fmt.Errorf("failed to list scan history: %w", err)
	}

	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		entry, err := fromRow(row)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Backend reports the store type
func (s *PostgresStore) Backend() string {
	return "postgres"
}

// Close closes the database pool
func (s *PostgresStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func toRow(e Entry) (entryRow, error) {
	categories := e.Categories
	if categories == nil {
		categories = map[string]int{}
	}
	encoded, err := json.Marshal(categories)
	if err != nil {
		return entryRow{}, fmt.Errorf("failed to encode categories: %w", err)
	}

	return entryRow{
		ID:         e.ID,
		RequestID:  e.RequestID,
		Source:     e.Source,
		Document:   e.Document,
		Analyzed:   e.Analyzed,
		Cached:     e.Cached,
		Sentences:  e.Sentences,
		Findings:   e.Findings,
		Categories: string(encoded),
		Score:      e.Score,
		Level:      string(e.Level),
		CreatedAt:  e.CreatedAt,
	}, nil
}

func fromRow(r entryRow) (Entry, error) {
	categories := map[string]int{}
	if r.Categories != "" {
		if err := json.Unmarshal([]byte(r.Categories), &categories); err != nil {
			return Entry{}, fmt.Errorf("failed to decode categories of %s: %w", r.ID, err)
		}
	}

	return Entry{
		ID:         r.ID,
		RequestID:  r.RequestID,
		Source:     r.Source,
		Document:   r.Document,
		Analyzed:   r.Analyzed,
		Cached:     r.Cached,
		Sentences:  r.Sentences,
		Findings:   r.Findings,
		Categories: categories,
		Score:      r.Score,
		Level:      bias.Level(r.Level),
		CreatedAt:  r.CreatedAt,
	}, nil
}

// maskDatabaseURL hides the password of a connection URL for logging
func maskDatabaseURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	return u.Redacted()
}
