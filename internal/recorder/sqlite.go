package recorder

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/phuslu/log"
	_ "modernc.org/sqlite"

	"TradingCore/internal/model"
)

// SQLiteRecorder persists run history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets readers inspect history while a run writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id                INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id            TEXT NOT NULL UNIQUE,
			started_at        INTEGER NOT NULL,
			finished_at       INTEGER,
			unique_tickers    INTEGER,
			tickers_with_news INTEGER,
			subscribers       INTEGER,
			succeeded         INTEGER,
			failed            INTEGER,
			news_delivered    INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at)`,

		`CREATE TABLE IF NOT EXISTS ticker_results (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id    TEXT NOT NULL,
			timestamp INTEGER NOT NULL,
			ticker    TEXT NOT NULL,
			stage     TEXT,
			status    TEXT,
			error     TEXT,
			analyses  INTEGER,
			summary   TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_ticker_results_run ON ticker_results(run_id)`,

		`CREATE TABLE IF NOT EXISTS deliveries (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id    TEXT NOT NULL,
			timestamp INTEGER NOT NULL,
			name      TEXT,
			email     TEXT,
			tickers   TEXT,
			items     INTEGER,
			stage     TEXT,
			status    TEXT,
			error     TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_deliveries_run ON deliveries(run_id)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordRun inserts the run tally, or updates it when the run was recorded
// before.
func (r *SQLiteRecorder) RecordRun(s *model.RunStats) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var finished any
	if !s.FinishedAt.IsZero() {
		finished = s.FinishedAt.Unix()
	}
	_, err := r.db.Exec(`INSERT INTO runs
		(run_id, started_at, finished_at, unique_tickers, tickers_with_news,
		 subscribers, succeeded, failed, news_delivered)
		VALUES (?,?,?,?,?,?,?,?,?)
		ON CONFLICT(run_id) DO UPDATE SET
			finished_at = excluded.finished_at,
			unique_tickers = excluded.unique_tickers,
			tickers_with_news = excluded.tickers_with_news,
			subscribers = excluded.subscribers,
			succeeded = excluded.succeeded,
			failed = excluded.failed,
			news_delivered = excluded.news_delivered`,
		s.RunID, s.StartedAt.Unix(), finished, s.UniqueTickers, s.TickersWithNews,
		s.TotalSubscribers, s.Succeeded, s.Failed, s.NewsDelivered,
	)
	return err
}

func (r *SQLiteRecorder) RecordTicker(rec *TickerRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO ticker_results
		(run_id, timestamp, ticker, stage, status, error, analyses, summary)
		VALUES (?,?,?,?,?,?,?,?)`,
		rec.RunID, time.Now().Unix(), string(rec.Ticker),
		rec.Outcome.Stage, string(rec.Outcome.Status), errText(rec.Outcome),
		rec.Analyses, rec.Summary,
	)
	return err
}

func (r *SQLiteRecorder) RecordDelivery(rec *DeliveryRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO deliveries
		(run_id, timestamp, name, email, tickers, items, stage, status, error)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		rec.RunID, time.Now().Unix(), rec.Name, rec.Email, rec.tickerList(),
		rec.Items, rec.Outcome.Stage, string(rec.Outcome.Status), errText(rec.Outcome),
	)
	return err
}

func (r *SQLiteRecorder) Close() error {
	log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
