package audit

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rotisserie/eris"
)

// Entry is one analysis run
type Entry struct {
	ID             int64         `json:"id"`
	ReviewID       string        `json:"review_id,omitempty"`
	ReviewType     string        `json:"review_type"`
	ContractType   string        `json:"contract_type"`
	Fingerprint    string        `json:"fingerprint"`
	Source         string        `json:"source"`
	FallbackReason string        `json:"fallback_reason,omitempty"`
	Score          int           `json:"score"`
	DecisionCount  int           `json:"decision_count"`
	Duration       time.Duration `json:"duration"`
	Error          string        `json:"error,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
}

// Stats summarizes recorded runs
type Stats struct {
	Total     int `json:"total"`
	Fallbacks int `json:"fallbacks"`
	CacheHits int `json:"cache_hits"`
}

// Recorder keeps the audit trail of analysis runs in SQLite
type Recorder struct {
	db  *sql.DB
	now func() time.Time
}

const schema = `CREATE TABLE IF NOT EXISTS analysis_runs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	review_id TEXT,
	review_type TEXT NOT NULL,
	contract_type TEXT,
	fingerprint TEXT,
	source TEXT NOT NULL,
	fallback_reason TEXT,
	score INTEGER,
	decision_count INTEGER,
	duration_ms INTEGER,
	error TEXT,
	created_at TEXT NOT NULL
)`

// Open opens (or creates) the audit database at path
func Open(path string) (*Recorder, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to open audit db %s", path)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "failed to create audit table")
	}
	return &Recorder{db: db, now: time.Now}, nil
}

// Record appends e. A zero CreatedAt is set to the current time.
func (r *Recorder) Record(ctx context.Context, e Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = r.now()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO analysis_runs
			(review_id, review_type, contract_type, fingerprint, source, fallback_reason, score, decision_count, duration_ms, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ReviewID, e.ReviewType, e.ContractType, e.Fingerprint, e.Source, e.FallbackReason,
		e.Score, e.DecisionCount, e.Duration.Milliseconds(), e.Error, e.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return eris.Wrap(err, "failed to write audit entry")
	}
	return nil
}

// List returns the most recent entries first
func (r *Recorder) List(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, review_id, review_type, contract_type, fingerprint, source, fallback_reason,
		       score, decision_count, duration_ms, error, created_at
		FROM analysis_runs
		ORDER BY id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "failed to query audit entries")
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		var (
			e          Entry
			durationMS int64
			createdAt  string
		)
		if err := rows.Scan(&e.ID, &e.ReviewID, &e.ReviewType, &e.ContractType, &e.Fingerprint, &e.Source,
			&e.FallbackReason, &e.Score, &e.DecisionCount, &durationMS, &e.Error, &createdAt); err != nil {
			return nil, eris.Wrap(err, "failed to scan audit entry")
		}
		e.Duration = time.Duration(durationMS) * time.Millisecond
		if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			e.CreatedAt = t
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Stats counts all runs, fallback runs and cache hits
func (r *Recorder) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN source = 'fallback' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN source = 'cache' THEN 1 ELSE 0 END), 0)
		FROM analysis_runs`).Scan(&s.Total, &s.Fallbacks, &s.CacheHits)
	if err != nil {
		return Stats{}, eris.Wrap(err, "failed to read audit stats")
	}
	return s, nil
}

func (r *Recorder) Close() error {
	return r.db.Close()
}
