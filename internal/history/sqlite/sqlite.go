package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/loykin/unitctl/internal/history"
)

// Sink writes history events to SQLite database.
type Sink struct {
	db    *sql.DB
	table string
}

// New creates a new SQLite history sink.
// DSN format:
//   - "sqlite:///path/to/file.db"
//   - "sqlite://:memory:"
//   - "/path/to/file.db" (without prefix)
//   - ":memory:" (in-memory database)
func New(dsn, table string) (*Sink, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, errors.New("empty SQLite DSN")
	}
	if table == "" {
		table = history.DefaultTable
	}
	if err := history.ValidTable(table); err != nil {
		return nil, err
	}

	// Handle sqlite:// prefix
	if strings.HasPrefix(strings.ToLower(dsn), "sqlite://") {
		dsn = dsn[len("sqlite://"):]
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// a second connection to :memory: would see an empty database
	db.SetMaxOpenConns(1)

	sink := &Sink{db: db, table: table}
	if err := sink.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return sink, nil
}

func (s *Sink) ensureSchema(ctx context.Context) error {
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s(
			occurred_at TIMESTAMP NOT NULL DEFAULT (CURRENT_TIMESTAMP),
			run_id TEXT NOT NULL,
			event TEXT NOT NULL,
			unit TEXT NOT NULL,
			pid INTEGER NOT NULL,
			result TEXT,
			error TEXT
		);`, s.table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_unit ON %s(unit);`, s.table, s.table),
	}
	for _, q := range stmts {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

func (s *Sink) Send(ctx context.Context, e history.Event) error {
	rec := e.Record
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %s(occurred_at, run_id, event, unit, pid, result, error)
		VALUES(?, ?, ?, ?, ?, ?, ?);`, s.table),
		e.OccurredAt.UTC(), e.RunID, string(e.Type), rec.Unit, rec.PID, nullable(rec.Result), nullable(rec.Error))
	return err
}

// Count returns the number of stored events for unit, or all events when unit is empty.
func (s *Sink) Count(ctx context.Context, unit string) (int, error) {
	q := fmt.Sprintf(`SELECT COUNT(*) FROM %s`, s.table)
	var args []any
	if unit != "" {
		q += ` WHERE unit = ?`
		args = append(args, unit)
	}
	var n int
	err := s.db.QueryRowContext(ctx, q, args...).Scan(&n)
	return n, err
}

func (s *Sink) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}
