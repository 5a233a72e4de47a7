// Package history keeps a SQLite log of finished jobs and generated files.
package history

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // SQLite driver

	"hostsgen/internal/model"
	"hostsgen/internal/util"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// DefaultLimit caps list queries when the caller passes a non-positive limit.
const DefaultLimit = 20

// Fixed-width UTC timestamps so text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Store wraps the history database.
type Store struct {
	conn *sql.DB
	path string
}

// Open opens (creating if needed) the database at path and applies pending
// migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if err := util.EnsureDir(filepath.Dir(path)); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)", path)
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{conn: conn, path: path}
	if err := s.migrate(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, s.conn, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database.
func (s *Store) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// RecordRun stores a finished job, assigning an ID when r has none.
func (s *Store) RecordRun(ctx context.Context, r model.Run) (model.Run, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO runs (id, kind, started_at, finished_at, progress, success, message)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Kind, r.StartedAt.UTC().Format(timeLayout), r.FinishedAt.UTC().Format(timeLayout),
		r.Progress, r.Success, r.Message,
	)
	if err != nil {
		return r, fmt.Errorf("record run: %w", err)
	}
	return r, nil
}

// RecordGenerated stores a generated hosts file, assigning an ID when g has none.
func (s *Store) RecordGenerated(ctx context.Context, g model.GeneratedRecord) (model.GeneratedRecord, error) {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO generated (id, filename, extensions, size, lines, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		g.ID, g.Filename, strings.Join(g.Extensions, ","), g.Size, g.Lines,
		g.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return g, fmt.Errorf("record generated file: %w", err)
	}
	return g, nil
}

// Runs returns the most recent runs, newest first.
func (s *Store) Runs(ctx context.Context, limit int) ([]model.Run, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, kind, started_at, finished_at, progress, success, message
		 FROM runs ORDER BY finished_at DESC LIMIT ?`, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	out := []model.Run{}
	for rows.Next() {
		var (
			r                 model.Run
			started, finished string
		)
		if err := rows.Scan(&r.ID, &r.Kind, &started, &finished, &r.Progress, &r.Success, &r.Message); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.StartedAt, _ = time.Parse(timeLayout, started)
		r.FinishedAt, _ = time.Parse(timeLayout, finished)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Generated returns the most recently generated files, newest first.
func (s *Store) Generated(ctx context.Context, limit int) ([]model.GeneratedRecord, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, filename, extensions, size, lines, created_at
		 FROM generated ORDER BY created_at DESC LIMIT ?`, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query generated files: %w", err)
	}
	defer rows.Close()

	out := []model.GeneratedRecord{}
	for rows.Next() {
		var (
			g            model.GeneratedRecord
			exts, create string
		)
		if err := rows.Scan(&g.ID, &g.Filename, &exts, &g.Size, &g.Lines, &create); err != nil {
			return nil, fmt.Errorf("scan generated file: %w", err)
		}
		g.Extensions = []string{}
		if exts != "" {
			g.Extensions = strings.Split(exts, ",")
		}
		g.CreatedAt, _ = time.Parse(timeLayout, create)
		out = append(out, g)
	}
	return out, rows.Err()
}

// History returns both logs.
func (s *Store) History(ctx context.Context, limit int) (model.History, error) {
	runs, err := s.Runs(ctx, limit)
	if err != nil {
		return model.History{}, err
	}
	gen, err := s.Generated(ctx, limit)
	if err != nil {
		return model.History{}, err
	}
	return model.History{Runs: runs, Generated: gen}, nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return limit
}
