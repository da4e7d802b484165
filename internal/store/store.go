// Package store persists completed runs to SQLite.
package store

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// RunKind names the pipeline that produced a stored run.
type RunKind string

const (
	RunResearch   RunKind = "research"
	RunPersonas   RunKind = "personas"
	RunPrioritize RunKind = "prioritize"
	RunSimulate   RunKind = "simulate"
)

// ErrNotFound is returned by Get for unknown run IDs.
var ErrNotFound = errors.New("run not found")

// Run is one stored pipeline result. Payload holds the result JSON as
// produced by the pipeline that ran.
type Run struct {
	ID               string          `json:"id"`
	Kind             RunKind         `json:"kind"`
	ProblemStatement string          `json:"problem_statement"`
	Payload          json.RawMessage `json:"payload"`
	CreatedAt        time.Time       `json:"created_at"`
}

// RunSummary is the listing view of a run, without the payload.
type RunSummary struct {
	ID               string    `json:"id"`
	Kind             RunKind   `json:"kind"`
	ProblemStatement string    `json:"problem_statement"`
	CreatedAt        time.Time `json:"created_at"`
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id                TEXT PRIMARY KEY,
	kind              TEXT NOT NULL,
	problem_statement TEXT NOT NULL DEFAULT '',
	payload           TEXT NOT NULL DEFAULT '{}',
	created_at        TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs (created_at DESC);
`

// Store is a SQLite-backed run archive.
type Store struct {
	db *sqlx.DB
}

// Open opens (or creates) the run database at path.
func Open(path string) (*Store, error) {
	db, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores a run result and returns the generated run ID.
func (s *Store) Save(kind RunKind, problemStatement string, payload any) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	id := newRunID()
	_, err = s.db.Exec(
		"INSERT INTO runs (id, kind, problem_statement, payload, created_at) VALUES (?, ?, ?, ?, ?)",
		id, string(kind), problemStatement, string(body), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	return id, nil
}

// Get returns one run by ID.
func (s *Store) Get(id string) (Run, error) {
	var (
		run       Run
		kind      string
		payload   string
		createdAt string
	)
	err := s.db.QueryRow(
		"SELECT id, kind, problem_statement, payload, created_at FROM runs WHERE id = ?", id,
	).Scan(&run.ID, &kind, &run.ProblemStatement, &payload, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, ErrNotFound
	}
	if err != nil {
		return Run{}, err
	}
	run.Kind = RunKind(kind)
	run.Payload = json.RawMessage(payload)
	run.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return run, nil
}

// List returns run summaries newest first, optionally filtered by kind.
func (s *Store) List(kind RunKind) ([]RunSummary, error) {
	query := "SELECT id, kind, problem_statement, created_at FROM runs"
	args := []any{}
	if kind != "" {
		query += " WHERE kind = ?"
		args = append(args, string(kind))
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := []RunSummary{}
	for rows.Next() {
		var (
			sum       RunSummary
			k         string
			createdAt string
		)
		if err := rows.Scan(&sum.ID, &k, &sum.ProblemStatement, &createdAt); err != nil {
			return nil, err
		}
		sum.Kind = RunKind(k)
		sum.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}

func newRunID() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
