// Package store keeps a SQLite history of evaluation runs.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/chaz8081/hareef/internal/evaluate"

	_ "modernc.org/sqlite" // SQLite driver.
)

// timeLayout is fixed-width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Evaluation is one recorded reference/hypothesis comparison.
type Evaluation struct {
	ID               uuid.UUID       `json:"id"`
	CreatedAt        time.Time       `json:"created_at"`
	Reference        string          `json:"reference"`
	Hypothesis       string          `json:"hypothesis"`
	Checkpoint       string          `json:"checkpoint,omitempty"`
	CheckpointDigest string          `json:"checkpoint_digest,omitempty"`
	Report           evaluate.Report `json:"report"`
}

// Store wraps SQLite access for evaluation history.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path and applies migrations.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("store: create dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: migrate: %w", err)
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS evaluations (
			id TEXT PRIMARY KEY,
			created_at TEXT NOT NULL,
			reference TEXT NOT NULL,
			hypothesis TEXT NOT NULL,
			checkpoint TEXT NOT NULL,
			checkpoint_digest TEXT NOT NULL,
			wer REAL NOT NULL,
			der REAL NOT NULL,
			wer_no_case_ending REAL NOT NULL,
			der_no_case_ending REAL NOT NULL,
			report TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_evaluations_created_at ON evaluations(created_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertEvaluation stores e. A zero ID or CreatedAt is filled in; the
// stored ID is returned.
func (s *Store) InsertEvaluation(ctx context.Context, e Evaluation) (uuid.UUID, error) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	report, err := json.Marshal(e.Report)
	if err != nil {
		return uuid.Nil, fmt.Errorf("store: encode report: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO evaluations (id, created_at, reference, hypothesis, checkpoint, checkpoint_digest,
			wer, der, wer_no_case_ending, der_no_case_ending, report)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID.String(),
		e.CreatedAt.UTC().Format(timeLayout),
		e.Reference,
		e.Hypothesis,
		e.Checkpoint,
		e.CheckpointDigest,
		e.Report.WER,
		e.Report.DER,
		e.Report.WERNoCaseEnding,
		e.Report.DERNoCaseEnding,
		string(report),
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("store: insert evaluation: %w", err)
	}
	return e.ID, nil
}

// ListEvaluations returns up to limit evaluations, newest first. A
// non-positive limit returns all of them.
func (s *Store) ListEvaluations(ctx context.Context, limit int) ([]Evaluation, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, reference, hypothesis, checkpoint, checkpoint_digest, report
		 FROM evaluations
		 ORDER BY created_at DESC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("store: list evaluations: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []Evaluation
	for rows.Next() {
		var e Evaluation
		var id, created, report string
		if err := rows.Scan(&id, &created, &e.Reference, &e.Hypothesis, &e.Checkpoint, &e.CheckpointDigest, &report); err != nil {
			return nil, fmt.Errorf("store: scan evaluation: %w", err)
		}
		if e.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("store: evaluation id %q: %w", id, err)
		}
		if e.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
			return nil, fmt.Errorf("store: evaluation %s time: %w", id, err)
		}
		if err := json.Unmarshal([]byte(report), &e.Report); err != nil {
			return nil, fmt.Errorf("store: evaluation %s report: %w", id, err)
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list evaluations: %w", err)
	}
	return result, nil
}
