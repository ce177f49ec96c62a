// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists analysis runs and their selected routes in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/nnaasynth/pkg/types"
)

const (
	indexDir = "index"
	dbFile   = "nnaasynth.db"

	defaultListLimit = 20

	// timeLayout has a fixed width so stored times sort as text.
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// ErrNotFound is returned when no analysis has the requested ID.
var ErrNotFound = errors.New("analysis not found")

// Store manages the analysis history database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at DataDir/index/nnaasynth.db and
// creates the schema if it does not exist.
func Open(cfg types.StoreConfig) (*Store, error) {
	if cfg.DataDir == "" {
		return nil, &types.ConfigError{Component: "store", Missing: []string{"data_dir"}}
	}
	dbDir := filepath.Join(cfg.DataDir, indexDir)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(dbDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS analyses (
			id TEXT PRIMARY KEY,
			query TEXT NOT NULL,
			started_at TEXT NOT NULL,
			finished_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS results (
			analysis_id TEXT NOT NULL REFERENCES analyses(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			smiles TEXT NOT NULL,
			protection_groups TEXT,
			route TEXT,
			route_index INTEGER,
			chemformer_score REAL,
			expert_augmented_score REAL,
			degenerate INTEGER,
			PRIMARY KEY (analysis_id, position)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_analyses_query ON analyses(query)`,
		`CREATE INDEX IF NOT EXISTS idx_results_smiles ON results(smiles)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Save writes an analysis and replaces any results stored under its ID.
func (s *Store) Save(ctx context.Context, a types.Analysis) error {
	if a.ID == "" {
		return errors.New("saving analysis: empty id")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO analyses (id, query, started_at, finished_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			query=excluded.query, started_at=excluded.started_at, finished_at=excluded.finished_at`,
		a.ID, a.Query, formatTime(a.StartedAt), formatTime(a.FinishedAt),
	)
	if err != nil {
		return fmt.Errorf("upserting analysis: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM results WHERE analysis_id = ?`, a.ID); err != nil {
		return fmt.Errorf("deleting old results: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO results (analysis_id, position, smiles, protection_groups, route, route_index,
			chemformer_score, expert_augmented_score, degenerate)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range a.Results {
		groupsJSON, err := json.Marshal(r.ProtectionGroups)
		if err != nil {
			return fmt.Errorf("encoding protection groups of %s: %w", r.SMILES, err)
		}
		routeJSON, err := json.Marshal(r.Route)
		if err != nil {
			return fmt.Errorf("encoding route of %s: %w", r.SMILES, err)
		}
		_, err = stmt.ExecContext(ctx,
			a.ID, i, r.SMILES, string(groupsJSON), string(routeJSON), r.RouteIndex,
			r.ChemformerScore, r.ExpertAugmentedScore, r.Degenerate,
		)
		if err != nil {
			return fmt.Errorf("inserting result %s: %w", r.SMILES, err)
		}
	}

	return tx.Commit()
}

// Get returns the analysis with the given ID and its results.
func (s *Store) Get(ctx context.Context, id string) (types.Analysis, error) {
	var (
		a                 types.Analysis
		started, finished string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, query, started_at, finished_at FROM analyses WHERE id = ?`, id,
	).Scan(&a.ID, &a.Query, &started, &finished)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Analysis{}, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	if err != nil {
		return types.Analysis{}, fmt.Errorf("querying analysis %s: %w", id, err)
	}
	a.StartedAt = parseTime(started)
	a.FinishedAt = parseTime(finished)

	a.Results, err = s.results(ctx, id)
	if err != nil {
		return types.Analysis{}, err
	}
	return a, nil
}

// ListOptions filters List.
type ListOptions struct {
	// Query restricts the listing to analyses of this exact input SMILES.
	Query string

	// Limit caps the number of analyses returned (default 20).
	Limit int
}

// List returns analyses newest first, each with its results.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]types.Analysis, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	q := `SELECT id, query, started_at, finished_at FROM analyses`
	var args []any
	if opts.Query != "" {
		q += ` WHERE query = ?`
		args = append(args, opts.Query)
	}
	q += ` ORDER BY started_at DESC, id LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("listing analyses: %w", err)
	}
	var out []types.Analysis
	for rows.Next() {
		var (
			a                 types.Analysis
			started, finished string
		)
		if err := rows.Scan(&a.ID, &a.Query, &started, &finished); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning analysis: %w", err)
		}
		a.StartedAt = parseTime(started)
		a.FinishedAt = parseTime(finished)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("listing analyses: %w", err)
	}
	rows.Close()

	for i := range out {
		if out[i].Results, err = s.results(ctx, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *Store) results(ctx context.Context, analysisID string) ([]types.SelectedResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT smiles, protection_groups, route, route_index, chemformer_score, expert_augmented_score, degenerate
		 FROM results WHERE analysis_id = ? ORDER BY position`, analysisID)
	if err != nil {
		return nil, fmt.Errorf("querying results of %s: %w", analysisID, err)
	}
	defer rows.Close()

	out := []types.SelectedResult{}
	for rows.Next() {
		var (
			r                     types.SelectedResult
			groupsJSON, routeJSON string
		)
		if err := rows.Scan(&r.SMILES, &groupsJSON, &routeJSON, &r.RouteIndex,
			&r.ChemformerScore, &r.ExpertAugmentedScore, &r.Degenerate); err != nil {
			return nil, fmt.Errorf("scanning result: %w", err)
		}
		if err := json.Unmarshal([]byte(groupsJSON), &r.ProtectionGroups); err != nil {
			return nil, fmt.Errorf("decoding protection groups of %s: %w", r.SMILES, err)
		}
		if err := json.Unmarshal([]byte(routeJSON), &r.Route); err != nil {
			return nil, fmt.Errorf("decoding route of %s: %w", r.SMILES, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(timeLayout, s)
	return t
}
