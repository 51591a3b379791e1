// Package sqlite persists alignment runs and their records in a SQLite
// database so that runs can be listed and compared later.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/agentstation/placemap/pkg/alignment"
	"github.com/agentstation/placemap/pkg/errors"
)

// Run summarizes one alignment run.
type Run struct {
	ID         string         `json:"id" yaml:"id"`
	StartedAt  time.Time      `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time      `json:"finished_at" yaml:"finished_at"`
	ConfigPath string         `json:"config_path" yaml:"config_path"`
	Modes      []string       `json:"modes" yaml:"modes"`
	Places     map[string]int `json:"places" yaml:"places"`
	Alignments int            `json:"alignments" yaml:"alignments"`
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// Store implements run persistence using SQLite.
type Store struct {
	db *sql.DB
}

// New opens (creating if needed) the database at dbPath. Use ":memory:"
// for a throwaway store.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// An in-memory database lives only as long as its single connection.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		config_path TEXT NOT NULL DEFAULT '',
		modes JSON NOT NULL,
		places JSON NOT NULL,
		alignment_count INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS alignments (
		run_id TEXT NOT NULL,
		id_a TEXT NOT NULL,
		id_b TEXT NOT NULL,
		hash TEXT NOT NULL,
		namespaces JSON NOT NULL,
		authorities JSON NOT NULL,
		modes JSON NOT NULL,
		proximity TEXT,
		distance_dd REAL,
		distance_m REAL,
		PRIMARY KEY (run_id, id_a, id_b),
		FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_alignments_a ON alignments(id_a);
	CREATE INDEX IF NOT EXISTS idx_alignments_b ON alignments(id_b);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SaveRun stores a run and its alignment records in one transaction.
func (s *Store) SaveRun(ctx context.Context, run Run, records []alignment.Record) (err error) {
	if run.ID == "" {
		return errors.NewValidationError("id", run.ID, "run id is required")
	}
	modes, err := json.Marshal(orEmpty(run.Modes))
	if err != nil {
		return err
	}
	counts := run.Places
	if counts == nil {
		counts = map[string]int{}
	}
	placesJSON, err := json.Marshal(counts)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var exists int
	if err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs WHERE id = ?`, run.ID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check run: %w", err)
	}
	if exists > 0 {
		return errors.NewAlreadyExistsError("run", run.ID)
	}

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, finished_at, config_path, modes, places, alignment_count)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, run.ID, formatTime(run.StartedAt), formatTime(run.FinishedAt), run.ConfigPath, string(modes), string(placesJSON), len(records)); err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO alignments (run_id, id_a, id_b, hash, namespaces, authorities, modes, proximity, distance_dd, distance_m)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare alignment insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, r := range records {
		if len(r.AlignedIDs) != 2 {
			return errors.NewValidationError("aligned_ids", r.AlignedIDs, "a record aligns exactly two ids")
		}
		ns, _ := json.Marshal(orEmpty(r.AlignedNamespaces))
		auth, _ := json.Marshal(orEmpty(r.Authorities))
		md, _ := json.Marshal(orEmpty(r.Modes))
		if _, err = stmt.ExecContext(ctx,
			run.ID, r.AlignedIDs[0], r.AlignedIDs[1], strconv.FormatUint(r.Hash, 10),
			string(ns), string(auth), string(md),
			stringToNull(r.Proximity), floatToNull(r.CentroidDistanceDD), floatToNull(r.CentroidDistanceM),
		); err != nil {
			return fmt.Errorf("failed to insert alignment %v: %w", r.AlignedIDs, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

// ListRuns returns every stored run, most recent first.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, finished_at, config_path, modes, places, alignment_count
		FROM runs
		ORDER BY started_at DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return runs, nil
}

// LoadRun returns a stored run with its records sorted by aligned ids.
func (s *Store) LoadRun(ctx context.Context, id string) (Run, []alignment.Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, started_at, finished_at, config_path, modes, places, alignment_count
		FROM runs WHERE id = ?
	`, id)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return Run{}, nil, errors.NewNotFoundError("run", id)
	}
	if err != nil {
		return Run{}, nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id_a, id_b, hash, namespaces, authorities, modes, proximity, distance_dd, distance_m
		FROM alignments
		WHERE run_id = ?
		ORDER BY id_a, id_b
	`, id)
	if err != nil {
		return Run{}, nil, fmt.Errorf("failed to query alignments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	records := make([]alignment.Record, 0, run.Alignments)
	for rows.Next() {
		var (
			a, b, hash         string
			ns, auth, md       string
			proximity          sql.NullString
			distDD, distMeters sql.NullFloat64
		)
		if err := rows.Scan(&a, &b, &hash, &ns, &auth, &md, &proximity, &distDD, &distMeters); err != nil {
			return Run{}, nil, fmt.Errorf("failed to scan alignment: %w", err)
		}
		r := alignment.Record{
			AlignedIDs:         []string{a, b},
			Proximity:          nullToString(proximity),
			CentroidDistanceDD: nullToFloatPtr(distDD),
			CentroidDistanceM:  nullToFloatPtr(distMeters),
		}
		if r.Hash, err = strconv.ParseUint(hash, 10, 64); err != nil {
			return Run{}, nil, fmt.Errorf("invalid hash for %s >< %s: %w", a, b, err)
		}
		if err := unmarshalJSON(ns, &r.AlignedNamespaces); err != nil {
			return Run{}, nil, err
		}
		if err := unmarshalJSON(auth, &r.Authorities); err != nil {
			return Run{}, nil, err
		}
		if err := unmarshalJSON(md, &r.Modes); err != nil {
			return Run{}, nil, err
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return Run{}, nil, fmt.Errorf("error iterating alignments: %w", err)
	}
	return run, records, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var (
		run                   Run
		started, finished     string
		modesJSON, placesJSON string
	)
	if err := sc.Scan(&run.ID, &started, &finished, &run.ConfigPath, &modesJSON, &placesJSON, &run.Alignments); err != nil {
		if err == sql.ErrNoRows {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("failed to scan run: %w", err)
	}
	var err error
	if run.StartedAt, err = parseTime(started); err != nil {
		return Run{}, err
	}
	if run.FinishedAt, err = parseTime(finished); err != nil {
		return Run{}, err
	}
	if err := unmarshalJSON(modesJSON, &run.Modes); err != nil {
		return Run{}, err
	}
	if err := unmarshalJSON(placesJSON, &run.Places); err != nil {
		return Run{}, err
	}
	return run, nil
}
