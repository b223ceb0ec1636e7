// Package store persists datasets in a local SQLite database. It is the
// upstream collaborator of the join engine: callers resolve datasets
// here and hand them to the engine, which never touches storage itself.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	// Registers the sqlite3 driver.
	_ "github.com/mattn/go-sqlite3"

	"github.com/chimaridata/joinery/internal/config"
	"github.com/chimaridata/joinery/internal/dataset"
)

// ErrNotFound is returned when no dataset exists under the given id.
var ErrNotFound = errors.New("dataset not found")

const createTableSQL = `
CREATE TABLE IF NOT EXISTS datasets (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	schema TEXT NOT NULL,
	rows TEXT NOT NULL,
	provenance TEXT,
	record_count INTEGER NOT NULL,
	snapshot TEXT NOT NULL,
	created_at DATETIME NOT NULL
);
`

// Store persists datasets in a SQLite database file. Schema, rows and
// provenance are stored as JSON columns; record_count and created_at
// are materialized for listing without decoding.
type Store struct {
	db           *sql.DB
	snapshotRows int
}

// Open opens the SQLite database at path, creating it and the dataset
// table if needed. Pass ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating dataset table: %w", err)
	}
	return &Store{
		db:           db,
		snapshotRows: config.GetGlobalConfig().SnapshotRows,
	}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores the dataset, replacing any previous dataset with the same
// id. created_at reflects the most recent save.
func (s *Store) Save(d *dataset.Dataset) error {
	schemaJSON, err := json.Marshal(d.Schema)
	if err != nil {
		return fmt.Errorf("encoding schema: %w", err)
	}
	rowsJSON, err := json.Marshal(d.Rows)
	if err != nil {
		return fmt.Errorf("encoding rows: %w", err)
	}
	snapshot := d.Rows
	if len(snapshot) > s.snapshotRows {
		snapshot = snapshot[:s.snapshotRows]
	}
	snapshotJSON, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	var provenanceJSON any
	if d.Provenance != nil {
		encoded, err := json.Marshal(d.Provenance)
		if err != nil {
			return fmt.Errorf("encoding provenance: %w", err)
		}
		provenanceJSON = string(encoded)
	}

	_, err = s.db.Exec(
		`INSERT OR REPLACE INTO datasets
		 (id, name, schema, rows, provenance, record_count, snapshot, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.Name, string(schemaJSON), string(rowsJSON), provenanceJSON,
		d.RecordCount, string(snapshotJSON), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving dataset %s: %w", d.ID, err)
	}
	return nil
}

// Get loads the dataset stored under id. Date cells are re-typed from
// their JSON text form using the stored schema.
func (s *Store) Get(id string) (*dataset.Dataset, error) {
	var (
		name        string
		schemaJSON  string
		rowsJSON    string
		provenance  sql.NullString
		recordCount int
	)
	err := s.db.QueryRow(
		`SELECT name, schema, rows, provenance, record_count FROM datasets WHERE id = ?`, id,
	).Scan(&name, &schemaJSON, &rowsJSON, &provenance, &recordCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("dataset %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("loading dataset %s: %w", id, err)
	}

	schema := dataset.NewSchema()
	if err := json.Unmarshal([]byte(schemaJSON), schema); err != nil {
		return nil, fmt.Errorf("decoding schema for %s: %w", id, err)
	}
	var rows []dataset.Row
	if err := json.Unmarshal([]byte(rowsJSON), &rows); err != nil {
		return nil, fmt.Errorf("decoding rows for %s: %w", id, err)
	}
	retypeDates(schema, rows)

	d := &dataset.Dataset{
		ID:          id,
		Name:        name,
		Schema:      schema,
		Rows:        rows,
		RecordCount: recordCount,
	}
	if provenance.Valid {
		var p dataset.Provenance
		if err := json.Unmarshal([]byte(provenance.String), &p); err != nil {
			return nil, fmt.Errorf("decoding provenance for %s: %w", id, err)
		}
		d.Provenance = &p
	}
	return d, nil
}

// Summary is one entry of the dataset listing.
type Summary struct {
	ID          string
	Name        string
	RecordCount int
	CreatedAt   time.Time
}

// Description is everything stored about a dataset except the full row
// payload: its listing entry, schema, provenance and the preview rows
// captured at save time.
type Description struct {
	Summary
	Schema     *dataset.Schema
	Provenance *dataset.Provenance
	Preview    []dataset.Row
}

// Describe loads the dataset's metadata and preview rows without
// decoding the full row payload.
func (s *Store) Describe(id string) (*Description, error) {
	var (
		name         string
		schemaJSON   string
		snapshotJSON string
		provenance   sql.NullString
		recordCount  int
		createdAt    time.Time
	)
	err := s.db.QueryRow(
		`SELECT name, schema, snapshot, provenance, record_count, created_at
		 FROM datasets WHERE id = ?`, id,
	).Scan(&name, &schemaJSON, &snapshotJSON, &provenance, &recordCount, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("dataset %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("describing dataset %s: %w", id, err)
	}

	schema := dataset.NewSchema()
	if err := json.Unmarshal([]byte(schemaJSON), schema); err != nil {
		return nil, fmt.Errorf("decoding schema for %s: %w", id, err)
	}
	var preview []dataset.Row
	if err := json.Unmarshal([]byte(snapshotJSON), &preview); err != nil {
		return nil, fmt.Errorf("decoding snapshot for %s: %w", id, err)
	}
	retypeDates(schema, preview)

	desc := &Description{
		Summary: Summary{ID: id, Name: name, RecordCount: recordCount, CreatedAt: createdAt},
		Schema:  schema,
		Preview: preview,
	}
	if provenance.Valid {
		var p dataset.Provenance
		if err := json.Unmarshal([]byte(provenance.String), &p); err != nil {
			return nil, fmt.Errorf("decoding provenance for %s: %w", id, err)
		}
		desc.Provenance = &p
	}
	return desc, nil
}

// List returns stored dataset summaries, newest first.
func (s *Store) List() ([]Summary, error) {
	rows, err := s.db.Query(
		`SELECT id, name, record_count, created_at FROM datasets ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("listing datasets: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sum Summary
		if err := rows.Scan(&sum.ID, &sum.Name, &sum.RecordCount, &sum.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning dataset row: %w", err)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Delete removes the dataset stored under id.
func (s *Store) Delete(id string) error {
	res, err := s.db.Exec(`DELETE FROM datasets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting dataset %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("dataset %s: %w", id, ErrNotFound)
	}
	return nil
}

// ResolveMany loads every id into an id-keyed map. One missing dataset
// fails the whole resolution.
func (s *Store) ResolveMany(ids []string) (map[string]*dataset.Dataset, error) {
	out := make(map[string]*dataset.Dataset, len(ids))
	for _, id := range ids {
		d, err := s.Get(id)
		if err != nil {
			return nil, err
		}
		out[id] = d
	}
	return out, nil
}

// retypeDates restores date cells after JSON decoding, which cannot
// distinguish dates from plain text.
func retypeDates(schema *dataset.Schema, rows []dataset.Row) {
	for _, name := range schema.Names() {
		field, _ := schema.Get(name)
		if field.Type != dataset.TypeDate {
			continue
		}
		for _, row := range rows {
			if v, ok := row[name]; ok {
				row[name] = dataset.CoerceToType(v, dataset.TypeDate)
			}
		}
	}
}
