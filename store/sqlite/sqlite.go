/*
Package sqlite provides the SQLite-backed implementations of the storage
interfaces.

PURPOSE:
  Implements docflow.DocumentStore, vaccine.PatientStore and
  supplies.Catalog on one SQLite file. The same patterns apply to
  PostgreSQL - only minor SQL dialect differences.

SCHEMA:
  documents: one row per form; indexed scalar columns for register queries
             (kind, fiscal year, status) plus the full document as JSON
  patients:  one row per vaccination patient, JSON payload
  items:     the store's stock catalog, keyed by normalized name + code

OPTIMISTIC CONCURRENCY:
  documents.version is enforced in the UPDATE's WHERE clause. A save
  carrying a stale version matches zero rows and fails with
  docflow.ErrConcurrentModification; nothing is written.

WAL MODE:
  SQLite is opened with WAL so readers don't block during a write, which
  keeps ledger recomputation cheap while forms are being saved.

USAGE:
  st, err := sqlite.New("./data/office.db")
  ...
  svc := supplies.NewService(st, st, nil)
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/sajha/inventory-engine/docflow"
	"github.com/sajha/inventory-engine/supplies"
	"github.com/sajha/inventory-engine/vaccine"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// New creates a SQLite store. Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		fiscal_year TEXT NOT NULL,
		form_no TEXT NOT NULL,
		status TEXT NOT NULL,
		doc_date TEXT NOT NULL,
		payload_json TEXT NOT NULL,
		version INTEGER NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Register queries: same kind, same fiscal year (numbering, listing)
	CREATE INDEX IF NOT EXISTS idx_documents_kind_fy
		ON documents(kind, fiscal_year);
	CREATE INDEX IF NOT EXISTS idx_documents_kind_status
		ON documents(kind, status);

	CREATE TABLE IF NOT EXISTS patients (
		id TEXT PRIMARY KEY,
		payload_json TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS items (
		name TEXT NOT NULL,
		code TEXT NOT NULL,
		classification TEXT NOT NULL,
		specification TEXT NOT NULL DEFAULT '',
		unit TEXT NOT NULL DEFAULT '',
		quantity TEXT NOT NULL DEFAULT '0',
		rate TEXT NOT NULL DEFAULT '0',
		batch_no TEXT NOT NULL DEFAULT '',
		expiry TEXT,
		PRIMARY KEY (name, code)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// DOCUMENT STORE
// =============================================================================

// Save inserts or replaces in place, enforcing the version check in the
// UPDATE's WHERE clause. Bumps the caller's Version on success.
func (s *Store) Save(ctx context.Context, doc *docflow.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC().Format(time.RFC3339Nano)

	// Marshal with the post-bump version so a reload round-trips exactly.
	doc.Version++
	payload, err := json.Marshal(doc)
	if err != nil {
		doc.Version--
		return fmt.Errorf("failed to encode document: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE documents
		SET kind = ?, fiscal_year = ?, form_no = ?, status = ?, doc_date = ?,
		    payload_json = ?, version = ?, updated_at = ?
		WHERE id = ? AND version = ?`,
		doc.Kind, doc.FiscalYear, doc.FormNo, doc.Status, doc.Date.String(),
		string(payload), doc.Version, now, doc.ID, doc.Version-1)
	if err != nil {
		doc.Version--
		return fmt.Errorf("failed to save document: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		doc.Version--
		return err
	}
	if affected == 1 {
		return nil
	}

	// No row matched: either the document is new, or the version is stale.
	var stored int
	err = s.db.QueryRowContext(ctx, `SELECT version FROM documents WHERE id = ?`, doc.ID).Scan(&stored)
	switch {
	case err == sql.ErrNoRows:
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO documents (id, kind, fiscal_year, form_no, status, doc_date,
			                       payload_json, version, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			doc.ID, doc.Kind, doc.FiscalYear, doc.FormNo, doc.Status, doc.Date.String(),
			string(payload), doc.Version, now, now)
		if err != nil {
			doc.Version--
			return fmt.Errorf("failed to insert document: %w", err)
		}
		return nil
	case err != nil:
		doc.Version--
		return fmt.Errorf("failed to check document version: %w", err)
	default:
		doc.Version--
		return fmt.Errorf("%w: %s version %d (stored %d)",
			docflow.ErrConcurrentModification, doc.ID, doc.Version, stored)
	}
}

func (s *Store) Get(ctx context.Context, id string) (*docflow.Document, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload_json FROM documents WHERE id = ?`, id).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", docflow.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load document: %w", err)
	}
	return decodeDocument(payload)
}

func (s *Store) ListByKind(ctx context.Context, kind docflow.Kind, fiscalYear string) ([]*docflow.Document, error) {
	query := `SELECT payload_json FROM documents WHERE kind = ?`
	args := []any{string(kind)}
	if fiscalYear != "" {
		query += ` AND fiscal_year = ?`
		args = append(args, fiscalYear)
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var result []*docflow.Document
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		doc, err := decodeDocument(payload)
		if err != nil {
			return nil, err
		}
		result = append(result, doc)
	}
	return result, rows.Err()
}

func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", docflow.ErrNotFound, id)
	}
	return nil
}

func decodeDocument(payload string) (*docflow.Document, error) {
	var doc docflow.Document
	if err := json.Unmarshal([]byte(payload), &doc); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	return &doc, nil
}

// =============================================================================
// PATIENT STORE
// =============================================================================

func (s *Store) SavePatient(ctx context.Context, p *vaccine.Patient) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode patient: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO patients (id, payload_json, created_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET payload_json = excluded.payload_json`,
		p.ID, string(payload), p.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to save patient: %w", err)
	}
	return nil
}

func (s *Store) GetPatient(ctx context.Context, id string) (*vaccine.Patient, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload_json FROM patients WHERE id = ?`, id).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", vaccine.ErrPatientNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load patient: %w", err)
	}
	return decodePatient(payload)
}

func (s *Store) ListPatients(ctx context.Context) ([]*vaccine.Patient, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload_json FROM patients ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	defer rows.Close()

	var result []*vaccine.Patient
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		p, err := decodePatient(payload)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func decodePatient(payload string) (*vaccine.Patient, error) {
	var p vaccine.Patient
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return nil, fmt.Errorf("failed to decode patient: %w", err)
	}
	return &p, nil
}

// PatientStore adapts the store to the vaccine.PatientStore interface.
func (s *Store) PatientStore() vaccine.PatientStore { return patientStore{s} }

type patientStore struct{ s *Store }

func (ps patientStore) Save(ctx context.Context, p *vaccine.Patient) error {
	return ps.s.SavePatient(ctx, p)
}

func (ps patientStore) Get(ctx context.Context, id string) (*vaccine.Patient, error) {
	return ps.s.GetPatient(ctx, id)
}

func (ps patientStore) List(ctx context.Context) ([]*vaccine.Patient, error) {
	return ps.s.ListPatients(ctx)
}

// =============================================================================
// CATALOG
// =============================================================================

// PutItem seeds or updates a stock record. Keyed case-insensitively.
func (s *Store) PutItem(ctx context.Context, item supplies.Item) error {
	var expiry any
	if item.Expiry != nil {
		expiry = item.Expiry.UTC().Format("2006-01-02")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO items (name, code, classification, specification, unit,
		                   quantity, rate, batch_no, expiry)
		VALUES (LOWER(TRIM(?)), LOWER(TRIM(?)), ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name, code) DO UPDATE SET
			classification = excluded.classification,
			specification = excluded.specification,
			unit = excluded.unit,
			quantity = excluded.quantity,
			rate = excluded.rate,
			batch_no = excluded.batch_no,
			expiry = excluded.expiry`,
		item.Name, item.Code, string(item.Classification), item.Specification,
		item.Unit, item.Quantity.String(), item.Rate.String(), item.BatchNo, expiry)
	if err != nil {
		return fmt.Errorf("failed to save item: %w", err)
	}
	return nil
}

func (s *Store) Lookup(ctx context.Context, name, code string) (*supplies.Item, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT name, code, classification, specification, unit, quantity, rate, batch_no, expiry
		FROM items WHERE name = LOWER(TRIM(?)) AND code = LOWER(TRIM(?))`, name, code)
	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		// Unknown item is not an error; the line stays as entered.
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up item: %w", err)
	}
	return item, nil
}

func (s *Store) List(ctx context.Context) ([]supplies.Item, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, code, classification, specification, unit, quantity, rate, batch_no, expiry
		FROM items ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	var result []supplies.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *item)
	}
	return result, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(row scanner) (*supplies.Item, error) {
	var item supplies.Item
	var classification, quantity, rate string
	var expiry sql.NullString
	if err := row.Scan(&item.Name, &item.Code, &classification, &item.Specification,
		&item.Unit, &quantity, &rate, &item.BatchNo, &expiry); err != nil {
		return nil, err
	}
	item.Classification = docflow.Classification(classification)

	var err error
	if item.Quantity, err = decimal.NewFromString(quantity); err != nil {
		return nil, fmt.Errorf("bad quantity %q: %w", quantity, err)
	}
	if item.Rate, err = decimal.NewFromString(rate); err != nil {
		return nil, fmt.Errorf("bad rate %q: %w", rate, err)
	}
	if expiry.Valid {
		t, err := time.Parse("2006-01-02", expiry.String)
		if err != nil {
			return nil, fmt.Errorf("bad expiry %q: %w", expiry.String, err)
		}
		item.Expiry = &t
	}
	return &item, nil
}
