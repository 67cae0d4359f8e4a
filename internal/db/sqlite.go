// Package db keeps the object inventory of indexed projects in SQLite so
// identifiers can be resolved to URLs across projects.
package db

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

type DB struct {
	conn *sql.DB
}

func New(dbPath string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	// If an existing file isn't SQLite, delete it.
	if info, err := os.Stat(dbPath); err == nil && info.Size() >= 4 {
		f, err := os.Open(dbPath)
		if err == nil {
			header := make([]byte, 4)
			n, _ := f.Read(header)
			f.Close()
			if n >= 4 && string(header) != "SQLi" {
				slog.Warn("removing non-SQLite database file", "path", dbPath)
				os.Remove(dbPath)
			}
		}
	}

	dsn := "file:" + dbPath + "?_txlock=immediate&_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on"
	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	d := &DB{conn: conn}
	if err := d.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return d, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS projects (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			base_url TEXT NOT NULL DEFAULT '',
			indexed_at TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS objects (
			id INTEGER PRIMARY KEY,
			project_id INTEGER NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
			abs_id TEXT NOT NULL,
			url TEXT NOT NULL,
			kind TEXT NOT NULL,
			content_hash TEXT,
			UNIQUE(project_id, abs_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_objects_abs_id ON objects (abs_id)`,
		`CREATE INDEX IF NOT EXISTS idx_objects_hash ON objects (content_hash)`,
	}

	for _, q := range queries {
		if _, err := db.conn.Exec(q); err != nil {
			return fmt.Errorf("executing %q: %w", q, err)
		}
	}
	return nil
}

// --- Project operations ---

type Project struct {
	ID        int
	Name      string
	BaseURL   string
	IndexedAt *time.Time
}

// UpsertProject creates the project or updates its base URL.
func (db *DB) UpsertProject(name, baseURL string) (*Project, error) {
	_, err := db.conn.Exec(
		`INSERT INTO projects (name, base_url) VALUES (?, ?)
		 ON CONFLICT (name) DO UPDATE SET base_url = excluded.base_url`,
		name, baseURL,
	)
	if err != nil {
		return nil, fmt.Errorf("upserting project: %w", err)
	}
	p, err := db.GetProject(name)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("project %q vanished after upsert", name)
	}
	return p, nil
}

func (db *DB) GetProject(name string) (*Project, error) {
	var p Project
	err := db.conn.QueryRow(
		`SELECT id, name, base_url, indexed_at FROM projects WHERE name = ?`, name,
	).Scan(&p.ID, &p.Name, &p.BaseURL, &p.IndexedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting project: %w", err)
	}
	return &p, nil
}

func (db *DB) ListProjects() ([]Project, error) {
	rows, err := db.conn.Query(`SELECT id, name, base_url, indexed_at FROM projects ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ID, &p.Name, &p.BaseURL, &p.IndexedAt); err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// --- Object operations ---

type Object struct {
	ID          int
	ProjectID   int
	Project     string
	AbsID       string
	URL         string
	Kind        string
	ContentHash string
}

// ReplaceObjects swaps the whole inventory of a project in one transaction.
func (db *DB) ReplaceObjects(projectID int, objs []Object) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM objects WHERE project_id = ?`, projectID); err != nil {
		return fmt.Errorf("deleting objects: %w", err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO objects (project_id, abs_id, url, kind, content_hash) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (project_id, abs_id) DO NOTHING`,
	)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, o := range objs {
		var hash any
		if o.ContentHash != "" {
			hash = o.ContentHash
		}
		if _, err := stmt.Exec(projectID, o.AbsID, o.URL, o.Kind, hash); err != nil {
			return fmt.Errorf("inserting object %s: %w", o.AbsID, err)
		}
	}

	if _, err := tx.Exec(`UPDATE projects SET indexed_at = CURRENT_TIMESTAMP WHERE id = ?`, projectID); err != nil {
		return fmt.Errorf("marking project indexed: %w", err)
	}
	return tx.Commit()
}

const objectColumns = `o.id, o.project_id, p.name, o.abs_id, o.url, o.kind, COALESCE(o.content_hash, '')`

func scanObject(s interface{ Scan(...any) error }, o *Object) error {
	return s.Scan(&o.ID, &o.ProjectID, &o.Project, &o.AbsID, &o.URL, &o.Kind, &o.ContentHash)
}

// FindObject returns the object with the given abs id. When several
// projects define it, the most recently indexed one wins.
func (db *DB) FindObject(absID string) (*Object, error) {
	var o Object
	err := scanObject(db.conn.QueryRow(
		`SELECT `+objectColumns+`
		 FROM objects o JOIN projects p ON p.id = o.project_id
		 WHERE o.abs_id = ?
		 ORDER BY p.indexed_at DESC, p.id DESC LIMIT 1`, absID,
	), &o)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding object: %w", err)
	}
	return &o, nil
}

// ListObjects returns a project's objects in the order they were stored.
func (db *DB) ListObjects(projectID int) ([]Object, error) {
	rows, err := db.conn.Query(
		`SELECT `+objectColumns+`
		 FROM objects o JOIN projects p ON p.id = o.project_id
		 WHERE o.project_id = ? ORDER BY o.id`, projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing objects: %w", err)
	}
	defer rows.Close()

	var objs []Object
	for rows.Next() {
		var o Object
		if err := scanObject(rows, &o); err != nil {
			return nil, err
		}
		objs = append(objs, o)
	}
	return objs, rows.Err()
}

func (db *DB) CountObjects(projectID int) (int, error) {
	var count int
	err := db.conn.QueryRow(`SELECT COUNT(*) FROM objects WHERE project_id = ?`, projectID).Scan(&count)
	return count, err
}
