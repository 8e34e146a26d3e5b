package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// Store owns the SQLite handle shared by all repositories. The database is a
// single file exclusively owned by this process.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the database at path and ensures the schema
// exists. Safe to call against an already-initialized file.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		os.MkdirAll(dir, 0o755)
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if err := Migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Migrate creates the five tables when missing. Idempotent.
func Migrate(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS colleges (
		id    INTEGER PRIMARY KEY AUTOINCREMENT,
		name  TEXT UNIQUE NOT NULL
	);

	CREATE TABLE IF NOT EXISTS departments (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		college_id  INTEGER NOT NULL,
		name        TEXT NOT NULL,
		UNIQUE(college_id, name),
		FOREIGN KEY(college_id) REFERENCES colleges(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS courses (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		department_id  INTEGER NOT NULL,
		name           TEXT NOT NULL,
		UNIQUE(department_id, name),
		FOREIGN KEY(department_id) REFERENCES departments(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS students (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		course_id  INTEGER NOT NULL,
		roll       TEXT,
		name       TEXT NOT NULL,
		UNIQUE(course_id, roll),
		FOREIGN KEY(course_id) REFERENCES courses(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS attendance (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		student_id  INTEGER NOT NULL,
		date        TEXT NOT NULL,
		status      TEXT NOT NULL,
		timestamp   TEXT,
		UNIQUE(student_id, date),
		FOREIGN KEY(student_id) REFERENCES students(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_attendance_student ON attendance(student_id);
	CREATE INDEX IF NOT EXISTS idx_attendance_date    ON attendance(date);
	`
	_, err := db.Exec(schema)
	return err
}

// DB exposes the shared handle for repositories.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Reinit re-runs the idempotent schema migration on the open database.
func (s *Store) Reinit() error { return Migrate(s.db) }

func (s *Store) Close() error { return s.db.Close() }

// Backup returns the entire database as a single blob. VACUUM INTO produces a
// consistent copy even with a live WAL.
func (s *Store) Backup(ctx context.Context) ([]byte, error) {
	dir, err := os.MkdirTemp("", "attendance-backup-")
	if err != nil {
		return nil, fmt.Errorf("backup tmp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	dest := filepath.Join(dir, "backup.db")
	if _, err := s.db.ExecContext(ctx, `VACUUM INTO ?`, dest); err != nil {
		return nil, fmt.Errorf("backup vacuum: %w", err)
	}
	return os.ReadFile(dest)
}
