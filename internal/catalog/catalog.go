package catalog

import (
	"database/sql"
	"errors"
	"time"

	_ "modernc.org/sqlite"
)

// Store wraps SQLite-backed history of image imports and render jobs. It is
// an audit log: the in-memory registry stays authoritative for the session.
// All methods tolerate a nil receiver so callers can run without a catalog.
type Store struct {
	DB *sql.DB
}

// New opens (or creates) the database at path and ensures schema.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	s := &Store{DB: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS image_imports (
            path TEXT NOT NULL,
            kind TEXT NOT NULL,
            frames INTEGER,
            width INTEGER,
            height INTEGER,
            imported_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        );`,
		`CREATE TABLE IF NOT EXISTS render_jobs (
            id TEXT PRIMARY KEY,
            volume_file TEXT,
            slice_file TEXT,
            frame INTEGER,
            output_path TEXT,
            status TEXT NOT NULL,
            error_message TEXT,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
            completed_at TIMESTAMP
        );`,
		`CREATE INDEX IF NOT EXISTS idx_render_jobs_created ON render_jobs(created_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.DB.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the underlying DB.
func (s *Store) Close() error {
	if s == nil || s.DB == nil {
		return nil
	}
	return s.DB.Close()
}

// RenderRecord captures one persisted render attempt.
type RenderRecord struct {
	ID          string
	VolumeFile  string
	SliceFile   string
	Frame       int
	OutputPath  string
	Status      string
	Error       string
	CreatedAt   time.Time
	CompletedAt *time.Time
}

// RecordImport notes a decoded image file and its geometry.
func (s *Store) RecordImport(path, kind string, frames, width, height int) error {
	if s == nil {
		return nil
	}
	_, err := s.DB.Exec(`INSERT INTO image_imports (path, kind, frames, width, height) VALUES (?, ?, ?, ?, ?);`,
		path, kind, frames, width, height)
	return err
}

// RecordRenderQueued inserts a pending render job.
func (s *Store) RecordRenderQueued(rec RenderRecord) error {
	if s == nil {
		return nil
	}
	_, err := s.DB.Exec(`INSERT OR REPLACE INTO render_jobs (id, volume_file, slice_file, frame, output_path, status) VALUES (?, ?, ?, ?, ?, ?);`,
		rec.ID, rec.VolumeFile, rec.SliceFile, rec.Frame, rec.OutputPath, rec.Status)
	return err
}

// RecordRenderResult finalizes a render job with status, the resolved output
// path and any error message.
func (s *Store) RecordRenderResult(id, status, outputPath, errMsg string) error {
	if s == nil {
		return nil
	}
	_, err := s.DB.Exec(`UPDATE render_jobs SET status=?, output_path=CASE WHEN ?='' THEN output_path ELSE ? END, error_message=?, completed_at=CURRENT_TIMESTAMP WHERE id=?;`,
		status, outputPath, outputPath, errMsg, id)
	return err
}

// RecentRenders returns the latest render jobs up to limit, newest first.
func (s *Store) RecentRenders(limit int) ([]RenderRecord, error) {
	if s == nil {
		return nil, errors.New("catalog not initialized")
	}
	rows, err := s.DB.Query(`SELECT id, volume_file, slice_file, frame, output_path, status, error_message, created_at, completed_at FROM render_jobs ORDER BY created_at DESC, id DESC LIMIT ?;`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []RenderRecord
	for rows.Next() {
		var rec RenderRecord
		var created time.Time
		var completed sql.NullTime
		var errorMsg sql.NullString
		if err := rows.Scan(&rec.ID, &rec.VolumeFile, &rec.SliceFile, &rec.Frame, &rec.OutputPath, &rec.Status, &errorMsg, &created, &completed); err != nil {
			return nil, err
		}
		rec.CreatedAt = created
		if completed.Valid {
			rec.CompletedAt = &completed.Time
		}
		if errorMsg.Valid {
			rec.Error = errorMsg.String
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}
