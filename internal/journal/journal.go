package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Operation names recorded by the store.
const (
	OpRegister      = "register"
	OpUpdate        = "update"
	OpCreateVersion = "create_version"
	OpDelete        = "delete"
	OpRename        = "rename"
	OpCopy          = "copy"
)

// Entry is one recorded mutation.
type Entry struct {
	Seq        int64          `json:"seq"`
	ID         string         `json:"id"`
	RecordedAt time.Time      `json:"recorded_at"`
	Op         string         `json:"op"`
	Path       string         `json:"path"`
	URI        string         `json:"uri,omitempty"`
	Kind       string         `json:"kind,omitempty"`
	Detail     map[string]any `json:"detail,omitempty"`
}

// Filter narrows List.
type Filter struct {
	// PathPrefix keeps entries at or below this path.
	PathPrefix string
	// Op keeps entries of one operation.
	Op string
	// Since drops entries recorded before this instant.
	Since time.Time
	// Limit caps the number of returned entries; <= 0 means 100.
	Limit int
}

// Journal is a SQLite-backed mutation log.
type Journal struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Open initializes or connects to the journal database at path and applies
// migrations.
func Open(path string) (*Journal, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("open journal: empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure journal directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	j := &Journal{db: db, path: path, now: func() time.Time { return time.Now().UTC() }}
	if err := j.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return j, nil
}

// Path returns the database file location.
func (j *Journal) Path() string {
	return j.path
}

// Close closes the underlying database connection.
func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	return j.db.Close()
}

// Append records e, filling in the ID and timestamp when unset.
func (j *Journal) Append(ctx context.Context, e Entry) error {
	if j == nil {
		return nil
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.RecordedAt.IsZero() {
		e.RecordedAt = j.now()
	}
	detail := "{}"
	if len(e.Detail) > 0 {
		data, err := json.Marshal(e.Detail)
		if err != nil {
			return fmt.Errorf("encode journal detail: %w", err)
		}
		detail = string(data)
	}
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO entries (id, recorded_at, op, path, uri, kind, detail) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID,
		e.RecordedAt.UTC().Format(time.RFC3339Nano),
		e.Op,
		e.Path,
		e.URI,
		e.Kind,
		detail,
	)
	if err != nil {
		return fmt.Errorf("insert journal entry: %w", err)
	}
	return nil
}

// List returns matching entries, newest first.
func (j *Journal) List(ctx context.Context, f Filter) ([]Entry, error) {
	var (
		clauses []string
		args    []any
	)
	if prefix := strings.TrimSpace(f.PathPrefix); prefix != "" {
		prefix = filepath.Clean(prefix)
		clauses = append(clauses, "(path = ? OR substr(path, 1, ?) = ?)")
		args = append(args, prefix, len(prefix)+1, prefix+string(filepath.Separator))
	}
	if op := strings.TrimSpace(f.Op); op != "" {
		clauses = append(clauses, "op = ?")
		args = append(args, op)
	}
	if !f.Since.IsZero() {
		clauses = append(clauses, "recorded_at >= ?")
		args = append(args, f.Since.UTC().Format(time.RFC3339Nano))
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}

	query := "SELECT seq, id, recorded_at, op, path, uri, kind, detail FROM entries"
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY seq DESC LIMIT ?"
	args = append(args, limit)

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e        Entry
			recorded string
			detail   string
		)
		if err := rows.Scan(&e.Seq, &e.ID, &recorded, &e.Op, &e.Path, &e.URI, &e.Kind, &detail); err != nil {
			return nil, fmt.Errorf("scan journal entry: %w", err)
		}
		if ts, err := time.Parse(time.RFC3339Nano, recorded); err == nil {
			e.RecordedAt = ts
		}
		if detail != "" && detail != "{}" {
			if err := json.Unmarshal([]byte(detail), &e.Detail); err != nil {
				return nil, fmt.Errorf("decode journal detail: %w", err)
			}
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journal: %w", err)
	}
	return out, nil
}
