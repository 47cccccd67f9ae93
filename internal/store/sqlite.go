package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store on a single JSON document table using
// modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS records (
	id         TEXT PRIMARY KEY,
	collection TEXT NOT NULL,
	data       TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_records_collection ON records(collection);
CREATE INDEX IF NOT EXISTS idx_records_debtor ON records(collection, json_extract(data, '$.debtor_id'));
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Create(ctx context.Context, collection string, record any) (string, error) {
	id, data, err := document(record)
	if err != nil {
		return "", err
	}
	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO records (id, collection, data, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, collection, string(data), now, now,
	)
	if err != nil {
		return "", eris.Wrapf(err, "sqlite: insert %s", collection)
	}
	return id, nil
}

func (s *SQLiteStore) Update(ctx context.Context, collection, id string, patch any) error {
	data, err := patchDocument(patch)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE records SET data = json_patch(data, ?), updated_at = ? WHERE collection = ? AND id = ?`,
		string(data), time.Now().UTC(), collection, id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update %s %s", collection, id)
	}
	return checkRowsAffected(res, collection, id)
}

func (s *SQLiteStore) List(ctx context.Context, collection string, filter Filter, limit int) ([]json.RawMessage, error) {
	if err := validateFilter(filter); err != nil {
		return nil, err
	}

	var b strings.Builder
	b.WriteString(`SELECT data FROM records WHERE collection = ?`)
	args := []any{collection}
	for _, k := range sortedKeys(filter) {
		if k == "id" {
			b.WriteString(` AND id = ?`)
		} else {
			b.WriteString(` AND json_extract(data, '$.` + k + `') = ?`)
		}
		args = append(args, sqliteValue(filter[k]))
	}
	b.WriteString(` ORDER BY rowid LIMIT ?`)
	if limit <= 0 {
		limit = -1
	}
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list %s", collection)
	}
	defer rows.Close() //nolint:errcheck

	var out []json.RawMessage
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrapf(err, "sqlite: scan %s", collection)
		}
		out = append(out, json.RawMessage(data))
	}
	return out, eris.Wrapf(rows.Err(), "sqlite: list %s iterate", collection)
}

func (s *SQLiteStore) Delete(ctx context.Context, collection, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE collection = ? AND id = ?`, collection, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete %s %s", collection, id)
	}
	return checkRowsAffected(res, collection, id)
}

// sqliteValue converts filter values to what json_extract yields: JSON
// booleans come back as 1 and 0.
func sqliteValue(v any) any {
	if b, ok := v.(bool); ok {
		if b {
			return 1
		}
		return 0
	}
	return v
}

func checkRowsAffected(res sql.Result, collection, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "%s %s", collection, id)
	}
	return nil
}
