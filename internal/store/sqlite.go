package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"remindflow/internal/domain"
)

// OpenSQLite opens path in WAL mode with a single writer connection.
func OpenSQLite(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?cache=shared&mode=rwc&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1) // SQLite single writer
	return db, nil
}

// EnsureSchema creates tables if they don't exist.
func EnsureSchema(db *sql.DB) error {
	schema := `
PRAGMA journal_mode=WAL;
CREATE TABLE IF NOT EXISTS reminders (
  owner TEXT NOT NULL,
  position INTEGER NOT NULL,
  id TEXT NOT NULL,
  chat_id TEXT NOT NULL DEFAULT '',
  text TEXT NOT NULL,
  scheduled_at TEXT NOT NULL,
  updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  PRIMARY KEY (owner, position)
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_reminders_id ON reminders(id);
`
	_, err := db.Exec(schema)
	return err
}

type SQLiteBackend struct{ db *sql.DB }

func NewSQLiteBackend(db *sql.DB) *SQLiteBackend { return &SQLiteBackend{db: db} }

func (b *SQLiteBackend) Load(ctx context.Context) (map[string][]domain.Record, error) {
	rows, err := b.db.QueryContext(ctx, `
SELECT owner,id,chat_id,text,scheduled_at
FROM reminders ORDER BY owner, position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string][]domain.Record{}
	for rows.Next() {
		var owner string
		var rec domain.Record
		if err := rows.Scan(&owner, &rec.ID, &rec.ChatID, &rec.Text, &rec.Time); err != nil {
			return nil, err
		}
		out[owner] = append(out[owner], rec)
	}
	return out, rows.Err()
}

// Save rewrites owner's rows inside one transaction.
func (b *SQLiteBackend) Save(ctx context.Context, owner string, recs []domain.Record) (err error) {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM reminders WHERE owner=?`, owner); err != nil {
		return err
	}
	for i, rec := range recs {
		_, err = tx.ExecContext(ctx, `
INSERT INTO reminders (owner,position,id,chat_id,text,scheduled_at,updated_at)
VALUES (?,?,?,?,?,?,CURRENT_TIMESTAMP)`, owner, i, rec.ID, rec.ChatID, rec.Text, rec.Time)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}
