// Package catalog keeps a SQLite index of reconstruction results across
// batch runs: which replays were processed, their rosters and the metadata
// of every rebuilt bank. It is a secondary read-model; reconstruction never
// depends on it.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Talv/sc2-repdump/internal/bank"
	"github.com/Talv/sc2-repdump/internal/roster"
)

type Catalog struct {
	db *sql.DB
}

func Open(path string) (*Catalog, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Catalog{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS replays (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL DEFAULT '',
			author_handle TEXT NOT NULL DEFAULT '',
			recorded_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS players (
			replay_id TEXT NOT NULL REFERENCES replays(id) ON DELETE CASCADE,
			slot INTEGER NOT NULL,
			handle TEXT NOT NULL DEFAULT '',
			name TEXT NOT NULL,
			clan TEXT NOT NULL DEFAULT '',
			control TEXT NOT NULL,
			color TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (replay_id, slot)
		);`,
		`CREATE TABLE IF NOT EXISTS banks (
			replay_id TEXT NOT NULL REFERENCES replays(id) ON DELETE CASCADE,
			slot INTEGER NOT NULL,
			name TEXT NOT NULL,
			net_size INTEGER NOT NULL,
			content_size INTEGER NOT NULL,
			sections INTEGER NOT NULL,
			keys INTEGER NOT NULL,
			signed INTEGER NOT NULL,
			signature TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (replay_id, slot, name)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_banks_name ON banks(name);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// RecordRun stores one replay's roster and bank metadata in a single
// transaction, replacing any earlier rows for the same replay id.
func (c *Catalog) RecordRun(ctx context.Context, replayID, title, authorHandle string, players []*roster.Player, banks []bank.Metadata) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO replays(id, title, author_handle, recorded_at) VALUES(?,?,?,?)
		 ON CONFLICT(id) DO UPDATE SET title=excluded.title, author_handle=excluded.author_handle, recorded_at=excluded.recorded_at`,
		replayID, title, authorHandle, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM players WHERE replay_id=?`, replayID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM banks WHERE replay_id=?`, replayID); err != nil {
		return err
	}

	for _, p := range players {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO players(replay_id, slot, handle, name, clan, control, color) VALUES(?,?,?,?,?,?,?)`,
			replayID, p.Slot, p.Handle, p.Name, p.Clan, p.Control.String(), p.Color.Hex()); err != nil {
			return err
		}
	}
	for _, m := range banks {
		signed := 0
		if m.Signed {
			signed = 1
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO banks(replay_id, slot, name, net_size, content_size, sections, keys, signed, signature)
			 VALUES(?,?,?,?,?,?,?,?,?)`,
			replayID, m.Slot, m.Bank, m.NetSize, m.ContentSize, m.SectionCount, m.KeyCount, signed, m.Signature); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Banks returns the stored bank metadata for a replay, ordered by slot then
// bank name.
func (c *Catalog) Banks(ctx context.Context, replayID string) ([]bank.Metadata, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT slot, name, net_size, content_size, sections, keys, signed, signature
		 FROM banks WHERE replay_id=? ORDER BY slot, name`, replayID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []bank.Metadata
	for rows.Next() {
		var m bank.Metadata
		var signed int
		if err := rows.Scan(&m.Slot, &m.Bank, &m.NetSize, &m.ContentSize, &m.SectionCount, &m.KeyCount, &signed, &m.Signature); err != nil {
			return nil, err
		}
		m.Signed = signed != 0
		out = append(out, m)
	}
	return out, rows.Err()
}

func (c *Catalog) Close() error { return c.db.Close() }
