package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/oumg-gold/oumg-console/internal/session"
)

type DB struct {
	sql *sql.DB
}

func Open(dbPath string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)", dbPath)
	sqldb, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// SQLite best practice for embedded use
	sqldb.SetMaxOpenConns(1)
	sqldb.SetConnMaxLifetime(0)

	db := &DB{sql: sqldb}
	if err := db.migrate(context.Background()); err != nil {
		_ = sqldb.Close()
		return nil, err
	}
	return db, nil
}

func (d *DB) Close() error {
	return d.sql.Close()
}

func (d *DB) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT NOT NULL);`,
		`CREATE TABLE IF NOT EXISTS operators (
			user_id INTEGER PRIMARY KEY,
			is_super INTEGER NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS operator_sessions (
			user_id INTEGER PRIMARY KEY REFERENCES operators(user_id) ON DELETE CASCADE,
			wallet TEXT NOT NULL,
			verified INTEGER NOT NULL DEFAULT 0,
			issued_at INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS global_settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS price_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			fetched_at INTEGER NOT NULL,
			source TEXT NOT NULL DEFAULT '',
			effective_at TEXT NOT NULL DEFAULT '',
			base REAL,
			buy REAL,
			sell REAL,
			user_buy REAL,
			user_sell REAL,
			spread_myr REAL,
			spread_bps INTEGER,
			note TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE INDEX IF NOT EXISTS idx_price_history_fetched ON price_history(fetched_at);`,
	}
	for _, s := range stmts {
		if _, err := d.sql.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

// SeedOperators copies the config-listed operator ids into the DB on first
// boot; they become supers. Later boots leave DB state alone.
func (d *DB) SeedOperators(ctx context.Context, ids []int64) error {
	var seeded string
	err := d.sql.QueryRowContext(ctx, `SELECT value FROM meta WHERE key='operators_seeded'`).Scan(&seeded)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	if seeded == "1" {
		return nil
	}
	now := time.Now().Unix()
	for _, id := range ids {
		if _, err := d.sql.ExecContext(ctx,
			`INSERT OR IGNORE INTO operators(user_id,is_super,created_at) VALUES(?,1,?)`, id, now); err != nil {
			return err
		}
	}
	_, err = d.sql.ExecContext(ctx, `INSERT OR REPLACE INTO meta(key,value) VALUES('operators_seeded','1')`)
	return err
}

// ---- Operators ----

type Operator struct {
	UserID    int64
	IsSuper   bool
	CreatedAt time.Time
}

func (d *DB) IsOperator(ctx context.Context, userID int64) (ok bool, super bool, err error) {
	var isSuper int
	err = d.sql.QueryRowContext(ctx, `SELECT is_super FROM operators WHERE user_id=?`, userID).Scan(&isSuper)
	if errors.Is(err, sql.ErrNoRows) {
		return false, false, nil
	}
	if err != nil {
		return false, false, err
	}
	return true, isSuper == 1, nil
}

func (d *DB) AddOperator(ctx context.Context, userID int64, super bool) error {
	s := 0
	if super {
		s = 1
	}
	_, err := d.sql.ExecContext(ctx,
		`INSERT INTO operators(user_id,is_super,created_at) VALUES(?,?,?)
		 ON CONFLICT(user_id) DO UPDATE SET is_super=excluded.is_super`,
		userID, s, time.Now().Unix())
	return err
}

func (d *DB) RemoveOperator(ctx context.Context, userID int64) error {
	_, err := d.sql.ExecContext(ctx, `DELETE FROM operators WHERE user_id=?`, userID)
	return err
}

func (d *DB) ListOperators(ctx context.Context) ([]Operator, error) {
	rows, err := d.sql.QueryContext(ctx, `SELECT user_id,is_super,created_at FROM operators ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Operator
	for rows.Next() {
		var o Operator
		var super int
		var created int64
		if err := rows.Scan(&o.UserID, &super, &created); err != nil {
			return nil, err
		}
		o.IsSuper = super == 1
		o.CreatedAt = time.Unix(created, 0)
		out = append(out, o)
	}
	return out, rows.Err()
}

// ---- Sessions ----

// SaveSession persists an operator's verified wallet sign-in.
func (d *DB) SaveSession(ctx context.Context, userID int64, s session.Session) error {
	v := 0
	if s.Verified {
		v = 1
	}
	_, err := d.sql.ExecContext(ctx,
		`INSERT OR REPLACE INTO operator_sessions(user_id,wallet,verified,issued_at) VALUES(?,?,?,?)`,
		userID, s.Wallet, v, s.IssuedAt.Unix())
	return err
}

func (d *DB) GetSession(ctx context.Context, userID int64) (session.Session, bool, error) {
	var s session.Session
	var verified int
	var issued int64
	err := d.sql.QueryRowContext(ctx,
		`SELECT wallet,verified,issued_at FROM operator_sessions WHERE user_id=?`, userID).
		Scan(&s.Wallet, &verified, &issued)
	if errors.Is(err, sql.ErrNoRows) {
		return session.Session{}, false, nil
	}
	if err != nil {
		return session.Session{}, false, err
	}
	s.Verified = verified == 1
	s.IssuedAt = time.Unix(issued, 0)
	return s, true, nil
}

func (d *DB) ClearSession(ctx context.Context, userID int64) error {
	_, err := d.sql.ExecContext(ctx, `DELETE FROM operator_sessions WHERE user_id=?`, userID)
	return err
}

// ---- Global settings ----

func (d *DB) GetGlobalSetting(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := d.sql.QueryRowContext(ctx, `SELECT value FROM global_settings WHERE key=?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (d *DB) SetGlobalSetting(ctx context.Context, key, value string) error {
	_, err := d.sql.ExecContext(ctx, `INSERT OR REPLACE INTO global_settings(key,value) VALUES(?,?)`, key, value)
	return err
}

// BackupTo writes a consistent snapshot of the database to dstPath using
// VACUUM INTO, which is safe under WAL.
func (d *DB) BackupTo(ctx context.Context, dstPath string) error {
	escaped := strings.ReplaceAll(dstPath, "'", "''")
	_, err := d.sql.ExecContext(ctx, fmt.Sprintf("VACUUM INTO '%s';", escaped))
	return err
}
