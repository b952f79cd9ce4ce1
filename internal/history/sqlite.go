package history

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/xtding233/gacha-backend/internal/catalog"
	"github.com/xtding233/gacha-backend/internal/gacha"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS gacha_history (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id   TEXT    NOT NULL,
	region    TEXT    NOT NULL,
	banner    TEXT    NOT NULL,
	char_id   INTEGER NOT NULL,
	char_name TEXT    NOT NULL,
	tier      TEXT    NOT NULL,
	tag       TEXT    NOT NULL,
	pulled_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_gacha_history_user ON gacha_history (user_id, region, banner);
CREATE INDEX IF NOT EXISTS idx_gacha_history_region ON gacha_history (region);
`

// SQLiteStore persists history in a SQLite file.
type SQLiteStore struct {
	sqlDB *sql.DB
	opts  options
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// OpenSQLite opens the database at path and creates the schema.
func OpenSQLite(path string, opts ...Option) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(sqliteSchema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteStore{sqlDB: sqlDB, opts: newOptions(opts)}, nil
}

func (s *SQLiteStore) RecordDraws(ctx context.Context, userID string, region catalog.Region, bannerLabel string, results []gacha.Result) error {
	recs := newRecords(userID, region, bannerLabel, results, s.opts.now())
	if len(recs) == 0 {
		return nil
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO gacha_history (user_id, region, banner, char_id, char_name, tier, tag, pulled_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range recs {
		if _, err := stmt.ExecContext(ctx,
			r.UserID, string(r.Region), r.Banner, r.CharacterID, r.Name, r.Tier, string(r.Tag), toMillis(r.PulledAt),
		); err != nil {
			return fmt.Errorf("insert history: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit history: %w", err)
	}
	return nil
}

func (s *SQLiteStore) PurgeHistory(ctx context.Context, region catalog.Region) error {
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM gacha_history WHERE region = ?`, string(region)); err != nil {
		return fmt.Errorf("purge history: %w", err)
	}
	return nil
}

func (s *SQLiteStore) UserHistory(ctx context.Context, userID string, region catalog.Region, bannerLabel string) ([]Record, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT user_id, region, banner, char_id, char_name, tier, tag, pulled_at
		   FROM gacha_history
		  WHERE user_id = ? AND region = ? AND banner = ?
		  ORDER BY pulled_at DESC, id DESC`,
		userID, string(region), bannerLabel)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	out := make([]Record, 0)
	for rows.Next() {
		var (
			r        Record
			reg, tag string
			pulledAt int64
		)
		if err := rows.Scan(&r.UserID, &reg, &r.Banner, &r.CharacterID, &r.Name, &r.Tier, &tag, &pulledAt); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		r.Region = catalog.Region(reg)
		r.Tag = gacha.Tag(tag)
		r.PulledAt = fromMillis(pulledAt)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}
