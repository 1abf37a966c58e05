// Package sqlite provides SQLite-backed persistence for house membership
// and point balances.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	sqlitemigrate "github.com/lumenad-public/HogwartsForSlack/internal/platform/storage/sqlitemigrate"
	"github.com/lumenad-public/HogwartsForSlack/internal/points/storage"
	"github.com/lumenad-public/HogwartsForSlack/internal/points/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store provides SQLite-backed persistence for member state.
type Store struct {
	sqlDB *sql.DB
}

// Open opens a points SQLite store at the provided path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store := &Store{sqlDB: sqlDB}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return store, nil
}

// Close closes the underlying SQLite database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

const memberColumns = "name, house, points, can_has, fullname, nickname, title"

func scanMember(scan func(dest ...any) error) (storage.MemberRecord, error) {
	var record storage.MemberRecord
	var canHas int
	if err := scan(&record.Name, &record.House, &record.Points, &canHas, &record.FullName, &record.Nickname, &record.Title); err != nil {
		return storage.MemberRecord{}, err
	}
	record.CanHas = canHas != 0
	return record, nil
}

// GetMember loads one member by normalized name.
func (s *Store) GetMember(ctx context.Context, name string) (storage.MemberRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.MemberRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.MemberRecord{}, fmt.Errorf("storage is not configured")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return storage.MemberRecord{}, fmt.Errorf("member name is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT `+memberColumns+`
FROM members
WHERE name = ?
`, name)
	record, err := scanMember(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.MemberRecord{}, storage.ErrNotFound
		}
		return storage.MemberRecord{}, fmt.Errorf("get member: %w", err)
	}
	return record, nil
}

// ScanHouse lists every member of one house in insertion order.
func (s *Store) ScanHouse(ctx context.Context, house string) ([]storage.MemberRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	house = strings.TrimSpace(house)
	if house == "" {
		return nil, fmt.Errorf("house is required")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT `+memberColumns+`
FROM members
WHERE house = ?
ORDER BY rowid
`, house)
	if err != nil {
		return nil, fmt.Errorf("scan house: %w", err)
	}
	defer rows.Close()
	return collectMembers(rows)
}

// ListMembers lists every member in insertion order.
func (s *Store) ListMembers(ctx context.Context) ([]storage.MemberRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT `+memberColumns+`
FROM members
ORDER BY rowid
`)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()
	return collectMembers(rows)
}

func collectMembers(rows *sql.Rows) ([]storage.MemberRecord, error) {
	var records []storage.MemberRecord
	for rows.Next() {
		record, err := scanMember(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan member row: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate member rows: %w", err)
	}
	return records, nil
}

// IncrementPoints atomically adds delta to a member's balance.
//
// The addition runs as a single server-side UPDATE so concurrent commands
// targeting the same member cannot lose updates.
func (s *Store) IncrementPoints(ctx context.Context, name string, delta int64) (storage.MemberRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.MemberRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.MemberRecord{}, fmt.Errorf("storage is not configured")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return storage.MemberRecord{}, fmt.Errorf("member name is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
UPDATE members
SET points = points + ?
WHERE name = ?
RETURNING `+memberColumns+`
`, delta, name)
	record, err := scanMember(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.MemberRecord{}, storage.ErrNotFound
		}
		return storage.MemberRecord{}, fmt.Errorf("increment points: %w", err)
	}
	return record, nil
}

// ZeroNegativePoints floors a member's balance at zero.
//
// The guard lives in the UPDATE itself, so a concurrent positive increment
// that lands between a caller's increment and this correction is never
// clobbered: the write only happens while the balance is still negative.
func (s *Store) ZeroNegativePoints(ctx context.Context, name string) (storage.MemberRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.MemberRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.MemberRecord{}, fmt.Errorf("storage is not configured")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return storage.MemberRecord{}, fmt.Errorf("member name is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
UPDATE members
SET points = 0
WHERE name = ? AND points < 0
RETURNING `+memberColumns+`
`, name)
	record, err := scanMember(row.Scan)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return storage.MemberRecord{}, fmt.Errorf("zero negative points: %w", err)
	}

	// No row updated: either the member is missing or the balance was
	// already non-negative.
	if _, getErr := s.GetMember(ctx, name); getErr != nil {
		return storage.MemberRecord{}, getErr
	}
	return storage.MemberRecord{}, storage.ErrConditionNotMet
}

// PutMember inserts or replaces one member record.
func (s *Store) PutMember(ctx context.Context, record storage.MemberRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	record.Name = strings.TrimSpace(record.Name)
	if record.Name == "" {
		return fmt.Errorf("member name is required")
	}
	if strings.TrimSpace(record.House) == "" {
		return fmt.Errorf("member house is required")
	}

	canHas := 0
	if record.CanHas {
		canHas = 1
	}
	if _, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO members (name, house, points, can_has, fullname, nickname, title)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(name) DO UPDATE SET
    house = excluded.house,
    points = excluded.points,
    can_has = excluded.can_has,
    fullname = excluded.fullname,
    nickname = excluded.nickname,
    title = excluded.title
`, record.Name, record.House, record.Points, canHas, record.FullName, record.Nickname, record.Title); err != nil {
		return fmt.Errorf("put member: %w", err)
	}
	return nil
}
