package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Compile-time interface checks.
var _ PreferencesStore = (*SQLitePreferences)(nil)
var _ PreferencesStore = (*MemoryPreferences)(nil)

const (
	prefGroupBy = "heatmapGroupBy"
	prefSizeBy  = "heatmapSizeBy"
	prefView    = "view"
)

// SQLitePreferences stores Preferences as key/value rows in a SQLite
// database.
type SQLitePreferences struct {
	db *sql.DB
}

// NewSQLitePreferences opens (or creates) the database at dbPath and
// ensures the preferences table exists.
func NewSQLitePreferences(dbPath string) (*SQLitePreferences, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	const schema = `CREATE TABLE IF NOT EXISTS preferences (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating preferences table: %w", err)
	}
	return &SQLitePreferences{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLitePreferences) Close() error {
	return s.db.Close()
}

// LoadPreferences returns the saved preferences, with defaults for keys
// never saved.
func (s *SQLitePreferences) LoadPreferences(ctx context.Context) (Preferences, error) {
	p := DefaultPreferences()
	fields := map[string]*string{
		prefGroupBy: &p.GroupBy,
		prefSizeBy:  &p.SizeBy,
		prefView:    &p.View,
	}
	for key, dst := range fields {
		var v string
		err := s.db.QueryRowContext(ctx, `SELECT value FROM preferences WHERE key = ?`, key).Scan(&v)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return Preferences{}, fmt.Errorf("loading preference %s: %w", key, err)
		}
		if v != "" {
			*dst = v
		}
	}
	return p, nil
}

// SavePreferences writes all fields of p in one transaction.
func (s *SQLitePreferences) SavePreferences(ctx context.Context, p Preferences) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for key, v := range map[string]string{prefGroupBy: p.GroupBy, prefSizeBy: p.SizeBy, prefView: p.View} {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO preferences (key, value) VALUES (?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, v); err != nil {
			return fmt.Errorf("saving preference %s: %w", key, err)
		}
	}
	return tx.Commit()
}

// MemoryPreferences keeps Preferences in memory.
type MemoryPreferences struct {
	mu sync.Mutex
	p  Preferences
}

// NewMemoryPreferences starts from DefaultPreferences.
func NewMemoryPreferences() *MemoryPreferences {
	return &MemoryPreferences{p: DefaultPreferences()}
}

func (m *MemoryPreferences) LoadPreferences(context.Context) (Preferences, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.p, nil
}

func (m *MemoryPreferences) SavePreferences(_ context.Context, p Preferences) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.p = p
	return nil
}
