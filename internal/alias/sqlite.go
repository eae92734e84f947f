package alias

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteStore reads and writes aliases in a SQLite file, typically an export of a
// legacy alias table.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the alias database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open alias db: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate alias db: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS path_alias (
			id       INTEGER PRIMARY KEY AUTOINCREMENT,
			path     TEXT NOT NULL,
			alias    TEXT NOT NULL,
			langcode TEXT NOT NULL DEFAULT 'und'
		)`,
		`CREATE INDEX IF NOT EXISTS path_alias_alias ON path_alias(alias)`,
		`CREATE INDEX IF NOT EXISTS path_alias_path ON path_alias(path)`,
	}
	for i, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// lookup returns the newest matching row's column, so later aliases shadow older ones.
func (s *SQLiteStore) lookup(ctx context.Context, column, where, value string) (string, error) {
	var out string
	query := fmt.Sprintf(`SELECT %s FROM path_alias WHERE %s = ? ORDER BY id DESC LIMIT 1`, column, where)
	err := s.db.QueryRowContext(ctx, query, value).Scan(&out)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, value)
	}
	if err != nil {
		return "", fmt.Errorf("lookup %s by %s: %w", column, where, err)
	}
	return out, nil
}

func (s *SQLiteStore) PathByAlias(ctx context.Context, alias string) (string, error) {
	return s.lookup(ctx, "path", "alias", alias)
}

func (s *SQLiteStore) AliasByPath(ctx context.Context, path string) (string, error) {
	return s.lookup(ctx, "alias", "path", path)
}

func (s *SQLiteStore) Create(ctx context.Context, a Alias) error {
	if a.Langcode == "" {
		a.Langcode = DefaultLangcode
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO path_alias (path, alias, langcode) VALUES (?, ?, ?)`,
		a.Path, a.Alias, a.Langcode,
	)
	if err != nil {
		return fmt.Errorf("insert alias %s: %w", a.Alias, err)
	}
	return nil
}

func (s *SQLiteStore) Exists(ctx context.Context, alias string) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM path_alias WHERE alias = ?`, alias).Scan(&n); err != nil {
		return false, fmt.Errorf("count alias %s: %w", alias, err)
	}
	return n > 0, nil
}

func (s *SQLiteStore) DeleteByPath(ctx context.Context, path string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM path_alias WHERE path = ?`, path); err != nil {
		return fmt.Errorf("delete aliases of %s: %w", path, err)
	}
	return nil
}
