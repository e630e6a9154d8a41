package db

import (
	"context"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/fbz-tec/dbport/core/config"
)

const (
	DefaultSQLiteFile       = ":memory:"
	sqliteBusyTimeoutMillis = 5000
)

// SQLite is a Backend over one modernc.org/sqlite connection. The default
// file is ":memory:", whose data lives only as long as the connection.
type SQLite struct {
	sqlBackend
	path string
}

func NewSQLite(cfg config.Config) *SQLite {
	cfg = cfg.WithDefaults("", 0, "", DefaultSQLiteFile)
	return &SQLite{
		path: cfg.FilePath,
		sqlBackend: sqlBackend{
			dialect: sqlDialect{
				typ:    TypeSQLite,
				driver: "sqlite",
				syntax: ansiSyntax,
				rebind: func(query string, args []any) (string, []any) {
					return rebindNumbered(query), args
				},
				normalize: plainValue,
				setup: []string{
					"PRAGMA foreign_keys = ON",
					fmt.Sprintf("PRAGMA busy_timeout = %d", sqliteBusyTimeoutMillis),
				},
			},
			dsn:         cfg.FilePath,
			safeDSN:     "sqlite://" + cfg.FilePath,
			description: "SQLite database at " + cfg.FilePath,
		},
	}
}

// Path is the database file, or ":memory:".
func (s *SQLite) Path() string { return s.path }

func (s *SQLite) TableExists(ctx context.Context, table string) (bool, error) {
	names, err := s.names(ctx,
		"SELECT name FROM sqlite_master WHERE type IN ('table', 'view') AND name = $1", table)
	if err != nil {
		return false, err
	}
	return len(names) > 0, nil
}

func (s *SQLite) TableColumns(ctx context.Context, table string) ([]string, error) {
	return s.names(ctx, "SELECT name FROM pragma_table_info($1) ORDER BY cid", table)
}
