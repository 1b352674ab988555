package db

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Dialect selects the SQL flavour spoken by the underlying driver.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// DB wraps *sql.DB with the dialect it was opened with.
type DB struct {
	*sql.DB
	Dialect Dialect
}

// Open connects, pings and migrates the identity schema.
func Open(ctx context.Context, driver, dsn string) (*DB, error) {
	dialect := Dialect(driver)
	switch dialect {
	case Postgres, SQLite:
	default:
		return nil, fmt.Errorf("db: unsupported driver %q", driver)
	}

	sqlDB, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("db: open: %w", err)
	}
	if dialect == SQLite {
		// sqlite serializes writers; a single connection avoids SQLITE_BUSY.
		sqlDB.SetMaxOpenConns(1)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("db: ping: %w", err)
	}

	d := &DB{DB: sqlDB, Dialect: dialect}
	if err := d.Migrate(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return d, nil
}

// Rebind rewrites '?' placeholders into the dialect's positional form.
func (d *DB) Rebind(query string) string {
	if d.Dialect != Postgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
