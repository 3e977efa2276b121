package db

import (
	"context"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite" // driver: sqlite
)

type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// Open opens the dashboard store and ensures the raw platform tables exist.
func Open(ctx context.Context, driver Driver, dsn string) (*sqlx.DB, error) {
	var drvName string
	switch normalize(driver) {
	case DriverSQLite:
		drvName = "sqlite" // modernc driver
		if dsn == "" {
			dsn = "file:dashboard.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)"
		}
	case DriverPostgres:
		drvName = "pgx" // pgx stdlib driver
		if dsn == "" {
			dsn = "postgres://localhost:5432/dashboard?sslmode=disable"
		}
	default:
		return nil, errors.Errorf("unsupported driver: %s", driver)
	}

	dbh, err := sqlx.Open(drvName, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open store")
	}
	tune(dbh, normalize(driver))
	if err := dbh.PingContext(ctx); err != nil {
		_ = dbh.Close()
		return nil, errors.Wrap(err, "ping store")
	}
	if err := ensureSchema(ctx, dbh, normalize(driver)); err != nil {
		_ = dbh.Close()
		return nil, err
	}
	return dbh, nil
}

func normalize(d Driver) Driver {
	switch strings.ToLower(strings.TrimSpace(string(d))) {
	case "sqlite", "sqlite3":
		return DriverSQLite
	case "postgres", "postgresql", "pgx", "pgsql":
		return DriverPostgres
	}
	return d
}

func tune(dbh *sqlx.DB, driver Driver) {
	if driver == DriverSQLite {
		// reads are sequential; one connection also keeps :memory: databases alive
		dbh.SetMaxOpenConns(1)
		dbh.SetMaxIdleConns(1)
	} else {
		dbh.SetMaxOpenConns(10)
		dbh.SetMaxIdleConns(10)
	}
	dbh.SetConnMaxLifetime(30 * time.Minute)
}

func ensureSchema(ctx context.Context, dbh *sqlx.DB, driver Driver) error {
	schema := schemaSQLite
	if driver == DriverPostgres {
		schema = schemaPostgres
	}
	if _, err := dbh.ExecContext(ctx, schema); err != nil {
		// some drivers reject multi-statement scripts
		for _, stmt := range splitSQL(schema) {
			if _, e := dbh.ExecContext(ctx, stmt); e != nil {
				return errors.Wrapf(e, "schema failed at: %s", firstLine(stmt))
			}
		}
	}
	return nil
}

func splitSQL(s string) []string {
	parts := strings.Split(s, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p+";")
		}
	}
	return out
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
