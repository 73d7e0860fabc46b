package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/denisenkom/go-mssqldb"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"

	"erdgraph/internal/dialect"
	"erdgraph/pkg/config"
)

// Open connects to the database and checks it is reachable. Dialects without information_schema
// are refused before any driver is touched.
func Open(ctx context.Context, driver, dsn string, timeout time.Duration) (*sql.DB, dialect.ID, error) {
	id, ok := dialect.ParseID(config.NormalizeDriver(driver))
	if !ok {
		return nil, "", fmt.Errorf("%w: %q (available: %v)", dialect.ErrNotSupported, driver, dialect.IDs())
	}
	if err := dialect.Check(id); err != nil {
		return nil, "", err
	}

	dbConn, err := sql.Open(string(id), dsn)
	if err != nil {
		return nil, "", err
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := dbConn.PingContext(ctx); err != nil {
		dbConn.Close()
		return nil, "", fmt.Errorf("ping %s: %w", id, err)
	}
	return dbConn, id, nil
}
