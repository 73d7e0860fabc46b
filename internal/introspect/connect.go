package introspect

import (
	"context"
	"time"

	"erdgraph/internal/db"
)

// ConnectAndExtract connects to the database, introspects every table in schemas matching the LIKE
// pattern schema, and closes the connection.
func ConnectAndExtract(ctx context.Context, driver, dsn string, timeout time.Duration, schema string) ([]Table, error) {
	conn, id, err := db.Open(ctx, driver, dsn, timeout)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	i, err := New(id, conn)
	if err != nil {
		return nil, err
	}
	return i.Tables(ctx, schema)
}
