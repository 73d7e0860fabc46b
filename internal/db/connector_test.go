package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"erdgraph/internal/dialect"
)

func TestOpen(t *testing.T) {
	var tests = []struct {
		name         string
		driver       string
		notSupported bool
	}{
		{"unknown dialect", "testdialect", true},
		{"oracle has no information_schema", "oracle", true},
		{"sqlite has no information_schema", "sqlite3", true},
		{"postgres is attempted", "postgres", false},
	}

	for _, tt := range tests {
		// Use t.Run to run each case as a subtest with a descriptive name
		t.Run(tt.name, func(t *testing.T) {
			// nothing listens on port 1, so a supported dialect fails at ping instead
			conn, _, err := Open(context.Background(), tt.driver, "postgres://u:p@127.0.0.1:1/db?sslmode=disable", time.Second)
			if err == nil {
				conn.Close()
				t.Fatalf("\nexpected an error, did not receive one")
			}
			if errors.Is(err, dialect.ErrNotSupported) != tt.notSupported {
				t.Errorf("\ngot error %q, wanted not-supported = %v", err, tt.notSupported)
			}
		})
	}
}
