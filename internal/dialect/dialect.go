// Package dialect is the registry of database dialects the introspector knows about and what each one
// exposes. Introspection relies on the standard information_schema views, so a dialect without them is
// refused before any connection is used.
package dialect

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
)

// ID is the canonical identifier of a dialect, e.g. "postgres".
type ID string

const (
	PostgreSQL ID = "postgres"
	PGX        ID = "pgx"
	MySQL      ID = "mysql"
	SQLServer  ID = "sqlserver"
	Oracle     ID = "oracle"
	SQLite     ID = "sqlite"
)

// Placeholder is the positional parameter marker style a driver accepts.
type Placeholder string

const (
	Question Placeholder = "?"  // ?, ?, ...
	Dollar   Placeholder = "$"  // $1, $2, ...
	AtP      Placeholder = "@p" // @p1, @p2, ...
)

// ErrNotSupported is returned when a dialect cannot be introspected.
var ErrNotSupported = errors.New("dialect not supported")

// Capability describes one dialect.
type Capability struct {
	// ID is the canonical key, also used as the database/sql driver name.
	ID ID `json:"id"`

	// Name is the human-friendly product name.
	Name string `json:"name"`

	// InformationSchema reports whether the catalog exposes the standard information_schema views.
	InformationSchema bool `json:"informationSchema"`

	// Placeholder is the positional marker style of the driver.
	Placeholder Placeholder `json:"placeholder,omitempty"`

	// Aliases are other names (driver names, config labels) that resolve to this dialect.
	Aliases []string `json:"aliases,omitempty"`
}

var (
	mu  sync.RWMutex
	all = map[ID]Capability{
		PostgreSQL: {
			ID:                PostgreSQL,
			Name:              "PostgreSQL",
			InformationSchema: true,
			Placeholder:       Dollar,
			Aliases:           []string{"postgresql", "pg"},
		},
		PGX: {
			ID:                PGX,
			Name:              "PostgreSQL (pgx)",
			InformationSchema: true,
			Placeholder:       Dollar,
		},
		MySQL: {
			ID:                MySQL,
			Name:              "MySQL",
			InformationSchema: true,
			Placeholder:       Question,
			Aliases:           []string{"mariadb"},
		},
		SQLServer: {
			ID:                SQLServer,
			Name:              "Microsoft SQL Server",
			InformationSchema: true,
			Placeholder:       AtP,
			Aliases:           []string{"mssql"},
		},
		Oracle: {
			ID:          Oracle,
			Name:        "Oracle Database",
			Placeholder: Question,
			Aliases:     []string{"godror"},
		},
		SQLite: {
			ID:          SQLite,
			Name:        "SQLite",
			Placeholder: Question,
			Aliases:     []string{"sqlite3"},
		},
	}
)

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Register adds or replaces a dialect capability. The ID and aliases are stored lower-cased.
func Register(c Capability) {
	c.ID = ID(normalize(string(c.ID)))
	aliases := make([]string, len(c.Aliases))
	for i, a := range c.Aliases {
		aliases[i] = normalize(a)
	}
	c.Aliases = aliases
	mu.Lock()
	defer mu.Unlock()
	all[c.ID] = c
}

// Get returns the capability for id and whether it exists. Lookup ignores case.
func Get(id ID) (Capability, bool) {
	mu.RLock()
	defer mu.RUnlock()
	c, ok := all[ID(normalize(string(id)))]
	return c, ok
}

// ParseID resolves a free-form name or alias to a canonical ID.
func ParseID(name string) (ID, bool) {
	n := normalize(name)
	mu.RLock()
	defer mu.RUnlock()
	if _, ok := all[ID(n)]; ok {
		return ID(n), true
	}
	for id, c := range all {
		if slices.Contains(c.Aliases, n) {
			return id, true
		}
	}
	return "", false
}

// SupportsIntrospection reports whether id exposes the standard metadata views.
func SupportsIntrospection(id ID) bool {
	c, ok := Get(id)
	return ok && c.InformationSchema
}

// Check returns an error wrapping ErrNotSupported unless id can be introspected.
func Check(id ID) error {
	c, ok := Get(id)
	if !ok {
		return fmt.Errorf("%w: unknown dialect %q (available: %v)", ErrNotSupported, id, IDs())
	}
	if !c.InformationSchema {
		return fmt.Errorf("%w: %s does not expose information_schema", ErrNotSupported, c.Name)
	}
	return nil
}

// IDs returns the registered dialect IDs, sorted.
func IDs() []ID {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]ID, 0, len(all))
	for id := range all {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}
