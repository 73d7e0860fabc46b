package introspect

import (
	"context"
	"errors"
	"fmt"

	"erdgraph/internal/db"
	"erdgraph/internal/dialect"
	"erdgraph/internal/logger"
)

// ErrTableNotFound is returned by Table when no table matches.
var ErrTableNotFound = errors.New("table not found")

// Introspector reads table metadata from a catalog that exposes information_schema.
// It keeps no state between calls and is safe for concurrent use when its connector is.
type Introspector struct {
	dialect dialect.ID
	engine  *db.Engine
}

type options struct {
	placeholder dialect.Placeholder
}

// Option configures an Introspector.
type Option func(*options)

// WithPlaceholder overrides the dialect's positional marker style.
func WithPlaceholder(p dialect.Placeholder) Option {
	return func(o *options) {
		o.placeholder = p
	}
}

// New returns an Introspector for d. Dialects without information_schema are refused with an error
// wrapping dialect.ErrNotSupported.
func New(d dialect.ID, conns db.Connector, opts ...Option) (*Introspector, error) {
	if err := dialect.Check(d); err != nil {
		return nil, err
	}
	if conns == nil {
		return nil, errors.New("introspect: nil connector")
	}
	c, _ := dialect.Get(d)
	o := options{placeholder: c.Placeholder}
	for _, opt := range opts {
		opt(&o)
	}
	return &Introspector{dialect: d, engine: db.NewEngine(conns, o.placeholder)}, nil
}

type tableRef struct {
	Schema string
	Name   string
	IsView bool
}

func scanTableRef(row db.Scanner) (tableRef, error) {
	var ref tableRef
	var tableType string
	if err := row.Scan(&ref.Schema, &ref.Name, &tableType); err != nil {
		return ref, err
	}
	ref.IsView = tableType != "BASE TABLE"
	return ref, nil
}

// Tables returns every table and view whose schema matches the LIKE pattern schema, ordered by
// schema and name. A failed catalog query fails the whole call.
func (i *Introspector) Tables(ctx context.Context, schema string) ([]Table, error) {
	refs, err := db.QueryMany(ctx, i.engine, tablesQuery, map[string]any{"schema": schema}, scanTableRef)
	if err != nil {
		return nil, fmt.Errorf("query tables: %w", err)
	}

	tables := make([]Table, 0, len(refs))
	for _, ref := range refs {
		t, err := i.assemble(ctx, ref)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	logger.Info("introspected %d tables in schema %q", len(tables), schema)
	return tables, nil
}

// Table returns a single table by exact schema and name.
func (i *Introspector) Table(ctx context.Context, schema, name string) (Table, error) {
	params := map[string]any{"schema": schema, "table": name}
	refs, err := db.QueryMany(ctx, i.engine, tableQuery, params, scanTableRef)
	if err != nil {
		return Table{}, fmt.Errorf("query table %s.%s: %w", schema, name, err)
	}
	for _, ref := range refs {
		if ref.Schema == schema && ref.Name == name {
			return i.assemble(ctx, ref)
		}
	}
	return Table{}, fmt.Errorf("%w: %s.%s", ErrTableNotFound, schema, name)
}

func (i *Introspector) assemble(ctx context.Context, ref tableRef) (Table, error) {
	columns, err := i.columns(ctx, ref)
	if err != nil {
		return Table{}, fmt.Errorf("query columns for %s.%s: %w", ref.Schema, ref.Name, err)
	}
	uniques, err := i.uniques(ctx, ref)
	if err != nil {
		return Table{}, fmt.Errorf("query unique constraints for %s.%s: %w", ref.Schema, ref.Name, err)
	}
	fks, err := i.foreignKeys(ctx, ref)
	if err != nil {
		return Table{}, fmt.Errorf("query foreign keys for %s.%s: %w", ref.Schema, ref.Name, err)
	}

	constraints := make([]Constraint, 0, len(uniques)+len(fks))
	for _, u := range uniques {
		if len(u.Columns) == 1 {
			for j := range columns {
				if columns[j].Name == u.Columns[0] {
					columns[j].Unique = true
				}
			}
		}
		constraints = append(constraints, UniqueConstraint(u))
	}
	for _, fk := range fks {
		constraints = append(constraints, ForeignKeyConstraint(fk))
	}

	logger.Debug("table %s.%s: %d columns, %d constraints", ref.Schema, ref.Name, len(columns), len(constraints))
	return Table{
		Name:        ref.Name,
		Schema:      ref.Schema,
		Columns:     columns,
		Constraints: constraints,
		IsView:      ref.IsView,
	}, nil
}

// owns reports whether a catalog row belongs to ref; LIKE filters may let lookalike names through.
func (ref tableRef) owns(schema, table string) bool {
	return ref.Schema == schema && ref.Name == table
}

func (ref tableRef) params() map[string]any {
	return map[string]any{"schema": ref.Schema, "table": ref.Name}
}

func (i *Introspector) columns(ctx context.Context, ref tableRef) ([]Column, error) {
	columns := []Column{}
	err := i.engine.QueryEach(ctx, columnsQuery, ref.params(), func(row db.Scanner) error {
		var schema, table, nullable string
		var col Column
		if err := row.Scan(&schema, &table, &col.Name, &col.Position, &nullable, &col.Type.Raw); err != nil {
			return err
		}
		if !ref.owns(schema, table) {
			return nil
		}
		kind, err := Classify(i.dialect, col.Type.Raw)
		if err != nil {
			return err
		}
		col.Type.Kind = kind
		col.Nullable = nullable == "YES"
		columns = append(columns, col)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return columns, nil
}

func (i *Introspector) uniques(ctx context.Context, ref tableRef) ([]Unique, error) {
	rows, err := db.QueryMany(ctx, i.engine, uniquesQuery, ref.params(), func(row db.Scanner) (uniqueRow, error) {
		var r uniqueRow
		err := row.Scan(&r.Schema, &r.Table, &r.Name, &r.Column, &r.Position)
		return r, err
	})
	if err != nil {
		return nil, err
	}
	return foldUniques(filterRows(rows, func(r uniqueRow) bool { return ref.owns(r.Schema, r.Table) })), nil
}

func (i *Introspector) foreignKeys(ctx context.Context, ref tableRef) ([]ForeignKey, error) {
	rows, err := db.QueryMany(ctx, i.engine, foreignKeysQuery, ref.params(), func(row db.Scanner) (foreignKeyRow, error) {
		var r foreignKeyRow
		err := row.Scan(&r.Schema, &r.Table, &r.Name, &r.Column, &r.Position, &r.TargetSchema, &r.TargetTable, &r.TargetColumn)
		return r, err
	})
	if err != nil {
		return nil, err
	}
	fks, ambiguous := foldForeignKeys(filterRows(rows, func(r foreignKeyRow) bool { return ref.owns(r.Schema, r.Table) }))
	for _, name := range ambiguous {
		logger.Warn("skipping foreign key %q on %s.%s: name is shared by another foreign key in the schema and its target cannot be told apart",
			name, ref.Schema, ref.Name)
	}
	return fks, nil
}

func filterRows[R any](rows []R, keep func(R) bool) []R {
	out := rows[:0]
	for _, r := range rows {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}
