package introspect

import "slices"

// Kind is the canonical classification of a column type.
type Kind string

const (
	KindText           Kind = "TEXT"
	KindNumeric        Kind = "NUMERIC"
	KindBoolean        Kind = "BOOLEAN"
	KindDate           Kind = "DATE"
	KindTime           Kind = "TIME"
	KindDateTime       Kind = "DATETIME"
	KindDateTimeWithTZ Kind = "DATETIME_WITH_TZ"
	KindUUID           Kind = "UUID"
	KindJSON           Kind = "JSON"
	KindUnknown        Kind = "UNKNOWN"
)

// Type is a classified column type; Raw keeps the catalog's own spelling.
type Type struct {
	Kind Kind   `json:"kind" yaml:"kind"`
	Raw  string `json:"raw" yaml:"raw"`
}

// Column represents a table column.
type Column struct {
	Name     string `json:"name" yaml:"name"`
	Type     Type   `json:"type" yaml:"type"`
	Nullable bool   `json:"nullable" yaml:"nullable"`
	Unique   bool   `json:"unique" yaml:"unique"`     // sole column of a unique constraint
	Position int    `json:"position" yaml:"position"` // catalog ordinal position, 1-based
}

// ConstraintKind discriminates Constraint.
type ConstraintKind string

const (
	ConstraintUnique     ConstraintKind = "UNIQUE"
	ConstraintForeignKey ConstraintKind = "FOREIGN KEY"
)

// Unique is a unique constraint. Columns are in constraint ordinal order.
type Unique struct {
	Name    string   `json:"name" yaml:"name"`
	Columns []string `json:"columns" yaml:"columns"`
}

// ForeignKey is a foreign key constraint. Columns[i] references TargetColumns[i].
type ForeignKey struct {
	Name          string   `json:"name" yaml:"name"`
	Columns       []string `json:"columns" yaml:"columns"`
	TargetSchema  string   `json:"target_schema" yaml:"target_schema"`
	TargetTable   string   `json:"target_table" yaml:"target_table"`
	TargetColumns []string `json:"target_columns" yaml:"target_columns"`
}

// Extend returns a copy of fk with one more source/target column pair. fk itself is not modified.
func (fk ForeignKey) Extend(source, target string) ForeignKey {
	return ForeignKey{
		Name:          fk.Name,
		Columns:       append(slices.Clip(fk.Columns), source),
		TargetSchema:  fk.TargetSchema,
		TargetTable:   fk.TargetTable,
		TargetColumns: append(slices.Clip(fk.TargetColumns), target),
	}
}

// Constraint holds exactly one of Unique or ForeignKey, as named by Kind. Build it with
// UniqueConstraint or ForeignKeyConstraint; a Kind without its variant is ignored by the accessors.
type Constraint struct {
	Kind       ConstraintKind `json:"kind" yaml:"kind"`
	Unique     *Unique        `json:"unique,omitempty" yaml:"unique,omitempty"`
	ForeignKey *ForeignKey    `json:"foreign_key,omitempty" yaml:"foreign_key,omitempty"`
}

func UniqueConstraint(u Unique) Constraint {
	return Constraint{Kind: ConstraintUnique, Unique: &u}
}

func ForeignKeyConstraint(fk ForeignKey) Constraint {
	return Constraint{Kind: ConstraintForeignKey, ForeignKey: &fk}
}

// Name returns the constraint name of whichever variant is set.
func (c Constraint) Name() string {
	switch {
	case c.Kind == ConstraintUnique && c.Unique != nil:
		return c.Unique.Name
	case c.Kind == ConstraintForeignKey && c.ForeignKey != nil:
		return c.ForeignKey.Name
	}
	return ""
}

// Table represents a database table or view.
type Table struct {
	Name        string       `json:"name" yaml:"name"`
	Schema      string       `json:"schema" yaml:"schema"`
	Columns     []Column     `json:"columns" yaml:"columns"`
	Constraints []Constraint `json:"constraints" yaml:"constraints"`
	IsView      bool         `json:"is_view" yaml:"is_view"`
}

// Uniques returns the table's unique constraints in declaration order.
func (t Table) Uniques() []Unique {
	var out []Unique
	for _, c := range t.Constraints {
		if c.Kind == ConstraintUnique && c.Unique != nil {
			out = append(out, *c.Unique)
		}
	}
	return out
}

// ForeignKeys returns the table's foreign keys in declaration order.
func (t Table) ForeignKeys() []ForeignKey {
	var out []ForeignKey
	for _, c := range t.Constraints {
		if c.Kind == ConstraintForeignKey && c.ForeignKey != nil {
			out = append(out, *c.ForeignKey)
		}
	}
	return out
}
