package introspect

import (
	"cmp"
	"slices"
)

// uniqueRow is one catalog row of a unique constraint: a single member column.
type uniqueRow struct {
	Schema   string
	Table    string
	Name     string
	Column   string
	Position int
}

// foreignKeyRow pairs one source column with the target column at the same ordinal position.
type foreignKeyRow struct {
	Schema       string
	Table        string
	Name         string
	Column       string
	Position     int
	TargetSchema string
	TargetTable  string
	TargetColumn string
}

// groupByName splits rows into per-constraint groups, keeping groups in order of first appearance
// and each group in ordinal order.
func groupByName[R any](rows []R, name func(R) string, position func(R) int) [][]R {
	index := make(map[string]int)
	var groups [][]R
	for _, r := range rows {
		i, ok := index[name(r)]
		if !ok {
			i = len(groups)
			index[name(r)] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], r)
	}
	for _, g := range groups {
		slices.SortStableFunc(g, func(a, b R) int {
			return cmp.Compare(position(a), position(b))
		})
	}
	return groups
}

func foldUniques(rows []uniqueRow) []Unique {
	groups := groupByName(rows,
		func(r uniqueRow) string { return r.Name },
		func(r uniqueRow) int { return r.Position })

	out := make([]Unique, 0, len(groups))
	for _, g := range groups {
		u := Unique{Name: g[0].Name}
		for _, r := range g {
			if !slices.Contains(u.Columns, r.Column) {
				u.Columns = append(slices.Clip(u.Columns), r.Column)
			}
		}
		out = append(out, u)
	}
	return out
}

// foldForeignKeys folds rows into foreign keys. referential_constraints carries no table name, so two
// same-named foreign keys in one schema join each other's targets; a group whose rows disagree on the
// target is returned in ambiguous instead of being assembled.
func foldForeignKeys(rows []foreignKeyRow) (fks []ForeignKey, ambiguous []string) {
	groups := groupByName(rows,
		func(r foreignKeyRow) string { return r.Name },
		func(r foreignKeyRow) int { return r.Position })

	fks = make([]ForeignKey, 0, len(groups))
	for _, g := range groups {
		if !singleTarget(g) {
			ambiguous = append(ambiguous, g[0].Name)
			continue
		}
		fk := ForeignKey{Name: g[0].Name, TargetSchema: g[0].TargetSchema, TargetTable: g[0].TargetTable}
		for _, r := range g {
			if !slices.Contains(fk.Columns, r.Column) {
				fk = fk.Extend(r.Column, r.TargetColumn)
			}
		}
		fks = append(fks, fk)
	}
	return fks, ambiguous
}

// singleTarget reports whether every row of g references the same table and each source position
// pairs with exactly one target column.
func singleTarget(g []foreignKeyRow) bool {
	targets := make(map[int]string, len(g))
	for _, r := range g {
		if r.TargetSchema != g[0].TargetSchema || r.TargetTable != g[0].TargetTable {
			return false
		}
		if col, ok := targets[r.Position]; ok && col != r.TargetColumn {
			return false
		}
		targets[r.Position] = r.TargetColumn
	}
	return true
}
