// Package render turns introspected tables into a Graphviz dot description: one node per table with a
// port per column, and one edge per foreign key.
//
// A composite foreign key is drawn from its first column pair only; one anchor is enough to show the
// relationship. When the tables come from more than one schema, node IDs and labels are qualified as
// schema.table so same-named tables stay separate nodes.
package render

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"

	"erdgraph/internal/introspect"
)

const dotTemplate = `digraph {
    graph [pad="0.5", nodesep="0.5", ranksep="2"];
    node [shape=plain]
    rankdir=LR;

{{range .Nodes}}{{id .ID}} [label=<<table border="0" cellborder="1" cellspacing="0">
<tr><td><i>{{html .ID}}</i></td></tr>
{{range .Columns}}<tr><td port="{{html .Name}}">{{if .Nullable}}{{html .Name}}{{else}}<b>{{html .Name}}</b>{{end}}</td></tr>
{{end}}</table>>];
{{end}}{{range .Edges}}{{id .From}}:{{id .FromPort}} -> {{id .To}}:{{id .ToPort}} [label={{id .Label}}];
{{end}}}
`

var dot = template.Must(template.New("dot").Funcs(template.FuncMap{"id": quoteID}).Parse(dotTemplate))

type node struct {
	ID      string
	Columns []introspect.Column
}

type edge struct {
	From, FromPort string
	To, ToPort     string
	Label          string
}

type graph struct {
	Nodes []node
	Edges []edge
}

// quoteID renders s as a double-quoted dot identifier.
func quoteID(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}

func newGraph(tables []introspect.Table) graph {
	qualify := false
	for _, t := range tables {
		if t.Schema != tables[0].Schema {
			qualify = true
			break
		}
	}
	nodeID := func(schema, name string) string {
		if qualify {
			return schema + "." + name
		}
		return name
	}

	g := graph{Nodes: make([]node, 0, len(tables))}
	for _, t := range tables {
		g.Nodes = append(g.Nodes, node{ID: nodeID(t.Schema, t.Name), Columns: t.Columns})
	}
	for _, t := range tables {
		for _, fk := range t.ForeignKeys() {
			if len(fk.Columns) == 0 || len(fk.TargetColumns) == 0 {
				continue
			}
			targetSchema := fk.TargetSchema
			if targetSchema == "" {
				targetSchema = t.Schema
			}
			g.Edges = append(g.Edges, edge{
				From:     nodeID(t.Schema, t.Name),
				FromPort: fk.Columns[0],
				To:       nodeID(targetSchema, fk.TargetTable),
				ToPort:   fk.TargetColumns[0],
				Label:    fk.Name,
			})
		}
	}
	return g
}

// Dot writes the graph for tables to w. Tables and columns keep the order they are given in.
func Dot(w io.Writer, tables []introspect.Table) error {
	return dot.Execute(w, newGraph(tables))
}

// WriteDotFile writes the graph for tables to path, replacing any existing file.
func WriteDotFile(path string, tables []introspect.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Dot(f, tables); err != nil {
		f.Close()
		return fmt.Errorf("render %s: %w", path, err)
	}
	return f.Close()
}
