package introspect

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	_ "modernc.org/sqlite"

	"erdgraph/internal/db"
	"erdgraph/internal/dialect"
	"erdgraph/internal/logger"
)

// setupCatalog returns a SQLite database with a hand-filled information_schema attached.
func setupCatalog(t *testing.T) *sql.DB {
	t.Helper()
	logger.Use(nil)

	conn, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	// the attached catalog lives on one connection
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { conn.Close() })

	fixture, err := os.ReadFile("testdata/catalog.sql")
	require.NoError(t, err)
	_, err = conn.Exec(string(fixture))
	require.NoError(t, err)
	return conn
}

func newTestIntrospector(t *testing.T, d dialect.ID, conn *sql.DB) *Introspector {
	t.Helper()
	i, err := New(d, conn, WithPlaceholder(dialect.Question))
	require.NoError(t, err)
	return i
}

type refusingConnector struct{ t *testing.T }

func (c refusingConnector) Conn(context.Context) (*sql.Conn, error) {
	c.t.Fatal("connection requested for an unsupported dialect")
	return nil, nil
}

func TestNewRejectsUnsupportedDialects(t *testing.T) {
	for _, d := range []dialect.ID{dialect.Oracle, dialect.SQLite, "nosuchdb"} {
		t.Run(string(d), func(t *testing.T) {
			i, err := New(d, refusingConnector{t})
			assert.ErrorIs(t, err, dialect.ErrNotSupported)
			assert.Nil(t, i)
		})
	}
}

func TestNewRequiresConnector(t *testing.T) {
	_, err := New(dialect.PostgreSQL, nil)
	assert.Error(t, err)
}

func TestTables(t *testing.T) {
	conn := setupCatalog(t)
	i := newTestIntrospector(t, dialect.PostgreSQL, conn)

	tables, err := i.Tables(context.Background(), "public")
	require.NoError(t, err)
	assert.Equal(t, 0, conn.Stats().InUse)

	var names []string
	byName := map[string]Table{}
	for _, tab := range tables {
		names = append(names, tab.Name)
		byName[tab.Name] = tab
		assert.Equal(t, "public", tab.Schema)
	}
	assert.Equal(t, []string{"accounts", "active_users", "empty_table", "orders", "user_roles", "users", "userxroles"}, names)

	wantUsers := Table{
		Name:   "users",
		Schema: "public",
		Columns: []Column{
			{Name: "id", Type: Type{KindNumeric, "integer"}, Position: 1},
			{Name: "email", Type: Type{KindText, "character varying"}, Position: 2},
			{Name: "tenant_id", Type: Type{KindUUID, "uuid"}, Position: 3},
			{Name: "nickname", Type: Type{KindText, "text"}, Nullable: true, Unique: true, Position: 4},
			{Name: "profile", Type: Type{KindJSON, "jsonb"}, Nullable: true, Position: 5},
			{Name: "balance", Type: Type{KindUnknown, "money"}, Nullable: true, Position: 6},
		},
		Constraints: []Constraint{
			UniqueConstraint(Unique{Name: "uq_email", Columns: []string{"email", "tenant_id"}}),
			UniqueConstraint(Unique{Name: "uq_nickname", Columns: []string{"nickname"}}),
		},
	}
	if diff := cmp.Diff(wantUsers, byName["users"]); diff != "" {
		t.Errorf("\nusers mismatch (-want +got):\n%s", diff)
	}

	wantFK := ForeignKey{
		Name:          "fk_orders_user",
		Columns:       []string{"user_id", "tenant_id"},
		TargetSchema:  "public",
		TargetTable:   "users",
		TargetColumns: []string{"id", "tenant_id"},
	}
	if diff := cmp.Diff([]ForeignKey{wantFK}, byName["orders"].ForeignKeys()); diff != "" {
		t.Errorf("\norders foreign keys mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, KindDateTimeWithTZ, byName["orders"].Columns[3].Type.Kind)

	// same constraint name on another table stays separate
	assert.Equal(t, []Unique{{Name: "uq_email", Columns: []string{"login"}}}, byName["accounts"].Uniques())
	assert.True(t, byName["accounts"].Columns[0].Unique)

	assert.True(t, byName["active_users"].IsView)
	assert.False(t, byName["users"].IsView)

	assert.NotNil(t, byName["empty_table"].Columns)
	assert.Empty(t, byName["empty_table"].Columns)
	assert.Empty(t, byName["empty_table"].Constraints)

	// LIKE treats _ as a wildcard; lookalike tables must not leak columns
	require.Len(t, byName["user_roles"].Columns, 1)
	assert.Equal(t, "role_name", byName["user_roles"].Columns[0].Name)
}

func TestTablesColumnOrder(t *testing.T) {
	conn := setupCatalog(t)
	i := newTestIntrospector(t, dialect.PostgreSQL, conn)

	tables, err := i.Tables(context.Background(), "%")
	require.NoError(t, err)
	assert.Len(t, tables, 13)
	assert.Equal(t, "audit", tables[0].Schema)

	for _, tab := range tables {
		for j := 1; j < len(tab.Columns); j++ {
			assert.Less(t, tab.Columns[j-1].Position, tab.Columns[j].Position, tab.Name)
		}
	}
}

func TestTablesForeignKeyNameCollision(t *testing.T) {
	conn := setupCatalog(t)
	i := newTestIntrospector(t, dialect.PostgreSQL, conn)
	core, logs := observer.New(zapcore.WarnLevel)
	logger.Use(zap.New(core))
	t.Cleanup(func() { logger.Use(nil) })

	tables, err := i.Tables(context.Background(), "crm")
	require.NoError(t, err)

	byName := map[string]Table{}
	for _, tab := range tables {
		byName[tab.Name] = tab
	}
	require.Len(t, byName, 5)

	// neither fk_owner may borrow the other's target
	assert.Empty(t, byName["deals"].ForeignKeys())
	assert.Empty(t, byName["leads"].ForeignKeys())
	assert.Len(t, byName["deals"].Columns, 2)

	want := []ForeignKey{{Name: "fk_note_deal", Columns: []string{"deal_id"}, TargetSchema: "crm", TargetTable: "deals", TargetColumns: []string{"id"}}}
	if diff := cmp.Diff(want, byName["notes"].ForeignKeys()); diff != "" {
		t.Errorf("\nnotes foreign keys mismatch (-want +got):\n%s", diff)
	}

	warnings := logs.FilterMessageSnippet("fk_owner").AllUntimed()
	require.Len(t, warnings, 2)
	assert.Contains(t, warnings[0].Message, "crm.deals")
	assert.Contains(t, warnings[1].Message, "crm.leads")
}

func TestTablesEmptySchema(t *testing.T) {
	conn := setupCatalog(t)
	i := newTestIntrospector(t, dialect.PostgreSQL, conn)

	tables, err := i.Tables(context.Background(), "nosuchschema")
	require.NoError(t, err)
	assert.NotNil(t, tables)
	assert.Empty(t, tables)
}

func TestTablesQueryFailure(t *testing.T) {
	conn := setupCatalog(t)
	_, err := conn.Exec("DROP TABLE information_schema.referential_constraints")
	require.NoError(t, err)
	i := newTestIntrospector(t, dialect.PostgreSQL, conn)

	tables, err := i.Tables(context.Background(), "public")
	assert.Nil(t, tables)
	var qe *db.QueryError
	require.ErrorAs(t, err, &qe)
	assert.Contains(t, err.Error(), "query foreign keys")
	assert.Equal(t, 0, conn.Stats().InUse)
}

func TestTablesUnsupportedClassification(t *testing.T) {
	conn := setupCatalog(t)
	i := newTestIntrospector(t, dialect.MySQL, conn)

	_, err := i.Tables(context.Background(), "public")
	assert.ErrorIs(t, err, ErrUnsupportedClassification)
}

func TestTable(t *testing.T) {
	conn := setupCatalog(t)
	i := newTestIntrospector(t, dialect.PGX, conn)
	ctx := context.Background()

	tab, err := i.Table(ctx, "public", "orders")
	require.NoError(t, err)
	assert.Equal(t, "orders", tab.Name)
	assert.Len(t, tab.Columns, 4)
	assert.Len(t, tab.ForeignKeys(), 1)

	_, err = i.Table(ctx, "public", "nosuchtable")
	assert.ErrorIs(t, err, ErrTableNotFound)

	// a pattern is not an exact name
	_, err = i.Table(ctx, "public", "user%")
	assert.ErrorIs(t, err, ErrTableNotFound)
}

func TestConnectAndExtractUnsupported(t *testing.T) {
	_, err := ConnectAndExtract(context.Background(), "sqlite3", ":memory:", time.Second, "main")
	assert.ErrorIs(t, err, dialect.ErrNotSupported)
}
