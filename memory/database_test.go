package memory_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vinedb/vine/memory"
	"github.com/vinedb/vine/sql"
	"github.com/vinedb/vine/sql/types"
)

func TestDatabaseCreateAndDropTable(t *testing.T) {
	ctx := sql.NewEmptyContext()
	db := memory.NewDatabase("mydb")
	require.Equal(t, "mydb", db.Name())

	require.NoError(t, db.CreateTable(ctx, "users", testSchema()))
	err := db.CreateTable(ctx, "users", testSchema())
	require.Error(t, err)

	names, err := db.GetTableNames(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"users"}, names)

	tab, ok, err := db.GetTableInsensitive(ctx, "USERS")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "users", tab.Name())

	require.NoError(t, db.DropTable(ctx, "users"))
	_, ok, err = db.GetTableInsensitive(ctx, "users")
	require.NoError(t, err)
	require.False(t, ok)

	err = db.DropTable(ctx, "users")
	require.Error(t, err)
	require.True(t, sql.ErrTableNotFound.Is(err))
}

func TestDatabaseUpdateTableSchemaPreservesRows(t *testing.T) {
	ctx := sql.NewEmptyContext()
	db := memory.NewDatabase("mydb")
	require.NoError(t, db.CreateTable(ctx, "users", testSchema()))

	tab, _, err := db.GetTableInsensitive(ctx, "users")
	require.NoError(t, err)
	require.NoError(t, tab.InsertRow(ctx, sql.Row{int64(1), "alice"}))

	newSchema := sql.Schema{
		{Name: "id", Type: types.Int64, PrimaryKey: true},
		{Name: "name", Type: types.Text, Nullable: true},
		{Name: "age", Type: types.Int32, Nullable: true},
	}
	require.NoError(t, db.UpdateTableSchema(ctx, "users", newSchema))

	tab, _, err = db.GetTableInsensitive(ctx, "users")
	require.NoError(t, err)
	rows := scanAll(t, ctx, tab)
	require.Len(t, rows, 1)
	require.Equal(t, sql.Row{int64(1), "alice", nil}, rows[0])
}

func TestDatabaseViews(t *testing.T) {
	ctx := sql.NewEmptyContext()
	db := memory.NewDatabase("mydb")

	require.NoError(t, db.CreateView(ctx, sql.ViewDef{Name: "v1", TextDef: "select 1"}))
	v, ok, err := db.GetViewDefinition(ctx, "V1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "select 1", v.TextDef)

	all, err := db.AllViews(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)

	require.NoError(t, db.DropView(ctx, "v1"))
	_, ok, err = db.GetViewDefinition(ctx, "v1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestDatabaseForeignKeys(t *testing.T) {
	ctx := sql.NewEmptyContext()
	db := memory.NewDatabase("mydb")
	fk := sql.ForeignKeyDef{
		Name: "fk_parent", ChildTable: "orders", ChildColumns: []string{"user_id"},
		ParentTable: "users", ParentColumns: []string{"id"}, OnDelete: sql.FKCascade,
	}
	require.NoError(t, db.AddForeignKey(ctx, fk))

	has, err := db.HasForeignKey(ctx, "orders", "fk_parent")
	require.NoError(t, err)
	require.True(t, has)

	referencing, err := db.ForeignKeysReferencing(ctx, "users")
	require.NoError(t, err)
	require.Len(t, referencing, 1)

	from, err := db.ForeignKeysFrom(ctx, "orders")
	require.NoError(t, err)
	require.Len(t, from, 1)

	require.NoError(t, db.DropForeignKey(ctx, "orders", "fk_parent"))
	has, err = db.HasForeignKey(ctx, "orders", "fk_parent")
	require.NoError(t, err)
	require.False(t, has)
}

func TestDatabaseChecksTriggersProceduresEvents(t *testing.T) {
	ctx := sql.NewEmptyContext()
	db := memory.NewDatabase("mydb")

	require.NoError(t, db.AddCheck(ctx, "users", sql.CheckDef{Name: "chk_age", Expression: "age >= 0", Enforced: true}))
	checks, err := db.GetChecks(ctx, "users")
	require.NoError(t, err)
	require.Len(t, checks, 1)
	require.NoError(t, db.DropCheck(ctx, "users", "chk_age"))
	checks, err = db.GetChecks(ctx, "users")
	require.NoError(t, err)
	require.Empty(t, checks)

	require.NoError(t, db.AddTrigger(ctx, sql.TriggerDef{Name: "trg1", Table: "users", Timing: sql.Before, Event: sql.OnInsert}))
	trgs, err := db.GetTriggers(ctx, "users")
	require.NoError(t, err)
	require.Len(t, trgs, 1)
	require.Equal(t, 1, trgs[0].Order)

	require.NoError(t, db.AddProcedure(ctx, sql.ProcedureDef{Name: "proc1", Body: "begin end"}))
	proc, ok, err := db.GetProcedure(ctx, "PROC1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "proc1", proc.Name)
	require.NoError(t, db.DropProcedure(ctx, "proc1"))
	_, ok, err = db.GetProcedure(ctx, "proc1")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, db.AddEvent(ctx, sql.EventDef{Name: "ev1", Body: "do nothing"}))
	ev, ok, err := db.GetEvent(ctx, "ev1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "ev1", ev.Name)
	require.NoError(t, db.DropEvent(ctx, "ev1"))
}

func TestDatabaseIndexes(t *testing.T) {
	ctx := sql.NewEmptyContext()
	db := memory.NewDatabase("mydb")
	require.NoError(t, db.CreateTable(ctx, "users", testSchema()))
	tab, _, err := db.GetTableInsensitive(ctx, "users")
	require.NoError(t, err)

	idx := memory.NewIndex("idx_name", tab.(*memory.Table), []string{"name"}, false)
	require.NoError(t, db.CreateIndex(ctx, "users", idx))

	idxs, err := db.GetIndexes(ctx, "users")
	require.NoError(t, err)
	require.Len(t, idxs, 1)

	require.NoError(t, db.DropIndex(ctx, "users", "idx_name"))
	idxs, err = db.GetIndexes(ctx, "users")
	require.NoError(t, err)
	require.Empty(t, idxs)
}

var _ sql.Database = (*memory.Database)(nil)
