package memory_test

import (
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vinedb/vine/memory"
	"github.com/vinedb/vine/sql"
	"github.com/vinedb/vine/sql/types"
)

func testSchema() sql.Schema {
	return sql.Schema{
		{Name: "id", Type: types.Int64, PrimaryKey: true},
		{Name: "name", Type: types.Text, Nullable: true},
	}
}

func TestTableNameAndSchema(t *testing.T) {
	tab := memory.NewTable("users", testSchema())
	require.Equal(t, "users", tab.Name())
	require.Equal(t, "users", tab.String())
	require.Len(t, tab.Schema(), 2)
	require.Equal(t, "users", tab.Schema()[0].Source)
}

func scanAll(t *testing.T, ctx *sql.Context, tab sql.Table) []sql.Row {
	t.Helper()
	it, err := tab.Scan(ctx, nil)
	require.NoError(t, err)
	var rows []sql.Row
	for {
		row, err := it.Next(ctx)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		rows = append(rows, row)
	}
	require.NoError(t, it.Close(ctx))
	return rows
}

func TestTableInsertAndScanOrder(t *testing.T) {
	ctx := sql.NewEmptyContext()
	tab := memory.NewTable("users", testSchema())

	require.NoError(t, tab.InsertRow(ctx, sql.Row{int64(1), "alice"}))
	require.NoError(t, tab.InsertRow(ctx, sql.Row{int64(2), "bob"}))

	rows := scanAll(t, ctx, tab)
	require.Equal(t, []sql.Row{{int64(1), "alice"}, {int64(2), "bob"}}, rows)
}

func TestTableInsertDuplicatePrimaryKey(t *testing.T) {
	ctx := sql.NewEmptyContext()
	tab := memory.NewTable("users", testSchema())
	require.NoError(t, tab.InsertRow(ctx, sql.Row{int64(1), "alice"}))

	err := tab.InsertRow(ctx, sql.Row{int64(1), "dup"})
	require.Error(t, err)
	require.True(t, sql.ErrDuplicateKey.Is(err))
}

func TestTableUpdateAndDeleteByRowID(t *testing.T) {
	ctx := sql.NewEmptyContext()
	tab := memory.NewTable("users", testSchema())
	require.NoError(t, tab.InsertRow(ctx, sql.Row{int64(1), "alice"}))

	it, err := tab.ScanWithRowIDs(ctx, nil)
	require.NoError(t, err)
	id, row, err := it.Next(ctx)
	require.NoError(t, err)
	require.Equal(t, sql.Row{int64(1), "alice"}, row)
	require.NoError(t, it.Close(ctx))

	require.NoError(t, tab.UpdateRow(ctx, id, sql.Row{int64(1), "alicia"}))
	got, ok, err := tab.GetRowBySlot(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, sql.Row{int64(1), "alicia"}, got)

	require.NoError(t, tab.DeleteRow(ctx, id))
	_, ok, err = tab.GetRowBySlot(ctx, id)
	require.NoError(t, err)
	require.False(t, ok)
	require.Empty(t, scanAll(t, ctx, tab))
}

func TestTableUpdateRowIDFromAnotherTableRejected(t *testing.T) {
	ctx := sql.NewEmptyContext()
	tab := memory.NewTable("users", testSchema())
	require.NoError(t, tab.InsertRow(ctx, sql.Row{int64(1), "alice"}))

	err := tab.UpdateRow(ctx, "not-a-rowid", sql.Row{int64(1), "x"})
	require.Error(t, err)
}

func TestTableFlushAndOptimizeAreNoErrors(t *testing.T) {
	ctx := sql.NewEmptyContext()
	tab := memory.NewTable("users", testSchema())
	require.NoError(t, tab.InsertRow(ctx, sql.Row{int64(2), "bob"}))
	require.NoError(t, tab.InsertRow(ctx, sql.Row{int64(1), "alice"}))
	require.NoError(t, tab.Flush(ctx))
	require.NoError(t, tab.Optimize(ctx))
}

var _ sql.Table = (*memory.Table)(nil)
