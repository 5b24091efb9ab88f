package memory_test

import (
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vinedb/vine/memory"
	"github.com/vinedb/vine/sql"
)

func drainIDs(t *testing.T, ctx *sql.Context, it sql.RowIDIter) []sql.RowID {
	t.Helper()
	var ids []sql.RowID
	for {
		id, err := it.Next(ctx)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		ids = append(ids, id)
	}
	require.NoError(t, it.Close(ctx))
	return ids
}

func TestIndexLookup(t *testing.T) {
	ctx := sql.NewEmptyContext()
	tab := memory.NewTable("users", testSchema())
	require.NoError(t, tab.InsertRow(ctx, sql.Row{int64(1), "alice"}))
	require.NoError(t, tab.InsertRow(ctx, sql.Row{int64(2), "bob"}))

	idx := memory.NewIndex("idx_name", tab, []string{"name"}, false)
	require.Equal(t, "idx_name", idx.Name())
	require.Equal(t, "users", idx.Table())
	require.Equal(t, []string{"name"}, idx.Columns())

	it, err := idx.Lookup(ctx, sql.Row{"bob"})
	require.NoError(t, err)
	ids := drainIDs(t, ctx, it)
	require.Len(t, ids, 1)

	row, ok, err := tab.GetRowBySlot(ctx, ids[0])
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, sql.Row{int64(2), "bob"}, row)
}

func TestIndexRangeScan(t *testing.T) {
	ctx := sql.NewEmptyContext()
	tab := memory.NewTable("users", testSchema())
	for i := int64(1); i <= 5; i++ {
		require.NoError(t, tab.InsertRow(ctx, sql.Row{i, "n"}))
	}
	idx := memory.NewIndex("idx_id", tab, []string{"id"}, true)

	it, err := idx.RangeScan(ctx, sql.IndexRange{
		Lo: sql.Row{int64(2)}, LoInclusive: true,
		Hi: sql.Row{int64(4)}, HiInclusive: false,
	})
	require.NoError(t, err)
	ids := drainIDs(t, ctx, it)
	require.Len(t, ids, 2) // ids for rows with id=2 and id=3
}

func TestIndexScanAll(t *testing.T) {
	ctx := sql.NewEmptyContext()
	tab := memory.NewTable("users", testSchema())
	require.NoError(t, tab.InsertRow(ctx, sql.Row{int64(1), "alice"}))
	require.NoError(t, tab.InsertRow(ctx, sql.Row{int64(2), "bob"}))

	idx := memory.NewIndex("idx_id", tab, []string{"id"}, true)
	it, err := idx.ScanAll(ctx)
	require.NoError(t, err)
	require.Len(t, drainIDs(t, ctx, it), 2)
}

var _ sql.Index = (*memory.Index)(nil)
