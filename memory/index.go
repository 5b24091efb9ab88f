package memory

import (
	"io"

	"github.com/vinedb/vine/sql"
)

// Index is a reference secondary index: it does not maintain its own
// B-tree, it answers Lookup/RangeScan/ScanAll by scanning the owning
// table's current rows and filtering by the indexed columns (§6). This
// trades index-scan performance for the simplicity appropriate to a
// teaching storage engine; the IndexScan physical operator above it is
// unaware of the difference, since it only ever sees the sql.Index
// interface.
type Index struct {
	name    string
	table   *Table
	columns []string
	unique  bool
}

// NewIndex returns an index named name over columns of table.
func NewIndex(name string, table *Table, columns []string, unique bool) *Index {
	return &Index{name: name, table: table, columns: columns, unique: unique}
}

func (idx *Index) Name() string      { return idx.name }
func (idx *Index) Table() string     { return idx.table.Name() }
func (idx *Index) Columns() []string { return idx.columns }

func (idx *Index) colIndices() []int {
	sch := idx.table.Schema()
	out := make([]int, len(idx.columns))
	for i, c := range idx.columns {
		out[i] = sch.IndexOf(c, "")
	}
	return out
}

// Lookup returns every row whose indexed columns equal key.
func (idx *Index) Lookup(ctx *sql.Context, key sql.Row) (sql.RowIDIter, error) {
	sch := idx.table.Schema()
	idxs := idx.colIndices()
	var ids []sql.RowID
	for _, e := range idx.table.snapshot() {
		match := true
		for i, ci := range idxs {
			if ci < 0 {
				match = false
				break
			}
			cmp, err := sch[ci].Type.Compare(e.row[ci], key[i])
			if err != nil {
				return nil, err
			}
			if cmp != 0 {
				match = false
				break
			}
		}
		if match {
			ids = append(ids, e.id)
		}
	}
	return &rowIDSliceIter{ids: ids}, nil
}

// RangeScan returns every row whose leading indexed column falls within r,
// comparing only that column against the first value of r.Lo and r.Hi; the
// remaining columns of a composite index are not compared.
func (idx *Index) RangeScan(ctx *sql.Context, r sql.IndexRange) (sql.RowIDIter, error) {
	sch := idx.table.Schema()
	idxs := idx.colIndices()
	if len(idxs) == 0 {
		return &rowIDSliceIter{}, nil
	}
	leading := idxs[0]
	var ids []sql.RowID
	for _, e := range idx.table.snapshot() {
		v := e.row[leading]
		if r.Lo != nil {
			cmp, err := sch[leading].Type.Compare(v, r.Lo[0])
			if err != nil {
				return nil, err
			}
			if cmp < 0 || (cmp == 0 && !r.LoInclusive) {
				continue
			}
		}
		if r.Hi != nil {
			cmp, err := sch[leading].Type.Compare(v, r.Hi[0])
			if err != nil {
				return nil, err
			}
			if cmp > 0 || (cmp == 0 && !r.HiInclusive) {
				continue
			}
		}
		ids = append(ids, e.id)
	}
	return &rowIDSliceIter{ids: ids}, nil
}

// ScanAll returns every row-id in the table, in scan order.
func (idx *Index) ScanAll(ctx *sql.Context) (sql.RowIDIter, error) {
	entries := idx.table.snapshot()
	ids := make([]sql.RowID, len(entries))
	for i, e := range entries {
		ids[i] = e.id
	}
	return &rowIDSliceIter{ids: ids}, nil
}

type rowIDSliceIter struct {
	ids []sql.RowID
	pos int
}

func (it *rowIDSliceIter) Next(ctx *sql.Context) (sql.RowID, error) {
	if it.pos >= len(it.ids) {
		return nil, io.EOF
	}
	id := it.ids[it.pos]
	it.pos++
	return id, nil
}

func (it *rowIDSliceIter) Close(ctx *sql.Context) error { return nil }

var _ sql.Index = (*Index)(nil)
