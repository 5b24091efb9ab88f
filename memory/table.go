// Package memory is the reference storage engine: a process-memory
// implementation of the sql.Database/sql.Table/sql.Index contracts (§6),
// used by default wherever no other storage engine is attached and by every
// package's test suite. It keeps every row in a Go map behind a mutex rather
// than paging to disk, so Flush and Optimize are no-ops.
package memory

import (
	"io"
	"sort"
	"sync"

	"github.com/vinedb/vine/sql"
)

// rowID is the concrete sql.RowID this package hands out: a monotonically
// increasing slot number, never reused even after a delete, so a RowID
// captured by one scan remains a stable reference for a subsequent
// UpdateRow/DeleteRow call within the same statement (§9: "only valid
// relative to the storage engine's current state").
type rowID int64

// Table is an in-memory table: rows live in a map keyed by rowID, with a
// separate slice recording insertion order so Scan produces a stable,
// repeatable row order the way a heap-organized table would.
type Table struct {
	mu      sync.RWMutex
	name    string
	schema  sql.Schema
	rows    map[rowID]sql.Row
	order   []rowID
	nextID  rowID
	indexes map[string]*Index
}

// NewTable returns an empty table named name with the given schema.
func NewTable(name string, schema sql.Schema) *Table {
	return &Table{
		name:    name,
		schema:  schema.WithSource(name),
		rows:    make(map[rowID]sql.Row),
		indexes: make(map[string]*Index),
	}
}

func (t *Table) Name() string      { return t.name }
func (t *Table) Schema() sql.Schema { return t.schema }
func (t *Table) String() string    { return t.name }

func (t *Table) InsertRow(ctx *sql.Context, row sql.Row) error {
	if err := t.schema.CheckRow(row); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.checkUniqueLocked(-1, row); err != nil {
		return err
	}
	id := t.nextID
	t.nextID++
	t.rows[id] = row.Copy()
	t.order = append(t.order, id)
	return nil
}

// checkUniqueLocked enforces PRIMARY KEY uniqueness; skip excludes the row
// currently being updated (-1 when called from InsertRow) from the
// comparison. Secondary UNIQUE indexes are not modeled by this reference
// engine.
func (t *Table) checkUniqueLocked(skip rowID, row sql.Row) error {
	var pkIdx []int
	for i, c := range t.schema {
		if c.PrimaryKey {
			pkIdx = append(pkIdx, i)
		}
	}
	if len(pkIdx) == 0 {
		return nil
	}
	for id, existing := range t.rows {
		if id == skip {
			continue
		}
		eq := true
		for _, i := range pkIdx {
			cmp, err := t.schema[i].Type.Compare(existing[i], row[i])
			if err != nil || cmp != 0 {
				eq = false
				break
			}
		}
		if eq {
			return sql.ErrDuplicateKey.New(t.name + ".PRIMARY")
		}
	}
	return nil
}

func (t *Table) UpdateRow(ctx *sql.Context, id sql.RowID, newRow sql.Row) error {
	rid, ok := id.(rowID)
	if !ok {
		return sql.ErrInvariantBreach.New("rowID from a different table")
	}
	if err := t.schema.CheckRow(newRow); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.rows[rid]; !ok {
		return sql.ErrInvariantBreach.New("row no longer present")
	}
	if err := t.checkUniqueLocked(rid, newRow); err != nil {
		return err
	}
	t.rows[rid] = newRow.Copy()
	return nil
}

func (t *Table) DeleteRow(ctx *sql.Context, id sql.RowID) error {
	rid, ok := id.(rowID)
	if !ok {
		return sql.ErrInvariantBreach.New("rowID from a different table")
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.rows[rid]; !ok {
		return nil
	}
	delete(t.rows, rid)
	for i, existing := range t.order {
		if existing == rid {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return nil
}

func (t *Table) GetRowBySlot(ctx *sql.Context, id sql.RowID) (sql.Row, bool, error) {
	rid, ok := id.(rowID)
	if !ok {
		return nil, false, nil
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	row, ok := t.rows[rid]
	if !ok {
		return nil, false, nil
	}
	return row.Copy(), true, nil
}

// Flush is a no-op: there is nothing buffered outside the map itself.
func (t *Table) Flush(ctx *sql.Context) error { return nil }

// Optimize sorts the insertion-order slice by rowID, which is already its
// order since rowIDs only increase; nothing is removed and the map itself
// never fragments.
func (t *Table) Optimize(ctx *sql.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	sort.Slice(t.order, func(i, j int) bool { return t.order[i] < t.order[j] })
	return nil
}

// snapshot returns a stable, ordered copy of (rowID, row) pairs to iterate
// over without holding the lock for the iterator's whole lifetime.
func (t *Table) snapshot() []rowEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]rowEntry, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, rowEntry{id: id, row: t.rows[id].Copy()})
	}
	return out
}

type rowEntry struct {
	id  rowID
	row sql.Row
}

// Scan returns every stored row in insertion order. rv is not consulted:
// this reference engine keeps only the latest version of each row (no MVCC
// undo chain) and records no writer transaction per row, so no visibility
// filtering is applied, whether rv is nil or not.
func (t *Table) Scan(ctx *sql.Context, rv sql.ReadView) (sql.RowIter, error) {
	return &tableRowIter{entries: t.snapshot()}, nil
}

type tableRowIter struct {
	entries []rowEntry
	pos     int
}

func (it *tableRowIter) Next(ctx *sql.Context) (sql.Row, error) {
	if it.pos >= len(it.entries) {
		return nil, io.EOF
	}
	row := it.entries[it.pos].row
	it.pos++
	return row, nil
}

func (it *tableRowIter) Close(ctx *sql.Context) error { return nil }

// ScanWithRowIDs satisfies sql.RowIDScanner, letting the statement driver
// recover a scanned row's RowID for UPDATE/DELETE (§4.5, §6). As with Scan,
// rv is not consulted and every stored row is returned.
func (t *Table) ScanWithRowIDs(ctx *sql.Context, rv sql.ReadView) (sql.RowIDRowIter, error) {
	return &rowIDIter{entries: t.snapshot()}, nil
}

type rowIDIter struct {
	entries []rowEntry
	pos     int
}

func (it *rowIDIter) Next(ctx *sql.Context) (sql.RowID, sql.Row, error) {
	if it.pos >= len(it.entries) {
		return nil, nil, io.EOF
	}
	e := it.entries[it.pos]
	it.pos++
	return e.id, e.row, nil
}

func (it *rowIDIter) Close(ctx *sql.Context) error { return nil }

var _ sql.Table = (*Table)(nil)
var _ sql.RowIDScanner = (*Table)(nil)
