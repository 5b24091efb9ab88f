package rowexec

import (
	"io"
	"sort"

	"github.com/vinedb/vine/sql"
)

// scanRowIDs builds a multiset index from a table's full content (keyed by
// rowKey) to the RowIDs carrying that content, used by the UPDATE/DELETE
// validate phase to recover each target row's RowID once its scan/filter
// pipeline has identified it by value (§4.5: "scan to identify target rows,
// then mutate"). Tables that don't implement sql.RowIDScanner cannot be
// targeted by UPDATE/DELETE.
func scanRowIDs(ctx *sql.Context, tab sql.Table, rv sql.ReadView) (map[string][]sql.RowID, error) {
	scanner, ok := tab.(sql.RowIDScanner)
	if !ok {
		return nil, sql.ErrUnsupportedFeature.New("table does not support row-identified scans required by UPDATE/DELETE")
	}
	it, err := scanner.ScanWithRowIDs(ctx, rv)
	if err != nil {
		return nil, err
	}
	index := make(map[string][]sql.RowID)
	for {
		id, row, err := it.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			_ = it.Close(ctx)
			return nil, err
		}
		k := rowKey(row)
		index[k] = append(index[k], id)
	}
	return index, it.Close(ctx)
}

// popRowID consumes and returns one RowID bucketed under key, or false if
// none remain (the content-match is already consumed by an earlier row with
// the same value, or the row changed between the two scans this call and
// the identifying scan raced against).
func popRowID(index map[string][]sql.RowID, key string) (sql.RowID, bool) {
	ids := index[key]
	if len(ids) == 0 {
		return nil, false
	}
	index[key] = ids[1:]
	return ids[0], true
}

// columnIndices resolves each named column to its ordinal in schema.
func columnIndices(sch sql.Schema, names []string) []int {
	out := make([]int, len(names))
	for i, n := range names {
		out[i] = sch.IndexOf(n, "")
	}
	return out
}

// keyValues projects row onto the given column ordinals.
func keyValues(row sql.Row, idxs []int) sql.Row {
	out := make(sql.Row, len(idxs))
	for i, idx := range idxs {
		if idx >= 0 && idx < len(row) {
			out[i] = row[idx]
		}
	}
	return out
}

func keysEqual(sch sql.Schema, idxs []int, a, b sql.Row) (bool, error) {
	for i, idx := range idxs {
		if idx < 0 {
			continue
		}
		av, bv := a[i], b[idx]
		if av == nil || bv == nil {
			if av != bv {
				return false, nil
			}
			continue
		}
		cmp, err := sch[idx].Type.Compare(av, bv)
		if err != nil {
			return false, err
		}
		if cmp != 0 {
			return false, nil
		}
	}
	return true, nil
}

// fkEnforcer applies FK validation and cascading directly against the
// catalog's tables, using content-match scans the same way scanRowIDs does
// (§4.5, §6: "the driver provides row-lookup and child-existence
// callbacks"). visited guards against infinite recursion through cyclic FK
// graphs when cascading to grandchildren.
type fkEnforcer struct {
	ctx     *sql.Context
	catalog *sql.Catalog
	db      sql.Database
}

var _ sql.ForeignKeyManager = (*fkEnforcer)(nil)

// ValidateInsert adapts fkEnforcer to sql.ForeignKeyManager. This
// implementation already holds direct catalog/database access (it is the
// callback's original caller, package rowexec), so it resolves parent rows
// itself rather than through the supplied lookup; lookup is accepted only to
// satisfy the interface other callers (e.g. a future non-rowexec driver)
// might need it for.
func (e *fkEnforcer) ValidateInsert(ctx *sql.Context, table string, row sql.Row, lookup sql.RowLookup) error {
	tab, _, err := e.catalog.Table(ctx, e.db.Name(), table)
	if err != nil {
		return err
	}
	return e.validateInsertFKs(table, tab.Schema(), row)
}

// ValidateDeleteOrUpdate adapts fkEnforcer to sql.ForeignKeyManager. It
// applies cascades immediately against the catalog's tables rather than
// returning a CascadeAction plan for the caller to apply, since it already
// has the table handles needed to mutate directly; it always returns a nil
// plan alongside any error.
func (e *fkEnforcer) ValidateDeleteOrUpdate(ctx *sql.Context, table string, oldRow, newRow sql.Row, lookup sql.RowLookup, children sql.ChildRowsLookup) ([]sql.CascadeAction, error) {
	return nil, e.cascade(table, oldRow, newRow, newRow == nil, nil)
}

func (e *fkEnforcer) AddForeignKey(ctx *sql.Context, db sql.Database, fk sql.ForeignKeyDef) error {
	return db.AddForeignKey(ctx, fk)
}

func (e *fkEnforcer) DropForeignKey(ctx *sql.Context, db sql.Database, table, name string) error {
	return db.DropForeignKey(ctx, table, name)
}

func (e *fkEnforcer) ForeignKeysReferencing(ctx *sql.Context, db sql.Database, table string) ([]sql.ForeignKeyDef, error) {
	return db.ForeignKeysReferencing(ctx, table)
}

// validateInsertFKs fails if row's foreign key columns don't match an
// existing parent row, for every FK declared on table (§4.5 INSERT:
// "validates FK/CHECK").
func (e *fkEnforcer) validateInsertFKs(table string, sch sql.Schema, row sql.Row) error {
	fks, err := e.db.ForeignKeysFrom(e.ctx, table)
	if err != nil {
		return err
	}
	for _, fk := range fks {
		childIdxs := columnIndices(sch, fk.ChildColumns)
		key := keyValues(row, childIdxs)
		hasNull := false
		for _, v := range key {
			hasNull = hasNull || v == nil
		}
		if hasNull {
			continue // a NULL-containing FK column set is never enforced
		}
		parentTab, _, err := e.catalog.Table(e.ctx, e.db.Name(), fk.ParentTable)
		if err != nil {
			return err
		}
		found, err := e.findByKey(parentTab, fk.ParentColumns, key)
		if err != nil {
			return err
		}
		if !found {
			return sql.ErrForeignKeyViolation.New(fk.Name, table)
		}
	}
	return nil
}

func allNil(row sql.Row) bool {
	for _, v := range row {
		if v != nil {
			return false
		}
	}
	return len(row) > 0
}

func (e *fkEnforcer) findByKey(tab sql.Table, columns []string, key sql.Row) (bool, error) {
	sch := tab.Schema()
	idxs := columnIndices(sch, columns)
	it, err := tab.Scan(e.ctx, nil)
	if err != nil {
		return false, err
	}
	defer it.Close(e.ctx)
	for {
		row, err := it.Next(e.ctx)
		if err == io.EOF {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		eq, err := keysEqual(sch, idxs, key, row)
		if err != nil {
			return false, err
		}
		if eq {
			return true, nil
		}
	}
}

// cascade applies OnDelete/OnUpdate referential actions to every table
// referencing table, recursing into grandchildren (§4.5 UPDATE/
// DELETE: "SET NULL before CASCADE ...; recursive to grandchildren").
// oldKey and newKey are table's full old and new rows; newKey is nil for a
// delete. visited holds the tables on the current recursion path.
func (e *fkEnforcer) cascade(table string, oldKey, newKey sql.Row, isDelete bool, visited map[string]bool) error {
	if visited == nil {
		visited = make(map[string]bool)
	}
	if visited[table] {
		return nil
	}
	visited[table] = true
	defer delete(visited, table)

	refs, err := e.db.ForeignKeysReferencing(e.ctx, table)
	if err != nil {
		return err
	}
	setNull := func(fk sql.ForeignKeyDef) bool {
		if isDelete {
			return fk.OnDelete == sql.FKSetNull
		}
		return fk.OnUpdate == sql.FKSetNull
	}
	refs = append([]sql.ForeignKeyDef(nil), refs...)
	sort.SliceStable(refs, func(i, j int) bool { return setNull(refs[i]) && !setNull(refs[j]) })
	for _, fk := range refs {
		if fk.ParentTable != table {
			continue
		}
		action := fk.OnDelete
		if !isDelete {
			action = fk.OnUpdate
		}
		if action == sql.FKRestrict || action == sql.FKNoAction {
			continue
		}
		childTab, _, err := e.catalog.Table(e.ctx, e.db.Name(), fk.ChildTable)
		if err != nil {
			return err
		}
		childSch := childTab.Schema()
		childIdxs := columnIndices(childSch, fk.ChildColumns)
		parentTab, _, err := e.catalog.Table(e.ctx, e.db.Name(), table)
		if err != nil {
			return err
		}
		parentIdxs := columnIndices(parentTab.Schema(), fk.ParentColumns)
		oldParentKey, newParentKey := keyValues(oldKey, parentIdxs), keyValues(newKey, parentIdxs)

		rowIDs, err := scanRowIDs(e.ctx, childTab, nil)
		if err != nil {
			return err
		}
		it, err := childTab.Scan(e.ctx, nil)
		if err != nil {
			return err
		}
		var matches []sql.Row
		for {
			row, err := it.Next(e.ctx)
			if err == io.EOF {
				break
			}
			if err != nil {
				_ = it.Close(e.ctx)
				return err
			}
			eq, err := keysEqual(childSch, childIdxs, oldParentKey, row)
			if err != nil {
				_ = it.Close(e.ctx)
				return err
			}
			if eq {
				matches = append(matches, row)
			}
		}
		if err := it.Close(e.ctx); err != nil {
			return err
		}

		for _, child := range matches {
			id, ok := popRowID(rowIDs, rowKey(child))
			if !ok {
				continue
			}
			switch action {
			case sql.FKCascade:
				if isDelete {
					if err := childTab.DeleteRow(e.ctx, id); err != nil {
						return err
					}
					if err := e.cascade(fk.ChildTable, child, nil, true, visited); err != nil {
						return err
					}
				} else {
					newChild := child.Copy()
					for i, idx := range childIdxs {
						if idx >= 0 {
							newChild[idx] = newParentKey[i]
						}
					}
					if err := childTab.UpdateRow(e.ctx, id, newChild); err != nil {
						return err
					}
					if err := e.cascade(fk.ChildTable, child, newChild, false, visited); err != nil {
						return err
					}
				}
			case sql.FKSetNull:
				newChild := child.Copy()
				for _, idx := range childIdxs {
					if idx >= 0 {
						newChild[idx] = nil
					}
				}
				if err := childTab.UpdateRow(e.ctx, id, newChild); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
