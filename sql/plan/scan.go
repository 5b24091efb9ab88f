// Package plan declares the physical operator catalog (§4.2): every Node
// here is a pure, immutable description of one pipeline stage. Building a
// Node never touches storage or evaluates a row; package rowexec turns a
// Node tree into the RowIter tree that actually does that.
package plan

import "github.com/vinedb/vine/sql"

// TableScan emits every row of a table, honoring a read-view and an
// optional locking mode (§4.2).
type TableScan struct {
	Tab     sql.Table
	Db      string
	Locking sql.LockMode
	sch     sql.Schema
}

// NewTableScan returns a scan of tab, whose schema is rebound under
// tab.Name() so qualified lookups (`T.c`) resolve against it.
func NewTableScan(db string, tab sql.Table) *TableScan {
	return &TableScan{Tab: tab, Db: db, sch: tab.Schema().WithSource(tab.Name())}
}

func (n *TableScan) Name() string                         { return n.Tab.Name() }
func (n *TableScan) Schema() sql.Schema                    { return n.sch }
func (n *TableScan) Children() []sql.Node                  { return nil }
func (n *TableScan) Resolved() bool                        { return true }
func (n *TableScan) String() string                        { return "TableScan(" + n.Tab.Name() + ")" }
func (n *TableScan) WithChildren(children ...sql.Node) (sql.Node, error) {
	if len(children) != 0 {
		return nil, sql.ErrInvariantBreach.New("TableScan takes no children")
	}
	return n, nil
}

// IndexScan emits row-ids from an index over a key range, dereferencing
// each to its heap row and applying a residual predicate (§4.2).
type IndexScan struct {
	Tab      sql.Table
	Idx      sql.Index
	Range    sql.IndexRange
	Residual sql.Expression
	Locking  sql.LockMode
	sch      sql.Schema
}

func NewIndexScan(tab sql.Table, idx sql.Index, r sql.IndexRange, residual sql.Expression) *IndexScan {
	return &IndexScan{Tab: tab, Idx: idx, Range: r, Residual: residual, sch: tab.Schema().WithSource(tab.Name())}
}

func (n *IndexScan) Name() string      { return n.Tab.Name() }
func (n *IndexScan) Schema() sql.Schema { return n.sch }
func (n *IndexScan) Children() []sql.Node { return nil }
func (n *IndexScan) Resolved() bool     { return n.Residual == nil || n.Residual.Resolved() }
func (n *IndexScan) String() string     { return "IndexScan(" + n.Idx.Name() + ")" }
func (n *IndexScan) WithChildren(children ...sql.Node) (sql.Node, error) {
	if len(children) != 0 {
		return nil, sql.ErrInvariantBreach.New("IndexScan takes no children")
	}
	return n, nil
}
func (n *IndexScan) Expressions() []sql.Expression {
	if n.Residual == nil {
		return nil
	}
	return []sql.Expression{n.Residual}
}
func (n *IndexScan) WithExpressions(exprs ...sql.Expression) (sql.Node, error) {
	if len(exprs) != 1 {
		return nil, sql.ErrInvariantBreach.New("IndexScan takes 1 expression")
	}
	cp := *n
	cp.Residual = exprs[0]
	return &cp, nil
}

// Dual emits exactly one empty row, for a FROM-less SELECT (§4.2).
type Dual struct{}

func NewDual() *Dual { return &Dual{} }

func (n *Dual) Name() string      { return "dual" }
func (n *Dual) Schema() sql.Schema { return sql.Schema{} }
func (n *Dual) Children() []sql.Node { return nil }
func (n *Dual) Resolved() bool     { return true }
func (n *Dual) String() string     { return "Dual" }
func (n *Dual) WithChildren(children ...sql.Node) (sql.Node, error) {
	if len(children) != 0 {
		return nil, sql.ErrInvariantBreach.New("Dual takes no children")
	}
	return n, nil
}

// InformationSchema emits pre-computed metadata rows (SHOW TABLES, SHOW
// COLUMNS, information_schema stand-ins, §4.2).
type InformationSchema struct {
	sch  sql.Schema
	Rows []sql.Row
}

func NewInformationSchema(sch sql.Schema, rows []sql.Row) *InformationSchema {
	return &InformationSchema{sch: sch, Rows: rows}
}

func (n *InformationSchema) Schema() sql.Schema    { return n.sch }
func (n *InformationSchema) Children() []sql.Node  { return nil }
func (n *InformationSchema) Resolved() bool        { return true }
func (n *InformationSchema) String() string        { return "InformationSchema" }
func (n *InformationSchema) WithChildren(children ...sql.Node) (sql.Node, error) {
	if len(children) != 0 {
		return nil, sql.ErrInvariantBreach.New("InformationSchema takes no children")
	}
	return n, nil
}
