package plan

import (
	"github.com/vinedb/vine/sql"
	"github.com/vinedb/vine/sql/types"
)

// resultSchema is the single rows_affected column every DML node reports
// through the iterator protocol, mirroring MySQL's OK-packet row count.
var resultSchema = sql.Schema{{Name: "rows_affected", Type: types.Int64}}

// Assignment is one `col = expr` binding, shared by UPDATE's SET clause and
// INSERT ... ON DUPLICATE KEY UPDATE.
type Assignment struct {
	ColumnIndex int
	Value       sql.Expression
}

// Insert validates then inserts each row Source produces, mapped to the
// table's columns via Columns (nil means source order matches table order);
// Ignore/Replace/OnDuplicate implement the three MySQL insert-conflict
// policies (§4.5).
type Insert struct {
	unaryNode // Child is Source: a Project over literal VALUES or a SELECT subplan
	Table       sql.Table
	Db          string
	Columns     []int
	OnDuplicate []Assignment
	Ignore      bool
	Replace     bool
}

func NewInsert(db string, table sql.Table, columns []int, source sql.Node, onDup []Assignment, ignore, replace bool) *Insert {
	return &Insert{unaryNode{source}, table, db, columns, onDup, ignore, replace}
}

func (n *Insert) Schema() sql.Schema { return resultSchema }
func (n *Insert) Resolved() bool     { return n.Child.Resolved() }
func (n *Insert) String() string     { return "Insert(" + n.Table.Name() + ")" }
func (n *Insert) WithChildren(children ...sql.Node) (sql.Node, error) {
	c, err := requireOneChild(children)
	if err != nil {
		return nil, err
	}
	return NewInsert(n.Db, n.Table, n.Columns, c, n.OnDuplicate, n.Ignore, n.Replace), nil
}

// Update is the mutate half of the validate-then-mutate DML contract
// (§4.5): Child is the scan/filter pipeline (built over the table's own
// schema) that identifies target rows; Assignments apply to each.
type Update struct {
	unaryNode
	Table       sql.Table
	Db          string
	Assignments []Assignment
}

func NewUpdate(db string, table sql.Table, assignments []Assignment, child sql.Node) *Update {
	return &Update{unaryNode{child}, table, db, assignments}
}

func (n *Update) Schema() sql.Schema { return resultSchema }
func (n *Update) Resolved() bool {
	if !n.Child.Resolved() {
		return false
	}
	for _, a := range n.Assignments {
		if !a.Value.Resolved() {
			return false
		}
	}
	return true
}
func (n *Update) String() string { return "Update(" + n.Table.Name() + ")" }
func (n *Update) WithChildren(children ...sql.Node) (sql.Node, error) {
	c, err := requireOneChild(children)
	if err != nil {
		return nil, err
	}
	return NewUpdate(n.Db, n.Table, n.Assignments, c), nil
}

// Delete is the mutate half of DELETE's validate-then-mutate contract
// (§4.5): Child identifies target rows over the table's own schema.
type Delete struct {
	unaryNode
	Table sql.Table
	Db    string
}

func NewDelete(db string, table sql.Table, child sql.Node) *Delete {
	return &Delete{unaryNode{child}, table, db}
}

func (n *Delete) Schema() sql.Schema { return resultSchema }
func (n *Delete) Resolved() bool     { return n.Child.Resolved() }
func (n *Delete) String() string     { return "Delete(" + n.Table.Name() + ")" }
func (n *Delete) WithChildren(children ...sql.Node) (sql.Node, error) {
	c, err := requireOneChild(children)
	if err != nil {
		return nil, err
	}
	return NewDelete(n.Db, n.Table, c), nil
}
