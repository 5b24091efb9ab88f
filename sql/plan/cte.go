package plan

import "github.com/vinedb/vine/sql"

// CteOperator emits rows from a materialized CTE result by index (§4.2).
// Planbuilder materializes each WITH binding once (running its defining
// query through the normal operator pipeline and draining it into
// sql.MaterializedCTE) before building the statement that references it, so
// this operator never re-runs the CTE's defining query.
type CteOperator struct {
	CTEName string
	sch     sql.Schema
}

func NewCteOperator(name string, sch sql.Schema) *CteOperator {
	return &CteOperator{CTEName: name, sch: sch}
}

func (n *CteOperator) Name() string      { return n.CTEName }
func (n *CteOperator) Schema() sql.Schema { return n.sch }
func (n *CteOperator) Children() []sql.Node { return nil }
func (n *CteOperator) Resolved() bool    { return true }
func (n *CteOperator) String() string    { return "CteOperator(" + n.CTEName + ")" }
func (n *CteOperator) WithChildren(children ...sql.Node) (sql.Node, error) {
	if len(children) != 0 {
		return nil, sql.ErrInvariantBreach.New("CteOperator takes no children")
	}
	return n, nil
}
