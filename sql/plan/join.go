package plan

import "github.com/vinedb/vine/sql"

type JoinType int

const (
	JoinInner JoinType = iota
	JoinLeft
	JoinRight
	JoinFull
	JoinCross
)

// NestedLoopJoin materializes the right input; for each left row, scans
// the right buffer producing joined rows for which Cond holds. LEFT/FULL
// emit a null-padded row when no right match; RIGHT is built as LEFT with
// sides swapped by the planbuilder; CROSS uses a constant-true Cond (§4.2).
type NestedLoopJoin struct {
	Left, Right sql.Node
	Cond        sql.Expression
	Kind        JoinType
}

func NewNestedLoopJoin(kind JoinType, left, right sql.Node, cond sql.Expression) *NestedLoopJoin {
	return &NestedLoopJoin{Left: left, Right: right, Cond: cond, Kind: kind}
}

func (n *NestedLoopJoin) Schema() sql.Schema {
	return n.Left.Schema().Concat(n.Right.Schema())
}
func (n *NestedLoopJoin) Children() []sql.Node { return []sql.Node{n.Left, n.Right} }
func (n *NestedLoopJoin) Resolved() bool {
	return n.Left.Resolved() && n.Right.Resolved() && (n.Cond == nil || n.Cond.Resolved())
}
func (n *NestedLoopJoin) String() string {
	names := map[JoinType]string{JoinInner: "Inner", JoinLeft: "Left", JoinRight: "Right", JoinFull: "Full", JoinCross: "Cross"}
	return names[n.Kind] + "Join"
}
func (n *NestedLoopJoin) Expressions() []sql.Expression {
	if n.Cond == nil {
		return nil
	}
	return []sql.Expression{n.Cond}
}
func (n *NestedLoopJoin) WithExpressions(exprs ...sql.Expression) (sql.Node, error) {
	if len(exprs) != 1 {
		return nil, sql.ErrInvariantBreach.New("NestedLoopJoin takes 1 expression")
	}
	cp := *n
	cp.Cond = exprs[0]
	return &cp, nil
}
func (n *NestedLoopJoin) WithChildren(children ...sql.Node) (sql.Node, error) {
	if len(children) != 2 {
		return nil, sql.ErrInvariantBreach.New("NestedLoopJoin takes 2 children")
	}
	return NewNestedLoopJoin(n.Kind, children[0], children[1], n.Cond), nil
}
