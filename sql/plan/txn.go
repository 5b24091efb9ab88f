package plan

import "github.com/vinedb/vine/sql"

type TxnKind int

const (
	TxnBegin TxnKind = iota
	TxnCommit
	TxnRollback
)

// TransactionControl acts directly on the session's TransactionManager
// (§2: "transaction... statements act directly on the catalog and
// transaction manager").
type TransactionControl struct {
	noChildNode
	Kind       TxnKind
	AccessMode sql.TxAccessMode
}

func (n *TransactionControl) String() string {
	switch n.Kind {
	case TxnCommit:
		return "Commit"
	case TxnRollback:
		return "Rollback"
	default:
		return "Begin"
	}
}
func (n *TransactionControl) WithChildren(children ...sql.Node) (sql.Node, error) {
	if len(children) != 0 {
		return nil, sql.ErrInvariantBreach.New("TransactionControl takes no children")
	}
	return n, nil
}

// SetVariable assigns Value to one session/global/user variable (§4.6).
type SetVariable struct {
	Name   string
	Global bool
	User   bool
	Value  sql.Expression
}

// Set applies one or more SetVariable assignments (§4.6).
type Set struct {
	noChildNode
	Vars []SetVariable
}

func (n *Set) Resolved() bool {
	for _, v := range n.Vars {
		if !v.Value.Resolved() {
			return false
		}
	}
	return true
}
func (n *Set) String() string { return "Set" }
func (n *Set) Expressions() []sql.Expression {
	exprs := make([]sql.Expression, len(n.Vars))
	for i, v := range n.Vars {
		exprs[i] = v.Value
	}
	return exprs
}
func (n *Set) WithExpressions(exprs ...sql.Expression) (sql.Node, error) {
	if len(exprs) != len(n.Vars) {
		return nil, sql.ErrInvariantBreach.New("Set expression count mismatch")
	}
	vars := make([]SetVariable, len(n.Vars))
	for i, v := range n.Vars {
		vars[i] = SetVariable{Name: v.Name, Global: v.Global, User: v.User, Value: exprs[i]}
	}
	return &Set{Vars: vars}, nil
}
func (n *Set) WithChildren(children ...sql.Node) (sql.Node, error) {
	if len(children) != 0 {
		return nil, sql.ErrInvariantBreach.New("Set takes no children")
	}
	return n, nil
}

// Show emits pre-computed metadata rows for SHOW-family statements not
// already expressed as InformationSchema by the planbuilder (kept separate
// so the driver can special-case text-producing forms like SHOW CREATE
// TABLE).
type Show struct {
	noChildNode
	Kind string
	Rows []sql.Row
	sch  sql.Schema
}

func NewShow(kind string, sch sql.Schema, rows []sql.Row) *Show {
	return &Show{Kind: kind, Rows: rows, sch: sch}
}

func (n *Show) Schema() sql.Schema { return n.sch }
func (n *Show) String() string     { return "Show(" + n.Kind + ")" }
func (n *Show) WithChildren(children ...sql.Node) (sql.Node, error) {
	if len(children) != 0 {
		return nil, sql.ErrInvariantBreach.New("Show takes no children")
	}
	return n, nil
}

// Call invokes a stored procedure (§4.6); the driver resolves ProcName
// against the catalog and drives its body through a fresh ProcedureFrame.
type Call struct {
	noChildNode
	Db       string
	ProcName string
	Args     []sql.Expression
}

func (n *Call) Resolved() bool {
	for _, a := range n.Args {
		if !a.Resolved() {
			return false
		}
	}
	return true
}
func (n *Call) String() string { return "Call(" + n.ProcName + ")" }
func (n *Call) Expressions() []sql.Expression { return n.Args }
func (n *Call) WithExpressions(exprs ...sql.Expression) (sql.Node, error) {
	return &Call{Db: n.Db, ProcName: n.ProcName, Args: exprs}, nil
}
func (n *Call) WithChildren(children ...sql.Node) (sql.Node, error) {
	if len(children) != 0 {
		return nil, sql.ErrInvariantBreach.New("Call takes no children")
	}
	return n, nil
}
