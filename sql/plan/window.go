package plan

import (
	"github.com/vinedb/vine/sql"
	"github.com/vinedb/vine/sql/types"
)

// WindowFuncKind enumerates the window functions §4.3 specifies.
type WindowFuncKind int

const (
	RowNumber WindowFuncKind = iota
	Rank
	DenseRank
	Ntile
	Lag
	Lead
	FirstValue
	LastValue
	NthValue
	CumeDist
	PercentRank
	WindowSum
	WindowAvg
	WindowMin
	WindowMax
	WindowCount
)

// WindowFuncSpec is one declared window-function reference: a kind, its
// partition/sort keys, and optional literal arguments (offset for LAG/LEAD,
// n for NTILE/NTH_VALUE, the aggregated expression for SUM/AVG/MIN/MAX/
// COUNT OVER) (§4.3).
type WindowFuncSpec struct {
	Kind        WindowFuncKind
	Arg         sql.Expression // the value expression, where applicable
	Offset      int64          // LAG/LEAD
	Default     sql.Expression // LAG/LEAD default
	N           int64          // NTILE bucket count / NTH_VALUE position
	PartitionBy []sql.Expression
	OrderBy     []SortField
	HasOrderBy  bool // SUM/AVG/MIN/MAX/COUNT: whole-partition vs running
	Name        string
}

// Window buffers the full input, then computes one output column per
// declared window-function specification, appended after the input schema
// in declaration order (§4.3).
type Window struct {
	unaryNode
	Funcs []WindowFuncSpec
}

func NewWindow(funcs []WindowFuncSpec, child sql.Node) *Window {
	return &Window{unaryNode{child}, funcs}
}

func (n *Window) Schema() sql.Schema {
	sch := append(sql.Schema{}, n.Child.Schema()...)
	for _, f := range n.Funcs {
		sch = append(sch, &sql.Column{Name: f.Name, Type: windowFuncType(f), Nullable: true})
	}
	return sch
}

func windowFuncType(f WindowFuncSpec) sql.Type {
	switch f.Kind {
	case RowNumber, Rank, DenseRank, Ntile, WindowCount:
		return types.Int64
	case CumeDist, PercentRank:
		return types.Float64
	default:
		if f.Arg != nil {
			return f.Arg.Type()
		}
		return types.Float64
	}
}

func (n *Window) Resolved() bool {
	if !n.Child.Resolved() {
		return false
	}
	for _, f := range n.Funcs {
		if f.Arg != nil && !f.Arg.Resolved() {
			return false
		}
		for _, p := range f.PartitionBy {
			if !p.Resolved() {
				return false
			}
		}
	}
	return true
}
func (n *Window) String() string { return "Window" }
func (n *Window) WithChildren(children ...sql.Node) (sql.Node, error) {
	c, err := requireOneChild(children)
	if err != nil {
		return nil, err
	}
	return NewWindow(n.Funcs, c), nil
}
