package plan

import "github.com/vinedb/vine/sql"

// Distinct deduplicates over the full row (§4.2).
type Distinct struct {
	unaryNode
}

func NewDistinct(child sql.Node) *Distinct { return &Distinct{unaryNode{child}} }

func (n *Distinct) Schema() sql.Schema { return n.Child.Schema() }
func (n *Distinct) Resolved() bool     { return n.Child.Resolved() }
func (n *Distinct) String() string     { return "Distinct" }
func (n *Distinct) WithChildren(children ...sql.Node) (sql.Node, error) {
	c, err := requireOneChild(children)
	if err != nil {
		return nil, err
	}
	return NewDistinct(c), nil
}

// SpillableDistinct has the same semantics but bounds memory by clearing
// its seen-set once a configured threshold of distinct keys is crossed,
// which may re-emit a previously-suppressed row from a later batch.
// Acceptable only when the caller does not require global uniqueness
// (§4.2) — planbuilder reserves this for DISTINCT stages feeding a set
// operation that itself re-deduplicates.
type SpillableDistinct struct {
	unaryNode
	MaxSeenKeys int
}

func NewSpillableDistinct(maxSeenKeys int, child sql.Node) *SpillableDistinct {
	return &SpillableDistinct{unaryNode{child}, maxSeenKeys}
}

func (n *SpillableDistinct) Schema() sql.Schema { return n.Child.Schema() }
func (n *SpillableDistinct) Resolved() bool     { return n.Child.Resolved() }
func (n *SpillableDistinct) String() string     { return "SpillableDistinct" }
func (n *SpillableDistinct) WithChildren(children ...sql.Node) (sql.Node, error) {
	c, err := requireOneChild(children)
	if err != nil {
		return nil, err
	}
	return NewSpillableDistinct(n.MaxSeenKeys, c), nil
}

// Limit skips Offset rows then emits up to Count; either may be zero
// (§4.2). Offset/Count are expressions so a prepared-statement placeholder
// can bind them, but planbuilder typically folds them to literals.
type Limit struct {
	unaryNode
	Count  sql.Expression
	Offset sql.Expression
}

func NewLimit(count, offset sql.Expression, child sql.Node) *Limit {
	return &Limit{unaryNode{child}, count, offset}
}

func (n *Limit) Schema() sql.Schema { return n.Child.Schema() }
func (n *Limit) Resolved() bool {
	if !n.Child.Resolved() || !n.Count.Resolved() {
		return false
	}
	return n.Offset == nil || n.Offset.Resolved()
}
func (n *Limit) String() string { return "Limit" }
func (n *Limit) WithChildren(children ...sql.Node) (sql.Node, error) {
	c, err := requireOneChild(children)
	if err != nil {
		return nil, err
	}
	return NewLimit(n.Count, n.Offset, c), nil
}
