package plan

import "github.com/vinedb/vine/sql"

// Union concatenates Left then Right; without All, deduplicates (§4.2).
type Union struct {
	Left, Right sql.Node
	All         bool
}

func NewUnion(left, right sql.Node, all bool) *Union { return &Union{left, right, all} }

func (n *Union) Schema() sql.Schema   { return n.Left.Schema() }
func (n *Union) Children() []sql.Node { return []sql.Node{n.Left, n.Right} }
func (n *Union) Resolved() bool       { return n.Left.Resolved() && n.Right.Resolved() }
func (n *Union) String() string       { return "Union" }
func (n *Union) WithChildren(children ...sql.Node) (sql.Node, error) {
	if len(children) != 2 {
		return nil, sql.ErrInvariantBreach.New("Union takes 2 children")
	}
	return NewUnion(children[0], children[1], n.All), nil
}

// Intersect emits rows present in both sides; All uses multiset min-count,
// otherwise deduplicates (§4.2).
type Intersect struct {
	Left, Right sql.Node
	All         bool
}

func NewIntersect(left, right sql.Node, all bool) *Intersect { return &Intersect{left, right, all} }

func (n *Intersect) Schema() sql.Schema   { return n.Left.Schema() }
func (n *Intersect) Children() []sql.Node { return []sql.Node{n.Left, n.Right} }
func (n *Intersect) Resolved() bool       { return n.Left.Resolved() && n.Right.Resolved() }
func (n *Intersect) String() string       { return "Intersect" }
func (n *Intersect) WithChildren(children ...sql.Node) (sql.Node, error) {
	if len(children) != 2 {
		return nil, sql.ErrInvariantBreach.New("Intersect takes 2 children")
	}
	return NewIntersect(children[0], children[1], n.All), nil
}

// Except emits rows of Left absent from Right; All subtracts multiset
// counts, otherwise deduplicates (§4.2).
type Except struct {
	Left, Right sql.Node
	All         bool
}

func NewExcept(left, right sql.Node, all bool) *Except { return &Except{left, right, all} }

func (n *Except) Schema() sql.Schema   { return n.Left.Schema() }
func (n *Except) Children() []sql.Node { return []sql.Node{n.Left, n.Right} }
func (n *Except) Resolved() bool       { return n.Left.Resolved() && n.Right.Resolved() }
func (n *Except) String() string       { return "Except" }
func (n *Except) WithChildren(children ...sql.Node) (sql.Node, error) {
	if len(children) != 2 {
		return nil, sql.ErrInvariantBreach.New("Except takes 2 children")
	}
	return NewExcept(children[0], children[1], n.All), nil
}
