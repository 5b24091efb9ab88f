package expression

import (
	"fmt"

	"github.com/vinedb/vine/sql"
)

// Literal is a constant leaf (§4.1).
type Literal struct {
	value interface{}
	typ   sql.Type
}

// NewLiteral returns a constant-valued expression of the given type.
func NewLiteral(value interface{}, typ sql.Type) *Literal {
	return &Literal{value: value, typ: typ}
}

func (l *Literal) Type() sql.Type { return l.typ }
func (l *Literal) Resolved() bool { return true }
func (l *Literal) Children() []sql.Expression { return nil }
func (l *Literal) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	if len(children) != 0 {
		return nil, sql.ErrInvariantBreach.New("Literal takes no children")
	}
	return l, nil
}
func (l *Literal) Eval(ctx *sql.Context, row sql.Row) (interface{}, error) {
	return l.value, nil
}
func (l *Literal) String() string {
	if l.value == nil {
		return "NULL"
	}
	if s, ok := l.value.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	return fmt.Sprintf("%v", l.value)
}

// Value returns the literal's constant value, used by builders that need to
// inspect literals structurally (e.g. LIMIT/OFFSET counts).
func (l *Literal) Value() interface{} { return l.value }
