package expression

import (
	"github.com/vinedb/vine/sql"
	"github.com/vinedb/vine/sql/types"
)

type CompareOp int

const (
	EQ CompareOp = iota
	NEQ
	LT
	LTE
	GT
	GTE
)

// Comparison evaluates to Bool or NULL; NULL propagates whenever either
// side is NULL (§4.1 three-valued logic).
type Comparison struct {
	BinaryExpression
	Op CompareOp
}

func NewComparison(left, right sql.Expression, op CompareOp) *Comparison {
	return &Comparison{BinaryExpression{Left: left, Right: right}, op}
}

func (c *Comparison) Type() sql.Type { return types.Boolean }

func (c *Comparison) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	if len(children) != 2 {
		return nil, sql.ErrInvariantBreach.New("Comparison takes 2 children")
	}
	return NewComparison(children[0], children[1], c.Op), nil
}

func (c *Comparison) String() string {
	sym := map[CompareOp]string{EQ: "=", NEQ: "<>", LT: "<", LTE: "<=", GT: ">", GTE: ">="}
	return c.Left.String() + " " + sym[c.Op] + " " + c.Right.String()
}

func (c *Comparison) Eval(ctx *sql.Context, row sql.Row) (interface{}, error) {
	lv, err := c.Left.Eval(ctx, row)
	if err != nil {
		return nil, err
	}
	rv, err := c.Right.Eval(ctx, row)
	if err != nil {
		return nil, err
	}
	// "Null <> Null for equality (three-valued logic)" (§3): any NULL
	// operand makes every comparison result Null, including equality.
	if lv == nil || rv == nil {
		return nil, nil
	}

	cmpType := comparisonType(c.Left.Type(), c.Right.Type())
	lc, err := cmpType.Convert(lv)
	if err != nil {
		return nil, err
	}
	rc, err := cmpType.Convert(rv)
	if err != nil {
		return nil, err
	}
	cmp, err := cmpType.Compare(lc, rc)
	if err != nil {
		return nil, err
	}
	switch c.Op {
	case EQ:
		return cmp == 0, nil
	case NEQ:
		return cmp != 0, nil
	case LT:
		return cmp < 0, nil
	case LTE:
		return cmp <= 0, nil
	case GT:
		return cmp > 0, nil
	default:
		return cmp >= 0, nil
	}
}

func comparisonType(a, b sql.Type) sql.Type {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	if a.Tag() == b.Tag() {
		return a
	}
	if isNumericTag(a.Tag()) && isNumericTag(b.Tag()) {
		return promote(a, b)
	}
	return types.LongText
}

func isNumericTag(t sql.ValueTag) bool {
	switch t {
	case sql.TagTinyInt, sql.TagSmallInt, sql.TagInt, sql.TagBigInt, sql.TagFloat, sql.TagDouble, sql.TagDecimal, sql.TagBool:
		return true
	default:
		return false
	}
}
