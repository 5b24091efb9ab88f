package expression

import (
	"github.com/shopspring/decimal"

	"github.com/vinedb/vine/sql"
	"github.com/vinedb/vine/sql/types"
)

// ArithOp is one of +, -, *, /, %.
type ArithOp int

const (
	Add ArithOp = iota
	Sub
	Mul
	Div
	Mod
)

// Arithmetic is a binary arithmetic expression. Arithmetic with any NULL
// operand yields NULL; otherwise both operands are promoted to the wider of
// {Int, BigInt, Float, Double, Decimal} before computing (§4.1).
type Arithmetic struct {
	BinaryExpression
	Op ArithOp
}

func NewArithmetic(left, right sql.Expression, op ArithOp) *Arithmetic {
	return &Arithmetic{BinaryExpression{Left: left, Right: right}, op}
}

// Type returns the promoted result type of the two operands.
func (a *Arithmetic) Type() sql.Type {
	return promote(a.Left.Type(), a.Right.Type())
}

func promote(a, b sql.Type) sql.Type {
	if isDecimalType(a) || isDecimalType(b) {
		return types.Decimal
	}
	if isFloatType(a) || isFloatType(b) {
		return types.Float64
	}
	return types.Int64
}

func isDecimalType(t sql.Type) bool {
	return t != nil && t.Tag() == sql.TagDecimal
}
func isFloatType(t sql.Type) bool {
	return t != nil && (t.Tag() == sql.TagFloat || t.Tag() == sql.TagDouble)
}

func (a *Arithmetic) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	if len(children) != 2 {
		return nil, sql.ErrInvariantBreach.New("Arithmetic takes 2 children")
	}
	return NewArithmetic(children[0], children[1], a.Op), nil
}

func (a *Arithmetic) String() string {
	return a.Left.String() + " " + opSymbol(a.Op) + " " + a.Right.String()
}

func opSymbol(op ArithOp) string {
	switch op {
	case Add:
		return "+"
	case Sub:
		return "-"
	case Mul:
		return "*"
	case Div:
		return "/"
	default:
		return "%"
	}
}

func (a *Arithmetic) Eval(ctx *sql.Context, row sql.Row) (interface{}, error) {
	lv, err := a.Left.Eval(ctx, row)
	if err != nil {
		return nil, err
	}
	if lv == nil {
		return nil, nil
	}
	rv, err := a.Right.Eval(ctx, row)
	if err != nil {
		return nil, err
	}
	if rv == nil {
		return nil, nil
	}

	result := a.Type()
	if isDecimalType(result) {
		ld, err := toDecimal(lv)
		if err != nil {
			return nil, err
		}
		rd, err := toDecimal(rv)
		if err != nil {
			return nil, err
		}
		switch a.Op {
		case Add:
			return ld.Add(rd), nil
		case Sub:
			return ld.Sub(rd), nil
		case Mul:
			return ld.Mul(rd), nil
		case Div:
			if rd.IsZero() {
				return nil, nil
			}
			return ld.Div(rd), nil
		default:
			if rd.IsZero() {
				return nil, nil
			}
			return ld.Mod(rd), nil
		}
	}
	if isFloatType(result) {
		lf, err := toFloat64(lv)
		if err != nil {
			return nil, err
		}
		rf, err := toFloat64(rv)
		if err != nil {
			return nil, err
		}
		switch a.Op {
		case Add:
			return lf + rf, nil
		case Sub:
			return lf - rf, nil
		case Mul:
			return lf * rf, nil
		case Div:
			if rf == 0 {
				return nil, nil
			}
			return lf / rf, nil
		default:
			if rf == 0 {
				return nil, nil
			}
			return float64(int64(lf) % int64(rf)), nil
		}
	}
	li, err := toInt64(lv)
	if err != nil {
		return nil, err
	}
	ri, err := toInt64(rv)
	if err != nil {
		return nil, err
	}
	switch a.Op {
	case Add:
		return checkedAdd(li, ri)
	case Sub:
		return checkedSub(li, ri)
	case Mul:
		return checkedMul(li, ri)
	case Div:
		if ri == 0 {
			return nil, nil
		}
		if ri == -1 {
			return checkedSub(0, li)
		}
		if li%ri == 0 {
			return li / ri, nil
		}
		return float64(li) / float64(ri), nil
	default:
		if ri == 0 {
			return nil, nil
		}
		return li % ri, nil
	}
}

func checkedAdd(a, b int64) (interface{}, error) {
	r := a + b
	if (b > 0 && r < a) || (b < 0 && r > a) {
		return nil, sql.ErrOverflow.New(a, "BIGINT")
	}
	return r, nil
}

func checkedSub(a, b int64) (interface{}, error) {
	r := a - b
	if (b > 0 && r > a) || (b < 0 && r < a) {
		return nil, sql.ErrOverflow.New(a, "BIGINT")
	}
	return r, nil
}

func checkedMul(a, b int64) (interface{}, error) {
	if a == 0 || b == 0 {
		return int64(0), nil
	}
	r := a * b
	if r/b != a || (b == -1 && r == a) {
		return nil, sql.ErrOverflow.New(a, "BIGINT")
	}
	return r, nil
}

func toDecimal(v interface{}) (decimal.Decimal, error) {
	switch n := v.(type) {
	case decimal.Decimal:
		return n, nil
	case int64:
		return decimal.NewFromInt(n), nil
	case float64:
		return decimal.NewFromFloat(n), nil
	case string:
		return decimal.NewFromString(n)
	default:
		return decimal.Zero, sql.ErrNonNumericOperand.New(v)
	}
}

func toFloat64(v interface{}) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case int:
		return float64(n), nil
	case decimal.Decimal:
		f, _ := n.Float64()
		return f, nil
	default:
		return 0, sql.ErrNonNumericOperand.New(v)
	}
}

func toInt64(v interface{}) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int32:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case int:
		return int64(n), nil
	case float64:
		return int64(n), nil
	default:
		return 0, sql.ErrNonNumericOperand.New(v)
	}
}

// UnaryMinus negates its operand.
type UnaryMinus struct {
	UnaryExpression
}

func NewUnaryMinus(child sql.Expression) *UnaryMinus {
	return &UnaryMinus{UnaryExpression{Child: child}}
}

func (u *UnaryMinus) Type() sql.Type { return u.Child.Type() }
func (u *UnaryMinus) String() string { return "-" + u.Child.String() }
func (u *UnaryMinus) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	if len(children) != 1 {
		return nil, sql.ErrInvariantBreach.New("UnaryMinus takes 1 child")
	}
	return NewUnaryMinus(children[0]), nil
}
func (u *UnaryMinus) Eval(ctx *sql.Context, row sql.Row) (interface{}, error) {
	v, err := u.Child.Eval(ctx, row)
	if err != nil || v == nil {
		return nil, err
	}
	switch n := v.(type) {
	case int64:
		return -n, nil
	case float64:
		return -n, nil
	case decimal.Decimal:
		return n.Neg(), nil
	default:
		return nil, sql.ErrNonNumericOperand.New(v)
	}
}
