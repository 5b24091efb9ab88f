package planbuilder

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vinedb/vine/sql"
	"github.com/vinedb/vine/sql/ast"
	"github.com/vinedb/vine/sql/expression"
	"github.com/vinedb/vine/sql/types"
)

// literalType infers a Type for a parsed literal value from its Go
// representation, the shape an external Parser is expected to hand back
// for constants (§4.1, §6 Parser).
func literalType(v interface{}) sql.Type {
	switch v.(type) {
	case nil:
		return types.Null
	case bool:
		return types.Boolean
	case int, int8, int16, int32, int64:
		return types.Int64
	case float32, float64:
		return types.Float64
	case decimal.Decimal:
		return types.Decimal
	case string:
		return types.LongText
	default:
		return types.LongText
	}
}

func compareOp(op string) (expression.CompareOp, error) {
	switch strings.ToUpper(op) {
	case "=":
		return expression.EQ, nil
	case "!=", "<>":
		return expression.NEQ, nil
	case "<":
		return expression.LT, nil
	case "<=":
		return expression.LTE, nil
	case ">":
		return expression.GT, nil
	case ">=":
		return expression.GTE, nil
	default:
		return 0, sql.ErrUnsupportedFeature.New("comparison operator " + op)
	}
}

func arithOp(op string) (expression.ArithOp, bool) {
	switch op {
	case "+":
		return expression.Add, true
	case "-":
		return expression.Sub, true
	case "*":
		return expression.Mul, true
	case "/":
		return expression.Div, true
	case "%":
		return expression.Mod, true
	default:
		return 0, false
	}
}

func (b *Builder) buildBinaryOp(s *scope, n *ast.BinaryOp) (sql.Expression, error) {
	left, err := b.buildExpr(s, n.Left)
	if err != nil {
		return nil, err
	}
	right, err := b.buildExpr(s, n.Right)
	if err != nil {
		return nil, err
	}
	op := strings.ToUpper(n.Op)
	switch op {
	case "AND", "&&":
		return expression.NewAnd(left, right), nil
	case "OR", "||":
		return expression.NewOr(left, right), nil
	case "LIKE":
		return expression.NewLike(left, right), nil
	case "NOT LIKE":
		return expression.NewNot(expression.NewLike(left, right)), nil
	}
	if cmp, err := compareOp(n.Op); err == nil {
		return expression.NewComparison(left, right, cmp), nil
	}
	if ar, ok := arithOp(n.Op); ok {
		return expression.NewArithmetic(left, right, ar), nil
	}
	return nil, sql.ErrUnsupportedFeature.New("binary operator " + n.Op)
}

func (b *Builder) buildUnaryOp(s *scope, n *ast.UnaryOp) (sql.Expression, error) {
	child, err := b.buildExpr(s, n.Expr)
	if err != nil {
		return nil, err
	}
	switch strings.ToUpper(n.Op) {
	case "NOT", "!":
		return expression.NewNot(child), nil
	case "-":
		return expression.NewUnaryMinus(child), nil
	case "IS NULL":
		return expression.NewIsNull(child), nil
	case "IS NOT NULL":
		return expression.NewIsNotNull(child), nil
	case "+":
		return child, nil
	default:
		return nil, sql.ErrUnsupportedFeature.New("unary operator " + n.Op)
	}
}

// buildFuncCall resolves name through the function registry and binds Args
// (§4.1, §4.3). Aggregate calls are not rejected here: the select builder's
// aggregate extraction builds them through this same path and relies on
// getting the sql.Aggregation back.
func (b *Builder) buildFuncCall(s *scope, n *ast.FuncCall) (sql.Expression, error) {
	fns := b.functions()
	if fns == nil {
		return nil, sql.ErrUnknownFunction.New(n.Name)
	}
	fn, err := fns.Function(n.Name)
	if err != nil {
		return nil, err
	}
	args := make([]sql.Expression, len(n.Args))
	for i, a := range n.Args {
		if _, ok := a.(*ast.Star); ok {
			args[i] = nil
			continue
		}
		v, err := b.buildExpr(s, a)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	// COUNT(*) is parsed as a zero-arg call by convention; a literal Star
	// argument (if the parser instead emits one) is dropped here too.
	filtered := args[:0]
	for _, a := range args {
		if a != nil {
			filtered = append(filtered, a)
		}
	}
	return fn.NewInstance(filtered)
}
