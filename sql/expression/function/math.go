package function

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/vinedb/vine/sql"
	"github.com/vinedb/vine/sql/types"
)

func registerMathFunctions(r *Registry) {
	r.Register(numFn("abs", func(f float64) float64 { return math.Abs(f) }))
	r.Register(numFn("ceil", func(f float64) float64 { return math.Ceil(f) }))
	r.Register(numFn("ceiling", func(f float64) float64 { return math.Ceil(f) }))
	r.Register(numFn("floor", func(f float64) float64 { return math.Floor(f) }))
	r.Register(numFn("sqrt", func(f float64) float64 { return math.Sqrt(f) }))
	r.Register(numFn("exp", func(f float64) float64 { return math.Exp(f) }))
	r.Register(numFn("ln", func(f float64) float64 { return math.Log(f) }))
	r.Register(numFn("log2", func(f float64) float64 { return math.Log2(f) }))
	r.Register(numFn("log10", func(f float64) float64 { return math.Log10(f) }))
	r.Register(numFn("sin", math.Sin))
	r.Register(numFn("cos", math.Cos))
	r.Register(numFn("tan", math.Tan))
	r.Register(&powFunc{})
	r.Register(&roundFunc{})
	r.Register(&modFunc{})
}

type mathFn1 struct {
	name string
	arg  sql.Expression
	fn   func(float64) float64
}

type mathFnDescriptor struct {
	name string
	fn   func(float64) float64
}

func numFn(name string, fn func(float64) float64) *mathFnDescriptor {
	return &mathFnDescriptor{name: name, fn: fn}
}

func (d *mathFnDescriptor) FunctionName() string { return d.name }
func (d *mathFnDescriptor) NewInstance(args []sql.Expression) (sql.Expression, error) {
	if len(args) != 1 {
		return nil, sql.ErrInvalidArgumentCount.New(d.name, "1", len(args))
	}
	return &mathFn1{name: d.name, arg: args[0], fn: d.fn}, nil
}

func (f *mathFn1) Type() sql.Type            { return types.Float64 }
func (f *mathFn1) Resolved() bool            { return f.arg.Resolved() }
func (f *mathFn1) Children() []sql.Expression { return []sql.Expression{f.arg} }
func (f *mathFn1) String() string             { return f.name + "(" + f.arg.String() + ")" }
func (f *mathFn1) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	if len(children) != 1 {
		return nil, sql.ErrInvariantBreach.New(f.name + " takes 1 child")
	}
	return &mathFn1{name: f.name, arg: children[0], fn: f.fn}, nil
}
func (f *mathFn1) Eval(ctx *sql.Context, row sql.Row) (interface{}, error) {
	v, err := f.arg.Eval(ctx, row)
	if err != nil || v == nil {
		return nil, err
	}
	n, err := toFloatArg(v)
	if err != nil {
		return nil, err
	}
	return f.fn(n), nil
}

func toFloatArg(v interface{}) (float64, error) {
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

type powFunc struct{ base, exp sql.Expression }

func (f *powFunc) FunctionName() string { return "pow" }
func (f *powFunc) NewInstance(args []sql.Expression) (sql.Expression, error) {
	if len(args) != 2 {
		return nil, sql.ErrInvalidArgumentCount.New("pow", "2", len(args))
	}
	return &powFunc{base: args[0], exp: args[1]}, nil
}
func (f *powFunc) Type() sql.Type            { return types.Float64 }
func (f *powFunc) Resolved() bool            { return f.base.Resolved() && f.exp.Resolved() }
func (f *powFunc) Children() []sql.Expression { return []sql.Expression{f.base, f.exp} }
func (f *powFunc) String() string             { return "pow(" + f.base.String() + ", " + f.exp.String() + ")" }
func (f *powFunc) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	if len(children) != 2 {
		return nil, sql.ErrInvariantBreach.New("pow takes 2 children")
	}
	return &powFunc{base: children[0], exp: children[1]}, nil
}
func (f *powFunc) Eval(ctx *sql.Context, row sql.Row) (interface{}, error) {
	bv, err := f.base.Eval(ctx, row)
	if err != nil || bv == nil {
		return nil, err
	}
	ev, err := f.exp.Eval(ctx, row)
	if err != nil || ev == nil {
		return nil, err
	}
	b, err := toFloatArg(bv)
	if err != nil {
		return nil, err
	}
	e, err := toFloatArg(ev)
	if err != nil {
		return nil, err
	}
	return math.Pow(b, e), nil
}

type roundFunc struct {
	val   sql.Expression
	prec  sql.Expression
}

func (f *roundFunc) FunctionName() string { return "round" }
func (f *roundFunc) NewInstance(args []sql.Expression) (sql.Expression, error) {
	if len(args) != 1 && len(args) != 2 {
		return nil, sql.ErrInvalidArgumentCount.New("round", "1 or 2", len(args))
	}
	f2 := &roundFunc{val: args[0]}
	if len(args) == 2 {
		f2.prec = args[1]
	}
	return f2, nil
}
func (f *roundFunc) Type() sql.Type { return types.Float64 }
func (f *roundFunc) Resolved() bool {
	if !f.val.Resolved() {
		return false
	}
	return f.prec == nil || f.prec.Resolved()
}
func (f *roundFunc) Children() []sql.Expression {
	if f.prec != nil {
		return []sql.Expression{f.val, f.prec}
	}
	return []sql.Expression{f.val}
}
func (f *roundFunc) String() string { return "round(" + f.val.String() + ")" }
func (f *roundFunc) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	f2 := &roundFunc{val: children[0]}
	if len(children) == 2 {
		f2.prec = children[1]
	}
	return f2, nil
}
func (f *roundFunc) Eval(ctx *sql.Context, row sql.Row) (interface{}, error) {
	vv, err := f.val.Eval(ctx, row)
	if err != nil || vv == nil {
		return nil, err
	}
	v, err := toFloatArg(vv)
	if err != nil {
		return nil, err
	}
	prec := 0
	if f.prec != nil {
		pv, err := f.prec.Eval(ctx, row)
		if err != nil {
			return nil, err
		}
		if pv != nil {
			p, err := toInt(pv)
			if err != nil {
				return nil, err
			}
			prec = int(p)
		}
	}
	mult := math.Pow(10, float64(prec))
	return math.Round(v*mult) / mult, nil
}

type modFunc struct{ left, right sql.Expression }

func (f *modFunc) FunctionName() string { return "mod" }
func (f *modFunc) NewInstance(args []sql.Expression) (sql.Expression, error) {
	if len(args) != 2 {
		return nil, sql.ErrInvalidArgumentCount.New("mod", "2", len(args))
	}
	return &modFunc{left: args[0], right: args[1]}, nil
}
func (f *modFunc) Type() sql.Type            { return types.Float64 }
func (f *modFunc) Resolved() bool            { return f.left.Resolved() && f.right.Resolved() }
func (f *modFunc) Children() []sql.Expression { return []sql.Expression{f.left, f.right} }
func (f *modFunc) String() string             { return "mod(" + f.left.String() + ", " + f.right.String() + ")" }
func (f *modFunc) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	if len(children) != 2 {
		return nil, sql.ErrInvariantBreach.New("mod takes 2 children")
	}
	return &modFunc{left: children[0], right: children[1]}, nil
}
func (f *modFunc) Eval(ctx *sql.Context, row sql.Row) (interface{}, error) {
	lv, err := f.left.Eval(ctx, row)
	if err != nil || lv == nil {
		return nil, err
	}
	rv, err := f.right.Eval(ctx, row)
	if err != nil || rv == nil {
		return nil, err
	}
	l, err := toFloatArg(lv)
	if err != nil {
		return nil, err
	}
	rt, err := toFloatArg(rv)
	if err != nil {
		return nil, err
	}
	if rt == 0 {
		return nil, nil
	}
	return math.Mod(l, rt), nil
}
