package function

import (
	"github.com/vinedb/vine/sql"
	"github.com/vinedb/vine/sql/types"
)

func registerMiscFunctions(r *Registry) {
	r.Register(&coalesceFunc{})
	r.Register(&ifFunc{})
	r.Register(&ifnullFunc{})
	r.Register(&nullifFunc{})
	r.Register(&greatestFunc{})
	r.Register(&leastFunc{})
}

// coalesceFunc returns the first non-NULL argument, or NULL if all are.
type coalesceFunc struct{ args []sql.Expression }

func (f *coalesceFunc) FunctionName() string { return "coalesce" }
func (f *coalesceFunc) NewInstance(args []sql.Expression) (sql.Expression, error) {
	if len(args) == 0 {
		return nil, sql.ErrInvalidArgumentCount.New("coalesce", "at least 1", 0)
	}
	return &coalesceFunc{args: args}, nil
}
func (f *coalesceFunc) Type() sql.Type { return f.args[0].Type() }
func (f *coalesceFunc) Resolved() bool {
	for _, a := range f.args {
		if !a.Resolved() {
			return false
		}
	}
	return true
}
func (f *coalesceFunc) Children() []sql.Expression { return f.args }
func (f *coalesceFunc) String() string              { return "coalesce(...)" }
func (f *coalesceFunc) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	if len(children) == 0 {
		return nil, sql.ErrInvariantBreach.New("coalesce takes at least 1 child")
	}
	return &coalesceFunc{args: children}, nil
}
func (f *coalesceFunc) Eval(ctx *sql.Context, row sql.Row) (interface{}, error) {
	for _, a := range f.args {
		v, err := a.Eval(ctx, row)
		if err != nil {
			return nil, err
		}
		if v != nil {
			return v, nil
		}
	}
	return nil, nil
}

// ifFunc implements IF(cond, then, else).
type ifFunc struct{ cond, then, els sql.Expression }

func (f *ifFunc) FunctionName() string { return "if" }
func (f *ifFunc) NewInstance(args []sql.Expression) (sql.Expression, error) {
	if len(args) != 3 {
		return nil, sql.ErrInvalidArgumentCount.New("if", "3", len(args))
	}
	return &ifFunc{cond: args[0], then: args[1], els: args[2]}, nil
}
func (f *ifFunc) Type() sql.Type            { return f.then.Type() }
func (f *ifFunc) Resolved() bool            { return f.cond.Resolved() && f.then.Resolved() && f.els.Resolved() }
func (f *ifFunc) Children() []sql.Expression { return []sql.Expression{f.cond, f.then, f.els} }
func (f *ifFunc) String() string             { return "if(" + f.cond.String() + ", " + f.then.String() + ", " + f.els.String() + ")" }
func (f *ifFunc) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	if len(children) != 3 {
		return nil, sql.ErrInvariantBreach.New("if takes 3 children")
	}
	return &ifFunc{cond: children[0], then: children[1], els: children[2]}, nil
}
func (f *ifFunc) Eval(ctx *sql.Context, row sql.Row) (interface{}, error) {
	cv, err := f.cond.Eval(ctx, row)
	if err != nil {
		return nil, err
	}
	if b, ok := cv.(bool); ok && b {
		return f.then.Eval(ctx, row)
	}
	return f.els.Eval(ctx, row)
}

// ifnullFunc implements IFNULL(expr, default).
type ifnullFunc struct{ expr, def sql.Expression }

func (f *ifnullFunc) FunctionName() string { return "ifnull" }
func (f *ifnullFunc) NewInstance(args []sql.Expression) (sql.Expression, error) {
	if len(args) != 2 {
		return nil, sql.ErrInvalidArgumentCount.New("ifnull", "2", len(args))
	}
	return &ifnullFunc{expr: args[0], def: args[1]}, nil
}
func (f *ifnullFunc) Type() sql.Type            { return f.expr.Type() }
func (f *ifnullFunc) Resolved() bool            { return f.expr.Resolved() && f.def.Resolved() }
func (f *ifnullFunc) Children() []sql.Expression { return []sql.Expression{f.expr, f.def} }
func (f *ifnullFunc) String() string             { return "ifnull(" + f.expr.String() + ", " + f.def.String() + ")" }
func (f *ifnullFunc) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	if len(children) != 2 {
		return nil, sql.ErrInvariantBreach.New("ifnull takes 2 children")
	}
	return &ifnullFunc{expr: children[0], def: children[1]}, nil
}
func (f *ifnullFunc) Eval(ctx *sql.Context, row sql.Row) (interface{}, error) {
	v, err := f.expr.Eval(ctx, row)
	if err != nil {
		return nil, err
	}
	if v != nil {
		return v, nil
	}
	return f.def.Eval(ctx, row)
}

// nullifFunc implements NULLIF(a, b): NULL if a equals b, else a.
type nullifFunc struct{ a, b sql.Expression }

func (f *nullifFunc) FunctionName() string { return "nullif" }
func (f *nullifFunc) NewInstance(args []sql.Expression) (sql.Expression, error) {
	if len(args) != 2 {
		return nil, sql.ErrInvalidArgumentCount.New("nullif", "2", len(args))
	}
	return &nullifFunc{a: args[0], b: args[1]}, nil
}
func (f *nullifFunc) Type() sql.Type            { return f.a.Type() }
func (f *nullifFunc) Resolved() bool            { return f.a.Resolved() && f.b.Resolved() }
func (f *nullifFunc) Children() []sql.Expression { return []sql.Expression{f.a, f.b} }
func (f *nullifFunc) String() string             { return "nullif(" + f.a.String() + ", " + f.b.String() + ")" }
func (f *nullifFunc) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	if len(children) != 2 {
		return nil, sql.ErrInvariantBreach.New("nullif takes 2 children")
	}
	return &nullifFunc{a: children[0], b: children[1]}, nil
}
func (f *nullifFunc) Eval(ctx *sql.Context, row sql.Row) (interface{}, error) {
	av, err := f.a.Eval(ctx, row)
	if err != nil || av == nil {
		return av, err
	}
	bv, err := f.b.Eval(ctx, row)
	if err != nil {
		return nil, err
	}
	if bv == nil {
		return av, nil
	}
	t := f.a.Type()
	ac, err := t.Convert(av)
	if err != nil {
		return nil, err
	}
	bc, err := t.Convert(bv)
	if err != nil {
		return nil, err
	}
	cmp, err := t.Compare(ac, bc)
	if err != nil {
		return nil, err
	}
	if cmp == 0 {
		return nil, nil
	}
	return av, nil
}

type greatestFunc struct{ args []sql.Expression }

func (f *greatestFunc) FunctionName() string { return "greatest" }
func (f *greatestFunc) NewInstance(args []sql.Expression) (sql.Expression, error) {
	if len(args) < 2 {
		return nil, sql.ErrInvalidArgumentCount.New("greatest", "at least 2", len(args))
	}
	return &greatestFunc{args: args}, nil
}
func (f *greatestFunc) Type() sql.Type { return types.Float64 }
func (f *greatestFunc) Resolved() bool {
	for _, a := range f.args {
		if !a.Resolved() {
			return false
		}
	}
	return true
}
func (f *greatestFunc) Children() []sql.Expression { return f.args }
func (f *greatestFunc) String() string              { return "greatest(...)" }
func (f *greatestFunc) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	return &greatestFunc{args: children}, nil
}
func (f *greatestFunc) Eval(ctx *sql.Context, row sql.Row) (interface{}, error) {
	return extremum(ctx, row, f.args, true)
}

type leastFunc struct{ args []sql.Expression }

func (f *leastFunc) FunctionName() string { return "least" }
func (f *leastFunc) NewInstance(args []sql.Expression) (sql.Expression, error) {
	if len(args) < 2 {
		return nil, sql.ErrInvalidArgumentCount.New("least", "at least 2", len(args))
	}
	return &leastFunc{args: args}, nil
}
func (f *leastFunc) Type() sql.Type { return types.Float64 }
func (f *leastFunc) Resolved() bool {
	for _, a := range f.args {
		if !a.Resolved() {
			return false
		}
	}
	return true
}
func (f *leastFunc) Children() []sql.Expression { return f.args }
func (f *leastFunc) String() string              { return "least(...)" }
func (f *leastFunc) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	return &leastFunc{args: children}, nil
}
func (f *leastFunc) Eval(ctx *sql.Context, row sql.Row) (interface{}, error) {
	return extremum(ctx, row, f.args, false)
}

func extremum(ctx *sql.Context, row sql.Row, args []sql.Expression, greatest bool) (interface{}, error) {
	var best interface{}
	var bestFloat float64
	for i, a := range args {
		v, err := a.Eval(ctx, row)
		if err != nil {
			return nil, err
		}
		if v == nil {
			return nil, nil
		}
		f, err := toFloatArg(v)
		if err != nil {
			return nil, err
		}
		if i == 0 || (greatest && f > bestFloat) || (!greatest && f < bestFloat) {
			best, bestFloat = v, f
		}
	}
	return best, nil
}
