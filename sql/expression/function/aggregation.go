package function

import (
	"strconv"
	"strings"

	"github.com/mitchellh/hashstructure"
	"github.com/shopspring/decimal"

	"github.com/vinedb/vine/sql"
	"github.com/vinedb/vine/sql/types"
)

func registerAggregateFunctions(r *Registry) {
	r.Register(&countFunc{})
	r.Register(&sumFunc{})
	r.Register(&avgFunc{})
	r.Register(&minMaxFunc{name: "min", max: false})
	r.Register(&minMaxFunc{name: "max", max: true})
	r.Register(&groupConcatFunc{})
}

// countFunc implements COUNT(expr) and COUNT(*) (Arg == nil). COUNT never
// yields NULL; it counts rows where Arg evaluates non-NULL, or every row for
// COUNT(*) (§4.3).
type countFunc struct {
	arg      sql.Expression
	distinct bool
}

func (f *countFunc) FunctionName() string { return "count" }
func (f *countFunc) NewInstance(args []sql.Expression) (sql.Expression, error) {
	if len(args) > 1 {
		return nil, sql.ErrInvalidArgumentCount.New("count", "0 or 1", len(args))
	}
	f2 := &countFunc{}
	if len(args) == 1 {
		f2.arg = args[0]
	}
	return f2, nil
}
func (f *countFunc) Type() sql.Type { return types.Int64 }
func (f *countFunc) Resolved() bool { return f.arg == nil || f.arg.Resolved() }
func (f *countFunc) Children() []sql.Expression {
	if f.arg == nil {
		return nil
	}
	return []sql.Expression{f.arg}
}
func (f *countFunc) String() string {
	if f.arg == nil {
		return "count(*)"
	}
	return "count(" + f.arg.String() + ")"
}
func (f *countFunc) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	if len(children) == 0 {
		return &countFunc{distinct: f.distinct}, nil
	}
	return &countFunc{arg: children[0], distinct: f.distinct}, nil
}
func (f *countFunc) Eval(ctx *sql.Context, row sql.Row) (interface{}, error) {
	return nil, sql.ErrInvalidAggregate.New("count")
}
func (f *countFunc) NewAccumulator() sql.Accumulator {
	return &countAccumulator{fn: f, seen: make(map[string]bool)}
}

type countAccumulator struct {
	fn    *countFunc
	count int64
	seen  map[string]bool
}

func (a *countAccumulator) Update(ctx *sql.Context, row sql.Row) error {
	if a.fn.arg == nil {
		a.count++
		return nil
	}
	v, err := a.fn.arg.Eval(ctx, row)
	if err != nil || v == nil {
		return err
	}
	if a.fn.distinct {
		key, err := distinctKey(v)
		if err != nil {
			return err
		}
		if a.seen[key] {
			return nil
		}
		a.seen[key] = true
	}
	a.count++
	return nil
}
func (a *countAccumulator) Eval(ctx *sql.Context) (interface{}, error) { return a.count, nil }

// distinctKey derives a comparable map key for the COUNT accumulator's
// distinct-value set via a structural hash (§4.3).
func distinctKey(v interface{}) (string, error) {
	h, err := hashstructure.Hash(v, nil)
	if err != nil {
		return "", err
	}
	return strconv.FormatUint(h, 16), nil
}

// sumFunc implements SUM(expr), widening to Decimal to avoid precision
// loss, matching Arithmetic's promotion rule (§4.1, §4.3).
type sumFunc struct{ arg sql.Expression }

func (f *sumFunc) FunctionName() string { return "sum" }
func (f *sumFunc) NewInstance(args []sql.Expression) (sql.Expression, error) {
	if len(args) != 1 {
		return nil, sql.ErrInvalidArgumentCount.New("sum", "1", len(args))
	}
	return &sumFunc{arg: args[0]}, nil
}
func (f *sumFunc) Type() sql.Type            { return types.Decimal }
func (f *sumFunc) Resolved() bool            { return f.arg.Resolved() }
func (f *sumFunc) Children() []sql.Expression { return []sql.Expression{f.arg} }
func (f *sumFunc) String() string             { return "sum(" + f.arg.String() + ")" }
func (f *sumFunc) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	if len(children) != 1 {
		return nil, sql.ErrInvariantBreach.New("sum takes 1 child")
	}
	return &sumFunc{arg: children[0]}, nil
}
func (f *sumFunc) Eval(ctx *sql.Context, row sql.Row) (interface{}, error) {
	return nil, sql.ErrInvalidAggregate.New("sum")
}
func (f *sumFunc) NewAccumulator() sql.Accumulator {
	return &sumAccumulator{arg: f.arg}
}

type sumAccumulator struct {
	arg  sql.Expression
	sum  decimal.Decimal
	seen bool
}

func (a *sumAccumulator) Update(ctx *sql.Context, row sql.Row) error {
	v, err := a.arg.Eval(ctx, row)
	if err != nil || v == nil {
		return err
	}
	d, err := toDecimalArg(v)
	if err != nil {
		return err
	}
	a.sum = a.sum.Add(d)
	a.seen = true
	return nil
}
func (a *sumAccumulator) Eval(ctx *sql.Context) (interface{}, error) {
	if !a.seen {
		return nil, nil
	}
	return a.sum, nil
}

func toDecimalArg(v interface{}) (decimal.Decimal, error) {
	switch n := v.(type) {
	case decimal.Decimal:
		return n, nil
	case int64:
		return decimal.NewFromInt(n), nil
	case float64:
		return decimal.NewFromFloat(n), nil
	default:
		return decimal.Zero, sql.ErrNonNumericOperand.New(v)
	}
}

// avgFunc implements AVG(expr) as sum/count over non-NULL values.
type avgFunc struct{ arg sql.Expression }

func (f *avgFunc) FunctionName() string { return "avg" }
func (f *avgFunc) NewInstance(args []sql.Expression) (sql.Expression, error) {
	if len(args) != 1 {
		return nil, sql.ErrInvalidArgumentCount.New("avg", "1", len(args))
	}
	return &avgFunc{arg: args[0]}, nil
}
func (f *avgFunc) Type() sql.Type            { return types.Decimal }
func (f *avgFunc) Resolved() bool            { return f.arg.Resolved() }
func (f *avgFunc) Children() []sql.Expression { return []sql.Expression{f.arg} }
func (f *avgFunc) String() string             { return "avg(" + f.arg.String() + ")" }
func (f *avgFunc) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	if len(children) != 1 {
		return nil, sql.ErrInvariantBreach.New("avg takes 1 child")
	}
	return &avgFunc{arg: children[0]}, nil
}
func (f *avgFunc) Eval(ctx *sql.Context, row sql.Row) (interface{}, error) {
	return nil, sql.ErrInvalidAggregate.New("avg")
}
func (f *avgFunc) NewAccumulator() sql.Accumulator {
	return &avgAccumulator{arg: f.arg}
}

type avgAccumulator struct {
	arg   sql.Expression
	sum   decimal.Decimal
	count int64
}

func (a *avgAccumulator) Update(ctx *sql.Context, row sql.Row) error {
	v, err := a.arg.Eval(ctx, row)
	if err != nil || v == nil {
		return err
	}
	d, err := toDecimalArg(v)
	if err != nil {
		return err
	}
	a.sum = a.sum.Add(d)
	a.count++
	return nil
}
func (a *avgAccumulator) Eval(ctx *sql.Context) (interface{}, error) {
	if a.count == 0 {
		return nil, nil
	}
	return a.sum.Div(decimal.NewFromInt(a.count)), nil
}

// minMaxFunc implements MIN(expr)/MAX(expr).
type minMaxFunc struct {
	name string
	arg  sql.Expression
	max  bool
}

func (f *minMaxFunc) FunctionName() string { return f.name }
func (f *minMaxFunc) NewInstance(args []sql.Expression) (sql.Expression, error) {
	if len(args) != 1 {
		return nil, sql.ErrInvalidArgumentCount.New(f.name, "1", len(args))
	}
	return &minMaxFunc{name: f.name, arg: args[0], max: f.max}, nil
}
func (f *minMaxFunc) Type() sql.Type            { return f.arg.Type() }
func (f *minMaxFunc) Resolved() bool            { return f.arg.Resolved() }
func (f *minMaxFunc) Children() []sql.Expression { return []sql.Expression{f.arg} }
func (f *minMaxFunc) String() string             { return f.name + "(" + f.arg.String() + ")" }
func (f *minMaxFunc) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	if len(children) != 1 {
		return nil, sql.ErrInvariantBreach.New(f.name + " takes 1 child")
	}
	return &minMaxFunc{name: f.name, arg: children[0], max: f.max}, nil
}
func (f *minMaxFunc) Eval(ctx *sql.Context, row sql.Row) (interface{}, error) {
	return nil, sql.ErrInvalidAggregate.New(f.name)
}
func (f *minMaxFunc) NewAccumulator() sql.Accumulator {
	return &minMaxAccumulator{arg: f.arg, typ: f.arg.Type(), max: f.max}
}

type minMaxAccumulator struct {
	arg     sql.Expression
	typ     sql.Type
	max     bool
	best    interface{}
	hasSeen bool
}

func (a *minMaxAccumulator) Update(ctx *sql.Context, row sql.Row) error {
	v, err := a.arg.Eval(ctx, row)
	if err != nil || v == nil {
		return err
	}
	if !a.hasSeen {
		a.best, a.hasSeen = v, true
		return nil
	}
	cmp, err := a.typ.Compare(v, a.best)
	if err != nil {
		return err
	}
	if (a.max && cmp > 0) || (!a.max && cmp < 0) {
		a.best = v
	}
	return nil
}
func (a *minMaxAccumulator) Eval(ctx *sql.Context) (interface{}, error) {
	if !a.hasSeen {
		return nil, nil
	}
	return a.best, nil
}

// groupConcatFunc implements GROUP_CONCAT(expr [SEPARATOR sep]), defaulting
// to a comma separator.
type groupConcatFunc struct {
	arg sql.Expression
	sep string
}

func (f *groupConcatFunc) FunctionName() string { return "group_concat" }
func (f *groupConcatFunc) NewInstance(args []sql.Expression) (sql.Expression, error) {
	if len(args) != 1 {
		return nil, sql.ErrInvalidArgumentCount.New("group_concat", "1", len(args))
	}
	return &groupConcatFunc{arg: args[0], sep: ","}, nil
}
func (f *groupConcatFunc) Type() sql.Type            { return types.LongText }
func (f *groupConcatFunc) Resolved() bool            { return f.arg.Resolved() }
func (f *groupConcatFunc) Children() []sql.Expression { return []sql.Expression{f.arg} }
func (f *groupConcatFunc) String() string             { return "group_concat(" + f.arg.String() + ")" }
func (f *groupConcatFunc) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	if len(children) != 1 {
		return nil, sql.ErrInvariantBreach.New("group_concat takes 1 child")
	}
	return &groupConcatFunc{arg: children[0], sep: f.sep}, nil
}
func (f *groupConcatFunc) Eval(ctx *sql.Context, row sql.Row) (interface{}, error) {
	return nil, sql.ErrInvalidAggregate.New("group_concat")
}
func (f *groupConcatFunc) NewAccumulator() sql.Accumulator {
	return &groupConcatAccumulator{arg: f.arg, sep: f.sep}
}

type groupConcatAccumulator struct {
	arg   sql.Expression
	sep   string
	parts []string
}

func (a *groupConcatAccumulator) Update(ctx *sql.Context, row sql.Row) error {
	v, err := a.arg.Eval(ctx, row)
	if err != nil || v == nil {
		return err
	}
	s, err := asString(v)
	if err != nil {
		return err
	}
	a.parts = append(a.parts, s)
	return nil
}
func (a *groupConcatAccumulator) Eval(ctx *sql.Context) (interface{}, error) {
	if len(a.parts) == 0 {
		return nil, nil
	}
	return strings.Join(a.parts, a.sep), nil
}
