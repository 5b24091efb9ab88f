package function

import (
	"strings"
	"time"

	"github.com/vinedb/vine/sql"
	"github.com/vinedb/vine/sql/types"
)

func registerDatetimeFunctions(r *Registry) {
	r.Register(&nowFunc{name: "now"})
	r.Register(&nowFunc{name: "current_timestamp"})
	r.Register(datePart("year", func(t time.Time) int64 { return int64(t.Year()) }))
	r.Register(datePart("month", func(t time.Time) int64 { return int64(t.Month()) }))
	r.Register(datePart("day", func(t time.Time) int64 { return int64(t.Day()) }))
	r.Register(datePart("hour", func(t time.Time) int64 { return int64(t.Hour()) }))
	r.Register(datePart("minute", func(t time.Time) int64 { return int64(t.Minute()) }))
	r.Register(datePart("second", func(t time.Time) int64 { return int64(t.Second()) }))
	r.Register(datePart("dayofweek", func(t time.Time) int64 { return int64(t.Weekday()) + 1 }))
	r.Register(datePart("dayofyear", func(t time.Time) int64 { return int64(t.YearDay()) }))
	r.Register(&dateDiffFunc{})
	r.Register(&dateAddFunc{sub: false})
	r.Register(&dateAddFunc{name: "date_sub", sub: true})
	r.Register(&dateFormatFunc{})
}

// nowFunc implements NOW()/CURRENT_TIMESTAMP: the query's start time,
// stable across every evaluation within one statement (§4.1, "NOW() is
// fixed for the duration of a statement").
type nowFunc struct{ name string }

func (f *nowFunc) FunctionName() string { return f.name }
func (f *nowFunc) NewInstance(args []sql.Expression) (sql.Expression, error) {
	if len(args) != 0 {
		return nil, sql.ErrInvalidArgumentCount.New(f.name, "0", len(args))
	}
	return &nowFunc{name: f.name}, nil
}
func (f *nowFunc) Type() sql.Type                                                { return types.DateTime }
func (f *nowFunc) Resolved() bool                                                { return true }
func (f *nowFunc) Children() []sql.Expression                                    { return nil }
func (f *nowFunc) String() string                                                { return f.name + "()" }
func (f *nowFunc) WithChildren(children ...sql.Expression) (sql.Expression, error) { return f, nil }
func (f *nowFunc) Eval(ctx *sql.Context, row sql.Row) (interface{}, error) {
	return ctx.QueryTime, nil
}

type datePartFunc struct {
	name string
	arg  sql.Expression
	fn   func(time.Time) int64
}

func datePart(name string, fn func(time.Time) int64) *datePartDescriptor {
	return &datePartDescriptor{name: name, fn: fn}
}

type datePartDescriptor struct {
	name string
	fn   func(time.Time) int64
}

func (d *datePartDescriptor) FunctionName() string { return d.name }
func (d *datePartDescriptor) NewInstance(args []sql.Expression) (sql.Expression, error) {
	if len(args) != 1 {
		return nil, sql.ErrInvalidArgumentCount.New(d.name, "1", len(args))
	}
	return &datePartFunc{name: d.name, arg: args[0], fn: d.fn}, nil
}

func (f *datePartFunc) Type() sql.Type            { return types.Int64 }
func (f *datePartFunc) Resolved() bool            { return f.arg.Resolved() }
func (f *datePartFunc) Children() []sql.Expression { return []sql.Expression{f.arg} }
func (f *datePartFunc) String() string             { return f.name + "(" + f.arg.String() + ")" }
func (f *datePartFunc) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	if len(children) != 1 {
		return nil, sql.ErrInvariantBreach.New(f.name + " takes 1 child")
	}
	return &datePartFunc{name: f.name, arg: children[0], fn: f.fn}, nil
}
func (f *datePartFunc) Eval(ctx *sql.Context, row sql.Row) (interface{}, error) {
	v, err := f.arg.Eval(ctx, row)
	if err != nil || v == nil {
		return nil, err
	}
	t, ok := v.(time.Time)
	if !ok {
		return nil, sql.ErrTypeMismatch.New(v, v, "datetime")
	}
	return f.fn(t), nil
}

type dateDiffFunc struct{ a, b sql.Expression }

func (f *dateDiffFunc) FunctionName() string { return "datediff" }
func (f *dateDiffFunc) NewInstance(args []sql.Expression) (sql.Expression, error) {
	if len(args) != 2 {
		return nil, sql.ErrInvalidArgumentCount.New("datediff", "2", len(args))
	}
	return &dateDiffFunc{a: args[0], b: args[1]}, nil
}
func (f *dateDiffFunc) Type() sql.Type            { return types.Int64 }
func (f *dateDiffFunc) Resolved() bool            { return f.a.Resolved() && f.b.Resolved() }
func (f *dateDiffFunc) Children() []sql.Expression { return []sql.Expression{f.a, f.b} }
func (f *dateDiffFunc) String() string             { return "datediff(" + f.a.String() + ", " + f.b.String() + ")" }
func (f *dateDiffFunc) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	if len(children) != 2 {
		return nil, sql.ErrInvariantBreach.New("datediff takes 2 children")
	}
	return &dateDiffFunc{a: children[0], b: children[1]}, nil
}
func (f *dateDiffFunc) Eval(ctx *sql.Context, row sql.Row) (interface{}, error) {
	av, err := f.a.Eval(ctx, row)
	if err != nil || av == nil {
		return nil, err
	}
	bv, err := f.b.Eval(ctx, row)
	if err != nil || bv == nil {
		return nil, err
	}
	at, ok := av.(time.Time)
	if !ok {
		return nil, sql.ErrTypeMismatch.New(av, av, "datetime")
	}
	bt, ok := bv.(time.Time)
	if !ok {
		return nil, sql.ErrTypeMismatch.New(bv, bv, "datetime")
	}
	days := int64(at.Sub(bt).Hours() / 24)
	return days, nil
}

// dateAddFunc implements DATE_ADD/DATE_SUB(date, n): n is always a number
// of days; no other interval unit is supported.
type dateAddFunc struct {
	name string
	date sql.Expression
	n    sql.Expression
	unit string
	sub  bool
}

func (f *dateAddFunc) FunctionName() string {
	if f.name == "" {
		return "date_add"
	}
	return f.name
}
func (f *dateAddFunc) NewInstance(args []sql.Expression) (sql.Expression, error) {
	if len(args) != 2 {
		return nil, sql.ErrInvalidArgumentCount.New(f.FunctionName(), "2", len(args))
	}
	return &dateAddFunc{name: f.name, date: args[0], n: args[1], unit: "day", sub: f.sub}, nil
}
func (f *dateAddFunc) Type() sql.Type            { return types.DateTime }
func (f *dateAddFunc) Resolved() bool            { return f.date.Resolved() && f.n.Resolved() }
func (f *dateAddFunc) Children() []sql.Expression { return []sql.Expression{f.date, f.n} }
func (f *dateAddFunc) String() string             { return f.FunctionName() + "(" + f.date.String() + ", " + f.n.String() + ")" }
func (f *dateAddFunc) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	if len(children) != 2 {
		return nil, sql.ErrInvariantBreach.New(f.FunctionName() + " takes 2 children")
	}
	return &dateAddFunc{name: f.name, date: children[0], n: children[1], unit: f.unit, sub: f.sub}, nil
}
func (f *dateAddFunc) Eval(ctx *sql.Context, row sql.Row) (interface{}, error) {
	dv, err := f.date.Eval(ctx, row)
	if err != nil || dv == nil {
		return nil, err
	}
	t, ok := dv.(time.Time)
	if !ok {
		return nil, sql.ErrTypeMismatch.New(dv, dv, "datetime")
	}
	nv, err := f.n.Eval(ctx, row)
	if err != nil || nv == nil {
		return nil, err
	}
	n, err := toInt(nv)
	if err != nil {
		return nil, err
	}
	if f.sub {
		n = -n
	}
	return t.AddDate(0, 0, int(n)), nil
}

// dateFormatFunc implements DATE_FORMAT(date, format), supporting the
// common strftime-style specifiers.
type dateFormatFunc struct{ date, format sql.Expression }

func (f *dateFormatFunc) FunctionName() string { return "date_format" }
func (f *dateFormatFunc) NewInstance(args []sql.Expression) (sql.Expression, error) {
	if len(args) != 2 {
		return nil, sql.ErrInvalidArgumentCount.New("date_format", "2", len(args))
	}
	return &dateFormatFunc{date: args[0], format: args[1]}, nil
}
func (f *dateFormatFunc) Type() sql.Type            { return types.LongText }
func (f *dateFormatFunc) Resolved() bool            { return f.date.Resolved() && f.format.Resolved() }
func (f *dateFormatFunc) Children() []sql.Expression { return []sql.Expression{f.date, f.format} }
func (f *dateFormatFunc) String() string             { return "date_format(...)" }
func (f *dateFormatFunc) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	if len(children) != 2 {
		return nil, sql.ErrInvariantBreach.New("date_format takes 2 children")
	}
	return &dateFormatFunc{date: children[0], format: children[1]}, nil
}
func (f *dateFormatFunc) Eval(ctx *sql.Context, row sql.Row) (interface{}, error) {
	dv, err := f.date.Eval(ctx, row)
	if err != nil || dv == nil {
		return nil, err
	}
	t, ok := dv.(time.Time)
	if !ok {
		return nil, sql.ErrTypeMismatch.New(dv, dv, "datetime")
	}
	fv, err := f.format.Eval(ctx, row)
	if err != nil || fv == nil {
		return nil, err
	}
	format, err := asString(fv)
	if err != nil {
		return nil, err
	}
	return formatMySQLDate(t, format), nil
}

func formatMySQLDate(t time.Time, format string) string {
	replacer := []struct {
		spec   string
		layout string
	}{
		{"%Y", "2006"}, {"%y", "06"}, {"%m", "01"}, {"%d", "02"},
		{"%H", "15"}, {"%i", "04"}, {"%s", "05"}, {"%M", "January"}, {"%b", "Jan"},
		{"%W", "Monday"}, {"%a", "Mon"},
	}
	out := format
	for _, r := range replacer {
		out = strings.ReplaceAll(out, r.spec, t.Format(r.layout))
	}
	return out
}
