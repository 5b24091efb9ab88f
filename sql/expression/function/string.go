package function

import (
	"strings"

	"github.com/vinedb/vine/sql"
	"github.com/vinedb/vine/sql/types"
)

func registerStringFunctions(r *Registry) {
	r.Register(simple1("upper", func(a interface{}) (interface{}, error) {
		s, err := asString(a)
		if err != nil {
			return nil, err
		}
		return strings.ToUpper(s), nil
	}))
	r.Register(simple1("lower", func(a interface{}) (interface{}, error) {
		s, err := asString(a)
		if err != nil {
			return nil, err
		}
		return strings.ToLower(s), nil
	}))
	r.Register(simple1("length", func(a interface{}) (interface{}, error) {
		s, err := asString(a)
		if err != nil {
			return nil, err
		}
		return int64(len(s)), nil
	}))
	r.Register(simple1("char_length", func(a interface{}) (interface{}, error) {
		s, err := asString(a)
		if err != nil {
			return nil, err
		}
		return int64(len([]rune(s))), nil
	}))
	r.Register(&concatFunc{})
	r.Register(&concatWsFunc{})
	r.Register(&substringFunc{})
	r.Register(&trimFunc{})
	r.Register(&replaceFunc{})
	r.Register(&lpadFunc{})
	r.Register(&rpadFunc{})
}

func asString(v interface{}) (string, error) {
	if v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", sql.ErrTypeMismatch.New(v, v, "string")
	}
	return s, nil
}

// simpleFn1 adapts a 1-argument pure function into an sql.Expression.
type simpleFn1 struct {
	name string
	arg  sql.Expression
	fn   func(interface{}) (interface{}, error)
}

func simple1(name string, fn func(interface{}) (interface{}, error)) *fn1Descriptor {
	return &fn1Descriptor{name: name, fn: fn}
}

// fn1Descriptor is the sql.Function that constructs a simpleFn1 bound to an
// argument expression.
type fn1Descriptor struct {
	name string
	fn   func(interface{}) (interface{}, error)
}

func (d *fn1Descriptor) FunctionName() string { return d.name }
func (d *fn1Descriptor) NewInstance(args []sql.Expression) (sql.Expression, error) {
	if len(args) != 1 {
		return nil, sql.ErrInvalidArgumentCount.New(d.name, "1", len(args))
	}
	return &simpleFn1{name: d.name, arg: args[0], fn: d.fn}, nil
}

func (f *simpleFn1) Type() sql.Type               { return types.LongText }
func (f *simpleFn1) Resolved() bool               { return f.arg.Resolved() }
func (f *simpleFn1) Children() []sql.Expression    { return []sql.Expression{f.arg} }
func (f *simpleFn1) String() string                { return f.name + "(" + f.arg.String() + ")" }
func (f *simpleFn1) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	if len(children) != 1 {
		return nil, sql.ErrInvariantBreach.New(f.name + " takes 1 child")
	}
	return &simpleFn1{name: f.name, arg: children[0], fn: f.fn}, nil
}
func (f *simpleFn1) Eval(ctx *sql.Context, row sql.Row) (interface{}, error) {
	v, err := f.arg.Eval(ctx, row)
	if err != nil || v == nil {
		return nil, err
	}
	return f.fn(v)
}

// concatFunc implements CONCAT(s1, s2, ...): NULL if any argument is NULL.
type concatFunc struct {
	args []sql.Expression
}

func (f *concatFunc) FunctionName() string { return "concat" }
func (f *concatFunc) NewInstance(args []sql.Expression) (sql.Expression, error) {
	if len(args) == 0 {
		return nil, sql.ErrInvalidArgumentCount.New("concat", "at least 1", 0)
	}
	return &concatFunc{args: args}, nil
}
func (f *concatFunc) Type() sql.Type            { return types.LongText }
func (f *concatFunc) Resolved() bool {
	for _, a := range f.args {
		if !a.Resolved() {
			return false
		}
	}
	return true
}
func (f *concatFunc) Children() []sql.Expression { return f.args }
func (f *concatFunc) String() string {
	parts := make([]string, len(f.args))
	for i, a := range f.args {
		parts[i] = a.String()
	}
	return "concat(" + strings.Join(parts, ", ") + ")"
}
func (f *concatFunc) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	return &concatFunc{args: children}, nil
}
func (f *concatFunc) Eval(ctx *sql.Context, row sql.Row) (interface{}, error) {
	var b strings.Builder
	for _, a := range f.args {
		v, err := a.Eval(ctx, row)
		if err != nil {
			return nil, err
		}
		if v == nil {
			return nil, nil
		}
		s, err := asString(v)
		if err != nil {
			return nil, err
		}
		b.WriteString(s)
	}
	return b.String(), nil
}

// concatWsFunc implements CONCAT_WS(sep, s1, s2, ...): NULL arguments other
// than the separator are skipped rather than making the whole call NULL.
type concatWsFunc struct {
	sep  sql.Expression
	args []sql.Expression
}

func (f *concatWsFunc) FunctionName() string { return "concat_ws" }
func (f *concatWsFunc) NewInstance(args []sql.Expression) (sql.Expression, error) {
	if len(args) < 2 {
		return nil, sql.ErrInvalidArgumentCount.New("concat_ws", "at least 2", len(args))
	}
	return &concatWsFunc{sep: args[0], args: args[1:]}, nil
}
func (f *concatWsFunc) Type() sql.Type { return types.LongText }
func (f *concatWsFunc) Resolved() bool {
	if !f.sep.Resolved() {
		return false
	}
	for _, a := range f.args {
		if !a.Resolved() {
			return false
		}
	}
	return true
}
func (f *concatWsFunc) Children() []sql.Expression {
	return append([]sql.Expression{f.sep}, f.args...)
}
func (f *concatWsFunc) String() string { return "concat_ws(...)" }
func (f *concatWsFunc) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	if len(children) < 1 {
		return nil, sql.ErrInvariantBreach.New("concat_ws takes at least 1 child")
	}
	return &concatWsFunc{sep: children[0], args: children[1:]}, nil
}
func (f *concatWsFunc) Eval(ctx *sql.Context, row sql.Row) (interface{}, error) {
	sv, err := f.sep.Eval(ctx, row)
	if err != nil || sv == nil {
		return nil, err
	}
	sep, err := asString(sv)
	if err != nil {
		return nil, err
	}
	var parts []string
	for _, a := range f.args {
		v, err := a.Eval(ctx, row)
		if err != nil {
			return nil, err
		}
		if v == nil {
			continue
		}
		s, err := asString(v)
		if err != nil {
			return nil, err
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, sep), nil
}

// substringFunc implements SUBSTRING(str, pos[, len]) with MySQL's 1-based,
// negative-offset-from-end semantics.
type substringFunc struct {
	str, pos, length sql.Expression
}

func (f *substringFunc) FunctionName() string { return "substring" }
func (f *substringFunc) NewInstance(args []sql.Expression) (sql.Expression, error) {
	if len(args) != 2 && len(args) != 3 {
		return nil, sql.ErrInvalidArgumentCount.New("substring", "2 or 3", len(args))
	}
	f2 := &substringFunc{str: args[0], pos: args[1]}
	if len(args) == 3 {
		f2.length = args[2]
	}
	return f2, nil
}
func (f *substringFunc) Type() sql.Type { return types.LongText }
func (f *substringFunc) Resolved() bool {
	if !f.str.Resolved() || !f.pos.Resolved() {
		return false
	}
	return f.length == nil || f.length.Resolved()
}
func (f *substringFunc) Children() []sql.Expression {
	c := []sql.Expression{f.str, f.pos}
	if f.length != nil {
		c = append(c, f.length)
	}
	return c
}
func (f *substringFunc) String() string { return "substring(...)" }
func (f *substringFunc) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	f2 := &substringFunc{str: children[0], pos: children[1]}
	if len(children) == 3 {
		f2.length = children[2]
	}
	return f2, nil
}
func (f *substringFunc) Eval(ctx *sql.Context, row sql.Row) (interface{}, error) {
	sv, err := f.str.Eval(ctx, row)
	if err != nil || sv == nil {
		return nil, err
	}
	s, err := asString(sv)
	if err != nil {
		return nil, err
	}
	runes := []rune(s)
	pv, err := f.pos.Eval(ctx, row)
	if err != nil || pv == nil {
		return nil, err
	}
	pos, err := toInt(pv)
	if err != nil {
		return nil, err
	}
	start := int(pos)
	if start < 0 {
		start = len(runes) + start
		if start < 0 {
			start = 0
		}
	} else if start > 0 {
		start--
	}
	if start >= len(runes) {
		return "", nil
	}
	end := len(runes)
	if f.length != nil {
		lv, err := f.length.Eval(ctx, row)
		if err != nil {
			return nil, err
		}
		if lv == nil {
			return nil, nil
		}
		l, err := toInt(lv)
		if err != nil {
			return nil, err
		}
		if l < 0 {
			l = 0
		}
		if start+int(l) < end {
			end = start + int(l)
		}
	}
	return string(runes[start:end]), nil
}

func toInt(v interface{}) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case float64:
		return int64(n), nil
	default:
		return 0, sql.ErrTypeMismatch.New(v, v, "integer")
	}
}

// trimFunc implements TRIM([remstr FROM] str), trimming both ends. NewInstance
// always sets mode to "both", so LEADING/TRAILING are not reachable, and
// remstr is applied as a set of characters (strings.Trim) rather than as a
// whole substring.
type trimFunc struct {
	str    sql.Expression
	remstr sql.Expression
	mode   string // "both", "leading", "trailing"
}

func (f *trimFunc) FunctionName() string { return "trim" }
func (f *trimFunc) NewInstance(args []sql.Expression) (sql.Expression, error) {
	if len(args) == 0 || len(args) > 2 {
		return nil, sql.ErrInvalidArgumentCount.New("trim", "1 or 2", len(args))
	}
	f2 := &trimFunc{mode: "both"}
	if len(args) == 1 {
		f2.str = args[0]
	} else {
		f2.remstr, f2.str = args[0], args[1]
	}
	return f2, nil
}
func (f *trimFunc) Type() sql.Type { return types.LongText }
func (f *trimFunc) Resolved() bool {
	if !f.str.Resolved() {
		return false
	}
	return f.remstr == nil || f.remstr.Resolved()
}
func (f *trimFunc) Children() []sql.Expression {
	if f.remstr != nil {
		return []sql.Expression{f.remstr, f.str}
	}
	return []sql.Expression{f.str}
}
func (f *trimFunc) String() string { return "trim(" + f.str.String() + ")" }
func (f *trimFunc) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	f2 := &trimFunc{mode: f.mode}
	if len(children) == 1 {
		f2.str = children[0]
	} else {
		f2.remstr, f2.str = children[0], children[1]
	}
	return f2, nil
}
func (f *trimFunc) Eval(ctx *sql.Context, row sql.Row) (interface{}, error) {
	sv, err := f.str.Eval(ctx, row)
	if err != nil || sv == nil {
		return nil, err
	}
	s, err := asString(sv)
	if err != nil {
		return nil, err
	}
	cutset := " "
	if f.remstr != nil {
		rv, err := f.remstr.Eval(ctx, row)
		if err != nil {
			return nil, err
		}
		if rv != nil {
			cutset, err = asString(rv)
			if err != nil {
				return nil, err
			}
		}
	}
	switch f.mode {
	case "leading":
		return strings.TrimLeft(s, cutset), nil
	case "trailing":
		return strings.TrimRight(s, cutset), nil
	default:
		return strings.Trim(s, cutset), nil
	}
}

// replaceFunc implements REPLACE(str, from, to).
type replaceFunc struct {
	str, from, to sql.Expression
}

func (f *replaceFunc) FunctionName() string { return "replace" }
func (f *replaceFunc) NewInstance(args []sql.Expression) (sql.Expression, error) {
	if len(args) != 3 {
		return nil, sql.ErrInvalidArgumentCount.New("replace", "3", len(args))
	}
	return &replaceFunc{str: args[0], from: args[1], to: args[2]}, nil
}
func (f *replaceFunc) Type() sql.Type { return types.LongText }
func (f *replaceFunc) Resolved() bool {
	return f.str.Resolved() && f.from.Resolved() && f.to.Resolved()
}
func (f *replaceFunc) Children() []sql.Expression {
	return []sql.Expression{f.str, f.from, f.to}
}
func (f *replaceFunc) String() string { return "replace(...)" }
func (f *replaceFunc) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	if len(children) != 3 {
		return nil, sql.ErrInvariantBreach.New("replace takes 3 children")
	}
	return &replaceFunc{str: children[0], from: children[1], to: children[2]}, nil
}
func (f *replaceFunc) Eval(ctx *sql.Context, row sql.Row) (interface{}, error) {
	sv, err := f.str.Eval(ctx, row)
	if err != nil || sv == nil {
		return nil, err
	}
	s, err := asString(sv)
	if err != nil {
		return nil, err
	}
	fv, err := f.from.Eval(ctx, row)
	if err != nil || fv == nil {
		return nil, err
	}
	from, err := asString(fv)
	if err != nil {
		return nil, err
	}
	tv, err := f.to.Eval(ctx, row)
	if err != nil || tv == nil {
		return nil, err
	}
	to, err := asString(tv)
	if err != nil {
		return nil, err
	}
	return strings.ReplaceAll(s, from, to), nil
}

type lpadFunc struct{ str, length, pad sql.Expression }

func (f *lpadFunc) FunctionName() string { return "lpad" }
func (f *lpadFunc) NewInstance(args []sql.Expression) (sql.Expression, error) {
	if len(args) != 3 {
		return nil, sql.ErrInvalidArgumentCount.New("lpad", "3", len(args))
	}
	return &lpadFunc{str: args[0], length: args[1], pad: args[2]}, nil
}
func (f *lpadFunc) Type() sql.Type            { return types.LongText }
func (f *lpadFunc) Resolved() bool            { return f.str.Resolved() && f.length.Resolved() && f.pad.Resolved() }
func (f *lpadFunc) Children() []sql.Expression { return []sql.Expression{f.str, f.length, f.pad} }
func (f *lpadFunc) String() string             { return "lpad(...)" }
func (f *lpadFunc) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	return &lpadFunc{str: children[0], length: children[1], pad: children[2]}, nil
}
func (f *lpadFunc) Eval(ctx *sql.Context, row sql.Row) (interface{}, error) {
	return pad(ctx, row, f.str, f.length, f.pad, true)
}

type rpadFunc struct{ str, length, pad sql.Expression }

func (f *rpadFunc) FunctionName() string { return "rpad" }
func (f *rpadFunc) NewInstance(args []sql.Expression) (sql.Expression, error) {
	if len(args) != 3 {
		return nil, sql.ErrInvalidArgumentCount.New("rpad", "3", len(args))
	}
	return &rpadFunc{str: args[0], length: args[1], pad: args[2]}, nil
}
func (f *rpadFunc) Type() sql.Type            { return types.LongText }
func (f *rpadFunc) Resolved() bool            { return f.str.Resolved() && f.length.Resolved() && f.pad.Resolved() }
func (f *rpadFunc) Children() []sql.Expression { return []sql.Expression{f.str, f.length, f.pad} }
func (f *rpadFunc) String() string             { return "rpad(...)" }
func (f *rpadFunc) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	return &rpadFunc{str: children[0], length: children[1], pad: children[2]}, nil
}
func (f *rpadFunc) Eval(ctx *sql.Context, row sql.Row) (interface{}, error) {
	return pad(ctx, row, f.str, f.length, f.pad, false)
}

func pad(ctx *sql.Context, row sql.Row, strExpr, lengthExpr, padExpr sql.Expression, left bool) (interface{}, error) {
	sv, err := strExpr.Eval(ctx, row)
	if err != nil || sv == nil {
		return nil, err
	}
	s, err := asString(sv)
	if err != nil {
		return nil, err
	}
	lv, err := lengthExpr.Eval(ctx, row)
	if err != nil || lv == nil {
		return nil, err
	}
	length, err := toInt(lv)
	if err != nil {
		return nil, err
	}
	pv, err := padExpr.Eval(ctx, row)
	if err != nil || pv == nil {
		return nil, err
	}
	padStr, err := asString(pv)
	if err != nil {
		return nil, err
	}
	runes := []rune(s)
	if int64(len(runes)) >= length {
		if length < 0 {
			return "", nil
		}
		return string(runes[:length]), nil
	}
	if padStr == "" {
		return s, nil
	}
	padRunes := []rune(padStr)
	needed := int(length) - len(runes)
	var b strings.Builder
	for i := 0; i < needed; i++ {
		b.WriteRune(padRunes[i%len(padRunes)])
	}
	if left {
		return b.String() + s, nil
	}
	return s + b.String(), nil
}
