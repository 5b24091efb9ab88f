package function

import (
	"regexp"

	"github.com/vinedb/vine/sql"
	"github.com/vinedb/vine/sql/types"
)

func registerRegexFunctions(r *Registry) {
	r.Register(&regexpLikeFunc{})
	r.Register(&regexpReplaceFunc{})
}

type regexpLikeFunc struct {
	str     sql.Expression
	pattern sql.Expression
}

func (f *regexpLikeFunc) FunctionName() string { return "regexp_like" }
func (f *regexpLikeFunc) NewInstance(args []sql.Expression) (sql.Expression, error) {
	if len(args) != 2 {
		return nil, sql.ErrInvalidArgumentCount.New("regexp_like", "2", len(args))
	}
	return &regexpLikeFunc{str: args[0], pattern: args[1]}, nil
}
func (f *regexpLikeFunc) Type() sql.Type            { return types.Boolean }
func (f *regexpLikeFunc) Resolved() bool            { return f.str.Resolved() && f.pattern.Resolved() }
func (f *regexpLikeFunc) Children() []sql.Expression { return []sql.Expression{f.str, f.pattern} }
func (f *regexpLikeFunc) String() string             { return "regexp_like(" + f.str.String() + ", " + f.pattern.String() + ")" }
func (f *regexpLikeFunc) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	if len(children) != 2 {
		return nil, sql.ErrInvariantBreach.New("regexp_like takes 2 children")
	}
	return &regexpLikeFunc{str: children[0], pattern: children[1]}, nil
}
func (f *regexpLikeFunc) Eval(ctx *sql.Context, row sql.Row) (interface{}, error) {
	sv, err := f.str.Eval(ctx, row)
	if err != nil || sv == nil {
		return nil, err
	}
	s, err := asString(sv)
	if err != nil {
		return nil, err
	}
	pv, err := f.pattern.Eval(ctx, row)
	if err != nil || pv == nil {
		return nil, err
	}
	pattern, err := asString(pv)
	if err != nil {
		return nil, err
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, sql.ErrInvalidCast.New(pattern, "regexp")
	}
	return re.MatchString(s), nil
}

type regexpReplaceFunc struct {
	str, pattern, repl sql.Expression
}

func (f *regexpReplaceFunc) FunctionName() string { return "regexp_replace" }
func (f *regexpReplaceFunc) NewInstance(args []sql.Expression) (sql.Expression, error) {
	if len(args) != 3 {
		return nil, sql.ErrInvalidArgumentCount.New("regexp_replace", "3", len(args))
	}
	return &regexpReplaceFunc{str: args[0], pattern: args[1], repl: args[2]}, nil
}
func (f *regexpReplaceFunc) Type() sql.Type { return types.LongText }
func (f *regexpReplaceFunc) Resolved() bool {
	return f.str.Resolved() && f.pattern.Resolved() && f.repl.Resolved()
}
func (f *regexpReplaceFunc) Children() []sql.Expression {
	return []sql.Expression{f.str, f.pattern, f.repl}
}
func (f *regexpReplaceFunc) String() string { return "regexp_replace(...)" }
func (f *regexpReplaceFunc) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	if len(children) != 3 {
		return nil, sql.ErrInvariantBreach.New("regexp_replace takes 3 children")
	}
	return &regexpReplaceFunc{str: children[0], pattern: children[1], repl: children[2]}, nil
}
func (f *regexpReplaceFunc) Eval(ctx *sql.Context, row sql.Row) (interface{}, error) {
	sv, err := f.str.Eval(ctx, row)
	if err != nil || sv == nil {
		return nil, err
	}
	s, err := asString(sv)
	if err != nil {
		return nil, err
	}
	pv, err := f.pattern.Eval(ctx, row)
	if err != nil || pv == nil {
		return nil, err
	}
	pattern, err := asString(pv)
	if err != nil {
		return nil, err
	}
	rv, err := f.repl.Eval(ctx, row)
	if err != nil || rv == nil {
		return nil, err
	}
	repl, err := asString(rv)
	if err != nil {
		return nil, err
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, sql.ErrInvalidCast.New(pattern, "regexp")
	}
	return re.ReplaceAllString(s, repl), nil
}
