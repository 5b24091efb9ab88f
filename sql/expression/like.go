package expression

import (
	"regexp"
	"strings"

	"github.com/vinedb/vine/sql"
	"github.com/vinedb/vine/sql/types"
)

// Like implements SQL LIKE: % any sequence, _ any one character, anchored,
// and always case-insensitive; no session collation is consulted (§4.1).
type Like struct {
	BinaryExpression
	compiled   *regexp.Regexp
	compiledOf string
}

func NewLike(left, right sql.Expression) *Like {
	return &Like{BinaryExpression: BinaryExpression{Left: left, Right: right}}
}

func (l *Like) Type() sql.Type { return types.Boolean }
func (l *Like) String() string { return l.Left.String() + " LIKE " + l.Right.String() }
func (l *Like) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	if len(children) != 2 {
		return nil, sql.ErrInvariantBreach.New("Like takes 2 children")
	}
	return NewLike(children[0], children[1]), nil
}

// PatternToRegexp translates a SQL LIKE pattern into an anchored,
// case-insensitive regular expression.
func PatternToRegexp(pattern string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("(?is)^")
	for _, r := range pattern {
		switch r {
		case '%':
			b.WriteString(".*")
		case '_':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	return regexp.Compile(b.String())
}

func (l *Like) Eval(ctx *sql.Context, row sql.Row) (interface{}, error) {
	lv, err := l.Left.Eval(ctx, row)
	if err != nil {
		return nil, err
	}
	rv, err := l.Right.Eval(ctx, row)
	if err != nil {
		return nil, err
	}
	if lv == nil || rv == nil {
		return nil, nil
	}
	pattern, _ := rv.(string)
	str, _ := lv.(string)

	if l.compiled == nil || l.compiledOf != pattern {
		re, err := PatternToRegexp(pattern)
		if err != nil {
			return nil, err
		}
		l.compiled = re
		l.compiledOf = pattern
	}
	return l.compiled.MatchString(str), nil
}
