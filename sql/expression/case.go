package expression

import (
	"github.com/vinedb/vine/sql"
)

// CaseBranch is one WHEN/THEN pair of a Case expression.
type CaseBranch struct {
	Cond sql.Expression
	Then sql.Expression
}

// Case implements both searched CASE (Value is nil, each Cond is an
// independent boolean predicate) and simple CASE (Value is non-nil, each
// Cond is compared against Value for equality). Branches are tried in
// order; the first whose condition is SQL-true wins. Else defaults to NULL
// if omitted (§4.1).
type Case struct {
	Value    sql.Expression
	Branches []CaseBranch
	Else     sql.Expression
}

func NewCase(value sql.Expression, branches []CaseBranch, els sql.Expression) *Case {
	return &Case{Value: value, Branches: branches, Else: els}
}

func (c *Case) Type() sql.Type {
	if len(c.Branches) > 0 {
		return c.Branches[0].Then.Type()
	}
	if c.Else != nil {
		return c.Else.Type()
	}
	return nil
}

func (c *Case) Resolved() bool {
	if c.Value != nil && !c.Value.Resolved() {
		return false
	}
	if c.Else != nil && !c.Else.Resolved() {
		return false
	}
	for _, b := range c.Branches {
		if !b.Cond.Resolved() || !b.Then.Resolved() {
			return false
		}
	}
	return true
}

func (c *Case) Children() []sql.Expression {
	var out []sql.Expression
	if c.Value != nil {
		out = append(out, c.Value)
	}
	for _, b := range c.Branches {
		out = append(out, b.Cond, b.Then)
	}
	if c.Else != nil {
		out = append(out, c.Else)
	}
	return out
}

func (c *Case) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	i := 0
	var value sql.Expression
	if c.Value != nil {
		value = children[i]
		i++
	}
	branches := make([]CaseBranch, len(c.Branches))
	for n := range c.Branches {
		branches[n] = CaseBranch{Cond: children[i], Then: children[i+1]}
		i += 2
	}
	var els sql.Expression
	if c.Else != nil {
		els = children[i]
	}
	return &Case{Value: value, Branches: branches, Else: els}, nil
}

func (c *Case) String() string {
	s := "CASE"
	if c.Value != nil {
		s += " " + c.Value.String()
	}
	for _, b := range c.Branches {
		s += " WHEN " + b.Cond.String() + " THEN " + b.Then.String()
	}
	if c.Else != nil {
		s += " ELSE " + c.Else.String()
	}
	return s + " END"
}

func (c *Case) Eval(ctx *sql.Context, row sql.Row) (interface{}, error) {
	var value interface{}
	var valueType sql.Type
	if c.Value != nil {
		v, err := c.Value.Eval(ctx, row)
		if err != nil {
			return nil, err
		}
		value = v
		valueType = c.Value.Type()
	}

	for _, b := range c.Branches {
		var matched bool
		if c.Value == nil {
			cv, err := b.Cond.Eval(ctx, row)
			if err != nil {
				return nil, err
			}
			matched = IsTrue(cv)
		} else {
			if value == nil {
				continue
			}
			cv, err := b.Cond.Eval(ctx, row)
			if err != nil {
				return nil, err
			}
			if cv == nil {
				continue
			}
			cmpType := comparisonType(valueType, b.Cond.Type())
			lc, err := cmpType.Convert(value)
			if err != nil {
				return nil, err
			}
			rc, err := cmpType.Convert(cv)
			if err != nil {
				return nil, err
			}
			cmp, err := cmpType.Compare(lc, rc)
			if err != nil {
				return nil, err
			}
			matched = cmp == 0
		}
		if matched {
			return b.Then.Eval(ctx, row)
		}
	}
	if c.Else != nil {
		return c.Else.Eval(ctx, row)
	}
	return nil, nil
}
