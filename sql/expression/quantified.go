package expression

import (
	"github.com/vinedb/vine/sql"
	"github.com/vinedb/vine/sql/types"
)

// QuantifierKind distinguishes ALL from ANY/SOME (synonyms).
type QuantifierKind int

const (
	QuantifierAll QuantifierKind = iota
	QuantifierAny
)

// Quantified evaluates "left OP {ALL|ANY} (subquery)" by comparing left
// against every value the subquery produces. ALL requires the comparison to
// hold for every row (vacuously true for zero rows, unless a NULL was seen);
// ANY requires it to hold for at least one row (§4.1).
type Quantified struct {
	Left       sql.Expression
	Op         CompareOp
	Quantifier QuantifierKind
	Subquery   *Subquery
}

func NewQuantified(left sql.Expression, op CompareOp, quant QuantifierKind, sub *Subquery) *Quantified {
	return &Quantified{Left: left, Op: op, Quantifier: quant, Subquery: sub}
}

func (q *Quantified) Type() sql.Type { return types.Boolean }
func (q *Quantified) Resolved() bool { return q.Left.Resolved() && q.Subquery.Resolved() }
func (q *Quantified) Children() []sql.Expression {
	return []sql.Expression{q.Left, q.Subquery}
}
func (q *Quantified) String() string {
	sym := map[CompareOp]string{EQ: "=", NEQ: "<>", LT: "<", LTE: "<=", GT: ">", GTE: ">="}
	qs := "ALL"
	if q.Quantifier == QuantifierAny {
		qs = "ANY"
	}
	return q.Left.String() + " " + sym[q.Op] + " " + qs + " (" + q.Subquery.String() + ")"
}
func (q *Quantified) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	if len(children) != 2 {
		return nil, sql.ErrInvariantBreach.New("Quantified takes 2 children")
	}
	sub, ok := children[1].(*Subquery)
	if !ok {
		return nil, sql.ErrInvariantBreach.New("Quantified's second child must be a Subquery")
	}
	return &Quantified{Left: children[0], Op: q.Op, Quantifier: q.Quantifier, Subquery: sub}, nil
}

func (q *Quantified) Eval(ctx *sql.Context, row sql.Row) (interface{}, error) {
	lv, err := q.Left.Eval(ctx, row)
	if err != nil {
		return nil, err
	}
	if lv == nil {
		return nil, nil
	}
	values, err := q.Subquery.EvalMulti(ctx, row)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		// ALL over an empty set is vacuously true; ANY over an empty set is
		// false.
		return q.Quantifier == QuantifierAll, nil
	}

	cmpType := comparisonType(q.Left.Type(), q.Subquery.Type())
	lc, err := cmpType.Convert(lv)
	if err != nil {
		return nil, err
	}

	sawNull := false
	matchCount := 0
	for _, rv := range values {
		if rv == nil {
			sawNull = true
			continue
		}
		rc, err := cmpType.Convert(rv)
		if err != nil {
			return nil, err
		}
		cmp, err := cmpType.Compare(lc, rc)
		if err != nil {
			return nil, err
		}
		holds := false
		switch q.Op {
		case EQ:
			holds = cmp == 0
		case NEQ:
			holds = cmp != 0
		case LT:
			holds = cmp < 0
		case LTE:
			holds = cmp <= 0
		case GT:
			holds = cmp > 0
		default:
			holds = cmp >= 0
		}
		if holds {
			matchCount++
			if q.Quantifier == QuantifierAny {
				return true, nil
			}
		} else if q.Quantifier == QuantifierAll {
			return false, nil
		}
	}

	if q.Quantifier == QuantifierAll {
		// every non-NULL value satisfied the comparison; NULL
		// membership makes the result unknown rather than true.
		if sawNull {
			return nil, nil
		}
		return true, nil
	}
	// ANY: no non-NULL match was found; unknown if a NULL was present.
	if sawNull {
		return nil, nil
	}
	return false, nil
}
