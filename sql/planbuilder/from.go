package planbuilder

import (
	"strings"

	"github.com/vinedb/vine/sql"
	"github.com/vinedb/vine/sql/ast"
	"github.com/vinedb/vine/sql/expression"
	"github.com/vinedb/vine/sql/plan"
)

// buildFrom compiles one FROM-clause element into a Node and the schema
// bound on top of it (§4.2). A nil te (FROM-less SELECT) yields plan.Dual.
func (b *Builder) buildFrom(s *scope, te ast.TableExpr) (sql.Node, sql.Schema, error) {
	if te == nil {
		d := plan.NewDual()
		return d, d.Schema(), nil
	}
	switch t := te.(type) {
	case *ast.TableName:
		return b.buildTableName(s, t)
	case *ast.DerivedTable:
		return b.buildDerivedTable(s, t)
	case *ast.JoinExpr:
		return b.buildJoin(s, t)
	default:
		return nil, nil, sql.ErrUnsupportedFeature.New("FROM clause element")
	}
}

func (b *Builder) buildTableName(s *scope, t *ast.TableName) (sql.Node, sql.Schema, error) {
	if t.Database == "" {
		if mat, ok := s.ctx.Session.CTEs()[strings.ToLower(t.Name)]; ok {
			node := plan.NewCteOperator(t.Name, mat.Schema)
			if t.Alias != "" {
				aliased := plan.NewAlias(t.Alias, node)
				return aliased, aliased.Schema(), nil
			}
			return node, node.Schema(), nil
		}
	}
	dbName, err := s.resolveDB(t.Database)
	if err != nil {
		return nil, nil, err
	}
	tab, _, err := s.b.Catalog.Table(s.ctx, dbName, t.Name)
	if err != nil {
		return nil, nil, err
	}
	scan := plan.NewTableScan(dbName, tab)
	sch := scan.Schema()
	if t.Alias != "" {
		aliased := plan.NewAlias(t.Alias, scan)
		return aliased, aliased.Schema(), nil
	}
	return scan, sch, nil
}

func (b *Builder) buildDerivedTable(s *scope, t *ast.DerivedTable) (sql.Node, sql.Schema, error) {
	node, _, err := b.buildSelect(s, t.Select)
	if err != nil {
		return nil, nil, err
	}
	alias := t.Alias
	if alias == "" {
		alias = "derived"
	}
	aliased := plan.NewAlias(alias, node)
	return aliased, aliased.Schema(), nil
}

// buildJoin compiles a JoinExpr into a NestedLoopJoin (§4.2). RIGHT JOIN is
// built as a LEFT JOIN with its sides swapped, per plan.NestedLoopJoin's
// doc comment; NATURAL and USING joins are desugared to an equivalent ON
// condition matching every shared (or named) column by name.
func (b *Builder) buildJoin(s *scope, j *ast.JoinExpr) (sql.Node, sql.Schema, error) {
	left, leftSch, err := b.buildFrom(s, j.Left)
	if err != nil {
		return nil, nil, err
	}
	right, rightSch, err := b.buildFrom(s, j.Right)
	if err != nil {
		return nil, nil, err
	}

	kind := j.Kind
	if kind == ast.JoinRight {
		left, right = right, left
		leftSch, rightSch = rightSch, leftSch
		kind = ast.JoinLeft
	}
	planKind := joinKind(kind)

	combined := leftSch.Concat(rightSch)
	joinScope := s.withSchema(combined)

	var cond sql.Expression
	switch {
	case planKind == plan.JoinCross:
		cond = expression.NewLiteral(true, boolType())
	case j.Natural:
		cond, err = naturalJoinCond(leftSch, rightSch)
		if err != nil {
			return nil, nil, err
		}
	case len(j.Using) > 0:
		cond, err = usingJoinCond(leftSch, rightSch, j.Using)
		if err != nil {
			return nil, nil, err
		}
	case j.On != nil:
		cond, err = b.buildExpr(joinScope, j.On)
		if err != nil {
			return nil, nil, err
		}
	default:
		cond = expression.NewLiteral(true, boolType())
	}

	node := plan.NewNestedLoopJoin(planKind, left, right, cond)
	return node, node.Schema(), nil
}

func joinKind(k ast.JoinKind) plan.JoinType {
	switch k {
	case ast.JoinLeft:
		return plan.JoinLeft
	case ast.JoinRight:
		return plan.JoinRight
	case ast.JoinFull:
		return plan.JoinFull
	case ast.JoinCross:
		return plan.JoinCross
	default:
		return plan.JoinInner
	}
}

func boolType() sql.Type { return literalType(true) }

// naturalJoinCond equates every column name shared by both sides.
func naturalJoinCond(left, right sql.Schema) (sql.Expression, error) {
	var shared []string
	for _, c := range left {
		if right.Contains(c.Name) {
			shared = append(shared, c.Name)
		}
	}
	if len(shared) == 0 {
		return expression.NewLiteral(true, boolType()), nil
	}
	return usingJoinCond(left, right, shared)
}

// usingJoinCond equates each named column across both sides by ordinal
// (§4.2: USING(col, ...) joins on equality of the same-named column).
func usingJoinCond(left, right sql.Schema, cols []string) (sql.Expression, error) {
	var cond sql.Expression
	for _, col := range cols {
		li := left.IndexOf(col, "")
		if li == -1 {
			return nil, sql.ErrColumnNotFound.New(col)
		}
		ri := right.IndexOf(col, "")
		if ri == -1 {
			return nil, sql.ErrColumnNotFound.New(col)
		}
		lf := expression.NewGetField(li, left[li].Type, left[li].Name, left[li].Source)
		rf := expression.NewGetField(len(left)+ri, right[ri].Type, right[ri].Name, right[ri].Source)
		eq := expression.NewComparison(lf, rf, expression.EQ)
		if cond == nil {
			cond = eq
		} else {
			cond = expression.NewAnd(cond, eq)
		}
	}
	return cond, nil
}

