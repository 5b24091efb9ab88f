// Package planbuilder turns a parsed sql/ast.Statement into a sql/plan.Node
// tree (§6: "Plan builder | compile(statement) -> physical operator tree").
// It is the sole consumer of package ast and the sole producer of package
// plan nodes; nothing here touches storage or evaluates a row, matching the
// separation rowexec's Build keeps on the execution side.
package planbuilder

import (
	"fmt"
	"strings"

	"github.com/vinedb/vine/sql"
	"github.com/vinedb/vine/sql/ast"
	"github.com/vinedb/vine/sql/expression"
	"github.com/vinedb/vine/sql/plan"
)

// Builder compiles statements against a Catalog. A Builder is safe to reuse
// across statements but not to use concurrently from multiple goroutines
// building the same statement at once, since it tracks per-Build counters.
type Builder struct {
	Catalog   *sql.Catalog
	Functions sql.FunctionProvider

	// SortBudgetBytes is stamped onto every plan.ExternalSort the builder
	// produces as its byte budget (§4.4); whether ExternalSort is used at
	// all is decided by useExternalSort from the input's shape.
	SortBudgetBytes int64
	// GroupBudgetGroups is stamped onto every plan.GroupBy as
	// BudgetGroups, rowexec's resident-group ceiling before it falls back
	// to re-aggregation (§4.4).
	GroupBudgetGroups int64
	// DistinctBudgetKeys is the key budget of the plan.SpillableDistinct
	// that buildSelect uses for a SELECT DISTINCT with set operations (§4.4).
	DistinctBudgetKeys int

	// IndexFactory builds a concrete secondary index over a table for
	// CREATE INDEX, keeping planbuilder itself storage-agnostic (§6: "the
	// executor never touches pages ... directly; it calls through this
	// interface"). Nil means CREATE INDEX is rejected.
	IndexFactory func(table sql.Table, name string, columns []string, unique bool) (sql.Index, error)

	corrSeq int
}

// New returns a Builder with the default memory budgets.
func New(cat *sql.Catalog, fns sql.FunctionProvider) *Builder {
	return &Builder{
		Catalog:            cat,
		Functions:          fns,
		SortBudgetBytes:    16 << 20,
		GroupBudgetGroups:  100000,
		DistinctBudgetKeys: 200000,
	}
}

func (b *Builder) functions() sql.FunctionProvider {
	if b.Functions != nil {
		return b.Functions
	}
	if b.Catalog != nil {
		return b.Catalog.Functions
	}
	return nil
}

// scope binds a schema for resolving ast.ColName references while building
// one statement or subquery. parent is the immediately enclosing scope, one
// level up, consulted when a name isn't found locally — the binding rule a
// correlated subquery relies on (§4.1, §6 Subquery).
type scope struct {
	b      *Builder
	ctx    *sql.Context
	db     string
	sch    sql.Schema
	parent *scope
	binds  *[]expression.CorrelatedBinding
}

func (b *Builder) rootScope(ctx *sql.Context, db string) *scope {
	return &scope{b: b, ctx: ctx, db: db, sch: sql.Schema{}}
}

func (s *scope) withSchema(sch sql.Schema) *scope {
	return &scope{b: s.b, ctx: s.ctx, db: s.db, sch: sch, parent: s.parent, binds: s.binds}
}

// childScope starts a fresh subquery build: the new scope's parent is s
// itself, and unresolved columns found one level up are recorded as
// correlated bindings into the returned slice.
func (s *scope) childScope(sch sql.Schema) (*scope, *[]expression.CorrelatedBinding) {
	binds := &[]expression.CorrelatedBinding{}
	return &scope{b: s.b, ctx: s.ctx, db: s.db, sch: sch, parent: s, binds: binds}, binds
}

// resolveColumn binds table.name (table may be "") against sch, then
// against the one enclosing scope, recording a correlated binding if found
// there (§4.1 binding rules: qualified-flat-name-first via IndexOfFlat).
func (s *scope) resolveColumn(table, name string) (sql.Expression, error) {
	if idx, err := s.sch.IndexOfFlat(table, name); err == nil {
		return expression.NewGetField(idx, s.sch[idx].Type, s.sch[idx].Name, s.sch[idx].Source), nil
	}
	if s.parent != nil {
		if idx, err := s.parent.sch.IndexOfFlat(table, name); err == nil {
			varName := fmt.Sprintf("@__corr_%d", s.b.corrSeq)
			s.b.corrSeq++
			*s.binds = append(*s.binds, expression.CorrelatedBinding{OuterIndex: idx, VarName: varName})
			return expression.NewUserVar(strings.TrimPrefix(varName, "@")), nil
		}
	}
	if table != "" {
		return nil, sql.ErrTableColumnNotFound.New(table, name)
	}
	return nil, sql.ErrColumnNotFound.New(name)
}

// resolveDB returns the database name to operate against: an explicit name
// if given, else the scope's current database, erroring if neither is set
// (§5: "every statement resolves against a current database unless
// schema-qualified").
func (s *scope) resolveDB(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if s.db != "" {
		return s.db, nil
	}
	return "", sql.ErrInvariantBreach.New("no database selected")
}

func (s *scope) database(name string) (sql.Database, error) {
	return s.b.Catalog.Database(name)
}

// Build compiles stmt, resolved against db (the session's current database,
// used when stmt doesn't schema-qualify its tables) into a ready-to-execute
// plan.Node (§6).
func (b *Builder) Build(ctx *sql.Context, db string, stmt ast.Statement) (sql.Node, error) {
	s := b.rootScope(ctx, db)
	return b.buildStatement(s, stmt)
}

func (b *Builder) buildStatement(s *scope, stmt ast.Statement) (sql.Node, error) {
	switch n := stmt.(type) {
	case *ast.SelectStatement:
		node, _, err := b.buildSelect(s, n)
		return node, err
	case *ast.InsertStatement:
		return b.buildInsert(s, n)
	case *ast.UpdateStatement:
		return b.buildUpdate(s, n)
	case *ast.DeleteStatement:
		return b.buildDelete(s, n)
	case *ast.CreateTableStatement:
		return b.buildCreateTable(s, n)
	case *ast.DropTableStatement:
		return b.buildDropTable(s, n)
	case *ast.AlterTableStatement:
		return b.buildAlterTable(s, n)
	case *ast.CreateIndexStatement:
		return b.buildCreateIndex(s, n)
	case *ast.DropIndexStatement:
		return b.buildDropIndex(s, n)
	case *ast.CreateViewStatement:
		return b.buildCreateView(s, n)
	case *ast.DropViewStatement:
		return b.buildDropView(s, n)
	case *ast.TransactionStatement:
		return b.buildTransaction(s, n)
	case *ast.SetStatement:
		return b.buildSet(s, n)
	case *ast.ShowStatement:
		return b.buildShow(s, n)
	case *ast.CallStatement:
		return b.buildCall(s, n)
	case *ast.ExplainStatement:
		return b.buildStatement(s, n.Inner)
	default:
		return nil, sql.ErrUnsupportedFeature.New(fmt.Sprintf("statement type %T", stmt))
	}
}

// buildExpr compiles an ast.Expr against s's bound schema (§4.1).
func (b *Builder) buildExpr(s *scope, e ast.Expr) (sql.Expression, error) {
	if e == nil {
		return nil, nil
	}
	switch n := e.(type) {
	case *ast.ColName:
		return s.resolveColumn(n.Table, n.Name)
	case *ast.Literal:
		return literalExpr(n.Value), nil
	case *ast.Star:
		return nil, sql.ErrUnsupportedFeature.New("'*' is only valid in a SELECT list")
	case *ast.BinaryOp:
		return b.buildBinaryOp(s, n)
	case *ast.UnaryOp:
		return b.buildUnaryOp(s, n)
	case *ast.Between:
		val, err := b.buildExpr(s, n.Val)
		if err != nil {
			return nil, err
		}
		lo, err := b.buildExpr(s, n.Lower)
		if err != nil {
			return nil, err
		}
		hi, err := b.buildExpr(s, n.Upper)
		if err != nil {
			return nil, err
		}
		if n.Not {
			return expression.NewNotBetween(val, lo, hi), nil
		}
		return expression.NewBetween(val, lo, hi), nil
	case *ast.CaseExpr:
		return b.buildCase(s, n)
	case *ast.InExpr:
		return b.buildInExpr(s, n)
	case *ast.InSubquery:
		return b.buildInSubquery(s, n)
	case *ast.Quantified:
		return b.buildQuantified(s, n)
	case *ast.ExistsExpr:
		sub, err := b.buildSubqueryExpr(s, n.Subquery)
		if err != nil {
			return nil, err
		}
		if n.Not {
			return expression.NewNotExists(sub), nil
		}
		return expression.NewExists(sub), nil
	case *ast.Subquery:
		return b.buildSubqueryExpr(s, n)
	case *ast.FuncCall:
		return b.buildFuncCall(s, n)
	case *ast.WindowFuncCall:
		return nil, sql.ErrUnsupportedFeature.New("window function outside OVER position")
	default:
		return nil, sql.ErrUnsupportedFeature.New(fmt.Sprintf("expression type %T", e))
	}
}

func (b *Builder) buildCase(s *scope, n *ast.CaseExpr) (sql.Expression, error) {
	value, err := b.buildExpr(s, n.Value)
	if err != nil {
		return nil, err
	}
	branches := make([]expression.CaseBranch, len(n.Branches))
	for i, br := range n.Branches {
		cond, err := b.buildExpr(s, br.Cond)
		if err != nil {
			return nil, err
		}
		then, err := b.buildExpr(s, br.Then)
		if err != nil {
			return nil, err
		}
		branches[i] = expression.CaseBranch{Cond: cond, Then: then}
	}
	els, err := b.buildExpr(s, n.Else)
	if err != nil {
		return nil, err
	}
	return expression.NewCase(value, branches, els), nil
}

func (b *Builder) buildInExpr(s *scope, n *ast.InExpr) (sql.Expression, error) {
	left, err := b.buildExpr(s, n.Left)
	if err != nil {
		return nil, err
	}
	list := make([]sql.Expression, len(n.List))
	for i, e := range n.List {
		v, err := b.buildExpr(s, e)
		if err != nil {
			return nil, err
		}
		list[i] = v
	}
	if n.Not {
		return expression.NewNotInList(left, list), nil
	}
	return expression.NewInList(left, list), nil
}

func (b *Builder) buildInSubquery(s *scope, n *ast.InSubquery) (sql.Expression, error) {
	left, err := b.buildExpr(s, n.Left)
	if err != nil {
		return nil, err
	}
	sub, err := b.buildSubqueryExpr(s, n.Subquery)
	if err != nil {
		return nil, err
	}
	if n.Not {
		return expression.NewNotInSubquery(left, sub), nil
	}
	return expression.NewInSubquery(left, sub), nil
}

func (b *Builder) buildQuantified(s *scope, n *ast.Quantified) (sql.Expression, error) {
	left, err := b.buildExpr(s, n.Left)
	if err != nil {
		return nil, err
	}
	sub, err := b.buildSubqueryExpr(s, n.Subquery)
	if err != nil {
		return nil, err
	}
	op, err := compareOp(n.Op)
	if err != nil {
		return nil, err
	}
	quant := expression.QuantifierAny
	if n.All {
		quant = expression.QuantifierAll
	}
	return expression.NewQuantified(left, op, quant, sub), nil
}

// buildSubqueryExpr builds sub's SELECT as a nested statement, binding any
// column it can't resolve locally to the one enclosing scope (§4.1).
func (b *Builder) buildSubqueryExpr(s *scope, sub *ast.Subquery) (*expression.Subquery, error) {
	inner, binds, err := b.buildSelectCorrelated(s, sub.Select)
	if err != nil {
		return nil, err
	}
	if len(*binds) == 0 {
		return expression.NewSubquery(inner, false), nil
	}
	return expression.NewCorrelatedSubquery(inner, *binds), nil
}

func literalExpr(v interface{}) *expression.Literal {
	return expression.NewLiteral(v, literalType(v))
}
