package planbuilder

import (
	"strings"

	"github.com/vinedb/vine/sql"
	"github.com/vinedb/vine/sql/ast"
	"github.com/vinedb/vine/sql/plan"
	"github.com/vinedb/vine/sql/types"
)

func (b *Builder) buildTransaction(s *scope, n *ast.TransactionStatement) (sql.Node, error) {
	switch strings.ToLower(n.Kind) {
	case "commit":
		return &plan.TransactionControl{Kind: plan.TxnCommit}, nil
	case "rollback":
		return &plan.TransactionControl{Kind: plan.TxnRollback}, nil
	case "begin", "start":
		return &plan.TransactionControl{Kind: plan.TxnBegin, AccessMode: sql.ReadWrite}, nil
	default:
		return nil, sql.ErrUnsupportedFeature.New("transaction statement " + n.Kind)
	}
}

func (b *Builder) buildSet(s *scope, n *ast.SetStatement) (sql.Node, error) {
	dualScope := s.withSchema(sql.Schema{})
	vars := make([]plan.SetVariable, len(n.Vars))
	for i, v := range n.Vars {
		val, err := b.buildExpr(dualScope, v.Value)
		if err != nil {
			return nil, err
		}
		user := !v.Global && strings.HasPrefix(v.Name, "@")
		vars[i] = plan.SetVariable{
			Name:   strings.TrimPrefix(v.Name, "@"),
			Global: v.Global,
			User:   user,
			Value:  val,
		}
	}
	return &plan.Set{Vars: vars}, nil
}

// buildShow compiles the SHOW forms the catalog can answer directly from
// its in-memory registry (DATABASES/SCHEMAS, TABLES, COLUMNS); any other
// SHOW form is rejected with ErrUnsupportedFeature (§4.6).
func (b *Builder) buildShow(s *scope, n *ast.ShowStatement) (sql.Node, error) {
	switch strings.ToLower(n.Kind) {
	case "databases", "schemas":
		sch := sql.Schema{{Name: "Database", Type: types.LongText}}
		var rows []sql.Row
		for _, db := range b.Catalog.AllDatabases() {
			rows = append(rows, sql.NewRow(db.Name()))
		}
		return plan.NewShow("databases", sch, rows), nil
	case "tables":
		dbName, err := s.resolveDB("")
		if err != nil {
			return nil, err
		}
		db, err := b.Catalog.Database(dbName)
		if err != nil {
			return nil, err
		}
		names, err := db.GetTableNames(s.ctx)
		if err != nil {
			return nil, err
		}
		sch := sql.Schema{{Name: "Tables_in_" + dbName, Type: types.LongText}}
		rows := make([]sql.Row, len(names))
		for i, name := range names {
			rows[i] = sql.NewRow(name)
		}
		return plan.NewShow("tables", sch, rows), nil
	case "columns":
		dbName, err := s.resolveDB("")
		if err != nil {
			return nil, err
		}
		tab, _, err := b.Catalog.Table(s.ctx, dbName, n.Table)
		if err != nil {
			return nil, err
		}
		sch := sql.Schema{
			{Name: "Field", Type: types.LongText},
			{Name: "Type", Type: types.LongText},
			{Name: "Null", Type: types.LongText},
			{Name: "Key", Type: types.LongText},
		}
		var rows []sql.Row
		for _, c := range tab.Schema() {
			null := "YES"
			if !c.Nullable {
				null = "NO"
			}
			key := ""
			if c.PrimaryKey {
				key = "PRI"
			}
			rows = append(rows, sql.NewRow(c.Name, c.Type.String(), null, key))
		}
		return plan.NewShow("columns", sch, rows), nil
	default:
		return nil, sql.ErrUnsupportedFeature.New("SHOW " + n.Kind)
	}
}

func (b *Builder) buildCall(s *scope, n *ast.CallStatement) (sql.Node, error) {
	dbName, err := s.resolveDB("")
	if err != nil {
		return nil, err
	}
	dualScope := s.withSchema(sql.Schema{})
	args := make([]sql.Expression, len(n.Args))
	for i, a := range n.Args {
		e, err := b.buildExpr(dualScope, a)
		if err != nil {
			return nil, err
		}
		args[i] = e
	}
	return &plan.Call{Db: dbName, ProcName: n.Name, Args: args}, nil
}
