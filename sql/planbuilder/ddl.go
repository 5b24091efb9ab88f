package planbuilder

import (
	"strings"

	"github.com/vinedb/vine/sql"
	"github.com/vinedb/vine/sql/ast"
	"github.com/vinedb/vine/sql/plan"
	"github.com/vinedb/vine/sql/types"
)

// resolveType maps a parsed column type name to a concrete sql.Type (§3,
// §6 Parser). Unknown names fail closed rather than silently defaulting,
// since DDL only runs once and a wrong type is hard to notice later.
func resolveType(c ast.ColumnDef) (sql.Type, error) {
	switch strings.ToUpper(c.TypeName) {
	case "TINYINT", "BOOL", "BOOLEAN":
		if strings.EqualFold(c.TypeName, "bool") || strings.EqualFold(c.TypeName, "boolean") {
			return types.Boolean, nil
		}
		return types.TinyInt, nil
	case "SMALLINT":
		return types.SmallInt, nil
	case "INT", "INTEGER":
		return types.Int32, nil
	case "BIGINT":
		return types.Int64, nil
	case "FLOAT":
		return types.Float32, nil
	case "DOUBLE", "REAL":
		return types.Float64, nil
	case "DECIMAL", "NUMERIC":
		precision, scale := 10, 0
		if c.Length > 0 {
			precision = int(c.Length)
		}
		if c.Scale > 0 {
			scale = int(c.Scale)
		}
		return types.MustCreateDecimal(precision, scale), nil
	case "CHAR":
		length := c.Length
		if length == 0 {
			length = 1
		}
		return types.MustCreateChar(length), nil
	case "VARCHAR":
		if c.Length == 0 {
			return nil, sql.ErrUnsupportedFeature.New("VARCHAR requires a length")
		}
		return types.MustCreateVarChar(c.Length), nil
	case "TEXT", "TINYTEXT", "MEDIUMTEXT", "LONGTEXT":
		return types.LongText, nil
	case "BLOB", "TINYBLOB", "MEDIUMBLOB", "LONGBLOB", "BINARY", "VARBINARY":
		return types.CreateBinary(c.Length), nil
	case "DATE":
		return types.Date, nil
	case "TIME":
		return types.Time, nil
	case "DATETIME":
		return types.CreateDatetimeType(false, int(c.Scale)), nil
	case "TIMESTAMP":
		return types.CreateDatetimeType(true, int(c.Scale)), nil
	case "JSON":
		return types.JSON, nil
	default:
		return nil, sql.ErrUnsupportedFeature.New("column type " + c.TypeName)
	}
}

// buildColumnDef resolves one column definition; a Default expression is
// built against an empty schema since sql.Column.Default is documented to
// evaluate against a zero-arity row (§3) — it may only reference literals
// and zero-argument functions, not other columns.
func (b *Builder) buildColumnDef(s *scope, c ast.ColumnDef) (*sql.Column, error) {
	typ, err := resolveType(c)
	if err != nil {
		return nil, err
	}
	col := &sql.Column{
		Name:          c.Name,
		Type:          typ,
		Nullable:      c.Nullable,
		PrimaryKey:    c.PrimaryKey,
		AutoIncrement: c.AutoIncrement,
	}
	if c.Default != nil {
		dflt, err := b.buildExpr(s.withSchema(sql.Schema{}), c.Default)
		if err != nil {
			return nil, err
		}
		col.Default = dflt
	}
	return col, nil
}

func fkAction(s string) sql.ForeignKeyAction {
	switch strings.ToUpper(s) {
	case "CASCADE":
		return sql.FKCascade
	case "SET NULL":
		return sql.FKSetNull
	case "SET DEFAULT":
		return sql.FKSetDefault
	case "NO ACTION":
		return sql.FKNoAction
	default:
		return sql.FKRestrict
	}
}

func (b *Builder) buildCreateTable(s *scope, n *ast.CreateTableStatement) (sql.Node, error) {
	if n.As != nil {
		return nil, sql.ErrUnsupportedFeature.New("CREATE TABLE ... AS SELECT")
	}
	dbName, err := s.resolveDB(n.Table.Database)
	if err != nil {
		return nil, err
	}
	sch := make(sql.Schema, len(n.Columns))
	for i, c := range n.Columns {
		col, err := b.buildColumnDef(s, c)
		if err != nil {
			return nil, err
		}
		sch[i] = col
	}
	fks := make([]sql.ForeignKeyDef, len(n.ForeignKeys))
	for i, fk := range n.ForeignKeys {
		fks[i] = sql.ForeignKeyDef{
			Name:          fk.Name,
			ChildTable:    n.Table.Name,
			ChildColumns:  fk.Columns,
			ParentTable:   fk.ParentTable,
			ParentColumns: fk.ParentColumns,
			OnDelete:      fkAction(fk.OnDelete),
			OnUpdate:      fkAction(fk.OnUpdate),
		}
	}
	checks := make([]sql.CheckDef, len(n.Checks))
	for i, c := range n.Checks {
		checks[i] = sql.CheckDef{Name: c.Name, Expression: c.Expression, Enforced: c.Enforced}
	}
	return &plan.CreateTable{
		Db:          dbName,
		TableName:   n.Table.Name,
		TableSchema: sch,
		ForeignKeys: fks,
		Checks:      checks,
		IfNotExists: n.IfNotExists,
	}, nil
}

func (b *Builder) buildDropTable(s *scope, n *ast.DropTableStatement) (sql.Node, error) {
	dbName, err := s.resolveDB("")
	if err != nil {
		return nil, err
	}
	return &plan.DropTable{Db: dbName, Tables: n.Tables, IfExists: n.IfExists}, nil
}

func alterKind(k ast.AlterKind) plan.AlterKind {
	switch k {
	case ast.AlterAddColumn:
		return plan.AlterAddColumn
	case ast.AlterDropColumn:
		return plan.AlterDropColumn
	case ast.AlterModifyColumn:
		return plan.AlterModifyColumn
	case ast.AlterAddForeignKey:
		return plan.AlterAddForeignKey
	case ast.AlterDropForeignKey:
		return plan.AlterDropForeignKey
	case ast.AlterAddCheck:
		return plan.AlterAddCheck
	case ast.AlterDropCheck:
		return plan.AlterDropCheck
	default:
		return plan.AlterRenameTable
	}
}

func (b *Builder) buildAlterTable(s *scope, n *ast.AlterTableStatement) (sql.Node, error) {
	dbName, err := s.resolveDB("")
	if err != nil {
		return nil, err
	}
	out := &plan.AlterTable{
		Db:        dbName,
		TableName: n.Table,
		Kind:      alterKind(n.Kind),
		DropCol:   n.DropCol,
		DropFK:    n.DropFK,
		DropChk:   n.DropChk,
		NewName:   n.NewName,
	}
	if n.Column != nil {
		col, err := b.buildColumnDef(s, *n.Column)
		if err != nil {
			return nil, err
		}
		out.Column = col
	}
	if n.FK != nil {
		out.FK = &sql.ForeignKeyDef{
			Name:          n.FK.Name,
			ChildTable:    n.Table,
			ChildColumns:  n.FK.Columns,
			ParentTable:   n.FK.ParentTable,
			ParentColumns: n.FK.ParentColumns,
			OnDelete:      fkAction(n.FK.OnDelete),
			OnUpdate:      fkAction(n.FK.OnUpdate),
		}
	}
	if n.Check != nil {
		out.Check = &sql.CheckDef{Name: n.Check.Name, Expression: n.Check.Expression, Enforced: n.Check.Enforced}
	}
	return out, nil
}

func (b *Builder) buildCreateIndex(s *scope, n *ast.CreateIndexStatement) (sql.Node, error) {
	if b.IndexFactory == nil {
		return nil, sql.ErrUnsupportedFeature.New("CREATE INDEX (no index factory configured)")
	}
	dbName, err := s.resolveDB("")
	if err != nil {
		return nil, err
	}
	tab, _, err := b.Catalog.Table(s.ctx, dbName, n.Table)
	if err != nil {
		return nil, err
	}
	idx, err := b.IndexFactory(tab, n.Name, n.Columns, n.Unique)
	if err != nil {
		return nil, err
	}
	return &plan.CreateIndex{Db: dbName, Table: n.Table, Idx: idx}, nil
}

func (b *Builder) buildDropIndex(s *scope, n *ast.DropIndexStatement) (sql.Node, error) {
	dbName, err := s.resolveDB("")
	if err != nil {
		return nil, err
	}
	return &plan.DropIndex{Db: dbName, Table: n.Table, Name: n.Name}, nil
}

func (b *Builder) buildCreateView(s *scope, n *ast.CreateViewStatement) (sql.Node, error) {
	dbName, err := s.resolveDB("")
	if err != nil {
		return nil, err
	}
	return &plan.CreateView{Db: dbName, View: sql.ViewDef{Name: n.Name, TextDef: n.Select.String()}}, nil
}

func (b *Builder) buildDropView(s *scope, n *ast.DropViewStatement) (sql.Node, error) {
	dbName, err := s.resolveDB("")
	if err != nil {
		return nil, err
	}
	return &plan.DropView{Db: dbName, Name: n.Name}, nil
}
