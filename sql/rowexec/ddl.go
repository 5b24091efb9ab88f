package rowexec

import (
	"io"
	"strings"

	"github.com/vinedb/vine/sql"
	"github.com/vinedb/vine/sql/plan"
)

func buildCreateTable(ctx *sql.Context, n *plan.CreateTable) (sql.RowIter, error) {
	db, err := resolveDB(ctx, n.Db)
	if err != nil {
		return nil, err
	}
	if _, ok, err := db.GetTableInsensitive(ctx, n.TableName); err != nil {
		return nil, err
	} else if ok {
		if n.IfNotExists {
			return oneRowAffected(0), nil
		}
		return nil, sql.ErrInvariantBreach.New("table already exists: " + n.TableName)
	}
	if err := db.CreateTable(ctx, n.TableName, n.TableSchema); err != nil {
		return nil, err
	}
	for _, fk := range n.ForeignKeys {
		if err := db.AddForeignKey(ctx, fk); err != nil {
			return nil, err
		}
	}
	for _, c := range n.Checks {
		if err := db.AddCheck(ctx, n.TableName, c); err != nil {
			return nil, err
		}
	}
	return oneRowAffected(0), nil
}

func buildDropTable(ctx *sql.Context, n *plan.DropTable) (sql.RowIter, error) {
	db, err := resolveDB(ctx, n.Db)
	if err != nil {
		return nil, err
	}
	for _, t := range n.Tables {
		_, ok, err := db.GetTableInsensitive(ctx, t)
		if err != nil {
			return nil, err
		}
		if !ok {
			if n.IfExists {
				continue
			}
			return nil, sql.ErrTableNotFound.New(t)
		}
		if err := db.DropTable(ctx, t); err != nil {
			return nil, err
		}
	}
	return oneRowAffected(0), nil
}

// buildAlterTable changes only the schema for column operations and hands
// the new schema to Database.UpdateTableSchema; carrying the stored rows
// over to it (by column name, default-filling an added column) is left to
// the storage engine and not done here (§4.5).
func buildAlterTable(ctx *sql.Context, n *plan.AlterTable) (sql.RowIter, error) {
	db, err := resolveDB(ctx, n.Db)
	if err != nil {
		return nil, err
	}
	tab, _, err := db.GetTableInsensitive(ctx, n.TableName)
	if err != nil {
		return nil, err
	}

	switch n.Kind {
	case plan.AlterAddColumn:
		newSch := append(append(sql.Schema{}, tab.Schema()...), n.Column)
		return oneRowAffected(0), db.UpdateTableSchema(ctx, n.TableName, newSch)
	case plan.AlterDropColumn:
		var newSch sql.Schema
		for _, c := range tab.Schema() {
			if !strings.EqualFold(c.Name, n.DropCol) {
				newSch = append(newSch, c)
			}
		}
		return oneRowAffected(0), db.UpdateTableSchema(ctx, n.TableName, newSch)
	case plan.AlterModifyColumn:
		newSch := append(sql.Schema{}, tab.Schema()...)
		for i, c := range newSch {
			if strings.EqualFold(c.Name, n.Column.Name) {
				newSch[i] = n.Column
			}
		}
		return oneRowAffected(0), db.UpdateTableSchema(ctx, n.TableName, newSch)
	case plan.AlterAddForeignKey:
		return oneRowAffected(0), db.AddForeignKey(ctx, *n.FK)
	case plan.AlterDropForeignKey:
		return oneRowAffected(0), db.DropForeignKey(ctx, n.TableName, n.DropFK)
	case plan.AlterAddCheck:
		return oneRowAffected(0), db.AddCheck(ctx, n.TableName, *n.Check)
	case plan.AlterDropCheck:
		return oneRowAffected(0), db.DropCheck(ctx, n.TableName, n.DropChk)
	case plan.AlterRenameTable:
		return oneRowAffected(0), renameTable(ctx, db, tab, n.TableName, n.NewName)
	default:
		return nil, sql.ErrUnsupportedFeature.New("alter table kind")
	}
}

// renameTable has no direct Database primitive, so it creates the new name
// with the same schema, copies every row across, and drops the old name.
// Unlike the other ALTER forms, which leave the stored rows to the storage
// engine's UpdateTableSchema, this copies rows itself, since renaming
// without an explicit catalog rename operation has no cheaper path over
// this reference storage contract.
func renameTable(ctx *sql.Context, db sql.Database, tab sql.Table, oldName, newName string) error {
	sch := tab.Schema()
	if err := db.CreateTable(ctx, newName, sch); err != nil {
		return err
	}
	newTab, _, err := db.GetTableInsensitive(ctx, newName)
	if err != nil {
		return err
	}
	it, err := tab.Scan(ctx, nil)
	if err != nil {
		return err
	}
	for {
		row, err := it.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			_ = it.Close(ctx)
			return err
		}
		if err := newTab.InsertRow(ctx, row); err != nil {
			_ = it.Close(ctx)
			return err
		}
	}
	if err := it.Close(ctx); err != nil {
		return err
	}
	return db.DropTable(ctx, oldName)
}

func buildCreateIndex(ctx *sql.Context, n *plan.CreateIndex) (sql.RowIter, error) {
	db, err := resolveDB(ctx, n.Db)
	if err != nil {
		return nil, err
	}
	return oneRowAffected(0), db.CreateIndex(ctx, n.Table, n.Idx)
}

func buildDropIndex(ctx *sql.Context, n *plan.DropIndex) (sql.RowIter, error) {
	db, err := resolveDB(ctx, n.Db)
	if err != nil {
		return nil, err
	}
	return oneRowAffected(0), db.DropIndex(ctx, n.Table, n.Name)
}

func buildCreateView(ctx *sql.Context, n *plan.CreateView) (sql.RowIter, error) {
	db, err := resolveDB(ctx, n.Db)
	if err != nil {
		return nil, err
	}
	return oneRowAffected(0), db.CreateView(ctx, n.View)
}

func buildDropView(ctx *sql.Context, n *plan.DropView) (sql.RowIter, error) {
	db, err := resolveDB(ctx, n.Db)
	if err != nil {
		return nil, err
	}
	return oneRowAffected(0), db.DropView(ctx, n.Name)
}
