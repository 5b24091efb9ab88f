package plan

import "github.com/vinedb/vine/sql"

// noChildNode is embedded by Nodes that never have children (every DDL/
// transaction/admin node: they act directly on the catalog, §2).
type noChildNode struct{}

func (noChildNode) Children() []sql.Node { return nil }
func (noChildNode) Resolved() bool       { return true }
func (noChildNode) Schema() sql.Schema   { return resultSchema }

// CreateTable creates Name with Schema, plus its foreign keys and check
// constraints, failing unless IfNotExists when the table already exists
// (§4.6 DDL).
type CreateTable struct {
	noChildNode
	Db          string
	TableName   string
	TableSchema sql.Schema
	ForeignKeys []sql.ForeignKeyDef
	Checks      []sql.CheckDef
	IfNotExists bool
}

func (n *CreateTable) String() string { return "CreateTable(" + n.TableName + ")" }
func (n *CreateTable) WithChildren(children ...sql.Node) (sql.Node, error) {
	if len(children) != 0 {
		return nil, sql.ErrInvariantBreach.New("CreateTable takes no children")
	}
	return n, nil
}

// DropTable drops each named table, failing unless IfExists when one is
// missing.
type DropTable struct {
	noChildNode
	Db       string
	Tables   []string
	IfExists bool
}

func (n *DropTable) String() string { return "DropTable" }
func (n *DropTable) WithChildren(children ...sql.Node) (sql.Node, error) {
	if len(children) != 0 {
		return nil, sql.ErrInvariantBreach.New("DropTable takes no children")
	}
	return n, nil
}

type AlterKind int

const (
	AlterAddColumn AlterKind = iota
	AlterDropColumn
	AlterModifyColumn
	AlterAddForeignKey
	AlterDropForeignKey
	AlterAddCheck
	AlterDropCheck
	AlterRenameTable
)

// AlterTable applies one schema-evolution action to TableName (§4.6); the
// fields relevant to Kind are populated, the rest left zero.
type AlterTable struct {
	noChildNode
	Db        string
	TableName string
	Kind      AlterKind
	Column    *sql.Column
	DropCol   string
	FK        *sql.ForeignKeyDef
	DropFK    string
	Check     *sql.CheckDef
	DropChk   string
	NewName   string
}

func (n *AlterTable) String() string { return "AlterTable(" + n.TableName + ")" }
func (n *AlterTable) WithChildren(children ...sql.Node) (sql.Node, error) {
	if len(children) != 0 {
		return nil, sql.ErrInvariantBreach.New("AlterTable takes no children")
	}
	return n, nil
}

// CreateIndex creates a secondary index over Table (§4.6).
type CreateIndex struct {
	noChildNode
	Db      string
	Table   string
	Idx     sql.Index
}

func (n *CreateIndex) String() string { return "CreateIndex(" + n.Idx.Name() + ")" }
func (n *CreateIndex) WithChildren(children ...sql.Node) (sql.Node, error) {
	if len(children) != 0 {
		return nil, sql.ErrInvariantBreach.New("CreateIndex takes no children")
	}
	return n, nil
}

// DropIndex drops a secondary index.
type DropIndex struct {
	noChildNode
	Db    string
	Table string
	Name  string
}

func (n *DropIndex) String() string { return "DropIndex(" + n.Name + ")" }
func (n *DropIndex) WithChildren(children ...sql.Node) (sql.Node, error) {
	if len(children) != 0 {
		return nil, sql.ErrInvariantBreach.New("DropIndex takes no children")
	}
	return n, nil
}

// CreateView stores a view definition (§4.6); its SELECT text is bound
// lazily on first reference, not at CREATE time.
type CreateView struct {
	noChildNode
	Db   string
	View sql.ViewDef
}

func (n *CreateView) String() string { return "CreateView(" + n.View.Name + ")" }
func (n *CreateView) WithChildren(children ...sql.Node) (sql.Node, error) {
	if len(children) != 0 {
		return nil, sql.ErrInvariantBreach.New("CreateView takes no children")
	}
	return n, nil
}

// DropView drops a stored view.
type DropView struct {
	noChildNode
	Db   string
	Name string
}

func (n *DropView) String() string { return "DropView(" + n.Name + ")" }
func (n *DropView) WithChildren(children ...sql.Node) (sql.Node, error) {
	if len(children) != 0 {
		return nil, sql.ErrInvariantBreach.New("DropView takes no children")
	}
	return n, nil
}
