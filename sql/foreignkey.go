package sql

// RowLookup resolves a candidate key (the FK's parent columns) to whether a
// matching parent row exists; ChildExistence resolves whether any child rows
// reference a given parent key. The driver supplies both callbacks so the
// ForeignKeyManager never needs its own storage access (§6: "Takes
// row-lookup and child-existence callbacks the driver provides").
type RowLookup func(ctx *Context, table string, columns []string, key Row) (Row, bool, error)
type ChildRowsLookup func(ctx *Context, table string, columns []string, key Row) ([]Row, error)

// ForeignKeyManager is the consumed collaborator of §6 validating and
// cascading referential actions. The statement driver (package rowexec)
// provides the default implementation, since cascading requires calling
// back into the same mutate path DML uses.
type ForeignKeyManager interface {
	ValidateInsert(ctx *Context, table string, row Row, lookup RowLookup) error
	ValidateDeleteOrUpdate(ctx *Context, table string, oldRow Row, newRow Row, lookup RowLookup, children ChildRowsLookup) ([]CascadeAction, error)
	AddForeignKey(ctx *Context, db Database, fk ForeignKeyDef) error
	DropForeignKey(ctx *Context, db Database, table, name string) error
	ForeignKeysReferencing(ctx *Context, db Database, table string) ([]ForeignKeyDef, error)
}

// CascadeAction is one planned referential-action effect (§4.5 UPDATE/
// DELETE plan phase): apply SetNullColumns/SetDefaultColumns to Row in
// ChildTable, or delete it outright when Delete is true.
type CascadeAction struct {
	ChildTable       string
	Row              Row
	RowID            RowID
	Delete           bool
	SetNullColumns   []int
	SetDefaultColumns []int
}
