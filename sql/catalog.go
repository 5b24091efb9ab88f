package sql

import (
	"strings"
	"sync"

	"github.com/vinedb/vine/internal/similartext"
)

// Table is the consumed storage contract (§6). The executor never touches
// pages, B-trees, or the WAL directly; it calls through this interface.
type Table interface {
	Name() string
	Schema() Schema
	// Scan returns every row of the table; when rv is non-nil, the stream
	// is restricted to the version of each row visible under rv (§4.2
	// TableScan semantics, §5 MVCC).
	Scan(ctx *Context, rv ReadView) (RowIter, error)
	InsertRow(ctx *Context, row Row) error
	UpdateRow(ctx *Context, rowID RowID, newRow Row) error
	DeleteRow(ctx *Context, rowID RowID) error
	GetRowBySlot(ctx *Context, rowID RowID) (Row, bool, error)
	Flush(ctx *Context) error
	Optimize(ctx *Context) error
}

// RowID identifies a row's physical slot (§9: "only valid relative to the
// storage engine's current state; never persist across DDL").
type RowID interface{}

// IndexRange bounds an Index.RangeScan: Lo/Hi are nil for an unbounded end.
type IndexRange struct {
	Lo, Hi         Row
	LoInclusive    bool
	HiInclusive    bool
}

// Index is the consumed secondary-index contract (§6).
type Index interface {
	Name() string
	Table() string
	Columns() []string
	Lookup(ctx *Context, key Row) (RowIDIter, error)
	RangeScan(ctx *Context, r IndexRange) (RowIDIter, error)
	ScanAll(ctx *Context) (RowIDIter, error)
}

// RowIDIter streams row-ids from an index scan.
type RowIDIter interface {
	Next(ctx *Context) (RowID, error)
	Close(ctx *Context) error
}

// ForeignKeyAction is the referential action attached to an FK (GLOSSARY).
type ForeignKeyAction int

const (
	FKRestrict ForeignKeyAction = iota
	FKNoAction
	FKCascade
	FKSetNull
	FKSetDefault
)

// ForeignKeyDef describes one foreign key constraint.
type ForeignKeyDef struct {
	Name             string
	ChildTable       string
	ChildColumns     []string
	ParentTable      string
	ParentColumns    []string
	OnDelete         ForeignKeyAction
	OnUpdate         ForeignKeyAction
}

// CheckDef describes one CHECK constraint, stored as text the driver
// compiles (via ExprCompiler) against the table's schema (§4.7).
type CheckDef struct {
	Name       string
	Expression string
	Enforced   bool
}

// TriggerDef describes a trigger (§4.6).
type TriggerDef struct {
	Name    string
	Table   string
	Timing  TriggerTiming
	Event   TriggerEvent
	Body    string // statement text, parsed lazily on first fire
	Order   int
}

type TriggerTiming int

const (
	Before TriggerTiming = iota
	After
)

type TriggerEvent int

const (
	OnInsert TriggerEvent = iota
	OnUpdate
	OnDelete
)

// ViewDef describes a stored view: its defining SELECT text, bound lazily.
type ViewDef struct {
	Name       string
	TextDef    string
}

// ProcedureDef / EventDef hold stored routine text, parsed/executed lazily
// by the driver (§4.6).
type ProcedureDef struct {
	Name       string
	Params     []ProcedureParam
	Body       string
	ReturnType Type // nil for a procedure, set for a stored function
}

type ProcedureParam struct {
	Name string
	Type Type
	Out  bool
}

type EventDef struct {
	Name        string
	Body        string
	LastRun     *Time2
}

// Time2 avoids importing sql/types (which imports sql) for a single field;
// it is a thin alias over the underlying Go representation of DATETIME.
type Time2 = interface{}

// Database is the consumed catalog-scoped storage contract (§6).
type Database interface {
	Name() string
	GetTableInsensitive(ctx *Context, name string) (Table, bool, error)
	GetTableNames(ctx *Context) ([]string, error)
	CreateTable(ctx *Context, name string, schema Schema) error
	DropTable(ctx *Context, name string) error
	UpdateTableSchema(ctx *Context, name string, schema Schema) error

	GetViewDefinition(ctx *Context, name string) (ViewDef, bool, error)
	CreateView(ctx *Context, view ViewDef) error
	DropView(ctx *Context, name string) error
	AllViews(ctx *Context) ([]ViewDef, error)

	AddForeignKey(ctx *Context, fk ForeignKeyDef) error
	DropForeignKey(ctx *Context, table, name string) error
	ForeignKeysReferencing(ctx *Context, table string) ([]ForeignKeyDef, error)
	ForeignKeysFrom(ctx *Context, table string) ([]ForeignKeyDef, error)
	HasForeignKey(ctx *Context, table, name string) (bool, error)

	AddCheck(ctx *Context, table string, c CheckDef) error
	DropCheck(ctx *Context, table, name string) error
	GetChecks(ctx *Context, table string) ([]CheckDef, error)

	AddTrigger(ctx *Context, t TriggerDef) error
	DropTrigger(ctx *Context, table, name string) error
	GetTriggers(ctx *Context, table string) ([]TriggerDef, error)

	AddProcedure(ctx *Context, p ProcedureDef) error
	DropProcedure(ctx *Context, name string) error
	GetProcedure(ctx *Context, name string) (ProcedureDef, bool, error)

	AddEvent(ctx *Context, e EventDef) error
	DropEvent(ctx *Context, name string) error
	GetEvent(ctx *Context, name string) (EventDef, bool, error)

	GetIndexes(ctx *Context, table string) ([]Index, error)
	CreateIndex(ctx *Context, table string, idx Index) error
	DropIndex(ctx *Context, table, name string) error
}

// DatabaseProvider vends Databases by name; the Catalog wraps one (or, in
// the simplest case, is its own provider backed by an in-memory map).
type DatabaseProvider interface {
	Database(ctx *Context, name string) (Database, error)
	HasDatabase(ctx *Context, name string) bool
	AllDatabases(ctx *Context) []Database
}

// Catalog is the process-wide, shared registry of databases (§5: "Catalog:
// mutations go through a single writer lock; reads use a shared lock").
type Catalog struct {
	mu        sync.RWMutex
	dbs       map[string]Database
	Functions FunctionProvider
}

// NewCatalog returns an empty Catalog.
func NewCatalog() *Catalog {
	return &Catalog{dbs: make(map[string]Database)}
}

func (c *Catalog) AddDatabase(db Database) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dbs[strings.ToLower(db.Name())] = db
}

func (c *Catalog) DropDatabase(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.dbs, strings.ToLower(name))
}

func (c *Catalog) DatabaseExists(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.dbs[strings.ToLower(name)]
	return ok
}

// Database returns the named database, or an error including a
// did-you-mean suggestion if a similarly-named database exists (matching
// the teacher's catalog error texture).
func (c *Catalog) Database(name string) (Database, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	db, ok := c.dbs[strings.ToLower(name)]
	if !ok {
		if similar := similartext.Find(c.databaseNamesLocked(), name); similar != "" {
			return nil, ErrDatabaseNotFound.New(name + similar)
		}
		return nil, ErrDatabaseNotFound.New(name)
	}
	return db, nil
}

func (c *Catalog) databaseNamesLocked() []string {
	names := make([]string, 0, len(c.dbs))
	for n := range c.dbs {
		names = append(names, n)
	}
	return names
}

func (c *Catalog) AllDatabases() []Database {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Database, 0, len(c.dbs))
	for _, db := range c.dbs {
		out = append(out, db)
	}
	return out
}

// RowIDRowIter pairs each scanned row with the RowID a subsequent
// UpdateRow/DeleteRow call needs, for the statement driver's validate phase
// (§4.5: "scan to identify target rows, then mutate").
type RowIDRowIter interface {
	Next(ctx *Context) (RowID, Row, error)
	Close(ctx *Context) error
}

// RowIDScanner is implemented by tables that can pair scanned rows with
// their RowID; the statement driver type-asserts for it when compiling
// UPDATE/DELETE.
type RowIDScanner interface {
	ScanWithRowIDs(ctx *Context, rv ReadView) (RowIDRowIter, error)
}

// Table resolves (database, table) to a Table and its owning Database.
func (c *Catalog) Table(ctx *Context, dbName, tableName string) (Table, Database, error) {
	db, err := c.Database(dbName)
	if err != nil {
		return nil, nil, err
	}
	t, ok, err := db.GetTableInsensitive(ctx, tableName)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, ErrTableNotFound.New(tableName)
	}
	return t, db, nil
}
