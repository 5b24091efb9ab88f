// Package sqle ties the statement driver together: a Catalog, a function
// registry, the sql/planbuilder compiler, and the sql/rowexec physical
// driver, behind one Engine.Query entry point (§5, §6). Parsing SQL text
// into a sql/ast.Statement is out of scope (§1 Non-goals); callers hand
// Engine an already-built statement, the same boundary sql/planbuilder
// itself consumes.
package sqle

import (
	"context"
	"sync"
	"sync/atomic"

	pkgerrors "github.com/pkg/errors"

	"github.com/vinedb/vine/sql"
	"github.com/vinedb/vine/sql/ast"
	"github.com/vinedb/vine/sql/expression/function"
	"github.com/vinedb/vine/sql/planbuilder"
	"github.com/vinedb/vine/sql/rowexec"
)

// Config configures a new Engine. The zero Config is a usable, writable,
// authentication-disabled engine.
type Config struct {
	// IsReadOnly rejects every statement that mutates data or schema with
	// ErrReadOnly (§4.5 privilege check sits alongside this check).
	IsReadOnly bool
	// Privileges authorizes statements by (user, host, privilege, database,
	// table). Nil means AllowAllPrivilegeStore: every statement is
	// authorized, matching the teacher's auth-disabled default.
	Privileges sql.PrivilegeStore
}

// PreparedDataCache holds one parsed statement per (session, name) for
// PREPARE/EXECUTE/DEALLOCATE PREPARE, mirroring the teacher's
// PreparedDataCache but keyed to an already-built ast.Statement rather than
// a parser's output, since parsing itself is out of scope (§4 Supplemented
// features).
type PreparedDataCache struct {
	mu   sync.Mutex
	data map[uint32]map[string]ast.Statement
}

// NewPreparedDataCache returns an empty cache.
func NewPreparedDataCache() *PreparedDataCache {
	return &PreparedDataCache{data: make(map[uint32]map[string]ast.Statement)}
}

// CacheStmt associates name with stmt for the given session id.
func (p *PreparedDataCache) CacheStmt(sessID uint32, name string, stmt ast.Statement) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.data[sessID]; !ok {
		p.data[sessID] = make(map[string]ast.Statement)
	}
	p.data[sessID][name] = stmt
}

// GetCachedStmt returns the statement prepared under name for sessID, or
// false if none exists.
func (p *PreparedDataCache) GetCachedStmt(sessID uint32, name string) (ast.Statement, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	sess, ok := p.data[sessID]
	if !ok {
		return nil, false
	}
	stmt, ok := sess[name]
	return stmt, ok
}

// UncacheStmt removes name from sessID's prepared statements.
func (p *PreparedDataCache) UncacheStmt(sessID uint32, name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if sess, ok := p.data[sessID]; ok {
		delete(sess, name)
	}
}

// DeleteSessionData clears every prepared statement belonging to sessID,
// called when a connection closes.
func (p *PreparedDataCache) DeleteSessionData(sessID uint32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.data, sessID)
}

// Engine is the statement driver described across §4.5/§5/§6: it compiles
// an ast.Statement against Catalog via Builder, runs the resulting plan
// through rowexec.Build, and enforces the read-only and privilege checks a
// production deployment layers in front of both.
type Engine struct {
	Catalog           *sql.Catalog
	Builder           *planbuilder.Builder
	Privileges        sql.PrivilegeStore
	ProcessList       sql.ProcessList
	LS                *sql.LockSubsystem
	MemoryManager     *sql.MemoryManager
	PreparedDataCache *PreparedDataCache
	ReadOnly          atomic.Bool

	mu      sync.Mutex
	nextPid uint64
}

// New returns an Engine operating against cat. If cat has no function
// registry attached, it is seeded with function.NewDefaultRegistry (§4.1).
func New(cat *sql.Catalog, cfg *Config) *Engine {
	if cfg == nil {
		cfg = &Config{}
	}
	if cat.Functions == nil {
		cat.Functions = function.NewDefaultRegistry()
	}
	privs := cfg.Privileges
	if privs == nil {
		privs = sql.AllowAllPrivilegeStore()
	}
	e := &Engine{
		Catalog:           cat,
		Builder:           planbuilder.New(cat, cat.Functions),
		Privileges:        privs,
		ProcessList:       sql.NewProcessList(),
		LS:                sql.NewLockSubsystem(),
		MemoryManager:     sql.NewMemoryManager(sql.ProcessMemory),
		PreparedDataCache: NewPreparedDataCache(),
	}
	e.ReadOnly.Store(cfg.IsReadOnly)
	return e
}

// NewDefault returns an Engine over a Catalog preloaded from pro, the
// common case for tests and tools that start from a sql.DatabaseProvider
// (e.g. memory.Provider.ToCatalog) rather than building a Catalog by hand.
func NewDefault(pro sql.DatabaseProvider) *Engine {
	cat := sql.NewCatalog()
	for _, db := range pro.AllDatabases(sql.NewEmptyContext()) {
		cat.AddDatabase(db)
	}
	return New(cat, nil)
}

// NewContext builds a Context for one statement: it attaches session
// (creating a fresh BaseSession if nil), this Engine's Catalog and
// LockSubsystem, and registers the query with ProcessList so SHOW
// PROCESSLIST and Kill can observe and cancel it.
func (e *Engine) NewContext(goCtx context.Context, session sql.Session, query string) *sql.Context {
	if session == nil {
		session = sql.NewBaseSession()
	}
	e.mu.Lock()
	e.nextPid++
	pid := e.nextPid
	e.mu.Unlock()

	ctx := sql.NewContext(goCtx,
		sql.WithSession(session),
		sql.WithPid(pid),
		sql.WithQuery(query),
		sql.WithLockSubsystem(e.LS),
		sql.WithCatalog(e.Catalog),
	)
	e.ProcessList.AddProcess(ctx, query)
	return ctx
}

// CloseContext retires the bookkeeping NewContext registered for ctx. Every
// statement driven through Query/Prepare/Execute that used NewContext
// should defer this.
func (e *Engine) CloseContext(ctx *sql.Context) {
	e.ProcessList.EndQuery(ctx)
}

// Query compiles stmt against ctx's current database and runs it,
// returning the result schema and a RowIter the caller must Close (§4.5:
// "compile(statement) -> physical operator tree", then rowexec drives it).
func (e *Engine) Query(ctx *sql.Context, stmt ast.Statement) (sql.Schema, sql.RowIter, error) {
	if err := e.authorize(ctx, stmt); err != nil {
		return nil, nil, err
	}
	node, err := e.Builder.Build(ctx, ctx.GetCurrentDatabase(), stmt)
	if err != nil {
		return nil, nil, err
	}
	iter, err := rowexec.Build(ctx, node)
	if err != nil {
		return nil, nil, err
	}
	return node.Schema(), iter, nil
}

// QueryRows is a convenience over Query that drains the iterator fully,
// for callers (tests, scripts) that don't need streaming.
func (e *Engine) QueryRows(ctx *sql.Context, stmt ast.Statement) (sql.Schema, []sql.Row, error) {
	sch, iter, err := e.Query(ctx, stmt)
	if err != nil {
		return nil, nil, err
	}
	rows, err := sql.RowIterToRows(ctx, sch, iter)
	if err != nil {
		return nil, nil, err
	}
	return sch, rows, nil
}

// Prepare records stmt under name for this session, for a subsequent
// Execute (§4 Supplemented features: PREPARE/EXECUTE/DEALLOCATE PREPARE).
// Parsing the statement text itself is out of scope; callers that have
// already built stmt from their own source just register it here.
func (e *Engine) Prepare(ctx *sql.Context, name string, stmt ast.Statement) {
	e.PreparedDataCache.CacheStmt(ctx.Session.ID(), name, stmt)
}

// Execute runs the statement previously Prepared under name.
func (e *Engine) Execute(ctx *sql.Context, name string) (sql.Schema, sql.RowIter, error) {
	stmt, ok := e.PreparedDataCache.GetCachedStmt(ctx.Session.ID(), name)
	if !ok {
		return nil, nil, sql.ErrUnsupportedFeature.New("unknown prepared statement: " + name)
	}
	return e.Query(ctx, stmt)
}

// Deallocate forgets the statement prepared under name.
func (e *Engine) Deallocate(ctx *sql.Context, name string) {
	e.PreparedDataCache.UncacheStmt(ctx.Session.ID(), name)
}

// Close releases resources associated with sess's prepared statements,
// called when a connection closes.
func (e *Engine) Close(sess sql.Session) error {
	e.PreparedDataCache.DeleteSessionData(sess.ID())
	return nil
}

// authorize rejects a mutating statement against a read-only engine, then
// consults Privileges for the statement's required grant (§4.5 privilege
// check). A statement whose privilege requirement can't be determined
// before planbuilder resolves it (most admin/transaction statements) skips
// the check entirely rather than guessing.
func (e *Engine) authorize(ctx *sql.Context, stmt ast.Statement) error {
	if e.ReadOnly.Load() && isWriteStatement(stmt) {
		return sql.ErrReadOnly.New()
	}
	priv, table, ok := requiredPrivilege(stmt)
	if !ok {
		return nil
	}
	client := ctx.Session.Client()
	db := ctx.GetCurrentDatabase()
	if !e.Privileges.HasPrivilege(client.User, client.Address, priv, db, table) {
		return sql.ErrPrivilegeDenied.New(client.User, priv, db)
	}
	return nil
}

// isWriteStatement reports whether stmt mutates table data, schema, or
// global state, the set a read-only engine rejects.
func isWriteStatement(stmt ast.Statement) bool {
	switch n := stmt.(type) {
	case *ast.InsertStatement, *ast.UpdateStatement, *ast.DeleteStatement,
		*ast.CreateTableStatement, *ast.DropTableStatement, *ast.AlterTableStatement,
		*ast.CreateIndexStatement, *ast.DropIndexStatement,
		*ast.CreateViewStatement, *ast.DropViewStatement:
		return true
	case *ast.SetStatement:
		for _, v := range n.Vars {
			if v.Global {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// requiredPrivilege maps a statement to the Privilege it needs and the
// table it targets (empty for database- or server-scoped statements); ok is
// false for statements that carry no privilege check (transaction control,
// SHOW, SET).
func requiredPrivilege(stmt ast.Statement) (priv sql.Privilege, table string, ok bool) {
	switch n := stmt.(type) {
	case *ast.SelectStatement:
		return sql.PrivSelect, selectTargetTable(n), true
	case *ast.InsertStatement:
		return sql.PrivInsert, n.Table.Name, true
	case *ast.UpdateStatement:
		return sql.PrivUpdate, tableExprName(n.Table), true
	case *ast.DeleteStatement:
		return sql.PrivDelete, tableExprName(n.Table), true
	case *ast.CreateTableStatement:
		return sql.PrivCreate, n.Table.Name, true
	case *ast.DropTableStatement:
		return sql.PrivDrop, "", true
	case *ast.AlterTableStatement:
		return sql.PrivAlter, n.Table, true
	case *ast.CreateIndexStatement:
		return sql.PrivIndex, n.Table, true
	case *ast.DropIndexStatement:
		return sql.PrivIndex, n.Table, true
	case *ast.CreateViewStatement:
		return sql.PrivCreate, n.Name, true
	case *ast.DropViewStatement:
		return sql.PrivDrop, n.Name, true
	case *ast.CallStatement:
		return sql.PrivExecute, n.Name, true
	case *ast.ExplainStatement:
		return requiredPrivilege(n.Inner)
	default:
		return "", "", false
	}
}

func tableExprName(te ast.TableExpr) string {
	if tn, ok := te.(*ast.TableName); ok {
		return tn.Name
	}
	return ""
}

func selectTargetTable(sel *ast.SelectStatement) string {
	if sel.From == nil {
		return ""
	}
	return tableExprName(sel.From)
}

// wrapDriverError adds stack context to an error surfaced at the driver
// boundary (§2 Errors: "wrapping storage/spill I/O errors with stack
// context at the driver boundary"), used by callers that flush storage
// directly rather than through rowexec's own transaction control path.
func wrapDriverError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return pkgerrors.Wrap(err, msg)
}

// FlushAll flushes every table in every database in the Catalog, for a
// clean process shutdown: a crash between a table's in-memory write and its
// durable flush would otherwise lose that write on restart.
func (e *Engine) FlushAll(ctx *sql.Context) error {
	for _, db := range e.Catalog.AllDatabases() {
		names, err := db.GetTableNames(ctx)
		if err != nil {
			return wrapDriverError(err, "listing tables in "+db.Name())
		}
		for _, name := range names {
			tab, ok, err := db.GetTableInsensitive(ctx, name)
			if err != nil {
				return wrapDriverError(err, "resolving table "+name)
			}
			if !ok {
				continue
			}
			if err := tab.Flush(ctx); err != nil {
				return wrapDriverError(err, "flushing table "+db.Name()+"."+name)
			}
		}
	}
	return nil
}
