package sql

import (
	"strings"
	"sync"
)

// Client identifies the connected principal, used by privilege checks and
// by triggers/events that must run under the definer's identity.
type Client struct {
	User    string
	Address string
}

// LockWaitPolicy governs how a scan reacts to a conflicting row lock (§5).
type LockWaitPolicy int

const (
	LockWait LockWaitPolicy = iota
	LockNoWait
	LockSkipLocked
)

// LockMode is the mode a locking SELECT acquires on the rows it reads.
type LockMode int

const (
	NoLock LockMode = iota
	LockShare
	LockUpdate
)

// LockingContext is the per-statement bundle described in the GLOSSARY:
// mode, wait policy, the transaction handle, and (indirectly, via the
// session) the lock manager scans consult.
type LockingContext struct {
	Mode       LockMode
	WaitPolicy LockWaitPolicy
	Timeout    int // seconds; the configured lock-wait timeout
}

// ProcedureFrame holds the state described in §4.6: local variables, a
// return slot, and the LEAVE/ITERATE label slots control-flow statements
// consult after executing each body statement.
type ProcedureFrame struct {
	Locals       map[string]interface{}
	LocalTypes   map[string]Type
	ReturnValue  interface{}
	ReturnSet    bool
	LeaveLabel   string
	IterateLabel string
}

// NewProcedureFrame returns an empty frame.
func NewProcedureFrame() *ProcedureFrame {
	return &ProcedureFrame{
		Locals:     make(map[string]interface{}),
		LocalTypes: make(map[string]Type),
	}
}

// SetLocal assigns a local variable, declaring its type if new.
func (f *ProcedureFrame) SetLocal(name string, t Type, v interface{}) {
	name = strings.ToLower(name)
	f.Locals[name] = v
	if t != nil {
		f.LocalTypes[name] = t
	}
}

// GetLocal returns a local variable's value and whether it is declared.
func (f *ProcedureFrame) GetLocal(name string) (interface{}, bool) {
	v, ok := f.Locals[strings.ToLower(name)]
	return v, ok
}

// SignalLeave and SignalIterate record that LEAVE/ITERATE label was hit after a body
// statement; loops check these slots at each body-statement boundary and
// clear the matching one before continuing, or propagate otherwise (§4.6).
func (f *ProcedureFrame) SignalLeave(label string)   { f.LeaveLabel = label }
func (f *ProcedureFrame) SignalIterate(label string) { f.IterateLabel = label }

// Pending reports whether a LEAVE, ITERATE, or RETURN is pending on this
// frame.
func (f *ProcedureFrame) Pending() bool {
	return f.LeaveLabel != "" || f.IterateLabel != "" || f.ReturnSet
}

// MaterializedCTE is a named result set visible only within the query that
// defined it (§3).
type MaterializedCTE struct {
	Name   string
	Schema Schema
	Rows   []Row
}

// Session is the per-connection state described in §3 and §4.5's driver.
// TransactionSession and other narrower interfaces let collaborators type-
// assert for the capabilities they need (the teacher follows the same
// pattern: sql.Session is broad, sql.TransactionSession is a refinement).
type Session interface {
	ID() uint32
	Client() Client
	SetClient(Client)

	GetCurrentDatabase() string
	SetCurrentDatabase(string)

	GetTransaction() Transaction
	SetTransaction(Transaction)

	GetIgnoreAutoCommit() bool
	SetIgnoreAutoCommit(bool)

	SystemVariables() *SystemVariables

	LastInsertId() uint64
	SetLastInsertId(uint64)

	RowCount() uint64
	SetRowCount(uint64)

	// LockingContext returns the locking options established for the
	// in-flight SELECT, or the zero value if none.
	LockingContext() LockingContext
	SetLockingContext(LockingContext)

	// CTEs returns the CTE dictionary for the in-flight query.
	CTEs() map[string]*MaterializedCTE
	AddCTE(*MaterializedCTE)
	ClearCTEs()

	// Frames is the procedure frame stack (§4.5): index 0 is the
	// outermost, the statement-level, frame.
	PushFrame(*ProcedureFrame)
	PopFrame() *ProcedureFrame
	CurrentFrame() *ProcedureFrame

	ValidateSession(ctx *Context) error
}

// TransactionSession is implemented by sessions whose storage engine can
// start/commit/rollback transactions directly (as opposed to delegating
// entirely to an external TransactionManager).
type TransactionSession interface {
	Session
	StartTransaction(ctx *Context, mode TxAccessMode) (Transaction, error)
	CommitTransaction(ctx *Context, tx Transaction) error
	Rollback(ctx *Context, tx Transaction) error
}

// BaseSession is a minimal, storage-agnostic Session implementation reused
// by both the engine's default session and the memory reference package's
// test sessions.
type BaseSession struct {
	mu            sync.Mutex
	id            uint32
	client        Client
	currentDB     string
	tx            Transaction
	ignoreAutoCmt bool
	vars          *SystemVariables
	lastInsertID  uint64
	rowCount      uint64
	lockCtx       LockingContext
	ctes          map[string]*MaterializedCTE
	frames        []*ProcedureFrame
}

// NewBaseSession returns a fresh session with default system variables and
// an empty, single (statement-level) procedure frame.
func NewBaseSession() *BaseSession {
	return &BaseSession{
		vars:   NewSystemVariables(),
		ctes:   make(map[string]*MaterializedCTE),
		frames: []*ProcedureFrame{NewProcedureFrame()},
	}
}

func (s *BaseSession) ID() uint32 { return s.id }

// WithID returns s with its id set; used by the engine/process list to hand
// out session ids.
func (s *BaseSession) WithID(id uint32) *BaseSession {
	s.id = id
	return s
}

func (s *BaseSession) Client() Client       { return s.client }
func (s *BaseSession) SetClient(c Client)   { s.client = c }

func (s *BaseSession) GetCurrentDatabase() string     { return s.currentDB }
func (s *BaseSession) SetCurrentDatabase(db string)   { s.currentDB = db }

func (s *BaseSession) GetTransaction() Transaction   { return s.tx }
func (s *BaseSession) SetTransaction(tx Transaction) { s.tx = tx }

func (s *BaseSession) GetIgnoreAutoCommit() bool   { return s.ignoreAutoCmt }
func (s *BaseSession) SetIgnoreAutoCommit(b bool)  { s.ignoreAutoCmt = b }

func (s *BaseSession) SystemVariables() *SystemVariables { return s.vars }

func (s *BaseSession) LastInsertId() uint64        { return s.lastInsertID }
func (s *BaseSession) SetLastInsertId(id uint64)   { s.lastInsertID = id }

func (s *BaseSession) RowCount() uint64       { return s.rowCount }
func (s *BaseSession) SetRowCount(n uint64)   { s.rowCount = n }

func (s *BaseSession) LockingContext() LockingContext      { return s.lockCtx }
func (s *BaseSession) SetLockingContext(lc LockingContext) { s.lockCtx = lc }

func (s *BaseSession) CTEs() map[string]*MaterializedCTE { return s.ctes }
func (s *BaseSession) AddCTE(c *MaterializedCTE) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctes[strings.ToLower(c.Name)] = c
}
func (s *BaseSession) ClearCTEs() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctes = make(map[string]*MaterializedCTE)
}

func (s *BaseSession) PushFrame(f *ProcedureFrame) {
	s.frames = append(s.frames, f)
}
func (s *BaseSession) PopFrame() *ProcedureFrame {
	if len(s.frames) == 0 {
		return nil
	}
	f := s.frames[len(s.frames)-1]
	s.frames = s.frames[:len(s.frames)-1]
	return f
}
func (s *BaseSession) CurrentFrame() *ProcedureFrame {
	if len(s.frames) == 0 {
		return nil
	}
	return s.frames[len(s.frames)-1]
}

// ValidateSession is a hook integrators may override (by embedding
// BaseSession) to reject a session before a query runs; the default accepts
// everything.
func (s *BaseSession) ValidateSession(ctx *Context) error { return nil }
