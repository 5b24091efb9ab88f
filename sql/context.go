package sql

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Context threads a cancellable context.Context, the active Session, a
// logger, and per-query bookkeeping through every operator's Open/Next/
// Close call, mirroring the teacher's central plumbing object. Operators
// check ctx.Err() (the cooperative cancellation token, §5) at each Next
// boundary.
type Context struct {
	context.Context
	Session   Session
	QueryTime time.Time
	pid       uint64
	query     string
	logger    *logrus.Entry
	locks     NamedLockManager
	catalog   *Catalog
}

// ContextOption configures a Context at construction time.
type ContextOption func(*Context)

// WithSession attaches a Session to the context.
func WithSession(s Session) ContextOption {
	return func(c *Context) { c.Session = s }
}

// WithPid attaches a process-list id to the context.
func WithPid(pid uint64) ContextOption {
	return func(c *Context) { c.pid = pid }
}

// WithQuery attaches the query text being executed, for logging.
func WithQuery(q string) ContextOption {
	return func(c *Context) { c.query = q }
}

// WithLockSubsystem attaches the process-wide named-lock manager backing
// GET_LOCK/RELEASE_LOCK/IS_FREE_LOCK (§6).
func WithLockSubsystem(ls NamedLockManager) ContextOption {
	return func(c *Context) { c.locks = ls }
}

// WithCatalog attaches the Catalog the statement driver consults to reach a
// statement's owning Database (for FK/check/trigger lookups beyond the
// single Table a plan node already carries).
func WithCatalog(cat *Catalog) ContextOption {
	return func(c *Context) { c.catalog = cat }
}

// GetCatalog returns the Catalog this context's engine was built with.
func (c *Context) GetCatalog() *Catalog { return c.catalog }

// NewContext creates a Context wrapping the given Go context.
func NewContext(ctx context.Context, opts ...ContextOption) *Context {
	c := &Context{
		Context:   ctx,
		QueryTime: time.Now(),
		logger:    logrus.NewEntry(logrus.StandardLogger()),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.Session == nil {
		c.Session = NewBaseSession()
	}
	if c.locks == nil {
		c.locks = defaultLockSubsystem
	}
	return c
}

// GetLockSubsystem returns the named-lock manager backing GET_LOCK and
// friends for this context.
func (c *Context) GetLockSubsystem() NamedLockManager { return c.locks }

// NewEmptyContext returns a Context over context.Background with a fresh
// base session, for tests and tools that don't need a real session.
func NewEmptyContext() *Context {
	return NewContext(context.Background())
}

// GetLogger returns the structured logger for this context, pre-populated
// with the process id and query text as fields.
func (c *Context) GetLogger() *logrus.Entry {
	return c.logger.WithFields(logrus.Fields{"pid": c.pid, "query": c.query})
}

// WithLogger returns a copy of the context with its logger replaced.
func (c *Context) WithLogger(l *logrus.Entry) *Context {
	nc := *c
	nc.logger = l
	return &nc
}

// Pid returns the process-list id of the query being executed under this
// context.
func (c *Context) Pid() uint64 { return c.pid }

// Pid32 narrows Pid to uint32, the width GET_LOCK/RELEASE_LOCK use to key a
// named lock's owner (§6).
func (c *Context) Pid32() uint32 { return uint32(c.pid) }

// Query returns the query text being executed.
func (c *Context) Query() string { return c.query }

// GetTransaction returns the session's active transaction handle, or nil.
func (c *Context) GetTransaction() Transaction {
	return c.Session.GetTransaction()
}

// SetTransaction installs tx (or nil to clear) as the session's active
// transaction.
func (c *Context) SetTransaction(tx Transaction) {
	c.Session.SetTransaction(tx)
}

// GetCurrentDatabase returns the session's current database name.
func (c *Context) GetCurrentDatabase() string {
	return c.Session.GetCurrentDatabase()
}

// SetCurrentDatabase sets the session's current database name.
func (c *Context) SetCurrentDatabase(db string) {
	c.Session.SetCurrentDatabase(db)
}
