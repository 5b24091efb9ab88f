package memory

import (
	"strings"
	"sync"

	"github.com/vinedb/vine/sql"
)

// Provider is a minimal sql.DatabaseProvider backed by a map of Databases,
// the reference engine's default when no other storage engine is attached.
// A real deployment would plug in a provider backed by the actual storage
// layer; this one exists so the engine and its tests always have something
// to register with a sql.Catalog.
type Provider struct {
	mu  sync.RWMutex
	dbs map[string]*Database
}

// NewProvider returns a Provider seeded with the given databases.
func NewProvider(dbs ...*Database) *Provider {
	p := &Provider{dbs: make(map[string]*Database)}
	for _, db := range dbs {
		p.dbs[strings.ToLower(db.Name())] = db
	}
	return p
}

// AddDatabase registers db under its lower-cased name, replacing any
// database already registered under that name.
func (p *Provider) AddDatabase(db *Database) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dbs[strings.ToLower(db.Name())] = db
}

// DropDatabase removes the named database.
func (p *Provider) DropDatabase(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.dbs, strings.ToLower(name))
}

func (p *Provider) Database(ctx *sql.Context, name string) (sql.Database, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	db, ok := p.dbs[strings.ToLower(name)]
	if !ok {
		return nil, sql.ErrDatabaseNotFound.New(name)
	}
	return db, nil
}

func (p *Provider) HasDatabase(ctx *sql.Context, name string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.dbs[strings.ToLower(name)]
	return ok
}

func (p *Provider) AllDatabases(ctx *sql.Context) []sql.Database {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]sql.Database, 0, len(p.dbs))
	for _, db := range p.dbs {
		out = append(out, db)
	}
	return out
}

// ToCatalog builds a sql.Catalog preloaded with every database in p, for
// callers that drive execution through Catalog.Table/Database rather than a
// DatabaseProvider directly.
func (p *Provider) ToCatalog() *sql.Catalog {
	cat := sql.NewCatalog()
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, db := range p.dbs {
		cat.AddDatabase(db)
	}
	return cat
}

var _ sql.DatabaseProvider = (*Provider)(nil)
