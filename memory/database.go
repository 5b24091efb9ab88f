package memory

import (
	"strings"
	"sync"

	"github.com/vinedb/vine/internal/similartext"
	"github.com/vinedb/vine/sql"
)

// Database is the reference sql.Database: every piece of catalog metadata
// (tables, views, constraints, triggers, procedures, events, indexes) lives
// in a plain map behind one mutex. A real storage engine would split these
// across a system catalog and per-table metadata pages; this package keeps
// them together since the contract in sql.Database is all an in-memory
// teaching engine needs to satisfy.
type Database struct {
	mu         sync.RWMutex
	name       string
	tables     map[string]*Table
	views      map[string]sql.ViewDef
	checks     map[string][]sql.CheckDef
	triggers   map[string][]sql.TriggerDef
	procedures map[string]sql.ProcedureDef
	events     map[string]sql.EventDef
	fks        []sql.ForeignKeyDef
	indexes    map[string][]sql.Index
}

// NewDatabase returns an empty database named name.
func NewDatabase(name string) *Database {
	return &Database{
		name:       name,
		tables:     make(map[string]*Table),
		views:      make(map[string]sql.ViewDef),
		checks:     make(map[string][]sql.CheckDef),
		triggers:   make(map[string][]sql.TriggerDef),
		procedures: make(map[string]sql.ProcedureDef),
		events:     make(map[string]sql.EventDef),
		indexes:    make(map[string][]sql.Index),
	}
}

func (d *Database) Name() string { return d.name }

func (d *Database) GetTableInsensitive(ctx *sql.Context, name string) (sql.Table, bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	t, ok := d.tables[strings.ToLower(name)]
	if !ok {
		return nil, false, nil
	}
	return t, true, nil
}

func (d *Database) GetTableNames(ctx *sql.Context) ([]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]string, 0, len(d.tables))
	for _, t := range d.tables {
		out = append(out, t.Name())
	}
	return out, nil
}

func (d *Database) CreateTable(ctx *sql.Context, name string, schema sql.Schema) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	key := strings.ToLower(name)
	if _, ok := d.tables[key]; ok {
		return sql.ErrInvariantBreach.New("table already exists: " + name)
	}
	d.tables[key] = NewTable(name, schema)
	return nil
}

func (d *Database) DropTable(ctx *sql.Context, name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	key := strings.ToLower(name)
	if _, ok := d.tables[key]; !ok {
		return d.notFound(name)
	}
	delete(d.tables, key)
	delete(d.checks, key)
	delete(d.triggers, key)
	delete(d.indexes, key)
	return nil
}

func (d *Database) notFound(name string) error {
	names := make([]string, 0, len(d.tables))
	for _, t := range d.tables {
		names = append(names, t.Name())
	}
	if similar := similartext.Find(names, name); similar != "" {
		return sql.ErrTableNotFound.New(name + similar)
	}
	return sql.ErrTableNotFound.New(name)
}

// UpdateTableSchema replaces a table's schema in place, preserving every
// already-stored row: each row is rewritten onto the new schema by
// resizeRow, matching columns by name, and a column the old schema lacks is
// filled with its Default (NULL when it has none) (§4.6 ALTER TABLE).
func (d *Database) UpdateTableSchema(ctx *sql.Context, name string, schema sql.Schema) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	key := strings.ToLower(name)
	t, ok := d.tables[key]
	if !ok {
		return d.notFound(name)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	old := t.schema
	defaults := make(map[int]interface{})
	for i, c := range schema {
		if c.Default != nil && old.IndexOf(c.Name, "") < 0 {
			v, err := c.Default.Eval(ctx, nil)
			if err != nil {
				return err
			}
			defaults[i] = v
		}
	}
	t.schema = schema.WithSource(t.name)
	for id, row := range t.rows {
		row = resizeRow(old, t.schema, row)
		for i, v := range defaults {
			row[i] = v
		}
		t.rows[id] = row
	}
	return nil
}

// resizeRow maps a row from oldSchema's column order onto newSchema's,
// matching by column name and leaving unmatched (newly added) columns NULL.
func resizeRow(oldSchema, newSchema sql.Schema, row sql.Row) sql.Row {
	out := make(sql.Row, len(newSchema))
	for i, c := range newSchema {
		if j := oldSchema.IndexOf(c.Name, ""); j >= 0 && j < len(row) {
			out[i] = row[j]
		}
	}
	return out
}

func (d *Database) GetViewDefinition(ctx *sql.Context, name string) (sql.ViewDef, bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	v, ok := d.views[strings.ToLower(name)]
	return v, ok, nil
}

func (d *Database) CreateView(ctx *sql.Context, view sql.ViewDef) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.views[strings.ToLower(view.Name)] = view
	return nil
}

func (d *Database) DropView(ctx *sql.Context, name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.views, strings.ToLower(name))
	return nil
}

func (d *Database) AllViews(ctx *sql.Context) ([]sql.ViewDef, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]sql.ViewDef, 0, len(d.views))
	for _, v := range d.views {
		out = append(out, v)
	}
	return out, nil
}

func (d *Database) AddForeignKey(ctx *sql.Context, fk sql.ForeignKeyDef) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fks = append(d.fks, fk)
	return nil
}

func (d *Database) DropForeignKey(ctx *sql.Context, table, name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, fk := range d.fks {
		if strings.EqualFold(fk.ChildTable, table) && strings.EqualFold(fk.Name, name) {
			d.fks = append(d.fks[:i], d.fks[i+1:]...)
			return nil
		}
	}
	return sql.ErrInvariantBreach.New("foreign key not found: " + name)
}

func (d *Database) ForeignKeysReferencing(ctx *sql.Context, table string) ([]sql.ForeignKeyDef, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var out []sql.ForeignKeyDef
	for _, fk := range d.fks {
		if strings.EqualFold(fk.ParentTable, table) {
			out = append(out, fk)
		}
	}
	return out, nil
}

func (d *Database) ForeignKeysFrom(ctx *sql.Context, table string) ([]sql.ForeignKeyDef, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var out []sql.ForeignKeyDef
	for _, fk := range d.fks {
		if strings.EqualFold(fk.ChildTable, table) {
			out = append(out, fk)
		}
	}
	return out, nil
}

func (d *Database) HasForeignKey(ctx *sql.Context, table, name string) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, fk := range d.fks {
		if strings.EqualFold(fk.ChildTable, table) && strings.EqualFold(fk.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

func (d *Database) AddCheck(ctx *sql.Context, table string, c sql.CheckDef) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	key := strings.ToLower(table)
	d.checks[key] = append(d.checks[key], c)
	return nil
}

func (d *Database) DropCheck(ctx *sql.Context, table, name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	key := strings.ToLower(table)
	list := d.checks[key]
	for i, c := range list {
		if strings.EqualFold(c.Name, name) {
			d.checks[key] = append(list[:i], list[i+1:]...)
			return nil
		}
	}
	return sql.ErrInvariantBreach.New("check constraint not found: " + name)
}

func (d *Database) GetChecks(ctx *sql.Context, table string) ([]sql.CheckDef, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.checks[strings.ToLower(table)], nil
}

func (d *Database) AddTrigger(ctx *sql.Context, t sql.TriggerDef) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	key := strings.ToLower(t.Table)
	t.Order = len(d.triggers[key]) + 1
	d.triggers[key] = append(d.triggers[key], t)
	return nil
}

func (d *Database) DropTrigger(ctx *sql.Context, table, name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	key := strings.ToLower(table)
	list := d.triggers[key]
	for i, t := range list {
		if strings.EqualFold(t.Name, name) {
			d.triggers[key] = append(list[:i], list[i+1:]...)
			return nil
		}
	}
	return sql.ErrInvariantBreach.New("trigger not found: " + name)
}

func (d *Database) GetTriggers(ctx *sql.Context, table string) ([]sql.TriggerDef, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.triggers[strings.ToLower(table)], nil
}

func (d *Database) AddProcedure(ctx *sql.Context, p sql.ProcedureDef) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.procedures[strings.ToLower(p.Name)] = p
	return nil
}

func (d *Database) DropProcedure(ctx *sql.Context, name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.procedures, strings.ToLower(name))
	return nil
}

func (d *Database) GetProcedure(ctx *sql.Context, name string) (sql.ProcedureDef, bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	p, ok := d.procedures[strings.ToLower(name)]
	return p, ok, nil
}

func (d *Database) AddEvent(ctx *sql.Context, e sql.EventDef) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events[strings.ToLower(e.Name)] = e
	return nil
}

func (d *Database) DropEvent(ctx *sql.Context, name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.events, strings.ToLower(name))
	return nil
}

func (d *Database) GetEvent(ctx *sql.Context, name string) (sql.EventDef, bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	e, ok := d.events[strings.ToLower(name)]
	return e, ok, nil
}

func (d *Database) GetIndexes(ctx *sql.Context, table string) ([]sql.Index, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.indexes[strings.ToLower(table)], nil
}

func (d *Database) CreateIndex(ctx *sql.Context, table string, idx sql.Index) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	key := strings.ToLower(table)
	d.indexes[key] = append(d.indexes[key], idx)
	return nil
}

func (d *Database) DropIndex(ctx *sql.Context, table, name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	key := strings.ToLower(table)
	list := d.indexes[key]
	for i, idx := range list {
		if strings.EqualFold(idx.Name(), name) {
			d.indexes[key] = append(list[:i], list[i+1:]...)
			return nil
		}
	}
	return sql.ErrInvariantBreach.New("index not found: " + name)
}

var _ sql.Database = (*Database)(nil)
