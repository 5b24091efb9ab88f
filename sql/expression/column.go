package expression

import (
	"fmt"

	"github.com/vinedb/vine/sql"
)

// GetField is a column-ordinal reference, the leaf §4.1 binding resolves
// every bare or qualified column name to before evaluation ever runs.
type GetField struct {
	index  int
	name   string
	table  string
	typ    sql.Type
}

// NewGetField returns a column reference bound to ordinal index of the
// building schema.
func NewGetField(index int, typ sql.Type, name string, table string) *GetField {
	return &GetField{index: index, name: name, table: table, typ: typ}
}

func (f *GetField) Index() int      { return f.index }
func (f *GetField) Type() sql.Type  { return f.typ }
func (f *GetField) Resolved() bool  { return true }
func (f *GetField) Children() []sql.Expression { return nil }
func (f *GetField) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	if len(children) != 0 {
		return nil, sql.ErrInvariantBreach.New("GetField takes no children")
	}
	return f, nil
}
func (f *GetField) Eval(ctx *sql.Context, row sql.Row) (interface{}, error) {
	if f.index < 0 || f.index >= len(row) {
		return nil, sql.ErrInvariantBreach.New("column ordinal out of range")
	}
	return row[f.index], nil
}
func (f *GetField) String() string {
	if f.table != "" {
		return fmt.Sprintf("%s.%s", f.table, f.name)
	}
	return f.name
}

// SystemVar is a session/global variable reference (@@name).
type SystemVar struct {
	name   string
	global bool
	typ    sql.Type
}

func NewSystemVar(name string, global bool, typ sql.Type) *SystemVar {
	return &SystemVar{name: name, global: global, typ: typ}
}

func (v *SystemVar) Type() sql.Type { return v.typ }
func (v *SystemVar) Resolved() bool { return true }
func (v *SystemVar) Children() []sql.Expression { return nil }
func (v *SystemVar) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	if len(children) != 0 {
		return nil, sql.ErrInvariantBreach.New("SystemVar takes no children")
	}
	return v, nil
}
func (v *SystemVar) Eval(ctx *sql.Context, row sql.Row) (interface{}, error) {
	return ctx.Session.SystemVariables().Get(v.name)
}
func (v *SystemVar) String() string {
	if v.global {
		return "@@global." + v.name
	}
	return "@@" + v.name
}

// UserVar is a user-defined session variable reference (@name). Unlike
// SystemVar, it is impure only insofar as it reads mutable session state;
// SET @x := expr assigns it from within an expression (handled by the
// driver, not here).
type UserVar struct {
	name string
}

func NewUserVar(name string) *UserVar { return &UserVar{name: name} }

func (v *UserVar) Type() sql.Type { return nil }
func (v *UserVar) Resolved() bool { return true }
func (v *UserVar) Children() []sql.Expression { return nil }
func (v *UserVar) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	if len(children) != 0 {
		return nil, sql.ErrInvariantBreach.New("UserVar takes no children")
	}
	return v, nil
}
func (v *UserVar) Eval(ctx *sql.Context, row sql.Row) (interface{}, error) {
	val, ok := ctx.Session.CurrentFrame().GetLocal("@" + v.name)
	if !ok {
		return nil, nil
	}
	return val, nil
}
func (v *UserVar) String() string { return "@" + v.name }
