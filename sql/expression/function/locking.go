package function

import (
	"time"

	"github.com/vinedb/vine/sql"
	"github.com/vinedb/vine/sql/types"
)

func registerLockingFunctions(r *Registry) {
	r.Register(&getLockFunc{})
	r.Register(&releaseLockFunc{})
	r.Register(&isFreeLockFunc{})
}

type getLockFunc struct{ name, timeout sql.Expression }

func (f *getLockFunc) FunctionName() string { return "get_lock" }
func (f *getLockFunc) NewInstance(args []sql.Expression) (sql.Expression, error) {
	if len(args) != 2 {
		return nil, sql.ErrInvalidArgumentCount.New("get_lock", "2", len(args))
	}
	return &getLockFunc{name: args[0], timeout: args[1]}, nil
}
func (f *getLockFunc) Type() sql.Type            { return types.Int64 }
func (f *getLockFunc) Resolved() bool            { return f.name.Resolved() && f.timeout.Resolved() }
func (f *getLockFunc) Children() []sql.Expression { return []sql.Expression{f.name, f.timeout} }
func (f *getLockFunc) String() string             { return "get_lock(" + f.name.String() + ", " + f.timeout.String() + ")" }
func (f *getLockFunc) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	if len(children) != 2 {
		return nil, sql.ErrInvariantBreach.New("get_lock takes 2 children")
	}
	return &getLockFunc{name: children[0], timeout: children[1]}, nil
}
func (f *getLockFunc) Eval(ctx *sql.Context, row sql.Row) (interface{}, error) {
	nv, err := f.name.Eval(ctx, row)
	if err != nil || nv == nil {
		return nil, err
	}
	name, err := asString(nv)
	if err != nil {
		return nil, err
	}
	tv, err := f.timeout.Eval(ctx, row)
	if err != nil || tv == nil {
		return nil, err
	}
	secs, err := toInt(tv)
	if err != nil {
		return nil, err
	}
	ok, err := ctx.GetLockSubsystem().GetLock(ctx, name, ctx.Pid32(), time.Duration(secs)*time.Second)
	if err != nil {
		return nil, err
	}
	if !ok {
		return int64(0), nil
	}
	return int64(1), nil
}

type releaseLockFunc struct{ name sql.Expression }

func (f *releaseLockFunc) FunctionName() string { return "release_lock" }
func (f *releaseLockFunc) NewInstance(args []sql.Expression) (sql.Expression, error) {
	if len(args) != 1 {
		return nil, sql.ErrInvalidArgumentCount.New("release_lock", "1", len(args))
	}
	return &releaseLockFunc{name: args[0]}, nil
}
func (f *releaseLockFunc) Type() sql.Type            { return types.Int64 }
func (f *releaseLockFunc) Resolved() bool            { return f.name.Resolved() }
func (f *releaseLockFunc) Children() []sql.Expression { return []sql.Expression{f.name} }
func (f *releaseLockFunc) String() string             { return "release_lock(" + f.name.String() + ")" }
func (f *releaseLockFunc) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	if len(children) != 1 {
		return nil, sql.ErrInvariantBreach.New("release_lock takes 1 child")
	}
	return &releaseLockFunc{name: children[0]}, nil
}
func (f *releaseLockFunc) Eval(ctx *sql.Context, row sql.Row) (interface{}, error) {
	nv, err := f.name.Eval(ctx, row)
	if err != nil || nv == nil {
		return nil, err
	}
	name, err := asString(nv)
	if err != nil {
		return nil, err
	}
	ok, err := ctx.GetLockSubsystem().ReleaseLock(ctx, name, ctx.Pid32())
	if err != nil {
		return nil, err
	}
	if !ok {
		return int64(0), nil
	}
	return int64(1), nil
}

type isFreeLockFunc struct{ name sql.Expression }

func (f *isFreeLockFunc) FunctionName() string { return "is_free_lock" }
func (f *isFreeLockFunc) NewInstance(args []sql.Expression) (sql.Expression, error) {
	if len(args) != 1 {
		return nil, sql.ErrInvalidArgumentCount.New("is_free_lock", "1", len(args))
	}
	return &isFreeLockFunc{name: args[0]}, nil
}
func (f *isFreeLockFunc) Type() sql.Type            { return types.Int64 }
func (f *isFreeLockFunc) Resolved() bool            { return f.name.Resolved() }
func (f *isFreeLockFunc) Children() []sql.Expression { return []sql.Expression{f.name} }
func (f *isFreeLockFunc) String() string             { return "is_free_lock(" + f.name.String() + ")" }
func (f *isFreeLockFunc) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	if len(children) != 1 {
		return nil, sql.ErrInvariantBreach.New("is_free_lock takes 1 child")
	}
	return &isFreeLockFunc{name: children[0]}, nil
}
func (f *isFreeLockFunc) Eval(ctx *sql.Context, row sql.Row) (interface{}, error) {
	nv, err := f.name.Eval(ctx, row)
	if err != nil || nv == nil {
		return nil, err
	}
	name, err := asString(nv)
	if err != nil {
		return nil, err
	}
	if ctx.GetLockSubsystem().IsFreeLock(name) {
		return int64(1), nil
	}
	return int64(0), nil
}
