package function

import (
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/vinedb/vine/sql"
	"github.com/vinedb/vine/sql/types"
)

func registerUUIDFunctions(r *Registry) {
	r.Register(&uuidFunc{})
	r.Register(&uuidShortFunc{})
}

// uuidFunc implements UUID(), a random (v4) UUID per call, via
// google/uuid.
type uuidFunc struct{}

func (f *uuidFunc) FunctionName() string { return "uuid" }
func (f *uuidFunc) NewInstance(args []sql.Expression) (sql.Expression, error) {
	if len(args) != 0 {
		return nil, sql.ErrInvalidArgumentCount.New("uuid", "0", len(args))
	}
	return &uuidFunc{}, nil
}
func (f *uuidFunc) Type() sql.Type                                                { return types.LongText }
func (f *uuidFunc) Resolved() bool                                                { return true }
func (f *uuidFunc) Children() []sql.Expression                                    { return nil }
func (f *uuidFunc) String() string                                                { return "uuid()" }
func (f *uuidFunc) WithChildren(children ...sql.Expression) (sql.Expression, error) { return f, nil }
func (f *uuidFunc) Eval(ctx *sql.Context, row sql.Row) (interface{}, error) {
	return uuid.NewString(), nil
}

var uuidShortCounter uint64

// uuidShortFunc implements UUID_SHORT(): a process-unique monotonically
// increasing 64-bit integer, approximating MySQL's server-id-plus-counter
// scheme with an in-process atomic counter.
type uuidShortFunc struct{}

func (f *uuidShortFunc) FunctionName() string { return "uuid_short" }
func (f *uuidShortFunc) NewInstance(args []sql.Expression) (sql.Expression, error) {
	if len(args) != 0 {
		return nil, sql.ErrInvalidArgumentCount.New("uuid_short", "0", len(args))
	}
	return &uuidShortFunc{}, nil
}
func (f *uuidShortFunc) Type() sql.Type                                                { return types.Int64 }
func (f *uuidShortFunc) Resolved() bool                                                { return true }
func (f *uuidShortFunc) Children() []sql.Expression                                    { return nil }
func (f *uuidShortFunc) String() string                                                { return "uuid_short()" }
func (f *uuidShortFunc) WithChildren(children ...sql.Expression) (sql.Expression, error) { return f, nil }
func (f *uuidShortFunc) Eval(ctx *sql.Context, row sql.Row) (interface{}, error) {
	return int64(atomic.AddUint64(&uuidShortCounter, 1)), nil
}
