package function

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"

	"github.com/vinedb/vine/sql"
	"github.com/vinedb/vine/sql/types"
)

// Hash digest functions use the standard library's crypto/{md5,sha1,sha256,
// sha512} packages rather than an ecosystem dependency: MySQL's MD5()/SHA1()/
// SHA2() builtins are exactly those digests, and no third-party hashing
// library appears anywhere in the retrieved pack.
func registerHashFunctions(r *Registry) {
	r.Register(digestFn("md5", func(b []byte) []byte { h := md5.Sum(b); return h[:] }))
	r.Register(digestFn("sha1", func(b []byte) []byte { h := sha1.Sum(b); return h[:] }))
	r.Register(&sha2Func{})
}

type digestFunc struct {
	name string
	arg  sql.Expression
	fn   func([]byte) []byte
}

type digestDescriptor struct {
	name string
	fn   func([]byte) []byte
}

func digestFn(name string, fn func([]byte) []byte) *digestDescriptor {
	return &digestDescriptor{name: name, fn: fn}
}

func (d *digestDescriptor) FunctionName() string { return d.name }
func (d *digestDescriptor) NewInstance(args []sql.Expression) (sql.Expression, error) {
	if len(args) != 1 {
		return nil, sql.ErrInvalidArgumentCount.New(d.name, "1", len(args))
	}
	return &digestFunc{name: d.name, arg: args[0], fn: d.fn}, nil
}

func (f *digestFunc) Type() sql.Type            { return types.LongText }
func (f *digestFunc) Resolved() bool            { return f.arg.Resolved() }
func (f *digestFunc) Children() []sql.Expression { return []sql.Expression{f.arg} }
func (f *digestFunc) String() string             { return f.name + "(" + f.arg.String() + ")" }
func (f *digestFunc) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	if len(children) != 1 {
		return nil, sql.ErrInvariantBreach.New(f.name + " takes 1 child")
	}
	return &digestFunc{name: f.name, arg: children[0], fn: f.fn}, nil
}
func (f *digestFunc) Eval(ctx *sql.Context, row sql.Row) (interface{}, error) {
	v, err := f.arg.Eval(ctx, row)
	if err != nil || v == nil {
		return nil, err
	}
	s, err := asString(v)
	if err != nil {
		return nil, err
	}
	return hex.EncodeToString(f.fn([]byte(s))), nil
}

// sha2Func implements SHA2(str, hash_length), where hash_length selects
// among 224/256/384/512.
type sha2Func struct {
	str    sql.Expression
	length sql.Expression
}

func (f *sha2Func) FunctionName() string { return "sha2" }
func (f *sha2Func) NewInstance(args []sql.Expression) (sql.Expression, error) {
	if len(args) != 2 {
		return nil, sql.ErrInvalidArgumentCount.New("sha2", "2", len(args))
	}
	return &sha2Func{str: args[0], length: args[1]}, nil
}
func (f *sha2Func) Type() sql.Type            { return types.LongText }
func (f *sha2Func) Resolved() bool            { return f.str.Resolved() && f.length.Resolved() }
func (f *sha2Func) Children() []sql.Expression { return []sql.Expression{f.str, f.length} }
func (f *sha2Func) String() string             { return "sha2(" + f.str.String() + ", " + f.length.String() + ")" }
func (f *sha2Func) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	if len(children) != 2 {
		return nil, sql.ErrInvariantBreach.New("sha2 takes 2 children")
	}
	return &sha2Func{str: children[0], length: children[1]}, nil
}
func (f *sha2Func) Eval(ctx *sql.Context, row sql.Row) (interface{}, error) {
	sv, err := f.str.Eval(ctx, row)
	if err != nil || sv == nil {
		return nil, err
	}
	s, err := asString(sv)
	if err != nil {
		return nil, err
	}
	lv, err := f.length.Eval(ctx, row)
	if err != nil || lv == nil {
		return nil, err
	}
	length, err := toInt(lv)
	if err != nil {
		return nil, err
	}
	var sum []byte
	switch length {
	case 0, 256:
		h := sha256.Sum256([]byte(s))
		sum = h[:]
	case 224:
		h := sha256.Sum224([]byte(s))
		sum = h[:]
	case 384:
		h := sha512.Sum384([]byte(s))
		sum = h[:]
	case 512:
		h := sha512.Sum512([]byte(s))
		sum = h[:]
	default:
		return nil, nil
	}
	return hex.EncodeToString(sum), nil
}
