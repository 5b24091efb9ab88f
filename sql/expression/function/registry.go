// Package function implements the builtin scalar and aggregate function
// catalog (§4.1, GLOSSARY). Each function is a small type satisfying
// sql.Function (or sql.Aggregation); Registry resolves a call's function
// name to one of them at plan-build time.
package function

import (
	"strings"

	"github.com/vinedb/vine/internal/similartext"
	"github.com/vinedb/vine/sql"
)

// Registry maps function names (case-insensitively) to their sql.Function
// descriptors.
type Registry struct {
	fns map[string]sql.Function
}

func NewRegistry() *Registry {
	return &Registry{fns: make(map[string]sql.Function)}
}

// Register adds fn to the registry, keyed by its lower-cased name.
func (r *Registry) Register(fn sql.Function) {
	r.fns[strings.ToLower(fn.FunctionName())] = fn
}

// Function looks up a function by name, returning a did-you-mean suggestion
// on miss.
func (r *Registry) Function(name string) (sql.Function, error) {
	fn, ok := r.fns[strings.ToLower(name)]
	if !ok {
		return nil, sql.ErrUnknownFunction.New(name + similartext.FindFromMap(r.fns, strings.ToLower(name)))
	}
	return fn, nil
}

// NewDefaultRegistry returns a Registry populated with every builtin
// function this package implements.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	registerStringFunctions(r)
	registerMathFunctions(r)
	registerDatetimeFunctions(r)
	registerJSONFunctions(r)
	registerHashFunctions(r)
	registerUUIDFunctions(r)
	registerRegexFunctions(r)
	registerNetworkFunctions(r)
	registerLockingFunctions(r)
	registerMiscFunctions(r)
	registerAggregateFunctions(r)
	return r
}
