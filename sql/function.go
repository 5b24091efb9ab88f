package sql

import errors "gopkg.in/src-d/go-errors.v1"

// Function describes a builtin SQL scalar function: a name and a
// constructor that binds it to a concrete argument-expression list,
// producing the Expression that evaluates it (§4.1). Concrete functions
// live in package expression/function; this interface is declared here so
// Catalog can hold a function registry without an import cycle.
type Function interface {
	FunctionName() string
	// NewInstance validates arity/shape of args and returns the bound
	// expression, or an error (ErrInvalidArgumentCount) if args don't fit
	// the function's signature.
	NewInstance(args []Expression) (Expression, error)
}

// Aggregation is a Function specialization for aggregate functions (SUM,
// COUNT, AVG, MIN, MAX, GROUP_CONCAT, ...). Unlike a scalar Expression,
// evaluating an aggregate is a fold over many rows: NewAccumulator starts a
// fresh fold state per group, Accumulator.Update folds one row in, and
// Accumulator.Eval produces the final value once every row has been seen
// (§4.3). The spillable hash-aggregation operator drives this contract.
type Aggregation interface {
	Expression
	NewAccumulator() Accumulator
}

// Accumulator holds one group's running aggregate state.
type Accumulator interface {
	Update(ctx *Context, row Row) error
	Eval(ctx *Context) (interface{}, error)
}

var ErrInvalidArgumentCount = errors.NewKind("function %q expects %s arguments, got %d")

// FunctionProvider resolves a function call's name to its descriptor.
// Catalog holds one; package expression/function's Registry satisfies this
// interface, wired in by whatever builds the Engine (kept out of package
// sql to avoid a sql <-> expression/function import cycle).
type FunctionProvider interface {
	Function(name string) (Function, error)
}
