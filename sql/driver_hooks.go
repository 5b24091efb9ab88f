package sql

// ExprCompiler binds a stored text expression (a CHECK constraint body, a
// column DEFAULT, a view's defining query) against schema into an
// Expression. Parsing SQL text is outside this package's scope (§1
// Non-goals: "the executor consumes an already-built operator tree"); the
// statement driver in package rowexec still performs every other part of
// constraint enforcement (locating the constraint, deciding when it fires)
// and calls through this indirection only for the text-to-Expression step,
// the same init-time-registration pattern NodeExecutor uses to avoid an
// import cycle with the parser/planbuilder package.
var ExprCompiler func(exprText string, schema Schema) (Expression, error)

// ProcedureRunner executes a stored routine or trigger body's statement text
// under frame, given the context's current database (§4.6). Like
// ExprCompiler, body text requires a parser; until one is wired in, the
// driver still performs frame save/restore and OLD/NEW preloading around
// this call.
var ProcedureRunner func(ctx *Context, db string, body string, frame *ProcedureFrame) error
