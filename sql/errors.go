package sql

import errors "gopkg.in/src-d/go-errors.v1"

// Error kinds, grouped the way the statement driver classifies failures.
// Each kind maps optionally to a MySQL-style numeric code via ErrorCode.
var (
	// Binding errors
	ErrColumnNotFound    = errors.NewKind("column %q not found")
	ErrTableNotFound     = errors.NewKind("table not found: %s")
	ErrDatabaseNotFound  = errors.NewKind("database not found: %s")
	ErrAmbiguousColumn   = errors.NewKind("ambiguous column name %q")
	ErrTableColumnNotFound = errors.NewKind("table %q does not have column %q")

	// Type errors
	ErrTypeMismatch      = errors.NewKind("type mismatch: cannot convert %v of type %T to %s")
	ErrOverflow          = errors.NewKind("value %v overflows type %s")
	ErrInvalidCast       = errors.NewKind("invalid cast of %v to %s")
	ErrNonBooleanPredicate = errors.NewKind("predicate %q did not evaluate to a boolean")
	ErrNonNumericOperand = errors.NewKind("operand %v is not numeric")

	// Syntax/feature errors
	ErrUnsupportedFeature = errors.NewKind("unsupported feature: %s")
	ErrUnknownFunction    = errors.NewKind("unknown function %q")
	ErrInvalidAggregate   = errors.NewKind("invalid use of aggregate function %q")
	ErrSubqueryTooManyRows = errors.NewKind("subquery returned more than 1 row")

	// Constraint errors
	ErrForeignKeyViolation = errors.NewKind("foreign key constraint %q violated on table %q")
	ErrCheckViolation      = errors.NewKind("check constraint %q violated")
	ErrNotNullViolation    = errors.NewKind("column %q cannot be null")
	ErrDuplicateKey        = errors.NewKind("duplicate entry for key %q")

	// Access errors
	ErrPrivilegeDenied = errors.NewKind("access denied for user %q to %s on %s")
	ErrReadOnly        = errors.NewKind("cannot execute statement: engine is read-only")

	// Transaction errors
	ErrTransactionAlreadyOpen = errors.NewKind("a transaction is already open for this session")
	ErrNoTransaction          = errors.NewKind("no transaction is open for this session")

	// Locking errors
	ErrLockTimeout     = errors.NewKind("lock wait timeout exceeded for %s")
	ErrLockNotObtained = errors.NewKind("could not obtain lock for %s (NOWAIT)")
	ErrDeadlock        = errors.NewKind("deadlock found when trying to get lock for %s")

	// Resource errors
	ErrSpillIO          = errors.NewKind("spill I/O error: %s")
	ErrAllocationFailed = errors.NewKind("failed to allocate %d bytes")

	// Internal errors
	ErrInvariantBreach = errors.NewKind("internal invariant breach: %s")
)

// ErrorCode returns the MySQL-style numeric error code associated with an
// error produced from one of the kinds above, or 0 if the error does not map
// to a MySQL code (internal/invariant errors, mostly).
func ErrorCode(err error) int {
	switch {
	case ErrColumnNotFound.Is(err):
		return 1054
	case ErrTableNotFound.Is(err):
		return 1146
	case ErrDatabaseNotFound.Is(err):
		return 1049
	case ErrAmbiguousColumn.Is(err):
		return 1052
	case ErrForeignKeyViolation.Is(err):
		return 1452
	case ErrCheckViolation.Is(err):
		return 3819
	case ErrNotNullViolation.Is(err):
		return 1048
	case ErrDuplicateKey.Is(err):
		return 1062
	case ErrPrivilegeDenied.Is(err):
		return 1142
	case ErrReadOnly.Is(err):
		return 1290
	case ErrLockTimeout.Is(err):
		return 1205
	case ErrLockNotObtained.Is(err):
		return 3572
	case ErrDeadlock.Is(err):
		return 1213
	default:
		return 0
	}
}
