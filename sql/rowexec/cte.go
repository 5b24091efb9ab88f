package rowexec

import (
	"strings"

	"github.com/vinedb/vine/sql"
	"github.com/vinedb/vine/sql/plan"
)

// buildCteOperator streams the CTE's already-materialized rows out of the
// session's CTE dictionary (§4.2); the planbuilder runs the defining query
// exactly once, before building the statement that references it.
func buildCteOperator(ctx *sql.Context, n *plan.CteOperator) (sql.RowIter, error) {
	mat, ok := ctx.Session.CTEs()[strings.ToLower(n.CTEName)]
	if !ok {
		return nil, sql.ErrTableNotFound.New(n.CTEName)
	}
	return sql.RowsToRowIter(mat.Rows...), nil
}
