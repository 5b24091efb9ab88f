package rowexec

import (
	"github.com/vinedb/vine/sql"
	"github.com/vinedb/vine/sql/plan"
)

// buildTransactionControl acts directly on the session's transaction state
// (§2, §4.5): COMMIT/ROLLBACK with no open transaction are no-ops that still
// flush the current database's tables.
func buildTransactionControl(ctx *sql.Context, n *plan.TransactionControl) (sql.RowIter, error) {
	txSession, ok := ctx.Session.(sql.TransactionSession)
	if !ok {
		return nil, sql.ErrUnsupportedFeature.New("session does not support transactions")
	}
	switch n.Kind {
	case plan.TxnBegin:
		if ctx.GetTransaction() != nil {
			return nil, sql.ErrTransactionAlreadyOpen.New()
		}
		tx, err := txSession.StartTransaction(ctx, n.AccessMode)
		if err != nil {
			return nil, err
		}
		ctx.SetTransaction(tx)
		return oneRowAffected(0), nil
	case plan.TxnCommit:
		tx := ctx.GetTransaction()
		if tx == nil {
			return oneRowAffected(0), flushCurrentDatabase(ctx)
		}
		if err := txSession.CommitTransaction(ctx, tx); err != nil {
			return nil, err
		}
		ctx.SetTransaction(nil)
		return oneRowAffected(0), flushCurrentDatabase(ctx)
	case plan.TxnRollback:
		tx := ctx.GetTransaction()
		if tx == nil {
			return oneRowAffected(0), flushCurrentDatabase(ctx)
		}
		if err := txSession.Rollback(ctx, tx); err != nil {
			return nil, err
		}
		ctx.SetTransaction(nil)
		return oneRowAffected(0), flushCurrentDatabase(ctx)
	default:
		return nil, sql.ErrUnsupportedFeature.New("transaction control kind")
	}
}

func flushCurrentDatabase(ctx *sql.Context) error {
	cat := ctx.GetCatalog()
	if cat == nil {
		return nil
	}
	db, err := cat.Database(ctx.GetCurrentDatabase())
	if err != nil {
		return nil // no current database selected: nothing to flush
	}
	names, err := db.GetTableNames(ctx)
	if err != nil {
		return err
	}
	for _, name := range names {
		tab, ok, err := db.GetTableInsensitive(ctx, name)
		if err != nil {
			return err
		}
		if ok {
			if err := tab.Flush(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

// buildSet applies SET GLOBAL/SESSION/user-variable assignments (§4.6).
func buildSet(ctx *sql.Context, n *plan.Set) (sql.RowIter, error) {
	for _, v := range n.Vars {
		val, err := v.Value.Eval(ctx, nil)
		if err != nil {
			return nil, err
		}
		switch {
		case v.User:
			if frame := ctx.Session.CurrentFrame(); frame != nil {
				frame.SetLocal("@"+v.Name, nil, val)
			}
		case v.Global:
			if err := ctx.Session.SystemVariables().SetGlobal(v.Name, val); err != nil {
				return nil, err
			}
		default:
			if err := ctx.Session.SystemVariables().SetSession(v.Name, val); err != nil {
				return nil, err
			}
		}
	}
	return oneRowAffected(0), nil
}

// buildCall invokes a stored procedure (§4.6): pushes a fresh frame
// preloading its parameters, runs the body via sql.ProcedureRunner, then
// restores the outer frame.
func buildCall(ctx *sql.Context, n *plan.Call) (sql.RowIter, error) {
	db, err := resolveDB(ctx, n.Db)
	if err != nil {
		return nil, err
	}
	proc, ok, err := db.GetProcedure(ctx, n.ProcName)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, sql.ErrUnsupportedFeature.New("unknown procedure: " + n.ProcName)
	}
	frame := sql.NewProcedureFrame()
	for i, p := range proc.Params {
		if i >= len(n.Args) {
			break
		}
		v, err := n.Args[i].Eval(ctx, nil)
		if err != nil {
			return nil, err
		}
		frame.SetLocal(p.Name, p.Type, v)
	}
	ctx.Session.PushFrame(frame)
	var runErr error
	if sql.ProcedureRunner != nil {
		runErr = sql.ProcedureRunner(ctx, n.Db, proc.Body, frame)
	}
	ctx.Session.PopFrame()
	if runErr != nil {
		return nil, runErr
	}
	return oneRowAffected(0), nil
}
