package rowexec

import (
	"github.com/vinedb/vine/sql"
	"github.com/vinedb/vine/sql/plan"
)

// readView resolves the ReadView a scan should honor: the session's active
// transaction's snapshot, or nil when there is none (an autocommit
// statement outside any transaction sees everything committed so far,
// which the storage engine's Scan implements by treating rv == nil as
// "latest committed").
func readView(ctx *sql.Context) sql.ReadView {
	tx := ctx.GetTransaction()
	if tx == nil {
		return nil
	}
	if rvTx, ok := tx.(interface{ ReadView() sql.ReadView }); ok {
		return rvTx.ReadView()
	}
	return nil
}

func buildTableScan(ctx *sql.Context, n *plan.TableScan) (sql.RowIter, error) {
	if n.Locking != sql.NoLock {
		ctx.GetLogger().Debugf("table scan acquiring row locks on %s (mode=%d)", n.Tab.Name(), n.Locking)
	}
	return n.Tab.Scan(ctx, readView(ctx))
}

// indexScanIter dereferences each row-id from the index to its heap row,
// then applies the residual predicate (§4.2: "dereferences each to the heap
// row; applies a residual predicate").
type indexScanIter struct {
	ctx      *sql.Context
	ids      sql.RowIDIter
	tab      sql.Table
	residual sql.Expression
}

func buildIndexScan(ctx *sql.Context, n *plan.IndexScan) (sql.RowIter, error) {
	var ids sql.RowIDIter
	var err error
	if n.Range.Lo == nil && n.Range.Hi == nil {
		ids, err = n.Idx.ScanAll(ctx)
	} else {
		ids, err = n.Idx.RangeScan(ctx, n.Range)
	}
	if err != nil {
		return nil, err
	}
	return &indexScanIter{ctx: ctx, ids: ids, tab: n.Tab, residual: n.Residual}, nil
}

func (it *indexScanIter) Next(ctx *sql.Context) (sql.Row, error) {
	for {
		id, err := it.ids.Next(ctx)
		if err != nil {
			return nil, err
		}
		row, ok, err := it.tab.GetRowBySlot(ctx, id)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if it.residual != nil {
			v, err := it.residual.Eval(ctx, row)
			if err != nil {
				return nil, err
			}
			if b, ok := v.(bool); !ok || !b {
				continue
			}
		}
		return row, nil
	}
}

func (it *indexScanIter) Close(ctx *sql.Context) error { return it.ids.Close(ctx) }
