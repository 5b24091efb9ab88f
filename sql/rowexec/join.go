package rowexec

import (
	"io"

	"github.com/vinedb/vine/sql"
	"github.com/vinedb/vine/sql/expression"
	"github.com/vinedb/vine/sql/plan"
)

// nestedLoopJoinIter materializes the right input once, then for each left
// row scans the buffered right side producing matches (§4.2). RIGHT joins
// are compiled by the planbuilder as LEFT with sides swapped, so this
// iterator only needs to special-case LEFT/FULL/CROSS.
type nestedLoopJoinIter struct {
	ctx        *sql.Context
	left       sql.RowIter
	right      []sql.Row
	rightSchemaLen int
	cond       sql.Expression
	kind       plan.JoinType

	curLeft     sql.Row
	rightPos    int
	leftMatched bool
	done        bool
}

func buildNestedLoopJoin(ctx *sql.Context, n *plan.NestedLoopJoin) (sql.RowIter, error) {
	left, err := Build(ctx, n.Left)
	if err != nil {
		return nil, err
	}
	rightIter, err := Build(ctx, n.Right)
	if err != nil {
		_ = left.Close(ctx)
		return nil, err
	}
	right, err := sql.RowIterToRows(ctx, n.Right.Schema(), rightIter)
	if err != nil {
		_ = left.Close(ctx)
		return nil, err
	}
	cond := n.Cond
	if cond == nil {
		cond = expression.NewLiteral(true, nil)
	}
	return &nestedLoopJoinIter{
		ctx: ctx, left: left, right: right,
		rightSchemaLen: len(n.Right.Schema()), cond: cond, kind: n.Kind,
	}, nil
}

func (it *nestedLoopJoinIter) nullPaddedRight() sql.Row {
	return make(sql.Row, it.rightSchemaLen)
}

func (it *nestedLoopJoinIter) Next(ctx *sql.Context) (sql.Row, error) {
	if it.done {
		return nil, io.EOF
	}
	for {
		if it.curLeft == nil {
			row, err := it.left.Next(ctx)
			if err == io.EOF {
				it.done = true
				return nil, io.EOF
			}
			if err != nil {
				return nil, err
			}
			it.curLeft = row
			it.rightPos = 0
			it.leftMatched = false
		}

		for it.rightPos < len(it.right) {
			rightRow := it.right[it.rightPos]
			it.rightPos++
			joined := it.curLeft.Append(rightRow)
			v, err := it.cond.Eval(ctx, joined)
			if err != nil {
				return nil, err
			}
			if expression.IsTrue(v) {
				it.leftMatched = true
				return joined, nil
			}
		}

		// Exhausted the right buffer for this left row.
		unmatched := !it.leftMatched && (it.kind == plan.JoinLeft || it.kind == plan.JoinFull)
		left := it.curLeft
		it.curLeft = nil
		if unmatched {
			return left.Append(it.nullPaddedRight()), nil
		}
	}
}

func (it *nestedLoopJoinIter) Close(ctx *sql.Context) error {
	return it.left.Close(ctx)
}
