package sql

import "io"

// Row is an ordered sequence of values bound to a schema (§3). A nil entry
// represents SQL NULL.
type Row []interface{}

// NewRow creates a Row from the given values.
func NewRow(values ...interface{}) Row {
	return Row(values)
}

// Copy returns a new Row with the same values, safe to retain past the
// lifetime of the row it was copied from (§4.2: "operators never retain a
// row across close").
func (r Row) Copy() Row {
	c := make(Row, len(r))
	copy(c, r)
	return c
}

// Append returns a new row with the values of r followed by the values of
// other, used to build joined rows.
func (r Row) Append(other Row) Row {
	c := make(Row, 0, len(r)+len(other))
	c = append(c, r...)
	c = append(c, other...)
	return c
}

// RowIter is the iterator-model contract every physical operator implements
// (§4.2): Next returns io.EOF once exhausted and must not be called again
// after that; Close releases resources and is idempotent.
type RowIter interface {
	Next(ctx *Context) (Row, error)
	Close(ctx *Context) error
}

type sliceRowIter struct {
	rows []Row
	pos  int
}

// RowsToRowIter returns a RowIter over a fixed slice of rows, used by
// operators that materialize their entire output up front (Dual,
// InformationSchema, small literal VALUES sources).
func RowsToRowIter(rows ...Row) RowIter {
	return &sliceRowIter{rows: rows}
}

func (i *sliceRowIter) Next(ctx *Context) (Row, error) {
	if i.pos >= len(i.rows) {
		return nil, io.EOF
	}
	r := i.rows[i.pos]
	i.pos++
	return r, nil
}

func (i *sliceRowIter) Close(ctx *Context) error {
	i.rows = nil
	return nil
}

// RowIterToRows drains iter fully, returning every row it produces. Callers
// that need a bounded result set (e.g. a QueryResult) use this; it is also
// used to drive statements whose row output is discarded (event bodies,
// trigger bodies).
func RowIterToRows(ctx *Context, schema Schema, iter RowIter) ([]Row, error) {
	var rows []Row
	for {
		row, err := iter.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			_ = iter.Close(ctx)
			return nil, err
		}
		if len(row) != len(schema) {
			_ = iter.Close(ctx)
			return nil, ErrInvariantBreach.New("row arity disagrees with schema")
		}
		rows = append(rows, row)
	}
	return rows, iter.Close(ctx)
}
