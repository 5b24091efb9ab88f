package spill

import (
	"container/heap"
	"io"
	"sort"

	"github.com/vinedb/vine/sql"
)

// Less reports whether row a sorts before row b, with descending keys
// flipped and NULL ordering low (§4.2 OrderBy: "NULL orders low").
type Less func(a, b sql.Row) bool

// Sorter accumulates rows under a byte budget, spilling sorted runs to disk
// once the budget is crossed, and produces a single sorted stream by
// k-way-merging every run plus the final in-memory remainder (§4.4).
type Sorter struct {
	less   Less
	budget int64

	buf      []sql.Row
	bufBytes int64
	runs     []*RowFile
}

// NewSorter returns a Sorter comparing rows with less, spilling a run to
// disk whenever the resident buffer's estimated size reaches budgetBytes.
// A non-positive budget disables spilling (sorts fully in memory).
func NewSorter(less Less, budgetBytes int64) *Sorter {
	return &Sorter{less: less, budget: budgetBytes}
}

// Add buffers one row, then spills the whole buffer, that row included, as
// a sorted run once the buffer's estimated size reaches the budget.
func (s *Sorter) Add(row sql.Row) error {
	s.buf = append(s.buf, row)
	s.bufBytes += EstimateRowBytes(row)
	if s.budget > 0 && s.bufBytes >= s.budget {
		return s.spillRun()
	}
	return nil
}

func (s *Sorter) spillRun() error {
	if len(s.buf) == 0 {
		return nil
	}
	sort.Slice(s.buf, func(i, j int) bool { return s.less(s.buf[i], s.buf[j]) })
	rf, err := NewRowFile()
	if err != nil {
		return err
	}
	for _, row := range s.buf {
		if err := rf.Write(row); err != nil {
			return err
		}
	}
	s.runs = append(s.runs, rf)
	s.buf = nil
	s.bufBytes = 0
	return nil
}

// mergeItem is one active run's current head, tracked by the merge heap.
type mergeItem struct {
	row    sql.Row
	reader *RowReader
	source int // index into an in-memory slice, used when reader is nil
}

type mergeHeap struct {
	items []*mergeItem
	less  Less
}

func (h *mergeHeap) Len() int            { return len(h.items) }
func (h *mergeHeap) Less(i, j int) bool  { return h.less(h.items[i].row, h.items[j].row) }
func (h *mergeHeap) Swap(i, j int)       { h.items[i], h.items[j] = h.items[j], h.items[i] }
func (h *mergeHeap) Push(x interface{})  { h.items = append(h.items, x.(*mergeItem)) }
func (h *mergeHeap) Pop() interface{} {
	old := h.items
	n := len(old)
	it := old[n-1]
	h.items = old[:n-1]
	return it
}

// Result is the merged, fully sorted output stream; Next returns io.EOF
// once exhausted. Close releases every spill file's descriptor.
type Result struct {
	h       *mergeHeap
	readers []*RowReader
}

func (r *Result) Next() (sql.Row, error) {
	if r.h.Len() == 0 {
		return nil, io.EOF
	}
	top := heap.Pop(r.h).(*mergeItem)
	row := top.row
	if top.reader != nil {
		next, err := top.reader.Next()
		if err == nil {
			heap.Push(r.h, &mergeItem{row: next, reader: top.reader})
		} else if err != io.EOF {
			return nil, err
		}
	}
	return row, nil
}

func (r *Result) Close() error {
	var first error
	for _, rd := range r.readers {
		if err := rd.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Finish seals the sorter and returns a merged stream over every spilled
// run plus the final in-memory remainder. No more rows may be Add-ed after
// calling Finish.
func (s *Sorter) Finish() (*Result, error) {
	sort.Slice(s.buf, func(i, j int) bool { return s.less(s.buf[i], s.buf[j]) })

	h := &mergeHeap{less: s.less}
	res := &Result{h: h}

	if len(s.runs) == 0 {
		// Nothing spilled: merge degenerates to the in-memory slice.
		for _, row := range s.buf {
			h.items = append(h.items, &mergeItem{row: row})
		}
		heap.Init(h)
		return res, nil
	}

	for _, rf := range s.runs {
		rd, err := rf.Reader()
		if err != nil {
			return nil, err
		}
		res.readers = append(res.readers, rd)
		first, err := rd.Next()
		if err == io.EOF {
			continue
		}
		if err != nil {
			return nil, err
		}
		h.items = append(h.items, &mergeItem{row: first, reader: rd})
	}
	for _, row := range s.buf {
		h.items = append(h.items, &mergeItem{row: row})
	}
	heap.Init(h)
	return res, nil
}
