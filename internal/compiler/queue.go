package compiler

import "github.com/roach88/nwocg/internal/graph"

// workList is the FIFO of candidate blocks used by Schedule.
//
// A block is held at most once at a time; pushing a pending block is a
// no-op, so the list never grows beyond the number of blocks.
type workList struct {
	refs    []graph.Ref
	pending []bool
}

func newWorkList(blocks int) *workList {
	return &workList{
		refs:    make([]graph.Ref, 0, blocks),
		pending: make([]bool, blocks),
	}
}

// push appends r unless it is already waiting. Returns whether it was added.
func (q *workList) push(r graph.Ref) bool {
	if q.pending[r] {
		return false
	}
	q.pending[r] = true
	q.refs = append(q.refs, r)
	return true
}

// pop removes and returns the front entry. Returns false when empty.
func (q *workList) pop() (graph.Ref, bool) {
	if len(q.refs) == 0 {
		return graph.NoRef, false
	}
	r := q.refs[0]
	if len(q.refs) == 1 {
		// reset so the backing array is reused instead of growing forever
		q.refs = q.refs[:0]
	} else {
		q.refs = q.refs[1:]
	}
	q.pending[r] = false
	return r, true
}
