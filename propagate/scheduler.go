package propagate

import (
	"math/bits"

	"github.com/finitecp/kernel/constants"
)

// Queue is the cost-indexed scheduler queue: one FIFO bucket per PropCost
// level, a bitmap cursor tracking which buckets are non-empty, and a
// tri-state active/stable/failed status: Active() returns -1 (failed),
// NumCostLevels (stable), or a bucket index. At eight levels a flat 8-bit
// mask with a trailing-zeros scan replaces any deeper bitmap hierarchy.
type Queue struct {
	buckets  [constants.NumCostLevels]QNode
	occupied uint8 // bit i set iff buckets[i] is non-empty
	failed   bool
}

// NewQueue returns an empty, non-failed scheduler queue.
func NewQueue() *Queue {
	q := &Queue{}
	for i := range q.buckets {
		q.buckets[i].next = &q.buckets[i]
		q.buckets[i].prev = &q.buckets[i]
	}
	return q
}

// Active returns -1 if the queue (and hence its space) has failed,
// constants.NumCostLevels if the queue is stable (nothing scheduled), or
// the index of the lowest cost level with pending work.
func (q *Queue) Active() int {
	if q.failed {
		return -1
	}
	if q.occupied == 0 {
		return constants.NumCostLevels
	}
	return bits.TrailingZeros8(q.occupied)
}

// Stable reports whether the queue has no pending work and has not failed.
func (q *Queue) Stable() bool { return !q.failed && q.occupied == 0 }

// Failed reports whether the queue has failed.
func (q *Queue) Failed() bool { return q.failed }

// Fail marks the queue (and its space) as failed, clearing the occupied
// mask so Active() reports -1 unconditionally once failed is set.
func (q *Queue) Fail() {
	q.failed = true
	for i := range q.buckets {
		unlinkBucket(&q.buckets[i])
	}
	q.occupied = 0
}

func unlinkBucket(sentinel *QNode) {
	for n := sentinel.next; n != sentinel; {
		next := n.next
		n.prev, n.next, n.queued = nil, nil, false
		n = next
	}
	sentinel.next = sentinel
	sentinel.prev = sentinel
}

// Enqueue inserts p at the tail of the bucket for cost, preserving FIFO
// order within a level. If p is already queued, it is first removed from
// its current bucket (a propagator's cost can be recomputed between
// enqueues as its med changes).
func (q *Queue) Enqueue(p Propagator, cost constants.PropCost) {
	if q.failed {
		return
	}
	n := p.QNode()
	n.SetOwner(p)
	if n.queued {
		q.remove(n)
	}
	sentinel := &q.buckets[cost]
	tail := sentinel.prev
	n.prev, n.next = tail, sentinel
	tail.next, sentinel.prev = n, n
	n.queued = true
	q.occupied |= 1 << uint(cost)
}

func (q *Queue) remove(n *QNode) {
	bucketIdx := q.bucketIndexOf(n)
	n.prev.next = n.next
	n.next.prev = n.prev
	n.prev, n.next, n.queued = nil, nil, false
	if bucketIdx >= 0 && q.buckets[bucketIdx].next == &q.buckets[bucketIdx] {
		q.occupied &^= 1 << uint(bucketIdx)
	}
}

// bucketIndexOf walks the (at most 8) sentinels to find which bucket n
// currently belongs to; cheap because NumCostLevels is tiny and this only
// runs on the already-rare re-enqueue-while-queued path.
func (q *Queue) bucketIndexOf(n *QNode) int {
	for i := range q.buckets {
		for c := q.buckets[i].next; c != &q.buckets[i]; c = c.next {
			if c == n {
				return i
			}
		}
	}
	return -1
}

// dequeueHead removes and returns the head of the lowest non-empty bucket.
// Unlinks inline rather than via remove(): the bucket index is already
// known here, so the scan remove() needs is wasted work on the hot path.
func (q *Queue) dequeueHead() (Propagator, bool) {
	if q.failed || q.occupied == 0 {
		return nil, false
	}
	idx := bits.TrailingZeros8(q.occupied)
	sentinel := &q.buckets[idx]
	n := sentinel.next
	n.prev.next = n.next
	n.next.prev = n.prev
	n.prev, n.next, n.queued = nil, nil, false
	if sentinel.next == sentinel {
		q.occupied &^= 1 << uint(idx)
	}
	return n.owner, true
}

// Subsumer disposes a subsumed propagator and reclaims its storage; passed
// to Run so the queue does not need to know about the space's arena or
// actor list.
type Subsumer func(p Propagator, sizeBytes int)

// Run executes the partial-fixpoint loop until the queue is stable or has
// failed, invoking dispose for every propagator that reports subsumption.
// Returns whether the run ended in failure and the number of propagate()
// calls made, which callers (space.Space.Status) accumulate into the
// caller-owned execution counter.
func (q *Queue) Run(dispose Subsumer) (failed bool, executions uint64) {
	for {
		p, ok := q.dequeueHead()
		if !ok {
			return q.failed, executions
		}
		med := *p.Delta()
		*p.Delta() = 0
		status := p.Propagate(med)
		executions++
		switch status.Kind {
		case ExecFailed:
			q.Fail()
			return true, executions
		case ExecFix:
			// Already unlinked by dequeueHead; nothing further.
		case ExecNoFix:
			// Re-enqueue on whatever events accumulated during the call;
			// if none did, re-run on the events that triggered this call,
			// keeping the delta nonzero while queued.
			if *p.Delta() == 0 {
				*p.Delta() = med
			}
			q.Enqueue(p, p.Cost(*p.Delta()))
		case ExecSubsumed:
			if dispose != nil {
				dispose(p, status.Size)
			}
		case ExecFixPartial:
			*p.Delta() = status.Med
			q.Enqueue(p, p.Cost(status.Med))
		case ExecNoFixPartial:
			*p.Delta() |= status.Med
			q.Enqueue(p, p.Cost(*p.Delta()))
		}
	}
}
