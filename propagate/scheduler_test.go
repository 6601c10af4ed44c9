package propagate

import (
	"testing"

	"github.com/finitecp/kernel/actor"
	"github.com/finitecp/kernel/constants"
	"github.com/finitecp/kernel/handle"
)

type scriptedProp struct {
	actor.Base
	qn    QNode
	med   constants.ModEventDelta
	cost  constants.PropCost
	steps []ExecStatus
	i     int
	ran   func()
}

func (p *scriptedProp) QNode() *QNode                                  { return &p.qn }
func (p *scriptedProp) Delta() *constants.ModEventDelta                { return &p.med }
func (p *scriptedProp) Cost(constants.ModEventDelta) constants.PropCost { return p.cost }
func (p *scriptedProp) Copy(*handle.Registry, bool) Propagator         { return nil }
func (p *scriptedProp) Propagate(constants.ModEventDelta) ExecStatus {
	if p.ran != nil {
		p.ran()
	}
	s := p.steps[p.i]
	p.i++
	return s
}

func newScripted(cost constants.PropCost, steps ...ExecStatus) *scriptedProp {
	p := &scriptedProp{cost: cost, steps: steps}
	p.Link().SetOwner(p)
	return p
}

func TestEnqueueDequeuesLowestCostFirst(t *testing.T) {
	q := NewQueue()
	cheap := newScripted(constants.PcCrazyLo, ESFix())
	costly := newScripted(constants.PcUnaryLo, ESFix())

	// Enqueue the costlier propagator first to prove ordering is by cost
	// level, not insertion order.
	q.Enqueue(costly, constants.PcUnaryLo)
	q.Enqueue(cheap, constants.PcCrazyLo)

	if q.Active() != int(constants.PcCrazyLo) {
		t.Fatalf("got active bucket %d, want %d", q.Active(), constants.PcCrazyLo)
	}
}

// PC_BINARY_HI (6) and PC_UNARY_LO (7) enqueued in that insertion order
// must execute cheaper-class-first, verified with an external counter.
func TestRunExecutesCheaperCostClassFirst(t *testing.T) {
	q := NewQueue()
	counter := 0
	var binaryAt, unaryAt int
	binary := newScripted(constants.PcBinaryHi, ESFix())
	binary.ran = func() { counter++; binaryAt = counter }
	unary := newScripted(constants.PcUnaryLo, ESFix())
	unary.ran = func() { counter++; unaryAt = counter }

	q.Enqueue(binary, constants.PcBinaryHi)
	q.Enqueue(unary, constants.PcUnaryLo)

	failed, n := q.Run(nil)
	if failed {
		t.Fatal("run should not report failure")
	}
	if n != 2 {
		t.Fatalf("got %d executions, want 2", n)
	}
	if binaryAt != 1 || unaryAt != 2 {
		t.Fatalf("cost level 6 must run before level 7: binary ran %d-th, unary %d-th", binaryAt, unaryAt)
	}
}

// Within one cost level, FIFO insertion order breaks ties.
func TestRunIsFIFOWithinOneCostLevel(t *testing.T) {
	q := NewQueue()
	counter := 0
	order := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		i := i
		p := newScripted(constants.PcLinearLo, ESFix())
		p.ran = func() { counter++; order = append(order, i) }
		q.Enqueue(p, constants.PcLinearLo)
	}

	if failed, _ := q.Run(nil); failed {
		t.Fatal("run should not report failure")
	}
	for i, got := range order {
		if got != i {
			t.Fatalf("insertion order not preserved within a level: got %v", order)
		}
	}
}

func TestRunDrainsToStable(t *testing.T) {
	q := NewQueue()
	p := newScripted(constants.PcUnaryLo, ESFix())
	q.Enqueue(p, p.cost)

	failed, n := q.Run(nil)
	if failed {
		t.Fatal("run should not report failure")
	}
	if n != 1 {
		t.Fatalf("got %d executions, want 1", n)
	}
	if !q.Stable() {
		t.Fatal("queue should be stable after draining a single ES_FIX propagator")
	}
}

func TestRunReenqueuesOnNoFix(t *testing.T) {
	q := NewQueue()
	p := newScripted(constants.PcUnaryLo, ESNoFix(), ESFix())
	q.Enqueue(p, p.cost)

	failed, n := q.Run(nil)
	if failed {
		t.Fatal("run should not report failure")
	}
	if n != 2 {
		t.Fatalf("got %d executions, want 2 (ES_NOFIX re-enqueues once)", n)
	}
	if p.i != 2 {
		t.Fatalf("propagator should have run exactly twice, ran %d", p.i)
	}
}

func TestRunStopsOnFailure(t *testing.T) {
	q := NewQueue()
	p := newScripted(constants.PcUnaryLo, ESFailed())
	q.Enqueue(p, p.cost)

	failed, n := q.Run(nil)
	if !failed {
		t.Fatal("run should report failure")
	}
	if n != 1 {
		t.Fatalf("got %d executions, want 1", n)
	}
	if !q.Failed() {
		t.Fatal("queue should remain failed after Run")
	}
}

func TestRunDisposesSubsumed(t *testing.T) {
	q := NewQueue()
	p := newScripted(constants.PcUnaryLo, ESSubsumed(64))

	q.Enqueue(p, p.cost)

	var disposedSize int
	var disposed Propagator
	failed, _ := q.Run(func(pr Propagator, size int) {
		disposed = pr
		disposedSize = size
	})
	if failed {
		t.Fatal("run should not report failure for a subsumed propagator")
	}
	if disposed != Propagator(p) {
		t.Fatal("dispose callback should receive the subsumed propagator")
	}
	if disposedSize != 64 {
		t.Fatalf("got disposed size %d, want 64", disposedSize)
	}
}

// The delta is nonzero exactly while the propagator sits in a queue
// bucket: set by whoever schedules it (here the test itself, as
// VarImp.Schedule would), cleared by Run before the propagate call.
func TestDeltaZeroExactlyWhenUnqueued(t *testing.T) {
	q := NewQueue()
	p := newScripted(constants.PcUnaryLo, ESFix())
	p.med = 1
	q.Enqueue(p, p.cost)
	if p.med == 0 {
		t.Fatal("a queued propagator should carry a nonzero delta")
	}
	q.Run(nil)
	if p.med != 0 {
		t.Fatalf("the delta should be zero once the propagator left the queue at fixpoint, got %d", p.med)
	}
}

func TestFailClearsQueue(t *testing.T) {
	q := NewQueue()
	p := newScripted(constants.PcUnaryLo, ESFix())
	q.Enqueue(p, p.cost)
	q.Fail()
	if q.Active() != -1 {
		t.Fatalf("got active %d after Fail, want -1", q.Active())
	}
	if !q.Failed() {
		t.Fatal("Failed should report true after Fail")
	}
}
