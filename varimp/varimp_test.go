package varimp

import (
	"testing"

	"github.com/finitecp/kernel/actor"
	"github.com/finitecp/kernel/alloc"
	"github.com/finitecp/kernel/constants"
	"github.com/finitecp/kernel/handle"
	"github.com/finitecp/kernel/propagate"
)

// stubProp is a minimal propagate.Propagator used only to exercise VarImp's
// subscription/schedule/advise machinery in isolation, without depending on
// internal/democp (which itself depends on this package).
type stubProp struct {
	actor.Base
	qn    propagate.QNode
	med   constants.ModEventDelta
	costs []constants.ModEventDelta
}

func (p *stubProp) QNode() *propagate.QNode            { return &p.qn }
func (p *stubProp) Delta() *constants.ModEventDelta     { return &p.med }
func (p *stubProp) Cost(constants.ModEventDelta) constants.PropCost { return constants.PcUnaryLo }
func (p *stubProp) Propagate(med constants.ModEventDelta) propagate.ExecStatus {
	p.costs = append(p.costs, med)
	return propagate.ESFix()
}
func (p *stubProp) Copy(*handle.Registry, bool) propagate.Propagator { return &stubProp{} }

func newStubProp() *stubProp {
	p := &stubProp{}
	p.Link().SetOwner(p)
	return p
}

func testVIC() VIC {
	return VIC{
		Name:  "test",
		PcMax: 1,
		MedUpdate: func(delta *constants.ModEventDelta, me constants.ModEvent) bool {
			if me <= 0 {
				return false
			}
			bit := constants.ModEventDelta(1) << uint(me)
			if *delta&bit != 0 {
				return false
			}
			*delta |= bit
			return true
		},
	}
}

func TestSubscribeAndScheduleEnqueues(t *testing.T) {
	a := alloc.New()
	v := New(testVIC(), a)
	q := propagate.NewQueue()

	p := newStubProp()
	v.Subscribe(p, 1, false, constants.MeGenNone, false, q)
	if v.Degree() != 1 {
		t.Fatalf("got degree %d, want 1", v.Degree())
	}

	v.Schedule(1, 1, constants.MeGenAssigned, q)
	if q.Stable() {
		t.Fatal("Schedule should have enqueued the subscriber")
	}
}

func TestCancelRemovesSubscriber(t *testing.T) {
	a := alloc.New()
	v := New(testVIC(), a)
	q := propagate.NewQueue()

	p1, p2 := newStubProp(), newStubProp()
	v.Subscribe(p1, 1, false, constants.MeGenNone, false, q)
	v.Subscribe(p2, 1, false, constants.MeGenNone, false, q)
	if v.Degree() != 2 {
		t.Fatalf("got degree %d, want 2", v.Degree())
	}

	v.Cancel(p1, 1, false)
	if v.Degree() != 1 {
		t.Fatalf("got degree %d after cancel, want 1", v.Degree())
	}
}

func TestSubscribeAssignedSkipsArray(t *testing.T) {
	a := alloc.New()
	v := New(testVIC(), a)
	q := propagate.NewQueue()

	p := newStubProp()
	v.Subscribe(p, 1, true, constants.MeGenAssigned, true, q)
	if v.Degree() != 0 {
		t.Fatal("subscribing to an already-assigned variable should not record an entry")
	}
	if q.Stable() {
		t.Fatal("subscribe-while-assigned with schedule=true should still enqueue once")
	}
}

func TestReleaseClearsSubscriptions(t *testing.T) {
	a := alloc.New()
	v := New(testVIC(), a)
	q := propagate.NewQueue()
	p := newStubProp()
	v.Subscribe(p, 1, false, constants.MeGenNone, false, q)
	v.Release()
	if v.Degree() != 0 {
		t.Fatal("Release should drop all subscriptions")
	}
}

func TestBeginCloneAndUpdate(t *testing.T) {
	srcArena := alloc.New()
	v := New(testVIC(), srcArena)
	q := propagate.NewQueue()
	p := newStubProp()
	v.Subscribe(p, 1, false, constants.MeGenNone, false, q)
	v.SetBits(5)

	cp := v.BeginClone()
	if v.Forwarded() != cp {
		t.Fatal("BeginClone should set the original's forwarding pointer to the copy")
	}
	if cp.Bits() != 5 {
		t.Fatalf("the copy should inherit the class-defined state bits, got %d", cp.Bits())
	}

	// Simulate step 3 of the clone algorithm: the subscriber is forwarded
	// before VarImp.Update runs.
	twin := newStubProp()
	p.Link().Fwd = twin.Link()

	dstArena := alloc.New()
	cp.SetArena(dstArena)
	cp.Update()

	if cp.Degree() != 1 {
		t.Fatalf("copy should retain degree 1 after Update, got %d", cp.Degree())
	}
}

// stubAdvisor is a minimal propagate.AdvisorHook used to exercise VarImp's
// Advise loop in isolation, in particular that an advisor disposing
// itself on first invocation never leaves the iterator dereferencing the
// disposed entry. When selfDispose is set, Advise calls
// v.CancelAdvisor on itself before returning DisposeAdvisor=true, matching
// the real contract VarImp.Advise's doc comment describes ("the advisor's
// own disposal already called CancelAdvisor").
type stubAdvisor struct {
	owner       *stubProp
	result      propagate.AdviseStatus
	visits      *int
	selfDispose bool
	v           *VarImp
}

func (a *stubAdvisor) Owner() propagate.Propagator { return a.owner }
func (a *stubAdvisor) Advise(constants.ModEvent, constants.ModEventDelta) propagate.AdviseStatus {
	*a.visits++
	if a.selfDispose {
		a.v.CancelAdvisor(a, false)
		return propagate.AdviseStatus{Kind: propagate.ExecFix, DisposeAdvisor: true}
	}
	return a.result
}
func (a *stubAdvisor) Forwarded() actor.Subscriber { return nil }

func TestAdviseToleratesSelfDisposalMidLoop(t *testing.T) {
	a := alloc.New()
	v := New(testVIC(), a)
	q := propagate.NewQueue()

	visits := 0
	first := &stubAdvisor{owner: newStubProp(), visits: &visits, selfDispose: true, v: v}
	second := &stubAdvisor{owner: newStubProp(), result: propagate.AdviseFix(), visits: &visits}

	v.SubscribeAdvisor(first, false)
	v.SubscribeAdvisor(second, false)

	ok := v.Advise(constants.MeGenNone, 0, q)
	if !ok {
		t.Fatal("Advise should report true when no advisor fails")
	}
	if visits != 2 {
		t.Fatalf("both advisors should have been visited (the disposed one first, then the one backfilled into its slot), got %d visits", visits)
	}
	if v.Degree() != 1 {
		t.Fatalf("one advisor should remain subscribed after the other disposed itself, got degree %d", v.Degree())
	}
}

func TestAdviseStopsOnFailure(t *testing.T) {
	a := alloc.New()
	v := New(testVIC(), a)
	q := propagate.NewQueue()

	visits := 0
	failing := &stubAdvisor{owner: newStubProp(), result: propagate.AdviseFailed(), visits: &visits}
	never := &stubAdvisor{owner: newStubProp(), result: propagate.AdviseFix(), visits: &visits}
	v.SubscribeAdvisor(failing, false)
	v.SubscribeAdvisor(never, false)

	ok := v.Advise(constants.MeGenNone, 0, q)
	if ok {
		t.Fatal("Advise should report false once an advisor returns ES_FAILED")
	}
	if visits != 1 {
		t.Fatalf("iteration should abort immediately on ES_FAILED, got %d visits", visits)
	}
}

func TestAdviseSchedulesOnNoFix(t *testing.T) {
	a := alloc.New()
	v := New(testVIC(), a)
	q := propagate.NewQueue()

	visits := 0
	owner := newStubProp()
	adv := &stubAdvisor{owner: owner, result: propagate.AdviseNoFix(), visits: &visits}
	v.SubscribeAdvisor(adv, false)

	ok := v.Advise(constants.MeGenAssigned, 0, q)
	if !ok {
		t.Fatal("Advise should report true")
	}
	if q.Stable() {
		t.Fatal("ES_NOFIX should have scheduled the advisor's owning propagator")
	}
}
