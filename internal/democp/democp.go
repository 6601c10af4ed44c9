// Package democp is a minimal in-tree finite-domain variable library,
// propagator and branching. Real variable-type libraries (integer, set,
// float) live outside this module and plug in through the same seams; this
// one exists ONLY so this module's own tests can drive varimp, propagate,
// branch, advisor and space end-to-end through a concrete model.
//
// The model: integer variables with an explicit remaining-value domain, a
// NotEqual propagator enforcing x != y, and an Assign branching that picks
// the first unassigned variable and tries each of its remaining values as
// an alternative.
package democp

import (
	"github.com/finitecp/kernel/actor"
	"github.com/finitecp/kernel/advisor"
	"github.com/finitecp/kernel/alloc"
	"github.com/finitecp/kernel/branch"
	"github.com/finitecp/kernel/constants"
	"github.com/finitecp/kernel/handle"
	"github.com/finitecp/kernel/propagate"
	"github.com/finitecp/kernel/space"
	"github.com/finitecp/kernel/varimp"
)

// PcBound is this class's only real propagation condition (segment 1;
// segment 0 is reserved for PC_GEN_ASSIGNED).
const PcBound constants.PropCond = 1

func medUpdate(delta *constants.ModEventDelta, me constants.ModEvent) bool {
	if me <= 0 {
		return false
	}
	bit := constants.ModEventDelta(1) << uint(me)
	if *delta&bit != 0 {
		return false
	}
	*delta |= bit
	return true
}

// VIC is this package's sole variable-implementation configuration. Its
// deltas only ever carry the ME_GEN_ASSIGNED bit, so the med range is the
// two low bits.
var VIC = varimp.VIC{
	Name:      "democp.Int",
	PcMax:     PcBound,
	IdxC:      0,
	IdxD:      0,
	MedFst:    0,
	MedLst:    1,
	MedMask:   0x3,
	MedUpdate: medUpdate,
}

// IntVar is a finite-domain integer variable: a varimp.VarImp (subscription
// bookkeeping) plus an explicit slice of remaining values.
type IntVar struct {
	vi  *varimp.VarImp
	dom []int32
	fwd *IntVar
}

// NewIntVar returns a variable whose domain is exactly dom (caller-owned,
// copied in).
func NewIntVar(a *alloc.Arena, dom []int32) *IntVar {
	return &IntVar{vi: varimp.New(VIC, a), dom: append([]int32(nil), dom...)}
}

// VarImp exposes the embedded subscription array, for propagators and
// branchings to Subscribe/Cancel against.
func (v *IntVar) VarImp() *varimp.VarImp { return v.vi }

// Domain returns the variable's remaining values.
func (v *IntVar) Domain() []int32 { return v.dom }

// Assigned reports whether exactly one value remains.
func (v *IntVar) Assigned() bool { return len(v.dom) == 1 }

// AssignTo narrows the domain to {val} and notifies subscribers. Reports
// false if val is not currently in the domain.
func (v *IntVar) AssignTo(val int32, q *propagate.Queue) bool {
	found := false
	for _, d := range v.dom {
		if d == val {
			found = true
			break
		}
	}
	if !found {
		return false
	}
	v.dom = []int32{val}
	if !v.vi.Advise(constants.MeGenAssigned, 0, q) {
		q.Fail()
	}
	v.vi.Schedule(PcBound, VIC.PcMax, constants.MeGenAssigned, q)
	v.vi.Release()
	return true
}

// Remove deletes val from the domain, if present, narrowing toward (and
// notifying on) assignment.
func (v *IntVar) Remove(val int32, q *propagate.Queue) {
	out := v.dom[:0]
	removed := false
	for _, d := range v.dom {
		if d == val {
			removed = true
			continue
		}
		out = append(out, d)
	}
	v.dom = out
	if !removed || len(v.dom) != 1 {
		return
	}
	if !v.vi.Advise(constants.MeGenAssigned, 0, q) {
		q.Fail()
	}
	v.vi.Schedule(PcBound, VIC.PcMax, constants.MeGenAssigned, q)
	v.vi.Release()
}

// BeginClone runs pass 1 of the variable cloning protocol on v: clones the
// embedded VarImp, registers the copy on dst, builds v's twin IntVar and
// sets the forwarding pointer Forwarded will later return.
func (v *IntVar) BeginClone(dst *space.Space) *IntVar {
	cp := v.vi.BeginClone()
	dst.RegisterVarImp(cp)
	twin := &IntVar{vi: cp, dom: append([]int32(nil), v.dom...)}
	v.fwd = twin
	return twin
}

// Forwarded returns v's twin once BeginClone has run during an in-flight
// clone, or nil before that.
func (v *IntVar) Forwarded() *IntVar { return v.fwd }

// ValueOrder is a model-wide value-selection heuristic table, wrapped in a
// shared handle so every clone of one model can either alias it (clone with
// share=true) or receive its own copy (share=false). It is the one payload
// in this package that straddles space boundaries, existing to drive the
// shared-handle clone semantics from a real Subclass.Copy call.
type ValueOrder struct {
	Reversed bool
}

// Copy implements handle.Object.
func (o *ValueOrder) Copy() handle.Object { return &ValueOrder{Reversed: o.Reversed} }

// Model is the democp "space subclass": the slice of variables plus the
// embedded kernel Space every concrete model composes, and an optional
// shared value-ordering table.
type Model struct {
	*space.Space
	Vars  []*IntVar
	Order *handle.SharedHandle
}

// NewModel returns an empty model backed by a fresh Space.
func NewModel() *Model {
	return &Model{Space: space.New()}
}

// NewVar allocates and registers a new variable on m.
func (m *Model) NewVar(dom []int32) *IntVar {
	v := NewIntVar(m.Space.Arena(), dom)
	m.Vars = append(m.Vars, v)
	return v
}

// ShareOrder installs a value-ordering table with reference count 1.
func (m *Model) ShareOrder(o *ValueOrder) {
	m.Order = handle.NewShared(o)
}

// Copy implements space.Subclass: pass 1 for every variable, plus the
// shared-handle update rule for the value-ordering table (alias on
// share=true, forward a single fresh copy through reg on share=false).
func (m *Model) Copy(dst *space.Space, reg *handle.Registry, share bool) space.Subclass {
	nm := &Model{Space: dst, Vars: make([]*IntVar, len(m.Vars))}
	for i, v := range m.Vars {
		nm.Vars[i] = v.BeginClone(dst)
	}
	if m.Order != nil {
		nm.Order = &handle.SharedHandle{}
		m.Order.Update(reg, share, nm.Order)
	}
	return nm
}

// NotEqual is a propagator enforcing X != Y. It embeds actor.Base for list
// membership and keeps its own QNode/delta fields rather than also
// embedding propagate.Base, since Go forbids two anonymous fields named
// Base (actor.Base and propagate.Base) in the same struct.
type NotEqual struct {
	actor.Base
	qn   propagate.QNode
	med  constants.ModEventDelta
	x, y *IntVar
}

// Post constructs a NotEqual propagator over x and y, appends it to home's
// actor list and subscribes it to both variables.
func Post(home *space.Space, x, y *IntVar) *NotEqual {
	p := &NotEqual{x: x, y: y}
	p.Link().SetOwner(p)
	home.Actors().PushBack(p.Link())
	x.VarImp().Subscribe(p, PcBound, x.Assigned(), constants.MeGenNone, false, home.Queue())
	y.VarImp().Subscribe(p, PcBound, y.Assigned(), constants.MeGenNone, false, home.Queue())
	return p
}

// QNode implements propagate.Propagator.
func (p *NotEqual) QNode() *propagate.QNode { return &p.qn }

// Delta implements propagate.Propagator.
func (p *NotEqual) Delta() *constants.ModEventDelta { return &p.med }

// Cost reports NotEqual's (constant) propagation cost.
func (p *NotEqual) Cost(constants.ModEventDelta) constants.PropCost { return constants.PcUnaryLo }

// Propagate enforces X != Y: fails once both variables are assigned to the
// same value, subsumes once both are assigned to different values, and
// otherwise reports a (weak) fixpoint without narrowing either domain, a
// deliberate simplification for this test fixture; AssignBranching's
// exhaustive enumeration still finds every solution, it is only
// propagation strength, not correctness, that is traded away.
func (p *NotEqual) Propagate(constants.ModEventDelta) propagate.ExecStatus {
	if p.x.Assigned() && p.y.Assigned() {
		if p.x.Domain()[0] == p.y.Domain()[0] {
			return propagate.ESFailed()
		}
		return propagate.ESSubsumed(0)
	}
	return propagate.ESFix()
}

// Copy implements propagate.Propagator.
func (p *NotEqual) Copy(reg *handle.Registry, share bool) propagate.Propagator {
	twin := &NotEqual{x: p.x.Forwarded(), y: p.y.Forwarded()}
	twin.Link().SetOwner(twin)
	return twin
}

// watchAdvisor observes one variable on behalf of a Watch propagator,
// scheduling the owner as soon as the variable becomes assigned.
type watchAdvisor struct {
	advisor.Base
	v *IntVar
}

// Advise implements propagate.AdvisorHook.
func (a *watchAdvisor) Advise(me constants.ModEvent, _ constants.ModEventDelta) propagate.AdviseStatus {
	if me == constants.MeGenAssigned {
		return propagate.AdviseNoFix()
	}
	return propagate.AdviseFix()
}

// Copy implements advisor.Cloner; Council.Update binds the twin to its
// owning propagator.
func (a *watchAdvisor) Copy(reg *handle.Registry, owner propagate.Propagator, share bool) advisor.Cloner {
	twin := &watchAdvisor{v: a.v.Forwarded()}
	twin.SetSelf(twin)
	return twin
}

// Watch subsumes once its variable is assigned, learning about the
// assignment through a council-held advisor rather than an ordinary
// propagator subscription. It is the fixture that drives council cloning
// through a real Space.Clone.
type Watch struct {
	actor.Base
	qn      propagate.QNode
	med     constants.ModEventDelta
	v       *IntVar
	council *advisor.Council
}

// PostWatch constructs a Watch over v, appends it to home's actor list and
// subscribes its advisor to v's advisor segment.
func PostWatch(home *space.Space, v *IntVar) *Watch {
	p := &Watch{v: v, council: advisor.New()}
	p.Link().SetOwner(p)
	home.Actors().PushBack(p.Link())
	if !v.Assigned() {
		a := &watchAdvisor{v: v}
		p.council.Add(p, a.AdvisorBase(), a)
		v.VarImp().SubscribeAdvisor(a, false)
	}
	return p
}

// QNode implements propagate.Propagator.
func (p *Watch) QNode() *propagate.QNode { return &p.qn }

// Delta implements propagate.Propagator.
func (p *Watch) Delta() *constants.ModEventDelta { return &p.med }

// Cost reports Watch's (constant) propagation cost.
func (p *Watch) Cost(constants.ModEventDelta) constants.PropCost { return constants.PcUnaryLo }

// Propagate subsumes once the watched variable is assigned.
func (p *Watch) Propagate(constants.ModEventDelta) propagate.ExecStatus {
	if p.v.Assigned() {
		return propagate.ESSubsumed(0)
	}
	return propagate.ESFix()
}

// Copy implements propagate.Propagator, cloning the council so the twin's
// advisor notifies the twin, not the original.
func (p *Watch) Copy(reg *handle.Registry, share bool) propagate.Propagator {
	twin := &Watch{v: p.v.Forwarded(), council: advisor.New()}
	twin.Link().SetOwner(twin)
	p.council.Update(twin.council, reg, twin, share)
	return twin
}

// AssignBranching picks the first unassigned variable in home's model and
// branches over its remaining values. It embeds actor.Base for list
// membership and a named (not anonymous) branch.Base, for the same reason
// NotEqual avoids embedding propagate.Base anonymously.
type AssignBranching struct {
	actor.Base
	bb   branch.Base
	home *space.Space
	vars []*IntVar
}

// PostBranching constructs and appends an AssignBranching over vars.
func PostBranching(home *space.Space, vars []*IntVar) *AssignBranching {
	b := &AssignBranching{vars: vars, home: home}
	home.Branches().Append(b, &b.bb)
	return b
}

func (b *AssignBranching) firstUnassigned() (*IntVar, bool) {
	for _, v := range b.vars {
		if !v.Assigned() {
			return v, true
		}
	}
	return nil, false
}

// ID implements branch.Branching.
func (b *AssignBranching) ID() uint64 { return b.bb.ID() }

// SetHome implements space.HomeSetter: Commit needs a live queue reference
// to re-notify propagators, which branch.Branching.Commit's signature does
// not carry directly.
func (b *AssignBranching) SetHome(s *space.Space) { b.home = s }

// HasAlternatives implements branch.Branching.
func (b *AssignBranching) HasAlternatives() bool {
	_, ok := b.firstUnassigned()
	return ok
}

// Description implements branch.Branching: a description over the current
// first unassigned variable's domain size. Commit later re-derives which
// variable that was by re-scanning, valid because nothing mutates the space
// between a stable Description() call and the matching Commit on either the
// original or an unmutated clone of it.
func (b *AssignBranching) Description() branch.Desc {
	v, _ := b.firstUnassigned()
	return branch.NewDesc(b, len(v.Domain()))
}

// Commit implements branch.Branching: assigns the first unassigned
// variable's alt-th remaining value.
func (b *AssignBranching) Commit(desc branch.Desc, alt int) error {
	v, ok := b.firstUnassigned()
	if !ok {
		return nil
	}
	v.AssignTo(v.Domain()[alt], b.home.Queue())
	return nil
}

// Copy implements branch.Branching.
func (b *AssignBranching) Copy(reg *handle.Registry, share bool) branch.Branching {
	vars := make([]*IntVar, len(b.vars))
	for i, v := range b.vars {
		vars[i] = v.Forwarded()
	}
	twin := &AssignBranching{vars: vars}
	twin.bb.SetID(b.bb.ID())
	twin.Link().SetOwner(twin)
	return twin
}
