// Package varimp implements the variable-implementation subscription array
// and its subscribe/cancel/schedule/advise operations, the hardest
// subsystem in the kernel.
//
// A concrete variable type (an integer domain, a set domain, whatever a
// constraint library wants) embeds a *varimp.VarImp and configures it with
// a VIC value describing its propagation-condition count and its
// modification-event combinators; it does not need to reimplement any of
// the segment-shifting, growth, or cloning logic below.
//
// The layout is a single contiguous subscriber array sliced into
// [0, idx[0]) .. [idx[pc_max-1], idx[pc_max]) propagator segments followed
// by a trailing advisor segment. The per-class configuration is a VIC
// *value* (constants plus combinator functions) rather than a generic type
// parameter, so the segment-shift code itself stays monomorphic; only the
// per-class combinators vary, and a function field captures that without
// forcing VarImp[T] on every caller.
package varimp

import (
	"github.com/finitecp/kernel/actor"
	"github.com/finitecp/kernel/alloc"
	"github.com/finitecp/kernel/constants"
	"github.com/finitecp/kernel/propagate"
)

// VIC (variable implementation configuration) is supplied once per
// variable class. PcMax is the highest real propagation-condition segment
// index (segments 1..PcMax are real; segment/index 0 is reserved as the
// PC_GEN_ASSIGNED sentinel, so concrete classes number their real
// conditions starting at 1). IdxC/IdxD are the class's slot in the space's
// per-class variable registry and the process-wide disposer registry
// respectively.
type VIC struct {
	Name  string
	PcMax constants.PropCond
	IdxC  int
	IdxD  int

	// FreeBits is how many low bits of a packed free-and-state word the
	// class claims for its own state. Here free-count and state live in
	// separate fields (see VarImp.bits), so FreeBits only documents the
	// class's claim; it no longer positions a shift.
	FreeBits uint

	// MedFst/MedLst bound the class's bit range within a packed
	// ModEventDelta, and MedMask selects it; informational for classes that
	// decode a delta by hand, while MedUpdate below is the operational hook.
	MedFst, MedLst uint
	MedMask        constants.ModEventDelta

	// MedUpdate combines me into *delta in place (using the class's event
	// combinator) and reports whether delta actually changed, the single
	// hook both schedule() and advise() drive.
	MedUpdate func(delta *constants.ModEventDelta, me constants.ModEvent) bool
}

// VarImp is the subscription array and segment index for one variable.
// The zero value is not usable; construct with New.
type VarImp struct {
	vic   VIC
	arena *alloc.Arena

	base    []actor.Subscriber
	idx     []int // len(idx) == PcMax+1; idx[pc] is the exclusive end of segment pc
	entries int
	free    int

	// bits is class-defined per-variable state, kept as its own field so
	// the free counter above stays a plain integer.
	bits uint32

	// fwd is set by BeginClone the first time this original is visited
	// during a clone; non-nil means "already forwarded". An explicit field
	// rather than a tag on base, per the kernel-wide forwarding-field
	// convention.
	fwd *VarImp
}

// New returns an empty VarImp ready to accept subscriptions, drawing its
// subscription array from a.
func New(vic VIC, a *alloc.Arena) *VarImp {
	return &VarImp{
		vic:   vic,
		arena: a,
		idx:   make([]int, int(vic.PcMax)+1),
	}
}

// VIC exposes the variable's configuration, e.g. for a space to find its
// IdxC/IdxD when registering the variable on the per-class or disposer
// registries.
func (v *VarImp) VIC() VIC { return v.vic }

// Degree is the number of live subscription-array entries: every
// propagator segment plus the trailing advisor segment.
func (v *VarImp) Degree() int { return v.entries }

// Forwarded returns the twin VarImp once BeginClone has run, or nil before.
func (v *VarImp) Forwarded() *VarImp { return v.fwd }

// Bits returns the class-defined state stored alongside the free counter.
func (v *VarImp) Bits() uint32 { return v.bits }

// SetBits replaces the class-defined state. Only the low VIC.FreeBits are
// meaningful; the kernel never interprets them.
func (v *VarImp) SetBits(b uint32) { v.bits = b }

func (v *VarImp) segmentStart(pc constants.PropCond) int {
	if pc <= 0 {
		return 0
	}
	return v.idx[pc-1]
}

func (v *VarImp) segmentEnd(pc constants.PropCond) int { return v.idx[pc] }

// grow implements the subscription-array growth policy: initial capacity
// four; +4 if the array still lives inside the space's subscription slab
// (that area already over-allocates); otherwise x1.5.
func (v *VarImp) grow() {
	oldCap := len(v.base)
	switch {
	case oldCap == 0:
		v.base = alloc.AllocSub[actor.Subscriber](v.arena, constants.InitialSubscriptionCapacity)
		v.free = constants.InitialSubscriptionCapacity
	case alloc.InSlab(v.arena, v.base):
		fresh := alloc.AllocSub[actor.Subscriber](v.arena, oldCap+constants.SlabGrowthIncrement)
		copy(fresh, v.base[:v.entries])
		v.base = fresh
		v.free += constants.SlabGrowthIncrement
	default:
		newCap := (oldCap + 1) * constants.GrowthNumerator / constants.GrowthDenominator
		fresh := alloc.AllocT[actor.Subscriber](v.arena, newCap)
		copy(fresh, v.base[:v.entries])
		v.free += newCap - oldCap
		v.base = fresh
	}
}

// insertAt inserts s at position pos, shifting [pos, entries) right by one.
func (v *VarImp) insertAt(pos int, s actor.Subscriber) {
	if v.free == 0 {
		v.grow()
	}
	copy(v.base[pos+1:v.entries+1], v.base[pos:v.entries])
	v.base[pos] = s
	v.entries++
	v.free--
}

// removeAt removes the entry at pos, shifting [pos+1, entries) left by
// one. Back-filling from the next segment, propagated across all higher
// segments including the advisor segment, reduces to this single shift
// once the array is a flat, contiguously-segmented slice.
func (v *VarImp) removeAt(pos int) {
	copy(v.base[pos:v.entries-1], v.base[pos+1:v.entries])
	v.base[v.entries-1] = nil
	v.entries--
	v.free++
}

// scheduleOne combines me into p's delta and enqueues p if that changed
// anything, the per-propagator primitive both Subscribe and Schedule use.
func (v *VarImp) scheduleOne(p propagate.Propagator, me constants.ModEvent, q *propagate.Queue) {
	if v.vic.MedUpdate(p.Delta(), me) {
		q.Enqueue(p, p.Cost(*p.Delta()))
	}
}

// Subscribe records a propagator subscription: if assigned, no subscription
// is recorded and a requested schedule always uses ME_GEN_ASSIGNED;
// otherwise p is inserted into segment pc (shifting every higher segment
// boundary right by one) and, if requested and pc is not the
// PC_GEN_ASSIGNED sentinel, p is scheduled with me.
func (v *VarImp) Subscribe(p propagate.Propagator, pc constants.PropCond, assigned bool, me constants.ModEvent, schedule bool, q *propagate.Queue) {
	if assigned {
		if schedule {
			v.scheduleOne(p, constants.MeGenAssigned, q)
		}
		return
	}
	pos := v.segmentEnd(pc)
	v.insertAt(pos, p)
	for seg := int(pc); seg <= int(v.vic.PcMax); seg++ {
		v.idx[seg]++
	}
	if schedule && pc != constants.PcGenAssigned {
		v.scheduleOne(p, me, q)
	}
}

// Cancel locates p within segment pc and removes it, collapsing every
// higher segment boundary by one. A no-op if assigned (the variable's full
// Release already dropped everything) or if p is not found (already
// removed, e.g. by a prior Release mid-iteration).
func (v *VarImp) Cancel(p propagate.Propagator, pc constants.PropCond, assigned bool) {
	if assigned {
		return
	}
	start, end := v.segmentStart(pc), v.segmentEnd(pc)
	for i := start; i < end; i++ {
		if v.base[i] == actor.Subscriber(p) {
			v.removeAt(i)
			for seg := int(pc); seg <= int(v.vic.PcMax); seg++ {
				v.idx[seg]--
			}
			return
		}
	}
}

// SubscribeAdvisor inserts a into the trailing advisor segment, the same
// protocol as propagator subscription, on the single segment past PcMax.
// a is typed as actor.Subscriber rather than a concrete advisor type so
// this package never needs to import the advisor package.
func (v *VarImp) SubscribeAdvisor(a actor.Subscriber, assigned bool) {
	if assigned {
		return
	}
	v.insertAt(v.entries, a)
}

// CancelAdvisor removes a from the advisor segment, if still present.
func (v *VarImp) CancelAdvisor(a actor.Subscriber, assigned bool) {
	if assigned {
		return
	}
	start := v.segmentEnd(v.vic.PcMax)
	for i := start; i < v.entries; i++ {
		if v.base[i] == a {
			v.removeAt(i)
			return
		}
	}
}

// Release drops the entire subscription array when the variable becomes
// assigned, preserving base == nil and entries == 0 so Degree and a later
// clone remain well-defined.
func (v *VarImp) Release() {
	v.base = nil
	v.entries = 0
	v.free = 0
	for i := range v.idx {
		v.idx[i] = 0
	}
}

// Schedule combines me into the event delta of every propagator in
// segments [pcLow, pcHigh], enqueueing each whose delta changed.
func (v *VarImp) Schedule(pcLow, pcHigh constants.PropCond, me constants.ModEvent, q *propagate.Queue) {
	start, end := v.segmentStart(pcLow), v.segmentEnd(pcHigh)
	for i := start; i < end; i++ {
		v.scheduleOne(v.base[i].(propagate.Propagator), me, q)
	}
}

// Advise walks the advisor segment in forward order, invoking each
// advisor's hook and interpreting the result: ES_FAILED aborts and returns
// false; ES_NOFIX schedules the advisor's owning propagator; the
// ES_SUBSUMED variants report an advisor that has already disposed itself
// and called CancelAdvisor (Advise disposes nothing itself). Iteration
// tolerates the current advisor disposing itself (its own removal
// backfills its slot, so the same index is re-examined) and removal of
// later advisors, but never earlier ones, since earlier slots are never
// revisited.
func (v *VarImp) Advise(me constants.ModEvent, delta constants.ModEventDelta, q *propagate.Queue) bool {
	i := v.segmentEnd(v.vic.PcMax)
	for i < v.entries {
		hook := v.base[i].(propagate.AdvisorHook)
		status := hook.Advise(me, delta)
		switch status.Kind {
		case propagate.ExecFailed:
			return false
		case propagate.ExecNoFix:
			v.scheduleOne(hook.Owner(), me, q)
		}
		if status.DisposeAdvisor {
			// The advisor's own disposal already called CancelAdvisor,
			// which shifted this slot's successor into position i.
			continue
		}
		i++
	}
	return true
}

// BeginClone runs pass 1 of the two-pass cloning protocol: the fresh
// VarImp receives base, entries and idx by value from the original
// (sharing the same backing array; a slice already behaves like the value
// copy pass 2 needs), and the original is marked forwarded. Callers
// register the returned copy on the destination space and must set its
// arena to the destination's before running Update.
func (v *VarImp) BeginClone() *VarImp {
	cp := &VarImp{
		vic:     v.vic,
		arena:   v.arena,
		base:    v.base,
		idx:     append([]int(nil), v.idx...),
		entries: v.entries,
		free:    v.free,
		bits:    v.bits,
	}
	v.fwd = cp
	return cp
}

// SetArena rebinds the copy produced by BeginClone to the destination
// space's arena before Update runs.
func (v *VarImp) SetArena(a *alloc.Arena) { v.arena = a }

// Update runs pass 2 of the cloning protocol on the copy: rebuilds the
// copy's subscription array by forwarding each entry of the array it
// inherited from the original via actor.Subscriber.Forwarded. This is
// valid because, by the time Update runs, every propagator and advisor in
// that inherited array has already been forwarded. The original needs no
// base/idx restoration here: BeginClone never touched the original's base,
// since forwarding lives in the explicit fwd field instead of a tagged
// overwrite of base. Cost is linear in subscription count, with no map
// lookups.
func (v *VarImp) Update() {
	fresh := alloc.AllocSub[actor.Subscriber](v.arena, v.entries)
	for i := 0; i < v.entries; i++ {
		fresh[i] = v.base[i].Forwarded()
	}
	v.base = fresh
	v.free = 0
}
