// Package space implements the Space lifecycle: construction, status (the
// partial-fixpoint execution loop plus branching-exhaustion check), clone
// (the two-pass forwarding algorithm), commit, notice/ignore, and failure.
//
// A concrete model embeds *Space and implements Subclass; the kernel has no
// virtual constructors, so wherever cloning needs subclass cooperation the
// caller passes itself explicitly. Dispatch stays on plain interfaces, no
// reflection.
package space

import (
	"sync/atomic"
	"unsafe"

	"github.com/finitecp/kernel/actor"
	"github.com/finitecp/kernel/alloc"
	"github.com/finitecp/kernel/branch"
	"github.com/finitecp/kernel/constants"
	"github.com/finitecp/kernel/disposer"
	"github.com/finitecp/kernel/handle"
	"github.com/finitecp/kernel/kcore/klog"
	"github.com/finitecp/kernel/kernerr"
	"github.com/finitecp/kernel/propagate"
	"github.com/finitecp/kernel/space/trace"
	"github.com/finitecp/kernel/varimp"
)

// nextID hands out process-wide unique space identities, used only to label
// rows in an optional trace.DB, never consulted by any kernel algorithm.
var nextID uint64

// Subclass is implemented by the concrete model type that embeds *Space.
// Copy must walk every variable array the subclass owns, call
// VarImp.BeginClone on each, and register the resulting copy on dst via
// dst.RegisterVarImp, then return a fresh instance of the same concrete
// type wired to dst.
type Subclass interface {
	Copy(dst *Space, reg *handle.Registry, share bool) Subclass
}

// Constrainer is implemented by a Subclass that supports best-solution
// search. A Subclass that does not implement it gets
// kernerr.ErrConstrainUndefined from ConstrainWith.
type Constrainer interface {
	Constrain(best Subclass) error
}

// wmp is the weakly-monotonic propagator counter. Two fields rather than a
// packed integer: current membership and whether any such propagator was
// present since the last stability report.
type wmp struct {
	current  int
	observed bool
}

func (w *wmp) notice() { w.current++; w.observed = true }
func (w *wmp) ignore() {
	if w.current > 0 {
		w.current--
	}
}

// reportAndDecay returns whether a weakly-monotonic propagator is present
// now or was since the last report, then decays the "was since" half of
// the encoding to reflect the report just given.
func (w *wmp) reportAndDecay() bool {
	present := w.current > 0 || w.observed
	w.observed = w.current > 0
	return present
}

// Space is the unit of copy: an arena, an actor membership list, a
// branching chain, and a cost-indexed scheduler queue. Forwarding state
// during a clone lives in explicit per-entity fields rather than a
// reinterpreted union, so the propagating phase is the only one modeled
// explicitly here.
type Space struct {
	arena  *alloc.Arena
	actors *actor.List
	chain  *branch.Chain
	queue  *propagate.Queue

	// pendingVars accumulates VarImp copies registered by a Subclass.Copy
	// call while THIS Space is being built as a clone's destination; drained
	// by Clone's pass 2 and left nil otherwise.
	pendingVars []*varimp.VarImp

	disposeList []actor.Actor
	disposeVars map[int][]any
	nWmp        wmp
	reentrant   bool
	log         *klog.Sink

	id    uint64
	trace *trace.DB
}

// New returns a fresh, empty, stable space with its own arena.
func New() *Space {
	s := &Space{
		arena:  alloc.New(),
		actors: actor.NewList(),
		id:     atomic.AddUint64(&nextID, 1),
	}
	s.chain = branch.NewChain(s.actors)
	s.queue = propagate.NewQueue()
	return s
}

// SetLog installs a diagnostic sink; nil (the default) disables logging.
func (s *Space) SetLog(l *klog.Sink) { s.log = l }

// SetTrace installs a write-only commit audit trail; nil (the default)
// disables tracing. Never read back by the kernel: Commit only ever
// appends to it.
func (s *Space) SetTrace(db *trace.DB) { s.trace = db }

// ID is this space's process-wide unique identity, used only to label rows
// in an optional trace.DB.
func (s *Space) ID() uint64 { return s.id }

// Actors exposes the shared actor list so branchings can be appended via
// branch.Chain.Append and propagators via actor.List.PushBack at
// construction time.
func (s *Space) Actors() *actor.List { return s.actors }

// Branches exposes the branching chain for Branching construction
// (branch.Chain.Append) and the search-facing Description/Commit calls
// below.
func (s *Space) Branches() *branch.Chain { return s.chain }

// Queue exposes the scheduler queue so VarImp.Subscribe/Schedule/Advise
// calls (which take a *propagate.Queue) can enqueue against this space.
func (s *Space) Queue() *propagate.Queue { return s.queue }

// Arena exposes the space's private allocator, for a Subclass's own
// variable constructors (which need an *alloc.Arena to build a fresh
// varimp.VarImp) and for the typed/raw alloc helpers below.
func (s *Space) Arena() *alloc.Arena { return s.arena }

// HomeSetter is optionally implemented by a concrete propagator or
// branching whose operations need a live reference to their owning space
// after cloning (e.g. a branching's Commit, which unlike Propagate takes no
// queue argument, but still needs one to re-notify propagators). Copy
// itself cannot take the destination space as a parameter without an
// import cycle (propagate and branch would need to import space, which
// already imports both), so Clone instead calls SetHome(dst) on every
// cloned actor that asks for it, once the actor is linked into dst.
type HomeSetter interface {
	SetHome(s *Space)
}

// RegisterVarImp records cp (a VarImp copy produced by VarImp.BeginClone
// during a Subclass.Copy call with this Space as dst) for pass 2 of the
// cloning protocol.
func (s *Space) RegisterVarImp(cp *varimp.VarImp) {
	s.pendingVars = append(s.pendingVars, cp)
}

// NoticeVar records v as a live variable of class idxD whose variable-type
// library registered a disposer (disposer.Register). At Destroy the
// registered disposer receives every variable recorded this way.
func (s *Space) NoticeVar(idxD int, v any) {
	if s.disposeVars == nil {
		s.disposeVars = map[int][]any{}
	}
	s.disposeVars[idxD] = append(s.disposeVars[idxD], v)
}

// Notice registers an actor property: APDispose actors get their Dispose()
// called at space destruction; APWeakly actors are counted by the
// weakly-monotonic tracker.
func (s *Space) Notice(a actor.Actor, prop constants.ActorProperty) {
	switch prop {
	case constants.APDispose:
		s.disposeList = append(s.disposeList, a)
	case constants.APWeakly:
		s.nWmp.notice()
	}
}

// Ignore is the inverse of Notice, restoring the bookkeeping counters
// exactly.
func (s *Space) Ignore(a actor.Actor, prop constants.ActorProperty) {
	switch prop {
	case constants.APDispose:
		for i, x := range s.disposeList {
			if x == a {
				s.disposeList = append(s.disposeList[:i], s.disposeList[i+1:]...)
				return
			}
		}
	case constants.APWeakly:
		s.nWmp.ignore()
	}
}

// Fail forces the space into the failed state, the direct entry point a
// propagator's Propagate or a tell operation uses outside the scheduler
// loop.
func (s *Space) Fail() { s.queue.Fail() }

// Failed reports whether the space has failed.
func (s *Space) Failed() bool { return s.queue.Failed() }

// Stable reports whether the scheduler queue has no pending work and has
// not failed.
func (s *Space) Stable() bool { return s.queue.Stable() }

func (s *Space) disposeSubsumed(p propagate.Propagator, sizeBytes int) {
	actor.Unlink(p.Link())
	// sizeBytes is surfaced only for API symmetry with the subsumption
	// status constructor; the GC reclaims the propagator's own memory
	// without an explicit arena give-back.
	_ = sizeBytes
	if s.log != nil {
		s.log.Drop("space: subsumed propagator reclaimed", "")
	}
}

// Status runs the scheduler to fixpoint or failure, accumulates the number
// of propagate() calls into *pn, reports whether a weakly-monotonic
// propagator was seen, and returns SSFailed / SSSolved / SSBranch. A
// Status call made from within a running propagator is rejected with
// ErrReentrantStatus.
func (s *Space) Status(pn *uint64) (constants.SpaceStatus, bool, error) {
	if s.reentrant {
		return constants.SSFailed, false, kernerr.ErrReentrantStatus
	}
	s.reentrant = true
	defer func() { s.reentrant = false }()

	failed, n := s.queue.Run(s.disposeSubsumed)
	if pn != nil {
		*pn += n
	}
	wmpSeen := s.nWmp.reportAndDecay()
	if failed {
		if s.log != nil {
			s.log.Drop("space: status", "FAILED")
		}
		return constants.SSFailed, wmpSeen, nil
	}
	if s.chain.Status() {
		return constants.SSBranch, wmpSeen, nil
	}
	return constants.SSSolved, wmpSeen, nil
}

// Description is only legal right after a stable Status() call reported
// SSBranch. Returns ErrSpaceNotStable if the space is not currently stable
// (which also covers the failed case), or ErrSpaceNoBranching if the chain
// has nothing left.
func (s *Space) Description() (branch.Desc, error) {
	if !s.Stable() {
		return branch.Desc{}, kernerr.ErrSpaceNotStable
	}
	if s.chain.AtSentinel() {
		return branch.Desc{}, kernerr.ErrSpaceNoBranching
	}
	return s.chain.Description()
}

// Commit applies alternative alt of desc. If a trace.DB has been installed
// via SetTrace, the (space, branching, alternative) tuple is appended to it
// before the commit is applied; a trace write failure is logged but never
// blocks or fails the commit itself.
func (s *Space) Commit(desc branch.Desc, alt int) error {
	if s.trace != nil {
		if err := s.trace.RecordCommit(s.id, desc.ID(), alt); err != nil && s.log != nil {
			s.log.DropErr("space: trace write failed", err)
		}
	}
	return s.chain.Commit(desc, alt)
}

// ConstrainWith dispatches to self's Constrain method if it implements
// Constrainer, otherwise raises ErrConstrainUndefined.
func (s *Space) ConstrainWith(self Subclass, best Subclass) error {
	if c, ok := self.(Constrainer); ok {
		return c.Constrain(best)
	}
	return kernerr.ErrConstrainUndefined
}

// Clone produces an independent successor space. self is the concrete
// model value embedding s (there is no virtual self-dispatch, so the
// caller supplies it). Returns the freshly cloned Space and its matching
// Subclass value, or ErrSpaceFailed/ErrSpaceNotStable if the
// pre-conditions are not met. Cost is linear in actors + subscriptions +
// copied objects; no hash lookups on the variable path.
func (s *Space) Clone(self Subclass, share bool) (*Space, Subclass, error) {
	if s.Failed() {
		return nil, nil, kernerr.ErrSpaceFailed
	}
	if !s.Stable() {
		return nil, nil, kernerr.ErrSpaceNotStable
	}

	dst := New()
	reg := handle.NewRegistry()

	// Subclass copy ctor: walks the subclass's variable arrays, running
	// pass 1 (VarImp.BeginClone) on each and registering the results on dst
	// via dst.RegisterVarImp.
	newSelf := self.Copy(dst, reg, share)

	// Copy every actor (propagators then branchings, since that is the
	// order they occupy in the actor list), linking each twin into dst and
	// leaving a forwarding pointer on the original's Link.
	sentinel := s.actors.Sentinel()
	for n := s.actors.Head(); n != sentinel; {
		next := n.Next()
		switch a := n.Owner().(type) {
		case propagate.Propagator:
			twin := a.Copy(reg, share)
			twin.Link().SetOwner(twin)
			dst.actors.PushBack(twin.Link())
			if hs, ok := twin.(HomeSetter); ok {
				hs.SetHome(dst)
			}
			n.Fwd = twin.Link()
		case branch.Branching:
			twin := a.Copy(reg, share)
			twin.Link().SetOwner(twin)
			dst.chain.AppendClone(twin)
			if hs, ok := twin.(HomeSetter); ok {
				hs.SetHome(dst)
			}
			n.Fwd = twin.Link()
		}
		n = next
	}

	// Pass 2 for every variable registered during the subclass copy, now
	// legal because every propagator/advisor has a forwarding pointer set.
	for _, cp := range dst.pendingVars {
		cp.SetArena(dst.arena)
		cp.Update()
	}
	dst.pendingVars = nil

	// Forwarding state here lives in explicit per-entity fields that the
	// next clone overwrites before reading, so no restore pass over the
	// originals is needed. The one genuine sweep, handle forwarding state,
	// is the Registry itself, discarded here.
	reg.Sweep()

	if s.log != nil {
		s.log.Drop("space: clone", "")
	}
	return dst, newSelf, nil
}

// Destroy releases the space's arena, runs Dispose on every actor that was
// Notice(APDispose)'d (only those hold resources outside the arena), and
// hands every NoticeVar'd variable to its class's registered disposer.
func (s *Space) Destroy() {
	for _, a := range s.disposeList {
		a.Dispose()
	}
	s.disposeList = nil
	for idxD, vars := range s.disposeVars {
		if fn := disposer.Lookup(idxD); fn != nil {
			fn(vars)
		}
	}
	s.disposeVars = nil
	s.arena.Release()
}

// RAlloc, RFree and RRealloc are the raw byte-granularity allocator entry
// points.
func (s *Space) RAlloc(n int) []byte               { return s.arena.RAlloc(n) }
func (s *Space) RFree(buf []byte)                  { s.arena.RFree(buf) }
func (s *Space) RRealloc(buf []byte, n int) []byte { return s.arena.RRealloc(buf, n) }

// AllocT, FreeT and ReallocT are the typed allocator operations. Free
// functions, not methods, since Go methods cannot be generic.
func AllocT[T any](s *Space, n int) []T            { return alloc.AllocT[T](s.arena, n) }
func FreeT[T any](s *Space, buf []T)               { alloc.FreeT[T](s.arena, buf) }
func ReallocT[T any](s *Space, buf []T, n int) []T { return alloc.ReallocT[T](s.arena, buf, n) }

// FlAlloc and FlDispose are the size-class freelist pair: S is sized via
// unsafe.Sizeof its zero value, routing through the same size-class
// buckets RAlloc/RFree use.
func FlAlloc[S any](s *Space) []byte {
	var zero S
	return s.arena.Alloc(int(unsafe.Sizeof(zero)))
}
func FlDispose[S any](s *Space, buf []byte) { s.arena.Free(buf) }
