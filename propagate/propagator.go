package propagate

import (
	"github.com/finitecp/kernel/actor"
	"github.com/finitecp/kernel/constants"
	"github.com/finitecp/kernel/handle"
)

// Propagator is the interface concrete constraint propagators implement.
// It is an actor.Actor (so it sits in the space's actor list) and an
// actor.Subscriber (so it can sit in a VarImp's subscription array); the
// Actor interface already embeds Subscriber, so nothing extra is needed
// here for that.
type Propagator interface {
	actor.Actor
	// QNode returns the propagator's embedded scheduler-queue link.
	QNode() *QNode
	// Delta returns a pointer to the propagator's packed modification
	// event delta, mutated in place by VarImp.Schedule.
	Delta() *constants.ModEventDelta
	// Cost classifies the next propagate() call given the current delta.
	Cost(med constants.ModEventDelta) constants.PropCost
	// Propagate executes one round to (partial) fixpoint or failure.
	Propagate(med constants.ModEventDelta) ExecStatus
	// Copy returns this propagator's twin for the destination space. reg
	// resolves any copied/shared-handle payload the propagator holds
	// against this clone's forwarding registry; implementations that hold
	// none may ignore it.
	Copy(reg *handle.Registry, share bool) Propagator
}

// QNode is the embeddable scheduler-queue link. It mirrors actor.Link but
// lives in its own intrusive list per cost level rather than the single
// actor list: a propagator is simultaneously a member of the space's actor
// list (via actor.Link) and of at most one cost queue (via QNode), two
// independent intrusive lists through the same object.
type QNode struct {
	prev, next *QNode
	queued     bool
	owner      Propagator
}

// SetOwner records the owning Propagator so the scheduler can recover it
// from a bare *QNode during dequeue. Queue.Enqueue calls it on every
// insertion, so concrete propagators need not call it themselves.
func (q *QNode) SetOwner(p Propagator) { q.owner = p }

// Base is the minimal embeddable struct a concrete propagator composes,
// alongside actor.Base, to get QNode() for free.
type Base struct {
	q QNode
}

func (b *Base) QNode() *QNode { return &b.q }
