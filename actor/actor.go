// Package actor implements the intrusive, sentinel-anchored doubly-linked
// list used for actor membership and, by propagate.Queue, for per-cost
// scheduling queues. The links are embedded directly in the element, so
// insert and unlink are O(1) with no lookup.
package actor

import "github.com/finitecp/kernel/constants"

// Link is the embeddable list node. Propagator and branch.Branching embed
// one.
type Link struct {
	prev, next *Link
	// Fwd is the forwarding pointer set the first time this actor is
	// encountered during a clone: once non-nil, the actor has already been
	// copied and Fwd is the twin. An explicit field rather than a low-bit
	// tag on prev: the GC requires pointer fields it scans to always hold
	// valid pointers, ruling out tagging a live *Link.
	Fwd *Link
	// owner links back to the Actor embedding this node; there is no
	// intrusive "container_of" to recover it otherwise.
	owner Actor
}

// Subscriber is anything that can occupy a slot in a variable
// implementation's subscription array: a propagator within one of its
// propagation-condition segments, or an advisor within the trailing
// segment. The only thing VarImp itself needs from an entry, besides
// moving it around, is its clone-time twin.
type Subscriber interface {
	// Forwarded returns this subscriber's twin once cloning has reached it
	// (the owning actor copied, for a propagator; the owning council
	// cloned, for an advisor), or nil before that point.
	Forwarded() Subscriber
}

// Actor is the common interface for propagators and branchings: anything
// that can live in an actor list and has a notion of disposal and the
// APDispose/APWeakly properties space.Notice/Ignore track. Every Actor is
// also a Subscriber, since propagators sit directly in VarImp subscription
// arrays.
type Actor interface {
	Subscriber
	// Link returns the actor's embedded list node.
	Link() *Link
	// Dispose releases actor-owned resources outside the arena. At space
	// destruction it is called only for actors the space was told to
	// Notice(a, constants.APDispose); branch.Chain also calls it on every
	// branching its commit cursor advances past.
	Dispose()
}

// List is a sentinel-anchored doubly-linked list: List.sentinel.next is the
// head, List.sentinel.prev is the tail. An empty list's sentinel links to
// itself.
type List struct {
	sentinel Link
}

// NewList returns an empty, ready-to-use list.
func NewList() *List {
	l := &List{}
	l.sentinel.next = &l.sentinel
	l.sentinel.prev = &l.sentinel
	return l
}

// Empty reports whether the list has no actors.
func (l *List) Empty() bool { return l.sentinel.next == &l.sentinel }

// Head returns the first node, or the sentinel itself if the list is empty
// (callers compare against Sentinel() to detect that).
func (l *List) Head() *Link { return l.sentinel.next }

// Sentinel exposes the anchor node so callers can test for end-of-list and
// so branch.Chain can detect an exhausted branching cursor by comparing a
// saved *Link against it.
func (l *List) Sentinel() *Link { return &l.sentinel }

// PushBack appends n at the tail (used for branchings, appended in
// creation order, and propagators on construction).
func (l *List) PushBack(n *Link) {
	tail := l.sentinel.prev
	n.prev = tail
	n.next = &l.sentinel
	tail.next = n
	l.sentinel.prev = n
}

// PushFront inserts n at the head. The actor list orders propagators ahead
// of branchings; both orders are exposed since different call sites need
// either.
func (l *List) PushFront(n *Link) {
	head := l.sentinel.next
	n.prev = &l.sentinel
	n.next = head
	head.prev = n
	l.sentinel.next = n
}

// Unlink removes n from whatever list it is currently linked into. O(1),
// no lookup.
func Unlink(n *Link) {
	if n.prev != nil {
		n.prev.next = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	}
	n.prev, n.next = nil, nil
}

// SetOwner records the Actor that embeds this Link, so a Link found while
// walking a list can be turned back into its Actor.
func (n *Link) SetOwner(a Actor) { n.owner = a }

// Owner returns the Actor embedding this Link.
func (n *Link) Owner() Actor { return n.owner }

// Next returns the next node in whatever list n is currently linked into
// (the list's sentinel if n is the tail), so callers like branch.Chain can
// walk the actor list in order without reaching into package-private state.
func (n *Link) Next() *Link { return n.next }

// Base is the minimal embeddable struct concrete propagators and
// branchings compose to get Actor's Link()/Dispose() for free when they
// have nothing extra to release.
type Base struct {
	link Link
}

// Link implements Actor.
func (b *Base) Link() *Link { return &b.link }

// Dispose is a no-op default; actors with external resources override it.
func (b *Base) Dispose() {}

// Forwarded implements Subscriber by following the embedded link's
// forwarding pointer back to its owning Actor. Concrete actor types must
// call Link().SetOwner(self) once after construction (self being the full
// concrete value, not just the embedded Base) for this to resolve.
func (b *Base) Forwarded() Subscriber {
	if b.link.Fwd == nil {
		return nil
	}
	return b.link.Fwd.Owner()
}

// Property is re-exported for callers that only import actor, not
// constants, when wiring Notice/Ignore.
type Property = constants.ActorProperty
