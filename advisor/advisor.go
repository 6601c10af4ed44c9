// Package advisor implements Advisor and Council: the fine-grained
// per-propagator notification mechanism that sits alongside a propagator's
// ordinary variable subscriptions.
//
// A Council is the head of one propagator's advisor list plus lazy
// compaction of disposed entries. An advisor records its owning propagator
// and its clone-time twin in two explicit fields rather than multiplexing
// one pointer for both meanings: a pointer field that is sometimes
// "owner" and sometimes "twin" needs a discriminator the GC cannot be
// given.
package advisor

import (
	"github.com/finitecp/kernel/actor"
	"github.com/finitecp/kernel/handle"
	"github.com/finitecp/kernel/propagate"
)

// Cloner is implemented by concrete advisor types so Council.Update can
// clone one without the advisor package knowing the concrete type's
// payload: the per-actor cloning pattern, repeated one level down for
// advisors.
type Cloner interface {
	propagate.AdvisorHook
	// Copy returns a fresh twin bound to owner, the destination space's
	// twin propagator. share mirrors Space.Clone's share argument.
	Copy(reg *handle.Registry, owner propagate.Propagator, share bool) Cloner
	// AdvisorBase returns the twin's embedded *Base, so Council.Update can
	// thread it into the destination council without a type switch over
	// every concrete advisor type a program might define.
	AdvisorBase() *Base
}

// Base is embedded by every concrete advisor type to get council-list
// membership, ownership and clone-forwarding bookkeeping for free.
type Base struct {
	owner propagate.Propagator // nil once disposed
	next  *Base
	fwd   *Base
	self  Cloner // set once via SetSelf by the concrete type after construction
}

// SetSelf records the concrete advisor value embedding this Base, needed
// because there is no intrusive "container_of"; mirrors actor.Link.SetOwner.
func (b *Base) SetSelf(self Cloner) { b.self = self }

// Owner implements propagate.AdvisorHook.
func (b *Base) Owner() propagate.Propagator { return b.owner }

// Disposed reports whether Dispose has already run on this advisor.
func (b *Base) Disposed() bool { return b.owner == nil }

// AdvisorBase implements Cloner's identity accessor; embedding Base gives a
// concrete advisor type this method for free, the same way actor.Base
// gives concrete actors Link()/Dispose() for free.
func (b *Base) AdvisorBase() *Base { return b }

// Forwarded implements actor.Subscriber: valid only after the owning
// Council has been cloned (Council.Update), which sets fwd on every
// non-disposed advisor it walks.
func (b *Base) Forwarded() actor.Subscriber {
	if b.fwd == nil {
		return nil
	}
	return b.fwd.self
}

// Council is the head of one propagator's advisor list. The zero value is
// an empty council.
type Council struct {
	head *Base
}

// New returns an empty council.
func New() *Council { return &Council{} }

// Add links a newly constructed advisor's Base into the council, at the
// head (order among advisors carries no meaning; only subscription-array
// order does, and that lives in varimp, not here).
func (c *Council) Add(owner propagate.Propagator, b *Base, self Cloner) {
	b.owner = owner
	b.self = self
	b.next = c.head
	c.head = b
}

// Empty lazily walks forward skipping disposed entries and compacts the
// head as it goes, so a council that has disposed every advisor it ever
// held reports empty in amortized O(1) over repeated calls.
func (c *Council) Empty() bool {
	for c.head != nil && c.head.Disposed() {
		c.head = c.head.next
	}
	return c.head == nil
}

// Dispose marks b disposed and compacts it out of the council. Concrete
// advisor types call this from their own Dispose, after also calling
// VarImp.CancelAdvisor on whichever variable they were subscribed to (this
// package does not know which variable that was).
func (c *Council) Dispose(b *Base) {
	b.owner = nil
	if c.head == b {
		c.head = b.next
		return
	}
	for n := c.head; n != nil; n = n.next {
		if n.next == b {
			n.next = b.next
			return
		}
	}
}

// Iterator walks a council's non-disposed advisors in list order. Obtained
// via Iterate.
type Iterator struct{ cur *Base }

// Iterate returns an iterator positioned before the first advisor.
func (c *Council) Iterate() *Iterator { return &Iterator{cur: c.head} }

// Next advances past any disposed entries and reports whether an advisor
// remains; call Advisor to fetch it.
func (it *Iterator) Next() bool {
	for it.cur != nil && it.cur.Disposed() {
		it.cur = it.cur.next
	}
	return it.cur != nil
}

// Advisor returns the current advisor's concrete value (valid only right
// after Next returned true) and advances the cursor past it.
func (it *Iterator) Advisor() Cloner {
	b := it.cur
	it.cur = it.cur.next
	return b.self
}

// SubsumedFix disposes b within c and reports that the owning propagator
// need not run.
func SubsumedFix(c *Council, b *Base) propagate.AdviseStatus {
	c.Dispose(b)
	return propagate.AdviseSubsumedFix()
}

// SubsumedNoFix disposes b within c and reports that the owning propagator
// must still run.
func SubsumedNoFix(c *Council, b *Base) propagate.AdviseStatus {
	c.Dispose(b)
	return propagate.AdviseSubsumedNoFix()
}

// Update clones the council during a space clone: for each non-disposed
// advisor, clone it via Cloner.Copy against the twin propagator, bind the
// twin to that propagator, set the original's forwarding pointer to the
// new advisor, and link the twin into dst (a fresh, empty Council owned by
// the twin propagator). Returns the number of advisors copied.
func (c *Council) Update(dst *Council, reg *handle.Registry, newOwner propagate.Propagator, share bool) int {
	n := 0
	for b := c.head; b != nil; b = b.next {
		if b.Disposed() {
			continue
		}
		twin := b.self.Copy(reg, newOwner, share)
		twinBase := twin.AdvisorBase()
		twinBase.owner = newOwner
		b.fwd = twinBase
		twinBase.next = dst.head
		dst.head = twinBase
		n++
	}
	return n
}
