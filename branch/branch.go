// Package branch implements Branching and its choice-point descriptions:
// id assignment at construction time, the two independently-advancing
// status/commit cursors over the branching sublist, and description/commit
// as the two halves of the replay protocol.
package branch

import (
	"github.com/finitecp/kernel/actor"
	"github.com/finitecp/kernel/handle"
	"github.com/finitecp/kernel/kernerr"
)

// Desc is the immutable record a Branching's Description() returns: enough
// to find the branching again (ID) and validate an alternative against it
// (AltCount). Concrete branchings embed Desc in a richer payload type
// carrying the actual choice data. A Desc outlives the space that produced
// it.
type Desc struct {
	id       uint64
	altCount int
}

// NewDesc constructs a description for branching b with altCount
// alternatives, stamping b's id.
func NewDesc(b Branching, altCount int) Desc {
	return Desc{id: b.ID(), altCount: altCount}
}

// ID returns the id of the branching that produced this description.
func (d Desc) ID() uint64 { return d.id }

// AltCount returns the number of legal alternatives.
func (d Desc) AltCount() int { return d.altCount }

// Branching is the interface concrete branchings implement. It is an
// actor.Actor, appended to the space's actor list after all propagators.
type Branching interface {
	actor.Actor
	// ID returns this branching's unique creation-order id.
	ID() uint64
	// HasAlternatives reports whether this branching still has a
	// description left to generate.
	HasAlternatives() bool
	// Description returns a fresh heap-owned description for the current
	// choice point. Called at most once per stable status point.
	Description() Desc
	// Commit applies alternative alt of desc to this space. Returns
	// kernerr.ErrIllegalAlternative if alt is out of range.
	Commit(desc Desc, alt int) error
	// Copy returns this branching's twin for the destination space.
	Copy(reg *handle.Registry, share bool) Branching
}

// Base is the minimal embeddable struct concrete branchings compose
// alongside actor.Base to get ID() for free; id is stamped by Chain.Append.
type Base struct {
	id uint64
}

// ID implements Branching.
func (b *Base) ID() uint64 { return b.id }

// SetID is used only by a concrete branching's own Copy implementation, to
// stamp its twin with the SAME id as the original, so Commit's id-matching
// still finds the twin after a clone.
func (b *Base) SetID(id uint64) { b.id = id }

// Chain tracks a space's branching sequence: the shared actor.List they
// live in (tail-appended, after every propagator), plus two independent
// cursors. status advances as branchings exhaust their alternatives;
// commit can lag behind it because earlier branchings may still have
// outstanding descriptions to replay.
type Chain struct {
	actors   *actor.List
	branchID uint64
	status   Branching // nil once past the sentinel, meaning no branching left
	commit   Branching
	statusAt *actor.Link // tracks status's position for Sentinel comparison
	commitAt *actor.Link
}

// NewChain returns an empty chain anchored on actors, the space's shared
// actor list.
func NewChain(actors *actor.List) *Chain {
	return &Chain{actors: actors}
}

// Append links b onto the tail of the actor list and assigns the next
// sequential id. If the branching chain was previously empty, both the
// status and commit cursors are set to the new branching.
func (c *Chain) Append(b Branching, base *Base) {
	base.id = c.branchID
	c.branchID++
	c.actors.PushBack(b.Link())
	b.Link().SetOwner(b)
	if c.status == nil {
		c.status = b
		c.statusAt = b.Link()
	}
	if c.commit == nil {
		c.commit = b
		c.commitAt = b.Link()
	}
}

// Empty reports whether no branching has ever been appended, or the status
// cursor has since advanced past every appended branching.
func (c *Chain) Empty() bool { return c.status == nil }

// Status consults the current status branching; if it reports no
// alternatives, advances the status cursor to the next branching in
// actor-list order (leaving the commit cursor where it is). Returns false
// ("solved") once the chain runs out.
func (c *Chain) Status() bool {
	for c.status != nil {
		if c.status.HasAlternatives() {
			return true
		}
		c.advanceStatus()
	}
	return false
}

func (c *Chain) advanceStatus() {
	next := c.statusAt.Next()
	if next == c.actors.Sentinel() {
		c.status, c.statusAt = nil, nil
		return
	}
	c.status = next.Owner().(Branching)
	c.statusAt = next
}

// Description returns a fresh description from the current status
// branching. Raises ErrSpaceNoBranching if the chain is empty; callers
// (space.Space) are responsible for having already called Status and
// checked its result is true.
func (c *Chain) Description() (Desc, error) {
	if c.status == nil {
		return Desc{}, kernerr.ErrSpaceNoBranching
	}
	return c.status.Description(), nil
}

// Commit locates the branching matching desc.ID starting at the commit
// cursor, advancing (and disposing) earlier branchings as needed, then
// invokes the branching's commit with alt. Raises ErrIllegalAlternative if
// alt is out of range for desc, ErrSpaceNoBranching if the chain runs out
// before the matching branching is found.
func (c *Chain) Commit(desc Desc, alt int) error {
	if alt < 0 || alt >= desc.AltCount() {
		return kernerr.ErrIllegalAlternative
	}
	for c.commit != nil && c.commit.ID() != desc.ID() {
		c.advanceCommit()
	}
	if c.commit == nil {
		return kernerr.ErrSpaceNoBranching
	}
	return c.commit.Commit(desc, alt)
}

func (c *Chain) advanceCommit() {
	next := c.commitAt.Next()
	c.commit.Dispose()
	actor.Unlink(c.commitAt)
	if next == c.actors.Sentinel() {
		c.commit, c.commitAt = nil, nil
		return
	}
	c.commit = next.Owner().(Branching)
	c.commitAt = next
}

// AppendClone links a branching twin produced during Space.Clone onto the
// destination chain, preserving its inherited id so Commit's id-matching
// keeps working across a clone. Unlike Append, it never allocates a fresh
// id, but still advances branchID past it so any later branchings genuinely
// created on the clone do not collide.
func (c *Chain) AppendClone(b Branching) {
	c.actors.PushBack(b.Link())
	if b.ID() >= c.branchID {
		c.branchID = b.ID() + 1
	}
	if c.status == nil {
		c.status = b
		c.statusAt = b.Link()
	}
	if c.commit == nil {
		c.commit = b
		c.commitAt = b.Link()
	}
}

// AtSentinel reports whether the status cursor has reached the actor-list
// sentinel, i.e. no branching remains and a stable space is solved.
func (c *Chain) AtSentinel() bool { return c.status == nil }
