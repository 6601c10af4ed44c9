// Package handle implements copied and shared handles, the envelopes over
// objects that straddle a space boundary during cloning. A copied handle's
// payload is duplicated exactly once per clone no matter how many handles
// reference it; a shared handle adds a reference count and may alias its
// payload across clones instead.
package handle

// Object is the interface copied/shared payloads implement. Copy must
// return a fresh, independent value holding the same logical payload;
// Clone calls it at most once per object per clone.
type Object interface {
	Copy() Object
}

// node is the per-object bookkeeping attached during a clone: the
// forwarding pointer to the twin, and the next link chaining this object
// onto the list of touched originals for the post-clone sweep.
type node struct {
	fwd  Object
	next *node
}

// Registry is the space-local bookkeeping for in-flight forwarding during
// one clone pass: a map from original Object identity to its node, plus the
// chain of touched originals so the sweep at the end of Clone can clear
// every forwarding entry in one pass without re-walking the whole object
// graph. The registry is created fresh per clone and discarded once the
// sweep runs; it never persists on Space between clones.
type Registry struct {
	nodes map[Object]*node
	head  *node
	refs  map[Object]*refcount
}

// NewRegistry returns an empty forwarding registry, created once per Clone
// call.
func NewRegistry() *Registry {
	return &Registry{nodes: make(map[Object]*node)}
}

// Forward returns the copy of orig, creating it (and enlisting orig on the
// sweep chain) on first encounter; subsequent calls for the same orig
// within the same Registry return the same copy, so a clone produces
// exactly one fresh copy per object even if multiple handles reference it.
func (r *Registry) Forward(orig Object) Object {
	if n, ok := r.nodes[orig]; ok {
		return n.fwd
	}
	n := &node{fwd: orig.Copy(), next: r.head}
	r.nodes[orig] = n
	r.head = n
	return n.fwd
}

// retain returns the reference-count box for a forwarded copy, creating it
// on first use, and counts one more handle holding that copy. Handles that
// forward the same original within one clone receive the same copy and
// therefore share its box.
func (r *Registry) retain(copy Object) *refcount {
	if r.refs == nil {
		r.refs = make(map[Object]*refcount)
	}
	rc, ok := r.refs[copy]
	if !ok {
		rc = &refcount{}
		r.refs[copy] = rc
	}
	rc.n++
	return rc
}

// Sweep clears all forwarding state after a clone. Since that state lives
// in the Registry rather than on the objects themselves, dropping the maps
// is the entire sweep; the call site exists so the clone algorithm has an
// explicit end-of-forwarding step. The reference-count boxes handed out by
// retain live on through the handles that hold them.
func (r *Registry) Sweep() {
	r.nodes = nil
	r.head = nil
	r.refs = nil
}

// CopiedHandle is the base every copied handle embeds. It holds the
// payload object and knows how to update itself during a clone.
type CopiedHandle struct {
	obj Object
}

// NewCopied wraps obj in a handle with no sharing semantics.
func NewCopied(obj Object) CopiedHandle { return CopiedHandle{obj: obj} }

// Object returns the handle's current payload.
func (h *CopiedHandle) Object() Object { return h.obj }

// SetObject replaces the handle's payload (used by subclasses implementing
// richer update logic).
func (h *CopiedHandle) SetObject(o Object) { h.obj = o }

// Update resolves h's payload against reg, producing (or reusing) the
// single fresh copy for this clone and storing it into dst.
func (h *CopiedHandle) Update(reg *Registry, dst *CopiedHandle) {
	if h.obj == nil {
		dst.obj = nil
		return
	}
	dst.obj = reg.Forward(h.obj)
}

// SharedObject is a payload that additionally supports reference counting
// across spaces.
type SharedObject interface {
	Object
	// held by exactly one *SharedHandle.refcount box; SharedObject itself
	// carries no counter so the same payload pointer can be wrapped by
	// handles in different spaces without them fighting over one field.
}

type refcount struct{ n int }

// SharedHandle extends CopiedHandle with a reference count shared by every
// handle that aliases the same object. A plain counter suffices because
// all handle operations happen under the owning space; callers that
// release clones from different threads must serialize externally.
type SharedHandle struct {
	obj Object
	rc  *refcount
}

// NewShared wraps obj in a fresh shared handle with reference count 1.
func NewShared(obj Object) *SharedHandle {
	return &SharedHandle{obj: obj, rc: &refcount{n: 1}}
}

// Object returns the handle's current payload.
func (h *SharedHandle) Object() Object { return h.obj }

// Count returns the current reference count (test/debug use).
func (h *SharedHandle) Count() int {
	if h.rc == nil {
		return 0
	}
	return h.rc.n
}

// Update implements the shared-handle update rule: share=true just aliases
// the payload, incrementing its count; share=false falls back to the
// copied-handle path via reg, leaving the source's count untouched and
// starting the destination on the fresh copy's own count. The copy shares
// nothing with its original, so it must not share the original's lifetime
// either; only handles aliasing the same copy within one clone share a
// count.
func (h *SharedHandle) Update(reg *Registry, share bool, dst *SharedHandle) {
	if h.obj == nil {
		return
	}
	if share {
		dst.obj = h.obj
		dst.rc = h.rc
		h.rc.n++
		return
	}
	dst.obj = reg.Forward(h.obj)
	dst.rc = reg.retain(dst.obj)
}

// Release decrements the reference count; when it reaches zero the payload
// is dropped and becomes collectible.
func (h *SharedHandle) Release() {
	if h.rc == nil {
		return
	}
	h.rc.n--
	if h.rc.n == 0 {
		h.obj = nil
	}
}
