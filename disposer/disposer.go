// Package disposer implements the process-wide variable-disposer registry:
// a write-once table, indexed by each variable class's IdxD slot,
// consulted only at space-destruction time for classes whose variables
// hold resources beyond their arena allocation.
package disposer

import "sync"

// Func disposes every live variable of one class at space-destruction
// time. Concrete variable-type libraries register one per class; the
// kernel itself never constructs a Func, only invokes registered ones.
type Func func(vars []any)

var (
	mu   sync.Mutex
	regs = map[int]Func{}
)

// Register installs fn as the disposer for variable class idxD. Intended
// to run exactly once per class, from a package-level var initializer in
// the variable-type library. Re-registering the same idxD overwrites the
// prior entry, tolerated rather than rejected, since package-init order
// makes a hard once-only assertion more trouble than it is worth for what
// is, in every real caller, a one-shot call.
func Register(idxD int, fn Func) {
	mu.Lock()
	defer mu.Unlock()
	regs[idxD] = fn
}

// Lookup returns the disposer registered for idxD, or nil if none was.
// Space destruction calls this for every class slot it has live variables
// in; a nil result means that class needs no explicit disposal (its
// variables hold nothing beyond arena memory).
func Lookup(idxD int) Func {
	mu.Lock()
	defer mu.Unlock()
	return regs[idxD]
}
