package propagate

import (
	"github.com/finitecp/kernel/actor"
	"github.com/finitecp/kernel/constants"
)

// AdvisorHook is the interface a VarImp's advisor segment entries must
// satisfy so VarImp.Advise can invoke them without importing the advisor
// package; the dependency runs the other way (advisor depends on
// propagate, not vice versa) to keep varimp free to import propagate
// without creating a cycle back through advisor.
type AdvisorHook interface {
	actor.Subscriber
	// Owner returns the propagator this advisor was created for, so a
	// nofix return can be turned into scheduling that propagator.
	Owner() Propagator
	// Advise invokes the advisor's hook with the delta describing what
	// changed and returns the caller's interpretation of the outcome.
	Advise(me constants.ModEvent, delta constants.ModEventDelta) AdviseStatus
}
