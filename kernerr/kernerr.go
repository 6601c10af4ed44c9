// Package kernerr holds the kernel's programmer-contract-violation errors.
// Constraint failure itself is never surfaced as a Go error (it is the
// failed-status path); only misuse of the API raises one of these.
package kernerr

import "errors"

var (
	// ErrSpaceFailed is raised by operations that require a non-failed
	// space (e.g. Clone) when called on one that has failed.
	ErrSpaceFailed = errors.New("kernel: space has failed")

	// ErrSpaceNotStable is raised by operations that require a stable
	// space (Clone, Description) when called before the scheduler has run
	// to fixpoint.
	ErrSpaceNotStable = errors.New("kernel: space is not stable")

	// ErrSpaceNoBranching is raised by Description/Commit when the
	// branching chain is empty.
	ErrSpaceNoBranching = errors.New("kernel: no branching left")

	// ErrIllegalAlternative is raised by Commit when the chosen
	// alternative is outside [0, desc.AltCount).
	ErrIllegalAlternative = errors.New("kernel: illegal alternative")

	// ErrConstrainUndefined is raised when a space subclass is asked to
	// constrain itself relative to a reference space but never
	// implemented that operation.
	ErrConstrainUndefined = errors.New("kernel: constrain not implemented")

	// ErrReentrantStatus guards against a space re-entering its own
	// status loop from within a running propagator.
	ErrReentrantStatus = errors.New("kernel: space.Status called re-entrantly")
)
