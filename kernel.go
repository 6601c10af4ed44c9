// Package kernel is the facade collaborators import when they only need
// the common entry points into the finite-domain constraint kernel
// (constructing a space, driving it to a stable status, and describing or
// committing a branching choice) without reaching into each concern's own
// package (actor, varimp, propagate, advisor, branch, handle, alloc,
// space). Variable-type libraries and search engines still import the
// concern packages directly; this file only re-exports the vocabulary a
// typical caller needs at the top level.
package kernel

import (
	"github.com/finitecp/kernel/branch"
	"github.com/finitecp/kernel/constants"
	"github.com/finitecp/kernel/kcore/klog"
	"github.com/finitecp/kernel/kernerr"
	"github.com/finitecp/kernel/space"
)

// Space is the unit of copy and the root of every model.
type Space = space.Space

// Subclass is implemented by a concrete model embedding *Space, to support
// Clone.
type Subclass = space.Subclass

// Status is the three-way result of a stability check.
type Status = constants.SpaceStatus

const (
	StatusFailed = constants.SSFailed
	StatusSolved = constants.SSSolved
	StatusBranch = constants.SSBranch
)

// Desc is a branching's choice-point description.
type Desc = branch.Desc

// NewSpace returns a fresh, empty, stable space with its own arena.
func NewSpace() *Space { return space.New() }

// NewLog returns a diagnostic sink enabled by default; pass its result to
// Space.SetLog, or nil to leave logging disabled.
func NewLog() *klog.Sink { return klog.NewSink() }

// Errors re-exported for callers that want to match on them without an
// extra import.
var (
	ErrSpaceFailed        = kernerr.ErrSpaceFailed
	ErrSpaceNotStable     = kernerr.ErrSpaceNotStable
	ErrSpaceNoBranching   = kernerr.ErrSpaceNoBranching
	ErrIllegalAlternative = kernerr.ErrIllegalAlternative
	ErrConstrainUndefined = kernerr.ErrConstrainUndefined
	ErrReentrantStatus    = kernerr.ErrReentrantStatus
)
