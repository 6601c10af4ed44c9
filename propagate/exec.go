// Package propagate implements the propagator base, the cost-indexed
// scheduler queue, and the partial-fixpoint execution loop.
//
// The queue is a fixed array of buckets, each an intrusive doubly-linked
// list with its own sentinel, FIFO within a bucket, O(1) unlink, and a
// single cursor tracking the lowest occupied bucket so dequeue never scans
// empty levels.
package propagate

import "github.com/finitecp/kernel/constants"

// ExecKind is the discriminator of an ExecStatus.
type ExecKind int

const (
	ExecFailed ExecKind = iota
	ExecFix
	ExecNoFix
	ExecSubsumed
	ExecFixPartial
	ExecNoFixPartial
)

// ExecStatus is the value a Propagator.Propagate call returns. Plain
// failed/fix/nofix carry no payload; subsumption carries the number of
// bytes to reclaim from the propagator's own footprint; the partial
// variants carry the replaced/combined med the propagator wants kept in
// the queue without being considered "not yet at fixpoint" in the strong
// sense.
type ExecStatus struct {
	Kind ExecKind
	Med  constants.ModEventDelta
	Size int
}

func ESFailed() ExecStatus { return ExecStatus{Kind: ExecFailed} }
func ESFix() ExecStatus    { return ExecStatus{Kind: ExecFix} }
func ESNoFix() ExecStatus  { return ExecStatus{Kind: ExecNoFix} }

// ESSubsumed marks the propagator as subsumed: it is disposed and size
// bytes are reclaimed.
func ESSubsumed(size int) ExecStatus { return ExecStatus{Kind: ExecSubsumed, Size: size} }

// ESFixPartial keeps the propagator in its queue with med replacing (not
// combined into) its current event delta.
func ESFixPartial(med constants.ModEventDelta) ExecStatus {
	return ExecStatus{Kind: ExecFixPartial, Med: med}
}

// ESNoFixPartial keeps the propagator in its queue with med combined into
// its current event delta.
func ESNoFixPartial(med constants.ModEventDelta) ExecStatus {
	return ExecStatus{Kind: ExecNoFixPartial, Med: med}
}

// AdviseStatus is the subset of ExecKind an Advisor's hook may return:
// fix, failed, nofix, and the two subsumed variants that additionally
// dispose the advisor.
type AdviseStatus struct {
	Kind           ExecKind
	DisposeAdvisor bool
}

func AdviseFix() AdviseStatus    { return AdviseStatus{Kind: ExecFix} }
func AdviseFailed() AdviseStatus { return AdviseStatus{Kind: ExecFailed} }
func AdviseNoFix() AdviseStatus  { return AdviseStatus{Kind: ExecNoFix} }
func AdviseSubsumedFix() AdviseStatus {
	return AdviseStatus{Kind: ExecFix, DisposeAdvisor: true}
}
func AdviseSubsumedNoFix() AdviseStatus {
	return AdviseStatus{Kind: ExecNoFix, DisposeAdvisor: true}
}
