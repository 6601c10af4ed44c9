package varimp

import (
	"testing"

	"github.com/finitecp/kernel/actor"
	"github.com/finitecp/kernel/alloc"
	"github.com/finitecp/kernel/constants"
	"github.com/finitecp/kernel/handle"
	"github.com/finitecp/kernel/propagate"
)

// benchProp is stubProp without the per-call recording, so the benchmarks
// below measure the kernel's work rather than test-bookkeeping appends.
type benchProp struct {
	actor.Base
	qn  propagate.QNode
	med constants.ModEventDelta
}

func (p *benchProp) QNode() *propagate.QNode        { return &p.qn }
func (p *benchProp) Delta() *constants.ModEventDelta { return &p.med }
func (p *benchProp) Cost(constants.ModEventDelta) constants.PropCost {
	return constants.PcUnaryLo
}
func (p *benchProp) Propagate(constants.ModEventDelta) propagate.ExecStatus {
	return propagate.ESFix()
}
func (p *benchProp) Copy(*handle.Registry, bool) propagate.Propagator { return nil }

// BenchmarkSubscribeCancelChurn measures the segment-shifting cost of a
// full subscribe/cancel cycle over a fresh variable, the dominant churn
// pattern during propagator posting and subsumption.
func BenchmarkSubscribeCancelChurn(b *testing.B) {
	a := alloc.New()
	q := propagate.NewQueue()
	vic := testVIC()

	props := make([]*benchProp, 16)
	for i := range props {
		props[i] = &benchProp{}
		props[i].Link().SetOwner(props[i])
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		v := New(vic, a)
		for _, p := range props {
			v.Subscribe(p, 1, false, constants.MeGenNone, false, q)
		}
		for j := len(props) - 1; j >= 0; j-- {
			v.Cancel(props[j], 1, false)
		}
	}
}

// BenchmarkSchedule measures the per-notification cost of driving a
// modification event through a populated subscription array into the queue.
func BenchmarkSchedule(b *testing.B) {
	a := alloc.New()
	q := propagate.NewQueue()
	v := New(testVIC(), a)

	props := make([]*benchProp, 8)
	for i := range props {
		props[i] = &benchProp{}
		props[i].Link().SetOwner(props[i])
		v.Subscribe(props[i], 1, false, constants.MeGenNone, false, q)
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		v.Schedule(1, 1, constants.MeGenAssigned, q)
		q.Run(nil)
	}
}
