package propagate

import (
	"testing"

	"github.com/finitecp/kernel/constants"
)

// BenchmarkEnqueueRun measures a full schedule-and-drain round over one
// propagator per cost level, the scheduler's steady-state work unit.
func BenchmarkEnqueueRun(b *testing.B) {
	q := NewQueue()
	props := make([]*scriptedProp, constants.NumCostLevels)
	for i := range props {
		props[i] = newScripted(constants.PropCost(i), ESFix())
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		for _, p := range props {
			p.i = 0
			q.Enqueue(p, p.cost)
		}
		q.Run(nil)
	}
}

// BenchmarkEnqueueReEnqueue measures the remove-and-reinsert path taken when
// an already-queued propagator's cost level is recomputed.
func BenchmarkEnqueueReEnqueue(b *testing.B) {
	q := NewQueue()
	p := newScripted(constants.PcCrazyLo, ESFix())

	q.Enqueue(p, constants.PcCrazyLo)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		q.Enqueue(p, constants.PropCost(i%constants.NumCostLevels))
	}
}
