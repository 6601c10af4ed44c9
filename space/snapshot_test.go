package space

import (
	"testing"

	"github.com/finitecp/kernel/actor"
	"github.com/finitecp/kernel/branch"
	"github.com/finitecp/kernel/handle"
)

// stubBranching is the minimal branch.Branching implementation needed to
// mint a branch.Desc outside the branch package, for EncodeDesc/
// DecodeDescSnapshot's round-trip test below.
type stubBranching struct {
	actor.Base
	bb branch.Base
}

func (b *stubBranching) ID() uint64               { return b.bb.ID() }
func (b *stubBranching) HasAlternatives() bool     { return true }
func (b *stubBranching) Description() branch.Desc  { return branch.NewDesc(b, 3) }
func (b *stubBranching) Commit(branch.Desc, int) error { return nil }
func (b *stubBranching) Copy(*handle.Registry, bool) branch.Branching { return b }

func TestEncodeDecodeDescRoundTrips(t *testing.T) {
	b := &stubBranching{}
	b.bb.SetID(17)
	d := branch.NewDesc(b, 3)

	data, err := EncodeDesc(d)
	if err != nil {
		t.Fatalf("EncodeDesc: %v", err)
	}
	got, err := DecodeDescSnapshot(data)
	if err != nil {
		t.Fatalf("DecodeDescSnapshot: %v", err)
	}
	if got.ID != 17 || got.AltCount != 3 {
		t.Fatalf("got %+v, want {ID:17 AltCount:3}", got)
	}
}
