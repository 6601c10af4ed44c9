package space

import (
	"github.com/finitecp/kernel/branch"
	"github.com/sugawarayuuta/sonnet"
)

// DescSnapshot is a reflection-friendly mirror of branch.Desc, used by this
// package's tests (and any external golden-file test) to serialize a
// description for comparison without depending on branch.Desc's unexported
// fields.
type DescSnapshot struct {
	ID       uint64 `json:"id"`
	AltCount int    `json:"alt_count"`
}

// SnapshotDesc converts d into its serializable form.
func SnapshotDesc(d branch.Desc) DescSnapshot {
	return DescSnapshot{ID: d.ID(), AltCount: d.AltCount()}
}

// EncodeDesc marshals d's snapshot to JSON via sonnet's reflection-based
// encoder, for golden-file comparisons in tests.
func EncodeDesc(d branch.Desc) ([]byte, error) {
	return sonnet.Marshal(SnapshotDesc(d))
}

// DecodeDescSnapshot unmarshals a previously encoded snapshot.
func DecodeDescSnapshot(data []byte) (DescSnapshot, error) {
	var snap DescSnapshot
	err := sonnet.Unmarshal(data, &snap)
	return snap, err
}
