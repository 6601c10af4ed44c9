package space

import (
	"path/filepath"
	"testing"

	"github.com/finitecp/kernel/space/trace"
)

func TestSetTraceDoesNotDisturbDescriptionErrors(t *testing.T) {
	s := New()
	db, err := trace.Open(filepath.Join(t.TempDir(), "trace.db"))
	if err != nil {
		t.Fatalf("trace.Open: %v", err)
	}
	defer db.Close()
	s.SetTrace(db)

	if s.id == 0 {
		t.Fatal("every space should get a nonzero id")
	}

	// Description on an empty chain returns ErrSpaceNoBranching; the point
	// of this test is only that installing a trace does not change that
	// outcome or panic.
	_, err = s.Description()
	if err == nil {
		t.Fatal("Description on an empty chain should error")
	}
}

func TestTwoSpacesGetDistinctIDs(t *testing.T) {
	a, b := New(), New()
	if a.id == b.id {
		t.Fatal("distinct spaces should get distinct ids")
	}
}
