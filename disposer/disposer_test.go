package disposer

import "testing"

func TestRegisterAndLookup(t *testing.T) {
	var disposed []any
	Register(42, func(vars []any) { disposed = append(disposed, vars...) })

	fn := Lookup(42)
	if fn == nil {
		t.Fatal("Lookup should return the registered disposer")
	}
	fn([]any{"a", "b"})
	if len(disposed) != 2 {
		t.Fatalf("got %d disposed entries, want 2", len(disposed))
	}
}

func TestLookupUnregisteredReturnsNil(t *testing.T) {
	if fn := Lookup(999); fn != nil {
		t.Fatal("Lookup of an unregistered class should return nil")
	}
}

func TestRegisterOverwritesPriorEntry(t *testing.T) {
	Register(7, func(vars []any) {})
	var called bool
	Register(7, func(vars []any) { called = true })
	Lookup(7)(nil)
	if !called {
		t.Fatal("the second Register for the same idxD should take effect")
	}
}
