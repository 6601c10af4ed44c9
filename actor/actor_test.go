package actor

import "testing"

func TestListPushBackOrder(t *testing.T) {
	l := NewList()
	if !l.Empty() {
		t.Fatal("fresh list should be empty")
	}

	var a, b, c Base
	a.Link().SetOwner(&a)
	b.Link().SetOwner(&b)
	c.Link().SetOwner(&c)

	l.PushBack(a.Link())
	l.PushBack(b.Link())
	l.PushBack(c.Link())

	if l.Empty() {
		t.Fatal("list with entries reported empty")
	}

	got := []Actor{}
	for n := l.Head(); n != l.Sentinel(); n = n.Next() {
		got = append(got, n.Owner())
	}
	want := []Actor{&a, &b, &c}
	if len(got) != len(want) {
		t.Fatalf("got %d entries, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestListPushFront(t *testing.T) {
	l := NewList()
	var a, b Base
	a.Link().SetOwner(&a)
	b.Link().SetOwner(&b)

	l.PushBack(a.Link())
	l.PushFront(b.Link())

	if l.Head().Owner() != Actor(&b) {
		t.Fatal("PushFront should place b at the head")
	}
}

func TestUnlink(t *testing.T) {
	l := NewList()
	var a, b, c Base
	a.Link().SetOwner(&a)
	b.Link().SetOwner(&b)
	c.Link().SetOwner(&c)
	l.PushBack(a.Link())
	l.PushBack(b.Link())
	l.PushBack(c.Link())

	Unlink(b.Link())

	var got []Actor
	for n := l.Head(); n != l.Sentinel(); n = n.Next() {
		got = append(got, n.Owner())
	}
	if len(got) != 2 || got[0] != Actor(&a) || got[1] != Actor(&c) {
		t.Fatalf("unexpected list contents after unlink: %v", got)
	}
}

func TestBaseForwarded(t *testing.T) {
	var a, twin Base
	a.Link().SetOwner(&a)
	twin.Link().SetOwner(&twin)

	if a.Forwarded() != nil {
		t.Fatal("Forwarded should be nil before any forwarding pointer is set")
	}

	a.Link().Fwd = twin.Link()
	fwd := a.Forwarded()
	if fwd != Subscriber(&twin) {
		t.Fatalf("Forwarded should resolve to twin, got %v", fwd)
	}
}

func TestDisposeDefaultIsNoop(t *testing.T) {
	var a Base
	a.Dispose() // must not panic
}
