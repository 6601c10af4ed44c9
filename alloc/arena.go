// Package alloc implements the per-space memory manager: a size-class
// freelist allocator with a dedicated subscription slab, reused across
// Alloc/Free/Realloc calls and released in bulk when a space is destroyed.
//
// The bookkeeping shape is size-class slabs plus freelist reuse over
// ordinary GC-managed slices. Handing out raw, GC-invisible bytes through
// pointer arithmetic is not an option in Go, so slab membership is tracked
// by backing-array identity instead (InSlab); the bookkeeping survives
// the translation even though the raw-pointer mechanics do not.
package alloc

import (
	"unsafe"

	"github.com/finitecp/kernel/constants"
)

// class is one size-class freelist: a chain of released fixed-size chunks
// ready for reuse.
type class struct {
	chunkSize int
	free      [][]byte
}

// Arena is a space's private allocator. Every actor, VarImp, advisor and
// subscription array owned by one space is allocated from that space's
// Arena; destroying the space drops the Arena, releasing everything at
// once bar APDispose actors (handled by the space, not here).
type Arena struct {
	classes []class
	// subSlab is the dedicated region subscription arrays are bump-allocated
	// from; VarImp's growth policy consults InSlab to decide between the
	// cheap +4 growth and the x1.5 growth.
	subSlab    []region
	subSlabCap int
}

// New returns a freshly initialized Arena with one freelist per configured
// size class.
func New() *Arena {
	a := &Arena{classes: make([]class, len(constants.SizeClasses))}
	for i, sz := range constants.SizeClasses {
		a.classes[i] = class{chunkSize: sz}
	}
	return a
}

func classFor(n int) int {
	for i, sz := range constants.SizeClasses {
		if n <= sz {
			return i
		}
	}
	return -1
}

// Alloc returns a byte slice of at least n bytes, preferring a reused
// size-class chunk over a fresh allocation.
func (a *Arena) Alloc(n int) []byte {
	if ci := classFor(n); ci >= 0 {
		c := &a.classes[ci]
		if k := len(c.free); k > 0 {
			buf := c.free[k-1]
			c.free = c.free[:k-1]
			return buf[:n]
		}
		return make([]byte, n, c.chunkSize)
	}
	return make([]byte, n)
}

// Free returns buf to the freelist of the largest size class its capacity
// fully covers, for reuse. Buffers larger than the top size class, or
// smaller than the bottom one, are simply dropped: only fixed small chunks
// are recycled, oversized allocations fall through to the general allocator.
func (a *Arena) Free(buf []byte) {
	ci := classFor(cap(buf))
	if ci >= 0 && cap(buf) < a.classes[ci].chunkSize {
		ci--
	}
	if ci < 0 {
		return
	}
	c := &a.classes[ci]
	c.free = append(c.free, buf[:0:c.chunkSize])
}

// Realloc grows or shrinks buf to n bytes: grow allocates fresh and copies
// the shared prefix, freeing the old buffer; shrink returns the freed tail
// to the class it now fits and keeps the head in place.
func (a *Arena) Realloc(buf []byte, n int) []byte {
	if n <= cap(buf) {
		if n < len(buf) {
			a.Free(append([]byte(nil), buf[n:]...))
		}
		return buf[:n]
	}
	fresh := a.Alloc(n)
	copy(fresh, buf)
	a.Free(buf)
	return fresh
}

// RAlloc, RFree and RRealloc are the raw (byte-granularity) allocator
// entry points. Alloc/Free/Realloc above already are that raw path; these
// are thin aliases kept so call sites can use the kernel-wide naming
// directly.
func (a *Arena) RAlloc(n int) []byte               { return a.Alloc(n) }
func (a *Arena) RFree(buf []byte)                  { a.Free(buf) }
func (a *Arena) RRealloc(buf []byte, n int) []byte { return a.Realloc(buf, n) }

// AllocT, FreeT and ReallocT are the typed allocator operations,
// implemented directly over slices. No pooling across distinct T: only
// the byte and subscription paths pool, since those are the two shapes the
// kernel actually churns at volume, raw scratch buffers and subscription
// arrays.
func AllocT[T any](a *Arena, n int) []T { return make([]T, n) }
func FreeT[T any](a *Arena, _ []T)      {}
func ReallocT[T any](a *Arena, buf []T, n int) []T {
	if n <= cap(buf) {
		return buf[:n]
	}
	fresh := make([]T, n)
	copy(fresh, buf)
	return fresh
}

// region records the address of a slab-allocated slice's first element, so
// InSlab can answer "is this backing array one I handed out" without
// keeping the (type-specific) slice itself alive past its usefulness.
type region struct{ addr unsafe.Pointer }

// AllocSub bump-allocates a slice of n elements of T from the subscription
// slab. Kept as a free function (Go methods cannot be generic) taking the
// Arena explicitly; used for the variable subscription array, whose
// element type (a subscriber reference) is not a raw byte.
func AllocSub[T any](a *Arena, n int) []T {
	buf := make([]T, n)
	if n > 0 {
		a.subSlab = append(a.subSlab, region{addr: unsafe.Pointer(&buf[0])})
	}
	a.subSlabCap += n
	return buf
}

// InSlab reports whether buf's backing array was handed out by AllocSub.
// Used by VarImp's growth policy: growth inside the slab is a cheap +4,
// growth of an array that escaped the slab uses x1.5.
func InSlab[T any](a *Arena, buf []T) bool {
	if len(buf) == 0 {
		return false
	}
	addr := unsafe.Pointer(&buf[0])
	for _, r := range a.subSlab {
		if r.addr == addr {
			return true
		}
	}
	return false
}

// Release drops every size class and the subscription slab, making their
// backing arrays collectible. Called once when a space is destroyed.
func (a *Arena) Release() {
	for i := range a.classes {
		a.classes[i].free = nil
	}
	a.subSlab = nil
	a.subSlabCap = 0
}
