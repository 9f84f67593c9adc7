// Package heap implements the two heap spaces the interpreter allocates
// from: an unmanaged heap freed explicitly by Delete, and a managed
// (garbage-collected - collection itself is out of scope here, only
// allocation/header bookkeeping is implemented) heap whose addresses are
// never valid Delete targets.
//
// Neither heap hands out real process pointers - addresses are opaque
// uint64 handles, generalizing register-file style indexing to
// byte-addressable storage. Base partitions the unmanaged heap's
// numbering away from the Stack's own absolute offsets (see svm/stack)
// so a single Pointer payload can name either space unambiguously; see
// DESIGN.md "unified address space".
package heap

import (
	"sort"

	"golang.org/x/sys/unix"

	"svm/types"
)

// Base is the first address the unmanaged heap ever hands out. Any
// address below Base that a Pointer carries is a svm/stack offset
// instead; Base is chosen far above any realistic stack capacity.
const Base uint64 = 1 << 32

const pageSize = 4096

// UnmanagedHeap is a bump allocator over a byte-addressed space: each
// allocation's address is the offset its payload would occupy in one
// ever-growing arena, so a pointer into the middle of an allocation (as
// FLea produces for a structure field) still resolves to the right
// bytes, even though each allocation is actually backed by its own
// anonymous mmap'd region rather than a slice carved out of Go's own
// heap - the same "hand the payload real pages, not GC-tracked memory"
// split a process-level allocator makes, and it keeps the interpreter's
// simulated heap genuinely outside Go's garbage collector. Deallocate
// unmaps the region; re-deallocating or dereferencing a freed or
// never-allocated address is reported to the caller as "unknown" rather
// than panicking, so the interpreter can turn it into an exception.
type UnmanagedHeap struct {
	live  map[uint64][]byte
	bases []uint64 // ascending allocation base addresses, mirrors live's keys
	next  uint64
	used  uint64
	limit uint64 // 0 means unlimited
}

func NewUnmanagedHeap(limit uint64) *UnmanagedHeap {
	return &UnmanagedHeap{live: make(map[uint64][]byte), next: Base, limit: limit}
}

// Allocate reserves size zero-filled bytes and returns their address, or
// (0, false) on simulated exhaustion or mmap failure - the null-pointer
// outcome New must surface rather than fault.
func (h *UnmanagedHeap) Allocate(size uint32) (uint64, bool) {
	if h.limit != 0 && h.used+uint64(size) > h.limit {
		return 0, false
	}

	mapped, err := unix.Mmap(-1, 0, pageRound(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return 0, false
	}

	addr := h.next
	h.next += uint64(size)
	h.used += uint64(size)
	h.live[addr] = mapped[:size]
	h.bases = append(h.bases, addr)
	return addr, true
}

func pageRound(size uint32) int {
	n := (int(size) + pageSize - 1) / pageSize
	if n == 0 {
		n = 1
	}
	return n * pageSize
}

// Deallocate frees an allocation made by Allocate. false means the
// address was never live here (double free or bad address) - the
// interpreter's Delete handler turns that into an exception rather than
// trusting the caller.
func (h *UnmanagedHeap) Deallocate(addr uint64) bool {
	buf, ok := h.live[addr]
	if !ok {
		return false
	}
	unix.Munmap(buf[:cap(buf)])
	h.used -= uint64(len(buf))
	delete(h.live, addr)
	h.removeBase(addr)
	return true
}

// removeBase drops addr from the sorted bases index, keeping it in step
// with live so a freed address's extent is never consulted by baseFor
// again and bases does not grow without bound across alloc/free churn.
func (h *UnmanagedHeap) removeBase(addr uint64) {
	i := sort.Search(len(h.bases), func(i int) bool { return h.bases[i] >= addr })
	if i < len(h.bases) && h.bases[i] == addr {
		h.bases = append(h.bases[:i], h.bases[i+1:]...)
	}
}

// At returns the backing bytes starting at addr, whether addr is an
// allocation's base or a live pointer somewhere inside it (e.g. one FLea
// produced for a field).
func (h *UnmanagedHeap) At(addr uint64) ([]byte, bool) {
	base, ok := h.baseFor(addr)
	if !ok {
		return nil, false
	}
	buf := h.live[base]
	return buf[addr-base:], true
}

// baseFor finds the allocation base at or below addr and confirms addr
// still falls within that allocation's current, live extent.
func (h *UnmanagedHeap) baseFor(addr uint64) (uint64, bool) {
	i := sort.Search(len(h.bases), func(i int) bool { return h.bases[i] > addr }) - 1
	if i < 0 {
		return 0, false
	}
	base := h.bases[i]
	buf, ok := h.live[base]
	if !ok || addr >= base+uint64(len(buf)) {
		return 0, false
	}
	return base, true
}

// Owns reports whether addr falls in this heap's partition of the address
// space, independent of whether it is currently live.
func (h *UnmanagedHeap) Owns(addr uint64) bool { return addr >= Base }

// ManagedHeapInfo is the fixed-size bookkeeping header every managed
// allocation carries ahead of its user payload - the information a real
// collector would need to trace it. Collection itself is out of scope;
// SVM stops at allocating and tracking these headers.
type ManagedHeapInfo struct {
	Type *types.Type
	Size uint32
}

// ManagedHeap allocates GC-traceable objects, each addressed the same
// byte-addressable way as UnmanagedHeap so a field pointer (FLea) into a
// managed structure resolves correctly too. GCNew addresses always point
// at the user payload (its Type tag first, per svm/objects), never at
// the header - bookkeeping fields are never exposed to bytecode.
type ManagedHeap struct {
	live  map[uint64]managedAlloc
	bases []uint64
	next  uint64
}

type managedAlloc struct {
	info    ManagedHeapInfo
	payload []byte
}

func NewManagedHeap() *ManagedHeap {
	return &ManagedHeap{live: make(map[uint64]managedAlloc), next: 1}
}

// Allocate reserves a payload of size bytes (including its own leading
// Type tag) tagged as t, returning the address of the payload.
func (h *ManagedHeap) Allocate(t *types.Type, size uint32) uint64 {
	addr := h.next
	h.next += uint64(size)
	h.live[addr] = managedAlloc{info: ManagedHeapInfo{Type: t, Size: size}, payload: make([]byte, size)}
	h.bases = append(h.bases, addr)
	return addr
}

func (h *ManagedHeap) At(addr uint64) ([]byte, bool) {
	base, ok := h.baseFor(addr)
	if !ok {
		return nil, false
	}
	return h.live[base].payload[addr-base:], true
}

func (h *ManagedHeap) InfoAt(addr uint64) (ManagedHeapInfo, bool) {
	base, ok := h.baseFor(addr)
	if !ok {
		return ManagedHeapInfo{}, false
	}
	return h.live[base].info, true
}

func (h *ManagedHeap) baseFor(addr uint64) (uint64, bool) {
	i := sort.Search(len(h.bases), func(i int) bool { return h.bases[i] > addr }) - 1
	if i < 0 {
		return 0, false
	}
	base := h.bases[i]
	a, ok := h.live[base]
	if !ok || addr >= base+uint64(len(a.payload)) {
		return 0, false
	}
	return base, true
}

// Count reports the number of live managed allocations, exposed for
// diagnostics rather than used by the interpreter itself.
func (h *ManagedHeap) Count() int { return len(h.live) }
