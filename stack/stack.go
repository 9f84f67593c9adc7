// Package stack implements the interpreter's typed operand/variable
// stack: a contiguous, upward-growing byte region that stores values
// prefixed with a Type tag.
//
// Every tagged object written through PushTagged/Reserve starts with its
// Type tag - each concrete object starts with a Type field - so
// Lea/FLea/TLoad/TStore can dereference a pointer by reading the tag
// directly at the pointed-to address. Size-oblivious top-of-stack
// inspection (TopType, Pop, the testable "tag integrity" property) is
// served by an internal shadow stack of object start offsets, avoiding
// any reliance on pointer reinterpretation tricks. See DESIGN.md for the
// full writeup.
package stack

import (
	"errors"

	"svm/objects"
	"svm/types"
)

var (
	ErrOverflow  = errors.New("stack: overflow")
	ErrUnderflow = errors.New("stack: underflow")
)

// guardBytes keeps absolute offset 0 from ever being a valid object
// start, so a Pointer payload of 0 remains an unambiguous null even
// though Lea can otherwise return any live local's start offset.
const guardBytes = types.TagSize

// Stack is the byte-addressable region backing both anonymous pushed
// values and named local variables. It is never copied after
// construction - every method takes a pointer receiver.
type Stack struct {
	data   []byte
	used   uint32
	starts []uint32
}

func New(capacity uint32) *Stack {
	s := &Stack{data: make([]byte, capacity)}
	s.used = guardBytes
	if s.used > s.Capacity() {
		s.used = s.Capacity()
	}
	return s
}

func (s *Stack) Capacity() uint32 { return uint32(len(s.data)) }
func (s *Stack) Used() uint32     { return s.used }
func (s *Stack) Free() uint32     { return s.Capacity() - s.used }

// Reserve grows the used region by size zero-filled bytes and returns a
// slice over them for the caller to populate, tracking the new object's
// start offset. false on overflow.
func (s *Stack) Reserve(size uint32) ([]byte, bool) {
	if size > s.Free() {
		return nil, false
	}
	start := s.used
	region := s.data[start : start+size]
	clear(region)
	s.used += size
	s.starts = append(s.starts, start)
	return region, true
}

// PushTagged reserves sizeof(t) bytes and writes t's tag followed by
// payload as one new top object.
func (s *Stack) PushTagged(t *types.Type, payload []byte) bool {
	buf, ok := s.Reserve(t.Size)
	if !ok {
		return false
	}
	objects.EncodeTag(t, buf)
	copy(buf[types.TagSize:], payload)
	return true
}

// Add grows used by delta raw bytes without tracking a new object start.
func (s *Stack) Add(delta uint32) bool {
	if delta > s.Free() {
		return false
	}
	s.used += delta
	return true
}

// Remove shrinks used by delta raw bytes, discarding any tracked object
// starts that fall outside the new used region.
func (s *Stack) Remove(delta uint32) bool {
	if delta > s.used {
		return false
	}
	s.TruncateTo(s.used - delta)
	return true
}

// TruncateTo sets used directly (RET's frame-boundary truncation) and
// discards any tracked object starts at or beyond the new boundary.
func (s *Stack) TruncateTo(newUsed uint32) {
	s.used = newUsed
	i := len(s.starts)
	for i > 0 && s.starts[i-1] >= newUsed {
		i--
	}
	s.starts = s.starts[:i]
}

// PeekAtByteOffset returns a reference whose first byte is at used-offset
// - for callers that already know the exact size of what they're
// inspecting. The interpreter's own handlers use TopBytes/NthFromTop
// instead.
func (s *Stack) PeekAtByteOffset(offset uint32) ([]byte, bool) {
	if offset == 0 || offset > s.used {
		return nil, false
	}
	return s.data[s.used-offset:], true
}

// TopStart returns the start offset of the most recently pushed,
// still-live object.
func (s *Stack) TopStart() (uint32, bool) {
	if len(s.starts) == 0 {
		return 0, false
	}
	return s.starts[len(s.starts)-1], true
}

// TopBytes returns the raw bytes (tag+payload) of the current top object.
func (s *Stack) TopBytes() ([]byte, bool) {
	start, ok := s.TopStart()
	if !ok {
		return nil, false
	}
	return s.data[start:s.used], true
}

// TopType reads the Type tag of the current top object, whatever its
// size, resolving structure codes against the given structure table.
func (s *Stack) TopType(structures []*types.Type) (*types.Type, error) {
	buf, ok := s.TopBytes()
	if !ok {
		return nil, ErrUnderflow
	}
	return objects.DecodeType(buf, structures)
}

// Pop removes and returns the current top object's raw bytes.
func (s *Stack) Pop() ([]byte, bool) {
	start, ok := s.TopStart()
	if !ok {
		return nil, false
	}
	buf := s.data[start:s.used]
	s.starts = s.starts[:len(s.starts)-1]
	s.used = start
	return buf, true
}

// NthFromTop returns the raw bytes of the nth object counting down from
// the top (0 = top, 1 = the object just below it, ...), without
// disturbing the stack - used by instructions that must validate two
// operands (e.g. TStore's value/pointer pair, binary arithmetic) before
// mutating anything, per the no-partial-mutation rule.
func (s *Stack) NthFromTop(n int) ([]byte, bool) {
	idx := len(s.starts) - 1 - n
	if idx < 0 {
		return nil, false
	}
	start := s.starts[idx]
	end := s.used
	if idx+1 < len(s.starts) {
		end = s.starts[idx+1]
	}
	return s.data[start:end], true
}

// TopNStarts returns the start offsets of the n most recently pushed
// objects, oldest first - used by CALL to adopt already-pushed arguments
// as the callee's first n local variables without copying them.
func (s *Stack) TopNStarts(n int) ([]uint32, bool) {
	if n > len(s.starts) {
		return nil, false
	}
	out := make([]uint32, n)
	copy(out, s.starts[len(s.starts)-n:])
	return out, true
}

// SwapTop2 exchanges the two most recently pushed objects by value. They
// may differ in size, in which case the boundary between them moves.
func (s *Stack) SwapTop2() bool {
	if len(s.starts) < 2 {
		return false
	}
	i2, i1 := len(s.starts)-2, len(s.starts)-1
	start2, start1, end := s.starts[i2], s.starts[i1], s.used
	top := append([]byte(nil), s.data[start1:end]...)
	below := append([]byte(nil), s.data[start2:start1]...)
	copy(s.data[start2:start2+uint32(len(top))], top)
	copy(s.data[start2+uint32(len(top)):end], below)
	s.starts[i1] = start2 + uint32(len(top))
	return true
}

// BytesAt returns the bytes of an object known to start at the given
// absolute offset and span size bytes - used for local-variable access
// once the caller already knows the variable's offset (from
// LocalVariables) and has read its tag to learn its size.
func (s *Stack) BytesAt(start, size uint32) ([]byte, bool) {
	if start > s.Capacity() || size > s.Capacity()-start {
		return nil, false
	}
	return s.data[start : start+size], true
}

// TypeAt reads the tag of whatever object starts at the given absolute
// offset, without needing to know its size up front.
func (s *Stack) TypeAt(start uint32, structures []*types.Type) (*types.Type, error) {
	buf, ok := s.BytesAt(start, types.TagSize)
	if !ok {
		return nil, ErrUnderflow
	}
	return objects.DecodeType(buf, structures)
}

// Raw exposes the backing array for the interpreter's unified address
// space (Lea/FLea/TLoad/TStore resolve a Pointer's numeric address
// against either this array or the heap's, see package svm).
func (s *Stack) Raw() []byte { return s.data }
