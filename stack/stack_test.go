package stack

import (
	"testing"

	"svm/objects"
	"svm/types"
)

func pushInt(t *testing.T, s *Stack, v uint32) {
	t.Helper()
	if !s.PushTagged(types.IntType, encodeIntPayload(v)) {
		t.Fatalf("push failed, stack full?")
	}
}

func encodeIntPayload(v uint32) []byte {
	buf := make([]byte, 4)
	buf[0] = byte(v)
	buf[1] = byte(v >> 8)
	buf[2] = byte(v >> 16)
	buf[3] = byte(v >> 24)
	return buf
}

func TestPushPopRoundTrip(t *testing.T) {
	s := New(4096)
	pushInt(t, s, 10)
	pushInt(t, s, 20)

	top, ok := s.TopBytes()
	if !ok || objects.GetInt(top) != 20 {
		t.Fatalf("expected top 20, got %v ok=%v", top, ok)
	}

	popped, ok := s.Pop()
	if !ok || objects.GetInt(popped) != 20 {
		t.Fatalf("expected popped 20, got %v ok=%v", popped, ok)
	}

	top, ok = s.TopBytes()
	if !ok || objects.GetInt(top) != 10 {
		t.Fatalf("expected top 10 after pop, got %v ok=%v", top, ok)
	}
}

func TestNthFromTopDoesNotMutate(t *testing.T) {
	s := New(4096)
	pushInt(t, s, 1)
	pushInt(t, s, 2)
	pushInt(t, s, 3)

	usedBefore := s.Used()
	below, ok := s.NthFromTop(1)
	if !ok || objects.GetInt(below) != 2 {
		t.Fatalf("expected NthFromTop(1) == 2, got %v ok=%v", below, ok)
	}
	if s.Used() != usedBefore {
		t.Fatalf("NthFromTop must not mutate the stack")
	}
}

func TestSwapTop2ExchangesDifferentSizedObjects(t *testing.T) {
	s := New(4096)
	pushInt(t, s, 11)
	if !s.PushTagged(types.LongType, make([]byte, 8)) {
		t.Fatalf("push long failed")
	}

	if !s.SwapTop2() {
		t.Fatalf("SwapTop2 failed")
	}

	top, ok := s.TopBytes()
	if !ok || objects.DecodeTagCode(top) != types.Int || objects.GetInt(top) != 11 {
		t.Fatalf("expected Int(11) on top after swap, got %v", top)
	}
	below, ok := s.NthFromTop(1)
	if !ok || objects.DecodeTagCode(below) != types.Long {
		t.Fatalf("expected Long below after swap, got %v", below)
	}
}

func TestTopNStartsReturnsOldestFirst(t *testing.T) {
	s := New(4096)
	pushInt(t, s, 1)
	first, _ := s.TopStart()
	pushInt(t, s, 2)
	second, _ := s.TopStart()

	starts, ok := s.TopNStarts(2)
	if !ok {
		t.Fatalf("TopNStarts failed")
	}
	if starts[0] != first || starts[1] != second {
		t.Fatalf("expected oldest-first [%d %d], got %v", first, second, starts)
	}
}

func TestTruncateToDropsStartsPastBoundary(t *testing.T) {
	s := New(4096)
	pushInt(t, s, 1)
	boundary := s.Used()
	pushInt(t, s, 2)
	pushInt(t, s, 3)

	s.TruncateTo(boundary)

	if _, ok := s.TopNStarts(2); ok {
		t.Fatalf("expected only one live object after truncation")
	}
	top, ok := s.TopBytes()
	if !ok || objects.GetInt(top) != 1 {
		t.Fatalf("expected surviving top to be 1, got %v ok=%v", top, ok)
	}
}

// A freshly constructed stack reserves guardBytes before any object can
// start, so the first real push lands above absolute offset 0 - keeping
// a Pointer payload of exactly 0 unambiguously null.
func TestGuardBytesOffsetsFirstPush(t *testing.T) {
	s := New(4096)
	if s.Used() != types.TagSize {
		t.Fatalf("expected guard region of %d bytes, got %d used", types.TagSize, s.Used())
	}
	if _, ok := s.TopStart(); ok {
		t.Fatalf("expected no live object on an empty stack")
	}

	pushInt(t, s, 1)
	start, ok := s.TopStart()
	if !ok || start != types.TagSize {
		t.Fatalf("expected first object to start at %d, got %d ok=%v", types.TagSize, start, ok)
	}
}
