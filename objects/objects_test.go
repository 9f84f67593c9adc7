package objects

import (
	"testing"

	"svm/types"
)

func TestPutGetRoundTrip(t *testing.T) {
	buf := make([]byte, types.LongType.Size)

	PutLong(buf, 123456789)
	if got := GetLong(buf); got != 123456789 {
		t.Fatalf("expected 123456789, got %d", got)
	}
	if DecodeTagCode(buf) != types.Long {
		t.Fatalf("expected Long tag, got %v", DecodeTagCode(buf))
	}

	PutDouble(buf, 3.5)
	if got := GetDouble(buf); got != 3.5 {
		t.Fatalf("expected 3.5, got %v", got)
	}

	PutPointer(buf, 42)
	if DecodeTagCode(buf) != types.Pointer {
		t.Fatalf("expected Pointer tag, got %v", DecodeTagCode(buf))
	}
	if got := GetAddress(buf); got != 42 {
		t.Fatalf("expected address 42, got %d", got)
	}
}

func TestInitStructureTagsEveryField(t *testing.T) {
	st := types.NewStructureType(types.FirstStructure, "pair", types.TagSize+2*types.IntType.Size, 4, []types.Field{
		{Name: "a", Type: types.IntType, Offset: types.TagSize},
		{Name: "b", Type: types.IntType, Offset: types.TagSize + types.IntType.Size},
	})

	buf := make([]byte, st.Size)
	InitStructure(buf, st)

	if DecodeTagCode(buf) != st.Code {
		t.Fatalf("expected structure tag %v, got %v", st.Code, DecodeTagCode(buf))
	}
	if DecodeTagCode(buf[st.Fields[0].Offset:]) != types.Int {
		t.Fatalf("expected field a tagged Int")
	}
	if DecodeTagCode(buf[st.Fields[1].Offset:]) != types.Int {
		t.Fatalf("expected field b tagged Int")
	}
}

// A structure field may be an array modifier: InitStructure tags the
// array object itself, writes its element count, and tags every element
// in turn.
func TestInitStructureTagsArrayField(t *testing.T) {
	arr := types.NewArrayFieldType(types.IntType, 3)
	st := types.NewStructureType(types.FirstStructure, "withArray", types.TagSize+arr.Size, arr.Align, []types.Field{
		{Name: "xs", Type: arr, Offset: types.TagSize},
	})

	buf := make([]byte, st.Size)
	InitStructure(buf, st)

	arrBuf := buf[st.Fields[0].Offset:]
	if DecodeTagCode(arrBuf) != types.Array {
		t.Fatalf("expected array field tagged Array, got %v", DecodeTagCode(arrBuf))
	}

	count := order.Uint32(arrBuf[types.TagSize:])
	if count != 3 {
		t.Fatalf("expected element count 3, got %d", count)
	}

	elemOff := uint32(types.TagSize + 4)
	for i := uint32(0); i < 3; i++ {
		if DecodeTagCode(arrBuf[elemOff:]) != types.Int {
			t.Fatalf("expected element %d tagged Int", i)
		}
		elemOff += types.IntType.Size
	}
}

func TestCopyStructureIsIndependent(t *testing.T) {
	src := make([]byte, types.IntType.Size)
	PutInt(src, 7)
	dst := make([]byte, types.IntType.Size)

	CopyStructure(dst, src, types.IntType.Size)
	if GetInt(dst) != 7 {
		t.Fatalf("expected copied value 7, got %d", GetInt(dst))
	}

	SetIntPayload(src, 9)
	if GetInt(dst) != 7 {
		t.Fatalf("expected dst to stay independent of src, got %d", GetInt(dst))
	}
}
