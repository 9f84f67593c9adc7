package image

import "svm/types"

// FieldSpec is the loader-facing description of one structure field,
// before offsets have been computed.
type FieldSpec struct {
	Name string
	Type *types.Type
}

func alignUp(v, align uint32) uint32 {
	if align <= 1 {
		return v
	}
	return (v + align - 1) / align * align
}

// BuildStructureLayout lays fields out in declared order using natural
// alignment (each field starts at the next offset that is a multiple of
// its own alignment), then pads the overall size up to the structure's
// own alignment - the same packing rule a C-like ABI uses, which is what
// the loader/compiler is expected to reproduce when it assigns the
// per-field offsets every structure type carries.
func BuildStructureLayout(code types.Code, name string, specs []FieldSpec) *types.Type {
	offset := uint32(types.TagSize)
	maxAlign := uint32(types.TagSize)
	fields := make([]types.Field, len(specs))

	for i, spec := range specs {
		align := spec.Type.Align
		if align == 0 {
			align = 1
		}
		offset = alignUp(offset, align)
		fields[i] = types.Field{Name: spec.Name, Type: spec.Type, Offset: offset}
		offset += spec.Type.Size
		if align > maxAlign {
			maxAlign = align
		}
	}

	size := alignUp(offset, maxAlign)
	return types.NewStructureType(code, name, size, maxAlign, fields)
}
