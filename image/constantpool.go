package image

import (
	"fmt"

	"svm/types"
)

// ConstantPool is an append-only catalog partitioned into three
// contiguous sub-pools, in this fixed order: Int, Long, Double. A single
// index addresses the whole pool; TypeOf resolves the type of index i by
// comparing against the cumulative sub-pool offsets.
type ConstantPool struct {
	ints    []uint32
	longs   []uint64
	doubles []float64
}

func NewConstantPool(ints []uint32, longs []uint64, doubles []float64) ConstantPool {
	return ConstantPool{ints: ints, longs: longs, doubles: doubles}
}

func (p *ConstantPool) IntOffset() uint32    { return 0 }
func (p *ConstantPool) LongOffset() uint32   { return p.IntOffset() + p.IntCount() }
func (p *ConstantPool) DoubleOffset() uint32 { return p.LongOffset() + p.LongCount() }

func (p *ConstantPool) IntCount() uint32    { return uint32(len(p.ints)) }
func (p *ConstantPool) LongCount() uint32   { return uint32(len(p.longs)) }
func (p *ConstantPool) DoubleCount() uint32 { return uint32(len(p.doubles)) }

func (p *ConstantPool) Count() uint32 {
	return p.DoubleOffset() + p.DoubleCount()
}

func (p *ConstantPool) IsEmpty() bool {
	return p.Count() == 0
}

// TypeOf returns the fundamental type constant index i belongs to.
func (p *ConstantPool) TypeOf(index uint32) (*types.Type, error) {
	if index >= p.Count() {
		return nil, fmt.Errorf("image: constant index %d out of range", index)
	}
	if index >= p.DoubleOffset() {
		return types.DoubleType, nil
	} else if index >= p.LongOffset() {
		return types.LongType, nil
	}
	return types.IntType, nil
}

func (p *ConstantPool) Int(index uint32) uint32 {
	return p.ints[index-p.IntOffset()]
}

func (p *ConstantPool) Long(index uint32) uint64 {
	return p.longs[index-p.LongOffset()]
}

func (p *ConstantPool) Double(index uint32) float64 {
	return p.doubles[index-p.DoubleOffset()]
}
