// Package asm is the (out-of-scope, frozen) text assembler that turns a
// human-written listing into the image.Program the interpreter loads.
// It works in two passes: a first pass strips comments and recognizes
// label definitions and block structure, a second pass resolves labels to
// instruction indices and every operand (constant pool index, local
// index, label id, function index, type code) and emits
// image.Instruction values.
package asm

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"svm/image"
	"svm/types"
)

// rawLine is a preprocessed source line: either a label definition or an
// instruction with its (still-textual) operand.
type rawLine struct {
	lineNo int
	label  string // non-empty for a label definition
	mnem   string
	arg    string
}

type structDef struct {
	lineNo int
	name   string
	fields []image.FieldSpec
}

type funcDef struct {
	lineNo    int
	name      string
	arity     uint32
	hasResult bool
	body      []rawLine
}

// Assemble compiles a full listing into a Program. path is recorded on the
// result for diagnostics only.
func Assemble(path string, r io.Reader) (image.Program, error) {
	p := &parser{typesByName: builtinTypes()}
	if err := p.scan(r); err != nil {
		return image.Program{}, err
	}
	return p.resolve(path)
}

func builtinTypes() map[string]*types.Type {
	return map[string]*types.Type{
		"int":       types.IntType,
		"long":      types.LongType,
		"double":    types.DoubleType,
		"pointer":   types.PointerType,
		"gcpointer": types.GCPointerType,
	}
}

type parser struct {
	structs []structDef
	funcs   []funcDef
	main    []rawLine

	typesByName map[string]*types.Type
}

// scan performs the first pass: strip comments/whitespace, recognize
// .struct/.endstruct and .func/.endfunc blocks, and split every remaining
// line into either a label definition or a mnemonic+argument pair.
func (p *parser) scan(r io.Reader) error {
	sc := bufio.NewScanner(r)
	lineNo := 0

	var curStruct *structDef
	var curFunc *funcDef

	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if i := strings.Index(line, ";"); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		switch {
		case strings.HasPrefix(line, ".struct "):
			curStruct = &structDef{lineNo: lineNo, name: strings.TrimSpace(line[len(".struct "):])}
		case line == ".endstruct":
			if curStruct == nil {
				return fmt.Errorf("asm:%d: .endstruct without .struct", lineNo)
			}
			p.structs = append(p.structs, *curStruct)
			curStruct = nil
		case strings.HasPrefix(line, ".func "):
			fd, err := parseFuncHeader(lineNo, line[len(".func "):])
			if err != nil {
				return err
			}
			curFunc = fd
		case line == ".endfunc":
			if curFunc == nil {
				return fmt.Errorf("asm:%d: .endfunc without .func", lineNo)
			}
			p.funcs = append(p.funcs, *curFunc)
			curFunc = nil
		default:
			switch {
			case curStruct != nil:
				name, typeName, ok := strings.Cut(line, " ")
				if !ok {
					return fmt.Errorf("asm:%d: malformed field %q", lineNo, line)
				}
				curStruct.fields = append(curStruct.fields, image.FieldSpec{Name: name, Type: nil})
				curStruct.fields[len(curStruct.fields)-1].Type = &types.Type{Name: strings.TrimSpace(typeName)} // placeholder, resolved later
			default:
				rl, err := splitLine(lineNo, line)
				if err != nil {
					return err
				}
				if curFunc != nil {
					curFunc.body = append(curFunc.body, rl)
				} else {
					p.main = append(p.main, rl)
				}
			}
		}
	}
	if curStruct != nil {
		return fmt.Errorf("asm:%d: .struct %s missing .endstruct", curStruct.lineNo, curStruct.name)
	}
	if curFunc != nil {
		return fmt.Errorf("asm:%d: .func %s missing .endfunc", curFunc.lineNo, curFunc.name)
	}
	return sc.Err()
}

func parseFuncHeader(lineNo int, rest string) (*funcDef, error) {
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return nil, fmt.Errorf("asm:%d: .func requires a name", lineNo)
	}
	fd := &funcDef{lineNo: lineNo, name: fields[0]}
	for _, opt := range fields[1:] {
		switch {
		case strings.HasPrefix(opt, "arity="):
			n, err := strconv.ParseUint(opt[len("arity="):], 10, 32)
			if err != nil {
				return nil, fmt.Errorf("asm:%d: bad arity: %v", lineNo, err)
			}
			fd.arity = uint32(n)
		case opt == "result":
			fd.hasResult = true
		default:
			return nil, fmt.Errorf("asm:%d: unknown .func option %q", lineNo, opt)
		}
	}
	return fd, nil
}

func splitLine(lineNo int, line string) (rawLine, error) {
	if strings.HasSuffix(line, ":") {
		return rawLine{lineNo: lineNo, label: strings.TrimSuffix(line, ":")}, nil
	}
	mnem, arg, _ := strings.Cut(line, " ")
	return rawLine{lineNo: lineNo, mnem: mnem, arg: strings.TrimSpace(arg)}, nil
}

// resolve is the second pass: build the structure table, the function
// table, and the constant pool, then emit instructions for every stream,
// resolving labels, function names and type names along the way.
func (p *parser) resolve(path string) (image.Program, error) {
	structures, err := p.resolveStructs()
	if err != nil {
		return image.Program{}, err
	}

	funcIndex := make(map[string]uint32, len(p.funcs))
	for i, fd := range p.funcs {
		funcIndex[fd.name] = uint32(i)
	}

	b := &builder{structures: structures, typesByName: p.typesByName, funcIndex: funcIndex}

	// Constants must be collected across every stream before any push is
	// emitted: the pool's Int/Long/Double sub-pools are contiguous, so a
	// literal's final index depends on how many of each kind the *whole*
	// program contributes, not just the stream being built at the time.
	for _, fd := range p.funcs {
		b.collectConstants(fd.body)
	}
	b.collectConstants(p.main)
	b.finalizeConstants()

	functions := make([]image.Function, len(p.funcs))
	for i, fd := range p.funcs {
		instrs, err := b.buildStream(fd.body)
		if err != nil {
			return image.Program{}, err
		}
		functions[i] = image.Function{Index: uint32(i), Arity: fd.arity, HasResult: fd.hasResult, Name: fd.name, Instructions: instrs}
	}

	topLevel, err := b.buildStream(p.main)
	if err != nil {
		return image.Program{}, err
	}

	pool := image.NewConstantPool(b.ints, b.longs, b.doubles)
	return image.NewProgram(path, pool, structures, functions, topLevel), nil
}

// resolveStructs builds each structure's layout in declaration order, so a
// structure may only embed a structure declared earlier in the listing -
// the assembler does not support mutually- or self-recursive layouts.
func (p *parser) resolveStructs() ([]*types.Type, error) {
	out := make([]*types.Type, len(p.structs))
	for i, sd := range p.structs {
		specs := make([]image.FieldSpec, len(sd.fields))
		for j, f := range sd.fields {
			t, err := p.resolveFieldType(sd.lineNo, f.Type.Name)
			if err != nil {
				return nil, err
			}
			specs[j] = image.FieldSpec{Name: f.Name, Type: t}
		}
		out[i] = image.BuildStructureLayout(types.FirstStructure+types.Code(i), sd.name, specs)
		p.typesByName[sd.name] = out[i]
	}
	return out, nil
}

// resolveFieldType resolves a field's textual type, which is either a
// plain type name or an array modifier "elem[count]" (e.g. "int[4]").
func (p *parser) resolveFieldType(lineNo int, raw string) (*types.Type, error) {
	if open := strings.IndexByte(raw, '['); open >= 0 {
		if !strings.HasSuffix(raw, "]") {
			return nil, fmt.Errorf("asm:%d: malformed array field type %q", lineNo, raw)
		}
		elemName := raw[:open]
		count, err := strconv.ParseUint(raw[open+1:len(raw)-1], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("asm:%d: bad array count in %q: %v", lineNo, raw, err)
		}
		elem, ok := p.typesByName[elemName]
		if !ok {
			return nil, fmt.Errorf("asm:%d: unknown array element type %q", lineNo, elemName)
		}
		return types.NewArrayFieldType(elem, uint32(count)), nil
	}
	t, ok := p.typesByName[raw]
	if !ok {
		return nil, fmt.Errorf("asm:%d: unknown field type %q", lineNo, raw)
	}
	return t, nil
}

// builder emits one Instructions stream at a time. Constant pool entries
// are collected in a dedicated pass (collectConstants/finalizeConstants)
// before any stream is built, since the pool's per-kind sub-ranges are
// only fixed once every literal in the program has been seen.
type builder struct {
	structures  []*types.Type
	typesByName map[string]*types.Type
	funcIndex   map[string]uint32

	ints    []uint32
	longs   []uint64
	doubles []float64

	constIndex map[string]uint32 // literal text -> final pool index, set by finalizeConstants
}

// collectConstants dedupes every push literal in lines into the
// appropriate sub-pool, in first-seen order.
func (b *builder) collectConstants(lines []rawLine) {
	for _, rl := range lines {
		if rl.label != "" || rl.mnem != "push" {
			continue
		}
		lit := rl.arg
		switch {
		case strings.Contains(lit, "."):
			v, err := strconv.ParseFloat(lit, 64)
			if err != nil {
				continue
			}
			if !containsFloat(b.doubles, v) {
				b.doubles = append(b.doubles, v)
			}
		case strings.HasSuffix(lit, "L"):
			v, err := strconv.ParseUint(strings.TrimSuffix(lit, "L"), 0, 64)
			if err != nil {
				continue
			}
			if !containsUint64(b.longs, v) {
				b.longs = append(b.longs, v)
			}
		default:
			v, err := strconv.ParseInt(lit, 0, 64)
			if err != nil || v < 0 || v > math.MaxUint32 {
				continue
			}
			u := uint32(v)
			if !containsUint32(b.ints, u) {
				b.ints = append(b.ints, u)
			}
		}
	}
}

// finalizeConstants computes each literal's absolute pool index now that
// every sub-pool's final length is known.
func (b *builder) finalizeConstants() {
	b.constIndex = make(map[string]uint32, len(b.ints)+len(b.longs)+len(b.doubles))
	longBase := uint32(len(b.ints))
	doubleBase := longBase + uint32(len(b.longs))
	for i, v := range b.ints {
		b.constIndex[strconv.FormatUint(uint64(v), 10)] = uint32(i)
	}
	for i, v := range b.longs {
		b.constIndex[strconv.FormatUint(v, 10)+"L"] = longBase + uint32(i)
	}
	for i, v := range b.doubles {
		b.constIndex[strconv.FormatFloat(v, 'g', -1, 64)] = doubleBase + uint32(i)
	}
}

func containsUint32(s []uint32, v uint32) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

func containsUint64(s []uint64, v uint64) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

func containsFloat(s []float64, v float64) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

func (b *builder) buildStream(lines []rawLine) (image.Instructions, error) {
	labels := make(map[string]int)
	// First sub-pass: assign each label definition the instruction index
	// it will resolve to once non-label lines are emitted in order.
	idx := 0
	for _, rl := range lines {
		if rl.label != "" {
			labels[rl.label] = idx
			continue
		}
		idx++
	}

	labelIDs := make(map[uint32]int, len(labels))
	nameToID := make(map[string]uint32, len(labels))
	var nextID uint32
	for name, target := range labels {
		nameToID[name] = nextID
		labelIDs[nextID] = target
		nextID++
	}

	code := make([]image.Instruction, 0, len(lines))
	for _, rl := range lines {
		if rl.label != "" {
			continue
		}
		instr, err := b.buildInstruction(rl, nameToID)
		if err != nil {
			return image.Instructions{}, err
		}
		code = append(code, instr)
	}
	return image.NewInstructions(code, labelIDs), nil
}

func (b *builder) buildInstruction(rl rawLine, labelIDs map[string]uint32) (image.Instruction, error) {
	op, ok := image.ParseOpcode(rl.mnem)
	if !ok {
		return image.Instruction{}, fmt.Errorf("asm:%d: unknown mnemonic %q", rl.lineNo, rl.mnem)
	}
	if !op.HasOperand() {
		return image.Instruction{Op: op}, nil
	}
	if rl.arg == "" {
		return image.Instruction{}, fmt.Errorf("asm:%d: %s requires an operand", rl.lineNo, rl.mnem)
	}

	switch op {
	case image.OpPush:
		idx, err := b.constantIndex(rl.arg)
		if err != nil {
			return image.Instruction{}, fmt.Errorf("asm:%d: %v", rl.lineNo, err)
		}
		return image.Instruction{Op: op, Operand: idx}, nil

	case image.OpJmp, image.OpJe, image.OpJne, image.OpJa, image.OpJae, image.OpJb, image.OpJbe:
		id, ok := labelIDs[rl.arg]
		if !ok {
			return image.Instruction{}, fmt.Errorf("asm:%d: unknown label %q", rl.lineNo, rl.arg)
		}
		return image.Instruction{Op: op, Operand: id}, nil

	case image.OpCall:
		idx, ok := b.funcIndex[rl.arg]
		if !ok {
			return image.Instruction{}, fmt.Errorf("asm:%d: unknown function %q", rl.lineNo, rl.arg)
		}
		return image.Instruction{Op: op, Operand: idx}, nil

	case image.OpPushStructure, image.OpCopyStructureNew, image.OpNew, image.OpGCNew:
		t, ok := b.typesByName[rl.arg]
		if !ok {
			return image.Instruction{}, fmt.Errorf("asm:%d: unknown type %q", rl.lineNo, rl.arg)
		}
		return image.Instruction{Op: op, Operand: uint32(t.Code)}, nil

	default: // Load/Store/Lea/FLea/Inc/Dec: a plain numeric operand
		n, err := strconv.ParseInt(rl.arg, 0, 64)
		if err != nil {
			return image.Instruction{}, fmt.Errorf("asm:%d: bad operand %q: %v", rl.lineNo, rl.arg, err)
		}
		return image.Instruction{Op: op, Operand: uint32(n)}, nil
	}
}

// constantIndex parses a push operand literal the same way
// collectConstants did and looks up its already-finalized pool index. A
// trailing "L" marks a Long literal, a decimal point marks a Double;
// everything else is an Int.
func (b *builder) constantIndex(lit string) (uint32, error) {
	var key string
	switch {
	case strings.Contains(lit, "."):
		v, err := strconv.ParseFloat(lit, 64)
		if err != nil {
			return 0, err
		}
		key = strconv.FormatFloat(v, 'g', -1, 64)
	case strings.HasSuffix(lit, "L"):
		v, err := strconv.ParseUint(strings.TrimSuffix(lit, "L"), 0, 64)
		if err != nil {
			return 0, err
		}
		key = strconv.FormatUint(v, 10) + "L"
	default:
		v, err := strconv.ParseInt(lit, 0, 64)
		if err != nil {
			return 0, err
		}
		if v < 0 || v > math.MaxUint32 {
			return 0, fmt.Errorf("int literal %q out of range", lit)
		}
		key = strconv.FormatUint(uint64(uint32(v)), 10)
	}
	idx, ok := b.constIndex[key]
	if !ok {
		return 0, fmt.Errorf("internal: constant %q not collected", lit)
	}
	return idx, nil
}
