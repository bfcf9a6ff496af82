package vm

import "fmt"

// ---------------------------------------------------------------------------
// Program: the immutable compiled artifact
// ---------------------------------------------------------------------------

// FunctionDef describes one compiled function. Its code lives inline in
// the shared instruction stream: it starts at Entry (the instruction
// immediately after the LAMBDA that references it) and ends at BodyEnd,
// which is always a HALT. Captures lists the relative addresses, as seen
// from the creation site, that a closure over this function must carry;
// the list is sorted and free of duplicates.
type FunctionDef struct {
	Entry    int   `cbor:"1,keyasint"`
	BodyEnd  int   `cbor:"2,keyasint"`
	Captures []int `cbor:"3,keyasint,omitempty"`
}

// Program is a compiled expression: a flat instruction stream, always
// terminated by a HALT, plus constant pools. A Program is immutable once
// built and may be shared by any number of evaluations.
type Program struct {
	Instructions []Instr       `cbor:"1,keyasint"`
	Functions    []FunctionDef `cbor:"2,keyasint,omitempty"`
	Integers     []int64       `cbor:"3,keyasint,omitempty"`
	Floats       []float64     `cbor:"4,keyasint,omitempty"`
}

// ---------------------------------------------------------------------------
// ProgramBuilder: Helper for constructing programs
// ---------------------------------------------------------------------------

// ProgramBuilder accumulates instructions and constant pools during
// compilation. Integer and float constants are interned.
type ProgramBuilder struct {
	instructions []Instr
	functions    []FunctionDef

	integers []int64
	intIndex map[int64]int

	floats     []float64
	floatIndex map[float64]int
}

// NewProgramBuilder creates a new program builder.
func NewProgramBuilder() *ProgramBuilder {
	return &ProgramBuilder{
		instructions: make([]Instr, 0, 64),
		intIndex:     make(map[int64]int),
		floatIndex:   make(map[float64]int),
	}
}

// Here returns the address the next emitted instruction will have.
func (b *ProgramBuilder) Here() int {
	return len(b.instructions)
}

// Emit appends an instruction with no operand and returns its address.
func (b *ProgramBuilder) Emit(op Opcode) int {
	return b.EmitArg(op, 0)
}

// EmitArg appends an instruction and returns its address.
func (b *ProgramBuilder) EmitArg(op Opcode, arg int32) int {
	addr := len(b.instructions)
	b.instructions = append(b.instructions, Instr{Op: op, Arg: arg})
	return addr
}

// EmitJump appends a jump instruction with a placeholder target and
// returns its address for later patching.
func (b *ProgramBuilder) EmitJump(op Opcode) int {
	return b.EmitArg(op, -1)
}

// PatchJump sets the target of the jump at addr to the current address.
func (b *ProgramBuilder) PatchJump(addr int) {
	b.PatchJumpTo(addr, b.Here())
}

// PatchJumpTo sets the target of the jump at addr to target.
func (b *ProgramBuilder) PatchJumpTo(addr, target int) {
	in := &b.instructions[addr]
	if in.Op != OpJump && in.Op != OpJumpFalse {
		panic("ProgramBuilder.PatchJumpTo: not a jump instruction")
	}
	in.Arg = int32(target)
}

// InternInt adds an integer constant, returning its pool index.
func (b *ProgramBuilder) InternInt(v int64) int {
	if idx, ok := b.intIndex[v]; ok {
		return idx
	}
	idx := len(b.integers)
	b.integers = append(b.integers, v)
	b.intIndex[v] = idx
	return idx
}

// InternFloat adds a float constant, returning its pool index.
func (b *ProgramBuilder) InternFloat(v float64) int {
	if idx, ok := b.floatIndex[v]; ok {
		return idx
	}
	idx := len(b.floats)
	b.floats = append(b.floats, v)
	b.floatIndex[v] = idx
	return idx
}

// AddFunction registers a function with the given capture list and
// returns its pool index. Entry and BodyEnd are filled in as the
// function's inline body is emitted.
func (b *ProgramBuilder) AddFunction(captures []int) int {
	idx := len(b.functions)
	b.functions = append(b.functions, FunctionDef{Entry: -1, BodyEnd: -1, Captures: captures})
	return idx
}

// SetFunctionEntry records the address of the first body instruction.
func (b *ProgramBuilder) SetFunctionEntry(idx, addr int) {
	b.functions[idx].Entry = addr
}

// CloseFunction records the address of the function's terminating HALT.
func (b *ProgramBuilder) CloseFunction(idx, bodyEnd int) {
	b.functions[idx].BodyEnd = bodyEnd
}

// Build finalizes the program. The instruction stream must already end
// with a HALT and every registered function must have been closed.
func (b *ProgramBuilder) Build() *Program {
	if n := len(b.instructions); n == 0 || b.instructions[n-1].Op != OpHalt {
		panic("ProgramBuilder.Build: instruction stream not terminated by HALT")
	}
	for i, fn := range b.functions {
		if fn.Entry < 0 || fn.BodyEnd < 0 {
			panic(fmt.Sprintf("ProgramBuilder.Build: function %d not closed", i))
		}
	}
	return &Program{
		Instructions: b.instructions,
		Functions:    b.functions,
		Integers:     b.integers,
		Floats:       b.floats,
	}
}
