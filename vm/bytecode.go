package vm

import (
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// Opcode definitions
// ---------------------------------------------------------------------------

// Opcode represents a single bytecode instruction.
type Opcode byte

// Frame boundary
const (
	OpHalt Opcode = 0x00 // end of a function body / the whole program
)

// Push Constants
const (
	OpPushInt   Opcode = 0x10 // push integer from constant pool (pool index)
	OpPushFloat Opcode = 0x11 // push float from constant pool (pool index)
	OpPushTrue  Opcode = 0x12 // push true
	OpPushFalse Opcode = 0x13 // push false
)

// Variables and Closures
const (
	OpPushVar Opcode = 0x20 // push variable at relative address (0 = own argument)
	OpLambda  Opcode = 0x21 // build closure for function pool entry, skip its inline body
)

// Application
const (
	OpApply       Opcode = 0x30 // pop argument and function, enter the function
	OpFixApBottom Opcode = 0x31 // like apply, but the argument is the bottom sentinel
	OpFix         Opcode = 0x32 // tie the closure on top of the stack to itself
	OpCallBuiltin Opcode = 0x33 // pop two operands, apply builtin operator
)

// Control Flow
const (
	OpJump      Opcode = 0x40 // unconditional jump (absolute address)
	OpJumpFalse Opcode = 0x41 // pop boolean, jump if false (absolute address)
)

// Builtin identifies a two-operand builtin operator, carried as the
// operand of OpCallBuiltin.
type Builtin int32

const (
	BuiltinSum      Builtin = 0 // addition
	BuiltinSub      Builtin = 1 // subtraction
	BuiltinLessThan Builtin = 2 // strict less-than, yields boolean
)

// String returns the surface name of the builtin.
func (b Builtin) String() string {
	switch b {
	case BuiltinSum:
		return "sum"
	case BuiltinSub:
		return "sub"
	case BuiltinLessThan:
		return "less_than"
	default:
		return fmt.Sprintf("builtin_%d", int32(b))
	}
}

// ---------------------------------------------------------------------------
// Instructions
// ---------------------------------------------------------------------------

// Instr is one fixed-width instruction: an opcode plus one operand.
// The operand's meaning depends on the opcode: a constant pool index,
// a relative variable address, a function pool index, a builtin
// identifier, or an absolute jump target. Instruction addresses are
// indices into the Program's instruction stream.
type Instr struct {
	Op  Opcode `cbor:"1,keyasint"`
	Arg int32  `cbor:"2,keyasint"`
}

// ---------------------------------------------------------------------------
// Opcode metadata
// ---------------------------------------------------------------------------

// OpcodeInfo holds metadata about an opcode.
type OpcodeInfo struct {
	Name   string // human-readable name
	HasArg bool   // whether the operand is meaningful
}

// opcodeTable maps opcodes to their metadata.
var opcodeTable = map[Opcode]OpcodeInfo{
	OpHalt: {"HALT", false},

	OpPushInt:   {"PUSH_INT", true},
	OpPushFloat: {"PUSH_FLOAT", true},
	OpPushTrue:  {"PUSH_TRUE", false},
	OpPushFalse: {"PUSH_FALSE", false},

	OpPushVar: {"PUSH_VAR", true},
	OpLambda:  {"LAMBDA", true},

	OpApply:       {"APPLY", false},
	OpFixApBottom: {"FIX_AP_BOTTOM", false},
	OpFix:         {"FIX", false},
	OpCallBuiltin: {"CALL_BUILTIN", true},

	OpJump:      {"JUMP", true},
	OpJumpFalse: {"JUMP_FALSE", true},
}

// Info returns the metadata for an opcode.
func (op Opcode) Info() OpcodeInfo {
	if info, ok := opcodeTable[op]; ok {
		return info
	}
	return OpcodeInfo{Name: fmt.Sprintf("UNKNOWN_%02X", byte(op))}
}

// Name returns the human-readable name for an opcode.
func (op Opcode) Name() string {
	return op.Info().Name
}

// String implements the Stringer interface.
func (op Opcode) String() string {
	return op.Name()
}

// ---------------------------------------------------------------------------
// Disassembly
// ---------------------------------------------------------------------------

// disassembleInstr formats one instruction, resolving pool references
// against the program when available.
func disassembleInstr(p *Program, addr int, in Instr) string {
	info := in.Op.Info()

	switch in.Op {
	case OpPushInt:
		if p != nil && int(in.Arg) < len(p.Integers) {
			return fmt.Sprintf("%04d  %s %d (= %d)", addr, info.Name, in.Arg, p.Integers[in.Arg])
		}
	case OpPushFloat:
		if p != nil && int(in.Arg) < len(p.Floats) {
			return fmt.Sprintf("%04d  %s %d (= %g)", addr, info.Name, in.Arg, p.Floats[in.Arg])
		}
	case OpLambda:
		if p != nil && int(in.Arg) < len(p.Functions) {
			fn := p.Functions[in.Arg]
			return fmt.Sprintf("%04d  %s %d (body %04d..%04d, captures %v)",
				addr, info.Name, in.Arg, fn.Entry, fn.BodyEnd, fn.Captures)
		}
	case OpCallBuiltin:
		return fmt.Sprintf("%04d  %s %s", addr, info.Name, Builtin(in.Arg))
	case OpJump, OpJumpFalse:
		return fmt.Sprintf("%04d  %s -> %04d", addr, info.Name, in.Arg)
	}

	if info.HasArg {
		return fmt.Sprintf("%04d  %s %d", addr, info.Name, in.Arg)
	}
	return fmt.Sprintf("%04d  %s", addr, info.Name)
}

// Disassemble returns a full disassembly of the program.
func (p *Program) Disassemble() string {
	var sb strings.Builder
	for addr, in := range p.Instructions {
		if addr > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(disassembleInstr(p, addr, in))
	}
	return sb.String()
}
