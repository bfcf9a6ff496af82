package vm

import (
	"errors"
	"fmt"
)

// ErrInvariant marks an internal contract breach between compiler and
// evaluator: a missing capture, a stack underflow, an operand of the
// wrong kind. These are never user errors and abort the evaluation.
var ErrInvariant = errors.New("evaluator invariant violation")

// ---------------------------------------------------------------------------
// callFrame: Execution state for one function invocation
// ---------------------------------------------------------------------------

// callFrame tracks one active function body. pc and end are absolute
// addresses into the shared instruction stream; the frame is done when
// the HALT at end executes. argsToPop is the number of environment-stack
// entries this call's arguments occupy.
type callFrame struct {
	pc        int
	end       int
	argsToPop int
	captures  map[int]Value
}

// ---------------------------------------------------------------------------
// Evaluator: the closure-based stack machine
// ---------------------------------------------------------------------------

// Evaluator executes a Program. It owns three stacks: the call-frame
// stack, the environment stack of bound arguments (addressed by relative
// distance from the top), and the operand stack of intermediate values.
// An Evaluator is single-use and single-threaded; run concurrent
// evaluations of the same Program with one Evaluator each.
type Evaluator struct {
	prog     *Program
	operands []Value
	env      []Value
	frames   []callFrame
	steps    int
}

// NewEvaluator creates an evaluator for the program, with a single
// synthetic top-level frame wrapping the whole instruction stream: no
// captures, zero arguments.
func NewEvaluator(p *Program) *Evaluator {
	e := &Evaluator{
		prog:     p,
		operands: make([]Value, 0, 32),
		env:      make([]Value, 0, 16),
		frames:   make([]callFrame, 0, 16),
	}
	e.frames = append(e.frames, callFrame{
		pc:  0,
		end: len(p.Instructions) - 1,
	})
	return e
}

// Steps returns the number of instructions executed so far.
func (e *Evaluator) Steps() int {
	return e.steps
}

func (e *Evaluator) push(v Value) {
	e.operands = append(e.operands, v)
}

func (e *Evaluator) pop() (Value, bool) {
	if len(e.operands) == 0 {
		return Value{}, false
	}
	v := e.operands[len(e.operands)-1]
	e.operands = e.operands[:len(e.operands)-1]
	return v, true
}

func (e *Evaluator) invariantf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvariant, fmt.Sprintf(format, args...))
}

// readVar resolves a relative variable address in the current frame:
// address 0 is the call's own argument on top of the environment stack,
// any other address is a key into the frame's capture map.
func (e *Evaluator) readVar(frame *callFrame, addr int) (Value, error) {
	if addr == 0 {
		if len(e.env) == 0 {
			return Value{}, e.invariantf("environment stack underflow at address 0")
		}
		return e.env[len(e.env)-1], nil
	}
	v, ok := frame.captures[addr]
	if !ok {
		return Value{}, e.invariantf("missing capture at address %d", addr)
	}
	return v, nil
}

// enter pushes the argument onto the environment stack and activates the
// closure's body as a new call frame.
func (e *Evaluator) enter(cl *Closure, arg Value) {
	e.env = append(e.env, arg)
	e.frames = append(e.frames, callFrame{
		pc:        cl.Entry,
		end:       cl.BodyEnd,
		argsToPop: 1,
		captures:  cl.Captures,
	})
}

// Run executes the program to completion and returns the final value.
// Divergence detected through the fixpoint protocol is not an error: it
// yields the Bottom value. An error is returned only for internal
// invariant violations; there is no recovery path.
func (e *Evaluator) Run() (Value, error) {
	for len(e.frames) > 0 {
		frame := &e.frames[len(e.frames)-1]
		if frame.pc < 0 || frame.pc > frame.end {
			return Value{}, e.invariantf("program counter %d outside frame body", frame.pc)
		}

		in := e.prog.Instructions[frame.pc]
		frame.pc++
		e.steps++

		switch in.Op {
		case OpHalt:
			// Frame boundary: discard the call's arguments and resume the
			// caller at its already-advanced program counter.
			if len(e.env) < frame.argsToPop {
				return Value{}, e.invariantf("environment stack underflow on frame exit")
			}
			e.env = e.env[:len(e.env)-frame.argsToPop]
			e.frames = e.frames[:len(e.frames)-1]
			if len(e.frames) == 0 {
				result, ok := e.pop()
				if !ok {
					return Value{}, e.invariantf("operand stack empty at program end")
				}
				return result, nil
			}

		case OpPushInt:
			if int(in.Arg) >= len(e.prog.Integers) {
				return Value{}, e.invariantf("integer pool index %d out of range", in.Arg)
			}
			e.push(FromNumber(e.prog.Integers[in.Arg]))

		case OpPushFloat:
			if int(in.Arg) >= len(e.prog.Floats) {
				return Value{}, e.invariantf("float pool index %d out of range", in.Arg)
			}
			e.push(FromFloating(e.prog.Floats[in.Arg]))

		case OpPushTrue:
			e.push(FromBool(true))

		case OpPushFalse:
			e.push(FromBool(false))

		case OpPushVar:
			v, err := e.readVar(frame, int(in.Arg))
			if err != nil {
				return Value{}, err
			}
			// Reading the unresolved fixpoint placeholder means the
			// computation diverges: terminate immediately with Bottom.
			if v.IsBottom() {
				return Bottom, nil
			}
			e.push(v)

		case OpLambda:
			if int(in.Arg) >= len(e.prog.Functions) {
				return Value{}, e.invariantf("function pool index %d out of range", in.Arg)
			}
			fn := &e.prog.Functions[in.Arg]
			// Fetch each captured value from the creating environment.
			// The value at creation-site address a is referenced from
			// inside the new body at distance a+1, so it is stored under
			// that key. Bottom is copied as-is here: this is how the
			// fixpoint placeholder flows into the generated closure.
			caps := make(map[int]Value, len(fn.Captures))
			for _, a := range fn.Captures {
				v, err := e.readVar(frame, a)
				if err != nil {
					return Value{}, err
				}
				caps[a+1] = v
			}
			e.push(FromClosure(&Closure{
				Fn:       int(in.Arg),
				Entry:    fn.Entry,
				BodyEnd:  fn.BodyEnd,
				Captures: caps,
			}))
			// The body is inline in the shared stream; skip past its HALT.
			frame.pc = fn.BodyEnd + 1

		case OpCallBuiltin:
			right, ok := e.pop()
			if !ok {
				return Value{}, e.invariantf("operand stack underflow in builtin %s", Builtin(in.Arg))
			}
			left, ok := e.pop()
			if !ok {
				return Value{}, e.invariantf("operand stack underflow in builtin %s", Builtin(in.Arg))
			}
			// Bottom stored as an operand escapes the variable-read check;
			// propagate it as the overall result rather than treating the
			// sentinel as a number.
			if left.IsBottom() || right.IsBottom() {
				return Bottom, nil
			}
			result, err := e.applyBuiltin(Builtin(in.Arg), left, right)
			if err != nil {
				return Value{}, err
			}
			e.push(result)

		case OpApply:
			arg, ok := e.pop()
			if !ok {
				return Value{}, e.invariantf("operand stack underflow in apply")
			}
			fnv, ok := e.pop()
			if !ok {
				return Value{}, e.invariantf("operand stack underflow in apply")
			}
			if fnv.IsBottom() {
				return Bottom, nil
			}
			if !fnv.IsClosure() {
				return Value{}, e.invariantf("apply: %s is not a closure", fnv)
			}
			e.enter(fnv.Closure(), arg)

		case OpFixApBottom:
			// Invoke the self-referential generator with the bottom
			// sentinel standing in for "myself".
			fnv, ok := e.pop()
			if !ok {
				return Value{}, e.invariantf("operand stack underflow in fix_ap_bottom")
			}
			if !fnv.IsClosure() {
				return Value{}, e.invariantf("fix_ap_bottom: %s is not a closure", fnv)
			}
			e.enter(fnv.Closure(), Bottom)

		case OpFix:
			// Tie the knot: the closure left by the generator gets its
			// placeholder self-capture replaced by itself. The patch is
			// made once and never mutated again.
			if len(e.operands) == 0 {
				return Value{}, e.invariantf("operand stack underflow in fix")
			}
			top := e.operands[len(e.operands)-1]
			if !top.IsClosure() {
				return Value{}, e.invariantf("fix: %s is not a closure", top)
			}
			top.Closure().Captures[1] = top

		case OpJump:
			frame.pc = int(in.Arg)

		case OpJumpFalse:
			v, ok := e.pop()
			if !ok {
				return Value{}, e.invariantf("operand stack underflow in conditional jump")
			}
			if !v.IsBoolean() {
				return Value{}, e.invariantf("conditional jump on non-boolean %s", v)
			}
			if !v.Bool() {
				frame.pc = int(in.Arg)
			}

		default:
			return Value{}, e.invariantf("unknown opcode 0x%02X at %d", byte(in.Op), frame.pc-1)
		}
	}
	return Value{}, e.invariantf("call stack exhausted without HALT")
}

// applyBuiltin evaluates a two-operand builtin. Operands must agree in
// kind: two numbers or two floats. There is no coercion.
func (e *Evaluator) applyBuiltin(op Builtin, left, right Value) (Value, error) {
	switch op {
	case BuiltinSum:
		if left.IsNumber() && right.IsNumber() {
			return FromNumber(left.Number() + right.Number()), nil
		}
		if left.IsFloating() && right.IsFloating() {
			return FromFloating(left.Floating() + right.Floating()), nil
		}
	case BuiltinSub:
		if left.IsNumber() && right.IsNumber() {
			return FromNumber(left.Number() - right.Number()), nil
		}
		if left.IsFloating() && right.IsFloating() {
			return FromFloating(left.Floating() - right.Floating()), nil
		}
	case BuiltinLessThan:
		if left.IsNumber() && right.IsNumber() {
			return FromBool(left.Number() < right.Number()), nil
		}
		if left.IsFloating() && right.IsFloating() {
			return FromBool(left.Floating() < right.Floating()), nil
		}
	default:
		return Value{}, e.invariantf("unknown builtin %d", int32(op))
	}
	return Value{}, e.invariantf("builtin %s: operand kind mismatch (%s, %s)", op, left, right)
}
