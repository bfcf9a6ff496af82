package vm

import (
	"fmt"
	"sort"
	"strings"
)

// ---------------------------------------------------------------------------
// Value: the runtime tagged union
// ---------------------------------------------------------------------------

// ValueKind discriminates the variants of Value.
type ValueKind uint8

const (
	// KindBottom is the zero value: the "not yet available / divergent"
	// sentinel used by the fixpoint protocol.
	KindBottom ValueKind = iota
	KindNumber
	KindFloating
	KindBoolean
	KindClosure
)

// Value is a runtime value: a closure, the bottom sentinel, an integer,
// a float, or a boolean. The zero Value is Bottom.
type Value struct {
	kind ValueKind
	num  int64
	flo  float64
	boo  bool
	cl   *Closure
}

// Bottom is the divergence sentinel.
var Bottom = Value{kind: KindBottom}

// Closure pairs a function's inline code range with the captured values
// of its free variables. Captures is sparse: it holds only the
// body-relative addresses the function actually references (address 0,
// the function's own argument, lives on the environment stack instead).
// Closures are shared by pointer, so the single FIX patch of the capture
// map is visible to every holder.
type Closure struct {
	Fn       int // function pool index
	Entry    int // first instruction of the body
	BodyEnd  int // address of the body's terminating HALT
	Captures map[int]Value
}

// Clone returns a copy of the closure with its own capture map. The code
// range is shared; the captured values are copied.
func (c *Closure) Clone() *Closure {
	caps := make(map[int]Value, len(c.Captures))
	for k, v := range c.Captures {
		caps[k] = v
	}
	return &Closure{Fn: c.Fn, Entry: c.Entry, BodyEnd: c.BodyEnd, Captures: caps}
}

// ---------------------------------------------------------------------------
// Constructors
// ---------------------------------------------------------------------------

// FromNumber creates an integer value.
func FromNumber(n int64) Value {
	return Value{kind: KindNumber, num: n}
}

// FromFloating creates a float value.
func FromFloating(f float64) Value {
	return Value{kind: KindFloating, flo: f}
}

// FromBool creates a boolean value.
func FromBool(b bool) Value {
	return Value{kind: KindBoolean, boo: b}
}

// FromClosure creates a closure value.
func FromClosure(c *Closure) Value {
	return Value{kind: KindClosure, cl: c}
}

// ---------------------------------------------------------------------------
// Type checking
// ---------------------------------------------------------------------------

// Kind returns the value's variant tag.
func (v Value) Kind() ValueKind { return v.kind }

// IsBottom returns true if v is the bottom sentinel.
func (v Value) IsBottom() bool { return v.kind == KindBottom }

// IsNumber returns true if v is an integer.
func (v Value) IsNumber() bool { return v.kind == KindNumber }

// IsFloating returns true if v is a float.
func (v Value) IsFloating() bool { return v.kind == KindFloating }

// IsBoolean returns true if v is a boolean.
func (v Value) IsBoolean() bool { return v.kind == KindBoolean }

// IsClosure returns true if v is a closure.
func (v Value) IsClosure() bool { return v.kind == KindClosure }

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

// Number returns v as an int64. Panics if v is not a number.
func (v Value) Number() int64 {
	if v.kind != KindNumber {
		panic("Value.Number: not a number")
	}
	return v.num
}

// Floating returns v as a float64. Panics if v is not a float.
func (v Value) Floating() float64 {
	if v.kind != KindFloating {
		panic("Value.Floating: not a float")
	}
	return v.flo
}

// Bool returns v as a bool. Panics if v is not a boolean.
func (v Value) Bool() bool {
	if v.kind != KindBoolean {
		panic("Value.Bool: not a boolean")
	}
	return v.boo
}

// Closure returns the closure held by v. Panics if v is not a closure.
func (v Value) Closure() *Closure {
	if v.kind != KindClosure {
		panic("Value.Closure: not a closure")
	}
	return v.cl
}

// ---------------------------------------------------------------------------
// Rendering
// ---------------------------------------------------------------------------

// String renders the value in the output format of the evaluator:
// "Number <n>", "Floating <f>", "boolean <b>", "<infinite-loop>" for
// bottom, and "<closure [addr := value, ...]>" with capture addresses
// in ascending order.
func (v Value) String() string {
	switch v.kind {
	case KindBottom:
		return "<infinite-loop>"
	case KindNumber:
		return fmt.Sprintf("Number %d", v.num)
	case KindFloating:
		return fmt.Sprintf("Floating %g", v.flo)
	case KindBoolean:
		return fmt.Sprintf("boolean %t", v.boo)
	case KindClosure:
		return v.cl.String()
	default:
		panic(fmt.Sprintf("Value.String: unknown kind %d", v.kind))
	}
}

// String renders the closure's capture map in ascending address order.
// A self-referential capture (the fixpoint self-reference) is rendered
// as "<self>" to keep the output finite.
func (c *Closure) String() string {
	addrs := make([]int, 0, len(c.Captures))
	for addr := range c.Captures {
		addrs = append(addrs, addr)
	}
	sort.Ints(addrs)

	var sb strings.Builder
	sb.WriteString("<closure [")
	for i, addr := range addrs {
		if i > 0 {
			sb.WriteString(", ")
		}
		val := c.Captures[addr]
		if val.IsClosure() && val.cl == c {
			fmt.Fprintf(&sb, "%d := <self>", addr)
		} else {
			fmt.Fprintf(&sb, "%d := %s", addr, val)
		}
	}
	sb.WriteString("]>")
	return sb.String()
}
