package compiler

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/Franciman/telescope/vm"
)

// ---------------------------------------------------------------------------
// Codegen: Compile AST to bytecode
// ---------------------------------------------------------------------------

// Compiler walks the AST depth-first, drives the naming context, and
// appends instructions to the growing program. Every error is fatal: no
// partial program is ever returned. The compiler is discarded after one
// compilation unit.
type Compiler struct {
	names *NamingContext
	b     *vm.ProgramBuilder
}

// NewCompiler creates a compiler with a fresh naming context and
// program builder.
func NewCompiler() *Compiler {
	return &Compiler{
		names: NewNamingContext(),
		b:     vm.NewProgramBuilder(),
	}
}

// Compile translates an AST into an executable program. The tree is
// consumed read-only and not retained.
func Compile(expr Expr) (*vm.Program, error) {
	c := NewCompiler()
	if err := c.compileExpr(expr); err != nil {
		return nil, err
	}
	c.b.Emit(vm.OpHalt)
	return c.b.Build(), nil
}

// CompileSource parses and compiles a source string.
func CompileSource(source string) (*vm.Program, error) {
	expr, err := ParseExpr(source)
	if err != nil {
		return nil, err
	}
	return Compile(expr)
}

func (c *Compiler) compileExpr(expr Expr) error {
	switch e := expr.(type) {
	case *IntLit:
		v, err := strconv.ParseInt(e.Text, 10, 64)
		if err != nil {
			return fmt.Errorf("malformed integer literal %q: %w", e.Text, err)
		}
		c.b.EmitArg(vm.OpPushInt, int32(c.b.InternInt(v)))
		return nil

	case *FloatLit:
		v, err := strconv.ParseFloat(e.Text, 64)
		if err != nil {
			return fmt.Errorf("malformed float literal %q: %w", e.Text, err)
		}
		c.b.EmitArg(vm.OpPushFloat, int32(c.b.InternFloat(v)))
		return nil

	case *BoolLit:
		if e.Value {
			c.b.Emit(vm.OpPushTrue)
		} else {
			c.b.Emit(vm.OpPushFalse)
		}
		return nil

	case *Ident:
		addr, err := c.names.Lookup(e.Name)
		if err != nil {
			return err
		}
		c.b.EmitArg(vm.OpPushVar, int32(addr))
		return nil

	case *Lambda:
		free := FreeVars(e)
		return c.compileCurried(e.Params, e.Body, free)

	case *BuiltinApply:
		// Operand stack order matters: left is pushed first.
		if err := c.compileExpr(e.Left); err != nil {
			return err
		}
		if err := c.compileExpr(e.Right); err != nil {
			return err
		}
		c.b.EmitArg(vm.OpCallBuiltin, int32(builtinCode(e.Op)))
		return nil

	case *Apply:
		// Curried call sites: each apply consumes one argument and the
		// current function (or intermediate result) from the operand
		// stack, so arguments compile interleaved with their applies.
		if err := c.compileExpr(e.Fn); err != nil {
			return err
		}
		for _, arg := range e.Args {
			if err := c.compileExpr(arg); err != nil {
				return err
			}
			c.b.Emit(vm.OpApply)
		}
		return nil

	case *Fix:
		if err := c.compileExpr(e.Body); err != nil {
			return err
		}
		c.b.Emit(vm.OpFixApBottom)
		c.b.Emit(vm.OpFix)
		return nil

	case *If:
		if err := c.compileExpr(e.Cond); err != nil {
			return err
		}
		jumpToElse := c.b.EmitJump(vm.OpJumpFalse)
		if err := c.compileExpr(e.Then); err != nil {
			return err
		}
		jumpToEnd := c.b.EmitJump(vm.OpJump)
		c.b.PatchJump(jumpToElse)
		if err := c.compileExpr(e.Else); err != nil {
			return err
		}
		c.b.PatchJump(jumpToEnd)
		return nil

	default:
		return fmt.Errorf("unknown expression type: %T", expr)
	}
}

// compileCurried compiles an N-parameter lambda into N nested
// single-argument closures. free holds the names the current level must
// close over; each level extends it with its own parameter so the next
// level captures it.
func (c *Compiler) compileCurried(params []string, body Expr, free map[string]struct{}) error {
	if len(params) == 0 {
		return c.compileExpr(body)
	}

	captures, err := c.resolveCaptures(free)
	if err != nil {
		return err
	}
	fnIdx := c.b.AddFunction(captures)
	c.b.EmitArg(vm.OpLambda, int32(fnIdx))
	c.b.SetFunctionEntry(fnIdx, c.b.Here())

	if err := c.names.EnterScope(params[0]); err != nil {
		return err
	}

	inner := make(map[string]struct{}, len(free)+1)
	for name := range free {
		inner[name] = struct{}{}
	}
	inner[params[0]] = struct{}{}

	if err := c.compileCurried(params[1:], body, inner); err != nil {
		return err
	}

	c.b.CloseFunction(fnIdx, c.b.Emit(vm.OpHalt))
	return c.names.ExitScope(params[0])
}

// resolveCaptures converts a free-name set to a sorted, duplicate-free
// list of relative addresses as seen from the creation site.
func (c *Compiler) resolveCaptures(free map[string]struct{}) ([]int, error) {
	names := make([]string, 0, len(free))
	for name := range free {
		names = append(names, name)
	}
	sort.Strings(names)

	seen := make(map[int]struct{}, len(names))
	addrs := make([]int, 0, len(names))
	for _, name := range names {
		addr, err := c.names.Lookup(name)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[addr]; dup {
			continue
		}
		seen[addr] = struct{}{}
		addrs = append(addrs, addr)
	}
	sort.Ints(addrs)
	return addrs, nil
}

// builtinCode maps the AST operator to its VM encoding.
func builtinCode(op BuiltinOp) vm.Builtin {
	switch op {
	case BuiltinSum:
		return vm.BuiltinSum
	case BuiltinSub:
		return vm.BuiltinSub
	case BuiltinLessThan:
		return vm.BuiltinLessThan
	default:
		panic(fmt.Sprintf("builtinCode: unknown operator %d", op))
	}
}
