package compiler

import (
	"errors"
	"fmt"
)

// Scope resolution errors. All are fatal to compilation.
var (
	// ErrUnboundName indicates a reference to a name with no enclosing binding.
	ErrUnboundName = errors.New("unbound name")
	// ErrDepthOverflow indicates the relative address space is exhausted.
	ErrDepthOverflow = errors.New("scope depth overflow")
	// ErrDepthUnderflow indicates a scope exit with no scope open.
	ErrDepthUnderflow = errors.New("scope depth underflow")
)

// MaxScopeDepth bounds the number of simultaneously open lambda scopes,
// keeping every relative address representable as a small unsigned
// integer.
const MaxScopeDepth = 1 << 16

// ---------------------------------------------------------------------------
// NamingContext: De Bruijn scope resolver
// ---------------------------------------------------------------------------

// NamingContext converts lexical names to relative (De Bruijn) addresses
// during compilation. Each name maps to a LIFO stack of binding depths,
// so shadowing resolves to the innermost binding. The context is created
// once per compilation unit, mutated only during the depth-first walk of
// the AST, and discarded afterwards.
type NamingContext struct {
	bindings map[string][]int // name -> stack of binding depths
	depth    int              // number of currently-open lambda scopes
}

// NewNamingContext creates an empty naming context.
func NewNamingContext() *NamingContext {
	return &NamingContext{
		bindings: make(map[string][]int),
	}
}

// Depth returns the number of currently-open lambda scopes.
func (c *NamingContext) Depth() int {
	return c.depth
}

// EnterScope registers a new innermost binding for name and opens its
// scope.
func (c *NamingContext) EnterScope(name string) error {
	if c.depth >= MaxScopeDepth {
		return fmt.Errorf("%w: binding %q at depth %d", ErrDepthOverflow, name, c.depth)
	}
	c.bindings[name] = append(c.bindings[name], c.depth)
	c.depth++
	return nil
}

// Lookup returns the relative address of the nearest enclosing binding
// of name: the number of scopes between the reference and its binding
// (0 = bound by the innermost open scope).
func (c *NamingContext) Lookup(name string) (int, error) {
	stack := c.bindings[name]
	if len(stack) == 0 {
		return 0, fmt.Errorf("%w: %s", ErrUnboundName, name)
	}
	return c.depth - (stack[len(stack)-1] + 1), nil
}

// ExitScope removes the innermost binding for name and closes its scope.
func (c *NamingContext) ExitScope(name string) error {
	if c.depth == 0 {
		return fmt.Errorf("%w: exiting scope of %q", ErrDepthUnderflow, name)
	}
	stack := c.bindings[name]
	if len(stack) == 0 {
		return fmt.Errorf("%w: no open binding for %q", ErrDepthUnderflow, name)
	}
	c.bindings[name] = stack[:len(stack)-1]
	c.depth--
	return nil
}

// ---------------------------------------------------------------------------
// Free-variable analysis
// ---------------------------------------------------------------------------

// FreeVars computes the set of identifiers referenced by expr but not
// bound within it. For a lambda this is the set of names its closures
// must capture from the enclosing environment. The analysis is purely
// syntactic and independent of the naming context.
func FreeVars(expr Expr) map[string]struct{} {
	free := make(map[string]struct{})
	collectFree(expr, make(map[string]int), free)
	return free
}

// collectFree walks expr, tracking bound names with an open-binding
// count so that shadowed re-bindings unwind correctly.
func collectFree(expr Expr, bound map[string]int, free map[string]struct{}) {
	switch e := expr.(type) {
	case *IntLit, *FloatLit, *BoolLit:
		// No names.
	case *Ident:
		if bound[e.Name] == 0 {
			free[e.Name] = struct{}{}
		}
	case *Lambda:
		for _, p := range e.Params {
			bound[p]++
		}
		collectFree(e.Body, bound, free)
		for _, p := range e.Params {
			bound[p]--
		}
	case *BuiltinApply:
		collectFree(e.Left, bound, free)
		collectFree(e.Right, bound, free)
	case *Apply:
		collectFree(e.Fn, bound, free)
		for _, arg := range e.Args {
			collectFree(arg, bound, free)
		}
	case *Fix:
		collectFree(e.Body, bound, free)
	case *If:
		collectFree(e.Cond, bound, free)
		collectFree(e.Then, bound, free)
		collectFree(e.Else, bound, free)
	}
}
