package compiler

import (
	"fmt"
	"testing"

	"github.com/Franciman/telescope/vm"
)

func evalSource(t *testing.T, source string) vm.Value {
	t.Helper()
	p, err := CompileSource(source)
	if err != nil {
		t.Fatalf("compile %q: %v", source, err)
	}
	result, err := vm.NewEvaluator(p).Run()
	if err != nil {
		t.Fatalf("run %q: %v", source, err)
	}
	return result
}

func TestEvalArithmetic(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{"(#builtin_+ 2 3)", "Number 5"},
		{"(#builtin_- 10 3)", "Number 7"},
		{"(#builtin_- 3 10)", "Number -7"},
		{"(#builtin_< 2 3)", "boolean true"},
		{"(#builtin_< 3 2)", "boolean false"},
		{"(#builtin_+ 1.5 2.25)", "Floating 3.75"},
		{"(#builtin_< 1.5 2.5)", "boolean true"},
		{"(#builtin_+ (#builtin_+ 1 2) (#builtin_+ 3 4))", "Number 10"},
	}

	for _, tt := range tests {
		if got := evalSource(t, tt.source).String(); got != tt.want {
			t.Errorf("%s = %s, want %s", tt.source, got, tt.want)
		}
	}
}

func TestEvalCurriedApplication(t *testing.T) {
	got := evalSource(t, "((lambda (x y) (#builtin_- x y)) 10 3)")
	if got.String() != "Number 7" {
		t.Errorf("result = %s, want Number 7", got)
	}
}

func TestEvalCurryingEquivalence(t *testing.T) {
	// A multi-parameter lambda applied to all arguments at once behaves
	// exactly like the explicit chain of single-parameter lambdas.
	multi := evalSource(t, "((lambda (x y) (#builtin_- x y)) 10 3)")
	nested := evalSource(t, "(((lambda (x) (lambda (y) (#builtin_- x y))) 10) 3)")
	if multi != nested {
		t.Errorf("multi-parameter form = %s, nested form = %s", multi, nested)
	}
}

func TestEvalPartialApplication(t *testing.T) {
	got := evalSource(t, "((lambda (x y) (#builtin_- x y)) 10)")
	if !got.IsClosure() {
		t.Errorf("partial application = %s, want a closure", got)
	}
}

func TestEvalShadowing(t *testing.T) {
	got := evalSource(t, "((lambda (x) ((lambda (x) x) 2)) 1)")
	if got.String() != "Number 2" {
		t.Errorf("result = %s, want Number 2", got)
	}
}

func TestEvalClosureRendering(t *testing.T) {
	// The captured x sits two scopes away from the innermost body, so it
	// renders under relative address 2.
	got := evalSource(t, "(((lambda (x) (lambda (y) (lambda (z) x))) 5) 6)")
	if got.String() != "<closure [2 := Number 5]>" {
		t.Errorf("result = %s, want <closure [2 := Number 5]>", got)
	}
}

const sumSource = `((fix (lambda (self)
        (lambda (n)
          (if (#builtin_< n 1)
              0
              (#builtin_+ n (self (#builtin_- n 1)))))))
 %d)`

func TestEvalFixpointSum(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, "Number 0"},
		{1, "Number 1"},
		{10, "Number 55"},
		{100, "Number 5050"},
	}

	for _, tt := range tests {
		source := fmt.Sprintf(sumSource, tt.n)
		if got := evalSource(t, source).String(); got != tt.want {
			t.Errorf("sum(%d) = %s, want %s", tt.n, got, tt.want)
		}
	}
}

func TestEvalFixpointDivergence(t *testing.T) {
	got := evalSource(t, "(fix (lambda (s) s))")
	if !got.IsBottom() {
		t.Errorf("result = %s, want <infinite-loop>", got)
	}
}

func TestEvalIfEvaluatesOneBranch(t *testing.T) {
	// The untaken branch holds a divergent expression; if both branches
	// ran, the result would be bottom.
	got := evalSource(t, "(if true 1 (fix (lambda (s) s)))")
	if got.String() != "Number 1" {
		t.Errorf("true condition: result = %s, want Number 1", got)
	}

	got = evalSource(t, "(if false (fix (lambda (s) s)) 2)")
	if got.String() != "Number 2" {
		t.Errorf("false condition: result = %s, want Number 2", got)
	}
}

func TestEvalIfWithComputedCondition(t *testing.T) {
	got := evalSource(t, "(if (#builtin_< 1 2) (#builtin_+ 1 1) (#builtin_+ 2 2))")
	if got.String() != "Number 2" {
		t.Errorf("result = %s, want Number 2", got)
	}
}

func TestEvalHigherOrder(t *testing.T) {
	// Pass a function as an argument and call it twice.
	got := evalSource(t, `((lambda (f x) (f (f x)))
	                      (lambda (n) (#builtin_+ n 1))
	                      0)`)
	if got.String() != "Number 2" {
		t.Errorf("result = %s, want Number 2", got)
	}
}

func TestEvalDeterministic(t *testing.T) {
	p, err := CompileSource(fmt.Sprintf(sumSource, 10))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	first, err := vm.NewEvaluator(p).Run()
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := vm.NewEvaluator(p).Run()
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if first.String() != second.String() {
		t.Errorf("runs of the same program differ: %s vs %s", first, second)
	}
}
