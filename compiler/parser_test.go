package compiler

import (
	"strings"
	"testing"
)

func parseOK(t *testing.T, source string) Expr {
	t.Helper()
	expr, err := ParseExpr(source)
	if err != nil {
		t.Fatalf("parse %q: %v", source, err)
	}
	return expr
}

func parseFail(t *testing.T, source, wantMsg string) {
	t.Helper()
	_, err := ParseExpr(source)
	if err == nil {
		t.Fatalf("parse %q succeeded, want error containing %q", source, wantMsg)
	}
	if !strings.Contains(err.Error(), wantMsg) {
		t.Errorf("parse %q: err = %v, want message containing %q", source, err, wantMsg)
	}
}

func TestParseLiterals(t *testing.T) {
	if lit, ok := parseOK(t, "42").(*IntLit); !ok || lit.Text != "42" {
		t.Error("42 did not parse as an integer literal")
	}
	if lit, ok := parseOK(t, "-17").(*IntLit); !ok || lit.Text != "-17" {
		t.Error("-17 did not parse as an integer literal")
	}
	if lit, ok := parseOK(t, "3.14").(*FloatLit); !ok || lit.Text != "3.14" {
		t.Error("3.14 did not parse as a float literal")
	}
	if lit, ok := parseOK(t, "true").(*BoolLit); !ok || !lit.Value {
		t.Error("true did not parse as a boolean literal")
	}
	if lit, ok := parseOK(t, "false").(*BoolLit); !ok || lit.Value {
		t.Error("false did not parse as a boolean literal")
	}
}

func TestParseIdentifier(t *testing.T) {
	id, ok := parseOK(t, "foo").(*Ident)
	if !ok || id.Name != "foo" {
		t.Error("foo did not parse as an identifier")
	}
}

func TestParseLambda(t *testing.T) {
	lam, ok := parseOK(t, "(lambda (x y) x)").(*Lambda)
	if !ok {
		t.Fatal("not a lambda")
	}
	if len(lam.Params) != 2 || lam.Params[0] != "x" || lam.Params[1] != "y" {
		t.Errorf("params = %v, want [x y]", lam.Params)
	}
	if body, ok := lam.Body.(*Ident); !ok || body.Name != "x" {
		t.Error("lambda body is not the identifier x")
	}
}

func TestParseBuiltinApply(t *testing.T) {
	tests := []struct {
		source string
		op     BuiltinOp
	}{
		{"(#builtin_+ 1 2)", BuiltinSum},
		{"(#builtin_- 1 2)", BuiltinSub},
		{"(#builtin_< 1 2)", BuiltinLessThan},
	}
	for _, tt := range tests {
		ba, ok := parseOK(t, tt.source).(*BuiltinApply)
		if !ok {
			t.Fatalf("%q is not a builtin application", tt.source)
		}
		if ba.Op != tt.op {
			t.Errorf("%q: op = %v, want %v", tt.source, ba.Op, tt.op)
		}
	}
}

func TestParseApply(t *testing.T) {
	app, ok := parseOK(t, "(f 1 2 3)").(*Apply)
	if !ok {
		t.Fatal("not an application")
	}
	if fn, ok := app.Fn.(*Ident); !ok || fn.Name != "f" {
		t.Error("applied function is not f")
	}
	if len(app.Args) != 3 {
		t.Errorf("arg count = %d, want 3", len(app.Args))
	}
}

func TestParseFix(t *testing.T) {
	fix, ok := parseOK(t, "(fix (lambda (self) self))").(*Fix)
	if !ok {
		t.Fatal("not a fix form")
	}
	if _, ok := fix.Body.(*Lambda); !ok {
		t.Error("fix body is not a lambda")
	}
}

func TestParseIf(t *testing.T) {
	iff, ok := parseOK(t, "(if true 1 2)").(*If)
	if !ok {
		t.Fatal("not an if form")
	}
	if _, ok := iff.Cond.(*BoolLit); !ok {
		t.Error("condition is not a boolean literal")
	}
	if _, ok := iff.Then.(*IntLit); !ok {
		t.Error("then branch is not an integer literal")
	}
	if _, ok := iff.Else.(*IntLit); !ok {
		t.Error("else branch is not an integer literal")
	}
}

func TestParseNested(t *testing.T) {
	source := `((fix (lambda (self)
	               (lambda (n)
	                 (if (#builtin_< n 1) 0 (self (#builtin_- n 1))))))
	            10)`
	app, ok := parseOK(t, source).(*Apply)
	if !ok {
		t.Fatal("not an application")
	}
	if _, ok := app.Fn.(*Fix); !ok {
		t.Error("applied function is not a fix form")
	}
}

func TestParseErrors(t *testing.T) {
	parseFail(t, "()", "empty application")
	parseFail(t, "(f)", "at least one argument")
	parseFail(t, "(lambda () x)", "at least one parameter")
	parseFail(t, "(#builtin_mul 1 2)", "unknown builtin")
	parseFail(t, "(#builtin_* 1 2)", "malformed builtin")
	parseFail(t, "1 2", "trailing input")
	parseFail(t, "(f 1", "expected")
	parseFail(t, "@", "unexpected character")
}
