package vm

import "testing"

func TestValueZeroIsBottom(t *testing.T) {
	var v Value
	if !v.IsBottom() {
		t.Error("zero Value is not bottom")
	}
	if v != Bottom {
		t.Error("zero Value differs from Bottom")
	}
}

func TestValueRendering(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{FromNumber(42), "Number 42"},
		{FromNumber(-7), "Number -7"},
		{FromFloating(3.14), "Floating 3.14"},
		{FromFloating(2), "Floating 2"},
		{FromBool(true), "boolean true"},
		{FromBool(false), "boolean false"},
		{Bottom, "<infinite-loop>"},
		{FromClosure(&Closure{}), "<closure []>"},
	}

	for _, tt := range tests {
		if got := tt.v.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestClosureRenderingSorted(t *testing.T) {
	cl := &Closure{Captures: map[int]Value{
		3: FromBool(true),
		1: FromNumber(5),
		2: FromFloating(1.5),
	}}
	want := "<closure [1 := Number 5, 2 := Floating 1.5, 3 := boolean true]>"
	if got := cl.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestClosureRenderingSelf(t *testing.T) {
	cl := &Closure{Captures: map[int]Value{}}
	cl.Captures[1] = FromClosure(cl)
	if got := cl.String(); got != "<closure [1 := <self>]>" {
		t.Errorf("String() = %q, want self-referential render", got)
	}
}

func TestClosureClone(t *testing.T) {
	cl := &Closure{Fn: 1, Entry: 2, BodyEnd: 5, Captures: map[int]Value{1: FromNumber(10)}}
	dup := cl.Clone()

	dup.Captures[1] = FromNumber(20)
	if cl.Captures[1].Number() != 10 {
		t.Error("mutating the clone's captures changed the original")
	}
	if dup.Fn != cl.Fn || dup.Entry != cl.Entry || dup.BodyEnd != cl.BodyEnd {
		t.Error("clone does not share the code range")
	}
}

func TestValueAccessorPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Number() on a boolean did not panic")
		}
	}()
	FromBool(true).Number()
}
