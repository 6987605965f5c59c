package main

import "testing"

// A binding inserted in a child scope must not be visible in its
// parent once the child scope is discarded (spec.md §8 Testable
// Properties: "Lexical scope").
func TestEnvChildScopeDoesNotLeakIntoParent(t *testing.T) {
	parent := newEnv(nil)
	parent.set("x", newString("outer", false))

	child := newEnv(parent)
	child.set("y", newString("inner", false))

	if _, ok := parent.lookupLocal("y"); ok {
		t.Fatalf("child's binding leaked into the parent frame")
	}
	if got := parent.lookup("y"); objKind(got) != "Null" {
		t.Fatalf("parent.lookup(y) = %v, want Null after child scope is gone", got)
	}
	if got := child.lookup("x"); objKind(got) != "StringList" {
		t.Fatalf("child could not see parent's binding through the chain")
	}
}

// findFrame locates the frame owning a name anywhere up the chain, so
// that `+=` inside a nested scope mutates the outer binding rather
// than creating a new shadowing one (env.go's own rationale, exercised
// end-to-end by eval_test.go's TestEvalLoopAccumulatesIntoOuterScope).
func TestEnvFindFrameWalksChain(t *testing.T) {
	outer := newEnv(nil)
	outer.set("objs", newString("a", false))
	inner := newEnv(outer)

	frame := inner.findFrame("objs")
	if frame != outer {
		t.Fatalf("findFrame returned %v, want the outer frame", frame)
	}
	if frame := inner.findFrame("nope"); frame != nil {
		t.Fatalf("findFrame found a frame for an unbound name")
	}
}

func TestConcatEnvChainsTailward(t *testing.T) {
	a := newEnv(nil)
	a.set("x", newString("1", false))
	b := newEnv(nil)
	b.set("y", newString("2", false))

	merged := concatEnv(a, b)
	if got := merged.lookup("y"); objToTextOrPanic(got) != "2" {
		t.Errorf("merged.lookup(y) = %v, want 2", got)
	}
	if got := merged.lookup("x"); objToTextOrPanic(got) != "1" {
		t.Errorf("merged.lookup(x) = %v, want 1", got)
	}
}

func objToTextOrPanic(o Obj) string {
	s, err := objToText(o, Location{})
	if err != nil {
		panic(err)
	}
	return s
}

func TestAddObjConcatenatesStringLists(t *testing.T) {
	merged, err := addObj(Location{}, sl("a", "b"), sl("c"))
	if err != nil {
		t.Fatalf("addObj: %v", err)
	}
	got := textsOf(merged.(*StringList))
	want := []string{"a", "b", "c"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got %v, want %v", got, want)
		}
	}
}

func TestAddObjNullTreatedAsIdentity(t *testing.T) {
	merged, err := addObj(Location{}, Null{}, sl("a"))
	if err != nil {
		t.Fatalf("addObj: %v", err)
	}
	got, ok := merged.(*StringList)
	if !ok || len(got.Items) != 1 || got.Items[0].Text != "a" {
		t.Fatalf("got %v, want a one-element StringList [a]", merged)
	}
}

func TestAddObjMismatchedShapesIsTypeError(t *testing.T) {
	_, err := addObj(Location{}, sl("a"), newEnv(nil))
	if _, ok := err.(*TypeError); !ok {
		t.Fatalf("got %T, want *TypeError", err)
	}
}
