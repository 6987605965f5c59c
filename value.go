package main

// Obj is the runtime value produced by evaluating a Bind's RHS or
// expanding a raw string: either nothing, a list of strings (each
// possibly flagged as a SPEC/phony name), a nested environment, or a
// callable builtin.
type Obj interface {
	objNode()
}

// Null is the zero value of Obj: an unbound name's lookup result, or
// the result of `$<` with no dependencies.
type Null struct{}

func (Null) objNode() {}

// Str is one string value with its spec flag, the element type of a
// StringList.
type Str struct {
	Text string
	Spec bool
}

// StringList is the most common Obj: an ordered list of Str. A single
// string value is simply a one-element StringList.
type StringList struct {
	Items []Str
}

func (*StringList) objNode() {}

func newString(s string, spec bool) *StringList {
	return &StringList{Items: []Str{{Text: s, Spec: spec}}}
}

// Join renders the list as its recipe-visible form: elements separated
// by a single space.
func (sl *StringList) Join() string {
	if sl == nil {
		return ""
	}
	var out []byte
	for i, it := range sl.Items {
		if i > 0 {
			out = append(out, ' ')
		}
		out = append(out, it.Text...)
	}
	return string(out)
}

// concatStringList appends b's items after a's, returning a new list (values are
// immutable once produced by the expander).
func concatStringList(a, b *StringList) *StringList {
	out := &StringList{Items: make([]Str, 0, len(a.Items)+len(b.Items))}
	out.Items = append(out.Items, a.Items...)
	out.Items = append(out.Items, b.Items...)
	return out
}

// Function is a builtin callable reached via `.name(...)` suffix
// dispatch in the expander.
type Function struct {
	Name string
	Call func(loc Location, recv Obj, args []Obj) (Obj, error)
}

func (*Function) objNode() {}

// addObj implements `+=` binding semantics: list
// concatenation, env-chain concatenation, or a TypeError naming the two
// mismatched shapes.
func addObj(loc Location, existing, next Obj) (Obj, error) {
	switch e := existing.(type) {
	case *StringList:
		n, ok := next.(*StringList)
		if !ok {
			return nil, typeErr(loc, "cannot += a %s onto a StringList", objKind(next))
		}
		return concatStringList(e, n), nil
	case *Env:
		n, ok := next.(*Env)
		if !ok {
			return nil, typeErr(loc, "cannot += a %s onto an Env", objKind(next))
		}
		return concatEnv(e, n), nil
	case Null:
		return next, nil
	default:
		return nil, typeErr(loc, "cannot += onto a %s", objKind(existing))
	}
}

func objKind(o Obj) string {
	switch o.(type) {
	case Null:
		return "Null"
	case *StringList:
		return "StringList"
	case *Env:
		return "Env"
	case *Function:
		return "Function"
	default:
		return "?"
	}
}
