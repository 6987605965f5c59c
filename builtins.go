package main

import "strings"

// builtins is the dispatch table for `${recv.name(args...)}` calls
// reached from expand.go's evalBraceExpr.
var builtins = map[string]func(loc Location, recv Obj, args []Obj) (Obj, error){
	"sub": builtinSub,
	"pat": builtinPat,
}

// singleElement requires o to be a one-element StringList, the arity
// required of `.sub`'s needle/replacement arguments.
func singleElement(o Obj, loc Location, what string) (string, error) {
	sl, ok := o.(*StringList)
	if !ok || len(sl.Items) != 1 {
		return "", typeErr(loc, "%s must be a single-element list", what)
	}
	return sl.Items[0].Text, nil
}

// builtinSub implements `.sub(haystack, needle, replacement)`: plain
// substring replacement over every element of haystack, preserving
// each element's spec flag.
func builtinSub(loc Location, recv Obj, args []Obj) (Obj, error) {
	haystack, ok := recv.(*StringList)
	if !ok {
		return nil, typeErr(loc, ".sub requires a StringList receiver, got %s", objKind(recv))
	}
	if len(args) != 2 {
		return nil, arityErr(loc, ".sub expects 2 arguments, got %d", len(args))
	}
	needle, err := singleElement(args[0], loc, ".sub needle")
	if err != nil {
		return nil, err
	}
	repl, err := singleElement(args[1], loc, ".sub replacement")
	if err != nil {
		return nil, err
	}

	out := &StringList{Items: make([]Str, len(haystack.Items))}
	for i, it := range haystack.Items {
		out.Items[i] = Str{Text: strings.ReplaceAll(it.Text, needle, repl), Spec: it.Spec}
	}
	return out, nil
}

// builtinPat implements `.pat(list, pattern, replacement)`: a `%`
// pattern rewrite, matching a single `%` wildcard against each element
// and substituting the captured middle into the replacement's own `%`.
func builtinPat(loc Location, recv Obj, args []Obj) (Obj, error) {
	list, ok := recv.(*StringList)
	if !ok {
		return nil, typeErr(loc, ".pat requires a StringList receiver, got %s", objKind(recv))
	}
	if len(args) != 2 {
		return nil, arityErr(loc, ".pat expects 2 arguments, got %d", len(args))
	}
	pattern, err := singleElement(args[0], loc, ".pat pattern")
	if err != nil {
		return nil, err
	}
	repl, err := singleElement(args[1], loc, ".pat replacement")
	if err != nil {
		return nil, err
	}

	prefix, suffix, ok := strings.Cut(pattern, "%")
	if !ok || strings.Contains(suffix, "%") {
		return nil, typeErr(loc, ".pat pattern must contain exactly one `%%`")
	}
	replPrefix, replSuffix, replHasWild := strings.Cut(repl, "%")

	out := &StringList{Items: make([]Str, len(list.Items))}
	for i, it := range list.Items {
		if len(it.Text) >= len(prefix)+len(suffix) &&
			strings.HasPrefix(it.Text, prefix) && strings.HasSuffix(it.Text, suffix) {
			mid := it.Text[len(prefix) : len(it.Text)-len(suffix)]
			text := repl
			if replHasWild {
				text = replPrefix + mid + replSuffix
			}
			out.Items[i] = Str{Text: text, Spec: it.Spec}
		} else {
			out.Items[i] = it
		}
	}
	return out, nil
}
