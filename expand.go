// String interpolation: turns a RawString's lexed-but-unexpanded text
// into a runtime Obj.

package main

import (
	"strings"
	"unicode/utf8"
)

// evalCtx is the ambient state the expander needs beyond the raw text
// itself: the active scope, the rule currently being expanded (for
// `$@ $^ $< $*`), the selected `dir` directory (for `$~`), and the
// whole context (for `$*`, which ranges over every rule in it).
type evalCtx struct {
	env  *Env
	rule *Rule
	dir  string
	ctxt *Context
}

func (ec *evalCtx) withEnv(env *Env) *evalCtx {
	cp := *ec
	cp.env = env
	return &cp
}

// expandImm expands every raw string in im and concatenates the
// results into one StringList, except that a single-element Imm passes
// its raw's expansion through unchanged (so a bare `${envvar}` can
// still yield an Env rather than being forced into a StringList).
func (ec *evalCtx) expandImm(im *Imm) (Obj, error) {
	if im.Len() == 1 {
		return ec.expandRaw(im.Raw[0])
	}
	var items []Str
	for _, r := range im.Raw {
		v, err := ec.expandRaw(r)
		if err != nil {
			return nil, err
		}
		sl, ok := v.(*StringList)
		if !ok {
			return nil, typeErr(r.Loc, "cannot use a %s inside a multi-word list", objKind(v))
		}
		items = append(items, sl.Items...)
	}
	return &StringList{Items: items}, nil
}

// expandRaw implements the "single-word rule": if the whole
// raw is one `${...}`/special-var reference evaluating to something
// other than a StringList, that value is returned unchanged; otherwise
// every part is flattened to one string and wrapped as a one-element
// StringList carrying the raw's spec flag.
func (ec *evalCtx) expandRaw(r *RawString) (Obj, error) {
	parts, err := ec.scan(r.Text, r.Loc)
	if err != nil {
		return nil, err
	}

	if len(parts) == 1 {
		if obj, ok := parts[0].(Obj); ok {
			if _, isList := obj.(*StringList); !isList {
				return obj, nil
			}
		}
	}

	var b strings.Builder
	for _, p := range parts {
		switch v := p.(type) {
		case string:
			b.WriteString(v)
		case Obj:
			s, err := objToText(v, r.Loc)
			if err != nil {
				return nil, err
			}
			b.WriteString(s)
		}
	}
	return newString(b.String(), r.Spec), nil
}

// expandText is expandRaw's engine applied to a bare string with no
// RawString wrapper, used for `${f(arg, arg)}` argument expansion.
func (ec *evalCtx) expandText(text string, loc Location) (Obj, error) {
	return ec.expandRaw(&RawString{Text: text, Loc: loc})
}

func objToText(o Obj, loc Location) (string, error) {
	switch v := o.(type) {
	case Null:
		return "", nil
	case *StringList:
		return v.Join(), nil
	default:
		return "", typeErr(loc, "cannot use a %s in a string context", objKind(o))
	}
}

// scan walks text, splitting it into literal runs and evaluated `$…`
// references, honoring `'…'` (verbatim) and `"…"` (still `$`-expanded)
// quoting and backslash escapes along the way.
func (ec *evalCtx) scan(text string, loc Location) ([]any, error) {
	var parts []any
	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			parts = append(parts, lit.String())
			lit.Reset()
		}
	}

	i := 0
	for i < len(text) {
		c, w := utf8.DecodeRuneInString(text[i:])
		switch c {
		case '\\':
			i += w
			if i >= len(text) {
				return nil, lexErr(loc, "unterminated escape")
			}
			e, w2 := utf8.DecodeRuneInString(text[i:])
			ch, err := resolveEscape(e)
			if err != nil {
				return nil, lexErr(loc, "unknown escape %q", e)
			}
			lit.WriteString(ch)
			i += w2

		case '\'':
			i += w
			end := findQuoteEnd(text[i:], '\'')
			if end < 0 {
				return nil, lexErr(loc, "unterminated quote")
			}
			lit.WriteString(text[i : i+end])
			i += end + 1

		case '"':
			i += w
			end := findQuoteEnd(text[i:], '"')
			if end < 0 {
				return nil, lexErr(loc, "unterminated quote")
			}
			inner, err := ec.scan(text[i:i+end], loc)
			if err != nil {
				return nil, err
			}
			for _, p := range inner {
				if s, ok := p.(string); ok {
					lit.WriteString(s)
				} else {
					flush()
					parts = append(parts, p)
				}
			}
			i += end + 1

		case '$':
			i += w
			if i >= len(text) {
				return nil, lexErr(loc, "invalid variable sigil")
			}
			c2, w2 := utf8.DecodeRuneInString(text[i:])
			switch {
			case c2 == '{':
				i += w2
				end := findBraceEnd(text[i:])
				if end < 0 {
					return nil, lexErr(loc, "unterminated ${...}")
				}
				obj, err := ec.evalBraceExpr(text[i:i+end], loc)
				if err != nil {
					return nil, err
				}
				flush()
				parts = append(parts, obj)
				i += end + 1

			case strings.ContainsRune("@^<*~", c2):
				i += w2
				obj, err := ec.specialVar(c2, loc)
				if err != nil {
					return nil, err
				}
				flush()
				parts = append(parts, obj)

			default:
				start := i
				for i < len(text) {
					c3, w3 := utf8.DecodeRuneInString(text[i:])
					if !isIdentRune(c3, i > start) {
						break
					}
					i += w3
				}
				if i == start {
					return nil, lexErr(loc, "invalid variable sigil %q", c2)
				}
				flush()
				parts = append(parts, ec.env.lookup(text[start:i]))
			}

		default:
			lit.WriteRune(c)
			i += w
		}
	}
	flush()
	return parts, nil
}

func isIdentRune(c rune, notFirst bool) bool {
	switch {
	case c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z'):
		return true
	case notFirst && c >= '0' && c <= '9':
		return true
	}
	return false
}

// findQuoteEnd returns the byte offset of the first unescaped delim in
// s, or -1. Escapes are skipped as a pair, matching the lexer's own
// quote-termination scan.
func findQuoteEnd(s string, delim byte) int {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case delim:
			return i
		}
	}
	return -1
}

// findBraceEnd returns the byte offset of the `}` matching the `{`
// already consumed by the caller, honoring nested braces.
func findBraceEnd(s string) int {
	depth := 1
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func resolveEscape(e rune) (string, error) {
	switch e {
	case 't':
		return "\t", nil
	case 'n':
		return "\n", nil
	case '\'':
		return "'", nil
	case '"':
		return "\"", nil
	case '\\':
		return "\\", nil
	case '$':
		return "$", nil
	case ',':
		return ",", nil
	case ' ':
		return " ", nil
	default:
		return "", lexErr(Location{}, "unknown escape")
	}
}

// specialVar resolves `$@ $^ $< $* $~`. All but `$~` require an active
// rule.
func (ec *evalCtx) specialVar(c rune, loc Location) (Obj, error) {
	if c != '~' && ec.rule == nil {
		return nil, nameErr(loc, "$%c used outside a rule's recipe", c)
	}
	switch c {
	case '@':
		return targetList(ec.rule.Gens), nil
	case '^':
		return targetList(ec.rule.Deps), nil
	case '<':
		if len(ec.rule.Deps) == 0 {
			return Null{}, nil
		}
		d := ec.rule.Deps[0]
		return newString(d.Name, d.Spec), nil
	case '*':
		var items []Str
		if ec.ctxt != nil {
			for _, r := range ec.ctxt.rules {
				for _, g := range r.Gens {
					if !g.Spec {
						items = append(items, Str{Text: g.Name})
					}
				}
			}
		}
		return &StringList{Items: items}, nil
	case '~':
		return newString(ec.dir, false), nil
	default:
		return nil, nameErr(loc, "unknown special variable $%c", c)
	}
}

func targetList(ts []*Target) *StringList {
	items := make([]Str, len(ts))
	for i, t := range ts {
		items[i] = Str{Text: t.Name, Spec: t.Spec}
	}
	return &StringList{Items: items}
}

// evalBraceExpr evaluates the contents of a `${...}` fragment: a
// variable lookup followed by zero or more `.member` or `.func(args)`
// suffixes.
func (ec *evalCtx) evalBraceExpr(expr string, loc Location) (Obj, error) {
	i := 0
	for i < len(expr) && isIdentRune(rune(expr[i]), i > 0) {
		i++
	}
	if i == 0 {
		return nil, lexErr(loc, "empty ${...} expression")
	}
	obj := ec.env.lookup(expr[:i])
	rest := expr[i:]

	for len(rest) > 0 {
		if rest[0] != '.' {
			return nil, parseErr(loc, "expected `.member` in ${%s}", expr)
		}
		rest = rest[1:]
		j := 0
		for j < len(rest) && isIdentRune(rune(rest[j]), j > 0) {
			j++
		}
		if j == 0 {
			return nil, parseErr(loc, "expected member name in ${%s}", expr)
		}
		member := rest[:j]
		rest = rest[j:]

		if len(rest) > 0 && rest[0] == '(' {
			args, tail, err := ec.parseArgs(rest[1:], loc)
			if err != nil {
				return nil, err
			}
			rest = tail
			obj, err = ec.callBuiltin(member, obj, args, loc)
			if err != nil {
				return nil, err
			}
			continue
		}

		next, err := memberAccess(obj, member, loc)
		if err != nil {
			return nil, err
		}
		obj = next
	}
	return obj, nil
}

// parseArgs splits a call's argument text at top-level commas (quoted
// spans are skipped whole), expanding each argument, and returns
// whatever text follows the matching closing paren.
func (ec *evalCtx) parseArgs(s string, loc Location) ([]Obj, string, error) {
	var args []Obj
	depth := 0
	start := 0

	i := 0
	for i < len(s) {
		switch s[i] {
		case '(':
			depth++
			i++
		case ')':
			if depth == 0 {
				seg := strings.TrimSpace(s[start:i])
				if seg != "" || len(args) > 0 {
					obj, err := ec.expandText(seg, loc)
					if err != nil {
						return nil, "", err
					}
					args = append(args, obj)
				}
				return args, s[i+1:], nil
			}
			depth--
			i++
		case ',':
			if depth == 0 {
				seg := strings.TrimSpace(s[start:i])
				obj, err := ec.expandText(seg, loc)
				if err != nil {
					return nil, "", err
				}
				args = append(args, obj)
				start = i + 1
			}
			i++
		case '\'', '"':
			end := findQuoteEnd(s[i+1:], s[i])
			if end < 0 {
				return nil, "", lexErr(loc, "unterminated quote in arguments")
			}
			i += end + 2
		default:
			i++
		}
	}
	return nil, "", parseErr(loc, "unterminated argument list")
}

func (ec *evalCtx) callBuiltin(name string, recv Obj, args []Obj, loc Location) (Obj, error) {
	fn, ok := builtins[name]
	if !ok {
		return nil, nameErr(loc, "no such function %q", name)
	}
	return fn(loc, recv, args)
}

// memberAccess implements `${envvar.field}`: member access on an Env
// returns the named binding's value.
func memberAccess(obj Obj, name string, loc Location) (Obj, error) {
	env, ok := obj.(*Env)
	if !ok {
		return nil, typeErr(loc, "cannot access member %q of a %s", name, objKind(obj))
	}
	return env.lookup(name), nil
}
