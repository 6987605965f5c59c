package main

import "fmt"

// Location identifies a point in a source file: the path of the script it
// came from plus a 1-based line and column. Every token and AST node
// carries one, and it is threaded through into error messages.
type Location struct {
	Path string
	Line int
	Col  int
}

func (l Location) String() string {
	return fmt.Sprintf("%s:%d:%d", l.Path, l.Line, l.Col)
}

// locatedError is the common shape of every fatal condition in the
// tool: a location plus a message. The concrete types below exist so
// that callers (and tests) can distinguish error kinds with errors.As.
type locatedError struct {
	kind string
	loc  Location
	msg  string
}

func (e *locatedError) Error() string {
	return fmt.Sprintf("%s: %s", e.loc, e.msg)
}

func newErr(kind string, loc Location, format string, args ...any) *locatedError {
	return &locatedError{kind: kind, loc: loc, msg: fmt.Sprintf(format, args...)}
}

// LexError covers unknown escapes, unterminated quotes, and stray
// characters encountered while tokenizing.
type LexError struct{ *locatedError }

func lexErr(loc Location, format string, args ...any) *LexError {
	return &LexError{newErr("lex", loc, format, args...)}
}

// ParseError covers unexpected tokens and missing punctuation.
type ParseError struct{ *locatedError }

func parseErr(loc Location, format string, args ...any) *ParseError {
	return &ParseError{newErr("parse", loc, format, args...)}
}

// NameError is a special variable ($@ $^ $< $*) expanded outside a
// rule's recipe, or a call to an unknown function. An unbound variable
// does not raise it: the expander yields Null for an unbound name.
type NameError struct{ *locatedError }

func nameErr(loc Location, format string, args ...any) *NameError {
	return &NameError{newErr("name", loc, format, args...)}
}

// TypeError covers shape mismatches: concatenating a StringList with an
// Env, using an Env as a string, calling a non-function, and so on.
type TypeError struct{ *locatedError }

func typeErr(loc Location, format string, args ...any) *TypeError {
	return &TypeError{newErr("type", loc, format, args...)}
}

// ArityError is a builtin or function invoked with the wrong argument count.
type ArityError struct{ *locatedError }

func arityErr(loc Location, format string, args ...any) *ArityError {
	return &ArityError{newErr("arity", loc, format, args...)}
}

// RuleConflictError covers duplicate recipes for one target and
// partial-rule-merge mismatches.
type RuleConflictError struct{ *locatedError }

func ruleConflictErr(loc Location, format string, args ...any) *RuleConflictError {
	return &RuleConflictError{newErr("rule-conflict", loc, format, args...)}
}

// IncludeMissingError is a non-optional include/import whose file is absent.
type IncludeMissingError struct{ *locatedError }

func includeMissingErr(loc Location, format string, args ...any) *IncludeMissingError {
	return &IncludeMissingError{newErr("include-missing", loc, format, args...)}
}

// IOError wraps open/spawn/mtime failures.
type IOError struct{ *locatedError }

func ioErr(loc Location, format string, args ...any) *IOError {
	return &IOError{newErr("io", loc, format, args...)}
}

// ChildError is a non-zero exit from a spawned recipe process.
type ChildError struct {
	*locatedError
	Status int
}

func childErr(loc Location, status int, format string, args ...any) *ChildError {
	return &ChildError{newErr("child", loc, format, args...), status}
}
