package main

import (
	"fmt"
	"strings"
)

type tokKind int

const (
	tokEOF tokKind = iota
	tokLBrace
	tokRBrace
	tokColon
	tokSemi
	tokEquals
	tokPlusEquals
	tokLess
	tokGreater
	tokAppend // >>
	tokInput  // <<
	tokPipe
	tokQuestion
	tokStr
	tokSpec
	tokVar
	tokDir
	tokFor
	tokIf
	tokElif
	tokElse
	tokPrint
	tokDefault
	tokMakedep
	tokInclude
	tokImport
	tokEnv
)

var keywords = map[string]tokKind{
	"dir":      tokDir,
	"for":      tokFor,
	"if":       tokIf,
	"elif":     tokElif,
	"else":     tokElse,
	"print":    tokPrint,
	"default":  tokDefault,
	"makedep":  tokMakedep,
	"include":  tokInclude,
	"import":   tokImport,
	"env":      tokEnv,
}

// token is one lexical unit. For tokStr/tokSpec, raw carries the
// unexpanded source text: quotes, backslash escapes and `$` references
// are all kept verbatim for the expander to resolve later.
type token struct {
	kind tokKind
	raw  string
	loc  Location
}

func (t token) String() string {
	switch t.kind {
	case tokStr, tokSpec:
		return fmt.Sprintf("%q", t.raw)
	default:
		return t.raw
	}
}

// isStrChar reports whether c may appear unescaped, unquoted inside an
// STR fragment.
func isStrChar(c rune) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case strings.ContainsRune("~/._-+=%", c):
		return true
	}
	return false
}

// lexer is a pull-based tokenizer: lex() produces one token per call,
// buffering nothing beyond the reader's own lookahead window.
type lexer struct {
	r *reader
}

func newLexer(r *reader) *lexer {
	return &lexer{r: r}
}

func (lx *lexer) skipSpaceAndComments() {
	for {
		c := lx.r.peek()
		switch {
		case c == '#':
			for c != '\n' && c != eof {
				lx.r.advance()
				c = lx.r.peek()
			}
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			lx.r.advance()
		default:
			return
		}
	}
}

// lex returns the next token.
func (lx *lexer) lex() (token, error) {
	lx.skipSpaceAndComments()
	loc := lx.r.loc()
	c := lx.r.peek()

	switch c {
	case eof:
		return token{kind: tokEOF, loc: loc}, nil
	case '{':
		lx.r.advance()
		return token{kind: tokLBrace, raw: "{", loc: loc}, nil
	case '}':
		lx.r.advance()
		return token{kind: tokRBrace, raw: "}", loc: loc}, nil
	case ':':
		lx.r.advance()
		return token{kind: tokColon, raw: ":", loc: loc}, nil
	case ';':
		lx.r.advance()
		return token{kind: tokSemi, raw: ";", loc: loc}, nil
	case '?':
		lx.r.advance()
		return token{kind: tokQuestion, raw: "?", loc: loc}, nil
	case '|':
		lx.r.advance()
		return token{kind: tokPipe, raw: "|", loc: loc}, nil
	case '=':
		lx.r.advance()
		return token{kind: tokEquals, raw: "=", loc: loc}, nil
	case '+':
		if lx.r.peekN(1) == '=' {
			lx.r.advance()
			lx.r.advance()
			return token{kind: tokPlusEquals, raw: "+=", loc: loc}, nil
		}
	case '>':
		lx.r.advance()
		if lx.r.peek() == '>' {
			lx.r.advance()
			return token{kind: tokAppend, raw: ">>", loc: loc}, nil
		}
		return token{kind: tokGreater, raw: ">", loc: loc}, nil
	case '<':
		lx.r.advance()
		if lx.r.peek() == '<' {
			lx.r.advance()
			return token{kind: tokInput, raw: "<<", loc: loc}, nil
		}
		return token{kind: tokLess, raw: "<", loc: loc}, nil
	}

	if isStrChar(c) || c == '$' || c == '\'' || c == '"' || c == '\\' {
		tok, err := lx.lexStr(loc)
		if err != nil {
			return tok, err
		}
		if tok.kind == tokStr {
			if kw, ok := keywords[tok.raw]; ok {
				tok.kind = kw
			}
		}
		return tok, nil
	}

	return token{}, lexErr(loc, "unexpected character %q", c)
}

// lexStr accumulates one STR/SPEC token: string characters, `$`
// variable references, single- and double-quoted spans, and
// backslash escapes.
func (lx *lexer) lexStr(loc Location) (token, error) {
	var b strings.Builder
	first := true
	spec := false

	for {
		c := lx.r.peek()
		switch {
		case isStrChar(c):
			if first && c == '.' {
				spec = true
			}
			b.WriteRune(lx.r.advance())
		case c == '$':
			if err := lx.lexVarRef(&b); err != nil {
				return token{}, err
			}
		case c == '\'':
			if err := lx.lexQuote(&b, '\'', false); err != nil {
				return token{}, err
			}
		case c == '"':
			if err := lx.lexQuote(&b, '"', true); err != nil {
				return token{}, err
			}
		case c == '\\':
			if err := lx.lexEscape(&b); err != nil {
				return token{}, err
			}
		default:
			if b.Len() == 0 {
				return token{}, lexErr(loc, "unexpected character %q", c)
			}
			kind := tokStr
			if spec {
				kind = tokSpec
			}
			return token{kind: kind, raw: b.String(), loc: loc}, nil
		}
		first = false
	}
}

// lexVarRef copies a `$name`, `${...}`, or `$@`/`$^`/`$<`/`$*`/`$~`
// reference verbatim into b; the expander resolves it later.
func (lx *lexer) lexVarRef(b *strings.Builder) error {
	loc := lx.r.loc()
	b.WriteRune(lx.r.advance()) // '$'
	c := lx.r.peek()

	switch {
	case c == '{':
		b.WriteRune(lx.r.advance())
		depth := 1
		for depth > 0 {
			c = lx.r.peek()
			if c == eof || c == '\n' {
				return lexErr(loc, "unterminated ${...}")
			}
			if c == '{' {
				depth++
			} else if c == '}' {
				depth--
			}
			b.WriteRune(lx.r.advance())
		}
	case strings.ContainsRune("@^<*~", c):
		b.WriteRune(lx.r.advance())
	case c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z'):
		for {
			c = lx.r.peek()
			if c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
				b.WriteRune(lx.r.advance())
				continue
			}
			break
		}
	default:
		return lexErr(loc, "invalid variable sigil %q", c)
	}
	return nil
}

// lexQuote copies a quoted span (delimiter included) verbatim. Inside
// double quotes, `$` references are still recursively captured so the
// expander can interpolate them; single quotes are copied byte for byte.
func (lx *lexer) lexQuote(b *strings.Builder, delim rune, interpolates bool) error {
	loc := lx.r.loc()
	b.WriteRune(lx.r.advance()) // opening delimiter
	for {
		c := lx.r.peek()
		switch {
		case c == eof || c == '\n':
			return lexErr(loc, "unterminated quote")
		case c == delim:
			b.WriteRune(lx.r.advance())
			return nil
		case c == '$' && interpolates:
			if err := lx.lexVarRef(b); err != nil {
				return err
			}
		case c == '\\':
			if err := lx.lexEscape(b); err != nil {
				return err
			}
		default:
			b.WriteRune(lx.r.advance())
		}
	}
}

// lexEscape copies a backslash escape verbatim, validating that the
// escaped character is one of the permitted set.
func (lx *lexer) lexEscape(b *strings.Builder) error {
	loc := lx.r.loc()
	b.WriteRune(lx.r.advance()) // '\'
	c := lx.r.peek()
	switch c {
	case 't', 'n', '\'', '"', '\\', '$', ',', ' ':
		b.WriteRune(lx.r.advance())
		return nil
	default:
		return lexErr(loc, "unknown escape %q", c)
	}
}

// identFromRaw is used by the parser layer when an STR token's raw
// text needs reinterpreting as a bare identifier (e.g. a `for` loop's
// induction variable), since the lexer itself never distinguishes
// keywords from STR fragments once inside a raw-string accumulation.
func identFromRaw(raw string) (string, bool) {
	if raw == "" {
		return "", false
	}
	for i, c := range raw {
		if c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
			continue
		}
		if i > 0 && c >= '0' && c <= '9' {
			continue
		}
		return "", false
	}
	return raw, true
}
