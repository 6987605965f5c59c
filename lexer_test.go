package main

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func lexAll(t *testing.T, src string) []token {
	t.Helper()
	lx := newLexer(newReader(strings.NewReader(src), "test"))
	var toks []token
	for {
		tok, err := lx.lex()
		if err != nil {
			t.Fatalf("lex(%q): %v", src, err)
		}
		toks = append(toks, tok)
		if tok.kind == tokEOF {
			return toks
		}
	}
}

func kinds(toks []token) []tokKind {
	out := make([]tokKind, len(toks))
	for i, t := range toks {
		out[i] = t.kind
	}
	return out
}

func TestLexPunctuation(t *testing.T) {
	toks := lexAll(t, "{ } : ; = < > | ? >> << +=")
	got := kinds(toks)
	want := []tokKind{
		tokLBrace, tokRBrace, tokColon, tokSemi, tokEquals, tokLess, tokGreater,
		tokPipe, tokQuestion, tokAppend, tokInput, tokPlusEquals, tokEOF,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("kinds mismatch (-want +got):\n%s", diff)
	}
}

func TestLexKeywords(t *testing.T) {
	toks := lexAll(t, "dir for if elif else print default makedep include import env")
	got := kinds(toks)
	want := []tokKind{
		tokDir, tokFor, tokIf, tokElif, tokElse, tokPrint, tokDefault,
		tokMakedep, tokInclude, tokImport, tokEnv, tokEOF,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("kinds mismatch (-want +got):\n%s", diff)
	}
}

func TestLexSpecTarget(t *testing.T) {
	toks := lexAll(t, ".PHONY")
	if len(toks) != 2 || toks[0].kind != tokSpec {
		t.Fatalf("got %v, want a single tokSpec", toks)
	}
	if toks[0].raw != ".PHONY" {
		t.Errorf("raw = %q, want %q", toks[0].raw, ".PHONY")
	}
}

func TestLexStrWithVarRef(t *testing.T) {
	toks := lexAll(t, `out$name.o`)
	if len(toks) != 2 || toks[0].kind != tokStr {
		t.Fatalf("got %v, want a single tokStr", toks)
	}
	if toks[0].raw != "out$name.o" {
		t.Errorf("raw = %q", toks[0].raw)
	}
}

func TestLexBraceVarRef(t *testing.T) {
	toks := lexAll(t, `${x.sub(a, b)}rest`)
	if len(toks) != 2 || toks[0].kind != tokStr {
		t.Fatalf("got %v", toks)
	}
	if toks[0].raw != "${x.sub(a, b)}rest" {
		t.Errorf("raw = %q", toks[0].raw)
	}
}

func TestLexQuotes(t *testing.T) {
	toks := lexAll(t, `'a b'"c$d"`)
	if len(toks) != 2 || toks[0].kind != tokStr {
		t.Fatalf("got %v", toks)
	}
	if toks[0].raw != `'a b'"c$d"` {
		t.Errorf("raw = %q", toks[0].raw)
	}
}

func TestLexEscape(t *testing.T) {
	toks := lexAll(t, `a\ b\,c`)
	if len(toks) != 2 || toks[0].kind != tokStr {
		t.Fatalf("got %v", toks)
	}
	if toks[0].raw != `a\ b\,c` {
		t.Errorf("raw = %q", toks[0].raw)
	}
}

func TestLexUnknownEscapeIsLexError(t *testing.T) {
	lx := newLexer(newReader(strings.NewReader(`a\zb`), "test"))
	_, err := lx.lex()
	if _, ok := err.(*LexError); !ok {
		t.Fatalf("got %T, want *LexError", err)
	}
}

func TestLexUnterminatedQuoteIsLexError(t *testing.T) {
	lx := newLexer(newReader(strings.NewReader(`'abc`), "test"))
	_, err := lx.lex()
	if _, ok := err.(*LexError); !ok {
		t.Fatalf("got %T, want *LexError", err)
	}
}

func TestLexComment(t *testing.T) {
	toks := lexAll(t, "a # a comment\nb")
	got := kinds(toks)
	want := []tokKind{tokStr, tokStr, tokEOF}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("kinds mismatch (-want +got):\n%s", diff)
	}
}

func TestIdentFromRaw(t *testing.T) {
	cases := []struct {
		raw  string
		want string
		ok   bool
	}{
		{"file", "file", true},
		{"_x9", "_x9", true},
		{"", "", false},
		{"9x", "", false},
		{"a.b", "", false},
	}
	for _, c := range cases {
		got, ok := identFromRaw(c.raw)
		if ok != c.ok || got != c.want {
			t.Errorf("identFromRaw(%q) = (%q, %v), want (%q, %v)", c.raw, got, ok, c.want, c.ok)
		}
	}
}
