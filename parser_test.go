package main

import (
	"strings"
	"testing"
)

func parseSrc(t *testing.T, src string) *Block {
	t.Helper()
	p, err := newParser(newReader(strings.NewReader(src), "test"))
	if err != nil {
		t.Fatalf("newParser: %v", err)
	}
	blk, err := p.parseProgram()
	if err != nil {
		t.Fatalf("parseProgram(%q): %v", src, err)
	}
	return blk
}

func TestParseBind(t *testing.T) {
	blk := parseSrc(t, `x = a b c;`)
	if len(blk.Stmts) != 1 {
		t.Fatalf("got %d statements, want 1", len(blk.Stmts))
	}
	b, ok := blk.Stmts[0].(*Bind)
	if !ok {
		t.Fatalf("got %T, want *Bind", blk.Stmts[0])
	}
	if b.ID.Text != "x" || b.Add {
		t.Errorf("ID/Add = %q/%v", b.ID.Text, b.Add)
	}
	if b.Val.Len() != 3 {
		t.Errorf("Val.Len() = %d, want 3", b.Val.Len())
	}
}

func TestParseBindAppend(t *testing.T) {
	blk := parseSrc(t, `x += y;`)
	b := blk.Stmts[0].(*Bind)
	if !b.Add {
		t.Errorf("Add = false, want true")
	}
}

func TestParseBindEnvBlock(t *testing.T) {
	blk := parseSrc(t, `x = env { y = z; }`)
	b, ok := blk.Stmts[0].(*Bind)
	if !ok {
		t.Fatalf("got %T, want *Bind", blk.Stmts[0])
	}
	if b.Block == nil || b.Val != nil {
		t.Fatalf("expected Block set, Val nil; got Block=%v Val=%v", b.Block, b.Val)
	}
	if len(b.Block.Stmts) != 1 {
		t.Errorf("Block has %d statements, want 1", len(b.Block.Stmts))
	}
}

func TestParseRuleNoRecipe(t *testing.T) {
	blk := parseSrc(t, `out : in.c in.h;`)
	r, ok := blk.Stmts[0].(*RuleStmt)
	if !ok {
		t.Fatalf("got %T, want *RuleStmt", blk.Stmts[0])
	}
	if r.Gen.Len() != 1 || r.Dep.Len() != 2 || r.Cmds != nil {
		t.Errorf("Gen=%d Dep=%d Cmds=%v", r.Gen.Len(), r.Dep.Len(), r.Cmds)
	}
}

func TestParseRuleWithRecipe(t *testing.T) {
	blk := parseSrc(t, `out : in.c {
		cc -c in.c -o out;
	}`)
	r := blk.Stmts[0].(*RuleStmt)
	if len(r.Cmds) != 1 {
		t.Fatalf("got %d cmds, want 1", len(r.Cmds))
	}
	if len(r.Cmds[0].Pipe) != 1 {
		t.Fatalf("got %d pipe stages, want 1", len(r.Cmds[0].Pipe))
	}
}

func TestParseRulePipeAndRedirect(t *testing.T) {
	blk := parseSrc(t, `out : in {
		sort < in | uniq > out;
	}`)
	r := blk.Stmts[0].(*RuleStmt)
	c := r.Cmds[0]
	if len(c.Pipe) != 2 {
		t.Fatalf("got %d pipe stages, want 2", len(c.Pipe))
	}
	if c.In == nil || c.In.Text != "in" {
		t.Errorf("In = %v, want \"in\"", c.In)
	}
	if c.Out == nil || c.Out.Text != "out" || c.Append {
		t.Errorf("Out = %v Append = %v", c.Out, c.Append)
	}
}

func TestParseRuleAppendRedirect(t *testing.T) {
	blk := parseSrc(t, `out : in {
		cat in >> out;
	}`)
	r := blk.Stmts[0].(*RuleStmt)
	if !r.Cmds[0].Append {
		t.Errorf("Append = false, want true")
	}
}

func TestParseFor(t *testing.T) {
	blk := parseSrc(t, `for x : a b c print x;`)
	l, ok := blk.Stmts[0].(*Loop)
	if !ok {
		t.Fatalf("got %T, want *Loop", blk.Stmts[0])
	}
	if l.ID != "x" || l.Imm.Len() != 3 {
		t.Errorf("ID=%q Imm.Len()=%d", l.ID, l.Imm.Len())
	}
	if _, ok := l.Body.(*Print); !ok {
		t.Errorf("Body = %T, want *Print", l.Body)
	}
}

func TestParseIfElifElseRejected(t *testing.T) {
	p, err := newParser(newReader(strings.NewReader(`if a { print a; }`), "test"))
	if err != nil {
		t.Fatalf("newParser: %v", err)
	}
	_, err = p.parseProgram()
	if _, ok := err.(*ParseError); !ok {
		t.Fatalf("got %T, want *ParseError", err)
	}
}

func TestParseIncludeAndImport(t *testing.T) {
	blk := parseSrc(t, `include a.mk; import? b.mk;`)
	inc := blk.Stmts[0].(*Include)
	if inc.Nest || inc.Opt {
		t.Errorf("include: Nest=%v Opt=%v", inc.Nest, inc.Opt)
	}
	imp := blk.Stmts[1].(*Include)
	if !imp.Nest || !imp.Opt {
		t.Errorf("import?: Nest=%v Opt=%v", imp.Nest, imp.Opt)
	}
}

func TestParseMakedep(t *testing.T) {
	blk := parseSrc(t, `makedep .deps.mk;`)
	m, ok := blk.Stmts[0].(*MkDep)
	if !ok {
		t.Fatalf("got %T, want *MkDep", blk.Stmts[0])
	}
	if m.Path.Len() != 1 {
		t.Errorf("Path.Len() = %d, want 1", m.Path.Len())
	}
}

func TestParseDirDefault(t *testing.T) {
	blk := parseSrc(t, `dir "linux" default { CC = gcc; }`)
	d, ok := blk.Stmts[0].(*Dir)
	if !ok {
		t.Fatalf("got %T, want *Dir", blk.Stmts[0])
	}
	if d.Name.Text != `"linux"` || !d.Default || d.Block == nil {
		t.Errorf("Name=%q Default=%v Block=%v", d.Name.Text, d.Default, d.Block)
	}
}

func TestParseDirNoBlock(t *testing.T) {
	blk := parseSrc(t, `dir "linux";`)
	d := blk.Stmts[0].(*Dir)
	if d.Block != nil {
		t.Errorf("Block = %v, want nil", d.Block)
	}
}

func TestParseNestedBlock(t *testing.T) {
	blk := parseSrc(t, `{ x = 1; y = 2; }`)
	b, ok := blk.Stmts[0].(*BlockStmt)
	if !ok {
		t.Fatalf("got %T, want *BlockStmt", blk.Stmts[0])
	}
	if len(b.Block.Stmts) != 2 {
		t.Errorf("got %d nested statements, want 2", len(b.Block.Stmts))
	}
}

func TestParseMissingSemiIsParseError(t *testing.T) {
	p, err := newParser(newReader(strings.NewReader(`x = a`), "test"))
	if err != nil {
		t.Fatalf("newParser: %v", err)
	}
	_, err = p.parseProgram()
	if _, ok := err.(*ParseError); !ok {
		t.Fatalf("got %T, want *ParseError", err)
	}
}
