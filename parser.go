package main

// parser is a top-down recursive-descent parser consuming one token of
// lookahead from a lexer, producing the statement/expression AST.
type parser struct {
	lx   *lexer
	tok  token
	path string
}

func newParser(r *reader) (*parser, error) {
	p := &parser{lx: newLexer(r), path: r.path}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *parser) advance() error {
	tok, err := p.lx.lex()
	if err != nil {
		return err
	}
	p.tok = tok
	return nil
}

func (p *parser) expect(k tokKind, what string) (token, error) {
	if p.tok.kind != k {
		return token{}, parseErr(p.tok.loc, "expected %s, got %s", what, p.tok)
	}
	t := p.tok
	if err := p.advance(); err != nil {
		return token{}, err
	}
	return t, nil
}

// parseProgram parses a whole top-level file to EOF.
func (p *parser) parseProgram() (*Block, error) {
	return p.parseBlockBody(tokEOF)
}

// parseBlockBody parses statements until the given terminator token
// (tokRBrace for a nested block, tokEOF for the top level), without
// consuming the terminator.
func (p *parser) parseBlockBody(end tokKind) (*Block, error) {
	b := &Block{}
	for p.tok.kind != end {
		st, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		b.Stmts = append(b.Stmts, st)
	}
	return b, nil
}

func (p *parser) parseStmt() (Stmt, error) {
	switch p.tok.kind {
	case tokLBrace:
		loc := p.tok.loc
		if err := p.advance(); err != nil {
			return nil, err
		}
		blk, err := p.parseBlockBody(tokRBrace)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRBrace, "`}`"); err != nil {
			return nil, err
		}
		return &BlockStmt{Block: blk, Loc: loc}, nil

	case tokFor:
		return p.parseFor()

	case tokPrint:
		return p.parsePrint()

	case tokMakedep:
		return p.parseMakedep()

	case tokInclude, tokImport:
		return p.parseInclude()

	case tokDir:
		return p.parseDir()

	case tokIf, tokElif, tokElse:
		return nil, parseErr(p.tok.loc, "if/elif/else are not supported as statements")

	case tokStr, tokSpec:
		return p.parseStrLed()

	default:
		return nil, parseErr(p.tok.loc, "unexpected token %s", p.tok)
	}
}

// parseImm collects one or more adjacent STR/SPEC tokens into an Imm.
func (p *parser) parseImm() (*Imm, error) {
	im := &Imm{}
	for p.tok.kind == tokStr || p.tok.kind == tokSpec {
		im.Raw = append(im.Raw, &RawString{
			Text: p.tok.raw,
			Spec: p.tok.kind == tokSpec,
			Loc:  p.tok.loc,
		})
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	return im, nil
}

// parseStrLed handles the STR/SPEC-initiated statements: bind or rule.
func (p *parser) parseStrLed() (Stmt, error) {
	loc := p.tok.loc
	im, err := p.parseImm()
	if err != nil {
		return nil, err
	}

	switch p.tok.kind {
	case tokEquals, tokPlusEquals:
		return p.parseBindTail(im, loc)
	case tokColon:
		return p.parseRuleTail(im, loc)
	default:
		return nil, parseErr(p.tok.loc, "expected `=`, `+=`, or `:` after identifier, got %s", p.tok)
	}
}

func (p *parser) parseBindTail(lhs *Imm, loc Location) (Stmt, error) {
	if lhs.Len() != 1 {
		return nil, parseErr(loc, "assignment target must be a single identifier")
	}
	add := p.tok.kind == tokPlusEquals
	if err := p.advance(); err != nil {
		return nil, err
	}

	if p.tok.kind == tokEnv {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if _, err := p.expect(tokLBrace, "`{`"); err != nil {
			return nil, err
		}
		blk, err := p.parseBlockBody(tokRBrace)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRBrace, "`}`"); err != nil {
			return nil, err
		}
		return &Bind{ID: lhs.Raw[0], Block: blk, Add: add, Loc: loc}, nil
	}

	rhs, err := p.parseImm()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokSemi, "`;`"); err != nil {
		return nil, err
	}
	return &Bind{ID: lhs.Raw[0], Val: rhs, Add: add, Loc: loc}, nil
}

func (p *parser) parseRuleTail(gen *Imm, loc Location) (Stmt, error) {
	if err := p.advance(); err != nil { // consume ':'
		return nil, err
	}
	dep, err := p.parseImm()
	if err != nil {
		return nil, err
	}

	r := &RuleStmt{Gen: gen, Dep: dep, Loc: loc}
	switch p.tok.kind {
	case tokSemi:
		return r, p.advance()
	case tokLBrace:
		if err := p.advance(); err != nil {
			return nil, err
		}
		for p.tok.kind != tokRBrace {
			cmd, err := p.parseCmd()
			if err != nil {
				return nil, err
			}
			r.Cmds = append(r.Cmds, cmd)
		}
		if _, err := p.expect(tokRBrace, "`}`"); err != nil {
			return nil, err
		}
		return r, nil
	default:
		return nil, parseErr(p.tok.loc, "expected `;` or `{` after rule dependencies, got %s", p.tok)
	}
}

// parseCmd parses one recipe line: a pipe chain terminated by `;`. A
// stage's words may be followed by a `<` input redirect (which feeds the
// first stage), and the last stage's by a `>`/`>>` output redirect.
func (p *parser) parseCmd() (*Cmd, error) {
	loc := p.tok.loc
	c := &Cmd{Loc: loc}

	for {
		argv, err := p.parseImm()
		if err != nil {
			return nil, err
		}
		c.Pipe = append(c.Pipe, &Pipe{Argv: argv})

		if p.tok.kind == tokLess {
			if err := p.advance(); err != nil {
				return nil, err
			}
			in, err := p.parseImm()
			if err != nil {
				return nil, err
			}
			if len(in.Raw) != 1 {
				return nil, parseErr(loc, "input redirect target must be a single word")
			}
			c.In = in.Raw[0]
		}

		switch p.tok.kind {
		case tokPipe:
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		case tokGreater, tokAppend:
			c.Append = p.tok.kind == tokAppend
			if err := p.advance(); err != nil {
				return nil, err
			}
			out, err := p.parseImm()
			if err != nil {
				return nil, err
			}
			if len(out.Raw) != 1 {
				return nil, parseErr(loc, "output redirect target must be a single word")
			}
			c.Out = out.Raw[0]
		}

		if _, err := p.expect(tokSemi, "`;`"); err != nil {
			return nil, err
		}
		return c, nil
	}
}

func (p *parser) parseFor() (Stmt, error) {
	loc := p.tok.loc
	if err := p.advance(); err != nil {
		return nil, err
	}
	idTok, err := p.expect(tokStr, "loop variable")
	if err != nil {
		return nil, err
	}
	id, ok := identFromRaw(idTok.raw)
	if !ok {
		return nil, parseErr(idTok.loc, "invalid loop variable %q", idTok.raw)
	}
	if _, err := p.expect(tokColon, "`:`"); err != nil {
		return nil, err
	}
	imm, err := p.parseImm()
	if err != nil {
		return nil, err
	}
	body, err := p.parseStmt()
	if err != nil {
		return nil, err
	}
	return &Loop{ID: id, Imm: imm, Body: body, Loc: loc}, nil
}

func (p *parser) parsePrint() (Stmt, error) {
	loc := p.tok.loc
	if err := p.advance(); err != nil {
		return nil, err
	}
	imm, err := p.parseImm()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokSemi, "`;`"); err != nil {
		return nil, err
	}
	return &Print{Imm: imm, Loc: loc}, nil
}

func (p *parser) parseMakedep() (Stmt, error) {
	loc := p.tok.loc
	if err := p.advance(); err != nil {
		return nil, err
	}
	imm, err := p.parseImm()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokSemi, "`;`"); err != nil {
		return nil, err
	}
	return &MkDep{Path: imm, Loc: loc}, nil
}

func (p *parser) parseInclude() (Stmt, error) {
	loc := p.tok.loc
	nest := p.tok.kind == tokImport
	if err := p.advance(); err != nil {
		return nil, err
	}
	opt := false
	if p.tok.kind == tokQuestion {
		opt = true
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	imm, err := p.parseImm()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokSemi, "`;`"); err != nil {
		return nil, err
	}
	return &Include{Nest: nest, Opt: opt, Imm: imm, Loc: loc}, nil
}

// parseDir parses `dir "name" [default] { ... }` or `dir "name";`.
func (p *parser) parseDir() (Stmt, error) {
	loc := p.tok.loc
	if err := p.advance(); err != nil {
		return nil, err
	}
	nameTok, err := p.expect(tokStr, "directory name")
	if err != nil {
		return nil, err
	}
	d := &Dir{Name: &RawString{Text: nameTok.raw, Loc: nameTok.loc}, Loc: loc}

	if p.tok.kind == tokDefault {
		d.Default = true
		if err := p.advance(); err != nil {
			return nil, err
		}
	}

	switch p.tok.kind {
	case tokSemi:
		return d, p.advance()
	case tokLBrace:
		if err := p.advance(); err != nil {
			return nil, err
		}
		blk, err := p.parseBlockBody(tokRBrace)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRBrace, "`}`"); err != nil {
			return nil, err
		}
		d.Block = blk
		return d, nil
	default:
		return nil, parseErr(p.tok.loc, "expected `;` or `{` after dir name, got %s", p.tok)
	}
}
