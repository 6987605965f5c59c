package main

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"

	"github.com/sanity-io/litter"
)

// Evaluator walks an AST once, producing side effects on the current
// Env and on ctxt's target/rule graph.
type Evaluator struct {
	ctxt   *Context
	opener func(name string) (io.ReadCloser, error)
	strict bool

	dirChosen   bool
	selectedDir string
}

// newEvaluator constructs an Evaluator. requestedDir, if non-empty,
// pre-selects a `dir` block by name (the CLI's `--dir` flag); strict
// controls whether a missing makedep file is fatal.
func newEvaluator(ctxt *Context, opener func(string) (io.ReadCloser, error), requestedDir string, strict bool) *Evaluator {
	ev := &Evaluator{ctxt: ctxt, opener: opener, strict: strict}
	if requestedDir != "" {
		ev.dirChosen = true
		ev.selectedDir = requestedDir
	}
	return ev
}

func (ev *Evaluator) evalBlock(ec *evalCtx, b *Block) error {
	for _, st := range b.Stmts {
		if err := ev.evalStmt(ec, st); err != nil {
			return err
		}
	}
	return nil
}

func (ev *Evaluator) evalStmt(ec *evalCtx, st Stmt) error {
	switch s := st.(type) {
	case *Bind:
		return ev.evalBind(ec, s)
	case *RuleStmt:
		return ev.evalRule(ec, s)
	case *Loop:
		return ev.evalLoop(ec, s)
	case *Print:
		return ev.evalPrint(ec, s)
	case *MkDep:
		return ev.evalMkDep(ec, s)
	case *BlockStmt:
		child := newEnv(ec.env)
		return ev.evalBlock(ec.withEnv(child), s.Block)
	case *Include:
		return ev.evalInclude(ec, s)
	case *Dir:
		return ev.evalDir(ec, s)
	default:
		return parseErr(st.Location(), "unhandled statement type %T", st)
	}
}

func asStringList(o Obj, loc Location, what string) (*StringList, error) {
	sl, ok := o.(*StringList)
	if !ok {
		return nil, typeErr(loc, "%s must be a string list, got %s", what, objKind(o))
	}
	return sl, nil
}

// evalBind implements a plain or `+=` variable binding.
func (ev *Evaluator) evalBind(ec *evalCtx, s *Bind) error {
	idObj, err := ec.expandRaw(s.ID)
	if err != nil {
		return err
	}
	name, err := objToText(idObj, s.Loc)
	if err != nil {
		return err
	}

	var val Obj
	if s.Block != nil {
		child := newEnv(ec.env)
		if err := ev.evalBlock(ec.withEnv(child), s.Block); err != nil {
			return err
		}
		val = child
	} else {
		val, err = ec.expandImm(s.Val)
		if err != nil {
			return err
		}
	}

	if s.Add {
		frame := ec.env.findFrame(name)
		if frame == nil {
			frame = ec.env
		}
		merged, err := addObj(s.Loc, frame.vars[name], val)
		if err != nil {
			return err
		}
		frame.set(name, merged)
	} else {
		ec.env.set(name, val)
	}
	return nil
}

// evalRule implements a `gen : dep { recipe }` statement, including
// partial-rule merge (delegated to graph.go's addRule).
func (ev *Evaluator) evalRule(ec *evalCtx, s *RuleStmt) error {
	genObj, err := ec.expandImm(s.Gen)
	if err != nil {
		return err
	}
	depObj, err := ec.expandImm(s.Dep)
	if err != nil {
		return err
	}
	genList, err := asStringList(genObj, s.Loc, "rule generators")
	if err != nil {
		return err
	}
	depList, err := asStringList(depObj, s.Loc, "rule dependencies")
	if err != nil {
		return err
	}

	gens := make([]*Target, len(genList.Items))
	for i, it := range genList.Items {
		gens[i] = ev.ctxt.intern(it.Text, it.Spec)
	}
	deps := make([]*Target, len(depList.Items))
	for i, it := range depList.Items {
		deps[i] = ev.ctxt.intern(it.Text, it.Spec)
	}

	if len(gens) > 0 && gens[0].Rule != nil && len(gens[0].Rule.Seq) > 0 && s.Cmds != nil {
		return ruleConflictErr(s.Loc, "target %q already has a recipe", gens[0].Name)
	}

	r, err := ev.ctxt.addRule(s.Loc, gens, deps)
	if err != nil {
		return err
	}

	if s.Cmds != nil {
		ruleCtx := ec.withEnv(ec.env)
		ruleCtx.rule = r
		seq := make([]*ExpandedCmd, 0, len(s.Cmds))
		for _, c := range s.Cmds {
			xc, err := ev.expandCmd(ruleCtx, c)
			if err != nil {
				return err
			}
			seq = append(seq, xc)
		}
		r.Seq = seq
	}
	return nil
}

func (ev *Evaluator) expandCmd(ec *evalCtx, c *Cmd) (*ExpandedCmd, error) {
	out := &ExpandedCmd{Append: c.Append}
	for _, stage := range c.Pipe {
		obj, err := ec.expandImm(stage.Argv)
		if err != nil {
			return nil, err
		}
		sl, err := asStringList(obj, c.Loc, "recipe argument list")
		if err != nil {
			return nil, err
		}
		argv := make([]string, len(sl.Items))
		for i, it := range sl.Items {
			argv[i] = it.Text
		}
		out.Pipe = append(out.Pipe, argv)
	}
	if c.In != nil {
		obj, err := ec.expandRaw(c.In)
		if err != nil {
			return nil, err
		}
		s, err := objToText(obj, c.Loc)
		if err != nil {
			return nil, err
		}
		out.In, out.HasIn = s, true
	}
	if c.Out != nil {
		obj, err := ec.expandRaw(c.Out)
		if err != nil {
			return nil, err
		}
		s, err := objToText(obj, c.Loc)
		if err != nil {
			return nil, err
		}
		out.Out, out.HasOut = s, true
	}
	return out, nil
}

// evalLoop implements a `for` statement: a StringList iterates element
// by element; an Env iterates the bindings of its own frame (not its
// parents), binding the loop variable to each bound value. Each
// iteration runs in a fresh child scope.
func (ev *Evaluator) evalLoop(ec *evalCtx, s *Loop) error {
	obj, err := ec.expandImm(s.Imm)
	if err != nil {
		return err
	}
	switch v := obj.(type) {
	case *StringList:
		for _, it := range v.Items {
			child := newEnv(ec.env)
			child.set(s.ID, newString(it.Text, it.Spec))
			if err := ev.evalStmt(ec.withEnv(child), s.Body); err != nil {
				return err
			}
		}
	case *Env:
		for _, item := range v.iterate() {
			child := newEnv(ec.env)
			child.set(s.ID, item.val)
			if err := ev.evalStmt(ec.withEnv(child), s.Body); err != nil {
				return err
			}
		}
	default:
		return typeErr(s.Loc, "cannot iterate a %s", objKind(obj))
	}
	return nil
}

func (ev *Evaluator) evalPrint(ec *evalCtx, s *Print) error {
	obj, err := ec.expandImm(s.Imm)
	if err != nil {
		return err
	}
	text, err := objToText(obj, s.Loc)
	if err != nil {
		return err
	}
	fmt.Print(text)
	return nil
}

// evalMkDep implements ingesting a Makefile-format dependency file.
func (ev *Evaluator) evalMkDep(ec *evalCtx, s *MkDep) error {
	obj, err := ec.expandImm(s.Path)
	if err != nil {
		return err
	}
	sl, err := asStringList(obj, s.Loc, "makedep paths")
	if err != nil {
		return err
	}
	for _, it := range sl.Items {
		f, err := ev.opener(it.Text)
		if err != nil {
			if ev.strict {
				return ioErr(s.Loc, "makedep %q: %v", it.Text, err)
			}
			continue
		}
		err = readMakedep(ev.ctxt, f, s.Loc)
		f.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

// evalInclude implements Include (shares the caller's scope) and
// Import (evaluates into a fresh child scope), plus `$mkfiledir`
// restoration across either one.
func (ev *Evaluator) evalInclude(ec *evalCtx, s *Include) error {
	obj, err := ec.expandImm(s.Imm)
	if err != nil {
		return err
	}
	sl, err := asStringList(obj, s.Loc, "include paths")
	if err != nil {
		return err
	}

	for _, it := range sl.Items {
		f, err := ev.opener(it.Text)
		if err != nil {
			if s.Opt {
				continue
			}
			return includeMissingErr(s.Loc, "cannot open %q: %v", it.Text, err)
		}
		data, readErr := io.ReadAll(f)
		f.Close()
		if readErr != nil {
			return ioErr(s.Loc, "reading %q: %v", it.Text, readErr)
		}

		pr, err := newParser(newReader(bytes.NewReader(data), it.Text))
		if err != nil {
			return err
		}
		block, err := pr.parseProgram()
		if err != nil {
			return err
		}

		dir := newString(filepath.Dir(it.Text), false)
		if s.Nest {
			child := newEnv(ec.env)
			child.set("mkfiledir", dir)
			if err := ev.evalBlock(ec.withEnv(child), block); err != nil {
				return err
			}
			continue
		}

		old, hadOld := ec.env.lookupLocal("mkfiledir")
		ec.env.set("mkfiledir", dir)
		err = ev.evalBlock(ec, block)
		if hadOld {
			ec.env.set("mkfiledir", old)
		} else {
			ec.env.unset("mkfiledir")
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// evalDir implements `dir "name" default { ... }`: first-match-wins
// against either a CLI-requested directory or the first `default`
// block encountered.
func (ev *Evaluator) evalDir(ec *evalCtx, s *Dir) error {
	nameObj, err := ec.expandRaw(s.Name)
	if err != nil {
		return err
	}
	name, err := objToText(nameObj, s.Loc)
	if err != nil {
		return err
	}

	matched := false
	if ev.dirChosen {
		matched = ev.selectedDir == name
	} else if s.Default {
		matched = true
	}
	if !matched {
		return nil
	}
	if !ev.dirChosen {
		ev.dirChosen = true
		ev.selectedDir = name
	}
	if s.Block == nil {
		return nil
	}

	child := newEnv(ec.env)
	dirCtx := ec.withEnv(child)
	dirCtx.dir = name
	return ev.evalBlock(dirCtx, s.Block)
}

// dumpGraph renders ctxt for the `--debug-graph` flag.
func dumpGraph(ctxt *Context) string {
	return litter.Sdump(ctxt)
}
