package main

import (
	"bufio"
	"io"
	"strings"
)

// readMakedep parses Makefile-format dependency rules out of r: one or
// more whitespace-separated target names, `:`, zero or more
// whitespace-separated dependency names, terminated by a newline, with
// Make-style backslash-newline continuation. Every such rule is
// interned and merged into ctxt with no recipe.
func readMakedep(ctxt *Context, r io.Reader, loc Location) error {
	sc := bufio.NewScanner(r)
	var buf strings.Builder

	flush := func(line string) error {
		line = strings.TrimSpace(line)
		if line == "" {
			return nil
		}
		target, deps, ok := strings.Cut(line, ":")
		if !ok {
			return ioErr(loc, "malformed makedep line: %q", line)
		}

		var gens []*Target
		for _, name := range strings.Fields(target) {
			gens = append(gens, ctxt.intern(name, false))
		}
		if len(gens) == 0 {
			return nil
		}
		var deplist []*Target
		for _, name := range strings.Fields(deps) {
			deplist = append(deplist, ctxt.intern(name, false))
		}
		_, err := ctxt.addRule(loc, gens, deplist)
		return err
	}

	for sc.Scan() {
		line := sc.Text()
		if strings.HasSuffix(line, "\\") {
			buf.WriteString(line[:len(line)-1])
			continue
		}
		buf.WriteString(line)
		if err := flush(buf.String()); err != nil {
			return err
		}
		buf.Reset()
	}
	if buf.Len() > 0 {
		if err := flush(buf.String()); err != nil {
			return err
		}
	}
	return sc.Err()
}
