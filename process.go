package main

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"golang.org/x/term"
)

// ANSI color codes for recipe echoing, grounded on friedelschoen-mk/mk.go's
// ansiTerm* constants.
const (
	ansiTermDefault = "\033[0m"
	ansiTermBlue    = "\033[34m"
)

// fileExists reports whether path names an existing filesystem entry,
// used by queue.go to let a requested path with no producing rule pass
// through silently when it is already present.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// mtime returns path's modification time in microseconds since the
// epoch, or math.MinInt64 on any stat failure.
func mtime(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return minInt64
	}
	return info.ModTime().UnixMicro()
}

const minInt64 = -1 << 63

// targetMtime serves a Target's cached mtime, stat-ing and caching on
// first use; SPEC generators are always maximally stale, forcing their
// rule's min below every real dependency's mtime. Mutates
// Target.mtimeCache/mtimeValid, so callers must only invoke this from
// the coordinator goroutine, never concurrently from workers.
func targetMtime(t *Target) int64 {
	if t.Spec {
		return minInt64
	}
	if !t.mtimeValid {
		t.mtimeCache = mtime(t.Name)
		t.mtimeValid = true
	}
	return t.mtimeCache
}

// mkdirAllPrefixed creates path's parent directories one prefix at a time,
// splitting on `/` and calling once per prefix over a single-directory
// mkdir primitive.
func mkdirAllPrefixed(path string) error {
	dir := dirname(path)
	if dir == "" || dir == "." {
		return nil
	}
	parts := strings.Split(dir, "/")
	cur := ""
	if strings.HasPrefix(dir, "/") {
		cur = "/"
	}
	for _, part := range parts {
		if part == "" {
			continue
		}
		if cur == "" || cur == "/" {
			cur += part
		} else {
			cur += "/" + part
		}
		if err := os.Mkdir(cur, 0o755); err != nil && !os.IsExist(err) {
			return err
		}
	}
	return nil
}

func dirname(path string) string {
	i := strings.LastIndexByte(path, '/')
	if i < 0 {
		return ""
	}
	return path[:i]
}

// echoCmd renders a Cmd the way the controller prints it before
// spawning.
func echoCmd(c *ExpandedCmd) string {
	var stages []string
	for _, argv := range c.Pipe {
		stages = append(stages, strings.Join(argv, " "))
	}
	line := strings.Join(stages, " | ")
	if c.HasIn {
		line += " < " + c.In
	}
	if c.HasOut {
		if c.Append {
			line += " >> " + c.Out
		} else {
			line += " > " + c.Out
		}
	}
	return line
}

// runCmd spawns one recipe command's pipeline and waits for every
// stage to exit. Every stage's exit status is checked; the first
// non-zero one is reported as a *ChildError. Only fork/exec/wait here —
// no graph state is touched, so this is safe to call concurrently from
// worker goroutines.
func runCmd(c *ExpandedCmd, loc Location, colorOut bool) error {
	line := echoCmd(c)
	if colorOut {
		fmt.Println(ansiTermBlue + line + ansiTermDefault)
	} else {
		fmt.Println(line)
	}

	var stdin io.Reader = os.Stdin
	if c.HasIn {
		f, err := os.Open(c.In)
		if err != nil {
			return ioErr(loc, "opening %q: %v", c.In, err)
		}
		defer f.Close()
		stdin = f
	}

	var stdout io.Writer = os.Stdout
	if c.HasOut {
		flags := os.O_WRONLY | os.O_CREATE
		if c.Append {
			flags |= os.O_APPEND
		} else {
			flags |= os.O_TRUNC
		}
		f, err := os.OpenFile(c.Out, flags, 0o644)
		if err != nil {
			return ioErr(loc, "opening %q: %v", c.Out, err)
		}
		defer f.Close()
		stdout = f
	}

	cmds := make([]*exec.Cmd, len(c.Pipe))
	for i, argv := range c.Pipe {
		if len(argv) == 0 {
			return typeErr(loc, "empty pipeline stage")
		}
		cmds[i] = exec.Command(argv[0], argv[1:]...)
		cmds[i].Stderr = os.Stderr
	}

	cmds[0].Stdin = stdin
	for i := 0; i < len(cmds)-1; i++ {
		pipe, err := cmds[i].StdoutPipe()
		if err != nil {
			return ioErr(loc, "creating pipe: %v", err)
		}
		cmds[i+1].Stdin = pipe
	}
	cmds[len(cmds)-1].Stdout = stdout

	for _, cmd := range cmds {
		if err := cmd.Start(); err != nil {
			return ioErr(loc, "starting %q: %v", cmd.Path, err)
		}
	}
	for i, cmd := range cmds {
		err := cmd.Wait()
		if err != nil {
			status := -1
			if exitErr, ok := err.(*exec.ExitError); ok {
				status = exitErr.ExitCode()
			}
			return childErr(loc, status, "%q: %v", strings.Join(c.Pipe[i], " "), err)
		}
	}
	return nil
}

// runRule executes every command of r.Seq in source order, stopping at
// the first failure.
func runRule(r *Rule) error {
	for _, cmd := range r.Seq {
		if err := runCmd(cmd, r.Loc, colorEnabled()); err != nil {
			return err
		}
	}
	return nil
}

var colorOverride *bool

// colorEnabled reports whether recipe echoing should use ANSI color,
// defaulting to whether stdout is a terminal (AMBIENT STACK: color/TTY
// detection), overridable by the `--color` CLI flag.
func colorEnabled() bool {
	if colorOverride != nil {
		return *colorOverride
	}
	return term.IsTerminal(int(os.Stdout.Fd()))
}
