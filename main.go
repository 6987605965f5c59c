package main

import (
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/mattn/go-isatty"
	"github.com/spf13/pflag"
)

func main() {
	var (
		scriptPath  string
		jobs        int
		force       bool
		dirFlag     string
		colorFlag   bool
		colorSet    bool
		debugGraph  bool
		strictDep   bool
	)

	pflag.StringVarP(&scriptPath, "file", "f", "Hammer", "use the given file as the build script")
	pflag.IntVarP(&jobs, "jobs", "j", runtime.NumCPU(), "maximum concurrent jobs (1-1024)")
	pflag.BoolVarP(&force, "force", "B", false, "treat every rule as dirty regardless of mtimes")
	pflag.StringVarP(&dirFlag, "dir", "d", "", `select a directory for "dir" blocks`)
	pflag.BoolVar(&colorFlag, "color", false, "force color output on/off")
	pflag.BoolVar(&debugGraph, "debug-graph", false, "dump the parsed target/rule graph before building")
	pflag.BoolVar(&strictDep, "strict-makedep", false, "treat a missing makedep file as fatal")
	pflag.Parse()
	colorSet = pflag.CommandLine.Changed("color")

	if jobs < 1 {
		jobs = 1
	}
	if jobs > 1024 {
		jobs = 1024
	}
	if colorSet {
		colorOverride = &colorFlag
	}

	targets := pflag.Args()

	if err := run(scriptPath, targets, jobs, force, dirFlag, debugGraph, strictDep); err != nil {
		printFatal(err)
		os.Exit(1)
	}
}

func run(scriptPath string, targets []string, jobs int, force bool, dirFlag string, debugGraph, strictDep bool) error {
	f, err := os.Open(scriptPath)
	if err != nil {
		if isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd()) {
			return ioErr(Location{Path: scriptPath}, "no such script %q", scriptPath)
		}
		f = os.Stdin
		scriptPath = "<stdin>"
	} else {
		defer f.Close()
	}

	pr, err := newParser(newReader(f, scriptPath))
	if err != nil {
		return err
	}
	block, err := pr.parseProgram()
	if err != nil {
		return err
	}

	ctxt := newContext()
	ev := newEvaluator(ctxt, openFileRelative, dirFlag, strictDep)
	root := newEnv(nil)
	root.set("mkfiledir", newString(".", false))
	ec := &evalCtx{env: root, ctxt: ctxt}

	if err := ev.evalBlock(ec, block); err != nil {
		return err
	}

	if debugGraph {
		fmt.Fprintln(os.Stderr, dumpGraph(ctxt))
	}

	if len(targets) == 0 {
		t, ok := ctxt.defaultTarget()
		if !ok {
			fmt.Println("hammer: nothing to mk")
			return nil
		}
		targets = []string{t.Name}
	}

	q, err := seedQueue(ctxt, targets, Location{Path: scriptPath})
	if err != nil {
		return err
	}

	ctl := newController(jobs)
	return ctl.run(q, force)
}

func openFileRelative(name string) (io.ReadCloser, error) {
	return os.Open(name)
}

func printFatal(err error) {
	red, reset := "", ""
	if colorEnabled() {
		red, reset = "\033[31m", ansiTermDefault
	}
	fmt.Fprintf(os.Stderr, "%shammer: %v%s\n", red, err, reset)
}
