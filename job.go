package main

import (
	"sync"

	"golang.org/x/sync/semaphore"
)

// controller bounds concurrent in-flight rules to jobs slots, the way
// original_source/src/job.c's ctrl_avail/ctrl_busy pair does, but using
// golang.org/x/sync/semaphore in place of friedelschoen-mk/mk.go's
// hand-rolled sync.Cond slot counter.
type controller struct {
	sem  *semaphore.Weighted
	jobs int64

	mu      sync.Mutex
	inFlight int
	results chan jobResult
}

type jobResult struct {
	rule *Rule
	err  error
}

func newController(jobs int) *controller {
	if jobs < 1 {
		jobs = 1
	}
	return &controller{
		sem:     semaphore.NewWeighted(int64(jobs)),
		jobs:    int64(jobs),
		results: make(chan jobResult),
	}
}

// run is the single coordinator loop: it pops ready rules, decides
// staleness itself (mutating Target.mtimeCache is only ever safe from
// here), and only hands a rule off to a worker goroutine once it knows
// the recipe actually has to run. Workers do nothing but fork/exec/wait
// and report back on ctl.results; all graph mutation — onRuleComplete,
// mtime caching — stays on this goroutine.
func (ctl *controller) run(q *readyQueue, force bool) error {
	for {
		for !q.empty() {
			r, _ := q.pop()
			if !isStale(r, force) {
				onRuleComplete(q, r)
				continue
			}
			if !ctl.sem.TryAcquire(1) {
				q.push(r)
				break
			}
			ctl.mu.Lock()
			ctl.inFlight++
			ctl.mu.Unlock()
			go ctl.execute(r)
		}

		if q.empty() && ctl.inFlightCount() == 0 {
			return nil
		}

		res := <-ctl.results
		ctl.sem.Release(1)
		ctl.mu.Lock()
		ctl.inFlight--
		ctl.mu.Unlock()
		if res.err != nil {
			return res.err
		}
		onRuleComplete(q, res.rule)
	}
}

func (ctl *controller) inFlightCount() int {
	ctl.mu.Lock()
	defer ctl.mu.Unlock()
	return ctl.inFlight
}

// isStale decides whether r's recipe must run, comparing the oldest
// generator against the newest non-SPEC dependency; a SPEC generator
// makes the rule stale outright. It touches Target.mtimeCache and must
// only ever be called from the coordinator goroutine.
func isStale(r *Rule, force bool) bool {
	if force {
		return true
	}
	min := int64(1<<63 - 1)
	for _, g := range r.Gens {
		if g.Spec {
			return true
		}
		if m := targetMtime(g); m < min {
			min = m
		}
	}
	max := int64(minInt64)
	for _, d := range r.Deps {
		if d.Spec {
			continue
		}
		if m := targetMtime(d); m > max {
			max = m
		}
	}
	return max > min
}

// execute runs r's recipe: create the generators' directories, then
// fork/exec/wait the pipeline. Staleness has already been decided by
// the coordinator; execute only ever sees rules that must run.
func (ctl *controller) execute(r *Rule) {
	err := ctl.build(r)
	ctl.results <- jobResult{rule: r, err: err}
}

func (ctl *controller) build(r *Rule) error {
	for _, g := range r.Gens {
		if !g.Spec {
			if err := mkdirAllPrefixed(g.Name); err != nil {
				return ioErr(r.Loc, "creating directories for %q: %v", g.Name, err)
			}
		}
	}

	if len(r.Seq) == 0 {
		return nil
	}
	return runRule(r)
}
