package main

// readyQueue is the FIFO of rules with no unresolved dependency-rule
// edges, seeded by enqueueRecursive and drained by the job controller.
type readyQueue struct {
	items []*Rule
}

func (q *readyQueue) push(r *Rule) {
	q.items = append(q.items, r)
}

func (q *readyQueue) pop() (*Rule, bool) {
	if len(q.items) == 0 {
		return nil, false
	}
	r := q.items[0]
	q.items = q.items[1:]
	return r, true
}

func (q *readyQueue) empty() bool {
	return len(q.items) == 0
}

// enqueueRecursive implements the ready-queue seeding walk, grounded
// on original_source/src/rule.c's queue_recur: mark r visited,
// recurse into every dep rule, and enqueue r once its dep-rule count
// (its Edges) reaches zero.
func enqueueRecursive(q *readyQueue, r *Rule) {
	if r.Add {
		return
	}
	r.Add = true

	count := 0
	for _, d := range r.Deps {
		if d.Rule != nil {
			count++
			enqueueRecursive(q, d.Rule)
		}
	}

	if count == 0 {
		q.push(r)
	} else {
		r.Edges = count
	}
}

// seedQueue resolves every requested path to its producing rule and
// seeds the ready queue from each. An unknown path that does not exist
// on disk either is an IOError.
func seedQueue(ctxt *Context, paths []string, loc Location) (*readyQueue, error) {
	q := &readyQueue{}

	for _, p := range paths {
		t, ok := ctxt.lookup(p)
		if !ok || t.Rule == nil {
			if fileExists(p) {
				continue
			}
			return nil, ioErr(loc, "don't know how to make %q", p)
		}
		enqueueRecursive(q, t.Rule)
	}
	return q, nil
}

// onRuleComplete invalidates every generator's cached mtime, then
// decrements the edge count of every rule that named one of those
// generators as a dependency (Target.OutEdges), enqueueing it once it
// reaches zero. A rule reachable through more than one completed
// generator is only released once, when its count actually reaches
// zero. Only ever called from the coordinator goroutine.
func onRuleComplete(q *readyQueue, r *Rule) {
	for _, g := range r.Gens {
		g.invalidate()
		for _, out := range g.OutEdges {
			out.Edges--
			if out.Edges == 0 {
				q.push(out)
			}
		}
	}
}
