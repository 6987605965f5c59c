package main

// Target is one interned path name in the build graph: a file or a
// SPEC (phony) name, with the back-reference to the Rule that produces
// it, if any (original_source/src/inc.h's `struct target_t`). OutEdges
// is the set of rules that name this Target as a dependency, used to
// propagate readiness once the rule producing this Target completes.
// It is recorded on the Target itself, at the dependency's declaration
// site, precisely so that a forward reference — a rule naming a
// dependency whose own producing rule hasn't been declared yet, such
// as `all : out1 out2;` appearing before `out1`'s rule — still gets
// wired: the edge lives on the Target from the moment it's first
// named, not on whatever Rule happens to own it later.
type Target struct {
	Name     string
	Spec     bool
	Rule     *Rule // nil until a Rule binds it as a generator
	OutEdges []*Rule

	mtimeValid bool
	mtimeCache int64
}

// invalidate drops a Target's cached mtime, forcing the next staleness
// check to stat it again.
func (t *Target) invalidate() {
	t.mtimeValid = false
}

// Rule is one `gen : dep { recipe }` statement's evaluated form. Gens
// and Deps hold every Target this rule touches; Seq is nil until a
// recipe is attached (original_source/src/inc.h's `struct rule_t`).
// Add and Edges are scheduler bookkeeping populated by queue.go's
// enqueueRecursive.
type Rule struct {
	Gens []*Target
	Deps []*Target
	Seq  []*ExpandedCmd
	Loc  Location

	Add   bool
	Edges int
}

// ExpandedCmd is one recipe line after expansion: argv per pipe stage
// plus resolved redirect targets, ready for process.go to execute.
type ExpandedCmd struct {
	Pipe   [][]string
	In     string
	HasIn  bool
	Out    string
	HasOut bool
	Append bool
}

// Context is the accumulated build graph: every interned Target plus
// the ordered list of Rules (original_source/src/inc.h's `struct
// map_t`/`struct rule_list_t`). Rule order is preserved because the
// default-target policy depends on the first non-SPEC target declared.
type Context struct {
	targets map[string]*Target
	rules   []*Rule
}

func newContext() *Context {
	return &Context{targets: make(map[string]*Target)}
}

// intern returns the Target for name, creating it (with the given spec
// flag) if this is the first reference.
func (c *Context) intern(name string, spec bool) *Target {
	if t, ok := c.targets[name]; ok {
		return t
	}
	t := &Target{Name: name, Spec: spec}
	c.targets[name] = t
	return t
}

func (c *Context) lookup(name string) (*Target, bool) {
	t, ok := c.targets[name]
	return t, ok
}

// defaultTarget implements the "first non-SPEC target declared" policy,
// scanning rules then their generators in declaration order.
func (c *Context) defaultTarget() (*Target, bool) {
	for _, r := range c.rules {
		for _, g := range r.Gens {
			if !g.Spec {
				return g, true
			}
		}
	}
	return nil, false
}

// addRule implements the rule graph-construction algorithm: create a
// fresh Rule, or partial-merge into an existing one covering the same
// generator set.
func (c *Context) addRule(loc Location, gens, deps []*Target) (*Rule, error) {
	if len(gens) == 0 {
		return nil, ruleConflictErr(loc, "rule has no generators")
	}

	if existing := gens[0].Rule; existing != nil {
		if err := mergeRule(loc, existing, gens, deps); err != nil {
			return nil, err
		}
		return existing, nil
	}

	r := &Rule{Gens: gens, Deps: deps, Loc: loc}
	for _, g := range gens {
		if g.Rule != nil && g.Rule != r {
			return nil, ruleConflictErr(loc, "target %q already has a conflicting rule", g.Name)
		}
		g.Rule = r
	}
	wireBackEdges(r, deps)
	c.rules = append(c.rules, r)
	return r, nil
}

// mergeRule implements the partial-rule merge: the existing rule must
// cover exactly the same generator set, in which case the new
// dependencies are appended. Merging never itself conflicts on an
// existing recipe — `makedep` augments an already-recipe-bearing rule's
// deps routinely; evalRule is the one that rejects attaching a
// *second* recipe to the same rule.
func mergeRule(loc Location, r *Rule, gens, deps []*Target) error {
	if !sameTargetSet(r.Gens, gens) {
		return ruleConflictErr(loc, "rule for %q previously declared with a different generator set", r.Gens[0].Name)
	}
	fresh := dedupAgainst(r.Deps, deps)
	r.Deps = append(r.Deps, fresh...)
	wireBackEdges(r, fresh)
	return nil
}

// dedupAgainst returns the elements of add not already present in
// existing (by interned pointer identity), preserving add's order.
// Re-ingesting the same makedep rule — or the same statement twice —
// must not pad a rule's dependency list with repeats.
func dedupAgainst(existing, add []*Target) []*Target {
	seen := make(map[*Target]bool, len(existing))
	for _, t := range existing {
		seen[t] = true
	}
	fresh := make([]*Target, 0, len(add))
	for _, t := range add {
		if seen[t] {
			continue
		}
		seen[t] = true
		fresh = append(fresh, t)
	}
	return fresh
}

// wireBackEdges records r as an out-edge of every dep Target, so that
// whichever rule later produces that Target (or already does) can
// decrement r's edge count on completion. Recorded on the Target
// rather than its owning Rule: the owning rule may not exist yet (a
// forward reference).
func wireBackEdges(r *Rule, deps []*Target) {
	for _, d := range deps {
		d.OutEdges = append(d.OutEdges, r)
	}
}

func sameTargetSet(a, b []*Target) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[*Target]bool, len(a))
	for _, t := range a {
		seen[t] = true
	}
	for _, t := range b {
		if !seen[t] {
			return false
		}
	}
	return true
}

func (t *Target) String() string {
	return t.Name
}
