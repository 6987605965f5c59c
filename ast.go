package main

// RawString is one lexical fragment as parsed: either a literal word, a
// quoted span, or a mix the expander still needs to walk for `$`
// interpolation. spec marks a leading '.', making the fragment a special
// (phony) target name; var marks a fragment that is a bare variable
// reference ($x) rather than a literal word — the grammar reserves this as
// a distinct flag even though the current grammar folds variable
// references into the same STR token class as everything else.
type RawString struct {
	Text string
	Spec bool
	Var  bool
	Loc  Location
}

// Imm is an ordered sequence of raw strings: one whitespace-joined
// argument list as it appeared in the source (a rule's generators, a
// rule's dependencies, an assignment's right-hand side, a recipe word).
type Imm struct {
	Raw []*RawString
}

func (im *Imm) Len() int { return len(im.Raw) }

// Block is a sequence of statements sharing one lexical scope.
type Block struct {
	Stmts []Stmt
}

// Stmt is the tagged union of top-level and nested statements. Each
// concrete type below implements it with a marker method; the evaluator
// type-switches over the concrete type.
type Stmt interface {
	stmtNode()
	Location() Location
}

// Bind is `x = …`, `x += …`, or `x = env { … }`.
type Bind struct {
	ID    *RawString
	Val   *Imm   // nil if Block is set
	Block *Block // nil if Val is set
	Add   bool
	Loc   Location
}

func (*Bind) stmtNode()          {}
func (b *Bind) Location() Location { return b.Loc }

// Pipe is one `|`-separated stage of a recipe command.
type Pipe struct {
	Argv *Imm
}

// Cmd is one recipe line: a pipeline plus optional redirection.
type Cmd struct {
	Pipe   []*Pipe
	In     *RawString
	Out    *RawString
	Append bool
	Loc    Location
}

// RuleStmt is `gens : deps { recipe }` (or `;` with no recipe).
type RuleStmt struct {
	Gen  *Imm
	Dep  *Imm
	Cmds []*Cmd // nil if the rule has no recipe
	Loc  Location
}

func (*RuleStmt) stmtNode()          {}
func (r *RuleStmt) Location() Location { return r.Loc }

// Loop is `for x : list stmt`.
type Loop struct {
	ID   string
	Imm  *Imm
	Body Stmt
	Loc  Location
}

func (*Loop) stmtNode()          {}
func (l *Loop) Location() Location { return l.Loc }

// Print is `print …;`.
type Print struct {
	Imm *Imm
	Loc Location
}

func (*Print) stmtNode()          {}
func (p *Print) Location() Location { return p.Loc }

// MkDep is `makedep …;`.
type MkDep struct {
	Path *Imm
	Loc  Location
}

func (*MkDep) stmtNode()          {}
func (m *MkDep) Location() Location { return m.Loc }

// BlockStmt is a `{ … }` nested statement block introducing a new scope.
type BlockStmt struct {
	Block *Block
	Loc   Location
}

func (*BlockStmt) stmtNode()          {}
func (b *BlockStmt) Location() Location { return b.Loc }

// Include is `include`/`import …;`, optionally `?`-qualified.
type Include struct {
	Nest bool // true for import: evaluate into a fresh nested scope
	Opt  bool // true for a leading '?': a missing file is not fatal
	Imm  *Imm
	Loc  Location
}

func (*Include) stmtNode()          {}
func (i *Include) Location() Location { return i.Loc }

// Dir is `dir "name" [default] { … }`.
type Dir struct {
	Name    *RawString
	Default bool
	Block   *Block // nil for `dir "name";`
	Loc     Location
}

func (*Dir) stmtNode()          {}
func (d *Dir) Location() Location { return d.Loc }
