// Package store implements the predicate/clause store: name+arity keyed
// predicates, tables, global variables, and the declaration-time side
// effects.
//
// brunokim/logic-engine's wam.Machine keeps predicates in a plain map
// keyed by a string functor/arity indicator (wam/model.go
// Machine.IterPredicates). This package instead orders predicates in a
// github.com/google/btree.BTreeG, following launix-de-memcp's
// storage/index.go pattern, keyed by name then arity. Listing looks up a
// single predicate, and the EL tree is kept separately (eltree.go).
package store

import (
	"fmt"
	"strings"

	"github.com/google/btree"

	"github.com/rzubek/botl/cell"
	"github.com/rzubek/botl/machine"
	"github.com/rzubek/botl/term"
)

type predEntry struct {
	pi   term.Indicator
	pred *machine.Predicate
}

func lessEntry(a, b predEntry) bool {
	if a.pi.Name.Name() != b.pi.Name.Name() {
		return a.pi.Name.Name() < b.pi.Name.Name()
	}
	return a.pi.Arity < b.pi.Arity
}

// Store is the process-wide (or per-Engine) knowledge base: the predicate
// table, the global-variable map, and the EL tree. It implements
// machine.Lookup.
type Store struct {
	preds   *btree.BTreeG[predEntry]
	globals map[*term.Symbol]cell.Value
	el      *ELTree
	tables  map[term.Indicator]*Table
	structs map[*term.Symbol]structDef

	// RequiredPaths tracks canonical paths already processed by `require`,
	// so re-`require`ing the same module is a silent no-op.
	RequiredPaths map[string]bool

	// DefaultExtension is appended to CompileFile/require paths that have
	// none.
	DefaultExtension string
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		preds:            btree.NewG(32, lessEntry),
		globals:          make(map[*term.Symbol]cell.Value),
		el:               newELTree(),
		tables:           make(map[term.Indicator]*Table),
		structs:          make(map[*term.Symbol]structDef),
		RequiredPaths:    make(map[string]bool),
		DefaultExtension: ".pl",
	}
}

// Predicate implements machine.Lookup.
func (s *Store) Predicate(pi term.Indicator) (*machine.Predicate, bool) {
	e, ok := s.preds.Get(predEntry{pi: pi})
	if !ok {
		return nil, false
	}
	return e.pred, true
}

// Intern returns the Predicate for pi, creating an empty one if absent.
func (s *Store) Intern(pi term.Indicator) *machine.Predicate {
	if p, ok := s.Predicate(pi); ok {
		return p
	}
	p := &machine.Predicate{Indicator: pi}
	s.preds.ReplaceOrInsert(predEntry{pi: pi, pred: p})
	return p
}

// AddClause interns pi's predicate and appends c to its clause list.
func (s *Store) AddClause(pi term.Indicator, c *machine.CompiledClause) {
	p := s.Intern(pi)
	c.Pred = p
	p.Clauses = append(p.Clauses, c)
}

// DefinePrimop interns a native (IsSpecial) predicate backed by fn, with a
// single synthetic clause of the required env size.
func (s *Store) DefinePrimop(pi term.Indicator, fn func(m *machine.Machine, base cell.Addr, arity int) (bool, error)) *machine.Predicate {
	p := s.Intern(pi)
	p.IsSpecial = true
	p.Native = fn
	p.Clauses = []*machine.CompiledClause{syntheticSpecialClause(p, pi.Arity)}
	return p
}

// syntheticSpecialClause builds the single clause a table or primop
// predicate runs when reached through CCall/CLastCall: read all arguments
// into slots 0..arity-1, push the slots back as CSpecial's argument window,
// then CSpecial and CNoGoal.
func syntheticSpecialClause(p *machine.Predicate, arity int) *machine.CompiledClause {
	code := make([]byte, 0, arity*4+2)
	for i := 0; i < arity; i++ {
		code = append(code, byte(machine.HeadVarFirst), byte(i))
	}
	for i := 0; i < arity; i++ {
		code = append(code, byte(machine.GoalVarMatch), byte(i))
	}
	code = append(code, byte(machine.CSpecial), byte(machine.CNoGoal))
	return &machine.CompiledClause{
		Code:    code,
		EnvSize: arity,
		Pred:    p,
	}
}

// SetSignature records a `signature` declaration's type-name tuple on pi's
// predicate, for documentation/table purposes.
func (s *Store) SetSignature(pi term.Indicator, types []*term.Symbol) {
	s.Intern(pi).Signature = types
}

// SetTraced sets or clears a predicate's IsTraced flag (`trace`/`notrace`
// declarations).
func (s *Store) SetTraced(pi term.Indicator, traced bool) {
	s.Intern(pi).IsTraced = traced
}

// SetExternallyCalled flags a predicate as reachable from outside the
// compiled program (`externally_called` declaration), so a hypothetical
// dead-code eliminator would keep it.
func (s *Store) SetExternallyCalled(pi term.Indicator) {
	s.Intern(pi).IsExternallyCalled = true
}

// SetMandatoryInstantiation flags a predicate (`mandatory_instantiation`
// declaration) as one whose callers must pass already-bound arguments; body
// emission warns at compile time whenever a call site violates this.
func (s *Store) SetMandatoryInstantiation(pi term.Indicator) {
	s.Intern(pi).MandatoryInstantiation = true
}

// Global implements machine.Lookup.
func (s *Store) Global(name *term.Symbol) (cell.Value, bool) {
	v, ok := s.globals[name]
	return v, ok
}

// SetGlobal implements machine.Lookup.
func (s *Store) SetGlobal(name *term.Symbol, v cell.Value) {
	s.globals[name] = v
}

// DefineGlobal creates a global variable with an initial value; it is
// idempotent (redefining is a plain overwrite, not an error).
func (s *Store) DefineGlobal(name *term.Symbol, initial cell.Value) {
	s.globals[name] = initial
}

// Find returns the current value of a global variable.
func (s *Store) Find(name *term.Symbol) (cell.Value, bool) {
	return s.Global(name)
}

// ELTree exposes the store's exclusive-logic tree.
func (s *Store) ELTree() *ELTree { return s.el }

// CanonicalPath appends DefaultExtension to path if it has no extension.
func (s *Store) CanonicalPath(path string) string {
	if strings.Contains(lastSegment(path), ".") {
		return path
	}
	return path + s.DefaultExtension
}

func lastSegment(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[i+1:]
	}
	return path
}

// Require marks path as processed, returning true if it was already
// required (a no-op caller should skip re-compiling).
func (s *Store) Require(path string) (alreadyRequired bool) {
	canon := s.CanonicalPath(path)
	if s.RequiredPaths[canon] {
		return true
	}
	s.RequiredPaths[canon] = true
	return false
}

// Listing pretty-prints every clause of pi: its source term followed by a
// mnemonic disassembly of its bytecode, in brunokim/logic-engine's
// Instruction.String()-style format (wam/model.go).
func (s *Store) Listing(pi term.Indicator) string {
	p, ok := s.Predicate(pi)
	if !ok {
		return fmt.Sprintf("%% no clauses for %v\n", pi)
	}
	var b strings.Builder
	for _, c := range p.Clauses {
		fmt.Fprintf(&b, "%v :-\n", headTermString(c))
		disassemble(&b, c)
	}
	return b.String()
}

func headTermString(c *machine.CompiledClause) string {
	if c.Source != nil {
		return c.Source.String()
	}
	return fmt.Sprintf("<clause %p>", c)
}
