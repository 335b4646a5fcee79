// Package compiler implements the seven-pass pipeline that turns parsed
// term.Term clauses into bytecode recorded in a *store.Store: declaration
// filtering, macro transform, variable analysis, fact/rule split, and
// head/body emission.
//
// Pass 2 (macro Transform) and Pass 3 (Variablize) are documented no-ops
// here: macro expansion is an external collaborator this module never
// specifies the shape of, and variable interning is done once, in package
// parser, as clauses are read, rather than as a separate pass over
// already-parsed terms.
package compiler

import (
	"log"

	"github.com/rzubek/botl/cell"
	"github.com/rzubek/botl/machine"
	"github.com/rzubek/botl/store"
	"github.com/rzubek/botl/term"
)

// Compiler drives the pipeline over successive top-level terms into one
// Store. It holds no per-clause state between calls to Compile.
type Compiler struct {
	Store *store.Store

	// OnWarning receives singleton-variable and other advisory diagnostics.
	// Defaults to log.Printf, matching the ambient logging convention used
	// throughout this module.
	OnWarning func(format string, args ...interface{})
	// OnRequire is invoked for a `require` declaration's path; leaving it
	// nil makes `require` a no-op. The engine layer wires file loading in
	// here rather than this package importing package engine.
	OnRequire func(path string) error
	// OnReport is invoked with the text produced by `report`/`listing`.
	OnReport func(string)

	nestedCounter int
}

// New returns a Compiler writing into s.
func New(s *store.Store) *Compiler {
	return &Compiler{Store: s}
}

// Bootstrap registers the kernel primops every compiled program needs
// regardless of what it declares: general two-term unification (`=/2`),
// compiled the same way as any other predicate call rather than as a
// dedicated inline opcode, since (unlike var/nonvar and numeric comparison)
// it can bind either operand to an arbitrary term, not just test a fixed
// condition.
func Bootstrap(s *store.Store) {
	s.DefinePrimop(term.NewIndicator("=", 2), func(m *machine.Machine, base cell.Addr, arity int) (bool, error) {
		return m.UnifyAt(base, base+1), nil
	})
}

func (c *Compiler) warn(format string, args ...interface{}) {
	if c.OnWarning != nil {
		c.OnWarning(format, args...)
		return
	}
	log.Printf(format, args...)
}

// Compile applies one top-level term read from source: either a
// declaration's side effect (Pass 1) or a compiled fact/rule added to the
// store (Passes 4-7).
func (c *Compiler) Compile(t term.Term, file string, line int) error {
	if decl, ok := asDeclaration(t); ok {
		return c.compileDeclaration(decl, file, line)
	}
	return c.compileClause(t, file, line)
}

func (c *Compiler) nextNestedID() int {
	c.nestedCounter++
	return c.nestedCounter
}

// QueryVar names one of a compiled query's own named variables and the
// environment slot its clause allocated for it, so a caller can read
// bindings back out of the query clause's own frame after RunGoal/Redo.
type QueryVar struct {
	Name string
	Slot int
}

// CompileQuery compiles a single goal term into a standalone, zero-argument
// clause suitable for machine.Machine.RunGoal.
func (c *Compiler) CompileQuery(goal term.Term, file string, line int) (*machine.CompiledClause, []QueryVar, error) {
	pred := &machine.Predicate{Indicator: term.NewIndicator("$query", 0)}
	cb := &clauseBuilder{
		c: c, pred: pred, slots: make(map[*term.Variable]byte),
		counts: countOccurrences(goal), file: file, line: line, source: goal,
	}
	// The query's frame must outlive its goals so bindings can be read back
	// from it: the last goal is an ordinary call followed by CNoGoal, not a
	// last call that would replace the frame.
	if err := cb.emitBody(goal, false); err != nil {
		return nil, nil, err
	}
	cb.emit(byte(machine.CNoGoal))
	vars := make([]QueryVar, 0, len(cb.slots))
	for v, slot := range cb.slots {
		if v.IsAnonymous() || v.Generated {
			continue
		}
		vars = append(vars, QueryVar{Name: v.Name, Slot: int(slot)})
	}
	clause := &machine.CompiledClause{
		Source: goal, Code: cb.code, EnvSize: int(cb.nextSlot),
		File: file, Line: line, Pred: pred, Singletons: cb.singletons,
	}
	pred.Clauses = []*machine.CompiledClause{clause}
	return clause, vars, nil
}
