package engine

import (
	"github.com/rzubek/botl/cell"
	"github.com/rzubek/botl/compiler"
	"github.com/rzubek/botl/machine"
	"github.com/rzubek/botl/parser"
	"github.com/rzubek/botl/term"
)

// Solutions iterates the answers to one query, backtracking on Next rather
// than reporting only the all-at-once Run boolean.
type Solutions struct {
	engine  *Engine
	m       *machine.Machine
	clause  *machine.CompiledClause
	vars    []compiler.QueryVar
	started bool
	closed  bool
	err     error
}

// Query compiles goal and returns a Solutions ready to enumerate its
// answers via Next/Bindings.
func (e *Engine) Query(goal string) (*Solutions, error) {
	t, err := parser.ParseQuery(goal)
	if err != nil {
		return nil, e.reportError(err)
	}
	clause, vars, err := e.Compiler.CompileQuery(t, "<query>", 1)
	if err != nil {
		return nil, e.reportError(err)
	}
	m := machine.New(e.Store)
	m.StepLimit = e.StepLimit
	if e.Host != nil {
		m.SetHost(e.Host)
	}
	return &Solutions{engine: e, m: m, clause: clause, vars: vars}, nil
}

// Next runs the query to its first solution, or backtracks into the next
// one on a later call. It returns false once the query is exhausted or
// fails, and false with Err() set if evaluation raised an error.
func (s *Solutions) Next() bool {
	if s.closed {
		return false
	}
	var ok bool
	var err error
	if !s.started {
		s.started = true
		ok, err = s.m.RunGoal(s.clause)
	} else {
		ok, err = s.m.Redo()
	}
	if err != nil {
		s.err = s.engine.reportError(err)
		s.closed = true
		return false
	}
	if !ok {
		s.closed = true
	}
	return ok
}

// Err returns the error, if any, that ended enumeration.
func (s *Solutions) Err() error { return s.err }

// Close ends enumeration; safe to call multiple times, and to skip if
// Next has already returned false.
func (s *Solutions) Close() { s.closed = true }

// Bindings returns the current solution's named variables, keyed by their
// source-text name. Anonymous and compiler-generated variables are never
// included.
func (s *Solutions) Bindings() map[string]term.Term {
	base, _ := s.m.CurrentFrame()
	out := make(map[string]term.Term, len(s.vars))
	for _, qv := range s.vars {
		val := s.m.Stack.DerefValue(base + cell.Addr(qv.Slot))
		out[qv.Name] = s.valueToTerm(val)
	}
	return out
}

// valueToTerm converts one resolved stack cell back into a term.Term for
// the caller, recursively rebuilding compound structure.
func (s *Solutions) valueToTerm(v cell.Value) term.Term {
	switch v.Tag {
	case cell.Int:
		return term.Int(v.I)
	case cell.Float:
		return term.Float(v.F)
	case cell.Bool:
		return term.Bool(v.B)
	case cell.Ref:
		switch o := v.Obj.(type) {
		case *term.Symbol:
			return o
		case string:
			return term.Str(o)
		case *machine.Compound:
			args := make([]term.Term, len(o.Args))
			for i, addr := range o.Args {
				args[i] = s.valueToTerm(s.m.Stack.DerefValue(addr))
			}
			return &term.Call{Functor: o.Functor, Args: args}
		default:
			return term.ObjRef{Value: o}
		}
	default:
		return &term.Variable{Name: "_", Generated: true}
	}
}
