package compiler

import (
	"github.com/rzubek/botl/cell"
	"github.com/rzubek/botl/langerrors"
	"github.com/rzubek/botl/machine"
	"github.com/rzubek/botl/term"
)

// clauseBuilder accumulates bytecode and slot assignments for a single
// clause (an ordinary rule/fact, a query, or one disjunct of a compiled-out
// disjunction predicate).
type clauseBuilder struct {
	c    *Compiler
	pred *machine.Predicate

	code     []byte
	slots    map[*term.Variable]byte
	nextSlot byte
	counts   map[*term.Variable]int

	source     term.Term
	file       string
	line       int
	singletons []string
}

func (cb *clauseBuilder) emit(b ...byte) { cb.code = append(cb.code, b...) }

// slotOf returns v's environment slot, allocating one on first use.
func (cb *clauseBuilder) slotOf(v *term.Variable) byte {
	if s, ok := cb.slots[v]; ok {
		return s
	}
	s := cb.nextSlot
	cb.slots[v] = s
	cb.nextSlot++
	return s
}

// newScratchSlot allocates a slot with no associated variable, for staging
// a literal operand of an inline builtin via BLoadConst.
func (cb *clauseBuilder) newScratchSlot() byte {
	s := cb.nextSlot
	cb.nextSlot++
	return s
}

// internLiteral encodes t as a HeadConst/GoalConst (kind, pool index) pair,
// or reports ok=false when t isn't a plain literal (e.g. a compound
// pattern, which the caller falls back to functional-expression encoding
// for).
func (cb *clauseBuilder) internLiteral(t term.Term) (kind byte, idx byte, ok bool) {
	switch v := t.(type) {
	case term.Int:
		return machine.KindInt, cb.pred.InternInt(int64(v)), true
	case term.Float:
		return machine.KindFloat, cb.pred.InternFloat(float32(v)), true
	case term.Bool:
		if bool(v) {
			return machine.KindBool, 1, true
		}
		return machine.KindBool, 0, true
	case term.Str:
		return machine.KindObject, cb.pred.InternObject(string(v)), true
	case *term.Symbol:
		if v == term.SymTrue {
			return machine.KindBool, 1, true
		}
		if v == term.SymFalse {
			return machine.KindBool, 0, true
		}
		return machine.KindObject, cb.pred.InternObject(v), true
	default:
		return 0, 0, false
	}
}

// emitFunctionalExpr emits F-VM bytecode evaluating t to a single result,
// terminated by FReturn: the encoding a HeadConst/GoalConst with
// KindFunctionalExpr expects to follow it.
func (cb *clauseBuilder) emitFunctionalExpr(t term.Term) {
	cb.emitFVMValue(t)
	cb.emit(byte(machine.FReturn))
}

// emitFVMValue pushes t's value, recursing into compound arguments so a
// struct pattern like a(1, X) becomes nested FConstructor calls with each
// first-occurrence variable field aliased via FSlotRef rather than copied.
func (cb *clauseBuilder) emitFVMValue(t term.Term) {
	switch v := t.(type) {
	case *term.Variable:
		cb.emit(byte(machine.FSlotRef), cb.slotOf(v))
	case term.Int:
		if v >= -128 && v <= 127 {
			cb.emit(byte(machine.FPushSmallInt), byte(int8(v)))
		} else {
			cb.emit(byte(machine.FPushInt), cb.pred.InternInt(int64(v)))
		}
	case term.Float:
		cb.emit(byte(machine.FPushFloat), cb.pred.InternFloat(float32(v)))
	case term.Bool:
		b := byte(0)
		if bool(v) {
			b = 1
		}
		cb.emit(byte(machine.FPushBool), b)
	case term.Str:
		cb.emit(byte(machine.FPushObject), cb.pred.InternObject(string(v)))
	case *term.Symbol:
		cb.emit(byte(machine.FPushObject), cb.pred.InternObject(v))
	case *term.Call:
		for _, a := range v.Args {
			cb.emitFVMValue(a)
		}
		cb.emit(byte(machine.FPushObject), cb.pred.InternObject(v.Functor))
		cb.emit(byte(machine.FConstructor), byte(len(v.Args)))
	default:
		cb.emit(byte(machine.FPushBool), 0)
	}
}

// emitHead compiles a clause head's argument list: each
// argument becomes HeadVoid (a variable seen nowhere else), HeadVarFirst
// (a variable's first occurrence), HeadVarMatch (a repeat occurrence), or
// HeadConst (a literal or, via an inline functional expression, a compound
// pattern).
func (cb *clauseBuilder) emitHead(args []term.Term) []machine.HeadSlot {
	model := make([]machine.HeadSlot, len(args))
	for i, a := range args {
		v, isVar := a.(*term.Variable)
		if !isVar {
			if kind, idx, ok := cb.internLiteral(a); ok {
				cb.emit(byte(machine.HeadConst), kind, idx)
				model[i] = machine.HeadSlot{IsLiteral: true, Literal: a, SlotIndex: -1}
			} else {
				cb.emit(byte(machine.HeadConst), machine.KindFunctionalExpr)
				cb.emitFunctionalExpr(a)
				model[i] = machine.HeadSlot{IsLiteral: true, Literal: a, SlotIndex: -1}
			}
			continue
		}
		if !v.Generated && !v.IsAnonymous() && cb.counts[v] == 1 {
			cb.singletons = append(cb.singletons, v.Name)
		}
		if cb.counts[v] <= 1 {
			cb.emit(byte(machine.HeadVoid))
			model[i] = machine.HeadSlot{SlotIndex: -1}
			continue
		}
		_, seen := cb.slots[v]
		slot := cb.slotOf(v)
		if seen {
			cb.emit(byte(machine.HeadVarMatch), slot)
		} else {
			cb.emit(byte(machine.HeadVarFirst), slot)
		}
		model[i] = machine.HeadSlot{SlotIndex: int(slot)}
	}
	return model
}

// splitClause separates a `Head :- Body` rule into its two parts, or
// reports a bare fact as (t, nil).
func splitClause(t term.Term) (term.Term, term.Term) {
	if c, ok := t.(*term.Call); ok && c.Functor == term.SymImplication && len(c.Args) == 2 {
		return c.Args[0], c.Args[1]
	}
	return t, nil
}

func argsOf(head term.Term) []term.Term {
	if c, ok := head.(*term.Call); ok {
		return c.Args
	}
	return nil
}

// groundRow converts a fully ground fact head into a table row; ok is
// false if any argument is a variable or an unsupported literal shape.
func groundRow(head term.Term) ([]cell.Value, bool) {
	c, ok := head.(*term.Call)
	if !ok {
		return nil, true
	}
	row := make([]cell.Value, len(c.Args))
	for i, a := range c.Args {
		v, ok := literalValue(a)
		if !ok {
			return nil, false
		}
		row[i] = v
	}
	return row, true
}

// maybeCompileFact routes a bare (bodyless) fact to the EL tree or a
// table's row set instead of compiling it as an ordinary clause: a ground
// fact whose predicate is a table is asserted directly into the table
// instead of being compiled, and facts shaped as `/`, `/>`, or `:` are
// external EL-tree assertions, never queryable predicates.
func (c *Compiler) maybeCompileFact(pi term.Indicator, head, body, whole term.Term, file string, line int) (handled bool, err error) {
	if body != nil {
		return false, nil
	}
	if hc, ok := head.(*term.Call); ok && len(hc.Args) == 2 {
		switch hc.Functor {
		case term.SymSlash, term.SymELNonExcl:
			c.Store.ELTree().AssertNonExclusive(hc.Args[0], hc.Args[1])
			return true, nil
		case term.SymColon:
			c.Store.ELTree().AssertExclusive(hc.Args[0], hc.Args[1])
			return true, nil
		}
	}
	if p, ok := c.Store.Predicate(pi); ok && p.IsTable {
		row, ok := groundRow(head)
		if !ok {
			return true, langerrors.SyntaxError(file, line, whole, "table fact must be fully ground")
		}
		t := c.Store.TableFor(pi)
		if t == nil {
			return true, langerrors.InvalidOperationError("table %v has no row store", pi)
		}
		t.AssertRow(row)
		return true, nil
	}
	return false, nil
}

// compileClause implements Passes 4-7 for one ordinary fact or rule.
func (c *Compiler) compileClause(t term.Term, file string, line int) error {
	head, body := splitClause(t)
	pi, ok := term.IndicatorOf(head)
	if !ok {
		return langerrors.SyntaxError(file, line, t, "clause head must be a callable term")
	}
	if handled, err := c.maybeCompileFact(pi, head, body, t, file, line); handled {
		return err
	}

	headArgs := argsOf(head)
	countTerms := append(append([]term.Term{}, headArgs...), body)
	cb := &clauseBuilder{
		c: c, pred: c.Store.Intern(pi),
		slots: make(map[*term.Variable]byte), counts: countOccurrences(countTerms...),
		source: t, file: file, line: line,
	}
	model := cb.emitHead(headArgs)
	if body != nil {
		if err := cb.emitBody(body, true); err != nil {
			return err
		}
	} else {
		cb.emit(byte(machine.CNoGoal))
	}

	clause := &machine.CompiledClause{
		Source: t, Code: cb.code, EnvSize: int(cb.nextSlot),
		HeadModel: model, File: file, Line: line, Singletons: cb.singletons,
	}
	c.Store.AddClause(pi, clause)
	for _, s := range cb.singletons {
		c.warn("compiler: singleton variable %s in %v (%s:%d)", s, pi, file, line)
	}
	return nil
}
