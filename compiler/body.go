package compiler

import (
	"fmt"

	"github.com/rzubek/botl/langerrors"
	"github.com/rzubek/botl/machine"
	"github.com/rzubek/botl/term"
)

// builtinOps maps a functor name and arity to the inline opcode it
// compiles to: the handful of operations cheap enough
// to run without the full predicate-call machinery.
var builtinOps = map[string]map[int]machine.Op{
	"var":                        {1: machine.BVar},
	"nonvar":                     {1: machine.BNonVar},
	"integer":                    {1: machine.BTypeInt},
	"float":                      {1: machine.BTypeFloat},
	"number":                     {1: machine.BTypeNumber},
	"string":                     {1: machine.BTypeString},
	"symbol":                     {1: machine.BTypeSymbol},
	"missing":                    {1: machine.BTypeMissing},
	"<":                          {2: machine.BNumLT},
	">":                          {2: machine.BNumGT},
	"=<":                         {2: machine.BNumLE},
	">=":                         {2: machine.BNumGE},
	"unsafe_set":                 {2: machine.BUnsafeSet},
	"unsafe_initialize":          {1: machine.BUnsafeInit},
	"unsafe_initialize_zero":     {1: machine.BUnsafeInitZero},
	"unsafe_initialize_zero_int": {1: machine.BUnsafeInitZeroInt},
	"maximize_update":            {2: machine.BMaximizeUpdate},
	"minimize_update":            {2: machine.BMinimizeUpdate},
	"sum_update_and_repeat":      {2: machine.BSumUpdateRepeat},
	"inc_and_repeat":             {1: machine.BIncAndRepeat},
	"throw":                      {1: machine.BThrow},
	"call_failed":                {0: machine.BCallFailed},
}

// emitBody compiles one goal term. isTail marks whether this
// goal occupies the clause's last position, which determines whether a
// predicate call gets last-call optimisation (CLastCall) and whether an
// inline opcode needs a trailing CNoGoal to end the clause.
func (cb *clauseBuilder) emitBody(t term.Term, isTail bool) error {
	switch v := t.(type) {
	case *term.Symbol:
		switch v {
		case term.SymTrue:
			if isTail {
				cb.emit(byte(machine.CNoGoal))
			}
			return nil
		case term.SymCut:
			cb.emit(byte(machine.CCut))
			if isTail {
				cb.emit(byte(machine.CNoGoal))
			}
			return nil
		case term.SymFail, term.SymFalse:
			cb.emit(byte(machine.BFail))
			return nil
		}
		return cb.emitCallTerm(term.Indicator{Name: v, Arity: 0}, nil, isTail)

	case *term.Call:
		switch v.Functor {
		case term.SymConjunction:
			if len(v.Args) == 2 {
				if err := cb.emitBody(v.Args[0], false); err != nil {
					return err
				}
				return cb.emitBody(v.Args[1], isTail)
			}
		case term.SymDisjunction:
			if len(v.Args) == 2 {
				return cb.emitDisjunction(v, isTail)
			}
		case term.SymCall:
			return cb.emitMetaCall(v, isTail)
		case term.SymUnify:
			if len(v.Args) == 2 {
				return cb.emitCallTerm(term.NewIndicator("=", 2), v.Args, isTail)
			}
		}
		if arities, ok := builtinOps[v.Functor.Name()]; ok {
			if op, ok := arities[len(v.Args)]; ok {
				cb.emitBuiltinCall(op, v.Args)
				if isTail {
					cb.emit(byte(machine.CNoGoal))
				}
				return nil
			}
		}
		return cb.emitCallTerm(term.NewIndicator(v.Functor.Name(), len(v.Args)), v.Args, isTail)

	default:
		return langerrors.SyntaxError(cb.file, cb.line, t, "term cannot appear as a goal")
	}
}

// emitCallTerm compiles an ordinary, table, or primop predicate call:
// EmitGoal, one goal-argument opcode per argument, then CCall/CLastCall for
// a compiled predicate or CSpecial for one already known IsSpecial. A
// CSpecial in tail position needs an explicit CNoGoal, since (unlike
// CCall/CLastCall) it doesn't itself transfer control anywhere.
func (cb *clauseBuilder) emitCallTerm(pi term.Indicator, args []term.Term, isTail bool) error {
	special := cb.emitCall(pi, args, isTail)
	if isTail && special {
		cb.emit(byte(machine.CNoGoal))
	}
	return nil
}

// emitCall emits the shared EmitGoal+arguments+dispatch sequence, reporting
// whether pi resolved to an IsSpecial predicate (CSpecial dispatch) as
// opposed to an ordinary compiled one (CCall/CLastCall dispatch).
func (cb *clauseBuilder) emitCall(pi term.Indicator, args []term.Term, isTail bool) bool {
	p, ok := cb.c.Store.Predicate(pi)
	if ok && p.MandatoryInstantiation {
		cb.warnUninstantiatedArgs(pi, args)
	}

	idx := cb.pred.InternObject(pi)
	cb.emit(byte(machine.EmitGoal), idx)
	for _, a := range args {
		cb.emitGoalArg(a)
	}
	if ok && p.IsSpecial {
		cb.emit(byte(machine.CSpecial))
		return true
	}
	if isTail {
		cb.emit(byte(machine.CLastCall))
	} else {
		cb.emit(byte(machine.CCall))
	}
	return false
}

// warnUninstantiatedArgs compile-time-warns on every argument to a
// MandatoryInstantiation predicate that is a variable's first occurrence in
// the clause, since such a call site can only be reached with that argument
// still unbound.
func (cb *clauseBuilder) warnUninstantiatedArgs(pi term.Indicator, args []term.Term) {
	warned := make(map[*term.Variable]bool)
	for _, a := range args {
		v, ok := a.(*term.Variable)
		if !ok || v.Generated {
			continue
		}
		if _, seen := cb.slots[v]; seen {
			continue
		}
		if warned[v] {
			continue
		}
		warned[v] = true
		cb.c.warn("compiler: first use of variable %s passed to mandatory-instantiation predicate %v (%s:%d)", v.Name, pi, cb.file, cb.line)
	}
}

// emitGoalArg compiles one call argument using the goal-opcode family, the
// mirror of emitHead for the calling side.
func (cb *clauseBuilder) emitGoalArg(a term.Term) {
	if v, ok := a.(*term.Variable); ok {
		if v.IsAnonymous() && cb.counts[v] <= 1 {
			cb.emit(byte(machine.GoalVoid))
			return
		}
		_, seen := cb.slots[v]
		slot := cb.slotOf(v)
		if seen {
			cb.emit(byte(machine.GoalVarMatch), slot)
		} else {
			cb.emit(byte(machine.GoalVarFirst), slot)
		}
		return
	}
	if kind, idx, ok := cb.internLiteral(a); ok {
		cb.emit(byte(machine.GoalConst), kind, idx)
		return
	}
	cb.emit(byte(machine.GoalConst), machine.KindFunctionalExpr)
	cb.emitFunctionalExpr(a)
}

// emitBuiltinCall emits an inline builtin opcode, staging any literal
// operand into a scratch slot via BLoadConst first, since inline builtins
// read their operands as slot indices only.
func (cb *clauseBuilder) emitBuiltinCall(op machine.Op, args []term.Term) {
	operands := make([]byte, len(args))
	for i, a := range args {
		operands[i] = cb.operandSlot(a)
	}
	cb.emit(byte(op))
	cb.emit(operands...)
}

// operandSlot returns a slot address holding a's value: a's own slot when a
// is a variable, or a fresh scratch slot loaded via BLoadConst when a is a
// literal.
func (cb *clauseBuilder) operandSlot(a term.Term) byte {
	if v, ok := a.(*term.Variable); ok {
		return cb.slotOf(v)
	}
	kind, idx, ok := cb.internLiteral(a)
	if !ok {
		kind, idx = machine.KindBool, 0
	}
	slot := cb.newScratchSlot()
	cb.emit(byte(machine.BLoadConst), slot, kind, idx)
	return slot
}

// emitDisjunction compiles `(A ; B)` into a call to a fresh
// nested predicate with one clause per disjunct: every variable free in
// either branch is passed as a call argument, so a binding a branch makes
// is visible back in the enclosing clause exactly the way an ordinary
// predicate call's argument aliasing already makes callee bindings visible
// to the caller. No new opcode or "return" mechanism is needed.
func (cb *clauseBuilder) emitDisjunction(v *term.Call, isTail bool) error {
	free := freeVars(v)
	pi := term.NewIndicator(fmt.Sprintf("$or_%d", cb.c.nextNestedID()), len(free))
	nestedPred := cb.c.Store.Intern(pi)
	nestedPred.IsNestedPredicate = true

	for _, branch := range []term.Term{v.Args[0], v.Args[1]} {
		nb := &clauseBuilder{
			c: cb.c, pred: nestedPred,
			slots: make(map[*term.Variable]byte), counts: countOccurrences(branch),
			file: cb.file, line: cb.line, source: branch,
		}
		for i, fv := range free {
			nb.emit(byte(machine.HeadVarFirst), byte(i))
			nb.slots[fv] = byte(i)
			nb.nextSlot = byte(i + 1)
		}
		if err := nb.emitBody(branch, true); err != nil {
			return err
		}
		nestedPred.Clauses = append(nestedPred.Clauses, &machine.CompiledClause{
			Source: branch, Code: nb.code, EnvSize: int(nb.nextSlot),
			File: cb.file, Line: cb.line, Pred: nestedPred, Singletons: nb.singletons,
		})
	}

	args := make([]term.Term, len(free))
	for i, fv := range free {
		args[i] = fv
	}
	special := cb.emitCall(pi, args, isTail)
	if isTail && special {
		cb.emit(byte(machine.CNoGoal))
	}
	return nil
}

// emitMetaCall compiles call/N. A statically known goal (an atom, a
// compound, or the `Name/Arity` indicator shape recognized the same way
// term.IndicatorOf does) is resolved at compile time and compiled exactly
// as if it had been written directly. Anything else - a variable, bound
// only once the clause runs - compiles to CMetaGoal, which resolves the
// goal to a predicate indicator at run time from whatever value the
// variable holds by then, splicing a resolved compound's own fields ahead
// of the extra arguments (grounded on the teacher's putMeta/callMeta
// runtime instruction pair).
func (cb *clauseBuilder) emitMetaCall(v *term.Call, isTail bool) error {
	if len(v.Args) == 0 {
		return langerrors.SyntaxError(cb.file, cb.line, v, "call/0 is not valid")
	}
	goal, extra := v.Args[0], v.Args[1:]
	switch g := goal.(type) {
	case *term.Symbol:
		return cb.emitBody(callTermFor(g, extra), isTail)
	case *term.Call:
		if g.Functor == term.SymSlash && len(g.Args) == 2 {
			if arity, ok := g.Args[1].(term.Int); ok {
				if name, ok := g.Args[0].(*term.Symbol); ok {
					return cb.emitCallTerm(term.NewIndicator(name.Name(), int(arity)), extra, isTail)
				}
			}
		}
		return cb.emitBody(callTermFor(g.Functor, append(append([]term.Term{}, g.Args...), extra...)), isTail)
	case *term.Variable:
		return cb.emitDynamicMetaCall(g, extra, isTail)
	default:
		return langerrors.SyntaxError(cb.file, cb.line, v, "call/N target must be an atom, compound, or variable")
	}
}

// emitDynamicMetaCall compiles call/N for a goal bound only once the
// clause runs: CMetaGoal, an F-VM subprogram loading and dereferencing the
// goal variable's slot (FLoad, not FSlotRef - the resolved value itself is
// needed, not an alias to the slot), then the extra arguments and
// CCall/CLastCall exactly as an ordinary call would follow EmitGoal.
func (cb *clauseBuilder) emitDynamicMetaCall(goal *term.Variable, extra []term.Term, isTail bool) error {
	cb.emit(byte(machine.CMetaGoal), byte(len(extra)))
	cb.emit(byte(machine.FLoad), cb.slotOf(goal))
	cb.emit(byte(machine.FReturn))
	for _, a := range extra {
		cb.emitGoalArg(a)
	}
	if isTail {
		cb.emit(byte(machine.CLastCall))
	} else {
		cb.emit(byte(machine.CCall))
	}
	return nil
}

func callTermFor(functor *term.Symbol, args []term.Term) term.Term {
	if len(args) == 0 {
		return functor
	}
	return &term.Call{Functor: functor, Args: args}
}
