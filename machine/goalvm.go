package machine

import (
	"log"

	"github.com/rzubek/botl/cell"
	"github.com/rzubek/botl/langerrors"
	"github.com/rzubek/botl/term"
)

// dispatch executes one instruction at the current PC. It reports whether
// execution should continue at the (already advanced) PC; false means the
// current alternative failed and the caller should backtrack.
func (m *Machine) dispatch(op Op) (bool, error) {
	switch op {
	case HeadVoid:
		return m.execHeadVoid()
	case HeadVarFirst:
		return m.execHeadVarFirst()
	case HeadVarMatch:
		return m.execHeadVarMatch()
	case HeadConst:
		return m.execHeadOrGoalConst(true)
	case GoalVoid:
		return m.execGoalVoid()
	case GoalVarFirst:
		return m.execGoalVarFirst()
	case GoalVarMatch:
		return m.execGoalVarMatch()
	case GoalConst:
		return m.execHeadOrGoalConst(false)
	case EmitGoal:
		return m.execEmitGoal()
	case CCall:
		return m.call(false)
	case CLastCall:
		return m.call(true)
	case CNoGoal:
		return m.succeed(), nil
	case CCut:
		m.cut()
		m.advance(0)
		return true, nil
	case CSpecial:
		return m.execSpecial()
	case CMetaGoal:
		return m.execMetaGoal()
	default:
		if op >= BVar && op <= BLoadConst {
			return m.execBuiltin(op)
		}
		return false, langerrors.InvalidOperationError("unrecognized opcode %d", op)
	}
}

// execHeadVoid skips one head argument position without matching it.
func (m *Machine) execHeadVoid() (bool, error) {
	m.curArgAddr()
	m.advance(0)
	return true, nil
}

// execHeadVarFirst records the first occurrence of a permanent variable in
// the clause head: the slot becomes an alias of the caller's argument cell,
// not a copy of whatever value currently sits there, so a binding made
// later through either the slot or the caller's own cell is visible from
// both.
func (m *Machine) execHeadVarFirst() (bool, error) {
	slot := m.operand(0)
	argAddr := m.curArgAddr()
	slotAddr := m.slotAddr(slot)
	if slotAddr != argAddr {
		m.Stack.Bind(slotAddr, cell.SetStackRef(argAddr))
	}
	m.advance(1)
	return true, nil
}

// execHeadVarMatch unifies a repeated head variable's slot against the
// caller's cell at the current argument position.
func (m *Machine) execHeadVarMatch() (bool, error) {
	slot := m.operand(0)
	argAddr := m.curArgAddr()
	ok := m.unify(argAddr, m.slotAddr(slot))
	m.advance(1)
	return ok, nil
}

// execHeadOrGoalConst handles HeadConst (unify against the caller's cell)
// and GoalConst (push onto the data stack as the next call's argument),
// which share their kind/operand encoding.
func (m *Machine) execHeadOrGoalConst(isHead bool) (bool, error) {
	kind := m.operand(0)
	if kind == KindFunctionalExpr {
		result, afterPos, err := m.evalFVM(m.pc.Pos + 2)
		if err != nil {
			return false, err
		}
		m.pc.Pos = afterPos
		if isHead {
			ok := m.unifyConst(m.curArgAddr(), result)
			return ok, nil
		}
		m.pushArg(result)
		return true, nil
	}

	lit := m.constLiteral(kind, m.operand(1))
	m.advance(2)
	if isHead {
		return m.unifyConst(m.curArgAddr(), lit), nil
	}
	m.pushArg(lit)
	return true, nil
}

// constLiteral decodes a HeadConst/GoalConst operand pair (kind, pool
// index) into a cell.Value, reading the owning predicate's constant pools.
func (m *Machine) constLiteral(kind byte, idx byte) cell.Value {
	pred := m.curPred()
	switch kind {
	case KindInt:
		return cell.SetInt(pred.Ints[idx])
	case KindFloat:
		return cell.SetFloat(pred.Floats[idx])
	case KindBool:
		return cell.SetBool(idx != 0)
	case KindObject, KindPredicateRef:
		return cell.SetReference(pred.Objects[idx])
	default:
		panic("machine: unrecognized constant kind")
	}
}

// execGoalVoid pushes an anonymous fresh variable as the next goal's
// argument.
func (m *Machine) execGoalVoid() (bool, error) {
	m.pushArg(cell.Value{Tag: cell.Unbound})
	m.advance(0)
	return true, nil
}

// execGoalVarFirst pushes a fresh variable and records its address in the
// environment slot, so later occurrences of the same variable (in this or
// later goals) can alias it via execGoalVarMatch.
func (m *Machine) execGoalVarFirst() (bool, error) {
	slot := m.operand(0)
	freshAddr := m.Stack.Grow(1)
	m.Stack.Bind(m.slotAddr(slot), cell.SetStackRef(freshAddr))
	m.pendingArgc++
	m.advance(1)
	return true, nil
}

// execGoalVarMatch pushes an alias of an already-bound environment slot as
// the next goal's argument.
func (m *Machine) execGoalVarMatch() (bool, error) {
	slot := m.operand(0)
	m.pushArg(cell.SetStackRef(m.slotAddr(slot)))
	m.advance(1)
	return true, nil
}

// execEmitGoal decodes the predicate indicator for the upcoming CCall or
// CLastCall from the clause's object pool.
func (m *Machine) execEmitGoal() (bool, error) {
	idx := m.operand(0)
	pred := m.curPred()
	pi, ok := pred.Objects[idx].(term.Indicator)
	if !ok {
		return false, langerrors.InvalidOperationError("EmitGoal operand is not a predicate indicator")
	}
	m.pendingPI = pi
	m.advance(1)
	return true, nil
}

// execMetaGoal resolves call/N's target at run time. The embedded F-VM
// subprogram evaluates to the goal itself (an atom or a compound, read
// through whatever slot the caller bound it to); resolveMetaGoal turns
// that value into the indicator EmitGoal would have supplied statically,
// splicing a compound's own fields ahead of the extra arguments the
// bytecode stream still has to push.
func (m *Machine) execMetaGoal() (bool, error) {
	extraCount := int(m.operand(0))
	goalVal, afterPos, err := m.evalFVM(m.pc.Pos + 2)
	if err != nil {
		return false, err
	}
	m.pc.Pos = afterPos
	pi, err := m.resolveMetaGoal(goalVal, extraCount)
	if err != nil {
		return false, err
	}
	m.pendingPI = pi
	return true, nil
}

// resolveMetaGoal derives call/N's target indicator from its resolved goal
// value: an atom contributes its name and no arguments of its own, a
// compound contributes its functor and pushes its fields as the leading
// arguments, ahead of the extraCount arguments the bytecode still emits.
func (m *Machine) resolveMetaGoal(v cell.Value, extraCount int) (term.Indicator, error) {
	if v.Tag != cell.Ref {
		return term.Indicator{}, langerrors.TypeError("call/N target must be an atom or compound, got %v", v)
	}
	switch obj := v.Obj.(type) {
	case *term.Symbol:
		return term.Indicator{Name: obj, Arity: extraCount}, nil
	case *Compound:
		for _, addr := range obj.Args {
			m.pushArg(cell.SetStackRef(addr))
		}
		return term.Indicator{Name: obj.Functor, Arity: len(obj.Args) + extraCount}, nil
	default:
		return term.Indicator{}, langerrors.TypeError("call/N target must be an atom or compound, got %v", v)
	}
}

// execSpecial invokes a table's row matcher or a primop's native callback
// against the pending argument window.
func (m *Machine) execSpecial() (bool, error) {
	pi := m.pendingPI
	argc := m.pendingArgc
	argsBase := m.Stack.Top() - cell.Addr(argc)
	m.pendingArgc = 0

	pred, ok := m.Lookup.Predicate(pi)
	if !ok {
		return false, langerrors.UnknownPredicateError(pi.Name.Name(), pi.Arity)
	}
	if pred.Native == nil {
		return false, langerrors.InvalidOperationError("predicate %v has no native implementation", pi)
	}
	if pred.IsTraced {
		log.Printf("SPECIAL: %v", pi)
	}
	ok, err := pred.Native(m, argsBase, argc)
	m.advance(0)
	return ok, err
}
