package machine

import (
	"log"

	"github.com/rzubek/botl/cell"
	"github.com/rzubek/botl/langerrors"
)

// execBuiltin dispatches one inline builtin opcode. Operand slot indices
// are read via m.operand; every builtin advances the PC itself so it can
// vary operand count (BUnsafeSet takes two slots, most take one).
func (m *Machine) execBuiltin(op Op) (bool, error) {
	switch op {
	case BVar:
		v := m.Stack.DerefValue(m.slotAddr(m.operand(0)))
		m.advance(1)
		return v.IsUnbound(), nil
	case BNonVar:
		v := m.Stack.DerefValue(m.slotAddr(m.operand(0)))
		m.advance(1)
		return !v.IsUnbound(), nil
	case BNumLT:
		return m.numCompare(func(a, b float64) bool { return a < b })
	case BNumGT:
		return m.numCompare(func(a, b float64) bool { return a > b })
	case BNumLE:
		return m.numCompare(func(a, b float64) bool { return a <= b })
	case BNumGE:
		return m.numCompare(func(a, b float64) bool { return a >= b })
	case BTypeInt:
		return m.typeTest(func(v cell.Value) bool { return v.Tag == cell.Int })
	case BTypeFloat:
		return m.typeTest(func(v cell.Value) bool { return v.Tag == cell.Float })
	case BTypeNumber:
		return m.typeTest(func(v cell.Value) bool { return v.Tag == cell.Int || v.Tag == cell.Float })
	case BTypeString:
		return m.typeTest(func(v cell.Value) bool {
			_, ok := v.Obj.(string)
			return v.Tag == cell.Ref && ok
		})
	case BTypeSymbol:
		return m.typeTest(func(v cell.Value) bool {
			if v.Tag != cell.Ref {
				return false
			}
			_, ok := v.Obj.(interface{ Name() string })
			return ok
		})
	case BTypeMissing:
		return m.typeTest(func(v cell.Value) bool { return v.IsUnbound() })
	case BUnsafeSet:
		dst, src := m.operand(0), m.operand(1)
		m.Stack.Set(m.slotAddr(dst), m.Stack.Get(m.slotAddr(src)))
		m.advance(2)
		return true, nil
	case BUnsafeInit:
		m.Stack.Set(m.slotAddr(m.operand(0)), cell.Value{Tag: cell.Unbound})
		m.advance(1)
		return true, nil
	case BUnsafeInitZero:
		m.Stack.Set(m.slotAddr(m.operand(0)), cell.SetFloat(0))
		m.advance(1)
		return true, nil
	case BUnsafeInitZeroInt:
		m.Stack.Set(m.slotAddr(m.operand(0)), cell.SetInt(0))
		m.advance(1)
		return true, nil
	case BMaximizeUpdate:
		return m.aggregateUpdate(func(acc, v float64) bool { return v > acc })
	case BMinimizeUpdate:
		return m.aggregateUpdate(func(acc, v float64) bool { return v < acc })
	case BSumUpdateRepeat:
		acc, val := m.operand(0), m.operand(1)
		accAddr := m.slotAddr(acc)
		sum := m.Stack.Get(accAddr).AsFloat() + m.Stack.DerefValue(m.slotAddr(val)).AsFloat()
		m.Stack.Set(accAddr, cell.SetFloat(sum))
		m.advance(2)
		return true, nil
	case BIncAndRepeat:
		accAddr := m.slotAddr(m.operand(0))
		cur := m.Stack.Get(accAddr)
		m.Stack.Set(accAddr, cell.SetInt(cur.I+1))
		m.advance(1)
		return true, nil
	case BThrow:
		payload := m.Stack.DerefValue(m.slotAddr(m.operand(0)))
		m.advance(1)
		return false, langerrors.UserThrowError(payload)
	case BCallFailed:
		log.Printf("call_failed")
		m.advance(0)
		return false, nil
	case BFail:
		m.advance(0)
		return false, nil
	case BLoadConst:
		slot, kind, idx := m.operand(0), m.operand(1), m.operand(2)
		m.Stack.Set(m.slotAddr(slot), m.constLiteral(kind, idx))
		m.advance(3)
		return true, nil
	default:
		return false, langerrors.InvalidOperationError("unrecognized builtin opcode %d", op)
	}
}

// numCompare reads two slot operands, dereferences them, and applies cmp to
// their float64 values. Fails (rather than errors) on non-numeric operands
// is not correct per spec's TypeError family, so it raises TypeError.
func (m *Machine) numCompare(cmp func(a, b float64) bool) (bool, error) {
	xAddr, yAddr := m.slotAddr(m.operand(0)), m.slotAddr(m.operand(1))
	m.advance(2)
	x, y := m.Stack.DerefValue(xAddr), m.Stack.DerefValue(yAddr)
	if x.IsUnbound() || y.IsUnbound() {
		return false, langerrors.InstantiationError("comparison operand is unbound")
	}
	if (x.Tag != cell.Int && x.Tag != cell.Float) || (y.Tag != cell.Int && y.Tag != cell.Float) {
		return false, langerrors.TypeError("comparison operand is not numeric")
	}
	return cmp(float64(x.AsFloat()), float64(y.AsFloat())), nil
}

func (m *Machine) typeTest(pred func(cell.Value) bool) (bool, error) {
	v := m.Stack.DerefValue(m.slotAddr(m.operand(0)))
	m.advance(1)
	return pred(v), nil
}

// aggregateUpdate implements maximize_update/minimize_update: operand 0 is
// the accumulator slot, operand 1 the candidate value slot. better reports
// whether v should replace acc.
func (m *Machine) aggregateUpdate(better func(acc, v float64) bool) (bool, error) {
	accSlot, valSlot := m.operand(0), m.operand(1)
	accAddr := m.slotAddr(accSlot)
	m.advance(2)
	acc := m.Stack.Get(accAddr)
	val := m.Stack.DerefValue(m.slotAddr(valSlot))
	if acc.IsUnbound() || better(float64(acc.AsFloat()), float64(val.AsFloat())) {
		m.Stack.Set(accAddr, val)
	}
	return true, nil
}
