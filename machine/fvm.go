package machine

import (
	"github.com/rzubek/botl/cell"
	"github.com/rzubek/botl/langerrors"
	"github.com/rzubek/botl/term"
)

// fscratch is the functional-expression stack: a scratch region isolated
// from the unification cells so arithmetic never perturbs the trail.
type fscratch struct {
	vals []cell.Value
}

func (s *fscratch) push(v cell.Value) { s.vals = append(s.vals, v) }

func (s *fscratch) pop() cell.Value {
	v := s.vals[len(s.vals)-1]
	s.vals = s.vals[:len(s.vals)-1]
	return v
}

// evalFVM interprets F-VM bytecode starting at pos (inside the current
// clause's Code) until FReturn, returning the single result cell and the
// position immediately after FReturn.
func (m *Machine) evalFVM(pos int) (cell.Value, int, error) {
	code := m.pc.Clause.Code
	var s fscratch
	for {
		op := FOp(code[pos])
		switch op {
		case FPushSmallInt:
			s.push(cell.SetInt(int64(int8(code[pos+1]))))
			pos += 2
		case FPushInt:
			s.push(cell.SetInt(m.curPred().Ints[code[pos+1]]))
			pos += 2
		case FPushFloat:
			s.push(cell.SetFloat(m.curPred().Floats[code[pos+1]]))
			pos += 2
		case FPushBool:
			s.push(cell.SetBool(code[pos+1] != 0))
			pos += 2
		case FPushObject:
			s.push(cell.SetReference(m.curPred().Objects[code[pos+1]]))
			pos += 2
		case FLoad:
			addr := m.slotAddr(code[pos+1])
			v := m.Stack.DerefValue(addr)
			if v.IsUnbound() {
				return cell.Value{}, 0, langerrors.InstantiationError("unbound variable in functional expression")
			}
			s.push(v)
			pos += 2
		case FLoadUnchecked:
			s.push(m.Stack.Get(m.slotAddr(code[pos+1])))
			pos += 2
		case FSlotRef:
			s.push(cell.SetStackRef(m.slotAddr(code[pos+1])))
			pos += 2
		case FLoadGlobal:
			name, ok := m.curPred().Objects[code[pos+1]].(*term.Symbol)
			if !ok {
				return cell.Value{}, 0, langerrors.InvalidOperationError("LoadGlobal operand is not a symbol")
			}
			v, ok2 := m.Lookup.Global(name)
			if !ok2 {
				return cell.Value{}, 0, langerrors.InstantiationError("unbound global %s", name.Name())
			}
			s.push(v)
			pos += 2
		case FAdd, FSubtract, FMultiply:
			b, a := s.pop(), s.pop()
			s.push(arith(op, a, b))
			pos++
		case FDivide:
			b, a := s.pop(), s.pop()
			s.push(cell.SetFloat(a.AsFloat() / b.AsFloat()))
			pos++
		case FNegate:
			a := s.pop()
			if a.Tag == cell.Int {
				s.push(cell.SetInt(-a.I))
			} else {
				s.push(cell.SetFloat(-a.AsFloat()))
			}
			pos++
		case FFieldReference:
			name, target := s.pop(), s.pop()
			v, err := m.hostFieldReference(target, name)
			if err != nil {
				return cell.Value{}, 0, err
			}
			s.push(v)
			pos++
		case FMethodCall:
			argc := int(code[pos+1])
			args := popN(&s, argc)
			name, target := s.pop(), s.pop()
			v, err := m.hostMethodCall(target, name, args)
			if err != nil {
				return cell.Value{}, 0, err
			}
			s.push(v)
			pos += 2
		case FConstructor:
			argc := int(code[pos+1])
			args := popN(&s, argc)
			typ := s.pop()
			v, err := m.construct(typ, args)
			if err != nil {
				return cell.Value{}, 0, err
			}
			s.push(v)
			pos += 2
		case FComponentLookup:
			name, target := s.pop(), s.pop()
			v, err := m.hostComponentLookup(target, name)
			if err != nil {
				return cell.Value{}, 0, err
			}
			s.push(v)
			pos++
		case FArray:
			n := int(code[pos+1])
			s.push(cell.SetReference(popN(&s, n)))
			pos += 2
		case FArrayList:
			n := int(code[pos+1])
			items := popN(&s, n)
			lst := append([]cell.Value(nil), items...)
			s.push(cell.SetReference(lst))
			pos += 2
		case FHashset:
			n := int(code[pos+1])
			items := popN(&s, n)
			set := make(map[interface{}]bool, n)
			for _, v := range items {
				set[hashKey(v)] = true
			}
			s.push(cell.SetReference(set))
			pos += 2
		case FNonFalse:
			a := s.pop()
			s.push(cell.SetBool(!(a.Tag == cell.Bool && !a.B)))
			pos++
		case FFormat:
			n := int(code[pos+1])
			args := popN(&s, n)
			s.push(cell.SetReference(formatArgs(args)))
			pos += 2
		case FUserFunction:
			// Extension point: no host functions registered by default.
			pos += 2
			s.push(cell.Value{Tag: cell.Unbound})
		case FReturn:
			return s.pop(), pos + 1, nil
		default:
			return cell.Value{}, 0, langerrors.InvalidOperationError("unrecognized F-VM opcode %d", op)
		}
	}
}

func popN(s *fscratch, n int) []cell.Value {
	out := make([]cell.Value, n)
	for i := n - 1; i >= 0; i-- {
		out[i] = s.pop()
	}
	return out
}

// arith implements Add/Subtract/Multiply: integer stays integer, any float
// operand promotes both to float.
func arith(op FOp, a, b cell.Value) cell.Value {
	if a.Tag == cell.Int && b.Tag == cell.Int {
		switch op {
		case FAdd:
			return cell.SetInt(a.I + b.I)
		case FSubtract:
			return cell.SetInt(a.I - b.I)
		case FMultiply:
			return cell.SetInt(a.I * b.I)
		}
	}
	fa, fb := a.AsFloat(), b.AsFloat()
	switch op {
	case FAdd:
		return cell.SetFloat(fa + fb)
	case FSubtract:
		return cell.SetFloat(fa - fb)
	default:
		return cell.SetFloat(fa * fb)
	}
}

func hashKey(v cell.Value) interface{} {
	switch v.Tag {
	case cell.Int:
		return v.I
	case cell.Float:
		return v.F
	case cell.Bool:
		return v.B
	default:
		return v.Obj
	}
}

func formatArgs(args []cell.Value) string {
	s := ""
	for _, a := range args {
		s += a.String()
	}
	return s
}
