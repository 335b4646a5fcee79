package machine

import (
	"github.com/rzubek/botl/cell"
)

// unify dereferences both addresses, then binds or compares them.
func (m *Machine) unify(x, y cell.Addr) bool {
	x, y = m.Stack.Deref(x), m.Stack.Deref(y)
	if x == y {
		return true
	}
	vx, vy := m.Stack.Get(x), m.Stack.Get(y)
	switch {
	case vx.IsUnbound() && vy.IsUnbound():
		// Bind the younger to point to the older, preserving pointer aging
		// and trail ordering.
		if x < y {
			m.Stack.Bind(y, cell.SetStackRef(x))
		} else {
			m.Stack.Bind(x, cell.SetStackRef(y))
		}
		return true
	case vx.IsUnbound():
		m.Stack.Bind(x, cell.SetStackRef(y))
		return true
	case vy.IsUnbound():
		m.Stack.Bind(y, cell.SetStackRef(x))
		return true
	default:
		if ca, ok := vx.Obj.(*Compound); ok {
			if cb, ok := vy.Obj.(*Compound); ok {
				return m.unifyCompounds(ca, cb)
			}
		}
		return equalConcrete(vx, vy)
	}
}

// unifyConst unifies the cell at addr with a concrete literal value,
// binding addr if it's Unbound.
func (m *Machine) unifyConst(addr cell.Addr, lit cell.Value) bool {
	addr = m.Stack.Deref(addr)
	v := m.Stack.Get(addr)
	if v.IsUnbound() {
		m.Stack.Bind(addr, lit)
		return true
	}
	if ca, ok := v.Obj.(*Compound); ok {
		if cb, ok := lit.Obj.(*Compound); ok {
			return m.unifyCompounds(ca, cb)
		}
	}
	return equalConcrete(v, lit)
}

// equalConcrete compares two bound, non-StackRef cells: Integer and Float
// compare numerically across tags; Boolean compares as is; References
// compare by host equality; Symbols (a kind of Ref payload) compare by
// identity.
func equalConcrete(a, b cell.Value) bool {
	switch {
	case isNumeric(a) && isNumeric(b):
		if a.Tag == cell.Int && b.Tag == cell.Int {
			return a.I == b.I
		}
		return a.AsFloat() == b.AsFloat()
	case a.Tag == cell.Bool && b.Tag == cell.Bool:
		return a.B == b.B
	case a.Tag == cell.Ref && b.Tag == cell.Ref:
		return a.Obj == b.Obj
	default:
		return false
	}
}

func isNumeric(v cell.Value) bool {
	return v.Tag == cell.Int || v.Tag == cell.Float
}
