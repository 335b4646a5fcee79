package machine

import "github.com/rzubek/botl/cell"

// The methods in this file are the surface a Predicate.Native callback
// (table row-matcher or primop) uses to interact with the machine: they
// wrap the same trail/unification primitives the goal opcodes use
// internally, exported for that one purpose.

// UnifyAt unifies the cells at x and y, trailing any binding it makes.
func (m *Machine) UnifyAt(x, y cell.Addr) bool { return m.unify(x, y) }

// UnifyConstAt unifies the cell at addr with a concrete literal.
func (m *Machine) UnifyConstAt(addr cell.Addr, lit cell.Value) bool {
	return m.unifyConst(addr, lit)
}

// TrailMark returns the current trail height, for later rewinding via
// UndoTo.
func (m *Machine) TrailMark() int { return m.Stack.TrailMark() }

// UndoTo resets every binding made since mark.
func (m *Machine) UndoTo(mark int) { m.Stack.UndoTo(mark) }

// ArgAt returns the dereferenced value of argument i of a Native
// callback's argument window, based at base.
func (m *Machine) ArgAt(base cell.Addr, i int) cell.Value {
	return m.Stack.DerefValue(base + cell.Addr(i))
}

// ArgAddr returns the address of argument i of a Native callback's
// argument window.
func (m *Machine) ArgAddr(base cell.Addr, i int) cell.Addr {
	return base + cell.Addr(i)
}
