// Package cell implements the tagged value and the data stack/trail
// primitives: a uniform cell carrying int/float/bool/reference/unbound/
// stack-ref, plus the contiguous data stack and the undo trail used by
// unification.
//
// brunokim/logic-engine's wam package represents cells as a family of Go
// interface implementations (*Ref, *Struct, *Pair, WAtom...). This package
// keeps that package's "cells are addressable, bindings are trailed
// writes" discipline but replaces the cell representation itself with one
// compact, uniformly-tagged struct.
package cell

import "fmt"

// Tag discriminates the payload carried by a Value.
type Tag uint8

const (
	// Unbound is the initial state of every cell.
	Unbound Tag = iota
	// Int carries a machine integer.
	Int
	// Float carries a 32-bit float.
	Float
	// Bool carries a boolean.
	Bool
	// Ref carries an arbitrary host reference (symbol, string, predicate
	// handle, struct/table object, ...).
	Ref
	// StackRef carries the address of another stack cell; dereferencing
	// follows the chain (Deref).
	StackRef
)

func (t Tag) String() string {
	switch t {
	case Unbound:
		return "unbound"
	case Int:
		return "int"
	case Float:
		return "float"
	case Bool:
		return "bool"
	case Ref:
		return "ref"
	case StackRef:
		return "stackref"
	default:
		return fmt.Sprintf("tag(%d)", t)
	}
}

// Value is a fixed-width tagged cell.
type Value struct {
	Tag   Tag
	I     int64
	F     float32
	B     bool
	Obj   interface{}
	Addr  int // valid when Tag == StackRef
}

// Addr is an index into a Stack's cells.
type Addr int

// SetInt returns an Int-tagged value.
func SetInt(i int64) Value { return Value{Tag: Int, I: i} }

// SetFloat returns a Float-tagged value.
func SetFloat(f float32) Value { return Value{Tag: Float, F: f} }

// SetBool returns a Bool-tagged value.
func SetBool(b bool) Value { return Value{Tag: Bool, B: b} }

// SetReference returns a Ref-tagged value wrapping an arbitrary host object.
func SetReference(obj interface{}) Value { return Value{Tag: Ref, Obj: obj} }

// SetStackRef returns a StackRef-tagged value pointing at addr.
func SetStackRef(addr Addr) Value { return Value{Tag: StackRef, Addr: int(addr)} }

// IsUnbound reports whether v is the unbound sentinel.
func (v Value) IsUnbound() bool { return v.Tag == Unbound }

// AsFloat promotes an Int or Float cell to a float32; it panics if called
// on anything else.
func (v Value) AsFloat() float32 {
	switch v.Tag {
	case Int:
		return float32(v.I)
	case Float:
		return v.F
	default:
		panic(fmt.Sprintf("cell: AsFloat on non-numeric tag %v", v.Tag))
	}
}

func (v Value) String() string {
	switch v.Tag {
	case Unbound:
		return "_"
	case Int:
		return fmt.Sprintf("%d", v.I)
	case Float:
		return fmt.Sprintf("%g", v.F)
	case Bool:
		return fmt.Sprintf("%t", v.B)
	case Ref:
		return fmt.Sprintf("%v", v.Obj)
	case StackRef:
		return fmt.Sprintf("@%d", v.Addr)
	default:
		return "?"
	}
}

// Stack is the contiguous sequence of cells backing environment frames and
// argument passing.
type Stack struct {
	cells []Value
	trail []int
}

// NewStack returns an empty stack with capacity hint n.
func NewStack(n int) *Stack {
	return &Stack{cells: make([]Value, 0, n)}
}

// Top returns the current stack height (the next free address).
func (s *Stack) Top() Addr { return Addr(len(s.cells)) }

// Grow appends n Unbound cells and returns the address of the first.
func (s *Stack) Grow(n int) Addr {
	base := Addr(len(s.cells))
	for i := 0; i < n; i++ {
		s.cells = append(s.cells, Value{Tag: Unbound})
	}
	return base
}

// TruncateTo resets the stack height back to addr, discarding everything
// above it. Used on backtracking.
func (s *Stack) TruncateTo(addr Addr) {
	s.cells = s.cells[:addr]
}

// Get returns the raw (non-dereferenced) cell at addr.
func (s *Stack) Get(addr Addr) Value { return s.cells[addr] }

// Set overwrites the cell at addr without trailing. Used for writes that
// don't bind an Unbound cell (e.g. environment-slot initialization).
func (s *Stack) Set(addr Addr, v Value) { s.cells[addr] = v }

// Bind writes v into the (assumed Unbound) cell at addr and appends addr to
// the trail, so backtracking can reset it.
func (s *Stack) Bind(addr Addr, v Value) {
	s.cells[addr] = v
	s.trail = append(s.trail, int(addr))
}

// Deref chases StackRef links starting at addr, returning the terminal
// address.
func (s *Stack) Deref(addr Addr) Addr {
	for {
		v := s.cells[addr]
		if v.Tag != StackRef {
			return addr
		}
		addr = Addr(v.Addr)
	}
}

// DerefValue returns the terminal cell reached by dereferencing addr.
func (s *Stack) DerefValue(addr Addr) Value {
	return s.cells[s.Deref(addr)]
}

// TrailMark returns the current trail height, for later rewinding.
func (s *Stack) TrailMark() int { return len(s.trail) }

// UndoTo resets every cell bound since mark back to Unbound, and truncates
// the trail to mark.
func (s *Stack) UndoTo(mark int) {
	for i := len(s.trail) - 1; i >= mark; i-- {
		s.cells[s.trail[i]] = Value{Tag: Unbound}
	}
	s.trail = s.trail[:mark]
}

// PushFrame grows the stack by n cells, all Unbound, and returns its base
// address.
func (s *Stack) PushFrame(n int) Addr {
	return s.Grow(n)
}
