package machine

import (
	"github.com/rzubek/botl/cell"
	"github.com/rzubek/botl/term"
)

// Compound is the runtime representation of a struct/compound value built
// by the FConstructor opcode when the type name resolves to a declared
// struct. Unlike a plain host-interop object, a Compound's fields are
// addressable stack cells, so unifying two compounds recurses field-by-field
// instead of comparing by host identity, and a still-unbound field keeps
// participating in ordinary unification/backtracking after construction.
type Compound struct {
	Functor *term.Symbol
	Args    []cell.Addr
}

// construct implements the FConstructor opcode: if typ names a struct
// registered with the machine's Lookup, build an addressable Compound;
// otherwise delegate to the registered HostInterop.
func (m *Machine) construct(typ cell.Value, args []cell.Value) (cell.Value, error) {
	name := nameOf(typ)
	if sym, arity, ok := m.lookupStruct(name); ok && arity == len(args) {
		addrs := make([]cell.Addr, len(args))
		for i, v := range args {
			addrs[i] = m.materializeArg(v)
		}
		return cell.SetReference(&Compound{Functor: sym, Args: addrs}), nil
	}
	return m.hostConstructor(typ, args)
}

func (m *Machine) lookupStruct(name string) (*term.Symbol, int, bool) {
	sl, ok := m.Lookup.(StructLookup)
	if !ok {
		return nil, 0, false
	}
	sym := term.Intern(name)
	arity, ok := sl.StructArity(sym)
	return sym, arity, ok
}

// StructLookup is an optional capability a Lookup (normally *store.Store)
// implements to let the F-VM distinguish struct construction from host
// object construction.
type StructLookup interface {
	StructArity(functor *term.Symbol) (int, bool)
}

// materializeArg returns an addressable cell for v: if v already carries an
// address (a StackRef, e.g. from FSlotRef aliasing a permanent variable),
// that address is reused so binding through the compound is visible at the
// variable's own slot; otherwise a fresh cell is allocated to hold v.
func (m *Machine) materializeArg(v cell.Value) cell.Addr {
	if v.Tag == cell.StackRef {
		return cell.Addr(v.Addr)
	}
	addr := m.Stack.Grow(1)
	m.Stack.Set(addr, v)
	return addr
}

// unifyCompounds structurally unifies two Compound values: same functor and
// arity, and every field address unifies pairwise.
func (m *Machine) unifyCompounds(a, b *Compound) bool {
	if a.Functor != b.Functor || len(a.Args) != len(b.Args) {
		return false
	}
	for i := range a.Args {
		if !m.unify(a.Args[i], b.Args[i]) {
			return false
		}
	}
	return true
}
