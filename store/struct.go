package store

import (
	"github.com/iancoleman/strcase"

	"github.com/rzubek/botl/cell"
	"github.com/rzubek/botl/machine"
	"github.com/rzubek/botl/term"
)

// structDef records one `struct name(F1,...,Fn)` declaration.
type structDef struct {
	Functor *term.Symbol
	Fields  []*term.Symbol
}

// DefineStruct processes a `struct` declaration: it records the field
// arity so the F-VM's FConstructor opcode can build addressable Compound
// values (machine.StructLookup), generates the fact-shaped `name/n`
// predicate (matching any call of the declared arity, the same way a
// plain fact `name(F1,...,Fn) :- true` would, so a struct's shape can be
// used as an ordinary goal and not just as a compound term), and one
// two-argument accessor predicate per field, `name_field(Struct, Value)`.
//
// Field-name-to-functor derivation uses strcase.ToSnake, following
// chazu-maggie's use of iancoleman/strcase for declarative name
// normalization.
func (s *Store) DefineStruct(name *term.Symbol, fields []*term.Symbol) {
	def := structDef{Functor: name, Fields: fields}
	s.structs[name] = def

	pi := term.NewIndicator(name.Name(), len(fields))
	s.DefinePrimop(pi, func(m *machine.Machine, base cell.Addr, arity int) (bool, error) {
		return arity == len(def.Fields), nil
	})

	for i, field := range fields {
		i := i
		accessorName := name.Name() + "_" + strcase.ToSnake(field.Name())
		fieldPi := term.NewIndicator(accessorName, 2)
		s.DefinePrimop(fieldPi, func(m *machine.Machine, base cell.Addr, arity int) (bool, error) {
			return structFieldAccessor(m, def, i, base)
		})
	}
}

// structFieldAccessor implements `name_field(Struct, Value)`: unify Value
// against field i of Struct's Compound.
func structFieldAccessor(m *machine.Machine, def structDef, fieldIdx int, base cell.Addr) (bool, error) {
	structVal := m.ArgAt(base, 0)
	if structVal.Tag != cell.Ref {
		return false, nil
	}
	c, ok := structVal.Obj.(*machine.Compound)
	if !ok || c.Functor != def.Functor || fieldIdx >= len(c.Args) {
		return false, nil
	}
	return m.UnifyAt(c.Args[fieldIdx], m.ArgAddr(base, 1)), nil
}

// StructArity implements machine.StructLookup.
func (s *Store) StructArity(functor *term.Symbol) (int, bool) {
	def, ok := s.structs[functor]
	if !ok {
		return 0, false
	}
	return len(def.Fields), true
}
