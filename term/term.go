// Package term implements the surface-syntax data model that the compiler
// consumes: interned symbols, variables, and compound calls.
//
// The parser that builds these values lives in package parser; term only
// defines the shapes the parser produces and the compiler walks.
package term

import (
	"fmt"
	"strings"
	"sync"
)

// Symbol is an interned name. Pointer equality implies name equality.
type Symbol struct {
	name string
}

var (
	internMu sync.Mutex
	interned = make(map[string]*Symbol)
)

// Intern returns the unique *Symbol for name, creating it on first use.
func Intern(name string) *Symbol {
	internMu.Lock()
	defer internMu.Unlock()
	if s, ok := interned[name]; ok {
		return s
	}
	s := &Symbol{name: name}
	interned[name] = s
	return s
}

// Name returns the symbol's textual name.
func (s *Symbol) Name() string { return s.name }

func (s *Symbol) String() string { return s.name }

// Term is any value that can appear in a clause: a Symbol, a *Variable, a
// *Call, or one of the literal wrapper types below.
type Term interface {
	fmt.Stringer
	isTerm()
}

func (*Symbol) isTerm() {}

// Variable is a surface-syntax variable occurrence, identified by (name,
// scope). Distinct textual occurrences sharing one name within a clause
// are interned to the same *Variable by the parser, which performs the
// variablize pass while it reads the term.
type Variable struct {
	Name string
	// Generated marks a variable synthesized rather than written by name
	// (the parser's fresh variable for each bare `_`); it suppresses
	// singleton warnings.
	Generated bool
}

func (*Variable) isTerm() {}

func (v *Variable) String() string { return v.Name }

// IsAnonymous reports whether the variable's name starts with "_", the
// surface-syntax convention for "don't care" variables.
func (v *Variable) IsAnonymous() bool {
	return strings.HasPrefix(v.Name, "_")
}

// Call is a compound term: a functor symbol plus an ordered argument list.
// Arity 0 is represented as a bare *Symbol, never as a zero-argument Call.
type Call struct {
	Functor *Symbol
	Args    []Term
}

func (*Call) isTerm() {}

func (c *Call) Arity() int { return len(c.Args) }

func (c *Call) String() string {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", c.Functor.Name(), strings.Join(args, ", "))
}

// NewCall builds a Call, interning functor if it isn't already a *Symbol.
func NewCall(functor string, args ...Term) *Call {
	return &Call{Functor: Intern(functor), Args: args}
}

// ---- Literals

// Int is an integer literal.
type Int int64

func (Int) isTerm() {}
func (i Int) String() string { return fmt.Sprintf("%d", int64(i)) }

// Float is a 32-bit float literal.
type Float float32

func (Float) isTerm() {}
func (f Float) String() string { return fmt.Sprintf("%g", float32(f)) }

// Bool is a boolean literal.
type Bool bool

func (Bool) isTerm() {}
func (b Bool) String() string {
	if bool(b) {
		return "true"
	}
	return "false"
}

// Str is a string literal.
type Str string

func (Str) isTerm() {}
func (s Str) String() string { return fmt.Sprintf("%q", string(s)) }

// Null is the literal absence of a value ("missing" in type tests).
type Null struct{}

func (Null) isTerm() {}
func (Null) String() string { return "null" }

// ObjRef wraps an arbitrary host object referenced opaquely by a term, e.g.
// the result of a struct/table/predicate-handle literal folded at compile
// time. It never participates in structural equality beyond host identity.
type ObjRef struct {
	Value interface{}
}

func (ObjRef) isTerm() {}
func (o ObjRef) String() string { return fmt.Sprintf("<ref %v>", o.Value) }

// Indicator is a (Symbol, arity) pair: the identity key for predicates.
type Indicator struct {
	Name  *Symbol
	Arity int
}

func (pi Indicator) String() string {
	return fmt.Sprintf("%s/%d", pi.Name.Name(), pi.Arity)
}

// NewIndicator interns name and returns its indicator.
func NewIndicator(name string, arity int) Indicator {
	return Indicator{Name: Intern(name), Arity: arity}
}

// IndicatorOf returns the indicator for t: a bare Symbol (arity 0), a Call
// (arity = len(Args)), or the conventional `Name/Arity` shape a `table`,
// `trace`, `signature`, and similar declaration's argument is written in
// (functor "/" with an Int arity operand) — declarations never take a real
// two-argument "/" predicate call as their target, so that shape
// unambiguously means an indicator here.
func IndicatorOf(t Term) (Indicator, bool) {
	if c, ok := t.(*Call); ok && c.Functor == SymSlash && len(c.Args) == 2 {
		if arity, ok := c.Args[1].(Int); ok {
			if name, ok := c.Args[0].(*Symbol); ok {
				return Indicator{Name: name, Arity: int(arity)}, true
			}
		}
	}
	switch t := t.(type) {
	case *Symbol:
		return Indicator{Name: t, Arity: 0}, true
	case *Call:
		return Indicator{Name: t.Functor, Arity: len(t.Args)}, true
	default:
		return Indicator{}, false
	}
}

// Reserved functors.
var (
	SymConjunction  = Intern(",")
	SymDisjunction  = Intern(";")
	SymImplication  = Intern(":-")
	SymCut          = Intern("!")
	SymSlash        = Intern("/")
	SymColon        = Intern(":")
	SymELNonExcl    = Intern("/>")
	SymUnify        = Intern("=")
	SymFieldAccess  = Intern(".")
	SymComponent    = Intern("::")
	SymNew          = Intern("new")
	SymFail         = Intern("fail")
	SymTrue         = Intern("true")
	SymFalse        = Intern("false")
	SymCall         = Intern("call")
)
