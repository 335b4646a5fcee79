package compiler

import (
	"github.com/rzubek/botl/langerrors"
	"github.com/rzubek/botl/term"
)

// declarationKeywords is the fixed, non-extensible set of unary prefix
// forms Pass 1 recognizes. It is not a general operator table:
// each name here has one hardwired compile-time side effect.
var declarationKeywords = map[string]bool{
	"function": true, "table": true, "require": true, "global": true,
	"report": true, "struct": true, "signature": true, "trace": true,
	"notrace": true, "externally_called": true, "listing": true,
	"mandatory_instantiation": true,
}

// asDeclaration reports whether t is a unary call whose functor is a
// reserved declaration name.
func asDeclaration(t term.Term) (*term.Call, bool) {
	c, ok := t.(*term.Call)
	if !ok || len(c.Args) != 1 {
		return nil, false
	}
	if !declarationKeywords[c.Functor.Name()] {
		return nil, false
	}
	return c, true
}

// compileDeclaration applies one declaration's compile-time side effect to
// the store.
func (c *Compiler) compileDeclaration(decl *term.Call, file string, line int) error {
	arg := decl.Args[0]
	switch decl.Functor.Name() {
	case "table":
		pi, ok := term.IndicatorOf(arg)
		if !ok {
			return declErr(file, line, decl, "table")
		}
		c.Store.DefineTable(pi)

	case "signature":
		pi, types, ok := signatureOf(arg)
		if !ok {
			return declErr(file, line, decl, "signature")
		}
		c.Store.SetSignature(pi, types)

	case "trace":
		pi, ok := term.IndicatorOf(arg)
		if !ok {
			return declErr(file, line, decl, "trace")
		}
		c.Store.SetTraced(pi, true)

	case "notrace":
		pi, ok := term.IndicatorOf(arg)
		if !ok {
			return declErr(file, line, decl, "notrace")
		}
		c.Store.SetTraced(pi, false)

	case "externally_called":
		pi, ok := term.IndicatorOf(arg)
		if !ok {
			return declErr(file, line, decl, "externally_called")
		}
		c.Store.SetExternallyCalled(pi)

	case "mandatory_instantiation":
		pi, ok := term.IndicatorOf(arg)
		if !ok {
			return declErr(file, line, decl, "mandatory_instantiation")
		}
		c.Store.SetMandatoryInstantiation(pi)

	case "struct":
		name, fields, ok := structOf(arg)
		if !ok {
			return declErr(file, line, decl, "struct")
		}
		c.Store.DefineStruct(name, fields)

	case "global":
		name, initTerm, ok := globalOf(arg)
		if !ok {
			return declErr(file, line, decl, "global")
		}
		v, ok := literalValue(initTerm)
		if !ok {
			return langerrors.SyntaxError(file, line, decl, "global initializer must be a literal")
		}
		c.Store.DefineGlobal(name, v)

	case "require":
		path, ok := arg.(term.Str)
		if !ok {
			return declErr(file, line, decl, "require")
		}
		if c.OnRequire == nil {
			return nil
		}
		return c.OnRequire(string(path))

	case "listing":
		pi, ok := term.IndicatorOf(arg)
		if !ok {
			return declErr(file, line, decl, "listing")
		}
		if c.OnReport != nil {
			c.OnReport(c.Store.Listing(pi))
		}

	case "report":
		if c.OnReport != nil {
			c.OnReport(arg.String())
		}

	case "function":
		// Declares an external host function name for FUserFunction; it has
		// no store-side effect, and machine.HostInterop has no hook for
		// registering an implementation (FUserFunction evaluates to an
		// unbound cell).
	}
	return nil
}

func declErr(file string, line int, decl *term.Call, name string) error {
	return langerrors.SyntaxError(file, line, decl, "malformed %s declaration", name)
}

// signatureOf destructures `signature name(Type1,...,TypeN)` into the
// predicate indicator it documents and the type-name tuple.
func signatureOf(arg term.Term) (term.Indicator, []*term.Symbol, bool) {
	c, ok := arg.(*term.Call)
	if !ok {
		return term.Indicator{}, nil, false
	}
	types := make([]*term.Symbol, len(c.Args))
	for i, a := range c.Args {
		sym, ok := a.(*term.Symbol)
		if !ok {
			return term.Indicator{}, nil, false
		}
		types[i] = sym
	}
	return term.NewIndicator(c.Functor.Name(), len(c.Args)), types, true
}

// structOf destructures `struct name(Field1,...,FieldN)`.
func structOf(arg term.Term) (*term.Symbol, []*term.Symbol, bool) {
	c, ok := arg.(*term.Call)
	if !ok {
		return nil, nil, false
	}
	fields := make([]*term.Symbol, len(c.Args))
	for i, a := range c.Args {
		sym, ok := a.(*term.Symbol)
		if !ok {
			return nil, nil, false
		}
		fields[i] = sym
	}
	return c.Functor, fields, true
}

// globalOf destructures `global name = InitialValue`.
func globalOf(arg term.Term) (*term.Symbol, term.Term, bool) {
	c, ok := arg.(*term.Call)
	if !ok || c.Functor != term.SymUnify || len(c.Args) != 2 {
		return nil, nil, false
	}
	name, ok := c.Args[0].(*term.Symbol)
	if !ok {
		return nil, nil, false
	}
	return name, c.Args[1], true
}
