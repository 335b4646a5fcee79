package compiler_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rzubek/botl/compiler"
	"github.com/rzubek/botl/parser"
	"github.com/rzubek/botl/store"
	"github.com/rzubek/botl/term"
)

func compileSource(t *testing.T, s *store.Store, source string) {
	t.Helper()
	c := compiler.New(s)
	p := parser.New(source)
	for {
		tm, err := p.Next()
		require.NoError(t, err)
		if tm == nil {
			return
		}
		require.NoError(t, c.Compile(tm, "<test>", p.Line()))
	}
}

func TestCompiler_FactAddsClause(t *testing.T) {
	s := store.New()
	compileSource(t, s, `likes(mary, wine).`)

	p, ok := s.Predicate(term.NewIndicator("likes", 2))
	require.True(t, ok)
	assert.Len(t, p.Clauses, 1)
}

func TestCompiler_MultipleClausesAppend(t *testing.T) {
	s := store.New()
	compileSource(t, s, `nat(zero). nat(s(X)) :- nat(X).`)

	p, ok := s.Predicate(term.NewIndicator("nat", 1))
	require.True(t, ok)
	assert.Len(t, p.Clauses, 2)
}

func TestCompiler_TableDeclarationThenGroundFactGoesToTable(t *testing.T) {
	s := store.New()
	compileSource(t, s, `table point/2. point(1, 2). point(3, 4).`)

	pi := term.NewIndicator("point", 2)
	p, ok := s.Predicate(pi)
	require.True(t, ok)
	assert.True(t, p.IsTable)
	assert.Len(t, p.Clauses, 1, "a table keeps only its synthetic special clause; facts are asserted as rows, not compiled clauses")

	tbl := s.TableFor(pi)
	require.NotNil(t, tbl)
	assert.Len(t, tbl.Rows, 2)
}

func TestCompiler_ELFactsDoNotBecomePredicates(t *testing.T) {
	s := store.New()
	compileSource(t, s, `bird/animal.`)

	_, ok := s.Predicate(term.NewIndicator("/", 2))
	assert.False(t, ok, "EL facts must not compile into a queryable predicate")
	assert.True(t, s.ELTree().HasEdge(term.Intern("bird"), term.Intern("animal")))
}

func TestCompiler_StructDeclarationRegistersArityAndAccessors(t *testing.T) {
	s := store.New()
	compileSource(t, s, `struct point(x, y).`)

	_, ok := s.Predicate(term.NewIndicator("point_x", 2))
	assert.True(t, ok, "struct declaration should generate a point_x/2 accessor primop")

	_, ok = s.Predicate(term.NewIndicator("point_y", 2))
	assert.True(t, ok, "struct declaration should generate a point_y/2 accessor primop")

	_, ok = s.Predicate(term.NewIndicator("point", 2))
	assert.True(t, ok, "struct declaration should generate the point/2 constructor-matching predicate")
}

func TestCompiler_GlobalDeclaration(t *testing.T) {
	s := store.New()
	compileSource(t, s, `global counter = 0.`)

	v, ok := s.Find(term.Intern("counter"))
	require.True(t, ok)
	assert.Equal(t, int64(0), v.I)
}

func TestCompiler_SingletonWarning(t *testing.T) {
	s := store.New()
	c := compiler.New(s)
	var warnings []string
	c.OnWarning = func(format string, args ...interface{}) {
		warnings = append(warnings, format)
	}
	tm, err := parser.New(`p(X, Y) :- q(X).`).Next()
	require.NoError(t, err)
	require.NoError(t, c.Compile(tm, "<test>", 1))
	assert.NotEmpty(t, warnings, "Y appears once and should trigger a singleton warning")
}

func TestCompiler_MandatoryInstantiationWarnsOnFirstUseVariable(t *testing.T) {
	s := store.New()
	c := compiler.New(s)
	var warnings []string
	c.OnWarning = func(format string, args ...interface{}) {
		warnings = append(warnings, format)
	}
	compileAll(t, c, `mandatory_instantiation(q/1). q(1). p :- q(X).`)

	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "mandatory-instantiation")
}

func TestCompiler_MandatoryInstantiationSilentOnAlreadyBoundVariable(t *testing.T) {
	s := store.New()
	c := compiler.New(s)
	var warnings []string
	c.OnWarning = func(format string, args ...interface{}) {
		warnings = append(warnings, format)
	}
	compileAll(t, c, `mandatory_instantiation(q/1). q(1). r(1). p :- r(X), q(X).`)

	assert.Empty(t, warnings, "X was already bound by r(X) before reaching q(X)")
}

// compileAll parses and compiles every term in source through c, the way
// compileSource does through a fresh compiler; used where a test needs to
// observe c.OnWarning across several declarations and clauses.
func compileAll(t *testing.T, c *compiler.Compiler, source string) {
	t.Helper()
	p := parser.New(source)
	for {
		tm, err := p.Next()
		require.NoError(t, err)
		if tm == nil {
			return
		}
		require.NoError(t, c.Compile(tm, "<test>", p.Line()))
	}
}

func TestCompiler_CallOfVariableGoalCompiles(t *testing.T) {
	s := store.New()
	c := compiler.New(s)
	tm, err := parser.New(`p(G) :- call(G).`).Next()
	require.NoError(t, err)
	err = c.Compile(tm, "<test>", 1)
	assert.NoError(t, err, "call/N of a goal known only via a variable resolves at run time, not compile time")
}

func TestCompiler_CallOfIndicatorResolvesNameAndArity(t *testing.T) {
	s := store.New()
	compileSource(t, s, `likes(mary, wine). p :- call(likes/2, mary, wine).`)

	p, ok := s.Predicate(term.NewIndicator("p", 0))
	require.True(t, ok)
	assert.Len(t, p.Clauses, 1, "call(likes/2, mary, wine) must resolve to likes/2, not a call to '/' of arity 4")

	_, ok = s.Predicate(term.NewIndicator("/", 4))
	assert.False(t, ok, "call(p/n, Args...) must never compile a call to a literal '/' predicate")
}

func TestCompiler_CompileQuery_CollectsNamedVars(t *testing.T) {
	s := store.New()
	compileSource(t, s, `likes(mary, wine).`)

	c := compiler.New(s)
	goal, err := parser.ParseQuery(`likes(mary, X)`)
	require.NoError(t, err)

	_, vars, err := c.CompileQuery(goal, "<query>", 1)
	require.NoError(t, err)
	require.Len(t, vars, 1)
	assert.Equal(t, "X", vars[0].Name)
}
