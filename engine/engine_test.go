package engine_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rzubek/botl/cell"
	"github.com/rzubek/botl/engine"
)

func TestEngine_RunFact(t *testing.T) {
	e := engine.New()
	require.NoError(t, e.Compile(`likes(mary, wine).`))

	ok, err := e.Run(`likes(mary, wine)`)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = e.Run(`likes(mary, beer)`)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEngine_QueryEnumeratesBacktracking(t *testing.T) {
	e := engine.New()
	// wrap/1 is declared as a struct so nat/1's recursive case can build an
	// addressable compound argument; an undeclared bare functor falls
	// through to host-object construction instead.
	require.NoError(t, e.Compile(`
		struct wrap(n).
		nat(zero).
		nat(wrap(X)) :- nat(X).
	`))

	sols, err := e.Query(`nat(X)`)
	require.NoError(t, err)
	defer sols.Close()

	var names []string
	for i := 0; i < 3 && sols.Next(); i++ {
		x := sols.Bindings()["X"]
		names = append(names, x.String())
	}
	require.NoError(t, sols.Err())
	assert.Equal(t, []string{"zero", "wrap(zero)", "wrap(wrap(zero))"}, names)
}

func TestEngine_ConjunctionAndUnification(t *testing.T) {
	e := engine.New()
	require.NoError(t, e.Compile(`
		parent(tom, bob).
		parent(bob, ann).
		grandparent(X, Z) :- parent(X, Y), parent(Y, Z).
	`))

	ok, err := e.Run(`grandparent(tom, ann)`)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEngine_Disjunction(t *testing.T) {
	e := engine.New()
	require.NoError(t, e.Compile(`
		q(a).
		r(b).
		p(X) :- q(X) ; r(X).
	`))

	sols, err := e.Query(`p(X)`)
	require.NoError(t, err)
	defer sols.Close()

	var got []string
	for sols.Next() {
		got = append(got, sols.Bindings()["X"].String())
	}
	assert.ElementsMatch(t, []string{"a", "b"}, got)
}

func TestEngine_Cut(t *testing.T) {
	e := engine.New()
	require.NoError(t, e.Compile(`
		q(a).
		q(b).
		p(X) :- q(X), !.
	`))

	sols, err := e.Query(`p(X)`)
	require.NoError(t, err)
	defer sols.Close()

	require.True(t, sols.Next())
	assert.Equal(t, "a", sols.Bindings()["X"].String())
	assert.False(t, sols.Next(), "cut should prevent backtracking into q/1's second clause")
}

func TestEngine_MetaCallResolvesAtomGoalBoundAtRunTime(t *testing.T) {
	e := engine.New()
	require.NoError(t, e.Compile(`
		ready.
		apply(G) :- call(G).
	`))

	ok, err := e.Run(`apply(ready)`)
	require.NoError(t, err)
	assert.True(t, ok, "call/1 must resolve an atom goal from the bound variable at run time")
}

func TestEngine_MetaCallResolvesCompoundGoalBoundAtRunTime(t *testing.T) {
	e := engine.New()
	require.NoError(t, e.Compile(`
		struct wrap(n).
		p(wrap(1)).
		apply(G) :- call(G).
	`))

	ok, err := e.Run(`apply(p(wrap(1)))`)
	require.NoError(t, err)
	assert.True(t, ok, "call/1 must splice a resolved compound's own fields ahead of extra arguments")

	ok, err = e.Run(`apply(p(wrap(2)))`)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEngine_MetaCallOfIndicatorWithExtraArgs(t *testing.T) {
	e := engine.New()
	require.NoError(t, e.Compile(`likes(mary, wine).`))

	ok, err := e.Run(`call(likes/2, mary, wine)`)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEngine_StructConstructorPredicateAlwaysMatchesItsArity(t *testing.T) {
	e := engine.New()
	require.NoError(t, e.Compile(`struct point(x, y).`))

	ok, err := e.Run(`point(1, 2)`)
	require.NoError(t, err)
	assert.True(t, ok, "point/2 is fact-shaped: it matches any call of the declared arity")
}

func TestEngine_NumericComparisonBuiltin(t *testing.T) {
	e := engine.New()
	require.NoError(t, e.Compile(`
		positive(X) :- X > 0.
	`))

	ok, err := e.Run(`positive(5)`)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = e.Run(`positive(-5)`)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEngine_GlobalsRoundTrip(t *testing.T) {
	e := engine.New()
	e.DefineGlobal("counter", cell.SetInt(41))

	v, ok := e.Find("counter")
	require.True(t, ok)
	assert.Equal(t, int64(41), v.I)
}

func TestEngine_CompileFileIdempotent(t *testing.T) {
	e := engine.New()
	dir := t.TempDir()
	path := dir + "/facts.pl"
	require.NoError(t, os.WriteFile(path, []byte(`fact(1).`), 0o644))

	require.NoError(t, e.CompileFile(path))
	require.NoError(t, e.CompileFile(path))

	ok, err := e.Run(`fact(1)`)
	require.NoError(t, err)
	assert.True(t, ok)
}
