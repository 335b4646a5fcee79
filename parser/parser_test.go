package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rzubek/botl/parser"
	"github.com/rzubek/botl/term"
)

func TestParser_Next_Fact(t *testing.T) {
	p := parser.New(`likes(mary, wine).`)
	got, err := p.Next()
	require.NoError(t, err)

	call, ok := got.(*term.Call)
	require.True(t, ok, "expected a *term.Call, got %T", got)
	assert.Equal(t, "likes", call.Functor.Name())
	assert.Equal(t, 2, call.Arity())
}

func TestParser_Next_EOF(t *testing.T) {
	p := parser.New("   % just a comment\n")
	got, err := p.Next()
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestParser_Next_SharesVariableWithinClause(t *testing.T) {
	p := parser.New(`likes(X, X).`)
	got, err := p.Next()
	require.NoError(t, err)

	call := got.(*term.Call)
	v0 := call.Args[0].(*term.Variable)
	v1 := call.Args[1].(*term.Variable)
	assert.Same(t, v0, v1, "same-named variables within a clause must intern to the same *term.Variable")
}

func TestParser_Next_FreshVariablesAcrossClauses(t *testing.T) {
	p := parser.New(`p(X). q(X).`)
	first, err := p.Next()
	require.NoError(t, err)
	second, err := p.Next()
	require.NoError(t, err)

	v0 := first.(*term.Call).Args[0].(*term.Variable)
	v1 := second.(*term.Call).Args[0].(*term.Variable)
	assert.NotSame(t, v0, v1, "same-named variables in different clauses must not be interned together")
}

func TestParser_Next_Rule(t *testing.T) {
	p := parser.New(`grandparent(X, Z) :- parent(X, Y), parent(Y, Z).`)
	got, err := p.Next()
	require.NoError(t, err)

	rule := got.(*term.Call)
	assert.Same(t, term.SymImplication, rule.Functor)
	assert.Equal(t, 2, rule.Arity())

	body := rule.Args[1].(*term.Call)
	assert.Same(t, term.SymConjunction, body.Functor)
}

func TestParser_Next_Disjunction(t *testing.T) {
	p := parser.New(`p(X) :- q(X) ; r(X).`)
	got, err := p.Next()
	require.NoError(t, err)

	body := got.(*term.Call).Args[1].(*term.Call)
	assert.Same(t, term.SymDisjunction, body.Functor)
}

func TestParser_Next_ArithmeticPrecedence(t *testing.T) {
	p := parser.New(`x(Y) :- Y = 1 + 2 * 3.`)
	got, err := p.Next()
	require.NoError(t, err)

	eq := got.(*term.Call).Args[1].(*term.Call)
	require.Same(t, term.SymUnify, eq.Functor)
	plus := eq.Args[1].(*term.Call)
	assert.Equal(t, "+", plus.Functor.Name())
	mul := plus.Args[1].(*term.Call)
	assert.Equal(t, "*", mul.Functor.Name())
}

func TestParser_Next_NegativeNumber(t *testing.T) {
	p := parser.New(`p(-3).`)
	got, err := p.Next()
	require.NoError(t, err)
	arg := got.(*term.Call).Args[0]
	assert.Equal(t, term.Int(-3), arg)
}

func TestParser_Next_Cut(t *testing.T) {
	p := parser.New(`p(X) :- q(X), !.`)
	got, err := p.Next()
	require.NoError(t, err)
	body := got.(*term.Call).Args[1].(*term.Call)
	assert.Same(t, term.SymCut, body.Args[1])
}

func TestParser_Next_Declaration(t *testing.T) {
	p := parser.New(`table point/2.`)
	got, err := p.Next()
	require.NoError(t, err)
	call := got.(*term.Call)
	assert.Equal(t, "table", call.Functor.Name())
}

func TestParser_Next_BareDeclarationAtom(t *testing.T) {
	p := parser.New(`listing.`)
	got, err := p.Next()
	require.NoError(t, err)
	sym := got.(*term.Symbol)
	assert.Equal(t, "listing", sym.Name())
}

func TestParser_ParseQuery(t *testing.T) {
	got, err := parser.ParseQuery(`likes(mary, X)`)
	require.NoError(t, err)
	call := got.(*term.Call)
	assert.Equal(t, "likes", call.Functor.Name())
}

func TestParser_ParseQuery_RejectsTrailingInput(t *testing.T) {
	_, err := parser.ParseQuery(`foo(X) bar`)
	assert.Error(t, err)
}

func TestParser_Next_List(t *testing.T) {
	p := parser.New(`p([1, 2, 3]).`)
	got, err := p.Next()
	require.NoError(t, err)
	list := got.(*term.Call).Args[0].(*term.Call)
	assert.Equal(t, "$list", list.Functor.Name())
	assert.Equal(t, 3, list.Arity())
}
