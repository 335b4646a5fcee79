package store_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rzubek/botl/cell"
	"github.com/rzubek/botl/compiler"
	"github.com/rzubek/botl/machine"
	"github.com/rzubek/botl/parser"
	"github.com/rzubek/botl/store"
	"github.com/rzubek/botl/term"
)

func compileOne(t *testing.T, s *store.Store, source string) {
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

func TestStore_DefineGlobal(t *testing.T) {
	s := store.New()
	name := term.Intern("counter")

	s.DefineGlobal(name, cell.SetInt(0))
	v, ok := s.Global(name)
	require.True(t, ok)
	assert.Equal(t, cell.SetInt(0), v)

	s.SetGlobal(name, cell.SetInt(5))
	v, ok = s.Global(name)
	require.True(t, ok)
	assert.Equal(t, int64(5), v.I)
}

func TestStore_Find_Unset(t *testing.T) {
	s := store.New()
	_, ok := s.Find(term.Intern("nope"))
	assert.False(t, ok)
}

func TestStore_RequireIdempotent(t *testing.T) {
	s := store.New()
	canon := s.CanonicalPath("foo.pl")

	assert.False(t, s.Require(canon), "first Require of a fresh path should not report already-required")
	assert.True(t, s.Require(canon), "second Require of the same canonical path should report already-required")
}

func TestStore_DefineTableAndAssertRow(t *testing.T) {
	s := store.New()
	pi := term.NewIndicator("point", 2)
	tbl := s.DefineTable(pi)
	tbl.AssertRow([]cell.Value{cell.SetInt(1), cell.SetInt(2)})

	p, ok := s.Predicate(pi)
	require.True(t, ok)
	assert.True(t, p.IsSpecial)
	assert.True(t, p.IsTable)
	assert.Equal(t, tbl, s.TableFor(pi))
	assert.Len(t, tbl.Rows, 1)
}

func TestStore_DefinePrimop(t *testing.T) {
	s := store.New()
	pi := term.NewIndicator("always_true", 0)
	called := false
	s.DefinePrimop(pi, func(m *machine.Machine, base cell.Addr, arity int) (bool, error) {
		called = true
		return true, nil
	})

	p, ok := s.Predicate(pi)
	require.True(t, ok)
	assert.True(t, p.IsSpecial)
	require.NotNil(t, p.Native)

	ok2, err := p.Native(nil, 0, 0)
	require.NoError(t, err)
	assert.True(t, ok2)
	assert.True(t, called)
}

func TestStore_SetTracedAndListing(t *testing.T) {
	s := store.New()
	pi := term.NewIndicator("foo", 1)
	s.Intern(pi)
	s.SetTraced(pi, true)

	p, ok := s.Predicate(pi)
	require.True(t, ok)
	assert.True(t, p.IsTraced)

	// Listing should not panic on a predicate with no clauses yet.
	assert.NotPanics(t, func() { s.Listing(pi) })
}

func TestStore_ListingDisassemblesInlineBuiltinWithLiteralOperand(t *testing.T) {
	s := store.New()
	compileOne(t, s, `positive(X) :- X > 0.`)

	out := s.Listing(term.NewIndicator("positive", 1))
	assert.Contains(t, out, "b_load_const")
	assert.Contains(t, out, "b_gt")
	assert.NotContains(t, out, "op(", "every opcode in this clause must have an explicit mnemonic")
	// Correct operand-width accounting keeps every remaining line a
	// recognized mnemonic; a mis-sized BLoadConst would desync the
	// rest of the stream into garbage op(N) lines.
	for _, line := range strings.Split(out, "\n") {
		assert.NotContains(t, line, "fop(")
	}
}

func TestStore_ListingDisassemblesDynamicMetaCall(t *testing.T) {
	s := store.New()
	compileOne(t, s, `ready. apply(G) :- call(G).`)

	out := s.Listing(term.NewIndicator("apply", 1))
	assert.Contains(t, out, "meta_goal")
	assert.Contains(t, out, "f_load")
	assert.Contains(t, out, "f_return")
	assert.NotContains(t, out, "op(", "CMetaGoal's operand and embedded F-VM stream must be walked, not skipped")
}
