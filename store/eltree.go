package store

import (
	"github.com/rzubek/botl/term"
)

// ELTree is a minimal exclusive-logic tree: a node keyed by a term.Term
// path, with exclusive-branch children (":") and non-exclusive-branch
// children ("/", "/>"). It's an auxiliary tree-structured assertion
// database external to the predicate store, the minimal concrete shape the
// fact/rule compiler pass needs to compile ground facts over `/`, `:`,
// `/>` into.
//
// grounded on launix-de-memcp's storage tree-of-maps shape
// (storage/table.go's nested column indices), simplified to the single
// operation this module's compiler needs: assert a path and test whether a
// path (or its exclusive sibling) is asserted.
type ELTree struct {
	root *elNode
}

type elNode struct {
	// children maps an edge key (the RHS of `/` or `/>`) to the subtree
	// reached by non-exclusive edges.
	children map[term.Term]*elNode
	// exclusive maps the LHS of a `:` edge to the single value currently
	// asserted for it (asserting a new value replaces the old one, since
	// `:` is exclusive).
	exclusive map[term.Term]term.Term
}

func newELNode() *elNode {
	return &elNode{children: make(map[term.Term]*elNode), exclusive: make(map[term.Term]term.Term)}
}

func newELTree() *ELTree {
	return &ELTree{root: newELNode()}
}

// AssertNonExclusive records a `/`-or-`/>`-shaped fact: lhs is linked to
// rhs, and further facts may also link lhs to other values.
func (t *ELTree) AssertNonExclusive(lhs, rhs term.Term) {
	n := t.nodeFor(lhs)
	if _, ok := n.children[rhs]; !ok {
		n.children[rhs] = newELNode()
	}
}

// AssertExclusive records a `:`-shaped fact: lhs is linked to exactly one
// rhs, replacing any prior exclusive binding for lhs.
func (t *ELTree) AssertExclusive(lhs, rhs term.Term) {
	n := t.nodeFor(lhs)
	n.exclusive[lhs] = rhs
}

// Exclusive returns the current exclusive value asserted for lhs, if any.
func (t *ELTree) Exclusive(lhs term.Term) (term.Term, bool) {
	n := t.nodeFor(lhs)
	v, ok := n.exclusive[lhs]
	return v, ok
}

// HasEdge reports whether lhs/rhs was asserted via AssertNonExclusive.
func (t *ELTree) HasEdge(lhs, rhs term.Term) bool {
	n := t.nodeFor(lhs)
	_, ok := n.children[rhs]
	return ok
}

// nodeFor returns the root's child node keyed by lhs, creating it on first
// use. Keys compare as Go interface values: interned Symbols and literals
// by value, *Call terms by pointer identity.
func (t *ELTree) nodeFor(lhs term.Term) *elNode {
	if n, ok := t.root.children[lhs]; ok {
		return n
	}
	n := newELNode()
	t.root.children[lhs] = n
	return n
}
