// Package machine implements the goal virtual machine and the functional-
// expression VM: a byte-oriented tagged-value stack machine performing
// unification, choice-point management, and arithmetic/host-interop
// evaluation.
//
// brunokim/logic-engine's wam package implements a register-oriented WAM
// with typed Instruction values. This package instead drives the same
// environment-frame/choice-point/trail discipline (lifted from that
// package's run.go) off a byte-oriented opcode stream, encoded in the
// compact style of ichiban-prolog's Bytecode ([]byte) in bytecode.go.
// Predicate and CompiledClause live here, not in package store, since the
// knowledge base is specified only at the interfaces the VM and compiler
// consume — those interfaces are these two types.
package machine

import (
	"github.com/rzubek/botl/cell"
	"github.com/rzubek/botl/term"
)

// Predicate is identified by its indicator. It
// holds an ordered clause list plus the per-predicate constant pools that
// every one of its clauses' bytecode indexes into.
type Predicate struct {
	Indicator term.Indicator
	Clauses   []*CompiledClause

	// Signature is an optional type-name tuple, recorded by the `signature`
	// declaration for documentation/table purposes.
	Signature []*term.Symbol

	IsSpecial              bool
	IsTable                bool
	IsTraced               bool
	IsNestedPredicate      bool
	IsExternallyCalled     bool
	MandatoryInstantiation bool

	// Constant pools. Indices into these are single bytes in bytecode, so
	// each pool holds at most 255 distinct entries.
	Ints    []int64
	Floats  []float32
	Objects []interface{}

	// Native is set for primops and tables (IsSpecial). It receives the
	// base address of the argument window and the call arity, and reports
	// whether the call succeeds.
	Native func(m *Machine, base cell.Addr, arity int) (bool, error)
}

// InternInt interns i into p's int pool, returning its byte index.
func (p *Predicate) InternInt(i int64) byte {
	for idx, v := range p.Ints {
		if v == i {
			return byte(idx)
		}
	}
	if len(p.Ints) >= 255 {
		panic("machine: predicate int pool overflow (>255 distinct ints)")
	}
	p.Ints = append(p.Ints, i)
	return byte(len(p.Ints) - 1)
}

// InternFloat interns f into p's float pool, returning its byte index.
func (p *Predicate) InternFloat(f float32) byte {
	for idx, v := range p.Floats {
		if v == f {
			return byte(idx)
		}
	}
	if len(p.Floats) >= 255 {
		panic("machine: predicate float pool overflow (>255 distinct floats)")
	}
	p.Floats = append(p.Floats, f)
	return byte(len(p.Floats) - 1)
}

// InternObject interns obj into p's object pool by identity-or-equality,
// returning its byte index. Symbols are compared by pointer.
func (p *Predicate) InternObject(obj interface{}) byte {
	for idx, v := range p.Objects {
		if v == obj {
			return byte(idx)
		}
	}
	if len(p.Objects) >= 255 {
		panic("machine: predicate object pool overflow (>255 distinct objects)")
	}
	p.Objects = append(p.Objects, obj)
	return byte(len(p.Objects) - 1)
}

// HeadSlot reconstructs one argument position of a clause's head term for
// tracing/listing.
type HeadSlot struct {
	IsLiteral bool
	Literal   term.Term
	SlotIndex int
}

// CompiledClause is a single compiled rule or fact.
type CompiledClause struct {
	// Source is the original surface term, kept for listing.
	Source term.Term
	Code   []byte
	// EnvSize is 1 + the maximum slot index used, or 0 if no slots are
	// used.
	EnvSize   int
	HeadModel []HeadSlot
	File      string
	Line      int
	// Pred back-references the owning predicate, for constant-pool access
	// during execution and tracing.
	Pred *Predicate

	// Singletons lists variable names flagged as singleton warnings.
	Singletons []string
}
