// Package fuzz exercises the recursive-descent parser and the compiler's
// declaration filter against arbitrary byte input, looking for panics rather
// than incorrect results.
package fuzz

import (
	"github.com/rzubek/botl/compiler"
	"github.com/rzubek/botl/parser"
	"github.com/rzubek/botl/store"
)

// Fuzz feeds data through parser.New/Next and, for whatever parses cleanly,
// through a fresh compiler. A parse or compile error is an expected outcome
// (return 0, uninteresting); a panic anywhere in this path is a bug.
func Fuzz(data []byte) int {
	p := parser.New(string(data))
	s := store.New()
	c := compiler.New(s)
	n := 0
	for {
		tm, err := p.Next()
		if err != nil {
			break
		}
		if tm == nil {
			break
		}
		n++
		// Compile errors (undeclared struct, singleton, etc.) are expected;
		// only a panic here is interesting to the fuzzer.
		_ = c.Compile(tm, "<fuzz>", p.Line())
	}
	if n == 0 {
		return 0
	}
	return 1
}
