package compiler

import (
	"github.com/rzubek/botl/cell"
	"github.com/rzubek/botl/term"
)

// literalValue converts a ground surface literal into its runtime cell, for
// contexts that need a concrete value rather than bytecode: table facts and
// `global` initializers. `true`/`false` are the two surface atoms compiled
// as Bool, not as opaque Ref symbols, since every other atom names a goal
// or a Ref-compared constant while these two double as boolean literals.
func literalValue(t term.Term) (cell.Value, bool) {
	switch v := t.(type) {
	case term.Int:
		return cell.SetInt(int64(v)), true
	case term.Float:
		return cell.SetFloat(float32(v)), true
	case term.Bool:
		return cell.SetBool(bool(v)), true
	case term.Str:
		return cell.SetReference(string(v)), true
	case *term.Symbol:
		if v == term.SymTrue {
			return cell.SetBool(true), true
		}
		if v == term.SymFalse {
			return cell.SetBool(false), true
		}
		return cell.SetReference(v), true
	default:
		return cell.Value{}, false
	}
}
