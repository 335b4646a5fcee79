package compiler

import "github.com/rzubek/botl/term"

// walkVars calls visit for every *term.Variable leaf reachable from t, left
// to right, including repeated occurrences.
func walkVars(t term.Term, visit func(*term.Variable)) {
	switch t := t.(type) {
	case *term.Variable:
		visit(t)
	case *term.Call:
		for _, a := range t.Args {
			walkVars(a, visit)
		}
	}
}

// countOccurrences tallies how many times each distinct *term.Variable
// appears across terms, the input to Pass 4's void/permanent split: a
// variable occurring at most once needs no environment slot.
func countOccurrences(terms ...term.Term) map[*term.Variable]int {
	counts := make(map[*term.Variable]int)
	for _, t := range terms {
		if t == nil {
			continue
		}
		walkVars(t, func(v *term.Variable) { counts[v]++ })
	}
	return counts
}

// freeVars returns the distinct variables occurring in t, in first-seen
// order. Used to determine a disjunction's call-argument list when it is
// compiled out into a nested predicate.
func freeVars(t term.Term) []*term.Variable {
	var order []*term.Variable
	seen := make(map[*term.Variable]bool)
	walkVars(t, func(v *term.Variable) {
		if !seen[v] {
			seen[v] = true
			order = append(order, v)
		}
	})
	return order
}
