package machine_test

import (
	"testing"

	"github.com/rzubek/botl/cell"
	"github.com/rzubek/botl/machine"
	"github.com/rzubek/botl/term"
)

// stubLookup satisfies machine.Lookup with no predicates, enough for tests
// that only exercise unification through the Native-callback surface.
type stubLookup struct {
	globals map[*term.Symbol]cell.Value
}

func newStubLookup() *stubLookup {
	return &stubLookup{globals: make(map[*term.Symbol]cell.Value)}
}

func (s *stubLookup) Predicate(pi term.Indicator) (*machine.Predicate, bool) { return nil, false }
func (s *stubLookup) Global(name *term.Symbol) (cell.Value, bool) {
	v, ok := s.globals[name]
	return v, ok
}
func (s *stubLookup) SetGlobal(name *term.Symbol, v cell.Value) { s.globals[name] = v }

func TestMachine_UnifyAt_BothUnbound(t *testing.T) {
	m := machine.New(newStubLookup())
	base := m.Stack.Grow(2)
	x, y := base, base+1

	if !m.UnifyAt(x, y) {
		t.Fatalf("UnifyAt(x, y) = false, want true")
	}
	m.UnifyConstAt(x, cell.SetInt(9))
	if got := m.ArgAt(y, 0); got.Tag != cell.Int || got.I != 9 {
		t.Errorf("y resolves to %+v, want Int 9 (unification should alias x and y)", got)
	}
}

func TestMachine_UnifyAt_Mismatch(t *testing.T) {
	m := machine.New(newStubLookup())
	base := m.Stack.Grow(2)
	m.UnifyConstAt(base, cell.SetInt(1))
	m.UnifyConstAt(base+1, cell.SetInt(2))

	if m.UnifyAt(base, base+1) {
		t.Errorf("UnifyAt(1, 2) = true, want false")
	}
}

func TestMachine_TrailMarkAndUndo(t *testing.T) {
	m := machine.New(newStubLookup())
	base := m.Stack.Grow(1)
	mark := m.TrailMark()

	m.UnifyConstAt(base, cell.SetInt(5))
	m.UndoTo(mark)

	if got := m.ArgAt(base, 0); !got.IsUnbound() {
		t.Errorf("ArgAt(base) after UndoTo = %+v, want unbound", got)
	}
}

func TestMachine_RunGoal_Fact(t *testing.T) {
	lookup := newStubLookup()
	m := machine.New(lookup)

	pred := &machine.Predicate{Indicator: term.NewIndicator("$query", 0)}
	clause := &machine.CompiledClause{
		Code:    []byte{byte(machine.CNoGoal)},
		EnvSize: 0,
		Pred:    pred,
	}
	pred.Clauses = []*machine.CompiledClause{clause}

	ok, err := m.RunGoal(clause)
	if err != nil {
		t.Fatalf("RunGoal: %v", err)
	}
	if !ok {
		t.Errorf("RunGoal(fact) = false, want true")
	}
	if ok2, _ := m.Redo(); ok2 {
		t.Errorf("Redo() after a single fact = true, want false")
	}
}

func TestMachine_RunGoal_Fail(t *testing.T) {
	lookup := newStubLookup()
	m := machine.New(lookup)

	pred := &machine.Predicate{Indicator: term.NewIndicator("$query", 0)}
	clause := &machine.CompiledClause{
		Code: []byte{byte(machine.BFail)},
		Pred: pred,
	}
	pred.Clauses = []*machine.CompiledClause{clause}

	ok, err := m.RunGoal(clause)
	if err != nil {
		t.Fatalf("RunGoal: %v", err)
	}
	if ok {
		t.Errorf("RunGoal(fail) = true, want false")
	}
}

func TestMachine_StepLimit(t *testing.T) {
	lookup := newStubLookup()
	m := machine.New(lookup)
	m.StepLimit = 1

	// loop :- loop. compiled as a single self-recursive tail call.
	pi := term.NewIndicator("loop", 0)
	pred := &machine.Predicate{Indicator: pi}
	lookup2 := &recursiveLookup{pred: pred}
	m.Lookup = lookup2

	idx := pred.InternObject(pi)
	clause := &machine.CompiledClause{
		Code: []byte{byte(machine.EmitGoal), idx, byte(machine.CLastCall)},
		Pred: pred,
	}
	pred.Clauses = []*machine.CompiledClause{clause}

	_, err := m.RunGoal(clause)
	if err == nil {
		t.Errorf("RunGoal with StepLimit=1 on an infinite loop: got nil error, want step-limit error")
	}
}

type recursiveLookup struct {
	pred *machine.Predicate
}

func (r *recursiveLookup) Predicate(pi term.Indicator) (*machine.Predicate, bool) {
	if pi == r.pred.Indicator {
		return r.pred, true
	}
	return nil, false
}
func (r *recursiveLookup) Global(name *term.Symbol) (cell.Value, bool) { return cell.Value{}, false }
func (r *recursiveLookup) SetGlobal(name *term.Symbol, v cell.Value)   {}
