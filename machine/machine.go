package machine

import (
	"fmt"
	"log"

	"github.com/rzubek/botl/cell"
	"github.com/rzubek/botl/langerrors"
	"github.com/rzubek/botl/term"
)

// Lookup resolves a predicate indicator to its Predicate record. Store
// (package store) implements this; Machine only depends on the interface
// so the low-level VM never imports the higher-level store package.
type Lookup interface {
	Predicate(pi term.Indicator) (*Predicate, bool)
	Global(name *term.Symbol) (cell.Value, bool)
	SetGlobal(name *term.Symbol, v cell.Value)
}

// pcAddr addresses one instruction within a clause's bytecode.
type pcAddr struct {
	Clause *CompiledClause
	Pos    int
}

func (p pcAddr) valid() bool {
	return p.Clause != nil && p.Pos >= 0 && p.Pos < len(p.Clause.Code)
}

// frame is the environment-frame bookkeeping for one active clause
// invocation.
//
// brunokim/logic-engine keeps this as a *wam.Environment Go struct chained
// by pointers rather than literally embedding it in the byte stack ("we
// sidestep this model to make use of regular Go pointers", wam/model.go);
// this keeps the same sidestep for the bookkeeping (ContPC/ContFrame/cut
// barrier) while keeping the actual permanent-variable storage as a
// contiguous range of the real cell.Stack.
//
// A frame owns two disjoint address ranges, mirroring a WAM's separation
// of argument registers from the permanent-variable stack: ArgsBase..+Argc
// is the caller's argument window (read during head matching, by argument
// position), and Base..+Size is the clause's own slot array (read and
// written by slot index, by head/goal/builtin/F-VM opcodes). The two
// differ whenever a head has void or repeated-variable positions, since
// slot allocation skips those but argument position never does.
type frame struct {
	ArgsBase cell.Addr
	Argc     int

	Base cell.Addr
	Size int

	ContPC       pcAddr
	ContFrameIdx int
	CutBarrier   int // len(ChoicePoints) at clause entry, for CCut
}

// ChoicePoint is a record of VM state sufficient to retry the next clause.
type ChoicePoint struct {
	Pred          *Predicate
	NextClauseIdx int

	ArgsBase cell.Addr
	NumArgs  int

	SavedStackTop  cell.Addr
	SavedTrailMark int
	SavedFramesLen int
	SavedCurFrame  int

	ContPC       pcAddr
	ContFrameIdx int
	CutBarrier   int
}

// Machine is the goal VM and the functional-expression VM.
type Machine struct {
	Stack        *cell.Stack
	Lookup       Lookup
	ChoicePoints []*ChoicePoint
	frames       []*frame
	curFrame     int
	pc           pcAddr

	// argIndex walks the current frame's argument window while head
	// opcodes are being matched, 0 at clause entry.
	argIndex int

	// pendingArgc counts argument cells pushed since the last EmitGoal, so
	// CCall/CLastCall know the call's arity without a separate operand.
	pendingArgc int
	pendingPI   term.Indicator

	// StepLimit bounds the number of CCall/CLastCall dispatched, for
	// cooperative cancellation of runaway queries; 0 means unbounded.
	StepLimit int
	steps     int

	halted bool
	ok     bool

	// host is the registered reflection capability for F-VM host-interop
	// opcodes; nil until SetHost is called.
	host HostInterop
}

// New creates a Machine bound to a Lookup (normally a *store.Store).
func New(lookup Lookup) *Machine {
	m := &Machine{
		Stack:  cell.NewStack(256),
		Lookup: lookup,
	}
	m.frames = []*frame{{Base: 0, Size: 0, ContFrameIdx: 0}}
	m.curFrame = 0
	return m
}

// RunGoal executes a top-level query clause. The clause must be a
// single-clause, zero-argument synthetic predicate whose body is the
// compiled query; it runs to the first solution and reports success.
func (m *Machine) RunGoal(query *CompiledClause) (bool, error) {
	base := m.Stack.Grow(query.EnvSize)
	m.frames = []*frame{{Base: base, Size: query.EnvSize, ContFrameIdx: 0}}
	m.curFrame = 0
	m.argIndex = 0
	m.ChoicePoints = nil
	m.pc = pcAddr{Clause: query, Pos: 0}
	m.halted = false
	m.ok = false
	return m.run()
}

// Redo resumes execution from the last choice point, for multiple-solution
// enumeration. It reports false with no error if no choice points remain.
func (m *Machine) Redo() (bool, error) {
	if len(m.ChoicePoints) == 0 {
		return false, nil
	}
	if !m.backtrackOnce() {
		return false, nil
	}
	m.halted = false
	m.ok = false
	return m.run()
}

// CurrentFrame exposes the base address of the current environment frame,
// which after a successful RunGoal/Redo is the query clause's own frame,
// so the embedding layer can read bindings out of query variables.
func (m *Machine) CurrentFrame() (cell.Addr, int) {
	f := m.frames[m.curFrame]
	return f.Base, f.Size
}

func (m *Machine) run() (bool, error) {
	for !m.halted {
		if !m.pc.valid() {
			return false, langerrors.InvalidOperationError("invalid program counter (missing CNoGoal/CCall at clause end)")
		}
		op := Op(m.pc.Clause.Code[m.pc.Pos])
		cont, err := m.dispatch(op)
		if err != nil {
			// A run-time error ends the whole query: no remaining
			// alternative is tried.
			m.ChoicePoints = nil
			m.halted = true
			return false, err
		}
		if !cont {
			if !m.backtrackOnce() {
				m.halted = true
				return false, nil
			}
			continue
		}
	}
	return m.ok, nil
}

func asLangError(err error, out **langerrors.Error) bool {
	le, ok := err.(*langerrors.Error)
	if ok {
		*out = le
	}
	return ok
}

// advance moves the PC past the current opcode and nb operand bytes.
func (m *Machine) advance(nb int) {
	m.pc.Pos += 1 + nb
}

func (m *Machine) operand(offset int) byte {
	return m.pc.Clause.Code[m.pc.Pos+1+offset]
}

func (m *Machine) curPred() *Predicate {
	return m.pc.Clause.Pred
}

func (m *Machine) curFrameBase() cell.Addr {
	return m.frames[m.curFrame].Base
}

// slotAddr returns the address of environment slot i in the current frame.
func (m *Machine) slotAddr(i byte) cell.Addr {
	return m.frames[m.curFrame].Base + cell.Addr(i)
}

// curArgAddr returns the address of the current frame's argument window
// cell at argIndex, and advances argIndex past it. Used by head opcodes,
// which walk the window left to right as they match a clause head.
func (m *Machine) curArgAddr() cell.Addr {
	f := m.frames[m.curFrame]
	addr := f.ArgsBase + cell.Addr(m.argIndex)
	m.argIndex++
	return addr
}

// pushArg extends the stack by one cell holding v, tracking it as part of
// the pending argument window for the next call.
func (m *Machine) pushArg(v cell.Value) {
	addr := m.Stack.Grow(1)
	m.Stack.Set(addr, v)
	m.pendingArgc++
}

// backtrackOnce pops the most recent choice point, restores machine state,
// and retries its next clause (or fails through to the one before it if
// clauses are exhausted). Returns false if no choice point can resume
// execution (overall failure).
func (m *Machine) backtrackOnce() bool {
	for len(m.ChoicePoints) > 0 {
		cp := m.ChoicePoints[len(m.ChoicePoints)-1]
		m.Stack.UndoTo(cp.SavedTrailMark)
		m.Stack.TruncateTo(cp.SavedStackTop)
		m.frames = m.frames[:cp.SavedFramesLen]
		m.curFrame = cp.SavedCurFrame

		if cp.NextClauseIdx >= len(cp.Pred.Clauses) {
			m.ChoicePoints = m.ChoicePoints[:len(m.ChoicePoints)-1]
			continue
		}
		clause := cp.Pred.Clauses[cp.NextClauseIdx]
		cp.NextClauseIdx++
		if cp.NextClauseIdx >= len(cp.Pred.Clauses) {
			// Last alternative: pop the choice point (no further retry).
			m.ChoicePoints = m.ChoicePoints[:len(m.ChoicePoints)-1]
		}
		m.enterClause(clause, cp.ArgsBase, cp.NumArgs, cp.ContPC, cp.ContFrameIdx, cp.CutBarrier, false)
		return true
	}
	return false
}

// enterClause allocates a fresh slot array for clause above argsBase+argc
// (the caller's argument window, which stays untouched) and positions the
// PC at its first instruction. The slot array is always freshly grown,
// even when reuse is set: reuse only controls whether the new frame
// replaces the current one (last-call optimisation) or is pushed as a new
// one, not whether storage is shared.
func (m *Machine) enterClause(clause *CompiledClause, argsBase cell.Addr, argc int, contPC pcAddr, contFrameIdx int, cutBarrier int, reuse bool) {
	slotBase := m.Stack.Grow(clause.EnvSize)
	f := &frame{
		ArgsBase: argsBase, Argc: argc,
		Base: slotBase, Size: clause.EnvSize,
		ContPC: contPC, ContFrameIdx: contFrameIdx, CutBarrier: cutBarrier,
	}
	if reuse {
		m.frames[m.curFrame] = f
	} else {
		m.frames = append(m.frames, f)
		m.curFrame = len(m.frames) - 1
	}
	m.argIndex = 0
	m.pc = pcAddr{Clause: clause, Pos: 0}
}

// call dispatches EmitGoal's pending predicate indicator, implementing
// CCall/CLastCall.
func (m *Machine) call(isLast bool) (bool, error) {
	pi := m.pendingPI
	argc := m.pendingArgc
	argsBase := m.Stack.Top() - cell.Addr(argc)
	m.pendingArgc = 0

	if m.StepLimit > 0 {
		m.steps++
		if m.steps > m.StepLimit {
			return false, langerrors.InvalidOperationError("step limit %d exceeded", m.StepLimit)
		}
	}

	pred, ok := m.Lookup.Predicate(pi)
	if !ok {
		return false, langerrors.UnknownPredicateError(pi.Name.Name(), pi.Arity)
	}
	if len(pred.Clauses) == 0 {
		return false, nil
	}

	var contPC pcAddr
	var contFrameIdx int
	curF := m.frames[m.curFrame]
	if isLast {
		contPC = curF.ContPC
		contFrameIdx = curF.ContFrameIdx
	} else {
		contPC = pcAddr{Clause: m.pc.Clause, Pos: m.pc.Pos + 1}
		contFrameIdx = m.curFrame
	}
	cutBarrier := len(m.ChoicePoints)

	if pred.IsTraced {
		log.Printf("CALL: %v", pi)
	}

	if len(pred.Clauses) > 1 {
		m.ChoicePoints = append(m.ChoicePoints, &ChoicePoint{
			Pred:           pred,
			NextClauseIdx:  1,
			ArgsBase:       argsBase,
			NumArgs:        argc,
			SavedStackTop:  argsBase + cell.Addr(argc),
			SavedTrailMark: m.Stack.TrailMark(),
			SavedFramesLen: len(m.frames),
			SavedCurFrame:  m.curFrame,
			ContPC:         contPC,
			ContFrameIdx:   contFrameIdx,
			CutBarrier:     cutBarrier,
		})
	}
	m.enterClause(pred.Clauses[0], argsBase, argc, contPC, contFrameIdx, cutBarrier, isLast)
	return true, nil
}

// succeed implements CNoGoal: return to the saved continuation, or finish
// the whole query if there is none.
func (m *Machine) succeed() bool {
	f := m.frames[m.curFrame]
	if f.ContPC.Clause == nil {
		m.ok = true
		m.halted = true
		return true
	}
	m.pc = f.ContPC
	m.curFrame = f.ContFrameIdx
	return true
}

// cut implements CCut: discard every choice point created since this
// clause's entry.
func (m *Machine) cut() {
	barrier := m.frames[m.curFrame].CutBarrier
	if barrier < len(m.ChoicePoints) {
		m.ChoicePoints = m.ChoicePoints[:barrier]
	}
}

func (m *Machine) String() string {
	return fmt.Sprintf("Machine{frames=%d, choicepoints=%d, stacktop=%d}", len(m.frames), len(m.ChoicePoints), m.Stack.Top())
}
