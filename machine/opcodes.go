package machine

// Op is a single bytecode opcode. Operands, when present, are single bytes:
// constant-pool indices and slot indices never exceed 255.
type Op byte

// Head opcodes run while a clause is being entered, matching the caller's
// argument cells against the clause head.
const (
	HeadVoid Op = iota
	HeadVarFirst
	HeadVarMatch
	HeadConst
)

// goalFamilyOffset biases the head family into the goal family, so a single
// lookup (see AdjustArgumentOpcode) picks the right opcode set depending on
// whether the compiler is emitting a clause head or a call's arguments.
// The exact numbering is incidental; only compiler and VM need to agree.
const goalFamilyOffset = Op(8)

// Goal opcodes are biased head opcodes that, instead of unifying with a
// caller cell, push arguments onto the data stack as the next goal's
// argument list.
const (
	GoalVoid     = HeadVoid + goalFamilyOffset
	GoalVarFirst = HeadVarFirst + goalFamilyOffset
	GoalVarMatch = HeadVarMatch + goalFamilyOffset
	GoalConst    = HeadConst + goalFamilyOffset
)

// AdjustArgumentOpcode returns the goal-family opcode corresponding to a
// head-family one, or vice versa, so the compiler can emit one family in
// clause heads and the other in goal bodies via a single lookup.
func AdjustArgumentOpcode(op Op, toGoal bool) Op {
	isGoal := op >= goalFamilyOffset
	if toGoal == isGoal {
		return op
	}
	if toGoal {
		return op + goalFamilyOffset
	}
	return op - goalFamilyOffset
}

// Control opcodes.
const (
	// EmitGoal is the prelude to a predicate call: operand is the byte
	// index, in the clause's object pool, of the target term.Indicator.
	EmitGoal Op = 16 + iota
	// CCall invokes the predicate named by the preceding EmitGoal.
	CCall
	// CLastCall is CCall with last-call optimisation: the current
	// environment frame is reused for the callee.
	CLastCall
	// CNoGoal terminates the clause successfully.
	CNoGoal
	// CCut discards all choice points created since this clause's entry.
	CCut
	// CSpecial invokes a native primop/table row-matcher.
	CSpecial
	// CMetaGoal resolves call/N's target at run time: operand is the extra
	// argument count, followed inline by an F-VM subprogram (terminated by
	// FReturn) that evaluates to the goal being called. The resolved
	// indicator becomes pendingPI, exactly as EmitGoal would have set it,
	// so the extra-argument opcodes and CCall/CLastCall that follow in the
	// bytecode stream need no special casing.
	CMetaGoal
)

// Inline builtin opcodes. Each reads its operand(s) as
// environment-slot indices unless noted.
const (
	// BVar/BNonVar test whether a slot is Unbound.
	BVar Op = 32 + iota
	BNonVar
	// Numeric comparisons: operands are two slots.
	BNumLT
	BNumGT
	BNumLE
	BNumGE
	// Type tests: operand is one slot.
	BTypeInt
	BTypeFloat
	BTypeNumber
	BTypeString
	BTypeSymbol
	BTypeMissing
	// BUnsafeSet: operands are destination slot, source slot.
	BUnsafeSet
	// BUnsafeInit family: operand is destination slot.
	BUnsafeInit
	BUnsafeInitZero
	BUnsafeInitZeroInt
	// Aggregate updaters: operand is accumulator slot, value slot.
	BMaximizeUpdate
	BMinimizeUpdate
	BSumUpdateRepeat
	BIncAndRepeat
	// BThrow: operand is the slot holding the payload.
	BThrow
	// BCallFailed logs an informational message and fails ordinarily.
	BCallFailed
	// BFail always fails.
	BFail
	// BLoadConst writes a constant-pool literal directly into an
	// environment slot (operand: dest slot, kind byte, pool idx), without
	// touching argIndex. It generalizes the unsafe_initialize_zero[_int]
	// family's "write a fixed value straight into a slot" precedent from a
	// hardwired zero to any pool constant, so a literal operand of an
	// inline comparison/aggregate builtin (e.g. `X > 1`) can be
	// materialized into a slot the same way those opcodes already do.
	BLoadConst
)

// HeadConst/GoalConst kind bytes.
const (
	KindInt byte = iota
	KindFloat
	KindBool
	KindObject
	// KindFunctionalExpr has no pool index: F-VM bytecode follows inline,
	// terminated by FReturn.
	KindFunctionalExpr
	KindPredicateRef
)

// ---- Functional-expression (F-VM) opcodes.

type FOp byte

const (
	FPushSmallInt FOp = iota // signed byte immediate
	FPushInt                 // pool idx
	FPushFloat                // pool idx
	FPushBool                 // immediate byte 0/1
	FPushObject               // pool idx
	FLoad                     // slot
	FLoadUnchecked            // slot
	FLoadGlobal               // pool idx (global name, interned as object)
	// FSlotRef pushes a StackRef aliasing environment slot `operand`,
	// rather than its content, so a compound/struct argument built from
	// permanent variables shares storage with those variables instead of
	// snapshotting their (possibly still-unbound) value. Opcode
	// numbering/injection is incidental as long as compiler and VM agree;
	// this is one new primitive the base opcode set has no way to express.
	FSlotRef // slot
	FAdd
	FSubtract
	FMultiply
	FDivide
	FNegate
	FFieldReference
	FMethodCall      // argc
	FConstructor     // argc
	FComponentLookup
	FArray     // n
	FArrayList // n
	FHashset   // n
	FNonFalse
	FFormat       // n
	FUserFunction // subop
	FReturn
)
