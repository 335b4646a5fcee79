package store

import (
	"fmt"
	"strings"

	"github.com/rzubek/botl/machine"
)

// disassemble writes a mnemonic disassembly of a compiled clause's
// bytecode: one opcode per line, "  addr: MNEMONIC operand...".
func disassemble(b *strings.Builder, c *machine.CompiledClause) {
	code := c.Code
	pos := 0
	for pos < len(code) {
		op := machine.Op(code[pos])
		if op == machine.HeadConst || op == machine.GoalConst {
			pos = disassembleConst(b, code, pos, op == machine.HeadConst)
			continue
		}
		if op == machine.CMetaGoal {
			pos = disassembleMetaGoal(b, code, pos)
			continue
		}
		mnem, nOperands := opInfo(op)
		fmt.Fprintf(b, "  %3d: %s", pos, mnem)
		for i := 0; i < nOperands; i++ {
			fmt.Fprintf(b, " %d", code[pos+1+i])
		}
		b.WriteByte('\n')
		pos += 1 + nOperands
	}
}

// disassembleConst prints HeadConst/GoalConst, walking a nested F-VM stream
// inline when the kind byte is KindFunctionalExpr instead of assuming a
// fixed two-byte encoding.
func disassembleConst(b *strings.Builder, code []byte, pos int, isHead bool) int {
	mnem := "goal_const"
	if isHead {
		mnem = "head_const"
	}
	kind := code[pos+1]
	if kind != machine.KindFunctionalExpr {
		fmt.Fprintf(b, "  %3d: %s %d %d\n", pos, mnem, kind, code[pos+2])
		return pos + 3
	}
	fmt.Fprintf(b, "  %3d: %s functional_expr\n", pos, mnem)
	return disassembleFVM(b, code, pos+2)
}

// disassembleMetaGoal prints CMetaGoal's extra-argument-count operand, then
// walks its embedded F-VM sub-stream inline, the same way disassembleConst
// does for HeadConst/GoalConst's KindFunctionalExpr case.
func disassembleMetaGoal(b *strings.Builder, code []byte, pos int) int {
	fmt.Fprintf(b, "  %3d: meta_goal %d\n", pos, code[pos+1])
	return disassembleFVM(b, code, pos+2)
}

// disassembleFVM walks an inline F-VM instruction stream starting at pos,
// stopping after FReturn, and returns the position immediately after it.
func disassembleFVM(b *strings.Builder, code []byte, pos int) int {
	for {
		op := machine.FOp(code[pos])
		mnem, nOperands := fOpInfo(op)
		fmt.Fprintf(b, "    %3d: %s", pos, mnem)
		for i := 0; i < nOperands; i++ {
			fmt.Fprintf(b, " %d", code[pos+1+i])
		}
		b.WriteByte('\n')
		pos += 1 + nOperands
		if op == machine.FReturn {
			return pos
		}
	}
}

func fOpInfo(op machine.FOp) (string, int) {
	switch op {
	case machine.FPushSmallInt:
		return "f_push_small_int", 1
	case machine.FPushInt:
		return "f_push_int", 1
	case machine.FPushFloat:
		return "f_push_float", 1
	case machine.FPushBool:
		return "f_push_bool", 1
	case machine.FPushObject:
		return "f_push_object", 1
	case machine.FLoad:
		return "f_load", 1
	case machine.FLoadUnchecked:
		return "f_load_unchecked", 1
	case machine.FLoadGlobal:
		return "f_load_global", 1
	case machine.FAdd:
		return "f_add", 0
	case machine.FSubtract:
		return "f_subtract", 0
	case machine.FMultiply:
		return "f_multiply", 0
	case machine.FDivide:
		return "f_divide", 0
	case machine.FNegate:
		return "f_negate", 0
	case machine.FFieldReference:
		return "f_field_reference", 0
	case machine.FMethodCall:
		return "f_method_call", 1
	case machine.FConstructor:
		return "f_constructor", 1
	case machine.FComponentLookup:
		return "f_component_lookup", 0
	case machine.FArray:
		return "f_array", 1
	case machine.FArrayList:
		return "f_array_list", 1
	case machine.FHashset:
		return "f_hashset", 1
	case machine.FNonFalse:
		return "f_non_false", 0
	case machine.FFormat:
		return "f_format", 1
	case machine.FUserFunction:
		return "f_user_function", 1
	case machine.FReturn:
		return "f_return", 0
	default:
		return fmt.Sprintf("fop(%d)", op), 0
	}
}

func opInfo(op machine.Op) (string, int) {
	switch op {
	case machine.HeadVoid:
		return "head_void", 0
	case machine.HeadVarFirst:
		return "head_var_first", 1
	case machine.HeadVarMatch:
		return "head_var_match", 1
	case machine.GoalVoid:
		return "goal_void", 0
	case machine.GoalVarFirst:
		return "goal_var_first", 1
	case machine.GoalVarMatch:
		return "goal_var_match", 1
	case machine.EmitGoal:
		return "emit_goal", 1
	case machine.CCall:
		return "call", 0
	case machine.CLastCall:
		return "last_call", 0
	case machine.CNoGoal:
		return "no_goal", 0
	case machine.CCut:
		return "cut", 0
	case machine.CSpecial:
		return "special", 0
	case machine.BVar:
		return "b_var", 1
	case machine.BNonVar:
		return "b_nonvar", 1
	case machine.BNumLT:
		return "b_lt", 2
	case machine.BNumGT:
		return "b_gt", 2
	case machine.BNumLE:
		return "b_le", 2
	case machine.BNumGE:
		return "b_ge", 2
	case machine.BTypeInt:
		return "b_is_int", 1
	case machine.BTypeFloat:
		return "b_is_float", 1
	case machine.BTypeNumber:
		return "b_is_number", 1
	case machine.BTypeString:
		return "b_is_string", 1
	case machine.BTypeSymbol:
		return "b_is_symbol", 1
	case machine.BTypeMissing:
		return "b_is_missing", 1
	case machine.BUnsafeSet:
		return "b_unsafe_set", 2
	case machine.BUnsafeInit:
		return "b_unsafe_init", 1
	case machine.BUnsafeInitZero:
		return "b_unsafe_init_zero", 1
	case machine.BUnsafeInitZeroInt:
		return "b_unsafe_init_zero_int", 1
	case machine.BMaximizeUpdate:
		return "b_maximize_update", 2
	case machine.BMinimizeUpdate:
		return "b_minimize_update", 2
	case machine.BSumUpdateRepeat:
		return "b_sum_update_and_repeat", 2
	case machine.BIncAndRepeat:
		return "b_inc_and_repeat", 1
	case machine.BThrow:
		return "b_throw", 1
	case machine.BCallFailed:
		return "b_call_failed", 0
	case machine.BFail:
		return "b_fail", 0
	case machine.BLoadConst:
		return "b_load_const", 3
	default:
		return fmt.Sprintf("op(%d)", op), 0
	}
}
