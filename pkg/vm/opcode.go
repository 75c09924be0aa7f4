// Package vm implements the execution core: a register-and-stack hybrid
// machine (spec.md section 4.5), call-frame mechanics (section 4.4),
// exception propagation (section 4.6), and the generator/coroutine
// suspend-resume protocol (section 4.6). It is the sole consumer of
// pkg/core/object's Caller interface and owns the in-memory Program and
// Instruction types; this package has no serializer for them.
package vm

// Opcode identifies one instruction kind. Values are stable across a
// process's serialized-program format (spec.md section 6: "the same
// opcode definitions" back both in-memory execution and on-disk
// serialization), so new opcodes are always appended, never inserted.
type Opcode uint8

const (
	OpNop Opcode = iota

	// Constants and names.
	OpLoadConst  // dst, constIndex
	OpLoadName   // dst, nameIndex        (global/builtin fallback lookup)
	OpStoreName  // src, nameIndex
	OpDeleteName // nameIndex
	OpLoadFast   // dst, localIndex       (register-resident local)
	OpStoreFast  // src, localIndex
	OpLoadGlobal // dst, nameIndex
	OpStoreGlobal
	OpLoadDeref  // dst, freevarIndex     (cell read)
	OpStoreDeref // src, freevarIndex     (cell write)

	// Attributes and subscription.
	OpLoadAttr   // dst, obj, nameIndex
	OpStoreAttr  // obj, nameIndex, src
	OpDeleteAttr // obj, nameIndex
	OpLoadMethod // dst, obj, nameIndex  (attribute lookup optimized for immediate call)
	OpBinarySubscr
	OpStoreSubscr
	OpDeleteSubscr

	// Arithmetic, comparison, bitwise, logical.
	OpBinaryAdd
	OpBinarySub
	OpBinaryMul
	OpBinaryTrueDiv
	OpBinaryFloorDiv
	OpBinaryMod
	OpBinaryPow
	OpBinaryLShift
	OpBinaryRShift
	OpBinaryAnd
	OpBinaryOr
	OpBinaryXor
	OpUnaryNeg
	OpUnaryPos
	OpUnaryInvert
	OpUnaryNot
	OpCompareEq
	OpCompareNe
	OpCompareLt
	OpCompareLe
	OpCompareGt
	OpCompareGe
	OpContains

	// Control flow.
	OpJump
	OpJumpForward
	OpJumpIfTrue
	OpJumpIfFalse
	OpJumpIfTrueOrPop
	OpJumpIfFalseOrPop

	// Value stack marshalling: moves a register onto the value stack ahead
	// of an instruction that consumes a run of stack slots (CALL_FUNCTION's
	// argument run, BUILD_LIST/TUPLE/SET/DICT's element run).
	OpPush // src

	// Containers.
	OpBuildList
	OpBuildTuple
	OpBuildDict
	OpBuildSet
	OpListAppend
	OpDictSetItem
	OpUnpackSequence

	// Calls and functions.
	OpMakeFunction
	OpMakeCell
	OpCall
	OpCallEx        // *args/**kwargs call form
	OpCallWithKeywords
	OpReturnValue

	// Classes.
	OpLoadBuildClass

	// Iteration and generators.
	OpGetIter
	OpForIter // dst, iterReg, exhaustedLabel
	OpYield
	OpYieldFrom

	// Exceptions.
	OpSetupExcept // pushes a (tryEnd, handlerBlock) entry
	OpPopBlock
	OpRaise
	OpReraise
	OpJumpIfNotExceptionMatch
	OpEndFinally
	OpLoadException // dst := active exception on this frame

	// Imports (glue only; module resolution is out of scope).
	OpImportName
	OpImportFrom
	OpImportStar

	OpPrint // debugging aid retained from the teacher's REPL-oriented builtins
	OpHalt
)

var opcodeNames = [...]string{
	OpNop:                    "NOP",
	OpLoadConst:              "LOAD_CONST",
	OpLoadName:               "LOAD_NAME",
	OpStoreName:              "STORE_NAME",
	OpDeleteName:             "DELETE_NAME",
	OpLoadFast:               "LOAD_FAST",
	OpStoreFast:              "STORE_FAST",
	OpLoadGlobal:             "LOAD_GLOBAL",
	OpStoreGlobal:            "STORE_GLOBAL",
	OpLoadDeref:              "LOAD_DEREF",
	OpStoreDeref:             "STORE_DEREF",
	OpLoadAttr:               "LOAD_ATTR",
	OpStoreAttr:              "STORE_ATTR",
	OpDeleteAttr:             "DELETE_ATTR",
	OpLoadMethod:             "LOAD_METHOD",
	OpBinarySubscr:           "BINARY_SUBSCR",
	OpStoreSubscr:            "STORE_SUBSCR",
	OpDeleteSubscr:           "DELETE_SUBSCR",
	OpBinaryAdd:              "BINARY_ADD",
	OpBinarySub:              "BINARY_SUB",
	OpBinaryMul:              "BINARY_MUL",
	OpBinaryTrueDiv:          "BINARY_TRUE_DIV",
	OpBinaryFloorDiv:         "BINARY_FLOOR_DIV",
	OpBinaryMod:              "BINARY_MOD",
	OpBinaryPow:              "BINARY_POW",
	OpBinaryLShift:           "BINARY_LSHIFT",
	OpBinaryRShift:           "BINARY_RSHIFT",
	OpBinaryAnd:              "BINARY_AND",
	OpBinaryOr:               "BINARY_OR",
	OpBinaryXor:              "BINARY_XOR",
	OpUnaryNeg:               "UNARY_NEG",
	OpUnaryPos:               "UNARY_POS",
	OpUnaryInvert:            "UNARY_INVERT",
	OpUnaryNot:               "UNARY_NOT",
	OpCompareEq:              "COMPARE_EQ",
	OpCompareNe:              "COMPARE_NE",
	OpCompareLt:              "COMPARE_LT",
	OpCompareLe:              "COMPARE_LE",
	OpCompareGt:              "COMPARE_GT",
	OpCompareGe:              "COMPARE_GE",
	OpContains:               "CONTAINS",
	OpPush:                   "PUSH",
	OpJump:                   "JUMP",
	OpJumpForward:            "JUMP_FORWARD",
	OpJumpIfTrue:             "JUMP_IF_TRUE",
	OpJumpIfFalse:            "JUMP_IF_FALSE",
	OpJumpIfTrueOrPop:        "JUMP_IF_TRUE_OR_POP",
	OpJumpIfFalseOrPop:       "JUMP_IF_FALSE_OR_POP",
	OpBuildList:              "BUILD_LIST",
	OpBuildTuple:             "BUILD_TUPLE",
	OpBuildDict:              "BUILD_DICT",
	OpBuildSet:               "BUILD_SET",
	OpListAppend:             "LIST_APPEND",
	OpDictSetItem:            "DICT_SET_ITEM",
	OpUnpackSequence:         "UNPACK_SEQUENCE",
	OpMakeFunction:           "MAKE_FUNCTION",
	OpMakeCell:               "MAKE_CELL",
	OpCall:                   "CALL_FUNCTION",
	OpCallEx:                 "CALL_FUNCTION_EX",
	OpCallWithKeywords:       "CALL_FUNCTION_KW",
	OpReturnValue:            "RETURN_VALUE",
	OpLoadBuildClass:         "LOAD_BUILD_CLASS",
	OpGetIter:                "GET_ITER",
	OpForIter:                "FOR_ITER",
	OpYield:                  "YIELD_VALUE",
	OpYieldFrom:              "YIELD_FROM",
	OpSetupExcept:            "SETUP_EXCEPT",
	OpPopBlock:               "POP_BLOCK",
	OpRaise:                  "RAISE",
	OpReraise:                "RERAISE",
	OpJumpIfNotExceptionMatch: "JUMP_IF_NOT_EXCEPTION_MATCH",
	OpEndFinally:             "END_FINALLY",
	OpLoadException:          "LOAD_EXCEPTION",
	OpImportName:             "IMPORT_NAME",
	OpImportFrom:             "IMPORT_FROM",
	OpImportStar:             "IMPORT_STAR",
	OpPrint:                  "PRINT",
	OpHalt:                   "HALT",
}

func (op Opcode) String() string {
	if int(op) < len(opcodeNames) && opcodeNames[op] != "" {
		return opcodeNames[op]
	}
	return "UNKNOWN"
}
