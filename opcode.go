package yarel

import (
	"fmt"
	"io"
)

// Opcode is a VM instruction. Operands, where present, follow the opcode
// byte: constant and slot indices are one byte, jump offsets two.
type Opcode byte

const (
	OpConstant Opcode = iota
	OpNil
	OpTrue
	OpFalse
	OpPop
	OpGetLocal
	OpSetLocal
	OpGetGlobal
	OpDefineGlobal
	OpSetGlobal
	OpGetUpvalue
	OpSetUpvalue
	OpGetField
	OpSetField
	OpGetSuper
	OpGetIndex
	OpSetIndex
	OpEqual
	OpGreater
	OpLess
	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpNot
	OpNegate
	OpJump
	OpJumpIfFalse
	OpLoop
	OpJumpIfSentinel
	OpCall
	OpInvoke
	OpSuperInvoke
	OpClosure
	OpCloseUpvalue
	OpReturn
	OpClass
	OpInherit
	OpMethod
	OpConstructor
	OpBuildString
	OpBuildList
)

var opNames = [...]string{
	OpConstant:       "CONSTANT",
	OpNil:            "NIL",
	OpTrue:           "TRUE",
	OpFalse:          "FALSE",
	OpPop:            "POP",
	OpGetLocal:       "GET_LOCAL",
	OpSetLocal:       "SET_LOCAL",
	OpGetGlobal:      "GET_GLOBAL",
	OpDefineGlobal:   "DEFINE_GLOBAL",
	OpSetGlobal:      "SET_GLOBAL",
	OpGetUpvalue:     "GET_UPVALUE",
	OpSetUpvalue:     "SET_UPVALUE",
	OpGetField:       "GET_FIELD",
	OpSetField:       "SET_FIELD",
	OpGetSuper:       "GET_SUPER",
	OpGetIndex:       "GET_INDEX",
	OpSetIndex:       "SET_INDEX",
	OpEqual:          "EQUAL",
	OpGreater:        "GREATER",
	OpLess:           "LESS",
	OpAdd:            "ADD",
	OpSubtract:       "SUBTRACT",
	OpMultiply:       "MULTIPLY",
	OpDivide:         "DIVIDE",
	OpNot:            "NOT",
	OpNegate:         "NEGATE",
	OpJump:           "JUMP",
	OpJumpIfFalse:    "JUMP_IF_FALSE",
	OpLoop:           "LOOP",
	OpJumpIfSentinel: "JUMP_IF_SENTINEL",
	OpCall:           "CALL",
	OpInvoke:         "INVOKE",
	OpSuperInvoke:    "SUPER_INVOKE",
	OpClosure:        "CLOSURE",
	OpCloseUpvalue:   "CLOSE_UPVALUE",
	OpReturn:         "RETURN",
	OpClass:          "CLASS",
	OpInherit:        "INHERIT",
	OpMethod:         "METHOD",
	OpConstructor:    "CONSTRUCTOR",
	OpBuildString:    "BUILD_STRING",
	OpBuildList:      "BUILD_LIST",
}

func (op Opcode) String() string {
	if int(op) < len(opNames) && opNames[op] != "" {
		return opNames[op]
	}
	return fmt.Sprintf("Opcode(%d)", byte(op))
}

// Disassemble writes a listing of the chunk to w, one instruction per line.
func Disassemble(w io.Writer, c *Chunk, name string) {
	fmt.Fprintf(w, "== %s ==\n", name)
	for offset := 0; offset < len(c.code); {
		offset = disassembleInstruction(w, c, offset)
	}
}

func disassembleInstruction(w io.Writer, c *Chunk, offset int) int {
	fmt.Fprintf(w, "%04d ", offset)
	if offset > 0 && c.lines[offset] == c.lines[offset-1] {
		fmt.Fprint(w, "   | ")
	} else {
		fmt.Fprintf(w, "%4d ", c.lines[offset])
	}
	op := Opcode(c.code[offset])
	switch op {
	case OpConstant, OpGetGlobal, OpDefineGlobal, OpSetGlobal, OpGetField,
		OpSetField, OpGetSuper, OpClass, OpMethod, OpConstructor:
		return constantInstruction(w, c, op, offset)
	case OpGetLocal, OpSetLocal, OpGetUpvalue, OpSetUpvalue, OpCall,
		OpBuildString, OpBuildList:
		idx := c.code[offset+1]
		fmt.Fprintf(w, "%-16v %4d\n", op, idx)
		return offset + 2
	case OpJump, OpJumpIfFalse, OpJumpIfSentinel:
		return jumpInstruction(w, c, op, 1, offset)
	case OpLoop:
		return jumpInstruction(w, c, op, -1, offset)
	case OpInvoke, OpSuperInvoke:
		name := c.code[offset+1]
		argc := c.code[offset+2]
		fmt.Fprintf(w, "%-16v (%d args) %4d '%s'\n", op, argc, name, c.constants[name])
		return offset + 3
	case OpClosure:
		idx := c.code[offset+1]
		fn := c.constants[idx].AsObj().(*ObjFunction)
		fmt.Fprintf(w, "%-16v %4d %s\n", op, idx, fn)
		offset += 2
		for range fn.upvalues {
			isLocal := c.code[offset]
			index := c.code[offset+1]
			kind := "upvalue"
			if isLocal != 0 {
				kind = "local"
			}
			fmt.Fprintf(w, "%04d    |                     %s %d\n", offset, kind, index)
			offset += 2
		}
		return offset
	default:
		fmt.Fprintf(w, "%v\n", op)
		return offset + 1
	}
}

func constantInstruction(w io.Writer, c *Chunk, op Opcode, offset int) int {
	idx := c.code[offset+1]
	fmt.Fprintf(w, "%-16v %4d '%s'\n", op, idx, c.constants[idx])
	return offset + 2
}

func jumpInstruction(w io.Writer, c *Chunk, op Opcode, sign, offset int) int {
	jump := int(c.code[offset+1])<<8 | int(c.code[offset+2])
	fmt.Fprintf(w, "%-16v %4d -> %d\n", op, offset, offset+3+sign*jump)
	return offset + 3
}
