package yarel

import (
	"fmt"
	"strings"
)

// ErrorKind classifies runtime errors raised by the VM.
type ErrorKind int

const (
	// TypeError indicates an operand of the wrong type.
	TypeError ErrorKind = iota
	// ArityError indicates a call with the wrong number of arguments.
	ArityError
	// AttributeError indicates a missing field or method.
	AttributeError
	// IndexError indicates an out-of-range index or missing map key.
	IndexError
	// NameError indicates an undefined global variable.
	NameError
	// ValueError indicates a value outside its operation's domain.
	ValueError
	// RootYield indicates a yield from the root fiber.
	RootYield
	// DeadFiber indicates a call on a completed, failed or running fiber.
	DeadFiber
	// OutOfMemory indicates allocator exhaustion after a full collection.
	OutOfMemory
	// StackOverflow indicates call-frame or operand-stack exhaustion.
	StackOverflow
)

func (k ErrorKind) String() string {
	switch k {
	case TypeError:
		return "TypeError"
	case ArityError:
		return "ArityError"
	case AttributeError:
		return "AttributeError"
	case IndexError:
		return "IndexError"
	case NameError:
		return "NameError"
	case ValueError:
		return "ValueError"
	case RootYield:
		return "FiberError(RootYield)"
	case DeadFiber:
		return "FiberError(DeadFiber)"
	case OutOfMemory:
		return "OutOfMemory"
	case StackOverflow:
		return "StackOverflow"
	}
	return "RuntimeError"
}

// TraceEntry is one frame of a Yarel-level traceback.
type TraceEntry struct {
	// Function is the name of the function executing in the frame, or
	// "script" for top-level code.
	Function string
	// Line is the source line of the active instruction.
	Line int
}

// RuntimeError is an error raised while executing bytecode. It unwinds the
// frames of the fiber which raised it, then propagates along the fiber's
// caller chain to the host.
type RuntimeError struct {
	// Kind is the error's classification.
	Kind ErrorKind
	// Message describes the failure.
	Message string
	// Trace holds the fiber's frames at the point of the error, innermost
	// first.
	Trace []TraceEntry
}

func (e *RuntimeError) Error() string {
	b := strings.Builder{}
	fmt.Fprintf(&b, "%v: %s", e.Kind, e.Message)
	for _, t := range e.Trace {
		fmt.Fprintf(&b, "\n[line %d] in %s", t.Line, t.Function)
	}
	return b.String()
}

// CompileError is the aggregate of diagnostics produced while compiling one
// source text. The compiler synchronizes at statement boundaries, so a
// single pass can report several messages.
type CompileError struct {
	// Messages holds one formatted diagnostic per error, in source order.
	Messages []string
}

func (e *CompileError) Error() string {
	return strings.Join(e.Messages, "\n")
}
