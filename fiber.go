package yarel

// FiberState is the lifecycle state of a fiber.
type FiberState int

const (
	// FiberFresh is a fiber that has never run.
	FiberFresh FiberState = iota
	// FiberRunning is the fiber the VM is currently executing, or a fiber
	// partway down the caller chain of the running one.
	FiberRunning
	// FiberSuspended is a fiber parked at a yield point.
	FiberSuspended
	// FiberCompleted is a fiber whose top-level closure returned.
	FiberCompleted
	// FiberFailed is a fiber terminated by an unhandled runtime error.
	FiberFailed
)

func (s FiberState) String() string {
	switch s {
	case FiberFresh:
		return "fresh"
	case FiberRunning:
		return "running"
	case FiberSuspended:
		return "suspended"
	case FiberCompleted:
		return "completed"
	case FiberFailed:
		return "failed"
	}
	return "invalid"
}

// ObjFiber is a first-class cooperative coroutine. Each fiber owns its own
// operand stack, call-frame stack, and open-upvalue list, so nested calls
// never share slots with the caller. The VM multiplexes fibers by swapping
// its current-fiber pointer; there are no OS threads involved.
type ObjFiber struct {
	object
	class   *ObjClass
	state   FiberState
	closure *ObjClosure

	stack  []Value
	frames []callFrame
	// openUpvalues heads the fiber's open-upvalue list, ordered by
	// descending stack index.
	openUpvalues *ObjUpvalue

	// caller is the fiber that resumed this one, while this fiber is
	// running. Yield transfers control exactly one level outward.
	caller *ObjFiber
}

// callFrame is one active call: the closure being executed, its
// instruction pointer, and the base of its slots in the operand stack.
type callFrame struct {
	closure *ObjClosure
	ip      int
	base    int
}

func (f *ObjFiber) String() string { return "Fiber(" + f.state.String() + ")" }

// TypeName returns "Fiber".
func (f *ObjFiber) TypeName() string { return "Fiber" }

// State returns the fiber's lifecycle state.
func (f *ObjFiber) State() FiberState { return f.state }

func (f *ObjFiber) trace(mk *marker) {
	mk.markObj(f.class)
	if f.closure != nil {
		mk.markObj(f.closure)
	}
	for _, v := range f.stack {
		mk.markValue(v)
	}
	for i := range f.frames {
		mk.markObj(f.frames[i].closure)
	}
	for uv := f.openUpvalues; uv != nil; uv = uv.next {
		mk.markObj(uv)
	}
	if f.caller != nil {
		mk.markObj(f.caller)
	}
}

// NewFiber wraps a closure in a fresh fiber.
func (vm *VM) NewFiber(closure *ObjClosure) *ObjFiber {
	vm.pushTempRoot(ObjValue(closure))
	defer vm.popTempRoot()
	f := &ObjFiber{
		object:  newHeader(sizeFiber),
		class:   vm.core.fiber,
		closure: closure,
	}
	vm.heap.adopt(f)
	return f
}

// newRootFiber builds the main fiber, which runs host-supplied functions
// directly and has no initial closure until one is interpreted.
func (vm *VM) newRootFiber() *ObjFiber {
	f := &ObjFiber{object: newHeader(sizeFiber), class: vm.core.fiber}
	vm.heap.adopt(f)
	f.state = FiberRunning
	return f
}

// captureUpvalue finds or creates an open upvalue for a stack slot of the
// fiber, keeping the open list sorted by descending slot.
func (f *ObjFiber) captureUpvalue(vm *VM, slot int) *ObjUpvalue {
	var prev *ObjUpvalue
	uv := f.openUpvalues
	for uv != nil && uv.slot > slot {
		prev = uv
		uv = uv.next
	}
	if uv != nil && uv.slot == slot {
		return uv
	}
	created := &ObjUpvalue{object: newHeader(sizeUpvalue), fiber: f, slot: slot, open: true, next: uv}
	vm.heap.adopt(created)
	if prev == nil {
		f.openUpvalues = created
	} else {
		prev.next = created
	}
	return created
}

// closeUpvalues closes every open upvalue at or above the given stack slot.
func (f *ObjFiber) closeUpvalues(from int) {
	for f.openUpvalues != nil && f.openUpvalues.slot >= from {
		uv := f.openUpvalues
		f.openUpvalues = uv.next
		uv.close()
	}
}

// Fiber built-ins.

// fiberNew is the Fiber.new static method. It wraps a closure in a fresh
// fiber without running it.
func fiberNew(vm *VM, args []Value) (Value, error) {
	if err := checkNumArgs(args, 1); err != nil {
		return Value{}, err
	}
	closure, ok := args[1].AsObj().(*ObjClosure)
	if !ok {
		return Value{}, vm.newError(TypeError, "Fiber.new expects a function but found '%s'", args[1])
	}
	return ObjValue(vm.NewFiber(closure)), nil
}

// fiberCall resumes a fiber. A fresh fiber starts its closure with the
// given arguments; a suspended fiber continues from its yield point with
// the first argument (or nil) as the yield's result. The caller blocks
// until the fiber yields, completes, or fails.
func fiberCall(vm *VM, args []Value) (Value, error) {
	fiber, ok := args[0].AsObj().(*ObjFiber)
	if !ok {
		return Value{}, vm.newError(TypeError, "call expects a Fiber receiver")
	}
	cur := vm.fiber
	switch fiber.state {
	case FiberFresh:
		arity := fiber.closure.fn.arity
		if len(args)-1 != arity {
			return Value{}, vm.newError(ArityError, "fiber expects %d argument%s but found %d",
				arity, plural(arity), len(args)-1)
		}
		// The fiber's stack follows the plain call convention: the closure
		// occupies the callee slot, arguments follow.
		fiber.stack = append(fiber.stack, ObjValue(fiber.closure))
		fiber.stack = append(fiber.stack, args[1:]...)
		fiber.frames = append(fiber.frames, callFrame{closure: fiber.closure, base: 0})
	case FiberSuspended:
		if len(args)-1 > 1 {
			return Value{}, vm.newError(ArityError, "resuming a fiber takes at most one value")
		}
		resume := Nil()
		if len(args) == 2 {
			resume = args[1]
		}
		fiber.stack = append(fiber.stack, resume)
	case FiberRunning:
		return Value{}, vm.newError(DeadFiber, "fiber is already running")
	default:
		return Value{}, vm.newError(DeadFiber, "cannot call a %s fiber", fiber.state)
	}
	// Pop the pending call from the caller before control moves.
	cur.stack = cur.stack[:vm.nativeBase]
	fiber.state = FiberRunning
	fiber.caller = cur
	vm.fiber = fiber
	return Value{}, errFiberSwitch
}

// fiberYield is the Fiber.yield static method. It suspends the running
// fiber, delivering the argument (or nil) to the caller as the result of
// its pending call.
func fiberYield(vm *VM, args []Value) (Value, error) {
	if len(args)-1 > 1 {
		return Value{}, vm.newError(ArityError, "yield takes at most one value")
	}
	cur := vm.fiber
	if cur.caller == nil {
		return Value{}, vm.newError(RootYield, "cannot yield from the root fiber")
	}
	v := Nil()
	if len(args) == 2 {
		v = args[1]
	}
	// Pop the pending yield call; the resume value replaces it when the
	// fiber is next called.
	cur.stack = cur.stack[:vm.nativeBase]
	caller := cur.caller
	cur.state = FiberSuspended
	cur.caller = nil
	caller.state = FiberRunning
	vm.fiber = caller
	caller.stack = append(caller.stack, v)
	return Value{}, errFiberSwitch
}

// fiberState reports the fiber's state as a string.
func fiberState(vm *VM, args []Value) (Value, error) {
	if err := checkNumArgs(args, 0); err != nil {
		return Value{}, err
	}
	fiber := args[0].AsObj().(*ObjFiber)
	return vm.StringValue(fiber.state.String()), nil
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
