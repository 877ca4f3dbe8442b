package yarel

// ObjFunction is a compiled function: a bytecode chunk, an arity, and the
// descriptors of the upvalues its closures capture. Functions are immutable
// after compilation.
type ObjFunction struct {
	object
	name     *ObjString
	arity    int
	upvalues []upvalueDesc
	chunk    *Chunk
	// method marks functions declared as methods, whose first parameter is
	// the receiver.
	method bool
}

// upvalueDesc describes one captured variable: the index of a local in the
// enclosing function if isLocal, otherwise the index of an upvalue of the
// enclosing function.
type upvalueDesc struct {
	index   int
	isLocal bool
}

// Name returns the function's declared name, or "" for scripts and lambdas.
func (f *ObjFunction) Name() string {
	if f.name == nil {
		return ""
	}
	return f.name.String()
}

// Arity returns the number of parameters, including the receiver for
// methods.
func (f *ObjFunction) Arity() int { return f.arity }

// Chunk returns the function's bytecode.
func (f *ObjFunction) Chunk() *Chunk { return f.chunk }

func (f *ObjFunction) String() string {
	if f.Name() == "" {
		return "<script>"
	}
	return "<fn " + f.Name() + ">"
}

// TypeName returns "Function".
func (f *ObjFunction) TypeName() string { return "Function" }

func (f *ObjFunction) trace(mk *marker) {
	if f.name != nil {
		mk.markObj(f.name)
	}
	for _, c := range f.chunk.constants {
		mk.markValue(c)
	}
}

// ObjClosure is the callable unit at runtime: a function plus the upvalues
// captured for one instantiation.
type ObjClosure struct {
	object
	fn       *ObjFunction
	upvalues []*ObjUpvalue
}

func (c *ObjClosure) String() string { return c.fn.String() }

// TypeName returns "Function".
func (c *ObjClosure) TypeName() string { return "Function" }

func (c *ObjClosure) trace(mk *marker) {
	mk.markObj(c.fn)
	for _, uv := range c.upvalues {
		if uv != nil {
			mk.markObj(uv)
		}
	}
}

// ObjUpvalue is the indirection to a captured variable. While open it
// points at a live slot of the owning fiber's stack; closing it copies the
// slot's value inward. Open upvalues are threaded in a per-fiber list
// ordered by descending stack index.
type ObjUpvalue struct {
	object
	fiber  *ObjFiber
	slot   int
	open   bool
	closed Value
	next   *ObjUpvalue
}

func (uv *ObjUpvalue) get() Value {
	if uv.open {
		return uv.fiber.stack[uv.slot]
	}
	return uv.closed
}

func (uv *ObjUpvalue) set(v Value) {
	if uv.open {
		uv.fiber.stack[uv.slot] = v
		return
	}
	uv.closed = v
}

func (uv *ObjUpvalue) close() {
	if uv.open {
		uv.closed = uv.fiber.stack[uv.slot]
		uv.open = false
		uv.fiber = nil
		uv.next = nil
	}
}

func (uv *ObjUpvalue) String() string { return "<upvalue>" }

// TypeName returns "Upvalue".
func (uv *ObjUpvalue) TypeName() string { return "Upvalue" }

func (uv *ObjUpvalue) trace(mk *marker) {
	if uv.open {
		// The slot belongs to the owning fiber's stack, which the fiber
		// itself traces.
		mk.markObj(uv.fiber)
		return
	}
	mk.markValue(uv.closed)
}

// NativeFn is a host-provided function. The first element of args is the
// callee or receiver, mirroring its position on the operand stack; user
// arguments follow.
type NativeFn func(vm *VM, args []Value) (Value, error)

// ObjNative wraps a host function for the VM. A negative arity accepts any
// number of arguments.
type ObjNative struct {
	object
	name  *ObjString
	arity int
	fn    NativeFn
}

func (n *ObjNative) String() string { return "<native fn>" }

// TypeName returns "Native".
func (n *ObjNative) TypeName() string { return "Native" }

func (n *ObjNative) trace(mk *marker) {
	if n.name != nil {
		mk.markObj(n.name)
	}
}

// newFunction allocates an empty function shell for the compiler to fill.
func (vm *VM) newFunction(name *ObjString, method bool) *ObjFunction {
	if name != nil {
		vm.pushTempRoot(ObjValue(name))
		defer vm.popTempRoot()
	}
	f := &ObjFunction{
		object: newHeader(sizeFunction),
		name:   name,
		chunk:  &Chunk{},
		method: method,
	}
	vm.heap.adopt(f)
	return f
}
