package yarel

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// VM is the Yarel virtual machine: a stack interpreter multiplexing
// cooperative fibers over process-wide globals, interned strings, and the
// built-in class set. A VM and everything it allocates belong to a single
// goroutine.
type VM struct {
	globals map[*ObjString]Value
	strings map[string]*ObjString
	heap    *Heap
	core    coreClasses
	names   internedNames

	// root is the main fiber; fiber is the one currently executing.
	root  *ObjFiber
	fiber *ObjFiber

	// tempRoots pins objects under construction, such as compiler
	// temporaries, so a collection triggered mid-construction can see them.
	tempRoots []Value

	// nativeBase is the stack index of the callee slot for the native call
	// in flight. Natives that transfer control between fibers use it to
	// unwind their own call.
	nativeBase int

	cfg Config

	// Stdout receives print output. Defaults to os.Stdout.
	Stdout io.Writer
}

// coreClasses holds the built-in classes.
type coreClasses struct {
	object     *ObjClass
	nilClass   *ObjClass
	boolClass  *ObjClass
	number     *ObjClass
	sentinel   *ObjClass
	str        *ObjClass
	stringIter *ObjClass
	function   *ObjClass
	classClass *ObjClass
	list       *ObjClass
	listIter   *ObjClass
	mapClass   *ObjClass
	mapKeyIter *ObjClass
	rangeClass *ObjClass
	rangeIter  *ObjClass
	fiber      *ObjClass
	iter       *ObjClass
	date       *ObjClass
	system     *ObjClass
	collector  *ObjClass
}

func (c *coreClasses) mark(mk *marker) {
	for _, cls := range c.all() {
		// Classes still under construction during VM init are nil.
		if cls != nil {
			mk.markObj(cls)
		}
	}
}

func (c *coreClasses) all() []*ObjClass {
	return []*ObjClass{
		c.object, c.nilClass, c.boolClass, c.number, c.sentinel, c.str,
		c.stringIter, c.function, c.classClass, c.list, c.listIter,
		c.mapClass, c.mapKeyIter, c.rangeClass, c.rangeIter, c.fiber,
		c.iter, c.date, c.system, c.collector,
	}
}

// internedNames caches the interned strings the VM looks up on hot paths.
type internedNames struct {
	iter    *ObjString // __iter__
	next    *ObjString // __next__
	getItem *ObjString // __getitem__
	setItem *ObjString // __setitem__
	newName *ObjString // new
	call    *ObjString // call
}

func (n *internedNames) mark(mk *marker) {
	for _, s := range []*ObjString{n.iter, n.next, n.getItem, n.setItem, n.newName, n.call} {
		if s != nil {
			mk.markObj(s)
		}
	}
}

// errFiberSwitch is the internal signal a native returns after moving
// control to another fiber. The stacks of both fibers are already arranged;
// the dispatch loop simply continues with the new current fiber.
var errFiberSwitch = errors.New("yarel: fiber switch")

// NewVM builds a runtime with the core classes installed and the prelude
// executed. A nil config selects the defaults.
func NewVM(cfg *Config) *VM {
	c := Config{}
	if cfg != nil {
		c = *cfg
	}
	c.fillDefaults()
	vm := &VM{
		globals: map[*ObjString]Value{},
		strings: map[string]*ObjString{},
		cfg:     c,
		Stdout:  os.Stdout,
	}
	vm.heap = newHeap(vm, &c)
	// Assigned one at a time so each cached name is a root before the next
	// intern can trigger a collection.
	vm.names.iter = vm.Intern("__iter__")
	vm.names.next = vm.Intern("__next__")
	vm.names.getItem = vm.Intern("__getitem__")
	vm.names.setItem = vm.Intern("__setitem__")
	vm.names.newName = vm.Intern("new")
	vm.names.call = vm.Intern("call")
	vm.initCore()
	vm.root = vm.newRootFiber()
	vm.fiber = vm.root
	vm.runPrelude()
	return vm
}

// markRoots reports every root to the collector: the fiber graph, globals,
// cached names, built-in classes, and pinned temporaries. The intern table
// is deliberately absent; its references are weak.
func (vm *VM) markRoots(mk *marker) {
	for name, v := range vm.globals {
		mk.markObj(name)
		mk.markValue(v)
	}
	if vm.root != nil {
		mk.markObj(vm.root)
	}
	if vm.fiber != nil {
		mk.markObj(vm.fiber)
	}
	for _, v := range vm.tempRoots {
		mk.markValue(v)
	}
	vm.core.mark(mk)
	vm.names.mark(mk)
}

func (vm *VM) pushTempRoot(v Value) {
	vm.tempRoots = append(vm.tempRoots, v)
}

func (vm *VM) popTempRoot() {
	vm.tempRoots = vm.tempRoots[:len(vm.tempRoots)-1]
}

func (vm *VM) popTempRoots(n int) {
	vm.tempRoots = vm.tempRoots[:len(vm.tempRoots)-n]
}

// classOf returns the built-in class of any value.
func (vm *VM) classOf(v Value) *ObjClass {
	switch v.Kind() {
	case KindNil:
		return vm.core.nilClass
	case KindBool:
		return vm.core.boolClass
	case KindNumber:
		return vm.core.number
	case KindSentinel:
		return vm.core.sentinel
	}
	switch o := v.AsObj().(type) {
	case *ObjString:
		return vm.core.str
	case *ObjStringIter:
		return o.class
	case *ObjFunction, *ObjClosure, *ObjNative, *ObjBoundMethod:
		return vm.core.function
	case *ObjClass:
		return vm.core.classClass
	case *ObjInstance:
		return o.class
	case *ObjList:
		return o.class
	case *ObjListIter:
		return o.class
	case *ObjMap:
		return o.class
	case *ObjMapKeyIter:
		return o.class
	case *ObjRange:
		return o.class
	case *ObjRangeIter:
		return o.class
	case *ObjFiber:
		return o.class
	case *ObjDate:
		return o.class
	}
	return vm.core.object
}

// newError builds a runtime error carrying the current fiber's traceback.
func (vm *VM) newError(kind ErrorKind, format string, args ...interface{}) error {
	e := &RuntimeError{Kind: kind, Message: fmt.Sprintf(format, args...)}
	vm.attachTrace(e)
	return e
}

func (vm *VM) attachTrace(e *RuntimeError) {
	if vm.fiber == nil || len(e.Trace) > 0 {
		return
	}
	f := vm.fiber
	for i := len(f.frames) - 1; i >= 0; i-- {
		fr := f.frames[i]
		fn := fr.closure.fn
		name := fn.Name()
		if name == "" {
			name = "script"
		} else {
			name += "()"
		}
		e.Trace = append(e.Trace, TraceEntry{Function: name, Line: fn.chunk.Line(fr.ip - 1)})
	}
}

// checkNumArgs validates a native's argument count. args includes the
// receiver slot, so a native expecting two user arguments checks against
// len(args) == 3.
func checkNumArgs(args []Value, expected int) error {
	if len(args)-1 != expected {
		return &RuntimeError{
			Kind: ArityError,
			Message: fmt.Sprintf("expected %d argument%s but found %d",
				expected, plural(expected), len(args)-1),
		}
	}
	return nil
}

// Host interface.

// Compile compiles source into a function ready for Interpret. On failure
// it returns a *CompileError listing every diagnostic.
func (vm *VM) Compile(source string) (*ObjFunction, error) {
	return compile(vm, strings.NewReader(source))
}

// Interpret executes a compiled script function on the root fiber and
// returns the script's result.
func (vm *VM) Interpret(fn *ObjFunction) (Value, error) {
	vm.resetRoot()
	vm.pushTempRoot(ObjValue(fn))
	closure := vm.newClosure(fn)
	vm.popTempRoot()
	f := vm.root
	f.stack = append(f.stack, ObjValue(closure))
	f.frames = append(f.frames, callFrame{closure: closure, base: 0})
	v, err := vm.run()
	if err != nil {
		vm.resetRoot()
		return Value{}, err
	}
	return v, nil
}

// DoString compiles and runs source. The label names the source in
// diagnostics.
func (vm *VM) DoString(source, label string) (Value, error) {
	fn, err := vm.Compile(source)
	if err != nil {
		return Value{}, err
	}
	return vm.Interpret(fn)
}

// RegisterNative installs a host function as a global. A negative arity
// accepts any number of arguments.
func (vm *VM) RegisterNative(name string, arity int, fn NativeFn) {
	n := vm.newNative(name, arity, fn)
	vm.globals[n.name] = ObjValue(n)
}

// Global returns the value of a global variable, if defined.
func (vm *VM) Global(name string) (Value, bool) {
	s, ok := vm.strings[name]
	if !ok {
		return Value{}, false
	}
	v, ok := vm.globals[s]
	return v, ok
}

// ToString renders a value the way print does.
func (vm *VM) ToString(v Value) string {
	return v.String()
}

// Heap exposes the VM's collector, chiefly for the Collector built-in and
// tests.
func (vm *VM) Heap() *Heap {
	return vm.heap
}

func (vm *VM) newNative(name string, arity int, fn NativeFn) *ObjNative {
	n := vm.Intern(name)
	vm.pushTempRoot(ObjValue(n))
	defer vm.popTempRoot()
	o := &ObjNative{object: newHeader(sizeNative), name: n, arity: arity, fn: fn}
	vm.heap.adopt(o)
	return o
}

func (vm *VM) newClosure(fn *ObjFunction) *ObjClosure {
	vm.pushTempRoot(ObjValue(fn))
	defer vm.popTempRoot()
	c := &ObjClosure{
		object:   newHeader(sizeClosure),
		fn:       fn,
		upvalues: make([]*ObjUpvalue, len(fn.upvalues)),
	}
	vm.heap.adopt(c)
	return c
}

// resetRoot clears the main fiber so the next script starts clean.
func (vm *VM) resetRoot() {
	f := vm.root
	f.stack = f.stack[:0]
	f.frames = f.frames[:0]
	f.openUpvalues = nil
	f.state = FiberRunning
	f.caller = nil
	vm.fiber = f
}

// Dispatch loop.

// run executes bytecode on the current fiber until the root fiber's script
// returns or an error escapes to the host.
func (vm *VM) run() (Value, error) {
	for {
		done, result, err := vm.step()
		if err != nil {
			return Value{}, vm.unwind(err)
		}
		if done {
			return result, nil
		}
	}
}

// step executes a single instruction of the current fiber. done is true
// once the root fiber's outermost frame has returned, with result holding
// the script's value.
func (vm *VM) step() (done bool, result Value, err error) {
	f := vm.fiber
	frame := &f.frames[len(f.frames)-1]
	chunk := frame.closure.fn.chunk
	code := chunk.code

	readByte := func() byte {
		b := code[frame.ip]
		frame.ip++
		return b
	}
	readShort := func() int {
		v := int(code[frame.ip])<<8 | int(code[frame.ip+1])
		frame.ip += 2
		return v
	}
	readConstant := func() Value {
		return chunk.constants[readByte()]
	}
	readString := func() *ObjString {
		return readConstant().AsObj().(*ObjString)
	}

	switch op := Opcode(readByte()); op {
	case OpConstant:
		vm.push(readConstant())

	case OpNil:
		vm.push(Nil())

	case OpTrue:
		vm.push(Bool(true))

	case OpFalse:
		vm.push(Bool(false))

	case OpPop:
		vm.pop()

	case OpGetLocal:
		slot := int(readByte())
		vm.push(f.stack[frame.base+slot])

	case OpSetLocal:
		slot := int(readByte())
		f.stack[frame.base+slot] = vm.peek(0)

	case OpGetGlobal:
		name := readString()
		v, ok := vm.globals[name]
		if !ok {
			return false, Value{}, vm.newError(NameError, "undefined variable '%s'", name)
		}
		vm.push(v)

	case OpDefineGlobal:
		name := readString()
		vm.globals[name] = vm.peek(0)
		vm.pop()

	case OpSetGlobal:
		name := readString()
		if _, ok := vm.globals[name]; !ok {
			return false, Value{}, vm.newError(NameError, "undefined variable '%s'", name)
		}
		vm.globals[name] = vm.peek(0)

	case OpGetUpvalue:
		idx := int(readByte())
		vm.push(frame.closure.upvalues[idx].get())

	case OpSetUpvalue:
		idx := int(readByte())
		frame.closure.upvalues[idx].set(vm.peek(0))

	case OpGetField:
		name := readString()
		if err := vm.getField(name); err != nil {
			return false, Value{}, err
		}

	case OpSetField:
		name := readString()
		inst, ok := vm.peek(1).AsObj().(*ObjInstance)
		if !ok {
			return false, Value{}, vm.newError(TypeError, "only instances have fields")
		}
		v := vm.peek(0)
		inst.fields[name] = v
		vm.popN(2)
		vm.push(v)

	case OpGetSuper:
		name := readString()
		super, ok := vm.pop().AsObj().(*ObjClass)
		if !ok {
			return false, Value{}, vm.newError(TypeError, "superclass must be a class")
		}
		if err := vm.bindMethod(super, name); err != nil {
			return false, Value{}, err
		}

	case OpGetIndex:
		if err := vm.getIndex(); err != nil {
			return false, Value{}, err
		}

	case OpSetIndex:
		if err := vm.invoke(vm.names.setItem, 2); err != nil {
			return false, Value{}, err
		}

	case OpEqual:
		b := vm.pop()
		a := vm.pop()
		vm.push(Bool(a.Equal(b)))

	case OpGreater:
		if err := vm.binaryCompare(func(a, b float64) bool { return a > b }); err != nil {
			return false, Value{}, err
		}

	case OpLess:
		if err := vm.binaryCompare(func(a, b float64) bool { return a < b }); err != nil {
			return false, Value{}, err
		}

	case OpAdd:
		if err := vm.add(); err != nil {
			return false, Value{}, err
		}

	case OpSubtract:
		if err := vm.binaryNumber(func(a, b float64) float64 { return a - b }); err != nil {
			return false, Value{}, err
		}

	case OpMultiply:
		if err := vm.binaryNumber(func(a, b float64) float64 { return a * b }); err != nil {
			return false, Value{}, err
		}

	case OpDivide:
		if err := vm.binaryNumber(func(a, b float64) float64 { return a / b }); err != nil {
			return false, Value{}, err
		}

	case OpNot:
		v := vm.pop()
		vm.push(Bool(!v.Truthy()))

	case OpNegate:
		v := vm.pop()
		if !v.IsNumber() {
			return false, Value{}, vm.newError(TypeError, "unary operand must be a number")
		}
		vm.push(Number(-v.AsNumber()))

	case OpJump:
		offset := readShort()
		frame.ip += offset

	case OpJumpIfFalse:
		offset := readShort()
		if !vm.peek(0).Truthy() {
			frame.ip += offset
		}

	case OpLoop:
		offset := readShort()
		frame.ip -= offset

	case OpJumpIfSentinel:
		offset := readShort()
		if vm.peek(0).IsSentinel() {
			vm.pop()
			frame.ip += offset
		}

	case OpCall:
		argc := int(readByte())
		if err := vm.callValue(vm.peek(argc), argc); err != nil {
			return false, Value{}, err
		}

	case OpInvoke:
		name := readString()
		argc := int(readByte())
		if err := vm.invoke(name, argc); err != nil {
			return false, Value{}, err
		}

	case OpSuperInvoke:
		name := readString()
		argc := int(readByte())
		super, ok := vm.pop().AsObj().(*ObjClass)
		if !ok {
			return false, Value{}, vm.newError(TypeError, "superclass must be a class")
		}
		if err := vm.invokeFromClass(super, name, argc); err != nil {
			return false, Value{}, err
		}

	case OpClosure:
		fn := readConstant().AsObj().(*ObjFunction)
		closure := vm.newClosure(fn)
		vm.push(ObjValue(closure))
		for i := range fn.upvalues {
			isLocal := readByte() != 0
			index := int(readByte())
			if isLocal {
				closure.upvalues[i] = f.captureUpvalue(vm, frame.base+index)
			} else {
				closure.upvalues[i] = frame.closure.upvalues[index]
			}
		}

	case OpCloseUpvalue:
		f.closeUpvalues(len(f.stack) - 1)
		vm.pop()

	case OpReturn:
		result := vm.pop()
		f.closeUpvalues(frame.base)
		f.frames = f.frames[:len(f.frames)-1]
		if len(f.frames) == 0 {
			f.stack = f.stack[:0]
			caller := f.caller
			if caller == nil {
				return true, result, nil
			}
			f.state = FiberCompleted
			f.caller = nil
			caller.state = FiberRunning
			vm.fiber = caller
			caller.stack = append(caller.stack, result)
			return false, Value{}, nil
		}
		f.stack = f.stack[:frame.base]
		vm.push(result)

	case OpClass:
		name := readString()
		class := vm.newClass(name)
		vm.push(ObjValue(class))
		class.inherit(vm.core.object)

	case OpInherit:
		super, ok := vm.peek(1).AsObj().(*ObjClass)
		if !ok {
			return false, Value{}, vm.newError(TypeError, "superclass must be a class")
		}
		sub := vm.peek(0).AsObj().(*ObjClass)
		// The subclass has no methods of its own yet, only the base copies
		// taken at CLASS; the parent's table supersedes those wholesale so
		// its overrides of base methods carry over.
		sub.methods = map[*ObjString]Value{}
		sub.inherit(super)
		vm.pop()

	case OpMethod:
		name := readString()
		method := vm.peek(0)
		class := vm.peek(1).AsObj().(*ObjClass)
		class.methods[name] = method
		vm.pop()

	case OpConstructor:
		name := readString()
		class := vm.peek(0).AsObj().(*ObjClass)
		class.ctor = name

	case OpBuildString:
		n := int(readByte())
		b := strings.Builder{}
		for i := n - 1; i >= 0; i-- {
			b.WriteString(vm.peek(i).String())
		}
		s := vm.StringValue(b.String())
		vm.popN(n)
		vm.push(s)

	case OpBuildList:
		n := int(readByte())
		elems := make([]Value, n)
		copy(elems, f.stack[len(f.stack)-n:])
		l := vm.NewList(elems)
		vm.popN(n)
		vm.push(ObjValue(l))

	default:
		return false, Value{}, vm.newError(ValueError, "unknown opcode %d", op)
	}
	return false, Value{}, nil
}

// unwind handles a runtime error: the erring fiber's frames are discarded,
// the fiber is marked failed, and the error propagates along the caller
// chain. With no user-level handler in the language, it always surfaces to
// the host.
func (vm *VM) unwind(err error) error {
	if re, ok := err.(*RuntimeError); ok {
		vm.attachTrace(re)
	}
	for {
		f := vm.fiber
		f.frames = f.frames[:0]
		f.stack = f.stack[:0]
		f.openUpvalues = nil
		caller := f.caller
		f.caller = nil
		if caller == nil {
			return err
		}
		f.state = FiberFailed
		vm.fiber = caller
	}
}

// Stack helpers. All operate on the current fiber.

func (vm *VM) push(v Value) {
	vm.fiber.stack = append(vm.fiber.stack, v)
}

func (vm *VM) pop() Value {
	f := vm.fiber
	v := f.stack[len(f.stack)-1]
	f.stack = f.stack[:len(f.stack)-1]
	return v
}

func (vm *VM) popN(n int) {
	f := vm.fiber
	f.stack = f.stack[:len(f.stack)-n]
}

func (vm *VM) peek(depth int) Value {
	f := vm.fiber
	return f.stack[len(f.stack)-depth-1]
}

func (vm *VM) setPeek(depth int, v Value) {
	f := vm.fiber
	f.stack[len(f.stack)-depth-1] = v
}

// Calls.

// callValue calls a value with argc arguments sitting above it on the
// stack.
func (vm *VM) callValue(callee Value, argc int) error {
	switch o := callee.AsObj().(type) {
	case *ObjClosure:
		return vm.callClosure(o, argc)
	case *ObjBoundMethod:
		vm.setPeek(argc, o.receiver)
		switch m := o.method.(type) {
		case *ObjClosure:
			return vm.callClosure(m, argc)
		case *ObjNative:
			return vm.callNative(m, argc)
		}
	case *ObjClass:
		return vm.construct(o, argc)
	case *ObjNative:
		return vm.callNative(o, argc)
	}
	return vm.newError(TypeError, "can only call functions and classes, not '%s'", callee)
}

// callClosure pushes a frame for a closure. The callee slot holds the
// receiver for methods, so a method's declared receiver parameter is not
// counted against argc.
func (vm *VM) callClosure(closure *ObjClosure, argc int) error {
	fn := closure.fn
	want := fn.arity
	if fn.method {
		want--
	}
	if argc != want {
		return vm.newError(ArityError, "%s expects %d argument%s but found %d",
			callableName(fn), want, plural(want), argc)
	}
	f := vm.fiber
	if len(f.frames) >= vm.cfg.FramesMax {
		return vm.newError(StackOverflow, "call stack exhausted")
	}
	if len(f.stack) >= vm.cfg.StackMax {
		return vm.newError(StackOverflow, "operand stack exhausted")
	}
	f.frames = append(f.frames, callFrame{
		closure: closure,
		base:    len(f.stack) - argc - 1,
	})
	return nil
}

func callableName(fn *ObjFunction) string {
	if fn.Name() == "" {
		return "function"
	}
	return "'" + fn.Name() + "'"
}

// callNative runs a host function over the argument window and replaces
// the window with its result. A native that switched fibers has already
// arranged both stacks, so the window is left alone.
func (vm *VM) callNative(native *ObjNative, argc int) error {
	if native.arity >= 0 && argc != native.arity {
		return vm.newError(ArityError, "'%s' expects %d argument%s but found %d",
			native.name, native.arity, plural(native.arity), argc)
	}
	f := vm.fiber
	base := len(f.stack) - argc - 1
	vm.nativeBase = base
	res, err := native.fn(vm, f.stack[base:])
	if err == errFiberSwitch {
		return nil
	}
	if err != nil {
		if re, ok := err.(*RuntimeError); ok {
			vm.attachTrace(re)
		}
		return err
	}
	f.stack = f.stack[:base]
	vm.push(res)
	return nil
}

// construct creates an instance of a class and dispatches its nominated
// constructor, if any. Without one the class is callable with no arguments
// and yields a bare instance.
func (vm *VM) construct(class *ObjClass, argc int) error {
	if class.ctor != nil {
		if m, ok := class.lookupMethod(class.ctor); ok {
			inst := vm.newInstance(class)
			vm.setPeek(argc, ObjValue(inst))
			switch o := m.AsObj().(type) {
			case *ObjClosure:
				return vm.callClosure(o, argc)
			case *ObjNative:
				return vm.callNative(o, argc)
			}
			return vm.newError(TypeError, "constructor of '%s' is not callable", class.Name())
		}
	}
	if argc != 0 {
		return vm.newError(ArityError, "'%s' expects 0 arguments but found %d", class.Name(), argc)
	}
	inst := vm.newInstance(class)
	vm.setPeek(0, ObjValue(inst))
	return nil
}

// invoke performs the fused method lookup and call. On instances a field
// shadows a method of the same name, which keeps property access and
// invocation consistent.
func (vm *VM) invoke(name *ObjString, argc int) error {
	receiver := vm.peek(argc)
	switch o := receiver.AsObj().(type) {
	case *ObjInstance:
		if field, ok := o.fields[name]; ok {
			vm.setPeek(argc, field)
			return vm.callValue(field, argc)
		}
		return vm.invokeFromClass(o.class, name, argc)
	case *ObjClass:
		if s, ok := o.statics[name]; ok {
			switch m := s.AsObj().(type) {
			case *ObjClosure:
				return vm.callClosure(m, argc)
			case *ObjNative:
				return vm.callNative(m, argc)
			}
			return vm.callValue(s, argc)
		}
		if (o.ctor != nil && name == o.ctor) || name == vm.names.newName {
			return vm.construct(o, argc)
		}
		return vm.newError(AttributeError, "class '%s' has no method '%s'", o.Name(), name)
	}
	return vm.invokeFromClass(vm.classOf(receiver), name, argc)
}

// invokeFromClass dispatches a method of a specific class with the receiver
// already in the callee slot. Super calls land here with the statically
// recorded parent class.
func (vm *VM) invokeFromClass(class *ObjClass, name *ObjString, argc int) error {
	m, ok := class.lookupMethod(name)
	if !ok {
		return vm.newError(AttributeError, "'%s' object has no method '%s'",
			class.Name(), name)
	}
	switch o := m.AsObj().(type) {
	case *ObjClosure:
		return vm.callClosure(o, argc)
	case *ObjNative:
		return vm.callNative(o, argc)
	}
	return vm.callValue(m, argc)
}

// getField replaces the receiver on top of the stack with a field value or
// a method bound to it.
func (vm *VM) getField(name *ObjString) error {
	receiver := vm.peek(0)
	switch o := receiver.AsObj().(type) {
	case *ObjInstance:
		if field, ok := o.fields[name]; ok {
			vm.pop()
			vm.push(field)
			return nil
		}
		return vm.bindMethod(o.class, name)
	case *ObjClass:
		if s, ok := o.statics[name]; ok {
			if m := s.AsObj(); m != nil {
				switch m := m.(type) {
				case *ObjClosure:
					bound := vm.newBoundMethod(receiver, m)
					vm.pop()
					vm.push(ObjValue(bound))
					return nil
				case *ObjNative:
					bound := vm.newBoundMethod(receiver, m)
					vm.pop()
					vm.push(ObjValue(bound))
					return nil
				}
			}
			vm.pop()
			vm.push(s)
			return nil
		}
		return vm.newError(AttributeError, "class '%s' has no attribute '%s'", o.Name(), name)
	}
	return vm.bindMethod(vm.classOf(receiver), name)
}

// bindMethod replaces the receiver on top of the stack with a bound method
// looked up on the given class.
func (vm *VM) bindMethod(class *ObjClass, name *ObjString) error {
	m, ok := class.lookupMethod(name)
	if !ok {
		return vm.newError(AttributeError, "'%s' object has no attribute '%s'",
			class.Name(), name)
	}
	method := m.AsObj()
	switch method.(type) {
	case *ObjClosure, *ObjNative:
		bound := vm.newBoundMethod(vm.peek(0), method)
		vm.pop()
		vm.push(ObjValue(bound))
		return nil
	}
	vm.pop()
	vm.push(m)
	return nil
}

// getIndex handles OpGetIndex with fast paths for lists and maps, falling
// back to __getitem__ dispatch for everything else.
func (vm *VM) getIndex() error {
	receiver := vm.peek(1)
	switch o := receiver.AsObj().(type) {
	case *ObjList:
		if vm.peek(0).IsNumber() {
			i, err := vm.boundedIndex(vm.peek(0), len(o.elems), "List index out of bounds")
			if err != nil {
				return err
			}
			vm.popN(2)
			vm.push(o.elems[i])
			return nil
		}
	case *ObjMap:
		key := vm.peek(0)
		if err := vm.validateMapKey(key); err != nil {
			return err
		}
		v, ok := o.Get(key)
		if !ok {
			return vm.newError(IndexError, "Map key '%s' not found", key)
		}
		vm.popN(2)
		vm.push(v)
		return nil
	}
	return vm.invoke(vm.names.getItem, 1)
}

// Arithmetic helpers.

func (vm *VM) add() error {
	a := vm.peek(1)
	b := vm.peek(0)
	if a.IsNumber() && b.IsNumber() {
		vm.popN(2)
		vm.push(Number(a.AsNumber() + b.AsNumber()))
		return nil
	}
	as, aok := a.asString()
	bs, bok := b.asString()
	if aok && bok {
		s := vm.StringValue(as.s + bs.s)
		vm.popN(2)
		vm.push(s)
		return nil
	}
	return vm.newError(TypeError, "binary '+' operands must be two numbers or two strings")
}

func (vm *VM) binaryNumber(op func(a, b float64) float64) error {
	b := vm.pop()
	a := vm.pop()
	if !a.IsNumber() || !b.IsNumber() {
		return vm.newError(TypeError, "binary operands must both be numbers")
	}
	vm.push(Number(op(a.AsNumber(), b.AsNumber())))
	return nil
}

func (vm *VM) binaryCompare(op func(a, b float64) bool) error {
	b := vm.pop()
	a := vm.pop()
	if !a.IsNumber() || !b.IsNumber() {
		return vm.newError(TypeError, "comparison operands must both be numbers")
	}
	vm.push(Bool(op(a.AsNumber(), b.AsNumber())))
	return nil
}
