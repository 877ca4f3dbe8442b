package yarel

import (
	"fmt"
	"time"
)

// nativeDef binds a name and arity to a host function. Arity counts user
// arguments, not the receiver; -1 accepts anything.
type nativeDef struct {
	name  string
	arity int
	fn    NativeFn
}

// defineMethods installs natives into a class's method table.
func (vm *VM) defineMethods(cls *ObjClass, defs []nativeDef) {
	vm.pushTempRoot(ObjValue(cls))
	defer vm.popTempRoot()
	for _, d := range defs {
		n := vm.newNative(d.name, d.arity, d.fn)
		cls.methods[n.name] = ObjValue(n)
	}
}

// defineStatics installs natives into a class's static table.
func (vm *VM) defineStatics(cls *ObjClass, defs []nativeDef) {
	vm.pushTempRoot(ObjValue(cls))
	defer vm.popTempRoot()
	for _, d := range defs {
		n := vm.newNative(d.name, d.arity, d.fn)
		cls.statics[n.name] = ObjValue(n)
	}
}

// initCore builds the built-in class set and installs the global natives.
// The order matters only in that Object must exist before the others copy
// its methods.
func (vm *VM) initCore() {
	vm.core.object = vm.newClass(vm.Intern("Object"))
	vm.defineMethods(vm.core.object, []nativeDef{
		{"is_a", 1, objectIsA},
		{"type", 0, objectType},
	})

	mk := func(name string) *ObjClass {
		c := vm.newClass(vm.Intern(name))
		c.inherit(vm.core.object)
		return c
	}
	vm.core.nilClass = mk("Nil")
	vm.core.boolClass = mk("Bool")
	vm.core.number = mk("Number")
	vm.core.sentinel = mk("Sentinel")
	vm.core.classClass = mk("Class")
	vm.core.function = mk("Function")
	vm.core.str = mk("String")
	vm.core.stringIter = mk("StringIter")
	vm.core.list = mk("List")
	vm.core.listIter = mk("ListIter")
	vm.core.mapClass = mk("Map")
	vm.core.mapKeyIter = mk("MapKeyIter")
	vm.core.rangeClass = mk("Range")
	vm.core.rangeIter = mk("RangeIter")
	vm.core.fiber = mk("Fiber")

	vm.core.list.ctor = vm.names.newName
	vm.defineMethods(vm.core.list, []nativeDef{
		{"new", -1, listNew},
		{"push", 1, listPush},
		{"pop", 0, listPop},
		{"len", 0, listLen},
		{"__getitem__", 1, listGetItem},
		{"__setitem__", 2, listSetItem},
		{"__iter__", 0, listIter},
	})
	vm.defineMethods(vm.core.listIter, []nativeDef{
		{"__iter__", 0, iterSelf},
		{"__next__", 0, listIterNext},
	})

	vm.core.mapClass.ctor = vm.names.newName
	vm.defineMethods(vm.core.mapClass, []nativeDef{
		{"new", 0, mapNew},
		{"get", 1, mapGet},
		{"insert", 2, mapInsert},
		{"remove", 1, mapRemove},
		{"has_key", 1, mapHasKey},
		{"clear", 0, mapClear},
		{"len", 0, mapLen},
		{"__getitem__", 1, mapGetItem},
		{"__setitem__", 2, mapSetItem},
		{"__iter__", 0, mapIter},
	})
	vm.defineMethods(vm.core.mapKeyIter, []nativeDef{
		{"__iter__", 0, iterSelf},
		{"__next__", 0, mapKeyIterNext},
	})

	vm.core.rangeClass.ctor = vm.names.newName
	vm.defineMethods(vm.core.rangeClass, []nativeDef{
		{"new", 2, rangeNew},
		{"__iter__", 0, rangeIter},
	})
	vm.defineMethods(vm.core.rangeIter, []nativeDef{
		{"__iter__", 0, iterSelf},
		{"__next__", 0, rangeIterNext},
	})

	vm.initStringClass()

	vm.defineStatics(vm.core.fiber, []nativeDef{
		{"new", 1, fiberNew},
		{"yield", -1, fiberYield},
	})
	vm.defineMethods(vm.core.fiber, []nativeDef{
		{"call", -1, fiberCall},
		{"state", 0, fiberState},
	})

	vm.initDate()
	vm.initSystem()
	vm.initCollector()

	for name, cls := range map[string]*ObjClass{
		"Object":    vm.core.object,
		"String":    vm.core.str,
		"List":      vm.core.list,
		"Map":       vm.core.mapClass,
		"Range":     vm.core.rangeClass,
		"Fiber":     vm.core.fiber,
		"Date":      vm.core.date,
		"System":    vm.core.system,
		"Collector": vm.core.collector,
	} {
		vm.globals[vm.Intern(name)] = ObjValue(cls)
	}

	vm.RegisterNative("print", 1, corePrint)
	vm.RegisterNative("clock", 0, coreClock)
	vm.RegisterNative("sentinel", 0, coreSentinel)
	vm.RegisterNative("type", 1, coreType)
}

// runPrelude interprets the embedded core script, then grafts the Iter
// combinators onto the iterable built-in classes the same way user classes
// receive them: by a method-table copy.
func (vm *VM) runPrelude() {
	fn, err := vm.Compile(coreSource)
	if err != nil {
		panic(fmt.Errorf("yarel: error compiling core prelude: %w", err))
	}
	if _, err := vm.Interpret(fn); err != nil {
		panic(fmt.Errorf("yarel: error running core prelude: %w", err))
	}
	iter, ok := vm.Global("Iter")
	if !ok {
		panic("yarel: core prelude did not define Iter")
	}
	vm.core.iter = iter.AsObj().(*ObjClass)
	for _, cls := range []*ObjClass{
		vm.core.list, vm.core.mapClass, vm.core.rangeClass, vm.core.str,
		vm.core.listIter, vm.core.mapKeyIter, vm.core.rangeIter, vm.core.stringIter,
	} {
		cls.inherit(vm.core.iter)
	}
}

// Global natives.

// corePrint writes the argument's string form and a newline to the VM's
// Stdout.
func corePrint(vm *VM, args []Value) (Value, error) {
	if err := checkNumArgs(args, 1); err != nil {
		return Value{}, err
	}
	fmt.Fprintln(vm.Stdout, args[1])
	return Nil(), nil
}

// coreClock returns the wall-clock time in seconds since the Unix epoch.
func coreClock(vm *VM, args []Value) (Value, error) {
	if err := checkNumArgs(args, 0); err != nil {
		return Value{}, err
	}
	now := time.Now()
	return Number(float64(now.UnixNano()) / 1e9), nil
}

// coreSentinel returns the iterator-exhaustion marker.
func coreSentinel(vm *VM, args []Value) (Value, error) {
	if err := checkNumArgs(args, 0); err != nil {
		return Value{}, err
	}
	return Sentinel(), nil
}

// coreType returns the class of the argument.
func coreType(vm *VM, args []Value) (Value, error) {
	if err := checkNumArgs(args, 1); err != nil {
		return Value{}, err
	}
	return ObjValue(vm.classOf(args[1])), nil
}

// objectIsA reports whether the receiver's class is, or inherits from, the
// argument class.
func objectIsA(vm *VM, args []Value) (Value, error) {
	if err := checkNumArgs(args, 1); err != nil {
		return Value{}, err
	}
	query, ok := args[1].AsObj().(*ObjClass)
	if !ok {
		return Value{}, vm.newError(TypeError, "expected a class but found '%s'", args[1])
	}
	return Bool(vm.classOf(args[0]).isSubclassOf(query)), nil
}

// objectType returns the receiver's class.
func objectType(vm *VM, args []Value) (Value, error) {
	if err := checkNumArgs(args, 0); err != nil {
		return Value{}, err
	}
	return ObjValue(vm.classOf(args[0])), nil
}

// iterSelf is the __iter__ of the built-in iterator types: an iterator is
// its own iterator.
func iterSelf(vm *VM, args []Value) (Value, error) {
	if err := checkNumArgs(args, 0); err != nil {
		return Value{}, err
	}
	return args[0], nil
}

// listNew builds a list from its arguments, so List(1, 2) and [1, 2] agree.
func listNew(vm *VM, args []Value) (Value, error) {
	elems := append([]Value{}, args[1:]...)
	return ObjValue(vm.NewList(elems)), nil
}
