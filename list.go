package yarel

import "strings"

// ObjList is a dense ordered sequence of values with amortized-O(1) push.
type ObjList struct {
	object
	class *ObjClass
	elems []Value
}

// Elems returns the list's backing slice.
func (l *ObjList) Elems() []Value { return l.elems }

func (l *ObjList) String() string {
	b := strings.Builder{}
	b.WriteByte('[')
	for i, e := range l.elems {
		if i > 0 {
			b.WriteString(", ")
		}
		if e.AsObj() == Obj(l) {
			b.WriteString("[...]")
			continue
		}
		b.WriteString(e.String())
	}
	b.WriteByte(']')
	return b.String()
}

// TypeName returns "List".
func (l *ObjList) TypeName() string { return "List" }

func (l *ObjList) trace(mk *marker) {
	mk.markObj(l.class)
	for _, e := range l.elems {
		mk.markValue(e)
	}
}

// NewList allocates a list holding the given elements. The slice is
// retained, not copied.
func (vm *VM) NewList(elems []Value) *ObjList {
	l := &ObjList{
		object: newHeader(sizeList + sizeValue*len(elems)),
		class:  vm.core.list,
		elems:  elems,
	}
	vm.heap.adopt(l)
	return l
}

// ObjListIter walks a list front to back.
type ObjListIter struct {
	object
	class *ObjClass
	list  *ObjList
	pos   int
}

func (it *ObjListIter) String() string { return "ListIter instance" }

// TypeName returns "ListIter".
func (it *ObjListIter) TypeName() string { return "ListIter" }

func (it *ObjListIter) trace(mk *marker) {
	mk.markObj(it.class)
	mk.markObj(it.list)
}

func (it *ObjListIter) next() Value {
	if it.pos >= len(it.list.elems) {
		return Sentinel()
	}
	v := it.list.elems[it.pos]
	it.pos++
	return v
}

// List methods.

func listPush(vm *VM, args []Value) (Value, error) {
	if err := checkNumArgs(args, 1); err != nil {
		return Value{}, err
	}
	l := args[0].AsObj().(*ObjList)
	l.elems = append(l.elems, args[1])
	return args[0], nil
}

func listPop(vm *VM, args []Value) (Value, error) {
	if err := checkNumArgs(args, 0); err != nil {
		return Value{}, err
	}
	l := args[0].AsObj().(*ObjList)
	if len(l.elems) == 0 {
		return Value{}, vm.newError(IndexError, "cannot pop from empty List")
	}
	v := l.elems[len(l.elems)-1]
	l.elems = l.elems[:len(l.elems)-1]
	return v, nil
}

func listLen(vm *VM, args []Value) (Value, error) {
	if err := checkNumArgs(args, 0); err != nil {
		return Value{}, err
	}
	l := args[0].AsObj().(*ObjList)
	return Number(float64(len(l.elems))), nil
}

func listGetItem(vm *VM, args []Value) (Value, error) {
	if err := checkNumArgs(args, 1); err != nil {
		return Value{}, err
	}
	l := args[0].AsObj().(*ObjList)
	if r, ok := args[1].AsObj().(*ObjRange); ok {
		begin, end, err := r.boundedBy(vm, len(l.elems), "List")
		if err != nil {
			return Value{}, err
		}
		elems := make([]Value, end-begin)
		copy(elems, l.elems[begin:end])
		return ObjValue(vm.NewList(elems)), nil
	}
	i, err := vm.boundedIndex(args[1], len(l.elems), "List index out of bounds")
	if err != nil {
		return Value{}, err
	}
	return l.elems[i], nil
}

func listSetItem(vm *VM, args []Value) (Value, error) {
	if err := checkNumArgs(args, 2); err != nil {
		return Value{}, err
	}
	l := args[0].AsObj().(*ObjList)
	i, err := vm.boundedIndex(args[1], len(l.elems), "List index out of bounds")
	if err != nil {
		return Value{}, err
	}
	l.elems[i] = args[2]
	return Nil(), nil
}

func listIter(vm *VM, args []Value) (Value, error) {
	if err := checkNumArgs(args, 0); err != nil {
		return Value{}, err
	}
	l := args[0].AsObj().(*ObjList)
	it := &ObjListIter{object: newHeader(sizeIter), class: vm.core.listIter, list: l}
	vm.heap.adopt(it)
	return ObjValue(it), nil
}

func listIterNext(vm *VM, args []Value) (Value, error) {
	it := args[0].AsObj().(*ObjListIter)
	return it.next(), nil
}

// boundedIndex validates an integer index, allowing negative indices to
// count from the end.
func (vm *VM) boundedIndex(v Value, bound int, msg string) (int, error) {
	i, err := vm.validateInteger(v)
	if err != nil {
		return 0, err
	}
	if i < 0 {
		i += bound
	}
	if i < 0 || i >= bound {
		return 0, vm.newError(IndexError, "%s", msg)
	}
	return i, nil
}
