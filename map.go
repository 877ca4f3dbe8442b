package yarel

import "strings"

// mapEntry is one key-value pair of a map.
type mapEntry struct {
	key Value
	val Value
}

// ObjMap maps hashable values to values. Iteration observes insertion
// order: entries live in a slice, with a lookup index on the side.
type ObjMap struct {
	object
	class   *ObjClass
	entries []mapEntry
	index   map[Value]int
}

func (m *ObjMap) String() string {
	b := strings.Builder{}
	b.WriteByte('{')
	for i, e := range m.entries {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(e.key.String())
		b.WriteString(": ")
		if e.val.AsObj() == Obj(m) {
			b.WriteString("{...}")
			continue
		}
		b.WriteString(e.val.String())
	}
	b.WriteByte('}')
	return b.String()
}

// TypeName returns "Map".
func (m *ObjMap) TypeName() string { return "Map" }

func (m *ObjMap) trace(mk *marker) {
	mk.markObj(m.class)
	for _, e := range m.entries {
		mk.markValue(e.key)
		mk.markValue(e.val)
	}
}

// NewMap allocates an empty map.
func (vm *VM) NewMap() *ObjMap {
	m := &ObjMap{
		object: newHeader(sizeMap),
		class:  vm.core.mapClass,
		index:  map[Value]int{},
	}
	vm.heap.adopt(m)
	return m
}

// Get returns the value for key, if present.
func (m *ObjMap) Get(key Value) (Value, bool) {
	i, ok := m.index[key]
	if !ok {
		return Value{}, false
	}
	return m.entries[i].val, true
}

// Set inserts or updates a key, preserving the original insertion position
// on update. It returns the previous value, if any.
func (m *ObjMap) Set(key, val Value) (Value, bool) {
	if i, ok := m.index[key]; ok {
		prev := m.entries[i].val
		m.entries[i].val = val
		return prev, true
	}
	m.index[key] = len(m.entries)
	m.entries = append(m.entries, mapEntry{key, val})
	return Value{}, false
}

// Delete removes a key, returning the removed value, if any.
func (m *ObjMap) Delete(key Value) (Value, bool) {
	i, ok := m.index[key]
	if !ok {
		return Value{}, false
	}
	prev := m.entries[i].val
	m.entries = append(m.entries[:i], m.entries[i+1:]...)
	delete(m.index, key)
	for j := i; j < len(m.entries); j++ {
		m.index[m.entries[j].key] = j
	}
	return prev, true
}

// Len returns the number of entries.
func (m *ObjMap) Len() int { return len(m.entries) }

// hashable reports whether a value may be used as a map key. Non-object
// values, strings, ranges and classes may; every other heap object,
// including the mutable containers, may not.
func hashable(v Value) bool {
	switch v.Kind() {
	case KindObj:
		switch v.AsObj().(type) {
		case *ObjString, *ObjRange, *ObjClass:
			return true
		}
		return false
	}
	return true
}

func (vm *VM) validateMapKey(v Value) error {
	if !hashable(v) {
		return vm.newError(ValueError, "cannot use unhashable value '%s' as Map key", v)
	}
	return nil
}

// Map methods.

func mapNew(vm *VM, args []Value) (Value, error) {
	return ObjValue(vm.NewMap()), nil
}

func mapGet(vm *VM, args []Value) (Value, error) {
	if err := checkNumArgs(args, 1); err != nil {
		return Value{}, err
	}
	m := args[0].AsObj().(*ObjMap)
	if err := vm.validateMapKey(args[1]); err != nil {
		return Value{}, err
	}
	v, _ := m.Get(args[1])
	return v, nil
}

func mapGetItem(vm *VM, args []Value) (Value, error) {
	if err := checkNumArgs(args, 1); err != nil {
		return Value{}, err
	}
	m := args[0].AsObj().(*ObjMap)
	if err := vm.validateMapKey(args[1]); err != nil {
		return Value{}, err
	}
	v, ok := m.Get(args[1])
	if !ok {
		return Value{}, vm.newError(IndexError, "Map key '%s' not found", args[1])
	}
	return v, nil
}

func mapSetItem(vm *VM, args []Value) (Value, error) {
	if err := checkNumArgs(args, 2); err != nil {
		return Value{}, err
	}
	m := args[0].AsObj().(*ObjMap)
	if err := vm.validateMapKey(args[1]); err != nil {
		return Value{}, err
	}
	m.Set(args[1], args[2])
	return Nil(), nil
}

func mapInsert(vm *VM, args []Value) (Value, error) {
	if err := checkNumArgs(args, 2); err != nil {
		return Value{}, err
	}
	m := args[0].AsObj().(*ObjMap)
	if err := vm.validateMapKey(args[1]); err != nil {
		return Value{}, err
	}
	prev, _ := m.Set(args[1], args[2])
	return prev, nil
}

func mapRemove(vm *VM, args []Value) (Value, error) {
	if err := checkNumArgs(args, 1); err != nil {
		return Value{}, err
	}
	m := args[0].AsObj().(*ObjMap)
	if err := vm.validateMapKey(args[1]); err != nil {
		return Value{}, err
	}
	prev, _ := m.Delete(args[1])
	return prev, nil
}

func mapHasKey(vm *VM, args []Value) (Value, error) {
	if err := checkNumArgs(args, 1); err != nil {
		return Value{}, err
	}
	m := args[0].AsObj().(*ObjMap)
	if err := vm.validateMapKey(args[1]); err != nil {
		return Value{}, err
	}
	_, ok := m.Get(args[1])
	return Bool(ok), nil
}

func mapClear(vm *VM, args []Value) (Value, error) {
	if err := checkNumArgs(args, 0); err != nil {
		return Value{}, err
	}
	m := args[0].AsObj().(*ObjMap)
	m.entries = nil
	m.index = map[Value]int{}
	return Nil(), nil
}

func mapLen(vm *VM, args []Value) (Value, error) {
	if err := checkNumArgs(args, 0); err != nil {
		return Value{}, err
	}
	m := args[0].AsObj().(*ObjMap)
	return Number(float64(m.Len())), nil
}

// ObjMapKeyIter walks a map's keys in insertion order.
type ObjMapKeyIter struct {
	object
	class *ObjClass
	src   *ObjMap
	pos   int
}

func (it *ObjMapKeyIter) String() string { return "MapKeyIter instance" }

// TypeName returns "MapKeyIter".
func (it *ObjMapKeyIter) TypeName() string { return "MapKeyIter" }

func (it *ObjMapKeyIter) trace(mk *marker) {
	mk.markObj(it.class)
	mk.markObj(it.src)
}

func mapIter(vm *VM, args []Value) (Value, error) {
	if err := checkNumArgs(args, 0); err != nil {
		return Value{}, err
	}
	m := args[0].AsObj().(*ObjMap)
	it := &ObjMapKeyIter{object: newHeader(sizeIter), class: vm.core.mapKeyIter, src: m}
	vm.heap.adopt(it)
	return ObjValue(it), nil
}

func mapKeyIterNext(vm *VM, args []Value) (Value, error) {
	it := args[0].AsObj().(*ObjMapKeyIter)
	if it.pos >= len(it.src.entries) {
		return Sentinel(), nil
	}
	v := it.src.entries[it.pos].key
	it.pos++
	return v, nil
}
