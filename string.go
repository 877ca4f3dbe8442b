package yarel

import "hash/fnv"

// ObjString is an immutable interned byte string with a cached hash. The VM
// interns every string by content, so two strings are content-equal exactly
// when they are the same object.
type ObjString struct {
	object
	s    string
	hash uint64
}

// String returns the string's contents.
func (s *ObjString) String() string { return s.s }

// TypeName returns "String".
func (s *ObjString) TypeName() string { return "String" }

// Len returns the length of the string in bytes.
func (s *ObjString) Len() int { return len(s.s) }

// Hash returns the string's cached content hash.
func (s *ObjString) Hash() uint64 { return s.hash }

func (s *ObjString) trace(mk *marker) {}

func hashString(s string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return h.Sum64()
}

// Intern returns the canonical string object for the given contents,
// allocating one if the VM has not seen the contents before. The intern
// table holds its entries weakly: strings referenced by nothing else are
// dropped from the table during sweep.
func (vm *VM) Intern(s string) *ObjString {
	if obj, ok := vm.strings[s]; ok {
		return obj
	}
	obj := &ObjString{object: newHeader(sizeString + len(s)), s: s, hash: hashString(s)}
	vm.heap.adopt(obj)
	vm.strings[s] = obj
	return obj
}

// StringValue interns s and returns it as a value.
func (vm *VM) StringValue(s string) Value {
	return ObjValue(vm.Intern(s))
}
