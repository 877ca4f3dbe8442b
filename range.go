package yarel

import "fmt"

// ObjRange is a half-open integer interval. Iterating a range counts from
// begin towards end, stepping towards end regardless of direction.
type ObjRange struct {
	object
	class *ObjClass
	begin int
	end   int
}

func (r *ObjRange) String() string {
	return fmt.Sprintf("Range(%d, %d)", r.begin, r.end)
}

// TypeName returns "Range".
func (r *ObjRange) TypeName() string { return "Range" }

func (r *ObjRange) trace(mk *marker) {
	mk.markObj(r.class)
}

// NewRange allocates a range.
func (vm *VM) NewRange(begin, end int) *ObjRange {
	r := &ObjRange{object: newHeader(sizeRange), class: vm.core.rangeClass, begin: begin, end: end}
	vm.heap.adopt(r)
	return r
}

// boundedBy resolves the range against a container length, allowing
// negative endpoints to count from the end. The returned interval is empty
// when end precedes begin.
func (r *ObjRange) boundedBy(vm *VM, limit int, typeName string) (int, int, error) {
	begin := r.begin
	if begin < 0 {
		begin += limit
	}
	if begin < 0 || begin >= limit {
		return 0, 0, vm.newError(IndexError, "%s slice start out of range", typeName)
	}
	end := r.end
	if end < 0 {
		end += limit
	}
	if end < 0 || end > limit {
		return 0, 0, vm.newError(IndexError, "%s slice end out of range", typeName)
	}
	if end < begin {
		end = begin
	}
	return begin, end, nil
}

// ObjRangeIter walks a range from begin towards end.
type ObjRangeIter struct {
	object
	class   *ObjClass
	rng     *ObjRange
	current int
	step    int
}

func (it *ObjRangeIter) String() string { return "RangeIter instance" }

// TypeName returns "RangeIter".
func (it *ObjRangeIter) TypeName() string { return "RangeIter" }

func (it *ObjRangeIter) trace(mk *marker) {
	mk.markObj(it.class)
	mk.markObj(it.rng)
}

func (it *ObjRangeIter) next() Value {
	if it.current == it.rng.end {
		return Sentinel()
	}
	v := Number(float64(it.current))
	it.current += it.step
	return v
}

// Range methods.

func rangeNew(vm *VM, args []Value) (Value, error) {
	if err := checkNumArgs(args, 2); err != nil {
		return Value{}, err
	}
	begin, err := vm.validateInteger(args[1])
	if err != nil {
		return Value{}, err
	}
	end, err := vm.validateInteger(args[2])
	if err != nil {
		return Value{}, err
	}
	return ObjValue(vm.NewRange(begin, end)), nil
}

func rangeIter(vm *VM, args []Value) (Value, error) {
	if err := checkNumArgs(args, 0); err != nil {
		return Value{}, err
	}
	r := args[0].AsObj().(*ObjRange)
	step := 1
	if r.end < r.begin {
		step = -1
	}
	it := &ObjRangeIter{object: newHeader(sizeIter), class: vm.core.rangeIter, rng: r, current: r.begin, step: step}
	vm.heap.adopt(it)
	return ObjValue(it), nil
}

func rangeIterNext(vm *VM, args []Value) (Value, error) {
	it := args[0].AsObj().(*ObjRangeIter)
	return it.next(), nil
}

// validateInteger converts a value to an integer, rejecting non-numbers and
// numbers with a fractional part.
func (vm *VM) validateInteger(v Value) (int, error) {
	if !v.IsNumber() {
		return 0, vm.newError(TypeError, "expected an integer but found '%s'", v)
	}
	f := v.AsNumber()
	if f != float64(int(f)) {
		return 0, vm.newError(ValueError, "expected an integer but found '%s'", v)
	}
	return int(f), nil
}
