package yarel

// initCollector installs the Collector class, the script-level surface of
// the mark-sweep heap: force a cycle, read the live count, or inspect the
// next trigger threshold.
func (vm *VM) initCollector() {
	cls := vm.newClass(vm.Intern("Collector"))
	cls.inherit(vm.core.object)
	vm.core.collector = cls
	vm.defineStatics(cls, []nativeDef{
		{"collect", 0, collectorCollect},
		{"count", 0, collectorCount},
		{"threshold", 0, collectorThreshold},
		{"cycles", 0, collectorCycles},
	})
}

// collectorCollect triggers a collection cycle and returns the number of
// objects freed. This is much slower than allowing collection to happen
// automatically, as every live object is traced on demand.
func collectorCollect(vm *VM, args []Value) (Value, error) {
	if err := checkNumArgs(args, 0); err != nil {
		return Value{}, err
	}
	return Number(float64(vm.heap.collect())), nil
}

// collectorCount returns the number of live tracked objects.
func collectorCount(vm *VM, args []Value) (Value, error) {
	if err := checkNumArgs(args, 0); err != nil {
		return Value{}, err
	}
	return Number(float64(vm.heap.Live())), nil
}

// collectorThreshold returns the allocation volume, in bytes, at which the
// next automatic cycle runs.
func collectorThreshold(vm *VM, args []Value) (Value, error) {
	if err := checkNumArgs(args, 0); err != nil {
		return Value{}, err
	}
	return Number(float64(vm.heap.Threshold())), nil
}

// collectorCycles returns the number of completed collection cycles.
func collectorCycles(vm *VM, args []Value) (Value, error) {
	if err := checkNumArgs(args, 0); err != nil {
		return Value{}, err
	}
	return Number(float64(vm.heap.Cycles())), nil
}
