package yarel

import (
	"time"

	"gitlab.com/variadico/lctime"
)

// ObjDate wraps a point in time for the Date built-in class.
type ObjDate struct {
	object
	class *ObjClass
	t     time.Time
}

func (d *ObjDate) String() string { return d.t.Format(time.RFC3339) }

// TypeName returns "Date".
func (d *ObjDate) TypeName() string { return "Date" }

func (d *ObjDate) trace(mk *marker) {
	mk.markObj(d.class)
}

// NewDate wraps a time in a Date object.
func (vm *VM) NewDate(t time.Time) *ObjDate {
	d := &ObjDate{object: newHeader(sizeDate), class: vm.core.date, t: t}
	vm.heap.adopt(d)
	return d
}

func (vm *VM) initDate() {
	cls := vm.newClass(vm.Intern("Date"))
	cls.inherit(vm.core.object)
	vm.core.date = cls
	vm.defineStatics(cls, []nativeDef{
		{"now", 0, dateNow},
	})
	vm.defineMethods(cls, []nativeDef{
		{"format", 1, dateFormat},
		{"unix", 0, dateUnix},
		{"add_seconds", 1, dateAddSeconds},
	})
}

// dateNow is the Date.now static method.
func dateNow(vm *VM, args []Value) (Value, error) {
	if err := checkNumArgs(args, 0); err != nil {
		return Value{}, err
	}
	return ObjValue(vm.NewDate(time.Now())), nil
}

// dateFormat renders the date with a strftime-style format string in the
// current locale.
func dateFormat(vm *VM, args []Value) (Value, error) {
	if err := checkNumArgs(args, 1); err != nil {
		return Value{}, err
	}
	d, ok := args[0].AsObj().(*ObjDate)
	if !ok {
		return Value{}, vm.newError(TypeError, "expected a Date receiver")
	}
	format, err := stringArg(vm, args[1])
	if err != nil {
		return Value{}, err
	}
	return vm.StringValue(lctime.Strftime(format.s, d.t)), nil
}

// dateUnix returns the date as seconds since the Unix epoch.
func dateUnix(vm *VM, args []Value) (Value, error) {
	if err := checkNumArgs(args, 0); err != nil {
		return Value{}, err
	}
	d, ok := args[0].AsObj().(*ObjDate)
	if !ok {
		return Value{}, vm.newError(TypeError, "expected a Date receiver")
	}
	return Number(float64(d.t.UnixNano()) / 1e9), nil
}

// dateAddSeconds returns a new Date offset by the given number of seconds.
func dateAddSeconds(vm *VM, args []Value) (Value, error) {
	if err := checkNumArgs(args, 1); err != nil {
		return Value{}, err
	}
	d, ok := args[0].AsObj().(*ObjDate)
	if !ok {
		return Value{}, vm.newError(TypeError, "expected a Date receiver")
	}
	if !args[1].IsNumber() {
		return Value{}, vm.newError(TypeError, "expected a number of seconds")
	}
	delta := time.Duration(args[1].AsNumber() * float64(time.Second))
	return ObjValue(vm.NewDate(d.t.Add(delta))), nil
}
