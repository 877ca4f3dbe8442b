package yarel

import "runtime"

// initSystem installs the System class: host and platform facts exposed to
// scripts.
func (vm *VM) initSystem() {
	cls := vm.newClass(vm.Intern("System"))
	cls.inherit(vm.core.object)
	vm.core.system = cls
	vm.defineStatics(cls, []nativeDef{
		{"platform", 0, systemPlatform},
		{"platformVersion", 0, systemPlatformVersion},
	})
}

// systemPlatform returns the operating system name.
func systemPlatform(vm *VM, args []Value) (Value, error) {
	if err := checkNumArgs(args, 0); err != nil {
		return Value{}, err
	}
	return vm.StringValue(runtime.GOOS), nil
}

// systemPlatformVersion returns the kernel version string, or "" where the
// platform offers none.
func systemPlatformVersion(vm *VM, args []Value) (Value, error) {
	if err := checkNumArgs(args, 0); err != nil {
		return Value{}, err
	}
	return vm.StringValue(platformVersion()), nil
}
