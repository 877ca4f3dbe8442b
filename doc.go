// Package yarel implements the Yarel scripting language: a single-pass
// bytecode compiler feeding a stack-based virtual machine with first-class
// cooperative fibers and a tracing mark-sweep garbage collector.
//
// The usual entry point is NewVM, which builds a runtime with the core
// classes installed, followed by DoString or Compile/Interpret:
//
//	vm := yarel.NewVM(nil)
//	result, err := vm.DoString(`print("hello");`, "example")
//
// Hosts extend the runtime with RegisterNative and inspect results with
// ToString. The runtime is strictly single-threaded; concurrency inside a
// script exists only between fibers, which the VM multiplexes at explicit
// yield and call boundaries.
package yarel
