package yarel

// ObjClass is a named method table with an optional parent. Inheritance
// copies the parent's method table at declaration time, so later additions
// to the parent do not reach existing children; the parent pointer remains
// for is_a queries and diagnostics.
type ObjClass struct {
	object
	name    *ObjString
	methods map[*ObjString]Value
	statics map[*ObjString]Value
	parent  *ObjClass
	// ctor names the method nominated as the class's constructor, nil when
	// the class has none.
	ctor *ObjString
}

// Name returns the class's name.
func (c *ObjClass) Name() string { return c.name.String() }

func (c *ObjClass) String() string { return c.Name() }

// TypeName returns "Class".
func (c *ObjClass) TypeName() string { return "Class" }

// lookupMethod finds a method in the class's table. Tables are
// self-contained: inheritance copies the parent's full table at declaration
// time, so a single lookup observes the whole chain as it stood then, and
// later additions to a parent do not reach existing children.
func (c *ObjClass) lookupMethod(name *ObjString) (Value, bool) {
	m, ok := c.methods[name]
	return m, ok
}

// isSubclassOf reports whether the class is k or inherits from k.
func (c *ObjClass) isSubclassOf(k *ObjClass) bool {
	for p := c; p != nil; p = p.parent {
		if p == k {
			return true
		}
	}
	return false
}

// inherit copies the parent's method table snapshot into the class and
// records the parent. The parent's constructor nomination carries over
// unless the child declares its own.
func (c *ObjClass) inherit(parent *ObjClass) {
	for name, m := range parent.methods {
		if _, ok := c.methods[name]; !ok {
			c.methods[name] = m
		}
	}
	c.parent = parent
	if c.ctor == nil {
		c.ctor = parent.ctor
	}
}

func (c *ObjClass) trace(mk *marker) {
	mk.markObj(c.name)
	for name, m := range c.methods {
		mk.markObj(name)
		mk.markValue(m)
	}
	for name, m := range c.statics {
		mk.markObj(name)
		mk.markValue(m)
	}
	if c.parent != nil {
		mk.markObj(c.parent)
	}
	if c.ctor != nil {
		mk.markObj(c.ctor)
	}
}

// newClass allocates a class with empty method tables.
func (vm *VM) newClass(name *ObjString) *ObjClass {
	vm.pushTempRoot(ObjValue(name))
	defer vm.popTempRoot()
	c := &ObjClass{
		object:  newHeader(sizeClass),
		name:    name,
		methods: map[*ObjString]Value{},
		statics: map[*ObjString]Value{},
	}
	vm.heap.adopt(c)
	return c
}

// ObjInstance is a user-defined object: a class pointer plus named fields.
type ObjInstance struct {
	object
	class  *ObjClass
	fields map[*ObjString]Value
}

func (i *ObjInstance) String() string { return i.class.Name() + " instance" }

// TypeName returns the instance's class name.
func (i *ObjInstance) TypeName() string { return i.class.Name() }

func (i *ObjInstance) trace(mk *marker) {
	mk.markObj(i.class)
	for name, v := range i.fields {
		mk.markObj(name)
		mk.markValue(v)
	}
}

func (vm *VM) newInstance(class *ObjClass) *ObjInstance {
	i := &ObjInstance{
		object: newHeader(sizeInstance),
		class:  class,
		fields: map[*ObjString]Value{},
	}
	vm.heap.adopt(i)
	return i
}

// ObjBoundMethod pairs a receiver with a method. Invoking it shifts the
// receiver into the callee slot, so the method sees it as its first
// argument.
type ObjBoundMethod struct {
	object
	receiver Value
	method   Obj // *ObjClosure or *ObjNative
}

func (b *ObjBoundMethod) String() string { return b.method.String() }

// TypeName returns "BoundMethod".
func (b *ObjBoundMethod) TypeName() string { return "BoundMethod" }

func (b *ObjBoundMethod) trace(mk *marker) {
	mk.markValue(b.receiver)
	mk.markObj(b.method)
}

func (vm *VM) newBoundMethod(receiver Value, method Obj) *ObjBoundMethod {
	vm.pushTempRoot(receiver)
	vm.pushTempRoot(ObjValue(method))
	defer vm.popTempRoots(2)
	b := &ObjBoundMethod{object: newHeader(sizeBound), receiver: receiver, method: method}
	vm.heap.adopt(b)
	return b
}
