package yarel

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// ObjStringIter walks a string one code point at a time, yielding each as a
// one-character string.
type ObjStringIter struct {
	object
	class *ObjClass
	src   *ObjString
	pos   int
}

func (it *ObjStringIter) String() string { return "StringIter instance" }

// TypeName returns "StringIter".
func (it *ObjStringIter) TypeName() string { return "StringIter" }

func (it *ObjStringIter) trace(mk *marker) {
	mk.markObj(it.class)
	mk.markObj(it.src)
}

// initStringClass installs the String methods and statics.
func (vm *VM) initStringClass() {
	vm.core.str.ctor = vm.names.newName
	vm.defineMethods(vm.core.str, []nativeDef{
		{"new", 1, stringNew},
		{"len", 0, stringLen},
		{"count_chars", 0, stringCountChars},
		{"find", 2, stringFind},
		{"replace", 2, stringReplace},
		{"split", 1, stringSplit},
		{"starts_with", 1, stringStartsWith},
		{"ends_with", 1, stringEndsWith},
		{"as_num", 0, stringAsNum},
		{"to_bytes", 0, stringToBytes},
		{"to_code_points", 0, stringToCodePoints},
		{"to_latin1", 0, stringToLatin1},
		{"to_utf16", 0, stringToUTF16},
		{"__getitem__", 1, stringGetItem},
		{"__iter__", 0, stringIter},
	})
	vm.defineStatics(vm.core.str, []nativeDef{
		{"from_utf8", 1, stringFromUTF8},
		{"from_code_points", 1, stringFromCodePoints},
		{"from_latin1", 1, stringFromLatin1},
		{"from_utf16", 1, stringFromUTF16},
	})
	vm.defineMethods(vm.core.stringIter, []nativeDef{
		{"__iter__", 0, iterSelf},
		{"__next__", 0, stringIterNext},
	})
}

func stringReceiver(vm *VM, args []Value) (*ObjString, error) {
	s, ok := args[0].asString()
	if !ok {
		return nil, vm.newError(TypeError, "expected a String receiver")
	}
	return s, nil
}

func stringArg(vm *VM, v Value) (*ObjString, error) {
	s, ok := v.asString()
	if !ok {
		return nil, vm.newError(TypeError, "expected a string but found '%s'", v)
	}
	return s, nil
}

// stringNew is the String constructor: it renders any value the way print
// does.
func stringNew(vm *VM, args []Value) (Value, error) {
	if err := checkNumArgs(args, 1); err != nil {
		return Value{}, err
	}
	return vm.StringValue(args[1].String()), nil
}

func stringLen(vm *VM, args []Value) (Value, error) {
	if err := checkNumArgs(args, 0); err != nil {
		return Value{}, err
	}
	s, err := stringReceiver(vm, args)
	if err != nil {
		return Value{}, err
	}
	return Number(float64(len(s.s))), nil
}

func stringCountChars(vm *VM, args []Value) (Value, error) {
	if err := checkNumArgs(args, 0); err != nil {
		return Value{}, err
	}
	s, err := stringReceiver(vm, args)
	if err != nil {
		return Value{}, err
	}
	return Number(float64(utf8.RuneCountInString(s.s))), nil
}

// stringFind returns the byte index of the first occurrence of the
// substring at or after the start index, or nil when absent. A negative
// start counts from the end.
func stringFind(vm *VM, args []Value) (Value, error) {
	if err := checkNumArgs(args, 2); err != nil {
		return Value{}, err
	}
	s, err := stringReceiver(vm, args)
	if err != nil {
		return Value{}, err
	}
	sub, err := stringArg(vm, args[1])
	if err != nil {
		return Value{}, err
	}
	if sub.s == "" {
		return Value{}, vm.newError(ValueError, "cannot find empty string")
	}
	start, err := vm.boundedIndex(args[2], len(s.s), "String index out of bounds")
	if err != nil {
		return Value{}, err
	}
	i := strings.Index(s.s[start:], sub.s)
	if i < 0 {
		return Nil(), nil
	}
	return Number(float64(start + i)), nil
}

func stringReplace(vm *VM, args []Value) (Value, error) {
	if err := checkNumArgs(args, 2); err != nil {
		return Value{}, err
	}
	s, err := stringReceiver(vm, args)
	if err != nil {
		return Value{}, err
	}
	old, err := stringArg(vm, args[1])
	if err != nil {
		return Value{}, err
	}
	if old.s == "" {
		return Value{}, vm.newError(ValueError, "cannot replace empty string")
	}
	new_, err := stringArg(vm, args[2])
	if err != nil {
		return Value{}, err
	}
	return vm.StringValue(strings.ReplaceAll(s.s, old.s, new_.s)), nil
}

func stringSplit(vm *VM, args []Value) (Value, error) {
	if err := checkNumArgs(args, 1); err != nil {
		return Value{}, err
	}
	s, err := stringReceiver(vm, args)
	if err != nil {
		return Value{}, err
	}
	delim, err := stringArg(vm, args[1])
	if err != nil {
		return Value{}, err
	}
	if delim.s == "" {
		return Value{}, vm.newError(ValueError, "cannot split using an empty string")
	}
	// The list is pinned while the segments intern, so a collection midway
	// through can see the strings already produced.
	l := vm.NewList(nil)
	vm.pushTempRoot(ObjValue(l))
	defer vm.popTempRoot()
	for _, part := range strings.Split(s.s, delim.s) {
		l.elems = append(l.elems, vm.StringValue(part))
	}
	return ObjValue(l), nil
}

func stringStartsWith(vm *VM, args []Value) (Value, error) {
	if err := checkNumArgs(args, 1); err != nil {
		return Value{}, err
	}
	s, err := stringReceiver(vm, args)
	if err != nil {
		return Value{}, err
	}
	prefix, err := stringArg(vm, args[1])
	if err != nil {
		return Value{}, err
	}
	return Bool(strings.HasPrefix(s.s, prefix.s)), nil
}

func stringEndsWith(vm *VM, args []Value) (Value, error) {
	if err := checkNumArgs(args, 1); err != nil {
		return Value{}, err
	}
	s, err := stringReceiver(vm, args)
	if err != nil {
		return Value{}, err
	}
	suffix, err := stringArg(vm, args[1])
	if err != nil {
		return Value{}, err
	}
	return Bool(strings.HasSuffix(s.s, suffix.s)), nil
}

func stringAsNum(vm *VM, args []Value) (Value, error) {
	if err := checkNumArgs(args, 0); err != nil {
		return Value{}, err
	}
	s, err := stringReceiver(vm, args)
	if err != nil {
		return Value{}, err
	}
	f, perr := strconv.ParseFloat(strings.TrimSpace(s.s), 64)
	if perr != nil {
		return Value{}, vm.newError(ValueError, "unable to parse number from '%s'", s)
	}
	return Number(f), nil
}

func stringToBytes(vm *VM, args []Value) (Value, error) {
	if err := checkNumArgs(args, 0); err != nil {
		return Value{}, err
	}
	s, err := stringReceiver(vm, args)
	if err != nil {
		return Value{}, err
	}
	elems := make([]Value, len(s.s))
	for i := 0; i < len(s.s); i++ {
		elems[i] = Number(float64(s.s[i]))
	}
	return ObjValue(vm.NewList(elems)), nil
}

func stringToCodePoints(vm *VM, args []Value) (Value, error) {
	if err := checkNumArgs(args, 0); err != nil {
		return Value{}, err
	}
	s, err := stringReceiver(vm, args)
	if err != nil {
		return Value{}, err
	}
	var elems []Value
	for _, r := range s.s {
		elems = append(elems, Number(float64(r)))
	}
	return ObjValue(vm.NewList(elems)), nil
}

// stringGetItem indexes the string by byte position, returning the whole
// code point starting there, or slices it with a range.
func stringGetItem(vm *VM, args []Value) (Value, error) {
	if err := checkNumArgs(args, 1); err != nil {
		return Value{}, err
	}
	s, err := stringReceiver(vm, args)
	if err != nil {
		return Value{}, err
	}
	if r, ok := args[1].AsObj().(*ObjRange); ok {
		begin, end, err := r.boundedBy(vm, len(s.s), "String")
		if err != nil {
			return Value{}, err
		}
		if err := checkCharBoundary(vm, s, begin, "string slice start"); err != nil {
			return Value{}, err
		}
		if err := checkCharBoundary(vm, s, end, "string slice end"); err != nil {
			return Value{}, err
		}
		return vm.StringValue(s.s[begin:end]), nil
	}
	begin, err := vm.boundedIndex(args[1], len(s.s), "String index out of bounds")
	if err != nil {
		return Value{}, err
	}
	if err := checkCharBoundary(vm, s, begin, "string index"); err != nil {
		return Value{}, err
	}
	_, width := utf8.DecodeRuneInString(s.s[begin:])
	return vm.StringValue(s.s[begin : begin+width]), nil
}

func checkCharBoundary(vm *VM, s *ObjString, pos int, desc string) error {
	if pos < len(s.s) && !utf8.RuneStart(s.s[pos]) {
		return vm.newError(IndexError, "provided %s is not on a character boundary", desc)
	}
	return nil
}

func stringIter(vm *VM, args []Value) (Value, error) {
	if err := checkNumArgs(args, 0); err != nil {
		return Value{}, err
	}
	s, err := stringReceiver(vm, args)
	if err != nil {
		return Value{}, err
	}
	it := &ObjStringIter{object: newHeader(sizeIter), class: vm.core.stringIter, src: s}
	vm.heap.adopt(it)
	return ObjValue(it), nil
}

func stringIterNext(vm *VM, args []Value) (Value, error) {
	it := args[0].AsObj().(*ObjStringIter)
	if it.pos >= len(it.src.s) {
		return Sentinel(), nil
	}
	_, width := utf8.DecodeRuneInString(it.src.s[it.pos:])
	v := vm.StringValue(it.src.s[it.pos : it.pos+width])
	it.pos += width
	return v, nil
}

// byteListArg converts a List of integers in [0, 255] to raw bytes.
func byteListArg(vm *VM, v Value) ([]byte, error) {
	l, ok := v.AsObj().(*ObjList)
	if !ok {
		return nil, vm.newError(TypeError, "expected a List but found '%s'", v)
	}
	out := make([]byte, len(l.elems))
	for i, e := range l.elems {
		n, err := vm.validateInteger(e)
		if err != nil {
			return nil, err
		}
		if n < 0 || n > 255 {
			return nil, vm.newError(ValueError, "expected an integer below 256 but found '%s'", e)
		}
		out[i] = byte(n)
	}
	return out, nil
}

// stringFromUTF8 builds a string from a list of UTF-8 bytes.
func stringFromUTF8(vm *VM, args []Value) (Value, error) {
	if err := checkNumArgs(args, 1); err != nil {
		return Value{}, err
	}
	b, err := byteListArg(vm, args[1])
	if err != nil {
		return Value{}, err
	}
	if !utf8.Valid(b) {
		return Value{}, vm.newError(ValueError, "invalid UTF-8 in byte sequence")
	}
	return vm.StringValue(string(b)), nil
}

// stringFromCodePoints builds a string from a list of Unicode code points.
func stringFromCodePoints(vm *VM, args []Value) (Value, error) {
	if err := checkNumArgs(args, 1); err != nil {
		return Value{}, err
	}
	l, ok := args[1].AsObj().(*ObjList)
	if !ok {
		return Value{}, vm.newError(TypeError, "expected a List but found '%s'", args[1])
	}
	b := strings.Builder{}
	for _, e := range l.elems {
		n, err := vm.validateInteger(e)
		if err != nil {
			return Value{}, err
		}
		if n < 0 || n > utf8.MaxRune || !utf8.ValidRune(rune(n)) {
			return Value{}, vm.newError(ValueError, "expected a valid code point but found '%s'", e)
		}
		b.WriteRune(rune(n))
	}
	return vm.StringValue(b.String()), nil
}
