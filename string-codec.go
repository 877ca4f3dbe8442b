package yarel

import (
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// String encode and decode natives for the legacy encodings scripts run
// into. UTF-8 is the native representation; everything here converts at
// the boundary.

// stringToLatin1 encodes the string as Latin-1 bytes. Code points outside
// the Latin-1 repertoire are an error rather than silently replaced.
func stringToLatin1(vm *VM, args []Value) (Value, error) {
	if err := checkNumArgs(args, 0); err != nil {
		return Value{}, err
	}
	s, err := stringReceiver(vm, args)
	if err != nil {
		return Value{}, err
	}
	for _, r := range s.s {
		if r > 0xff {
			return Value{}, vm.newError(ValueError, "code point %d has no Latin-1 encoding", r)
		}
	}
	b, cerr := charmap.ISO8859_1.NewEncoder().Bytes([]byte(s.s))
	if cerr != nil {
		return Value{}, vm.newError(ValueError, "unable to encode string as Latin-1")
	}
	return ObjValue(vm.NewList(bytesToValues(b))), nil
}

// stringFromLatin1 decodes a list of Latin-1 bytes into a string.
func stringFromLatin1(vm *VM, args []Value) (Value, error) {
	if err := checkNumArgs(args, 1); err != nil {
		return Value{}, err
	}
	raw, err := byteListArg(vm, args[1])
	if err != nil {
		return Value{}, err
	}
	b, cerr := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if cerr != nil {
		return Value{}, vm.newError(ValueError, "unable to decode Latin-1 byte sequence")
	}
	return vm.StringValue(string(b)), nil
}

// stringToUTF16 encodes the string as big-endian UTF-16 bytes without a
// byte order mark.
func stringToUTF16(vm *VM, args []Value) (Value, error) {
	if err := checkNumArgs(args, 0); err != nil {
		return Value{}, err
	}
	s, err := stringReceiver(vm, args)
	if err != nil {
		return Value{}, err
	}
	enc := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewEncoder()
	b, cerr := enc.Bytes([]byte(s.s))
	if cerr != nil {
		return Value{}, vm.newError(ValueError, "unable to encode string as UTF-16")
	}
	return ObjValue(vm.NewList(bytesToValues(b))), nil
}

// stringFromUTF16 decodes a list of big-endian UTF-16 bytes into a string.
func stringFromUTF16(vm *VM, args []Value) (Value, error) {
	if err := checkNumArgs(args, 1); err != nil {
		return Value{}, err
	}
	raw, err := byteListArg(vm, args[1])
	if err != nil {
		return Value{}, err
	}
	dec := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder()
	b, cerr := dec.Bytes(raw)
	if cerr != nil {
		return Value{}, vm.newError(ValueError, "unable to decode UTF-16 byte sequence")
	}
	return vm.StringValue(string(b)), nil
}

func bytesToValues(b []byte) []Value {
	elems := make([]Value, len(b))
	for i, v := range b {
		elems[i] = Number(float64(v))
	}
	return elems
}
