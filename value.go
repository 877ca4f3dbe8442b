package yarel

import (
	"math"
	"strconv"
)

// ValueKind discriminates the variants of a Value.
type ValueKind uint8

const (
	// KindNil is the nil value.
	KindNil ValueKind = iota
	// KindBool is true or false.
	KindBool
	// KindNumber is an IEEE-754 double.
	KindNumber
	// KindSentinel is the unique iterator-exhaustion marker.
	KindSentinel
	// KindObj is a heap reference.
	KindObj
)

// Value is a Yarel runtime value: nil, a boolean, a number, the iterator
// sentinel, or a reference to a heap object. The zero Value is nil.
type Value struct {
	kind ValueKind
	num  float64
	obj  Obj
}

// Nil returns the nil value.
func Nil() Value {
	return Value{}
}

// Bool returns a boolean value.
func Bool(b bool) Value {
	n := 0.0
	if b {
		n = 1
	}
	return Value{kind: KindBool, num: n}
}

// Number returns a numeric value.
func Number(f float64) Value {
	return Value{kind: KindNumber, num: f}
}

// Sentinel returns the iterator-exhaustion marker. All sentinels compare
// equal; there is observably a single sentinel object.
func Sentinel() Value {
	return Value{kind: KindSentinel}
}

// ObjValue returns a value referencing a heap object.
func ObjValue(o Obj) Value {
	return Value{kind: KindObj, obj: o}
}

// Kind returns the value's variant.
func (v Value) Kind() ValueKind { return v.kind }

// IsNil reports whether the value is nil.
func (v Value) IsNil() bool { return v.kind == KindNil }

// IsBool reports whether the value is a boolean.
func (v Value) IsBool() bool { return v.kind == KindBool }

// IsNumber reports whether the value is a number.
func (v Value) IsNumber() bool { return v.kind == KindNumber }

// IsSentinel reports whether the value is the iterator sentinel.
func (v Value) IsSentinel() bool { return v.kind == KindSentinel }

// IsObj reports whether the value references a heap object.
func (v Value) IsObj() bool { return v.kind == KindObj }

// AsBool returns the boolean payload. It is meaningful only if IsBool.
func (v Value) AsBool() bool { return v.num != 0 }

// AsNumber returns the numeric payload. It is meaningful only if IsNumber.
func (v Value) AsNumber() float64 { return v.num }

// AsObj returns the referenced object, or nil for non-references.
func (v Value) AsObj() Obj {
	if v.kind != KindObj {
		return nil
	}
	return v.obj
}

// Truthy reports the value's truthiness: nil and false are false,
// everything else, including 0 and "", is true.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindNil:
		return false
	case KindBool:
		return v.AsBool()
	}
	return true
}

// Equal reports value equality: nil equals nil, booleans structurally,
// numbers by IEEE semantics (so NaN is unequal to itself), and heap objects
// by identity. Strings are interned, which makes identity coincide with
// content equality.
func (v Value) Equal(w Value) bool {
	if v.kind != w.kind {
		return false
	}
	switch v.kind {
	case KindNil, KindSentinel:
		return true
	case KindBool:
		return v.AsBool() == w.AsBool()
	case KindNumber:
		return v.num == w.num
	}
	return v.obj == w.obj
}

// asString returns the string payload if the value references an interned
// string object.
func (v Value) asString() (*ObjString, bool) {
	if v.kind != KindObj {
		return nil, false
	}
	s, ok := v.obj.(*ObjString)
	return s, ok
}

// String renders the value the way print observes it.
func (v Value) String() string {
	switch v.kind {
	case KindNil:
		return "nil"
	case KindBool:
		if v.AsBool() {
			return "true"
		}
		return "false"
	case KindNumber:
		return formatNumber(v.num)
	case KindSentinel:
		return "sentinel"
	}
	return v.obj.String()
}

// formatNumber renders a float the way the language prints it: integral
// values below 1e15 in magnitude without a fraction or exponent, everything
// else in shortest form, which may use an exponent.
func formatNumber(f float64) string {
	if math.IsInf(f, 1) {
		return "inf"
	}
	if math.IsInf(f, -1) {
		return "-inf"
	}
	if math.IsNaN(f) {
		return "NaN"
	}
	if math.Trunc(f) == f && math.Abs(f) < 1e15 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
