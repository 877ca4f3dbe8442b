package yarel

import (
	"strings"
	"testing"
)

// newTestVM returns a VM whose print output lands in the returned builder.
func newTestVM() (*VM, *strings.Builder) {
	out := &strings.Builder{}
	vm := NewVM(nil)
	vm.Stdout = out
	return vm, out
}

// testRunOutput runs source and compares the captured print output with
// the expected lines.
func testRunOutput(t *testing.T, source string, want ...string) {
	t.Helper()
	vm, out := newTestVM()
	if _, err := vm.DoString(source, "test"); err != nil {
		t.Fatalf("script failed: %v", err)
	}
	expected := ""
	for _, line := range want {
		expected += line + "\n"
	}
	if out.String() != expected {
		t.Errorf("wrong output:\nexpected:\n%sactual:\n%s", expected, out.String())
	}
}

// testRunValue runs source and returns the script's result.
func testRunValue(t *testing.T, source string) Value {
	t.Helper()
	vm, _ := newTestVM()
	v, err := vm.DoString(source, "test")
	if err != nil {
		t.Fatalf("script failed: %v", err)
	}
	return v
}

// testExpectError runs source and asserts it fails with a runtime error of
// the given kind.
func testExpectError(t *testing.T, source string, kind ErrorKind) {
	t.Helper()
	vm, _ := newTestVM()
	_, err := vm.DoString(source, "test")
	re, ok := err.(*RuntimeError)
	if !ok {
		t.Fatalf("expected a %v, got %v", kind, err)
	}
	if re.Kind != kind {
		t.Errorf("expected a %v, got %v", kind, re)
	}
}

func TestArithmetic(t *testing.T) {
	cases := map[string]struct {
		source string
		want   float64
	}{
		"Add":        {"return 1 + 2;", 3},
		"Subtract":   {"return 5 - 2;", 3},
		"Multiply":   {"return 4 * 2.5;", 10},
		"Divide":     {"return 9 / 2;", 4.5},
		"Negate":     {"return -(3 + 4);", -7},
		"Precedence": {"return 1 + 2 * 3;", 7},
		"Grouping":   {"return (1 + 2) * 3;", 9},
		"Compound":   {"var a = 10; a += 5; a *= 2; a -= 6; a /= 4; return a;", 6},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			v := testRunValue(t, c.source)
			if !v.IsNumber() || v.AsNumber() != c.want {
				t.Errorf("expected %v, got %s", c.want, v)
			}
		})
	}
}

func TestComparisonAndLogic(t *testing.T) {
	cases := map[string]struct {
		source string
		want   bool
	}{
		"Less":         {"return 1 < 2;", true},
		"LessEqual":    {"return 2 <= 2;", true},
		"Greater":      {"return 1 > 2;", false},
		"GreaterEqual": {"return 3 >= 4;", false},
		"Equal":        {"return 1 + 1 == 2;", true},
		"NotEqual":     {"return 1 != 1;", false},
		"NaN":          {"return 0 / 0 == 0 / 0;", false},
		"NilEqual":     {"return nil == nil;", true},
		"BoolEqual":    {"return true == true;", true},
		"MixedEqual":   {"return 0 == false;", false},
		"StringEqual":  {`return "a" + "b" == "ab";`, true},
		"ListIdentity": {"return [1] == [1];", false},
		"Not":          {"return !nil;", true},
		"NotZero":      {"return !0;", false},
		"And":          {"return true and false;", false},
		"Or":           {"return false or true;", true},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			v := testRunValue(t, c.source)
			if !v.IsBool() || v.AsBool() != c.want {
				t.Errorf("expected %v, got %s", c.want, v)
			}
		})
	}
}

// TestShortCircuit tests that and/or skip evaluating their right side.
func TestShortCircuit(t *testing.T) {
	testRunOutput(t, `
fn loud(v) {
    print("evaluated");
    return v;
}
var a = false and loud(true);
var b = true or loud(false);
print(a);
print(b);
`, "false", "true")
}

func TestTruthiness(t *testing.T) {
	testRunOutput(t, `
fn check(v) {
    if v {
        print("truthy");
    } else {
        print("falsy");
    }
}
check(nil);
check(false);
check(true);
check(0);
check("");
`, "falsy", "falsy", "truthy", "truthy", "truthy")
}

func TestGlobalsAndLocals(t *testing.T) {
	testRunOutput(t, `
var g = "global";
{
    var g = "shadow";
    print(g);
}
print(g);
g = "updated";
print(g);
`, "shadow", "global", "updated")
}

func TestControlFlow(t *testing.T) {
	testRunOutput(t, `
var i = 0;
while i < 5 {
    i += 1;
    if i == 2 {
        continue;
    }
    if i == 4 {
        break;
    }
    print(i);
}
print("done");
`, "1", "3", "done")
}

func TestFunctions(t *testing.T) {
	testRunOutput(t, `
fn add(a, b) {
    return a + b;
}
fn greet(name) {
    print("hello ${name}");
}
print(add(2, 3));
greet("world");
`, "5", "hello world")
}

func TestLambdas(t *testing.T) {
	testRunOutput(t, `
var double = |x| x * 2;
var sum = |a, b| {
    return a + b;
};
var nullary = || "constant";
print(double(21));
print(sum(1, 2));
print(nullary());
`, "42", "3", "constant")
}

// TestClosures tests that closures capture variables, not values, and that
// captures survive their defining scope.
func TestClosures(t *testing.T) {
	testRunOutput(t, `
fn counter() {
    var n = 0;
    return || {
        n += 1;
        return n;
    };
}
var c = counter();
c();
c();
print(c());
var d = counter();
print(d());
`, "3", "1")
}

// TestSharedUpvalue tests that two closures over the same local observe
// each other's writes, before and after the local's slot dies.
func TestSharedUpvalue(t *testing.T) {
	testRunOutput(t, `
fn pair() {
    var n = 0;
    var inc = || {
        n += 1;
        return n;
    };
    var get = || n;
    inc();
    print(get());
    return [inc, get];
}
var fns = pair();
fns[0]();
print(fns[1]());
`, "1", "2")
}

func TestStringInterpolation(t *testing.T) {
	testRunOutput(t, `
var name = "yarel";
var major = 0;
print("welcome to ${name} v${major}.${major + 1}!");
print("${1 + 2}");
print("nested ${"inner ${name}"}");
`, "welcome to yarel v0.1!", "3", "nested inner yarel")
}

func TestIndexing(t *testing.T) {
	testRunOutput(t, `
var xs = [10, 20, 30];
print(xs[0]);
print(xs[-1]);
xs[1] = 21;
print(xs);
var m = Map();
m["k"] = "v";
print(m["k"]);
print("abc"[1]);
`, "10", "30", "[10, 21, 30]", "v", "b")
}

func TestListMethods(t *testing.T) {
	testRunOutput(t, `
var xs = [];
xs.push(1);
xs.push(2);
print(xs.len());
print(xs.pop());
print(xs);
print(List(1, 2, 3));
print([1, 2, 3, 4][Range(1, 3)]);
`, "2", "2", "[1]", "[1, 2, 3]", "[2, 3]")
}

func TestMapMethods(t *testing.T) {
	testRunOutput(t, `
var m = Map();
m.insert("a", 1);
m.insert("b", 2);
print(m.len());
print(m.has_key("a"));
print(m.get("missing"));
print(m.remove("a"));
print(m.len());
`, "2", "true", "nil", "1", "1")
}

func TestRuntimeErrors(t *testing.T) {
	cases := map[string]struct {
		source string
		kind   ErrorKind
	}{
		"TypeErrorAdd":    {`return 1 + "a";`, TypeError},
		"TypeErrorNegate": {`return -"a";`, TypeError},
		"TypeErrorCall":   {"var x = 1; return x();", TypeError},
		"ArityError":      {"fn f(a) { } f(1, 2);", ArityError},
		"NameError":       {"return missing;", NameError},
		"AttributeError":  {"class C { } C.new().missing();", AttributeError},
		"IndexError":      {"return [1][5];", IndexError},
		"MapKeyError":     {`var m = Map(); return m["k"];`, IndexError},
		"FieldOnNumber":   {"var n = 1; n.field = 2;", TypeError},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			testExpectError(t, c.source, c.kind)
		})
	}
}

// TestErrorTraceback tests that runtime errors carry the frame stack.
func TestErrorTraceback(t *testing.T) {
	vm, _ := newTestVM()
	_, err := vm.DoString(`
fn inner() {
    return nil + 1;
}
fn outer() {
    return inner();
}
outer();
`, "test")
	re, ok := err.(*RuntimeError)
	if !ok {
		t.Fatalf("expected a RuntimeError, got %v", err)
	}
	if len(re.Trace) != 3 {
		t.Fatalf("expected 3 trace entries, got %d: %v", len(re.Trace), re.Trace)
	}
	if re.Trace[0].Function != "inner()" || re.Trace[1].Function != "outer()" || re.Trace[2].Function != "script" {
		t.Errorf("wrong trace: %v", re.Trace)
	}
}

// TestInterning tests that content-equal strings are the same object.
func TestInterning(t *testing.T) {
	vm, _ := newTestVM()
	a := vm.Intern("interned contents")
	b := vm.Intern("interned contents")
	if a != b {
		t.Error("equal-content strings are distinct objects")
	}
	v, err := vm.DoString(`return "inter" + "ned";`, "test")
	if err != nil {
		t.Fatal(err)
	}
	if v.AsObj() != Obj(vm.Intern("interned")) {
		t.Error("runtime concatenation did not intern")
	}
}

// TestRegisterNative tests the host native registration surface, including
// overriding print the way the test harness of the original does.
func TestRegisterNative(t *testing.T) {
	vm, _ := newTestVM()
	var captured []string
	vm.RegisterNative("print", 1, func(vm *VM, args []Value) (Value, error) {
		captured = append(captured, args[1].String())
		return Nil(), nil
	})
	vm.RegisterNative("twice", 1, func(vm *VM, args []Value) (Value, error) {
		if !args[1].IsNumber() {
			return Value{}, vm.newError(TypeError, "expected a number")
		}
		return Number(args[1].AsNumber() * 2), nil
	})
	if _, err := vm.DoString(`print(twice(21));`, "test"); err != nil {
		t.Fatal(err)
	}
	if len(captured) != 1 || captured[0] != "42" {
		t.Errorf("wrong captured output: %v", captured)
	}
}

func TestScriptReturn(t *testing.T) {
	v := testRunValue(t, `
var x = 40;
return x + 2;
`)
	if !v.IsNumber() || v.AsNumber() != 42 {
		t.Errorf("expected 42, got %s", v)
	}
	if v := testRunValue(t, "var x = 1;"); !v.IsNil() {
		t.Errorf("expected nil script result, got %s", v)
	}
}

func TestStringify(t *testing.T) {
	cases := map[string]struct {
		source string
		want   string
	}{
		"Nil":      {"print(nil);", "nil"},
		"True":     {"print(true);", "true"},
		"Integer":  {"print(42);", "42"},
		"Fraction": {"print(2.5);", "2.5"},
		"BigInt":   {"print(10000000);", "10000000"},
		"String":   {`print("x");`, "x"},
		"List":     {`print([1, "a", nil]);`, "[1, a, nil]"},
		"Class":    {"class Foo { } print(Foo);", "Foo"},
		"Instance": {"class Foo { } print(Foo.new());", "Foo instance"},
		"Function": {"fn f() { } print(f);", "<fn f>"},
		"Sentinel": {"print(sentinel());", "sentinel"},
		"Range":    {"print(Range(1, 4));", "Range(1, 4)"},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			testRunOutput(t, c.source, c.want)
		})
	}
}

func TestStackOverflow(t *testing.T) {
	testExpectError(t, `
fn recurse() {
    return recurse();
}
recurse();
`, StackOverflow)
}
