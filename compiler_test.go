package yarel

import (
	"strings"
	"testing"
)

// testCompileError asserts that source fails to compile with a diagnostic
// containing the given substring.
func testCompileError(t *testing.T, source, substring string) {
	t.Helper()
	vm, _ := newTestVM()
	_, err := vm.Compile(source)
	ce, ok := err.(*CompileError)
	if !ok {
		t.Fatalf("expected a CompileError, got %v", err)
	}
	for _, msg := range ce.Messages {
		if strings.Contains(msg, substring) {
			return
		}
	}
	t.Errorf("no diagnostic contains %q: %v", substring, ce.Messages)
}

func TestCompileErrors(t *testing.T) {
	cases := map[string]struct {
		source    string
		substring string
	}{
		"DuplicateLocal":      {"{ var a = 1; var a = 2; }", "already declared"},
		"OwnInitializer":      {"{ var a = a; }", "own initializer"},
		"SuperOutsideClass":   {"var x = super.foo;", "outside of a class"},
		"SuperNoParent":       {"class C { fn m(self) { return super.m(); } }", "no superclass"},
		"SelfInherit":         {"class C < C { }", "inherit from itself"},
		"ReturnInCtor":        {"#[constructor(new)] class C { fn new(self) { return 1; } }", "return a value from a constructor"},
		"BreakOutsideLoop":    {"break;", "outside of a loop"},
		"ContinueOutsideLoop": {"continue;", "outside of a loop"},
		"MissingSemi":         {"var a = 1", "';'"},
		"MissingBrace":        {"if true { print(1);", "'}'"},
		"BadAttribute":        {"#[frobnicate(1)] class C { }", "unknown attribute"},
		"DeriveAndLess":       {"#[derive(A)] class B < A { }", "cannot combine"},
		"MethodWithoutSelf":   {"class C { fn m(x) { } }", "'self'"},
		"BadAssignTarget":     {"1 + 2 = 3;", "assignment target"},
		"SelfAssign":          {"class C { fn m(self) { self = 1; } }", "assignment target"},
		"LexicalError":        {"var a = @;", "unexpected character"},
		"ExpectedExpression":  {"var a = ;", "expected expression"},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			testCompileError(t, c.source, c.substring)
		})
	}
}

// TestMultipleDiagnostics tests that the compiler synchronizes and reports
// several errors in one pass.
func TestMultipleDiagnostics(t *testing.T) {
	vm, _ := newTestVM()
	_, err := vm.Compile(`
var a = ;
var b = ;
`)
	ce, ok := err.(*CompileError)
	if !ok {
		t.Fatalf("expected a CompileError, got %v", err)
	}
	if len(ce.Messages) < 2 {
		t.Errorf("expected at least 2 diagnostics, got %v", ce.Messages)
	}
}

// TestErrorLineNumbers tests that diagnostics carry the offending line.
func TestErrorLineNumbers(t *testing.T) {
	vm, _ := newTestVM()
	_, err := vm.Compile("var ok = 1;\nvar bad = ;\n")
	ce, ok := err.(*CompileError)
	if !ok {
		t.Fatalf("expected a CompileError, got %v", err)
	}
	if !strings.Contains(ce.Messages[0], "[line 2]") {
		t.Errorf("diagnostic lacks the line: %v", ce.Messages[0])
	}
}

// TestDisassemble smoke-tests the chunk listing.
func TestDisassemble(t *testing.T) {
	vm, _ := newTestVM()
	fn, err := vm.Compile(`print(1 + 2);`)
	if err != nil {
		t.Fatal(err)
	}
	b := strings.Builder{}
	Disassemble(&b, fn.Chunk(), "test")
	listing := b.String()
	for _, want := range []string{"GET_GLOBAL", "CONSTANT", "ADD", "CALL", "RETURN"} {
		if !strings.Contains(listing, want) {
			t.Errorf("listing lacks %s:\n%s", want, listing)
		}
	}
}

// TestClosureBytecode tests that nested capture emits upvalue descriptors
// transitively.
func TestClosureBytecode(t *testing.T) {
	vm, _ := newTestVM()
	fn, err := vm.Compile(`
fn outer() {
    var x = 1;
    fn middle() {
        fn inner() {
            return x;
        }
        return inner;
    }
    return middle;
}
`)
	if err != nil {
		t.Fatal(err)
	}
	outer := findFunction(t, fn, "outer")
	middle := findFunction(t, outer, "middle")
	inner := findFunction(t, middle, "inner")
	if len(middle.upvalues) != 1 || !middle.upvalues[0].isLocal {
		t.Errorf("middle should capture one local upvalue, has %v", middle.upvalues)
	}
	if len(inner.upvalues) != 1 || inner.upvalues[0].isLocal {
		t.Errorf("inner should capture one transitive upvalue, has %v", inner.upvalues)
	}
}

func findFunction(t *testing.T, in *ObjFunction, name string) *ObjFunction {
	t.Helper()
	for _, c := range in.chunk.constants {
		if f, ok := c.AsObj().(*ObjFunction); ok && f.Name() == name {
			return f
		}
	}
	t.Fatalf("no function %q among the constants of %s", name, in)
	return nil
}

// TestParensOptional tests that conditions accept both bare and
// parenthesized expressions.
func TestParensOptional(t *testing.T) {
	testRunOutput(t, `
if (1 < 2) {
    print("parens");
}
if 1 < 2 {
    print("bare");
}
`, "parens", "bare")
}
