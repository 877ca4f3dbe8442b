// Package testutils provides helpers for testing Yarel code in Go.
package testutils

import (
	"strings"
	"testing"

	"github.com/yarel-lang/yarel"
)

// NewVM returns a fresh VM whose print output is captured. Each test gets
// its own VM because globals and the intern table are process-wide state.
func NewVM() (*yarel.VM, *strings.Builder) {
	out := &strings.Builder{}
	vm := yarel.NewVM(nil)
	vm.Stdout = out
	return vm, out
}

// A SourceTestCase is a test case containing Yarel source code and a
// predicate to check the result.
type SourceTestCase struct {
	// Source is the Yarel source code to execute.
	Source string
	// Pass is a predicate taking the result of executing Source. If Pass
	// returns false, the test fails.
	Pass func(result yarel.Value, err error) bool
}

// TestFunc returns a test function for the test case.
func (c SourceTestCase) TestFunc() func(*testing.T) {
	return func(t *testing.T) {
		vm, _ := NewVM()
		result, err := vm.DoString(c.Source, "test")
		if !c.Pass(result, err) {
			if err != nil {
				t.Errorf("%q produced wrong result; failed with %v", c.Source, err)
			} else {
				t.Errorf("%q produced wrong result; got %s", c.Source, vm.ToString(result))
			}
		}
	}
}

// PassEqual returns a Pass predicate on value equality with want.
func PassEqual(want yarel.Value) func(yarel.Value, error) bool {
	return func(result yarel.Value, err error) bool {
		return err == nil && want.Equal(result)
	}
}

// PassNumber returns a Pass predicate on numeric equality.
func PassNumber(want float64) func(yarel.Value, error) bool {
	return PassEqual(yarel.Number(want))
}

// PassString returns a Pass predicate checking the result renders as want.
func PassString(want string) func(yarel.Value, error) bool {
	return func(result yarel.Value, err error) bool {
		return err == nil && result.String() == want
	}
}

// PassFailure returns a Pass predicate that succeeds iff execution raised
// a runtime error of the given kind.
func PassFailure(kind yarel.ErrorKind) func(yarel.Value, error) bool {
	return func(result yarel.Value, err error) bool {
		re, ok := err.(*yarel.RuntimeError)
		return ok && re.Kind == kind
	}
}

// PassSuccess returns a Pass predicate that succeeds iff execution did.
func PassSuccess() func(yarel.Value, error) bool {
	return func(result yarel.Value, err error) bool {
		return err == nil
	}
}

// RunScript executes source and returns the captured print output. Compile
// and runtime errors fail the test immediately.
func RunScript(t *testing.T, source string) string {
	t.Helper()
	vm, out := NewVM()
	if _, err := vm.DoString(source, "test"); err != nil {
		t.Fatalf("script failed: %v", err)
	}
	return out.String()
}

// ExpectOutput executes source and compares the captured print output with
// the expected lines.
func ExpectOutput(t *testing.T, source string, want []string) {
	t.Helper()
	got := RunScript(t, source)
	wantJoined := ""
	for _, line := range want {
		wantJoined += line + "\n"
	}
	if got != wantJoined {
		t.Errorf("wrong output:\nexpected:\n%s\nactual:\n%s", wantJoined, got)
	}
}
