package testutils

import (
	"testing"

	"github.com/yarel-lang/yarel"
)

func TestSourceTestCase(t *testing.T) {
	t.Run("Number", SourceTestCase{
		Source: "return 2 + 2;",
		Pass:   PassNumber(4),
	}.TestFunc())
	t.Run("String", SourceTestCase{
		Source: `return "a" + "b";`,
		Pass:   PassString("ab"),
	}.TestFunc())
	t.Run("Failure", SourceTestCase{
		Source: "return missing;",
		Pass:   PassFailure(yarel.NameError),
	}.TestFunc())
	t.Run("Success", SourceTestCase{
		Source: "var a = 1;",
		Pass:   PassSuccess(),
	}.TestFunc())
}

func TestExpectOutput(t *testing.T) {
	ExpectOutput(t, `print("one"); print(2);`, []string{"one", "2"})
}

func TestRunScript(t *testing.T) {
	if got := RunScript(t, `print("captured");`); got != "captured\n" {
		t.Errorf("wrong captured output %q", got)
	}
}
