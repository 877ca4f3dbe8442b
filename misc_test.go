package yarel

import (
	"runtime"
	"strconv"
	"testing"
	"time"
)

// TestDate exercises the Date built-in.
func TestDate(t *testing.T) {
	vm, out := newTestVM()
	before := float64(time.Now().UnixNano()) / 1e9
	v, err := vm.DoString(`return Date.now().unix();`, "test")
	if err != nil {
		t.Fatal(err)
	}
	if !v.IsNumber() || v.AsNumber() < before-1 || v.AsNumber() > before+60 {
		t.Errorf("implausible unix time %s", v)
	}
	if _, err := vm.DoString(`print(Date.now().format("%Y"));`, "test"); err != nil {
		t.Fatal(err)
	}
	year, cerr := strconv.Atoi(out.String()[:4])
	if cerr != nil || year < 2020 {
		t.Errorf("implausible formatted year %q", out.String())
	}
	v, err = vm.DoString(`
var d = Date.now();
return d.add_seconds(60).unix() - d.unix();
`, "test")
	if err != nil {
		t.Fatal(err)
	}
	if v.AsNumber() < 59.9 || v.AsNumber() > 60.1 {
		t.Errorf("add_seconds drifted: %s", v)
	}
}

// TestSystem exercises the System built-in.
func TestSystem(t *testing.T) {
	vm, _ := newTestVM()
	v, err := vm.DoString(`return System.platform();`, "test")
	if err != nil {
		t.Fatal(err)
	}
	if v.String() != runtime.GOOS {
		t.Errorf("platform %s, expected %s", v, runtime.GOOS)
	}
	if _, err := vm.DoString(`return System.platformVersion();`, "test"); err != nil {
		t.Fatal(err)
	}
}

// TestClock tests the clock native.
func TestClock(t *testing.T) {
	vm, _ := newTestVM()
	v, err := vm.DoString(`return clock();`, "test")
	if err != nil {
		t.Fatal(err)
	}
	now := float64(time.Now().UnixNano()) / 1e9
	if !v.IsNumber() || v.AsNumber() > now || v.AsNumber() < now-60 {
		t.Errorf("implausible clock value %s", v)
	}
}
