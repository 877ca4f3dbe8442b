package yarel

import "testing"

// TestCollectReclaimsGarbage tests that unreachable objects go away on the
// next full cycle while reachable ones survive.
func TestCollectReclaimsGarbage(t *testing.T) {
	vm, _ := newTestVM()
	_, err := vm.DoString(`
var keep = "kept-string";
var kept_list = [1, 2, 3];
var i = 0;
while i < 200 {
    var garbage = [i, "garbage ${i}"];
    i += 1;
}
`, "test")
	if err != nil {
		t.Fatal(err)
	}
	freed := vm.heap.collect()
	if freed == 0 {
		t.Error("no garbage reclaimed")
	}
	if _, ok := vm.strings["garbage 150"]; ok {
		t.Error("unreachable interned string survived the sweep")
	}
	if _, ok := vm.strings["kept-string"]; !ok {
		t.Error("reachable interned string was swept")
	}
	if v, ok := vm.Global("kept_list"); !ok || v.AsObj().(*ObjList).elems[2].AsNumber() != 3 {
		t.Error("reachable list damaged by collection")
	}
}

// TestCollectCycles tests that cyclic object graphs are reclaimed, which a
// reference-counting design could not do.
func TestCollectCycles(t *testing.T) {
	vm, _ := newTestVM()
	vm.heap.collect()
	live := vm.heap.Live()
	if _, err := vm.DoString(`
class Node { }
var i = 0;
while i < 50 {
    var a = Node.new();
    var b = Node.new();
    a.other = b;
    b.other = a;
    a.self_ref = || a;
    i += 1;
}
`, "test"); err != nil {
		t.Fatal(err)
	}
	vm.heap.collect()
	if vm.heap.Live() > live+8 {
		t.Errorf("cyclic garbage not reclaimed: %d live objects, was %d", vm.heap.Live(), live)
	}
}

// TestStressCollection runs a script with a collection on every allocation
// to shake out unrooted temporaries.
func TestStressCollection(t *testing.T) {
	vm, out := newTestVM()
	vm.heap.stress = true
	_, err := vm.DoString(`
#[constructor(new), derive(Iter)]
class Countdown {
    fn new(self, n) {
        self.n = n;
    }
    fn __iter__(self) {
        return self;
    }
    fn __next__(self) {
        if self.n <= 0 {
            return sentinel();
        }
        self.n = self.n - 1;
        return "tick ${self.n}";
    }
}
var f = Fiber.new(|| {
    for s in Countdown.new(3) {
        Fiber.yield(s);
    }
});
print(f.call());
print(f.call());
print(f.call());
print(f.call());
`, "test")
	if err != nil {
		t.Fatal(err)
	}
	want := "tick 2\ntick 1\ntick 0\nnil\n"
	if out.String() != want {
		t.Errorf("wrong output under GC stress:\nexpected:\n%sactual:\n%s", want, out.String())
	}
}

// TestThresholdGrowth tests that the trigger threshold adapts after each
// cycle.
func TestThresholdGrowth(t *testing.T) {
	vm, _ := newTestVM()
	vm.heap.collect()
	after := vm.heap.Threshold()
	if after < minHeapThreshold {
		t.Errorf("threshold below floor: %d", after)
	}
	if want := int(float64(vm.heap.Bytes()) * vm.heap.growth); after != want && after != minHeapThreshold {
		t.Errorf("threshold %d, expected %d or the floor", after, want)
	}
}

// TestCollectorBuiltin exercises the script-level surface of the heap.
func TestCollectorBuiltin(t *testing.T) {
	testRunOutput(t, `
var freed = Collector.collect();
print(freed >= 0);
print(Collector.count() > 0);
print(Collector.threshold() > 0);
print(Collector.cycles() > 0);
`, "true", "true", "true", "true")
}

// TestUpvaluesSurviveCollection tests that closed upvalues keep their
// values across cycles.
func TestUpvaluesSurviveCollection(t *testing.T) {
	vm, out := newTestVM()
	if _, err := vm.DoString(`
fn make() {
    var secret = "up" + "value-data";
    return || secret;
}
var get = make();
`, "test"); err != nil {
		t.Fatal(err)
	}
	vm.heap.collect()
	if _, err := vm.DoString(`print(get());`, "test"); err != nil {
		t.Fatal(err)
	}
	if out.String() != "upvalue-data\n" {
		t.Errorf("closed upvalue lost its value: %q", out.String())
	}
}
